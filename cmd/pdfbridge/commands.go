package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/midbel/hexdump"
	"go.uber.org/zap"

	"github.com/woxQAQ/pdfbridge/internal/bundle"
	"github.com/woxQAQ/pdfbridge/internal/config"
	"github.com/woxQAQ/pdfbridge/internal/pdfium"
	"github.com/woxQAQ/pdfbridge/internal/service"
)

type app struct {
	cfg      *config.Config
	manager  *bundle.Manager
	svc      *service.Service
	password string
	logger   *zap.Logger
	// stdout is replaced in tests.
	stdout io.Writer
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *app) out() io.Writer {
	if a.stdout != nil {
		return a.stdout
	}
	return os.Stdout
}

type command struct {
	// native is false for commands that never load the PDFium library.
	native bool
	run    func(a *app, ctx context.Context, fs *flag.FlagSet, args []string) error
}

var commands = map[string]command{
	"info":    {native: true, run: (*app).info},
	"text":    {native: true, run: (*app).text},
	"render":  {native: true, run: (*app).render},
	"save":    {native: true, run: (*app).save},
	"outline": {native: true, run: (*app).outline},
	"links":   {native: true, run: (*app).links},
	"search":  {native: true, run: (*app).search},
	"sigs":    {native: true, run: (*app).sigs},
	"verify":  {native: false, run: (*app).verify},
}

func (a *app) run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return usagef("unknown command %q", name)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if cmd.native {
		if err := a.manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start pdfium: %w", err)
		}
	}
	return cmd.run(a, ctx, fs, args)
}

// parse parses args and returns the document bytes named by the single
// remaining argument.
func parse(fs *flag.FlagSet, args []string) ([]byte, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}
	if fs.NArg() != 1 {
		return nil, usagef("%s: expected exactly one file argument", fs.Name())
	}
	return readInput(fs.Arg(0))
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parsePages turns "1,3,5" into zero-based indexes. "" selects every page.
func parsePages(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, usagef("invalid page number %q", part)
		}
		pages = append(pages, n-1)
	}
	return pages, nil
}

func pageIndex(page int) (int, error) {
	if page < 1 {
		return 0, usagef("-page must be 1 or greater")
	}
	return page - 1, nil
}

func (a *app) info(ctx context.Context, fs *flag.FlagSet, args []string) error {
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	report, err := a.svc.Inspect(ctx, data, a.password)
	if err != nil {
		return err
	}
	return writeJSON(a.out(), report)
}

func (a *app) text(ctx context.Context, fs *flag.FlagSet, args []string) error {
	pagesFlag := fs.String("pages", "", "Comma-separated 1-based page numbers (default all)")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	pages, err := parsePages(*pagesFlag)
	if err != nil {
		return err
	}

	texts, err := a.svc.ExtractText(ctx, data, a.password, pages)
	if err != nil {
		return err
	}
	w := a.out()
	for i, t := range texts {
		if i > 0 {
			// Form feed between pages.
			fmt.Fprint(w, "\f")
		}
		fmt.Fprintln(w, t)
	}
	return nil
}

func (a *app) render(ctx context.Context, fs *flag.FlagSet, args []string) error {
	page := fs.Int("page", 1, "1-based page number")
	dpi := fs.Float64("dpi", a.cfg.Render.DPI, "Resolution in dots per inch")
	maxDim := fs.Int("max", 0, "Scale down so the longer side is at most this many pixels")
	rotate := fs.Int("rotate", 0, "Quarter turns clockwise (0-3)")
	format := fs.String("format", "png", "Output format: png, bmp or tiff")
	output := fs.String("o", "-", "Output file")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	index, err := pageIndex(*page)
	if err != nil {
		return err
	}
	encode, err := imageEncoder(*format)
	if err != nil {
		return err
	}

	img, err := a.svc.RenderPage(ctx, data, a.password, index, service.RenderRequest{
		DPI:          *dpi,
		MaxDimension: *maxDim,
		Rotation:     *rotate,
	})
	if err != nil {
		return err
	}
	return writeBinary(a.out(), *output, func(w io.Writer) error { return encode(w, img) })
}

func (a *app) save(ctx context.Context, fs *flag.FlagSet, args []string) error {
	versionFlag := fs.String("version", "", "Target PDF version, e.g. 1.7 (default keeps the original)")
	flags := fs.Int("flags", int(pdfium.SaveNoIncremental), "Save flags: 0 none, 1 incremental, 2 no incremental, 3 remove security")
	validate := fs.Bool("validate", false, "Check the output with the pure-Go validators before writing it")
	output := fs.String("o", "", "Output file (\"-\" for standard output)")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		return usagef("save: -o is required")
	}

	opts := pdfium.SaveOptions{Flags: pdfium.SaveFlags(*flags)}
	if *versionFlag != "" {
		if opts.Version, err = pdfium.ParseVersion(*versionFlag); err != nil {
			return usagef("save: %v", err)
		}
	}

	out, err := a.svc.Save(ctx, data, a.password, opts)
	if err != nil {
		return err
	}

	if *validate {
		report, err := a.svc.Verify(out)
		if err != nil {
			return fmt.Errorf("saved document failed verification: %w", err)
		}
		if !report.Valid {
			return fmt.Errorf("saved document failed validation: %s", report.ValidationError)
		}
		a.logger.Info("Saved document validated", zap.Int("pages", report.PageCount))
	}

	return writeBinary(a.out(), *output, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
}

func (a *app) outline(ctx context.Context, fs *flag.FlagSet, args []string) error {
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	nodes, err := a.svc.Outline(ctx, data, a.password)
	if err != nil {
		return err
	}
	return writeJSON(a.out(), nodes)
}

func (a *app) links(ctx context.Context, fs *flag.FlagSet, args []string) error {
	page := fs.Int("page", 1, "1-based page number")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	index, err := pageIndex(*page)
	if err != nil {
		return err
	}
	links, err := a.svc.Links(ctx, data, a.password, index)
	if err != nil {
		return err
	}
	return writeJSON(a.out(), links)
}

func (a *app) search(ctx context.Context, fs *flag.FlagSet, args []string) error {
	page := fs.Int("page", 1, "1-based page number")
	query := fs.String("q", "", "Text to find")
	matchCase := fs.Bool("case", false, "Match case")
	wholeWord := fs.Bool("word", false, "Match whole words only")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	index, err := pageIndex(*page)
	if err != nil {
		return err
	}
	if *query == "" {
		return usagef("search: -q is required")
	}

	var flags pdfium.SearchFlags
	if *matchCase {
		flags |= pdfium.MatchCase
	}
	if *wholeWord {
		flags |= pdfium.MatchWholeWord
	}

	hits, err := a.svc.Search(ctx, data, a.password, index, *query, flags)
	if err != nil {
		return err
	}
	return writeJSON(a.out(), hits)
}

func (a *app) sigs(ctx context.Context, fs *flag.FlagSet, args []string) error {
	dump := fs.Bool("dump", false, "Hex dump each signature's contents")
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	sigs, err := a.svc.Signatures(ctx, data, a.password)
	if err != nil {
		return err
	}
	if !*dump {
		return writeJSON(a.out(), sigs)
	}

	w := a.out()
	for _, sig := range sigs {
		fmt.Fprintf(w, "signature %d: subfilter=%s time=%s reason=%q docmdp=%d byte_range=%v\n",
			sig.Index, sig.SubFilter, sig.Time, sig.Reason, sig.DocMDPPermission, sig.ByteRange)
		if len(sig.Contents) > 0 {
			fmt.Fprintln(w, hexdump.Dump(sig.Contents))
		}
	}
	return nil
}

func (a *app) verify(_ context.Context, fs *flag.FlagSet, args []string) error {
	data, err := parse(fs, args)
	if err != nil {
		return err
	}
	report, err := a.svc.Verify(data)
	if report != nil {
		if werr := writeJSON(a.out(), report); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("document failed validation")
	}
	return nil
}
