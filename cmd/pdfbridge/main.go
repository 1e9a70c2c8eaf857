package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/woxQAQ/pdfbridge/internal/bundle"
	"github.com/woxQAQ/pdfbridge/internal/config"
	"github.com/woxQAQ/pdfbridge/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage: pdfbridge [global flags] <command> [flags] <file>

Commands:
  info      print a JSON report of the document
  text      extract text (-pages 1,2)
  render    rasterise a page (-page N -dpi D -max M -format png|bmp|tiff -o out)
  save      re-serialise the document (-version 1.7 -flags n -validate -o out)
  outline   print the bookmark tree
  links     print the links of a page (-page N)
  search    find text on a page (-page N -q str)
  sigs      print signatures (-dump for a hex dump of their contents)
  verify    check a document with the pure-Go validators

Use "-" as the file to read standard input.

Global flags:
`

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	libPath := flag.String("lib", "", "Path to the PDFium shared library; overrides the config")
	password := flag.String("password", "", "Document password")
	askPassword := flag.Bool("ask-password", false, "Prompt for the document password")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfbridge: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "pdfbridge: %v\n", err)
			os.Exit(2)
		}
	}
	if *libPath != "" {
		cfg.Library.Path = *libPath
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Debug("Starting pdfbridge",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	if *askPassword {
		pw, err := readPassword()
		if err != nil {
			logger.Fatal("Failed to read password", zap.Error(err))
		}
		*password = pw
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		// Jobs already running on the native thread finish; queued ones
		// are dropped.
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	manager := bundle.NewManager(cfg, logger)
	cli := &app{
		cfg:      cfg,
		manager:  manager,
		svc:      service.New(manager, cfg.Render, logger),
		password: *password,
		logger:   logger,
	}

	err = cli.run(ctx, flag.Arg(0), flag.Args()[1:])
	if closeErr := cli.close(); closeErr != nil {
		logger.Error("Failed to shut down pdfium", zap.Error(closeErr))
	}

	var usageErr *usageError
	switch {
	case err == nil:
	case errors.As(err, &usageErr):
		fmt.Fprintf(os.Stderr, "pdfbridge: %v\n", err)
		os.Exit(2)
	default:
		logger.Error("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Level() == zap.DebugLevel {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger.WithOptions(zap.IncreaseLevel(cfg.Level()))
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("-ask-password needs a terminal on standard input")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

const shutdownTimeout = 10 * time.Second

func (a *app) close() error {
	if !a.manager.IsStarted() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.svc.Close(ctx)
}
