package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/term"
)

type imageEncodeFunc func(io.Writer, image.Image) error

func imageEncoder(format string) (imageEncodeFunc, error) {
	switch format {
	case "png":
		return png.Encode, nil
	case "bmp":
		return bmp.Encode, nil
	case "tiff", "tif":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, usagef("unsupported image format %q (want png, bmp or tiff)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errTerminalOutput = errors.New("refusing to write binary output to a terminal; use -o")

// writeBinary writes to path, or to stdout when path is "-". Stdout is
// refused when it is a terminal.
func writeBinary(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errTerminalOutput
		}
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
