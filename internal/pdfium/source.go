package pdfium

import (
	"fmt"
	"os"
)

// DocumentSource supplies the bytes of a PDF document.
type DocumentSource interface {
	// Name identifies the source in errors and logs.
	Name() string
	Bytes() ([]byte, error)
}

// MemorySource is a document already in memory.
type MemorySource struct {
	Label string
	Data  []byte
}

func (s MemorySource) Name() string {
	if s.Label == "" {
		return "memory"
	}
	return s.Label
}

func (s MemorySource) Bytes() ([]byte, error) {
	return s.Data, nil
}

// FileSource reads a document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return s.Path
}

func (s FileSource) Bytes() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}
