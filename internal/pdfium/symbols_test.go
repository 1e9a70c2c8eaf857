package pdfium

import (
	"errors"
	"fmt"
	"testing"
)

// fakeDynLib resolves every name not listed in missing.
type fakeDynLib struct {
	missing map[string]bool
	null    map[string]bool
	closed  bool
}

func (f *fakeDynLib) lookup(name string) (uintptr, error) {
	if f.missing[name] {
		return 0, fmt.Errorf("undefined symbol: %s", name)
	}
	if f.null[name] {
		return 0, nil
	}
	return 0x7f000000, nil
}

func (f *fakeDynLib) close() error {
	f.closed = true
	return nil
}

func TestResolveSymbols(t *testing.T) {
	specs := (&symbols{}).table()

	addrs, missing, err := resolveSymbols(&fakeDynLib{}, specs)
	if err != nil {
		t.Fatalf("resolveSymbols failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("Unexpected missing optional symbols: %v", missing)
	}
	if len(addrs) != len(specs) {
		t.Errorf("Resolved %d of %d symbols", len(addrs), len(specs))
	}

	caps := capabilitiesFrom(specs, addrs)
	if !caps.Has(CapTextRenderMode) {
		t.Error("Expected text render mode capability")
	}
}

func TestResolveSymbolsMissingMandatory(t *testing.T) {
	specs := (&symbols{}).table()
	lib := &fakeDynLib{missing: map[string]bool{"FPDF_SaveWithVersion": true}}

	_, _, err := resolveSymbols(lib, specs)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LoadError, got %v", err)
	}
	if le.Symbol != "FPDF_SaveWithVersion" {
		t.Errorf("Symbol mismatch: got %q", le.Symbol)
	}
}

func TestResolveSymbolsNullAddress(t *testing.T) {
	specs := (&symbols{}).table()
	lib := &fakeDynLib{null: map[string]bool{"FPDF_LoadPage": true}}

	_, _, err := resolveSymbols(lib, specs)
	var le *LoadError
	if !errors.As(err, &le) || le.Symbol != "FPDF_LoadPage" {
		t.Fatalf("Expected LoadError for FPDF_LoadPage, got %v", err)
	}
}

func TestResolveSymbolsMissingOptional(t *testing.T) {
	specs := (&symbols{}).table()
	lib := &fakeDynLib{missing: map[string]bool{"FPDFText_GetTextRenderMode": true}}

	addrs, missing, err := resolveSymbols(lib, specs)
	if err != nil {
		t.Fatalf("Optional symbol must not fail the load: %v", err)
	}
	if len(missing) != 1 || missing[0] != "FPDFText_GetTextRenderMode" {
		t.Errorf("Missing mismatch: got %v", missing)
	}

	caps := capabilitiesFrom(specs, addrs)
	if caps.TextRenderMode {
		t.Error("Capability should be absent")
	}
}

func TestSymbolTableNames(t *testing.T) {
	seen := make(map[string]bool)
	optional := 0
	for _, spec := range (&symbols{}).table() {
		if seen[spec.name] {
			t.Errorf("Duplicate symbol %s", spec.name)
		}
		seen[spec.name] = true
		if spec.fn == nil {
			t.Errorf("Symbol %s has no target", spec.name)
		}
		if spec.optional {
			optional++
			if spec.capability == "" {
				t.Errorf("Optional symbol %s names no capability", spec.name)
			}
		}
	}
	if optional != len(KnownCapabilities) {
		t.Errorf("Optional symbols mismatch: got %d, want %d", optional, len(KnownCapabilities))
	}
}

func TestRenderModeFallback(t *testing.T) {
	f := newFakePDFium(t)
	f.renderMode = false
	l := newTestLibrary(t, f, nil)
	_, page := openTestPage(t, l)

	tp, err := l.LoadTextPage(page)
	if err != nil {
		t.Fatalf("LoadTextPage failed: %v", err)
	}
	mode, err := l.CharRenderMode(tp, 0)
	if err != nil {
		t.Fatalf("CharRenderMode failed: %v", err)
	}
	if mode != RenderModeFill {
		t.Errorf("Expected fill fallback, got %d", mode)
	}
}
