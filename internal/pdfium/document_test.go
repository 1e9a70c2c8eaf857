package pdfium

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

func TestLoadDocument(t *testing.T) {
	f := newFakePDFium(t)
	l := newTestLibrary(t, f, nil)

	doc, err := l.LoadDocument(minimalPDF, "")
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	n, err := l.PageCount(doc)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PageCount mismatch: got %d, want 1", n)
	}
}

func TestLoadDocumentMalformed(t *testing.T) {
	f := newFakePDFium(t)
	l := newTestLibrary(t, f, nil)

	_, err := l.LoadDocument([]byte("not a pdf"), "")
	var de *DocumentLoadError
	if !errors.As(err, &de) {
		t.Fatalf("Expected *DocumentLoadError, got %v", err)
	}
	if de.Code != ErrCodeFormat {
		t.Errorf("Code mismatch: got %v, want %v", de.Code, ErrCodeFormat)
	}
	if !strings.Contains(err.Error(), "error code: 3") {
		t.Errorf("Error should mention the native code: %q", err.Error())
	}
	if l.OpenHandles() != 0 {
		t.Errorf("Failed load must not allocate a handle")
	}

	_, err = l.LoadDocument(nil, "")
	if !errors.As(err, &de) || de.Code != ErrCodeFormat {
		t.Errorf("Expected *DocumentLoadError with the format code for empty input, got %v", err)
	}
	if !strings.Contains(err.Error(), "error code: 3") {
		t.Errorf("Error should mention the native code: %q", err.Error())
	}
	if l.OpenHandles() != 0 {
		t.Errorf("Empty load must not allocate a handle")
	}
}

func TestLoadDocumentPassword(t *testing.T) {
	f := newFakePDFium(t)
	f.newDoc = func() *fakeDoc {
		d := defaultFakeDoc()
		d.password = "secret"
		return d
	}
	l := newTestLibrary(t, f, nil)

	_, err := l.LoadDocument(minimalPDF, "")
	var de *DocumentLoadError
	if !errors.As(err, &de) || de.Code != ErrCodePassword {
		t.Fatalf("Expected password error, got %v", err)
	}

	if _, err := l.LoadDocument(minimalPDF, "secret"); err != nil {
		t.Errorf("LoadDocument with password failed: %v", err)
	}
}

func TestLoadDocumentFrom(t *testing.T) {
	f := newFakePDFium(t)
	l := newTestLibrary(t, f, nil)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, minimalPDF, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := l.LoadDocumentFrom(FileSource{Path: path}, ""); err != nil {
		t.Errorf("LoadDocumentFrom file failed: %v", err)
	}
	if _, err := l.LoadDocumentFrom(MemorySource{Data: minimalPDF}, ""); err != nil {
		t.Errorf("LoadDocumentFrom memory failed: %v", err)
	}
	if _, err := l.LoadDocumentFrom(FileSource{Path: filepath.Join(t.TempDir(), "missing.pdf")}, ""); err == nil {
		t.Error("Expected error for missing file")
	}

	_, err := l.LoadDocumentFrom(MemorySource{Label: "upload", Data: []byte("junk")}, "")
	var de *DocumentLoadError
	if !errors.As(err, &de) || de.Source != "upload" {
		t.Errorf("Expected load error naming the source, got %v", err)
	}
}

func TestDocumentInfo(t *testing.T) {
	f := newFakePDFium(t)
	l := newTestLibrary(t, f, nil)
	doc, _ := openTestPage(t, l)

	title, ok, err := l.MetaText(doc, "Title")
	if err != nil || !ok || title != "Hello" {
		t.Errorf("MetaText(Title) = %q, %v, %v", title, ok, err)
	}
	// Present but empty is reported as absent.
	if _, ok, err := l.MetaText(doc, "Author"); ok || err != nil {
		t.Errorf("MetaText(Author) = %v, %v; want absent", ok, err)
	}
	if _, ok, err := l.MetaText(doc, "Keywords"); ok || err != nil {
		t.Errorf("MetaText(Keywords) = %v, %v; want absent", ok, err)
	}

	version, err := l.FileVersion(doc)
	if err != nil || version != 17 {
		t.Errorf("FileVersion = %d, %v", version, err)
	}
	label, ok, err := l.PageLabel(doc, 0)
	if err != nil || !ok || label != "i" {
		t.Errorf("PageLabel = %q, %v, %v", label, ok, err)
	}
	rev, err := l.SecurityHandlerRevision(doc)
	if err != nil || rev != -1 {
		t.Errorf("SecurityHandlerRevision = %d, %v", rev, err)
	}
	perms, err := l.Permissions(doc)
	if err != nil || perms != 0xFFFFFFFC {
		t.Errorf("Permissions = %#x, %v", perms, err)
	}
}

func TestSignaturesAndAttachments(t *testing.T) {
	f := newFakePDFium(t)
	f.newDoc = func() *fakeDoc {
		d := defaultFakeDoc()
		d.signatures = []*fakeSignature{{
			contents:  []byte{0x30, 0x82, 0x01, 0x00},
			byteRange: []int32{0, 100, 200, 50},
			subFilter: "adbe.pkcs7.detached",
			reason:    "Approved",
			time:      "D:20240101120000Z",
			docMDP:    2,
		}}
		d.attachments = []*fakeAttachment{
			{name: "notes.txt", data: []byte("hello")},
			{name: "broken.bin"},
		}
		return d
	}
	l := newTestLibrary(t, f, nil)
	doc, _ := openTestPage(t, l)

	n, err := l.SignatureCount(doc)
	if err != nil || n != 1 {
		t.Fatalf("SignatureCount = %d, %v", n, err)
	}
	sig, err := l.Signature(doc, 0)
	if err != nil {
		t.Fatalf("Signature failed: %v", err)
	}
	want := protocol.Signature{
		Contents:         []byte{0x30, 0x82, 0x01, 0x00},
		ByteRange:        []int32{0, 100, 200, 50},
		SubFilter:        "adbe.pkcs7.detached",
		Reason:           "Approved",
		Time:             "D:20240101120000Z",
		DocMDPPermission: 2,
	}
	if diff := cmp.Diff(want, sig); diff != "" {
		t.Errorf("Signature mismatch (-want +got):\n%s", diff)
	}
	if _, err := l.Signature(doc, 5); err == nil {
		t.Error("Expected error for missing signature")
	}

	att, ok, err := l.Attachment(doc, 0)
	if err != nil || !ok {
		t.Fatalf("Attachment = %v, %v", ok, err)
	}
	if att.Name != "notes.txt" || string(att.Data) != "hello" || att.Size != 5 {
		t.Errorf("Attachment mismatch: %+v", att)
	}
	att, ok, err = l.Attachment(doc, 1)
	if err != nil || ok || att.Name != "broken.bin" {
		t.Errorf("Attachment without data = %+v, %v, %v", att, ok, err)
	}
}
