package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/models"
)

func testLoader(t *testing.T) (*DocumentLoader, string) {
	t.Helper()
	dir := t.TempDir()
	return NewDocumentLoader(&config.Config{FileStorageDir: dir}), dir
}

func TestLoadPlainText(t *testing.T) {
	loader, dir := testLoader(t)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello from a text file"), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := loader.Load(context.Background(), models.Document{Filename: "notes.txt"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if text != "hello from a text file" {
		t.Fatalf("got %q", text)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	loader, dir := testLoader(t)
	if err := os.WriteFile(filepath.Join(dir, "binary.exe"), []byte{0x01}, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := loader.Load(context.Background(), models.Document{Filename: "binary.exe"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	loader, dir := testLoader(t)
	if err := os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("   \n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := loader.Load(context.Background(), models.Document{Filename: "blank.txt"})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader, _ := testLoader(t)
	if _, err := loader.Load(context.Background(), models.Document{Filename: "gone.txt"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractDocx(t *testing.T) {
	loader, _ := testLoader(t)

	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	text, err := loader.Extract(context.Background(), "report.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Fatalf("missing first paragraph in %q", text)
	}
	if !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("runs not joined within a paragraph: %q", text)
	}
}

func TestExtractDocxMissingBody(t *testing.T) {
	loader, _ := testLoader(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("word/other.xml")
	f.Write([]byte("<x/>"))
	zw.Close()

	if _, err := loader.Extract(context.Background(), "broken.docx", buf.Bytes()); err == nil {
		t.Fatal("expected error for docx without word/document.xml")
	}
}
