package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/models"
)

// DocumentLoader extracts plain text from uploaded files. Format is decided
// by extension; unknown extensions fail with ErrUnsupportedFormat so the
// batch can continue with the remaining documents.
type DocumentLoader struct {
	storageDir string
}

func NewDocumentLoader(cfg *config.Config) *DocumentLoader {
	return &DocumentLoader{storageDir: cfg.FileStorageDir}
}

// Load reads the document from storage and extracts its text.
func (l *DocumentLoader) Load(ctx context.Context, doc models.Document) (string, error) {
	path := doc.Source()
	if !filepath.IsAbs(path) && l.storageDir != "" {
		path = filepath.Join(l.storageDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", doc.Source(), err)
	}

	text, err := l.Extract(ctx, doc.Filename, content)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// Extract converts raw file bytes to plain text based on the filename's
// extension.
func (l *DocumentLoader) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return l.extractPDF(ctx, content)
	case ".txt", ".md", ".markdown":
		return string(content), nil
	case ".docx":
		return l.extractDocx(content)
	case ".xlsx":
		return l.extractXlsx(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func (l *DocumentLoader) extractPDF(_ context.Context, content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from PDF page", "page", i, "error", err)
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	extracted := textBuilder.String()
	if len(strings.TrimSpace(extracted)) == 0 {
		return "", ErrEmptyDocument
	}
	return extracted, nil
}

// docx is a zip archive; the document body lives in word/document.xml as
// paragraphs of runs of text nodes.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func (l *DocumentLoader) extractDocx(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("docx archive missing word/document.xml")
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var textBuilder strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, r := range p.Runs {
			textBuilder.WriteString(r.Text)
		}
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func (l *DocumentLoader) extractXlsx(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("Failed to read xlsx sheet", "sheet", sheet, "error", err)
			continue
		}
		for _, row := range rows {
			textBuilder.WriteString(strings.Join(row, "\t"))
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}
