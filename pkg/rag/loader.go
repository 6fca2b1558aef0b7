// Package rag feeds documents from the filesystem into a colony:
// loaders extract text per format, a splitter chunks it, and the
// ingestor stages the chunks on the substrate for digestion.
package rag

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader reads a file and extracts its text content.
type Loader interface {
	Load(path string) (string, error)
}

// TextLoader is a generic loader for plain text files (txt, md, code, csv).
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// PDFLoader extracts plain text from PDF files.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		buf.WriteString(text)
		// newline between pages to keep them lexically separate
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

// AutoLoader selects the right loader based on file extension.
// Unknown extensions fall back to plain text.
type AutoLoader struct {
	textLoader Loader
	pdfLoader  Loader
}

func NewAutoLoader() *AutoLoader {
	return &AutoLoader{
		textLoader: NewTextLoader(),
		pdfLoader:  NewPDFLoader(),
	}
}

func (l *AutoLoader) Load(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.pdfLoader.Load(path)
	default:
		return l.textLoader.Load(path)
	}
}
