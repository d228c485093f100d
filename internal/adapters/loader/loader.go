// Package loader provides document loading adapters.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
)

// PDFLoader extracts text from PDF files page by page.
type PDFLoader struct{}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load reads a PDF and returns one entities.Page per page that has text.
func (l *PDFLoader) Load(ctx context.Context, path string) (doc *entities.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("parsing pdf %s: %v", filepath.Base(path), r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []entities.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages the extractor cannot decode
			continue
		}
		text = cleanPDFContent(text)
		if text == "" {
			continue
		}
		pages = append(pages, entities.Page{Number: i, Text: text})
	}

	return &entities.Document{
		ID:       generateDocID(path),
		Name:     filepath.Base(path),
		Path:     path,
		Pages:    pages,
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// TextLoader loads plain text documents (.txt, .md) as a single page.
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pages []entities.Page
	if text := strings.TrimSpace(string(content)); text != "" {
		pages = []entities.Page{{Number: 1, Text: text}}
	}

	return &entities.Document{
		ID:       generateDocID(path),
		Name:     filepath.Base(path),
		Path:     path,
		Pages:    pages,
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

type docLoader interface {
	Load(context.Context, string) (*entities.Document, error)
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders map[string]docLoader
}

// NewMultiLoader creates a loader that handles PDF and plain text files.
func NewMultiLoader() *MultiLoader {
	text := NewTextLoader()
	return &MultiLoader{
		loaders: map[string]docLoader{
			".txt":      text,
			".md":       text,
			".markdown": text,
			".pdf":      NewPDFLoader(),
		},
	}
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	return exts
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:8])
}

// cleanPDFContent drops control characters the extractor leaves behind.
func cleanPDFContent(content string) string {
	var cleaned strings.Builder
	for _, r := range content {
		if r >= 32 || r == '\n' || r == '\t' {
			cleaned.WriteRune(r)
		}
	}
	return strings.TrimSpace(cleaned.String())
}
