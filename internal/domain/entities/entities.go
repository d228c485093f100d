// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Page is the extracted text of a single PDF page.
type Page struct {
	Number int // 1-based
	Text   string
}

// Document represents a loaded source document.
type Document struct {
	ID       string
	Name     string
	Path     string
	Pages    []Page
	LoadedAt time.Time
}

// Content returns the text of all pages joined by blank lines.
func (d *Document) Content() string {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Text) + 2
	}
	buf := make([]byte, 0, n)
	for i, p := range d.Pages {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}

// Chunk is a contiguous span of document text, the unit of retrieval.
// Chunks are immutable once written to a store.
type Chunk struct {
	ID         string
	DocumentID string
	Source     string // file name of the originating document
	Page       int
	Index      int // position in document
	Content    string
	Embedding  []float32
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk Chunk
	Score float64 // cosine similarity
}

// Turn is one answered question in a conversation.
type Turn struct {
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Answer is what the pipeline hands back to the caller.
type Answer struct {
	Text     string
	Sources  []QueryResult
	Fallback bool // Text is a canned message, not model output
}
