// Package ports defines interfaces for external dependencies.
// Clean Architecture: usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one per input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatMessage is one message of a chat-completion request.
type ChatMessage struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMService generates text from a hosted chat model.
type LLMService interface {
	// Generate returns the model's reply to the given messages verbatim.
	Generate(ctx context.Context, messages []ChatMessage) (string, error)
}

// VectorStore persists and queries chunk embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings atomically.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the topK chunks most similar to a query embedding, most similar first.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}

// DocumentLoader reads and extracts text from documents.
type DocumentLoader interface {
	// Load reads a document from the given path, page by page.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// Retriever returns the chunks most relevant to a query text.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]entities.QueryResult, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
