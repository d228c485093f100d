package vectordb

import (
	"context"
	"sync"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
)

// InMemoryStore is a non-persistent vector store, used for tests and
// one-shot CLI runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks []entities.Chunk
	ids    map[string]int // chunk ID -> position in chunks
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{ids: make(map[string]int)}
}

// Store saves chunks; a chunk with an existing ID replaces the old one.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if i, ok := s.ids[chunk.ID]; ok {
			s.chunks[i] = chunk
			continue
		}
		s.ids[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	return nil
}

// Search finds the most similar chunks to a query embedding.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		return nil, nil
	}

	results := make([]entities.QueryResult, len(s.chunks))
	for i, chunk := range s.chunks {
		results[i] = entities.QueryResult{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		}
	}
	return topResults(results, topK), nil
}

// Count returns the number of stored chunks.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}
