package usecases

import (
	"context"
	"time"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// VectorRetriever embeds a query and searches a vector store with it.
type VectorRetriever struct {
	embedder ports.EmbeddingService
	store    ports.VectorStore
	timeout  time.Duration
}

// NewVectorRetriever binds a retriever to an opened store.
func NewVectorRetriever(embedder ports.EmbeddingService, store ports.VectorStore, timeout time.Duration) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		store:    store,
		timeout:  timeout,
	}
}

// Retrieve returns at most k chunks, most similar first.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]entities.QueryResult, error) {
	if k <= 0 {
		return nil, nil
	}

	embedCtx, cancel := withTimeout(ctx, r.timeout)
	embedding, err := r.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		return nil, errs.E(errs.KindEmbeddingService, "retrieve.embed", err)
	}

	results, err := r.store.Search(ctx, embedding, k)
	if err != nil {
		return nil, errs.E(errs.KindRetrieval, "retrieve.search", err)
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
