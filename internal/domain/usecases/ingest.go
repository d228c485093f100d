// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// embedBatchSize is the number of texts sent per embedding call.
const embedBatchSize = 64

// StoreOpener creates (or reopens) a vector store bound to a directory.
type StoreOpener func(dir string) (ports.VectorStore, error)

// IngestRequest describes one ingestion run.
type IngestRequest struct {
	SourcePath   string
	Destination  string
	ChunkSize    int
	ChunkOverlap int
}

// Validate checks the chunk parameters and that the source does not live
// inside the destination, which is deleted before loading.
func (req IngestRequest) Validate() error {
	if _, err := NewSentenceSplitter(req.ChunkSize, req.ChunkOverlap); err != nil {
		return err
	}
	if req.Destination == "" {
		return errs.New(errs.KindIngestion, "ingest", "destination directory is required")
	}
	inside, err := within(req.Destination, req.SourcePath)
	if err != nil {
		return errs.E(errs.KindIngestion, "ingest", err)
	}
	if inside {
		return errs.New(errs.KindIngestion, "ingest",
			fmt.Sprintf("source %s is inside the store directory %s", req.SourcePath, req.Destination))
	}
	return nil
}

// within reports whether path is dir itself or lies beneath it.
func within(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		// Different volumes.
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// IngestUseCase turns a document into a persisted vector store.
type IngestUseCase struct {
	loader    ports.DocumentLoader
	embedder  ports.EmbeddingService
	openStore StoreOpener
	timeout   time.Duration // per embedding call of embedBatchSize texts; 0 disables
	logger    *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	loader ports.DocumentLoader,
	embedder ports.EmbeddingService,
	openStore StoreOpener,
	timeout time.Duration,
	logger *zap.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		loader:    loader,
		embedder:  embedder,
		openStore: openStore,
		timeout:   timeout,
		logger:    logger,
	}
}

// Ingest loads, chunks, embeds and stores a document. Whatever existed at
// req.Destination is removed first; on failure nothing usable is left there.
func (uc *IngestUseCase) Ingest(ctx context.Context, req IngestRequest) (ports.VectorStore, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	splitter, err := NewSentenceSplitter(req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(req.Destination); err != nil {
		return nil, errs.E(errs.KindIngestion, "ingest.clean", err)
	}

	start := time.Now()
	store, count, err := uc.build(ctx, req, splitter)
	if err != nil {
		if store != nil {
			store.Close()
		}
		if rmErr := os.RemoveAll(req.Destination); rmErr != nil {
			uc.logger.Warn("removing failed store", zap.String("dir", req.Destination), zap.Error(rmErr))
		}
		return nil, err
	}

	uc.logger.Info("document ingested",
		zap.String("source", req.SourcePath),
		zap.String("dir", req.Destination),
		zap.Int("chunks", count),
		zap.Duration("took", time.Since(start)),
	)
	return store, nil
}

func (uc *IngestUseCase) build(ctx context.Context, req IngestRequest, splitter *SentenceSplitter) (ports.VectorStore, int, error) {
	doc, err := uc.loader.Load(ctx, req.SourcePath)
	if err != nil {
		return nil, 0, errs.E(errs.KindIngestion, "ingest.load", err)
	}

	chunks := chunkDocument(doc, splitter)
	if len(chunks) == 0 {
		return nil, 0, errs.New(errs.KindIngestion, "ingest.split",
			fmt.Sprintf("no extractable text in %s", doc.Name))
	}
	uc.logger.Debug("document split",
		zap.String("document", doc.Name),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("chunks", len(chunks)),
	)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := uc.embedAll(ctx, texts)
	if err != nil {
		return nil, 0, errs.E(errs.KindEmbeddingService, "ingest.embed", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	store, err := uc.openStore(req.Destination)
	if err != nil {
		return nil, 0, errs.E(errs.KindIngestion, "ingest.open", err)
	}
	if err := store.Store(ctx, chunks); err != nil {
		return store, 0, errs.E(errs.KindIngestion, "ingest.store", err)
	}
	return store, len(chunks), nil
}

// embedAll embeds texts in batches, each call under its own timeout.
func (uc *IngestUseCase) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		callCtx, cancel := withTimeout(ctx, uc.timeout)
		batch, err := uc.embedder.EmbedBatch(callCtx, texts[start:end])
		cancel()
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("got %d embeddings for %d chunks", len(batch), end-start)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// chunkDocument splits each page separately so chunks never span pages.
func chunkDocument(doc *entities.Document, splitter *SentenceSplitter) []entities.Chunk {
	var chunks []entities.Chunk
	for _, page := range doc.Pages {
		for _, content := range splitter.Split(page.Text) {
			index := len(chunks)
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Source:     doc.Name,
				Page:       page.Number,
				Index:      index,
				Content:    content,
			})
		}
	}
	return chunks
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(docID + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:8])
}

// withTimeout bounds ctx by d; d <= 0 leaves it unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
