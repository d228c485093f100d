package usecases

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// KnowledgeBaseConfig holds the ingestion parameters of a knowledge base.
type KnowledgeBaseConfig struct {
	Dir          string
	ChunkSize    int
	ChunkOverlap int
	EmbedTimeout time.Duration
}

// KnowledgeBase owns the single active vector store. Replacing it is
// serialized against readers: a query never sees a half-built store.
type KnowledgeBase struct {
	mu        sync.RWMutex
	cfg       KnowledgeBaseConfig
	ingest    *IngestUseCase
	embedder  ports.EmbeddingService
	openStore StoreOpener
	recorder  Recorder
	logger    *zap.Logger

	store     ports.VectorStore
	retriever *VectorRetriever
	source    string
}

// NewKnowledgeBase creates an empty knowledge base rooted at cfg.Dir.
func NewKnowledgeBase(
	cfg KnowledgeBaseConfig,
	loader ports.DocumentLoader,
	embedder ports.EmbeddingService,
	openStore StoreOpener,
	logger *zap.Logger,
) *KnowledgeBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeBase{
		cfg:       cfg,
		ingest:    NewIngestUseCase(loader, embedder, openStore, cfg.EmbedTimeout, logger),
		embedder:  embedder,
		openStore: openStore,
		recorder:  nopRecorder{},
		logger:    logger,
	}
}

// WithRecorder sets the metrics sink.
func (kb *KnowledgeBase) WithRecorder(r Recorder) *KnowledgeBase {
	if r != nil {
		kb.recorder = r
	}
	return kb
}

// Ingest replaces the active store with one built from path. Once the
// request is valid, the previous store is closed and its directory deleted
// before the new one is built, so a failed ingest leaves the knowledge base
// empty.
func (kb *KnowledgeBase) Ingest(ctx context.Context, path string) (int, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	req := IngestRequest{
		SourcePath:   path,
		Destination:  kb.cfg.Dir,
		ChunkSize:    kb.cfg.ChunkSize,
		ChunkOverlap: kb.cfg.ChunkOverlap,
	}
	// A rejected request leaves the active store untouched.
	if err := req.Validate(); err != nil {
		kb.recorder.ObserveIngest(ResultFailure, 0)
		return 0, err
	}

	kb.dropLocked()

	store, err := kb.ingest.Ingest(ctx, req)
	if err != nil {
		kb.recorder.ObserveIngest(ResultFailure, 0)
		return 0, err
	}

	count, err := store.Count(ctx)
	if err != nil {
		store.Close()
		os.RemoveAll(kb.cfg.Dir)
		kb.recorder.ObserveIngest(ResultFailure, 0)
		return 0, errs.E(errs.KindIngestion, "ingest.count", err)
	}

	kb.setLocked(store, path)
	kb.recorder.ObserveIngest(ResultSuccess, count)
	return count, nil
}

// Open reuses a store persisted by an earlier run. It reports false when
// the directory is missing or empty.
func (kb *KnowledgeBase) Open(ctx context.Context) (bool, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if info, err := os.Stat(kb.cfg.Dir); err != nil || !info.IsDir() {
		return false, nil
	}

	store, err := kb.openStore(kb.cfg.Dir)
	if err != nil {
		return false, errs.E(errs.KindRetrieval, "open", err)
	}
	count, err := store.Count(ctx)
	if err != nil || count == 0 {
		store.Close()
		return false, errs.E(errs.KindRetrieval, "open.count", err)
	}

	kb.dropLocked()
	kb.setLocked(store, kb.cfg.Dir)
	kb.logger.Info("knowledge base reopened", zap.String("dir", kb.cfg.Dir), zap.Int("chunks", count))
	return true, nil
}

// Reset closes and deletes the active store.
func (kb *KnowledgeBase) Reset() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.dropLocked()
	if err := os.RemoveAll(kb.cfg.Dir); err != nil {
		return errs.E(errs.KindIngestion, "reset", err)
	}
	return nil
}

// Retriever returns a retriever over the active store, or nil when none exists.
func (kb *KnowledgeBase) Retriever() ports.Retriever {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.retriever == nil {
		return nil
	}
	return kb.retriever
}

// View calls fn with the active retriever (nil when uninitialized) while
// holding the store against replacement.
func (kb *KnowledgeBase) View(fn func(ports.Retriever) error) error {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.retriever == nil {
		return fn(nil)
	}
	return fn(kb.retriever)
}

// Source returns the path of the ingested document, if any.
func (kb *KnowledgeBase) Source() string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.source
}

// Ready reports whether a store is active.
func (kb *KnowledgeBase) Ready() bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.store != nil
}

// Close releases the active store without deleting it.
func (kb *KnowledgeBase) Close() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.store == nil {
		return nil
	}
	err := kb.store.Close()
	kb.store, kb.retriever, kb.source = nil, nil, ""
	return err
}

func (kb *KnowledgeBase) setLocked(store ports.VectorStore, source string) {
	kb.store = store
	kb.retriever = NewVectorRetriever(kb.embedder, store, kb.cfg.EmbedTimeout)
	kb.source = source
}

func (kb *KnowledgeBase) dropLocked() {
	if kb.store != nil {
		if err := kb.store.Close(); err != nil {
			kb.logger.Warn("closing previous store", zap.Error(err))
		}
	}
	kb.store, kb.retriever, kb.source = nil, nil, ""
}
