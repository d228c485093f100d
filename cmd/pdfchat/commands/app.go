package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/adapters/embedding"
	"github.com/0xcro3dile/pdfchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/pdfchat-go/internal/adapters/loader"
	"github.com/0xcro3dile/pdfchat-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/pdfchat-go/internal/config"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/usecases"
	"github.com/0xcro3dile/pdfchat-go/internal/logging"
	"github.com/0xcro3dile/pdfchat-go/internal/metrics"
)

// app is the wired service shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	kb      *usecases.KnowledgeBase
	chat    *usecases.ChatService
}

// loadConfig reads and validates configuration, honoring --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires adapters and usecases from cfg.
func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewOpenAIAdapter(embedding.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.EmbeddingModel,
		Logger:  logger.Named("embedding"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	chatModel, err := llm.NewOpenAIAdapter(llm.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		Model:       cfg.Provider.ChatModel,
		Temperature: cfg.Provider.Temperature,
		Logger:      logger.Named("llm"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}

	m := metrics.New()
	kb := usecases.NewKnowledgeBase(usecases.KnowledgeBaseConfig{
		Dir:          cfg.Store.Dir,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		EmbedTimeout: cfg.Timeouts.Embedding,
	}, loader.NewMultiLoader(), embedder, storeOpener(cfg.Store.Backend), logger.Named("kb")).WithRecorder(m)

	pipeline := usecases.NewRAGPipeline(chatModel, cfg.Chat.TopK, cfg.Timeouts.Generation, logger.Named("pipeline"))
	chat := usecases.NewChatService(kb, pipeline, usecases.NewSessionStore(cfg.Chat.MaxTurns),
		cfg.Chat.HistoryWindow, logger.Named("chat")).WithRecorder(m)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		kb:      kb,
		chat:    chat,
	}, nil
}

// openExisting reuses a knowledge base persisted by an earlier run.
func (a *app) openExisting(ctx context.Context) {
	ok, err := a.kb.Open(ctx)
	switch {
	case err != nil:
		a.logger.Warn("could not reopen knowledge base", zap.String("dir", a.cfg.Store.Dir), zap.Error(err))
	case !ok:
		a.logger.Debug("no knowledge base yet", zap.String("dir", a.cfg.Store.Dir))
	}
}

func (a *app) Close() {
	if err := a.kb.Close(); err != nil {
		a.logger.Warn("closing knowledge base", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func storeOpener(backend string) usecases.StoreOpener {
	if backend == config.BackendMemory {
		return func(string) (ports.VectorStore, error) {
			return vectordb.NewInMemoryStore(), nil
		}
	}
	return func(dir string) (ports.VectorStore, error) {
		return vectordb.NewSQLiteStore(dir)
	}
}
