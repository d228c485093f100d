// Package embedding provides the embedding adapter.
// Clean Architecture: implements ports.EmbeddingService against any
// OpenAI-compatible /embeddings endpoint (OpenAI, Gemini, Ollama).
package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "text-embedding-004"

// defaultBatchSize bounds the number of inputs per request.
const defaultBatchSize = 64

// Config configures the adapter.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	Logger    *zap.Logger
}

// OpenAIAdapter implements ports.EmbeddingService using go-openai.
type OpenAIAdapter struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	batchSize int
	logger    *zap.Logger
}

// NewOpenAIAdapter creates a new embedding adapter.
func NewOpenAIAdapter(cfg Config) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIAdapter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}, nil
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := a.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, batchSize inputs per call.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := start + a.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := a.request(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (a *OpenAIAdapter) request(ctx context.Context, texts []string) ([][]float32, error) {
	a.logger.Debug("embedding request", zap.String("model", string(a.model)), zap.Int("inputs", len(texts)))

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// Data entries carry their input index; order is not guaranteed.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("embeddings API returned no vector for input %d", i)
		}
	}
	return out, nil
}
