// Package llm provides the chat-completion adapter.
// Clean Architecture: adapter implementing ports.LLMService.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Config configures the adapter.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// OpenAIAdapter implements ports.LLMService against an OpenAI-compatible
// /chat/completions endpoint.
type OpenAIAdapter struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewOpenAIAdapter creates a new chat adapter.
func NewOpenAIAdapter(cfg Config) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIAdapter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

// Generate sends the messages and returns the first choice's content verbatim.
func (a *OpenAIAdapter) Generate(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: a.temperature,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling chat API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	a.logger.Debug("chat completion",
		zap.String("model", a.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}
