// Package usecases - pipeline.go handles retrieval and answer generation.
package usecases

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// SystemPrompt is sent ahead of every question.
const SystemPrompt = "You are a Helpful AI Bot.\nGiven a context and question from user,\nyou should answer based on the given context."

// FallbackAnswer replaces an empty model reply.
const FallbackAnswer = "Sorry, I could not find an answer to that in the document."

const promptTemplate = "Answer the question based on the given context.\nContext: {context}\nQuestion: {question}\nAnswer: "

// RAGPipeline retrieves context for a question and asks the chat model.
type RAGPipeline struct {
	llm     ports.LLMService
	topK    int
	timeout time.Duration // per generation call; 0 disables
	logger  *zap.Logger
}

// NewRAGPipeline creates a pipeline. topK <= 0 falls back to 5.
func NewRAGPipeline(llm ports.LLMService, topK int, timeout time.Duration, logger *zap.Logger) *RAGPipeline {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGPipeline{
		llm:     llm,
		topK:    topK,
		timeout: timeout,
		logger:  logger,
	}
}

// Answer retrieves on question and generates on conversation, which is the
// question plus rendered history (see FormatContext). An empty conversation
// uses the question itself.
func (p *RAGPipeline) Answer(ctx context.Context, question, conversation string, retriever ports.Retriever) (*entities.Answer, error) {
	if retriever == nil {
		return nil, errs.New(errs.KindNotInitialized, "answer", "no active knowledge base")
	}
	if conversation == "" {
		conversation = question
	}

	results, err := retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, errs.E(errs.KindRetrieval, "answer.retrieve", err)
	}

	messages := BuildPrompt(JoinContext(results), conversation)

	genCtx, cancel := withTimeout(ctx, p.timeout)
	text, err := p.llm.Generate(genCtx, messages)
	cancel()
	if err != nil {
		return nil, errs.E(errs.KindGeneration, "answer.generate", err)
	}

	answer := &entities.Answer{Text: text, Sources: results}
	if strings.TrimSpace(text) == "" {
		p.logger.Info("empty answer from model, using fallback", zap.Int("sources", len(results)))
		answer.Text = FallbackAnswer
		answer.Fallback = true
	}
	return answer, nil
}

// JoinContext concatenates chunk texts in retrieval order.
func JoinContext(results []entities.QueryResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt fills the fixed system and user messages.
func BuildPrompt(context, question string) []ports.ChatMessage {
	user := strings.NewReplacer("{context}", context, "{question}", question).Replace(promptTemplate)
	return []ports.ChatMessage{
		{Role: ports.RoleSystem, Content: SystemPrompt},
		{Role: ports.RoleUser, Content: user},
	}
}
