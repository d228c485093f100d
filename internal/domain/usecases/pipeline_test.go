package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

func results(texts ...string) []entities.QueryResult {
	out := make([]entities.QueryResult, len(texts))
	for i, text := range texts {
		out[i] = entities.QueryResult{Chunk: entities.Chunk{Content: text}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestRAGPipeline_BuildsPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "Attention weighs tokens."}
	retriever := &fakeRetriever{results: results("first chunk", "second chunk")}
	p := NewRAGPipeline(llm, 5, 0, nil)

	answer, err := p.Answer(context.Background(), "What is attention?", "User: hi\nBot: hello\nUser: What is attention?", retriever)
	require.NoError(t, err)

	assert.Equal(t, "Attention weighs tokens.", answer.Text)
	assert.False(t, answer.Fallback)
	assert.Len(t, answer.Sources, 2)

	require.Len(t, llm.messages, 1)
	msgs := llm.messages[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, ports.RoleSystem, msgs[0].Role)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, ports.RoleUser, msgs[1].Role)
	assert.Equal(t,
		"Answer the question based on the given context.\n"+
			"Context: first chunk\n\nsecond chunk\n"+
			"Question: User: hi\nBot: hello\nUser: What is attention?\n"+
			"Answer: ",
		msgs[1].Content)
}

func TestRAGPipeline_RetrievesOnRawQuestion(t *testing.T) {
	retriever := &fakeRetriever{results: results("chunk")}
	p := NewRAGPipeline(&fakeLLM{reply: "ok"}, 5, 0, nil)

	_, err := p.Answer(context.Background(), "What is attention?", "User: q1\nBot: a1\nUser: What is attention?", retriever)
	require.NoError(t, err)

	assert.Equal(t, []string{"What is attention?"}, retriever.queries)
}

func TestRAGPipeline_EmptyConversationUsesQuestion(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	p := NewRAGPipeline(llm, 5, 0, nil)

	_, err := p.Answer(context.Background(), "why?", "", &fakeRetriever{})
	require.NoError(t, err)

	assert.Contains(t, llm.lastUserMessage(), "Question: why?\n")
}

func TestRAGPipeline_LimitsToTopK(t *testing.T) {
	retriever := &fakeRetriever{results: results("a", "b", "c", "d")}
	p := NewRAGPipeline(&fakeLLM{reply: "ok"}, 2, 0, nil)

	answer, err := p.Answer(context.Background(), "q", "", retriever)
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 2)
}

func TestRAGPipeline_EmptyReplyBecomesFallback(t *testing.T) {
	for _, reply := range []string{"", "   ", "\n\t"} {
		t.Run(fmt.Sprintf("%q", reply), func(t *testing.T) {
			p := NewRAGPipeline(&fakeLLM{reply: reply}, 5, 0, nil)

			answer, err := p.Answer(context.Background(), "q", "", &fakeRetriever{results: results("a")})
			require.NoError(t, err)

			assert.Equal(t, FallbackAnswer, answer.Text)
			assert.True(t, answer.Fallback)
		})
	}
}

func TestRAGPipeline_Errors(t *testing.T) {
	tests := []struct {
		name      string
		llm       *fakeLLM
		retriever ports.Retriever
		want      error
	}{
		{
			name:      "no retriever",
			llm:       &fakeLLM{reply: "ok"},
			retriever: nil,
			want:      errs.ErrNotInitialized,
		},
		{
			name:      "retrieval failure",
			llm:       &fakeLLM{reply: "ok"},
			retriever: &fakeRetriever{err: errors.New("disk I/O error")},
			want:      errs.ErrRetrieval,
		},
		{
			name:      "classified retrieval failure passes through",
			llm:       &fakeLLM{reply: "ok"},
			retriever: &fakeRetriever{err: errs.New(errs.KindEmbeddingService, "retrieve.embed", "quota exceeded")},
			want:      errs.ErrEmbeddingService,
		},
		{
			name:      "generation failure",
			llm:       &fakeLLM{err: errors.New("status code: 429")},
			retriever: &fakeRetriever{results: results("a")},
			want:      errs.ErrGeneration,
		},
		{
			name:      "generation deadline",
			llm:       &fakeLLM{err: fmt.Errorf("calling chat API: %w", context.DeadlineExceeded)},
			retriever: &fakeRetriever{results: results("a")},
			want:      errs.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRAGPipeline(tt.llm, 5, 0, nil)

			answer, err := p.Answer(context.Background(), "q", "", tt.retriever)
			assert.Nil(t, answer)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRAGPipeline_NoGenerationWhenRetrievalFails(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	p := NewRAGPipeline(llm, 5, 0, nil)

	_, err := p.Answer(context.Background(), "q", "", &fakeRetriever{err: errors.New("boom")})
	require.Error(t, err)
	assert.Empty(t, llm.messages)
}

func TestBuildPrompt_ContextContainingPlaceholders(t *testing.T) {
	msgs := BuildPrompt("see {question}", "real question")

	assert.Equal(t, "Answer the question based on the given context.\nContext: see {question}\nQuestion: real question\nAnswer: ", msgs[1].Content)
}
