package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE_ClassifiesKind(t *testing.T) {
	err := E(KindRetrieval, "retrieve", errors.New("disk I/O error"))

	assert.True(t, errors.Is(err, ErrRetrieval))
	assert.False(t, errors.Is(err, ErrGeneration))
	assert.Equal(t, KindRetrieval, KindOf(err))
	assert.Equal(t, "retrieve: retrieval: disk I/O error", err.Error())
}

func TestE_NilPassesThrough(t *testing.T) {
	assert.NoError(t, E(KindGeneration, "generate", nil))
}

func TestE_DeadlineBecomesTimeout(t *testing.T) {
	err := E(KindGeneration, "generate", fmt.Errorf("calling chat API: %w", context.DeadlineExceeded))

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestE_KeepsExistingClassification(t *testing.T) {
	inner := E(KindEmbeddingService, "embed", errors.New("quota exceeded"))
	outer := E(KindRetrieval, "retrieve", fmt.Errorf("wrapped: %w", inner))

	assert.Equal(t, KindEmbeddingService, KindOf(outer))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestNew(t *testing.T) {
	err := New(KindNotInitialized, "ask", "no document loaded")
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.Contains(t, err.Error(), "no document loaded")
}
