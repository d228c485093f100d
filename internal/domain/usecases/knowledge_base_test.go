package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
)

func newKnowledgeBase(t *testing.T, loader *fakeLoader, embedder *hashEmbedder) *KnowledgeBase {
	t.Helper()
	kb := NewKnowledgeBase(KnowledgeBaseConfig{
		Dir:          filepath.Join(t.TempDir(), "kb"),
		ChunkSize:    200,
		ChunkOverlap: 40,
	}, loader, embedder, openSQLite, nil)
	t.Cleanup(func() { kb.Close() })
	return kb
}

func twoDocLoader() *fakeLoader {
	return &fakeLoader{docs: map[string][]string{
		"a.pdf": {attentionPage, recurrencePage},
		"b.pdf": {trainingPage},
	}}
}

func TestKnowledgeBase_StartsEmpty(t *testing.T) {
	kb := newKnowledgeBase(t, twoDocLoader(), &hashEmbedder{})

	assert.False(t, kb.Ready())
	assert.Nil(t, kb.Retriever())
	assert.Empty(t, kb.Source())
}

func TestKnowledgeBase_ReplacementDropsPreviousDocument(t *testing.T) {
	kb := newKnowledgeBase(t, twoDocLoader(), &hashEmbedder{})
	ctx := context.Background()

	_, err := kb.Ingest(ctx, "a.pdf")
	require.NoError(t, err)
	count, err := kb.Ingest(ctx, "b.pdf")
	require.NoError(t, err)
	assert.Greater(t, count, 0)
	assert.Equal(t, "b.pdf", kb.Source())

	retriever := kb.Retriever()
	require.NotNil(t, retriever)
	for _, q := range []string{"attention", "recurrent networks", "optimizer"} {
		results, err := retriever.Retrieve(ctx, q, 50)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, "b.pdf", r.Chunk.Source, "query %q returned a chunk of the replaced document", q)
		}
	}
}

func TestKnowledgeBase_FailedIngestLeavesNoStore(t *testing.T) {
	loader := twoDocLoader()
	kb := newKnowledgeBase(t, loader, &hashEmbedder{})
	ctx := context.Background()

	_, err := kb.Ingest(ctx, "a.pdf")
	require.NoError(t, err)

	loader.err = errors.New("not a pdf")
	_, err = kb.Ingest(ctx, "b.pdf")
	assert.ErrorIs(t, err, errs.ErrIngestion)

	assert.False(t, kb.Ready())
	assert.Nil(t, kb.Retriever())
	_, statErr := os.Stat(kb.cfg.Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestKnowledgeBase_RejectedIngestKeepsActiveStore(t *testing.T) {
	loader := twoDocLoader()
	kb := newKnowledgeBase(t, loader, &hashEmbedder{})
	ctx := context.Background()

	_, err := kb.Ingest(ctx, "a.pdf")
	require.NoError(t, err)

	inside := filepath.Join(kb.cfg.Dir, "c.pdf")
	loader.docs[inside] = []string{trainingPage}
	_, err = kb.Ingest(ctx, inside)
	assert.ErrorIs(t, err, errs.ErrIngestion)

	assert.True(t, kb.Ready())
	assert.Equal(t, "a.pdf", kb.Source())
	results, err := kb.Retriever().Retrieve(ctx, "attention", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestKnowledgeBase_OpenReusesPersistedStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kb")
	cfg := KnowledgeBaseConfig{Dir: dir, ChunkSize: 200, ChunkOverlap: 40}
	embedder := &hashEmbedder{}
	ctx := context.Background()

	first := NewKnowledgeBase(cfg, twoDocLoader(), embedder, openSQLite, nil)
	want, err := first.Ingest(ctx, "a.pdf")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := NewKnowledgeBase(cfg, twoDocLoader(), embedder, openSQLite, nil)
	defer second.Close()
	ok, err := second.Open(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, second.Ready())

	results, err := second.Retriever().Retrieve(ctx, "attention", want+1)
	require.NoError(t, err)
	assert.Len(t, results, want)
}

func TestKnowledgeBase_OpenMissingDirectory(t *testing.T) {
	kb := newKnowledgeBase(t, twoDocLoader(), &hashEmbedder{})

	ok, err := kb.Open(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, kb.Ready())
}

func TestKnowledgeBase_Reset(t *testing.T) {
	kb := newKnowledgeBase(t, twoDocLoader(), &hashEmbedder{})
	_, err := kb.Ingest(context.Background(), "a.pdf")
	require.NoError(t, err)

	require.NoError(t, kb.Reset())

	assert.False(t, kb.Ready())
	_, statErr := os.Stat(kb.cfg.Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestKnowledgeBase_RecordsIngests(t *testing.T) {
	loader := twoDocLoader()
	rec := newCountingRecorder()
	kb := newKnowledgeBase(t, loader, &hashEmbedder{}).WithRecorder(rec)

	count, err := kb.Ingest(context.Background(), "a.pdf")
	require.NoError(t, err)
	_, err = kb.Ingest(context.Background(), "missing.pdf")
	require.Error(t, err)

	assert.Equal(t, 1, rec.ingests[ResultSuccess])
	assert.Equal(t, 1, rec.ingests[ResultFailure])
	assert.Equal(t, count, rec.chunks)
}
