package vectordb

import (
	"context"
	"testing"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

var (
	_ ports.VectorStore = (*SQLiteStore)(nil)
	_ ports.VectorStore = (*InMemoryStore)(nil)
)

func testChunks() []entities.Chunk {
	return []entities.Chunk{
		{ID: "c1", DocumentID: "doc1", Source: "a.pdf", Page: 1, Index: 0, Content: "hello", Embedding: []float32{1, 0, 0}},
		{ID: "c2", DocumentID: "doc1", Source: "a.pdf", Page: 1, Index: 1, Content: "world", Embedding: []float32{0, 1, 0}},
		{ID: "c3", DocumentID: "doc1", Source: "a.pdf", Page: 2, Index: 2, Content: "hello world", Embedding: []float32{0.7, 0.7, 0}},
	}
}

func TestSQLiteStore_StoreAndSearch(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Store(ctx, testChunks()); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" || results[1].Chunk.ID != "c3" {
		t.Errorf("unexpected order: %s, %s", results[0].Chunk.ID, results[1].Chunk.ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results should be ordered by descending score")
	}
	if results[1].Chunk.Page != 2 || results[1].Chunk.Source != "a.pdf" {
		t.Errorf("metadata not persisted: %+v", results[1].Chunk)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, _ := NewSQLiteStore(dir)
	store.Store(ctx, testChunks())
	store.Close()

	if !Exists(dir) {
		t.Fatal("index file should exist after close")
	}

	reopened, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	count, _ := reopened.Count(ctx)
	if count != 3 {
		t.Errorf("expected 3 chunks after reopen, got %d", count)
	}
}

func TestSQLiteStore_RequiresDirectory(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("should require a directory")
	}
}

func TestExists_EmptyDirectory(t *testing.T) {
	if Exists(t.TempDir()) {
		t.Error("empty directory should not count as an index")
	}
}

func TestInMemoryStore_SearchAndReplace(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	store.Store(ctx, testChunks())
	store.Store(ctx, []entities.Chunk{{ID: "c2", Index: 1, Content: "replaced", Embedding: []float32{1, 0, 0}}})

	count, _ := store.Count(ctx)
	if count != 3 {
		t.Errorf("replacing a chunk should not add one, got %d", count)
	}

	results, _ := store.Search(ctx, []float32{1, 0, 0}, 5)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// c1 and c2 tie; lower index wins.
	if results[0].Chunk.ID != "c1" || results[1].Chunk.Content != "replaced" {
		t.Errorf("unexpected order: %+v", results)
	}
}

func TestInMemoryStore_ZeroTopK(t *testing.T) {
	store := NewInMemoryStore()
	store.Store(context.Background(), testChunks())

	results, _ := store.Search(context.Background(), []float32{1, 0, 0}, 0)
	if len(results) != 0 {
		t.Error("topK 0 should return nothing")
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	if same := cosineSimilarity(a, b); same != 1.0 {
		t.Errorf("same vectors should have score 1.0, got %f", same)
	}
	if diff := cosineSimilarity(a, c); diff != 0.0 {
		t.Errorf("orthogonal vectors should have score 0.0, got %f", diff)
	}
	if mismatch := cosineSimilarity(a, []float32{1, 0}); mismatch != 0 {
		t.Errorf("length mismatch should score 0, got %f", mismatch)
	}
}
