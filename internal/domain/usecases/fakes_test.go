package usecases

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xcro3dile/pdfchat-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// fakeLoader serves documents from memory, keyed by path.
type fakeLoader struct {
	docs map[string][]string // path -> page texts
	err  error
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	pages, ok := l.docs[path]
	if !ok {
		return nil, errors.New("open " + path + ": no such file or directory")
	}
	doc := &entities.Document{
		ID:       "doc-" + filepath.Base(path),
		Name:     filepath.Base(path),
		Path:     path,
		LoadedAt: time.Now(),
	}
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, entities.Page{Number: i + 1, Text: text})
	}
	return doc, nil
}

func (l *fakeLoader) SupportedExtensions() []string { return []string{".pdf"} }

// hashEmbedder is a deterministic bag-of-words embedder.
type hashEmbedder struct {
	mu    sync.Mutex
	err   error
	block bool // wait for ctx to end
	calls int
}

const hashDim = 64

func (e *hashEmbedder) vector(text string) []float32 {
	v := make([]float32, hashDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;\"'()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%hashDim]++
	}
	return v
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// fakeLLM returns a canned reply and remembers what it was sent.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]ports.ChatMessage
}

func (l *fakeLLM) Generate(ctx context.Context, messages []ports.ChatMessage) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, messages)
	if l.err != nil {
		return "", l.err
	}
	return l.reply, nil
}

func (l *fakeLLM) lastUserMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.messages) == 0 {
		return ""
	}
	msgs := l.messages[len(l.messages)-1]
	return msgs[len(msgs)-1].Content
}

// fakeRetriever returns fixed results and records queries.
type fakeRetriever struct {
	results []entities.QueryResult
	err     error
	queries []string
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]entities.QueryResult, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.results) > k {
		return r.results[:k], nil
	}
	return r.results, nil
}

// failingStore fails every search.
type failingStore struct {
	*vectordb.InMemoryStore
}

func (s failingStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	return nil, errors.New("database is locked")
}

// countingRecorder tallies observations.
type countingRecorder struct {
	mu      sync.Mutex
	ingests map[string]int
	chunks  int
	asks    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ingests: map[string]int{}, asks: map[string]int{}}
}

func (r *countingRecorder) ObserveIngest(result string, chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingests[result]++
	r.chunks += chunks
}

func (r *countingRecorder) ObserveAsk(outcome string, took time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asks[outcome]++
}

func openSQLite(dir string) (ports.VectorStore, error) {
	return vectordb.NewSQLiteStore(dir)
}

const (
	attentionPage = "Attention is a mechanism that lets a model weigh every token of the input. " +
		"Self-attention relates different positions of a single sequence to compute a representation. " +
		"Multi-head attention runs several attention functions in parallel."
	recurrencePage = "Recurrent networks process tokens one step at a time. " +
		"Their sequential nature precludes parallelization within training examples. " +
		"Long sequences make memory a limiting factor."
	trainingPage = "We trained on eight GPUs for twelve hours. " +
		"The optimizer was Adam with a warmup schedule. " +
		"Dropout was applied to the output of each sub-layer."
)
