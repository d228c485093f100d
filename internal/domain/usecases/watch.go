package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
const DefaultSettle = 500 * time.Millisecond

// AutoIngest re-ingests the knowledge base whenever a document lands in a
// watched directory. Bursts of events are coalesced and only the newest
// settled file is ingested.
type AutoIngest struct {
	watcher ports.FileWatcher
	kb      *KnowledgeBase
	settle  time.Duration
	logger  *zap.Logger
}

// NewAutoIngest creates an AutoIngest. settle <= 0 uses DefaultSettle.
func NewAutoIngest(watcher ports.FileWatcher, kb *KnowledgeBase, settle time.Duration, logger *zap.Logger) *AutoIngest {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoIngest{
		watcher: watcher,
		kb:      kb,
		settle:  settle,
		logger:  logger,
	}
}

// Run watches dir until ctx is done. Ingestion runs on this goroutine, one
// file at a time.
func (a *AutoIngest) Run(ctx context.Context, dir string) error {
	events, err := a.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	defer a.watcher.Stop()

	a.logger.Info("watching for documents", zap.String("dir", dir))

	ticker := time.NewTicker(a.settle / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time) // path -> last event
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Operation == ports.FileDeleted {
				delete(pending, ev.Path)
				continue
			}
			pending[ev.Path] = time.Now()
		case now := <-ticker.C:
			path, ok := newestSettled(pending, now, a.settle)
			if !ok {
				continue
			}
			for p, seen := range pending {
				if now.Sub(seen) >= a.settle {
					delete(pending, p)
				}
			}
			a.ingest(ctx, path)
		}
	}
}

func (a *AutoIngest) ingest(ctx context.Context, path string) {
	count, err := a.kb.Ingest(ctx, path)
	if err != nil {
		a.logger.Error("auto-ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	a.logger.Info("auto-ingested document", zap.String("path", path), zap.Int("chunks", count))
}

// newestSettled picks the most recently touched path that has been quiet
// for at least settle.
func newestSettled(pending map[string]time.Time, now time.Time, settle time.Duration) (string, bool) {
	var (
		best     string
		bestSeen time.Time
	)
	for path, seen := range pending {
		if now.Sub(seen) < settle {
			continue
		}
		if best == "" || seen.After(bestSeen) || (seen.Equal(bestSeen) && path > best) {
			best, bestSeen = path, seen
		}
	}
	return best, best != ""
}
