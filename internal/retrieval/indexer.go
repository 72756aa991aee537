package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/HendryAvila/corral/internal/store"
)

// Indexer embeds project-context rows into the knowledge index. It is
// the in-process counterpart of the out-of-band indexing job: each run
// picks up rows changed since the last pass, chunks them, and advances
// the last-indexed timestamp so those rows stop appearing in the
// pipeline's live slice.
type Indexer struct {
	store    *store.Store
	embedder Embedder
	timeout  time.Duration
}

// NewIndexer creates an Indexer. The embedder is required.
func NewIndexer(s *store.Store, embedder Embedder, timeout time.Duration) *Indexer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Indexer{store: s, embedder: embedder, timeout: timeout}
}

// Reindex embeds every project-context row updated since the last pass
// and records the pass timestamp. Returns the number of chunks added.
// The timestamp only advances after all rows are indexed, so a failed
// run leaves the rows live for the next attempt.
func (ix *Indexer) Reindex(ctx context.Context) (int, error) {
	if ix.embedder == nil {
		return 0, fmt.Errorf("retrieval: reindex: no embedder configured")
	}

	since, err := ix.store.LastIndexedAt()
	if err != nil {
		return 0, fmt.Errorf("retrieval: reindex: %w", err)
	}
	if since == "" {
		since = "1970-01-01 00:00:00"
	}

	// Stamp before reading so rows written mid-pass stay live.
	passStarted := store.Now()

	entries, err := ix.store.ContextUpdatedSince(since, 0)
	if err != nil {
		return 0, fmt.Errorf("retrieval: reindex: %w", err)
	}

	indexed := 0
	for _, e := range entries {
		text := e.Key + ": " + e.Value
		if e.Description != "" {
			text += " (" + e.Description + ")"
		}

		callCtx, cancel := context.WithTimeout(ctx, ix.timeout)
		vec, err := ix.embedder.Embed(callCtx, text)
		cancel()
		if err != nil {
			return indexed, fmt.Errorf("retrieval: reindex %q: %w", e.Key, err)
		}

		if _, err := ix.store.AddChunk(text, "project_context", e.Key, vec); err != nil {
			return indexed, fmt.Errorf("retrieval: reindex %q: %w", e.Key, err)
		}
		indexed++
	}

	if err := ix.store.SetLastIndexedAt(passStarted); err != nil {
		return indexed, fmt.Errorf("retrieval: reindex: %w", err)
	}
	return indexed, nil
}
