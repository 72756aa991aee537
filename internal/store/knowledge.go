package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// ─── Project context ─────────────────────────────────────────────────────────

// SetContext upserts a project-context key/value entry.
func (s *Store) SetContext(key, value, description string) error {
	if key == "" {
		return fmt.Errorf("store: set context: empty key")
	}
	if _, err := s.db.Exec(
		`INSERT INTO project_context (context_key, value, description, last_updated)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(context_key) DO UPDATE SET
		   value        = excluded.value,
		   description  = excluded.description,
		   last_updated = excluded.last_updated`,
		key, value, description, now(),
	); err != nil {
		return fmt.Errorf("store: set context %q: %w", key, err)
	}
	return nil
}

// GetContext retrieves one context entry by key.
func (s *Store) GetContext(key string) (*ContextEntry, error) {
	row := s.db.QueryRow(
		`SELECT context_key, value, description, last_updated FROM project_context WHERE context_key = ?`,
		key,
	)
	var e ContextEntry
	err := row.Scan(&e.Key, &e.Value, &e.Description, &e.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: context %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get context %q: %w", key, err)
	}
	return &e, nil
}

// ListContext returns all context entries, newest first.
func (s *Store) ListContext() ([]ContextEntry, error) {
	return s.queryContext(
		`SELECT context_key, value, description, last_updated
		 FROM project_context ORDER BY last_updated DESC, context_key`,
	)
}

// ContextUpdatedSince returns up to limit entries updated strictly
// after the given timestamp, newest first. These are the "live" rows
// the knowledge indexer has not seen yet. A non-positive limit means
// no limit.
func (s *Store) ContextUpdatedSince(since string, limit int) ([]ContextEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT disables the cap
	}
	return s.queryContext(
		`SELECT context_key, value, description, last_updated
		 FROM project_context
		 WHERE datetime(last_updated) > datetime(?)
		 ORDER BY last_updated DESC, context_key
		 LIMIT ?`,
		since, limit,
	)
}

func (s *Store) queryContext(query string, args ...any) ([]ContextEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query context: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ContextEntry
	for rows.Next() {
		var e ContextEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("store: query context: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Knowledge index ─────────────────────────────────────────────────────────

// lastIndexedKey is the rag_meta row recording when the indexing pass
// last completed. Rows updated after it are "live" for retrieval.
const lastIndexedKey = "last_indexed_at"

// AddChunk indexes a knowledge chunk together with its embedding.
func (s *Store) AddChunk(text, sourceType, sourceRef string, embedding []float32) (int64, error) {
	if len(embedding) == 0 {
		return 0, fmt.Errorf("store: add chunk: empty embedding")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: add chunk: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO rag_chunks (chunk_text, source_type, source_ref) VALUES (?, ?, ?)`,
		text, sourceType, sourceRef,
	)
	if err != nil {
		return 0, fmt.Errorf("store: add chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add chunk: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO rag_embeddings (chunk_id, embedding) VALUES (?, ?)`,
		id, encodeVector(embedding),
	); err != nil {
		return 0, fmt.Errorf("store: add chunk embedding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: add chunk: %w", err)
	}
	return id, nil
}

// CountChunks reports how many chunks are indexed.
func (s *Store) CountChunks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rag_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count chunks: %w", err)
	}
	return n, nil
}

// NearestChunks returns up to k chunks ordered by ascending Euclidean
// distance to the query vector. Vectors of a different dimension are
// skipped rather than failing the whole search.
func (s *Store) NearestChunks(query []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	rows, err := s.db.Query(
		`SELECT c.chunk_id, c.chunk_text, c.source_type, c.source_ref, e.embedding
		 FROM rag_chunks c
		 JOIN rag_embeddings e ON e.chunk_id = c.chunk_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: nearest chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scored []ScoredChunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Text, &c.SourceType, &c.SourceRef, &blob); err != nil {
			return nil, fmt.Errorf("store: nearest chunks: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil || len(vec) != len(query) {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, Distance: euclidean(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: nearest chunks: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// LastIndexedAt returns the timestamp of the last completed indexing
// pass, or the empty string when no pass has run yet.
func (s *Store) LastIndexedAt() (string, error) {
	var v string
	err := s.db.QueryRow(
		`SELECT meta_value FROM rag_meta WHERE meta_key = ?`, lastIndexedKey,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: last indexed at: %w", err)
	}
	return v, nil
}

// SetLastIndexedAt records the completion timestamp of an indexing pass.
func (s *Store) SetLastIndexedAt(ts string) error {
	if _, err := s.db.Exec(
		`INSERT INTO rag_meta (meta_key, meta_value) VALUES (?, ?)
		 ON CONFLICT(meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		lastIndexedKey, ts,
	); err != nil {
		return fmt.Errorf("store: set last indexed at: %w", err)
	}
	return nil
}

// Now exposes the store's timestamp format for callers that need to
// stamp an indexing pass consistently with row timestamps.
func Now() string {
	return now()
}

// ─── Vector codec ────────────────────────────────────────────────────────────
//
// Embeddings are stored as little-endian float32 blobs, 4 bytes per
// dimension.

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("store: embedding blob length %d not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
