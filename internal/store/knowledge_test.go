package store_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/corral/internal/store"
)

func TestSetContext_Upsert(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetContext("api_port", "8080", "HTTP listen port"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetContext("api_port", "9090", "HTTP listen port"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	entry, err := s.GetContext("api_port")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Value != "9090" {
		t.Errorf("Value = %q, want 9090", entry.Value)
	}

	entries, _ := s.ListContext()
	if len(entries) != 1 {
		t.Errorf("ListContext = %d entries, want 1 (upsert, not append)", len(entries))
	}
}

func TestSetContext_EmptyKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetContext("", "v", ""); err == nil {
		t.Error("empty key should be rejected")
	}
}

func TestGetContext_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetContext("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestContextUpdatedSince(t *testing.T) {
	s := newTestStore(t)

	s.SetContext("k1", "v1", "")
	cutoff := store.Now()
	// Anything stamped at or before the cutoff is not "live".
	live, err := s.ContextUpdatedSince(cutoff, 0)
	if err != nil {
		t.Fatalf("since cutoff: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("live = %v, want empty (strictly-after comparison)", live)
	}

	// Everything is live relative to the epoch.
	all, err := s.ContextUpdatedSince("1970-01-01 00:00:00", 0)
	if err != nil {
		t.Fatalf("since epoch: %v", err)
	}
	if len(all) != 1 || all[0].Key != "k1" {
		t.Errorf("all = %v, want [k1]", all)
	}
}

func TestContextUpdatedSince_Limit(t *testing.T) {
	s := newTestStore(t)

	for _, key := range []string{"a", "b", "c"} {
		s.SetContext(key, "v", "")
	}

	capped, err := s.ContextUpdatedSince("1970-01-01 00:00:00", 2)
	if err != nil {
		t.Fatalf("limited query: %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("got %d entries, want 2", len(capped))
	}

	uncapped, _ := s.ContextUpdatedSince("1970-01-01 00:00:00", 0)
	if len(uncapped) != 3 {
		t.Errorf("non-positive limit returned %d entries, want all 3", len(uncapped))
	}
}

func TestAddChunk_AndCount(t *testing.T) {
	s := newTestStore(t)

	n, _ := s.CountChunks()
	if n != 0 {
		t.Fatalf("fresh store has %d chunks, want 0", n)
	}

	id, err := s.AddChunk("auth uses JWT", "project_context", "auth_scheme", []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("add chunk: %v", err)
	}
	if id == 0 {
		t.Error("chunk id should be assigned")
	}

	n, err = s.CountChunks()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestAddChunk_EmptyEmbedding(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddChunk("text", "project_context", "k", nil); err == nil {
		t.Error("empty embedding should be rejected")
	}
}

func TestNearestChunks_OrderedByDistance(t *testing.T) {
	s := newTestStore(t)

	s.AddChunk("far", "project_context", "k1", []float32{10, 0, 0})
	s.AddChunk("near", "project_context", "k2", []float32{1, 0, 0})
	s.AddChunk("mid", "project_context", "k3", []float32{5, 0, 0})

	got, err := s.NearestChunks([]float32{0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].Text != "near" || got[1].Text != "mid" {
		t.Errorf("order = [%s %s], want [near mid]", got[0].Text, got[1].Text)
	}
	if got[0].Distance >= got[1].Distance {
		t.Errorf("distances not ascending: %v >= %v", got[0].Distance, got[1].Distance)
	}
}

func TestNearestChunks_SkipsDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	s.AddChunk("3d", "project_context", "k1", []float32{1, 2, 3})
	s.AddChunk("2d", "project_context", "k2", []float32{1, 2})

	got, err := s.NearestChunks([]float32{0, 0, 0}, 10)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(got) != 1 || got[0].Text != "3d" {
		t.Errorf("got %v, want just the matching-dimension chunk", got)
	}
}

func TestLastIndexedAt_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	ts, err := s.LastIndexedAt()
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}
	if ts != "" {
		t.Errorf("fresh store LastIndexedAt = %q, want empty", ts)
	}

	stamp := store.Now()
	if err := s.SetLastIndexedAt(stamp); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := s.LastIndexedAt()
	if got != stamp {
		t.Errorf("LastIndexedAt = %q, want %q", got, stamp)
	}

	// Overwrites, not appends.
	if err := s.SetLastIndexedAt("2026-01-01 00:00:00"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.LastIndexedAt()
	if got != "2026-01-01 00:00:00" {
		t.Errorf("LastIndexedAt after overwrite = %q", got)
	}
}
