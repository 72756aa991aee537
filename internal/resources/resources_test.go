package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func readStatus(t *testing.T, h *Handler) statusSnapshot {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "corral://swarm/status"

	contents, err := h.HandleStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleStatus error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents are %T, want TextResourceContents", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIME type = %s, want application/json", text.MIMEType)
	}

	var snap statusSnapshot
	if err := json.Unmarshal([]byte(text.Text), &snap); err != nil {
		t.Fatalf("status is not valid JSON: %v", err)
	}
	return snap
}

func TestStatusResource_Definition(t *testing.T) {
	h := NewHandler(newTestStore(t))
	res := h.StatusResource()
	if res.URI != "corral://swarm/status" {
		t.Errorf("URI = %s, want corral://swarm/status", res.URI)
	}
}

func TestHandleStatus_EmptySwarm(t *testing.T) {
	h := NewHandler(newTestStore(t))
	snap := readStatus(t, h)

	if len(snap.Agents) != 0 || len(snap.Tasks) != 0 || len(snap.BlockedTasks) != 0 {
		t.Errorf("empty swarm snapshot not empty: %+v", snap)
	}
}

func TestHandleStatus_ReflectsSwarmState(t *testing.T) {
	s := newTestStore(t)
	h := NewHandler(s)

	_, token, _ := s.CreateAgent("a1", []string{"go"}, "")
	dep, _ := s.CreateTask(store.CreateTaskParams{Title: "dep"})
	s.CreateTask(store.CreateTaskParams{Title: "waiting", DependsOn: []string{dep.ID}})

	snap := readStatus(t, h)
	if len(snap.Agents) != 1 || snap.Agents[0].ID != "a1" {
		t.Errorf("agents = %+v, want [a1]", snap.Agents)
	}
	if len(snap.Tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(snap.Tasks))
	}
	if len(snap.BlockedTasks) != 1 || snap.BlockedTasks[0].Title != "waiting" {
		t.Errorf("blocked = %+v, want the waiting task", snap.BlockedTasks)
	}

	// Agent tokens must never leak through the resource.
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "corral://swarm/status"
	contents, _ := h.HandleStatus(context.Background(), req)
	if raw := contents[0].(mcp.TextResourceContents).Text; strings.Contains(raw, token) {
		t.Error("resource text contains an agent token")
	}
}
