package store_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/corral/internal/store"
)

func TestCreateAgent_Basic(t *testing.T) {
	s := newTestStore(t)

	agent, token, err := s.CreateAgent("backend-1", []string{"go", "sql"}, "/srv/app")
	if err != nil {
		t.Fatalf("CreateAgent error: %v", err)
	}
	if agent.ID != "backend-1" {
		t.Errorf("ID = %q, want backend-1", agent.ID)
	}
	if agent.Status != store.AgentCreated {
		t.Errorf("Status = %q, want created", agent.Status)
	}
	if token == "" {
		t.Error("token should not be empty")
	}
	if len(agent.Capabilities) != 2 || agent.Capabilities[0] != "go" || agent.Capabilities[1] != "sql" {
		t.Errorf("Capabilities = %v, want [go sql]", agent.Capabilities)
	}
	if agent.CurrentTask != nil {
		t.Errorf("CurrentTask should be nil, got %v", *agent.CurrentTask)
	}
}

func TestCreateAgent_DuplicateID(t *testing.T) {
	s := newTestStore(t)

	_, firstToken, err := s.CreateAgent("agent-x", nil, "")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, _, err = s.CreateAgent("agent-x", nil, "")
	if !errors.Is(err, store.ErrDuplicateAgent) {
		t.Fatalf("second create error = %v, want ErrDuplicateAgent", err)
	}

	// First agent's token must be unaffected.
	agent, err := s.GetAgentByToken(firstToken)
	if err != nil {
		t.Fatalf("token lookup after duplicate create: %v", err)
	}
	if agent.ID != "agent-x" {
		t.Errorf("token resolves to %q, want agent-x", agent.ID)
	}
}

func TestGetAgent_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAgent("ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetAgentByToken_Unknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAgentByToken("not-a-token")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetAgentByToken_UniquePerAgent(t *testing.T) {
	s := newTestStore(t)

	_, tok1, _ := s.CreateAgent("a1", nil, "")
	_, tok2, _ := s.CreateAgent("a2", nil, "")
	if tok1 == tok2 {
		t.Fatal("two agents got the same token")
	}

	a1, err := s.GetAgentByToken(tok1)
	if err != nil {
		t.Fatalf("lookup tok1: %v", err)
	}
	if a1.ID != "a1" {
		t.Errorf("tok1 resolves to %q, want a1", a1.ID)
	}
}

func TestListActiveAgents_ExcludesTerminated(t *testing.T) {
	s := newTestStore(t)

	s.CreateAgent("alive", nil, "")
	s.CreateAgent("dead", nil, "")
	if err := s.UpdateAgentField("dead", "status", store.AgentTerminated); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	agents, err := s.ListActiveAgents()
	if err != nil {
		t.Fatalf("ListActiveAgents error: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("got %d agents, want 1", len(agents))
	}
	if agents[0].ID != "alive" {
		t.Errorf("agent = %q, want alive", agents[0].ID)
	}

	// The terminated row is retained for audit.
	dead, err := s.GetAgent("dead")
	if err != nil {
		t.Fatalf("terminated agent should still be readable: %v", err)
	}
	if dead.Status != store.AgentTerminated {
		t.Errorf("status = %q, want terminated", dead.Status)
	}
}

func TestUpdateAgentField_AllowList(t *testing.T) {
	s := newTestStore(t)
	s.CreateAgent("a1", nil, "")

	if err := s.UpdateAgentField("a1", "status", store.AgentActive); err != nil {
		t.Errorf("status update: %v", err)
	}
	if err := s.UpdateAgentField("a1", "agent_id", "a2"); err == nil {
		t.Error("agent_id update should be rejected")
	}
	if err := s.UpdateAgentField("a1", "token", "stolen"); err == nil {
		t.Error("token update should be rejected")
	}
}

func TestUpdateAgentField_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateAgentField("ghost", "status", store.AgentIdle)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAgentField_ClearCurrentTask(t *testing.T) {
	s := newTestStore(t)
	s.CreateAgent("a1", nil, "")

	if err := s.UpdateAgentField("a1", "current_task", "task-123"); err != nil {
		t.Fatalf("set current_task: %v", err)
	}
	agent, _ := s.GetAgent("a1")
	if agent.CurrentTask == nil || *agent.CurrentTask != "task-123" {
		t.Fatalf("CurrentTask = %v, want task-123", agent.CurrentTask)
	}

	if err := s.UpdateAgentField("a1", "current_task", ""); err != nil {
		t.Fatalf("clear current_task: %v", err)
	}
	agent, _ = s.GetAgent("a1")
	if agent.CurrentTask != nil {
		t.Errorf("CurrentTask = %v, want nil", *agent.CurrentTask)
	}
}

func TestUpdateAgentField_StampsUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	s.CreateAgent("a1", nil, "")

	before, _ := s.GetAgent("a1")
	if err := s.UpdateAgentField("a1", "color", "teal"); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := s.GetAgent("a1")

	if after.Color != "teal" {
		t.Errorf("Color = %q, want teal", after.Color)
	}
	if after.UpdatedAt < before.UpdatedAt {
		t.Errorf("updated_at went backwards: %q -> %q", before.UpdatedAt, after.UpdatedAt)
	}
}
