package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if len(result.Messages) == 0 {
		t.Fatal("prompt has no messages")
	}
	text, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Messages[0].Content)
	}
	return text.Text
}

func TestOnboardPrompt_UsesArguments(t *testing.T) {
	p := NewOnboardPrompt()

	if got := p.Definition().Name; got != "swarm-onboard" {
		t.Errorf("name = %q, want swarm-onboard", got)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{
		"agent_id":     "backend-1",
		"capabilities": "go,sql",
	}
	result, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	text := promptText(t, result)
	for _, want := range []string{"backend-1", "go,sql", "agent_register", "file_claim"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestOnboardPrompt_DefaultAgentID(t *testing.T) {
	p := NewOnboardPrompt()
	result, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if !strings.Contains(promptText(t, result), "agent-1") {
		t.Error("prompt should fall back to a default agent id")
	}
}

func TestStatusPrompt_WalksTheTools(t *testing.T) {
	p := NewStatusPrompt()

	if got := p.Definition().Name; got != "swarm-status" {
		t.Errorf("name = %q, want swarm-status", got)
	}

	result, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	text := promptText(t, result)
	for _, want := range []string{"agent_list", "task_list", "blocked=true"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
