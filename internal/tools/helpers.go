// Package tools implements the MCP tool handlers that expose Corral's
// coordination core to agent processes.
//
// Each tool follows the same pattern:
// - a struct with its dependencies (store.Store, retrieval pipeline) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers never return Go errors for domain failures — those become
// error-typed tool results so the dispatcher keeps a uniform shape.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// listArg extracts a string-list argument. Accepts a JSON array or a
// comma-separated string, since agent runtimes disagree on which to send.
func listArg(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// authenticate resolves the calling agent from the request's token
// argument. Returns a tool error result when the token is missing or
// unknown.
func authenticate(s *store.Store, req mcp.CallToolRequest) (*store.Agent, *mcp.CallToolResult) {
	token := req.GetString("token", "")
	if token == "" {
		return nil, mcp.NewToolResultError("'token' is required")
	}
	agent, err := s.GetAgentByToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, mcp.NewToolResultError("unknown agent token")
		}
		return nil, mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err))
	}
	return agent, nil
}

// formatAgent renders one agent as a readable block.
func formatAgent(b *strings.Builder, a *store.Agent) {
	fmt.Fprintf(b, "Agent %s [%s]\n", a.ID, a.Status)
	if len(a.Capabilities) > 0 {
		fmt.Fprintf(b, "  capabilities: %s\n", strings.Join(a.Capabilities, ", "))
	}
	if a.CurrentTask != nil {
		fmt.Fprintf(b, "  current task: %s\n", *a.CurrentTask)
	}
	if a.WorkingDirectory != "" {
		fmt.Fprintf(b, "  workdir: %s\n", a.WorkingDirectory)
	}
	fmt.Fprintf(b, "  updated: %s\n", a.UpdatedAt)
}

// formatTask renders one task as a readable block.
func formatTask(b *strings.Builder, t *store.Task) {
	fmt.Fprintf(b, "Task %s [%s, %s priority]\n", t.ID, t.Status, t.Priority)
	fmt.Fprintf(b, "  %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(b, "  %s\n", t.Description)
	}
	if t.AssignedTo != nil {
		fmt.Fprintf(b, "  assigned to: %s\n", *t.AssignedTo)
	}
	if t.ParentTask != nil {
		fmt.Fprintf(b, "  parent: %s\n", *t.ParentTask)
	}
	if len(t.ChildTasks) > 0 {
		fmt.Fprintf(b, "  children: %s\n", strings.Join(t.ChildTasks, ", "))
	}
	if len(t.DependsOn) > 0 {
		fmt.Fprintf(b, "  depends on: %s\n", strings.Join(t.DependsOn, ", "))
	}
	for _, note := range t.Notes {
		fmt.Fprintf(b, "  note: %s\n", note)
	}
	fmt.Fprintf(b, "  updated: %s\n", t.UpdatedAt)
}
