package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── agent_register ──────────────────────────────────────────────────────────

// RegisterAgentTool handles the agent_register MCP tool.
type RegisterAgentTool struct {
	store *store.Store
}

// NewRegisterAgentTool creates a RegisterAgentTool.
func NewRegisterAgentTool(s *store.Store) *RegisterAgentTool {
	return &RegisterAgentTool{store: s}
}

// Definition returns the MCP tool definition for agent_register.
func (t *RegisterAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_register",
		mcp.WithDescription(
			"Register a new agent in the swarm. Returns the agent's secret token — "+
				"save it, every subsequent call authenticates with it.",
		),
		mcp.WithString("agent_id",
			mcp.Required(),
			mcp.Description("Unique agent slug, e.g. 'backend-1'. Immutable after creation."),
		),
		mcp.WithString("capabilities",
			mcp.Description("Comma-separated capability tags, e.g. 'go,sql,review'"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory the agent operates in"),
		),
	)
}

// Handle processes the agent_register tool call.
func (t *RegisterAgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("agent_id", "")
	if id == "" {
		return mcp.NewToolResultError("'agent_id' is required"), nil
	}

	agent, token, err := t.store.CreateAgent(id, listArg(req, "capabilities"), req.GetString("working_directory", ""))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAgent) {
			return mcp.NewToolResultError(fmt.Sprintf("agent %q is already registered", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("registration failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Registered agent %s.\n", agent.ID)
	fmt.Fprintf(&b, "Token: %s\n", token)
	b.WriteString("Keep the token secret; it authenticates every call this agent makes.\n")
	return mcp.NewToolResultText(b.String()), nil
}

// ─── agent_get ───────────────────────────────────────────────────────────────

// GetAgentTool handles the agent_get MCP tool.
type GetAgentTool struct {
	store *store.Store
}

// NewGetAgentTool creates a GetAgentTool.
func NewGetAgentTool(s *store.Store) *GetAgentTool {
	return &GetAgentTool{store: s}
}

// Definition returns the MCP tool definition for agent_get.
func (t *GetAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_get",
		mcp.WithDescription("Look up one agent by id."),
		mcp.WithString("agent_id",
			mcp.Required(),
			mcp.Description("The agent id to look up"),
		),
	)
}

// Handle processes the agent_get tool call.
func (t *GetAgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("agent_id", "")
	if id == "" {
		return mcp.NewToolResultError("'agent_id' is required"), nil
	}

	agent, err := t.store.GetAgent(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no agent %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	var b strings.Builder
	formatAgent(&b, agent)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── agent_list ──────────────────────────────────────────────────────────────

// ListAgentsTool handles the agent_list MCP tool.
type ListAgentsTool struct {
	store *store.Store
}

// NewListAgentsTool creates a ListAgentsTool.
func NewListAgentsTool(s *store.Store) *ListAgentsTool {
	return &ListAgentsTool{store: s}
}

// Definition returns the MCP tool definition for agent_list.
func (t *ListAgentsTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_list",
		mcp.WithDescription(
			"List all non-terminated agents. Terminated agents are kept for audit but excluded here.",
		),
	)
}

// Handle processes the agent_list tool call.
func (t *ListAgentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agents, err := t.store.ListActiveAgents()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(agents) == 0 {
		return mcp.NewToolResultText("No active agents."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d active agent(s):\n\n", len(agents))
	for i := range agents {
		formatAgent(&b, &agents[i])
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── agent_update ────────────────────────────────────────────────────────────

// UpdateAgentTool handles the agent_update MCP tool.
type UpdateAgentTool struct {
	store *store.Store
}

// NewUpdateAgentTool creates an UpdateAgentTool.
func NewUpdateAgentTool(s *store.Store) *UpdateAgentTool {
	return &UpdateAgentTool{store: s}
}

// Definition returns the MCP tool definition for agent_update.
func (t *UpdateAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_update",
		mcp.WithDescription(
			"Update one field on the calling agent: status (created|active|idle|terminated), "+
				"current_task, working_directory, color, or capabilities (JSON list). "+
				"Termination is a status change; the row is never deleted.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("The calling agent's secret token"),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field to update: status, current_task, working_directory, color, capabilities"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("New value. Empty string clears current_task."),
		),
	)
}

// Handle processes the agent_update tool call.
func (t *UpdateAgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent, errResult := authenticate(t.store, req)
	if errResult != nil {
		return errResult, nil
	}

	field := req.GetString("field", "")
	if field == "" {
		return mcp.NewToolResultError("'field' is required"), nil
	}
	value := req.GetString("value", "")

	if err := t.store.UpdateAgentField(agent.ID, field, value); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Agent %s: %s updated.", agent.ID, field)), nil
}
