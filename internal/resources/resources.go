// Package resources implements MCP resource handlers for the swarm.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (corral://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages swarm resource endpoints.
type Handler struct {
	store *store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// statusSnapshot is the JSON shape served at corral://swarm/status.
type statusSnapshot struct {
	Agents       []store.Agent `json:"agents"`
	Tasks        []store.Task  `json:"tasks"`
	BlockedTasks []store.Task  `json:"blocked_tasks"`
}

// StatusResource returns the MCP resource definition for swarm status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"corral://swarm/status",
		"Swarm Status",
		mcp.WithResourceDescription("Active agents, the task graph, and blocked tasks as one JSON snapshot"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current swarm snapshot as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	agents, err := h.store.ListActiveAgents()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	tasks, err := h.store.ListTasks()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	blocked, err := h.store.ListBlockedTasks()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(statusSnapshot{
		Agents:       agents,
		Tasks:        tasks,
		BlockedTasks: blocked,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
