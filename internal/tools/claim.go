package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── file_claim ──────────────────────────────────────────────────────────────

// ClaimFileTool handles the file_claim MCP tool.
type ClaimFileTool struct {
	store *store.Store
}

// NewClaimFileTool creates a ClaimFileTool.
func NewClaimFileTool(s *store.Store) *ClaimFileTool {
	return &ClaimFileTool{store: s}
}

// Definition returns the MCP tool definition for file_claim.
func (t *ClaimFileTool) Definition() mcp.Tool {
	return mcp.NewTool("file_claim",
		mcp.WithDescription(
			"Claim a file before touching it. At most one agent may hold an "+
				"'editing' claim per file; 'reading' and 'reviewing' claims do not "+
				"exclude others. This is an advisory lock: honor a conflict, do not "+
				"edit through it.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("The calling agent's secret token"),
		),
		mcp.WithString("filepath",
			mcp.Required(),
			mcp.Description("The file to claim"),
		),
		mcp.WithString("mode",
			mcp.Description("editing (default), reading, or reviewing"),
		),
	)
}

// Handle processes the file_claim tool call.
func (t *ClaimFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent, errResult := authenticate(t.store, req)
	if errResult != nil {
		return errResult, nil
	}
	path := req.GetString("filepath", "")
	if path == "" {
		return mcp.NewToolResultError("'filepath' is required"), nil
	}
	mode := req.GetString("mode", store.ClaimEditing)

	if err := t.store.ClaimFile(path, agent.ID, mode); err != nil {
		var conflict *store.ClaimConflictError
		if errors.As(err, &conflict) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"conflict: %s is being edited by agent %s; wait or coordinate with them",
				conflict.Filepath, conflict.Holder)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("claim failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Agent %s now holds %s (%s).", agent.ID, path, mode)), nil
}

// ─── file_release ────────────────────────────────────────────────────────────

// ReleaseFileTool handles the file_release MCP tool.
type ReleaseFileTool struct {
	store *store.Store
}

// NewReleaseFileTool creates a ReleaseFileTool.
func NewReleaseFileTool(s *store.Store) *ReleaseFileTool {
	return &ReleaseFileTool{store: s}
}

// Definition returns the MCP tool definition for file_release.
func (t *ReleaseFileTool) Definition() mcp.Tool {
	return mcp.NewTool("file_release",
		mcp.WithDescription("Release a file claim. Only the current holder may release."),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("The calling agent's secret token"),
		),
		mcp.WithString("filepath",
			mcp.Required(),
			mcp.Description("The file to release"),
		),
	)
}

// Handle processes the file_release tool call.
func (t *ReleaseFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent, errResult := authenticate(t.store, req)
	if errResult != nil {
		return errResult, nil
	}
	path := req.GetString("filepath", "")
	if path == "" {
		return mcp.NewToolResultError("'filepath' is required"), nil
	}

	if err := t.store.ReleaseFile(path, agent.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotHolder):
			return mcp.NewToolResultError(fmt.Sprintf("agent %s does not hold %s", agent.ID, path)), nil
		case errors.Is(err, store.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("no active claim on %s", path)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("release failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Released %s.", path)), nil
}

// ─── file_status ─────────────────────────────────────────────────────────────

// FileStatusTool handles the file_status MCP tool.
type FileStatusTool struct {
	store *store.Store
}

// NewFileStatusTool creates a FileStatusTool.
func NewFileStatusTool(s *store.Store) *FileStatusTool {
	return &FileStatusTool{store: s}
}

// Definition returns the MCP tool definition for file_status.
func (t *FileStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("file_status",
		mcp.WithDescription("Check who holds a file and in what mode."),
		mcp.WithString("filepath",
			mcp.Required(),
			mcp.Description("The file to check"),
		),
	)
}

// Handle processes the file_status tool call.
func (t *FileStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("filepath", "")
	if path == "" {
		return mcp.NewToolResultError("'filepath' is required"), nil
	}

	claim, err := t.store.ClaimStatus(path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("%s is unclaimed.", path)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	if claim.Mode == store.ClaimReleased {
		return mcp.NewToolResultText(fmt.Sprintf("%s is unclaimed (last held by %s).", path, claim.HolderID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%s is held by agent %s (%s, since %s).", path, claim.HolderID, claim.Mode, claim.UpdatedAt)), nil
}

// ─── file_force_release ──────────────────────────────────────────────────────

// ForceReleaseTool handles the file_force_release MCP tool.
type ForceReleaseTool struct {
	store *store.Store
}

// NewForceReleaseTool creates a ForceReleaseTool.
func NewForceReleaseTool(s *store.Store) *ForceReleaseTool {
	return &ForceReleaseTool{store: s}
}

// Definition returns the MCP tool definition for file_force_release.
func (t *ForceReleaseTool) Definition() mcp.Tool {
	return mcp.NewTool("file_force_release",
		mcp.WithDescription(
			"Clear a file claim regardless of holder. Admin intervention for "+
				"crashed or stuck agents.",
		),
		mcp.WithString("filepath",
			mcp.Required(),
			mcp.Description("The file to clear"),
		),
	)
}

// Handle processes the file_force_release tool call.
func (t *ForceReleaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("filepath", "")
	if path == "" {
		return mcp.NewToolResultError("'filepath' is required"), nil
	}

	if err := t.store.ForceReleaseFile(path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("No active claim on %s.", path)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("force release failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared claim on %s.", path)), nil
}
