package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── context_set ─────────────────────────────────────────────────────────────

// SetContextTool handles the context_set MCP tool.
type SetContextTool struct {
	store *store.Store
}

// NewSetContextTool creates a SetContextTool.
func NewSetContextTool(s *store.Store) *SetContextTool {
	return &SetContextTool{store: s}
}

// Definition returns the MCP tool definition for context_set.
func (t *SetContextTool) Definition() mcp.Tool {
	return mcp.NewTool("context_set",
		mcp.WithDescription(
			"Record a precise project fact as a key/value entry, e.g. "+
				"deployment_endpoint = https://... . Entries feed the ask tool's "+
				"live context until the next indexing pass picks them up.",
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Unique context key, e.g. 'deployment_endpoint'"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("The value"),
		),
		mcp.WithString("description",
			mcp.Description("What this entry means"),
		),
	)
}

// Handle processes the context_set tool call.
func (t *SetContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	value := req.GetString("value", "")
	if key == "" || value == "" {
		return mcp.NewToolResultError("'key' and 'value' are required"), nil
	}

	if err := t.store.SetContext(key, value, req.GetString("description", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Context %q saved.", key)), nil
}

// ─── context_get ─────────────────────────────────────────────────────────────

// GetContextTool handles the context_get MCP tool.
type GetContextTool struct {
	store *store.Store
}

// NewGetContextTool creates a GetContextTool.
func NewGetContextTool(s *store.Store) *GetContextTool {
	return &GetContextTool{store: s}
}

// Definition returns the MCP tool definition for context_get.
func (t *GetContextTool) Definition() mcp.Tool {
	return mcp.NewTool("context_get",
		mcp.WithDescription("Read one project-context entry by key, or all entries when no key is given."),
		mcp.WithString("key",
			mcp.Description("Context key to read; omit to list everything"),
		),
	)
}

// Handle processes the context_get tool call.
func (t *GetContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")

	if key != "" {
		entry, err := t.store.GetContext(key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("no context entry %q", key)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatContextEntry(entry)), nil
	}

	entries, err := t.store.ListContext()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No project context recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d context entries:\n\n", len(entries))
	for i := range entries {
		b.WriteString(formatContextEntry(&entries[i]))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatContextEntry(e *store.ContextEntry) string {
	out := fmt.Sprintf("%s = %s", e.Key, e.Value)
	if e.Description != "" {
		out += fmt.Sprintf("\n  %s", e.Description)
	}
	out += fmt.Sprintf("\n  updated: %s\n", e.LastUpdated)
	return out
}
