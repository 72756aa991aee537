package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/corral/internal/retrieval"
	"github.com/mark3labs/mcp-go/mcp"
)

// ReindexTool handles the knowledge_reindex MCP tool. It embeds
// project-context rows changed since the last pass into the knowledge
// index and advances the last-indexed timestamp.
type ReindexTool struct {
	indexer *retrieval.Indexer
}

// NewReindexTool creates a ReindexTool.
func NewReindexTool(ix *retrieval.Indexer) *ReindexTool {
	return &ReindexTool{indexer: ix}
}

// Definition returns the MCP tool definition for knowledge_reindex.
func (t *ReindexTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_reindex",
		mcp.WithDescription(
			"Embed project-context entries changed since the last indexing pass "+
				"into the knowledge base. Until a pass runs, changed entries only "+
				"surface through the ask tool's live context slice.",
		),
	)
}

// Handle processes the knowledge_reindex tool call.
func (t *ReindexTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	indexed, err := t.indexer.Reindex(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed after %d chunk(s): %v", indexed, err)), nil
	}
	if indexed == 0 {
		return mcp.NewToolResultText("Nothing new to index."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Indexed %d chunk(s).", indexed)), nil
}
