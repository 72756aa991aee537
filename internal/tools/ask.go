package tools

import (
	"context"

	"github.com/HendryAvila/corral/internal/retrieval"
	"github.com/mark3labs/mcp-go/mcp"
)

// AskTool handles the ask MCP tool: natural-language questions answered
// from project context, tasks, and the knowledge index.
type AskTool struct {
	pipeline *retrieval.Pipeline
}

// NewAskTool creates an AskTool.
func NewAskTool(p *retrieval.Pipeline) *AskTool {
	return &AskTool{pipeline: p}
}

// Definition returns the MCP tool definition for ask.
func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("ask",
		mcp.WithDescription(
			"Ask a question about the project. The answer is synthesized from "+
				"recent project context, matching tasks, and the indexed knowledge "+
				"base, and grounded only in what was found.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, in natural language"),
		),
	)
}

// Handle processes the ask tool call. The pipeline never fails — it
// always returns displayable text — so this handler has no error path
// beyond argument validation.
func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	return mcp.NewToolResultText(t.pipeline.Answer(ctx, query)), nil
}
