package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the swarm-status MCP prompt: a quick tour of
// who is active, what is in flight, and what is blocked.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("swarm-status",
		mcp.WithPromptDescription(
			"Summarize the swarm: active agents, tasks in flight, blocked tasks, "+
				"and held file claims.",
		),
	)
}

// Handle processes the swarm-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Swarm status overview",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Give me a status overview of the swarm.\n\n" +
						"Please:\n" +
						"1. Run `agent_list` and summarize who is active and on what\n" +
						"2. Run `task_list` and group tasks by status\n" +
						"3. Run `task_list` with blocked=true and call out anything stuck on dependencies\n" +
						"4. Note any long-held editing claims that might need `file_force_release`",
				),
			},
		},
	}, nil
}
