// Package prompts implements MCP prompt handlers for the swarm.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// OnboardPrompt handles the swarm-onboard MCP prompt. It walks a fresh
// agent process through registering and picking up its first task.
type OnboardPrompt struct{}

// NewOnboardPrompt creates an OnboardPrompt.
func NewOnboardPrompt() *OnboardPrompt {
	return &OnboardPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *OnboardPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("swarm-onboard",
		mcp.WithPromptDescription(
			"Join the swarm as a new agent: register, announce capabilities, "+
				"and claim your first task.",
		),
		mcp.WithArgument("agent_id",
			mcp.ArgumentDescription("Unique slug for this agent, e.g. 'backend-1'"),
		),
		mcp.WithArgument("capabilities",
			mcp.ArgumentDescription("Comma-separated capability tags, e.g. 'go,sql,review'"),
		),
	)
}

// Handle processes the swarm-onboard prompt request.
func (p *OnboardPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	agentID := "agent-1"
	capabilities := ""
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["agent_id"]; ok && id != "" {
			agentID = id
		}
		if caps, ok := args["capabilities"]; ok {
			capabilities = caps
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Onboard agent: %s", agentID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I am joining the swarm as agent '%s'.\n\n"+
						"Please:\n"+
						"1. Run `agent_register` with agent_id='%s' and capabilities='%s', and remember the returned token\n"+
						"2. Run `agent_update` to set my status to 'active'\n"+
						"3. Run `task_list` with agent_id='%s' to find my assigned tasks, or `task_list` with blocked=false for open work\n"+
						"4. Before editing any file, run `file_claim` on it and honor any conflict\n"+
						"5. Move my task through `task_status` as I make progress",
					agentID, agentID, capabilities, agentID,
				)),
			},
		},
	}, nil
}
