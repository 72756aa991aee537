// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// them. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/HendryAvila/corral/internal/config"
	"github.com/HendryAvila/corral/internal/prompts"
	"github.com/HendryAvila/corral/internal/resources"
	"github.com/HendryAvila/corral/internal/retrieval"
	"github.com/HendryAvila/corral/internal/store"
	"github.com/HendryAvila/corral/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	st, err := store.New(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: store close: %v", err)
		}
	}

	// The OpenAI client is optional: without an API key the ask tool
	// degrades to live data and reindexing is unavailable.
	var (
		embedder retrieval.Embedder
		chatter  retrieval.Chatter
	)
	if client, err := retrieval.NewOpenAIClient(retrieval.OpenAIConfig{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
	}); err != nil {
		log.Printf("WARNING: retrieval degraded, no model access: %v", err)
	} else {
		embedder = client
		chatter = client
	}

	pipeline := retrieval.New(st, embedder, chatter, retrieval.Options{
		MaxContextTokens: cfg.MaxContextTokens,
		Timeout:          cfg.UpstreamTimeout,
	})

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"corral",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---
	//
	// Registration goes through a duplicate-rejecting set: two tools
	// with the same name is a wiring bug and must fail at startup, not
	// at first dispatch.

	ts := newToolset(s)

	// Agent registry
	ts.add(tools.NewRegisterAgentTool(st))
	ts.add(tools.NewGetAgentTool(st))
	ts.add(tools.NewListAgentsTool(st))
	ts.add(tools.NewUpdateAgentTool(st))

	// Task graph
	ts.add(tools.NewCreateTaskTool(st))
	ts.add(tools.NewGetTaskTool(st))
	ts.add(tools.NewListTasksTool(st))
	ts.add(tools.NewUpdateTaskTool(st))
	ts.add(tools.NewTaskStatusTool(st))
	ts.add(tools.NewTaskNoteTool(st))

	// File claims
	ts.add(tools.NewClaimFileTool(st))
	ts.add(tools.NewReleaseFileTool(st))
	ts.add(tools.NewFileStatusTool(st))
	ts.add(tools.NewForceReleaseTool(st))

	// Project context + retrieval
	ts.add(tools.NewSetContextTool(st))
	ts.add(tools.NewGetContextTool(st))
	ts.add(tools.NewAskTool(pipeline))

	// Reindexing needs model access; skip registration when degraded
	// so the tool list reflects what actually works.
	if embedder != nil {
		indexer := retrieval.NewIndexer(st, embedder, cfg.UpstreamTimeout)
		ts.add(tools.NewReindexTool(indexer))
	}

	if err := ts.err(); err != nil {
		cleanup()
		return nil, noop, err
	}

	// --- Register prompts ---

	onboardPrompt := prompts.NewOnboardPrompt()
	s.AddPrompt(onboardPrompt.Definition(), onboardPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(st)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when construction fails.
func noop() {}

// serverInstructions returns the system instructions sent to every
// connected agent runtime.
func serverInstructions() string {
	return `Corral coordinates a swarm of autonomous coding agents sharing one project.

Ground rules for agents:
- Register once with agent_register and keep your token; every mutating call needs it.
- Claim files with file_claim before editing and release them when done. A conflict
  means another agent is editing that file: wait or pick different work, never edit through it.
- Tasks gate on dependencies. If task_status rejects in_progress, poll task_list
  with blocked=true rather than retrying in a loop.
- Record durable project facts with context_set and ask project questions with ask.`
}
