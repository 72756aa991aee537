// Corral: Multi-Agent Coordination MCP Server
//
// Corral arbitrates shared state for a swarm of autonomous coding
// agents: task graph with dependency gating, advisory file claims,
// agent identity, and retrieval-augmented project Q&A. Agents connect
// over MCP stdio and interact purely through tool calls.
//
// Usage:
//
//	corral serve     # Start MCP server (stdio transport)
//	corral version   # Print version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/corral/internal/config"
	corralserver "github.com/HendryAvila/corral/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("corral v%s\n", corralserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	s, cleanup, err := corralserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Corral v%s — Multi-Agent Coordination MCP Server

Usage:
  corral serve     Start the MCP server (stdio transport)
  corral version   Print version

Configuration (environment):
  CORRAL_DATA_DIR                  SQLite data directory (default ~/.corral)
  CORRAL_OPENAI_API_KEY            API key for embeddings + chat (optional)
  CORRAL_OPENAI_BASE_URL           Endpoint override for compatible servers
  CORRAL_EMBEDDING_MODEL           Embedding model (default text-embedding-3-small)
  CORRAL_EMBEDDING_DIMENSIONS      Embedding dimension (default 1536)
  CORRAL_CHAT_MODEL                Chat model (default gpt-4o-mini)
  CORRAL_MAX_CONTEXT_TOKENS        Retrieval context budget (default 2000)
  CORRAL_UPSTREAM_TIMEOUT_SECONDS  Per-call model timeout (default 30)

  Add to your agent runtime's MCP config:

  {
    "mcpServers": {
      "corral": {
        "command": "corral",
        "args": ["serve"]
      }
    }
  }
`, corralserver.Version)
}
