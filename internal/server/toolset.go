package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// tool is the uniform contract every handler in this repo exposes.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// toolset registers tools on an MCPServer while rejecting duplicate
// names and empty schemas. A collision here is a programming error in
// the composition root, so it is collected and surfaced once instead
// of silently overwriting a handler.
type toolset struct {
	srv      *server.MCPServer
	names    map[string]bool
	firstErr error
}

func newToolset(srv *server.MCPServer) *toolset {
	return &toolset{srv: srv, names: map[string]bool{}}
}

// add validates and registers one tool. Later errors are dropped in
// favor of the first — one wiring bug is enough to stop startup.
func (ts *toolset) add(t tool) {
	if ts.firstErr != nil {
		return
	}

	def := t.Definition()
	if def.Name == "" {
		ts.firstErr = fmt.Errorf("registering tool: empty name")
		return
	}
	if ts.names[def.Name] {
		ts.firstErr = fmt.Errorf("registering tool %q: duplicate name", def.Name)
		return
	}

	ts.names[def.Name] = true
	ts.srv.AddTool(def, t.Handle)
}

// err reports the first registration failure, if any.
func (ts *toolset) err() error {
	return ts.firstErr
}
