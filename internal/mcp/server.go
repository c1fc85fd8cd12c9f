// Package mcp exposes archlens to agents over the Model Context Protocol.
// Analyses run in-process; their results live in the shared result cache so
// later expand, read and query calls can refer to them by analysis id.
package mcp

import (
	"encoding/json"
	"log/slog"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"archlens/internal/cache"
	"archlens/internal/envelope"
	"archlens/internal/orchestrator"
	"archlens/internal/query"
)

// Server wires archlens tools into an MCP server.
type Server struct {
	orch   *orchestrator.Orchestrator
	engine *query.Engine
	cache  *cache.ResultCache
	logger *slog.Logger
	mcp    *server.MCPServer
	now    func() time.Time
}

// NewServer creates the MCP server and registers every tool.
func NewServer(version string, orch *orchestrator.Orchestrator, logger *slog.Logger) *Server {
	s := &Server{
		orch:   orch,
		cache:  orch.Cache(),
		engine: query.NewEngine(orch.Cache(), logger),
		logger: logger,
		now:    time.Now,
	}
	s.mcp = server.NewMCPServer(
		"archlens",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range s.tools() {
		s.mcp.AddTool(t.tool, t.handler)
		logger.Debug("Registered tool", "name", t.tool.Name)
	}
	return s
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the protocol on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP on stdio", "tools", len(s.tools()))
	return server.ServeStdio(s.mcp)
}

// respond encodes an envelope as the tool result. Envelopes carrying an error
// are flagged so clients can tell them apart.
func respond(resp *envelope.Response) (*mcpgo.CallToolResult, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return mcpgo.NewToolResultError(string(data)), nil
	}
	return mcpgo.NewToolResultText(string(data)), nil
}

func (s *Server) fail(tool string, err error) (*mcpgo.CallToolResult, error) {
	s.logger.Warn("Tool call failed", "tool", tool, "error", err.Error())
	return respond(envelope.FromError(err))
}
