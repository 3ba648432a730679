// Package mcp provides an MCP (Model Context Protocol) server for the
// warden gate, so MCP-native agents can declare intents and check
// operations without the HTTP API.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/utils"
)

type Config struct {
	// Gate is the initialized gatekeeper shared with the HTTP surface.
	Gate *gatekeeper.Gatekeeper

	// Intents serves the list_intents tool.
	Intents *intent.Store

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the governance tools.
func NewServer(c Config) (*Server, error) {
	if c.Gate == nil {
		return nil, errors.New("gatekeeper is required")
	}
	if c.Intents == nil {
		return nil, errors.New("intent store is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "warden",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        selectIntentToolName,
		Description: selectIntentDescription,
	}, s.handleSelectIntent)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listIntentsToolName,
		Description: listIntentsDescription,
	}, s.handleListIntents)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        checkOperationToolName,
		Description: checkOperationDescription,
	}, s.handleCheckOperation)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
