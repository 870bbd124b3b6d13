// Package server provides a factory for creating the MCP server.
package server

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/asertorio/mcp-aecdm/pkg/aecdm"
	"github.com/asertorio/mcp-aecdm/pkg/config"
	"github.com/asertorio/mcp-aecdm/pkg/middleware"
	"github.com/asertorio/mcp-aecdm/pkg/oauth"
	"github.com/asertorio/mcp-aecdm/pkg/session"
	"github.com/asertorio/mcp-aecdm/pkg/toolkit"
	"github.com/asertorio/mcp-aecdm/pkg/viewer"
)

// Version is set at build time.
var Version = "dev"

// New assembles the MCP server from a validated configuration: session
// store, OAuth flow, GraphQL proxy, viewer bridge and the tool surface.
func New(cfg *config.Config, log *slog.Logger) (*mcp.Server, *toolkit.Toolkit, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store := session.NewMemoryStore()

	flow := &oauth.Flow{
		AuthorizeURL: cfg.OAuth.AuthorizeURL,
		ClientID:     cfg.OAuth.ClientID,
		CallbackPort: cfg.OAuth.CallbackPort,
		Scopes:       cfg.OAuth.Scopes,
		Exchanger: &oauth.Exchanger{
			TokenURL: cfg.OAuth.TokenURL,
			ClientID: cfg.OAuth.ClientID,
			Scopes:   cfg.OAuth.Scopes,
		},
		Store: store,
	}

	client := aecdm.NewClient(cfg.API.GraphQLURL, store)
	bridge := viewer.New(cfg.Viewer.Port, cfg.Viewer.SocketPort, log)

	tk := toolkit.New(toolkit.Options{
		Store:       store,
		Client:      client,
		Flow:        flow,
		Bridge:      bridge,
		OpenBrowser: oauth.OpenBrowser,
		Logger:      log,
	})

	version := cfg.Server.Version
	if version == "" {
		version = Version
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: version,
	}, nil)
	mcpServer.AddReceivingMiddleware(middleware.MCPToolLoggingMiddleware(log))
	tk.RegisterTools(mcpServer)

	return mcpServer, tk, nil
}
