// Package toolkit exposes the AECDM tool surface to the MCP server: the
// authentication tools, the viewer tools, and the GraphQL data-fetch
// helpers. Tools are thin orchestration over the session store, the proxy
// client, and the viewer bridge; every failure is caught at the tool
// boundary and returned as a structured payload, never as a transport-level
// fault.
package toolkit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/asertorio/mcp-aecdm/pkg/aecdm"
	"github.com/asertorio/mcp-aecdm/pkg/session"
	"github.com/asertorio/mcp-aecdm/pkg/viewer"
)

// AuthFlow runs a complete interactive login. Implemented by *oauth.Flow;
// tests substitute a fake.
type AuthFlow interface {
	Run(ctx context.Context) error
}

// Toolkit wires the AECDM tools to their collaborators.
type Toolkit struct {
	store       session.Store
	client      *aecdm.Client
	flow        AuthFlow
	bridge      *viewer.Bridge
	openBrowser func(url string) error
	log         *slog.Logger
}

// Options configures a Toolkit.
type Options struct {
	Store  session.Store
	Client *aecdm.Client
	Flow   AuthFlow
	Bridge *viewer.Bridge

	// OpenBrowser launches the system browser to the viewer page on the
	// first render. Tests substitute a fake.
	OpenBrowser func(url string) error

	Logger *slog.Logger
}

// New creates the toolkit.
func New(opts Options) *Toolkit {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Toolkit{
		store:       opts.Store,
		client:      opts.Client,
		flow:        opts.Flow,
		bridge:      opts.Bridge,
		openBrowser: opts.OpenBrowser,
		log:         log,
	}
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "aecdm"
}

// Name returns the toolkit instance name.
func (*Toolkit) Name() string {
	return "aecdm"
}

// RegisterTools registers all AECDM tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	t.registerAuthTools(s)
	t.registerModelTools(s)
	t.registerDataTools(s)
	t.registerQueryTool(s)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		"authenticate",
		"check_auth",
		"browse_aecdm",
		"render_model",
		"highlight_elements",
		"get_model_context",
		"get_hubs",
		"get_projects",
		"get_element_groups",
		"get_elements_by_category",
		"execute_query",
	}
}

// Close releases resources. The viewer bridge listeners live for the
// process lifetime, so there is nothing to release.
func (*Toolkit) Close() error {
	return nil
}

// jsonResult marshals v into a single text content payload.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encoding result: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult returns a structured error payload with IsError set. The
// host runtime sees a reported failure, never a crashed tool call.
func errorResult(msg string) *mcp.CallToolResult {
	return errorResultWith(map[string]any{"error": msg})
}

// errorResultWith returns an arbitrary JSON error payload with IsError set.
func errorResultWith(payload map[string]any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		data = []byte(`{"error":"internal encoding failure"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
