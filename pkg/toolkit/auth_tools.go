package toolkit

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// authenticateOutput is the JSON response of the authenticate tool. A
// failed login is reported here, not raised: the assistant parses this and
// reacts without the call itself faulting.
type authenticateOutput struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// checkAuthOutput is the JSON response of the check_auth tool.
type checkAuthOutput struct {
	Authenticated bool `json:"authenticated"`
}

// browseOutput is the JSON response of the browse_aecdm tool.
type browseOutput struct {
	Status string `json:"status"`
	View   string `json:"view"`
}

type authenticateInput struct{}

type checkAuthInput struct{}

type browseInput struct{}

// registerAuthTools registers authenticate, check_auth and browse_aecdm.
func (t *Toolkit) registerAuthTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "authenticate",
		Description: "Authenticate with Autodesk via the browser-based OAuth login. " +
			"Opens the system browser and waits up to five minutes for the user to grant access. " +
			"Succeeds immediately when a session already exists.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ authenticateInput) (*mcp.CallToolResult, any, error) {
		return t.handleAuthenticate(ctx, req)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "check_auth",
		Description: "Report whether an Autodesk session is currently active. Never fails.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ checkAuthInput) (*mcp.CallToolResult, any, error) {
		return t.handleCheckAuth(ctx, req)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "browse_aecdm",
		Description: "Signal the UI to switch to the AECDM browser view. Stateless; never fails.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ browseInput) (*mcp.CallToolResult, any, error) {
		return t.handleBrowse(ctx, req)
	})
}

// handleAuthenticate short-circuits when a token already exists, otherwise
// runs the full PKCE flow. Every failure in the chain is reported as
// {authenticated: false, error}.
func (t *Toolkit) handleAuthenticate(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	if _, ok := t.store.AccessToken(); ok {
		return jsonResult(authenticateOutput{
			Authenticated: true,
			Message:       "Already authenticated.",
		}), nil, nil
	}

	if err := t.flow.Run(ctx); err != nil {
		t.log.Warn("authentication failed", "error", err)
		return jsonResult(authenticateOutput{
			Authenticated: false,
			Error:         err.Error(),
		}), nil, nil
	}

	return jsonResult(authenticateOutput{
		Authenticated: true,
		Message:       "Authentication complete.",
	}), nil, nil
}

// handleCheckAuth reports token presence.
func (t *Toolkit) handleCheckAuth(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	_, ok := t.store.AccessToken()
	return jsonResult(checkAuthOutput{Authenticated: ok}), nil, nil
}

// handleBrowse is a stateless view-switch signal.
func (t *Toolkit) handleBrowse(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	return jsonResult(browseOutput{Status: "ok", View: "aecdm-browser"}), nil, nil
}
