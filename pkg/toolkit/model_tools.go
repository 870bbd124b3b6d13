package toolkit

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/asertorio/mcp-aecdm/pkg/session"
	"github.com/asertorio/mcp-aecdm/pkg/viewer"
)

// renderModelInput selects a model for the external viewer.
type renderModelInput struct {
	FileVersionURN   string `json:"file_version_urn" jsonschema:"The file version URN of the model to load, as returned by get_element_groups"`
	ElementGroupID   string `json:"element_group_id" jsonschema:"The element group id of the model"`
	ElementGroupName string `json:"element_group_name,omitempty" jsonschema:"Display name of the model"`
}

// renderModelOutput is the JSON response of the render_model tool.
type renderModelOutput struct {
	Status    string `json:"status"`
	ViewerURL string `json:"viewerUrl"`
	// Queued is true when no browser tab is attached yet and the load
	// command waits for the next connection.
	Queued bool `json:"queued"`
}

// highlightInput selects elements to highlight in the loaded model.
type highlightInput struct {
	ExternalIDs []string `json:"external_ids" jsonschema:"External element ids to select and isolate in the viewer"`
}

// highlightOutput is the JSON response of the highlight_elements tool.
type highlightOutput struct {
	Status    string `json:"status"`
	Requested int    `json:"requested"`
}

type modelContextInput struct{}

// registerModelTools registers render_model, highlight_elements and
// get_model_context.
func (t *Toolkit) registerModelTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "render_model",
		Description: "Load a model into the external 3D viewer. Starts the local viewer on first " +
			"use and opens it in the system browser; later calls switch the already-open viewer " +
			"to the new model. Requires authentication.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in renderModelInput) (*mcp.CallToolResult, any, error) {
		return t.handleRenderModel(ctx, req, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "highlight_elements",
		Description: "Select, isolate and zoom to elements in the currently loaded model by their " +
			"external ids. Requires the viewer to be open and connected.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in highlightInput) (*mcp.CallToolResult, any, error) {
		return t.handleHighlight(ctx, req, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_model_context",
		Description: "Return the currently selected model (element group id, name and file version URN).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ modelContextInput) (*mcp.CallToolResult, any, error) {
		return t.handleModelContext(ctx, req)
	})
}

// handleRenderModel updates the model context, then either queues the load
// command and opens the browser (first call: the browser launch races the
// socket connect, so the command must wait in the pending slot) or pushes
// it straight to the attached tab (later calls).
func (t *Toolkit) handleRenderModel(ctx context.Context, _ *mcp.CallToolRequest, in renderModelInput) (*mcp.CallToolResult, any, error) {
	token, ok := t.store.AccessToken()
	if !ok {
		return errorResult("Not authenticated. Run the authenticate tool first."), nil, nil
	}
	if in.FileVersionURN == "" {
		return errorResult("file_version_urn is required."), nil, nil
	}
	if in.ElementGroupID == "" {
		return errorResult("element_group_id is required."), nil, nil
	}

	t.store.SetModelContext(session.ModelContext{
		ElementGroupID:   in.ElementGroupID,
		ElementGroupName: in.ElementGroupName,
		FileVersionURN:   in.FileVersionURN,
	})

	first := !t.bridge.Running()
	if err := t.bridge.Start(); err != nil {
		return errorResult("Starting viewer: " + err.Error()), nil, nil
	}

	msg := viewer.NewLoadModelMessage(in.FileVersionURN, token)
	if err := t.bridge.Send(ctx, msg); err != nil {
		// The message has been re-queued for the page's reconnect; report
		// the state rather than failing the render.
		t.log.Warn("viewer send failed, message queued", "error", err)
	}

	if first {
		if err := t.openBrowser(t.bridge.PageURL()); err != nil {
			return errorResult("Opening viewer in browser: " + err.Error()), nil, nil
		}
	}

	return jsonResult(renderModelOutput{
		Status:    "ok",
		ViewerURL: t.bridge.PageURL(),
		Queued:    !t.bridge.Connected(),
	}), nil, nil
}

// handleHighlight pushes a highlight command to the attached tab. Unlike
// render_model it never queues: highlighting without a loaded model is
// meaningless, so a missing connection is an explicit error.
func (t *Toolkit) handleHighlight(ctx context.Context, _ *mcp.CallToolRequest, in highlightInput) (*mcp.CallToolResult, any, error) {
	if !t.bridge.Running() || !t.bridge.Connected() {
		return errorResult("Viewer not connected. Render a model with render_model first."), nil, nil
	}
	if len(in.ExternalIDs) == 0 {
		return errorResult("external_ids must not be empty."), nil, nil
	}

	if err := t.bridge.Send(ctx, viewer.NewHighlightMessage(in.ExternalIDs)); err != nil {
		return errorResult("Sending highlight command: " + err.Error()), nil, nil
	}

	return jsonResult(highlightOutput{Status: "ok", Requested: len(in.ExternalIDs)}), nil, nil
}

// handleModelContext returns the selected model, with an actionable message
// when nothing has been rendered yet.
func (t *Toolkit) handleModelContext(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	mc, err := t.store.ModelContext()
	if err != nil {
		return errorResult("No model loaded. Browse with get_hubs, get_projects and " +
			"get_element_groups, then load one with render_model."), nil, nil
	}
	return jsonResult(mc), nil, nil
}
