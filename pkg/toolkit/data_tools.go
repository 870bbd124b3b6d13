package toolkit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/asertorio/mcp-aecdm/pkg/aecdm"
)

// getProjectsInput identifies the hub to list projects for.
type getProjectsInput struct {
	HubID  string `json:"hub_id" jsonschema:"The hub id, as returned by get_hubs"`
	Region string `json:"region,omitempty" jsonschema:"Optional region header value (for example US or EMEA)"`
}

type getHubsInput struct {
	Region string `json:"region,omitempty" jsonschema:"Optional region header value (for example US or EMEA)"`
}

type getElementGroupsInput struct {
	ProjectID string `json:"project_id" jsonschema:"The project id, as returned by get_projects"`
	Region    string `json:"region,omitempty" jsonschema:"Optional region header value (for example US or EMEA)"`
}

type getElementsByCategoryInput struct {
	ElementGroupID string `json:"element_group_id" jsonschema:"The element group id, as returned by get_element_groups"`
	Category       string `json:"category" jsonschema:"Revit category to filter on, for example Walls or Doors"`
	Region         string `json:"region,omitempty" jsonschema:"Optional region header value (for example US or EMEA)"`
}

// dataOutput is the JSON response of the data-fetch helpers: data, plus
// warnings when the service returned a partial result.
type dataOutput struct {
	Data     json.RawMessage      `json:"data"`
	Warnings []aecdm.GraphQLError `json:"warnings,omitempty"`
}

// registerDataTools registers the fixed-query data-fetch helpers.
func (t *Toolkit) registerDataTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_hubs",
		Description: "List the Autodesk hubs visible to the authenticated account.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getHubsInput) (*mcp.CallToolResult, any, error) {
		res, err := t.client.Hubs(ctx, in.Region)
		return t.graphResult(res, err), nil, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_projects",
		Description: "List the projects of a hub.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getProjectsInput) (*mcp.CallToolResult, any, error) {
		if in.HubID == "" {
			return errorResult("hub_id is required."), nil, nil
		}
		res, err := t.client.Projects(ctx, in.HubID, in.Region)
		return t.graphResult(res, err), nil, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "get_element_groups",
		Description: "List the element groups (models) of a project, including the file version " +
			"URN needed by render_model.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getElementGroupsInput) (*mcp.CallToolResult, any, error) {
		if in.ProjectID == "" {
			return errorResult("project_id is required."), nil, nil
		}
		res, err := t.client.ElementGroups(ctx, in.ProjectID, in.Region)
		return t.graphResult(res, err), nil, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_elements_by_category",
		Description: "List the elements of an element group that match a Revit category, with their properties.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getElementsByCategoryInput) (*mcp.CallToolResult, any, error) {
		if in.ElementGroupID == "" {
			return errorResult("element_group_id is required."), nil, nil
		}
		if in.Category == "" {
			return errorResult("category is required."), nil, nil
		}
		res, err := t.client.ElementsByCategory(ctx, in.ElementGroupID, in.Category, in.Region)
		return t.graphResult(res, err), nil, nil
	})
}

// graphResult reshapes a proxy response into the tool payload contract:
// data (with warnings when partial), or a structured error. Errors with
// usable data are recoverable and annotated; errors without data are fatal
// for that query and surfaced with the correlation id.
func (t *Toolkit) graphResult(res *aecdm.Result, err error) *mcp.CallToolResult {
	if err != nil {
		if errors.Is(err, aecdm.ErrNotAuthenticated) {
			return errorResult("Not authenticated")
		}
		var upstream *aecdm.UpstreamError
		if errors.As(err, &upstream) {
			return errorResultWith(map[string]any{
				"error":  "Upstream request failed",
				"status": upstream.Status,
				"body":   upstream.Body,
			})
		}
		return errorResult(err.Error())
	}

	if res.HasErrors && !res.HasData() {
		return errorResultWith(map[string]any{
			"error":         "GraphQL query failed",
			"errors":        res.Errors,
			"correlationId": res.CorrelationID(),
		})
	}

	out := dataOutput{Data: res.Data}
	if res.HasErrors {
		out.Warnings = res.Errors
	}
	return jsonResult(out)
}
