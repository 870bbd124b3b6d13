package toolkit

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/asertorio/mcp-aecdm/pkg/aecdm"
)

// executeQueryInput is an arbitrary caller-supplied GraphQL request. This
// is the most permissive tool: the query goes to the service unvalidated,
// and the assistant is expected to run its own error-correction loop
// against the schema documentation.
type executeQueryInput struct {
	Query     string         `json:"query" jsonschema:"The GraphQL query or mutation text"`
	Variables map[string]any `json:"variables,omitempty" jsonschema:"GraphQL variables for the query"`
	Region    string         `json:"region,omitempty" jsonschema:"Optional region header value (for example US or EMEA)"`
}

// registerQueryTool registers execute_query.
func (t *Toolkit) registerQueryTool(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "execute_query",
		Description: "Execute an arbitrary GraphQL query against the AEC Data Model API. Returns " +
			"data and errors exactly as the service reports them; a partial response carries both.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in executeQueryInput) (*mcp.CallToolResult, any, error) {
		return t.handleExecuteQuery(ctx, req, in)
	})
}

// handleExecuteQuery forwards the query and returns the normalized result
// verbatim, preserving the GraphQL partial-response contract.
func (t *Toolkit) handleExecuteQuery(ctx context.Context, _ *mcp.CallToolRequest, in executeQueryInput) (*mcp.CallToolResult, any, error) {
	if in.Query == "" {
		return errorResult("query is required."), nil, nil
	}

	res, err := t.client.Query(ctx, in.Query, in.Variables, in.Region)
	if err != nil {
		if errors.Is(err, aecdm.ErrNotAuthenticated) {
			return errorResult("Not authenticated"), nil, nil
		}
		var upstream *aecdm.UpstreamError
		if errors.As(err, &upstream) {
			return errorResultWith(map[string]any{
				"error":  "Upstream request failed",
				"status": upstream.Status,
				"body":   upstream.Body,
			}), nil, nil
		}
		return errorResult(err.Error()), nil, nil
	}

	return jsonResult(res), nil, nil
}
