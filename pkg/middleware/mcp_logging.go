// Package middleware provides MCP protocol-level middleware for the server.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// MCPToolLoggingMiddleware creates protocol-level middleware that logs each
// tools/call with its duration to the given logger. Logs go to stderr;
// stdout belongs to the stdio transport.
func MCPToolLoggingMiddleware(log *slog.Logger) mcp.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName := extractToolName(req)
			start := time.Now()

			result, err := next(ctx, method, req)

			attrs := []any{
				"tool", toolName,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				log.Error("tool call failed", append(attrs, "error", err)...)
			case isErrorResult(result):
				log.Warn("tool call returned error payload", attrs...)
			default:
				log.Info("tool call", attrs...)
			}

			return result, err
		}
	}
}

// extractToolName pulls the tool name from a tools/call request.
func extractToolName(req mcp.Request) string {
	if req == nil {
		return "unknown"
	}
	params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || params == nil {
		return "unknown"
	}
	return params.Name
}

// isErrorResult reports whether a tools/call result carries IsError.
func isErrorResult(result mcp.Result) bool {
	ctr, ok := result.(*mcp.CallToolResult)
	return ok && ctr != nil && ctr.IsError
}
