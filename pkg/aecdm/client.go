// Package aecdm provides a thin proxy client for the Autodesk AEC Data
// Model GraphQL API. It forwards queries with the current access token and
// normalizes partial-success responses (data and errors both present)
// instead of treating them as failures.
package aecdm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an upstream error body is retained.
const maxErrorBody = 1 << 20

// ErrNotAuthenticated is returned when a query is attempted with no access
// token present. No network call is made in that case.
var ErrNotAuthenticated = errors.New("not authenticated")

// UpstreamError reports a non-success HTTP status from the GraphQL
// endpoint. The raw body is preserved verbatim; the caller is expected to
// inspect it and adapt the query rather than rely on any retry.
type UpstreamError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("graphql endpoint returned HTTP %d: %s", e.Status, e.Body)
}

// GraphQLError is one entry of a GraphQL response's errors array.
type GraphQLError struct {
	Message       string `json:"message"`
	ErrorCode     string `json:"errorCode,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Path          []any  `json:"path,omitempty"`
}

// Result is a normalized GraphQL response. A success HTTP status may still
// carry errors alongside partial or full data; HasErrors distinguishes the
// two outcomes for callers: errors-with-data is recoverable, errors without
// data is fatal for that query.
type Result struct {
	Data      json.RawMessage `json:"data,omitempty"`
	Errors    []GraphQLError  `json:"errors,omitempty"`
	HasErrors bool            `json:"hasErrors"`
}

// HasData reports whether the response carried a usable data value.
func (r *Result) HasData() bool {
	return len(r.Data) > 0
}

// CorrelationID returns the first correlation id found in the error list,
// for support escalation.
func (r *Result) CorrelationID() string {
	for _, e := range r.Errors {
		if e.CorrelationID != "" {
			return e.CorrelationID
		}
	}
	return ""
}

// TokenSource supplies the current access token. The session store
// implements it.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Client forwards GraphQL queries to the AECDM endpoint.
type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a proxy client for the given endpoint.
func NewClient(endpoint string, tokens TokenSource) *Client {
	return &Client{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// wireError is the raw shape of one GraphQL error as sent by the service.
// Machine codes and correlation ids arrive inside extensions.
type wireError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path"`
	Extensions struct {
		ErrorCode     string `json:"errorCode"`
		CorrelationID string `json:"correlationId"`
	} `json:"extensions"`
}

// Query posts {query, variables} with a bearer authorization header and an
// optional region header. It fails before any network call when no access
// token is present.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, region string) (*Result, error) {
	token, ok := c.tokens.AccessToken()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if region != "" {
		req.Header.Set("Region", region)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var wire struct {
		Data   json.RawMessage `json:"data"`
		Errors []wireError     `json:"errors"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if string(wire.Data) == "null" {
		wire.Data = nil
	}

	result := &Result{Data: wire.Data, HasErrors: len(wire.Errors) > 0}
	for _, we := range wire.Errors {
		result.Errors = append(result.Errors, GraphQLError{
			Message:       we.Message,
			ErrorCode:     we.Extensions.ErrorCode,
			CorrelationID: we.Extensions.CorrelationID,
			Path:          we.Path,
		})
	}
	return result, nil
}
