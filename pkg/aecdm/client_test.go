package aecdm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource with a fixed token.
type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken() (string, bool) {
	return s.token, s.token != ""
}

// countingTransport counts round trips to prove no network call happened.
type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, assert.AnError
}

func TestClient_NotAuthenticated(t *testing.T) {
	transport := &countingTransport{}
	client := NewClient("http://unused.example", staticTokens{})
	client.SetHTTPClient(&http.Client{Transport: transport})

	_, err := client.Query(context.Background(), "query { hubs }", nil, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, transport.calls)
}

func TestClient_Headers(t *testing.T) {
	var gotAuth, gotRegion string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRegion = r.Header.Get("Region")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"data":{"hubs":{"results":[]}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})

	res, err := client.Query(context.Background(), "query GetHubs { hubs { results { id } } }", map[string]any{"x": 1}, "EMEA")
	require.NoError(t, err)
	assert.True(t, res.HasData())
	assert.False(t, res.HasErrors)

	assert.Equal(t, "Bearer at-1", gotAuth)
	assert.Equal(t, "EMEA", gotRegion)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Contains(t, payload["query"], "GetHubs")
	assert.Equal(t, map[string]any{"x": float64(1)}, payload["variables"])
}

func TestClient_NoRegionHeaderWhenEmpty(t *testing.T) {
	var hasRegion bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasRegion = r.Header["Region"]
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})

	_, err := client.Query(context.Background(), "query { hubs }", nil, "")
	require.NoError(t, err)
	assert.False(t, hasRegion)
}

func TestClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})

	_, err := client.Query(context.Background(), "query { hubs }", nil, "")
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, "upstream exploded", upstream.Body)
}

func TestClient_PartialResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {"hubs": {"results": [{"id": "h-1"}]}},
			"errors": [{
				"message": "hub h-2 unavailable",
				"path": ["hubs", "results", 1],
				"extensions": {"errorCode": "HUB_UNAVAILABLE", "correlationId": "corr-42"}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})

	res, err := client.Query(context.Background(), "query { hubs }", nil, "")
	require.NoError(t, err)

	assert.True(t, res.HasErrors)
	assert.True(t, res.HasData())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "hub h-2 unavailable", res.Errors[0].Message)
	assert.Equal(t, "HUB_UNAVAILABLE", res.Errors[0].ErrorCode)
	assert.Equal(t, "corr-42", res.Errors[0].CorrelationID)
	assert.Equal(t, "corr-42", res.CorrelationID())
}

func TestClient_ErrorsWithoutData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "forbidden"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})

	res, err := client.Query(context.Background(), "query { hubs }", nil, "")
	require.NoError(t, err)

	assert.True(t, res.HasErrors)
	assert.False(t, res.HasData())
	assert.Empty(t, res.CorrelationID())
}

func TestClient_FixedQueries(t *testing.T) {
	type captured struct {
		query     string
		variables map[string]any
	}
	var got captured

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got = captured{query: payload.Query, variables: payload.Variables}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "at-1"})
	ctx := context.Background()

	_, err := client.Hubs(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, got.query, "GetHubs")

	_, err = client.Projects(ctx, "hub-1", "")
	require.NoError(t, err)
	assert.Contains(t, got.query, "GetProjects")
	assert.Equal(t, "hub-1", got.variables["hubId"])

	_, err = client.ElementGroups(ctx, "proj-1", "")
	require.NoError(t, err)
	assert.Contains(t, got.query, "GetElementGroups")
	assert.Equal(t, "proj-1", got.variables["projectId"])

	_, err = client.ElementsByCategory(ctx, "eg-1", "Walls", "")
	require.NoError(t, err)
	assert.Contains(t, got.query, "GetElementsByCategory")
	assert.Equal(t, "eg-1", got.variables["elementGroupId"])
	assert.Equal(t, "property.name.category==Walls", got.variables["propertyFilter"])
}
