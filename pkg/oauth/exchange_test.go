package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchanger_Success(t *testing.T) {
	var gotForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"code":          r.PostFormValue("code"),
			"client_id":     r.PostFormValue("client_id"),
			"redirect_uri":  r.PostFormValue("redirect_uri"),
			"code_verifier": r.PostFormValue("code_verifier"),
			"scope":         r.PostFormValue("scope"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	e := &Exchanger{
		TokenURL:    server.URL,
		ClientID:    "client-1",
		RedirectURI: "http://localhost:8765/callback",
		Scopes:      []string{"data:read", "viewables:read"},
	}

	tokens, err := e.Exchange(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", tokens.AccessToken)
	assert.Equal(t, "rt-1", tokens.RefreshToken)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "code-1", gotForm["code"])
	assert.Equal(t, "client-1", gotForm["client_id"])
	assert.Equal(t, "http://localhost:8765/callback", gotForm["redirect_uri"])
	assert.Equal(t, "verifier-1", gotForm["code_verifier"])
	assert.Equal(t, "data:read viewables:read", gotForm["scope"])
}

func TestExchanger_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	e := &Exchanger{TokenURL: server.URL, ClientID: "client-1"}

	_, err := e.Exchange(context.Background(), "bad-code", "verifier-1")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.Status)
	assert.Contains(t, exchangeErr.Body, "invalid_grant")
}

func TestExchanger_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	e := &Exchanger{TokenURL: server.URL, ClientID: "client-1"}

	_, err := e.Exchange(context.Background(), "code-1", "verifier-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token")
}

func TestExchanger_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	e := &Exchanger{TokenURL: server.URL, ClientID: "client-1"}

	_, err := e.Exchange(context.Background(), "code-1", "verifier-1")
	assert.Error(t, err)
}
