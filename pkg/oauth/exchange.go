package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const exchangeTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response body is retained for
// diagnostics.
const maxErrorBody = 1 << 20

// TokenResponse is the token endpoint's reply to a successful exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ExchangeError reports a non-success HTTP status from the token endpoint.
// The raw response body is preserved verbatim for diagnostics.
type ExchangeError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned HTTP %d: %s", e.Status, e.Body)
}

// Exchanger swaps an authorization code for a token pair with a single
// form-encoded POST. A failure is terminal for that authentication attempt;
// there is no retry.
type Exchanger struct {
	// TokenURL is the provider's token endpoint.
	TokenURL string

	// ClientID is the public OAuth client id.
	ClientID string

	// RedirectURI must match the redirect target of the authorize request.
	RedirectURI string

	// Scopes are the scopes requested during authorization.
	Scopes []string

	// HTTPClient is used for the request. A default client with a 30s
	// timeout is used when nil.
	HTTPClient *http.Client
}

// Exchange performs the authorization_code grant with the PKCE verifier.
func (e *Exchanger) Exchange(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {e.ClientID},
		"redirect_uri":  {e.RedirectURI},
		"code_verifier": {verifier},
	}
	if len(e.Scopes) > 0 {
		params.Set("scope", strings.Join(e.Scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.TokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := e.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: exchangeTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &tokens, nil
}
