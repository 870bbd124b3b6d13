package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/asertorio/mcp-aecdm/pkg/session"
)

// verifierLength is the number of characters in generated code verifiers.
// RFC 7636 allows 43-128.
const verifierLength = 64

// Flow orchestrates a complete PKCE login: generate the verifier and state,
// open the system browser to the authorize URL, wait for the loopback
// callback, exchange the code, and store the resulting token pair.
type Flow struct {
	// AuthorizeURL is the provider's authorization endpoint.
	AuthorizeURL string

	// ClientID is the public OAuth client id.
	ClientID string

	// CallbackPort is the fixed loopback port for the redirect target.
	CallbackPort int

	// Scopes are the OAuth scopes to request.
	Scopes []string

	// Exchanger performs the code-for-token exchange.
	Exchanger *Exchanger

	// Store receives the verifier at flow start and the tokens on success.
	Store session.Store

	// OpenBrowser launches the system browser. Defaults to OpenBrowser;
	// tests substitute a fake that drives the callback directly.
	OpenBrowser func(url string) error
}

// Run executes the full login flow. Any failure is terminal for this
// attempt and surfaced to the caller; nothing is retried.
func (f *Flow) Run(ctx context.Context) error {
	verifier, err := GenerateVerifier(verifierLength)
	if err != nil {
		return fmt.Errorf("generating verifier: %w", err)
	}
	f.Store.SetVerifier(verifier)

	state := uuid.NewString()

	callback, err := NewCallbackServer(f.CallbackPort)
	if err != nil {
		return err
	}
	defer func() { _ = callback.Close() }()

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", callback.Port())

	open := f.OpenBrowser
	if open == nil {
		open = OpenBrowser
	}
	authURL := f.authorizeURL(redirectURI, DeriveChallenge(verifier), state)
	if err := open(authURL); err != nil {
		return fmt.Errorf("opening browser: %w (URL: %s)", err, authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, CallbackTimeout)
	defer cancel()

	result, err := callback.Wait(waitCtx)
	if err != nil {
		return err
	}

	if result.Error != "" {
		return fmt.Errorf("authorization denied: %s - %s", result.Error, result.ErrorDescription)
	}
	if result.State != state {
		return fmt.Errorf("state mismatch in authorization callback")
	}
	if result.Code == "" {
		return fmt.Errorf("no authorization code in callback")
	}

	exchanger := *f.Exchanger
	exchanger.RedirectURI = redirectURI
	tokens, err := exchanger.Exchange(ctx, result.Code, f.Store.Verifier())
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	f.Store.SetTokens(session.Tokens{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
	return nil
}

// authorizeURL builds the provider authorization URL with PKCE parameters.
func (f *Flow) authorizeURL(redirectURI, challenge, state string) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {f.ClientID},
		"redirect_uri":          {redirectURI},
		"state":                 {state},
		"code_challenge":        {challenge},
		"code_challenge_method": {PKCEMethod},
	}
	if len(f.Scopes) > 0 {
		params.Set("scope", strings.Join(f.Scopes, " "))
	}
	return f.AuthorizeURL + "?" + params.Encode()
}
