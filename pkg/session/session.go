// Package session holds the process-wide authentication and model state.
// It defines the Store interface so the top-level server owns a single
// injectable instance instead of module-level globals, and tests can
// substitute a fake.
package session

import "errors"

// ErrNoModelLoaded is returned when the model context is read before any
// model has been rendered. This is a normal, expected condition.
var ErrNoModelLoaded = errors.New("no model loaded")

// Tokens is the access/refresh token pair from a completed login.
// RefreshToken is captured but never used to refresh an expired access
// token; an expired session requires re-authentication from scratch.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// ModelContext identifies the currently selected model. All three fields
// are set together and overwritten wholesale; they are never a mix of two
// different renders.
type ModelContext struct {
	ElementGroupID   string `json:"elementGroupId"`
	ElementGroupName string `json:"elementGroupName"`
	FileVersionURN   string `json:"fileVersionUrn"`
}

// Store defines the session state holder. The process owns exactly one
// logical session; there is no persistence across restarts.
type Store interface {
	// SetTokens stores the token pair from a completed authentication.
	SetTokens(t Tokens)

	// AccessToken returns the current access token. ok is false when no
	// authentication has completed.
	AccessToken() (token string, ok bool)

	// SetVerifier records the PKCE verifier for an in-flight login attempt.
	// The value is consumed once during token exchange; a stale value after
	// completion is harmless.
	SetVerifier(v string)

	// Verifier returns the PKCE verifier of the in-flight login attempt.
	Verifier() string

	// SetModelContext replaces the selected model wholesale.
	SetModelContext(mc ModelContext)

	// ModelContext returns the selected model, or ErrNoModelLoaded when no
	// model has been rendered yet.
	ModelContext() (ModelContext, error)
}
