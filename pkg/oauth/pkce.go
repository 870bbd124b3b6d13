// Package oauth implements the three-legged OAuth 2.0 PKCE login flow
// against the Autodesk identity provider: verifier/challenge generation, a
// short-lived loopback callback server, and the authorization-code token
// exchange.
package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCEMethod is the code challenge method sent to the authorize endpoint.
// Only S256 is supported.
const PKCEMethod = "S256"

// verifierAlphabet is the 64-character unreserved alphabet used for code
// verifiers (RFC 7636 §4.1 subset).
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// GenerateVerifier produces a code verifier of exactly n characters drawn
// uniformly from the 64-character alphabet using crypto/rand.
func GenerateVerifier(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("verifier length must be at least 1, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	// 64 alphabet characters divide 256 evenly, so masking the low six
	// bits keeps the distribution uniform.
	for i, b := range buf {
		buf[i] = verifierAlphabet[b&0x3f]
	}
	return string(buf), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// BASE64URL(SHA-256(verifier)) without padding (RFC 7636 §4.2).
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
