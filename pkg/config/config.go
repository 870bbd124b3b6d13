// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// EnvClientID is the environment variable holding the public OAuth
	// client id. It overrides any value from the config file.
	EnvClientID = "APS_CLIENT_ID"

	defaultAuthorizeURL = "https://developer.api.autodesk.com/authentication/v2/authorize"
	defaultTokenURL     = "https://developer.api.autodesk.com/authentication/v2/token"
	defaultGraphQLURL   = "https://developer.api.autodesk.com/aec/graphql"

	defaultCallbackPort = 8765
	defaultViewerPort   = 8766
	defaultSocketPort   = 8767
)

// defaultScopes are the OAuth scopes requested during authentication.
// data:read covers AECDM GraphQL reads; viewables:read lets the embedded
// viewer stream model derivatives with the same token.
var defaultScopes = []string{"data:read", "viewables:read"}

// Config holds the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	OAuth  OAuthConfig  `yaml:"oauth"`
	API    APIConfig    `yaml:"api"`
	Viewer ViewerConfig `yaml:"viewer"`
}

// ServerConfig configures the MCP server identity.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// OAuthConfig configures the three-legged PKCE login flow.
type OAuthConfig struct {
	ClientID     string   `yaml:"client_id"`
	AuthorizeURL string   `yaml:"authorize_url"`
	TokenURL     string   `yaml:"token_url"`
	CallbackPort int      `yaml:"callback_port"`
	Scopes       []string `yaml:"scopes"`
}

// APIConfig configures the upstream AECDM GraphQL endpoint.
type APIConfig struct {
	GraphQLURL string `yaml:"graphql_url"`
}

// ViewerConfig configures the local viewer bridge ports.
type ViewerConfig struct {
	Port       int `yaml:"port"`
	SocketPort int `yaml:"socket_port"`
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path yields a config built from defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays environment values onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvClientID); v != "" {
		c.OAuth.ClientID = v
	}
}

// applyDefaults fills unset fields with default values.
func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "mcp-aecdm"
	}
	if c.OAuth.AuthorizeURL == "" {
		c.OAuth.AuthorizeURL = defaultAuthorizeURL
	}
	if c.OAuth.TokenURL == "" {
		c.OAuth.TokenURL = defaultTokenURL
	}
	if c.OAuth.CallbackPort == 0 {
		c.OAuth.CallbackPort = defaultCallbackPort
	}
	if len(c.OAuth.Scopes) == 0 {
		c.OAuth.Scopes = append([]string(nil), defaultScopes...)
	}
	if c.API.GraphQLURL == "" {
		c.API.GraphQLURL = defaultGraphQLURL
	}
	if c.Viewer.Port == 0 {
		c.Viewer.Port = defaultViewerPort
	}
	if c.Viewer.SocketPort == 0 {
		c.Viewer.SocketPort = defaultSocketPort
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth client id is required: set %s or oauth.client_id in the config file", EnvClientID)
	}
	return nil
}

// RedirectURI returns the loopback redirect target registered with the
// identity provider.
func (c *Config) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", c.OAuth.CallbackPort)
}
