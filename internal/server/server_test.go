package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asertorio/mcp-aecdm/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvClientID, "test-client-id")

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	mcpServer, tk, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, mcpServer)
	require.NotNil(t, tk)
	assert.Len(t, tk.Tools(), 11)
}

func TestNew_MissingClientID(t *testing.T) {
	t.Setenv(config.EnvClientID, "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	_, _, err = New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id")
}

func TestNew_ServerVersionFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Version = ""

	mcpServer, _, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, mcpServer)
}
