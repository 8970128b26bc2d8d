package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Server.MaxMessageChars)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gateway.GeminiModel)
	assert.Equal(t, 100, cfg.Grounding.MinSubstantialChars)
	assert.Equal(t, "Premier League Agent", cfg.Routing.DefaultAgent)
	assert.Contains(t, cfg.Routing.ReturnToTriage, "triage")
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touchline.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9090"
max_message_chars = 500

[grounding]
min_substantial_chars = 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Server.MaxMessageChars)
	assert.Equal(t, 50, cfg.Grounding.MinSubstantialChars)
	// Untouched sections keep their defaults.
	assert.Equal(t, "touchline.db", cfg.Store.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "gen-key")
	t.Setenv("GOOGLE_CUSTOM_SEARCH_API_KEY", "search-key")
	t.Setenv("GOOGLE_CUSTOM_SEARCH_ENGINE_ID", "cx-id")
	t.Setenv("TOUCHLINE_ADDR", ":7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gen-key", cfg.Gateway.GoogleAPIKey)
	assert.Equal(t, "search-key", cfg.Gateway.SearchAPIKey)
	assert.Equal(t, "cx-id", cfg.Gateway.SearchEngineID)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsAllMissingCredentials(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.Contains(t, err.Error(), "GOOGLE_CUSTOM_SEARCH_API_KEY")
	assert.Contains(t, err.Error(), "GOOGLE_CUSTOM_SEARCH_ENGINE_ID")
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Second, cfg.Gateway.RequestTimeout())
	assert.Equal(t, time.Second, cfg.Gateway.BackoffBase())
	assert.Equal(t, 5*time.Minute, cfg.Gateway.CacheTTL())
	assert.Equal(t, 24*time.Hour, cfg.Store.MaxAge())
	assert.Equal(t, time.Hour, cfg.Store.ReapInterval())
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval())
}

func TestSaveOmitsCredentials(t *testing.T) {
	cfg := Default()
	cfg.Gateway.GoogleAPIKey = "secret"

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
