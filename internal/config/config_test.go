package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAbsentFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Services.Planner.BaseURL)
	assert.Equal(t, 300, cfg.Provision.SettleDelayMs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Finder.FallbackDomains)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnerator.yaml")
	content := `
browser:
  headless: true
  navigation_timeout_ms: 5000
provision:
  settle_delay_ms: 50
services:
  planner:
    base_url: http://plans.internal:9000
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 5000, cfg.Browser.NavigationTimeoutMs)
	assert.Equal(t, 50, cfg.Provision.SettleDelayMs)
	assert.Equal(t, "http://plans.internal:9000", cfg.Services.Planner.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "http://localhost:8000/api", cfg.Services.Backend.BaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser: [not, a, map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "genai-key")
	t.Setenv("GOOGLE_API_KEY", "search-key")
	t.Setenv("GOOGLE_CSE_ID", "cse-id")
	t.Setenv("LEARNERATOR_DB", "/tmp/override.db")
	t.Setenv("PLANNER_URL", "http://planner.override")
	t.Setenv("BACKEND_URL", "http://backend.override")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "genai-key", cfg.Finder.GenAIAPIKey)
	assert.Equal(t, "search-key", cfg.Finder.GoogleAPIKey)
	assert.Equal(t, "cse-id", cfg.Finder.CSEID)
	assert.Equal(t, "/tmp/override.db", cfg.Ledger.DatabasePath)
	assert.Equal(t, "http://planner.override", cfg.Services.Planner.BaseURL)
	assert.Equal(t, "http://backend.override", cfg.Services.Backend.BaseURL)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "learnerator.yaml")

	cfg := DefaultConfig()
	cfg.Browser.Headless = true
	cfg.Finder.CSEID = "saved-cx"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Browser.Headless)
	assert.Equal(t, "saved-cx", loaded.Finder.CSEID)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "loud"
	require.Error(t, cfg.Validate())

	// Negative disables the fixed settle delay and must pass validation.
	cfg = DefaultConfig()
	cfg.Provision.SettleDelayMs = -1
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Ledger.DatabasePath = ""
	require.Error(t, cfg.Validate())
}
