package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  port: 8080
credentials:
  serper_key: "test-key"
search:
  default_engine: serper_google
  results_per_query: 10
  sleep_seconds: 0.5
browser:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.GetPort())
	assert.Equal(t, "test-key", cfg.Credentials.SerperAPIKey)
	assert.Equal(t, "serper_google", cfg.Search.DefaultEngine)
	assert.Equal(t, 10, cfg.Search.ResultsPerQuery)
	assert.False(t, cfg.Browser.Enabled)

	// 未设置的字段落回默认值
	assert.Equal(t, "0.0.0.0", cfg.GetHost())
	assert.Equal(t, "dorks_catalog.json", cfg.Dorks.CatalogPath)
	assert.NotEmpty(t, cfg.Search.TargetSites)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateFixesInvalidValues(t *testing.T) {
	cfg := *DefaultConfig
	cfg.Server.Port = -1
	cfg.Search.ResultsPerQuery = 0
	cfg.Search.SleepSeconds = -2
	cfg.Search.TargetSites = []string{" github.com ", "", "gitlab.com"}

	cfg.validate()

	assert.Equal(t, DefaultConfig.Server.Port, cfg.Server.Port)
	assert.Equal(t, DefaultConfig.Search.ResultsPerQuery, cfg.Search.ResultsPerQuery)
	assert.Equal(t, DefaultConfig.Search.SleepSeconds, cfg.Search.SleepSeconds)
	assert.Equal(t, []string{"github.com", "gitlab.com"}, cfg.Search.TargetSites)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("API_KEY_GOOGLE", "g-key")
	t.Setenv("SEARCH_ENGINE_ID", "g-cx")
	t.Setenv("SERP_API_KEY", "serp-key")
	t.Setenv("SERPER_API_KEY", "serper-key")

	cfg := *DefaultConfig
	cfg.applyEnv()

	assert.Equal(t, "g-key", cfg.Credentials.GoogleAPIKey)
	assert.Equal(t, "g-cx", cfg.Credentials.GoogleEngineID)
	assert.Equal(t, "serp-key", cfg.Credentials.SerpAPIKey)
	assert.Equal(t, "serper-key", cfg.Credentials.SerperAPIKey)
	assert.True(t, cfg.HasGoogleCredentials())
}

func TestHasGoogleCredentials(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.HasGoogleCredentials())

	cfg.Credentials.GoogleAPIKey = "key"
	assert.False(t, cfg.HasGoogleCredentials())

	cfg.Credentials.GoogleEngineID = "cx"
	assert.True(t, cfg.HasGoogleCredentials())
}
