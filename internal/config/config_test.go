package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "newmm", cfg.Tokenizer.Engine)
	assert.Equal(t, 100, cfg.Processing.BatchSize)
	assert.Equal(t, 10, cfg.Processing.MaxConcurrent)
	assert.Equal(t, []string{"title", "content"}, cfg.Processing.SearchableFields)
	assert.Equal(t, 30*time.Second, cfg.SearchEngine.Timeout)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().Service.Port, cfg.Service.Port)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
service:
  port: 9090
tokenizer:
  engine: attacut
  handle_compounds: false
search_engine:
  host: search.internal
  api_key: secret
processing:
  batch_size: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thaitok.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, "attacut", cfg.Tokenizer.Engine)
	assert.False(t, cfg.Tokenizer.HandleCompounds)
	assert.Equal(t, "search.internal", cfg.SearchEngine.Host)
	assert.Equal(t, "secret", cfg.SearchEngine.APIKey)
	assert.Equal(t, 25, cfg.Processing.BatchSize)

	// Untouched fields keep defaults.
	assert.Equal(t, 10, cfg.Processing.MaxConcurrent)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	dir := t.TempDir()
	yaml := "service:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thaitok.yaml"), []byte(yaml), 0o644))

	t.Setenv(EnvPrefix+"SERVICE_PORT", "7007")
	t.Setenv(EnvPrefix+"MEILISEARCH_HOST", "env-host")
	t.Setenv(EnvPrefix+"MEILISEARCH_API_KEY", "env-key")
	t.Setenv(EnvPrefix+"ENGINE", "deepcut")
	t.Setenv(EnvPrefix+"MAX_CONCURRENT", "4")

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 7007, cfg.Service.Port)
	assert.Equal(t, "env-host", cfg.SearchEngine.Host)
	assert.Equal(t, "env-key", cfg.SearchEngine.APIKey)
	assert.Equal(t, "deepcut", cfg.Tokenizer.Engine)
	assert.Equal(t, 4, cfg.Processing.MaxConcurrent)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thaitok.yaml"), []byte("service: [not a map"), 0o644))

	_, err := Load(dir, "")
	assert.Error(t, err)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Service.Port = -1 }, "service.port"},
		{"unknown engine", func(c *Config) { c.Tokenizer.Engine = "icu" }, "tokenizer.engine"},
		{"empty host", func(c *Config) { c.SearchEngine.Host = "" }, "search_engine.host"},
		{"empty index", func(c *Config) { c.SearchEngine.Index = "" }, "search_engine.index"},
		{"zero batch", func(c *Config) { c.Processing.BatchSize = 0 }, "batch_size"},
		{"zero workers", func(c *Config) { c.Processing.MaxConcurrent = 0 }, "max_concurrent"},
		{"no fields", func(c *Config) { c.Processing.SearchableFields = nil }, "searchable_fields"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBaseURL(t *testing.T) {
	s := SearchEngineConfig{Host: "localhost", Port: 7700}
	assert.Equal(t, "http://localhost:7700", s.BaseURL())

	s.SSL = true
	assert.Equal(t, "https://localhost:7700", s.BaseURL())
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := Default()
	cfg.Service.Port = 1234
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(dir, path)
	require.NoError(t, err)
	assert.Equal(t, 1234, loaded.Service.Port)
	assert.Equal(t, cfg.Tokenizer.Engine, loaded.Tokenizer.Engine)
}
