// Package config loads and validates the thaitok sidecar configuration.
//
// Configuration sources in precedence order (lowest to highest):
//  1. Built-in defaults
//  2. YAML file (thaitok.yaml / thaitok.yml in the working directory, or an
//     explicit path)
//  3. Environment variables (THAI_TOKENIZER_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces all environment overrides.
const EnvPrefix = "THAI_TOKENIZER_"

// Config is the complete sidecar configuration.
type Config struct {
	Service      ServiceConfig      `yaml:"service" json:"service"`
	Tokenizer    TokenizerConfig    `yaml:"tokenizer" json:"tokenizer"`
	SearchEngine SearchEngineConfig `yaml:"search_engine" json:"search_engine"`
	Processing   ProcessingConfig   `yaml:"processing" json:"processing"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" json:"telemetry"`
	LogLevel     string             `yaml:"log_level" json:"log_level"`
}

// ServiceConfig configures the inbound HTTP API.
type ServiceConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// ReadTimeout / WriteTimeout guard slow clients.
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// TokenizerConfig configures segmentation.
type TokenizerConfig struct {
	// Engine is the default segmentation engine (newmm, attacut, deepcut).
	Engine string `yaml:"engine" json:"engine"`

	// BackendURL is the PyThaiNLP-style segmentation service endpoint.
	// Empty means no remote backend: the character-level fallback is used.
	BackendURL string `yaml:"backend_url" json:"backend_url"`

	// BackendTimeout bounds a single segmentation call.
	BackendTimeout time.Duration `yaml:"backend_timeout" json:"backend_timeout"`

	// DictionaryPath is an optional newline-delimited custom dictionary.
	// The file is watched and hot-reloaded on change.
	DictionaryPath string `yaml:"dictionary_path" json:"dictionary_path"`

	// WakamePreset guarantees the Thai-transliterated food-term list is
	// always present in the custom dictionary.
	WakamePreset bool `yaml:"wakame_preset" json:"wakame_preset"`

	// HandleCompounds enables the compound-aware second pass.
	HandleCompounds bool `yaml:"handle_compounds" json:"handle_compounds"`

	// CacheSize is the LRU size for segmentation results.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SearchEngineConfig configures the outbound search-engine client.
type SearchEngineConfig struct {
	Host    string        `yaml:"host" json:"host"`
	Port    int           `yaml:"port" json:"port"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	SSL     bool          `yaml:"ssl" json:"ssl"`
	Index   string        `yaml:"index" json:"index"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// PrimaryKey is the document attribute used as the engine primary key.
	PrimaryKey string `yaml:"primary_key" json:"primary_key"`
}

// ProcessingConfig configures the document pipeline.
type ProcessingConfig struct {
	// BatchSize is how many documents a single bulk-add call carries.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// MaxConcurrent limits parallel per-document processing.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// SearchableFields are the document fields scanned for Thai content.
	SearchableFields []string `yaml:"searchable_fields" json:"searchable_fields"`

	// MaxRetries bounds bulk-add retries per chunk.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// TelemetryConfig configures the local metrics store.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DBPath  string `yaml:"db_path" json:"db_path"`
}

// BaseURL returns the search-engine base URL.
func (s SearchEngineConfig) BaseURL() string {
	scheme := "http"
	if s.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Host:         "0.0.0.0",
			Port:         8008,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Tokenizer: TokenizerConfig{
			Engine:          "newmm",
			BackendTimeout:  10 * time.Second,
			WakamePreset:    true,
			HandleCompounds: true,
			CacheSize:       4096,
		},
		SearchEngine: SearchEngineConfig{
			Host:       "localhost",
			Port:       7700,
			Index:      "documents",
			Timeout:    30 * time.Second,
			PrimaryKey: "id",
		},
		Processing: ProcessingConfig{
			BatchSize:        100,
			MaxConcurrent:    10,
			SearchableFields: []string{"title", "content"},
			MaxRetries:       3,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			DBPath:  defaultTelemetryPath(),
		},
		LogLevel: "info",
	}
}

func defaultTelemetryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".thaitok", "telemetry.db")
	}
	return filepath.Join(home, ".thaitok", "telemetry.db")
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides. path may be empty, in which case thaitok.yaml /
// thaitok.yml in dir is tried.
func Load(dir, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir looks for thaitok.yaml or thaitok.yml in dir.
// A missing file is fine: defaults apply.
func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{"thaitok.yaml", "thaitok.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return c.loadYAML(p)
		}
	}
	return nil
}

// loadYAML merges a YAML file over the current configuration.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies THAI_TOKENIZER_* environment variables.
// Env vars have the highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := envStr("SERVICE_HOST"); v != "" {
		c.Service.Host = v
	}
	if v, ok := envInt("SERVICE_PORT"); ok {
		c.Service.Port = v
	}
	if v := envStr("ENGINE"); v != "" {
		c.Tokenizer.Engine = v
	}
	if v := envStr("BACKEND_URL"); v != "" {
		c.Tokenizer.BackendURL = v
	}
	if v := envStr("DICTIONARY_PATH"); v != "" {
		c.Tokenizer.DictionaryPath = v
	}
	if v, ok := envBool("HANDLE_COMPOUNDS"); ok {
		c.Tokenizer.HandleCompounds = v
	}
	if v := envStr("MEILISEARCH_HOST"); v != "" {
		c.SearchEngine.Host = v
	}
	if v, ok := envInt("MEILISEARCH_PORT"); ok {
		c.SearchEngine.Port = v
	}
	if v := envStr("MEILISEARCH_API_KEY"); v != "" {
		c.SearchEngine.APIKey = v
	}
	if v, ok := envBool("MEILISEARCH_SSL"); ok {
		c.SearchEngine.SSL = v
	}
	if v := envStr("MEILISEARCH_INDEX"); v != "" {
		c.SearchEngine.Index = v
	}
	if v, ok := envInt("BATCH_SIZE"); ok {
		c.Processing.BatchSize = v
	}
	if v, ok := envInt("MAX_CONCURRENT"); ok {
		c.Processing.MaxConcurrent = v
	}
	if v, ok := envInt("WORKER_COUNT"); ok {
		// Alias kept for compatibility with the deployment templates.
		c.Processing.MaxConcurrent = v
	}
	if v := envStr("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v, ok := envBool("TELEMETRY_ENABLED"); ok {
		c.Telemetry.Enabled = v
	}
}

func envStr(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func envInt(key string) (int, bool) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// validEngines are the selectable segmentation backends.
var validEngines = map[string]bool{"newmm": true, "attacut": true, "deepcut": true}

// Validate checks the final configuration. Errors here are fatal at startup.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("service.port must be in 1..65535, got %d", c.Service.Port)
	}
	if !validEngines[strings.ToLower(c.Tokenizer.Engine)] {
		return fmt.Errorf("tokenizer.engine must be 'newmm', 'attacut', or 'deepcut', got %s", c.Tokenizer.Engine)
	}
	if c.SearchEngine.Host == "" {
		return fmt.Errorf("search_engine.host must not be empty")
	}
	if c.SearchEngine.Port <= 0 || c.SearchEngine.Port > 65535 {
		return fmt.Errorf("search_engine.port must be in 1..65535, got %d", c.SearchEngine.Port)
	}
	if c.SearchEngine.Index == "" {
		return fmt.Errorf("search_engine.index must not be empty")
	}
	if c.Processing.BatchSize <= 0 {
		return fmt.Errorf("processing.batch_size must be positive, got %d", c.Processing.BatchSize)
	}
	if c.Processing.MaxConcurrent <= 0 {
		return fmt.Errorf("processing.max_concurrent must be positive, got %d", c.Processing.MaxConcurrent)
	}
	if len(c.Processing.SearchableFields) == 0 {
		return fmt.Errorf("processing.searchable_fields must not be empty")
	}
	if c.Processing.MaxRetries < 0 {
		return fmt.Errorf("processing.max_retries must be non-negative, got %d", c.Processing.MaxRetries)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
