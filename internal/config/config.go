package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes the text-understanding service used to turn scraped
// website text into calendar-formatted text.
type LLMConfig struct {
	// Endpoint is the base URL of an Ollama-compatible chat API,
	// e.g. "http://127.0.0.1:11434".
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Model is the model name passed to the chat endpoint.
	Model string `yaml:"model" json:"model"`
	// KeyEnv names an environment variable holding an optional bearer
	// token for hosted endpoints. Empty means no auth header is sent.
	KeyEnv string `yaml:"key_env" json:"key_env"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the swipe API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// StorageDir is where materialized calendar documents are written.
	StorageDir string `yaml:"storage_dir" json:"storage_dir"`

	// DatabasePath is the SQLite database holding runs, manifests and
	// accepted-event snapshots.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// UserID identifies the acting user for accepted-event persistence.
	UserID string `yaml:"user_id" json:"user_id"`

	// Links is the seed link set used when the CLI supplies none.
	// Position 0 is the file-download link; positions 1..5 are website
	// links. Empty strings are valid "absent" placeholders.
	Links []string `yaml:"links" json:"links"`

	// RefreshCron is a cron-style schedule string used by watch mode
	// (e.g. "*/30 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// FetchTimeoutSec bounds each network fetch.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec" json:"fetch_timeout_sec"`

	// FetchMode selects the website fetch strategy: "http" (plain GET)
	// or "browser" (headless Chromium, for script-heavy pages).
	FetchMode string `yaml:"fetch_mode" json:"fetch_mode"`

	// MaxContentChars truncates scraped website text before it is handed
	// to the text-understanding service.
	MaxContentChars int `yaml:"max_content_chars" json:"max_content_chars"`

	// LLM configures the text-understanding service.
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Listen is the HTTP listen address for the swipe API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// swipe API endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageDir:      "./var/calendars",
		DatabasePath:    "./var/linkcal.db",
		UserID:          "default",
		Links:           []string{},
		RefreshCron:     "*/30 * * * *",
		FetchTimeoutSec: 15,
		FetchMode:       "http",
		MaxContentChars: 12000,
		LLM: LLMConfig{
			Endpoint: "http://127.0.0.1:11434",
			Model:    "gemma2:2b",
		},
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.StorageDir == "" {
		c.StorageDir = def.StorageDir
	}
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.UserID == "" {
		c.UserID = def.UserID
	}
	if c.Links == nil {
		c.Links = []string{}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.FetchTimeoutSec <= 0 {
		c.FetchTimeoutSec = def.FetchTimeoutSec
	}
	switch c.FetchMode {
	case "http", "browser":
		// ok
	default:
		// Unknown value; fall back to plain HTTP fetches.
		c.FetchMode = "http"
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = def.MaxContentChars
	}
	if c.LLM.Endpoint == "" {
		c.LLM.Endpoint = def.LLM.Endpoint
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Read loads configuration from the given YAML path like Load, but never
// touches the filesystem beyond the read itself: a missing file yields the
// in-memory defaults without creating anything. Intended for flows that
// must be free of side effects.
func Read(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".linkcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
