// Package config holds all learnerator configuration: one YAML file with a
// section per subsystem, defaults for everything, and environment overrides
// for the credentials and endpoints that should not live in a checked-in
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jasonlam510/Learnerator/internal/backend"
	"github.com/jasonlam510/Learnerator/internal/browser"
	"github.com/jasonlam510/Learnerator/internal/finder"
	"github.com/jasonlam510/Learnerator/internal/planner"
	"github.com/jasonlam510/Learnerator/internal/provision"
)

// Config holds all learnerator configuration.
type Config struct {
	// Browser substrate (Chrome connection, viewport, group registry).
	Browser browser.Config `yaml:"browser"`

	// Provisioner settle/readiness tuning.
	Provision provision.Config `yaml:"provision"`

	// Collaborating services.
	Services ServicesConfig `yaml:"services"`

	// Resource discovery.
	Finder finder.Config `yaml:"finder"`

	// Provision ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// Logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ServicesConfig configures the external service clients.
type ServicesConfig struct {
	Planner planner.Config `yaml:"planner"`
	Backend backend.Config `yaml:"backend"`
}

// LedgerConfig configures the provision ledger.
type LedgerConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Browser:   browser.DefaultConfig(),
		Provision: provision.DefaultConfig(),
		Services: ServicesConfig{
			Planner: planner.Config{
				BaseURL: "http://localhost:8000",
				Timeout: "120s",
			},
			Backend: backend.Config{
				BaseURL: "http://localhost:8000/api",
				Timeout: "30s",
			},
		},
		Finder: finder.DefaultConfig(),
		Ledger: LedgerConfig{
			DatabasePath: filepath.Join(".learnerator", "ledger.db"),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file. An absent file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Finder.GenAIAPIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Finder.GoogleAPIKey = key
	}
	if id := os.Getenv("GOOGLE_CSE_ID"); id != "" {
		c.Finder.CSEID = id
	}
	if path := os.Getenv("LEARNERATOR_DB"); path != "" {
		c.Ledger.DatabasePath = path
	}
	if url := os.Getenv("PLANNER_URL"); url != "" {
		c.Services.Planner.BaseURL = url
	}
	if url := os.Getenv("BACKEND_URL"); url != "" {
		c.Services.Backend.BaseURL = url
	}
}

// Validate checks settings that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	if c.Ledger.DatabasePath == "" {
		return fmt.Errorf("ledger.database_path is required")
	}
	return nil
}
