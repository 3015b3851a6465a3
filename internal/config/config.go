// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the engine configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Policies     string `json:"policies,omitempty"`      // Path to the YAML policy catalog
	DocumentsDir string `json:"documents_dir,omitempty"` // Base directory for file-based document ids

	// Services
	GrammarURL  string `json:"grammar_url,omitempty"`  // LanguageTool-compatible service base URL
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for report storage
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key for semantic confirmation

	// Behavior
	DeadlineSeconds  int      `json:"deadline_seconds,omitempty"` // Overall per-run deadline
	DisabledAuditors []string `json:"disabled_auditors,omitempty"`
	Verbose          bool     `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.DeadlineSeconds < 0 {
		return fmt.Errorf("config error: 'deadline_seconds' must be non-negative")
	}

	// Validate file paths exist (if specified)
	if c.Policies != "" {
		if _, err := os.Stat(c.Policies); os.IsNotExist(err) {
			return fmt.Errorf("config error: policy catalog not found: %s", c.Policies)
		}
	}
	if c.DocumentsDir != "" {
		if _, err := os.Stat(c.DocumentsDir); os.IsNotExist(err) {
			return fmt.Errorf("config error: documents directory not found: %s", c.DocumentsDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Policies == "" {
		result.Policies = defaults.Policies
	}
	if result.DocumentsDir == "" {
		result.DocumentsDir = defaults.DocumentsDir
	}
	if result.GrammarURL == "" {
		result.GrammarURL = defaults.GrammarURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	// Int fields: use default if zero
	if result.DeadlineSeconds == 0 {
		result.DeadlineSeconds = defaults.DeadlineSeconds
	}

	if len(result.DisabledAuditors) == 0 {
		result.DisabledAuditors = defaults.DisabledAuditors
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// AuditorOverrides converts the disabled list to the override map the
// coordinator consumes.
func (c *Config) AuditorOverrides() map[string]bool {
	if len(c.DisabledAuditors) == 0 {
		return nil
	}
	overrides := make(map[string]bool, len(c.DisabledAuditors))
	for _, name := range c.DisabledAuditors {
		overrides[name] = false
	}
	return overrides
}
