// Package config provides configuration types and loading for cmdsafe.
//
// Configuration is file-based (cmdsafe.yaml) with environment overrides
// under the CMDSAFE_ prefix. Everything has a working default: a machine
// with no config file gets the full built-in rule set, logs under the user
// cache directory, and the stock thresholds.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level cmdsafe configuration.
type Config struct {
	// Log configures the audit/violation file sinks.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// WorkspaceRoot is the conventional directory scanned by the
	// duplicate-clone check (direct children plus one org level).
	WorkspaceRoot string `yaml:"workspace_root" mapstructure:"workspace_root" validate:"required"`

	// Scanner configures the external secret scanner.
	Scanner ScannerConfig `yaml:"scanner" mapstructure:"scanner"`

	// ScanCache configures the sqlite cache of clean scan results.
	ScanCache ScanCacheConfig `yaml:"scan_cache" mapstructure:"scan_cache"`

	// ManifestPatterns extends the built-in dependency-manifest globs
	// used by the dependency-change check.
	ManifestPatterns []string `yaml:"manifest_patterns" mapstructure:"manifest_patterns"`

	// DisabledCategories names rule categories excluded before the
	// registry snapshot is frozen.
	DisabledCategories []string `yaml:"disabled_categories" mapstructure:"disabled_categories" validate:"omitempty,dive,category"`

	// CustomPredicates are CEL expressions compiled at load time and
	// installed into the predicate table under their names.
	CustomPredicates []CustomPredicate `yaml:"custom_predicates" mapstructure:"custom_predicates" validate:"omitempty,dive"`

	// CustomRules are user-defined rules registered after the built-in
	// categories. They may reference built-in or custom predicates.
	CustomRules []CustomRule `yaml:"custom_rules" mapstructure:"custom_rules" validate:"omitempty,dive"`

	// Trace enables per-check spans printed to stderr (stdout trace
	// exporter). Debugging aid, off by default.
	Trace bool `yaml:"trace" mapstructure:"trace"`

	// DevMode enables verbose logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// LogConfig configures the rotating audit and violation sinks.
type LogConfig struct {
	// Dir is the directory holding audit.log and violations.log.
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
	// MaxFileSizeKB is the rotation threshold for the active file.
	MaxFileSizeKB int `yaml:"max_file_size_kb" mapstructure:"max_file_size_kb" validate:"gt=0"`
	// MaxRotated is the number of rotated segments retained per sink.
	MaxRotated int `yaml:"max_rotated" mapstructure:"max_rotated" validate:"gt=0"`
}

// ScannerConfig configures the external secret scanner invocation.
type ScannerConfig struct {
	// Command is the scanner binary name looked up on PATH.
	Command string `yaml:"command" mapstructure:"command"`
	// Timeout bounds a single scan; on expiry the scanner is treated as
	// unavailable rather than blocking the pipeline.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// ScanCacheConfig configures the clean-result cache.
type ScanCacheConfig struct {
	// Path is the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// TTL is how long a clean fingerprint stays valid.
	TTL string `yaml:"ttl" mapstructure:"ttl" validate:"omitempty,duration"`
}

// CustomPredicate is a named CEL expression over the variable
// args (list of string), the full argument vector of the invocation.
type CustomPredicate struct {
	Name       string `yaml:"name" mapstructure:"name" validate:"required,rule_id"`
	Expression string `yaml:"expression" mapstructure:"expression" validate:"required"`
}

// CustomRule is a user-defined rule loaded from config.
type CustomRule struct {
	ID           string   `yaml:"id" mapstructure:"id" validate:"required,rule_id"`
	Command      string   `yaml:"command" mapstructure:"command" validate:"required"`
	Predicate    string   `yaml:"predicate" mapstructure:"predicate" validate:"required"`
	Action       string   `yaml:"action" mapstructure:"action" validate:"required,oneof=block warn"`
	BypassFlag   string   `yaml:"bypass_flag" mapstructure:"bypass_flag"`
	Severity     string   `yaml:"severity" mapstructure:"severity" validate:"omitempty,oneof=info warning critical"`
	Description  string   `yaml:"description" mapstructure:"description"`
	Alternatives []string `yaml:"alternatives" mapstructure:"alternatives"`
	DocsURL      string   `yaml:"docs_url" mapstructure:"docs_url"`
}

// ScannerTimeout returns the parsed scanner timeout.
// Defaults are applied at load time, so parse errors cannot occur here.
func (c *Config) ScannerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Scanner.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ScanCacheTTL returns the parsed cache TTL.
func (c *Config) ScanCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.ScanCache.TTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// applyDefaults fills unset fields with working defaults.
func (c *Config) applyDefaults() {
	home, _ := os.UserHomeDir()
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = filepath.Join(home, ".cache")
	}

	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(cacheDir, "cmdsafe", "logs")
	}
	if c.Log.MaxFileSizeKB == 0 {
		c.Log.MaxFileSizeKB = 512
	}
	if c.Log.MaxRotated == 0 {
		c.Log.MaxRotated = 5
	}
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = filepath.Join(home, "src")
	}
	if c.Scanner.Command == "" {
		c.Scanner.Command = "gitleaks"
	}
	if c.Scanner.Timeout == "" {
		c.Scanner.Timeout = "30s"
	}
	if c.ScanCache.Path == "" {
		c.ScanCache.Path = filepath.Join(cacheDir, "cmdsafe", "scan.db")
	}
	if c.ScanCache.TTL == "" {
		c.ScanCache.TTL = "15m"
	}
}
