package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, standard locations are searched for a
// cmdsafe.yaml/.yml. The search requires an explicit YAML extension so the
// binary itself (same base name, no extension) is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file anywhere; ReadInConfig will return
		// ConfigFileNotFoundError, which Load handles gracefully.
		viper.SetConfigName("cmdsafe")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: CMDSAFE_WORKSPACE_ROOT etc.
	viper.SetEnvPrefix("CMDSAFE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for cmdsafe.yaml or .yml.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".cmdsafe"),
		"/etc/cmdsafe",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "cmdsafe"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment overrides.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("workspace_root")
	_ = viper.BindEnv("log.dir")
	_ = viper.BindEnv("log.max_file_size_kb")
	_ = viper.BindEnv("log.max_rotated")
	_ = viper.BindEnv("scanner.command")
	_ = viper.BindEnv("scanner.timeout")
	_ = viper.BindEnv("scan_cache.path")
	_ = viper.BindEnv("scan_cache.ttl")
	_ = viper.BindEnv("trace")
	_ = viper.BindEnv("dev_mode")
}

// Load reads, defaults, and validates the configuration. A missing config
// file is fine (defaults apply); a malformed or invalid one is a fatal
// configuration error.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
