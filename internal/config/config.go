// ABOUTME: Configuration loading and parsing for r2-mcp
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete r2-mcp configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	History HistoryConfig `yaml:"history"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EngineConfig holds radare2 subprocess configuration
type EngineConfig struct {
	Binary      string `yaml:"binary"`
	RelocsApply bool   `yaml:"relocs_apply"`
	BinCache    bool   `yaml:"bin_cache"`

	InitTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	InitTimeoutRaw string `yaml:"init_timeout"`
}

// HistoryConfig holds tool-invocation history configuration.
// An empty path disables history recording entirely.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no config file exists.
// The server is normally spawned by an MCP client with no setup, so
// every field has a working default.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "color",
		},
		Engine: EngineConfig{
			Binary:         "radare2",
			RelocsApply:    true,
			BinCache:       true,
			InitTimeout:    10 * time.Second,
			InitTimeoutRaw: "10s",
		},
		History: HistoryConfig{
			Path: "",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file is not an error: defaults are returned instead.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all configuration fields hold usable values.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "color", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of color, text, json", c.Logging.Format)
	}

	if c.Engine.Binary == "" {
		return fmt.Errorf("engine.binary is required")
	}

	if c.Engine.InitTimeout <= 0 {
		return fmt.Errorf("engine.init_timeout must be positive")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Engine.InitTimeoutRaw != "" {
		cfg.Engine.InitTimeout, err = time.ParseDuration(cfg.Engine.InitTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing init_timeout %q: %w", cfg.Engine.InitTimeoutRaw, err)
		}
	}

	return nil
}
