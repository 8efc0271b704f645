// ABOUTME: Configuration loading and parsing for inkwell
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding field is absent from the file.
const (
	DefaultHTTPAddr          = ":8080"
	DefaultSessionTTL        = 30 * time.Minute
	DefaultKeepaliveInterval = 25 * time.Second
)

// Config represents the complete inkwell configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	MCP      MCPConfig      `yaml:"mcp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
// When JWTSecret is empty the MCP endpoint accepts unauthenticated clients.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// MCPConfig holds protocol session tuning
type MCPConfig struct {
	SessionTTL        time.Duration `yaml:"-"`
	KeepaliveInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	SessionTTLRaw        string `yaml:"session_ttl"`
	KeepaliveIntervalRaw string `yaml:"keepalive_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Database.Path = "inkwell.db"
	return cfg
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

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	// An explicit "0s" in the file disables the sweeper; only absent
	// fields get defaults.
	if c.MCP.SessionTTLRaw == "" {
		c.MCP.SessionTTL = DefaultSessionTTL
	}
	if c.MCP.KeepaliveIntervalRaw == "" {
		c.MCP.KeepaliveInterval = DefaultKeepaliveInterval
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.MCP.SessionTTL < 0 {
		return fmt.Errorf("mcp.session_ttl must not be negative")
	}
	if c.MCP.KeepaliveInterval < 0 {
		return fmt.Errorf("mcp.keepalive_interval must not be negative")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.MCP.SessionTTLRaw != "" {
		cfg.MCP.SessionTTL, err = time.ParseDuration(cfg.MCP.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.MCP.SessionTTLRaw, err)
		}
	}

	if cfg.MCP.KeepaliveIntervalRaw != "" {
		cfg.MCP.KeepaliveInterval, err = time.ParseDuration(cfg.MCP.KeepaliveIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing keepalive_interval %q: %w", cfg.MCP.KeepaliveIntervalRaw, err)
		}
	}

	return nil
}
