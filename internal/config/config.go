// ABOUTME: Configuration loading and parsing for taskchat
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Tool transport modes
const (
	ToolModeLocal      = "local"
	ToolModeSubprocess = "subprocess"
)

// Config represents the complete taskchat configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Model    ModelConfig    `yaml:"model"`
	Tools    ToolsConfig    `yaml:"tools"`
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

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`

	AccessTTL  time.Duration `yaml:"-"`
	RefreshTTL time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	AccessTTLRaw  string `yaml:"access_ttl"`
	RefreshTTLRaw string `yaml:"refresh_ttl"`
}

// ModelConfig holds chat model provider configuration
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// ToolsConfig selects how tool calls are executed
type ToolsConfig struct {
	// Mode is "local" (in-process) or "subprocess" (tool server child)
	Mode string `yaml:"mode"`

	// Command and Args launch the tool server in subprocess mode
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Dir is the tool server's working directory. Empty inherits the
	// parent's.
	Dir string `yaml:"dir"`

	// Env lists extra "KEY=VALUE" entries appended to the inherited
	// environment.
	Env []string `yaml:"env"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied before validation
const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultMaxTokens  = 4096
)

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

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = defaultAccessTTL
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = defaultRefreshTTL
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = defaultMaxTokens
	}
	if c.Tools.Mode == "" {
		c.Tools.Mode = ToolModeLocal
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}

	switch c.Tools.Mode {
	case ToolModeLocal:
	case ToolModeSubprocess:
		if c.Tools.Command == "" {
			return fmt.Errorf("tools.command is required when tools.mode is %q", ToolModeSubprocess)
		}
	default:
		return fmt.Errorf("tools.mode must be %q or %q", ToolModeLocal, ToolModeSubprocess)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.AccessTTLRaw != "" {
		cfg.Auth.AccessTTL, err = time.ParseDuration(cfg.Auth.AccessTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing access_ttl %q: %w", cfg.Auth.AccessTTLRaw, err)
		}
	}

	if cfg.Auth.RefreshTTLRaw != "" {
		cfg.Auth.RefreshTTL, err = time.ParseDuration(cfg.Auth.RefreshTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing refresh_ttl %q: %w", cfg.Auth.RefreshTTLRaw, err)
		}
	}

	return nil
}
