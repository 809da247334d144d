package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	CastleOS CastleOSConfig `yaml:"castleos"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Script   string         `yaml:"script"`
}

// CastleOSConfig contains controller connection settings
type CastleOSConfig struct {
	Host     string   `yaml:"host"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Token    string   `yaml:"token"`   // Pre-seeded session token (optional)
	Timeout  Duration `yaml:"timeout"` // HTTP timeout for controller requests

	// Transport settings. Both default to true: controllers commonly sit behind
	// a redirecting reverse proxy with a self-signed certificate.
	FollowRedirects    *bool `yaml:"follow_redirects"`
	InsecureSkipVerify *bool `yaml:"insecure_skip_verify"`
}

// GetFollowRedirects returns follow_redirects with default
func (c *CastleOSConfig) GetFollowRedirects() bool {
	if c.FollowRedirects == nil {
		return true
	}
	return *c.FollowRedirects
}

// GetInsecureSkipVerify returns insecure_skip_verify with default
func (c *CastleOSConfig) GetInsecureSkipVerify() bool {
	if c.InsecureSkipVerify == nil {
		return true
	}
	return *c.InsecureSkipVerify
}

// MemoryDatabase as database path keeps all state in memory for the run.
const MemoryDatabase = ":memory:"

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// InMemory reports whether nothing should be written to disk.
func (c *DatabaseConfig) InMemory() bool {
	return c.Path == MemoryDatabase
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Level)
}

// LedgerConfig contains command ledger settings. The ledger is off unless
// enabled; the session token is then the only persisted state.
type LedgerConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with all defaults applied.
// Used when no configuration file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./castleos.sqlite"
	}
	if cfg.Script == "" {
		cfg.Script = "main.lua"
	}

	// Controller defaults
	if cfg.CastleOS.Host == "" {
		cfg.CastleOS.Host = "localhost"
	}
	if cfg.CastleOS.Timeout == 0 {
		cfg.CastleOS.Timeout = Duration(30 * time.Second)
	}

	// Ledger defaults
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
