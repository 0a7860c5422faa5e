package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ClientConfigDir is the directory for the careclient config and state
	ClientConfigDir = ".config/careclient"
	// ClientConfigFile is the name of the careclient config file
	ClientConfigFile = "config.yaml"
)

// ClientConfig configures the careclient binary.
type ClientConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
	StateDir       string        `yaml:"state_dir"` // holds the cookie jar and the persisted identity
	RedisURL       string        `yaml:"redis_url"` // optional, persists the identity in Redis instead of state_dir
	LogLevel       string        `yaml:"log_level"`
	LogPretty      bool          `yaml:"log_pretty"`
}

// DefaultClientConfig returns the configuration used when nothing is set.
func DefaultClientConfig() *ClientConfig {
	stateDir := ClientConfigDir
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ClientConfigDir)
	}
	return &ClientConfig{
		BaseURL:        "http://localhost:8080",
		RequestTimeout: 30 * time.Second,
		RefreshTimeout: 10 * time.Second,
		StateDir:       stateDir,
		LogLevel:       "warn",
		LogPretty:      true,
	}
}

// DefaultClientConfigPath is ~/.config/careclient/config.yaml.
func DefaultClientConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ClientConfigDir, ClientConfigFile)
}

// LoadClientConfig loads configuration with layered precedence:
// 1. Defaults
// 2. The YAML file at path, when it exists
// 3. CARE_* environment variables
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.BaseURL = GetEnv("CARE_BASE_URL", cfg.BaseURL)
	cfg.RequestTimeout = GetDurationEnv("CARE_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RefreshTimeout = GetDurationEnv("CARE_REFRESH_TIMEOUT", cfg.RefreshTimeout)
	cfg.StateDir = GetEnv("CARE_STATE_DIR", cfg.StateDir)
	cfg.RedisURL = GetEnv("CARE_REDIS_URL", cfg.RedisURL)
	cfg.LogLevel = GetEnv("CARE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = GetBoolEnv("CARE_LOG_PRETTY", cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("refresh_timeout must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	return nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *ClientConfig) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
