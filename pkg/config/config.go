// Package config loads the mockd configuration from a YAML file layered
// with environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-httpmock/pkg/backend"
	"github.com/sirosfoundation/go-httpmock/pkg/logging"
)

// Backend type names accepted by ServerConfig.Backend.
const (
	BackendNetHTTP  = "nethttp"
	BackendGin      = "gin"
	BackendChi      = "chi"
	BackendFastHTTP = "fasthttp"
)

// Config represents the mockd configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Response ResponseConfig `yaml:"response" envconfig:"RESPONSE"`
	CORS     CORSConfig     `yaml:"cors" envconfig:"CORS"`
	Logging  logging.Config `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	Host    string `yaml:"host" envconfig:"HOST"`
	Port    int    `yaml:"port" envconfig:"PORT"` // 0 picks an ephemeral port
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// ResponseConfig describes the fixed response mockd serves
type ResponseConfig struct {
	Status      int               `yaml:"status" envconfig:"STATUS"`
	Body        string            `yaml:"body" envconfig:"BODY"`
	ContentType string            `yaml:"content_type" envconfig:"CONTENT_TYPE"`
	Headers     map[string]string `yaml:"headers" envconfig:"HEADERS"`
}

// CORSConfig contains CORS settings, honored by the gin backend only
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" envconfig:"ENABLED"`
	AllowOrigins     []string `yaml:"allow_origins" envconfig:"ALLOW_ORIGINS"`
	AllowMethods     []string `yaml:"allow_methods" envconfig:"ALLOW_METHODS"`
	AllowHeaders     []string `yaml:"allow_headers" envconfig:"ALLOW_HEADERS"`
	AllowCredentials bool     `yaml:"allow_credentials" envconfig:"ALLOW_CREDENTIALS"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds" envconfig:"MAX_AGE_SECONDS"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("HTTPMOCK", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set BaseURL if not provided. With an ephemeral port the URL is only
	// known after the bind, so it stays empty here.
	if cfg.Server.BaseURL == "" && cfg.Server.Port != 0 {
		cfg.Server.BaseURL = backend.URL(cfg.Server.Host, cfg.Server.Port)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Backend: BackendNetHTTP,
		},
		Response: ResponseConfig{
			Status:      200,
			Body:        "ok",
			ContentType: "text/plain; charset=utf-8",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Server.Backend {
	case BackendNetHTTP, BackendGin, BackendChi, BackendFastHTTP:
	default:
		return fmt.Errorf("invalid backend type: %s (must be nethttp, gin, chi, or fasthttp)", c.Server.Backend)
	}

	if c.Response.Status < 100 || c.Response.Status > 599 {
		return fmt.Errorf("invalid response status: %d", c.Response.Status)
	}

	if c.CORS.Enabled && len(c.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("cors enabled but no allow_origins configured")
	}

	return nil
}

// Address returns the listener address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
