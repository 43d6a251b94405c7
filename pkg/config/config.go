package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the export downloader
type Config struct {
	// Graph API connection settings
	API APIConfig `yaml:"api" json:"api"`

	// Rate limiting for list/metadata requests
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds Workplace Graph API settings
type APIConfig struct {
	TenantID    string        `yaml:"tenant_id" json:"tenant_id"`
	AccessToken string        `yaml:"access_token" json:"access_token"`
	Version     string        `yaml:"version" json:"version"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration for API calls
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// DownloadConfig holds download-engine configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MaxRetries          int           `yaml:"max_retries" json:"max_retries"`
	RetryBackoff        time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
	StatusFilter        string        `yaml:"status_filter" json:"status_filter"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Version: "v20.0",
			Timeout: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory: "exports",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 1,
			DownloadTimeout:     120 * time.Second,
			MaxRetries:          3,
			RetryBackoff:        5 * time.Second,
			StatusFilter:        "completed",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is honored when present.
func (c *Config) LoadFromEnv() error {
	// Best effort: a missing .env file is not an error
	_ = godotenv.Load()

	if tenantID := os.Getenv("WORKPLACE_TENANT_ID"); tenantID != "" {
		c.API.TenantID = tenantID
	}
	if token := os.Getenv("WORKPLACE_ACCESS_TOKEN"); token != "" {
		c.API.AccessToken = token
	}
	// Legacy variable name used by the wizard-era tooling
	if token := os.Getenv("WORKPLACE_TOKEN"); token != "" && c.API.AccessToken == "" {
		c.API.AccessToken = token
	}
	if version := os.Getenv("WORKPLACE_GRAPH_API_VERSION"); version != "" {
		c.API.Version = version
	}
	if outputDir := os.Getenv("WORKPLACE_EXPORT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if retries := os.Getenv("WORKPLACE_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val >= 0 {
			c.Download.MaxRetries = val
		}
	}
	if concurrent := os.Getenv("WORKPLACE_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if logLevel := os.Getenv("WORKPLACE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".wpexport.yaml",
		".wpexport.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wpexport", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "wpexport", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".wpexport.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.AccessToken == "" {
		errs = append(errs, errors.New("access token is required"))
	}
	if c.API.Version == "" {
		errs = append(errs, errors.New("Graph API version is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Download.StatusFilter != "" {
		valid := map[string]bool{
			"pending": true, "in_progress": true, "completed": true, "failed": true,
		}
		if !valid[strings.ToLower(c.Download.StatusFilter)] {
			errs = append(errs, fmt.Errorf("invalid status filter: %s", c.Download.StatusFilter))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if tenantID, ok := flags["tenant-id"].(string); ok && tenantID != "" {
		c.API.TenantID = tenantID
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.API.AccessToken = token
	}
	if version, ok := flags["api-version"].(string); ok && version != "" {
		c.API.Version = version
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if status, ok := flags["status"].(string); ok && status != "" {
		c.Download.StatusFilter = strings.ToLower(status)
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Download.MaxRetries = retries
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load builds the effective configuration from all sources in precedence
// order: defaults, config file, environment, command line flags.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.MergeCommandLineFlags(flags)

	return cfg, nil
}
