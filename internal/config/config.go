// Package config loads service configuration from defaults, an optional YAML
// file, and SIGNRELAY_* environment variables (highest precedence besides
// explicit runtime overrides).
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the signrelay service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AllowedOrigin is the single origin permitted for cross-origin
	// browser requests (the upload form's dev server by default).
	AllowedOrigin string `mapstructure:"allowed_origin"`

	// UploadLimitRPS / UploadLimitBurst rate-limit POST /api/sign.
	UploadLimitRPS   float64 `mapstructure:"upload_limit_rps"`
	UploadLimitBurst int     `mapstructure:"upload_limit_burst"`

	// MaxUploadBytes caps the multipart upload size.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// ProviderConfig carries the signing provider's connection settings.
type ProviderConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	APIKey             string        `mapstructure:"api_key"`
	UserID             string        `mapstructure:"user_id"`
	SignatureProfileID string        `mapstructure:"signature_profile_id"`
	ConsentPageID      string        `mapstructure:"consent_page_id"`
	DefaultLocale      string        `mapstructure:"default_locale"`
	Timeout            time.Duration `mapstructure:"timeout"`

	Field FieldConfig `mapstructure:"field"`
}

// FieldConfig is the default signature field geometry placed on uploads.
type FieldConfig struct {
	Page   int `mapstructure:"page"`
	X      int `mapstructure:"x"`
	Y      int `mapstructure:"y"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// JobsConfig controls the in-memory job store.
type JobsConfig struct {
	// TTL is the maximum idle duration before a job is evicted.
	TTL time.Duration `mapstructure:"ttl"`
}

// LoggingConfig controls the zap loggers.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ValidateForServe checks the fields the serve command cannot run without.
// Load itself stays permissive so commands like version work unconfigured.
func (c *Config) ValidateForServe() error {
	var missing []string
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		missing = append(missing, "provider.base_url")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		missing = append(missing, "provider.api_key")
	}
	if strings.TrimSpace(c.Provider.SignatureProfileID) == "" {
		missing = append(missing, "provider.signature_profile_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Jobs.TTL <= 0 {
		return fmt.Errorf("jobs.ttl must be positive, got %s", c.Jobs.TTL)
	}
	return nil
}
