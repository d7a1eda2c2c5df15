// Package config handles explode configuration loading and validation.
package config

import (
	"fmt"
)

// Config is the root configuration structure for explode.
type Config struct {
	// Selection settings for channels and DMs
	Selection SelectionConfig `yaml:"selection" mapstructure:"selection"`

	// Attachment settings
	Attachments AttachmentConfig `yaml:"attachments" mapstructure:"attachments"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// SelectionConfig controls which conversations are exported.
type SelectionConfig struct {
	// AllChannels exports every channel, overriding Only/Except.
	AllChannels bool `yaml:"all_channels" mapstructure:"all_channels"`

	// OnlyChannels limits the export to the named channels.
	OnlyChannels []string `yaml:"only_channels" mapstructure:"only_channels"`

	// ExceptChannels excludes the named channels.
	ExceptChannels []string `yaml:"except_channels" mapstructure:"except_channels"`

	// AllDMs exports every DM, overriding Only/Except.
	AllDMs bool `yaml:"all_dms" mapstructure:"all_dms"`

	// OnlyDMs limits the export to the named DM ids.
	OnlyDMs []string `yaml:"only_dms" mapstructure:"only_dms"`

	// ExceptDMs excludes the named DM ids.
	ExceptDMs []string `yaml:"except_dms" mapstructure:"except_dms"`
}

// AttachmentConfig controls attachment link rewriting and download.
type AttachmentConfig struct {
	// Download fetches attachments into the files/ cache. Links are
	// rewritten to local paths whether or not downloading is enabled.
	Download bool `yaml:"download" mapstructure:"download"`

	// MaxConcurrent bounds the per-day download fan-out.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console, auto).
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Attachments: AttachmentConfig{
			Download:      false,
			MaxConcurrent: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Attachments.MaxConcurrent < 1 {
		return fmt.Errorf("attachments.max_concurrent must be at least 1, got %d", c.Attachments.MaxConcurrent)
	}
	switch c.Logging.Format {
	case "", "auto", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json, console or auto, got %q", c.Logging.Format)
	}
	return nil
}
