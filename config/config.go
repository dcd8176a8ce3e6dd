// Package config holds the shared settings for the scrape and sync commands.
package config

import (
	"fmt"
	"time"
)

// Config holds fetch, output, and sync configuration.
type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	Backoff       time.Duration
	UserAgent     string
	OutputFormat  string // json or csv
	DebugHTMLPath string
	DebugDir      string
	DBPath        string
	MetricsAddr   string
	Verbose       bool
}

// DefaultConfig returns the defaults the CLI layers its flags on top of.
func DefaultConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxRetries:    2,
		Backoff:       time.Second,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		OutputFormat:  "json",
		DebugHTMLPath: "debug_blocked.html",
		DBPath:        "menus.db",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Backoff < 0 {
		return fmt.Errorf("backoff cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" {
		return fmt.Errorf("output format must be json or csv")
	}
	if c.DebugHTMLPath == "" {
		return fmt.Errorf("debug html path cannot be empty")
	}
	return nil
}
