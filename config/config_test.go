package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:   "zero retries allowed",
			mutate: func(c *Config) { c.MaxRetries = 0 },
		},
		{
			name:    "negative backoff",
			mutate:  func(c *Config) { c.Backoff = -time.Second },
			wantErr: true,
		},
		{
			name:    "empty user agent",
			mutate:  func(c *Config) { c.UserAgent = "" },
			wantErr: true,
		},
		{
			name:   "csv format",
			mutate: func(c *Config) { c.OutputFormat = "csv" },
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.OutputFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "empty debug path",
			mutate:  func(c *Config) { c.DebugHTMLPath = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("MENUSYNC_TEST_STR", "value")
	if got, ok := EnvString("MENUSYNC_TEST_STR"); !ok || got != "value" {
		t.Errorf("EnvString() = %q, %v", got, ok)
	}

	t.Setenv("MENUSYNC_TEST_EMPTY", "")
	if _, ok := EnvString("MENUSYNC_TEST_EMPTY"); ok {
		t.Errorf("empty variable should report unset")
	}
	if _, ok := EnvString("MENUSYNC_TEST_MISSING"); ok {
		t.Errorf("missing variable should report unset")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("MENUSYNC_TEST_INT", "42")
	got, ok, err := EnvInt("MENUSYNC_TEST_INT")
	if err != nil || !ok || got != 42 {
		t.Errorf("EnvInt() = %d, %v, %v", got, ok, err)
	}

	t.Setenv("MENUSYNC_TEST_BAD", "not-a-number")
	if _, _, err := EnvInt("MENUSYNC_TEST_BAD"); err == nil {
		t.Errorf("non-numeric value should fail")
	}

	if _, ok, err := EnvInt("MENUSYNC_TEST_MISSING"); ok || err != nil {
		t.Errorf("missing variable: ok=%v err=%v", ok, err)
	}
}
