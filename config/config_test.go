package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "zero wait timeout",
			mutate: func(cfg *Config) {
				cfg.WaitTimeout = 0
			},
			wantErr: "wait timeout",
		},
		{
			name: "pace inverted",
			mutate: func(cfg *Config) {
				cfg.PaceMin = 5 * time.Second
				cfg.PaceMax = time.Second
			},
			wantErr: "pace min",
		},
		{
			name: "results delay inverted",
			mutate: func(cfg *Config) {
				cfg.ResultsDelayMin = time.Minute
				cfg.ResultsDelayMax = time.Second
			},
			wantErr: "results delay min",
		},
		{
			name: "negative retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = -1
			},
			wantErr: "max retries",
		},
		{
			name: "backoff exceeds max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 10 * time.Second
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xlsx"
			},
			wantErr: "output format",
		},
		{
			name: "empty output dir",
			mutate: func(cfg *Config) {
				cfg.OutputDir = ""
			},
			wantErr: "output dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.WaitTimeout != 5*time.Second {
		t.Fatalf("wait timeout = %s, want 5s", cfg.WaitTimeout)
	}
	if cfg.DedupeMaxSize != 0 {
		t.Fatalf("dedupe max size = %d, want 0 (keep every card)", cfg.DedupeMaxSize)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"OUTPUT_FORMAT", "DUAL")
	t.Setenv(EnvPrefix+"HEADLESS", "false")
	t.Setenv(EnvPrefix+"MAX_RETRIES", "4")
	t.Setenv(EnvPrefix+"WAIT_TIMEOUT", "8s")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.OutputFormat != "dual" {
		t.Fatalf("output format = %q, want dual", cfg.OutputFormat)
	}
	if cfg.Headless {
		t.Fatalf("headless should be false")
	}
	if cfg.MaxRetries != 4 {
		t.Fatalf("max retries = %d, want 4", cfg.MaxRetries)
	}
	if cfg.WaitTimeout != 8*time.Second {
		t.Fatalf("wait timeout = %s, want 8s", cfg.WaitTimeout)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvPrefix+"MAX_RETRIES", "many")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err == nil || !strings.Contains(err.Error(), "MAX_RETRIES") {
		t.Fatalf("expected MAX_RETRIES parse error, got %v", err)
	}
}
