package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLLING_INTERVAL", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("CACHE_DIR", "")
	t.Setenv("STATE_FILE", "")
	t.Setenv("HTTP_ADDR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != 60*time.Second {
		t.Errorf("PollInterval = %v, want 60s default", cfg.PollInterval)
	}
	if cfg.MaxConsecutiveFailures != 3 {
		t.Errorf("MaxConsecutiveFailures = %d, want 3", cfg.MaxConsecutiveFailures)
	}
	if cfg.CacheDir != "image_cache" || cfg.StateFile != "bot_state.json" {
		t.Errorf("storage defaults wrong: cache=%q state=%q", cfg.CacheDir, cfg.StateFile)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLLING_INTERVAL", "15")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("HTTP_ADDR", "off")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.PollInterval)
	}
	if cfg.MaxConsecutiveFailures != 7 {
		t.Errorf("MaxConsecutiveFailures = %d, want 7", cfg.MaxConsecutiveFailures)
	}
	if cfg.HTTPAddr != "off" {
		t.Errorf("HTTPAddr = %q, want off", cfg.HTTPAddr)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"POLLING_INTERVAL", "abc"},
		{"POLLING_INTERVAL", "0"},
		{"POLLING_INTERVAL", "-5"},
		{"MAX_RETRIES", "x"},
		{"MAX_RETRIES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			t.Setenv("POLLING_INTERVAL", "")
			t.Setenv("MAX_RETRIES", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "@plenum")
	t.Setenv("KNESSET_API_URL", "https://example/attendance")
	cfg, _ := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	t.Setenv("TELEGRAM_TOKEN", "")
	cfg, _ = Load()
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error when TELEGRAM_TOKEN missing")
	}
}
