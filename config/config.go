// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup;
// the credentials the bot cannot run without are checked by Validate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Telegram
	TelegramToken string
	ChannelID     string

	// Attendance feed
	KnessetAPIURL string

	// Loop
	PollInterval           time.Duration
	MaxConsecutiveFailures int

	// Storage
	CacheDir  string
	StateFile string
	FontPath  string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail on
// missing credentials; call Validate before starting the bot.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.ChannelID = os.Getenv("CHANNEL_ID")
	cfg.KnessetAPIURL = os.Getenv("KNESSET_API_URL")

	cfg.PollInterval = 60 * time.Second
	if v := os.Getenv("POLLING_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid POLLING_INTERVAL (seconds): %q", v)
		}
		cfg.PollInterval = time.Duration(secs) * time.Second
	}

	cfg.MaxConsecutiveFailures = 3
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_RETRIES: %q", v)
		}
		cfg.MaxConsecutiveFailures = n
	}

	cfg.CacheDir = os.Getenv("CACHE_DIR")
	if cfg.CacheDir == "" {
		cfg.CacheDir = "image_cache"
	}
	cfg.StateFile = os.Getenv("STATE_FILE")
	if cfg.StateFile == "" {
		cfg.StateFile = "bot_state.json"
	}
	cfg.FontPath = os.Getenv("FONT_PATH")
	if cfg.FontPath == "" {
		cfg.FontPath = "assets/fonts/ARIAL.TTF"
	}

	// HTTP_ADDR=off disables the health/metrics server entirely.
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks the fields the bot cannot run without.
func (c *Config) Validate() error {
	if c.TelegramToken == "" || c.ChannelID == "" || c.KnessetAPIURL == "" {
		return fmt.Errorf("missing env: require TELEGRAM_TOKEN, CHANNEL_ID, KNESSET_API_URL")
	}
	return nil
}
