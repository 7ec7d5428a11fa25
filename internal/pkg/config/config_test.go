package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("PORT", "")
	path := writeConfig(t, "telegram:\n  bot_token: abc\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "abc" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	if cfg.Scraper.Timeout != 10*time.Second {
		t.Errorf("timeout default = %v", cfg.Scraper.Timeout)
	}
	if cfg.Umasen.ListLimit != 10 || cfg.Umasen.MinSlugLength != 5 {
		t.Errorf("umasen defaults = %+v", cfg.Umasen)
	}
	if cfg.Netkeiba.Strategy != StrategyVenue {
		t.Errorf("strategy default = %q", cfg.Netkeiba.Strategy)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL != 0 {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Timezone != DefaultTimezone {
		t.Errorf("timezone default = %q", cfg.Timezone)
	}
	if !strings.Contains(cfg.Scraper.UserAgent, "Mozilla/5.0") {
		t.Errorf("user agent should look like a browser: %q", cfg.Scraper.UserAgent)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("PORT", "8081")
	path := writeConfig(t, "telegram:\n  bot_token: from-file\nhealth:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("env should win over file, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Health.Port != 8081 {
		t.Errorf("PORT should override health.port, got %d", cfg.Health.Port)
	}
}

func TestLoadRedisTTLDefault(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	path := writeConfig(t, "cache:\n  backend: redis\n  redis_addr: localhost:6379\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("redis TTL default = %v", cfg.Cache.TTL)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	tests := []struct {
		name string
		body string
		want string
	}{
		{"strategy", "netkeiba:\n  strategy: fuzzy\n", "netkeiba.strategy"},
		{"fetcher", "scraper:\n  fetcher: curl\n", "scraper.fetcher"},
		{"redis without addr", "cache:\n  backend: redis\n", "redis_addr"},
		{"backend", "cache:\n  backend: memcached\n", "cache.backend"},
		{"timezone", "timezone: Not/AZone\n", "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultLocation(t *testing.T) {
	cfg := Default()
	loc := cfg.Location()
	now := time.Date(2026, 2, 7, 20, 0, 0, 0, time.UTC).In(loc)
	if now.Day() != 8 {
		t.Errorf("expected JST date rollover, got %v", now)
	}
}

func TestLoadResolvesDefaultTimezone(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: INFO\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Location().String(); got != DefaultTimezone {
		t.Errorf("Location() = %q, want %q", got, DefaultTimezone)
	}
}
