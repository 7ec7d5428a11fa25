package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	// Asia/Tokyo must resolve on hosts without a system tz database
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Health   HealthConfig   `yaml:"health"`
	Telegram TelegramConfig `yaml:"telegram"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Umasen   UmasenConfig   `yaml:"umasen"`
	Netkeiba NetkeibaConfig `yaml:"netkeiba"`
	Cache    CacheConfig    `yaml:"cache"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Timezone string         `yaml:"timezone"` // Used when a race carries no date; default Asia/Tokyo
}

type HealthConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WebhookPath       string        `yaml:"webhook_path"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`      // Can be set via TELEGRAM_BOT_TOKEN env var
	WebhookSecret string `yaml:"webhook_secret"` // Checked against X-Telegram-Bot-Api-Secret-Token when set
	APIEndpoint   string `yaml:"api_endpoint"`   // Override for a local Bot API server
}

type ScraperConfig struct {
	Fetcher   string            `yaml:"fetcher"` // "http" (default) or "browser"
	UserAgent string            `yaml:"user_agent"`
	Timeout   time.Duration     `yaml:"timeout"`
	Headers   map[string]string `yaml:"headers"`
}

type UmasenConfig struct {
	BaseURL       string `yaml:"base_url"`
	ListLimit     int    `yaml:"list_limit"`
	MinSlugLength int    `yaml:"min_slug_length"`
}

type NetkeibaConfig struct {
	BaseURL  string `yaml:"base_url"`
	Strategy string `yaml:"strategy"` // "venue" (default) or "title"
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // "memory" (default) or "redis"
	TTL           time.Duration `yaml:"ttl"`     // 0 keeps memory entries for the process lifetime
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"` // Empty disables the resolution log
}

type LoggingConfig struct {
	Level    string `yaml:"level"`     // DEBUG, INFO, WARN, ERROR
	JSONFile string `yaml:"json_file"` // Optional JSON log sink in addition to stdout
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	DefaultTimezone  = "Asia/Tokyo"

	StrategyVenue = "venue"
	StrategyTitle = "title"
)

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns a config with every default applied and no file behind it.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_WEBHOOK_SECRET"); v != "" {
		c.Telegram.WebhookSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Health.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Health.Port <= 0 {
		c.Health.Port = 10000
	}
	if c.Health.ReadHeaderTimeout <= 0 {
		c.Health.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Health.WebhookPath == "" {
		c.Health.WebhookPath = "/callback"
	}
	if c.Scraper.Fetcher == "" {
		c.Scraper.Fetcher = "http"
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = DefaultUserAgent
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = 10 * time.Second
	}
	if c.Umasen.BaseURL == "" {
		c.Umasen.BaseURL = "https://umasen.com"
	}
	if c.Umasen.ListLimit <= 0 {
		c.Umasen.ListLimit = 10
	}
	if c.Umasen.MinSlugLength <= 0 {
		c.Umasen.MinSlugLength = 5
	}
	if c.Netkeiba.BaseURL == "" {
		c.Netkeiba.BaseURL = "https://race.netkeiba.com"
	}
	if c.Netkeiba.Strategy == "" {
		c.Netkeiba.Strategy = StrategyVenue
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Backend == "redis" && c.Cache.TTL <= 0 {
		c.Cache.TTL = 12 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// Validate rejects settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Scraper.Fetcher {
	case "http", "browser":
	default:
		return fmt.Errorf("scraper.fetcher must be \"http\" or \"browser\", got %q", c.Scraper.Fetcher)
	}
	switch c.Netkeiba.Strategy {
	case StrategyVenue, StrategyTitle:
	default:
		return fmt.Errorf("netkeiba.strategy must be %q or %q, got %q", StrategyVenue, StrategyTitle, c.Netkeiba.Strategy)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone, falling back to a fixed JST offset
// when the tz database is unavailable.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
