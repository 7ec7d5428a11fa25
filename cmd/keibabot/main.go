package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/keibabot/internal/bot"
	"github.com/Vodeneev/keibabot/internal/parser/parsers/netkeiba"
	"github.com/Vodeneev/keibabot/internal/parser/parsers/umasen"
	pkgconfig "github.com/Vodeneev/keibabot/internal/pkg/config"
	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/health"
	"github.com/Vodeneev/keibabot/internal/pkg/logging"
	"github.com/Vodeneev/keibabot/internal/pkg/performance"
	"github.com/Vodeneev/keibabot/internal/pkg/storage"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
	"github.com/Vodeneev/keibabot/internal/resolver"
)

const (
	serviceName       = "keibabot"
	defaultConfigPath = "configs/local.yaml"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("keibabot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env необязателен: в проде переменные задаются окружением
	_ = godotenv.Load()

	configPath := parseFlags()
	appConfig, err := pkgconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, closeLogs, err := logging.SetupLogger(&appConfig.Logging, serviceName)
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer closeLogs()
	}
	slog.Info("Config loaded", "path", configPath, "strategy", appConfig.Netkeiba.Strategy, "cache", appConfig.Cache.Backend)

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(serviceName, version)
	if err != nil {
		slog.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracing()
	}

	fetcher, err := fetch.New(appConfig.Scraper.Fetcher, appConfig.Scraper.UserAgent, appConfig.Scraper.Timeout, appConfig.Scraper.Headers)
	if err != nil {
		return err
	}
	races := umasen.NewClient(appConfig.Umasen.BaseURL, fetcher, appConfig.Umasen.MinSlugLength)
	site := netkeiba.NewClient(appConfig.Netkeiba.BaseURL, fetcher)

	store, err := storage.OpenIndexStore(&appConfig.Cache)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer store.Close()

	resolutionLog, err := storage.OpenResolutionLog(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to open resolution log: %w", err)
	}
	defer resolutionLog.Close()

	res, err := resolver.New(site, resolver.Options{
		Strategy: appConfig.Netkeiba.Strategy,
		Location: appConfig.Location(),
		Store:    store,
		Log:      resolutionLog,
	})
	if err != nil {
		return err
	}

	replier, err := bot.NewTelegramReplier(appConfig.Telegram.BotToken, appConfig.Telegram.APIEndpoint, appConfig.Scraper.Timeout)
	if err != nil {
		return err
	}
	tracker := performance.GetTracker()
	b := bot.New(races, res, replier, bot.Options{ListLimit: appConfig.Umasen.ListLimit, Tracker: tracker})

	addr, err := health.AddrFor(appConfig.Health.Port)
	if err != nil {
		return err
	}

	// Останавливаемся по SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh, err := health.Run(ctx, health.Options{
		Addr:              addr,
		Service:           serviceName,
		ReadHeaderTimeout: appConfig.Health.ReadHeaderTimeout,
		WebhookPath:       appConfig.Health.WebhookPath,
		Webhook:           bot.NewWebhookHandler(b, appConfig.Telegram.WebhookSecret),
	})
	if err != nil {
		return err
	}
	slog.Info("Bot started", "strategy", res.StrategyName(), "webhook", appConfig.Health.WebhookPath)

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal, stopping bot...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	tracker.PrintSummary()
	slog.Info("Bot stopped gracefully")
	return nil
}

func parseFlags() string {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	var configPath string
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()
	return configPath
}
