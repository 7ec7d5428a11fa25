// resolve-check lists today's umasen races with their netkeiba resolution,
// for checking a strategy against the live sites without going through Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/keibabot/internal/parser/parsers/netkeiba"
	"github.com/Vodeneev/keibabot/internal/parser/parsers/umasen"
	pkgconfig "github.com/Vodeneev/keibabot/internal/pkg/config"
	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/storage"
	"github.com/Vodeneev/keibabot/internal/resolver"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", "configs/local.yaml"), "Path to config file")
		strategy   = flag.String("strategy", "", "Override netkeiba.strategy (venue or title)")
		limit      = flag.Int("limit", 0, "Races to check (0 = umasen.list_limit)")
		withMarks  = flag.Bool("marks", false, "Also fetch each race's marks")
		unresolved = flag.Duration("unresolved", 0, "Also list unresolved races logged in Postgres within this window (e.g. 24h)")
		timeout    = flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	)
	flag.Parse()

	cfg, err := pkgconfig.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *strategy != "" {
		cfg.Netkeiba.Strategy = *strategy
	}
	if *limit <= 0 {
		*limit = cfg.Umasen.ListLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = resolver.WithAttempts(ctx)

	if err := check(ctx, cfg, *limit, *withMarks); err != nil {
		slog.Error("Check failed", "error", err)
		os.Exit(1)
	}
	if *unresolved > 0 {
		if err := listUnresolved(ctx, cfg, *unresolved); err != nil {
			slog.Error("Unresolved listing failed", "error", err)
			os.Exit(1)
		}
	}
}

func check(ctx context.Context, cfg *pkgconfig.Config, limit int, withMarks bool) error {
	fetcher, err := fetch.New(cfg.Scraper.Fetcher, cfg.Scraper.UserAgent, cfg.Scraper.Timeout, cfg.Scraper.Headers)
	if err != nil {
		return err
	}
	races := umasen.NewClient(cfg.Umasen.BaseURL, fetcher, cfg.Umasen.MinSlugLength)
	res, err := resolver.New(netkeiba.NewClient(cfg.Netkeiba.BaseURL, fetcher), resolver.Options{
		Strategy: cfg.Netkeiba.Strategy,
		Location: cfg.Location(),
	})
	if err != nil {
		return err
	}

	refs, err := races.ListToday(ctx, limit)
	if err != nil {
		return fmt.Errorf("list races: %w", err)
	}

	now := time.Now()
	rows := make([][]string, 0, len(refs))
	resolved := 0
	for _, ref := range refs {
		r, ok := res.Resolve(ctx, ref, now)
		if ok {
			resolved++
		}
		marks := "-"
		if withMarks {
			marks = marksCount(ctx, races, ref.Slug)
		}
		rows = append(rows, []string{
			ref.Slug,
			ref.DisplayName,
			r.Date,
			r.VenueCode,
			raceNumber(r.RaceNumber),
			r.Tier,
			r.RaceID,
			marks,
		})
	}

	fmt.Println(renderTable(
		[]string{"Slug", "Name", "Date", "Venue", "R", "Tier", "Race ID", "Marks"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	))
	fmt.Printf("strategy=%s resolved=%d/%d\n", res.StrategyName(), resolved, len(refs))
	return nil
}

func marksCount(ctx context.Context, races *umasen.Client, slug string) string {
	rows, err := races.Marks(ctx, slug)
	if err != nil {
		return "error"
	}
	return strconv.Itoa(len(rows))
}

func listUnresolved(ctx context.Context, cfg *pkgconfig.Config, window time.Duration) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn (or POSTGRES_DSN) is required for -unresolved")
	}
	log, err := storage.NewPostgresResolutionLog(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer log.Close()

	records, err := log.UnresolvedSince(ctx, time.Now().Add(-window), 100)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"Slug", "Strategy", "Date", "Venue", "R"},
		unresolvedRows(records),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

func unresolvedRows(records []models.Resolution) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Slug, r.Strategy, r.Date, r.VenueCode, raceNumber(r.RaceNumber)})
	}
	return rows
}

func raceNumber(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
