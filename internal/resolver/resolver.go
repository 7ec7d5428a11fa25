// Package resolver finds the netkeiba race that corresponds to an umasen race
// and builds its odds link.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Vodeneev/keibabot/internal/parser/parsers/umasen"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/storage"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// Site is the netkeiba side of resolution
type Site interface {
	IndexSource
	OddsURL(raceID string) string
}

// Options configures a Resolver. Zero values select the venue strategy,
// Asia/Tokyo, an in-memory store and no audit log.
type Options struct {
	Strategy string
	Location *time.Location
	Store    storage.IndexStore
	Log      storage.ResolutionLog
}

// Resolver turns RaceRefs into netkeiba odds links using one configured strategy
type Resolver struct {
	site     Site
	cache    *IndexCache
	strategy Strategy
	loc      *time.Location
	log      storage.ResolutionLog
}

// New creates a resolver; it fails only for an unknown strategy name.
func New(site Site, opts Options) (*Resolver, error) {
	name := opts.Strategy
	if name == "" {
		name = StrategyVenue
	}
	loc := opts.Location
	if loc == nil {
		loc = tokyo()
	}
	log := opts.Log
	if log == nil {
		log = storage.NopResolutionLog{}
	}

	cache := NewIndexCache(site, opts.Store)
	strategy, err := newStrategy(name, cache)
	if err != nil {
		return nil, err
	}
	return &Resolver{site: site, cache: cache, strategy: strategy, loc: loc, log: log}, nil
}

// StrategyName reports the configured strategy
func (r *Resolver) StrategyName() string {
	return r.strategy.Name()
}

// Resolve matches ref against netkeiba. The race date comes from the descriptor
// (current year) or is today in the resolver's timezone. Not finding a race is
// a normal outcome reported by the bool, never an error.
func (r *Resolver) Resolve(ctx context.Context, ref models.RaceRef, now time.Time) (models.Resolution, bool) {
	ctx, span := telemetry.StartSpan(ctx, "resolver.Resolve",
		attribute.String("slug", ref.Slug),
		attribute.String("strategy", r.strategy.Name()))
	defer span.End()

	d := umasen.ExtractDescriptor(ref.RawDescriptor)
	res := models.Resolution{
		Slug:     ref.Slug,
		Strategy: r.strategy.Name(),
		Date:     d.Date(now, r.loc),
	}

	if r.strategy.Match(ctx, ref, d, &res) {
		res.Resolved = true
		res.URL = r.site.OddsURL(res.RaceID)
	}

	outcome := "miss"
	if res.Resolved {
		outcome = res.Tier
	}
	telemetry.CountResolution(res.Strategy, outcome)
	span.SetAttributes(attribute.Bool("resolved", res.Resolved))

	logger := telemetry.LoggerWithCorr(ctx)
	logger.Debug("Race resolved",
		slog.String("slug", res.Slug),
		slog.String("date", res.Date),
		slog.String("venue_code", res.VenueCode),
		slog.String("tier", res.Tier),
		slog.Bool("resolved", res.Resolved))
	if err := r.log.Record(ctx, res); err != nil {
		logger.Warn("Resolution log write failed", slog.String("slug", res.Slug), slog.Any("error", err))
	}
	return res, res.Resolved
}

func tokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		// JST has no DST
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
