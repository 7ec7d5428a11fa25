package resolver

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/storage"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// IndexSource builds a fresh index for a key. cacheable is false for transient failures.
type IndexSource interface {
	Index(ctx context.Context, key models.IndexKey) (index models.RaceIndex, cacheable bool, err error)
}

// IndexCache puts a store in front of an IndexSource. The store is consulted
// before any fetch, empty results are stored too, and concurrent lookups of
// one key share a single fetch.
type IndexCache struct {
	source IndexSource
	store  storage.IndexStore
	group  singleflight.Group
}

// NewIndexCache creates a cache; a nil store means an unbounded in-memory one.
func NewIndexCache(source IndexSource, store storage.IndexStore) *IndexCache {
	if store == nil {
		store = storage.NewMemoryIndexStore(0)
	}
	return &IndexCache{source: source, store: store}
}

// Lookup returns the index for key, fetching it at most once per cache lifetime.
// Failures yield an empty index; they are never returned to the caller.
// Transport failures are not stored, but under a WithAttempts context they are
// not retried either.
func (c *IndexCache) Lookup(ctx context.Context, key models.IndexKey) models.RaceIndex {
	logger := telemetry.LoggerWithCorr(ctx)

	if index, ok := c.cached(ctx, logger, key); ok {
		telemetry.CountIndexCache("hit")
		return index
	}
	failed := failedFrom(ctx)
	if failed.has(key) {
		telemetry.CountIndexCache("failed_earlier")
		return models.RaceIndex{}
	}

	v, _, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// a concurrent caller may have filled the store while we waited
		if index, ok := c.cached(ctx, logger, key); ok {
			telemetry.CountIndexCache("hit")
			return index, nil
		}
		if failed.has(key) {
			telemetry.CountIndexCache("failed_earlier")
			return models.RaceIndex{}, nil
		}

		index, cacheable, err := c.source.Index(ctx, key)
		if index == nil {
			index = models.RaceIndex{}
		}
		if err != nil {
			logger.Warn("Index fetch failed",
				slog.String("key", key.String()),
				slog.Bool("cacheable", cacheable),
				slog.Any("error", err))
		}
		if !cacheable {
			// kept out of the store so the next action retries, but not refetched within this one
			failed.add(key)
			telemetry.CountIndexCache("uncacheable")
			return index, nil
		}

		telemetry.CountIndexCache("miss")
		if err := c.store.Set(ctx, key, index); err != nil {
			logger.Warn("Index store write failed", slog.String("key", key.String()), slog.Any("error", err))
		}
		return index, nil
	})
	return v.(models.RaceIndex)
}

func (c *IndexCache) cached(ctx context.Context, logger *slog.Logger, key models.IndexKey) (models.RaceIndex, bool) {
	index, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("Index store read failed", slog.String("key", key.String()), slog.Any("error", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if index == nil {
		index = models.RaceIndex{}
	}
	return index, true
}
