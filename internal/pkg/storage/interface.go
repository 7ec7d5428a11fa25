package storage

import (
	"context"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

// IndexStore backs the netkeiba index cache
type IndexStore interface {
	// Get returns the stored index; ok is false on a miss or an expired entry.
	// An empty index with ok=true is a cached "no races" answer.
	Get(ctx context.Context, key models.IndexKey) (index models.RaceIndex, ok bool, err error)

	// Set stores index under key, replacing any previous value
	Set(ctx context.Context, key models.IndexKey, index models.RaceIndex) error

	Close() error
}

// ResolutionLog keeps an audit trail of resolution attempts
type ResolutionLog interface {
	// Record saves one attempt, resolved or not
	Record(ctx context.Context, r models.Resolution) error

	Close() error
}

// NopResolutionLog discards every record. Used when no database is configured.
type NopResolutionLog struct{}

func (NopResolutionLog) Record(context.Context, models.Resolution) error { return nil }

func (NopResolutionLog) Close() error { return nil }
