package resolver

import (
	"context"
	"sync"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

type attemptsKey struct{}

// failedFetches remembers listings whose fetch failed in a transient way
// during one user action. It is never shared across actions.
type failedFetches struct {
	mu   sync.Mutex
	keys map[models.IndexKey]struct{}
}

// WithAttempts scopes ctx to one user action: a listing whose fetch failed
// with a transport error is not fetched again under the returned context.
// Lookups under a context without the scope retry on every call.
func WithAttempts(ctx context.Context) context.Context {
	if failedFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, attemptsKey{}, &failedFetches{keys: map[models.IndexKey]struct{}{}})
}

func failedFrom(ctx context.Context) *failedFetches {
	f, _ := ctx.Value(attemptsKey{}).(*failedFetches)
	return f
}

func (f *failedFetches) has(key models.IndexKey) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

func (f *failedFetches) add(key models.IndexKey) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.keys[key] = struct{}{}
	f.mu.Unlock()
}
