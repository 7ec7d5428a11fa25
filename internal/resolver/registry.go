package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

// Strategy matches one race against netkeiba indexes.
// On success it fills res.RaceID and res.Tier and returns true.
type Strategy interface {
	Name() string
	Match(ctx context.Context, ref models.RaceRef, d models.Descriptor, res *models.Resolution) bool
}

type Factory func(cache *IndexCache) Strategy

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a strategy available under name. Called from init.
func Register(name string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("resolver: empty name in Register")
	}
	if f == nil {
		panic("resolver: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("resolver: duplicate registration for " + n)
	}
	registry[n] = f
}

func FactoryByName(name string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newStrategy(name string, cache *IndexCache) (Strategy, error) {
	f, ok := FactoryByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown resolution strategy %q (available: %v)", name, AvailableNames())
	}
	return f(cache), nil
}
