package storage

import (
	"fmt"

	"github.com/Vodeneev/keibabot/internal/pkg/config"
)

// OpenIndexStore builds the index store selected by cfg.Backend
func OpenIndexStore(cfg *config.CacheConfig) (IndexStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryIndexStore(cfg.TTL), nil
	case "redis":
		ttl := cfg.TTL
		if ttl <= 0 {
			ttl = DefaultRedisTTL
		}
		return NewRedisIndexStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// OpenResolutionLog connects to Postgres when a DSN is configured and
// otherwise returns a log that discards everything.
func OpenResolutionLog(cfg *config.PostgresConfig) (ResolutionLog, error) {
	if cfg.DSN == "" {
		return NopResolutionLog{}, nil
	}
	return NewPostgresResolutionLog(cfg.DSN)
}
