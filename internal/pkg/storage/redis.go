package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

var _ IndexStore = (*RedisIndexStore)(nil)

const redisKeyPrefix = "netkeiba:index:"

// DefaultRedisTTL bounds how long a day listing is trusted
const DefaultRedisTTL = 12 * time.Hour

// RedisIndexStore shares indexes between bot replicas. Values are JSON objects.
type RedisIndexStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIndexStore connects and pings Redis
func NewRedisIndexStore(addr, password string, db int, ttl time.Duration) (*RedisIndexStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisIndexStore{client: client, ttl: ttl}, nil
}

func redisKey(key models.IndexKey) string {
	return redisKeyPrefix + key.String()
}

func (r *RedisIndexStore) Get(ctx context.Context, key models.IndexKey) (models.RaceIndex, bool, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get index %s: %w", key, err)
	}

	index := models.RaceIndex{}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal index %s: %w", key, err)
	}
	return index, true, nil
}

func (r *RedisIndexStore) Set(ctx context.Context, key models.IndexKey, index models.RaceIndex) error {
	if index == nil {
		index = models.RaceIndex{}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return r.client.Set(ctx, redisKey(key), data, r.ttl).Err()
}

// Close закрывает соединение с Redis
func (r *RedisIndexStore) Close() error {
	return r.client.Close()
}
