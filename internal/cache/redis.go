package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisCache stores JSON-encoded values under a key prefix. Redis errors
// are logged and treated as misses so a cache outage never fails a request.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisClient creates a client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisOpTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})
}

// NewRedisCache wraps client. Keys are stored as prefix+key.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCache[T]) key(k string) string {
	return r.prefix + k
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}

func (r *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := opContext()
	defer cancel()

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Redis cache get failed", "key", key, "error", err)
		}
		r.misses.Add(1)
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		r.Delete(key)
		r.misses.Add(1)
		return zero, false
	}
	r.hits.Add(1)
	return v, true
}

func (r *RedisCache[T]) Set(key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Cannot encode cache entry", "key", key, "error", err)
		return
	}
	ctx, cancel := opContext()
	defer cancel()
	if err := r.client.Set(ctx, r.key(key), raw, r.ttl).Err(); err != nil {
		slog.Warn("Redis cache set failed", "key", key, "error", err)
	}
}

func (r *RedisCache[T]) Delete(key string) {
	ctx, cancel := opContext()
	defer cancel()
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		slog.Warn("Redis cache delete failed", "key", key, "error", err)
	}
}

// Size counts the keys under the prefix. It scans the keyspace and is meant
// for diagnostics only.
func (r *RedisCache[T]) Size() int {
	ctx, cancel := opContext()
	defer cancel()

	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Redis cache scan failed", "error", err)
	}
	return n
}

// CleanExpired is a no-op: Redis expires keys itself.
func (r *RedisCache[T]) CleanExpired() int {
	return 0
}

func (r *RedisCache[T]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Ping checks connectivity.
func (r *RedisCache[T]) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
