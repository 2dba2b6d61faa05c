package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Options selects and sizes a cache.
type Options struct {
	// Backend is "none", "memory" or "redis".
	Backend   string
	Size      int
	TTL       time.Duration
	RedisAddr string
	// Prefix namespaces redis keys.
	Prefix string
}

// Built is a cache together with the hooks its owner needs.
type Built[T any] struct {
	Cache   Cache[T]
	Cleaner Cleaner
	Close   func() error
}

func noClose() error { return nil }

// Build creates the cache described by opts. An unreachable Redis server
// falls back to an in-process LRU of opts.Size entries.
func Build[T any](ctx context.Context, opts Options) (Built[T], error) {
	switch opts.Backend {
	case "", "none":
		return Built[T]{Close: noClose}, nil
	case "memory":
		lru := NewLRUCache[T](opts.Size, opts.TTL)
		return Built[T]{Cache: lru, Cleaner: lru, Close: noClose}, nil
	case "redis":
		client := NewRedisClient(opts.RedisAddr)
		rc := NewRedisCache[T](client, opts.Prefix, opts.TTL)
		if err := rc.Ping(ctx); err != nil {
			client.Close()
			slog.WarnContext(ctx, "Redis unavailable, using in-process cache", "addr", opts.RedisAddr, "error", err)
			size := opts.Size
			if size < 1 {
				size = 1000
			}
			lru := NewLRUCache[T](size, opts.TTL)
			return Built[T]{Cache: lru, Cleaner: lru, Close: noClose}, nil
		}
		return Built[T]{Cache: rc, Cleaner: rc, Close: client.Close}, nil
	default:
		return Built[T]{}, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
