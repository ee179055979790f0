package cache

import (
	"context"
	"errors"
	"time"
)

// Store is the caching capability injected into services. The cache is a
// best-effort side channel, never a source of truth: callers must tolerate
// misses and errors by falling back to the durable store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
