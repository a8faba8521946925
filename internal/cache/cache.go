package cache

import (
	"context"
	"time"
)

// Cache is a JSON document store with optional expiry. ttl <= 0 means no
// expiry.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
