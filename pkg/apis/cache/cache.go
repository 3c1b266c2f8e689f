package cache

import (
	"context"
	"time"
)

// Cache stores opaque payloads under a key. Get takes the freshness the
// caller expects so implementations that cannot expire entries on write can
// enforce it on read.
type Cache interface {
	Get(ctx context.Context, key string, duration time.Duration) ([]byte, error)
	Set(ctx context.Context, key string, content []byte, duration time.Duration) error
}

type RequestOptions struct {
	ForceRefresh bool
}
