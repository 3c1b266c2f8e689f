// Package memory provides a process local cache.Cache for single replica
// deployments and tests.
package memory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	utilcache "k8s.io/apimachinery/pkg/util/cache"
)

var ErrNotFound = errors.New("cache miss")

type Cache struct {
	entries *utilcache.Expiring
}

func NewMemoryCache() *Cache {
	return &Cache{entries: utilcache.NewExpiring()}
}

func (c *Cache) Get(_ context.Context, key string, _ time.Duration) ([]byte, error) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	content, ok := v.([]byte)
	if !ok {
		return nil, errors.Errorf("unexpected cache entry type %T", v)
	}
	return content, nil
}

func (c *Cache) Set(_ context.Context, key string, content []byte, duration time.Duration) error {
	c.entries.Set(key, content, duration)
	return nil
}
