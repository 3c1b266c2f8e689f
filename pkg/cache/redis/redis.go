package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	r "gopkg.in/redis.v5"
)

const prefix = "_CODEOC_"

// Cache is a cache.Cache backed by a shared redis instance. The redis.v5
// client predates context support, so the context is only checked before a
// round trip.
type Cache struct {
	client *r.Client
}

func NewRedisCache(url string) (*Cache, error) {
	opts, err := r.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}

	return &Cache{
		client: r.NewClient(opts),
	}, nil
}

func (c Cache) Get(ctx context.Context, key string, _ time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.client.Get(prefix + key).Bytes()
}

func (c Cache) Set(ctx context.Context, key string, content []byte, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Set(prefix+key, content, duration).Err()
}

// Ping checks the connection.
func (c Cache) Ping() error {
	return c.client.Ping().Err()
}
