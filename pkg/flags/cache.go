package flags

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	"github.com/codeoc/dashboard/pkg/cache/compressed"
	"github.com/codeoc/dashboard/pkg/cache/memory"
	"github.com/codeoc/dashboard/pkg/cache/redis"
)

// CacheFlags holds caching configuration information for the dashboard.
type CacheFlags struct {
	RedisURL      string
	InMemoryCache bool
}

func NewCacheFlags() *CacheFlags {
	return &CacheFlags{}
}

func (f *CacheFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.RedisURL,
		"redis-url",
		os.Getenv("REDIS_URL"),
		"Redis URL for caching")
	fs.BoolVar(&f.InMemoryCache,
		"in-memory-cache",
		f.InMemoryCache,
		"Cache payloads and reports in process memory when no redis is configured")
}

// GetCacheClient returns the configured cache, or nil when caching is
// disabled. Redis entries are stored compressed.
func (f *CacheFlags) GetCacheClient() (cache.Cache, error) {
	if f.RedisURL != "" {
		c, err := redis.NewRedisCache(f.RedisURL)
		if err != nil {
			return nil, err
		}
		return compressed.NewCompressedCache(c), nil
	}
	if f.InMemoryCache {
		return memory.NewMemoryCache(), nil
	}

	return nil, nil
}
