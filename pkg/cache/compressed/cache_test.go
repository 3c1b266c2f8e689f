package compressed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pseudoCache struct {
	cache map[string][]byte
}

func (c *pseudoCache) Get(_ context.Context, key string, _ time.Duration) ([]byte, error) {
	return c.cache[key], nil
}

func (c *pseudoCache) Set(_ context.Context, key string, content []byte, _ time.Duration) error {
	c.cache[key] = content
	return nil
}

const payload = `[{"chat_id": "c1", "user_id": "u1", "messages": [{"role": "user", "content": "engine light is on"}]},` +
	`{"chat_id": "c2", "user_id": "u1", "messages": [{"role": "user", "content": "engine light is on again"}]}]`

func TestCompressedCache(t *testing.T) {
	backing := &pseudoCache{cache: map[string][]byte{}}
	c := NewCompressedCache(backing)

	require.NoError(t, c.Set(context.TODO(), "conversations", []byte(payload), time.Hour))
	assert.Contains(t, backing.cache, cachePrefix+"conversations")

	got, err := c.Get(context.TODO(), "conversations", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestCompressedCacheRejectsCorruptEntries(t *testing.T) {
	backing := &pseudoCache{cache: map[string][]byte{}}
	c := NewCompressedCache(backing)

	backing.cache[cachePrefix+"short"] = []byte("abc")
	_, err := c.Get(context.TODO(), "short", time.Hour)
	assert.Error(t, err)

	require.NoError(t, c.Set(context.TODO(), "flipped", []byte(payload), time.Hour))
	stored := backing.cache[cachePrefix+"flipped"]
	stored[len(stored)-1] ^= 0xff
	_, err = c.Get(context.TODO(), "flipped", time.Hour)
	assert.Error(t, err)
}

func TestCompressedCacheSkipsEmptyPayload(t *testing.T) {
	backing := &pseudoCache{cache: map[string][]byte{}}
	require.NoError(t, NewCompressedCache(backing).Set(context.TODO(), "empty", nil, time.Hour))
	assert.Empty(t, backing.cache)
}

func TestCompression(t *testing.T) {
	compressed, checksum, err := compress([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, compressed)

	uncompressed, err := uncompress(compressed, checksum)
	require.NoError(t, err)
	assert.Equal(t, payload, string(uncompressed))
}
