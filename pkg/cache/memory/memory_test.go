package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "missing", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	got, err := c.Get(ctx, "key", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, c.Set(ctx, "short", []byte("value"), time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short", time.Minute)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
