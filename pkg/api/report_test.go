package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	"github.com/codeoc/dashboard/pkg/apis/cache"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/cache/memory"
)

func TestBuildReport(t *testing.T) {
	ds := fixtureDataset(t)

	report, err := BuildReport(ds, ReportOptions{TopN: 1})
	require.NoError(t, err)
	assert.Equal(t, ds.LoadedAt, report.DataLoadedAt)
	assert.Equal(t, 5, report.Global.TotalChats)
	assert.Len(t, report.DTCs, 1)
	assert.Len(t, report.MostActiveUsers, 1)
	assert.Len(t, report.Workshops, 2, "workshops are not limited")
	assert.Empty(t, report.Errors)
	assert.Equal(t, ds.Warnings, report.Warnings)
	require.NotNil(t, report.LoginBounds)

	inverted := &apitype.DateRange{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	report, err = BuildReport(ds, ReportOptions{Range: inverted})
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "must be before or the same as")
	assert.Len(t, report.MostActiveUsers, 4)

	_, err = BuildReport(nil, ReportOptions{})
	assert.ErrorIs(t, err, v1.ErrNoData)
}

type countingCache struct {
	*memory.Cache
	sets int
}

func (c *countingCache) Set(ctx context.Context, key string, content []byte, duration time.Duration) error {
	c.sets++
	return c.Cache.Set(ctx, key, content, duration)
}

func TestCachedReport(t *testing.T) {
	ctx := context.Background()
	ds := fixtureDataset(t)
	c := &countingCache{Cache: memory.NewMemoryCache()}

	first, err := CachedReport(ctx, c, ds, ReportOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	second, err := CachedReport(ctx, c, ds, ReportOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets, "second call is served from the cache")
	assert.Equal(t, first.Global, second.Global)
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))

	_, err = CachedReport(ctx, c, ds, ReportOptions{TopN: 3}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, c.sets, "different options are cached separately")

	_, err = CachedReport(ctx, c, ds, ReportOptions{}, true)
	require.NoError(t, err)
	assert.Equal(t, 3, c.sets, "forced refresh regenerates")

	uncached, err := CachedReport(ctx, nil, ds, ReportOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, first.Global, uncached.Global)

	_, err = CachedReport(ctx, c, nil, ReportOptions{}, false)
	assert.ErrorIs(t, err, v1.ErrNoData)
}

func TestCacheKeyValidation(t *testing.T) {
	generate := func() (int, error) { return 1, nil }
	assert.Panics(t, func() {
		_, _ = getDataFromCacheOrGenerate[int](context.Background(), nil, cache.RequestOptions{}, "", generate, 0)
	})
	assert.Panics(t, func() {
		_, _ = getDataFromCacheOrGenerate[int](context.Background(), nil, cache.RequestOptions{}, struct{ unexported int }{}, generate, 0)
	})
}
