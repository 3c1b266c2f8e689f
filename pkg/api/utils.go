package api

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	log "github.com/sirupsen/logrus"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	"github.com/codeoc/dashboard/pkg/apis/cache"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

var defaultCacheDuration = time.Hour

// getDataFromCacheOrGenerate returns the cached result for cacheKey or
// generates and caches a new one. A nil cache always generates.
func getDataFromCacheOrGenerate[T any](ctx context.Context, c cache.Cache, cacheOptions cache.RequestOptions, cacheKey interface{}, generateFn func() (T, error), defaultVal T) (T, error) {
	// uncacheable keys are programming errors, so they should fail loudly in tests
	if isStructWithNoPublicFields(cacheKey) {
		panic(fmt.Sprintf("you cannot use struct %s with no exported fields as a cache key", reflect.TypeOf(cacheKey)))
	} else if cacheKey == "" {
		panic(fmt.Sprintf("you cannot use empty string as a cache key for %s", reflect.TypeOf(defaultVal)))
	} else if cacheKey == nil {
		panic(fmt.Sprintf("cache key is nil for %s", reflect.TypeOf(defaultVal)))
	}

	if c == nil {
		return generateFn()
	}

	jsonCacheKey, err := json.Marshal(cacheKey)
	if err != nil {
		return defaultVal, err
	}
	key := string(jsonCacheKey)

	if !cacheOptions.ForceRefresh {
		if res, err := c.Get(ctx, key, defaultCacheDuration); err == nil {
			log.WithFields(log.Fields{
				"key":  key,
				"type": reflect.TypeOf(defaultVal).String(),
			}).Debug("cache hit")
			var cr T
			if err := json.Unmarshal(res, &cr); err != nil {
				return defaultVal, err
			}
			return cr, nil
		}
		log.WithField("key", key).Debug("cache miss")
	}

	result, err := generateFn()
	if err != nil {
		return result, err
	}
	if cr, err := json.Marshal(result); err == nil {
		if err := c.Set(ctx, key, cr, defaultCacheDuration); err != nil {
			log.WithError(err).Warning("couldn't persist new item to cache")
		}
	}
	return result, nil
}

// isStructWithNoPublicFields checks if the given interface is a struct with no public fields.
func isStructWithNoPublicFields(v interface{}) bool {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < val.NumField(); i++ {
		if val.Type().Field(i).IsExported() {
			return false
		}
	}
	return true
}

type reportCacheKey struct {
	LoadedAt time.Time     `json:"loaded_at"`
	Options  ReportOptions `json:"options"`
}

// CachedReport returns the report for the dataset from the cache, building
// and storing it on a miss. Reports are keyed by the dataset load time, so a
// reload never serves a stale report.
func CachedReport(ctx context.Context, c cache.Cache, ds *v1.Dataset, opts ReportOptions, forceRefresh bool) (apitype.Report, error) {
	if ds == nil {
		return apitype.Report{}, v1.ErrNoData
	}
	key := reportCacheKey{LoadedAt: ds.LoadedAt, Options: opts}
	return getDataFromCacheOrGenerate[apitype.Report](ctx, c, cache.RequestOptions{ForceRefresh: forceRefresh}, key, func() (apitype.Report, error) {
		return BuildReport(ds, opts)
	}, apitype.Report{})
}
