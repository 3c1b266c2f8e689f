// Package dataloader fetches the user and conversation exports from object
// storage and turns them into a Dataset.
package dataloader

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/joiner"
)

const (
	DefaultUsersKey         = "latest/user_stats.json.gz"
	DefaultConversationsKey = "latest/user_conversations.json.gz"
)

// ErrNotFound is returned by a Source when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Source fetches a raw object by key.
type Source interface {
	// Name returns a friendly name identifier
	Name() string

	Fetch(ctx context.Context, key string) ([]byte, error)
}

var loadMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "codeoc_dashboard_data_load_millis",
	Help:    "Milliseconds to fetch and build the dashboard dataset",
	Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
}, []string{"source"})

var loadErrorMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "codeoc_dashboard_data_load_errors_total",
	Help: "Failed attempts to fetch and build the dashboard dataset",
}, []string{"source"})

// Loader fetches both exports from a Source. Decoded payloads are optionally
// kept in a cache shared between replicas.
type Loader struct {
	Source           Source
	UsersKey         string
	ConversationsKey string

	Cache         cache.Cache
	CacheDuration time.Duration
}

func NewLoader(source Source, usersKey, conversationsKey string) *Loader {
	if usersKey == "" {
		usersKey = DefaultUsersKey
	}
	if conversationsKey == "" {
		conversationsKey = DefaultConversationsKey
	}
	return &Loader{
		Source:           source,
		UsersKey:         usersKey,
		ConversationsKey: conversationsKey,
	}
}

// Load fetches both collections concurrently and builds the dataset. With
// ForceRefresh set the payload cache is bypassed and overwritten.
func (l *Loader) Load(ctx context.Context, opts cache.RequestOptions) (*v1.Dataset, error) {
	start := time.Now()
	ds, err := l.load(ctx, opts)
	if err != nil {
		loadErrorMetric.WithLabelValues(l.Source.Name()).Inc()
		return nil, err
	}
	elapsed := time.Since(start)
	loadMetric.WithLabelValues(l.Source.Name()).Observe(float64(elapsed.Milliseconds()))
	log.WithFields(log.Fields{
		"source":  l.Source.Name(),
		"elapsed": elapsed,
	}).Info("dataset loaded")
	return ds, nil
}

func (l *Loader) load(ctx context.Context, opts cache.RequestOptions) (*v1.Dataset, error) {
	var users []v1.UserRecord
	var convs []v1.ConversationRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.fetchJSON(gctx, l.UsersKey, opts, &users)
	})
	g.Go(func() error {
		return l.fetchJSON(gctx, l.ConversationsKey, opts, &convs)
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errors.WithMessage(v1.ErrNoData, err.Error())
		}
		return nil, err
	}

	return joiner.BuildDataset(users, convs)
}

func (l *Loader) fetchJSON(ctx context.Context, key string, opts cache.RequestOptions, into interface{}) error {
	data, err := l.fetch(ctx, key, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return errors.Wrapf(err, "could not decode %s", key)
	}
	return nil
}

// fetch returns the decompressed payload for key, consulting the cache first
// unless a refresh is forced.
func (l *Loader) fetch(ctx context.Context, key string, opts cache.RequestOptions) ([]byte, error) {
	cacheKey := l.Source.Name() + ":" + key
	if l.Cache != nil && !opts.ForceRefresh {
		if data, err := l.Cache.Get(ctx, cacheKey, l.CacheDuration); err == nil {
			log.WithField("key", key).Debug("payload served from cache")
			return data, nil
		}
	}

	raw, err := l.Source.Fetch(ctx, key)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not fetch %s from %s", key, l.Source.Name())
	}
	data, err := Decompress(key, raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not decompress %s", key)
	}

	if l.Cache != nil {
		if err := l.Cache.Set(ctx, cacheKey, data, l.CacheDuration); err != nil {
			log.WithError(err).WithField("key", key).Warning("couldn't persist payload to cache")
		}
	}
	return data, nil
}

// Decompress gunzips payloads whose key ends in .gz or that start with the
// gzip magic number. Anything else is returned as is.
func Decompress(key string, data []byte) ([]byte, error) {
	if !strings.HasSuffix(key, ".gz") && !isGzip(data) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}
