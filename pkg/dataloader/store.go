package dataloader

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

const DefaultFreshness = 60 * time.Second

// DatasetLoader builds a new dataset. *Loader implements it.
type DatasetLoader interface {
	Load(ctx context.Context, opts cache.RequestOptions) (*v1.Dataset, error)
}

// Store holds the current dataset and reloads it once it is older than the
// freshness window. Datasets are immutable, so callers may share the returned
// pointer across goroutines; a reload swaps in a new one.
type Store struct {
	loader    DatasetLoader
	freshness time.Duration
	now       func() time.Time

	mu      sync.Mutex
	current *v1.Dataset

	// attemptedAt is the time of the last load attempt, successful or not.
	attemptedAt time.Time

	listeners []func(*v1.Dataset)
}

func NewStore(loader DatasetLoader, freshness time.Duration) *Store {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Store{
		loader:    loader,
		freshness: freshness,
		now:       time.Now,
	}
}

// OnLoad registers a function called with every newly loaded dataset.
func (s *Store) OnLoad(fn func(*v1.Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the current dataset, reloading it when it is stale. When a
// reload fails and an older dataset exists, the older one is served and the
// failure only logged; the next attempt waits for another freshness window.
func (s *Store) Get(ctx context.Context) (*v1.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.now().Sub(s.attemptedAt) < s.freshness {
		return s.current, nil
	}
	ds, err := s.reload(ctx, cache.RequestOptions{})
	if err != nil {
		if s.current != nil {
			log.WithError(err).Warning("reload failed, serving previous dataset")
			return s.current, nil
		}
		return nil, err
	}
	return ds, nil
}

// Refresh reloads the dataset from the source regardless of its age,
// bypassing any payload cache.
func (s *Store) Refresh(ctx context.Context) (*v1.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx, cache.RequestOptions{ForceRefresh: true})
}

// Current returns the loaded dataset without triggering a reload. It is nil
// before the first successful load.
func (s *Store) Current() *v1.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) reload(ctx context.Context, opts cache.RequestOptions) (*v1.Dataset, error) {
	ds, err := s.loader.Load(ctx, opts)
	s.attemptedAt = s.now()
	if err != nil {
		return nil, err
	}
	s.current = ds
	for _, fn := range s.listeners {
		fn(ds)
	}
	return ds, nil
}
