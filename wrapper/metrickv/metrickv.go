// Package metrickv wraps a dogbutler.KeyValueStore to record every
// operation's latency and outcome through a metrics.Collector, so any store
// backend can be observed without that backend knowing about metrics.
package metrickv

import (
	"context"
	"time"

	"github.com/vsirisanthana/dogbutler"
	"github.com/vsirisanthana/dogbutler/metrics"
)

// Store wraps inner, reporting every operation to collector under backend.
type Store struct {
	inner     dogbutler.KeyValueStore
	collector metrics.Collector
	backend   string
}

// New wraps inner. backend names the underlying store (e.g. "rediskv") for
// metric labeling.
func New(inner dogbutler.KeyValueStore, collector metrics.Collector, backend string) *Store {
	if collector == nil {
		collector = metrics.DefaultCollector
	}
	return &Store{inner: inner, collector: collector, backend: backend}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.inner.Get(ctx, key)
	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}
	s.collector.RecordStoreOperation("get", s.backend, result, time.Since(start))
	return value, ok, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, value, ttl)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.collector.RecordStoreOperation("set", s.backend, result, time.Since(start))
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.collector.RecordStoreOperation("delete", s.backend, result, time.Since(start))
	return err
}

func (s *Store) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Clear(ctx)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.collector.RecordStoreOperation("clear", s.backend, result, time.Since(start))
	return err
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
