// Package freecachekv is a zero-GC-overhead, in-process KeyValueStore
// backend over coocood/freecache, for very high entry counts where
// store/memstore's plain map would pressure the garbage collector.
package freecachekv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a dogbutler.KeyValueStore backed by a freecache.Cache.
type Store struct {
	cache *freecache.Cache
}

// New creates a Store with the given cache size in bytes.
func New(sizeBytes int) *Store {
	return &Store{cache: freecache.NewCache(sizeBytes)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("freecachekv: get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.cache.Set([]byte(key), value, int(ttl.Seconds())); err != nil {
		return fmt.Errorf("freecachekv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

// Clear drops every entry in the underlying cache.
func (s *Store) Clear(ctx context.Context) error {
	s.cache.Clear()
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
