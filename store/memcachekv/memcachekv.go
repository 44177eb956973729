// Package memcachekv is a KeyValueStore backend over gomemcache.
package memcachekv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a dogbutler.KeyValueStore backed by a memcache.Client.
type Store struct {
	client *memcache.Client
}

// New connects to the given memcache server addresses.
func New(servers ...string) *Store {
	return &Store{client: memcache.New(servers...)}
}

// NewFromClient wraps an already-configured memcache.Client.
func NewFromClient(client *memcache.Client) *Store {
	return &Store{client: client}
}

func cacheKey(key string) string { return "dogbutler:" + key }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, err := s.client.Get(cacheKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("memcachekv: get %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := &memcache.Item{
		Key:        cacheKey(key),
		Value:      value,
		Expiration: int32(ttl.Seconds()),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("memcachekv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Delete(cacheKey(key)); err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil
		}
		return fmt.Errorf("memcachekv: delete %q: %w", key, err)
	}
	return nil
}

// Clear flushes the entire memcache instance this Store is connected to,
// the only bulk-removal primitive memcache exposes.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteAll(); err != nil {
		return fmt.Errorf("memcachekv: clear: %w", err)
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
