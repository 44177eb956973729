// Package hazelcastkv is a KeyValueStore backend over a Hazelcast
// distributed map, for multi-node deployments sharing state in memory.
package hazelcastkv

import (
	"context"
	"fmt"
	"time"

	"github.com/hazelcast/hazelcast-go-client"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a dogbutler.KeyValueStore backed by a hazelcast.Map.
type Store struct {
	m *hazelcast.Map
}

func mapKey(key string) string { return "dogbutler:" + key }

// NewWithMap wraps an already-obtained Hazelcast map.
func NewWithMap(m *hazelcast.Map) *Store {
	return &Store{m: m}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.m.Get(ctx, mapKey(key))
	if err != nil {
		return nil, false, fmt.Errorf("hazelcastkv: get %q: %w", key, err)
	}
	if val == nil {
		return nil, false, nil
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 {
		if err := s.m.SetWithTTL(ctx, mapKey(key), value, ttl); err != nil {
			return fmt.Errorf("hazelcastkv: set %q: %w", key, err)
		}
		return nil
	}
	if err := s.m.Set(ctx, mapKey(key), value); err != nil {
		return fmt.Errorf("hazelcastkv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.m.Remove(ctx, mapKey(key)); err != nil {
		return fmt.Errorf("hazelcastkv: delete %q: %w", key, err)
	}
	return nil
}

// Clear empties the entire map. Since this Store shares the map's
// "dogbutler:" prefix with no other namespace convention, Clear assumes it
// owns the whole map.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.m.Clear(ctx); err != nil {
		return fmt.Errorf("hazelcastkv: clear: %w", err)
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
