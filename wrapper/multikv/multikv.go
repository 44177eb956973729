// Package multikv provides a multi-tiered dogbutler.KeyValueStore, cascading
// through tiers ordered fastest/smallest first. Reads search each tier in
// order and promote a found value to every faster tier; writes go to every
// tier so slower tiers stay as a durable fallback.
package multikv

import (
	"context"
	"time"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a multi-tiered dogbutler.KeyValueStore.
type Store struct {
	tiers []dogbutler.KeyValueStore
}

// New builds a Store from tiers ordered fastest/smallest to slowest/largest.
// Returns nil if no tiers are given, any tier is nil, or a tier repeats.
func New(tiers ...dogbutler.KeyValueStore) *Store {
	if len(tiers) == 0 {
		return nil
	}
	seen := make(map[dogbutler.KeyValueStore]bool, len(tiers))
	for _, t := range tiers {
		if t == nil || seen[t] {
			return nil
		}
		seen[t] = true
	}
	return &Store{tiers: tiers}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range s.tiers {
		value, ok, err := tier.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			s.promoteToFasterTiers(ctx, key, value, i)
			return value, true, nil
		}
	}
	return nil, false, nil
}

// promoteToFasterTiers writes value, with no further TTL tracking, to every
// tier faster than foundAtTier. A zero ttl here means "no expiry"; callers
// relying on tier-specific TTL behavior should not mix tiers with
// meaningfully different eviction policies.
func (s *Store) promoteToFasterTiers(ctx context.Context, key string, value []byte, foundAtTier int) {
	for i := 0; i < foundAtTier; i++ {
		if err := s.tiers[i].Set(ctx, key, value, 0); err != nil {
			dogbutler.GetLogger().Warn("multikv: promotion failed", "tier", i, "key", key, "error", err)
		}
	}
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	for _, tier := range s.tiers {
		if err := tier.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	for _, tier := range s.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	for _, tier := range s.tiers {
		if err := tier.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
