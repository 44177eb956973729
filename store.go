package dogbutler

import (
	"context"
	"time"
)

// KeyValueStore is the external collaborator every manager persists through:
// a minimal get/set/delete surface supplied by the embedding application.
// A ttl of zero or less
// means the value should be retained indefinitely; callers that need
// time-bounded freshness (the CacheManager) always pass a positive ttl, and
// RedirectManager passes a ten-year ttl, but CookieManager, which tracks its
// own expiry in the stored value, relies on backends honoring a non-positive
// ttl as "no backend-enforced expiry".
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Disabled is a sentinel KeyValueStore: every lookup misses and every write
// is silently dropped, turning off whichever
// manager it's assigned to without special-casing nil anywhere else in the
// pipeline.
var Disabled KeyValueStore = disabledStore{}

type disabledStore struct{}

func (disabledStore) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (disabledStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (disabledStore) Delete(ctx context.Context, key string) error { return nil }
func (disabledStore) Clear(ctx context.Context) error               { return nil }

func namespacedKey(prefix, tag, key string) string {
	return prefix + "." + tag + "." + key
}
