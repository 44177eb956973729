package dogbutler

import (
	"sync"
	"time"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

var (
	defaultsMu     sync.RWMutex
	defaultCache   KeyValueStore = memstore.New(time.Now)
	defaultCookie  KeyValueStore = memstore.New(time.Now)
	defaultRedirect KeyValueStore = memstore.New(time.Now)
)

// SetDefaultCacheStore replaces the process-wide default store CacheManager
// reads at call time. Pass Disabled to turn caching off entirely.
func SetDefaultCacheStore(s KeyValueStore) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultCache = s
}

// GetDefaultCacheStore returns the current process-wide cache store.
func GetDefaultCacheStore() KeyValueStore {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultCache
}

// SetDefaultCookieStore replaces the process-wide default store
// CookieManager reads at call time. Pass Disabled to turn cookie handling
// off entirely.
func SetDefaultCookieStore(s KeyValueStore) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultCookie = s
}

// GetDefaultCookieStore returns the current process-wide cookie store.
func GetDefaultCookieStore() KeyValueStore {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultCookie
}

// SetDefaultRedirectStore replaces the process-wide default store
// RedirectManager reads at call time. Pass Disabled to turn redirect
// memoization off entirely.
func SetDefaultRedirectStore(s KeyValueStore) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultRedirect = s
}

// GetDefaultRedirectStore returns the current process-wide redirect store.
func GetDefaultRedirectStore() KeyValueStore {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultRedirect
}
