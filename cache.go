package dogbutler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"
)

// cacheEntry is the persisted form of a cached response, stored as JSON
// under either the base key or a Vary-derived content key.
type cacheEntry struct {
	Status       int
	Body         []byte
	Header       []HeaderField
	URL          string
	History      []HistoryEntry
	StoredAt     time.Time
	TTLSeconds   int
	Varying      []string
	ETag         string
	LastModified string
}

func entryFromResponse(resp *Response, storedAt time.Time, ttlSeconds int, varying []string) *cacheEntry {
	return &cacheEntry{
		Status:       resp.Status,
		Body:         resp.Body,
		Header:       resp.Header.Clone().fields,
		URL:          resp.URL,
		History:      resp.History,
		StoredAt:     storedAt,
		TTLSeconds:   ttlSeconds,
		Varying:      varying,
		ETag:         resp.Header.GetOrEmpty("ETag"),
		LastModified: resp.Header.GetOrEmpty("Last-Modified"),
	}
}

func (e *cacheEntry) toResponse() *Response {
	return &Response{
		Status:  e.Status,
		Body:    e.Body,
		Header:  Headers{fields: e.Header}.Clone(),
		URL:     e.URL,
		History: e.History,
	}
}

// CacheManager implements RFC-2616-style lookup, store, and 304-merge over
// a KeyValueStore, keyed under one Session's prefix.
type CacheManager struct {
	Store  KeyValueStore
	Prefix string
	Now    func() time.Time
}

func (m *CacheManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *CacheManager) varyKey(base string) string {
	return namespacedKey(m.Prefix, "cache.vary", base)
}

func (m *CacheManager) entryKey(contentKey string) string {
	return namespacedKey(m.Prefix, "cache.entry", contentKey)
}

// Lookup returns a cached Response on a fresh hit, or nil with the request
// mutated to carry conditional headers when a stale-but-validatable entry
// was found.
func (m *CacheManager) Lookup(ctx context.Context, req *Request) (*Response, error) {
	if req.Method != "GET" {
		req.updateCacheAllowed = false
		return nil, nil
	}
	req.updateCacheAllowed = true

	if requestHasNoCache(req.Header) {
		return nil, nil
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, nil
	}
	base := cacheBaseKey(req.Method, u)

	varying, hasVary, err := m.loadVaryIndex(ctx, base)
	if err != nil {
		GetLogger().Warn("cache: failed to read vary index, treating as miss", slog.Any("error", err))
	}

	ck := base
	if hasVary {
		ck = contentKey(base, varying, req.Header)
	}

	entry, found, err := m.loadEntry(ctx, ck)
	if err != nil {
		GetLogger().Warn("cache: failed to read entry, treating as miss", slog.Any("error", err))
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	if m.now().Sub(entry.StoredAt) < time.Duration(entry.TTLSeconds)*time.Second {
		resp := entry.toResponse()
		stripHopByHop(&resp.Header)
		return resp, nil
	}

	if entry.ETag != "" {
		if _, ok := req.Header.Get("If-None-Match"); !ok {
			req.Header.Set("If-None-Match", entry.ETag)
			req.markInjected("If-None-Match")
		}
	}
	if entry.LastModified != "" {
		if _, ok := req.Header.Get("If-Modified-Since"); !ok {
			req.Header.Set("If-Modified-Since", entry.LastModified)
			req.markInjected("If-Modified-Since")
		}
	}
	return nil, nil
}

// Store saves a cacheable response. It's a no-op for non-cacheable
// responses and for any request the Lookup gate disallowed.
func (m *CacheManager) Store(ctx context.Context, req *Request, resp *Response) error {
	if !req.updateCacheAllowed {
		return nil
	}
	maxAge, cacheable := parseResponseCacheControl(resp.Header)
	if !cacheable {
		return nil
	}

	// Persist a clone so stripping hop-by-hop headers for storage doesn't
	// also strip them from the *Response the caller is about to receive.
	stored := resp.clone()
	stripHopByHop(&stored.Header)

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil
	}
	base := cacheBaseKey(req.Method, u)
	varying := varyNames(stored.Header)

	if len(varying) == 0 {
		_ = m.Store.Delete(ctx, m.varyKey(base))
		entry := entryFromResponse(stored, m.now(), maxAge, nil)
		return m.saveEntry(ctx, base, entry, maxAge)
	}

	if err := m.saveVaryIndex(ctx, base, varying, maxAge); err != nil {
		GetLogger().Warn("cache: failed to store vary index", slog.Any("error", err))
	}
	ck := contentKey(base, varying, req.Header)
	entry := entryFromResponse(stored, m.now(), maxAge, varying)
	return m.saveEntry(ctx, ck, entry, maxAge)
}

// Merge304 merges a 304 response's fresh headers onto the cached entry that
// validated it. found=false means no cached entry survived between the
// conditional request and the 304 response; the pipeline must strip its
// injected conditional headers and retry unconditionally.
func (m *CacheManager) Merge304(ctx context.Context, req *Request, resp *Response) (*Response, bool, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, false, nil
	}
	base := cacheBaseKey(req.Method, u)

	varying, hasVary, _ := m.loadVaryIndex(ctx, base)
	ck := base
	if hasVary {
		ck = contentKey(base, varying, req.Header)
	}

	entry, found, err := m.loadEntry(ctx, ck)
	if err != nil || !found {
		return nil, false, nil
	}

	merged := entry.toResponse()
	merged.Status = entry.Status
	for _, name := range resp.Header.Names() {
		val, _ := resp.Header.Get(name)
		merged.Header.Set(name, val)
	}
	stripHopByHop(&merged.Header)

	newETag := merged.Header.GetOrEmpty("ETag")
	if newETag == "" {
		newETag = entry.ETag
	}
	newLastModified := merged.Header.GetOrEmpty("Last-Modified")
	if newLastModified == "" {
		newLastModified = entry.LastModified
	}

	if maxAge, cacheable := parseResponseCacheControl(merged.Header); cacheable {
		newEntry := entryFromResponse(merged, m.now(), maxAge, entry.Varying)
		newEntry.ETag = newETag
		newEntry.LastModified = newLastModified
		if err := m.saveEntry(ctx, ck, newEntry, maxAge); err != nil {
			GetLogger().Warn("cache: failed to re-store merged 304 entry", slog.Any("error", err))
		}
	}

	return merged, true, nil
}

func (m *CacheManager) saveVaryIndex(ctx context.Context, base string, names []string, maxAge int) error {
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return m.Store.Set(ctx, m.varyKey(base), data, time.Duration(maxAge)*time.Second)
}

func (m *CacheManager) loadVaryIndex(ctx context.Context, base string) ([]string, bool, error) {
	data, ok, err := m.Store.Get(ctx, m.varyKey(base))
	if err != nil || !ok {
		return nil, false, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, false, err
	}
	return names, true, nil
}

func (m *CacheManager) saveEntry(ctx context.Context, key string, e *cacheEntry, maxAge int) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return m.Store.Set(ctx, m.entryKey(key), data, time.Duration(maxAge)*time.Second)
}

func (m *CacheManager) loadEntry(ctx context.Context, key string) (*cacheEntry, bool, error) {
	data, ok, err := m.Store.Get(ctx, m.entryKey(key))
	if err != nil || !ok {
		return nil, false, err
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}
