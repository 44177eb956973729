package dogbutler

import (
	"context"
	"testing"
	"time"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

func newTestCacheManager(t *testing.T, now func() time.Time) *CacheManager {
	t.Helper()
	return &CacheManager{Store: memstore.New(now), Prefix: "test", Now: now}
}

func TestCacheLookupMissThenStoreThenHit(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/a", nil, nil)
	if resp, err := mgr.Lookup(ctx, req); err != nil || resp != nil {
		t.Fatalf("Lookup on empty cache = (%v, %v); want (nil, nil)", resp, err)
	}

	resp := &Response{Status: 200, Body: []byte("hello"), URL: req.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})}
	if err := mgr.Store(ctx, req, resp); err != nil {
		t.Fatalf("Store: %v", err)
	}

	req2 := newRequest("GET", "https://example.com/a", nil, nil)
	hit, err := mgr.Lookup(ctx, req2)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit == nil || string(hit.Body) != "hello" {
		t.Fatalf("Lookup = %v; want hit with body 'hello'", hit)
	}
}

func TestCacheStoreDoesNotStripHopByHopFromCallersResponseOnMiss(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/hop", nil, nil)
	resp := &Response{Status: 200, Body: []byte("hello"), URL: req.URL,
		Header: NewHeaders(map[string]string{
			"Cache-Control": "max-age=60",
			"Connection":    "keep-alive",
		})}
	if err := mgr.Store(ctx, req, resp); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if v, ok := resp.Header.Get("Connection"); !ok || v != "keep-alive" {
		t.Fatalf("miss response Connection header = %q, %v; Store must not mutate the caller's Response", v, ok)
	}

	req2 := newRequest("GET", "https://example.com/hop", nil, nil)
	hit, err := mgr.Lookup(ctx, req2)
	if err != nil {
		t.Fatal(err)
	}
	if hit == nil {
		t.Fatal("Lookup = nil; want a fresh hit")
	}
	if hit.Header.Has("Connection") {
		t.Fatal("hit response still carries the Connection header; it should be stripped on hits")
	}
}

func TestCacheLookupInjectsConditionalHeadersAtExactExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/a", nil, nil)
	resp := &Response{Status: 200, Body: []byte("v1"), URL: req.URL,
		Header: NewHeaders(map[string]string{
			"Cache-Control": "max-age=1",
			"ETag":          `"v1"`,
			"Last-Modified": "Wed, 21 Oct 2015 07:28:00 GMT",
		})}
	if err := mgr.Store(ctx, req, resp); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Advance the clock by exactly max-age: per RFC freshness, this instant
	// is stale (CacheManager uses >=), even though a strict-> backend would
	// still physically hold the value.
	clock = clock.Add(1 * time.Second)

	req2 := newRequest("GET", "https://example.com/a", nil, nil)
	hit, err := mgr.Lookup(ctx, req2)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit != nil {
		t.Fatal("Lookup returned a fresh hit at the exact max-age boundary; want stale")
	}
	if v, ok := req2.Header.Get("If-None-Match"); !ok || v != `"v1"` {
		t.Fatalf("If-None-Match = %q, %v; want v1, true", v, ok)
	}
	if v, ok := req2.Header.Get("If-Modified-Since"); !ok || v != "Wed, 21 Oct 2015 07:28:00 GMT" {
		t.Fatalf("If-Modified-Since = %q, %v", v, ok)
	}
	if !req2.injectedConditional["If-None-Match"] || !req2.injectedConditional["If-Modified-Since"] {
		t.Fatal("conditional headers not marked injected")
	}
}

func TestCacheLookupDoesNotOverrideCallerSuppliedConditionalHeader(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/a", nil, nil)
	resp := &Response{Status: 200, Body: []byte("v1"), URL: req.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "max-age=1", "ETag": `"v1"`})}
	_ = mgr.Store(ctx, req, resp)
	clock = clock.Add(1 * time.Second)

	req2 := newRequest("GET", "https://example.com/a", map[string]string{"If-None-Match": `"caller"`}, nil)
	if _, err := mgr.Lookup(ctx, req2); err != nil {
		t.Fatal(err)
	}
	if v, _ := req2.Header.Get("If-None-Match"); v != `"caller"` {
		t.Fatalf("If-None-Match = %q; caller-supplied value was overwritten", v)
	}
	if req2.injectedConditional["If-None-Match"] {
		t.Fatal("caller-supplied header incorrectly marked injected")
	}
}

func TestCacheStoreRejectsNoCacheAndMissingMaxAge(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/b", nil, nil)

	noCache := &Response{Status: 200, Body: []byte("x"), URL: req.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "no-cache, max-age=60"})}
	_ = mgr.Store(ctx, req, noCache)

	noMaxAge := &Response{Status: 200, Body: []byte("x"), URL: req.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "private"})}
	_ = mgr.Store(ctx, req, noMaxAge)

	if hit, _ := mgr.Lookup(ctx, newRequest("GET", req.URL, nil, nil)); hit != nil {
		t.Fatal("non-cacheable response was stored")
	}
}

func TestCacheVaryProducesDistinctEntriesPerVaryingHeader(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	reqGzip := newRequest("GET", "https://example.com/c", map[string]string{"Accept-Encoding": "gzip"}, nil)
	respGzip := &Response{Status: 200, Body: []byte("gzip-body"), URL: reqGzip.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60", "Vary": "Accept-Encoding"})}
	if _, err := mgr.Lookup(ctx, reqGzip); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Store(ctx, reqGzip, respGzip); err != nil {
		t.Fatal(err)
	}

	reqPlain := newRequest("GET", "https://example.com/c", map[string]string{"Accept-Encoding": "identity"}, nil)
	if _, err := mgr.Lookup(ctx, reqPlain); err != nil {
		t.Fatal(err)
	}
	hitPlain, err := mgr.Lookup(ctx, reqPlain)
	if err != nil {
		t.Fatal(err)
	}
	if hitPlain != nil {
		t.Fatal("different Vary-named header value incorrectly hit the gzip entry")
	}

	hitGzip, err := mgr.Lookup(ctx, newRequest("GET", "https://example.com/c", map[string]string{"Accept-Encoding": "gzip"}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if hitGzip == nil || string(hitGzip.Body) != "gzip-body" {
		t.Fatalf("matching Vary value = %v; want gzip-body hit", hitGzip)
	}
}

func TestCacheMerge304MergesHeadersAndKeepsOldValidators(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/d", nil, nil)
	original := &Response{Status: 200, Body: []byte("original"), URL: req.URL,
		Header: NewHeaders(map[string]string{
			"Cache-Control": "max-age=60",
			"ETag":          `"e1"`,
			"X-Custom":      "old",
		})}
	if err := mgr.Store(ctx, req, original); err != nil {
		t.Fatal(err)
	}

	notModified := &Response{Status: 304, URL: req.URL,
		Header: NewHeaders(map[string]string{"Cache-Control": "max-age=120", "X-Custom": "new"})}
	merged, found, err := mgr.Merge304(ctx, req, notModified)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("Merge304 found = false; want true")
	}
	if string(merged.Body) != "original" {
		t.Fatalf("merged.Body = %q; want original body preserved", merged.Body)
	}
	if v, _ := merged.Header.Get("X-Custom"); v != "new" {
		t.Fatalf("X-Custom = %q; fresh header should win", v)
	}
	if v, _ := merged.Header.Get("ETag"); v != `"e1"` {
		t.Fatalf("ETag = %q; old validator should survive a 304 that omits it", v)
	}
}

func TestCacheMerge304NotFoundWhenEntryEvicted(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	mgr := newTestCacheManager(t, func() time.Time { return clock })

	req := newRequest("GET", "https://example.com/e", nil, nil)
	notModified := &Response{Status: 304, URL: req.URL, Header: NewHeaders(nil)}
	_, found, err := mgr.Merge304(ctx, req, notModified)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("Merge304 found = true on an empty cache; want false")
	}
}
