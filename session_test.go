package dogbutler

import (
	"context"
	"testing"
	"time"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

// fakeTransport replays a scripted sequence of responses, one per Do call,
// and records every request it was asked to execute.
type fakeTransport struct {
	responses []*Response
	calls     []*Request
}

func (f *fakeTransport) Do(_ context.Context, req *Request) (*Response, error) {
	f.calls = append(f.calls, req)
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		return &Response{Status: 200, URL: req.URL, Header: NewHeaders(nil)}, nil
	}
	return f.responses[i], nil
}

type fakeQueue struct {
	got []*Response
}

func (q *fakeQueue) Put(resp *Response) { q.got = append(q.got, resp) }

func TestSessionDoCachesAndServesHitWithoutHittingTransport(t *testing.T) {
	clock := time.Now()
	transport := &fakeTransport{responses: []*Response{
		{Status: 200, Body: []byte("payload"), URL: "https://example.com/a",
			Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})},
	}}
	session := NewSession(transport, WithClock(func() time.Time { return clock }),
		WithStores(memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock })))

	ctx := context.Background()
	first, err := session.Get(ctx, "https://example.com/a", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Body) != "payload" {
		t.Fatalf("first.Body = %q; want payload", first.Body)
	}

	second, err := session.Get(ctx, "https://example.com/a", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Body) != "payload" {
		t.Fatalf("second.Body = %q; want payload", second.Body)
	}
	if len(transport.calls) != 1 {
		t.Fatalf("transport called %d times; want exactly 1 (second GET should hit cache)", len(transport.calls))
	}
}

func TestSessionDoRevalidatesOnStaleWith304Merge(t *testing.T) {
	clock := time.Now()
	transport := &fakeTransport{responses: []*Response{
		{Status: 200, Body: []byte("v1"), URL: "https://example.com/b",
			Header: NewHeaders(map[string]string{"Cache-Control": "max-age=1", "ETag": `"e1"`})},
		{Status: 304, URL: "https://example.com/b", Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})},
	}}
	session := NewSession(transport, WithClock(func() time.Time { return clock }),
		WithStores(memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock })))

	ctx := context.Background()
	if _, err := session.Get(ctx, "https://example.com/b", nil); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(1 * time.Second)
	second, err := session.Get(ctx, "https://example.com/b", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Body) != "v1" {
		t.Fatalf("second.Body = %q; want v1 carried over from the 304 merge", second.Body)
	}
	if len(transport.calls) != 2 {
		t.Fatalf("transport called %d times; want 2 (initial fetch + revalidation)", len(transport.calls))
	}
	if v, ok := transport.calls[1].Header.Get("If-None-Match"); !ok || v != `"e1"` {
		t.Fatalf("revalidation request If-None-Match = %q, %v; want e1, true", v, ok)
	}
}

func TestSessionDoQueuesNonGETResponse(t *testing.T) {
	clock := time.Now()
	transport := &fakeTransport{responses: []*Response{
		{Status: 200, Body: []byte("x"), URL: "https://example.com/c", Header: NewHeaders(nil)},
	}}
	session := NewSession(transport, WithClock(func() time.Time { return clock }),
		WithStores(memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock })))

	q := &fakeQueue{}
	ctx := context.Background()
	if _, err := session.Post(ctx, "https://example.com/c", &RequestOptions{Queue: q}); err != nil {
		t.Fatal(err)
	}
	if len(q.got) != 1 {
		t.Fatalf("queue received %d responses; want 1", len(q.got))
	}
}

func TestSessionDoReactsToDefaultCacheStoreSwappedMidLifetime(t *testing.T) {
	originalCache := GetDefaultCacheStore()
	originalCookie := GetDefaultCookieStore()
	originalRedirect := GetDefaultRedirectStore()
	defer func() {
		SetDefaultCacheStore(originalCache)
		SetDefaultCookieStore(originalCookie)
		SetDefaultRedirectStore(originalRedirect)
	}()

	clock := time.Now()
	transport := &fakeTransport{responses: []*Response{
		{Status: 200, Body: []byte("v1"), URL: "https://example.com/default-swap",
			Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})},
		{Status: 200, Body: []byte("v2"), URL: "https://example.com/default-swap",
			Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})},
	}}
	// No WithStores: this session must keep reading whatever the process-wide
	// defaults are at call time (session.go's resolveStores).
	session := NewSession(transport, WithClock(func() time.Time { return clock }), WithKeyPrefix("default-swap-test"))
	SetDefaultCacheStore(memstore.New(func() time.Time { return clock }))
	SetDefaultCookieStore(memstore.New(func() time.Time { return clock }))
	SetDefaultRedirectStore(memstore.New(func() time.Time { return clock }))

	ctx := context.Background()
	first, err := session.Get(ctx, "https://example.com/default-swap", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Body) != "v1" {
		t.Fatalf("first.Body = %q; want v1", first.Body)
	}

	// Swap in a fresh, empty default cache store mid-lifetime, mirroring
	// test_set_default_cache: the next call must see the new store, not a
	// cached entry from the old one.
	SetDefaultCacheStore(memstore.New(func() time.Time { return clock }))

	second, err := session.Get(ctx, "https://example.com/default-swap", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Body) != "v2" {
		t.Fatalf("second.Body = %q; want v2 (a miss against the freshly-swapped default store)", second.Body)
	}
	if len(transport.calls) != 2 {
		t.Fatalf("transport called %d times; want 2, since swapping the default cache store mid-lifetime should force a second fetch", len(transport.calls))
	}

	// Disabling the default cache store entirely (test_disable_default_cache)
	// must make every subsequent call a miss too.
	SetDefaultCacheStore(Disabled)
	transport.responses = append(transport.responses, &Response{Status: 200, Body: []byte("v3"),
		URL: "https://example.com/default-swap", Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60"})})

	third, err := session.Get(ctx, "https://example.com/default-swap", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(third.Body) != "v3" {
		t.Fatalf("third.Body = %q; want v3 (Disabled default store must never serve a hit)", third.Body)
	}
	if len(transport.calls) != 3 {
		t.Fatalf("transport called %d times; want 3 once the default cache store is Disabled", len(transport.calls))
	}
}

func TestSessionNonGETBypassesManagers(t *testing.T) {
	clock := time.Now()
	transport := &fakeTransport{responses: []*Response{
		{Status: 200, Body: []byte("ok"), URL: "https://example.com/d",
			Header: NewHeaders(map[string]string{"Cache-Control": "max-age=60", "Set-Cookie": "x=1"})},
	}}
	session := NewSession(transport, WithClock(func() time.Time { return clock }),
		WithStores(memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock }), memstore.New(func() time.Time { return clock })))

	ctx := context.Background()
	if _, err := session.Post(ctx, "https://example.com/d", nil); err != nil {
		t.Fatal(err)
	}

	get, err := session.Get(ctx, "https://example.com/d", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(transport.calls) != 2 {
		t.Fatalf("transport called %d times; POST must not have been served from cache", len(transport.calls))
	}
	_ = get
}
