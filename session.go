package dogbutler

import (
	"context"
	"strings"
	"time"
)

// Transport is the only capability a Session consumes from the underlying
// HTTP stack: executing one request/response exchange. A
// Transport that follows redirects itself is expected to report every hop
// on Response.History, the way net/http's Client does.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// QueuePutter is a producer/consumer sink a caller may supply to additionally
// receive every final response a Session returns, regardless of which exit
// the pipeline took.
type QueuePutter interface {
	Put(resp *Response)
}

// RequestOptions carries the per-call arguments Session.Do recognizes:
// headers and cookies to seed the outgoing request with, an optional queue,
// and an Extra bag forwarded to the Transport untouched.
type RequestOptions struct {
	Headers map[string]string
	Cookies map[string]string
	Queue   QueuePutter
	Extra   map[string]any
}

// Session is an isolated namespace over the three managers, keyed by a
// key-prefix shared across all of its KeyValueStore traffic.
type Session struct {
	keyPrefix string
	transport Transport
	now       func() time.Time
	queue     QueuePutter

	cacheStore       KeyValueStore
	cookieStore      KeyValueStore
	redirectStore    KeyValueStore
	storesOverridden bool
}

// NewSession builds a Session around transport, applying opts in order. With
// no WithKeyPrefix option, a random 64-character prefix is generated.
func NewSession(transport Transport, opts ...SessionOption) *Session {
	s := &Session{
		keyPrefix: randomKeyPrefix(64),
		transport: transport,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// resolveStores returns the stores this call's managers should use. Unless
// the Session was built with WithStores, every call reads whatever the
// process-wide defaults are *right now*, not what they were at NewSession
// time.
func (s *Session) resolveStores() (cache, cookie, redirect KeyValueStore) {
	if s.storesOverridden {
		cache, cookie, redirect = s.cacheStore, s.cookieStore, s.redirectStore
		if cache == nil {
			cache = GetDefaultCacheStore()
		}
		if cookie == nil {
			cookie = GetDefaultCookieStore()
		}
		if redirect == nil {
			redirect = GetDefaultRedirectStore()
		}
		return
	}
	return GetDefaultCacheStore(), GetDefaultCookieStore(), GetDefaultRedirectStore()
}

func (s *Session) enqueue(perCall QueuePutter, resp *Response) {
	q := perCall
	if q == nil {
		q = s.queue
	}
	if q != nil {
		q.Put(resp)
	}
}

// Do runs one request through the pipeline: for GET,
// Redirect.rewrite → Cookie.inject → Cache.lookup (short-circuiting on a
// hit) → Transport → Redirect.record → 304-merge if needed → Cookie.ingest
// → Cache.store. Every other method bypasses all three managers and goes
// straight to the Transport.
func (s *Session) Do(ctx context.Context, method, rawURL string, opts *RequestOptions) (*Response, error) {
	method = strings.ToUpper(method)
	if opts == nil {
		opts = &RequestOptions{}
	}

	if method != "GET" {
		req := newRequest(method, rawURL, opts.Headers, opts.Cookies)
		resp, err := s.transport.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		s.enqueue(opts.Queue, resp)
		return resp, nil
	}

	cacheStore, cookieStore, redirectStore := s.resolveStores()
	cacheMgr := &CacheManager{Store: cacheStore, Prefix: s.keyPrefix, Now: s.clock}
	cookieMgr := &CookieManager{Store: cookieStore, Prefix: s.keyPrefix, Now: s.clock}
	redirectMgr := &RedirectManager{Store: redirectStore, Prefix: s.keyPrefix}

	req := newRequest(method, rawURL, opts.Headers, opts.Cookies)

	if err := redirectMgr.Rewrite(ctx, req); err != nil {
		return nil, err
	}

	cookieMgr.Inject(ctx, req)

	if cached, err := cacheMgr.Lookup(ctx, req); err != nil {
		return nil, err
	} else if cached != nil {
		s.enqueue(opts.Queue, cached)
		return cached, nil
	}

	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	redirectMgr.Record(ctx, req, resp)

	if resp.Status == 304 {
		merged, found, err := cacheMgr.Merge304(ctx, req, resp)
		if err != nil {
			return nil, err
		}
		if found {
			resp = merged
		} else {
			for name := range req.injectedConditional {
				req.Header.Del(name)
			}
			resp, err = s.transport.Do(ctx, req)
			if err != nil {
				return nil, err
			}
		}
	}

	cookieMgr.Ingest(ctx, req, resp)
	if err := cacheMgr.Store(ctx, req, resp); err != nil {
		GetLogger().Warn("session: failed to store response in cache")
	}

	s.enqueue(opts.Queue, resp)
	return resp, nil
}

// Get issues a GET request.
func (s *Session) Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "GET", url, opts)
}

// Head issues a HEAD request.
func (s *Session) Head(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "HEAD", url, opts)
}

// Post issues a POST request.
func (s *Session) Post(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "POST", url, opts)
}

// Put issues a PUT request.
func (s *Session) Put(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "PUT", url, opts)
}

// Patch issues a PATCH request.
func (s *Session) Patch(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "PATCH", url, opts)
}

// Delete issues a DELETE request.
func (s *Session) Delete(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "DELETE", url, opts)
}

// Options issues an OPTIONS request.
func (s *Session) Options(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Do(ctx, "OPTIONS", url, opts)
}
