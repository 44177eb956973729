package dogbutler

import (
	"context"
	"sync"
)

var (
	defaultSessionMu sync.Mutex
	defaultSession   *Session
)

func sharedSession() *Session {
	defaultSessionMu.Lock()
	defer defaultSessionMu.Unlock()
	if defaultSession == nil {
		defaultSession = NewSession(NewHTTPTransport(nil))
	}
	return defaultSession
}

// Do issues a request of any method through a shared, process-wide
// default Session.
func Do(ctx context.Context, method, url string, opts *RequestOptions) (*Response, error) {
	return sharedSession().Do(ctx, method, url, opts)
}

// Get issues a GET request through the shared default Session.
func Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "GET", url, opts)
}

// Head issues a HEAD request through the shared default Session.
func Head(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "HEAD", url, opts)
}

// Post issues a POST request through the shared default Session.
func Post(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "POST", url, opts)
}

// Put issues a PUT request through the shared default Session.
func Put(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "PUT", url, opts)
}

// Patch issues a PATCH request through the shared default Session.
func Patch(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "PATCH", url, opts)
}

// Delete issues a DELETE request through the shared default Session.
func Delete(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "DELETE", url, opts)
}

// Options issues an OPTIONS request through the shared default Session.
func Options(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return Do(ctx, "OPTIONS", url, opts)
}
