package dogbutler

import (
	"context"
	"log/slog"
	"time"
)

// redirectMaxAge mirrors the original's DEFAULT_REDIRECT_MAX_AGE: ten
// years, long enough that a memoized permanent redirect effectively never
// expires under normal operation.
const redirectMaxAge = 10 * 365 * 24 * time.Hour

// RedirectManager collapses a chain of memoized 301s before a request is
// sent, and records any new 301 hops a response's history reveals.
type RedirectManager struct {
	Store  KeyValueStore
	Prefix string
}

func (m *RedirectManager) key(url string) string {
	return namespacedKey(m.Prefix, "redirect", url)
}

// Rewrite walks the memoized redirect chain starting at req.URL, collapsing
// it onto the final URL. It returns a *RedirectCycleError if the chain
// loops back onto a URL already visited.
func (m *RedirectManager) Rewrite(ctx context.Context, req *Request) error {
	current := req.URL
	seen := map[string]bool{current: true}

	for {
		next, ok, err := m.Store.Get(ctx, m.key(current))
		if err != nil {
			GetLogger().Warn("redirect: failed to read memoized redirect, stopping chain", slog.Any("error", err))
			break
		}
		if !ok {
			break
		}
		nextURL := string(next)
		if seen[nextURL] {
			return &RedirectCycleError{URL: nextURL}
		}
		seen[nextURL] = true
		current = nextURL
	}

	req.URL = current
	return nil
}

// Record memoizes every permanent (301) hop in resp.History and advances
// req.URL to the response's final URL.
func (m *RedirectManager) Record(ctx context.Context, req *Request, resp *Response) {
	if len(resp.History) == 0 {
		return
	}
	req.URL = resp.URL
	for _, hop := range resp.History {
		if hop.Status != 301 {
			continue
		}
		loc, ok := hop.Header.Get("Location")
		if !ok || loc == "" {
			continue
		}
		if err := m.Store.Set(ctx, m.key(hop.URL), []byte(loc), redirectMaxAge); err != nil {
			GetLogger().Warn("redirect: failed to memoize redirect", slog.Any("error", err))
		}
	}
}
