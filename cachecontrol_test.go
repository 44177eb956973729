package dogbutler

import "testing"

func TestParseResponseCacheControl(t *testing.T) {
	cases := []struct {
		name        string
		header      string
		wantMaxAge  int
		wantCacheable bool
	}{
		{"missing header", "", 0, false},
		{"max-age only", "max-age=60", 60, true},
		{"max-age zero", "max-age=0", 0, false},
		{"max-age negative", "max-age=-1", 0, false},
		{"bare no-cache wins", "no-cache, max-age=60", 0, false},
		{"parameterized no-cache wins", `no-cache="Set-Cookie", max-age=60`, 0, false},
		{"no max-age present", "private", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHeaders(nil)
			if tc.header != "" {
				h.Set("Cache-Control", tc.header)
			}
			maxAge, cacheable := parseResponseCacheControl(h)
			if maxAge != tc.wantMaxAge || cacheable != tc.wantCacheable {
				t.Fatalf("parseResponseCacheControl(%q) = (%d, %v); want (%d, %v)",
					tc.header, maxAge, cacheable, tc.wantMaxAge, tc.wantCacheable)
			}
		})
	}
}

func TestRequestHasNoCache(t *testing.T) {
	h := NewHeaders(nil)
	if requestHasNoCache(h) {
		t.Fatal("requestHasNoCache = true on empty headers")
	}
	h.Set("Cache-Control", "no-cache")
	if !requestHasNoCache(h) {
		t.Fatal("requestHasNoCache = false on bare no-cache")
	}
	h.Set("Cache-Control", "max-age=0, no-cache")
	if !requestHasNoCache(h) {
		t.Fatal("requestHasNoCache = false on combined directives")
	}
}
