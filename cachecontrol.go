package dogbutler

import (
	"strconv"
	"strings"
)

// parseResponseCacheControl reports whether a response is cacheable: it must
// carry a Cache-Control header with a positive max-age and no no-cache
// directive (bare or parameterized — either form disables caching).
func parseResponseCacheControl(h Headers) (maxAgeSeconds int, cacheable bool) {
	raw, ok := h.Get("Cache-Control")
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}

	var hasMaxAge, noCache bool
	var maxAge int
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.SplitN(tok, "=", 2)
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		switch name {
		case "no-cache":
			noCache = true
		case "max-age":
			if len(parts) != 2 {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				maxAge = n
				hasMaxAge = true
			}
		}
	}

	if noCache || !hasMaxAge || maxAge <= 0 {
		return 0, false
	}
	return maxAge, true
}

// requestHasNoCache reports whether a request's Cache-Control disables
// lookups; bare or parameterized no-cache both count.
func requestHasNoCache(h Headers) bool {
	raw, ok := h.Get("Cache-Control")
	if !ok {
		return false
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		name := strings.ToLower(strings.SplitN(tok, "=", 2)[0])
		if strings.TrimSpace(name) == "no-cache" {
			return true
		}
	}
	return false
}
