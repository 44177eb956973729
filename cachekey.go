package dogbutler

import (
	"net/url"
	"strings"
)

// hopByHopHeaders (RFC 9110 §7.6.1) must never survive a cache round trip.
var hopByHopHeaders = []string{
	"connection",
	"keep-alive",
	"proxy-authenticate",
	"proxy-authorization",
	"te",
	"trailers",
	"transfer-encoding",
	"upgrade",
}

func stripHopByHop(h *Headers) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// absentHeaderSentinel stands in for a Vary-listed header the request never
// supplied, kept distinct from "" so that an explicitly empty header value
// doesn't collide with an absent one in a content key.
const absentHeaderSentinel = "\x00absent\x00"

// cacheBaseKey derives a request's cache fingerprint: method, scheme,
// lower-cased host, port, and byte-exact path/query/fragment. Fragments are
// deliberately not stripped.
func cacheBaseKey(method string, u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		host = host + ":" + port
	}
	return method + " " + u.Scheme + "://" + host + u.EscapedPath() + "?" + u.RawQuery + "#" + u.Fragment
}

// varyNames splits a Vary response header into the ordered list of request
// header names it names, preserving order (the VaryIndex is not sorted).
func varyNames(h Headers) []string {
	raw, ok := h.Get("Vary")
	if !ok {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || name == "*" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// contentKey mixes the Vary-named request header values into base, in the
// order the VaryIndex lists them.
func contentKey(base string, varying []string, h Headers) string {
	if len(varying) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	for _, name := range varying {
		val, ok := h.Get(name)
		if !ok {
			val = absentHeaderSentinel
		}
		b.WriteString("|")
		b.WriteString(strings.ToLower(name))
		b.WriteString("=")
		b.WriteString(val)
	}
	return b.String()
}
