package dogbutler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// cookieRecord is a single parsed Set-Cookie definition, scoped and (if
// given) timed to expire.
type cookieRecord struct {
	Name      string
	Value     string
	Domain    string // effective domain: origin host, or the Domain attribute
	IsOrigin  bool   // true when no Domain attribute was supplied
	Path      string // normalized: "" or "/" means "any path"
	Expiry    *time.Time
	StoredAt  time.Time
}

// CookieManager ingests Set-Cookie definitions from responses, and
// selects/injects the right cookies into later requests to the same
// registrable domain.
type CookieManager struct {
	Store  KeyValueStore
	Prefix string
	Now    func() time.Time
}

func (m *CookieManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *CookieManager) domainIndexKey(domain string) string {
	return namespacedKey(m.Prefix, "cookie.domain", domain)
}

// Inject selects stored cookies matching req's host and path and adds them
// to req.Cookies, never overwriting a name the caller already supplied.
func (m *CookieManager) Inject(ctx context.Context, req *Request) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return
	}
	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	type candidate struct {
		rec       cookieRecord
		pathLen   int
		exactHost bool
	}
	best := map[string]candidate{}
	now := m.now()

	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		suffix := strings.Join(labels[i:], ".")
		list, ok, err := m.loadIndex(ctx, suffix)
		if err != nil {
			GetLogger().Warn("cookie: failed to read domain index", slog.Any("error", err))
			continue
		}
		if !ok {
			continue
		}
		exactHost := i == 0
		for _, rec := range list {
			if rec.Expiry != nil && !rec.Expiry.After(now) {
				continue
			}
			if rec.IsOrigin && !exactHost {
				continue
			}
			if !cookiePathMatches(rec.Path, path) {
				continue
			}
			c := candidate{rec: rec, pathLen: len(rec.Path), exactHost: exactHost}
			cur, exists := best[rec.Name]
			if !exists || moreSpecificCookie(c.pathLen, c.exactHost, c.rec.StoredAt, cur.pathLen, cur.exactHost, cur.rec.StoredAt) {
				best[rec.Name] = c
			}
		}
	}

	for name, c := range best {
		if _, userSupplied := req.Cookies[name]; userSupplied {
			continue
		}
		req.Cookies[name] = c.rec.Value
	}
}

func moreSpecificCookie(aPathLen int, aExact bool, aStoredAt time.Time, bPathLen int, bExact bool, bStoredAt time.Time) bool {
	if aPathLen != bPathLen {
		return aPathLen > bPathLen
	}
	if aExact != bExact {
		return aExact
	}
	return aStoredAt.After(bStoredAt)
}

func cookiePathMatches(cookiePath, reqPath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	if reqPath == cookiePath {
		return true
	}
	return strings.HasPrefix(reqPath, cookiePath+"/")
}

// Ingest parses every Set-Cookie definition on resp and upserts it into the
// store, scoped by req's (possibly redirect-rewritten) host.
func (m *CookieManager) Ingest(ctx context.Context, req *Request, resp *Response) {
	raw, ok := resp.Header.Get("Set-Cookie")
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return
	}
	host := strings.ToLower(u.Hostname())
	now := m.now()

	for _, def := range splitSetCookie(raw) {
		rec, ok := parseCookieDef(def, host, now)
		if !ok {
			continue
		}
		m.upsert(ctx, rec)
	}
}

func splitSetCookie(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCookieDef(def, host string, now time.Time) (cookieRecord, bool) {
	attrs := strings.Split(def, ";")
	nv := strings.SplitN(strings.TrimSpace(attrs[0]), "=", 2)
	name := strings.TrimSpace(nv[0])
	if name == "" {
		return cookieRecord{}, false
	}
	value := ""
	if len(nv) == 2 {
		value = strings.TrimSpace(nv[1])
	}

	rec := cookieRecord{Name: name, Value: value, Domain: host, IsOrigin: true, StoredAt: now}

	var maxAgeSet bool
	var maxAge int
	var expiresSet bool
	var expiresAt time.Time

	for _, a := range attrs[1:] {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		kv := strings.SplitN(a, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := ""
		if len(kv) == 2 {
			val = strings.TrimSpace(kv[1])
		}
		switch key {
		case "domain":
			if val != "" {
				rec.Domain = strings.ToLower(strings.TrimPrefix(val, "."))
				rec.IsOrigin = false
			}
		case "path":
			p := strings.TrimSuffix(val, "/")
			if val == "/" || p == "" {
				rec.Path = "/"
			} else {
				rec.Path = p
			}
		case "max-age":
			if n, err := strconv.Atoi(val); err == nil {
				maxAge = n
				maxAgeSet = true
			}
		case "expires":
			if t, err := http.ParseTime(val); err == nil {
				expiresAt = t
				expiresSet = true
			}
		}
	}

	switch {
	case maxAgeSet:
		t := now.Add(time.Duration(maxAge) * time.Second)
		rec.Expiry = &t
	case expiresSet:
		rec.Expiry = &expiresAt
	default:
		rec.Expiry = nil
	}

	return rec, true
}

func (m *CookieManager) upsert(ctx context.Context, rec cookieRecord) {
	list, _, err := m.loadIndex(ctx, rec.Domain)
	if err != nil {
		GetLogger().Warn("cookie: failed to read domain index for upsert", slog.Any("error", err))
		return
	}

	filtered := list[:0]
	for _, r := range list {
		if r.Name == rec.Name && r.Path == rec.Path {
			continue
		}
		filtered = append(filtered, r)
	}

	if rec.Expiry != nil && !rec.Expiry.After(m.now()) {
		m.saveIndex(ctx, rec.Domain, filtered)
		return
	}

	filtered = append(filtered, rec)
	m.saveIndex(ctx, rec.Domain, filtered)
}

// cookieIndexTTL is passed to the store as "no backend-enforced expiry":
// CookieManager tracks per-record expiry itself via cookieRecord.Expiry.
const cookieIndexTTL = 0

func (m *CookieManager) saveIndex(ctx context.Context, domain string, list []cookieRecord) {
	data, err := json.Marshal(list)
	if err != nil {
		GetLogger().Warn("cookie: failed to marshal domain index", slog.Any("error", err))
		return
	}
	if err := m.Store.Set(ctx, m.domainIndexKey(domain), data, cookieIndexTTL); err != nil {
		GetLogger().Warn("cookie: failed to store domain index", slog.Any("error", err))
	}
}

func (m *CookieManager) loadIndex(ctx context.Context, domain string) ([]cookieRecord, bool, error) {
	data, ok, err := m.Store.Get(ctx, m.domainIndexKey(domain))
	if err != nil || !ok {
		return nil, false, err
	}
	var list []cookieRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}
