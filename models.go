package dogbutler

// Request is the mutable value threaded through the pipeline: Redirect may
// rewrite URL, Cookie may populate Cookies, Cache may add conditional
// headers to Header before the Transport ever sees it.
type Request struct {
	Method  string
	URL     string
	Header  Headers
	Cookies map[string]string

	// updateCacheAllowed records whether CacheManager.Store is permitted to
	// run for this request (false for non-GET methods).
	updateCacheAllowed bool

	// injectedConditional names the conditional headers CacheManager.Lookup
	// added itself (as opposed to ones the caller supplied), so a failed
	// 304-merge can strip exactly those before the unconditional retry.
	injectedConditional map[string]bool
}

func newRequest(method, url string, headers map[string]string, cookies map[string]string) *Request {
	c := make(map[string]string, len(cookies))
	for k, v := range cookies {
		c[k] = v
	}
	return &Request{
		Method:             method,
		URL:                url,
		Header:             NewHeaders(headers),
		Cookies:            c,
		updateCacheAllowed: method == "GET",
	}
}

func (r *Request) markInjected(name string) {
	if r.injectedConditional == nil {
		r.injectedConditional = make(map[string]bool, 2)
	}
	r.injectedConditional[name] = true
}

// HistoryEntry is one hop of a followed redirect chain, as reported by the
// Transport on the final Response's History field.
type HistoryEntry struct {
	Status int
	URL    string
	Header Headers
}

// Response is the immutable snapshot a Transport exchange (or a cache hit)
// produces.
type Response struct {
	Status  int
	Body    []byte
	Header  Headers
	URL     string
	History []HistoryEntry
}

func (r *Response) clone() *Response {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	history := make([]HistoryEntry, len(r.History))
	for i, h := range r.History {
		history[i] = HistoryEntry{Status: h.Status, URL: h.URL, Header: h.Header.Clone()}
	}
	return &Response{
		Status:  r.Status,
		Body:    body,
		Header:  r.Header.Clone(),
		URL:     r.URL,
		History: history,
	}
}
