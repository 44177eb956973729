package dogbutler

import (
	"context"
	"io"
	"net/http"
)

// HTTPTransport is the default Transport, wrapping a real *http.Client. Its
// own redirect handling is left at net/http's default (follow, recording
// each hop via the documented Response.Request.Response linkage) so that
// RedirectManager sees the same history shape a hand-rolled transport in
// tests would supply.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport wraps client, or http.DefaultClient if nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, err
	}
	for _, name := range req.Header.Names() {
		val, _ := req.Header.Get(name)
		httpReq.Header[name] = []string{val}
	}
	for name, val := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: val})
	}

	httpResp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Body:   body,
		Header: headersFromHTTP(httpResp.Header),
		URL:    httpResp.Request.URL.String(),
	}
	resp.History = redirectHistory(httpResp)
	return resp, nil
}

func headersFromHTTP(h http.Header) Headers {
	var out Headers
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		out.Set(name, values[0])
	}
	return out
}

// redirectHistory reconstructs the hop chain from net/http's documented
// Response.Request.Response linkage: each redirected-from response is
// reachable via the prior request's Response field.
func redirectHistory(final *http.Response) []HistoryEntry {
	var history []HistoryEntry
	for r := final.Request; r != nil && r.Response != nil; r = r.Response.Request {
		prev := r.Response
		from := r.URL
		if prev.Request != nil {
			from = prev.Request.URL
		}
		history = append([]HistoryEntry{{
			Status: prev.StatusCode,
			URL:    from.String(),
			Header: headersFromHTTP(prev.Header),
		}}, history...)
	}
	return history
}
