package dogbutler

import "testing"

func TestHeadersCaseInsensitiveLookupCasePreservingStorage(t *testing.T) {
	h := NewHeaders(map[string]string{"X-Custom-Header": "Value"})

	if v, ok := h.Get("x-custom-header"); !ok || v != "Value" {
		t.Fatalf("Get with different case = %q, %v; want Value, true", v, ok)
	}

	if got := h.Names(); len(got) != 1 || got[0] != "X-Custom-Header" {
		t.Fatalf("Names() = %v; want original case preserved", got)
	}
}

func TestHeadersSetReplacesExistingCaseInsensitively(t *testing.T) {
	h := NewHeaders(nil)
	h.Set("Content-Type", "text/plain")
	h.Set("content-type", "application/json")

	if got := h.Names(); len(got) != 1 {
		t.Fatalf("Names() = %v; want exactly one entry after replace", got)
	}
	if v, _ := h.Get("CONTENT-TYPE"); v != "application/json" {
		t.Fatalf("Get = %q; want application/json", v)
	}
}

func TestHeadersDel(t *testing.T) {
	h := NewHeaders(map[string]string{"ETag": `"abc"`})
	h.Del("etag")
	if h.Has("ETag") {
		t.Fatal("Has(ETag) = true after Del; want false")
	}
}

func TestHeadersCloneIsIndependent(t *testing.T) {
	h := NewHeaders(map[string]string{"A": "1"})
	c := h.Clone()
	c.Set("A", "2")
	if v, _ := h.Get("A"); v != "1" {
		t.Fatalf("original mutated by clone: Get(A) = %q", v)
	}
}
