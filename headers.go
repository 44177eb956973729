package dogbutler

import "strings"

// HeaderField is a single header name/value pair as supplied by a caller or a
// transport. Headers preserves the case it was set with.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is a header collection with case-insensitive lookup and
// case-preserving storage: a name is matched without regard to case, but the
// case a caller supplied when setting a value is the case sent on the wire.
type Headers struct {
	fields []HeaderField
}

// NewHeaders builds a Headers collection from a plain map, useful for
// translating caller-supplied kwargs-style options into the pipeline's
// internal representation.
func NewHeaders(m map[string]string) Headers {
	var h Headers
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func (h Headers) indexOf(name string) int {
	lower := strings.ToLower(name)
	for i, f := range h.fields {
		if strings.ToLower(f.Name) == lower {
			return i
		}
	}
	return -1
}

// Get returns the value stored under name (case-insensitive) and whether it
// was present at all.
func (h Headers) Get(name string) (string, bool) {
	if i := h.indexOf(name); i >= 0 {
		return h.fields[i].Value, true
	}
	return "", false
}

// GetOrEmpty returns the value stored under name, or "" if absent.
func (h Headers) GetOrEmpty(name string) string {
	v, _ := h.Get(name)
	return v
}

// Has reports whether name is present, case-insensitively.
func (h Headers) Has(name string) bool {
	return h.indexOf(name) >= 0
}

// Set stores value under name, preserving the case of name as given. If name
// was already present (case-insensitively) its value and case are replaced.
func (h *Headers) Set(name, value string) {
	if i := h.indexOf(name); i >= 0 {
		h.fields[i] = HeaderField{Name: name, Value: value}
		return
	}
	h.fields = append(h.fields, HeaderField{Name: name, Value: value})
}

// Del removes name, case-insensitively. A no-op if absent.
func (h *Headers) Del(name string) {
	if i := h.indexOf(name); i >= 0 {
		h.fields = append(h.fields[:i], h.fields[i+1:]...)
	}
}

// Names returns header names in the order they were set.
func (h Headers) Names() []string {
	names := make([]string, len(h.fields))
	for i, f := range h.fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns an independent copy of h.
func (h Headers) Clone() Headers {
	fields := make([]HeaderField, len(h.fields))
	copy(fields, h.fields)
	return Headers{fields: fields}
}
