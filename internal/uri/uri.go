// Package uri parses endpoint URIs of the form scheme://path?key=value&... or scheme:path?key=value.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidURI indicates an endpoint URI that cannot be parsed.
var ErrInvalidURI = errors.New("invalid endpoint uri")

const (
	rawPrefix = "RAW("
	rawSuffix = ")"
)

// URI is a parsed endpoint URI.
type URI struct {
	Scheme string
	Path   string

	params map[string]any
}

// Parse splits raw into scheme, path and query parameters.
//
// Query values are percent-decoded unless wrapped in RAW(...), in which case the
// wrapper is removed and the content is kept verbatim. A key repeated in the
// query yields a []string holding every value in order.
func Parse(raw string) (URI, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidURI, raw)
	}
	if !validScheme(scheme) {
		return URI{}, fmt.Errorf("%w: bad scheme %q", ErrInvalidURI, scheme)
	}

	rest = strings.TrimPrefix(rest, "//")
	path, query, _ := strings.Cut(rest, "?")

	decodedPath, err := url.PathUnescape(strings.Trim(path, "/"))
	if err != nil {
		return URI{}, fmt.Errorf("%w: path %q: %v", ErrInvalidURI, path, err)
	}

	params, err := parseQuery(query)
	if err != nil {
		return URI{}, err
	}

	return URI{Scheme: strings.ToLower(scheme), Path: decodedPath, params: params}, nil
}

func parseQuery(query string) (map[string]any, error) {
	params := make(map[string]any)
	if query == "" {
		return params, nil
	}

	for _, pair := range splitQuery(query) {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			return nil, fmt.Errorf("%w: bad query key %q", ErrInvalidURI, rawKey)
		}

		value, err := decodeValue(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrInvalidURI, key, err)
		}

		switch prev := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{prev, value}
		case []string:
			params[key] = append(prev, value)
		}
	}
	return params, nil
}

// splitQuery splits on '&' except inside a RAW(...) value.
func splitQuery(query string) []string {
	var pairs []string
	for query != "" {
		end := strings.IndexByte(query, '&')
		if eq := strings.IndexByte(query, '='); eq >= 0 && (end < 0 || eq < end) && strings.HasPrefix(query[eq+1:], rawPrefix) {
			end = -1
			if closing := strings.Index(query[eq+1:], rawSuffix+"&"); closing >= 0 {
				end = eq + 1 + closing + len(rawSuffix)
			}
		}
		if end < 0 {
			pairs = append(pairs, query)
			break
		}
		pairs = append(pairs, query[:end])
		query = query[end+1:]
	}
	return pairs
}

func decodeValue(raw string) (string, error) {
	if strings.HasPrefix(raw, rawPrefix) && strings.HasSuffix(raw, rawSuffix) {
		return raw[len(rawPrefix) : len(raw)-len(rawSuffix)], nil
	}
	return url.QueryUnescape(raw)
}

func validScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Params returns a fresh copy of the query parameters. Values are strings or []string.
func (u URI) Params() map[string]any {
	out := make(map[string]any, len(u.params))
	for k, v := range u.params {
		if values, ok := v.([]string); ok {
			v = append([]string(nil), values...)
		}
		out[k] = v
	}
	return out
}

// String renders the URI with its parameters sorted by key.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Path)

	keys := make([]string, 0, len(u.params))
	for k := range u.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sep := "?"
	for _, k := range keys {
		values, ok := u.params[k].([]string)
		if !ok {
			values = []string{u.params[k].(string)}
		}
		for _, v := range values {
			b.WriteString(sep)
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
			sep = "&"
		}
	}
	return b.String()
}
