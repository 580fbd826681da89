package handlers

import (
	"net/http"
	"strconv"
)

// queryString returns the named query parameter, or nil when absent or empty.
// Empty means "no filter", not "filter on empty string".
func queryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}

	return &v
}

// queryInt parses the named query parameter as a non-negative integer,
// falling back to def when absent or invalid.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}

	return n
}

// queryFloat parses the named query parameter as a float pointer, nil when
// absent or invalid. Callers treat nil as "use the configured default".
func queryFloat(r *http.Request, name string) *float64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}

	return &f
}

// queryBool parses the named query parameter as a boolean, falling back to
// def when absent or invalid.
func queryBool(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}
