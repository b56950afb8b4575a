package trellis

import (
	"strconv"
	"strings"
)

// Query reads the query parameters of a request with typed accessors
type Query struct {
	c RequestContext
}

// QueryOf wraps the query parameters of c
func QueryOf(c RequestContext) Query {
	return Query{c: c}
}

// Get returns the value for key, or empty string if not found
func (q Query) Get(key string) string {
	return q.c.QueryParam(key)
}

// GetDefault returns the value for key, or defaultValue if it is empty
func (q Query) GetDefault(key, defaultValue string) string {
	if value := q.c.QueryParam(key); value != "" {
		return value
	}
	return defaultValue
}

// GetInt returns the value for key as an integer, or 0 if not found/invalid
func (q Query) GetInt(key string) int {
	return q.GetIntDefault(key, 0)
}

// GetIntDefault returns the value for key as an integer, or defaultValue if not found/invalid
func (q Query) GetIntDefault(key string, defaultValue int) int {
	if value := q.c.QueryParam(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetBool returns the value for key as a boolean.
// Accepts: "true", "1", "yes", "on" (case insensitive) as true
func (q Query) GetBool(key string) bool {
	switch strings.ToLower(q.c.QueryParam(key)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// GetList splits a comma-separated value, dropping blank items. It returns
// nil when key is empty.
func (q Query) GetList(key string) []string {
	raw := q.c.QueryParam(key)
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
