// ABOUTME: Query filter and result models for vector store retrieval
// ABOUTME: Filters are exact-match equality over chunk metadata fields
package models

import (
	"fmt"
	"sort"
)

// Filter restricts a query to entries whose metadata equals every given value
type Filter map[string]any

// FileHashFilter returns a filter scoped to one document, or nil for an empty hash
func FileHashFilter(fileHash string) Filter {
	if fileHash == "" {
		return nil
	}
	return Filter{FieldFileHash: fileHash}
}

// Validate checks field names and value types
func (f Filter) Validate() error {
	for key, val := range f {
		switch key {
		case FieldSource, FieldFileHash:
			if _, ok := val.(string); !ok {
				return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidFilter, key, val)
			}
		case FieldPage, FieldChunkOnPage:
			if _, ok := toInt(val); !ok {
				return fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidFilter, key, val)
			}
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, key)
		}
	}
	return nil
}

// Matches reports whether metadata satisfies every condition of the filter
func (f Filter) Matches(m Metadata) bool {
	for key, want := range f {
		got, ok := m.Field(key)
		if !ok {
			return false
		}
		switch g := got.(type) {
		case string:
			if w, ok := want.(string); !ok || w != g {
				return false
			}
		case int:
			if w, ok := toInt(want); !ok || w != g {
				return false
			}
		}
	}
	return true
}

// Keys returns the filter's field names in sorted order
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns an integer-valued condition
func (f Filter) Int(key string) (int, bool) {
	return toInt(f[key])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// QueryResult is one retrieved chunk
type QueryResult struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// Answer is a generated answer plus the metadata of the chunks it was grounded on
type Answer struct {
	Answer  string     `json:"answer"`
	Sources []Metadata `json:"sources"`
}
