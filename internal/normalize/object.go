// Package normalize reshapes loosely-typed backend JSON into the fixed view
// models of the model package. Backends vary between snake_case and camelCase
// and nest payloads under data/result/items, so every extractor here walks an
// ordered fallback chain of candidate keys and falls back to a default.
//
// Nothing in this package returns an error or panics. The worst case is a
// zero value or an empty container; downstream code relies on that.
package normalize

import (
	"strconv"
)

// Object wraps a decoded JSON object and provides pick-first-present-key
// extraction.
type Object map[string]any

// AsObject converts a decoded JSON value to an Object. Non-objects yield an
// empty Object.
func AsObject(v any) Object {
	if m, ok := v.(map[string]any); ok {
		return Object(m)
	}
	return Object{}
}

// Pick returns the value of the first present, non-nil key.
func (o Object) Pick(keys ...string) any {
	for _, k := range keys {
		if v, ok := o[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// String returns the first present key coerced to a string, else def. Numbers
// are formatted, which covers backends that send numeric IDs.
func (o Object) String(def string, keys ...string) string {
	v := o.Pick(keys...)
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return def
}

// Int returns the first present key coerced to an int, else def.
func (o Object) Int(def int, keys ...string) int {
	if n, ok := CoerceNumber(o.Pick(keys...)); ok {
		return int(n)
	}
	return def
}

// Float returns the first present key coerced to a float64, else def.
func (o Object) Float(def float64, keys ...string) float64 {
	if n, ok := CoerceNumber(o.Pick(keys...)); ok {
		return n
	}
	return def
}

// Strings returns the first present key as a string slice. A bare string
// becomes a one-element slice; anything else yields nil.
func (o Object) Strings(keys ...string) []string {
	switch t := o.Pick(keys...).(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}

// Child returns the first present key as a nested Object.
func (o Object) Child(keys ...string) Object {
	return AsObject(o.Pick(keys...))
}

// List returns the first present key as a slice of Objects, skipping
// non-object elements.
func (o Object) List(keys ...string) []Object {
	items, ok := o.Pick(keys...).([]any)
	if !ok {
		return nil
	}
	out := make([]Object, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out
}

// Unwrap peels a collection out of a response body. The body may be a bare
// JSON array, or an object with the list nested under one of the given keys
// (data/result/items by default).
func Unwrap(v any, keys ...string) []Object {
	if len(keys) == 0 {
		keys = []string{"data", "result", "items"}
	}
	if items, ok := v.([]any); ok {
		out := make([]Object, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Object(m))
			}
		}
		return out
	}
	obj := AsObject(v)
	if list := obj.List(keys...); list != nil {
		return list
	}
	// One more level of nesting: {"data": {"items": [...]}}
	if inner := obj.Child("data", "result"); len(inner) > 0 {
		if list := inner.List(keys...); list != nil {
			return list
		}
	}
	return nil
}

// UnwrapObject peels a single record out of a response body, tolerating one
// level of data/result nesting.
func UnwrapObject(v any, keys ...string) Object {
	if len(keys) == 0 {
		keys = []string{"data", "result"}
	}
	obj := AsObject(v)
	if inner := obj.Child(keys...); len(inner) > 0 {
		return inner
	}
	return obj
}
