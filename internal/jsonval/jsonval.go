// Package jsonval provides small guarded accessors for walking the loosely
// typed JSON trees that the OpenAI, Claude, and Gemini wire formats decode
// into. Every wire format is schema-fluid, so the normalizers never
// unmarshal into fixed structs: they walk map[string]any/[]any trees and
// guard every access, so that an unexpected or future-added shape degrades
// gracefully (falling back to an empty/zero value or a JSON-serialized
// blob) instead of failing the whole record.
package jsonval

import "encoding/json"

// AsMap returns v as a map[string]any, or nil if v isn't one.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsSlice returns v as a []any, or nil if v isn't one.
func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// AsString returns v as a string, or "" if v isn't one.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// Field looks up key in m, tolerating a nil map.
func Field(m map[string]any, key string) any {
	if m == nil {
		return nil
	}

	return m[key]
}

// StringField is shorthand for AsString(Field(m, key)).
func StringField(m map[string]any, key string) string {
	return AsString(Field(m, key))
}

// BoolField returns the bool at key, and whether it was present as a bool.
func BoolField(m map[string]any, key string) (bool, bool) {
	b, ok := Field(m, key).(bool)
	return b, ok
}

// Int64Field reads a JSON number field (decoded as float64) as an int64.
func Int64Field(m map[string]any, key string) int64 {
	switch n := Field(m, key).(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// DecodeStringOrRaw parses s as JSON; on failure it falls back to
// {"raw": s}, the deterministic recoverable-parse-error path required
// wherever a provider ships tool arguments as a JSON-encoded string. An
// empty s yields an empty object.
func DecodeStringOrRaw(s string) any {
	if s == "" {
		return map[string]any{}
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return map[string]any{"raw": s}
	}

	return v
}

// Jsonify serializes v verbatim, used for the "unknown content-block types
// are JSON-serialized as content" fallback.
func Jsonify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}
