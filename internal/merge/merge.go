// Package merge combines and navigates nested plain data: maps of string to
// any, slices of any, and scalars, as produced by decoding JSON.
package merge

import (
	"reflect"
	"strings"
)

// Mode controls how sequences are combined by Defaults.
type Mode int

const (
	// ModeConcat appends default elements missing from the existing sequence.
	ModeConcat Mode = iota

	// ModeMatchingOnly leaves existing sequences untouched.
	ModeMatchingOnly
)

// Deep recursively merges src into dst, src winning.
// Maps merge key by key, sequences present on both sides are concatenated,
// and any other src value replaces the dst value. dst is modified in place
// and returned; a nil dst is allocated.
func Deep(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for key, srcVal := range src {
		dstVal, exists := dst[key]

		switch s := srcVal.(type) {
		case []any:
			if d, ok := dstVal.([]any); ok && exists {
				combined := make([]any, 0, len(d)+len(s))
				combined = append(combined, d...)
				combined = append(combined, cloneSlice(s)...)
				dst[key] = combined
				continue
			}
			dst[key] = cloneSlice(s)
		case map[string]any:
			d, ok := dstVal.(map[string]any)
			if !ok {
				d = nil
			}
			dst[key] = Deep(d, s)
		default:
			dst[key] = srcVal
		}
	}

	return dst
}

// Matching merges src into dst only at keys dst already has.
// Nested maps recurse when both sides hold a map.
func Matching(dst, src map[string]any) map[string]any {
	if dst == nil {
		return dst
	}

	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			continue
		}

		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			Matching(dstMap, srcMap)
			continue
		}

		dst[key] = Clone(srcVal)
	}

	return dst
}

// Defaults fills values missing from existing with those from defaults.
// Existing values always win, an explicit nil included; nested maps recurse
// key by key. For sequences
// present on both sides, ModeConcat appends default elements that existing
// does not already contain, ModeMatchingOnly keeps existing as is.
// existing is modified in place and returned; a nil existing is allocated.
func Defaults(existing, defaults map[string]any, mode Mode) map[string]any {
	if existing == nil {
		existing = make(map[string]any, len(defaults))
	}

	for key, defVal := range defaults {
		curVal, exists := existing[key]
		if !exists {
			existing[key] = Clone(defVal)
			continue
		}

		switch d := defVal.(type) {
		case map[string]any:
			if cur, ok := curVal.(map[string]any); ok {
				Defaults(cur, d, mode)
			}
		case []any:
			cur, ok := curVal.([]any)
			if !ok || mode == ModeMatchingOnly {
				continue
			}
			for _, elem := range d {
				if !containsValue(cur, elem) {
					cur = append(cur, Clone(elem))
				}
			}
			existing[key] = cur
		}
	}

	return existing
}

// Clone returns a deep copy of nested plain data.
func Clone(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return CloneMap(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

// CloneMap returns a deep copy of m.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Clone(v)
	}
	return out
}

func containsValue(s []any, v any) bool {
	for _, elem := range s {
		if reflect.DeepEqual(elem, v) {
			return true
		}
	}
	return false
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}

	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path,
// creating intermediate maps as needed. It reports false when a non-map
// value sits on the path.
func SetByPath(data map[string]any, path string, value any) bool {
	if data == nil || path == "" {
		return false
	}

	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, exists := current[part]
		if !exists || next == nil {
			created := make(map[string]any)
			current[part] = created
			current = created
			continue
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return true
}

// DeleteByPath removes a value from a nested map using a dot-separated path.
// Returns true if the value was found and deleted.
func DeleteByPath(data map[string]any, path string) bool {
	if data == nil || path == "" {
		return false
	}

	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	key := parts[len(parts)-1]
	if _, exists := current[key]; !exists {
		return false
	}
	delete(current, key)
	return true
}
