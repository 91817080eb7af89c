package catalog

import (
	"math"
	"strconv"
	"strings"
)

// Record is one raw upstream movie record, as decoded from JSON or YAML.
type Record map[string]any

// Lookup resolves a dotted path ("links.trailer") through nested objects.
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at a dotted path, creating intermediate objects.
func (r Record) Set(path string, value any) {
	keys := strings.Split(path, ".")
	obj := map[string]any(r)
	for _, key := range keys[:len(keys)-1] {
		next, ok := asObject(obj[key])
		if !ok {
			next = map[string]any{}
			obj[key] = next
		}
		obj = next
	}
	obj[keys[len(keys)-1]] = value
}

// Delete removes the value at a dotted path. Missing paths are ignored.
func (r Record) Delete(path string) {
	keys := strings.Split(path, ".")
	obj := map[string]any(r)
	for _, key := range keys[:len(keys)-1] {
		next, ok := asObject(obj[key])
		if !ok {
			return
		}
		obj = next
	}
	delete(obj, keys[len(keys)-1])
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record(cloneValue(map[string]any(r)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Record:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// firstString returns the first probe that resolves to a non-empty string.
func (r Record) firstString(paths ...string) string {
	for _, p := range paths {
		if v, ok := r.Lookup(p); ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstInt returns the first probe that resolves to an integer.
func (r Record) firstInt(paths ...string) (int, bool) {
	for _, p := range paths {
		if v, ok := r.Lookup(p); ok {
			if n, ok := asInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// firstBool reports whether any probe is a truthy value.
func (r Record) firstBool(paths ...string) bool {
	for _, p := range paths {
		if v, ok := r.Lookup(p); ok && truthy(v) {
			return true
		}
	}
	return false
}

// firstStrings returns the first probe that resolves to a non-empty list.
// A comma separated string counts as a list.
func (r Record) firstStrings(paths ...string) []string {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		if list := asStrings(v); len(list) > 0 {
			return list
		}
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return map[string]any(t), true
	}
	return nil, false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := entryName(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0" && s != "no"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

// entryName reads a display name from a string or from an object's
// name / provider_name field.
func entryName(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if obj, ok := asObject(v); ok {
		for _, key := range []string{"name", "provider_name"} {
			if s := asString(obj[key]); s != "" {
				return s
			}
		}
	}
	return ""
}
