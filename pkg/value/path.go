package value

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Get looks up a key on an object value. Any other kind, or a missing
// key, yields Null.
func (v Value) Get(key string) Value {
	m, ok := v.AsObject()
	if !ok {
		return Null()
	}
	item, ok := m[key]
	if !ok {
		return Null()
	}
	return item
}

// Index returns the i-th element of an array value, or Null when out of
// range or not an array.
func (v Value) Index(i int) Value {
	a, ok := v.AsArray()
	if !ok || i < 0 || i >= len(a) {
		return Null()
	}
	return a[i]
}

// GetPath resolves a dotted path against the value. Objects resolve by
// key, arrays by numeric index, and arrays and strings expose the
// synthetic properties "length" and "size". Unresolvable segments yield
// Null, never an error.
func (v Value) GetPath(path string) Value {
	if path == "" {
		return v
	}
	current := v
	for _, seg := range strings.Split(path, ".") {
		current = current.step(seg)
		if current.IsNull() {
			return Null()
		}
	}
	return current
}

// step resolves a single path segment.
func (v Value) step(seg string) Value {
	switch x := v.data.(type) {
	case map[string]Value:
		if item, ok := x[seg]; ok {
			return item
		}
		return Null()
	case []Value:
		if seg == "length" || seg == "size" {
			return Int(int64(len(x)))
		}
		if i, err := strconv.Atoi(seg); err == nil {
			return v.Index(i)
		}
		return Null()
	case string:
		if seg == "length" || seg == "size" {
			return Int(int64(utf8.RuneCountInString(x)))
		}
		return Null()
	default:
		return Null()
	}
}
