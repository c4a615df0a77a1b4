// Package value provides the dynamic value type shared by the template
// engine and the query builder.
//
// A Value is a closed tagged union over the JSON-shaped kinds templates
// work with (null, bool, number, string, array, object) plus Bytes for
// SQL parameters. Values are immutable: operations on a Value return new
// Values and never modify the receiver in place.
package value

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies the type of data a Value holds.
type Kind int

// Kind constants for the closed set of value types.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed value. The zero Value is Null.
type Value struct {
	data any
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool creates a boolean Value.
func Bool(b bool) Value { return Value{data: b} }

// Number creates a numeric Value. All numbers are float64 internally.
func Number(f float64) Value { return Value{data: f} }

// Int creates a numeric Value from an integer.
func Int(i int64) Value { return Value{data: float64(i)} }

// String creates a string Value.
func String(s string) Value { return Value{data: s} }

// Bytes creates a binary Value.
func Bytes(b []byte) Value { return Value{data: b} }

// Array creates an array Value from the given items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{data: items}
}

// Object creates an object Value from the given map.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{data: m}
}

// From converts arbitrary JSON-shaped Go data into a Value. Unsupported
// types convert to Null rather than erroring.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case []byte:
		return Bytes(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case time.Time:
		return String(x.Format(time.RFC3339))
	case []Value:
		return Value{data: x}
	case map[string]Value:
		return Value{data: x}
	case []any:
		items := make([]Value, len(x))
		for i, it := range x {
			items[i] = From(it)
		}
		return Value{data: items}
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, it := range x {
			m[k] = From(it)
		}
		return Value{data: m}
	case []string:
		items := make([]Value, len(x))
		for i, it := range x {
			items[i] = String(it)
		}
		return Value{data: items}
	case map[string]string:
		m := make(map[string]Value, len(x))
		for k, it := range x {
			m[k] = String(it)
		}
		return Value{data: m}
	default:
		return Null()
	}
}

// FromJSON parses a JSON document into a Value. Invalid JSON yields an
// error; the Value is Null in that case.
func FromJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Null(), err
	}
	return From(raw), nil
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case string:
		return KindString
	case []byte:
		return KindBytes
	case []Value:
		return KindArray
	case map[string]Value:
		return KindObject
	default:
		return KindNull
	}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.data == nil }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	s, ok := v.data.(string)
	return s, ok
}

// AsBytes returns the binary payload.
func (v Value) AsBytes() ([]byte, bool) {
	b, ok := v.data.([]byte)
	return b, ok
}

// AsArray returns the array payload. The returned slice must not be
// modified by the caller.
func (v Value) AsArray() ([]Value, bool) {
	a, ok := v.data.([]Value)
	return a, ok
}

// AsObject returns the object payload. The returned map must not be
// modified by the caller.
func (v Value) AsObject() (map[string]Value, bool) {
	m, ok := v.data.(map[string]Value)
	return m, ok
}

// Truthy reports the value's truthiness: false for null, false, zero,
// the empty string, empty bytes, the empty array and the empty object;
// true otherwise.
func (v Value) Truthy() bool {
	switch x := v.data.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []byte:
		return len(x) > 0
	case []Value:
		return len(x) > 0
	case map[string]Value:
		return len(x) > 0
	default:
		return false
	}
}

// Str renders the value as template output text: null is empty, numbers
// print without a trailing ".0", arrays and objects print as compact
// JSON.
func (v Value) Str() string {
	switch x := v.data.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case []byte:
		return string(x)
	case []Value, map[string]Value:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Interface converts the value back to plain Go data: nil, bool,
// float64, string, []byte, []any or map[string]any.
func (v Value) Interface() any {
	switch x := v.data.(type) {
	case []Value:
		out := make([]any, len(x))
		for i, it := range x {
			out[i] = it.Interface()
		}
		return out
	case map[string]Value:
		out := make(map[string]any, len(x))
		for k, it := range x {
			out[k] = it.Interface()
		}
		return out
	default:
		return x
	}
}

// Equal reports structural equality between two values. Arrays compare
// element-wise in order, objects compare key-wise.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch x := v.data.(type) {
	case nil:
		return true
	case bool:
		y, _ := o.AsBool()
		return x == y
	case float64:
		y, _ := o.AsNumber()
		return x == y
	case string:
		y, _ := o.AsString()
		return x == y
	case []byte:
		y, _ := o.AsBytes()
		return string(x) == string(y)
	case []Value:
		y, _ := o.AsArray()
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].Equal(y[i]) {
				return false
			}
		}
		return true
	case map[string]Value:
		y, _ := o.AsObject()
		if len(x) != len(y) {
			return false
		}
		for k, it := range x {
			other, ok := y[k]
			if !ok || !it.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
