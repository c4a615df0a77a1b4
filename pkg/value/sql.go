package value

import (
	"encoding/json"
	"math"
	"strings"
)

// enumSep separates the literal value from its database type name in the
// typed-enum encoding ("active::status_type").
const enumSep = "::"

// Enum creates a string Value carrying the typed-enum encoding the query
// builder recognizes. On PostgreSQL the builder renders such parameters
// as a cast placeholder ($n::pgType); other backends bind the bare
// value.
func Enum(v, pgType string) Value {
	return String(v + enumSep + pgType)
}

// SplitEnum splits a typed-enum encoded string into its value and type
// name. The type name is everything after the last "::" so values may
// themselves contain colons. ok is false when the string carries no
// enum tag.
func SplitEnum(s string) (val, pgType string, ok bool) {
	i := strings.LastIndex(s, enumSep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(enumSep):], true
}

// Args converts a parameter list into driver arguments for database/sql.
// Integral numbers become int64 so drivers bind them as integers; arrays
// and objects are bound as their compact JSON text.
func Args(params []Value) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.driverArg()
	}
	return out
}

func (v Value) driverArg() any {
	switch x := v.data.(type) {
	case nil:
		return nil
	case bool:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case string:
		return x
	case []byte:
		return x
	default:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return nil
		}
		return string(b)
	}
}
