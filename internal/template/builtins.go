package template

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/veranda-web/veranda/pkg/value"
)

// builtins is the registry of functions callable from expressions.
// Helpers defined in the template shadow these at call sites.
var builtins = map[string]func(args []value.Value) value.Value{
	"length":   builtinLength,
	"upper":    builtinUpper,
	"lower":    builtinLower,
	"trim":     builtinTrim,
	"join":     builtinJoin,
	"contains": builtinContains,
	"default":  builtinDefault,
	"first":    builtinFirst,
	"last":     builtinLast,
	"keys":     builtinKeys,
	"json":     builtinJSON,
}

// callBuiltin evaluates arguments and invokes the named builtin, or
// yields Null for an unknown function.
func (c *Context) callBuiltin(name string, argExprs []Expr) value.Value {
	fn, ok := builtins[name]
	if !ok {
		return value.Null()
	}
	args := make([]value.Value, len(argExprs))
	for i, ae := range argExprs {
		args[i] = c.evalExpr(ae)
	}
	return fn(args)
}

func builtinLength(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	v := args[0]
	if arr, ok := v.AsArray(); ok {
		return value.Int(int64(len(arr)))
	}
	if s, ok := v.AsString(); ok {
		return value.Int(int64(utf8.RuneCountInString(s)))
	}
	if obj, ok := v.AsObject(); ok {
		return value.Int(int64(len(obj)))
	}
	return value.Null()
}

func builtinUpper(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	return value.String(strings.ToUpper(args[0].Str()))
}

func builtinLower(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	return value.String(strings.ToLower(args[0].Str()))
}

func builtinTrim(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	return value.String(strings.TrimSpace(args[0].Str()))
}

// builtinJoin joins array elements with a separator, "," when omitted.
func builtinJoin(args []value.Value) value.Value {
	if len(args) < 1 || len(args) > 2 {
		return value.Null()
	}
	arr, ok := args[0].AsArray()
	if !ok {
		return value.Null()
	}
	sep := ","
	if len(args) == 2 {
		sep = args[1].Str()
	}
	parts := make([]string, len(arr))
	for i, item := range arr {
		parts[i] = item.Str()
	}
	return value.String(strings.Join(parts, sep))
}

// builtinContains checks substring presence on strings, element
// membership on arrays and key presence on objects.
func builtinContains(args []value.Value) value.Value {
	if len(args) != 2 {
		return value.Null()
	}
	haystack, needle := args[0], args[1]
	if s, ok := haystack.AsString(); ok {
		return value.Bool(strings.Contains(s, needle.Str()))
	}
	if arr, ok := haystack.AsArray(); ok {
		for _, item := range arr {
			if item.Equal(needle) {
				return value.Bool(true)
			}
		}
		return value.Bool(false)
	}
	if obj, ok := haystack.AsObject(); ok {
		_, present := obj[needle.Str()]
		return value.Bool(present)
	}
	return value.Bool(false)
}

// builtinDefault substitutes the fallback for null or empty-string
// values.
func builtinDefault(args []value.Value) value.Value {
	if len(args) != 2 {
		return value.Null()
	}
	v := args[0]
	if v.IsNull() {
		return args[1]
	}
	if s, ok := v.AsString(); ok && s == "" {
		return args[1]
	}
	return v
}

func builtinFirst(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	if arr, ok := args[0].AsArray(); ok && len(arr) > 0 {
		return arr[0]
	}
	return value.Null()
}

func builtinLast(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	if arr, ok := args[0].AsArray(); ok && len(arr) > 0 {
		return arr[len(arr)-1]
	}
	return value.Null()
}

// builtinKeys returns an object's keys as a sorted array.
func builtinKeys(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	obj, ok := args[0].AsObject()
	if !ok {
		return value.Null()
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.String(k)
	}
	return value.Array(items...)
}

func builtinJSON(args []value.Value) value.Value {
	if len(args) != 1 {
		return value.Null()
	}
	data, err := json.Marshal(args[0].Interface())
	if err != nil {
		return value.Null()
	}
	return value.String(string(data))
}
