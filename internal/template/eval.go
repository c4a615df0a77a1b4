package template

import (
	"math"

	"github.com/veranda-web/veranda/pkg/value"
)

// evalExpr evaluates an expression against the context. Evaluation is
// total: unknown names, type mismatches and unknown functions yield
// Null so a cosmetic mistake never aborts a page render.
func (c *Context) evalExpr(e Expr) value.Value {
	switch v := e.(type) {
	case *StringLit:
		return value.String(v.Value)
	case *NumberLit:
		return value.Number(v.Value)
	case *BoolLit:
		return value.Bool(v.Value)
	case *NullLit:
		return value.Null()
	case *Ident:
		return c.resolveVariable(v.Name)
	case *Property:
		return c.evalExpr(v.Target).GetPath(v.Name)
	case *ArrayLit:
		items := make([]value.Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = c.evalExpr(item)
		}
		return value.Array(items...)
	case *ObjectLit:
		obj := make(map[string]value.Value, len(v.Keys))
		for i, key := range v.Keys {
			obj[key] = c.evalExpr(v.Values[i])
		}
		return value.Object(obj)
	case *Unary:
		return c.evalUnary(v)
	case *Binary:
		return c.evalBinary(v)
	case *Call:
		return c.callBuiltin(v.Name, v.Args)
	case *Ternary:
		if c.evalExpr(v.Cond).Truthy() {
			return c.evalExpr(v.Then)
		}
		return c.evalExpr(v.Else)
	}
	return value.Null()
}

func (c *Context) evalUnary(u *Unary) value.Value {
	operand := c.evalExpr(u.Operand)
	switch u.Op {
	case "!":
		return value.Bool(!operand.Truthy())
	case "-":
		if f, ok := operand.AsNumber(); ok {
			return value.Number(-f)
		}
	}
	return value.Null()
}

func (c *Context) evalBinary(b *Binary) value.Value {
	// Short-circuit operators return the deciding operand so templates
	// can write fallbacks like name || 'guest'.
	switch b.Op {
	case "&&":
		left := c.evalExpr(b.Left)
		if !left.Truthy() {
			return left
		}
		return c.evalExpr(b.Right)
	case "||":
		left := c.evalExpr(b.Left)
		if left.Truthy() {
			return left
		}
		return c.evalExpr(b.Right)
	}

	left := c.evalExpr(b.Left)
	right := c.evalExpr(b.Right)

	switch b.Op {
	case "==":
		return value.Bool(left.Equal(right))
	case "!=":
		return value.Bool(!left.Equal(right))
	case "<", "<=", ">", ">=":
		cmp, ok := compareValues(left, right)
		if !ok {
			return value.Bool(false)
		}
		switch b.Op {
		case "<":
			return value.Bool(cmp < 0)
		case "<=":
			return value.Bool(cmp <= 0)
		case ">":
			return value.Bool(cmp > 0)
		default:
			return value.Bool(cmp >= 0)
		}
	case "+":
		if lf, ok := left.AsNumber(); ok {
			if rf, ok := right.AsNumber(); ok {
				return value.Number(lf + rf)
			}
		}
		if left.Kind() == value.KindString || right.Kind() == value.KindString {
			return value.String(left.Str() + right.Str())
		}
		return value.Null()
	case "-", "*", "/", "%":
		lf, lok := left.AsNumber()
		rf, rok := right.AsNumber()
		if !lok || !rok {
			return value.Null()
		}
		switch b.Op {
		case "-":
			return value.Number(lf - rf)
		case "*":
			return value.Number(lf * rf)
		case "/":
			if rf == 0 {
				return value.Null()
			}
			return value.Number(lf / rf)
		default:
			if rf == 0 {
				return value.Null()
			}
			return value.Number(math.Mod(lf, rf))
		}
	}
	return value.Null()
}

// compareValues orders two values when they are comparable: numbers
// numerically, strings lexicographically.
func compareValues(l, r value.Value) (int, bool) {
	if lf, ok := l.AsNumber(); ok {
		if rf, ok := r.AsNumber(); ok {
			switch {
			case lf < rf:
				return -1, true
			case lf > rf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if ls, ok := l.AsString(); ok {
		if rs, ok := r.AsString(); ok {
			switch {
			case ls < rs:
				return -1, true
			case ls > rs:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}
