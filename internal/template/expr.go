package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone           = 0
//	precOr             = 1  (||)
//	precAnd            = 2  (&&)
//	precEquality       = 3  (==, !=)
//	precRelational     = 4  (<, <=, >, >=)
//	precAdditive       = 5  (+, -)
//	precMultiplicative = 6  (*, /, %)
//	precUnary          = 7  (!, -)
//
// The ternary operator binds loosest and is right-associative; it is
// handled above the binary climb.

const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
)

// exprTokenType identifies the type of an expression token.
type exprTokenType int

const (
	exprTokEOF exprTokenType = iota
	exprTokIdent
	exprTokNumber
	exprTokString
	exprTokSymbol
)

type exprToken struct {
	typ  exprTokenType
	text string
	num  float64
}

// scanExpr tokenizes expression source from inside a tag.
func scanExpr(src string, pos Position) ([]exprToken, error) {
	var toks []exprToken
	i := 0
	n := len(src)

	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, exprToken{typ: exprTokIdent, text: src[start:i]})

		case c >= '0' && c <= '9':
			start := i
			for i < n && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if i+1 < n && src[i] == '.' && src[i+1] >= '0' && src[i+1] <= '9' {
				i++
				for i < n && src[i] >= '0' && src[i] <= '9' {
					i++
				}
			}
			f, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, NewParseErrorf(pos, "invalid number %q", src[start:i])
			}
			toks = append(toks, exprToken{typ: exprTokNumber, text: src[start:i], num: f})

		case c == '\'' || c == '"':
			text, rest, err := scanStringLiteral(src[i:], pos)
			if err != nil {
				return nil, err
			}
			i = n - len(rest)
			toks = append(toks, exprToken{typ: exprTokString, text: text})

		default:
			// Multi-rune operators first
			if i+1 < n {
				two := src[i : i+2]
				switch two {
				case "==", "!=", "<=", ">=", "&&", "||":
					toks = append(toks, exprToken{typ: exprTokSymbol, text: two})
					i += 2
					continue
				}
			}
			switch c {
			case '+', '-', '*', '/', '%', '!', '<', '>', '(', ')', '[', ']', '{', '}', ',', ':', '?', '.':
				toks = append(toks, exprToken{typ: exprTokSymbol, text: string(c)})
				i++
			default:
				return nil, NewParseErrorf(pos, "unexpected character %q in expression", string(c))
			}
		}
	}

	toks = append(toks, exprToken{typ: exprTokEOF})
	return toks, nil
}

// scanStringLiteral reads a quoted string starting at src[0], returning
// the unescaped text and the remaining input.
func scanStringLiteral(src string, pos Position) (string, string, error) {
	quote := src[0]
	var sb strings.Builder
	i := 1
	for i < len(src) {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			next := src[i+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(next)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), src[i+1:], nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", NewParseErrorf(pos, "unterminated string literal")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// exprParser parses the token stream of a single tag expression.
type exprParser struct {
	toks []exprToken
	pos  int
	base Position
}

// CompileExpr parses expression source into an expression tree. The
// position names the enclosing tag for error reporting.
func CompileExpr(src string, pos Position) (Expr, error) {
	toks, err := scanExpr(src, pos)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks, base: pos}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != exprTokEOF {
		return nil, NewParseErrorf(pos, "unexpected %q after expression", p.cur().text)
	}
	return e, nil
}

func (p *exprParser) cur() exprToken { return p.toks[p.pos] }

func (p *exprParser) next() exprToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) isSymbol(s string) bool {
	t := p.cur()
	return t.typ == exprTokSymbol && t.text == s
}

func (p *exprParser) expectSymbol(s string) error {
	if !p.isSymbol(s) {
		return NewParseErrorf(p.base, "expected %q, found %q", s, p.describeCur())
	}
	p.next()
	return nil
}

func (p *exprParser) describeCur() string {
	t := p.cur()
	if t.typ == exprTokEOF {
		return "end of expression"
	}
	return t.text
}

// parseExpression parses a full expression including the ternary operator.
func (p *exprParser) parseExpression() (Expr, error) {
	cond, err := p.parseBinaryExpr(precOr)
	if err != nil {
		return nil, err
	}
	if !p.isSymbol("?") {
		return cond, nil
	}
	p.next()
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(":"); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Ternary{exprBase: exprBase{pos: p.base}, Cond: cond, Then: then, Else: els}, nil
}

// parseBinaryExpr implements precedence climbing over infix operators.
func (p *exprParser) parseBinaryExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}

	for {
		prec := p.infixPrecedence()
		if prec < minPrec {
			break
		}
		op := p.next().text

		// Parse right operand with higher precedence (left-associative)
		right, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{exprBase: exprBase{pos: p.base}, Op: op, Left: left, Right: right}
	}

	return left, nil
}

// infixPrecedence returns the precedence of the current token as an
// infix operator, or precNone if it is not one.
func (p *exprParser) infixPrecedence() int {
	t := p.cur()
	if t.typ != exprTokSymbol {
		return precNone
	}
	switch t.text {
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "==", "!=":
		return precEquality
	case "<", "<=", ">", ">=":
		return precRelational
	case "+", "-":
		return precAdditive
	case "*", "/", "%":
		return precMultiplicative
	default:
		return precNone
	}
}

// parseUnaryExpr parses prefix operators and primary expressions.
func (p *exprParser) parseUnaryExpr() (Expr, error) {
	if p.isSymbol("!") || p.isSymbol("-") {
		op := p.next().text
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &Unary{exprBase: exprBase{pos: p.base}, Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, identifiers with dotted chains, calls,
// grouping, and array/object literals, followed by property postfixes.
func (p *exprParser) parsePrimary() (Expr, error) {
	t := p.cur()

	switch t.typ {
	case exprTokNumber:
		p.next()
		return p.parsePostfix(&NumberLit{exprBase: exprBase{pos: p.base}, Value: t.num})

	case exprTokString:
		p.next()
		return p.parsePostfix(&StringLit{exprBase: exprBase{pos: p.base}, Value: t.text})

	case exprTokIdent:
		return p.parseIdentExpr()

	case exprTokSymbol:
		switch t.text {
		case "(":
			p.next()
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			return p.parsePostfix(inner)
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseObjectLit()
		}
	}

	return nil, NewParseErrorf(p.base, "unexpected %q in expression", p.describeCur())
}

// parseIdentExpr parses a bare name: keyword literals, dotted references
// and function calls. Dotted chains stay textual so the renderer can
// apply namespace precedence to the full path.
func (p *exprParser) parseIdentExpr() (Expr, error) {
	name := p.next().text

	switch name {
	case "true":
		return p.parsePostfix(&BoolLit{exprBase: exprBase{pos: p.base}, Value: true})
	case "false":
		return p.parsePostfix(&BoolLit{exprBase: exprBase{pos: p.base}, Value: false})
	case "null":
		return p.parsePostfix(&NullLit{exprBase: exprBase{pos: p.base}})
	}

	for p.isSymbol(".") {
		seg, ok := p.peekChainSegment()
		if !ok {
			break
		}
		p.next() // .
		p.next() // segment
		name += "." + seg
	}

	if p.isSymbol("(") {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return p.parsePostfix(&Call{exprBase: exprBase{pos: p.base}, Name: name, Args: args})
	}

	return &Ident{exprBase: exprBase{pos: p.base}, Name: name}, nil
}

// peekChainSegment reports the identifier or integer index following the
// current "." without consuming anything.
func (p *exprParser) peekChainSegment() (string, bool) {
	if p.pos+1 >= len(p.toks) {
		return "", false
	}
	t := p.toks[p.pos+1]
	switch t.typ {
	case exprTokIdent:
		return t.text, true
	case exprTokNumber:
		if !strings.Contains(t.text, ".") {
			return t.text, true
		}
	}
	return "", false
}

// parsePostfix applies trailing property accesses to a computed value.
func (p *exprParser) parsePostfix(e Expr) (Expr, error) {
	for p.isSymbol(".") {
		seg, ok := p.peekChainSegment()
		if !ok {
			return nil, NewParseErrorf(p.base, "expected property name after '.'")
		}
		p.next()
		p.next()
		e = &Property{exprBase: exprBase{pos: p.base}, Target: e, Name: seg}
	}
	return e, nil
}

// parseArgs parses a parenthesized, comma-separated argument list.
func (p *exprParser) parseArgs() ([]Expr, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var args []Expr
	if p.isSymbol(")") {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isSymbol(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *exprParser) parseArrayLit() (Expr, error) {
	p.next() // [
	arr := &ArrayLit{exprBase: exprBase{pos: p.base}}
	if p.isSymbol("]") {
		p.next()
		return p.parsePostfix(arr)
	}
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)
		if p.isSymbol(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	return p.parsePostfix(arr)
}

func (p *exprParser) parseObjectLit() (Expr, error) {
	p.next() // {
	obj := &ObjectLit{exprBase: exprBase{pos: p.base}}
	if p.isSymbol("}") {
		p.next()
		return p.parsePostfix(obj)
	}
	for {
		kt := p.cur()
		var key string
		switch kt.typ {
		case exprTokIdent, exprTokString:
			key = kt.text
		default:
			return nil, NewParseErrorf(p.base, "expected object key, found %q", p.describeCur())
		}
		p.next()
		if err := p.expectSymbol(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, val)
		if p.isSymbol(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}
	return p.parsePostfix(obj)
}

// exprString is a debugging aid used by parser error messages.
func exprString(e Expr) string {
	switch v := e.(type) {
	case *StringLit:
		return fmt.Sprintf("%q", v.Value)
	case *NumberLit:
		return strconv.FormatFloat(v.Value, 'f', -1, 64)
	case *Ident:
		return v.Name
	case *Call:
		return v.Name + "(...)"
	default:
		return "expression"
	}
}
