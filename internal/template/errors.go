package template

import "fmt"

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// LexError represents an error during tag scanning.
type LexError struct {
	baseError
}

// NewLexError creates a new lexer error.
func NewLexError(pos Position, msg string) *LexError {
	return &LexError{baseError: baseError{pos: pos, msg: msg}}
}

// ParseError represents an error during parsing. A parse error fails the
// whole template; no partial template is ever produced.
type ParseError struct {
	baseError
}

// NewParseError creates a new parser error.
func NewParseError(pos Position, msg string) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: msg}}
}

// NewParseErrorf creates a new parser error with formatting.
func NewParseErrorf(pos Position, format string, args ...any) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// RenderError represents a structural error during template rendering,
// such as a partial that cannot be loaded or a recursion limit being hit.
// Value-level anomalies never produce a RenderError; they degrade to
// empty output instead.
type RenderError struct {
	baseError
	View  string // name of the partial or layout involved, if any
	Cause error
}

// NewRenderError creates a new render error.
func NewRenderError(pos Position, msg string) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: msg}}
}

// NewRenderErrorf creates a new render error with formatting.
func NewRenderErrorf(pos Position, format string, args ...any) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// WrapViewError wraps an underlying error as a render error attached to
// the named view.
func WrapViewError(pos Position, view string, cause error) *RenderError {
	return &RenderError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("rendering view %q", view)},
		View:      view,
		Cause:     cause,
	}
}

func (e *RenderError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// UnmatchedBlockError indicates a control flow block without its closing
// counterpart, or a stray terminator keyword.
type UnmatchedBlockError struct {
	baseError
	Keyword string // the offending keyword
}

// NewUnmatchedBlockError creates a new unmatched block error.
func NewUnmatchedBlockError(pos Position, keyword string) *UnmatchedBlockError {
	var msg string
	switch keyword {
	case "if":
		msg = "unclosed 'if' block (missing 'fi')"
	case "foreach":
		msg = "unclosed 'foreach' block (missing 'end')"
	case "section":
		msg = "unclosed 'section' block (missing 'end')"
	case "helper":
		msg = "unclosed 'helper' block (missing 'end')"
	case "fi":
		msg = "'fi' without matching 'if'"
	case "end":
		msg = "'end' without matching 'foreach', 'section' or 'helper'"
	case "else":
		msg = "'else' without matching 'if'"
	case "else if":
		msg = "'else if' without matching 'if'"
	default:
		msg = fmt.Sprintf("unmatched block: %s", keyword)
	}
	return &UnmatchedBlockError{
		baseError: baseError{pos: pos, msg: msg},
		Keyword:   keyword,
	}
}
