package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_PlainText(t *testing.T) {
	input := "<h1>Products</h1>"
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	require.Len(t, tokens, 2, "expected 2 tokens") // TEXT + EOF

	assert.Equal(t, TokenText, tokens[0].Type, "expected TEXT")
	assert.Equal(t, input, tokens[0].Value, "expected input value")
	assert.Equal(t, TokenEOF, tokens[1].Type, "expected EOF")
}

func TestLexer_SimpleTag(t *testing.T) {
	input := "Hello @{name}!"
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	expected := []struct {
		typ TokenType
		val string
	}{
		{TokenText, "Hello "},
		{TokenTag, "name"},
		{TokenText, "!"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected), "wrong number of tokens")

	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token[%d] type", i)
		if exp.typ != TokenEOF {
			assert.Equal(t, exp.val, tokens[i].Value, "token[%d] value", i)
		}
	}
}

func TestLexer_MultipleTags(t *testing.T) {
	input := "@{a} + @{b}"
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	expected := []struct {
		typ TokenType
		val string
	}{
		{TokenTag, "a"},
		{TokenText, " + "},
		{TokenTag, "b"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected), "wrong number of tokens")

	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token[%d] type", i)
	}
}

func TestLexer_BlockTags(t *testing.T) {
	input := `@{foreach item in M.items}
<li>@{item.name}</li>
@{end}`
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	expectedTypes := []TokenType{
		TokenTag,  // "foreach item in M.items"
		TokenText, // "\n<li>"
		TokenTag,  // "item.name"
		TokenText, // "</li>\n"
		TokenTag,  // "end"
		TokenEOF,
	}

	require.Len(t, tokens, len(expectedTypes), "wrong number of tokens")

	for i, exp := range expectedTypes {
		assert.Equal(t, exp, tokens[i].Type, "token[%d] type", i)
	}
	assert.Equal(t, "foreach item in M.items", tokens[0].Value, "foreach tag content")
}

func TestLexer_NestedBraces(t *testing.T) {
	// Tag with object literal
	input := `@{ {key: "value"} }`
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	require.Len(t, tokens, 2, "expected 2 tokens") // TAG + EOF

	assert.Equal(t, TokenTag, tokens[0].Type, "expected TAG")
	assert.Equal(t, `{key: "value"}`, tokens[0].Value, "expected object literal")
}

func TestLexer_BraceInsideString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`@{'}'}`, `'}'`},
		{`@{"a}b"}`, `"a}b"`},
		{`@{'it\'s'}`, `'it\'s'`},
		{`@{join(tags, '} ')}`, `join(tags, '} ')`},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input, "test.html")
		tokens, err := lexer.Tokenize()
		require.NoError(t, err, "input %q: unexpected error", tt.input)

		require.Equal(t, TokenTag, tokens[0].Type, "input %q", tt.input)
		assert.Equal(t, tt.expected, tokens[0].Value, "input %q", tt.input)
	}
}

func TestLexer_UnclosedTag(t *testing.T) {
	input := "Hello @{name"
	lexer := NewLexer(input, "test.html")

	_, err := lexer.Tokenize()
	require.Error(t, err, "expected error for unclosed tag")

	lexErr, ok := err.(*LexError)
	require.True(t, ok, "expected LexError, got %T", err)

	assert.Equal(t, 1, lexErr.Position().Line, "expected line 1")
}

func TestLexer_PositionTracking(t *testing.T) {
	input := "line1\nline2\n@{expr}"
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	// The tag should be on line 3
	tagToken := tokens[1] // Skip first text token
	require.Equal(t, TokenTag, tagToken.Type, "expected TAG")
	assert.Equal(t, 3, tagToken.Pos.Line, "expected line 3")
}

func TestLexer_WhitespaceHandling(t *testing.T) {
	// Whitespace inside delimiters should be trimmed
	tests := []struct {
		input    string
		expected string
	}{
		{"@{  x  }", "x"},
		{"@{x}", "x"},
		{"@{  x + y  }", "x + y"},
		{"@{  foreach x in y  }", "foreach x in y"},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input, "test.html")
		tokens, err := lexer.Tokenize()
		require.NoError(t, err, "input %q: unexpected error", tt.input)

		assert.Equal(t, tt.expected, tokens[0].Value, "input %q", tt.input)
	}
}

func TestLexer_EmailTextUntouched(t *testing.T) {
	// A bare @ without a brace is ordinary text
	input := `<a href="mailto:info@example.com">info@example.com</a>`
	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	require.Len(t, tokens, 2, "expected 2 tokens")
	assert.Equal(t, input, tokens[0].Value, "text should pass through unchanged")
}

func TestLexer_ComplexTemplate(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head>@{meta}</head>
<body>
@{if user.logged}
  <p>Welcome @{user.name}</p>
@{else}
  <a href="@{root}/login">@{'Sign in'}</a>
@{fi}
@{foreach p in M.products}
  <div>@{p.title} - @{p.price}</div>
@{end}
</body>
</html>`

	lexer := NewLexer(input, "test.html")

	tokens, err := lexer.Tokenize()
	require.NoError(t, err, "unexpected error")

	counts := make(map[TokenType]int)
	for _, tok := range tokens {
		counts[tok.Type]++
	}

	// meta, if, user.name, else, root, 'Sign in', fi, foreach, p.title,
	// p.price, end = 11 tags
	assert.Equal(t, 11, counts[TokenTag], "expected 11 tags")
}
