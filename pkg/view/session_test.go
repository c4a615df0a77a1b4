package view

import (
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionData(t *testing.T) {
	s := &sessions.Session{
		ID: "abc123",
		Values: map[interface{}]interface{}{
			"theme": "dark",
			"cart":  3,
			42:      "unaddressable",
		},
	}

	data := SessionData(s)
	theme, _ := data.GetPath("theme").AsString()
	assert.Equal(t, "dark", theme)
	cart, _ := data.GetPath("cart").AsNumber()
	assert.Equal(t, float64(3), cart)
	id, _ := data.GetPath("id").AsString()
	assert.Equal(t, "abc123", id)

	obj, ok := data.AsObject()
	require.True(t, ok)
	assert.Len(t, obj, 3)
}

func TestSessionDataNil(t *testing.T) {
	data := SessionData(nil)
	_, ok := data.AsObject()
	assert.True(t, ok)
	assert.True(t, data.GetPath("anything").IsNull())
}

func TestCSRFTokens(t *testing.T) {
	s := &sessions.Session{Values: map[interface{}]interface{}{}}

	token := NewCSRFToken(s, "")
	require.NotEmpty(t, token)
	assert.Equal(t, token, CSRFToken(s, ""))
	assert.True(t, ValidCSRFToken(s, "", token))
	assert.False(t, ValidCSRFToken(s, "", "forged"))
	assert.False(t, ValidCSRFToken(s, "", ""))
	assert.False(t, ValidCSRFToken(nil, "", token))

	named := NewCSRFToken(s, "login_form")
	assert.NotEqual(t, token, named)
	assert.True(t, ValidCSRFToken(s, "login_form", named))
	assert.False(t, ValidCSRFToken(s, "login_form", token))
}

func TestCSRFTokenRendersThroughSession(t *testing.T) {
	s := &sessions.Session{Values: map[interface{}]interface{}{}}
	token := NewCSRFToken(s, "")

	e, views, _ := newTestEngine(t, Options{})
	writeTemplate(t, views, "form.html", "@{csrf}")

	out, err := e.RenderData("form", Data{Session: SessionData(s)}, "")
	require.NoError(t, err)
	assert.Equal(t, token, out)
}

func TestNamedCSRFTokenRendersThroughSession(t *testing.T) {
	s := &sessions.Session{Values: map[interface{}]interface{}{}}
	token := NewCSRFToken(s, "login_form")

	e, views, _ := newTestEngine(t, Options{})
	writeTemplate(t, views, "form.html", "@{csrf_token.login_form}")

	out, err := e.RenderData("form", Data{Session: SessionData(s)}, "")
	require.NoError(t, err)
	assert.Equal(t, token, out)
}
