package template

import (
	"fmt"
	"strings"
	"testing"

	"github.com/veranda-web/veranda/pkg/value"
)

func newTestContext() *Context {
	ctx := NewContext(value.From(map[string]any{
		"name":  "World",
		"html":  "<b>bold</b>",
		"title": "Products",
		"nums":  []any{1, 2, 3},
		"empty": []any{},
		"owner": map[string]any{
			"name":   "Ada",
			"logged": true,
		},
		"products": []any{
			map[string]any{"title": "Chair", "price": 19.99},
			map[string]any{"title": "Table", "price": 120},
		},
		"attrs": map[string]any{
			"b": 2,
			"a": 1,
		},
		"matrix": []any{
			[]any{1, 2},
			[]any{3, 4},
		},
		"tags": []any{"new", "sale"},
	}))

	ctx.User = value.From(map[string]any{
		"name":   "Ada",
		"logged": true,
	})
	ctx.Repository = value.From(map[string]any{"nav": "main-nav"})
	return ctx
}

func TestRenderer_Variables(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "<h1>hi</h1>", "<h1>hi</h1>"},
		{"simple variable", "Hello @{name}!", "Hello World!"},
		{"dotted path", "@{user.name}", "Ada"},
		{"escaped by default", "@{html}", "&lt;b&gt;bold&lt;/b&gt;"},
		{"raw output", "@{!html}", "<b>bold</b>"},
		{"missing name is empty", "[@{nosuch}]", "[]"},
		{"missing path is empty", "[@{user.nosuch.deep}]", "[]"},
		{"array index", "@{nums.1}", "2"},
		{"length synthetic", "@{nums.length}", "3"},
		{"string length", "@{name.length}", "5"},
		{"number formatting", "@{products.0.price}", "19.99"},
		{"whole object as json", "@{M.owner}", "{&#34;logged&#34;:true,&#34;name&#34;:&#34;Ada&#34;}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Conditionals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"true branch", "@{if user.logged}in@{else}out@{fi}", "in"},
		{"false branch", "@{if nosuch}in@{else}out@{fi}", "out"},
		{"no else no match", "@{if nosuch}in@{fi}", ""},
		{"else if chain", "@{if nosuch}a@{else if name}b@{else}c@{fi}", "b"},
		{"zero is false", "@{if 0}a@{else}b@{fi}", "b"},
		{"empty string is false", "@{if ''}a@{else}b@{fi}", "b"},
		{"empty array is false", "@{if empty}a@{else}b@{fi}", "b"},
		{"nonempty array is true", "@{if nums}a@{else}b@{fi}", "a"},
		{"comparison", "@{if nums.length > 2}many@{fi}", "many"},
		{"equality", "@{if user.name == 'Ada'}yes@{fi}", "yes"},
		{"negation", "@{if !user.logged}a@{else}b@{fi}", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Loops(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "array loop",
			input:    "@{foreach n in nums}@{n};@{end}",
			expected: "1;2;3;",
		},
		{
			name:     "loop index",
			input:    "@{foreach n in nums}@{index}:@{n} @{end}",
			expected: "0:1 1:2 2:3 ",
		},
		{
			name:     "object fields",
			input:    "@{foreach p in products}@{p.title}=@{p.price} @{end}",
			expected: "Chair=19.99 Table=120 ",
		},
		{
			name:     "object loop sorted by key",
			input:    "@{foreach e in attrs}@{e.key}=@{e.value};@{end}",
			expected: "a=1;b=2;",
		},
		{
			name:     "nested loops shadow the variable",
			input:    "@{foreach x in matrix}@{foreach x in x}@{x}@{end}|@{end}",
			expected: "12|34|",
		},
		{
			name:     "empty collection renders nothing",
			input:    "[@{foreach n in empty}@{n}@{end}]",
			expected: "[]",
		},
		{
			name:     "non-collection renders nothing",
			input:    "[@{foreach n in name}@{n}@{end}]",
			expected: "[]",
		},
		{
			name:     "index outside loop is empty",
			input:    "@{foreach n in nums}@{end}[@{index}]",
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_BreakContinue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "break keeps accumulated text",
			input:    "@{foreach n in nums}@{n}@{if n == 2}@{break}@{fi}@{end}",
			expected: "12",
		},
		{
			name:     "continue keeps partial iteration text",
			input:    "@{foreach n in nums}a@{if n == 2}@{continue}@{fi}b@{end}",
			expected: "abaab",
		},
		{
			name:     "break deep inside conditionals",
			input:    "@{foreach n in nums}@{if n > 0}@{if n == 2}@{break}@{fi}@{n}@{fi}@{end}",
			expected: "1",
		},
		{
			name:     "break only exits the inner loop",
			input:    "@{foreach row in matrix}@{foreach n in row}@{if n == 3}@{break}@{fi}@{n}@{end};@{end}",
			expected: "12;4;",
		},
		{
			name:     "break outside a loop stops the sequence",
			input:    "before@{break}after",
			expected: "before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Sections(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "definition renders nothing in place",
			input:    "a@{section s}S@{end}b",
			expected: "ab",
		},
		{
			name:     "call renders the body",
			input:    "@{section s}S@{end}[@{section('s')}]",
			expected: "[S]",
		},
		{
			name:     "call before definition works",
			input:    "[@{section('s')}]@{section s}S@{end}",
			expected: "[S]",
		},
		{
			name:     "missing section is empty",
			input:    "[@{section('nosuch')}]",
			expected: "[]",
		},
		{
			name:     "section body sees the context",
			input:    "@{section s}@{user.name}@{end}@{section('s')}",
			expected: "Ada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Helpers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "helper with arguments",
			input:    "@{helper tag(text)}<i>@{text}</i>@{end}@{tag('x')}@{tag(user.name)}",
			expected: "<i>x</i><i>Ada</i>",
		},
		{
			name:     "missing argument binds null",
			input:    "@{helper two(a, b)}[@{a}@{b}]@{end}@{two('x')}",
			expected: "[x]",
		},
		{
			name:     "locals are restored after the call",
			input:    "@{helper shadow(name)}@{name}@{end}@{shadow('inner')}-@{name}",
			expected: "inner-World",
		},
		{
			name:     "nested helper calls",
			input:    "@{helper inner(v)}<@{v}>@{end}@{helper outer(v)}[@{inner(v)}]@{end}@{outer('x')}",
			expected: "[<x>]",
		},
		{
			name:     "unknown call falls back to builtins",
			input:    "@{upper(name)}",
			expected: "WORLD",
		},
		{
			name:     "unknown function is empty",
			input:    "[@{frobnicate(name)}]",
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Expressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"arithmetic", "@{1 + 2 * 3}", "7"},
		{"grouping", "@{(1 + 2) * 3}", "9"},
		{"string concat", "@{'Hello ' + user.name}", "Hello Ada"},
		{"ternary", "@{user.logged ? 'in' : 'out'}", "in"},
		{"or fallback", "@{nosuch || 'guest'}", "guest"},
		{"and gate", "@{user.logged && user.name}", "Ada"},
		{"division by zero is empty", "[@{1 / 0}]", "[]"},
		{"modulo", "@{7 % 3}", "1"},
		{"unary minus", "@{-nums.1}", "-2"},
		{"length builtin", "@{length(products)}", "2"},
		{"join builtin", "@{join(tags, ', ')}", "new, sale"},
		{"join default separator", "@{join(tags)}", "new,sale"},
		{"contains string", "@{contains(user.name, 'd') ? 'y' : 'n'}", "y"},
		{"contains array", "@{contains(tags, 'sale') ? 'y' : 'n'}", "y"},
		{"default builtin", "@{default(nosuch, 'fallback')}", "fallback"},
		{"default keeps value", "@{default(user.name, 'fallback')}", "Ada"},
		{"first and last", "@{first(nums)}@{last(nums)}", "13"},
		{"keys sorted", "@{join(keys(attrs), '-')}", "a-b"},
		{"json builtin raw", "@{!json(tags)}", `["new","sale"]`},
		{"array literal", "@{join(['x', 'y'], '+')}", "x+y"},
		{"object literal member", "@{ {a: 1, b: 2}.b }", "2"},
		{"trim builtin", "@{trim('  x  ')}", "x"},
		{"lower builtin", "@{lower('ABC')}", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Namespaces(t *testing.T) {
	ctx := newTestContext()
	ctx.Global = value.From(map[string]any{"version": "1.4.0"})
	ctx.Session = value.From(map[string]any{
		"uid":        7,
		"flash":      map[string]any{"notice": "saved"},
		"csrf_token": map[string]any{"token": "tok-default"},
		"login_form": map[string]any{"token": "tok-login"},
	})
	ctx.Query = value.From(map[string]any{"page": "2"})
	ctx.User = value.From(map[string]any{"email": "ada@example.com"})
	ctx.Config["smtp_host"] = "mail.local"
	ctx.Conf = value.From(map[string]any{
		"name":         "veranda-app",
		"default_root": "/app",
	})
	ctx.URL = "/products?page=2"
	ctx.Hostname = "https://example.com"

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"repository", "@{R.nav}", "main-nav"},
		{"repository long form", "@{repository.nav}", "main-nav"},
		{"global", "@{APP.version}", "1.4.0"},
		{"global alias", "@{MAIN.version}", "1.4.0"},
		{"session", "@{session.uid}", "7"},
		{"flash alias", "@{flash.notice}", "saved"},
		{"query", "@{query.page}", "2"},
		{"user", "@{user.email}", "ada@example.com"},
		{"conf", "@{CONF.name}", "veranda-app"},
		{"config table", "@{config.smtp_host}", "mail.local"},
		{"config shorthand", "@{'%smtp_host'}", "mail.local"},
		{"root from conf", "@{root}/login", "/app/login"},
		{"url unescaped", "@{url}", "/products?page=2"},
		{"hostname unescaped", "@{hostname}", "https://example.com"},
		{"csrf token default", "@{csrf_token}", "tok-default"},
		{"csrf token named", "@{csrf_token.login_form}", "tok-login"},
		{"csrf node", "@{csrf}", "tok-default"},
		{"model via prefix", "@{M.title}", "Products"},
		{"unknown user field is empty", "@{user.name}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseString(tt.input, "test.html")
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			result, err := Render(tmpl, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_Translation(t *testing.T) {
	ctx := newTestContext()
	ctx.Translator = mapTranslator{
		texts: map[string]string{"Sign in": "Prihlásiť sa"},
		keys:  map[string]string{"login.title": "Prihlásenie"},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"literal text", "@{'Sign in'}", "Prihlásiť sa"},
		{"unknown literal passes through", "@{'Sign out'}", "Sign out"},
		{"key lookup", "@{'#login.title'}", "Prihlásenie"},
		{"missing key yields the key", "@{'#login.missing'}", "login.missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseString(tt.input, "test.html")
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			result, err := Render(tmpl, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRenderer_TranslationWithoutTranslator(t *testing.T) {
	result, err := RenderString("@{'Sign in'}/@{'#login.title'}", "test.html", newTestContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Sign in/login.title" {
		t.Errorf("expected passthrough, got %q", result)
	}
}

type mapTranslator struct {
	texts map[string]string
	keys  map[string]string
}

func (m mapTranslator) Text(s string) string {
	if v, ok := m.texts[s]; ok {
		return v
	}
	return s
}

func (m mapTranslator) Key(k string) string {
	if v, ok := m.keys[k]; ok {
		return v
	}
	return k
}

func mapLoader(views map[string]string) Loader {
	return func(name string) (*Template, error) {
		src, ok := views[name]
		if !ok {
			return nil, fmt.Errorf("view %q not found", name)
		}
		return ParseString(src, name+".html")
	}
}

func TestRenderer_Views(t *testing.T) {
	views := map[string]string{
		"header":  "<header>@{user.name}</header>",
		"card":    "<div>@{M.title}:@{M.price}</div>",
		"locals":  "[@{name}]",
		"recurse": "@{view('recurse')}",
	}

	t.Run("include shares the context", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		result, err := Render(mustParse(t, "a@{view('header')}b"), ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "a<header>Ada</header>b" {
			t.Errorf("got %q", result)
		}
	})

	t.Run("model override scopes the partial", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		result, err := Render(mustParse(t, "@{foreach p in products}@{view('card', p)}@{end}"), ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "<div>Chair:19.99</div><div>Table:120</div>" {
			t.Errorf("got %q", result)
		}
	})

	t.Run("model override hides caller model keys", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		// The partial reads "name"; under an override scoped to user
		// it resolves against the user object, not the page model.
		result, err := Render(mustParse(t, "@{view('locals', user)}"), ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "[Ada]" {
			t.Errorf("got %q", result)
		}
	})

	t.Run("missing view renders a marker comment", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		result, err := Render(mustParse(t, "a@{view('missing')}b"), ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != `a<!-- view "missing" not found -->b` {
			t.Errorf("got %q", result)
		}
	})

	t.Run("missing view fails in strict mode", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		ctx.Strict = true
		_, err := Render(mustParse(t, "@{view('missing')}"), ctx)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), `"missing"`) {
			t.Errorf("error should name the view: %v", err)
		}
	})

	t.Run("recursion depth is bounded", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Loader = mapLoader(views)
		_, err := Render(mustParse(t, "@{view('recurse')}"), ctx)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "view nesting") {
			t.Errorf("expected depth error, got: %v", err)
		}
	})
}

func TestRenderer_Layout(t *testing.T) {
	page := mustParse(t, "@{meta('Products', 'All products', '')}@{section side}PAGE-SIDE@{end}CONTENT")
	layout := mustParse(t, "<head>@{head}</head><aside>@{section('side')}</aside><main>@{body}</main>")

	ctx := newTestContext()
	result, err := RenderWithLayout(page, layout, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `<head><title>Products</title><meta name="description" content="All products"></head>` +
		`<aside>PAGE-SIDE</aside><main>CONTENT</main>`
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestRenderer_LayoutSectionOverride(t *testing.T) {
	page := mustParse(t, "@{section side}PAGE@{end}x")
	layout := mustParse(t, "@{section side}LAYOUT@{end}[@{section('side')}]@{body}")

	ctx := newTestContext()
	result, err := RenderWithLayout(page, layout, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "[PAGE]x" {
		t.Errorf("page section should win, got %q", result)
	}
}

func TestRenderer_MetaAndImports(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "meta set then emitted",
			input:    "@{meta('T', 'D', 'K')}@{meta}",
			expected: `<title>T</title><meta name="description" content="D"><meta name="keywords" content="K">`,
		},
		{
			name:     "import asset tags",
			input:    "@{import('default.css', 'app.js', 'favicon.ico')}",
			expected: `<link rel="stylesheet" href="default.css"><script src="app.js"></script><link rel="icon" href="favicon.ico">`,
		},
		{
			name:     "import meta pseudo-file",
			input:    "@{meta('T', '', '')}@{import('meta', 'app.js')}",
			expected: `<title>T</title><script src="app.js"></script>`,
		},
		{
			name:     "unknown extension is skipped",
			input:    "[@{import('readme.txt')}]",
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := ParseString(src, "test.html")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return tmpl
}
