package template

import (
	"github.com/veranda-web/veranda/pkg/value"
)

// MetaData holds page metadata collected during rendering. It is shared
// between a page and its layout so @{meta(...)} in the page is visible
// to the layout's head.
type MetaData struct {
	Title       string
	Description string
	Keywords    string
}

// loopFrame tracks one active foreach loop.
type loopFrame struct {
	varName string
	items   []value.Value
	index   int
}

// Context carries the namespaces and mutable state of a single render.
// Contexts are created fresh per render call and never shared across
// concurrent renders; the compiled Template they render is shared and
// immutable.
type Context struct {
	Model      value.Value
	Repository value.Value // per-request repository (R)
	Global     value.Value // application repository (APP/MAIN)
	Session    value.Value
	Query      value.Value
	User       value.Value
	Config     map[string]string // flat application config table
	Conf       value.Value       // framework configuration (CONF)
	URL        string
	Hostname   string

	Translator Translator
	Loader     Loader

	// Strict aborts the render when an embedded view cannot be loaded;
	// otherwise a marker comment is emitted in its place.
	Strict bool

	Meta    *MetaData
	Head    string // extra markup emitted by head tags
	Content string // rendered page output consumed by body/content tags

	Sections map[string][]Node
	Helpers  map[string]*Helper

	locals map[string]value.Value
	loops  []*loopFrame
	depth  int
}

// NewContext creates a render context for the given model with empty
// namespaces.
func NewContext(model value.Value) *Context {
	return &Context{
		Model:      model,
		Repository: value.Object(nil),
		Global:     value.Object(nil),
		Session:    value.Object(nil),
		Query:      value.Object(nil),
		User:       value.Null(),
		Config:     make(map[string]string),
		Conf:       value.Object(nil),
		Meta:       &MetaData{},
		Sections:   make(map[string][]Node),
		Helpers:    make(map[string]*Helper),
		locals:     make(map[string]value.Value),
	}
}

// adopt merges a template's section and helper definitions into the
// context. Entries already present win, so sections injected from a
// page override same-named sections a layout defines itself.
func (c *Context) adopt(t *Template) {
	for name, body := range t.Sections {
		if _, ok := c.Sections[name]; !ok {
			c.Sections[name] = body
		}
	}
	for name, def := range t.Helpers {
		if _, ok := c.Helpers[name]; !ok {
			c.Helpers[name] = &Helper{Params: def.Params, Body: def.Body}
		}
	}
}

// childForModel creates the context a partial renders with when a model
// override is given: scoped to the new model, sharing every namespace
// except locals and the loop stack.
func (c *Context) childForModel(model value.Value) *Context {
	return &Context{
		Model:      model,
		Repository: c.Repository,
		Global:     c.Global,
		Session:    c.Session,
		Query:      c.Query,
		User:       c.User,
		Config:     c.Config,
		Conf:       c.Conf,
		URL:        c.URL,
		Hostname:   c.Hostname,
		Translator: c.Translator,
		Loader:     c.Loader,
		Strict:     c.Strict,
		Meta:       c.Meta,
		Head:       c.Head,
		Sections:   make(map[string][]Node),
		Helpers:    make(map[string]*Helper),
		locals:     make(map[string]value.Value),
		depth:      c.depth + 1,
	}
}

func (c *Context) pushLoop(f *loopFrame) {
	c.loops = append(c.loops, f)
}

func (c *Context) popLoop() {
	if len(c.loops) > 0 {
		c.loops = c.loops[:len(c.loops)-1]
	}
}

// resolveVariable resolves a dotted name against the context. The first
// segment selects a namespace by fixed precedence: reserved names, then
// the loop stack innermost-first, then helper locals, then top-level
// model keys. Unresolvable names yield Null, never an error.
func (c *Context) resolveVariable(name string) value.Value {
	if name == "" {
		return value.Null()
	}
	first, rest := splitFirstSegment(name)

	switch first {
	case "index":
		if len(c.loops) == 0 {
			return value.Null()
		}
		return pathOrSelf(value.Int(int64(c.loops[len(c.loops)-1].index)), rest)
	case "CONF":
		return pathOrSelf(c.Conf, rest)
	case "repository", "R":
		return pathOrSelf(c.Repository, rest)
	case "session":
		return pathOrSelf(c.Session, rest)
	case "flash":
		return c.Session.GetPath(joinPath("flash", rest))
	case "query":
		return pathOrSelf(c.Query, rest)
	case "user":
		return pathOrSelf(c.User, rest)
	case "url":
		return pathOrSelf(value.String(c.URL), rest)
	case "hostname":
		return pathOrSelf(value.String(c.Hostname), rest)
	case "model", "M":
		return pathOrSelf(c.Model, rest)
	case "APP", "MAIN":
		return pathOrSelf(c.Global, rest)
	case "csrf_token":
		if rest == "" {
			return c.Session.GetPath("csrf_token.token")
		}
		return c.Session.GetPath(rest + ".token")
	case "root":
		return pathOrSelf(c.Conf.GetPath("default_root"), rest)
	}

	for i := len(c.loops) - 1; i >= 0; i-- {
		f := c.loops[i]
		if f.varName != first {
			continue
		}
		if f.index < 0 || f.index >= len(f.items) {
			return value.Null()
		}
		return pathOrSelf(f.items[f.index], rest)
	}

	if local, ok := c.locals[first]; ok {
		return pathOrSelf(local, rest)
	}

	return c.Model.GetPath(name)
}

// pathOrSelf applies a dotted path to a value, or returns the value
// itself when the path is empty.
func pathOrSelf(v value.Value, path string) value.Value {
	if path == "" {
		return v
	}
	return v.GetPath(path)
}

func joinPath(head, rest string) string {
	if rest == "" {
		return head
	}
	return head + "." + rest
}
