// Package view is the rendering entrypoint of the framework: it maps view
// and layout names to template files, compiles them through a shared
// modification-time-keyed cache, and renders them with the full set of
// template namespaces. The HTTP layer hands it a view name, a data blob and
// an optional layout and gets back the final page.
package view

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veranda-web/veranda/internal/template"
	"github.com/veranda-web/veranda/pkg/i18n"
	"github.com/veranda-web/veranda/pkg/value"
)

// Data carries the namespaces a render can address. Zero fields fall back to
// the engine's defaults or stay empty.
type Data struct {
	Model      value.Value
	Repository value.Value // per-request repository (R)
	Global     value.Value // application repository (APP/MAIN)
	Session    value.Value
	Query      value.Value
	User       value.Value
	Config     map[string]string
	Conf       value.Value
	URL        string
	Hostname   string
	Languages  []string // Accept-Language preferences for translation
}

// Options configures an Engine.
type Options struct {
	// ViewsDir is the root directory for view templates. Defaults to "views".
	ViewsDir string
	// LayoutsDir is the directory for layout templates. Defaults to
	// "layouts". Layout names containing a path separator resolve under
	// ViewsDir instead.
	LayoutsDir string
	// Strict aborts a render when an embedded view cannot be loaded instead
	// of emitting an inline marker comment.
	Strict bool
	// HotReload revalidates file modification times on every cache read.
	HotReload bool
	// Bundle supplies translations; nil renders translation tags verbatim.
	Bundle *i18n.Bundle
	// Conf is the framework configuration exposed as the CONF namespace.
	Conf value.Value
	// Config is the flat legacy string configuration table.
	Config map[string]string
	// Logger receives cache and watcher events. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Engine renders view templates. It is safe for concurrent use; every
// render gets a fresh context while compiled templates are shared through
// the cache.
type Engine struct {
	views     string
	layouts   string
	strict    bool
	hotReload bool
	bundle    *i18n.Bundle
	conf      value.Value
	config    map[string]string
	logger    *slog.Logger
	cache     *templateCache
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	views := opts.ViewsDir
	if views == "" {
		views = "views"
	}
	layouts := opts.LayoutsDir
	if layouts == "" {
		layouts = "layouts"
	}
	return &Engine{
		views:     views,
		layouts:   layouts,
		strict:    opts.Strict,
		hotReload: opts.HotReload,
		bundle:    opts.Bundle,
		conf:      opts.Conf,
		config:    opts.Config,
		logger:    logger,
		cache:     newTemplateCache(),
	}
}

// Render renders the named view with the given model and an optional layout
// name. An empty layout renders the view alone.
func (e *Engine) Render(name string, model value.Value, layout string) (string, error) {
	return e.RenderData(name, Data{Model: model}, layout)
}

// RenderData renders the named view with a full set of namespaces.
func (e *Engine) RenderData(name string, data Data, layout string) (string, error) {
	tmpl, err := e.load(e.viewPath(name))
	if err != nil {
		return "", fmt.Errorf("failed to load view %q: %w", name, err)
	}

	ctx := e.newContext(data)
	if layout == "" {
		return template.Render(tmpl, ctx)
	}

	layoutTmpl, err := e.load(e.layoutPath(layout))
	if err != nil {
		return "", fmt.Errorf("failed to load layout %q: %w", layout, err)
	}
	return template.RenderWithLayout(tmpl, layoutTmpl, ctx)
}

// RenderString renders template source directly, without the file cache.
// Embedded views still resolve through the engine.
func (e *Engine) RenderString(src string, data Data) (string, error) {
	return template.RenderString(src, "inline", e.newContext(data))
}

// newContext builds the per-render context from engine defaults and the
// caller's data.
func (e *Engine) newContext(data Data) *template.Context {
	ctx := template.NewContext(data.Model)
	if !data.Repository.IsNull() {
		ctx.Repository = data.Repository
	}
	if !data.Global.IsNull() {
		ctx.Global = data.Global
	}
	if !data.Session.IsNull() {
		ctx.Session = data.Session
	}
	if !data.Query.IsNull() {
		ctx.Query = data.Query
	}
	if !data.User.IsNull() {
		ctx.User = data.User
	}
	switch {
	case data.Config != nil:
		ctx.Config = data.Config
	case e.config != nil:
		ctx.Config = e.config
	}
	if !data.Conf.IsNull() {
		ctx.Conf = data.Conf
	} else if !e.conf.IsNull() {
		ctx.Conf = e.conf
	}
	ctx.URL = data.URL
	ctx.Hostname = data.Hostname
	ctx.Strict = e.strict
	ctx.Loader = e.loadView
	if e.bundle != nil {
		ctx.Translator = e.bundle.Translator(data.Languages...)
	}
	return ctx
}

// loadView is the loader embedded views resolve through; it applies the same
// name mapping and cache as top-level renders.
func (e *Engine) loadView(name string) (*template.Template, error) {
	return e.load(e.viewPath(name))
}

// viewPath maps a view name to its file: a leading slash is stripped and
// ".html" appended when missing.
func (e *Engine) viewPath(name string) string {
	name = strings.TrimPrefix(name, "/")
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	return filepath.Join(e.views, name)
}

// layoutPath maps a layout name to its file. Names without a path separator
// resolve in the layouts directory; names with one resolve like views.
func (e *Engine) layoutPath(name string) string {
	name = strings.TrimPrefix(name, "/")
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	if strings.ContainsRune(name, '/') {
		return filepath.Join(e.views, name)
	}
	return filepath.Join(e.layouts, name)
}

// load returns the compiled template for path, consulting the cache first.
// The file is read and compiled outside the cache lock; on a concurrent
// miss the first stored entry wins and redundant compiles are discarded.
func (e *Engine) load(path string) (*template.Template, error) {
	if !e.hotReload {
		if tmpl, _, ok := e.cache.get(path); ok {
			return tmpl, nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat template: %w", err)
	}

	if e.hotReload {
		if tmpl, mod, ok := e.cache.get(path); ok && mod.Equal(info.ModTime()) {
			return tmpl, nil
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := template.ParseString(string(src), path)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("compiled template",
		slog.String("path", path),
		slog.Int("nodes", len(tmpl.Nodes)))
	return e.cache.put(path, tmpl, info.ModTime()), nil
}
