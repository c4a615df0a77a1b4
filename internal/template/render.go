package template

import (
	"html"
	"sort"
	"strings"

	"github.com/veranda-web/veranda/pkg/value"
)

// signal communicates loop control flow upward out of nested node
// sequences, so a break buried in conditionals still reaches its loop.
type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
)

// maxViewDepth bounds nested partial rendering. A chain this deep is a
// template cycle in practice.
const maxViewDepth = 64

// Render renders a compiled template against a context. The template
// is read-only and may be rendered concurrently; the context is owned
// by this call.
func Render(t *Template, ctx *Context) (string, error) {
	ctx.adopt(t)
	var sb strings.Builder
	sb.Grow(64 * len(t.Nodes))
	if _, err := renderNodes(t.Nodes, ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderString parses and renders source in one step.
func RenderString(input, file string, ctx *Context) (string, error) {
	t, err := ParseString(input, file)
	if err != nil {
		return "", err
	}
	return Render(t, ctx)
}

// RenderWithLayout renders a page template and wraps it in a layout.
// The page renders first; its output becomes the content consumed by
// the layout's body tag, its sections override the layout's same-named
// ones, and meta it sets is visible to the layout's head.
func RenderWithLayout(page, layout *Template, ctx *Context) (string, error) {
	content, err := Render(page, ctx)
	if err != nil {
		return "", err
	}
	ctx.Content = content
	return Render(layout, ctx)
}

// renderNodes walks a node sequence, appending output to sb. A break or
// continue signal stops the walk and propagates; accumulated output is
// always kept.
func renderNodes(nodes []Node, ctx *Context, sb *strings.Builder) (signal, error) {
	for _, n := range nodes {
		sig, err := renderNode(n, ctx, sb)
		if err != nil {
			return sigNone, err
		}
		if sig != sigNone {
			return sig, nil
		}
	}
	return sigNone, nil
}

func renderNode(n Node, ctx *Context, sb *strings.Builder) (signal, error) {
	switch node := n.(type) {
	case *TextNode:
		sb.WriteString(node.Text)

	case *VariableNode:
		var v value.Value
		if node.Expr != nil {
			v = ctx.evalExpr(node.Expr)
		} else {
			v = ctx.resolveVariable(node.Name)
		}
		writeValue(sb, v, node.Raw || isUnescapedName(node.Name))

	case *ModelNode:
		writeValue(sb, pathOrSelf(ctx.Model, node.Path), node.Raw)
	case *RepositoryNode:
		writeValue(sb, pathOrSelf(ctx.Repository, node.Path), node.Raw)
	case *GlobalNode:
		writeValue(sb, pathOrSelf(ctx.Global, node.Path), node.Raw)
	case *SessionNode:
		writeValue(sb, pathOrSelf(ctx.Session, node.Path), node.Raw)
	case *QueryNode:
		writeValue(sb, pathOrSelf(ctx.Query, node.Path), node.Raw)
	case *UserNode:
		writeValue(sb, pathOrSelf(ctx.User, node.Path), node.Raw)
	case *ConfNode:
		writeValue(sb, pathOrSelf(ctx.Conf, node.Path), node.Raw)
	case *ConfigNode:
		writeString(sb, ctx.Config[node.Key], node.Raw)

	case *IfBlock:
		return renderIf(node, ctx, sb)

	case *ForeachBlock:
		return sigNone, renderForeach(node, ctx, sb)

	case *BreakNode:
		return sigBreak, nil
	case *ContinueNode:
		return sigContinue, nil

	case *SectionDefNode, *HelperDefNode:
		// Registered during parsing; nothing renders in place.

	case *SectionCallNode:
		if body, ok := ctx.Sections[node.Name]; ok {
			return renderNodes(body, ctx, sb)
		}

	case *HelperCallNode:
		return sigNone, renderHelperCall(node, ctx, sb)

	case *ViewNode:
		return sigNone, renderView(node, ctx, sb)

	case *ImportNode:
		for _, f := range node.Files {
			writeImport(sb, ctx, f)
		}

	case *MetaNode:
		if node.Title == nil && node.Description == nil && node.Keywords == nil {
			sb.WriteString(metaTags(ctx))
			break
		}
		if node.Title != nil {
			ctx.Meta.Title = ctx.evalExpr(node.Title).Str()
		}
		if node.Description != nil {
			ctx.Meta.Description = ctx.evalExpr(node.Description).Str()
		}
		if node.Keywords != nil {
			ctx.Meta.Keywords = ctx.evalExpr(node.Keywords).Str()
		}

	case *HeadNode:
		sb.WriteString(metaTags(ctx))
		sb.WriteString(ctx.Head)

	case *BodyNode:
		sb.WriteString(ctx.Content)
	case *ContentNode:
		sb.WriteString(ctx.Content)

	case *CsrfNode:
		writeValue(sb, ctx.resolveVariable("csrf_token"), false)

	case *TranslateNode:
		sb.WriteString(translate(ctx, node))
	}

	return sigNone, nil
}

func renderIf(node *IfBlock, ctx *Context, sb *strings.Builder) (signal, error) {
	if ctx.evalExpr(node.Cond).Truthy() {
		return renderNodes(node.Then, ctx, sb)
	}
	for _, branch := range node.ElseIfs {
		if ctx.evalExpr(branch.Cond).Truthy() {
			return renderNodes(branch.Body, ctx, sb)
		}
	}
	if node.Else != nil {
		return renderNodes(node.Else, ctx, sb)
	}
	return sigNone, nil
}

// renderForeach pushes a loop frame, walks the body per item and pops
// the frame on every exit path, including errors.
func renderForeach(node *ForeachBlock, ctx *Context, sb *strings.Builder) error {
	items := iterationItems(ctx.evalExpr(node.Collection))
	if len(items) == 0 {
		return nil
	}

	frame := &loopFrame{varName: node.VarName, items: items}
	ctx.pushLoop(frame)
	for i := range items {
		frame.index = i
		sig, err := renderNodes(node.Body, ctx, sb)
		if err != nil {
			ctx.popLoop()
			return err
		}
		if sig == sigBreak {
			break
		}
		// A continue signal already stopped the body walk; advance.
	}
	ctx.popLoop()
	return nil
}

// iterationItems normalizes a collection for foreach: arrays iterate
// as-is, objects iterate as {key, value} entries in sorted key order.
// Anything else yields no iterations.
func iterationItems(v value.Value) []value.Value {
	if arr, ok := v.AsArray(); ok {
		return arr
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.Object(map[string]value.Value{
			"key":   value.String(k),
			"value": obj[k],
		})
	}
	return items
}

// renderHelperCall invokes a template-defined helper, binding arguments
// as locals for the body and restoring the previous locals afterwards
// so nested and recursive calls behave. Without a matching helper the
// call degrades to a builtin function evaluation.
func renderHelperCall(node *HelperCallNode, ctx *Context, sb *strings.Builder) error {
	h, ok := ctx.Helpers[node.Name]
	if !ok {
		writeValue(sb, ctx.callBuiltin(node.Name, node.Args), node.Raw)
		return nil
	}

	args := make([]value.Value, len(node.Args))
	for i, ae := range node.Args {
		args[i] = ctx.evalExpr(ae)
	}

	saved := ctx.locals
	locals := make(map[string]value.Value, len(h.Params))
	for i, p := range h.Params {
		if i < len(args) {
			locals[p] = args[i]
		} else {
			locals[p] = value.Null()
		}
	}
	ctx.locals = locals
	_, err := renderNodes(h.Body, ctx, sb)
	ctx.locals = saved
	return err
}

// renderView embeds another view. Load failures are structural: they
// abort the render in strict mode and degrade to an inline comment
// otherwise. Loop signals never cross a view boundary.
func renderView(node *ViewNode, ctx *Context, sb *strings.Builder) error {
	if ctx.depth >= maxViewDepth {
		return NewRenderErrorf(node.Pos(), "view nesting deeper than %d levels at %q", maxViewDepth, node.Name)
	}
	if ctx.Loader == nil {
		return viewMissing(node, ctx, sb, NewRenderErrorf(node.Pos(), "no view loader configured"))
	}
	sub, err := ctx.Loader(node.Name)
	if err != nil {
		return viewMissing(node, ctx, sb, WrapViewError(node.Pos(), node.Name, err))
	}

	if node.Model != nil {
		child := ctx.childForModel(ctx.evalExpr(node.Model))
		child.adopt(sub)
		_, err := renderNodes(sub.Nodes, child, sb)
		return err
	}

	ctx.depth++
	ctx.adopt(sub)
	_, err = renderNodes(sub.Nodes, ctx, sb)
	ctx.depth--
	return err
}

func viewMissing(node *ViewNode, ctx *Context, sb *strings.Builder, err error) error {
	if ctx.Strict {
		return err
	}
	sb.WriteString(`<!-- view "`)
	sb.WriteString(html.EscapeString(node.Name))
	sb.WriteString(`" not found -->`)
	return nil
}

func translate(ctx *Context, node *TranslateNode) string {
	if ctx.Translator == nil {
		return node.Text
	}
	if node.IsKey {
		return ctx.Translator.Key(node.Text)
	}
	return ctx.Translator.Text(node.Text)
}

// metaTags renders the collected page metadata.
func metaTags(ctx *Context) string {
	var sb strings.Builder
	if ctx.Meta.Title != "" {
		sb.WriteString("<title>")
		sb.WriteString(html.EscapeString(ctx.Meta.Title))
		sb.WriteString("</title>")
	}
	if ctx.Meta.Description != "" {
		sb.WriteString(`<meta name="description" content="`)
		sb.WriteString(html.EscapeString(ctx.Meta.Description))
		sb.WriteString(`">`)
	}
	if ctx.Meta.Keywords != "" {
		sb.WriteString(`<meta name="keywords" content="`)
		sb.WriteString(html.EscapeString(ctx.Meta.Keywords))
		sb.WriteString(`">`)
	}
	return sb.String()
}

// writeImport emits the asset tag for one import entry. The
// pseudo-files "meta" and "head" expand collected metadata and extra
// head markup instead of a file reference.
func writeImport(sb *strings.Builder, ctx *Context, file string) {
	switch {
	case file == "meta":
		sb.WriteString(metaTags(ctx))
	case file == "head":
		sb.WriteString(ctx.Head)
	case strings.HasSuffix(file, ".css"):
		sb.WriteString(`<link rel="stylesheet" href="`)
		sb.WriteString(html.EscapeString(file))
		sb.WriteString(`">`)
	case strings.HasSuffix(file, ".js"):
		sb.WriteString(`<script src="`)
		sb.WriteString(html.EscapeString(file))
		sb.WriteString(`"></script>`)
	case strings.HasSuffix(file, ".ico"):
		sb.WriteString(`<link rel="icon" href="`)
		sb.WriteString(html.EscapeString(file))
		sb.WriteString(`">`)
	}
}

// writeValue stringifies and writes a value, HTML-escaped unless raw.
// Null stringifies to nothing.
func writeValue(sb *strings.Builder, v value.Value, raw bool) {
	writeString(sb, v.Str(), raw)
}

func writeString(sb *strings.Builder, s string, raw bool) {
	if s == "" {
		return
	}
	if raw {
		sb.WriteString(s)
		return
	}
	sb.WriteString(html.EscapeString(s))
}

// isUnescapedName reports the system names whose output is never
// escaped: URL-shaped values the page composes links from.
func isUnescapedName(name string) bool {
	first, _ := splitFirstSegment(name)
	switch first {
	case "root", "url", "hostname":
		return true
	}
	return false
}
