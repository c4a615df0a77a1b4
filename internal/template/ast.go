// Package template implements the Veranda view template engine.
// It parses @{...} tags embedded in HTML into a typed AST and renders
// the AST against a request-scoped context of JSON-shaped values.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal markup text (passed through unchanged).
type TextNode struct {
	nodeBase
	Text string
}

// VariableNode represents a @{name} or @{expression} output tag.
// Simple dotted references keep their textual Name so the renderer can
// apply namespace precedence; anything more complex is precompiled into
// Expr. Raw suppresses HTML escaping (the @{!...} form).
type VariableNode struct {
	nodeBase
	Name string
	Raw  bool
	Expr Expr // non-nil when the tag holds a compiled expression
}

// ModelNode reads a dotted path from the view model (@{model.x}, @{M.x}).
// An empty path yields the whole model.
type ModelNode struct {
	nodeBase
	Path string
	Raw  bool
}

// RepositoryNode reads from the per-request repository namespace
// (@{repository.x}, @{R.x}).
type RepositoryNode struct {
	nodeBase
	Path string
	Raw  bool
}

// GlobalNode reads from the application-wide repository (@{APP.x}, @{MAIN.x}).
type GlobalNode struct {
	nodeBase
	Path string
	Raw  bool
}

// SessionNode reads from the session namespace (@{session.x}).
type SessionNode struct {
	nodeBase
	Path string
	Raw  bool
}

// QueryNode reads from the parsed query string (@{query.x}).
type QueryNode struct {
	nodeBase
	Path string
	Raw  bool
}

// UserNode reads from the authenticated user object (@{user.x}).
type UserNode struct {
	nodeBase
	Path string
	Raw  bool
}

// ConfigNode reads a key from the flat application config table
// (@{config.key} and the @{'%key'} shorthand).
type ConfigNode struct {
	nodeBase
	Key string
	Raw bool
}

// ConfNode reads a dotted path from the framework configuration
// (@{CONF.x}).
type ConfNode struct {
	nodeBase
	Path string
	Raw  bool
}

// IfBlock represents a complete @{if}/@{else if}/@{else}/@{fi} conditional.
type IfBlock struct {
	nodeBase
	Cond    Expr
	Then    []Node
	ElseIfs []Branch // else-if branches (may be empty)
	Else    []Node   // else branch (may be nil)
}

// Branch represents an else-if branch.
type Branch struct {
	Cond Expr
	Body []Node
	pos  Position
}

// ForeachBlock represents a @{foreach x in expr} ... @{end} loop.
type ForeachBlock struct {
	nodeBase
	VarName    string
	Collection Expr
	Body       []Node
}

// BreakNode exits the innermost foreach loop.
type BreakNode struct {
	nodeBase
}

// ContinueNode skips to the next iteration of the innermost foreach loop.
type ContinueNode struct {
	nodeBase
}

// SectionDefNode defines a named section (@{section name} ... @{end}).
// After the parser's extraction pass the body is also registered in
// Template.Sections; the node itself renders nothing.
type SectionDefNode struct {
	nodeBase
	Name string
	Body []Node
}

// SectionCallNode renders a named section (@{section('name')}), or
// nothing when the section is not defined.
type SectionCallNode struct {
	nodeBase
	Name string
}

// HelperDefNode defines a reusable helper (@{helper name(p1, p2)} ... @{end}).
// Registered in Template.Helpers by the extraction pass; renders nothing
// in place.
type HelperDefNode struct {
	nodeBase
	Name   string
	Params []string
	Body   []Node
}

// HelperCallNode invokes a helper with evaluated arguments. When no
// helper of that name is defined the call falls back to builtin function
// evaluation, escaped like any variable output unless Raw is set.
type HelperCallNode struct {
	nodeBase
	Name string
	Args []Expr
	Raw  bool
}

// ViewNode embeds another view (@{view('name')} or @{view('name', model)}).
type ViewNode struct {
	nodeBase
	Name  string
	Model Expr // optional model override; nil shares the caller's model
}

// ImportNode emits asset tags for the listed files (@{import('a.css', 'b.js')}).
// The pseudo-files "meta" and "head" expand the meta tags and the extra
// head content instead.
type ImportNode struct {
	nodeBase
	Files []string
}

// MetaNode stores page metadata into the render context
// (@{meta('title', 'description', 'keywords')}). It renders nothing;
// the layout's Head emits the collected values.
type MetaNode struct {
	nodeBase
	Title       Expr
	Description Expr
	Keywords    Expr
}

// HeadNode emits the collected meta tags and extra head content (@{head}).
type HeadNode struct {
	nodeBase
}

// BodyNode injects the rendered page output into a layout (@{body}).
type BodyNode struct {
	nodeBase
}

// ContentNode is the alias injection point for the page output (@{content}).
type ContentNode struct {
	nodeBase
}

// CsrfNode emits the session's CSRF token (@{csrf}).
type CsrfNode struct {
	nodeBase
}

// TranslateNode represents the quoted-literal tag family: @{'text'}
// translates literal text, @{'#key'} resolves a translation key.
type TranslateNode struct {
	nodeBase
	Text  string
	IsKey bool
}

// Expr is the interface for all expression AST nodes.
type Expr interface {
	Pos() Position
	expr() // marker method to restrict implementation
}

// exprBase provides common Position handling for all expressions.
type exprBase struct {
	pos Position
}

func (e *exprBase) Pos() Position { return e.pos }
func (e *exprBase) expr()         {}

// StringLit is a quoted string literal.
type StringLit struct {
	exprBase
	Value string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	exprBase
	Value float64
}

// BoolLit is true or false.
type BoolLit struct {
	exprBase
	Value bool
}

// NullLit is the null literal.
type NullLit struct {
	exprBase
}

// Ident is a bare or dotted name resolved through the context's
// namespace precedence (loop variables, reserved names, locals, model).
type Ident struct {
	exprBase
	Name string
}

// Property accesses a member of a computed value, e.g. (a ? b : c).name.
type Property struct {
	exprBase
	Target Expr
	Name   string
}

// ArrayLit is an inline array literal.
type ArrayLit struct {
	exprBase
	Items []Expr
}

// ObjectLit is an inline object literal.
type ObjectLit struct {
	exprBase
	Keys   []string
	Values []Expr
}

// Binary is an infix operation.
type Binary struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// Unary is a prefix operation (! or -).
type Unary struct {
	exprBase
	Op      string
	Operand Expr
}

// Call is a function invocation resolved against the builtin registry.
type Call struct {
	exprBase
	Name string
	Args []Expr
}

// Ternary is the cond ? then : else operator.
type Ternary struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

// Template represents a complete parsed template. Templates are
// immutable after parsing and safe for concurrent rendering.
type Template struct {
	Nodes    []Node
	Sections map[string][]Node
	Helpers  map[string]*HelperDefNode
	File     string // source file path
}

// Helper is the runtime shape of a helper definition bound into a
// render context.
type Helper struct {
	Params []string
	Body   []Node
}

// Translator resolves translation tags. Text receives the literal
// template text; Key receives a @{'#key'} lookup key and returns the
// key itself on a miss.
type Translator interface {
	Text(text string) string
	Key(key string) string
}

// Loader resolves a view name to its compiled template, typically
// backed by the view engine's parse cache.
type Loader func(name string) (*Template, error)
