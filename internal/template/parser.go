package template

import "strings"

// Parser assembles the lexer's token stream into block-structured nodes.
type Parser struct {
	tokens []Token
	pos    int
}

// ParseString parses template source into a Template. Any syntax error
// fails the whole parse; no partial template is returned.
func ParseString(input, file string) (*Template, error) {
	lex := NewLexer(input, file)
	tokens, err := lex.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens}
	var nodes []Node
	for p.cur().Type != TokenEOF {
		tok := p.cur()
		if tok.Type == TokenText {
			p.next()
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})
			continue
		}
		node, err := p.parseTagNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	t := &Template{
		Nodes:    nodes,
		Sections: make(map[string][]Node),
		Helpers:  make(map[string]*HelperDefNode),
		File:     file,
	}
	extractDefs(t, nodes)
	return t, nil
}

func (p *Parser) cur() Token { return p.tokens[p.pos] }

func (p *Parser) next() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// parseTagNode consumes the current tag token and produces its node,
// recursing into block bodies for block constructs.
func (p *Parser) parseTagNode() (Node, error) {
	tok := p.next()

	switch tagKeyword(tok.Value) {
	case "if":
		return p.parseIf(tok)
	case "foreach":
		return p.parseForeach(tok)
	case "section":
		return p.parseSection(tok)
	case "helper":
		return p.parseHelper(tok)
	case "view":
		return p.parseView(tok)
	case "import":
		return p.parseImport(tok)
	case "meta":
		return p.parseMeta(tok)
	case "break":
		return &BreakNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "continue":
		return &ContinueNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "head":
		return &HeadNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "body":
		return &BodyNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "content":
		return &ContentNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "csrf":
		return &CsrfNode{nodeBase: nodeBase{pos: tok.Pos}}, nil
	case "fi", "end", "else", "else if":
		return nil, NewUnmatchedBlockError(tok.Pos, tagKeyword(tok.Value))
	default:
		return p.parseOutputTag(tok)
	}
}

// parseBody parses nodes until one of the stop keywords appears,
// returning the stopping tag. EOF before a stop keyword means the
// opener was never closed.
func (p *Parser) parseBody(opener Token, openerKeyword string, stops ...string) ([]Node, Token, string, error) {
	stopSet := make(map[string]bool, len(stops))
	for _, s := range stops {
		stopSet[s] = true
	}

	var nodes []Node
	for {
		tok := p.cur()
		switch tok.Type {
		case TokenEOF:
			return nil, Token{}, "", NewUnmatchedBlockError(opener.Pos, openerKeyword)
		case TokenText:
			p.next()
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})
		default:
			if kw := tagKeyword(tok.Value); stopSet[kw] {
				p.next()
				return nodes, tok, kw, nil
			}
			node, err := p.parseTagNode()
			if err != nil {
				return nil, Token{}, "", err
			}
			nodes = append(nodes, node)
		}
	}
}

func (p *Parser) parseIf(tok Token) (Node, error) {
	condSrc := afterKeyword(tok.Value, "if")
	if condSrc == "" {
		return nil, NewParseError(tok.Pos, "missing condition in 'if'")
	}
	cond, err := CompileExpr(condSrc, tok.Pos)
	if err != nil {
		return nil, err
	}

	node := &IfBlock{nodeBase: nodeBase{pos: tok.Pos}, Cond: cond}
	body, stopTok, stop, err := p.parseBody(tok, "if", "else if", "else", "fi")
	if err != nil {
		return nil, err
	}
	node.Then = body

	for stop == "else if" {
		branchCond := afterKeyword(afterKeyword(stopTok.Value, "else"), "if")
		if branchCond == "" {
			return nil, NewParseError(stopTok.Pos, "missing condition in 'else if'")
		}
		cond, err := CompileExpr(branchCond, stopTok.Pos)
		if err != nil {
			return nil, err
		}
		body, nextTok, nextStop, err := p.parseBody(tok, "if", "else if", "else", "fi")
		if err != nil {
			return nil, err
		}
		node.ElseIfs = append(node.ElseIfs, Branch{Cond: cond, Body: body, pos: stopTok.Pos})
		stopTok, stop = nextTok, nextStop
	}

	if stop == "else" {
		body, _, _, err := p.parseBody(tok, "if", "fi")
		if err != nil {
			return nil, err
		}
		node.Else = body
		return node, nil
	}

	// stop == "fi"
	return node, nil
}

func (p *Parser) parseForeach(tok Token) (Node, error) {
	rest := afterKeyword(tok.Value, "foreach")
	varName := leadingIdent(rest)
	if varName == "" {
		return nil, NewParseError(tok.Pos, "expected loop variable after 'foreach'")
	}
	rest = strings.TrimSpace(rest[len(varName):])
	if leadingIdent(rest) != "in" {
		return nil, NewParseErrorf(tok.Pos, "expected 'in' in foreach, found %q", rest)
	}
	collSrc := strings.TrimSpace(rest[2:])
	if collSrc == "" {
		return nil, NewParseError(tok.Pos, "missing collection expression in 'foreach'")
	}
	coll, err := CompileExpr(collSrc, tok.Pos)
	if err != nil {
		return nil, err
	}

	body, _, _, err := p.parseBody(tok, "foreach", "end")
	if err != nil {
		return nil, err
	}
	return &ForeachBlock{
		nodeBase:   nodeBase{pos: tok.Pos},
		VarName:    varName,
		Collection: coll,
		Body:       body,
	}, nil
}

// parseSection handles both forms: @{section('name')} renders a section,
// @{section name} ... @{end} defines one.
func (p *Parser) parseSection(tok Token) (Node, error) {
	rest := afterKeyword(tok.Value, "section")
	if rest == "" {
		return nil, NewParseError(tok.Pos, "missing section name")
	}

	if strings.HasPrefix(rest, "(") {
		args, err := p.parseCallForm(tok, "section")
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, NewParseErrorf(tok.Pos, "section() takes exactly one name, got %d arguments", len(args))
		}
		lit, ok := args[0].(*StringLit)
		if !ok {
			return nil, NewParseErrorf(tok.Pos, "section name must be a quoted string, found %s", exprString(args[0]))
		}
		return &SectionCallNode{nodeBase: nodeBase{pos: tok.Pos}, Name: lit.Value}, nil
	}

	name := leadingIdent(rest)
	if name == "" || name != rest {
		return nil, NewParseErrorf(tok.Pos, "malformed section definition %q", tok.Value)
	}
	body, _, _, err := p.parseBody(tok, "section", "end")
	if err != nil {
		return nil, err
	}
	return &SectionDefNode{nodeBase: nodeBase{pos: tok.Pos}, Name: name, Body: body}, nil
}

func (p *Parser) parseHelper(tok Token) (Node, error) {
	rest := afterKeyword(tok.Value, "helper")
	if rest == "" {
		return nil, NewParseError(tok.Pos, "missing helper signature")
	}
	sig, err := CompileExpr(rest, tok.Pos)
	if err != nil {
		return nil, err
	}
	call, ok := sig.(*Call)
	if !ok {
		return nil, NewParseErrorf(tok.Pos, "malformed helper signature %q", rest)
	}
	params := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		ident, ok := arg.(*Ident)
		if !ok || strings.Contains(ident.Name, ".") {
			return nil, NewParseErrorf(tok.Pos, "helper parameter must be a plain name, found %s", exprString(arg))
		}
		params = append(params, ident.Name)
	}

	body, _, _, err := p.parseBody(tok, "helper", "end")
	if err != nil {
		return nil, err
	}
	return &HelperDefNode{
		nodeBase: nodeBase{pos: tok.Pos},
		Name:     call.Name,
		Params:   params,
		Body:     body,
	}, nil
}

func (p *Parser) parseView(tok Token) (Node, error) {
	args, err := p.parseCallForm(tok, "view")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, NewParseErrorf(tok.Pos, "view() takes a name and an optional model, got %d arguments", len(args))
	}
	lit, ok := args[0].(*StringLit)
	if !ok {
		return nil, NewParseErrorf(tok.Pos, "view name must be a quoted string, found %s", exprString(args[0]))
	}
	node := &ViewNode{nodeBase: nodeBase{pos: tok.Pos}, Name: lit.Value}
	if len(args) == 2 {
		node.Model = args[1]
	}
	return node, nil
}

func (p *Parser) parseImport(tok Token) (Node, error) {
	args, err := p.parseCallForm(tok, "import")
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(args))
	for _, arg := range args {
		lit, ok := arg.(*StringLit)
		if !ok {
			return nil, NewParseErrorf(tok.Pos, "import file must be a quoted string, found %s", exprString(arg))
		}
		files = append(files, lit.Value)
	}
	return &ImportNode{nodeBase: nodeBase{pos: tok.Pos}, Files: files}, nil
}

// parseMeta handles @{meta('title', 'description', 'keywords')} as the
// setter form and bare @{meta} as the emitting form.
func (p *Parser) parseMeta(tok Token) (Node, error) {
	node := &MetaNode{nodeBase: nodeBase{pos: tok.Pos}}
	if strings.TrimSpace(afterKeyword(tok.Value, "meta")) == "" {
		return node, nil
	}
	args, err := p.parseCallForm(tok, "meta")
	if err != nil {
		return nil, err
	}
	if len(args) > 3 {
		return nil, NewParseErrorf(tok.Pos, "meta() takes at most title, description and keywords, got %d arguments", len(args))
	}
	if len(args) > 0 {
		node.Title = args[0]
	}
	if len(args) > 1 {
		node.Description = args[1]
	}
	if len(args) > 2 {
		node.Keywords = args[2]
	}
	return node, nil
}

// parseCallForm compiles a keyword(...) tag and returns its arguments.
func (p *Parser) parseCallForm(tok Token, keyword string) ([]Expr, error) {
	e, err := CompileExpr(tok.Value, tok.Pos)
	if err != nil {
		return nil, err
	}
	call, ok := e.(*Call)
	if !ok || call.Name != keyword {
		return nil, NewParseErrorf(tok.Pos, "malformed %s tag %q", keyword, tok.Value)
	}
	return call.Args, nil
}

// parseOutputTag classifies a non-keyword tag: translation shorthand,
// namespace accessors, plain references and expressions.
func (p *Parser) parseOutputTag(tok Token) (Node, error) {
	content := tok.Value
	raw := false
	if strings.HasPrefix(content, "!") {
		raw = true
		content = strings.TrimSpace(content[1:])
	}
	if content == "" {
		return nil, NewParseError(tok.Pos, "empty tag")
	}

	if content[0] == '\'' || content[0] == '"' {
		text, rest, err := scanStringLiteral(content, tok.Pos)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rest) == "" {
			switch {
			case strings.HasPrefix(text, "#"):
				return &TranslateNode{nodeBase: nodeBase{pos: tok.Pos}, Text: text[1:], IsKey: true}, nil
			case strings.HasPrefix(text, "%"):
				return &ConfigNode{nodeBase: nodeBase{pos: tok.Pos}, Key: text[1:], Raw: raw}, nil
			default:
				return &TranslateNode{nodeBase: nodeBase{pos: tok.Pos}, Text: text}, nil
			}
		}
		// A string literal followed by more input is an expression,
		// e.g. @{'hello ' + name}.
	}

	if isDottedName(content) {
		first, rest := splitFirstSegment(content)
		base := nodeBase{pos: tok.Pos}
		switch first {
		case "M", "model":
			return &ModelNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "R", "repository":
			return &RepositoryNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "APP", "MAIN":
			return &GlobalNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "session":
			return &SessionNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "query":
			return &QueryNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "user":
			return &UserNode{nodeBase: base, Path: rest, Raw: raw}, nil
		case "config":
			return &ConfigNode{nodeBase: base, Key: rest, Raw: raw}, nil
		case "CONF":
			return &ConfNode{nodeBase: base, Path: rest, Raw: raw}, nil
		default:
			return &VariableNode{nodeBase: base, Name: content, Raw: raw}, nil
		}
	}

	e, err := CompileExpr(content, tok.Pos)
	if err != nil {
		return nil, err
	}
	if call, ok := e.(*Call); ok && !strings.Contains(call.Name, ".") {
		return &HelperCallNode{nodeBase: nodeBase{pos: tok.Pos}, Name: call.Name, Args: call.Args, Raw: raw}, nil
	}
	return &VariableNode{nodeBase: nodeBase{pos: tok.Pos}, Raw: raw, Expr: e}, nil
}

// extractDefs lifts section and helper definitions into the template's
// registries. The definition nodes stay in the node sequence but render
// nothing; the last definition of a name wins.
func extractDefs(t *Template, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *SectionDefNode:
			t.Sections[v.Name] = v.Body
			extractDefs(t, v.Body)
		case *HelperDefNode:
			t.Helpers[v.Name] = v
			extractDefs(t, v.Body)
		case *IfBlock:
			extractDefs(t, v.Then)
			for _, b := range v.ElseIfs {
				extractDefs(t, b.Body)
			}
			extractDefs(t, v.Else)
		case *ForeachBlock:
			extractDefs(t, v.Body)
		}
	}
}

// tagKeyword classifies tag content by its leading keyword, or returns
// "" for output tags. Bare keywords must stand alone; "else if" is
// recognized as a compound.
func tagKeyword(content string) string {
	head := leadingIdent(content)
	if head == "" {
		return ""
	}
	rest := strings.TrimSpace(content[len(head):])

	switch head {
	case "if", "foreach", "section", "helper", "view", "import", "meta":
		return head
	case "break", "continue", "head", "body", "content", "csrf", "fi", "end":
		if rest == "" {
			return head
		}
	case "else":
		if rest == "" {
			return "else"
		}
		if leadingIdent(rest) == "if" {
			return "else if"
		}
	}
	return ""
}

// leadingIdent returns the identifier prefix of s, if any.
func leadingIdent(s string) string {
	i := 0
	for i < len(s) && isIdentPart(s[i]) {
		if i == 0 && !isIdentStart(s[i]) {
			return ""
		}
		i++
	}
	return s[:i]
}

// afterKeyword strips a leading keyword and surrounding space.
func afterKeyword(content, keyword string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), keyword))
}

// isDottedName reports whether s is a plain dotted reference: ident or
// numeric index segments separated by single dots.
func isDottedName(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		if isIdentStart(seg[0]) {
			for i := 1; i < len(seg); i++ {
				if !isIdentPart(seg[i]) {
					return false
				}
			}
			continue
		}
		for i := 0; i < len(seg); i++ {
			if seg[i] < '0' || seg[i] > '9' {
				return false
			}
		}
	}
	return true
}

// splitFirstSegment splits a dotted name into its head and remainder.
func splitFirstSegment(s string) (string, string) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
