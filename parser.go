package rustscript

import (
	"fmt"
	"strconv"
	"strings"
)

type Parser struct {
	tokens   []Token
	pos      int
	last     Token
	depth    int
	maxDepth int
	// groups counts the parentheses and brackets enclosing the current
	// position since the innermost block. Inside a group a newline never
	// ends an expression.
	groups int
}

func NewParser(tokens []Token) *Parser {
	return newParser(tokens, GetRuntimeConfig().MaxExpressionDepth)
}

func newParser(tokens []Token, maxDepth int) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != EOF {
		end := Token{Type: EOF, Line: 1, Column: 1}
		if len(tokens) > 0 {
			prev := tokens[len(tokens)-1]
			end = Token{Type: EOF, Offset: prev.End(), Line: prev.Line, Column: prev.Column + prev.Length}
		}
		tokens = append(tokens, end)
	}
	return &Parser{tokens: tokens, maxDepth: maxDepth}
}

// ParseExpr parses source holding exactly one statement.
func ParseExpr(source string) (Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	if !p.More() {
		return nil, parseError(p.cur(), "an expression")
	}
	expr, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	if p.More() {
		return nil, parseError(p.cur(), "end of input")
	}
	return expr, nil
}

// ParseExprs parses every statement in source. Empty statements are
// skipped.
func ParseExprs(source string) ([]Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseAll()
}

func (p *Parser) ParseAll() ([]Expr, error) {
	return p.parseStatements(EOF)
}

// More skips statement separators and reports whether another statement
// follows.
func (p *Parser) More() bool {
	p.skipSeparators()
	return p.cur().Type != EOF
}

// ParseStatement parses the next top-level statement. Call More first.
func (p *Parser) ParseStatement() (Expr, error) {
	return p.parseStatement(EOF)
}

func (p *Parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	p.last = tok
	return tok
}

// peek returns the next token that is not a soft newline.
func (p *Parser) peek() Token {
	i := p.pos
	for p.tokens[i].Type == NEWLINE {
		i++
	}
	return p.tokens[i]
}

func (p *Parser) next() Token {
	for p.cur().Type == NEWLINE {
		p.pos++
	}
	return p.advance()
}

func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, parseError(tok, what)
	}
	return tok, nil
}

func (p *Parser) skipSeparators() {
	for isSeparator(p.cur().Type) {
		p.pos++
	}
}

func (p *Parser) nodeFrom(start Token) node {
	end := p.last.End()
	if end < start.Offset {
		end = start.Offset
	}
	return node{span: Span{Start: start.Offset, End: end, Pos: start.Pos()}}
}

func (p *Parser) parseStatements(closing TokenType) ([]Expr, error) {
	var out []Expr
	for {
		p.skipSeparators()
		if t := p.cur().Type; t == EOF || t == closing {
			return out, nil
		}
		expr, err := p.parseStatement(closing)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
}

func (p *Parser) parseStatement(closing TokenType) (Expr, error) {
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	tok := p.cur()
	if isSeparator(tok.Type) || tok.Type == EOF || tok.Type == closing {
		return expr, nil
	}
	return nil, parseError(tok, "';' or newline after expression")
}

func (p *Parser) parseExpression(minBP int) (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		tok := p.peek()
		return nil, &Error{
			Code:    ErrCodeParse,
			Message: fmt.Sprintf("expression nesting exceeds maximum depth %d", p.maxDepth),
			Found:   string(tok.Type),
			Pos:     tok.Pos(),
		}
	}
	lhs, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peekInfix()
		if !ok {
			return lhs, nil
		}
		bp := bindingPowers[tok.Type]
		if bp[0] < minBP {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseExpression(bp[1])
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{
			node:  node{span: Span{Start: lhs.Span().Start, End: rhs.Span().End, Pos: lhs.Span().Pos}},
			Op:    binOps[tok.Type],
			Left:  lhs,
			Right: rhs,
		}
	}
}

// peekInfix returns the infix operator continuing the current expression,
// if any. An operator on the next line continues the expression, except a
// leading '-' outside any group, which starts a new statement.
func (p *Parser) peekInfix() (Token, bool) {
	tok := p.cur()
	if isInfix(tok.Type) {
		return tok, true
	}
	if tok.Type != NEWLINE {
		return tok, false
	}
	tok = p.peek()
	if !isInfix(tok.Type) || (tok.Type == MINUS && p.groups == 0) {
		return tok, false
	}
	return tok, true
}

func (p *Parser) parsePrefix() (Expr, error) {
	tok := p.next()
	switch tok.Type {
	case TRUE, FALSE:
		return &AtomicExpr{node: p.nodeFrom(tok), Value: Bool(tok.Type == TRUE)}, nil
	case INT:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("integer literal %s out of range", tok.Literal), Found: INT, Pos: tok.Pos()}
		}
		return &AtomicExpr{node: p.nodeFrom(tok), Value: Int(n)}, nil
	case FLOAT:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("invalid float literal %s", tok.Literal), Found: FLOAT, Pos: tok.Pos()}
		}
		return &AtomicExpr{node: p.nodeFrom(tok), Value: Float(f)}, nil
	case CHAR:
		return &AtomicExpr{node: p.nodeFrom(tok), Value: Char([]rune(tok.Literal)[0])}, nil
	case STRING:
		return &AtomicExpr{node: p.nodeFrom(tok), Value: NewStr(tok.Literal)}, nil
	case IDENT:
		return p.parseIdentifier(tok, Ident(tok.Literal))
	case IDENT_LIST:
		return p.parseIdentifier(tok, IdentList{Path: strings.Split(tok.Literal, ".")})
	case LET, VAR:
		return p.parseBinding(tok)
	case PUB:
		return p.parsePublic(tok)
	case FN:
		return p.parseLambda(tok)
	case IF:
		return p.parseIf(tok)
	case MATCH:
		return p.parseMatch(tok)
	case MOD:
		return p.parseModule(tok)
	case IMP:
		return p.parseImport(tok)
	case LBRACKET:
		return p.parseList(tok)
	case LBRACE:
		return p.parseBlock(tok)
	case LPAREN:
		return p.parseGroup()
	case MINUS, CARET, DOLLAR:
		return p.parsePrefixOp(tok)
	}
	return nil, parseError(tok, "an expression")
}

var prefixOps = map[TokenType]PrefixOp{
	MINUS:  Negate,
	CARET:  Head,
	DOLLAR: Tail,
}

func (p *Parser) parsePrefixOp(tok Token) (Expr, error) {
	op := prefixOps[tok.Type]
	right, err := p.parseExpression(prefixBindingPower)
	if err != nil {
		return nil, err
	}
	return &PrefixExpr{node: p.nodeFrom(tok), Op: op, Right: right}, nil
}

func (p *Parser) parseGroup() (Expr, error) {
	p.groups++
	defer func() { p.groups-- }()
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseIdentifier parses a bare reference or, when '(' follows
// immediately, a call.
func (p *Parser) parseIdentifier(tok Token, callee Value) (Expr, error) {
	if p.cur().Type != LPAREN {
		return &AtomicExpr{node: p.nodeFrom(tok), Value: callee}, nil
	}
	args, err := p.parseCallArgs()
	if err != nil {
		return nil, err
	}
	return &LambdaCall{node: p.nodeFrom(tok), Callee: callee, Args: args}, nil
}

func (p *Parser) parseCallArgs() ([]Expr, error) {
	p.advance()
	p.groups++
	defer func() { p.groups-- }()
	var args []Expr
	if p.peek().Type == RPAREN {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok := p.next()
		switch tok.Type {
		case COMMA:
			continue
		case RPAREN:
			return args, nil
		}
		return nil, parseError(tok, "',' or ')' in argument list")
	}
}

func (p *Parser) parseBinding(kw Token) (Expr, error) {
	name := p.next()
	if name.Type != IDENT {
		return nil, parseError(name, "a name after "+kw.Literal)
	}
	if _, err := p.expect(ASSIGN, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if a, ok := rhs.(*AtomicExpr); ok {
		if lam, ok := a.Value.(*Lambda); ok && lam.Name == "" {
			lam.Name = name.Literal
		}
	}
	if kw.Type == VAR {
		return &VariationExpr{node: p.nodeFrom(kw), Name: name.Literal, Value: rhs}, nil
	}
	return &AssignExpr{node: p.nodeFrom(kw), Name: name.Literal, Value: rhs}, nil
}

func (p *Parser) parsePublic(kw Token) (Expr, error) {
	inner, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &PublicExpr{node: p.nodeFrom(kw), Inner: inner}, nil
}

func (p *Parser) parseLambda(kw Token) (Expr, error) {
	if _, err := p.expect(LPAREN, "'(' after fn"); err != nil {
		return nil, err
	}
	var params []string
	seen := make(map[string]bool)
	if p.peek().Type == RPAREN {
		p.next()
	} else {
		for {
			tok := p.next()
			if tok.Type != IDENT {
				return nil, parseError(tok, "a parameter name")
			}
			if seen[tok.Literal] {
				return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("duplicate parameter %q", tok.Literal), Found: IDENT, Pos: tok.Pos()}
			}
			seen[tok.Literal] = true
			params = append(params, tok.Literal)
			sep := p.next()
			if sep.Type == RPAREN {
				break
			}
			if sep.Type != COMMA {
				return nil, parseError(sep, "',' or ')' in parameter list")
			}
		}
	}
	if _, err := p.expect(ARROW, "'=>'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &AtomicExpr{node: p.nodeFrom(kw), Value: NewLambda(params, body)}, nil
}

func (p *Parser) parseIf(kw Token) (Expr, error) {
	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, "'then'"); err != nil {
		return nil, err
	}
	then, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "'else'"); err != nil {
		return nil, err
	}
	els, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &IfExpr{node: p.nodeFrom(kw), Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseMatch(kw Token) (Expr, error) {
	subject, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	m := &MatchExpr{Subject: subject}
	for p.peek().Type == PIPE {
		start := p.next()
		pattern := p.next()
		if pattern.Type != IDENT {
			e := parseError(pattern, "a single identifier pattern")
			e.Details = append(e.Details, "use 'and <condition>' after the name to constrain a case")
			return nil, e
		}
		c := &MatchCaseExpr{Subject: subject, Pattern: pattern.Literal}
		if p.peek().Type == GUARD {
			p.next()
			if c.Guard, err = p.parseExpression(0); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(THEN, "'then'"); err != nil {
			return nil, err
		}
		if c.Body, err = p.parseExpression(0); err != nil {
			return nil, err
		}
		c.node = p.nodeFrom(start)
		m.Cases = append(m.Cases, c)
	}
	if len(m.Cases) == 0 {
		return nil, parseError(p.peek(), "at least one match case starting with '|'")
	}
	m.node = p.nodeFrom(kw)
	return m, nil
}

func (p *Parser) parseModule(kw Token) (Expr, error) {
	name := p.next()
	if name.Type != IDENT {
		return nil, parseError(name, "a module name")
	}
	if _, err := p.expect(LBRACE, "'{' to open the module body"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ModuleExpr{node: p.nodeFrom(kw), Name: name.Literal, Body: body}, nil
}

func (p *Parser) parseImport(kw Token) (Expr, error) {
	var names []string
	for {
		tok := p.next()
		if tok.Type != IDENT {
			return nil, parseError(tok, "an imported name")
		}
		names = append(names, tok.Literal)
		if p.peek().Type != COMMA {
			break
		}
		p.next()
	}
	if _, err := p.expect(FROM, "'from'"); err != nil {
		return nil, err
	}
	path := p.next()
	if path.Type != STRING {
		return nil, parseError(path, "a file path string")
	}
	return &ImportExpr{node: p.nodeFrom(kw), Names: names, Path: path.Literal}, nil
}

func (p *Parser) parseBlock(open Token) (Expr, error) {
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &BlockExpr{node: p.nodeFrom(open), Exprs: body}, nil
}

// parseBody parses statements up to and including the closing '}'.
func (p *Parser) parseBody() ([]Expr, error) {
	saved := p.groups
	p.groups = 0
	defer func() { p.groups = saved }()
	body, err := p.parseStatements(RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return body, nil
}

// parseList parses a list literal, a range [a..b] or a comprehension
// [e for x in xs if cond]. Ranges and comprehensions become calls to the
// range, fmap and filter functions of the prelude.
func (p *Parser) parseList(open Token) (Expr, error) {
	p.groups++
	defer func() { p.groups-- }()
	if p.peek().Type == RBRACKET {
		p.next()
		return &AtomicExpr{node: p.nodeFrom(open), Value: List{}}, nil
	}
	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case FOR:
		return p.parseComprehension(open, first)
	case DOTDOT:
		p.next()
		end, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']' to close the range"); err != nil {
			return nil, err
		}
		return &LambdaCall{node: p.nodeFrom(open), Callee: Ident("range"), Args: []Expr{first, end}}, nil
	}
	elems := []Expr{first}
	for {
		tok := p.next()
		switch tok.Type {
		case RBRACKET:
			return &AtomicExpr{node: p.nodeFrom(open), Value: List{Elems: elems}}, nil
		case COMMA:
			if p.peek().Type == RBRACKET {
				continue
			}
			elem, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		default:
			return nil, parseError(tok, "',' or ']' in list")
		}
	}
}

func (p *Parser) parseComprehension(open Token, body Expr) (Expr, error) {
	p.next()
	name := p.next()
	if name.Type != IDENT {
		return nil, parseError(name, "an identifier after 'for'")
	}
	if _, err := p.expect(IN, "'in'"); err != nil {
		return nil, err
	}
	src, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	params := []string{name.Literal}
	mapFn := &AtomicExpr{node: node{span: body.Span()}, Value: NewLambda(params, body)}
	var call Expr = &LambdaCall{node: p.nodeFrom(open), Callee: Ident("fmap"), Args: []Expr{mapFn, src}}
	if p.peek().Type == IF {
		p.next()
		cond, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		filterFn := &AtomicExpr{node: node{span: cond.Span()}, Value: NewLambda(params, cond)}
		call = &LambdaCall{node: p.nodeFrom(open), Callee: Ident("filter"), Args: []Expr{filterFn, call}}
	}
	if _, err := p.expect(RBRACKET, "']' to close the comprehension"); err != nil {
		return nil, err
	}
	return call, nil
}
