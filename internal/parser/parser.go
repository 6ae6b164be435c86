// Package parser implements the syntax analysis for Aleng.
// It uses precedence climbing for binary operators and recursive descent
// for statements.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"aleng/internal/ast"
	"aleng/internal/diag"
	"aleng/internal/lexer"
	"aleng/internal/span"
	"aleng/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
)

// infixBP returns the left binding power for a binary operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	default:
		return bpNone
	}
}

// errSync unwinds a failed production to the nearest statement boundary.
// The diagnostic has already been recorded when it is returned.
var errSync = errors.New("parser: resynchronize")

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	file   string
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice. ILLEGAL tokens are dropped:
// the lexer has already reported them.
func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: make([]token.Token, 0, len(tokens))}
	for _, tok := range tokens {
		if tok.Kind != token.ILLEGAL {
			p.tokens = append(p.tokens, tok)
		}
	}
	if len(p.tokens) > 0 {
		p.file = p.tokens[0].Span.File
	}
	return p
}

// Parse lexes and parses source. The diagnostics of both passes are
// returned in order.
func Parse(source, file string) (*ast.Program, []diag.Diagnostic) {
	tokens, lexDiags := lexer.New(source, file).Tokenize()
	prog, parseDiags := New(tokens).ParseProgram()
	diags := make([]diag.Diagnostic, 0, len(lexDiags)+len(parseDiags))
	diags = append(diags, lexDiags...)
	return prog, append(diags, parseDiags...)
}

// ParseProgram parses the whole token stream and returns the AST root and
// diagnostics. A malformed statement is reported and skipped, so the
// returned program holds every statement that did parse.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	prog := &ast.Program{}
	startPos := p.peek().Span.Start

	for {
		p.skipSemicolons()
		if p.isAtEnd() {
			break
		}
		if p.match(token.KW_END, token.KW_ELSE) {
			tok := p.advance()
			p.error("E2003", tok.Span, fmt.Sprintf("unexpected '%s' outside of a block", tok.Kind))
			continue
		}
		if stmt := p.statementOrSync(); stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End, File: p.file}
	return prog, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return token.Token{Kind: token.EOF, Span: span.Span{Start: last.Span.End, End: last.Span.End, File: p.file}}
		}
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind, context string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s' %s, got %s", kind, context, describe(tok)))
	return tok, errSync
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

func (p *Parser) skipSemicolons() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) error(code string, s span.Span, msg string) {
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

func (p *Parser) warn(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT:
		return fmt.Sprintf("'%s'", tok.Lexeme)
	case token.STRING:
		return fmt.Sprintf("string %q", tok.Lexeme)
	}
	return fmt.Sprintf("'%s'", tok.Kind)
}

// ============================================================
// Error recovery
// ============================================================

// statementOrSync parses one statement. On failure it resynchronises and
// returns nil.
func (p *Parser) statementOrSync() ast.Stmt {
	start := p.pos
	stmt, err := p.parseStatement()
	if err != nil {
		p.synchronize(start)
		return nil
	}
	return stmt
}

// synchronize skips tokens until the next one that can begin a statement
// (or close a block). It always consumes at least one token when the
// failed statement consumed none.
func (p *Parser) synchronize(start int) {
	if p.pos == start && !p.isAtEnd() {
		p.advance()
	}
	for !p.peekKind().StartsStatement() {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		p.advance()
	}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_BREAK:
		p.advance()
		return &ast.BreakStmt{StmtBase: p.stmtBase(tok.Span.Start)}, nil
	case token.KW_CONTINUE:
		p.advance()
		return &ast.ContinueStmt{StmtBase: p.stmtBase(tok.Span.Start)}, nil
	case token.KW_FN:
		// A named definition is a statement on its own: no postfix
		// operators apply to it.
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Kind == token.IDENT {
			fn, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			return &ast.ExprStmt{StmtBase: p.stmtBase(tok.Span.Start), Expr: fn}, nil
		}
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{StmtBase: p.stmtBase(tok.Span.Start), Expr: expr}, nil
}

// parseBlock parses statements up to End, Else or end of input. The
// terminator is not consumed.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{}
	start := p.peek().Span.Start

	for {
		p.skipSemicolons()
		if p.match(token.KW_END, token.KW_ELSE, token.EOF) {
			break
		}
		if stmt := p.statementOrSync(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	block.StmtBase = makeStmtBase(start, p.prevEndFrom(start), p.file)
	return block
}

// closeBlock consumes the End that closes the construct opened by opener.
func (p *Parser) closeBlock(opener token.Token) {
	if p.check(token.KW_END) {
		p.advance()
		return
	}
	p.error("E2005", opener.Span, fmt.Sprintf("'%s' opened at %s is missing its 'End'", opener.Lexeme, opener.Span.Start))
}

// parseIfStmt parses: If cond ... [Else ...] End
func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'If'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{Condition: cond}
	stmt.Then = p.parseBlock()
	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.Else = p.parseBlock()
		if p.check(token.KW_ELSE) {
			tok := p.advance()
			p.error("E2003", tok.Span, "an 'If' can only have one 'Else'")
		}
	}
	p.closeBlock(start)
	stmt.StmtBase = p.stmtBase(start.Span.Start)
	return stmt, nil
}

// parseWhileStmt parses: While cond ... End
func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'While'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body := p.parseLoopBody()
	p.closeBlock(start)
	return &ast.WhileStmt{
		StmtBase:  p.stmtBase(start.Span.Start),
		Condition: cond,
		Body:      body,
	}, nil
}

// parseLoopBody parses a block where Else is not a valid terminator.
func (p *Parser) parseLoopBody() *ast.Block {
	body := p.parseBlock()
	for p.check(token.KW_ELSE) {
		tok := p.advance()
		p.error("E2003", tok.Span, "'Else' without a matching 'If'")
		more := p.parseBlock()
		body.Stmts = append(body.Stmts, more.Stmts...)
	}
	return body
}

// parseForStmt dispatches between the numeric and collection forms:
//
//	For i = start (..|until) end [step s] ... End
//	For x in expr ... End
func (p *Parser) parseForStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'For'
	nameTok, err := p.expect(token.IDENT, "after 'For'")
	if err != nil {
		return nil, err
	}

	switch p.peekKind() {
	case token.ASSIGN:
		p.advance()
		return p.parseNumericFor(start, nameTok)
	case token.KW_IN:
		p.advance()
		iterable, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body := p.parseLoopBody()
		p.closeBlock(start)
		return &ast.CollectionForStmt{
			StmtBase: p.stmtBase(start.Span.Start),
			Var:      nameTok.Lexeme,
			Iterable: iterable,
			Body:     body,
		}, nil
	}

	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '=' or 'in' after loop variable '%s', got %s", nameTok.Lexeme, describe(tok)))
	return nil, errSync
}

func (p *Parser) parseNumericFor(start, nameTok token.Token) (ast.Stmt, error) {
	stmt := &ast.NumericForStmt{Var: nameTok.Lexeme}

	from, err := p.parseBinary(bpNone)
	if err != nil {
		return nil, err
	}
	stmt.Start = from

	switch p.peekKind() {
	case token.RANGE:
		p.advance()
	case token.KW_UNTIL:
		p.advance()
		stmt.Until = true
	default:
		tok := p.peek()
		p.error("E2001", tok.Span, fmt.Sprintf("expected '..' or 'until' in numeric 'For', got %s", describe(tok)))
		return nil, errSync
	}

	if stmt.End, err = p.parseBinary(bpNone); err != nil {
		return nil, err
	}
	if p.check(token.KW_STEP) {
		p.advance()
		if stmt.Step, err = p.parseBinary(bpNone); err != nil {
			return nil, err
		}
	}

	stmt.Body = p.parseLoopBody()
	p.closeBlock(start)
	stmt.StmtBase = p.stmtBase(start.Span.Start)
	return stmt, nil
}

// parseReturnStmt parses: Return [expr]. The value is omitted when the
// next token closes the block or starts another statement.
func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'Return'
	stmt := &ast.ReturnStmt{}

	switch p.peekKind() {
	case token.KW_END, token.KW_ELSE, token.SEMICOLON, token.EOF,
		token.KW_IF, token.KW_FOR, token.KW_WHILE, token.KW_RETURN,
		token.KW_BREAK, token.KW_CONTINUE:
	default:
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}

	stmt.StmtBase = p.stmtBase(start.Span.Start)
	return stmt, nil
}

// ============================================================
// Expressions
// ============================================================

// parseExpr parses an expression including assignment, which is
// right-associative.
func (p *Parser) parseExpr() (ast.Expr, error) {
	left, err := p.parseBinary(bpNone)
	if err != nil {
		return nil, err
	}
	if !p.check(token.ASSIGN) {
		return left, nil
	}

	eq := p.advance()
	switch left.(type) {
	case *ast.Ident, *ast.IndexExpr, *ast.MemberExpr:
	default:
		p.error("E2004", span.Join(left.GetSpan(), eq.Span),
			"invalid left-hand side in assignment: expected a name, index or member expression")
		return nil, errSync
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssignExpr{
		ExprBase: p.exprBase(left.GetSpan().Start),
		Target:   left,
		Value:    value,
	}, nil
}

// parseBinary is the precedence-climbing loop over binary operators.
func (p *Parser) parseBinary(minBP int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek()
		bp := infixBP(op.Kind)
		if bp <= minBP {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(bp)
		if err != nil {
			return nil, err
		}

		base := p.exprBase(left.GetSpan().Start)
		switch op.Kind {
		case token.EQ, token.NEQ:
			left = &ast.EqualsExpr{ExprBase: base, Left: left, Right: right, Negate: op.Kind == token.NEQ}
		default:
			left = &ast.BinaryExpr{ExprBase: base, Op: op.Kind, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek()
	if tok.Kind == token.KW_NOT || tok.Kind == token.MINUS {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{
			ExprBase: p.exprBase(tok.Span.Start),
			Op:       tok.Kind,
			Operand:  operand,
		}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses calls, indexing and member access after a primary.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peekKind() {
		case token.LPAREN:
			p.advance()
			args, err := p.parseExprList(token.RPAREN, "to close the argument list")
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{ExprBase: p.exprBase(expr.GetSpan().Start), Callee: expr, Args: args}

		case token.LBRACKET:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET, "after index"); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{ExprBase: p.exprBase(expr.GetSpan().Start), Object: expr, Index: index}

		case token.DOT:
			p.advance()
			propTok, err := p.expect(token.IDENT, "after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{ExprBase: p.exprBase(expr.GetSpan().Start), Object: expr, Property: propTok.Lexeme}

		default:
			return expr, nil
		}
	}
}

// parseExprList parses comma separated expressions up to closer, which is
// consumed. A trailing comma is allowed.
func (p *Parser) parseExprList(closer token.Kind, context string) ([]ast.Expr, error) {
	var items []ast.Expr
	for !p.check(closer) {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(closer, context); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.INT, token.FLOAT:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.error("E2009", tok.Span, fmt.Sprintf("invalid number literal '%s'", tok.Lexeme))
			return nil, errSync
		}
		return &ast.NumberLit{ExprBase: p.exprBase(tok.Span.Start), Value: val, Raw: tok.Lexeme}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLit{ExprBase: p.exprBase(tok.Span.Start), Value: tok.Lexeme}, nil

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{ExprBase: p.exprBase(tok.Span.Start), Value: tok.Kind == token.KW_TRUE}, nil

	case token.IDENT:
		p.advance()
		return &ast.Ident{ExprBase: p.exprBase(tok.Span.Start), Name: tok.Lexeme}, nil

	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "to close '('"); err != nil {
			return nil, err
		}
		return expr, nil

	case token.LBRACKET:
		p.advance()
		elems, err := p.parseExprList(token.RBRACKET, "to close the list literal")
		if err != nil {
			return nil, err
		}
		return &ast.ListLit{ExprBase: p.exprBase(tok.Span.Start), Elements: elems}, nil

	case token.LBRACE:
		return p.parseMapLit()

	case token.KW_FN:
		return p.parseFuncDef()

	case token.KW_IMPORT:
		p.advance()
		nameTok, err := p.expect(token.STRING, "module name after 'Import'")
		if err != nil {
			return nil, err
		}
		return &ast.ImportExpr{ExprBase: p.exprBase(tok.Span.Start), Name: nameTok.Lexeme}, nil
	}

	p.error("E2002", tok.Span, fmt.Sprintf("expected expression, got %s", describe(tok)))
	return nil, errSync
}

// parseMapLit parses: { key: value, ... }
func (p *Parser) parseMapLit() (ast.Expr, error) {
	start := p.advance() // consume '{'
	lit := &ast.MapLit{}
	seen := make(map[string]span.Span)

	for !p.check(token.RBRACE) {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON, "after map key"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if k, ok := key.(*ast.StringLit); ok {
			if first, dup := seen[k.Value]; dup {
				p.warn(diag.Warningf("W2001", k.Span, "duplicate key %q in map literal", k.Value).
					WithHint(fmt.Sprintf("the earlier entry at %s is overwritten", first.Start)))
			} else {
				seen[k.Value] = k.Span
			}
		}
		lit.Entries = append(lit.Entries, ast.MapEntry{Key: key, Value: value})
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.RBRACE, "to close the map literal"); err != nil {
		return nil, err
	}
	lit.ExprBase = p.exprBase(start.Span.Start)
	return lit, nil
}

// parseFuncDef parses: Fn [Name] ( params ) ... End
func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	start := p.advance() // consume 'Fn'
	fn := &ast.FuncDef{}

	if p.check(token.IDENT) {
		fn.Name = p.advance().Lexeme
	}
	if _, err := p.expect(token.LPAREN, "to open the parameter list"); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	fn.Params = params

	fn.Body = p.parseLoopBody()
	p.closeBlock(start)
	fn.ExprBase = p.exprBase(start.Span.Start)
	return fn, nil
}

// parseParams parses name[: Type] and $name parameters up to ')'.
func (p *Parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	seen := make(map[string]bool)

	for !p.check(token.RPAREN) {
		startTok := p.peek()
		variadic := false
		if p.check(token.DOLLAR) {
			p.advance()
			variadic = true
		}
		nameTok, err := p.expect(token.IDENT, "as parameter name")
		if err != nil {
			return nil, err
		}
		param := ast.Param{Name: nameTok.Lexeme, Variadic: variadic}
		if p.check(token.COLON) {
			p.advance()
			typeTok, err := p.expect(token.IDENT, "as parameter type")
			if err != nil {
				return nil, err
			}
			param.Type = typeTok.Lexeme
		}
		param.Span = p.makeSpan(startTok.Span.Start)

		if n := len(params); n > 0 && params[n-1].Variadic {
			p.error("E2006", params[n-1].Span,
				fmt.Sprintf("variadic parameter '$%s' must be the last parameter", params[n-1].Name))
		}
		if seen[param.Name] {
			p.error("E2007", param.Span, fmt.Sprintf("duplicate parameter '%s'", param.Name))
		}
		seen[param.Name] = true
		params = append(params, param)

		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}

	if _, err := p.expect(token.RPAREN, "to close the parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

// prevEndFrom is prevEnd, clamped so an empty construct gets an empty span.
func (p *Parser) prevEndFrom(start span.Position) span.Position {
	end := p.prevEnd()
	if end.Offset < start.Offset {
		return start
	}
	return end
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd(), File: p.file}
}

func (p *Parser) exprBase(start span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: p.makeSpan(start)}}
}

func (p *Parser) stmtBase(start span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: p.makeSpan(start)}}
}

func makeStmtBase(start, end span.Position, file string) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end, File: file}}}
}
