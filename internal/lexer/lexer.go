// Package lexer implements the lexical analysis (tokenization) for Aleng.
package lexer

import (
	"fmt"

	"aleng/internal/diag"
	"aleng/internal/span"
	"aleng/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	halted bool // set after a hard error; every later call yields EOF
	diags  []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The returned slice always ends with an EOF token.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// Next produces the next token. After the end of input (or a hard error)
// it keeps returning EOF.
func (l *Lexer) Next() token.Token {
	if l.halted {
		return l.eof()
	}
	if !l.skipTrivia() {
		l.halted = true
		return l.eof()
	}
	if l.pos >= len(l.source) {
		return l.eof()
	}

	start := l.curPos()
	ch := l.peek()

	switch {
	case ch == '"':
		tok, ok := l.readString(start)
		if !ok {
			l.halted = true
			return l.eof()
		}
		return tok
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	}
	return l.readOperator(start)
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos(), File: l.filename}
}

func (l *Lexer) eof() token.Token {
	return token.Token{Kind: token.EOF, Span: l.makeSpan(l.curPos())}
}

// skipTrivia skips whitespace and comments. It returns false when a block
// comment is left unterminated.
func (l *Lexer) skipTrivia() bool {
	for l.pos < len(l.source) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '#' && l.peekNext() == '#':
			if !l.skipBlockComment() {
				return false
			}
		case ch == '#':
			l.skipLineComment()
		default:
			return true
		}
	}
	return true
}

// skipLineComment skips from # to end of line.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment skips a ##...## comment.
func (l *Lexer) skipBlockComment() bool {
	start := l.curPos()
	l.advance()
	l.advance()
	opener := l.makeSpan(start)
	for l.pos < len(l.source) {
		if l.peek() == '#' && l.peekNext() == '#' {
			l.advance()
			l.advance()
			return true
		}
		l.advance()
	}
	l.addError("E1004", opener, "unterminated block comment")
	return false
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

// readString reads a double-quoted string literal. The second result is
// false when the literal runs off the end of the input.
func (l *Lexer) readString(start span.Position) (token.Token, bool) {
	l.advance() // skip opening "
	opener := l.makeSpan(start)
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return token.Token{Kind: token.STRING, Lexeme: string(value), Span: l.makeSpan(start)}, true
		}
		if ch == '\\' {
			escPos := l.curPos()
			l.advance()
			if l.pos >= len(l.source) {
				break
			}
			esc := l.peek()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				l.advance()
				l.addError("E1002", l.makeSpan(escPos), fmt.Sprintf("unknown escape sequence: \\%c", esc))
				value = append(value, esc)
				continue
			}
			l.advance()
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	l.addError("E1001", opener, "unterminated string literal")
	return token.Token{}, false
}

// readNumber reads an integer or float literal. A '.' is only part of the
// number when a digit follows it, so "1..5" lexes as INT RANGE INT.
func (l *Lexer) readNumber(start span.Position) token.Token {
	isFloat := false
	numStart := l.pos

	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance() // skip '.'
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[numStart:l.pos]
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

var twoCharOps = map[string]token.Kind{
	"==": token.EQ,
	"!=": token.NEQ,
	">=": token.GTE,
	"<=": token.LTE,
	"..": token.RANGE,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.STAR,
	'/': token.SLASH,
	'%': token.PERCENT,
	'<': token.LT,
	'>': token.GT,
	'=': token.ASSIGN,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	'{': token.LBRACE,
	'}': token.RBRACE,
	',': token.COMMA,
	':': token.COLON,
	';': token.SEMICOLON,
	'.': token.DOT,
	'$': token.DOLLAR,
}

// readOperator reads an operator or delimiter token. Two-character
// operators are tried first.
func (l *Lexer) readOperator(start span.Position) token.Token {
	if l.pos+1 < len(l.source) {
		pair := l.source[l.pos : l.pos+2]
		if kind, ok := twoCharOps[pair]; ok {
			l.advance()
			l.advance()
			return token.Token{Kind: kind, Lexeme: pair, Span: l.makeSpan(start)}
		}
	}

	ch := l.advance()
	if kind, ok := oneCharOps[ch]; ok {
		return token.Token{Kind: kind, Lexeme: string(ch), Span: l.makeSpan(start)}
	}
	if ch == '!' {
		l.diags = append(l.diags, diag.Errorf("E1003", l.makeSpan(start), "unexpected character: '!'").
			WithHint("use 'not' for negation and '!=' for inequality"))
	} else {
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", ch))
	}
	return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Span: l.makeSpan(start)}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
