package lexer

import (
	"strings"
	"testing"

	"aleng/internal/token"
)

func expectKinds(t *testing.T, source string, expected []token.Kind) []token.Token {
	t.Helper()
	l := New(source, "test.aleng")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
	return tokens
}

func TestTokenizeSimple(t *testing.T) {
	expectKinds(t, `x = 1 + 2`, []token.Kind{
		token.IDENT, token.ASSIGN, token.INT, token.PLUS, token.INT, token.EOF,
	})
}

func TestTokenizeKeywords(t *testing.T) {
	source := `If Else For While Fn Return Break Continue Import End True False in until step and or not`
	expectKinds(t, source, []token.Kind{
		token.KW_IF, token.KW_ELSE, token.KW_FOR, token.KW_WHILE, token.KW_FN,
		token.KW_RETURN, token.KW_BREAK, token.KW_CONTINUE, token.KW_IMPORT,
		token.KW_END, token.KW_TRUE, token.KW_FALSE, token.KW_IN, token.KW_UNTIL,
		token.KW_STEP, token.KW_AND, token.KW_OR, token.KW_NOT,
		token.EOF,
	})
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	tokens := expectKinds(t, `if Ending inside`, []token.Kind{
		token.IDENT, token.IDENT, token.IDENT, token.EOF,
	})
	if tokens[1].Lexeme != "Ending" {
		t.Errorf("expected identifier 'Ending', got %q", tokens[1].Lexeme)
	}
}

func TestTokenizeOperators(t *testing.T) {
	source := `= == != < <= > >= + - * / % .. . $`
	expectKinds(t, source, []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.RANGE, token.DOT, token.DOLLAR,
		token.EOF,
	})
}

func TestTokenizeDelimiters(t *testing.T) {
	expectKinds(t, `( ) { } [ ] , ; :`, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA,
		token.SEMICOLON, token.COLON,
		token.EOF,
	})
}

func TestTokenizeString(t *testing.T) {
	tokens := expectKinds(t, `"hello" "line1\nline2" "say \"hi\"\t\\"`, []token.Kind{
		token.STRING, token.STRING, token.STRING, token.EOF,
	})
	if tokens[0].Lexeme != "hello" {
		t.Errorf("expected 'hello', got %q", tokens[0].Lexeme)
	}
	if tokens[1].Lexeme != "line1\nline2" {
		t.Errorf("expected string with newline, got %q", tokens[1].Lexeme)
	}
	if tokens[2].Lexeme != "say \"hi\"\t\\" {
		t.Errorf("unexpected escapes result: %q", tokens[2].Lexeme)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tokens := expectKinds(t, `123 3.14 0 42`, []token.Kind{
		token.INT, token.FLOAT, token.INT, token.INT, token.EOF,
	})
	if tokens[0].Lexeme != "123" || tokens[1].Lexeme != "3.14" {
		t.Errorf("unexpected lexemes: %q %q", tokens[0].Lexeme, tokens[1].Lexeme)
	}
}

func TestNumberBeforeRange(t *testing.T) {
	tokens := expectKinds(t, `1..5 2.x`, []token.Kind{
		token.INT, token.RANGE, token.INT, token.INT, token.DOT, token.IDENT, token.EOF,
	})
	if tokens[0].Lexeme != "1" || tokens[2].Lexeme != "5" {
		t.Errorf("range bounds lexed as %q and %q", tokens[0].Lexeme, tokens[2].Lexeme)
	}
}

func TestTokenizeComments(t *testing.T) {
	source := "x # line comment\n## block\ncomment ## y\n#trailing"
	expectKinds(t, source, []token.Kind{token.IDENT, token.IDENT, token.EOF})
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("x\n  ## never closed\ny", "test.aleng")
	tokens, diags := l.Tokenize()

	if len(tokens) != 2 || tokens[0].Kind != token.IDENT || tokens[1].Kind != token.EOF {
		t.Fatalf("expected IDENT EOF, got %v", tokens)
	}
	if len(diags) != 1 || diags[0].Code != "E1004" {
		t.Fatalf("expected one E1004 diagnostic, got %v", diags)
	}
	if got := diags[0].Span.Start; got.Line != 2 || got.Column != 3 {
		t.Errorf("diagnostic should point at the opener (2:3), got %s", got)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`a = "open`, "test.aleng")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1001" {
		t.Fatalf("expected one E1001 diagnostic, got %v", diags)
	}
	if diags[0].Span.Start.Column != 5 {
		t.Errorf("expected diagnostic at column 5, got %d", diags[0].Span.Start.Column)
	}
	if last := tokens[len(tokens)-1]; last.Kind != token.EOF {
		t.Errorf("expected stream to end with EOF, got %s", last.Kind)
	}
	// The lexer stays halted.
	if tok := l.Next(); tok.Kind != token.EOF {
		t.Errorf("expected EOF after hard error, got %s", tok.Kind)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("a @ b", "test.aleng")
	tokens, diags := l.Tokenize()
	if len(diags) != 1 || diags[0].Code != "E1003" {
		t.Fatalf("expected E1003, got %v", diags)
	}
	if tokens[1].Kind != token.ILLEGAL {
		t.Errorf("expected ILLEGAL token, got %s", tokens[1].Kind)
	}
}

func TestBangSuggestsNot(t *testing.T) {
	_, diags := New("!x", "test.aleng").Tokenize()
	if len(diags) != 1 || diags[0].Code != "E1003" {
		t.Fatalf("expected E1003, got %v", diags)
	}
	if !strings.Contains(diags[0].Hint, "'not'") {
		t.Errorf("expected a hint pointing at 'not', got %q", diags[0].Hint)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := expectKinds(t, "x = 1\n  Print(x)", []token.Kind{
		token.IDENT, token.ASSIGN, token.INT,
		token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.EOF,
	})

	if p := tokens[0].Span.Start; p.Line != 1 || p.Column != 1 {
		t.Errorf("'x' position: expected 1:1, got %s", p)
	}
	if p := tokens[2].Span.Start; p.Line != 1 || p.Column != 5 {
		t.Errorf("'1' position: expected 1:5, got %s", p)
	}
	if p := tokens[3].Span.Start; p.Line != 2 || p.Column != 3 {
		t.Errorf("'Print' position: expected 2:3, got %s", p)
	}
	if tokens[3].Span.File != "test.aleng" {
		t.Errorf("expected span file to be recorded, got %q", tokens[3].Span.File)
	}
}

// lineCol recomputes a 1-based line/column from a byte offset.
func lineCol(source string, offset int) (int, int) {
	line, col := 1, 1
	for _, ch := range []byte(source[:offset]) {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func TestPositionsRoundTrip(t *testing.T) {
	source := strings.Join([]string{
		`## header`,
		`## `,
		`Fn Add(a: Number, $rest)`,
		`  Return a + Len(rest) # tail`,
		`End`,
		`For i = 1 until 10 step 2`,
		`  m = {"k": [1.5, "s\n"]}`,
		`End`,
	}, "\n")
	l := New(source, "rt.aleng")
	tokens, diags := l.Tokenize()
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	for _, tok := range tokens {
		for _, p := range []struct {
			line, col, off int
		}{
			{tok.Span.Start.Line, tok.Span.Start.Column, tok.Span.Start.Offset},
			{tok.Span.End.Line, tok.Span.End.Column, tok.Span.End.Offset},
		} {
			line, col := lineCol(source, p.off)
			if line != p.line || col != p.col {
				t.Errorf("%s: offset %d maps to %d:%d, token says %d:%d", tok, p.off, line, col, p.line, p.col)
			}
		}
		if tok.Kind != token.STRING && tok.Kind != token.EOF {
			if text := source[tok.Span.Start.Offset:tok.Span.End.Offset]; text != tok.Lexeme {
				t.Errorf("span text %q does not match lexeme %q", text, tok.Lexeme)
			}
		}
	}
}
