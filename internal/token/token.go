// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"

	"aleng/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // identifiers: x, Counter, my_var
	INT    // integer literals: 123
	FLOAT  // float literals: 3.14
	STRING // string literals: "hello"

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	EQ    // ==
	NEQ   // !=
	LT    // <
	LTE   // <=
	GT    // >
	GTE   // >=
	RANGE // ..

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :
	DOLLAR    // $

	// Keywords
	KW_IF
	KW_ELSE
	KW_FOR
	KW_WHILE
	KW_FN
	KW_RETURN
	KW_BREAK
	KW_CONTINUE
	KW_IMPORT
	KW_END
	KW_TRUE
	KW_FALSE
	KW_IN
	KW_UNTIL
	KW_STEP
	KW_AND
	KW_OR
	KW_NOT
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	EQ:      "==",
	NEQ:     "!=",
	LT:      "<",
	LTE:     "<=",
	GT:      ">",
	GTE:     ">=",
	RANGE:   "..",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",
	DOLLAR:    "$",

	KW_IF:       "If",
	KW_ELSE:     "Else",
	KW_FOR:      "For",
	KW_WHILE:    "While",
	KW_FN:       "Fn",
	KW_RETURN:   "Return",
	KW_BREAK:    "Break",
	KW_CONTINUE: "Continue",
	KW_IMPORT:   "Import",
	KW_END:      "End",
	KW_TRUE:     "True",
	KW_FALSE:    "False",
	KW_IN:       "in",
	KW_UNTIL:    "until",
	KW_STEP:     "step",
	KW_AND:      "and",
	KW_OR:       "or",
	KW_NOT:      "not",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_IF && k <= KW_NOT
}

// IsLiteral returns true if the kind is a literal (ident/int/float/string).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

// StartsStatement reports whether a token of this kind begins a statement
// (or closes a block). The parser resynchronises on these after an error.
func (k Kind) StartsStatement() bool {
	switch k {
	case KW_FN, KW_IF, KW_FOR, KW_WHILE, KW_RETURN, KW_BREAK, KW_CONTINUE, KW_END, KW_ELSE, EOF:
		return true
	}
	return false
}

var keywords = map[string]Kind{
	"If":       KW_IF,
	"Else":     KW_ELSE,
	"For":      KW_FOR,
	"While":    KW_WHILE,
	"Fn":       KW_FN,
	"Return":   KW_RETURN,
	"Break":    KW_BREAK,
	"Continue": KW_CONTINUE,
	"Import":   KW_IMPORT,
	"End":      KW_END,
	"True":     KW_TRUE,
	"False":    KW_FALSE,
	"in":       KW_IN,
	"until":    KW_UNTIL,
	"step":     KW_STEP,
	"and":      KW_AND,
	"or":       KW_OR,
	"not":      KW_NOT,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token represents a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
