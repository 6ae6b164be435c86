// Package ast defines the abstract syntax tree for Aleng.
package ast

import (
	"aleng/internal/span"
	"aleng/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program represents an entire source file.
type Program struct {
	NodeBase
	Body []Stmt
}

// ============================================================
// Expressions
// ============================================================

// Ident represents an identifier reference.
type Ident struct {
	ExprBase
	Name string
}

// NumberLit represents a numeric literal. All numbers are float64 at runtime.
type NumberLit struct {
	ExprBase
	Value float64
	Raw   string
}

// StringLit represents a string literal with escapes already decoded.
type StringLit struct {
	ExprBase
	Value string
}

// BoolLit represents True or False.
type BoolLit struct {
	ExprBase
	Value bool
}

// ListLit represents a list literal: [a, b, c].
type ListLit struct {
	ExprBase
	Elements []Expr
}

// MapEntry is one key: value pair of a map literal.
type MapEntry struct {
	Key   Expr
	Value Expr
}

// MapLit represents a map literal: {"k": v, ...}. Keys must evaluate to strings.
type MapLit struct {
	ExprBase
	Entries []MapEntry
}

// UnaryExpr represents a unary operation: not x, -x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents arithmetic, relational and logical operations.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// EqualsExpr represents a == b, or a != b when Negate is set.
type EqualsExpr struct {
	ExprBase
	Left   Expr
	Right  Expr
	Negate bool
}

// AssignExpr represents target = value. Target is an Ident, IndexExpr or MemberExpr.
type AssignExpr struct {
	ExprBase
	Target Expr
	Value  Expr
}

// CallExpr represents a function call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// IndexExpr represents indexing: a[i].
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// MemberExpr represents member access: a.b.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property string
}

// ImportExpr represents Import "name".
type ImportExpr struct {
	ExprBase
	Name string
}

// Param is a function parameter: name, name: Type, or $name.
type Param struct {
	Span     span.Span
	Name     string
	Type     string // empty when unannotated
	Variadic bool
}

// FuncDef represents a function definition, named (Fn Name(...) ... End) or
// anonymous. Function values hold a pointer to the definition, so closures
// created from the same definition share it.
type FuncDef struct {
	ExprBase
	Name   string // empty for function literals
	Params []Param
	Body   *Block
}

// IsVariadic reports whether the last parameter collects remaining arguments.
func (f *FuncDef) IsVariadic() bool {
	return len(f.Params) > 0 && f.Params[len(f.Params)-1].Variadic
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// Block is a sequence of statements closed by End (or Else).
type Block struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents If cond ... [Else ...] End.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      *Block
	Else      *Block // may be nil
}

// NumericForStmt represents For i = start (..|until) end [step s] ... End.
type NumericForStmt struct {
	StmtBase
	Var   string
	Start Expr
	End   Expr
	Step  Expr // may be nil
	Until bool // exclusive upper bound
	Body  *Block
}

// CollectionForStmt represents For x in expr ... End.
type CollectionForStmt struct {
	StmtBase
	Var      string
	Iterable Expr
	Body     *Block
}

// WhileStmt represents While cond ... End.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *Block
}

// ReturnStmt represents a Return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BreakStmt represents a Break statement.
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents a Continue statement.
type ContinueStmt struct {
	StmtBase
}
