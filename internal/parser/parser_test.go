package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"aleng/internal/ast"
	"aleng/internal/diag"
	"aleng/internal/token"
)

// helper: parse source and return AST + check for no errors
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := Parse(source, "test.aleng")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	return prog
}

// helper: parse source expecting diagnostics
func parseErr(t *testing.T, source string) (*ast.Program, []diag.Diagnostic) {
	t.Helper()
	prog, diags := Parse(source, "test.aleng")
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics for %q", source)
	}
	if prog == nil {
		t.Fatal("program is nil")
	}
	return prog, diags
}

// exprOf returns the expression of the i-th top-level statement.
func exprOf(t *testing.T, prog *ast.Program, i int) ast.Expr {
	t.Helper()
	if len(prog.Body) <= i {
		t.Fatalf("expected at least %d statements, got %d", i+1, len(prog.Body))
	}
	stmt, ok := prog.Body[i].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", prog.Body[i])
	}
	return stmt.Expr
}

func TestParseAssignment(t *testing.T) {
	prog := parseOK(t, `x = 42`)
	assign, ok := exprOf(t, prog, 0).(*ast.AssignExpr)
	if !ok {
		t.Fatalf("expected AssignExpr, got %T", exprOf(t, prog, 0))
	}
	ident, ok := assign.Target.(*ast.Ident)
	if !ok || ident.Name != "x" {
		t.Fatalf("expected Ident target 'x', got %#v", assign.Target)
	}
	num, ok := assign.Value.(*ast.NumberLit)
	if !ok || num.Value != 42 {
		t.Errorf("expected NumberLit 42, got %#v", assign.Value)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog := parseOK(t, `a = b = 1`)
	outer := exprOf(t, prog, 0).(*ast.AssignExpr)
	if _, ok := outer.Value.(*ast.AssignExpr); !ok {
		t.Errorf("expected nested AssignExpr on the right, got %T", outer.Value)
	}
}

func TestParseAssignmentTargets(t *testing.T) {
	prog := parseOK(t, "m.k = 1\nl[0] = 2")
	if _, ok := exprOf(t, prog, 0).(*ast.AssignExpr).Target.(*ast.MemberExpr); !ok {
		t.Error("expected member target")
	}
	if _, ok := exprOf(t, prog, 1).(*ast.AssignExpr).Target.(*ast.IndexExpr); !ok {
		t.Error("expected index target")
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, diags := parseErr(t, `1 + 2 = 3`)
	if len(diags) != 1 || diags[0].Code != "E2004" {
		t.Fatalf("expected one E2004, got %v", diags)
	}
	if !strings.Contains(diags[0].Message, "left-hand side") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parseOK(t, `1 + 2 * 3 == 7 and not x or y`)
	or, ok := exprOf(t, prog, 0).(*ast.BinaryExpr)
	if !ok || or.Op != token.KW_OR {
		t.Fatalf("expected 'or' at the root, got %#v", exprOf(t, prog, 0))
	}
	and, ok := or.Left.(*ast.BinaryExpr)
	if !ok || and.Op != token.KW_AND {
		t.Fatalf("expected 'and' under 'or', got %#v", or.Left)
	}
	eq, ok := and.Left.(*ast.EqualsExpr)
	if !ok || eq.Negate {
		t.Fatalf("expected '==' under 'and', got %#v", and.Left)
	}
	sum, ok := eq.Left.(*ast.BinaryExpr)
	if !ok || sum.Op != token.PLUS {
		t.Fatalf("expected '+', got %#v", eq.Left)
	}
	if mul, ok := sum.Right.(*ast.BinaryExpr); !ok || mul.Op != token.STAR {
		t.Errorf("expected '*' to bind tighter than '+', got %#v", sum.Right)
	}
	if un, ok := and.Right.(*ast.UnaryExpr); !ok || un.Op != token.KW_NOT {
		t.Errorf("expected unary 'not', got %#v", and.Right)
	}
}

func TestParseSubtractionIsLeftAssociative(t *testing.T) {
	prog := parseOK(t, `10 - 4 - 3`)
	root := exprOf(t, prog, 0).(*ast.BinaryExpr)
	if _, ok := root.Left.(*ast.BinaryExpr); !ok {
		t.Errorf("expected (10 - 4) - 3, got right-nested tree")
	}
}

func TestParseNotEqual(t *testing.T) {
	prog := parseOK(t, `a != b`)
	eq, ok := exprOf(t, prog, 0).(*ast.EqualsExpr)
	if !ok || !eq.Negate {
		t.Fatalf("expected negated EqualsExpr, got %#v", exprOf(t, prog, 0))
	}
}

func TestParsePostfixChain(t *testing.T) {
	prog := parseOK(t, `suite.Tests[0](1, 2).name`)
	member, ok := exprOf(t, prog, 0).(*ast.MemberExpr)
	if !ok || member.Property != "name" {
		t.Fatalf("expected MemberExpr .name, got %#v", exprOf(t, prog, 0))
	}
	call, ok := member.Object.(*ast.CallExpr)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("expected call with 2 args, got %#v", member.Object)
	}
	index, ok := call.Callee.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected IndexExpr callee, got %T", call.Callee)
	}
	if _, ok := index.Object.(*ast.MemberExpr); !ok {
		t.Errorf("expected member access under index, got %T", index.Object)
	}
}

func TestParseCollectionLiterals(t *testing.T) {
	prog := parseOK(t, `[1, "a", [True]]; {"k": 1, "j": [2,],}; []; {}`)
	list := exprOf(t, prog, 0).(*ast.ListLit)
	if len(list.Elements) != 3 {
		t.Errorf("expected 3 elements, got %d", len(list.Elements))
	}
	m := exprOf(t, prog, 1).(*ast.MapLit)
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 map entries, got %d", len(m.Entries))
	}
	if key := m.Entries[1].Key.(*ast.StringLit); key.Value != "j" {
		t.Errorf("expected key 'j', got %q", key.Value)
	}
	if len(exprOf(t, prog, 2).(*ast.ListLit).Elements) != 0 {
		t.Error("expected empty list")
	}
	if len(exprOf(t, prog, 3).(*ast.MapLit).Entries) != 0 {
		t.Error("expected empty map")
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseOK(t, `
If x > 1
  Print("big")
Else
  Print("small")
  Print("!")
End`)
	stmt, ok := prog.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Body[0])
	}
	if len(stmt.Then.Stmts) != 1 || stmt.Else == nil || len(stmt.Else.Stmts) != 2 {
		t.Errorf("unexpected branches: then=%d else=%v", len(stmt.Then.Stmts), stmt.Else)
	}
}

func TestParseNumericFor(t *testing.T) {
	prog := parseOK(t, "For i = 1 .. 10 step 2\nEnd\nFor j = 0 until n\n Print(j)\nEnd")
	first, ok := prog.Body[0].(*ast.NumericForStmt)
	if !ok {
		t.Fatalf("expected NumericForStmt, got %T", prog.Body[0])
	}
	if first.Var != "i" || first.Until || first.Step == nil {
		t.Errorf("unexpected first loop: %#v", first)
	}
	second := prog.Body[1].(*ast.NumericForStmt)
	if !second.Until || second.Step != nil || len(second.Body.Stmts) != 1 {
		t.Errorf("unexpected second loop: %#v", second)
	}
}

func TestParseCollectionFor(t *testing.T) {
	prog := parseOK(t, "For x in [1, 2]\n Print(x)\nEnd")
	loop, ok := prog.Body[0].(*ast.CollectionForStmt)
	if !ok {
		t.Fatalf("expected CollectionForStmt, got %T", prog.Body[0])
	}
	if loop.Var != "x" {
		t.Errorf("expected var 'x', got %q", loop.Var)
	}
	if _, ok := loop.Iterable.(*ast.ListLit); !ok {
		t.Errorf("expected list iterable, got %T", loop.Iterable)
	}
}

func TestParseForWithoutRange(t *testing.T) {
	_, diags := parseErr(t, "For i = 1 5\nEnd")
	if diags[0].Code != "E2001" {
		t.Errorf("expected E2001, got %v", diags)
	}
}

func TestParseWhileWithBreakContinue(t *testing.T) {
	prog := parseOK(t, "While True\n If x Break End\n Continue\nEnd")
	loop := prog.Body[0].(*ast.WhileStmt)
	inner := loop.Body.Stmts[0].(*ast.IfStmt)
	if _, ok := inner.Then.Stmts[0].(*ast.BreakStmt); !ok {
		t.Errorf("expected Break, got %T", inner.Then.Stmts[0])
	}
	if _, ok := loop.Body.Stmts[1].(*ast.ContinueStmt); !ok {
		t.Errorf("expected Continue, got %T", loop.Body.Stmts[1])
	}
}

func TestParseFuncDef(t *testing.T) {
	prog := parseOK(t, `
Fn Sum(first: Number, $rest: Number)
  Return first + Len(rest)
End`)
	fn, ok := exprOf(t, prog, 0).(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %T", exprOf(t, prog, 0))
	}
	if fn.Name != "Sum" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function: %#v", fn)
	}
	if fn.Params[0].Type != "Number" || fn.Params[0].Variadic {
		t.Errorf("unexpected first param: %#v", fn.Params[0])
	}
	if !fn.Params[1].Variadic || fn.Params[1].Name != "rest" || !fn.IsVariadic() {
		t.Errorf("unexpected variadic param: %#v", fn.Params[1])
	}
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok || ret.Value == nil {
		t.Errorf("expected Return with value, got %#v", fn.Body.Stmts[0])
	}
}

func TestParseAnonymousFunction(t *testing.T) {
	prog := parseOK(t, "f = Fn(x) Return x * 2 End\nF = Fn() Return End")
	fn, ok := exprOf(t, prog, 0).(*ast.AssignExpr).Value.(*ast.FuncDef)
	if !ok || fn.Name != "" || len(fn.Params) != 1 {
		t.Fatalf("expected anonymous FuncDef, got %#v", exprOf(t, prog, 0))
	}
	empty := exprOf(t, prog, 1).(*ast.AssignExpr).Value.(*ast.FuncDef)
	if ret := empty.Body.Stmts[0].(*ast.ReturnStmt); ret.Value != nil {
		t.Errorf("expected bare Return, got %#v", ret.Value)
	}
}

func TestReturnFunctionLiteral(t *testing.T) {
	prog := parseOK(t, "Fn Make()\n Return Fn() Return 1 End\nEnd")
	fn := exprOf(t, prog, 0).(*ast.FuncDef)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if _, ok := ret.Value.(*ast.FuncDef); !ok {
		t.Errorf("expected returned FuncDef, got %T", ret.Value)
	}
}

func TestVariadicMustBeLast(t *testing.T) {
	prog, diags := parseErr(t, "Fn F($xs, y)\nEnd")
	if len(diags) != 1 || diags[0].Code != "E2006" {
		t.Fatalf("expected one E2006, got %v", diags)
	}
	if !strings.Contains(diags[0].Message, "must be the last parameter") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
	if len(prog.Body) != 1 {
		t.Errorf("definition should still be kept, got %d statements", len(prog.Body))
	}
}

func TestParseImport(t *testing.T) {
	prog := parseOK(t, `m = Import "std/math"`)
	imp, ok := exprOf(t, prog, 0).(*ast.AssignExpr).Value.(*ast.ImportExpr)
	if !ok || imp.Name != "std/math" {
		t.Fatalf("expected ImportExpr std/math, got %#v", exprOf(t, prog, 0))
	}
}

func TestParseJSONOutput(t *testing.T) {
	prog := parseOK(t, `x = 1`)
	data, err := json.MarshalIndent(ast.NodeToMap(prog), "", "  ")
	if err != nil {
		t.Fatalf("json error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["kind"] != "Program" {
		t.Errorf("expected kind 'Program', got %v", m["kind"])
	}
}

func TestSpansCarryFile(t *testing.T) {
	prog := parseOK(t, "\n  total = 1")
	s := exprOf(t, prog, 0).GetSpan()
	if s.File != "test.aleng" || s.Start.Line != 2 || s.Start.Column != 3 {
		t.Errorf("unexpected span %+v", s)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	source := `x = [1, 2
Fn Ok()
  Return 1
End
y = )`
	prog, diags := Parse(source, "test.aleng")

	if len(diags) != 2 {
		t.Fatalf("expected exactly 2 diagnostics, got %d: %v", len(diags), diags)
	}
	if diags[0].Span.Start.Line != 2 || diags[1].Span.Start.Line != 5 {
		t.Errorf("diagnostics at unexpected lines: %v", diags)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected the valid statement to survive, got %d statements", len(prog.Body))
	}
	if fn, ok := exprOf(t, prog, 0).(*ast.FuncDef); !ok || fn.Name != "Ok" {
		t.Errorf("expected FuncDef Ok, got %#v", exprOf(t, prog, 0))
	}
}

func TestRecoveryInsideBlock(t *testing.T) {
	source := `Fn F()
  a = (1 +
  Return 2
End
Print(F())`
	prog, diags := Parse(source, "test.aleng")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if len(prog.Body) != 2 {
		t.Fatalf("expected function and call to survive, got %d", len(prog.Body))
	}
	fn := exprOf(t, prog, 0).(*ast.FuncDef)
	if len(fn.Body.Stmts) != 1 {
		t.Errorf("expected Return to survive inside the body, got %d", len(fn.Body.Stmts))
	}
}

func TestStrayEnd(t *testing.T) {
	prog, diags := parseErr(t, "End\nx = 1")
	if diags[0].Code != "E2003" {
		t.Errorf("expected E2003, got %v", diags)
	}
	if len(prog.Body) != 1 {
		t.Errorf("expected assignment to survive, got %d", len(prog.Body))
	}
}

func TestMissingEnd(t *testing.T) {
	_, diags := parseErr(t, "While True\n  x = 1")
	if len(diags) != 1 || diags[0].Code != "E2005" {
		t.Fatalf("expected one E2005, got %v", diags)
	}
	if diags[0].Span.Start.Line != 1 {
		t.Errorf("missing End should point at the opener, got %s", diags[0].Span.Start)
	}
}

func TestDuplicateMapKeyWarning(t *testing.T) {
	prog, diags := parseErr(t, `m = {"a": 1, "b": 2, "a": 3}`)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Code != "W2001" || d.Severity != diag.Warning {
		t.Errorf("expected W2001 warning, got %v", d)
	}
	if d.Span.Start.Column != 22 {
		t.Errorf("warning should point at the repeated key, got %s", d.Span.Start)
	}
	if !strings.Contains(d.Hint, "1:6") {
		t.Errorf("hint should name the first entry, got %q", d.Hint)
	}
	if diag.HasErrors(diags) {
		t.Error("a duplicate key must not be an error")
	}
	if len(prog.Body) != 1 {
		t.Errorf("expected the assignment to survive, got %d statements", len(prog.Body))
	}
}

func TestLexerDiagnosticsAreIncluded(t *testing.T) {
	_, diags := parseErr(t, "x = 1 @ 2")
	if diags[0].Code != "E1003" {
		t.Errorf("expected lexer diagnostic first, got %v", diags)
	}
}
