package runtime

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"aleng/internal/ast"
	"aleng/internal/span"
	"aleng/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and a value. For SigNone the
// value is the statement's own value; for SigReturn it is the returned
// value. At records where the signal was raised.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
	At     span.Span
}

var resultNone = ExecResult{Signal: SigNone, Value: Neutral}

// ============================================================
// Errors
// ============================================================

// RuntimeError is a language-level error raised during evaluation.
type RuntimeError struct {
	Message string
	Span    span.Span
}

func (e *RuntimeError) Error() string {
	if e.Span.File != "" {
		return fmt.Sprintf("runtime error at %s:%d:%d: %s", e.Span.File, e.Span.Start.Line, e.Span.Start.Column, e.Message)
	}
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func runtimeErr(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s}
}

// InternalError reports a broken evaluator invariant. It is raised with
// panic, never returned.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}

// ExitError is returned when a program calls Exit. It unwinds evaluation
// like any other error; the caller decides how to terminate.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ============================================================
// Evaluator
// ============================================================

// NativeFunc is the Go signature of a native callback. call is the call
// site and may be nil when a native is invoked from Go.
type NativeFunc func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error)

const defaultMaxDepth = 10000

// Evaluator walks the AST and executes it.
type Evaluator struct {
	scopes   []*Scope
	natives  map[string]NativeFunc
	loader   *ModuleLoader
	out      io.Writer
	depth    int
	maxDepth int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutput sets where Print and PrintRaw write. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(ev *Evaluator) { ev.out = w }
}

// WithLoader sets the module loader used by Import.
func WithLoader(l *ModuleLoader) Option {
	return func(ev *Evaluator) { ev.loader = l }
}

// WithMaxDepth bounds the user function call depth.
func WithMaxDepth(n int) Option {
	return func(ev *Evaluator) { ev.maxDepth = n }
}

// New creates an evaluator with a single global scope and the core
// builtins registered.
func New(opts ...Option) *Evaluator {
	ev := &Evaluator{
		scopes:   []*Scope{NewScope()},
		natives:  make(map[string]NativeFunc),
		out:      os.Stdout,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(ev)
	}
	if ev.loader == nil {
		ev.loader = NewModuleLoader(".")
	}
	registerBuiltins(ev)
	return ev
}

// Output returns the writer used for program output.
func (ev *Evaluator) Output() io.Writer { return ev.out }

// Loader returns the module loader.
func (ev *Evaluator) Loader() *ModuleLoader { return ev.loader }

// Globals returns the outermost scope.
func (ev *Evaluator) Globals() *Scope { return ev.scopes[0] }

// RegisterNative adds or replaces a native callback.
func (ev *Evaluator) RegisterNative(name string, fn NativeFunc) {
	ev.natives[name] = fn
}

// HasNative reports whether a native callback is registered under name.
func (ev *Evaluator) HasNative(name string) bool {
	_, ok := ev.natives[name]
	return ok
}

// Errorf builds a runtime error located at node (a call site, usually).
func (ev *Evaluator) Errorf(node ast.Node, format string, args ...interface{}) error {
	return runtimeErr(spanOf(node), format, args...)
}

// Run executes a program in the current scope chain and returns the value
// of its last statement.
func (ev *Evaluator) Run(prog *ast.Program) (Value, error) {
	last := Neutral
	for _, stmt := range prog.Body {
		result, err := ev.exec(stmt)
		if err != nil {
			return nil, err
		}
		if err := strayErr(result); err != nil {
			return nil, err
		}
		last = result.Value
	}
	return last, nil
}

// Evaluate evaluates any node: a program, a statement or an expression.
func (ev *Evaluator) Evaluate(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		return ev.Run(n)
	case ast.Expr:
		return ev.eval(n)
	case ast.Stmt:
		result, err := ev.exec(n)
		if err != nil {
			return nil, err
		}
		if err := strayErr(result); err != nil {
			return nil, err
		}
		return result.Value, nil
	}
	panic(&InternalError{Message: fmt.Sprintf("cannot evaluate %T", node)})
}

// strayErr turns a signal that escaped to a function or program boundary
// into an error.
func strayErr(r ExecResult) error {
	switch r.Signal {
	case SigReturn:
		return runtimeErr(r.At, "'Return' outside of a function")
	case SigBreak:
		return runtimeErr(r.At, "'Break' outside of a loop")
	case SigContinue:
		return runtimeErr(r.At, "'Continue' outside of a loop")
	}
	return nil
}

func spanOf(node ast.Node) span.Span {
	if node == nil {
		return span.Span{}
	}
	switch n := node.(type) {
	case *ast.CallExpr:
		if n == nil {
			return span.Span{}
		}
	case *ast.ImportExpr:
		if n == nil {
			return span.Span{}
		}
	}
	return node.GetSpan()
}

// ============================================================
// Statements
// ============================================================

func (ev *Evaluator) exec(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := ev.eval(s.Expr)
		if err != nil {
			return resultNone, err
		}
		return ExecResult{Value: v}, nil
	case *ast.Block:
		return ev.execBlock(s)
	case *ast.IfStmt:
		return ev.execIf(s)
	case *ast.WhileStmt:
		return ev.execWhile(s)
	case *ast.NumericForStmt:
		return ev.execNumericFor(s)
	case *ast.CollectionForStmt:
		return ev.execCollectionFor(s)
	case *ast.ReturnStmt:
		v := Neutral
		if s.Value != nil {
			var err error
			if v, err = ev.eval(s.Value); err != nil {
				return resultNone, err
			}
		}
		return ExecResult{Signal: SigReturn, Value: v, At: s.Span}, nil
	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak, Value: Neutral, At: s.Span}, nil
	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue, Value: Neutral, At: s.Span}, nil
	}
	panic(&InternalError{Message: fmt.Sprintf("unhandled statement %T", stmt)})
}

// execBlock runs statements in the current scope. Blocks do not push a
// scope of their own.
func (ev *Evaluator) execBlock(block *ast.Block) (ExecResult, error) {
	last := Neutral
	for _, stmt := range block.Stmts {
		result, err := ev.exec(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
		last = result.Value
	}
	return ExecResult{Value: last}, nil
}

func (ev *Evaluator) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := ev.eval(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return ev.execBlock(s.Then)
	}
	if s.Else != nil {
		return ev.execBlock(s.Else)
	}
	return resultNone, nil
}

// loopBody runs one iteration. done is set when the loop must stop, and
// the returned result is then what the loop statement yields.
func (ev *Evaluator) loopBody(body *ast.Block) (result ExecResult, done bool, err error) {
	result, err = ev.execBlock(body)
	if err != nil {
		return resultNone, true, err
	}
	switch result.Signal {
	case SigBreak:
		return resultNone, true, nil
	case SigReturn:
		return result, true, nil // propagate return
	}
	// SigContinue: just continue the loop
	return resultNone, false, nil
}

// execWhile runs the loop in one pushed scope that persists across
// iterations.
func (ev *Evaluator) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	ev.pushScope()
	defer ev.popScope()

	for {
		cond, err := ev.eval(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}
		if result, done, err := ev.loopBody(s.Body); done {
			return result, err
		}
	}
	return resultNone, nil
}

func (ev *Evaluator) execNumericFor(s *ast.NumericForStmt) (ExecResult, error) {
	from, err := ev.evalNumber(s.Start, "start value of numeric 'For'")
	if err != nil {
		return resultNone, err
	}
	to, err := ev.evalNumber(s.End, "end value of numeric 'For'")
	if err != nil {
		return resultNone, err
	}
	step := 1.0
	if s.Step != nil {
		if step, err = ev.evalNumber(s.Step, "step of numeric 'For'"); err != nil {
			return resultNone, err
		}
		if step == 0 {
			return resultNone, runtimeErr(s.Step.GetSpan(), "step of numeric 'For' must not be zero")
		}
	} else if from > to {
		step = -1
	}

	inRange := func(i float64) bool {
		switch {
		case step > 0 && s.Until:
			return i < to
		case step > 0:
			return i <= to
		case s.Until:
			return i > to
		default:
			return i >= to
		}
	}

	ev.pushScope()
	defer ev.popScope()

	for i := from; inRange(i); i += step {
		ev.define(s.Var, Number(i))
		if result, done, err := ev.loopBody(s.Body); done {
			return result, err
		}
	}
	return resultNone, nil
}

// execCollectionFor iterates a snapshot of the list elements or map keys
// taken when the loop starts.
func (ev *Evaluator) execCollectionFor(s *ast.CollectionForStmt) (ExecResult, error) {
	coll, err := ev.eval(s.Iterable)
	if err != nil {
		return resultNone, err
	}

	var items []Value
	switch c := coll.(type) {
	case *List:
		items = append(items, c.Elements...)
	case *Map:
		for _, k := range c.Keys {
			items = append(items, String(k))
		}
	default:
		return resultNone, runtimeErr(s.Iterable.GetSpan(), "'For ... in' expects a List or Map, got %s", coll.TypeName())
	}

	ev.pushScope()
	defer ev.popScope()

	for _, item := range items {
		ev.define(s.Var, item)
		if result, done, err := ev.loopBody(s.Body); done {
			return result, err
		}
	}
	return resultNone, nil
}

// ============================================================
// Expressions
// ============================================================

func (ev *Evaluator) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return Number(e.Value), nil
	case *ast.StringLit:
		return String(e.Value), nil
	case *ast.BoolLit:
		return Bool(e.Value), nil
	case *ast.Ident:
		return ev.evalIdent(e)
	case *ast.ListLit:
		return ev.evalListLit(e)
	case *ast.MapLit:
		return ev.evalMapLit(e)
	case *ast.UnaryExpr:
		return ev.evalUnary(e)
	case *ast.BinaryExpr:
		if e.Op == token.KW_AND || e.Op == token.KW_OR {
			return ev.evalLogical(e)
		}
		return ev.evalBinary(e)
	case *ast.EqualsExpr:
		left, err := ev.eval(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := ev.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return Bool(Equal(left, right) != e.Negate), nil
	case *ast.AssignExpr:
		return ev.evalAssign(e)
	case *ast.CallExpr:
		return ev.evalCall(e)
	case *ast.IndexExpr:
		return ev.evalIndex(e)
	case *ast.MemberExpr:
		return ev.evalMember(e)
	case *ast.FuncDef:
		return ev.evalFuncDef(e)
	case *ast.ImportExpr:
		return ev.loader.Load(e.Name, e, ev)
	}
	panic(&InternalError{Message: fmt.Sprintf("unhandled expression %T", expr)})
}

func (ev *Evaluator) evalNumber(expr ast.Expr, what string) (float64, error) {
	v, err := ev.eval(expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Number)
	if !ok {
		return 0, runtimeErr(expr.GetSpan(), "%s must be a Number, got %s", what, v.TypeName())
	}
	return float64(n), nil
}

// evalIdent resolves a name through the scope chain, then the native table.
func (ev *Evaluator) evalIdent(e *ast.Ident) (Value, error) {
	if v, ok := ev.lookup(e.Name); ok {
		return v, nil
	}
	if ev.HasNative(e.Name) {
		return &Function{Name: e.Name, Builtin: true}, nil
	}
	return nil, runtimeErr(e.Span, "unbound identifier '%s'", e.Name)
}

func (ev *Evaluator) evalListLit(e *ast.ListLit) (Value, error) {
	elems := make([]Value, 0, len(e.Elements))
	for _, el := range e.Elements {
		v, err := ev.eval(el)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return NewList(elems...), nil
}

// evalMapLit evaluates entries in order; a repeated key overwrites.
func (ev *Evaluator) evalMapLit(e *ast.MapLit) (Value, error) {
	m := NewMap()
	for _, entry := range e.Entries {
		k, err := ev.eval(entry.Key)
		if err != nil {
			return nil, err
		}
		key, ok := k.(String)
		if !ok {
			return nil, runtimeErr(entry.Key.GetSpan(), "map keys must be String, got %s", k.TypeName())
		}
		v, err := ev.eval(entry.Value)
		if err != nil {
			return nil, err
		}
		m.Set(string(key), v)
	}
	return m, nil
}

func (ev *Evaluator) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := ev.eval(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.KW_NOT:
		return Bool(!IsTruthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(Number)
		if !ok {
			return nil, runtimeErr(e.Span, "unary '-' expects a Number, got %s", operand.TypeName())
		}
		return -n, nil
	}
	panic(&InternalError{Message: fmt.Sprintf("unknown unary operator %s", e.Op)})
}

// evalLogical short-circuits and always yields a Boolean.
func (ev *Evaluator) evalLogical(e *ast.BinaryExpr) (Value, error) {
	left, err := ev.eval(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.KW_OR && IsTruthy(left) {
		return Bool(true), nil
	}
	if e.Op == token.KW_AND && !IsTruthy(left) {
		return Bool(false), nil
	}
	right, err := ev.eval(e.Right)
	if err != nil {
		return nil, err
	}
	return Bool(IsTruthy(right)), nil
}

func (ev *Evaluator) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := ev.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(e.Right)
	if err != nil {
		return nil, err
	}
	return binaryOp(e.Op, left, right, e.Span)
}

// binaryOp resolves an operator by the runtime types of both operands.
func binaryOp(op token.Kind, left, right Value, at span.Span) (Value, error) {
	switch l := left.(type) {
	case Number:
		switch r := right.(type) {
		case Number:
			return numberOp(op, float64(l), float64(r), at)
		case String:
			switch op {
			case token.PLUS:
				return String(l.String()) + r, nil
			case token.STAR:
				return repeat(r, l, at)
			}
		}
	case String:
		switch r := right.(type) {
		case String:
			switch op {
			case token.PLUS:
				return l + r, nil
			case token.LT:
				return Bool(l < r), nil
			case token.LTE:
				return Bool(l <= r), nil
			case token.GT:
				return Bool(l > r), nil
			case token.GTE:
				return Bool(l >= r), nil
			}
		case Number:
			switch op {
			case token.PLUS:
				return l + String(r.String()), nil
			case token.STAR:
				return repeat(l, r, at)
			}
		}
	case *List:
		if r, ok := right.(*List); ok && op == token.PLUS {
			elems := make([]Value, 0, len(l.Elements)+len(r.Elements))
			elems = append(elems, l.Elements...)
			elems = append(elems, r.Elements...)
			return NewList(elems...), nil
		}
	}
	return nil, runtimeErr(at, "unsupported operand types for '%s': %s and %s", op, left.TypeName(), right.TypeName())
}

func numberOp(op token.Kind, l, r float64, at span.Span) (Value, error) {
	switch op {
	case token.PLUS:
		return Number(l + r), nil
	case token.MINUS:
		return Number(l - r), nil
	case token.STAR:
		return Number(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(at, "division by zero")
		}
		return Number(l / r), nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(at, "modulo by zero")
		}
		return Number(math.Mod(l, r)), nil
	case token.LT:
		return Bool(l < r), nil
	case token.LTE:
		return Bool(l <= r), nil
	case token.GT:
		return Bool(l > r), nil
	case token.GTE:
		return Bool(l >= r), nil
	}
	return nil, runtimeErr(at, "unsupported operand types for '%s': Number and Number", op)
}

// maxStringLen bounds strings built by repetition.
const maxStringLen = 1 << 28

func repeat(s String, count Number, at span.Span) (Value, error) {
	n, ok := AsInt(count)
	if !ok || n < 0 {
		return nil, runtimeErr(at, "string repeat count must be a non-negative integer, got %s", count)
	}
	if n > 0 && len(s) > maxStringLen/n {
		return nil, runtimeErr(at, "string repeat result too large (%d x %d bytes)", n, len(s))
	}
	return String(strings.Repeat(string(s), n)), nil
}

// evalAssign evaluates the right-hand side first, then stores it.
func (ev *Evaluator) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := ev.eval(e.Value)
	if err != nil {
		return nil, err
	}

	switch target := e.Target.(type) {
	case *ast.Ident:
		ev.assign(target.Name, val)

	case *ast.IndexExpr:
		obj, err := ev.eval(target.Object)
		if err != nil {
			return nil, err
		}
		idx, err := ev.eval(target.Index)
		if err != nil {
			return nil, err
		}
		switch o := obj.(type) {
		case *List:
			i, err := listIndex(o, idx, target.Index.GetSpan())
			if err != nil {
				return nil, err
			}
			o.Elements[i] = val
		case *Map:
			key, ok := idx.(String)
			if !ok {
				return nil, runtimeErr(target.Index.GetSpan(), "map keys must be String, got %s", idx.TypeName())
			}
			o.Set(string(key), val)
		default:
			return nil, runtimeErr(target.Object.GetSpan(), "cannot assign to an index of %s", obj.TypeName())
		}

	case *ast.MemberExpr:
		obj, err := ev.eval(target.Object)
		if err != nil {
			return nil, err
		}
		m, ok := obj.(*Map)
		if !ok {
			return nil, runtimeErr(target.Span, "cannot assign member '%s' on %s", target.Property, obj.TypeName())
		}
		m.Set(target.Property, val)

	default:
		return nil, runtimeErr(e.Target.GetSpan(), "invalid assignment target")
	}
	return val, nil
}

// listIndex checks that idx is an integral, in-bounds index into l.
func listIndex(l *List, idx Value, at span.Span) (int, error) {
	i, ok := AsInt(idx)
	if !ok {
		return 0, runtimeErr(at, "list index must be an integer Number, got %s", inspect(idx, map[interface{}]bool{}))
	}
	if i < 0 || i >= len(l.Elements) {
		return 0, runtimeErr(at, "list index %d out of range (length %d)", i, len(l.Elements))
	}
	return i, nil
}

func (ev *Evaluator) evalIndex(e *ast.IndexExpr) (Value, error) {
	obj, err := ev.eval(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := ev.eval(e.Index)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *List:
		i, err := listIndex(o, idx, e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return o.Elements[i], nil
	case *Map:
		key, ok := idx.(String)
		if !ok {
			return nil, runtimeErr(e.Index.GetSpan(), "map keys must be String, got %s", idx.TypeName())
		}
		v, ok := o.Get(string(key))
		if !ok {
			return nil, runtimeErr(e.Index.GetSpan(), "key %q not found in map", string(key))
		}
		return v, nil
	case String:
		i, ok := AsInt(idx)
		if !ok {
			return nil, runtimeErr(e.Index.GetSpan(), "string index must be an integer Number, got %s", idx.TypeName())
		}
		if i < 0 || i >= len(o) {
			return nil, runtimeErr(e.Index.GetSpan(), "string index %d out of range (length %d)", i, len(o))
		}
		return o[i : i+1], nil
	}
	return nil, runtimeErr(e.Object.GetSpan(), "cannot index a value of type %s", obj.TypeName())
}

// evalMember reads a map entry, or the length pseudo-property of lists,
// maps and strings. A real map key named length wins.
func (ev *Evaluator) evalMember(e *ast.MemberExpr) (Value, error) {
	obj, err := ev.eval(e.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *Map:
		if v, ok := o.Get(e.Property); ok {
			return v, nil
		}
		if e.Property == "length" {
			return Number(o.Len()), nil
		}
		return nil, runtimeErr(e.Span, "map has no member '%s'", e.Property)
	case *List:
		if e.Property == "length" {
			return Number(len(o.Elements)), nil
		}
	case String:
		if e.Property == "length" {
			return Number(len(o)), nil
		}
	}
	return nil, runtimeErr(e.Span, "%s has no member '%s'", obj.TypeName(), e.Property)
}

// evalFuncDef creates a closure over the current scope chain. A named
// definition is also bound in the current scope.
func (ev *Evaluator) evalFuncDef(e *ast.FuncDef) (Value, error) {
	fn := &Function{Name: e.Name, Def: e}
	if e.Name != "" {
		if prev, ok := ev.current().Get(e.Name); ok {
			// Re-running the same definition (a loop body) rebinds it.
			if pf, isFn := prev.(*Function); !isFn || pf.Def != e {
				return nil, runtimeErr(e.Span, "'%s' is already defined in this scope", e.Name)
			}
		}
		ev.define(e.Name, fn)
	}
	fn.Env = ev.captureScopes()
	return fn, nil
}

// ============================================================
// Calls
// ============================================================

func (ev *Evaluator) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := ev.eval(e.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, runtimeErr(e.Callee.GetSpan(), "cannot call a value of type %s", callee.TypeName())
	}

	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := ev.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return ev.Call(fn, args, e)
}

// Call invokes fn with already evaluated arguments. site is used for error
// locations and may be nil.
func (ev *Evaluator) Call(fn *Function, args []Value, site *ast.CallExpr) (Value, error) {
	if fn.Builtin {
		native, ok := ev.natives[fn.Name]
		if !ok {
			panic(&InternalError{Message: fmt.Sprintf("builtin '%s' is not registered", fn.Name)})
		}
		return native(ev, args, site)
	}
	return ev.callUser(fn, args, site)
}

func (ev *Evaluator) callUser(fn *Function, args []Value, site *ast.CallExpr) (Value, error) {
	def := fn.Def
	at := def.Span
	if site != nil {
		at = site.Span
	}

	if err := checkArity(fn, len(args), at); err != nil {
		return nil, err
	}
	for _, p := range def.Params {
		if err := checkAnnotation(fn, p); err != nil {
			return nil, err
		}
	}
	for i, p := range def.Params {
		if p.Variadic {
			for _, a := range args[i:] {
				if err := checkType(fn, p, a, at); err != nil {
					return nil, err
				}
			}
			break
		}
		if err := checkType(fn, p, args[i], at); err != nil {
			return nil, err
		}
	}

	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > ev.maxDepth {
		return nil, runtimeErr(at, "maximum call depth of %d exceeded", ev.maxDepth)
	}

	saved := ev.scopes
	ev.scopes = append(fn.Env[:len(fn.Env):len(fn.Env)], NewScope())
	defer func() { ev.scopes = saved }()

	for i, p := range def.Params {
		if p.Variadic {
			ev.define(p.Name, NewList(append([]Value(nil), args[i:]...)...))
			break
		}
		ev.define(p.Name, args[i])
	}

	result, err := ev.execBlock(def.Body)
	if err != nil {
		return nil, err
	}
	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak, SigContinue:
		return nil, strayErr(result)
	}
	return Neutral, nil
}

func checkArity(fn *Function, got int, at span.Span) error {
	params := fn.Def.Params
	if fn.Def.IsVariadic() {
		if want := len(params) - 1; got < want {
			return runtimeErr(at, "function '%s' expects at least %d arguments but got %d", fn.displayName(), want, got)
		}
		return nil
	}
	if got != len(params) {
		return runtimeErr(at, "function '%s' expects %d arguments but got %d", fn.displayName(), len(params), got)
	}
	return nil
}

// checkAnnotation rejects type names the language does not know, whether
// or not an argument reaches the parameter.
func checkAnnotation(fn *Function, p ast.Param) error {
	switch p.Type {
	case "", TypeAny, TypeNumber, TypeString, TypeBoolean, TypeList, TypeMap, TypeFunction:
		return nil
	}
	return runtimeErr(p.Span, "unknown type '%s' for parameter '%s' in function '%s'", p.Type, p.Name, fn.displayName())
}

func checkType(fn *Function, p ast.Param, v Value, at span.Span) error {
	if p.Type == "" || p.Type == TypeAny {
		return nil
	}
	if v.TypeName() != p.Type {
		return runtimeErr(at, "type mismatch for parameter '%s' in function '%s': expected %s but got %s",
			p.Name, fn.displayName(), p.Type, v.TypeName())
	}
	return nil
}
