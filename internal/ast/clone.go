package ast

// Clone returns a deep copy of node. The copy shares nothing with the
// original, so either tree can be modified independently.
func Clone(node Node) Node {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *Program:
		c := *n
		c.Body = cloneStmts(n.Body)
		return &c
	case *Ident:
		c := *n
		return &c
	case *NumberLit:
		c := *n
		return &c
	case *StringLit:
		c := *n
		return &c
	case *BoolLit:
		c := *n
		return &c
	case *ImportExpr:
		c := *n
		return &c
	case *ListLit:
		c := *n
		c.Elements = cloneExprs(n.Elements)
		return &c
	case *MapLit:
		c := *n
		c.Entries = nil
		for _, e := range n.Entries {
			c.Entries = append(c.Entries, MapEntry{Key: CloneExpr(e.Key), Value: CloneExpr(e.Value)})
		}
		return &c
	case *UnaryExpr:
		c := *n
		c.Operand = CloneExpr(n.Operand)
		return &c
	case *BinaryExpr:
		c := *n
		c.Left, c.Right = CloneExpr(n.Left), CloneExpr(n.Right)
		return &c
	case *EqualsExpr:
		c := *n
		c.Left, c.Right = CloneExpr(n.Left), CloneExpr(n.Right)
		return &c
	case *AssignExpr:
		c := *n
		c.Target, c.Value = CloneExpr(n.Target), CloneExpr(n.Value)
		return &c
	case *CallExpr:
		c := *n
		c.Callee = CloneExpr(n.Callee)
		c.Args = cloneExprs(n.Args)
		return &c
	case *IndexExpr:
		c := *n
		c.Object, c.Index = CloneExpr(n.Object), CloneExpr(n.Index)
		return &c
	case *MemberExpr:
		c := *n
		c.Object = CloneExpr(n.Object)
		return &c
	case *FuncDef:
		c := *n
		c.Params = append([]Param(nil), n.Params...)
		c.Body = cloneBlock(n.Body)
		return &c
	case *ExprStmt:
		c := *n
		c.Expr = CloneExpr(n.Expr)
		return &c
	case *Block:
		return cloneBlock(n)
	case *IfStmt:
		c := *n
		c.Condition = CloneExpr(n.Condition)
		c.Then, c.Else = cloneBlock(n.Then), cloneBlock(n.Else)
		return &c
	case *NumericForStmt:
		c := *n
		c.Start, c.End, c.Step = CloneExpr(n.Start), CloneExpr(n.End), CloneExpr(n.Step)
		c.Body = cloneBlock(n.Body)
		return &c
	case *CollectionForStmt:
		c := *n
		c.Iterable = CloneExpr(n.Iterable)
		c.Body = cloneBlock(n.Body)
		return &c
	case *WhileStmt:
		c := *n
		c.Condition = CloneExpr(n.Condition)
		c.Body = cloneBlock(n.Body)
		return &c
	case *ReturnStmt:
		c := *n
		c.Value = CloneExpr(n.Value)
		return &c
	case *BreakStmt:
		c := *n
		return &c
	case *ContinueStmt:
		c := *n
		return &c
	}
	panic("ast.Clone: unhandled node type")
}

// CloneExpr is Clone for expressions; a nil expression stays nil.
func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return Clone(e).(Expr)
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	c := *b
	c.Stmts = cloneStmts(b.Stmts)
	return &c
}

func cloneStmts(stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}
	out := make([]Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = Clone(s).(Stmt)
	}
	return out
}

func cloneExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = CloneExpr(e)
	}
	return out
}
