package ast

import "github.com/mna/comptimec/lang/symbols"

func (*AssignStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*BlockStmt) stmtNode()    {}
func (*PrintStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}

type (
	// AssignStmt is `lhs := rhs` (spec.md §4.2). Lhs must be an IdentExpr,
	// DotExpr, or IndexExpr — anything lowerable in store mode.
	AssignStmt struct {
		base
		Lhs, Rhs Expr
	}

	// Local is a single local variable declared inside a Block. lang/compiler
	// sets Sym.Offset to the bp-relative slot lang/frame allocates for it
	// (spec.md §3 "Variable-slot environment").
	Local struct {
		Name string
		Sym  *symbols.Sym
	}

	// IfStmt is `if cond then thenBlock [else elseBlock]` (spec.md §4.2).
	// Else is nil when there is no else branch.
	IfStmt struct {
		base
		Cond Expr
		Then *BlockStmt
		Else *BlockStmt
	}

	// WhileStmt is `while cond do body` (spec.md §4.2).
	WhileStmt struct {
		base
		Cond Expr
		Body *BlockStmt
	}

	// BlockStmt introduces a new lexical scope. Locals lists the variables
	// declared directly in this block (not in nested blocks); lang/compiler
	// emits PUSHN/POPN only when len(Locals) > 0 (spec.md §8 "Block with
	// zero locals emits neither PUSHN nor POPN").
	BlockStmt struct {
		base
		Locals []*Local
		Stmts  []Stmt
	}

	// PrintStmt is `print e1, e2, ...` (spec.md §4.1 PRINT opcode).
	PrintStmt struct {
		base
		Args []Expr
	}

	// ReturnStmt is `return [expr]`. Value is nil for a function with no
	// return type.
	ReturnStmt struct {
		base
		Value Expr
	}

	// BreakStmt is `break`; binds to the innermost enclosing loop (spec.md
	// §4.2, §8 "Nested loops: break/continue bind to the innermost").
	BreakStmt struct {
		base
	}

	// ContinueStmt is `continue`; binds to the innermost enclosing loop.
	ContinueStmt struct {
		base
	}
)

func (n *AssignStmt) Walk(v Visitor) {
	Walk(v, n.Rhs)
	Walk(v, n.Lhs)
}

func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

func (n *BlockStmt) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

func (n *PrintStmt) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

func (n *BreakStmt) Walk(_ Visitor)    {}
func (n *ContinueStmt) Walk(_ Visitor) {}
