package ast

import (
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/token"
	"github.com/mna/comptimec/lang/types"
)

func (*IntLit) exprNode()     {}
func (*IdentExpr) exprNode()  {}
func (*DotExpr) exprNode()    {}
func (*IndexExpr) exprNode()  {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}

type (
	// IntLit is an integer literal, the base case of spec.md §4.2's
	// "Integer literal: LI value".
	IntLit struct {
		base
		Value int64
		Type  types.Type
	}

	// IdentExpr is a reference to a local variable, parameter, or global
	// variable. Sym is resolved by the external symbol table (spec.md §6):
	// its Kind tells lang/compiler whether to emit LDBP or LDA.
	IdentExpr struct {
		base
		Name string
		Sym  *symbols.Sym
	}

	// DotExpr is a struct field access `s.f` (spec.md §4.2). Member carries
	// the field's resolved offset (in bits, OffsetBits) and type.
	DotExpr struct {
		base
		X      Expr
		Name   string
		Member types.Member
	}

	// IndexExpr is an array index `a[i]` (spec.md §4.2).
	IndexExpr struct {
		base
		X     Expr
		Index Expr
		Elem  types.Type
	}

	// UnaryExpr is a unary operator application. Only MINUS (arithmetic
	// negation, lowered as `<operand>; LI 0; SUB` so that SUB computes
	// 0 - operand) and the logical NOT opcode are used by this spec's
	// surface language.
	UnaryExpr struct {
		base
		Op   token.Token
		X    Expr
		Type types.Type
	}

	// BinaryExpr is a binary operator application: arithmetic (+ - * / << >>)
	// or comparison (> < = !=). Spec.md §4.2/§9: the right operand is always
	// lowered before the left, so that e.g. SUB computes left-right after
	// popping right then left.
	BinaryExpr struct {
		base
		Op          token.Token
		Left, Right Expr
		Type        types.Type
	}

	// CallExpr is a function call, optionally marked as a compile-time call
	// site with an `@` prefix (spec.md §3's `is_comptime` flag). Once the
	// compile-time driver (spec.md §4.5) evaluates a comptime call, it sets
	// IsResolved and ResolvedNode; lang/compiler must lower ResolvedNode
	// instead of re-emitting the call (spec.md §8 "Idempotent resolution").
	CallExpr struct {
		base
		Callee       *symbols.Sym // Kind == symbols.Function
		Args         []Expr
		Type         types.Type
		IsComptime   bool
		IsResolved   bool
		ResolvedNode Expr
	}
)

// NewResolvedIntLit builds the literal node spec.md §4.5 describes the
// compile-time driver constructing from a VM's returned word: "a numeric
// integer literal whose lexeme is the decimal rendering of the word". The
// line is -1 (synthesized node, spec.md §3) since it has no source
// position of its own.
func NewResolvedIntLit(value int64, typ types.Type) *IntLit {
	return &IntLit{base: base{line: -1}, Value: value, Type: typ}
}

func (n *IntLit) Typ() types.Type     { return n.Type }
func (n *IdentExpr) Typ() types.Type  { return n.Sym.Type }
func (n *DotExpr) Typ() types.Type    { return n.Member.Type }
func (n *IndexExpr) Typ() types.Type  { return n.Elem }
func (n *UnaryExpr) Typ() types.Type  { return n.Type }
func (n *BinaryExpr) Typ() types.Type { return n.Type }
func (n *CallExpr) Typ() types.Type   { return n.Type }

func (n *IntLit) Walk(_ Visitor) {}
func (n *IdentExpr) Walk(_ Visitor) {}

func (n *DotExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Index)
}

func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *CallExpr) Walk(v Visitor) {
	if n.IsResolved {
		Walk(v, n.ResolvedNode)
		return
	}
	for _, a := range n.Args {
		Walk(v, a)
	}
}
