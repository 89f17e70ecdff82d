// Package ast defines the tagged AST node types the core consumes (spec.md
// §3): a typechecked, symbol-resolved tree of Expression, Statement and
// Declaration nodes. The lexer, parser, resolver and typechecker that
// produce a tree in this shape are external collaborators (spec.md §1) —
// this package only defines the shape itself, the way the teacher's
// lang/ast package defines nodes that lang/parser and lang/resolver fill
// in.
//
// Unlike the teacher's ast package (a quasi-lossless tree capable of
// reproducing the original source text, with fmt.Formatter-based pretty
// printing and a separate Comment side-table), this tree carries only what
// lowering needs: a tag, a source line, and — for expressions — a resolved
// type.
package ast

import "github.com/mna/comptimec/lang/types"

// Node is implemented by every AST node.
type Node interface {
	// Line returns the 1-based source line the node originated from, or -1
	// for a node synthesized by the compile-time driver (spec.md §3).
	Line() int32

	// Walk enters each child node, to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr is implemented by every expression node: literal, unary, binary, or
// call (spec.md §3), where "literal" is read broadly to include the
// leaf/access forms spec.md §4.2 lowers individually — integer literals,
// identifiers, struct field access, and array indexing — all of which
// produce a single word without themselves containing an operator.
type Expr interface {
	Node
	exprNode()

	// Typ returns the expression's resolved type, attached by the external
	// typechecker (spec.md §6).
	Typ() types.Type
}

// Stmt is implemented by every statement node: assignment, if, while,
// block, print, return, break, or continue (spec.md §3).
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by every top-level declaration: function, struct,
// enum, or typed-ident list (spec.md §3).
type Decl interface {
	Node
	declNode()
}

type base struct {
	line int32
}

func (b base) Line() int32 { return b.line }
