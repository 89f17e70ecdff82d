package ast

import (
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/types"
)

func (*FuncDecl) declNode()   {}
func (*StructDecl) declNode() {}
func (*EnumDecl) declNode()   {}
func (*GlobalDecl) declNode() {}

type (
	// Param is one entry of a function's typed-ident parameter list (spec.md
	// §3 Declarations: "typed-ident list").
	Param struct {
		Name string
		Sym  *symbols.Sym
	}

	// FuncDecl is a function declaration (spec.md §3 Declarations:
	// "function"). Sym.Func carries the resolved signature lang/compiler and
	// lang/frame need (spec.md §6).
	FuncDecl struct {
		base
		Name   string
		Params []*Param
		Sym    *symbols.Sym // Kind == symbols.Function
		Body   *BlockStmt
	}

	// StructDecl is a struct declaration (spec.md §3 Declarations: "struct").
	StructDecl struct {
		base
		Name string
		Type types.StructType
	}

	// EnumDecl is an enum declaration (spec.md §3 Declarations: "enum").
	EnumDecl struct {
		base
		Name string
		Type types.EnumType
	}

	// GlobalDecl is a global variable declaration: a typed-ident list at
	// module scope (spec.md §3 Declarations: "typed-ident list"; §4.2
	// lower_program "Emits a PUSHN reserving slots for every global
	// variable").
	GlobalDecl struct {
		base
		Name string
		Sym  *symbols.Sym // Kind == symbols.GlobalVar; Offset is the absolute byte offset lang/compiler assigns
	}

	// Program is the root of the typechecked AST lang/compiler consumes: all
	// top-level declarations of a single compilation (spec.md §4.2
	// lower_program's (symbols, ast) input, flattened into one tree).
	Program struct {
		base
		Structs []*StructDecl
		Enums   []*EnumDecl
		Globals []*GlobalDecl
		Funcs   []*FuncDecl // includes main; comptime-only helper funcs may also appear
	}
)

func (n *FuncDecl) Walk(v Visitor)   { Walk(v, n.Body) }
func (n *StructDecl) Walk(_ Visitor) {}
func (n *EnumDecl) Walk(_ Visitor)   {}
func (n *GlobalDecl) Walk(_ Visitor) {}

func (n *Program) Walk(v Visitor) {
	for _, s := range n.Structs {
		Walk(v, s)
	}
	for _, e := range n.Enums {
		Walk(v, e)
	}
	for _, g := range n.Globals {
		Walk(v, g)
	}
	for _, f := range n.Funcs {
		Walk(v, f)
	}
}

// Main returns the function declaration named "main", or nil if absent.
func (n *Program) Main() *FuncDecl {
	for _, f := range n.Funcs {
		if f.Name == "main" {
			return f
		}
	}
	return nil
}
