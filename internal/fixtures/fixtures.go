// Package fixtures builds in-memory, already-resolved *ast.Program values
// for each of spec.md §8's six concrete end-to-end scenarios. The lexer,
// parser, resolver and typechecker that would normally produce a tree in
// this shape are external collaborators outside this module's scope
// (spec.md §1); internal/maincmd uses these fixtures as its only source of
// programs, the way a unit test builds its AST by hand rather than parsing
// source text.
package fixtures

import (
	"fmt"
	"sort"

	"github.com/mna/comptimec/lang/ast"
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/token"
	"github.com/mna/comptimec/lang/types"
)

// Names lists every registered fixture name, sorted, for use in CLI usage
// text and error messages.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named fixture's program. Each call returns a fresh tree:
// the compile-time driver and lang/compiler both mutate the AST they're
// given (resolving calls, assigning offsets), so a fixture used by one
// command must not be shared with another.
func Get(name string) (*ast.Program, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("fixtures: unknown program %q (have: %v)", name, Names())
	}
	return build(), nil
}

var registry = map[string]func() *ast.Program{
	"arith":   arithPrecedence,
	"loop":    whileCountdown,
	"fib":     recursiveFib,
	"comptime-fib": comptimeFib,
	"struct":  structFields,
	"array":   arrayAccess,
}

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v, Type: types.S32} }

func mainFunc(body *ast.BlockStmt) *ast.FuncDecl {
	sym := &symbols.Sym{Name: "main", Kind: symbols.Function, Func: &symbols.FuncSig{Name: "main", ReturnType: types.S32}}
	return &ast.FuncDecl{Name: "main", Sym: sym, Body: body}
}

// arithPrecedence is spec.md §8 scenario 1:
//
//	func main(): s32 begin print 1 + 2 * 3 return 0 end
//
// stdout: "7"
func arithPrecedence() *ast.Program {
	expr := &ast.BinaryExpr{
		Op:   token.PLUS,
		Left: intLit(1),
		Right: &ast.BinaryExpr{
			Op: token.STAR, Left: intLit(2), Right: intLit(3), Type: types.S32,
		},
		Type: types.S32,
	}
	body := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.PrintStmt{Args: []ast.Expr{expr}},
		&ast.ReturnStmt{Value: intLit(0)},
	}}
	return &ast.Program{Funcs: []*ast.FuncDecl{mainFunc(body)}}
}

// whileCountdown is spec.md §8 scenario 2:
//
//	func main(): s32 begin
//	  var i: s32
//	  i := 0
//	  while i < 3 do begin print i i := i + 1 end
//	  return 0
//	end
//
// stdout: "0\n1\n2"
func whileCountdown() *ast.Program {
	iSym := &symbols.Sym{Name: "i", Kind: symbols.LocalVar, Type: types.S32}
	iRef := func() *ast.IdentExpr { return &ast.IdentExpr{Name: "i", Sym: iSym} }

	loopBody := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.PrintStmt{Args: []ast.Expr{iRef()}},
		&ast.AssignStmt{
			Lhs: iRef(),
			Rhs: &ast.BinaryExpr{Op: token.PLUS, Left: iRef(), Right: intLit(1), Type: types.S32},
		},
	}}

	outer := &ast.BlockStmt{
		Locals: []*ast.Local{{Name: "i", Sym: iSym}},
		Stmts: []ast.Stmt{
			&ast.AssignStmt{Lhs: iRef(), Rhs: intLit(0)},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: token.LT, Left: iRef(), Right: intLit(3), Type: types.S32},
				Body: loopBody,
			},
			&ast.ReturnStmt{Value: intLit(0)},
		},
	}
	return &ast.Program{Funcs: []*ast.FuncDecl{mainFunc(outer)}}
}

// fibDecl builds the shared `fib(n)` function used by both the recursive
// and comptime scenarios: zeroBranch is what the `n = 0` branch returns,
// either a plain literal or a comptime call to zero().
func fibDecl(fibSym *symbols.Sym, nParam *symbols.Sym, zeroBranch ast.Expr) *ast.FuncDecl {
	nRef := func() *ast.IdentExpr { return &ast.IdentExpr{Name: "n", Sym: nParam} }
	body := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.IfStmt{
			Cond: &ast.BinaryExpr{Op: token.EQ, Left: nRef(), Right: intLit(0), Type: types.S32},
			Then: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: zeroBranch}}},
		},
		&ast.IfStmt{
			Cond: &ast.BinaryExpr{Op: token.EQ, Left: nRef(), Right: intLit(1), Type: types.S32},
			Then: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(1)}}},
		},
		&ast.ReturnStmt{
			Value: &ast.BinaryExpr{
				Op: token.PLUS,
				Left: &ast.CallExpr{Callee: fibSym, Type: types.S32, Args: []ast.Expr{
					&ast.BinaryExpr{Op: token.MINUS, Left: nRef(), Right: intLit(1), Type: types.S32},
				}},
				Right: &ast.CallExpr{Callee: fibSym, Type: types.S32, Args: []ast.Expr{
					&ast.BinaryExpr{Op: token.MINUS, Left: nRef(), Right: intLit(2), Type: types.S32},
				}},
				Type: types.S32,
			},
		},
	}}
	return &ast.FuncDecl{
		Name: "fib", Sym: fibSym, Params: []*ast.Param{{Name: "n", Sym: nParam}}, Body: body,
	}
}

func fibSignature() (*symbols.Sym, *symbols.Sym) {
	nParam := &symbols.Sym{Name: "n", Kind: symbols.Parameter, Type: types.S32}
	sig := &symbols.FuncSig{Name: "fib", Params: []*symbols.Sym{nParam}, ReturnType: types.S32}
	return &symbols.Sym{Name: "fib", Kind: symbols.Function, Func: sig}, nParam
}

// recursiveFib is spec.md §8 scenario 3:
//
//	func fib(n: s32): s32 begin
//	  if n = 0 then return 0
//	  if n = 1 then return 1
//	  return fib(n-1) + fib(n-2)
//	end
//	func main(): s32 begin print fib(10) return 0 end
//
// stdout: "55"
func recursiveFib() *ast.Program {
	fibSym, nParam := fibSignature()
	fibFn := fibDecl(fibSym, nParam, intLit(0))

	call := &ast.CallExpr{Callee: fibSym, Type: types.S32, Args: []ast.Expr{intLit(10)}}
	mainBody := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.PrintStmt{Args: []ast.Expr{call}},
		&ast.ReturnStmt{Value: intLit(0)},
	}}
	return &ast.Program{Funcs: []*ast.FuncDecl{mainFunc(mainBody), fibFn}}
}

// comptimeFib is spec.md §8 scenario 4: both `@eval` sites must be
// resolved by lang/comptime's driver before lang/compiler ever lowers
// main.
//
//	func zero(): s32 begin return 0 end
//	func fib(n: s32): s32 begin
//	  if n = 0 then return @eval(zero())
//	  if n = 1 then return 1
//	  return fib(n-1) + fib(n-2)
//	end
//	func main(): s32 begin print @eval(fib(10)) return 0 end
//
// stdout: "55"
func comptimeFib() *ast.Program {
	zeroSig := &symbols.FuncSig{Name: "zero", ReturnType: types.S32}
	zeroSym := &symbols.Sym{Name: "zero", Kind: symbols.Function, Func: zeroSig}
	zeroFn := &ast.FuncDecl{Name: "zero", Sym: zeroSym, Body: &ast.BlockStmt{
		Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(0)}},
	}}

	fibSym, nParam := fibSignature()
	zeroCall := &ast.CallExpr{Callee: zeroSym, Type: types.S32, IsComptime: true}
	fibFn := fibDecl(fibSym, nParam, zeroCall)

	fibCall := &ast.CallExpr{Callee: fibSym, Type: types.S32, IsComptime: true, Args: []ast.Expr{intLit(10)}}
	mainBody := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.PrintStmt{Args: []ast.Expr{fibCall}},
		&ast.ReturnStmt{Value: intLit(0)},
	}}
	return &ast.Program{Funcs: []*ast.FuncDecl{mainFunc(mainBody), fibFn, zeroFn}}
}

// structFields is spec.md §8 scenario 5:
//
//	struct P := a: s32, b: s32
//	func main(): s32 begin
//	  var p: P
//	  p.a := 10
//	  p.b := 32
//	  print p.a + p.b
//	  return 0
//	end
//
// stdout: "42"
func structFields() *ast.Program {
	pType := types.NewStructType("P", []struct {
		Name string
		Type types.Type
	}{
		{Name: "a", Type: types.S32},
		{Name: "b", Type: types.S32},
	})
	structDecl := &ast.StructDecl{Name: "P", Type: pType}

	pSym := &symbols.Sym{Name: "p", Kind: symbols.LocalVar, Type: pType}
	pRef := func() *ast.IdentExpr { return &ast.IdentExpr{Name: "p", Sym: pSym} }
	aMember, _ := pType.Member("a")
	bMember, _ := pType.Member("b")
	dot := func(m types.Member, name string) *ast.DotExpr { return &ast.DotExpr{X: pRef(), Name: name, Member: m} }

	body := &ast.BlockStmt{
		Locals: []*ast.Local{{Name: "p", Sym: pSym}},
		Stmts: []ast.Stmt{
			&ast.AssignStmt{Lhs: dot(aMember, "a"), Rhs: intLit(10)},
			&ast.AssignStmt{Lhs: dot(bMember, "b"), Rhs: intLit(32)},
			&ast.PrintStmt{Args: []ast.Expr{
				&ast.BinaryExpr{Op: token.PLUS, Left: dot(aMember, "a"), Right: dot(bMember, "b"), Type: types.S32},
			}},
			&ast.ReturnStmt{Value: intLit(0)},
		},
	}
	return &ast.Program{Structs: []*ast.StructDecl{structDecl}, Funcs: []*ast.FuncDecl{mainFunc(body)}}
}

// arrayAccess is spec.md §8 scenario 6:
//
//	var xs: s32[3]
//	func main(): s32 begin
//	  xs[0] := 7
//	  xs[1] := 8
//	  xs[2] := 9
//	  print xs[0] + xs[1] + xs[2]
//	  return 0
//	end
//
// stdout: "24"
func arrayAccess() *ast.Program {
	arrType := types.ArrayType{Elem: types.S32, Elements: 3}
	xsSym := &symbols.Sym{Name: "xs", Kind: symbols.GlobalVar, Type: arrType}
	xsDecl := &ast.GlobalDecl{Name: "xs", Sym: xsSym}
	xsRef := func() *ast.IdentExpr { return &ast.IdentExpr{Name: "xs", Sym: xsSym} }
	index := func(i int64) *ast.IndexExpr {
		return &ast.IndexExpr{X: xsRef(), Index: intLit(i), Elem: types.S32}
	}

	body := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.AssignStmt{Lhs: index(0), Rhs: intLit(7)},
		&ast.AssignStmt{Lhs: index(1), Rhs: intLit(8)},
		&ast.AssignStmt{Lhs: index(2), Rhs: intLit(9)},
		&ast.PrintStmt{Args: []ast.Expr{
			&ast.BinaryExpr{
				Op:   token.PLUS,
				Left: &ast.BinaryExpr{Op: token.PLUS, Left: index(0), Right: index(1), Type: types.S32},
				Right: index(2),
				Type: types.S32,
			},
		}},
		&ast.ReturnStmt{Value: intLit(0)},
	}}
	return &ast.Program{Globals: []*ast.GlobalDecl{xsDecl}, Funcs: []*ast.FuncDecl{mainFunc(body)}}
}
