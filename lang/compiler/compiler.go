// Package compiler lowers a typechecked, symbol-resolved AST to bytecode
// (spec.md §4.2, §4.3). It is the heaviest component of the pipeline: it
// resolves every identifier's bp-relative or absolute slot, emits
// expression and statement code in a single pass, and drains the
// forward-call patch table once every function has an entry point.
//
// Much of the two-pass shape (collect function entry points while emitting,
// then patch) is adapted from the teacher's lang/compiler/compiler.go
// pcomp/fcomp split — that package linearizes a CFG of basic blocks built
// by a resolver-driven tree walk; this one has no basic blocks to
// linearize (the instruction set has no indirect jump target other than
// CALL), so lowering writes directly to the image as it walks the AST, but
// the same per-program/per-function state split (pcomp ~ Compiler, fcomp ~
// fcomp) and the same "emit now, patch forward calls later" discipline
// carry over.
package compiler

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/comptimec/lang/ast"
	"github.com/mna/comptimec/lang/bytecode"
	"github.com/mna/comptimec/lang/frame"
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/types"
)

// patch is a pending forward function call: the code offset of the LI
// immediate that must be overwritten once callee's entry point is known
// (spec.md §3 "Forward-call patch table").
type patch struct {
	pos    int
	callee string
}

// Compiler holds the state of one lowering pass: the image being built,
// the table of function name to entry offset, and the list of forward
// calls awaiting a patch. A Compiler is single-use; call New for each of
// LowerProgram / LowerCallSite.
type Compiler struct {
	img         *bytecode.Image
	funcOffsets *swiss.Map[string, int]
	patches     []patch

	// noGlobals forbids lowering a GlobalVar reference: set by
	// LowerCallSite, since the compile-time driver runs before
	// lower_program has assigned any global its address (spec.md §4.5).
	noGlobals bool
}

// New returns a Compiler ready to lower one program or one call site.
func New() *Compiler {
	return &Compiler{
		img:         bytecode.NewImage(),
		funcOffsets: swiss.NewMap[string, int](8),
	}
}

// LowerProgram implements spec.md §4.2's lower_program: it emits a PUSHN
// reserving every global variable's slot, the main function ending in
// EXIT, then every other function in prog.Funcs ending in RET, and finally
// drains the forward-call patch table.
func LowerProgram(prog *ast.Program) (*bytecode.Image, error) {
	c := New()

	globalWords := c.assignGlobals(prog.Globals)
	c.img.EmitQuarter(bytecode.PUSHN, mustQuarter(globalWords), -1)

	main := prog.Main()
	if main == nil {
		return nil, fmt.Errorf("compiler: program has no main function")
	}
	if err := c.emitFunction(main, true); err != nil {
		return nil, err
	}
	for _, fn := range prog.Funcs {
		if fn == main {
			continue
		}
		if err := c.emitFunction(fn, false); err != nil {
			return nil, err
		}
	}

	if err := c.drainPatches(); err != nil {
		return nil, err
	}
	return c.img, nil
}

// LowerCallSite implements spec.md §4.2's lower_call_site: it emits code
// that computes call's value (terminated by EXIT), plus every function
// transitively reachable from the call so that CALL targets exist. Used
// by the compile-time driver (spec.md §4.5) to synthesize a throwaway
// image for a single `@`-call.
//
// Compile-time call sites never reference global variables: globals do
// not yet have assigned addresses at the point the driver runs
// (lower_program has not executed), so a GlobalVar symbol reached from
// call is reported as an error rather than silently miscompiled.
func LowerCallSite(prog *ast.Program, call *ast.CallExpr) (*bytecode.Image, error) {
	c := New()
	c.noGlobals = true

	byName := make(map[string]*ast.FuncDecl, len(prog.Funcs))
	for _, fn := range prog.Funcs {
		byName[fn.Name] = fn
	}

	reachable := reachableFuncs(call, byName)

	fc := &fcomp{c: c, layout: frame.NewLayout(&symbols.FuncSig{})}
	if err := fc.lowerExpr(call); err != nil {
		return nil, err
	}
	c.img.Emit(bytecode.EXIT, call.Line())

	for _, fn := range reachable {
		if err := c.emitFunction(fn, false); err != nil {
			return nil, err
		}
	}

	if err := c.drainPatches(); err != nil {
		return nil, err
	}
	return c.img, nil
}

// reachableFuncs walks outward from call (its callee and any calls in its
// arguments), collecting every function transitively called from it, in
// discovery order.
func reachableFuncs(call *ast.CallExpr, byName map[string]*ast.FuncDecl) []*ast.FuncDecl {
	var order []*ast.FuncDecl
	seen := make(map[string]bool)

	var visit func(name string)
	var find ast.VisitorFunc
	find = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if ce, ok := n.(*ast.CallExpr); ok && !ce.IsResolved {
			visit(ce.Callee.Name)
		}
		return find
	}
	visit = func(name string) {
		if seen[name] {
			return
		}
		fn, ok := byName[name]
		if !ok {
			return
		}
		seen[name] = true
		order = append(order, fn)
		ast.Walk(find, fn.Body)
	}
	ast.Walk(find, call)

	return order
}

// assignGlobals assigns each global an absolute, word-aligned byte offset
// (spec.md §4.2 "words = total global bytes/8, rounded up, each array
// element word-aligned") and returns the total word count to reserve.
func (c *Compiler) assignGlobals(globals []*ast.GlobalDecl) int {
	offset := 0
	for _, g := range globals {
		g.Sym.Offset = offset
		offset += types.WordAlign(g.Sym.Type.ByteSize())
	}
	return offset / types.WordSize
}

// emitFunction registers fn's entry point (the offset of its FUNCPRO
// instruction), assigns bp-relative slots to its parameters, and lowers
// its body (spec.md §4.3 "Callee").
func (c *Compiler) emitFunction(fn *ast.FuncDecl, isMain bool) error {
	c.funcOffsets.Put(fn.Name, c.img.Offset())

	layout := frame.NewLayout(fn.Sym.Func)
	for i, p := range fn.Params {
		p.Sym.Offset = int(layout.Params[i].Offset)
	}

	c.img.Emit(bytecode.FUNCPRO, fn.Line())

	fc := &fcomp{c: c, layout: layout, isMain: isMain}
	if err := fc.lowerBlock(fn.Body); err != nil {
		return fmt.Errorf("compiler: function %s: %w", fn.Name, err)
	}

	if isMain {
		c.img.Emit(bytecode.EXIT, fn.Line())
	} else {
		c.img.Emit(bytecode.RET, fn.Line())
	}
	return nil
}

// drainPatches overwrites every recorded forward-call placeholder with the
// callee's now-known entry offset (spec.md §4.3). A name left unresolved
// at this point is an internal compiler bug, not a user-facing error.
func (c *Compiler) drainPatches() error {
	for _, p := range c.patches {
		offset, ok := c.funcOffsets.Get(p.callee)
		if !ok {
			return fmt.Errorf("compiler: unresolved forward call to %q", p.callee)
		}
		c.img.PatchWord(p.pos, bytecode.Word(offset))
	}
	return nil
}

// mustQuarter narrows a non-negative word count to a Quarter, panicking if
// it overflows — a program with more than 32767 words of globals or
// locals in one scope is a bytecode-limit-exceeded compiler bug (spec.md
// §7), not a recoverable error.
func mustQuarter(n int) bytecode.Quarter {
	if n < 0 || n > 0x7fff {
		panic(fmt.Sprintf("compiler: word count %d does not fit in a quarter", n))
	}
	return bytecode.Quarter(n)
}
