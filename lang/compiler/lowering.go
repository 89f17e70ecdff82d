package compiler

import (
	"fmt"

	"github.com/mna/comptimec/lang/ast"
	"github.com/mna/comptimec/lang/bytecode"
	"github.com/mna/comptimec/lang/frame"
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/token"
	"github.com/mna/comptimec/lang/types"
)

// loopCtx is the loop context spec.md §3 describes: the continue target
// and the list of pending break-jump patches, one per enclosing loop.
type loopCtx struct {
	continueTarget int
	breaks         []int // positions of each break's LI placeholder
}

// fcomp holds the per-function lowering state: the frame layout that
// assigns local slots, the loop-context stack for break/continue, and a
// single context flag that switches identifier/field/index lowering
// between load mode and store mode (spec.md §4.2 "The mode is a compiler
// flag on the lowering context; it is flipped only for the single lhs
// walk.").
//
// Grounded on the teacher's fcomp (lang/compiler/compiler.go): same
// per-function split from the program-level compiler, generalized from a
// CFG-block builder to a direct linear emitter since this instruction set
// has no indirect jump target besides CALL.
type fcomp struct {
	c      *Compiler
	layout *frame.Layout
	loops  []loopCtx

	storeMode bool

	// isMain marks the program's entry function: unlike every other
	// function, main is never reached through CALL, so no caller ever
	// pushes its return slot or return address (spec.md §4.2 lower_program
	// "emits main ... ending in EXIT"). A `return` inside main therefore
	// leaves its value on top of the stack and exits the VM directly
	// instead of going through the bp-relative return slot and RET.
	isMain bool
}

func (fc *fcomp) img() *bytecode.Image { return fc.c.img }

// lowerBlock lowers a block statement: it assigns bp-relative slots to
// every local declared directly in the block, wraps the statement list in
// a matching PUSHN/POPN pair if it introduces any locals, and lowers each
// statement in order (spec.md §4.2 "Block").
func (fc *fcomp) lowerBlock(b *ast.BlockStmt) error {
	mark := fc.layout.EnterBlock()

	totalWords := 0
	for _, loc := range b.Locals {
		aligned := types.WordAlign(loc.Sym.Type.ByteSize())
		off, words := fc.layout.AllocLocal(aligned)
		loc.Sym.Offset = int(off)
		totalWords += words
	}

	if totalWords > 0 {
		fc.img().EmitQuarter(bytecode.PUSHN, mustQuarter(totalWords), b.Line())
	}

	for _, s := range b.Stmts {
		if err := fc.lowerStmt(s); err != nil {
			return err
		}
	}

	if totalWords > 0 {
		fc.img().EmitQuarter(bytecode.POPN, mustQuarter(totalWords), b.Line())
	}

	fc.layout.ExitBlock(mark)
	return nil
}

func (fc *fcomp) lowerStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.AssignStmt:
		return fc.lowerAssign(n)
	case *ast.IfStmt:
		return fc.lowerIf(n)
	case *ast.WhileStmt:
		return fc.lowerWhile(n)
	case *ast.BlockStmt:
		return fc.lowerBlock(n)
	case *ast.PrintStmt:
		return fc.lowerPrint(n)
	case *ast.ReturnStmt:
		return fc.lowerReturn(n)
	case *ast.BreakStmt:
		return fc.lowerBreak(n)
	case *ast.ContinueStmt:
		return fc.lowerContinue(n)
	default:
		return fmt.Errorf("compiler: unhandled statement type %T", s)
	}
}

func (fc *fcomp) lowerAssign(n *ast.AssignStmt) error {
	if err := fc.lowerExpr(n.Rhs); err != nil {
		return err
	}
	fc.storeMode = true
	err := fc.lowerExpr(n.Lhs)
	fc.storeMode = false
	return err
}

// lowerIf follows spec.md §4.2's "If" recipe exactly, including the
// LI-0/JMP pattern for the unconditional jump over an else branch (the
// instruction set has no immediate-operand JMP: the target is always
// pushed by a preceding LI).
func (fc *fcomp) lowerIf(n *ast.IfStmt) error {
	if err := fc.lowerExpr(n.Cond); err != nil {
		return err
	}
	elseBranch := fc.img().EmitQuarter(bytecode.BIZ, 0, n.Line())

	if err := fc.lowerBlock(n.Then); err != nil {
		return err
	}

	if n.Else != nil {
		endIf := fc.img().EmitWord(bytecode.LI, 0, n.Line())
		fc.img().Emit(bytecode.JMP, n.Line())

		fc.patchBranch(elseBranch, fc.img().Offset())
		if err := fc.lowerBlock(n.Else); err != nil {
			return err
		}
		fc.img().PatchWord(endIf, bytecode.Word(fc.img().Offset()))
	} else {
		fc.patchBranch(elseBranch, fc.img().Offset())
	}
	return nil
}

// lowerWhile follows spec.md §4.2's "While" recipe: record the condition's
// offset as the continue target, lower the condition and a BIZ guard,
// push a fresh loop context, lower the body, jump back to the condition,
// then patch the guard and every pending break to the post-loop offset.
func (fc *fcomp) lowerWhile(n *ast.WhileStmt) error {
	loopStart := fc.img().Offset()
	if err := fc.lowerExpr(n.Cond); err != nil {
		return err
	}
	guard := fc.img().EmitQuarter(bytecode.BIZ, 0, n.Line())

	fc.loops = append(fc.loops, loopCtx{continueTarget: loopStart})

	if err := fc.lowerBlock(n.Body); err != nil {
		return err
	}

	fc.img().EmitWord(bytecode.LI, bytecode.Word(loopStart), n.Line())
	fc.img().Emit(bytecode.JMP, n.Line())

	end := fc.img().Offset()
	fc.patchBranch(guard, end)

	top := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]
	for _, pos := range top.breaks {
		fc.img().PatchWord(pos, bytecode.Word(end))
	}
	return nil
}

func (fc *fcomp) lowerBreak(n *ast.BreakStmt) error {
	if len(fc.loops) == 0 {
		return fmt.Errorf("compiler: break outside of a loop")
	}
	pos := fc.img().EmitWord(bytecode.LI, 0, n.Line())
	fc.img().Emit(bytecode.JMP, n.Line())
	top := len(fc.loops) - 1
	fc.loops[top].breaks = append(fc.loops[top].breaks, pos)
	return nil
}

func (fc *fcomp) lowerContinue(n *ast.ContinueStmt) error {
	if len(fc.loops) == 0 {
		return fmt.Errorf("compiler: continue outside of a loop")
	}
	target := fc.loops[len(fc.loops)-1].continueTarget
	fc.img().EmitWord(bytecode.LI, bytecode.Word(target), n.Line())
	fc.img().Emit(bytecode.JMP, n.Line())
	return nil
}

func (fc *fcomp) lowerPrint(n *ast.PrintStmt) error {
	for _, a := range n.Args {
		if err := fc.lowerExpr(a); err != nil {
			return err
		}
	}
	if len(n.Args) > 0xff {
		return fmt.Errorf("compiler: print statement has too many arguments (%d)", len(n.Args))
	}
	fc.img().EmitByte(bytecode.PRINT, uint8(len(n.Args)), n.Line())
	return nil
}

// lowerReturn lowers the return expression, stores it into the return
// slot at bp-relative offset -S, and emits RET (spec.md §4.2 "Return").
// Inside main there is no caller-reserved return slot to store into, so
// the value is left on the stack for EXIT to read directly.
func (fc *fcomp) lowerReturn(n *ast.ReturnStmt) error {
	if n.Value != nil {
		if err := fc.lowerExpr(n.Value); err != nil {
			return err
		}
		if !fc.isMain {
			fc.img().EmitQuarter(bytecode.STBP, fc.layout.ReturnOffset, n.Line())
		}
	}
	if fc.isMain {
		fc.img().Emit(bytecode.EXIT, n.Line())
	} else {
		fc.img().Emit(bytecode.RET, n.Line())
	}
	return nil
}

// patchBranch patches a BIZ/BNZ's relative displacement: q is added to pc
// *after* the 3-byte instruction has been fully read, so the patched
// value is target - (pos+3), not the absolute target (spec.md §4.1).
func (fc *fcomp) patchBranch(pos, target int) {
	fc.img().PatchQuarter(pos, bytecode.Quarter(target-(pos+3)))
}

// lowerExpr lowers e so that it leaves exactly one word on the stack
// (spec.md §4.2 "push-and-leave-on-stack discipline"), except when
// fc.storeMode is set, in which case e must be an addressable lvalue
// (identifier, field access, or index) and the top-of-stack value (left
// by the surrounding assignment's rhs) is stored into it instead.
func (fc *fcomp) lowerExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.IntLit:
		if fc.storeMode {
			return fmt.Errorf("compiler: cannot assign to an integer literal")
		}
		fc.img().EmitWord(bytecode.LI, n.Value, n.Line())
		return nil

	case *ast.IdentExpr:
		return fc.lowerAddressable(n, 0, n.Sym, n.Line())

	case *ast.DotExpr:
		sym, off, err := fc.resolveAddressable(n)
		if err != nil {
			return err
		}
		return fc.lowerAddressable(n, off, sym, n.Line())

	case *ast.IndexExpr:
		return fc.lowerIndex(n)

	case *ast.UnaryExpr:
		return fc.lowerUnary(n)

	case *ast.BinaryExpr:
		return fc.lowerBinary(n)

	case *ast.CallExpr:
		return fc.lowerCall(n)

	default:
		return fmt.Errorf("compiler: unhandled expression type %T", e)
	}
}

// resolveAddressable walks a chain of DotExpr/IdentExpr nodes down to its
// root symbol, accumulating field-offset bytes along the way (spec.md
// §4.2 "Struct field access": "field offsets are stored in bits ... divide
// by 8"). IndexExpr is not addressable through this path: its base must be
// resolved and lowered separately by lowerIndex.
func (fc *fcomp) resolveAddressable(e ast.Expr) (*symbols.Sym, int, error) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		return n.Sym, 0, nil
	case *ast.DotExpr:
		sym, off, err := fc.resolveAddressable(n.X)
		if err != nil {
			return nil, 0, err
		}
		return sym, off + n.Member.OffsetBits/8, nil
	default:
		return nil, 0, fmt.Errorf("compiler: %T is not addressable", e)
	}
}

// lowerAddressable emits the load or store instruction for a resolved
// (symbol, extra byte offset) pair, picking LDBP/STBP for a local or
// parameter and LDA/STA for a global (spec.md §4.2 "Identifier").
func (fc *fcomp) lowerAddressable(e ast.Expr, extra int, sym *symbols.Sym, line int32) error {
	switch sym.Kind {
	case symbols.LocalVar, symbols.Parameter:
		off := sym.Offset + extra
		if fc.storeMode {
			fc.img().EmitQuarter(bytecode.STBP, mustQuarter16(off), line)
		} else {
			fc.img().EmitQuarter(bytecode.LDBP, mustQuarter16(off), line)
		}
		return nil
	case symbols.GlobalVar:
		if fc.c.noGlobals {
			return fmt.Errorf("compiler: compile-time call site references global variable %q, which has no address yet", sym.Name)
		}
		off := sym.Offset + extra
		if fc.storeMode {
			fc.img().EmitWord(bytecode.STA, bytecode.Word(off), line)
		} else {
			fc.img().EmitWord(bytecode.LDA, bytecode.Word(off), line)
		}
		return nil
	default:
		return fmt.Errorf("compiler: identifier %v resolves to non-addressable kind %s", e, sym.Kind)
	}
}

// lowerIndex lowers `a[i]` (spec.md §4.2 "Array index"). The array's base
// must resolve to a global: the instruction set's only indirect
// load/store, LDI/STI, dereferences an absolute stack byte address, and
// there is no opcode to push bp onto the stack to build a base-relative
// one, so a local array cannot be indexed in this instruction set.
func (fc *fcomp) lowerIndex(n *ast.IndexExpr) error {
	base, extra, err := fc.resolveAddressable(n.X)
	if err != nil {
		return err
	}
	if base.Kind != symbols.GlobalVar {
		return fmt.Errorf("compiler: array index base %q must be a global variable", base.Name)
	}
	if fc.c.noGlobals {
		return fmt.Errorf("compiler: compile-time call site references global variable %q, which has no address yet", base.Name)
	}

	wasStore := fc.storeMode
	fc.storeMode = false
	if err := fc.lowerExpr(n.Index); err != nil {
		return err
	}
	fc.storeMode = wasStore

	stride := types.WordAlign(n.Elem.ByteSize())
	fc.img().EmitWord(bytecode.LI, bytecode.Word(stride), n.Line())
	fc.img().Emit(bytecode.MUL, n.Line())
	fc.img().EmitWord(bytecode.LI, bytecode.Word(base.Offset+extra), n.Line())
	fc.img().Emit(bytecode.ADD, n.Line())

	if fc.storeMode {
		fc.img().Emit(bytecode.STI, n.Line())
	} else {
		fc.img().Emit(bytecode.LDI, n.Line())
	}
	return nil
}

func (fc *fcomp) lowerUnary(n *ast.UnaryExpr) error {
	if fc.storeMode {
		return fmt.Errorf("compiler: cannot assign to a unary expression")
	}
	switch n.Op {
	case token.MINUS:
		if err := fc.lowerExpr(n.X); err != nil {
			return err
		}
		fc.img().EmitWord(bytecode.LI, 0, n.Line())
		fc.img().Emit(bytecode.SUB, n.Line())
		return nil
	default:
		if err := fc.lowerExpr(n.X); err != nil {
			return err
		}
		fc.img().Emit(bytecode.NOT, n.Line())
		return nil
	}
}

// lowerBinary lowers the right operand before the left (spec.md §4.2,
// §9's third Open Question decision): SUB then computes left-right after
// popping right then left off the stack.
func (fc *fcomp) lowerBinary(n *ast.BinaryExpr) error {
	if fc.storeMode {
		return fmt.Errorf("compiler: cannot assign to a binary expression")
	}
	if err := fc.lowerExpr(n.Right); err != nil {
		return err
	}
	if err := fc.lowerExpr(n.Left); err != nil {
		return err
	}

	switch n.Op {
	case token.PLUS:
		fc.img().Emit(bytecode.ADD, n.Line())
	case token.MINUS:
		fc.img().Emit(bytecode.SUB, n.Line())
	case token.STAR:
		fc.img().Emit(bytecode.MUL, n.Line())
	case token.SLASH:
		fc.img().Emit(bytecode.DIV, n.Line())
	case token.LTLT:
		fc.img().Emit(bytecode.LSHIFT, n.Line())
	case token.GTGT:
		fc.img().Emit(bytecode.RSHIFT, n.Line())
	case token.GT:
		fc.img().Emit(bytecode.GT, n.Line())
	case token.LT:
		fc.img().Emit(bytecode.LT, n.Line())
	case token.EQ:
		fc.img().Emit(bytecode.SUB, n.Line())
		fc.img().Emit(bytecode.NOT, n.Line())
	case token.NEQ:
		fc.img().Emit(bytecode.NEQ, n.Line())
	default:
		return fmt.Errorf("compiler: unhandled binary operator %s", n.Op)
	}
	return nil
}

// lowerCall lowers a call expression per spec.md §4.3's caller sequence.
// A resolved comptime call (is_resolved == true) lowers its resolved
// literal node instead (spec.md §8 "Idempotent resolution").
func (fc *fcomp) lowerCall(n *ast.CallExpr) error {
	if fc.storeMode {
		return fmt.Errorf("compiler: cannot assign to a call expression")
	}
	if n.IsResolved {
		return fc.lowerExpr(n.ResolvedNode)
	}

	sig := n.Callee.Func
	returnWords := types.WordsFor(sig.ReturnByteSize())
	fc.img().EmitQuarter(bytecode.PUSHN, mustQuarter(returnWords), n.Line())

	for _, a := range n.Args {
		if err := fc.lowerExpr(a); err != nil {
			return err
		}
	}

	targetPos := fc.img().EmitWord(bytecode.LI, 0, n.Line())
	if offset, ok := fc.c.funcOffsets.Get(n.Callee.Name); ok {
		fc.img().PatchWord(targetPos, bytecode.Word(offset))
	} else {
		fc.c.patches = append(fc.c.patches, patch{pos: targetPos, callee: n.Callee.Name})
	}
	fc.img().Emit(bytecode.CALL, n.Line())

	argWords := sig.ParamsByteSize() / types.WordSize
	fc.img().EmitQuarter(bytecode.POPN, mustQuarter(argWords), n.Line())
	return nil
}

func mustQuarter16(n int) bytecode.Quarter {
	if n < -0x8000 || n > 0x7fff {
		panic(fmt.Sprintf("compiler: offset %d does not fit in a quarter", n))
	}
	return bytecode.Quarter(n)
}
