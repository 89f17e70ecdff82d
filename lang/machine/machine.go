// Package machine implements the stack virtual machine that executes a
// compiled bytecode image (spec.md §4.4). The machine itself carries no
// domain knowledge of the source language: it fetches a byte at pc,
// decodes one of lang/bytecode's fixed-width instructions, and mutates a
// flat byte-addressed stack.
//
// Grounded on the teacher's lang/machine/machine.go run function for the
// overall fetch-decode-dispatch loop shape and its th.steps/th.maxSteps
// instruction quota, and on lang/machine/thread.go for the idea of a
// small struct bundling the machine's configuration (here: Stdout,
// MaxSteps, Debug, StackSize) — re-targeted from a boxed-Value operand
// stack and goroutine/context-cancellable Thread to a raw byte stack with
// no concurrency at all, since spec.md §5 rules out parallelism,
// suspension points, and any cancellation other than process exit.
package machine

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mna/comptimec/lang/bytecode"
	"github.com/mna/comptimec/lang/types"
)

// DefaultStackSize is the minimum stack size spec.md §4.4 mandates ("at
// least 8*1024 bytes").
const DefaultStackSize = 8 * 1024

// DefaultMaxSteps bounds the number of instructions a VM will execute
// before aborting with a comptime timeout error (spec.md §4.5 "SHOULD
// bound the VM by an instruction-count quota"). It applies when
// VM.MaxSteps is zero; a negative VM.MaxSteps disables the quota.
const DefaultMaxSteps = 10_000_000

// VM executes one bytecode image to completion. A VM is single-use: call
// Run once, then discard it (spec.md §4.5 "Execute it in a fresh VM
// instance").
type VM struct {
	// Stdout receives PRINT output. Defaults to io.Discard if nil.
	Stdout io.Writer

	// Debug, if non-nil, receives a post-instruction dump: instruction
	// number, opcode name, bp, and the stack contents as successive
	// 8-byte words (spec.md §4.4 "Debug dump").
	Debug io.Writer

	// MaxSteps caps the number of instructions executed before Run
	// returns a timeout error. Zero means DefaultMaxSteps; negative means
	// unbounded.
	MaxSteps int

	// StackSize overrides the stack's byte capacity. Zero means
	// DefaultStackSize. Values below spec.md's 8KiB floor are rounded up.
	StackSize int
}

// Run executes img starting at code offset 0 and returns the word on top
// of the stack at EXIT (spec.md §4.4 "Return value"). An unknown opcode
// or a step-quota overrun aborts execution with an error; a recovered
// panic (e.g. division by zero, an out-of-bounds stack access) is
// reported as a VM runtime fault rather than crashing the host process.
func (vm *VM) Run(img *bytecode.Image) (w bytecode.Word, err error) {
	stdout := vm.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stackSize := vm.StackSize
	if stackSize < DefaultStackSize {
		stackSize = DefaultStackSize
	}
	maxSteps := vm.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	m := &state{
		code:     img.Code,
		stack:    make([]byte, stackSize),
		stdout:   stdout,
		debug:    vm.Debug,
		maxSteps: maxSteps,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("machine: runtime fault at pc=%d: %v", m.pc, r)
		}
	}()

	return m.run()
}

// state is the live register file and stack of one Run call.
type state struct {
	code  []byte
	stack []byte

	pc int
	sp int
	bp int

	steps    int
	maxSteps int

	instNum int

	stdout io.Writer
	debug  io.Writer
}

// run is the fetch-decode-execute loop (spec.md §4.4). It never returns a
// nil error on unknown opcode or quota overrun; on EXIT it returns the
// word on top of the stack.
func (m *state) run() (bytecode.Word, error) {
	for {
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return 0, fmt.Errorf("machine: comptime instruction quota (%d) exceeded", m.maxSteps)
		}
		m.steps++

		if m.pc < 0 || m.pc >= len(m.code) {
			return 0, fmt.Errorf("machine: pc %d out of code bounds", m.pc)
		}
		op := bytecode.Opcode(m.code[m.pc])
		m.pc++

		halt, retVal, err := m.step(op)
		if m.debug != nil {
			m.dump(op)
		}
		if err != nil {
			return 0, err
		}
		if halt {
			return retVal, nil
		}
	}
}

// step executes a single decoded opcode, advancing m.pc past any
// immediate it reads. It returns (true, value, nil) on EXIT.
func (m *state) step(op bytecode.Opcode) (bool, bytecode.Word, error) {
	m.instNum++

	switch op {
	case bytecode.NOP:
		// no effect

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.LSHIFT, bytecode.RSHIFT:
		a := m.popWord()
		b := m.popWord()
		var z bytecode.Word
		switch op {
		case bytecode.ADD:
			z = a + b
		case bytecode.SUB:
			z = a - b
		case bytecode.MUL:
			z = a * b
		case bytecode.DIV:
			z = a / b
		case bytecode.LSHIFT:
			z = a << uint64(b)
		case bytecode.RSHIFT:
			z = a >> uint64(b)
		}
		m.pushWord(z)

	case bytecode.GT:
		a := m.popWord()
		b := m.popWord()
		m.pushWord(boolWord(a > b))

	case bytecode.LT:
		a := m.popWord()
		b := m.popWord()
		m.pushWord(boolWord(a < b))

	case bytecode.NEQ:
		a := m.popWord()
		b := m.popWord()
		m.pushWord(boolWord(a != b))

	case bytecode.NOT:
		a := m.popWord()
		m.pushWord(boolWord(a == 0))

	case bytecode.JMP:
		target := m.popWord()
		m.pc = int(target)

	case bytecode.BIZ:
		q := m.readQuarter()
		a := m.popWord()
		if a == 0 {
			m.pc += int(q)
		}

	case bytecode.BNZ:
		q := m.readQuarter()
		a := m.popWord()
		if a != 0 {
			m.pc += int(q)
		}

	case bytecode.LI:
		m.pushWord(m.readWord())

	case bytecode.PUSHN:
		q := m.readQuarter()
		m.sp += int(q) * types.WordSize

	case bytecode.POPN:
		q := m.readQuarter()
		m.sp -= int(q) * types.WordSize

	case bytecode.LDBP:
		q := m.readQuarter()
		m.pushWord(m.loadWord(m.bp + int(q)))

	case bytecode.STBP:
		q := m.readQuarter()
		v := m.popWord()
		m.storeWord(m.bp+int(q), v)

	case bytecode.LDA:
		w := m.readWord()
		m.pushWord(m.loadWord(int(w)))

	case bytecode.STA:
		w := m.readWord()
		v := m.popWord()
		m.storeWord(int(w), v)

	case bytecode.LDI:
		addr := m.popWord()
		m.pushWord(m.loadWord(int(addr)))

	case bytecode.STI:
		addr := m.popWord()
		v := m.popWord()
		m.storeWord(int(addr), v)

	case bytecode.PRINT:
		n := int(m.readByte())
		vals := make([]bytecode.Word, n)
		for i := n - 1; i >= 0; i-- {
			vals[i] = m.popWord()
		}
		for i, v := range vals {
			if i > 0 {
				fmt.Fprint(m.stdout, " ")
			}
			fmt.Fprint(m.stdout, v)
		}
		fmt.Fprintln(m.stdout)

	case bytecode.CALL:
		target := m.popWord()
		m.pushWord(bytecode.Word(m.pc))
		m.pc = int(target)

	case bytecode.FUNCPRO:
		m.pushWord(bytecode.Word(m.bp))
		m.bp = m.sp

	case bytecode.RET:
		m.sp = m.bp
		m.bp = int(m.popWord())
		m.pc = int(m.popWord())

	case bytecode.EXIT:
		return true, m.loadWord(m.sp - types.WordSize), nil

	default:
		return false, 0, fmt.Errorf("machine: unknown opcode %d at pc=%d", op, m.pc-1)
	}
	return false, 0, nil
}

func boolWord(b bool) bytecode.Word {
	if b {
		return 1
	}
	return 0
}

func (m *state) pushWord(w bytecode.Word) {
	m.storeWord(m.sp, w)
	m.sp += types.WordSize
}

func (m *state) popWord() bytecode.Word {
	m.sp -= types.WordSize
	return m.loadWord(m.sp)
}

func (m *state) loadWord(addr int) bytecode.Word {
	return bytecode.Word(binary.LittleEndian.Uint64(m.stack[addr : addr+8]))
}

func (m *state) storeWord(addr int, w bytecode.Word) {
	binary.LittleEndian.PutUint64(m.stack[addr:addr+8], uint64(w))
}

// readWord reads the 8-byte immediate that follows the opcode byte just
// consumed, advancing pc past it.
func (m *state) readWord() bytecode.Word {
	w := bytecode.Word(binary.LittleEndian.Uint64(m.code[m.pc : m.pc+8]))
	m.pc += 8
	return w
}

// readQuarter reads a 2-byte immediate, advancing pc past it. BIZ/BNZ add
// the result to pc only after this read has fully consumed the
// instruction, matching lang/compiler's patchBranch, which computes the
// patched displacement as target-(pos+3).
func (m *state) readQuarter() bytecode.Quarter {
	q := bytecode.Quarter(binary.LittleEndian.Uint16(m.code[m.pc : m.pc+2]))
	m.pc += 2
	return q
}

func (m *state) readByte() byte {
	b := m.code[m.pc]
	m.pc++
	return b
}

// dump writes the debug line spec.md §4.4 describes: instruction number,
// opcode name, bp, and the stack's current words from the base up to sp.
func (m *state) dump(op bytecode.Opcode) {
	fmt.Fprintf(m.debug, "%04d %-8s bp=%-6d [", m.instNum, op, m.bp)
	for addr := 0; addr < m.sp; addr += types.WordSize {
		if addr > 0 {
			fmt.Fprint(m.debug, " ")
		}
		fmt.Fprint(m.debug, m.loadWord(addr))
	}
	fmt.Fprintln(m.debug, "]")
}
