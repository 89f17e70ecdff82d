// Package bytecode defines the instruction set and the compiled image
// format lang/compiler emits and lang/machine executes (spec.md §3, §4.1).
// It is the home for the opcode table the teacher keeps in
// lang/compiler/opcode.go and (as an unused duplicate) lang/machine/opcode.go
// — this module has a single Opcode type shared by both the generator and
// the VM, instead of two parallel definitions.
package bytecode

import "fmt"

// Opcode is a single bytecode instruction's operation, encoded as one byte
// (spec.md §3: "Each instruction is 1 byte of opcode optionally followed by
// an immediate...").
type Opcode uint8

//nolint:revive
const (
	NOP Opcode = iota

	// Arithmetic (word-typed, signed two's complement; spec.md §4.1/§4.2)
	ADD
	SUB
	MUL
	DIV
	LSHIFT
	RSHIFT

	// Comparisons. GT/LT are strict (a>b / a<b); spec.md §9 flags the
	// teacher's GE/LE names as a legacy misnaming of these and this module
	// renames them, per the Open Question decision recorded in DESIGN.md.
	GT
	LT
	NOT
	NEQ // dedicated opcode per spec.md §9's second Open Question: SUB+test folded into one op, distinct from SUB itself

	// Branching (spec.md §4.1)
	JMP
	BIZ
	BNZ

	// Memory (spec.md §4.1)
	LI
	PUSHN
	POPN
	LDBP
	STBP
	LDA
	STA
	LDI
	STI

	// I/O and control (spec.md §4.1)
	PRINT
	CALL
	FUNCPRO
	RET
	EXIT

	opcodeMax
)

var opcodeNames = [...]string{
	NOP:     "nop",
	ADD:     "add",
	SUB:     "sub",
	MUL:     "mul",
	DIV:     "div",
	LSHIFT:  "lshift",
	RSHIFT:  "rshift",
	GT:      "gt",
	LT:      "lt",
	NOT:     "not",
	NEQ:     "neq",
	JMP:     "jmp",
	BIZ:     "biz",
	BNZ:     "bnz",
	LI:      "li",
	PUSHN:   "pushn",
	POPN:    "popn",
	LDBP:    "ldbp",
	STBP:    "stbp",
	LDA:     "lda",
	STA:     "sta",
	LDI:     "ldi",
	STI:     "sti",
	PRINT:   "print",
	CALL:    "call",
	FUNCPRO: "funcpro",
	RET:     "ret",
	EXIT:    "exit",
}

func (op Opcode) String() string {
	if op < opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// OperandKind describes what, if anything, follows an opcode byte in the
// instruction stream (spec.md §3).
type OperandKind uint8

const (
	// OperandNone: the opcode occupies exactly one byte.
	OperandNone OperandKind = iota
	// OperandWord: an 8-byte signed immediate follows (LI, LDA, STA).
	OperandWord
	// OperandQuarter: a 2-byte signed immediate follows (branch
	// displacements, BIZ/BNZ, PUSHN/POPN, LDBP/STBP).
	OperandQuarter
	// OperandByte: a 1-byte unsigned operand follows (PRINT's argument
	// count).
	OperandByte
)

var operandKinds = [...]OperandKind{
	JMP:   OperandNone, // target is popped from the stack, not an immediate
	BIZ:   OperandQuarter,
	BNZ:   OperandQuarter,
	LI:    OperandWord,
	PUSHN: OperandQuarter,
	POPN:  OperandQuarter,
	LDBP:  OperandQuarter,
	STBP:  OperandQuarter,
	LDA:   OperandWord,
	STA:   OperandWord,
	PRINT: OperandByte,
}

// Operand reports what kind of immediate (if any) follows op in the
// instruction stream.
func (op Opcode) Operand() OperandKind {
	if int(op) < len(operandKinds) {
		return operandKinds[op]
	}
	return OperandNone
}

// Size returns the total size in bytes of an instruction using this
// opcode, including its immediate if any.
func (op Opcode) Size() int {
	switch op.Operand() {
	case OperandWord:
		return 1 + 8
	case OperandQuarter:
		return 1 + 2
	case OperandByte:
		return 1 + 1
	default:
		return 1
	}
}
