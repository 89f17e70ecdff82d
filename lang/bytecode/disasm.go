package bytecode

import (
	"fmt"
	"io"
	"strconv"
)

// Disassemble writes a textual disassembly of img to w, one line per
// instruction, in the format spec.md §6 mandates: "%04d OPNAME [operands]"
// right-padded to 24 columns, then the source-line number, and — if
// source is non-nil — the corresponding source line text. A missing
// source mapping (Lines[pc] == -1, a synthesized instruction) prints as
// "-1" with a blank source column.
//
// Grounded on the column-oriented section writer in the teacher's
// lang/compiler/asm.go (the teacher has no single exported "disassemble"
// entry point, but asm.go's structured, aligned textual rendering of a
// compiled Program is the same idea applied to a different format).
func Disassemble(w io.Writer, img *Image, source []string) error {
	pc := 0
	for pc < len(img.Code) {
		op := Opcode(img.Code[pc])
		line := int32(-1)
		if pc < len(img.Lines) {
			line = img.Lines[pc]
		}

		mnemonic := fmt.Sprintf("%04d %s", pc, op)
		operand := ""
		switch op.Operand() {
		case OperandWord:
			operand = strconv.FormatInt(img.ReadWord(pc+1), 10)
		case OperandQuarter:
			operand = strconv.FormatInt(int64(img.ReadQuarter(pc+1)), 10)
		case OperandByte:
			operand = strconv.Itoa(int(img.Code[pc+1]))
		}
		if operand != "" {
			mnemonic += " " + operand
		}

		col := mnemonic
		for len(col) < 24 {
			col += " "
		}

		srcText := ""
		if source != nil && line >= 1 && int(line) <= len(source) {
			srcText = source[line-1]
		}

		if _, err := fmt.Fprintf(w, "%s %d %s\n", col, line, srcText); err != nil {
			return err
		}

		pc += op.Size()
	}
	return nil
}
