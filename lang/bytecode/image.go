package bytecode

import "encoding/binary"

// Word is the stack machine's native cell width: a signed 8-byte integer
// (spec.md §3). All arithmetic is two's-complement wraparound (spec.md
// §4.2 "Numeric semantics").
type Word = int64

// Quarter is a signed 2-byte integer used for branch displacements and
// bp-relative offsets (spec.md §3, Glossary).
type Quarter = int16

// Image is a compiled bytecode program: a flat byte array plus a parallel
// source-line table (spec.md §3 "Instruction stream"). It is produced by
// lang/compiler and consumed by lang/machine.
//
// Grounded on the teacher's lang/compiler/opcode.go+asm.go encode/decode
// helpers (encodeInsn/addUint32), generalized from their 7-bit-varint
// argument encoding — which exists there because the teacher's VM operand
// stack holds boxed interface values of unknown width — to this spec's
// fixed-width word/quarter immediates (spec.md §3).
type Image struct {
	// Code is the linear instruction stream.
	Code []byte

	// Lines[i] is the source line that produced Code[i], or -1 if Code[i]
	// was synthesized (spec.md §3, §6). Lines has the same length as Code;
	// only the byte at an instruction's opcode position is meaningful, the
	// entries covering an immediate's bytes repeat the same line number.
	Lines []int32
}

// NewImage returns an empty image ready for emission.
func NewImage() *Image {
	return &Image{}
}

// Offset is the current write cursor, i.e. the byte offset the next
// emitted instruction will start at (spec.md §3 "code_offset").
func (img *Image) Offset() int { return len(img.Code) }

func (img *Image) appendLine(n int, line int32) {
	for i := 0; i < n; i++ {
		img.Lines = append(img.Lines, line)
	}
}

// Emit appends an opcode with no immediate.
func (img *Image) Emit(op Opcode, line int32) int {
	pos := img.Offset()
	img.Code = append(img.Code, byte(op))
	img.appendLine(1, line)
	return pos
}

// EmitWord appends an opcode followed by an 8-byte signed immediate (LI,
// LDA, STA).
func (img *Image) EmitWord(op Opcode, w Word, line int32) int {
	pos := img.Offset()
	img.Code = append(img.Code, byte(op))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(w))
	img.Code = append(img.Code, buf[:]...)
	img.appendLine(9, line)
	return pos
}

// EmitQuarter appends an opcode followed by a 2-byte signed immediate
// (BIZ, BNZ, PUSHN, POPN, LDBP, STBP).
func (img *Image) EmitQuarter(op Opcode, q Quarter, line int32) int {
	pos := img.Offset()
	img.Code = append(img.Code, byte(op))
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(q))
	img.Code = append(img.Code, buf[:]...)
	img.appendLine(3, line)
	return pos
}

// EmitByte appends an opcode followed by a single unsigned byte operand
// (PRINT's argument count).
func (img *Image) EmitByte(op Opcode, n uint8, line int32) int {
	pos := img.Offset()
	img.Code = append(img.Code, byte(op), n)
	img.appendLine(2, line)
	return pos
}

// PatchWord overwrites the 8-byte immediate that starts at byte offset
// pos+1 (i.e. the immediate of the opcode written at pos). Used to
// backpatch forward function calls once the callee's address is known
// (spec.md §3 "Forward-call patch table").
func (img *Image) PatchWord(pos int, w Word) {
	binary.LittleEndian.PutUint64(img.Code[pos+1:pos+9], uint64(w))
}

// PatchQuarter overwrites the 2-byte immediate that starts at byte offset
// pos+1. Used to patch branch displacements once the jump target is known
// (if/while/break/continue lowering, spec.md §4.2).
func (img *Image) PatchQuarter(pos int, q Quarter) {
	binary.LittleEndian.PutUint16(img.Code[pos+1:pos+3], uint16(q))
}

// ReadWord reads the 8-byte immediate at byte offset pos. Unlike PatchWord,
// pos is the offset of the immediate itself (one past its opcode).
func (img *Image) ReadWord(pos int) Word {
	return int64(binary.LittleEndian.Uint64(img.Code[pos : pos+8]))
}

// ReadQuarter reads the 2-byte immediate at byte offset pos (one past its
// opcode, as for ReadWord).
func (img *Image) ReadQuarter(pos int) Quarter {
	return int16(binary.LittleEndian.Uint16(img.Code[pos : pos+2]))
}
