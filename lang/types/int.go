package types

import "fmt"

// IntType is a signed integer type of a given bit width (s8, s16, s32, s64
// in the surface syntax). Every IntType value fits in a single word on the
// stack (spec.md §1: "word-granularity memory"); ByteSize reports the
// type's declared width, which matters for struct layout even though the
// VM always operates on full 8-byte words.
type IntType struct {
	Name string // e.g. "s32"
	Bits int    // 8, 16, 32, or 64
}

var (
	_ Type = IntType{}

	S8  = IntType{Name: "s8", Bits: 8}
	S16 = IntType{Name: "s16", Bits: 16}
	S32 = IntType{Name: "s32", Bits: 32}
	S64 = IntType{Name: "s64", Bits: 64}
)

func (t IntType) String() string { return t.Name }

func (t IntType) ByteSize() int {
	if t.Bits <= 0 {
		return WordSize
	}
	return (t.Bits + 7) / 8
}

// BoolType is the type of the literals produced by comparison and logical
// operators. It occupies one byte, same as s8, but is kept distinct so
// typechecking (external collaborator) can reject arithmetic on conditions.
type BoolType struct{}

var _ Type = BoolType{}

func (BoolType) String() string { return "bool" }
func (BoolType) ByteSize() int  { return 1 }

func init() {
	// Guard against a future edit silently widening S64 past a word: every
	// assumption in lang/frame and lang/compiler about "every slot is one
	// word" depends on this.
	if S64.ByteSize() != WordSize {
		panic(fmt.Sprintf("s64 byte size is %d, expected %d", S64.ByteSize(), WordSize))
	}
}
