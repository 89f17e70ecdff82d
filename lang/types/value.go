// Package types describes the static types of a typechecked program: the
// contract spec.md §6 calls "Consumed — type-size queries". Unlike the
// teacher's lang/types package (a dynamic runtime value system, one boxed
// interface per value manipulated by a tree-walking VM), every type here is
// a compile-time descriptor: it never holds a value, only answers questions
// about the size and layout a value of that type would occupy.
package types

// Type is the interface implemented by every resolved type in the program.
// The resolver/typechecker (external collaborators, spec.md §1) attach a
// Type to every expression and every declared identifier before the core
// ever sees the AST.
type Type interface {
	// String returns the type's surface-syntax name, e.g. "s32", "P",
	// "s32[3]".
	String() string

	// ByteSize returns the number of bytes a value of this type occupies,
	// per spec.md §6: integer types are <= 8 bytes, arrays are
	// elements*word_align(byte_size(element)), structs are the sum of
	// member byte sizes with word alignment between members.
	ByteSize() int
}

// WordSize is the width, in bytes, of a single stack cell (spec.md §3).
const WordSize = 8

// WordAlign rounds n up to the next multiple of WordSize. A zero-sized type
// (e.g. a struct with no members) aligns to zero, not a whole word, per
// spec.md §1's word-granularity model; a function with no return type
// therefore gets a zero-word return slot.
func WordAlign(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + WordSize - 1) / WordSize * WordSize
}

// WordsFor returns the number of whole words needed to hold byteSize bytes.
func WordsFor(byteSize int) int {
	return WordAlign(byteSize) / WordSize
}
