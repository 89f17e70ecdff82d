package types

import "fmt"

// ArrayType is a fixed-length array of a single element type. Per spec.md
// §6: byte_size(array) = elements * word_align(byte_size(element)) — every
// element is word-aligned regardless of its own natural size, since the VM
// only addresses whole words (spec.md §1 non-goal: "sub-word packing ...
// explicit non-goals").
type ArrayType struct {
	Elem     Type
	Elements int
}

var _ Type = ArrayType{}

func (t ArrayType) String() string {
	return fmt.Sprintf("%s[%d]", t.Elem, t.Elements)
}

func (t ArrayType) ByteSize() int {
	return t.Elements * WordAlign(t.Elem.ByteSize())
}

// ElemStride is the byte distance between consecutive elements, i.e. the
// word-aligned size of a single element. lang/compiler's array-index
// lowering (spec.md §4.2) multiplies the index by this to compute an
// element's offset from the array's base.
func (t ArrayType) ElemStride() int {
	return WordAlign(t.Elem.ByteSize())
}
