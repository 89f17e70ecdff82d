package types

import "fmt"

// Member is a single field of a StructType. OffsetBits is stored in bits,
// not bytes, matching spec.md §6's "Consumed — AST contract": "Struct
// members expose offset (bits) and resolved type." Spec.md §9 flags this
// as a known oddity given the VM is otherwise word-granular; per the Open
// Question decision recorded in DESIGN.md, only word-multiple offsets are
// supported, and the divide-by-8 happens exactly once, at the point
// lang/compiler turns a field access into a load/store offset.
type Member struct {
	Name       string
	Type       Type
	OffsetBits int
}

// StructType is a named aggregate of members, laid out in declaration order
// with word alignment between members (spec.md §6).
type StructType struct {
	Name    string
	Members []Member
}

var _ Type = StructType{}

func (t StructType) String() string { return t.Name }

func (t StructType) ByteSize() int {
	size := 0
	for _, m := range t.Members {
		size += WordAlign(m.Type.ByteSize())
	}
	return size
}

// Member looks up a member by name. The resolver (external collaborator)
// guarantees the name exists for any AST already past typechecking; a
// missing member here is an internal compiler bug (spec.md §7).
func (t StructType) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// NewStructType computes OffsetBits for each member from its declaration
// order, so callers only need to supply Name and Type. It is the one place
// that establishes the bit/byte duality spec.md §9 flags: offsets are
// stored in bits here, even though the loop advances in word-aligned
// bytes, because that is the contract lang/symbols and lang/compiler agree
// to consume.
func NewStructType(name string, members []struct {
	Name string
	Type Type
}) StructType {
	st := StructType{Name: name}
	offsetBytes := 0
	for _, m := range members {
		st.Members = append(st.Members, Member{
			Name:       m.Name,
			Type:       m.Type,
			OffsetBits: offsetBytes * 8,
		})
		offsetBytes += WordAlign(m.Type.ByteSize())
	}
	return st
}

func (m Member) String() string {
	return fmt.Sprintf("%s: %s @%db", m.Name, m.Type, m.OffsetBits)
}
