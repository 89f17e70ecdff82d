package types

// EnumType is a named set of integer-valued constants, represented at
// runtime exactly like an IntType (one word on the stack); its Members
// only matter to the resolver/typechecker (external collaborators) for
// name lookup, not to lang/compiler or lang/machine.
type EnumType struct {
	Name    string
	Members []EnumMember
}

// EnumMember is a single `name = value` entry of an EnumType.
type EnumMember struct {
	Name  string
	Value int64
}

var _ Type = EnumType{}

func (t EnumType) String() string { return t.Name }

// ByteSize is always a full word: enum constants are compiled to LI
// literals (spec.md §4.2), never loaded from memory, so there is no
// sub-word packing concern the way there is for StructType members.
func (t EnumType) ByteSize() int { return WordSize }

func (t EnumType) Member(name string) (EnumMember, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}
