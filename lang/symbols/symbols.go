// Package symbols defines the resolved-symbol contract that spec.md §6
// ("Consumed — AST contract") describes: every identifier literal carries a
// resolved symbol reference, and every call node carries a resolved callee
// symbol. Construction of these symbols is the job of the external
// symbol-table/typecheck passes (spec.md §1); this package only defines
// their shape.
package symbols

import (
	"fmt"

	"github.com/mna/comptimec/lang/types"
)

// Kind identifies what an identifier resolves to, per spec.md §3: "kind ∈
// {local var, parameter, global var, function, struct/enum member, type}".
type Kind uint8

const (
	Undefined Kind = iota
	LocalVar
	Parameter
	GlobalVar
	Function
	Member
	TypeName
)

var kindNames = [...]string{
	Undefined: "undefined",
	LocalVar:  "local var",
	Parameter: "parameter",
	GlobalVar: "global var",
	Function:  "function",
	Member:    "member",
	TypeName:  "type",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("<invalid Kind %d>", k)
	}
	return kindNames[k]
}

// Sym is the resolved symbol attached to an identifier literal or a call's
// callee. Not every field is meaningful for every Kind: Offset is only set
// for LocalVar/Parameter (bp-relative byte offset, computed by lang/frame
// and stored here by lang/compiler) and GlobalVar (absolute byte offset, assigned by lang/compiler's
// lower_program); Func is only set for Kind == Function.
type Sym struct {
	Name string
	Kind Kind
	Type types.Type

	// Offset is the resolved address lang/compiler emits LDBP/STBP (local,
	// parameter) or LDA/STA (global) against.
	Offset int

	// Func carries the extra information a Function symbol needs: its
	// parameter list and return type, per spec.md §6 "Every function symbol
	// has a params symbol table and a return_type."
	Func *FuncSig
}

// FuncSig is the resolved signature of a function symbol.
type FuncSig struct {
	Name       string
	Params     []*Sym // Kind == Parameter, in declaration order
	ReturnType types.Type
}

// ReturnByteSize returns the return type's byte size, or 0 for a function
// with no return value (spec.md's running examples always declare one, but the call
// convention in spec.md §4.3 accounts for a zero-sized return slot too).
func (f *FuncSig) ReturnByteSize() int {
	if f.ReturnType == nil {
		return 0
	}
	return f.ReturnType.ByteSize()
}

// ParamsByteSize returns the total word-aligned byte size occupied by the
// function's parameters, each individually word-aligned (spec.md §3:
// "each aligned to word boundary").
func (f *FuncSig) ParamsByteSize() int {
	total := 0
	for _, p := range f.Params {
		total += types.WordAlign(p.Type.ByteSize())
	}
	return total
}
