package symbols_test

import (
	"testing"

	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/types"
)

func TestKindString(t *testing.T) {
	for k := symbols.Undefined; k <= symbols.TypeName; k++ {
		if k.String() == "" {
			t.Errorf("missing string for kind %d", k)
		}
	}
	if got := symbols.Kind(99).String(); got == "" {
		t.Error("expected non-empty string for invalid kind")
	}
}

func TestFuncSigSizes(t *testing.T) {
	n := &symbols.Sym{Name: "n", Kind: symbols.Parameter, Type: types.S32}
	sig := &symbols.FuncSig{Name: "fib", Params: []*symbols.Sym{n}, ReturnType: types.S32}

	if got, want := sig.ParamsByteSize(), types.WordSize; got != want {
		t.Errorf("ParamsByteSize() = %d, want %d", got, want)
	}
	if got, want := sig.ReturnByteSize(), types.S32.ByteSize(); got != want {
		t.Errorf("ReturnByteSize() = %d, want %d", got, want)
	}

	void := &symbols.FuncSig{Name: "proc"}
	if got := void.ReturnByteSize(); got != 0 {
		t.Errorf("ReturnByteSize() = %d, want 0", got)
	}
}
