package frame_test

import (
	"testing"

	"github.com/mna/comptimec/lang/frame"
	"github.com/mna/comptimec/lang/symbols"
	"github.com/mna/comptimec/lang/types"
)

func TestNewLayoutSingleParam(t *testing.T) {
	// fib(n: s32) -> s32
	sig := &symbols.FuncSig{
		Name:       "fib",
		Params:     []*symbols.Sym{{Name: "n", Kind: symbols.Parameter, Type: types.S32}},
		ReturnType: types.S32,
	}
	l := frame.NewLayout(sig)

	// S = 2*word + word_align(4) + word_align(4) = 16 + 8 + 8 = 32
	if got, want := l.FrameSize(), 32; got != want {
		t.Fatalf("FrameSize() = %d, want %d", got, want)
	}
	if got, want := l.ReturnOffset, int16(-32); got != want {
		t.Errorf("ReturnOffset = %d, want %d", got, want)
	}
	if len(l.Params) != 1 {
		t.Fatalf("len(Params) = %d, want 1", len(l.Params))
	}
	if got, want := l.Params[0].Offset, int16(-24); got != want {
		t.Errorf("Params[0].Offset = %d, want %d", got, want)
	}
}

func TestNewLayoutMultiParamVoidReturn(t *testing.T) {
	sig := &symbols.FuncSig{
		Name: "proc",
		Params: []*symbols.Sym{
			{Name: "a", Kind: symbols.Parameter, Type: types.S64},
			{Name: "b", Kind: symbols.Parameter, Type: types.S64},
		},
	}
	l := frame.NewLayout(sig)

	// S = 2*word + (word + word) + 0 = 16 + 16 = 32
	if got, want := l.FrameSize(), 32; got != want {
		t.Fatalf("FrameSize() = %d, want %d", got, want)
	}
	if got, want := l.ReturnOffset, int16(-32); got != want {
		t.Errorf("ReturnOffset = %d, want %d", got, want)
	}
	if got, want := l.Params[0].Offset, int16(-32); got != want {
		t.Errorf("Params[0].Offset = %d, want %d", got, want)
	}
	if got, want := l.Params[1].Offset, int16(-24); got != want {
		t.Errorf("Params[1].Offset = %d, want %d", got, want)
	}
}

func TestAllocLocalAndBlockScope(t *testing.T) {
	sig := &symbols.FuncSig{Name: "main"}
	l := frame.NewLayout(sig)

	off1, words1 := l.AllocLocal(4) // s32
	if off1 != 0 || words1 != 1 {
		t.Fatalf("first local = (%d, %d), want (0, 1)", off1, words1)
	}

	mark := l.EnterBlock()
	off2, words2 := l.AllocLocal(8) // s64
	if off2 != 8 || words2 != 1 {
		t.Fatalf("nested local = (%d, %d), want (8, 1)", off2, words2)
	}
	popped := l.ExitBlock(mark)
	if popped != 8 {
		t.Fatalf("ExitBlock popped = %d, want 8", popped)
	}

	// After the nested block exits, the next local reuses the freed space.
	off3, _ := l.AllocLocal(4)
	if off3 != 8 {
		t.Fatalf("reused local offset = %d, want 8", off3)
	}
}

func TestExitBlockPanicsOnBadMark(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-order ExitBlock")
		}
	}()
	l := frame.NewLayout(&symbols.FuncSig{Name: "main"})
	mark := l.EnterBlock()
	l.ExitBlock(mark)
	l.ExitBlock(frame.Mark(5)) // ahead of the (reset) high-water mark
}
