package bytecode_test

import (
	"strings"
	"testing"

	"github.com/mna/comptimec/lang/bytecode"
)

func TestEmitAndRead(t *testing.T) {
	img := bytecode.NewImage()
	img.EmitWord(bytecode.LI, 42, 1)
	img.Emit(bytecode.ADD, 1)
	img.EmitQuarter(bytecode.PUSHN, 3, 2)
	img.EmitByte(bytecode.PRINT, 2, 3)
	img.Emit(bytecode.EXIT, 3)

	if got, want := img.Offset(), 9+1+3+2+1; got != want {
		t.Fatalf("Offset() = %d, want %d", got, want)
	}
	if got := img.ReadWord(1); got != 42 {
		t.Errorf("ReadWord(1) = %d, want 42", got)
	}
	if got := img.ReadQuarter(11); got != 3 {
		t.Errorf("ReadQuarter(11) = %d, want 3", got)
	}
}

func TestPatch(t *testing.T) {
	img := bytecode.NewImage()
	pos := img.EmitWord(bytecode.LI, 0, 1)
	img.Emit(bytecode.CALL, 1)
	img.PatchWord(pos, 123)
	if got := img.ReadWord(pos + 1); got != 123 {
		t.Errorf("ReadWord after patch = %d, want 123", got)
	}
}

func TestOpcodeString(t *testing.T) {
	if got, want := bytecode.ADD.String(), "add"; got != want {
		t.Errorf("ADD.String() = %q, want %q", got, want)
	}
	if got := bytecode.Opcode(250).String(); !strings.Contains(got, "illegal") {
		t.Errorf("invalid opcode String() = %q, want it to mention illegal", got)
	}
}

func TestDisassemble(t *testing.T) {
	img := bytecode.NewImage()
	img.EmitWord(bytecode.LI, 7, 1)
	img.EmitByte(bytecode.PRINT, 1, 1)
	img.Emit(bytecode.EXIT, 2)

	var buf strings.Builder
	if err := bytecode.Disassemble(&buf, img, []string{"print 7", "return"}); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"li 7", "print 1", "exit", "print 7", "return"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleSyntheticLine(t *testing.T) {
	img := bytecode.NewImage()
	img.EmitWord(bytecode.LI, 0, -1)
	img.Emit(bytecode.EXIT, -1)

	var buf strings.Builder
	if err := bytecode.Disassemble(&buf, img, nil); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(buf.String(), "-1") {
		t.Errorf("expected -1 line marker in output:\n%s", buf.String())
	}
}
