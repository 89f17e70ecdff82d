// Package grammar holds a documentation-only EBNF grammar for the surface
// syntax implied by spec.md §8's example programs. The lexer/parser that
// would consume this grammar is an external collaborator out of this
// module's core scope (spec.md §1); this test only verifies the grammar
// itself is well-formed, the way the teacher's grammar_test.go verifies
// grammar.ebnf and grammar_lua.ebnf against its own Chunk production.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestEBNF(t *testing.T) {
	f, err := os.Open("grammar.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("grammar.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}
