package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints an AST as an indented tree, one node per line. It
// is a much smaller analog of the teacher's ast.Printer (which supports
// configurable position modes and a comment side-table over a
// quasi-lossless tree); this language's lexer/parser are out of core scope
// (spec.md §1), so there is no source text or comment table to reproduce —
// only the resolved tree structure, which the CLI's compile command prints
// before running the pipeline.
type Printer struct {
	Output io.Writer
}

// Print walks n and writes an indented description of every node.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if p.err != nil {
		return nil
	}
	if dir == VisitExit {
		p.depth--
		return p
	}

	indent := strings.Repeat("  ", p.depth)
	line := n.Line()
	_, err := fmt.Fprintf(p.w, "%s%s (line %d)\n", indent, describe(n), line)
	if err != nil {
		p.err = err
		return nil
	}
	p.depth++
	return p
}

func describe(n Node) string {
	switch n := n.(type) {
	case *Program:
		return "program"
	case *FuncDecl:
		return "func " + n.Name
	case *StructDecl:
		return "struct " + n.Name
	case *EnumDecl:
		return "enum " + n.Name
	case *GlobalDecl:
		return "global " + n.Name
	case *BlockStmt:
		return fmt.Sprintf("block (%d locals)", len(n.Locals))
	case *IfStmt:
		return "if"
	case *WhileStmt:
		return "while"
	case *AssignStmt:
		return "assign"
	case *PrintStmt:
		return "print"
	case *ReturnStmt:
		return "return"
	case *BreakStmt:
		return "break"
	case *ContinueStmt:
		return "continue"
	case *IntLit:
		return fmt.Sprintf("int %d", n.Value)
	case *IdentExpr:
		return "ident " + n.Name
	case *DotExpr:
		return "dot ." + n.Name
	case *IndexExpr:
		return "index"
	case *UnaryExpr:
		return "unary " + n.Op.String()
	case *BinaryExpr:
		return "binary " + n.Op.String()
	case *CallExpr:
		prefix := "call"
		if n.IsComptime {
			prefix = "comptime call"
		}
		if n.Callee != nil {
			prefix += " " + n.Callee.Name
		}
		return prefix
	default:
		return fmt.Sprintf("%T", n)
	}
}
