package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/comptimec/internal/fixtures"
	"github.com/mna/comptimec/lang/ast"
	"github.com/mna/comptimec/lang/bytecode"
	"github.com/mna/comptimec/lang/comptime"
	"github.com/mna/comptimec/lang/compiler"
	"github.com/mna/comptimec/lang/machine"
)

// Compile runs the pipeline stages c's flags select (spec.md §6's "CLI
// flags of the enclosing compiler") over each named fixture program:
// always print the AST; unless --parse-only, run the compile-time driver;
// if --bytecode, lower_program and (if --debug-bytecode) disassemble the
// result; if --run, execute it on the stack VM and print its stdout and
// (unless --log-level quiet) its exit word.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, names []string) error {
	return CompilePrograms(ctx, stdio, c, names...)
}

func CompilePrograms(ctx context.Context, stdio mainer.Stdio, c *Cmd, names ...string) error {
	var errs []error
	for _, name := range names {
		if err := compileOne(ctx, stdio, c, name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := fmt.Errorf("compile: %d of %d program(s) failed", len(errs), len(names))
		return printError(stdio, err)
	}
	return nil
}

func compileOne(ctx context.Context, stdio mainer.Stdio, c *Cmd, name string) error {
	prog, err := fixtures.Get(name)
	if err != nil {
		return printError(stdio, err)
	}

	if c.LogLevel == "debug" {
		fmt.Fprintf(stdio.Stdout, "# %s: loaded program\n", name)
	}

	printer := ast.Printer{Output: stdio.Stdout}
	if err := printer.Print(prog); err != nil {
		return printError(stdio, err)
	}

	if c.ParseOnly {
		return nil
	}

	iterations, err := (&comptime.Driver{}).Run(prog)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", name, err))
	}
	if c.LogLevel != "quiet" {
		fmt.Fprintf(stdio.Stdout, "# %s: compile-time driver converged after %d pass(es)\n", name, iterations)
	}

	if !c.Bytecode {
		return nil
	}

	img, err := compiler.LowerProgram(prog)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", name, err))
	}

	if c.DebugBytecode {
		if err := bytecode.Disassemble(stdio.Stdout, img, nil); err != nil {
			return printError(stdio, err)
		}
	}

	if !c.Run {
		return nil
	}

	vm := &machine.VM{Stdout: stdio.Stdout}
	if c.DebugBytecode {
		vm.Debug = stdio.Stderr
	}
	word, err := vm.Run(img)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", name, err))
	}
	if c.LogLevel != "quiet" {
		fmt.Fprintf(stdio.Stdout, "# %s: exit %d\n", name, word)
	}
	return nil
}
