// Package comptime implements the compile-time evaluation driver spec.md
// §4.5 describes: reach a fixed point in which the AST contains no
// unresolved `@`-marked call by synthesizing a throwaway bytecode image
// for each one, running it to completion, and substituting the result
// back into the tree.
//
// The teacher's language has no compile-time evaluation concept at all,
// so this package has no direct teacher analog; its shape — discover,
// synthesize, execute, mutate in place, repeat until stable — is new
// code written in the same small-function, explicit-error-return style
// the teacher's internal/maincmd command pipeline uses.
package comptime

import (
	"errors"
	"fmt"

	"github.com/mna/comptimec/lang/ast"
	"github.com/mna/comptimec/lang/compiler"
	"github.com/mna/comptimec/lang/machine"
)

// Driver runs the fixed-point loop of spec.md §4.5 against one Program.
// A Driver is reusable across programs; it holds only tuning knobs.
type Driver struct {
	// MaxSteps bounds the instruction count of every synthesized VM
	// (spec.md §4.5 "implementations SHOULD bound the VM by an
	// instruction-count quota"; §7 "comptime non-termination"). Zero uses
	// machine.DefaultMaxSteps.
	MaxSteps int
}

// Run mutates prog in place, resolving every `is_comptime` call reachable
// from prog.Funcs to a literal, and returns the number of fixed-point
// iterations it took to converge.
//
// Per iteration, every call site discovered in that pass is attempted
// even if an earlier one in the same pass failed, and every failure is
// joined into a single error (spec.md §7's propagation policy: errors
// are not recovered, but a user fixing one comptime failure should not
// have to re-run the driver once per remaining failure to see the
// others).
func (d *Driver) Run(prog *ast.Program) (int, error) {
	iterations := 0
	for {
		sites := discoverSites(prog)
		if len(sites) == 0 {
			return iterations, nil
		}
		iterations++

		var errs []error
		for _, call := range sites {
			if err := d.resolveOne(prog, call); err != nil {
				errs = append(errs, fmt.Errorf("comptime: call to %q at line %d: %w", call.Callee.Name, call.Line(), err))
			}
		}
		if len(errs) > 0 {
			return iterations, errors.Join(errs...)
		}
	}
}

// resolveOne implements one call site's pass through spec.md §4.5's
// protocol steps 2a-2c: synthesize, execute, read, substitute.
func (d *Driver) resolveOne(prog *ast.Program, call *ast.CallExpr) error {
	img, err := compiler.LowerCallSite(prog, call)
	if err != nil {
		return fmt.Errorf("lowering: %w", err)
	}

	vm := &machine.VM{MaxSteps: d.MaxSteps}
	word, err := vm.Run(img)
	if err != nil {
		return fmt.Errorf("execution: %w", err)
	}

	call.IsResolved = true
	call.ResolvedNode = ast.NewResolvedIntLit(word, call.Type)
	return nil
}

// discoverSites walks every function body in prog, in declaration order,
// collecting each `is_comptime && !is_resolved` call node (spec.md §4.5
// "Ordering": "processed in the order discovered by the AST walk").
// CallExpr.Walk does not descend into an already-resolved call's
// original args, so a call resolved earlier in the same pass is never
// revisited.
func discoverSites(prog *ast.Program) []*ast.CallExpr {
	var sites []*ast.CallExpr

	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if call, ok := n.(*ast.CallExpr); ok && call.IsComptime && !call.IsResolved {
			sites = append(sites, call)
		}
		return visit
	}
	ast.Walk(visit, prog)

	return sites
}
