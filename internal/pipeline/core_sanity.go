// Package pipeline wires oric's stages together: canonicalization, type
// inference, borrow inference, ARC-IR lowering, ABI computation, LLVM code
// generation, debug info, the incremental cache, and the linker driver.
package pipeline

import (
	"fmt"

	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/ident"
)

// IRSanityError reports an ARC-IR invariant violation caught before codegen,
// following the error-code-plus-suggestion shape the teacher's Core sanity
// checker used for its own IR invariants.
type IRSanityError struct {
	Code       string
	Message    string
	Function   string
	Suggestion string
}

func (e *IRSanityError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (in %s). %s", e.Code, e.Message, e.Function, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s (in %s)", e.Code, e.Message, e.Function)
}

// CheckFunction verifies ARC-IR invariants internal/codegen relies on but
// does not itself re-validate: every OpPhi's PhiArgs count matches its
// block's predecessor count (codegen.wirePhis zips them in matching order
// with no explicit per-argument predecessor tag), and every block ends in
// exactly one terminator (guaranteed structurally by arcir.Block, so this
// only checks the phi invariant, which isn't).
func CheckFunction(names *ident.Interner, fn *arcir.Function) error {
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			if instr.Op != arcir.OpPhi {
				continue
			}
			if len(instr.PhiArgs) != len(blk.Preds) {
				return &IRSanityError{
					Code:     "ARC_PHI001",
					Message:  fmt.Sprintf("phi has %d argument(s) but block has %d predecessor(s)", len(instr.PhiArgs), len(blk.Preds)),
					Function: names.Lookup(fn.Name),
					Suggestion: "file an internal bug against the ARC-IR builder's phi construction",
				}
			}
		}
	}
	return nil
}

// CheckModule runs CheckFunction over every function in mod, returning the
// first violation found.
func CheckModule(names *ident.Interner, mod *arcir.Module) error {
	for _, fn := range mod.Functions {
		if err := CheckFunction(names, fn); err != nil {
			return err
		}
	}
	return nil
}
