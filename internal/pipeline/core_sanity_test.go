package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/ident"
)

func TestCheckFunctionAcceptsMatchingPhiArity(t *testing.T) {
	names := ident.New()
	fn := &arcir.Function{
		Name: names.Intern("f"),
		Blocks: []*arcir.Block{
			{Id: 0},
			{Id: 1, Preds: []arcir.BlockId{0}},
			{Id: 2, Preds: []arcir.BlockId{0, 1}, Instrs: []arcir.Instr{
				{Op: arcir.OpPhi, PhiArgs: []arcir.VarId{1, 2}},
			}},
		},
	}
	require.NoError(t, CheckFunction(names, fn))
}

func TestCheckFunctionRejectsMismatchedPhiArity(t *testing.T) {
	names := ident.New()
	fn := &arcir.Function{
		Name: names.Intern("g"),
		Blocks: []*arcir.Block{
			{Id: 0},
			{Id: 1, Preds: []arcir.BlockId{0}},
			{Id: 2, Preds: []arcir.BlockId{0, 1}, Instrs: []arcir.Instr{
				{Op: arcir.OpPhi, PhiArgs: []arcir.VarId{1}},
			}},
		},
	}
	err := CheckFunction(names, fn)
	require.Error(t, err, "expected a phi-arity mismatch error")

	sanityErr, ok := err.(*IRSanityError)
	require.True(t, ok, "expected *IRSanityError, got %T", err)
	require.Equal(t, "ARC_PHI001", sanityErr.Code)
}

func TestCheckModuleChecksEveryFunction(t *testing.T) {
	names := ident.New()
	good := &arcir.Function{Name: names.Intern("good")}
	bad := &arcir.Function{
		Name: names.Intern("bad"),
		Blocks: []*arcir.Block{
			{Id: 0, Instrs: []arcir.Instr{{Op: arcir.OpPhi, PhiArgs: []arcir.VarId{1}}}},
		},
	}
	mod := &arcir.Module{Functions: []*arcir.Function{good, bad}}
	require.Error(t, CheckModule(names, mod), "expected CheckModule to surface bad's phi mismatch")
}
