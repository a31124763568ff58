package codegen

import (
	"testing"

	"github.com/ori-lang/oric/internal/abi"
	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// sigTable is a trivial SignatureLookup for tests.
type sigTable map[ident.Name]*borrow.AnnotatedSig

func (t sigTable) Lookup(name ident.Name) (*borrow.AnnotatedSig, bool) {
	sig, ok := t[name]
	return sig, ok
}

// buildIdentityModule lowers `def id(x: Int) -> Int { x }` straight
// through canon -> arcir, mirroring how internal/pipeline would feed
// codegen in the real compiler driver.
func buildIdentityModule(t *testing.T) (*arcir.Module, *tpool.Pool, *ident.Interner, sigTable) {
	t.Helper()
	names := ident.New()
	arena := canon.NewArena(names)
	pool := tpool.New()
	diags := &diag.Queue{}

	x := names.Intern("x")
	xRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: x})
	body := arena.Alloc(canon.Node{Kind: canon.KBlock, A: xRef})

	b := arcir.NewBuilder(arena, map[canon.Id]tpool.Idx{xRef: pool.INT, body: pool.INT}, names, pool, diags)
	fnName := names.Intern("id")
	fn := b.LowerFunction(fnName, []ident.Name{x}, []tpool.Idx{pool.INT}, pool.INT, body)
	b.Module.Functions = append(b.Module.Functions, fn)

	sig := borrow.Infer(arena, pool, []ident.Name{x}, []tpool.Idx{pool.INT}, body, pool.INT)
	sigs := sigTable{fnName: sig}
	return b.Module, pool, names, sigs
}

func TestEmitModuleIdentityFunctionProducesNoError(t *testing.T) {
	mod, pool, names, sigs := buildIdentityModule(t)
	e, err := New("test_module", "x86_64-unknown-linux-gnu", pool, names)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.EmitModule(mod, sigs); err != nil {
		t.Fatalf("EmitModule: %v", err)
	}
	if len(e.funcs) != 1 {
		t.Fatalf("expected exactly one declared function, got %d", len(e.funcs))
	}
}

func TestDeclareFunctionAppliesSretAttributeForLargeReturn(t *testing.T) {
	names := ident.New()
	pool := tpool.New()
	big := pool.StructType(names.Intern("Big"), []tpool.Field{
		{Name: names.Intern("a"), Type: pool.INT},
		{Name: names.Intern("b"), Type: pool.INT},
		{Name: names.Intern("c"), Type: pool.INT},
	})
	e, err := New("test_module_sret", "x86_64-unknown-linux-gnu", pool, names)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fnName := names.Intern("make_big")
	fn := &arcir.Function{Name: fnName, RetType: big}
	sig := &borrow.AnnotatedSig{RetType: big}
	fa := abi.Compute(pool, sig, "make_big")
	val := e.DeclareFunction(fn, fa, "make_big")
	if val.Name() != "make_big" {
		t.Fatalf("expected the declared function to be named make_big, got %q", val.Name())
	}
}
