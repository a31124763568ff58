package debuginfo

import (
	"testing"

	"github.com/ori-lang/oric/internal/tpool"
	"tinygo.org/x/go-llvm"
)

func newTestBuilder(t *testing.T) (*Builder, llvm.Context, *tpool.Pool) {
	t.Helper()
	ctx := llvm.NewContext()
	mod := ctx.NewModule("test")
	irb := ctx.NewBuilder()
	pool := tpool.New()
	return New(mod, irb, pool, "test.ori", "/tmp", "oric", false), ctx, pool
}

func TestResolveDebugTypeCachesPerIdx(t *testing.T) {
	b, _, pool := newTestBuilder(t)
	first := b.resolveDebugType(pool.INT)
	second := b.resolveDebugType(pool.INT)
	if first != second {
		t.Fatalf("expected resolveDebugType to cache and return the same metadata for a repeated type")
	}
}

func TestResolveDebugTypeFallsBackAndWarnsOnce(t *testing.T) {
	b, _, pool := newTestBuilder(t)
	var warnings int
	b.SetWarnSink(func(string) { warnings++ })

	unresolved := pool.FreshVar()
	b.resolveDebugType(unresolved)
	b.resolveDebugType(unresolved)
	if warnings != 1 {
		t.Fatalf("expected exactly one warning for a repeatedly-unmapped type, got %d", warnings)
	}
}

func TestCreateFunctionPushesAndPopScopeRestores(t *testing.T) {
	b, _, pool := newTestBuilder(t)
	subroutine := b.CreateSubroutineType([]tpool.Idx{pool.INT}, pool.INT)
	before := b.currentScope()
	b.CreateFunction("f", "f", 1, subroutine, true, true)
	if b.currentScope() == before {
		t.Fatalf("expected CreateFunction to push a new scope")
	}
	b.PopScope()
	if b.currentScope() != before {
		t.Fatalf("expected PopScope to restore the enclosing scope")
	}
}

func TestFinalizeDoesNotPanic(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	b.Finalize()
}
