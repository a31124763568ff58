package cache

import (
	"testing"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
)

func TestCombineIsDeterministicAndOrderSensitive(t *testing.T) {
	a := CombineAll(0, 1, 2, 3)
	b := CombineAll(0, 1, 2, 3)
	if a != b {
		t.Fatalf("Combine is not deterministic: %d != %d", a, b)
	}
	c := CombineAll(0, 3, 2, 1)
	if a == c {
		t.Fatalf("Combine should be order-sensitive")
	}
}

func TestBodyHashDiffersOnLiteralChange(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)

	one := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 1})
	two := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 2})

	h1 := BodyHash(arena, nil, one)
	h2 := BodyHash(arena, nil, two)
	if h1 == h2 {
		t.Fatalf("expected different literals to hash differently")
	}
}

func TestBodyHashStableAcrossIdenticalTrees(t *testing.T) {
	names := ident.New()
	arena1 := canon.NewArena(names)
	arena2 := canon.NewArena(names)

	n1 := arena1.Alloc(canon.Node{Kind: canon.KInt, IVal: 42})
	n2 := arena2.Alloc(canon.Node{Kind: canon.KInt, IVal: 42})

	if BodyHash(arena1, nil, n1) != BodyHash(arena2, nil, n2) {
		t.Fatalf("expected structurally identical trees to hash identically")
	}
}

func TestSignatureHashDiffersOnReturnType(t *testing.T) {
	h1 := SignatureHash(nil, 1)
	h2 := SignatureHash(nil, 2)
	if h1 == h2 {
		t.Fatalf("expected different return types to produce different signature hashes")
	}
}

func TestFunctionHashCombinedDiffersWhenAnySubHashChanges(t *testing.T) {
	base := FunctionHash{Body: 1, Signature: 2, Callees: 3, Globals: 4}
	changedBody := FunctionHash{Body: 99, Signature: 2, Callees: 3, Globals: 4}
	if base.Combined() == changedBody.Combined() {
		t.Fatalf("expected a body-only change to change the combined hash")
	}
}

func TestModuleHashDiffersWhenFunctionSetChanges(t *testing.T) {
	h1 := ModuleHash([]uint64{10, 20, 30})
	h2 := ModuleHash([]uint64{10, 20})
	if h1 == h2 {
		t.Fatalf("expected a different function count to change the module hash")
	}
}
