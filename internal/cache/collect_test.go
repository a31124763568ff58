package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
)

func TestCollectGathersCalleesInOrder(t *testing.T) {
	names := ident.New()
	b := canon.NewBuilder(names, diag.NewQueue())

	helper := names.Intern("helper")
	other := names.Intern("other")
	expr := &ptree.Call{
		Func: &ptree.Ident{Name: helper},
		Args: []ptree.Expr{&ptree.Call{Func: &ptree.Ident{Name: other}}},
	}
	root := b.LowerExpr(expr)

	callees, _ := Collect(b.Arena, root)
	// Args are walked after the callee position, so the inner call to
	// "other" is collected after the outer call to "helper".
	if diff := cmp.Diff([]ident.Name{helper, other}, callees); diff != "" {
		t.Fatalf("callee order mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectGathersMethodCallName(t *testing.T) {
	names := ident.New()
	b := canon.NewBuilder(names, diag.NewQueue())

	push := names.Intern("push")
	expr := &ptree.MethodCall{
		Receiver: &ptree.Ident{Name: names.Intern("xs")},
		Method:   push,
		Args:     []ptree.Expr{&ptree.IntLit{Value: 1}},
	}
	root := b.LowerExpr(expr)

	callees, _ := Collect(b.Arena, root)
	require.Equal(t, []ident.Name{push}, callees)
}

func TestCollectGathersGlobalConstants(t *testing.T) {
	names := ident.New()
	b := canon.NewBuilder(names, diag.NewQueue())

	root := b.LowerExpr(&ptree.IntLit{Value: 42})

	_, globals := Collect(b.Arena, root)
	require.Len(t, globals, 1, "expected 1 referenced constant")
}

func TestCollectDuplicateCallsAreKept(t *testing.T) {
	names := ident.New()
	b := canon.NewBuilder(names, diag.NewQueue())

	log := names.Intern("log")
	expr := &ptree.BinaryOp{
		Op:    "+",
		Left:  &ptree.Call{Func: &ptree.Ident{Name: log}},
		Right: &ptree.Call{Func: &ptree.Ident{Name: log}},
	}
	root := b.LowerExpr(expr)

	callees, _ := Collect(b.Arena, root)
	require.Len(t, callees, 2, "a callee invoked twice must be counted twice")
}

func TestCollectNoneIdIsSafe(t *testing.T) {
	names := ident.New()
	b := canon.NewBuilder(names, diag.NewQueue())
	callees, globals := Collect(b.Arena, canon.NONE)
	require.Empty(t, callees)
	require.Empty(t, globals)
}
