package borrow

import (
	"testing"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

func TestClassifyArcScalarVsRefCounted(t *testing.T) {
	p := tpool.New()
	if ClassifyArc(p, p.INT) != ClassScalar {
		t.Fatalf("expected Int to be Scalar")
	}
	if ClassifyArc(p, p.STR) != ClassRefCounted {
		t.Fatalf("expected Str to be RefCounted")
	}
	if ClassifyArc(p, p.List(p.INT)) != ClassRefCounted {
		t.Fatalf("expected List to be RefCounted")
	}
	if ClassifyArc(p, p.Option(p.INT)) != ClassScalar {
		t.Fatalf("expected Option<Int> to inherit Scalar")
	}
	if ClassifyArc(p, p.Option(p.STR)) != ClassRefCounted {
		t.Fatalf("expected Option<Str> to be RefCounted")
	}
}

func TestInferBorrowsReadOnlyNonScalarParam(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)
	p := tpool.New()

	xs := names.Intern("xs")
	xsRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: xs})
	method := arena.Alloc(canon.Node{Kind: canon.KMethodCall, A: xsRef, Name: names.Intern("len")})
	block := arena.Alloc(canon.Node{Kind: canon.KBlock, A: method})

	sig := Infer(arena, p, []ident.Name{xs}, []tpool.Idx{p.List(p.INT)}, block, p.INT)
	if sig.Params[0].Ownership != Borrowed {
		t.Fatalf("expected a read-only List param to be Borrowed, got %v", sig.Params[0].Ownership)
	}
}

func TestInferOwnsParamReturnedDirectly(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)
	p := tpool.New()

	xs := names.Intern("xs")
	xsRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: xs})
	block := arena.Alloc(canon.Node{Kind: canon.KBlock, A: xsRef})

	sig := Infer(arena, p, []ident.Name{xs}, []tpool.Idx{p.List(p.INT)}, block, p.List(p.INT))
	if sig.Params[0].Ownership != Owned {
		t.Fatalf("expected a directly-returned param to be Owned, got %v", sig.Params[0].Ownership)
	}
}

func TestInferOwnsParamPassedAsCallArgument(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)
	p := tpool.New()

	xs := names.Intern("xs")
	xsRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: xs})
	callee := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: names.Intern("store")})
	call := arena.Alloc(canon.Node{Kind: canon.KCall, A: callee, Children: arena.AllocChildren([]canon.Id{xsRef})})
	block := arena.Alloc(canon.Node{Kind: canon.KBlock, Children: arena.AllocStmts([]canon.Stmt{
		{Kind: canon.StmtExpr, Expr: call},
	})})

	sig := Infer(arena, p, []ident.Name{xs}, []tpool.Idx{p.List(p.INT)}, block, p.UNIT)
	if sig.Params[0].Ownership != Owned {
		t.Fatalf("expected a param passed to a callee to be Owned, got %v", sig.Params[0].Ownership)
	}
}

func TestInferScalarParamAlwaysOwned(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)
	p := tpool.New()

	n := names.Intern("n")
	nRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: n})
	block := arena.Alloc(canon.Node{Kind: canon.KBlock, A: nRef})

	sig := Infer(arena, p, []ident.Name{n}, []tpool.Idx{p.INT}, block, p.INT)
	if sig.Params[0].Ownership != Owned {
		t.Fatalf("Scalar params are always Owned regardless of usage")
	}
	if sig.Params[0].Class != ClassScalar {
		t.Fatalf("expected Int param to classify as Scalar")
	}
}
