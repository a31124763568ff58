package abi

import (
	"testing"

	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

func TestSizeOfScalarsAndStrings(t *testing.T) {
	p := tpool.New()
	if Size(p, p.UNIT) != 0 {
		t.Fatalf("Unit should be zero-sized")
	}
	if Size(p, p.INT) != 8 {
		t.Fatalf("Int should be 8 bytes")
	}
	if Size(p, p.STR) != 16 {
		t.Fatalf("Str should be a 16-byte fat pointer")
	}
}

func TestSizeOfRecursiveStructFallsBackToPointerWidth(t *testing.T) {
	p := tpool.New()
	names := ident.New()
	selfName := names.Intern("Node")
	// A struct containing a field of its own type (e.g. via Applied(Node))
	// should not diverge: an Applied field is sized as a pointer without
	// recursing into the named type.
	recursive := p.StructType(selfName, []tpool.Field{
		{Name: names.Intern("next"), Type: p.Applied(selfName, nil)},
	})
	size := Size(p, recursive)
	if size <= 0 {
		t.Fatalf("expected a positive fallback size, got %d", size)
	}
}

func TestComputeParamPassing(t *testing.T) {
	p := tpool.New()
	names := ident.New()
	xs := names.Intern("xs")
	sig := &borrow.AnnotatedSig{
		RetType: p.UNIT,
		Params: []borrow.ParamAnnotation{
			{Name: xs, Type: p.List(p.INT), Ownership: borrow.Borrowed, Class: borrow.ClassRefCounted},
		},
	}
	fa := Compute(p, sig, "process")
	if fa.Conv != ConvFast {
		t.Fatalf("expected Fast convention for an ordinary function")
	}
	if fa.Params[0].Kind != Reference {
		t.Fatalf("expected a Borrowed List param to pass by Reference, got %v", fa.Params[0].Kind)
	}
	if fa.Return.Kind != Void {
		t.Fatalf("expected Unit return to be Void")
	}
}

func TestComputeUsesCConventionForMainAndRuntimeIntrinsics(t *testing.T) {
	p := tpool.New()
	sig := &borrow.AnnotatedSig{RetType: p.UNIT}
	if Compute(p, sig, "main").Conv != ConvC {
		t.Fatalf("expected main to use the C convention")
	}
	if Compute(p, sig, "ori_rc_retain").Conv != ConvC {
		t.Fatalf("expected an ori_-prefixed runtime symbol to use the C convention")
	}
}

func TestComputeDirectVsIndirectByteThreshold(t *testing.T) {
	p := tpool.New()
	names := ident.New()
	big := p.StructType(names.Intern("Big"), []tpool.Field{
		{Name: names.Intern("a"), Type: p.INT},
		{Name: names.Intern("b"), Type: p.INT},
		{Name: names.Intern("c"), Type: p.INT},
	})
	sig := &borrow.AnnotatedSig{
		RetType: p.UNIT,
		Params: []borrow.ParamAnnotation{
			{Type: big, Ownership: borrow.Owned, Class: borrow.ClassRefCounted},
		},
	}
	fa := Compute(p, sig, "f")
	if fa.Params[0].Kind != Indirect {
		t.Fatalf("expected a 24-byte struct to pass Indirect, got %v", fa.Params[0].Kind)
	}
}
