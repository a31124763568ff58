package patterns

import (
	"testing"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// fakeInferer is a minimal ExprInferer that resolves every canon.Id to a
// type fixed up-front, for exercising the scoped-binding protocol without
// a full infer.Engine.
type fakeInferer struct {
	pool   *tpool.Pool
	types  map[canon.Id]tpool.Idx
	bound  map[string]tpool.Idx
	selfTy tpool.Idx
}

func (f *fakeInferer) InferUnderBinding(name string, ty tpool.Idx, exprID canon.Id) tpool.Idx {
	if f.bound == nil {
		f.bound = make(map[string]tpool.Idx)
	}
	f.bound[name] = ty
	return f.types[exprID]
}

func (f *fakeInferer) InferPlain(exprID canon.Id) tpool.Idx { return f.types[exprID] }
func (f *fakeInferer) EnclosingFunctionType() tpool.Idx     { return f.selfTy }
func (f *fakeInferer) Pool() *tpool.Pool                    { return f.pool }

func TestMapSchemaRequiresOverAndTransform(t *testing.T) {
	r := NewRegistry()
	p := tpool.New()
	fi := &fakeInferer{pool: p, types: map[canon.Id]tpool.Idx{}}
	inv := &Invocation{Kind: KindMap, Props: map[string]canon.Id{}}
	_, err := r.Infer(fi, inv)
	if err == nil {
		t.Fatalf("expected error for missing required properties")
	}
}

func TestMapSchemaInfersIteratorOfElem(t *testing.T) {
	r := NewRegistry()
	p := tpool.New()
	over := p.List(p.INT)
	transformFn := p.Function([]tpool.Idx{p.INT}, p.STR)
	fi := &fakeInferer{pool: p, types: map[canon.Id]tpool.Idx{
		1: over,
		2: transformFn,
	}}
	inv := &Invocation{Kind: KindMap, Props: map[string]canon.Id{"over": 1, "transform": 2}}
	result, err := r.Infer(fi, inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Tag(result) != tpool.TagIterator {
		t.Fatalf("expected Iterator result, got tag %v", p.Tag(result))
	}
	if p.Elem(result) != p.STR {
		t.Fatalf("expected Iterator<str>, got elem %v", p.Elem(result))
	}
}

func TestKindFromNameRoundTrip(t *testing.T) {
	names := ident.New()
	for _, name := range []string{"map", "filter", "fold", "recurse", "for_pattern"} {
		n := names.Intern(name)
		kind, ok := KindFromName(names, n)
		if !ok {
			t.Fatalf("expected %q to resolve to a Kind", name)
		}
		if kind.String() != name {
			t.Fatalf("round trip mismatch: %q -> %v", name, kind)
		}
	}
}

func TestDetectFusesFilterOverMap(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)

	xs := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: names.Intern("xs")})
	mapFn := arena.Alloc(canon.Node{Kind: canon.KLambda})
	innerMap := arena.Alloc(canon.Node{
		Kind: canon.KFunctionExp,
		Name: names.Intern("map"),
		FuncExpProps: []canon.FunctionExpProp{
			{Name: names.Intern("over"), Value: xs},
			{Name: names.Intern("transform"), Value: mapFn},
		},
	})
	predFn := arena.Alloc(canon.Node{Kind: canon.KLambda})
	outerFilter := arena.Alloc(canon.Node{
		Kind: canon.KFunctionExp,
		Name: names.Intern("filter"),
		FuncExpProps: []canon.FunctionExpProp{
			{Name: names.Intern("over"), Value: innerMap},
			{Name: names.Intern("predicate"), Value: predFn},
		},
	})

	fused := Detect(names, arena, outerFilter)
	if len(fused) != 1 {
		t.Fatalf("expected 1 fusion candidate, got %d", len(fused))
	}
	if fused[0].Kind != KindMapFilter {
		t.Fatalf("expected MapFilter, got %v", fused[0].Kind)
	}
	if fused[0].OuterID != outerFilter || fused[0].InnerID != innerMap {
		t.Fatalf("unexpected ids in fusion result: %+v", fused[0])
	}
}

func TestDetectFindsNoFusionForUnrelatedChain(t *testing.T) {
	names := ident.New()
	arena := canon.NewArena(names)
	xs := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: names.Intern("xs")})
	foldFn := arena.Alloc(canon.Node{Kind: canon.KLambda})
	initV := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 0})
	fold := arena.Alloc(canon.Node{
		Kind: canon.KFunctionExp,
		Name: names.Intern("fold"),
		FuncExpProps: []canon.FunctionExpProp{
			{Name: names.Intern("over"), Value: xs},
			{Name: names.Intern("init"), Value: initV},
			{Name: names.Intern("op"), Value: foldFn},
		},
	})
	fused := Detect(names, arena, fold)
	if len(fused) != 0 {
		t.Fatalf("expected no fusion, got %v", fused)
	}
}
