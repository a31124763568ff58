package infer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/tpool"
)

func TestResolveTypeExprPrimitive(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	te := &ptree.NamedTypeExpr{Name: names.Intern("Int")}
	idx := ResolveTypeExpr(p, reg, names, nil, te)
	require.Equal(t, p.INT, idx)
}

func TestResolveTypeExprInferYieldsFreshVar(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	a := ResolveTypeExpr(p, reg, names, nil, nil)
	b := ResolveTypeExpr(p, reg, names, nil, &ptree.InferTypeExpr{})
	require.NotEqual(t, a, b, "two separate omitted annotations must not share a type variable")
	require.True(t, p.IsUnbound(a))
	require.True(t, p.IsUnbound(b))
}

func TestResolveTypeExprRigidTakesPriorityOverPrimitiveLookalike(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	tName := names.Intern("Int")
	rigidT := p.RigidVar(tName)
	rigid := map[ident.Name]tpool.Idx{tName: rigidT}

	te := &ptree.NamedTypeExpr{Name: tName}
	idx := ResolveTypeExpr(p, reg, names, rigid, te)
	require.Equal(t, rigidT, idx, "expected the bound rigid variable")
}

func TestResolveTypeExprOneArgContainer(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	te := &ptree.NamedTypeExpr{
		Name: names.Intern("List"),
		Args: []ptree.TypeExpr{&ptree.NamedTypeExpr{Name: names.Intern("Int")}},
	}
	idx := ResolveTypeExpr(p, reg, names, nil, te)
	require.Equal(t, tpool.TagList, p.Tag(idx))
	require.Equal(t, p.INT, p.Elem(idx))
}

func TestResolveTypeExprTwoArgContainers(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	mapTe := &ptree.NamedTypeExpr{
		Name: names.Intern("Map"),
		Args: []ptree.TypeExpr{
			&ptree.NamedTypeExpr{Name: names.Intern("Str")},
			&ptree.NamedTypeExpr{Name: names.Intern("Int")},
		},
	}
	idx := ResolveTypeExpr(p, reg, names, nil, mapTe)
	require.Equal(t, tpool.TagMap, p.Tag(idx))
	k, v := p.MapKV(idx)
	require.Equal(t, p.STR, k)
	require.Equal(t, p.INT, v)

	resultTe := &ptree.NamedTypeExpr{
		Name: names.Intern("Result"),
		Args: []ptree.TypeExpr{
			&ptree.NamedTypeExpr{Name: names.Intern("Int")},
			&ptree.NamedTypeExpr{Name: names.Intern("Str")},
		},
	}
	ridx := ResolveTypeExpr(p, reg, names, nil, resultTe)
	require.Equal(t, tpool.TagResult, p.Tag(ridx))
}

func TestResolveTypeExprUnknownBareNameFallsBackToNamed(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	widget := names.Intern("Widget")
	te := &ptree.NamedTypeExpr{Name: widget}
	idx := ResolveTypeExpr(p, reg, names, nil, te)
	require.Equal(t, tpool.TagNamed, p.Tag(idx), "expected a Named fallback for an unregistered forward reference")
	require.Equal(t, widget, p.NamedName(idx))
}

func TestResolveTypeExprRegisteredStructWins(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	widget := names.Intern("Widget")
	structIdx := p.StructType(widget, []tpool.Field{{Name: names.Intern("id"), Type: p.INT}})
	reg.Register(&TypeEntry{Name: widget, Idx: structIdx, Kind: RegStruct})

	te := &ptree.NamedTypeExpr{Name: widget}
	idx := ResolveTypeExpr(p, reg, names, nil, te)
	require.Equal(t, structIdx, idx, "expected the registered struct's Idx")
}

func TestResolveTypeExprFunctionAndTuple(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	fte := &ptree.FunctionTypeExpr{
		Params: []ptree.TypeExpr{&ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		Return: &ptree.NamedTypeExpr{Name: names.Intern("Bool")},
	}
	fnIdx := ResolveTypeExpr(p, reg, names, nil, fte)
	require.Equal(t, tpool.TagFunction, p.Tag(fnIdx))
	params, ret := p.FunctionParts(fnIdx)
	require.Equal(t, []tpool.Idx{p.INT}, params)
	require.Equal(t, p.BOOL, ret)

	tte := &ptree.TupleTypeExpr{
		Elems: []ptree.TypeExpr{
			&ptree.NamedTypeExpr{Name: names.Intern("Int")},
			&ptree.NamedTypeExpr{Name: names.Intern("Str")},
		},
	}
	tupIdx := ResolveTypeExpr(p, reg, names, nil, tte)
	require.Equal(t, tpool.TagTuple, p.Tag(tupIdx))
	require.Equal(t, []tpool.Idx{p.INT, p.STR}, p.TupleElems(tupIdx))
}
