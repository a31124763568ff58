package infer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/tpool"
)

func TestRegisterTypeDeclsStruct(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	point := names.Intern("Point")
	m := &ptree.Module{Items: []ptree.Item{
		&ptree.TypeDecl{
			Name: point,
			Kind: ptree.DeclStruct,
			Fields: []ptree.FieldDecl{
				{Name: names.Intern("x"), Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
				{Name: names.Intern("y"), Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
			},
		},
	}}

	RegisterTypeDecls(p, reg, names, m)

	entry, ok := reg.ByName(point)
	require.True(t, ok, "expected Point to be registered")
	require.Equal(t, RegStruct, entry.Kind)

	name, fields := p.StructParts(entry.Idx)
	require.Equal(t, point, name)
	require.Len(t, fields, 2)
	require.Equal(t, p.INT, fields[0].Type)
	require.Equal(t, p.INT, fields[1].Type)
}

func TestRegisterTypeDeclsEnumIndexesVariants(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	option := names.Intern("Maybe")
	some := names.Intern("Some")
	none := names.Intern("None")
	m := &ptree.Module{Items: []ptree.Item{
		&ptree.TypeDecl{
			Name: option,
			Kind: ptree.DeclEnum,
			Variants: []ptree.VariantDecl{
				{Name: some, Kind: ptree.VariantTuple, Types: []ptree.TypeExpr{&ptree.NamedTypeExpr{Name: names.Intern("Int")}}},
				{Name: none, Kind: ptree.VariantUnit},
			},
		},
	}}

	RegisterTypeDecls(p, reg, names, m)

	entry, ok := reg.ByName(option)
	require.True(t, ok)
	require.Equal(t, RegEnum, entry.Kind, "expected Maybe registered as an enum")

	owner, ok := reg.VariantOwner(some)
	require.True(t, ok)
	require.Equal(t, option, owner.Name, "expected Some to be indexed under Maybe")

	owner, ok = reg.VariantOwner(none)
	require.True(t, ok)
	require.Equal(t, option, owner.Name, "expected None to be indexed under Maybe")
}

func TestRegisterTypeDeclsNewtypeAndAlias(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	userId := names.Intern("UserId")
	handler := names.Intern("Handler")
	m := &ptree.Module{Items: []ptree.Item{
		&ptree.TypeDecl{Name: userId, Kind: ptree.DeclNewtype, Underlying: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		&ptree.TypeDecl{Name: handler, Kind: ptree.DeclAlias, Underlying: &ptree.FunctionTypeExpr{
			Params: []ptree.TypeExpr{&ptree.NamedTypeExpr{Name: names.Intern("Int")}},
			Return: &ptree.NamedTypeExpr{Name: names.Intern("Unit")},
		}},
	}}

	RegisterTypeDecls(p, reg, names, m)

	entry, ok := reg.ByName(userId)
	require.True(t, ok)
	require.Equal(t, RegNewtype, entry.Kind)
	require.Equal(t, p.INT, entry.Idx, "expected UserId newtype to resolve to Int")

	aliasEntry, ok := reg.ByName(handler)
	require.True(t, ok, "expected Handler alias to be registered")
	require.Equal(t, RegAlias, aliasEntry.Kind)
	require.Equal(t, tpool.TagFunction, p.Tag(aliasEntry.Idx), "expected Handler to resolve to a function type")
}

func TestRegisterTypeDeclsSkipsNonTypeItems(t *testing.T) {
	names := ident.New()
	p := tpool.New()
	reg := NewTypeRegistry()

	m := &ptree.Module{Items: []ptree.Item{
		&ptree.FuncDecl{Name: names.Intern("main")},
	}}

	RegisterTypeDecls(p, reg, names, m)
	_, ok := reg.ByName(names.Intern("main"))
	require.False(t, ok, "a FuncDecl item must not be registered as a type")
}
