package infer

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/tpool"
)

// RegisterTypeDecls populates reg with every struct/enum/newtype/alias
// declared at module scope, so ResolveTypeExpr can look them up by name
// while resolving function signatures and bodies (spec.md §3, "Type
// registry entry"). Newtype and alias declarations register their
// underlying type directly under the declared name rather than a distinct
// pool shape, since neither introduces a new runtime representation.
func RegisterTypeDecls(p *tpool.Pool, reg *TypeRegistry, names *ident.Interner, m *ptree.Module) {
	for _, item := range m.Items {
		decl, ok := item.(*ptree.TypeDecl)
		if !ok {
			continue
		}
		switch decl.Kind {
		case ptree.DeclStruct:
			fields := make([]tpool.Field, len(decl.Fields))
			for i, f := range decl.Fields {
				fields[i] = tpool.Field{Name: f.Name, Type: ResolveTypeExpr(p, reg, names, nil, f.Type)}
			}
			idx := p.StructType(decl.Name, fields)
			reg.Register(&TypeEntry{Name: decl.Name, Idx: idx, Kind: RegStruct, Span: decl.Span, IsPublic: decl.IsPublic})
		case ptree.DeclEnum:
			variants := make([]tpool.Variant, len(decl.Variants))
			for i, v := range decl.Variants {
				var fieldTypes []tpool.Idx
				switch v.Kind {
				case ptree.VariantTuple:
					fieldTypes = make([]tpool.Idx, len(v.Types))
					for j, t := range v.Types {
						fieldTypes[j] = ResolveTypeExpr(p, reg, names, nil, t)
					}
				case ptree.VariantRecord:
					fieldTypes = make([]tpool.Idx, len(v.Fields))
					for j, f := range v.Fields {
						fieldTypes[j] = ResolveTypeExpr(p, reg, names, nil, f.Type)
					}
				}
				variants[i] = tpool.Variant{Name: v.Name, Fields: fieldTypes}
			}
			idx := p.EnumType(decl.Name, variants)
			entry := &TypeEntry{Name: decl.Name, Idx: idx, Kind: RegEnum, Span: decl.Span, IsPublic: decl.IsPublic}
			reg.Register(entry)
			for _, v := range decl.Variants {
				reg.RegisterVariant(v.Name, entry)
			}
		case ptree.DeclNewtype, ptree.DeclAlias:
			idx := ResolveTypeExpr(p, reg, names, nil, decl.Underlying)
			kind := RegNewtype
			if decl.Kind == ptree.DeclAlias {
				kind = RegAlias
			}
			reg.Register(&TypeEntry{Name: decl.Name, Idx: idx, Kind: kind, Span: decl.Span, IsPublic: decl.IsPublic})
		}
	}
}
