package infer

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/token"
	"github.com/ori-lang/oric/internal/tpool"
)

// TypeRegistryKind distinguishes the four declaration kinds a TypeEntry
// can describe (spec.md §3, "Type registry entry").
type TypeRegistryKind uint8

const (
	RegStruct TypeRegistryKind = iota
	RegEnum
	RegNewtype
	RegAlias
)

// TypeEntry is one registered user-defined type.
type TypeEntry struct {
	Name       ident.Name
	Idx        tpool.Idx
	Kind       TypeRegistryKind
	Span       token.Span
	TypeParams []ident.Name
	IsPublic   bool
}

// TypeRegistry is the module-wide catalog of struct/enum/newtype/alias
// declarations, with O(log n) lookup by name and O(1) lookup by Idx
// (spec.md §3). Variant constructor names are indexed separately for O(1)
// dispatch, as the spec requires.
type TypeRegistry struct {
	byName    map[ident.Name]*TypeEntry
	byIdx     map[tpool.Idx]*TypeEntry
	variantOf map[ident.Name]*TypeEntry // constructor name -> owning enum
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName:    make(map[ident.Name]*TypeEntry),
		byIdx:     make(map[tpool.Idx]*TypeEntry),
		variantOf: make(map[ident.Name]*TypeEntry),
	}
}

// Register adds e to the registry, indexing it by name and Idx.
func (r *TypeRegistry) Register(e *TypeEntry) { r.byName[e.Name] = e; r.byIdx[e.Idx] = e }

// RegisterVariant indexes an enum variant constructor name for O(1)
// dispatch during identifier resolution.
func (r *TypeRegistry) RegisterVariant(variant ident.Name, owner *TypeEntry) {
	r.variantOf[variant] = owner
}

// ByName looks up a registered type by name.
func (r *TypeRegistry) ByName(name ident.Name) (*TypeEntry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// ByIdx looks up a registered type by its pool Idx.
func (r *TypeRegistry) ByIdx(idx tpool.Idx) (*TypeEntry, bool) {
	e, ok := r.byIdx[idx]
	return e, ok
}

// Names lists every registered type name, resolved through names —
// candidates for an unknown-type-name typo suggestion.
func (r *TypeRegistry) Names(names *ident.Interner) []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, names.Lookup(name))
	}
	return out
}

// VariantOwner returns the enum TypeEntry that declares the given variant
// constructor name, if any.
func (r *TypeRegistry) VariantOwner(variant ident.Name) (*TypeEntry, bool) {
	e, ok := r.variantOf[variant]
	return e, ok
}

// Trait is a named constraint (spec.md GLOSSARY, "Trait bound").
type Trait struct{ Name ident.Name }

// TraitRegistry resolves whether a concrete type satisfies a trait bound,
// falling back to a built-in table for primitive types when no explicit
// impl is registered (spec.md §4.4, "Bound checking").
type TraitRegistry struct {
	// impls maps (type name, trait name) to whether an impl exists.
	impls map[ident.Name]map[ident.Name]bool

	// assoc maps (type name, projection name) to the resolved associated-
	// type Idx, for where-clauses like `T.Item: Eq`.
	assoc map[ident.Name]map[ident.Name]tpool.Idx

	builtin map[tpool.Tag]map[ident.Name]bool
}

// NewTraitRegistry returns a registry seeded with the built-in trait table
// for primitive types described in spec.md §4.4:
//
//	Int: Eq+Comparable+Clone+Hashable+Default+Printable
//	Str: Eq+Comparable+Clone+Hashable+Default+Printable+Len+IsEmpty
func NewTraitRegistry(names *ident.Interner) *TraitRegistry {
	tr := &TraitRegistry{
		impls:   make(map[ident.Name]map[ident.Name]bool),
		assoc:   make(map[ident.Name]map[ident.Name]tpool.Idx),
		builtin: make(map[tpool.Tag]map[ident.Name]bool),
	}
	mk := func(traits ...string) map[ident.Name]bool {
		m := make(map[ident.Name]bool, len(traits))
		for _, t := range traits {
			m[names.Intern(t)] = true
		}
		return m
	}
	common := []string{"Eq", "Comparable", "Clone", "Hashable", "Default", "Printable"}
	tr.builtin[tpool.TagInt] = mk(common...)
	tr.builtin[tpool.TagFloat] = mk(common...)
	tr.builtin[tpool.TagBool] = mk(common...)
	tr.builtin[tpool.TagChar] = mk(common...)
	tr.builtin[tpool.TagByte] = mk(common...)
	tr.builtin[tpool.TagStr] = mk(append(common, "Len", "IsEmpty")...)
	tr.builtin[tpool.TagList] = mk("Eq", "Clone", "Len", "IsEmpty")
	tr.builtin[tpool.TagDuration] = mk(common...)
	tr.builtin[tpool.TagSize] = mk(common...)
	return tr
}

// RegisterImpl records that typeName implements trait.
func (tr *TraitRegistry) RegisterImpl(typeName, trait ident.Name) {
	m, ok := tr.impls[typeName]
	if !ok {
		m = make(map[ident.Name]bool)
		tr.impls[typeName] = m
	}
	m[trait] = true
}

// RegisterAssoc records the resolved type of an associated-type projection
// for an impl, e.g. `impl Eq for List<T> { type Item = T }`.
func (tr *TraitRegistry) RegisterAssoc(typeName, projection ident.Name, resolved tpool.Idx) {
	byProj, ok := tr.assoc[typeName]
	if !ok {
		byProj = make(map[ident.Name]tpool.Idx)
		tr.assoc[typeName] = byProj
	}
	byProj[projection] = resolved
}

// ResolveProjection looks up the associated type `typeName.projection`
// registered by an impl, used to check where-clauses like `T.Item: Eq`
// (spec.md §4.4, "Where-constraints with associated-type projections").
func (tr *TraitRegistry) ResolveProjection(typeName, projection ident.Name) (tpool.Idx, bool) {
	byProj, ok := tr.assoc[typeName]
	if !ok {
		return tpool.NONE, false
	}
	idx, ok := byProj[projection]
	return idx, ok
}

// Satisfies reports whether ty (after resolution) satisfies trait, either
// via an explicit impl (Named/Applied/Struct/Enum types) or the built-in
// primitive table.
func (tr *TraitRegistry) Satisfies(p *tpool.Pool, ty tpool.Idx, trait ident.Name) bool {
	r := p.Resolve(ty)
	tag := p.Tag(r)
	if builtin, ok := tr.builtin[tag]; ok && builtin[trait] {
		return true
	}
	var typeName ident.Name
	switch tag {
	case tpool.TagNamed:
		typeName = p.NamedName(r)
	case tpool.TagApplied:
		typeName, _ = p.AppliedParts(r)
	case tpool.TagStruct, tpool.TagEnum:
		typeName, _ = p.StructParts(r)
	default:
		return false
	}
	if byTrait, ok := tr.impls[typeName]; ok {
		return byTrait[trait]
	}
	return false
}
