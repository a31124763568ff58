// Package patterns implements the first-class pattern registry described
// in spec.md §4.5: a closed set of named patterns (map, filter, fold, …)
// with property schemas, scoped bindings, a type-check contract, and a
// fusion pass over chains of them.
package patterns

import (
	"fmt"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// Kind is the discriminant of a registered pattern.
type Kind uint8

const (
	KindMap Kind = iota
	KindFilter
	KindFold
	KindFind
	KindReduce
	KindScan
	KindForEach
	KindZip
	KindTake
	KindSkip
	KindChunk
	KindFlatMap
	KindRecurse
	KindRun
	KindTry
	KindMatch
	KindForPattern

	// Fused kinds, reported only by Detect (spec.md §4.5 "Fusion");
	// KindMapFilterFold has no fusionTable entry and is never reported.
	KindMapFilter
	KindFilterMap
	KindMapFold
	KindFilterFold
	KindMapFilterFold
	KindMapFind
	KindFilterFind
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindFilter:
		return "filter"
	case KindFold:
		return "fold"
	case KindFind:
		return "find"
	case KindReduce:
		return "reduce"
	case KindScan:
		return "scan"
	case KindForEach:
		return "for_each"
	case KindZip:
		return "zip"
	case KindTake:
		return "take"
	case KindSkip:
		return "skip"
	case KindChunk:
		return "chunk"
	case KindFlatMap:
		return "flat_map"
	case KindRecurse:
		return "recurse"
	case KindRun:
		return "run"
	case KindTry:
		return "try"
	case KindMatch:
		return "match"
	case KindForPattern:
		return "for_pattern"
	case KindMapFilter:
		return "MapFilter"
	case KindFilterMap:
		return "FilterMap"
	case KindMapFold:
		return "MapFold"
	case KindFilterFold:
		return "FilterFold"
	case KindMapFilterFold:
		return "MapFilterFold"
	case KindMapFind:
		return "MapFind"
	case KindFilterFind:
		return "FilterFind"
	default:
		return "?"
	}
}

// ScopeSource describes where a scoped property's binding type comes from
// (spec.md §4.5, "Scoped bindings").
type ScopeSource uint8

const (
	// SameAs(property): the binding's type equals the element type of the
	// named property (typically .over's element type).
	SameAs ScopeSource = iota
	// FunctionReturning(property): the binding's type is a function
	// returning the named property's inferred type.
	FunctionReturning
	// EnclosingFunction: the binding's type is the enclosing function's
	// own signature, used by `recurse` to bind `self`.
	EnclosingFunction
)

// ScopedBinding is one name a pattern's scoped property must bind in its
// local environment before being inferred.
type ScopedBinding struct {
	BindName     string
	Source       ScopeSource
	SourceProp   string // property name Source refers to, empty for EnclosingFunction
}

// Schema is the property contract for one pattern Kind: the required and
// optional property names, which properties are scoped, and a type-check
// contract closing over the registry's own type pool operations.
type Schema struct {
	Kind       Kind
	Required   []string
	Optional   []string
	Scoped     map[string]ScopedBinding
	TypeCheck  func(tc *TypeCheckContext) (tpool.Idx, error)
}

// TypeCheckContext is the {property -> type} mapping handed to a pattern's
// type-check contract (spec.md §4.5, step 3), plus pool access to unify
// element/accumulator types and the receiver (.over) type itself.
type TypeCheckContext struct {
	Pool       *tpool.Pool
	Props      map[string]tpool.Idx
	OverType   tpool.Idx // the .over collection's own type, if present
	ElemType   tpool.Idx // the .over collection's element type, if present
}

// prop looks up a required property's type, returning an error naming it
// if absent — every Schema.TypeCheck should call this for Required names.
func (tc *TypeCheckContext) prop(name string) (tpool.Idx, error) {
	t, ok := tc.Props[name]
	if !ok {
		return tpool.NONE, fmt.Errorf("missing required property `.%s`", name)
	}
	return t, nil
}

// Registry is the closed table of pattern schemas, keyed by Kind.
type Registry struct {
	schemas map[Kind]*Schema
}

// NewRegistry returns a registry pre-populated with every pattern kind
// spec.md §4.5 names.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[Kind]*Schema)}
	for _, s := range builtinSchemas() {
		r.schemas[s.Kind] = s
	}
	return r
}

// Lookup returns the schema for kind, or nil if unregistered.
func (r *Registry) Lookup(kind Kind) *Schema { return r.schemas[kind] }

// KindFromName maps a canon.FunctionExp's Name (the pattern's source-level
// identifier, e.g. "map") to its Kind, per spec.md §4.5's kind tags.
func KindFromName(names *ident.Interner, name ident.Name) (Kind, bool) {
	switch names.Lookup(name) {
	case "map":
		return KindMap, true
	case "filter":
		return KindFilter, true
	case "fold":
		return KindFold, true
	case "find":
		return KindFind, true
	case "reduce":
		return KindReduce, true
	case "scan":
		return KindScan, true
	case "for_each":
		return KindForEach, true
	case "zip":
		return KindZip, true
	case "take":
		return KindTake, true
	case "skip":
		return KindSkip, true
	case "chunk":
		return KindChunk, true
	case "flat_map":
		return KindFlatMap, true
	case "recurse":
		return KindRecurse, true
	case "run":
		return KindRun, true
	case "try":
		return KindTry, true
	case "match":
		return KindMatch, true
	case "for_pattern":
		return KindForPattern, true
	default:
		return 0, false
	}
}

// Invocation is one parsed FunctionExp ready for inference: its kind and
// its properties addressed by name, still in canon.Id form.
type Invocation struct {
	Kind  Kind
	Props map[string]canon.Id
}

// ParseInvocation converts a canon.Node's FuncExpProps side table (keyed by
// interned property name) into an Invocation, resolving the pattern's Kind
// from the node's Name field.
func ParseInvocation(names *ident.Interner, n *canon.Node) (*Invocation, bool) {
	kind, ok := KindFromName(names, n.Name)
	if !ok {
		return nil, false
	}
	props := make(map[string]canon.Id, len(n.FuncExpProps))
	for _, p := range n.FuncExpProps {
		props[names.Lookup(p.Name)] = p.Value
	}
	return &Invocation{Kind: kind, Props: props}, true
}
