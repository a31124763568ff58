package infer

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/tpool"
)

// primitiveIdx maps the surface names of built-in scalar types to their
// pool Idx. Container
// constructors (List, Option, ...) are handled separately in
// ResolveTypeExpr since they carry a type argument.
func primitiveIdx(p *tpool.Pool, names *ident.Interner, name ident.Name) (tpool.Idx, bool) {
	switch names.Lookup(name) {
	case "Int":
		return p.INT, true
	case "Float":
		return p.FLOAT, true
	case "Bool":
		return p.BOOL, true
	case "Str":
		return p.STR, true
	case "Char":
		return p.CHAR, true
	case "Byte":
		return p.BYTE, true
	case "Unit":
		return p.UNIT, true
	case "Never":
		return p.NEVER, true
	case "Duration":
		return p.DURATION, true
	case "Size":
		return p.SIZE, true
	case "Ordering":
		return p.ORDERING, true
	default:
		return tpool.NONE, false
	}
}

// oneArgContainers maps each built-in one-argument container type
// constructor to its pool constructor. It is consulted only when exactly
// one type argument is given; a `List<A, B>` is not reported as malformed.
var oneArgContainers = map[string]func(p *tpool.Pool, arg tpool.Idx) tpool.Idx{
	"List":                func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.List(a) },
	"Option":              func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.Option(a) },
	"Set":                 func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.Set(a) },
	"Channel":             func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.Channel(a) },
	"Range":               func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.RangeT(a) },
	"Iterator":            func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.Iterator(a) },
	"DoubleEndedIterator": func(p *tpool.Pool, a tpool.Idx) tpool.Idx { return p.DoubleEndedIterator(a) },
}

// ResolveTypeExpr resolves a surface type annotation against reg (for
// user-defined structs/enums/newtypes/aliases) and the pool's built-in
// constructors (spec.md §3, "Type registry entry"; §4.2, "Type
// expressions"). A bare `Map<K, V>`/`Result<Ok, Err>` spelled as a
// NamedTypeExpr with two Args resolves to the pool's two-argument
// constructors directly, since the surface grammar has no dedicated node
// for them. An InferTypeExpr (an omitted annotation) resolves to a fresh
// type variable for inference to solve.
//
// rigid resolves a function's own generic type parameters (spec.md §4.2,
// "Generic parameters") to the RigidVar the enclosing FuncDecl's
// generalization pass already allocated for them; it may be nil for a
// context with no type parameters in scope (module-level const/type
// declarations).
func ResolveTypeExpr(p *tpool.Pool, reg *TypeRegistry, names *ident.Interner, rigid map[ident.Name]tpool.Idx, te ptree.TypeExpr) tpool.Idx {
	switch t := te.(type) {
	case nil, *ptree.InferTypeExpr:
		return p.FreshVar()
	case *ptree.NamedTypeExpr:
		return resolveNamed(p, reg, names, rigid, t)
	case *ptree.FunctionTypeExpr:
		params := make([]tpool.Idx, len(t.Params))
		for i, pt := range t.Params {
			params[i] = ResolveTypeExpr(p, reg, names, rigid, pt)
		}
		return p.Function(params, ResolveTypeExpr(p, reg, names, rigid, t.Return))
	case *ptree.TupleTypeExpr:
		elems := make([]tpool.Idx, len(t.Elems))
		for i, et := range t.Elems {
			elems[i] = ResolveTypeExpr(p, reg, names, rigid, et)
		}
		return p.Tuple(elems)
	default:
		return p.ERROR
	}
}

func resolveNamed(p *tpool.Pool, reg *TypeRegistry, names *ident.Interner, rigid map[ident.Name]tpool.Idx, t *ptree.NamedTypeExpr) tpool.Idx {
	if len(t.Args) == 0 {
		if idx, ok := rigid[t.Name]; ok {
			return idx
		}
		if idx, ok := primitiveIdx(p, names, t.Name); ok {
			return idx
		}
		if entry, ok := reg.ByName(t.Name); ok {
			return entry.Idx
		}
		// A name that is neither a bound type parameter nor yet a
		// registered declaration is a forward reference to a struct/enum
		// declared later in the module; internal/abi and internal/codegen
		// already treat TagNamed uniformly as a pointer-width indirection
		// (DESIGN.md, internal/abi Open Question), so an unresolved name
		// can stand in for it without waiting on declaration order.
		return p.Named(t.Name)
	}

	args := make([]tpool.Idx, len(t.Args))
	for i, a := range t.Args {
		args[i] = ResolveTypeExpr(p, reg, names, rigid, a)
	}

	name := names.Lookup(t.Name)
	if ctor, ok := oneArgContainers[name]; ok && len(args) == 1 {
		return ctor(p, args[0])
	}
	if name == "Map" && len(args) == 2 {
		return p.Map(args[0], args[1])
	}
	if name == "Result" && len(args) == 2 {
		return p.Result(args[0], args[1])
	}
	if entry, ok := reg.ByName(t.Name); ok {
		return entry.Idx
	}
	return p.Applied(t.Name, args)
}
