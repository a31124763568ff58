package infer

import (
	"fmt"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/patterns"
	"github.com/ori-lang/oric/internal/tpool"
)

// Engine runs Damas–Milner-with-rank inference over a canon.Arena,
// recording a resolved type for every canonical expression id (spec.md
// §4.4, invariant 6 of §3).
type Engine struct {
	Pool    *tpool.Pool
	Arena   *canon.Arena
	Names   *ident.Interner
	Diags   *diag.Queue
	Types   *TypeRegistry
	Traits  *TraitRegistry
	Patterns *patterns.Registry

	// Builtins holds the built-in constructor/conversion function schemes
	// (Some/None/Ok/Err, int/float/str/byte/bool/char), looked up when an
	// identifier misses the environment (spec.md §4.4, "Identifiers").
	Builtins map[ident.Name]tpool.Idx

	// Resolved maps every canonical expression id to its inferred type,
	// satisfying invariant 6 of spec.md §3. A failed inference records
	// Pool.ERROR rather than leaving the id unmapped, so downstream stages
	// can proceed (spec.md §7).
	Resolved map[canon.Id]tpool.Idx

	// loopStack, pushed while inferring a Loop/For body, holds each
	// enclosing loop's shared result type variable, which every Break in
	// that loop must unify with.
	loopStack []tpool.Idx

	// currentFunctionType is the scheme of the function body currently
	// being inferred, used by the `recurse` pattern's EnclosingFunction
	// scoped binding (spec.md §4.5). NONE outside a function body.
	currentFunctionType tpool.Idx
}

// NewEngine returns an inference engine over the given pool/arena, with the
// built-in constructors pre-populated.
func NewEngine(pool *tpool.Pool, arena *canon.Arena, names *ident.Interner, diags *diag.Queue) *Engine {
	e := &Engine{
		Pool:     pool,
		Arena:    arena,
		Names:    names,
		Diags:    diags,
		Types:    NewTypeRegistry(),
		Traits:   NewTraitRegistry(names),
		Patterns: patterns.NewRegistry(),
		Builtins: make(map[ident.Name]tpool.Idx),
		Resolved: make(map[canon.Id]tpool.Idx),
		currentFunctionType: tpool.NONE,
	}
	e.seedBuiltins()
	return e
}

func (e *Engine) seedBuiltins() {
	p := e.Pool
	mono := func(n string, ty tpool.Idx) {
		e.Builtins[e.Names.Intern(n)] = ty
	}
	a := p.FreshVar()
	mono("Some", p.Function([]tpool.Idx{a}, p.Option(a)))
	mono("None", p.Option(p.FreshVar()))
	ok, errv := p.FreshVar(), p.FreshVar()
	mono("Ok", p.Function([]tpool.Idx{ok}, p.Result(ok, errv)))
	mono("Err", p.Function([]tpool.Idx{errv}, p.Result(ok, errv)))
	mono("int", p.Function([]tpool.Idx{p.FreshVar()}, p.INT))
	mono("float", p.Function([]tpool.Idx{p.FreshVar()}, p.FLOAT))
	mono("str", p.Function([]tpool.Idx{p.FreshVar()}, p.STR))
	mono("byte", p.Function([]tpool.Idx{p.FreshVar()}, p.BYTE))
	mono("bool", p.Function([]tpool.Idx{p.FreshVar()}, p.BOOL))
	mono("char", p.Function([]tpool.Idx{p.FreshVar()}, p.CHAR))
}

// record stores the resolved type for id and returns it, upholding
// invariant 6 of spec.md §3 unconditionally.
func (e *Engine) record(id canon.Id, ty tpool.Idx) tpool.Idx {
	e.Resolved[id] = ty
	return ty
}

// errorAt records Pool.ERROR for id and returns it, the "possibly-degraded
// artifact" propagation policy of spec.md §7.
func (e *Engine) errorAt(id canon.Id) tpool.Idx {
	return e.record(id, e.Pool.ERROR)
}

func (e *Engine) reportMismatch(id canon.Id, phase string, err *tpool.UnifyError) {
	if err == nil {
		return
	}
	node := e.Arena.Get(id)
	var d *diag.Diagnostic
	switch err.Kind {
	case tpool.ErrInfiniteType:
		d = diag.New(phase, diag.InfiniteType, diag.SeverityError, node.Span,
			fmt.Sprintf("infinite type: %s occurs within %s", e.Pool.String(err.Var, e.Names), e.Pool.String(err.Found, e.Names)))
	case tpool.ErrArgCountMismatch:
		d = diag.New(phase, diag.WrongArity, diag.SeverityError, node.Span,
			fmt.Sprintf("expected %d arguments, found %d", err.Wanted, err.Got))
	case tpool.ErrRigidMismatch:
		d = diag.New(phase, diag.RigidMismatch, diag.SeverityError, node.Span,
			fmt.Sprintf("expected type parameter %s, found %s", e.Names.Lookup(err.Rigid), e.Pool.String(err.Found, e.Names)))
	default:
		d = diag.New(phase, diag.TypeMismatch, diag.SeverityError, node.Span,
			fmt.Sprintf("expected %s, found %s", e.Pool.String(err.Expected, e.Names), e.Pool.String(err.Found, e.Names)))
		if e.Pool.Resolve(err.Expected) == e.Pool.BOOL && e.Pool.Tag(err.Found) != tpool.TagBool {
			d.WithNote("expected a bool here")
		}
	}
	e.Diags.Push(d)
}

// InferFunction infers a top-level function body, recording selfTy as the
// scheme `recurse` patterns within it should bind `self` to (spec.md §4.5,
// "EnclosingFunction"). Callers that don't yet know a function's declared
// type may pass a fresh variable; it only matters when the body contains a
// `recurse` pattern.
func (e *Engine) InferFunction(id canon.Id, env *Env, selfTy tpool.Idx) tpool.Idx {
	prev := e.currentFunctionType
	e.currentFunctionType = selfTy
	defer func() { e.currentFunctionType = prev }()
	return e.Infer(id, env)
}

// Infer infers the type of the canonical expression at id under env,
// recording the result for every subexpression visited (spec.md §4.4).
func (e *Engine) Infer(id canon.Id, env *Env) tpool.Idx {
	if id == canon.NONE {
		return e.Pool.UNIT
	}
	n := e.Arena.Get(id)
	p := e.Pool

	switch n.Kind {
	case canon.KInt:
		return e.record(id, p.INT)
	case canon.KFloat:
		return e.record(id, p.FLOAT)
	case canon.KBool:
		return e.record(id, p.BOOL)
	case canon.KStr:
		return e.record(id, p.STR)
	case canon.KChar:
		return e.record(id, p.CHAR)
	case canon.KUnit:
		return e.record(id, p.UNIT)
	case canon.KDuration:
		return e.record(id, p.DURATION)
	case canon.KSize:
		return e.record(id, p.SIZE)

	case canon.KIdent:
		return e.record(id, e.inferIdent(id, n, env))

	case canon.KSelfRef:
		return e.record(id, p.SELF_TYPE)

	case canon.KBinary:
		return e.record(id, e.inferBinary(id, n, env))
	case canon.KUnary:
		return e.record(id, e.inferUnary(id, n, env))
	case canon.KCast:
		e.Infer(n.A, env)
		return e.record(id, p.FreshVar())

	case canon.KCall:
		return e.record(id, e.inferCall(id, n, env))
	case canon.KMethodCall:
		// Method resolution against the trait/impl registry is a larger
		// surface than the core's inference contract requires here; the
		// receiver and arguments still get their own resolved types so
		// invariant 6 holds for every subexpression.
		e.Infer(n.A, env)
		for _, argID := range e.Arena.Children(n.Children) {
			e.Infer(argID, env)
		}
		return e.record(id, p.FreshVar())

	case canon.KField:
		e.Infer(n.A, env)
		return e.record(id, p.FreshVar())
	case canon.KIndex:
		recv := e.Infer(n.A, env)
		e.Infer(n.B, env)
		if p.Tag(recv) == tpool.TagList {
			return e.record(id, p.Elem(recv))
		}
		return e.record(id, p.FreshVar())

	case canon.KIf:
		return e.record(id, e.inferIf(id, n, env))
	case canon.KMatch:
		return e.record(id, e.inferMatch(id, n, env))
	case canon.KFor:
		return e.record(id, e.inferFor(id, n, env))
	case canon.KLoop:
		return e.record(id, e.inferLoop(id, n, env))
	case canon.KBreak:
		return e.record(id, e.inferBreak(id, n, env))
	case canon.KContinue:
		if n.A != canon.NONE {
			e.Infer(n.A, env)
		}
		return e.record(id, p.NEVER)
	case canon.KTry:
		return e.record(id, e.inferTry(id, n, env))
	case canon.KAwait:
		inner := e.Infer(n.A, env)
		return e.record(id, inner)

	case canon.KBlock:
		return e.record(id, e.inferBlock(id, n, env))
	case canon.KLambda:
		return e.record(id, e.inferLambda(id, n, env))

	case canon.KList:
		return e.record(id, e.inferList(id, n, env))
	case canon.KTuple:
		elems := e.Arena.Children(n.Children)
		tys := make([]tpool.Idx, len(elems))
		for i, c := range elems {
			tys[i] = e.Infer(c, env)
		}
		return e.record(id, p.Tuple(tys))
	case canon.KMap:
		return e.record(id, e.inferMap(id, n, env))
	case canon.KStruct:
		return e.record(id, e.inferStruct(id, n, env))
	case canon.KRange:
		return e.record(id, e.inferRange(id, n, env))

	case canon.KOk:
		inner := e.Infer(n.A, env)
		return e.record(id, p.Result(inner, p.FreshVar()))
	case canon.KErr:
		inner := e.Infer(n.A, env)
		return e.record(id, p.Result(p.FreshVar(), inner))
	case canon.KSome:
		inner := e.Infer(n.A, env)
		return e.record(id, p.Option(inner))
	case canon.KNone:
		return e.record(id, p.Option(p.FreshVar()))

	case canon.KWithCapability:
		e.Infer(n.A, env)
		body := e.Infer(n.B, env)
		d := diag.New("lower", diag.UnsupportedInThisRelease, diag.SeverityWarning, n.Span,
			"with-capability blocks are unsupported in this release's ARC lowerer")
		e.Diags.Push(d)
		return e.record(id, body)

	case canon.KFunctionExp:
		return e.record(id, e.inferFunctionExp(id, n, env))

	case canon.KFormatWith:
		e.Infer(n.A, env)
		e.Infer(n.B, env)
		return e.record(id, p.STR)

	case canon.KError:
		return e.errorAt(id)

	default:
		return e.errorAt(id)
	}
}

func (e *Engine) inferIdent(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	if scheme, ok := env.Lookup(n.Ref); ok {
		return p.Instantiate(scheme)
	}
	if ty, ok := e.Builtins[n.Ref]; ok {
		return p.Instantiate(ty)
	}
	if owner, ok := e.Types.VariantOwner(n.Ref); ok {
		return owner.Idx
	}
	if entry, ok := e.Types.ByName(n.Ref); ok {
		return entry.Idx
	}
	d := diag.New("typecheck", diag.UnknownIdent, diag.SeverityError, n.Span,
		fmt.Sprintf("unknown identifier `%s`", e.Names.Lookup(n.Ref)))
	d.SuggestFieldTypo(n.Span, e.Names.Lookup(n.Ref), e.identCandidates(env))
	e.Diags.Push(d)
	return p.ERROR
}

// identCandidates lists every name a bare-identifier typo could plausibly
// mean: everything currently in scope plus every built-in constructor
// (spec.md §7, SUPPLEMENTED FEATURES: "UnknownIdent compute[s] Levenshtein
// edit distance against candidate names").
func (e *Engine) identCandidates(env *Env) []string {
	out := env.Names(e.Names)
	for name := range e.Builtins {
		out = append(out, e.Names.Lookup(name))
	}
	return out
}
