// Package borrow implements the per-parameter ownership and ARC-class
// analysis described in spec.md §4.7. It runs once per function, after
// inference has resolved every expression's type, and produces an
// AnnotatedSig the ABI computer (internal/abi) consumes directly.
package borrow

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// Class is the ARC classification of a type: how a value of that type is
// represented at the ABI boundary (spec.md §4.7, "ARC classes per type").
type Class uint8

const (
	// ClassScalar covers primitives and small Copy-style types: passed by
	// value, never retained or released.
	ClassScalar Class = iota
	// ClassRefCounted covers heap-allocated, reference-counted values:
	// strings, lists, maps, sets, boxed structs/enums, closures.
	ClassRefCounted
	// ClassBorrowed covers reference types that are never themselves owned.
	ClassBorrowed
)

func (c Class) String() string {
	switch c {
	case ClassScalar:
		return "Scalar"
	case ClassRefCounted:
		return "RefCounted"
	case ClassBorrowed:
		return "Borrowed"
	default:
		return "Class(?)"
	}
}

// Ownership is the two-value lattice spec.md §4.7 assigns each parameter.
type Ownership uint8

const (
	Owned Ownership = iota
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "Borrowed"
	}
	return "Owned"
}

// ClassifyArc derives a type's ARC class from its tpool tag. Option takes
// its payload's class; Result is Scalar when both its Ok and Err types are
// Scalar and RefCounted otherwise. Neither wrapper introduces its
// own heap allocation beyond what its payload already requires — an Open
// Question the spec leaves unresolved, decided here in favor of the
// simpler, more optimization-friendly reading.
func ClassifyArc(p *tpool.Pool, ty tpool.Idx) Class {
	switch p.Tag(ty) {
	case tpool.TagInt, tpool.TagFloat, tpool.TagBool, tpool.TagChar, tpool.TagByte,
		tpool.TagUnit, tpool.TagNever, tpool.TagDuration, tpool.TagSize, tpool.TagOrdering:
		return ClassScalar
	case tpool.TagBorrowed:
		return ClassBorrowed
	case tpool.TagOption:
		return ClassifyArc(p, p.Elem(ty))
	case tpool.TagResult:
		ok, errTy := p.ResultOkErr(ty)
		if ClassifyArc(p, ok) == ClassScalar && ClassifyArc(p, errTy) == ClassScalar {
			return ClassScalar
		}
		return ClassRefCounted
	case tpool.TagStr, tpool.TagList, tpool.TagSet, tpool.TagChannel, tpool.TagMap,
		tpool.TagRange, tpool.TagIterator, tpool.TagDoubleEndedIterator,
		tpool.TagFunction, tpool.TagTuple, tpool.TagStruct, tpool.TagEnum,
		tpool.TagApplied, tpool.TagNamed:
		return ClassRefCounted
	default:
		// Var/RigidVar/Scheme/Infer/SelfType/Error should already be
		// resolved by the time borrow inference runs; default to the safe,
		// non-optimizing choice rather than panic.
		return ClassRefCounted
	}
}

// ParamAnnotation is one parameter's borrow-inference result.
type ParamAnnotation struct {
	Name      ident.Name
	Type      tpool.Idx
	Ownership Ownership
	Class     Class
}

// AnnotatedSig is the output spec.md §4.7 says feeds the ABI computer.
type AnnotatedSig struct {
	Params  []ParamAnnotation
	RetType tpool.Idx
	RetClass Class
}

// Infer analyzes one function body and returns its AnnotatedSig. A
// parameter is Borrowed only if its ARC class is non-Scalar and every
// occurrence of its name in body is a read (spec.md §4.7's two
// conditions); all other parameters are Owned, matching the sound but
// conservative default the spec explicitly permits.
func Infer(arena *canon.Arena, pool *tpool.Pool, params []ident.Name, paramTypes []tpool.Idx, body canon.Id, retType tpool.Idx) *AnnotatedSig {
	escaped := make(map[ident.Name]bool)
	collectEscapes(arena, body, escaped, true)

	sig := &AnnotatedSig{RetType: retType, RetClass: ClassifyArc(pool, retType)}
	for i, name := range params {
		var ty tpool.Idx
		if i < len(paramTypes) {
			ty = paramTypes[i]
		}
		class := ClassifyArc(pool, ty)
		own := Owned
		if class != ClassScalar && !escaped[name] {
			own = Borrowed
		}
		sig.Params = append(sig.Params, ParamAnnotation{Name: name, Type: ty, Ownership: own, Class: class})
	}
	return sig
}

// collectEscapes walks body and records every identifier name that occurs
// in a position from which it could outlive the call: returned, stored
// into a let/assign, or built into a collection/struct literal, or passed
// as a call/method argument (conservative: a single-pass analysis cannot
// see whether the callee's matching parameter is itself Borrowed, so any
// argument position counts as escaping). isResult marks the position
// currently holding the function's (or an enclosing block's) trailing
// result value, which escapes via return.
func collectEscapes(a *canon.Arena, id canon.Id, escaped map[ident.Name]bool, isResult bool) {
	if id == canon.NONE {
		return
	}
	n := a.Get(id)
	switch n.Kind {
	case canon.KIdent:
		if isResult {
			escaped[n.Ref] = true
		}
		return
	case canon.KBlock:
		for _, st := range a.Stmts(n.Children) {
			switch st.Kind {
			case canon.StmtExpr:
				collectEscapes(a, st.Expr, escaped, false)
			case canon.StmtLet:
				markStorage(a, st.Let.Init, escaped)
				collectEscapes(a, st.Let.Init, escaped, false)
			case canon.StmtAssign:
				markStorage(a, st.Expr, escaped)
				collectEscapes(a, st.Expr, escaped, false)
			}
		}
		collectEscapes(a, n.A, escaped, isResult)
		return
	case canon.KIf:
		collectEscapes(a, n.A, escaped, false)
		collectEscapes(a, n.B, escaped, isResult)
		collectEscapes(a, n.C, escaped, isResult)
		return
	case canon.KMatch:
		collectEscapes(a, n.A, escaped, false)
		for _, arm := range n.MatchArms {
			collectEscapes(a, arm.Guard, escaped, false)
			collectEscapes(a, arm.Body, escaped, isResult)
		}
		return
	case canon.KCall:
		collectEscapes(a, n.A, escaped, false)
		for _, argID := range a.Children(n.Children) {
			markStorage(a, argID, escaped)
			collectEscapes(a, argID, escaped, false)
		}
		return
	case canon.KMethodCall:
		collectEscapes(a, n.A, escaped, false)
		for _, argID := range a.Children(n.Children) {
			markStorage(a, argID, escaped)
			collectEscapes(a, argID, escaped, false)
		}
		return
	case canon.KList, canon.KTuple:
		for _, c := range a.Children(n.Children) {
			markStorage(a, c, escaped)
			collectEscapes(a, c, escaped, false)
		}
		return
	case canon.KMap:
		for _, e := range n.MapEntries {
			markStorage(a, e.Key, escaped)
			markStorage(a, e.Value, escaped)
			collectEscapes(a, e.Key, escaped, false)
			collectEscapes(a, e.Value, escaped, false)
		}
		return
	case canon.KStruct:
		for _, f := range n.StructFields {
			markStorage(a, f.Value, escaped)
			collectEscapes(a, f.Value, escaped, false)
		}
		return
	case canon.KOk, canon.KErr, canon.KSome:
		markStorage(a, n.A, escaped)
		collectEscapes(a, n.A, escaped, isResult)
		return
	case canon.KBreak:
		markStorage(a, n.A, escaped)
		collectEscapes(a, n.A, escaped, false)
		return
	case canon.KFor:
		collectEscapes(a, n.A, escaped, false)
		collectEscapes(a, n.B, escaped, false)
		collectEscapes(a, n.C, escaped, false)
		return
	case canon.KLoop:
		collectEscapes(a, n.A, escaped, false)
		return
	case canon.KLambda:
		collectEscapes(a, n.A, escaped, true)
		return
	}
	// default: read-only positions (Binary, Unary, Cast, Field, Index,
	// Try, Await, Range, FormatWith, …) never by themselves cause escape,
	// but still walk every child so a nested call/storage is still found.
	collectEscapes(a, n.A, escaped, false)
	collectEscapes(a, n.B, escaped, false)
	collectEscapes(a, n.C, escaped, false)
	for _, c := range a.Children(n.Children) {
		collectEscapes(a, c, escaped, false)
	}
}

// markStorage flags id directly if it is a bare identifier; composite
// expressions are walked separately by the caller so any identifiers
// nested inside are still found.
func markStorage(a *canon.Arena, id canon.Id, escaped map[ident.Name]bool) {
	if id == canon.NONE {
		return
	}
	if n := a.Get(id); n.Kind == canon.KIdent {
		escaped[n.Ref] = true
	}
}

