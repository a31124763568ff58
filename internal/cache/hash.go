// Package cache implements the incremental cache described in spec.md
// §4.12: per-function content hashing and a YAML-backed manifest that lets
// a later compilation skip recompiling functions whose inputs did not
// change.
package cache

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// Combine folds value into seed using the Boost-style hash_combine spec.md
// §4.12 mandates verbatim, so interpreter-side and compiler-side hashing
// can be shown to agree.
func Combine(seed, value uint64) uint64 {
	return seed ^ (value + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

// CombineAll folds a sequence of values into seed in order.
func CombineAll(seed uint64, values ...uint64) uint64 {
	for _, v := range values {
		seed = Combine(seed, v)
	}
	return seed
}

// FunctionHash is the decomposed per-function content hash spec.md §4.12
// describes: body, signature, callees, and globals fold independently so a
// signature-only change can be distinguished from a body-only change.
type FunctionHash struct {
	Body      uint64
	Signature uint64
	Callees   uint64
	Globals   uint64
}

// Combined folds the four sub-hashes into the function's single cache key.
func (h FunctionHash) Combined() uint64 {
	return CombineAll(0, h.Body, h.Signature, h.Callees, h.Globals)
}

// BodyHash structurally hashes the canonical tree rooted at id, folding
// variant discriminants, primitive payloads, resolved types, and child
// hashes recursively. Spans and CanId values are never hashed (spec.md
// §4.12); variable-length children are folded together with their count so
// two subtrees that differ only in length still disagree.
func BodyHash(a *canon.Arena, types map[canon.Id]tpool.Idx, id canon.Id) uint64 {
	if id == canon.NONE {
		return Combine(0, uint64(canon.NONE))
	}
	n := a.Get(id)
	h := uint64(n.Kind)
	h = Combine(h, n.IVal)
	h = Combine(h, uint64(n.FVal))
	h = Combine(h, boolHash(n.BVal))
	h = Combine(h, uint64(n.SVal))
	h = Combine(h, uint64(n.RVal))
	h = Combine(h, uint64(n.Unit))
	h = Combine(h, uint64(n.Name))
	h = Combine(h, uint64(n.Ref))
	h = Combine(h, stringHash(n.Op))
	if ty, ok := types[id]; ok {
		h = Combine(h, uint64(ty))
	}

	h = Combine(h, BodyHash(a, types, n.A))
	h = Combine(h, BodyHash(a, types, n.B))
	h = Combine(h, BodyHash(a, types, n.C))

	if n.Kind == canon.KBlock {
		stmts := a.Stmts(n.Children)
		h = Combine(h, uint64(len(stmts)))
		for _, st := range stmts {
			h = Combine(h, uint64(st.Kind))
			h = Combine(h, BodyHash(a, types, st.Expr))
			h = Combine(h, BodyHash(a, types, st.Target))
			h = Combine(h, patternHash(st.Let.Pattern))
			h = Combine(h, BodyHash(a, types, st.Let.Init))
			h = Combine(h, boolHash(st.Let.Mutable))
		}
	} else {
		children := a.Children(n.Children)
		h = Combine(h, uint64(len(children)))
		for _, c := range children {
			h = Combine(h, BodyHash(a, types, c))
		}
	}

	h = Combine(h, uint64(len(n.MapEntries)))
	for _, e := range n.MapEntries {
		h = Combine(h, BodyHash(a, types, e.Key))
		h = Combine(h, BodyHash(a, types, e.Value))
	}
	h = Combine(h, uint64(len(n.StructFields)))
	for _, f := range n.StructFields {
		h = Combine(h, uint64(f.Name))
		h = Combine(h, BodyHash(a, types, f.Value))
	}
	h = Combine(h, uint64(len(n.MatchArms)))
	for _, arm := range n.MatchArms {
		h = Combine(h, patternHash(arm.Pattern))
		h = Combine(h, BodyHash(a, types, arm.Guard))
		h = Combine(h, BodyHash(a, types, arm.Body))
	}
	h = Combine(h, patternHash(n.ForBinding))
	h = Combine(h, patternHash(n.LetPattern))
	h = Combine(h, boolHash(n.Inclusive))
	h = Combine(h, boolHash(n.IsYield))
	h = Combine(h, boolHash(n.Fallible))
	h = Combine(h, boolHash(n.Mutable))
	h = Combine(h, uint64(len(n.FuncExpProps)))
	for _, p := range n.FuncExpProps {
		h = Combine(h, uint64(p.Name))
		h = Combine(h, BodyHash(a, types, p.Value))
	}
	return h
}

func patternHash(p canon.BindingPattern) uint64 {
	h := uint64(p.Kind)
	h = Combine(h, uint64(p.Name))
	h = Combine(h, boolHash(p.Mutable))
	h = Combine(h, uint64(p.Rest))
	h = Combine(h, uint64(p.Variant))
	h = Combine(h, uint64(len(p.Sub)))
	for _, s := range p.Sub {
		h = Combine(h, patternHash(s))
	}
	h = Combine(h, uint64(len(p.Fields)))
	for _, f := range p.Fields {
		h = Combine(h, uint64(f.Name))
		h = Combine(h, patternHash(f.Pattern))
	}
	return h
}

func boolHash(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func stringHash(s string) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis, folded via Combine below
	for i := 0; i < len(s); i++ {
		h = Combine(h, uint64(s[i]))
	}
	return h
}

// SignatureHash folds a function's parameter and return type Idx values.
func SignatureHash(params []tpool.Idx, ret tpool.Idx) uint64 {
	h := uint64(len(params))
	for _, p := range params {
		h = Combine(h, uint64(p))
	}
	return Combine(h, uint64(ret))
}

// CalleesHash folds the interned names of every function this function
// calls, in the order given: the fold is order-sensitive (callers sort
// callees before hashing if call order in the source is not meant to
// matter; oric treats it as mattering, since a reordering can change
// evaluation order for side-effecting calls).
func CalleesHash(names []ident.Name) uint64 {
	h := uint64(len(names))
	for _, n := range names {
		h = Combine(h, uint64(n))
	}
	return h
}

// GlobalsHash folds the ConstId handles of referenced global constants.
func GlobalsHash(globals []canon.ConstId) uint64 {
	h := uint64(len(globals))
	for _, g := range globals {
		h = Combine(h, uint64(g))
	}
	return h
}

// ModuleHash folds every non-generic function's combined hash into one
// module-level key (spec.md §4.12: "generics are skipped; they re-hash per
// monomorphization").
func ModuleHash(combined []uint64) uint64 {
	h := uint64(len(combined))
	for _, c := range combined {
		h = Combine(h, c)
	}
	return h
}
