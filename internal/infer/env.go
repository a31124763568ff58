// Package infer implements the Hindley–Milner-with-rank type inference
// engine described in spec.md §4.4: unification-based inference over the
// canonical IR, with let-generalization and trait-bound checking.
package infer

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// Env is a persistent (copy-on-write) lexical environment mapping names to
// type schemes. Each nested scope (lambda params, match arm bindings, let
// bindings) creates a child Env rather than mutating the parent, so a
// captured Env from an outer scope is never perturbed by inference in an
// inner one.
type Env struct {
	parent *Env
	name   ident.Name
	scheme tpool.Idx
}

// NewEnv returns the empty root environment.
func NewEnv() *Env { return nil }

// Extend returns a new environment that additionally binds name to scheme,
// shadowing any outer binding of the same name.
func (e *Env) Extend(name ident.Name, scheme tpool.Idx) *Env {
	return &Env{parent: e, name: name, scheme: scheme}
}

// Lookup walks the environment chain for name, returning its scheme and
// whether it was found.
func (e *Env) Lookup(name ident.Name) (tpool.Idx, bool) {
	for env := e; env != nil; env = env.parent {
		if env.name == name {
			return env.scheme, true
		}
	}
	return tpool.NONE, false
}

// Names returns every name bound in the environment chain, resolved
// through names — candidates for an UnknownIdent typo suggestion
// (spec.md §7, SUPPLEMENTED FEATURES).
func (e *Env) Names(names *ident.Interner) []string {
	var out []string
	for env := e; env != nil; env = env.parent {
		out = append(out, names.Lookup(env.name))
	}
	return out
}
