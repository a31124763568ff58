package infer

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/patterns"
	"github.com/ori-lang/oric/internal/tpool"
)

// patternBinding adapts one Engine.Infer call, run under an environment
// extended with the pattern registry's scoped binding, to the
// patterns.ExprInferer contract (spec.md §4.5).
type patternBinding struct {
	e          *Engine
	env        *Env
	selfScheme tpool.Idx
}

func (pb *patternBinding) InferUnderBinding(name string, ty tpool.Idx, exprID canon.Id) tpool.Idx {
	scopedEnv := pb.env.Extend(pb.e.Names.Intern(name), ty)
	return pb.e.Infer(exprID, scopedEnv)
}

func (pb *patternBinding) InferPlain(exprID canon.Id) tpool.Idx {
	return pb.e.Infer(exprID, pb.env)
}

func (pb *patternBinding) EnclosingFunctionType() tpool.Idx {
	if pb.selfScheme != tpool.NONE {
		return pb.selfScheme
	}
	return pb.e.Pool.FreshVar()
}

func (pb *patternBinding) Pool() *tpool.Pool { return pb.e.Pool }

// inferFunctionExp type-checks a first-class pattern invocation
// (map/filter/fold/recurse/...) by delegating to the internal/patterns
// registry's three-phase scoped-binding protocol (spec.md §4.5). Every
// property expression still gets a recorded type via Infer, preserving
// invariant 6 of spec.md §3 even when the pattern's own Kind is
// unrecognized or its contract reports an error.
func (e *Engine) inferFunctionExp(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	inv, ok := patterns.ParseInvocation(e.Names, n)
	if !ok {
		for _, prop := range n.FuncExpProps {
			e.Infer(prop.Value, env)
		}
		return p.ERROR
	}
	pb := &patternBinding{e: e, env: env, selfScheme: e.currentFunctionType}
	resultTy, err := e.Patterns.Infer(pb, inv)
	if err != nil {
		// Ensure every property still has a recorded type even when the
		// contract rejects the invocation (e.g. a missing required prop).
		for _, prop := range n.FuncExpProps {
			if _, recorded := e.Resolved[prop.Value]; !recorded {
				e.Infer(prop.Value, env)
			}
		}
		return p.ERROR
	}
	return resultTy
}
