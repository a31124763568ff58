package patterns

import (
	"fmt"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/tpool"
)

// ExprInferer is the subset of the infer package's Engine that pattern
// inference needs: infer a canon.Id under an environment extended with
// named scoped bindings. Declared here (rather than importing infer
// directly) to avoid a patterns<->infer import cycle, since infer.Engine
// is the caller of this package.
type ExprInferer interface {
	InferUnderBinding(name string, ty tpool.Idx, exprID canon.Id) tpool.Idx
	InferPlain(exprID canon.Id) tpool.Idx
	EnclosingFunctionType() tpool.Idx
	Pool() *tpool.Pool
}

// Infer runs the three-phase protocol of spec.md §4.5 ("Inference phases
// for a pattern with scoped bindings") over inv, returning the pattern's
// result type.
func (r *Registry) Infer(ei ExprInferer, inv *Invocation) (tpool.Idx, error) {
	schema := r.Lookup(inv.Kind)
	if schema == nil {
		return tpool.NONE, fmt.Errorf("unregistered pattern kind %s", inv.Kind)
	}
	for _, req := range schema.Required {
		if _, ok := inv.Props[req]; !ok {
			return tpool.NONE, fmt.Errorf("pattern `%s` missing required property `.%s`", inv.Kind, req)
		}
	}

	props := make(map[string]tpool.Idx, len(inv.Props))

	// Phase 1: infer every property not involved in scoping.
	for name, id := range inv.Props {
		if _, scoped := schema.Scoped[name]; scoped {
			continue
		}
		props[name] = ei.InferPlain(id)
	}

	over, hasOver := props["over"]
	elem := tpool.NONE
	if hasOver {
		elem = ei.Pool().Elem(over)
	}

	// Phase 2: for each scoped property, build its binding and infer under
	// the extended environment.
	for name, binding := range schema.Scoped {
		id, ok := inv.Props[name]
		if !ok {
			continue
		}
		var bindTy tpool.Idx
		switch binding.Source {
		case SameAs:
			src, ok := props[binding.SourceProp]
			if ok && binding.SourceProp == "over" {
				bindTy = elem
			} else if ok {
				bindTy = src
			} else {
				bindTy = ei.Pool().FreshVar()
			}
		case FunctionReturning:
			src, ok := props[binding.SourceProp]
			if !ok {
				bindTy = ei.Pool().FreshVar()
			} else {
				bindTy = src
			}
		case EnclosingFunction:
			bindTy = ei.EnclosingFunctionType()
		}
		props[name] = ei.InferUnderBinding(binding.BindName, bindTy, id)
	}

	// Phase 3: call the type-check contract.
	tc := &TypeCheckContext{Pool: ei.Pool(), Props: props, OverType: over, ElemType: elem}
	return schema.TypeCheck(tc)
}
