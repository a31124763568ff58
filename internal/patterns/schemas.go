package patterns

import "github.com/ori-lang/oric/internal/tpool"

// builtinSchemas returns the property schema for every pattern kind
// spec.md §4.5 names. Each TypeCheck closure unifies only through Pool
// methods, never inferring expressions itself — that remains the infer
// package's job, which calls into this registry via scoped bindings.
func builtinSchemas() []*Schema {
	return []*Schema{
		{
			Kind:     KindMap,
			Required: []string{"over", "transform"},
			Scoped:   map[string]ScopedBinding{"transform": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				transform, err := tc.prop("transform")
				if err != nil {
					return tpool.NONE, err
				}
				_, ret := tc.Pool.FunctionParts(transform)
				return tc.Pool.Iterator(ret), nil
			},
		},
		{
			Kind:     KindFilter,
			Required: []string{"over", "predicate"},
			Scoped:   map[string]ScopedBinding{"predicate": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				over, err := tc.prop("over")
				if err != nil {
					return tpool.NONE, err
				}
				return over, nil
			},
		},
		{
			Kind:     KindFold,
			Required: []string{"over", "init", "op"},
			Scoped: map[string]ScopedBinding{
				"op": {BindName: "acc", Source: FunctionReturning, SourceProp: "init"},
			},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				init, err := tc.prop("init")
				if err != nil {
					return tpool.NONE, err
				}
				op, err := tc.prop("op")
				if err != nil {
					return tpool.NONE, err
				}
				if err := tc.Pool.Unify(init, mustReturn(tc.Pool, op)); err != nil {
					return tpool.NONE, err
				}
				return init, nil
			},
		},
		{
			Kind:     KindFind,
			Required: []string{"over", "predicate"},
			Scoped:   map[string]ScopedBinding{"predicate": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.Pool.Option(tc.ElemType), nil
			},
		},
		{
			Kind:     KindReduce,
			Required: []string{"over", "op"},
			Scoped:   map[string]ScopedBinding{"op": {BindName: "acc", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.Pool.Option(tc.ElemType), nil
			},
		},
		{
			Kind:     KindScan,
			Required: []string{"over", "init", "op"},
			Scoped:   map[string]ScopedBinding{"op": {BindName: "acc", Source: FunctionReturning, SourceProp: "init"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				init, err := tc.prop("init")
				if err != nil {
					return tpool.NONE, err
				}
				return tc.Pool.Iterator(init), nil
			},
		},
		{
			Kind:     KindForEach,
			Required: []string{"over", "effect"},
			Scoped:   map[string]ScopedBinding{"effect": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.Pool.UNIT, nil
			},
		},
		{
			Kind:     KindZip,
			Required: []string{"over", "with"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				with, err := tc.prop("with")
				if err != nil {
					return tpool.NONE, err
				}
				return tc.Pool.Iterator(tc.Pool.Tuple([]tpool.Idx{tc.ElemType, tc.Pool.Elem(with)})), nil
			},
		},
		{
			Kind:     KindTake,
			Required: []string{"over", "count"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.OverType, nil
			},
		},
		{
			Kind:     KindSkip,
			Required: []string{"over", "count"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.OverType, nil
			},
		},
		{
			Kind:     KindChunk,
			Required: []string{"over", "size"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.Pool.Iterator(tc.Pool.List(tc.ElemType)), nil
			},
		},
		{
			Kind:     KindFlatMap,
			Required: []string{"over", "transform"},
			Scoped:   map[string]ScopedBinding{"transform": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				transform, err := tc.prop("transform")
				if err != nil {
					return tpool.NONE, err
				}
				_, ret := tc.Pool.FunctionParts(transform)
				return tc.Pool.Iterator(tc.Pool.Elem(ret)), nil
			},
		},
		{
			Kind:     KindRecurse,
			Required: []string{"base", "value", "step"},
			Scoped: map[string]ScopedBinding{
				"step": {BindName: "self", Source: EnclosingFunction},
			},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				value, err := tc.prop("value")
				if err != nil {
					return tpool.NONE, err
				}
				step, err := tc.prop("step")
				if err != nil {
					return tpool.NONE, err
				}
				if err := tc.Pool.Unify(value, step); err != nil {
					return tpool.NONE, err
				}
				return value, nil
			},
		},
		{
			Kind:     KindRun,
			Required: []string{"body"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.prop("body")
			},
		},
		{
			Kind:     KindTry,
			Required: []string{"body"},
			Optional: []string{"recover"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.prop("body")
			},
		},
		{
			Kind:     KindMatch,
			Required: []string{"on"},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.prop("on")
			},
		},
		{
			Kind:     KindForPattern,
			Required: []string{"over", "body"},
			Scoped:   map[string]ScopedBinding{"body": {BindName: "it", Source: SameAs, SourceProp: "over"}},
			TypeCheck: func(tc *TypeCheckContext) (tpool.Idx, error) {
				return tc.Pool.UNIT, nil
			},
		},
	}
}

// mustReturn extracts a Function entry's return type; op properties are
// always function-typed by construction of the scoped-binding pass.
func mustReturn(p *tpool.Pool, fn tpool.Idx) tpool.Idx {
	_, ret := p.FunctionParts(fn)
	return ret
}
