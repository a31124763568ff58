package infer

import (
	"fmt"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// inferCall unifies the callee's type with Function(args…, fresh_ret)
// (spec.md §4.4, "Calls").
func (e *Engine) inferCall(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	fnTy := e.Infer(n.A, env)
	argIDs := e.Arena.Children(n.Children)
	argTys := make([]tpool.Idx, len(argIDs))
	for i, a := range argIDs {
		argTys[i] = e.Infer(a, env)
	}
	ret := p.FreshVar()
	want := p.Function(argTys, ret)
	if err := p.Unify(fnTy, want); err != nil {
		if err.Kind == tpool.ErrArgCountMismatch {
			e.Diags.Push(diag.New("typecheck", diag.WrongArity, diag.SeverityError, n.Span,
				fmt.Sprintf("expected %d arguments, found %d", err.Wanted, err.Got)))
		} else if p.Tag(fnTy) != tpool.TagFunction && p.Tag(fnTy) != tpool.TagVar {
			e.Diags.Push(diag.New("typecheck", diag.NotCallable, diag.SeverityError, n.Span,
				fmt.Sprintf("value of type %s is not callable", p.String(fnTy, e.Names))))
		} else {
			e.reportMismatch(id, "typecheck", err)
		}
		return p.ERROR
	}
	return ret
}

// inferBinary dispatches through an operator table giving (lhs, rhs) ->
// result (spec.md §4.4, "Binary/unary").
func (e *Engine) inferBinary(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	lhs := e.Infer(n.A, env)
	rhs := e.Infer(n.B, env)
	resultTy, err := ApplyOperator(p, n.Op, lhs, rhs)
	if err != nil {
		e.Diags.Push(diag.New("typecheck", diag.BadOperandType, diag.SeverityError, n.Span, err.Error()))
		return p.ERROR
	}
	return resultTy
}

func (e *Engine) inferUnary(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	operand := e.Infer(n.A, env)
	switch n.Op {
	case "!":
		if err := p.Unify(operand, p.BOOL); err != nil {
			e.reportMismatch(id, "typecheck", err)
			return p.ERROR
		}
		return p.BOOL
	case "-":
		return operand
	default:
		return operand
	}
}

// inferIf requires a bool condition and unifies both branches to a shared
// result (spec.md §4.4).
func (e *Engine) inferIf(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	cond := e.Infer(n.A, env)
	if err := p.Unify(cond, p.BOOL); err != nil {
		e.Diags.Push(diag.New("typecheck", diag.TypeMismatch, diag.SeverityError, e.Arena.Get(n.A).Span,
			fmt.Sprintf("expected bool, found %s", p.String(cond, e.Names))))
	}
	thenTy := e.Infer(n.B, env)
	elseTy := e.Infer(n.C, env)
	if err := p.Unify(thenTy, elseTy); err != nil {
		e.reportMismatch(id, "typecheck", err)
		return p.ERROR
	}
	return thenTy
}

// inferMatch unifies the scrutinee with every arm's pattern and every
// arm's body with a shared result variable; each guard must be BOOL
// (spec.md §4.4). It does not build a decision tree: it reads the one
// canon already stored in n.MatchTree (spec.md §4.3).
func (e *Engine) inferMatch(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	scrutinee := e.Infer(n.A, env)
	result := p.FreshVar()
	for _, arm := range n.MatchArms {
		armEnv := e.bindPattern(arm.Pattern, scrutinee, env)
		if arm.Guard != canon.NONE {
			guardTy := e.Infer(arm.Guard, armEnv)
			if err := p.Unify(guardTy, p.BOOL); err != nil {
				e.Diags.Push(diag.New("typecheck", diag.TypeMismatch, diag.SeverityError, e.Arena.Get(arm.Guard).Span, "guard must be bool"))
			}
		}
		bodyTy := e.Infer(arm.Body, armEnv)
		if err := p.Unify(bodyTy, result); err != nil {
			e.reportMismatch(arm.Body, "typecheck", err)
		}
	}

	if missing := e.missingArms(scrutinee, n.MatchArms); len(missing) > 0 {
		d := diag.New("typecheck", diag.NonExhaustiveMatch, diag.SeverityError, n.Span, "non-exhaustive match")
		d.SuggestNonExhaustive(n.Span, missing)
		e.Diags.Push(d)
	} else if n.MatchTree != nil && decisionTreeReachesFail(n.MatchTree) {
		// missingArms only checks the scrutinee's own top-level constructor
		// set; the decision tree (spec.md §4.3) catches gaps missingArms
		// can't see, e.g. a variant covered at the top level but whose
		// nested sub-pattern column still reaches MatchFail.
		e.Diags.Push(diag.New("typecheck", diag.NonExhaustiveMatch, diag.SeverityError, n.Span, "non-exhaustive match"))
	}
	return result
}

// decisionTreeReachesFail reports whether any path through t ends in a
// canon.MatchFail, i.e. some input this tree's patterns describe is not
// actually covered by any arm.
func decisionTreeReachesFail(t canon.DecisionTree) bool {
	switch n := t.(type) {
	case *canon.MatchFail:
		return true
	case *canon.MatchLeaf:
		return false
	case *canon.MatchSwitch:
		if decisionTreeReachesFail(n.Default) {
			return true
		}
		for _, sub := range n.Cases {
			if decisionTreeReachesFail(sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// missingArms reports the variant/constructor names not covered by arms,
// a fast single-column check against the scrutinee's own top-level type
// (bool/Option/Result) that names exactly what's missing for a precise
// diagnostic. internal/canon's decision tree (n.MatchTree, consulted
// right after this in inferMatch) is the general multi-column fallback:
// it catches gaps this check can't name, such as a nested pattern column
// that isn't exhaustive, at the cost of a less specific message.
func (e *Engine) missingArms(scrutinee tpool.Idx, arms []canon.MatchArm) []string {
	p := e.Pool
	for _, arm := range arms {
		if arm.Pattern.Kind == canon.PatWildcard || arm.Pattern.Kind == canon.PatName {
			if arm.Guard == canon.NONE {
				return nil
			}
		}
	}
	switch p.Tag(p.Resolve(scrutinee)) {
	case tpool.TagBool:
		covered := map[bool]bool{}
		for _, arm := range arms {
			if arm.Pattern.Kind == canon.PatLiteral && arm.Guard == canon.NONE {
				n := e.Arena.Get(arm.Pattern.Value)
				covered[n.BVal] = true
			}
		}
		var missing []string
		if !covered[true] {
			missing = append(missing, "true")
		}
		if !covered[false] {
			missing = append(missing, "false")
		}
		return missing
	case tpool.TagOption:
		covered := map[string]bool{}
		for _, arm := range arms {
			if arm.Pattern.Kind == canon.PatVariant && arm.Guard == canon.NONE {
				covered[e.Names.Lookup(arm.Pattern.Variant)] = true
			}
		}
		var missing []string
		if !covered["Some"] {
			missing = append(missing, "Some")
		}
		if !covered["None"] {
			missing = append(missing, "None")
		}
		return missing
	case tpool.TagResult:
		covered := map[string]bool{}
		for _, arm := range arms {
			if arm.Pattern.Kind == canon.PatVariant && arm.Guard == canon.NONE {
				covered[e.Names.Lookup(arm.Pattern.Variant)] = true
			}
		}
		var missing []string
		if !covered["Ok"] {
			missing = append(missing, "Ok")
		}
		if !covered["Err"] {
			missing = append(missing, "Err")
		}
		return missing
	case tpool.TagEnum:
		entry, ok := e.Types.ByIdx(p.Resolve(scrutinee))
		if !ok {
			return nil
		}
		_, variants := p.EnumParts(entry.Idx)
		covered := map[string]bool{}
		for _, arm := range arms {
			if arm.Pattern.Kind == canon.PatVariant && arm.Guard == canon.NONE {
				covered[e.Names.Lookup(arm.Pattern.Variant)] = true
			}
		}
		var missing []string
		for _, v := range variants {
			name := e.Names.Lookup(v.Name)
			if !covered[name] {
				missing = append(missing, name)
			}
		}
		return missing
	default:
		return nil
	}
}

// bindPattern extends env with the bindings a pattern introduces, unifying
// the pattern's shape with scrutinee along the way.
func (e *Engine) bindPattern(pat canon.BindingPattern, scrutinee tpool.Idx, env *Env) *Env {
	p := e.Pool
	switch pat.Kind {
	case canon.PatWildcard, canon.PatLiteral:
		return env
	case canon.PatName:
		return env.Extend(pat.Name, scrutinee)
	case canon.PatTuple:
		elemTys := make([]tpool.Idx, len(pat.Sub))
		for i := range elemTys {
			elemTys[i] = p.FreshVar()
		}
		p.Unify(scrutinee, p.Tuple(elemTys))
		for i, sub := range pat.Sub {
			env = e.bindPattern(sub, elemTys[i], env)
		}
		return env
	case canon.PatList:
		elemTy := p.FreshVar()
		p.Unify(scrutinee, p.List(elemTy))
		for _, sub := range pat.Sub {
			env = e.bindPattern(sub, elemTy, env)
		}
		if pat.Rest != 0 {
			env = env.Extend(pat.Rest, p.List(elemTy))
		}
		return env
	case canon.PatStruct:
		if entry, ok := e.Types.ByName(pat.Name); ok {
			_, fields := p.StructParts(entry.Idx)
			byName := make(map[uint32]tpool.Idx, len(fields))
			for _, f := range fields {
				byName[uint32(f.Name)] = f.Type
			}
			for _, fp := range pat.Fields {
				ft, ok := byName[uint32(fp.Name)]
				if !ok {
					ft = p.FreshVar()
				}
				env = e.bindPattern(fp.Pattern, ft, env)
			}
		}
		return env
	case canon.PatVariant:
		if owner, ok := e.Types.VariantOwner(pat.Variant); ok {
			_, variants := p.EnumParts(owner.Idx)
			for _, v := range variants {
				if v.Name == pat.Variant {
					for i, sub := range pat.Sub {
						ft := tpool.NONE
						if i < len(v.Fields) {
							ft = v.Fields[i]
						} else {
							ft = p.FreshVar()
						}
						env = e.bindPattern(sub, ft, env)
					}
				}
			}
		} else {
			// Some/None/Ok/Err are built-ins, not registry entries.
			for _, sub := range pat.Sub {
				env = e.bindPattern(sub, p.FreshVar(), env)
			}
		}
		return env
	default:
		return env
	}
}

// inferFor type-checks `for binding in iter [if guard] { body }`. iter must
// unify with Iterator(elem)/Range(elem)/List(elem); binding is bound to
// elem in body's environment.
func (e *Engine) inferFor(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	iterTy := e.Infer(n.A, env)
	elem := p.FreshVar()
	// accept List/Range/Iterator/DoubleEndedIterator/Set as iterable
	switch p.Tag(iterTy) {
	case tpool.TagList, tpool.TagRange, tpool.TagIterator, tpool.TagDoubleEndedIterator, tpool.TagSet:
		elem = p.Elem(iterTy)
	default:
		p.Unify(iterTy, p.Iterator(elem))
	}
	bodyEnv := e.bindPattern(n.ForBinding, elem, env)
	if n.B != canon.NONE {
		guardTy := e.Infer(n.B, bodyEnv)
		p.Unify(guardTy, p.BOOL)
	}
	e.loopStack = append(e.loopStack, p.FreshVar())
	bodyTy := e.Infer(n.C, bodyEnv)
	resultVar := e.loopStack[len(e.loopStack)-1]
	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	if n.IsYield {
		return p.Iterator(bodyTy)
	}
	return resultVar
}

func (e *Engine) inferLoop(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	e.loopStack = append(e.loopStack, p.FreshVar())
	e.Infer(n.A, env)
	resultVar := e.loopStack[len(e.loopStack)-1]
	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	return resultVar
}

func (e *Engine) inferBreak(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	valTy := p.UNIT
	if n.A != canon.NONE {
		valTy = e.Infer(n.A, env)
	}
	if len(e.loopStack) > 0 {
		resultVar := e.loopStack[len(e.loopStack)-1]
		if err := p.Unify(resultVar, valTy); err != nil {
			e.reportMismatch(id, "typecheck", err)
		}
	}
	return p.NEVER
}

// inferTry requires the operand be Result(ok, err) or Option(ok), yielding
// ok and propagating err/None through the enclosing function (spec.md §4.4
// implied by `?` semantics referenced in §7 NeedsUnwrap suggestions).
func (e *Engine) inferTry(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	inner := e.Infer(n.A, env)
	switch p.Tag(inner) {
	case tpool.TagResult:
		ok, _ := p.ResultOkErr(inner)
		return ok
	case tpool.TagOption:
		return p.Elem(inner)
	default:
		ok, errv := p.FreshVar(), p.FreshVar()
		if err := p.Unify(inner, p.Result(ok, errv)); err != nil {
			d := diag.New("typecheck", diag.NeedsUnwrap, diag.SeverityError, n.Span,
				fmt.Sprintf("`?` requires a Result or Option, found %s", p.String(inner, e.Names)))
			d.SuggestUnwrap(n.Span)
			e.Diags.Push(d)
			return p.ERROR
		}
		return ok
	}
}

func (e *Engine) inferBlock(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	blockEnv := env
	stmts := e.Arena.Stmts(n.Children)
	for _, st := range stmts {
		switch st.Kind {
		case canon.StmtExpr:
			e.Infer(st.Expr, blockEnv)
		case canon.StmtLet:
			p.EnterLet()
			initTy := e.Infer(st.Let.Init, blockEnv)
			p.ExitLet()
			checkSelfCapture(e, st.Let.Pattern, st.Let.Init)
			scheme, _ := p.Generalize(initTy, p.Rank())
			blockEnv = e.bindPattern(st.Let.Pattern, scheme, blockEnv)
		case canon.StmtAssign:
			targetTy := e.Infer(st.Target, blockEnv)
			valueTy := e.Infer(st.Expr, blockEnv)
			if err := p.Unify(targetTy, valueTy); err != nil {
				e.reportMismatch(st.Expr, "typecheck", err)
			}
		}
	}
	if n.A == canon.NONE {
		return p.UNIT
	}
	return e.Infer(n.A, blockEnv)
}

// inferLambda assigns a fresh variable per parameter, infers the body
// under an environment extended with them, and yields Function(params,
// ret) (spec.md §4.4, "Lambdas").
func (e *Engine) inferLambda(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	paramIDs := e.Arena.Children(n.Children)
	paramTys := make([]tpool.Idx, len(paramIDs))
	lambdaEnv := env
	for i, pid := range paramIDs {
		v := p.FreshVar()
		paramTys[i] = v
		lambdaEnv = lambdaEnv.Extend(e.Arena.Get(pid).Ref, v)
	}
	bodyTy := e.Infer(n.A, lambdaEnv)
	return p.Function(paramTys, bodyTy)
}

func (e *Engine) inferList(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	elems := e.Arena.Children(n.Children)
	if len(elems) == 0 {
		return p.List(p.FreshVar())
	}
	elemTy := e.Infer(elems[0], env)
	for _, c := range elems[1:] {
		cty := e.Infer(c, env)
		if err := p.Unify(elemTy, cty); err != nil {
			e.Diags.Push(diag.New("typecheck", diag.ListElementMismatch, diag.SeverityError, e.Arena.Get(c).Span,
				fmt.Sprintf("list element type mismatch: expected %s, found %s", p.String(elemTy, e.Names), p.String(cty, e.Names))))
		}
	}
	return p.List(elemTy)
}

func (e *Engine) inferMap(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	if len(n.MapEntries) == 0 {
		return p.Map(p.FreshVar(), p.FreshVar())
	}
	kTy := e.Infer(n.MapEntries[0].Key, env)
	vTy := e.Infer(n.MapEntries[0].Value, env)
	for _, entry := range n.MapEntries[1:] {
		k := e.Infer(entry.Key, env)
		v := e.Infer(entry.Value, env)
		p.Unify(kTy, k)
		p.Unify(vTy, v)
	}
	return p.Map(kTy, vTy)
}

func (e *Engine) inferStruct(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	entry, ok := e.Types.ByName(n.Name)
	if !ok {
		for _, f := range n.StructFields {
			e.Infer(f.Value, env)
		}
		d := diag.New("typecheck", diag.UnknownIdent, diag.SeverityError, n.Span,
			fmt.Sprintf("unknown type `%s`", e.Names.Lookup(n.Name)))
		d.SuggestFieldTypo(n.Span, e.Names.Lookup(n.Name), e.Types.Names(e.Names))
		e.Diags.Push(d)
		return p.ERROR
	}
	_, declFields := p.StructParts(entry.Idx)
	declByName := make(map[uint32]tpool.Idx, len(declFields))
	var names []string
	for _, f := range declFields {
		declByName[uint32(f.Name)] = f.Type
		names = append(names, e.Names.Lookup(f.Name))
	}
	seen := make(map[uint32]bool, len(n.StructFields))
	for _, f := range n.StructFields {
		seen[uint32(f.Name)] = true
		valTy := e.Infer(f.Value, env)
		declTy, ok := declByName[uint32(f.Name)]
		if !ok {
			d := diag.New("typecheck", diag.ExtraField, diag.SeverityError, n.Span,
				fmt.Sprintf("unknown field `%s`", e.Names.Lookup(f.Name)))
			d.SuggestFieldTypo(n.Span, e.Names.Lookup(f.Name), names)
			e.Diags.Push(d)
			continue
		}
		if err := p.Unify(valTy, declTy); err != nil {
			e.Diags.Push(diag.New("typecheck", diag.FieldTypeMismatch, diag.SeverityError, n.Span,
				fmt.Sprintf("field `%s`: expected %s, found %s", e.Names.Lookup(f.Name), p.String(declTy, e.Names), p.String(valTy, e.Names))))
		}
	}
	var missing []string
	for _, f := range declFields {
		if !seen[uint32(f.Name)] {
			missing = append(missing, e.Names.Lookup(f.Name))
		}
	}
	if len(missing) > 0 {
		d := diag.New("typecheck", diag.MissingField, diag.SeverityError, n.Span, "missing required fields")
		d.SuggestMissingField(missing)
		e.Diags.Push(d)
	}
	return entry.Idx
}

// inferRange unifies start/end/step to the same numeric type, yielding
// Range(elem) (spec.md §4.4, "Ranges").
func (e *Engine) inferRange(id canon.Id, n *canon.Node, env *Env) tpool.Idx {
	p := e.Pool
	elem := p.FreshVar()
	if n.A != canon.NONE {
		p.Unify(elem, e.Infer(n.A, env))
	}
	if n.B != canon.NONE {
		p.Unify(elem, e.Infer(n.B, env))
	}
	if n.C != canon.NONE {
		p.Unify(elem, e.Infer(n.C, env))
	}
	return p.RangeT(elem)
}

// checkSelfCapture flags a let-binding whose init is a lambda that
// references the binding's own name within its body, directly or
// transitively (spec.md §8 property 10, §9 "Closure self-capture
// detection"). This runs before generalization: such a scheme would be
// self-referential, which the core refuses to form.
func checkSelfCapture(e *Engine, pat canon.BindingPattern, init canon.Id) {
	if pat.Kind != canon.PatName {
		return
	}
	lambdaID := init
	n := e.Arena.Get(lambdaID)
	if n.Kind != canon.KLambda {
		return
	}
	if referencesName(e.Arena, n.A, pat.Name, make(map[canon.Id]bool)) {
		e.Diags.Push(diag.New("typecheck", diag.ClosureSelfCapture, diag.SeverityError, n.Span,
			fmt.Sprintf("closure captures its own binding `%s` before it is defined", e.Names.Lookup(pat.Name))))
	}
}

// referencesName reports whether the subtree rooted at id mentions name as
// a KIdent, walking every reachable child (including block statements and
// match arms) so indirect references through nested lambdas are caught too.
func referencesName(a *canon.Arena, id canon.Id, name ident.Name, visited map[canon.Id]bool) bool {
	if id == canon.NONE || visited[id] {
		return false
	}
	visited[id] = true
	n := a.Get(id)
	if n.Kind == canon.KIdent && n.Ref == name {
		return true
	}
	if referencesName(a, n.A, name, visited) || referencesName(a, n.B, name, visited) || referencesName(a, n.C, name, visited) {
		return true
	}
	if n.Kind == canon.KBlock {
		for _, s := range a.Stmts(n.Children) {
			if referencesName(a, s.Expr, name, visited) || referencesName(a, s.Target, name, visited) {
				return true
			}
			if s.Kind == canon.StmtLet && referencesName(a, s.Let.Init, name, visited) {
				return true
			}
		}
	} else {
		for _, c := range a.Children(n.Children) {
			if referencesName(a, c, name, visited) {
				return true
			}
		}
	}
	for _, me := range n.MapEntries {
		if referencesName(a, me.Key, name, visited) || referencesName(a, me.Value, name, visited) {
			return true
		}
	}
	for _, sf := range n.StructFields {
		if referencesName(a, sf.Value, name, visited) {
			return true
		}
	}
	for _, arm := range n.MatchArms {
		if referencesName(a, arm.Guard, name, visited) || referencesName(a, arm.Body, name, visited) {
			return true
		}
	}
	return false
}
