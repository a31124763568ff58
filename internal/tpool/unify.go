package tpool

// Unify attempts to unify a and b in place (via Bind), returning a
// *UnifyError on failure. Unification is symmetric: Unify(a, b) and
// Unify(b, a) succeed or fail together and, on success, leave the pool in
// equivalent states (spec.md §8 property 4).
//
// Classical union-find with path compression (Pool.Resolve performs the
// compression) backs variable binding. When unifying two unbound
// variables, the lower-rank one is bound to the higher-rank one so that a
// variable never outlives the scope that should generalize it (spec.md
// §4.2, "Algorithm (interning)" / §9 "Rank-based generalization").
func (p *Pool) Unify(a, b Idx) *UnifyError {
	a = p.Resolve(a)
	b = p.Resolve(b)
	if a == b {
		return nil
	}

	ea := p.entries[a]
	eb := p.entries[b]

	// ERROR is unifiable with anything: once a diagnostic has been raised
	// for a subexpression we must not cascade further mismatches from it.
	if ea.tag == TagError || eb.tag == TagError {
		return nil
	}

	if ea.tag == TagVar && eb.tag == TagVar {
		return p.unifyVarVar(a, b)
	}
	if ea.tag == TagVar {
		return p.unifyVarConcrete(a, b)
	}
	if eb.tag == TagVar {
		return p.unifyVarConcrete(b, a)
	}
	if ea.tag == TagRigidVar || eb.tag == TagRigidVar {
		if ea.tag == TagRigidVar && eb.tag == TagRigidVar && ea.name == eb.name {
			return nil
		}
		rigidName := ea.name
		other := b
		if ea.tag != TagRigidVar {
			rigidName = eb.name
			other = a
		}
		return &UnifyError{Kind: ErrRigidMismatch, Rigid: rigidName, Found: other}
	}

	if ea.tag != eb.tag {
		return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
	}

	switch ea.tag {
	case TagInt, TagFloat, TagBool, TagStr, TagChar, TagByte, TagUnit, TagNever,
		TagDuration, TagSize, TagOrdering, TagInfer, TagSelfType:
		return nil

	case TagList, TagOption, TagSet, TagChannel, TagRange, TagIterator, TagDoubleEndedIterator:
		return p.Unify(ea.a, eb.a)

	case TagBorrowed:
		if ea.name != eb.name {
			return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
		}
		return p.Unify(ea.a, eb.a)

	case TagMap:
		if err := p.Unify(ea.a, eb.a); err != nil {
			return err
		}
		return p.Unify(ea.b, eb.b)

	case TagResult:
		if err := p.Unify(ea.a, eb.a); err != nil {
			return err
		}
		return p.Unify(ea.b, eb.b)

	case TagFunction:
		if len(ea.children) != len(eb.children) {
			return &UnifyError{Kind: ErrArgCountMismatch, Wanted: len(ea.children), Got: len(eb.children)}
		}
		for i := range ea.children {
			if err := p.Unify(ea.children[i], eb.children[i]); err != nil {
				return err
			}
		}
		return p.Unify(ea.b, eb.b)

	case TagTuple:
		if len(ea.children) != len(eb.children) {
			return &UnifyError{Kind: ErrArgCountMismatch, Wanted: len(ea.children), Got: len(eb.children)}
		}
		for i := range ea.children {
			if err := p.Unify(ea.children[i], eb.children[i]); err != nil {
				return err
			}
		}
		return nil

	case TagApplied:
		if ea.name != eb.name || len(ea.children) != len(eb.children) {
			return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
		}
		for i := range ea.children {
			if err := p.Unify(ea.children[i], eb.children[i]); err != nil {
				return err
			}
		}
		return nil

	case TagNamed:
		if ea.name != eb.name {
			return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
		}
		return nil

	case TagStruct, TagEnum:
		if ea.name != eb.name {
			return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
		}
		return nil

	default:
		return &UnifyError{Kind: ErrTypeMismatch, Expected: a, Found: b}
	}
}

func (p *Pool) unifyVarVar(a, b Idx) *UnifyError {
	ea, eb := p.entries[a], p.entries[b]
	va, vb := &p.vars[ea.a], &p.vars[eb.a]
	if va.rank <= vb.rank {
		p.Bind(a, b)
	} else {
		p.Bind(b, a)
	}
	return nil
}

func (p *Pool) unifyVarConcrete(v, concrete Idx) *UnifyError {
	if p.occurs(v, concrete) {
		return &UnifyError{Kind: ErrInfiniteType, Var: v, Found: concrete}
	}
	p.Bind(v, concrete)
	return nil
}

// occurs reports whether the variable at v appears anywhere within ty,
// after resolution. The occurs-check is performed at every bind (spec.md
// §4.2) to guarantee termination of unification (spec.md §8 property 5).
func (p *Pool) occurs(v, ty Idx) bool {
	ty = p.Resolve(ty)
	if ty == v {
		return true
	}
	e := p.entries[ty]
	switch e.tag {
	case TagList, TagOption, TagSet, TagChannel, TagRange, TagIterator, TagDoubleEndedIterator, TagBorrowed:
		return p.occurs(v, e.a)
	case TagMap, TagResult:
		return p.occurs(v, e.a) || p.occurs(v, e.b)
	case TagFunction:
		for _, c := range e.children {
			if p.occurs(v, c) {
				return true
			}
		}
		return p.occurs(v, e.b)
	case TagTuple, TagApplied:
		for _, c := range e.children {
			if p.occurs(v, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Generalize quantifies every free variable in ty whose rank exceeds
// outerRank into a Scheme (spec.md §4.4 step 2). Variables at or below
// outerRank remain free (they belong to an enclosing scope) and are
// reported via the returned slice so callers can detect escaping
// variables if ty is about to leave its defining scope.
func (p *Pool) Generalize(ty Idx, outerRank int) (scheme Idx, quantified []Idx) {
	seen := make(map[Idx]bool)
	var vars []Idx
	var walk func(Idx)
	walk = func(t Idx) {
		t = p.Resolve(t)
		if seen[t] {
			return
		}
		e := p.entries[t]
		switch e.tag {
		case TagVar:
			vs := p.vars[e.a]
			if vs.kind == VarUnbound && vs.rank > outerRank {
				seen[t] = true
				vars = append(vars, t)
			}
		case TagList, TagOption, TagSet, TagChannel, TagRange, TagIterator, TagDoubleEndedIterator, TagBorrowed:
			walk(e.a)
		case TagMap, TagResult:
			walk(e.a)
			walk(e.b)
		case TagFunction:
			for _, c := range e.children {
				walk(c)
			}
			walk(e.b)
		case TagTuple, TagApplied:
			for _, c := range e.children {
				walk(c)
			}
		}
	}
	walk(ty)
	if len(vars) == 0 {
		return ty, nil
	}
	return p.Scheme(vars, ty), vars
}

// Instantiate replaces a scheme's quantified variables with fresh
// unification variables at the pool's current rank (spec.md §4.4,
// "On identifier use, instantiate the scheme with fresh variables").
// If ty is not a Scheme, it is returned unchanged.
func (p *Pool) Instantiate(ty Idx) Idx {
	r := p.Resolve(ty)
	if p.entries[r].tag != TagScheme {
		return ty
	}
	vars, body := p.SchemeParts(r)
	sub := make(map[Idx]Idx, len(vars))
	for _, v := range vars {
		sub[v] = p.FreshVar()
	}
	return p.substitute(body, sub)
}

func (p *Pool) substitute(ty Idx, sub map[Idx]Idx) Idx {
	r := p.Resolve(ty)
	if repl, ok := sub[r]; ok {
		return repl
	}
	e := p.entries[r]
	switch e.tag {
	case TagList:
		return p.List(p.substitute(e.a, sub))
	case TagOption:
		return p.Option(p.substitute(e.a, sub))
	case TagSet:
		return p.Set(p.substitute(e.a, sub))
	case TagChannel:
		return p.Channel(p.substitute(e.a, sub))
	case TagRange:
		return p.RangeT(p.substitute(e.a, sub))
	case TagIterator:
		return p.Iterator(p.substitute(e.a, sub))
	case TagDoubleEndedIterator:
		return p.DoubleEndedIterator(p.substitute(e.a, sub))
	case TagBorrowed:
		return p.Borrowed(p.substitute(e.a, sub), e.name)
	case TagMap:
		return p.Map(p.substitute(e.a, sub), p.substitute(e.b, sub))
	case TagResult:
		return p.Result(p.substitute(e.a, sub), p.substitute(e.b, sub))
	case TagFunction:
		params := make([]Idx, len(e.children))
		for i, c := range e.children {
			params[i] = p.substitute(c, sub)
		}
		return p.Function(params, p.substitute(e.b, sub))
	case TagTuple:
		elems := make([]Idx, len(e.children))
		for i, c := range e.children {
			elems[i] = p.substitute(c, sub)
		}
		return p.Tuple(elems)
	case TagApplied:
		args := make([]Idx, len(e.children))
		for i, c := range e.children {
			args[i] = p.substitute(c, sub)
		}
		return p.Applied(e.name, args)
	default:
		return r
	}
}
