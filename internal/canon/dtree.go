package canon

// DecisionTree is a compiled match decision tree (spec.md §4.3, "Compile
// patterns into decision trees: for each match, compute a decision DAG
// that is used for exhaustiveness checking and efficient codegen"): a
// column-based matrix specialization that shares redundant discriminant
// tests across arms instead of re-testing every arm's pattern from
// scratch in source order.
type DecisionTree interface {
	isDecisionTree()
}

// MatchLeaf selects one arm outright; every pattern on the path to it has
// already been satisfied.
type MatchLeaf struct {
	ArmIndex int
}

// MatchFail marks an input no arm covers. A well-typed module never
// reaches this at runtime — internal/infer's exhaustiveness check rejects
// a module whose decision tree contains a MatchFail before codegen ever
// sees it — but the tree is built structurally regardless of whether
// inference has run yet.
type MatchFail struct{}

// MatchSwitch tests the scrutinee reached by following Path (a sequence
// of column indices from the root, one per specialization step) and
// dispatches on its discriminant: a variant's tag name, or a literal's
// constant-pool payload.
type MatchSwitch struct {
	Path    []int
	Cases   map[interface{}]DecisionTree
	Keys    []interface{} // Cases' keys in first-seen order, for deterministic codegen/printing
	Default DecisionTree
}

func (*MatchLeaf) isDecisionTree()   {}
func (*MatchFail) isDecisionTree()   {}
func (*MatchSwitch) isDecisionTree() {}

// matchRow is one row of the pattern matrix: the remaining sub-patterns
// still to be tested for one arm, and which arm it came from.
type matchRow struct {
	patterns []BindingPattern
	armIndex int
}

// BuildDecisionTree compiles arms into a decision tree via row
// specialization, the same matrix algorithm as the teacher's
// dtree.DecisionTreeCompiler adapted from ailang's core.CorePattern to
// oric's BindingPattern: group rows by column 0's discriminant, then
// recurse into each group with that column replaced by its sub-patterns.
func BuildDecisionTree(a *Arena, arms []MatchArm) DecisionTree {
	rows := make([]matchRow, len(arms))
	for i, arm := range arms {
		rows[i] = matchRow{patterns: []BindingPattern{arm.Pattern}, armIndex: i}
	}
	return compileMatrix(a, rows, nil)
}

// compileMatrix is DecisionTreeCompiler.compileMatrix: base cases first
// (no rows left, or the first row is already all wildcards/bindings),
// otherwise split on column 0.
func compileMatrix(a *Arena, rows []matchRow, path []int) DecisionTree {
	if len(rows) == 0 {
		return &MatchFail{}
	}
	if isDefaultRow(rows[0]) {
		return &MatchLeaf{ArmIndex: rows[0].armIndex}
	}
	if len(rows[0].patterns) == 0 {
		return &MatchLeaf{ArmIndex: rows[0].armIndex}
	}
	return buildSwitch(a, rows, path, 0)
}

// isDefaultRow reports whether every remaining column of row is a
// wildcard or a variable binding, i.e. it matches unconditionally.
func isDefaultRow(row matchRow) bool {
	for _, pat := range row.patterns {
		switch pat.Kind {
		case PatWildcard, PatName:
			continue
		default:
			return false
		}
	}
	return true
}

// buildSwitch is DecisionTreeCompiler.buildSwitch: group rows by their
// pattern in column colIndex (literal value or variant tag), specialize
// each group by expanding that column into its sub-patterns, and recurse.
func buildSwitch(a *Arena, rows []matchRow, path []int, colIndex int) DecisionTree {
	groups := map[interface{}][]matchRow{}
	var keys []interface{}
	var groupSubs map[interface{}][]BindingPattern
	var defaultRows []matchRow

	for _, row := range rows {
		if colIndex >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}
		pat := row.patterns[colIndex]
		switch pat.Kind {
		case PatLiteral:
			key := literalKey(a, pat.Value)
			if _, ok := groups[key]; !ok {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], row)
		case PatVariant:
			key := pat.Variant
			if _, ok := groups[key]; !ok {
				keys = append(keys, key)
				if groupSubs == nil {
					groupSubs = map[interface{}][]BindingPattern{}
				}
				groupSubs[key] = pat.Sub
			}
			groups[key] = append(groups[key], row)
		default:
			defaultRows = append(defaultRows, row)
		}
	}

	// Only defaults at this column: collapse straight to the first one,
	// same as the teacher's "cases is empty" shortcut.
	if len(groups) == 0 {
		return compileMatrix(a, specializeRows(defaultRows, colIndex, nil), path)
	}

	newPath := append(append([]int{}, path...), colIndex)
	sw := &MatchSwitch{Path: newPath, Cases: make(map[interface{}]DecisionTree, len(keys)), Keys: keys}
	for _, key := range keys {
		sw.Cases[key] = compileMatrix(a, specializeRows(groups[key], colIndex, groupSubs[key]), newPath)
	}
	if len(defaultRows) > 0 {
		sw.Default = compileMatrix(a, specializeRows(defaultRows, colIndex, nil), newPath)
	} else {
		sw.Default = &MatchFail{}
	}
	return sw
}

// specializeRows removes column colIndex from every row, expanding a
// PatVariant's sub-patterns in its place (pattern specialization); a
// wildcard/variable in that column is expanded to one wildcard per
// sibling sub-pattern so the row stays aligned with the other rows in
// the same switch case.
func specializeRows(rows []matchRow, colIndex int, siblingSubs []BindingPattern) []matchRow {
	out := make([]matchRow, 0, len(rows))
	for _, row := range rows {
		next := make([]BindingPattern, 0, len(row.patterns)+len(siblingSubs))
		for i, pat := range row.patterns {
			if i != colIndex {
				next = append(next, pat)
				continue
			}
			switch pat.Kind {
			case PatVariant:
				next = append(next, pat.Sub...)
			case PatWildcard, PatName:
				for range siblingSubs {
					next = append(next, BindingPattern{Kind: PatWildcard})
				}
			default:
				// literal column consumed entirely by the switch test
			}
		}
		out = append(out, matchRow{patterns: next, armIndex: row.armIndex})
	}
	return out
}

// literalKey extracts a comparable discriminant from a PatLiteral's
// canonicalized value, resolving through the constant pool the way
// internal/canon's literal-lowering functions populate ConstRef.
func literalKey(a *Arena, id Id) interface{} {
	n := a.Get(id)
	c := a.Const(n.ConstRef)
	switch c.Kind {
	case LitInt, LitDuration, LitSize:
		return c.IVal
	case LitFloat:
		return c.IVal // bit pattern, per Const's own doc comment
	case LitBool:
		return c.BVal
	case LitStr:
		return c.SVal
	case LitChar:
		return c.RVal
	default:
		return c.Kind
	}
}
