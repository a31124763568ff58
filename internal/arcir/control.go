package arcir

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/tpool"
)

// link records that from is a predecessor of to, used to keep join-block
// Phi instructions ordered consistently with Preds.
func (b *Builder) link(from *Block, to *Block) {
	to.Preds = append(to.Preds, from.Id)
}

func (b *Builder) branchTo(from *Block, to *Block) {
	if from.Terminated {
		return
	}
	b.link(from, to)
	from.Term = Terminator{Kind: TermBranch, Target: to.Id}
	from.Terminated = true
}

// lowerIf emits a condition in the current block, two branch blocks, and a
// join block with a Phi merging both arms' results (spec.md §4.6,
// "If/Match -> branching blocks with phi nodes at joins").
func (b *Builder) lowerIf(n *canon.Node, ty tpool.Idx, sc *scope) VarId {
	cond := b.lowerExpr(n.A, sc)
	entry := b.block
	thenBlk := b.fn.newBlock()
	elseBlk := b.fn.newBlock()
	joinBlk := b.fn.newBlock()

	entry.Term = Terminator{Kind: TermCondBranch, Cond: cond, IfTrue: thenBlk.Id, IfFalse: elseBlk.Id}
	entry.Terminated = true
	b.link(entry, thenBlk)
	b.link(entry, elseBlk)

	b.switchBlock(thenBlk)
	thenVal := b.lowerExpr(n.B, sc)
	thenEnd := b.block
	b.branchTo(thenEnd, joinBlk)

	b.switchBlock(elseBlk)
	elseVal := b.lowerExpr(n.C, sc)
	elseEnd := b.block
	b.branchTo(elseEnd, joinBlk)

	b.switchBlock(joinBlk)
	return b.emitLet(Instr{Op: OpPhi, Type: ty, PhiArgs: []VarId{thenVal, elseVal}})
}

// lowerMatch lowers a match by testing the scrutinee against each arm's
// pattern in source order, branching to the first arm whose pattern and
// guard both succeed, and joining every arm's body with a Phi.
//
// internal/canon already builds a decision tree for this match
// (n.MatchTree, spec.md §4.3) and internal/infer uses it for
// exhaustiveness checking; this lowering does not yet dispatch through
// that tree's Path/Switch shape to skip redundant sub-tests at codegen
// time; it keeps the straightforward per-arm chain below, which is always
// correct regardless of the tree's shape. Driving codegen itself from the
// tree's Cases is future work, tracked in DESIGN.md.
func (b *Builder) lowerMatch(n *canon.Node, ty tpool.Idx, sc *scope) VarId {
	scrutinee := b.lowerExpr(n.A, sc)
	joinBlk := b.fn.newBlock()
	var phiArgs []VarId

	cur := b.block
	for i, arm := range n.MatchArms {
		testBlk := b.fn.newBlock()
		bodyBlk := b.fn.newBlock()
		isLast := i == len(n.MatchArms)-1
		var nextBlk *Block
		if isLast {
			// exhaustiveness was already checked during inference (spec.md
			// §4.4's NonExhaustiveMatch), so the fall-through here can
			// never actually be taken at runtime.
			nextBlk = b.fn.newBlock()
			nextBlk.Term = Terminator{Kind: TermUnreachable}
			nextBlk.Terminated = true
		} else {
			nextBlk = b.fn.newBlock()
		}

		b.branchTo(cur, testBlk)
		b.switchBlock(testBlk)
		matched, armSc := b.lowerPatternTest(arm.Pattern, scrutinee, sc)
		if arm.Guard != canon.NONE {
			guardVal := b.lowerExpr(arm.Guard, armSc)
			matched = b.emitLet(Instr{Op: OpPrimOp, Type: b.Pool.BOOL, Op2: "&&", Args: []VarId{matched, guardVal}})
		}
		entry := b.block
		entry.Term = Terminator{Kind: TermCondBranch, Cond: matched, IfTrue: bodyBlk.Id, IfFalse: nextBlk.Id}
		entry.Terminated = true
		b.link(entry, bodyBlk)
		if !isLast {
			b.link(entry, nextBlk)
		}

		b.switchBlock(bodyBlk)
		bodyVal := b.lowerExpr(arm.Body, armSc)
		b.branchTo(b.block, joinBlk)
		phiArgs = append(phiArgs, bodyVal)

		cur = nextBlk
	}

	b.switchBlock(joinBlk)
	return b.emitLet(Instr{Op: OpPhi, Type: ty, PhiArgs: phiArgs})
}

// lowerPatternTest emits a boolean test for whether scrutinee matches pat,
// returning the test value and a scope extended with the pattern's
// bindings (valid regardless of whether the test itself succeeds; only
// used in the branch taken when it does).
func (b *Builder) lowerPatternTest(pat canon.BindingPattern, scrutinee VarId, sc *scope) (VarId, *scope) {
	switch pat.Kind {
	case canon.PatWildcard:
		return b.trueVar(), sc
	case canon.PatName:
		return b.trueVar(), sc.extend(pat.Name, scrutinee)
	case canon.PatLiteral:
		litVal := b.lowerExpr(pat.Value, sc)
		return b.emitLet(Instr{Op: OpPrimOp, Type: b.Pool.BOOL, Op2: "==", Args: []VarId{scrutinee, litVal}}), sc
	case canon.PatVariant:
		test := b.emitLet(Instr{Op: OpPrimOp, Type: b.Pool.BOOL, Op2: "is_variant", Name: pat.Variant, Args: []VarId{scrutinee}})
		scoped := sc
		for i, sub := range pat.Sub {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: b.Names.Intern(indexFieldName(i)), Args: []VarId{scrutinee}})
			_, scoped = b.lowerPatternTest(sub, field, scoped)
		}
		return test, scoped
	case canon.PatTuple:
		scoped := sc
		for i, sub := range pat.Sub {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: b.Names.Intern(indexFieldName(i)), Args: []VarId{scrutinee}})
			_, scoped = b.lowerPatternTest(sub, field, scoped)
		}
		return b.trueVar(), scoped
	case canon.PatStruct:
		scoped := sc
		for _, fp := range pat.Fields {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: fp.Name, Args: []VarId{scrutinee}})
			_, scoped = b.lowerPatternTest(fp.Pattern, field, scoped)
		}
		return b.trueVar(), scoped
	case canon.PatList:
		scoped := sc
		for i, sub := range pat.Sub {
			elem := b.emitLet(Instr{Op: OpIndexGet, Args: []VarId{scrutinee, b.intLit(int64(i))}})
			_, scoped = b.lowerPatternTest(sub, elem, scoped)
		}
		if pat.Rest != 0 {
			rest := b.emitLet(Instr{Op: OpPrimOp, Op2: "slice_from", Args: []VarId{scrutinee, b.intLit(int64(len(pat.Sub)))}})
			scoped = scoped.extend(pat.Rest, rest)
		}
		return b.trueVar(), scoped
	default:
		return b.trueVar(), sc
	}
}

func indexFieldName(i int) string {
	names := []string{"0", "1", "2", "3", "4", "5", "6", "7"}
	if i < len(names) {
		return names[i]
	}
	return "N"
}

func (b *Builder) trueVar() VarId {
	return b.emitLet(Instr{Op: OpLiteral, Type: b.Pool.BOOL, LitK: LitBool, BVal: true})
}

func (b *Builder) intLit(v int64) VarId {
	return b.emitLet(Instr{Op: OpLiteral, Type: b.Pool.INT, LitK: LitInt, IVal: uint64(v)})
}

// lowerFor builds entry/header/body/exit blocks and pushes a LoopContext
// so `break`/`continue` within the body resolve to the right merge point
// (spec.md §4.6, "Loop/For").
func (b *Builder) lowerFor(n *canon.Node, ty tpool.Idx, sc *scope) VarId {
	iter := b.lowerExpr(n.A, sc)
	header := b.fn.newBlock()
	body := b.fn.newBlock()
	exit := b.fn.newBlock()

	b.branchTo(b.block, header)
	b.switchBlock(header)
	hasNext := b.emitLet(Instr{Op: OpPrimOp, Type: b.Pool.BOOL, Op2: "has_next", Args: []VarId{iter}})
	header.Term = Terminator{Kind: TermCondBranch, Cond: hasNext, IfTrue: body.Id, IfFalse: exit.Id}
	header.Terminated = true
	b.link(header, body)
	b.link(header, exit)

	b.switchBlock(body)
	elemVal := b.emitLet(Instr{Op: OpPrimOp, Op2: "next", Args: []VarId{iter}})
	bodySc := b.bindPattern(n.ForBinding, elemVal, sc)

	lc := &LoopContext{ContinueBlock: header.Id, ExitBlock: exit.Id, ResultType: ty}
	b.loopStack = append(b.loopStack, lc)
	if n.B != canon.NONE {
		guardVal := b.lowerExpr(n.B, bodySc)
		passBlk := b.fn.newBlock()
		entry := b.block
		entry.Term = Terminator{Kind: TermCondBranch, Cond: guardVal, IfTrue: passBlk.Id, IfFalse: header.Id}
		entry.Terminated = true
		b.link(entry, passBlk)
		b.link(entry, header)
		b.switchBlock(passBlk)
	}
	b.lowerExpr(n.C, bodySc)
	b.branchTo(b.block, header)
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	b.switchBlock(exit)
	if len(lc.breaks) == 0 {
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitUnit})
	}
	// exit's first predecessor is the header's exhausted edge, which
	// carries Unit; the breaks follow in the order they linked to exit.
	unitV := b.freshVar()
	header.Instrs = append(header.Instrs, Instr{Op: OpLiteral, Result: unitV, Type: ty, LitK: LitUnit})
	phiArgs := []VarId{unitV}
	for _, br := range lc.breaks {
		phiArgs = append(phiArgs, br.value)
	}
	return b.emitLet(Instr{Op: OpPhi, Type: ty, PhiArgs: phiArgs})
}

// lowerLoop is lowerFor's unconditional-looping sibling: entry/body/exit,
// no iterator, relies entirely on break to reach the exit block.
func (b *Builder) lowerLoop(n *canon.Node, ty tpool.Idx, sc *scope) VarId {
	body := b.fn.newBlock()
	exit := b.fn.newBlock()
	b.branchTo(b.block, body)

	b.switchBlock(body)
	lc := &LoopContext{ContinueBlock: body.Id, ExitBlock: exit.Id, ResultType: ty}
	b.loopStack = append(b.loopStack, lc)
	b.lowerExpr(n.A, sc)
	b.branchTo(b.block, body)
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	b.switchBlock(exit)
	if len(lc.breaks) == 0 {
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitUnit})
	}
	var phiArgs []VarId
	for _, br := range lc.breaks {
		phiArgs = append(phiArgs, br.value)
	}
	return b.emitLet(Instr{Op: OpPhi, Type: ty, PhiArgs: phiArgs})
}

// lowerBreak assigns the break value to the enclosing loop's result phi
// and branches to its exit block (spec.md §4.6, "Break(value)").
func (b *Builder) lowerBreak(n *canon.Node, sc *scope) VarId {
	if len(b.loopStack) == 0 {
		return b.emitLet(Instr{Op: OpUnit})
	}
	lc := b.loopStack[len(b.loopStack)-1]
	var val VarId
	if n.A != canon.NONE {
		val = b.lowerExpr(n.A, sc)
	} else {
		val = b.emitLet(Instr{Op: OpLiteral, Type: lc.ResultType, LitK: LitUnit})
	}
	lc.breaks = append(lc.breaks, phiIncoming{from: b.block.Id, value: val})
	exitBlk := b.fn.Block(lc.ExitBlock)
	b.branchTo(b.block, exitBlk)
	return b.emitLet(Instr{Op: OpUnit})
}

// lowerContinue branches to the enclosing loop's continue (header) block
// (spec.md §4.6).
func (b *Builder) lowerContinue(sc *scope) VarId {
	if len(b.loopStack) == 0 {
		return b.emitLet(Instr{Op: OpUnit})
	}
	lc := b.loopStack[len(b.loopStack)-1]
	contBlk := b.fn.Block(lc.ContinueBlock)
	b.branchTo(b.block, contBlk)
	return b.emitLet(Instr{Op: OpUnit})
}

// lowerBlock lowers a KBlock's statements in order, threading a growing
// scope through Let bindings, and returns the trailing expression's value
// (Unit if absent). Assign writes to the variable's current SSA slot
// rather than a mutable memory cell (spec.md §4.6, "Assign -> write to the
// variable's phi slot in the current block").
func (b *Builder) lowerBlock(n *canon.Node, sc *scope) VarId {
	blockSc := sc
	for _, st := range b.Arena.Stmts(n.Children) {
		switch st.Kind {
		case canon.StmtExpr:
			b.lowerExpr(st.Expr, blockSc)
		case canon.StmtLet:
			val := b.lowerExpr(st.Let.Init, blockSc)
			blockSc = b.bindPattern(st.Let.Pattern, val, blockSc)
		case canon.StmtAssign:
			val := b.lowerExpr(st.Expr, blockSc)
			target := b.Arena.Get(st.Target)
			if target.Kind == canon.KIdent {
				blockSc = blockSc.extend(target.Ref, val)
			}
		}
	}
	if n.A == canon.NONE {
		return b.emitLet(Instr{Op: OpLiteral, LitK: LitUnit})
	}
	return b.lowerExpr(n.A, blockSc)
}

// bindPattern extends sc with the names a pattern introduces, binding
// every leaf to a projection off value (mirrors lowerPatternTest's
// field-extraction shape but without emitting a boolean test, since
// callers here already know the pattern matches — e.g. a For binding or an
// irrefutable Let pattern).
func (b *Builder) bindPattern(pat canon.BindingPattern, value VarId, sc *scope) *scope {
	switch pat.Kind {
	case canon.PatName:
		return sc.extend(pat.Name, value)
	case canon.PatWildcard, canon.PatLiteral:
		return sc
	case canon.PatTuple:
		for i, sub := range pat.Sub {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: b.Names.Intern(indexFieldName(i)), Args: []VarId{value}})
			sc = b.bindPattern(sub, field, sc)
		}
		return sc
	case canon.PatStruct:
		for _, fp := range pat.Fields {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: fp.Name, Args: []VarId{value}})
			sc = b.bindPattern(fp.Pattern, field, sc)
		}
		return sc
	case canon.PatList:
		for i, sub := range pat.Sub {
			elem := b.emitLet(Instr{Op: OpIndexGet, Args: []VarId{value, b.intLit(int64(i))}})
			sc = b.bindPattern(sub, elem, sc)
		}
		if pat.Rest != 0 {
			rest := b.emitLet(Instr{Op: OpPrimOp, Op2: "slice_from", Args: []VarId{value, b.intLit(int64(len(pat.Sub)))}})
			sc = sc.extend(pat.Rest, rest)
		}
		return sc
	case canon.PatVariant:
		for i, sub := range pat.Sub {
			field := b.emitLet(Instr{Op: OpFieldGet, Name: b.Names.Intern(indexFieldName(i)), Args: []VarId{value}})
			sc = b.bindPattern(sub, field, sc)
		}
		return sc
	default:
		return sc
	}
}
