package arcir

import (
	"fmt"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// lowerLambda hoists a lambda body to a fresh top-level ARC function and
// emits an OpClosureMake at the call site capturing its free variables
// (spec.md §4.6 "Lambdas -> hoist..."; §4.9 "closure descriptor").
func (b *Builder) lowerLambda(n *canon.Node, ty tpool.Idx, sc *scope) VarId {
	paramIds := b.Arena.Children(n.Children)
	free := freeVars(b.Arena, n.A, paramIds)

	lamFn := &Function{
		Name:     b.Names.Intern(b.lambdaName()),
		IsLambda: true,
	}
	for _, name := range free {
		if _, ok := sc.lookup(name); ok {
			lamFn.Captures = append(lamFn.Captures, Param{Name: name, Type: tpool.NONE})
		}
	}

	savedFn, savedBlock, savedNextVar, savedLoopStack := b.fn, b.block, b.nextVar, b.loopStack
	b.fn = lamFn
	b.nextVar = 0
	b.loopStack = nil
	entry := lamFn.newBlock()
	lamFn.Entry = entry.Id
	b.block = entry

	lamSc := (*scope)(nil)
	for _, pid := range paramIds {
		pname := b.Arena.Get(pid).Ref
		v := b.freshVar()
		lamFn.Params = append(lamFn.Params, Param{Name: pname, Var: v, Type: tpool.NONE})
		lamSc = lamSc.extend(pname, v)
	}
	for i := range lamFn.Captures {
		v := b.freshVar()
		lamFn.Captures[i].Var = v
		lamSc = lamSc.extend(lamFn.Captures[i].Name, v)
	}

	result := b.lowerExpr(n.A, lamSc)
	b.setTerm(Terminator{Kind: TermReturn, ReturnValue: result})
	lamFn.RetType = b.typeOf(n.A)
	b.Module.Functions = append(b.Module.Functions, lamFn)

	b.fn, b.block, b.nextVar, b.loopStack = savedFn, savedBlock, savedNextVar, savedLoopStack

	var captureArgs []VarId
	for _, name := range free {
		if v, ok := sc.lookup(name); ok {
			captureArgs = append(captureArgs, v)
		}
	}
	return b.emitLet(Instr{Op: OpClosureMake, Type: ty, Name: lamFn.Name, Args: captureArgs})
}

func (b *Builder) lambdaName() string {
	b.lambdaSeq++
	return fmt.Sprintf("$lambda%d", b.lambdaSeq)
}

// freeVars collects identifiers referenced inside id that are not among
// bound (the lambda's own parameters) — a simple over-approximation that
// does not exclude nested-scope shadowing, mirroring the name-reference
// walk internal/infer uses for closure self-capture detection.
func freeVars(a *canon.Arena, id canon.Id, bound []canon.Id) []ident.Name {
	boundNames := make(map[ident.Name]bool, len(bound))
	for _, pid := range bound {
		boundNames[a.Get(pid).Ref] = true
	}
	seen := make(map[ident.Name]bool)
	var out []ident.Name
	visited := make(map[canon.Id]bool)
	var walk func(canon.Id)
	walk = func(id canon.Id) {
		if id == canon.NONE || visited[id] {
			return
		}
		visited[id] = true
		n := a.Get(id)
		if n.Kind == canon.KIdent && !boundNames[n.Ref] && !seen[n.Ref] {
			seen[n.Ref] = true
			out = append(out, n.Ref)
		}
		walk(n.A)
		walk(n.B)
		walk(n.C)
		if n.Kind == canon.KBlock {
			for _, s := range a.Stmts(n.Children) {
				walk(s.Expr)
				walk(s.Target)
				walk(s.Let.Init)
			}
		} else {
			for _, c := range a.Children(n.Children) {
				walk(c)
			}
		}
		for _, e := range n.MapEntries {
			walk(e.Key)
			walk(e.Value)
		}
		for _, f := range n.StructFields {
			walk(f.Value)
		}
		for _, arm := range n.MatchArms {
			walk(arm.Guard)
			walk(arm.Body)
		}
		for _, p := range n.FuncExpProps {
			walk(p.Value)
		}
	}
	walk(id)
	return out
}
