package arcir

import (
	"testing"

	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

func newTestBuilder() (*Builder, *canon.Arena, *ident.Interner, *tpool.Pool) {
	names := ident.New()
	arena := canon.NewArena(names)
	pool := tpool.New()
	b := NewBuilder(arena, map[canon.Id]tpool.Idx{}, names, pool, diag.NewQueue())
	return b, arena, names, pool
}

func TestLowerFunctionReturnsLiteral(t *testing.T) {
	b, arena, names, pool := newTestBuilder()
	body := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 7})
	b.Types[body] = pool.INT

	fn := b.LowerFunction(names.Intern("answer"), nil, nil, pool.INT, body)
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected 1 block for a straight-line body, got %d", len(fn.Blocks))
	}
	entry := fn.Blocks[0]
	if !entry.Terminated || entry.Term.Kind != TermReturn {
		t.Fatalf("expected entry block to terminate in Return, got %+v", entry.Term)
	}
	if len(entry.Instrs) != 1 || entry.Instrs[0].Op != OpLiteral {
		t.Fatalf("expected a single literal instruction, got %+v", entry.Instrs)
	}
}

func TestLowerFunctionIfBranchesAndJoins(t *testing.T) {
	b, arena, names, pool := newTestBuilder()
	cond := arena.Alloc(canon.Node{Kind: canon.KBool, BVal: true})
	thenV := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 1})
	elseV := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 2})
	ifNode := arena.Alloc(canon.Node{Kind: canon.KIf, A: cond, B: thenV, C: elseV})
	b.Types[ifNode] = pool.INT
	b.Types[thenV] = pool.INT
	b.Types[elseV] = pool.INT
	b.Types[cond] = pool.BOOL

	fn := b.LowerFunction(names.Intern("pick"), nil, nil, pool.INT, ifNode)
	// entry, then, else, join
	if len(fn.Blocks) != 4 {
		t.Fatalf("expected 4 blocks (entry/then/else/join), got %d", len(fn.Blocks))
	}
	join := fn.Blocks[3]
	if len(join.Preds) != 2 {
		t.Fatalf("expected join block to have 2 predecessors, got %d", len(join.Preds))
	}
	var phi *Instr
	for i := range join.Instrs {
		if join.Instrs[i].Op == OpPhi {
			phi = &join.Instrs[i]
		}
	}
	if phi == nil {
		t.Fatalf("expected a Phi instruction in the join block")
	}
	if len(phi.PhiArgs) != 2 {
		t.Fatalf("expected 2 phi args, got %d", len(phi.PhiArgs))
	}
}

func TestLowerFunctionLoopBreakProducesPhi(t *testing.T) {
	b, arena, names, pool := newTestBuilder()
	breakVal := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 9})
	brk := arena.Alloc(canon.Node{Kind: canon.KBreak, A: breakVal})
	loopBody := arena.Alloc(canon.Node{Kind: canon.KBlock, A: brk})
	loopNode := arena.Alloc(canon.Node{Kind: canon.KLoop, A: loopBody})
	b.Types[loopNode] = pool.INT
	b.Types[breakVal] = pool.INT

	fn := b.LowerFunction(names.Intern("once"), nil, nil, pool.INT, loopNode)
	exit := fn.Blocks[len(fn.Blocks)-1]
	var phi *Instr
	for i := range exit.Instrs {
		if exit.Instrs[i].Op == OpPhi {
			phi = &exit.Instrs[i]
		}
	}
	if phi == nil {
		t.Fatalf("expected break to produce a Phi in the loop's exit block")
	}
	if len(phi.PhiArgs) != 1 {
		t.Fatalf("expected 1 break arm, got %d", len(phi.PhiArgs))
	}
}

func TestLowerFunctionBlockThreadsLetBindings(t *testing.T) {
	b, arena, names, pool := newTestBuilder()
	x := names.Intern("x")
	init := arena.Alloc(canon.Node{Kind: canon.KInt, IVal: 3})
	xRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: x})
	stmts := []canon.Stmt{{Kind: canon.StmtLet, Let: canon.LetStmtPayload{
		Pattern: canon.BindingPattern{Kind: canon.PatName, Name: x},
		Init:    init,
	}}}
	block := arena.Alloc(canon.Node{Kind: canon.KBlock, Children: arena.AllocStmts(stmts), A: xRef})
	b.Types[init] = pool.INT
	b.Types[xRef] = pool.INT
	b.Types[block] = pool.INT

	fn := b.LowerFunction(names.Intern("id3"), nil, nil, pool.INT, block)
	entry := fn.Blocks[0]
	if entry.Term.Kind != TermReturn {
		t.Fatalf("expected Return terminator, got %v", entry.Term.Kind)
	}
	// the let's literal instruction should be the value flowing to Return,
	// since `x` resolves directly to that SSA value rather than a reload.
	if entry.Term.ReturnValue != entry.Instrs[0].Result {
		t.Fatalf("expected block result to reuse the let-bound SSA value")
	}
}

func TestLowerLambdaHoistsToNewFunctionWithCapture(t *testing.T) {
	b, arena, names, pool := newTestBuilder()
	outer := names.Intern("n")
	paramName := names.Intern("x")
	paramIdent := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: paramName})
	outerRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: outer})
	paramRef := arena.Alloc(canon.Node{Kind: canon.KIdent, Ref: paramName})
	sum := arena.Alloc(canon.Node{Kind: canon.KBinary, Op: "+", A: outerRef, B: paramRef})
	lambdaNode := arena.Alloc(canon.Node{Kind: canon.KLambda, Children: arena.AllocChildren([]canon.Id{paramIdent}), A: sum})
	b.Types[sum] = pool.INT
	b.Types[lambdaNode] = pool.Function([]tpool.Idx{pool.INT}, pool.INT)

	fn := b.LowerFunction(names.Intern("adder"), []ident.Name{outer}, []tpool.Idx{pool.INT}, pool.Function([]tpool.Idx{pool.INT}, pool.INT), lambdaNode)
	if len(b.Module.Functions) != 2 {
		t.Fatalf("expected the lambda to hoist into its own Function, got %d functions", len(b.Module.Functions))
	}
	hoisted := b.Module.Functions[0]
	if !hoisted.IsLambda {
		t.Fatalf("expected the hoisted function to be marked IsLambda")
	}
	if len(hoisted.Captures) != 1 || hoisted.Captures[0].Name != outer {
		t.Fatalf("expected the lambda to capture %q, got %+v", names.Lookup(outer), hoisted.Captures)
	}
	entry := fn.Blocks[0]
	var closureInstr *Instr
	for i := range entry.Instrs {
		if entry.Instrs[i].Op == OpClosureMake {
			closureInstr = &entry.Instrs[i]
		}
	}
	if closureInstr == nil {
		t.Fatalf("expected an OpClosureMake instruction at the lambda's definition site")
	}
	if len(closureInstr.Args) != 1 {
		t.Fatalf("expected 1 captured argument, got %d", len(closureInstr.Args))
	}
}
