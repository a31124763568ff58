package arcir

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/token"
	"github.com/ori-lang/oric/internal/tpool"
)

// LoopContext records the exit/continue blocks and the phi slots mutable
// locals route through, so `break`/`continue` emitted deep in a loop body
// can jump to the right merge point (spec.md §4.6, "LoopContext stack").
type LoopContext struct {
	ContinueBlock BlockId
	ExitBlock     BlockId
	ResultVar     VarId // the exit block's phi slot for `break value`
	ResultType    tpool.Idx
	// breaks accumulates (fromBlock, value) pairs so the exit block's phi
	// can be completed once every break site is known.
	breaks []phiIncoming
}

type phiIncoming struct {
	from  BlockId
	value VarId
}

// scope is a persistent (copy-on-write) map from source name to its
// current SSA value, mirroring infer.Env's linked-list shape so closures
// over a scope snapshot are never perturbed by sibling branches.
type scope struct {
	parent *scope
	name   ident.Name
	value  VarId
}

func (s *scope) extend(name ident.Name, v VarId) *scope {
	return &scope{parent: s, name: name, value: v}
}

func (s *scope) lookup(name ident.Name) (VarId, bool) {
	for e := s; e != nil; e = e.parent {
		if e.name == name {
			return e.value, true
		}
	}
	return NoVar, false
}

// Builder lowers a canon.Arena, using an inference engine's recorded types
// (canon.Id -> tpool.Idx) to type every emitted instruction, into one or
// more ARC functions (spec.md §4.6).
type Builder struct {
	Arena *canon.Arena
	Types map[canon.Id]tpool.Idx
	Names *ident.Interner
	Pool  *tpool.Pool
	Diags *diag.Queue

	Module *Module

	fn        *Function
	block     *Block
	nextVar   VarId
	loopStack []*LoopContext
	lambdaSeq int
}

// NewBuilder returns a builder over arena, using types (typically
// infer.Engine.Resolved) to annotate every emitted value. pool is the same
// type pool types' entries were interned in, used to type synthesized
// boolean tests (pattern matches, guards) that have no canon.Id of their
// own to look up in types.
func NewBuilder(arena *canon.Arena, types map[canon.Id]tpool.Idx, names *ident.Interner, pool *tpool.Pool, diags *diag.Queue) *Builder {
	return &Builder{
		Arena:  arena,
		Types:  types,
		Names:  names,
		Pool:   pool,
		Diags:  diags,
		Module: &Module{},
	}
}

func (b *Builder) typeOf(id canon.Id) tpool.Idx {
	if t, ok := b.Types[id]; ok {
		return t
	}
	return tpool.NONE
}

func (b *Builder) freshVar() VarId {
	v := b.nextVar
	b.nextVar++
	return v
}

// emitLet appends an instruction assigning a fresh value and returns it,
// the `emit_let(ty, value, span) -> ArcVarId` primitive spec.md §4.6 names.
func (b *Builder) emitLet(instr Instr) VarId {
	v := b.freshVar()
	instr.Result = v
	b.block.Instrs = append(b.block.Instrs, instr)
	return v
}

func (b *Builder) setTerm(t Terminator) {
	if b.block.Terminated {
		return
	}
	b.block.Term = t
	b.block.Terminated = true
}

func (b *Builder) switchBlock(blk *Block) { b.block = blk }

// LowerFunction lowers one function body (canon.Arena.FnRoots entry) into a
// new top-level ArcFunction.
func (b *Builder) LowerFunction(name ident.Name, params []ident.Name, paramTypes []tpool.Idx, retType tpool.Idx, bodyRoot canon.Id) *Function {
	fn := &Function{Name: name, RetType: retType}
	b.fn = fn
	b.nextVar = 0
	entry := fn.newBlock()
	fn.Entry = entry.Id
	b.block = entry

	sc := (*scope)(nil)
	for i, p := range params {
		v := b.freshVar()
		var t tpool.Idx
		if i < len(paramTypes) {
			t = paramTypes[i]
		}
		fn.Params = append(fn.Params, Param{Name: p, Var: v, Type: t})
		sc = sc.extend(p, v)
	}

	result := b.lowerExpr(bodyRoot, sc)
	b.setTerm(Terminator{Kind: TermReturn, ReturnValue: result})
	b.Module.Functions = append(b.Module.Functions, fn)
	return fn
}

// lowerExpr walks one canonical expression, emitting ARC IR instructions
// into the builder's current block and returning the SSA value produced.
func (b *Builder) lowerExpr(id canon.Id, sc *scope) VarId {
	if id == canon.NONE {
		return b.emitLet(Instr{Op: OpUnit, Type: tpool.NONE})
	}
	n := b.Arena.Get(id)
	ty := b.typeOf(id)

	switch n.Kind {
	case canon.KInt:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitInt, IVal: n.IVal})
	case canon.KFloat:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitFloat, FVal: n.FVal})
	case canon.KBool:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitBool, BVal: n.BVal})
	case canon.KStr:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitStr, SVal: n.SVal})
	case canon.KChar:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitChar, RVal: n.RVal})
	case canon.KUnit:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitUnit})
	case canon.KDuration:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitDuration, IVal: n.IVal, Name: n.Unit})
	case canon.KSize:
		return b.emitLet(Instr{Op: OpLiteral, Type: ty, LitK: LitSize, IVal: n.IVal, Name: n.Unit})

	case canon.KIdent:
		if v, ok := sc.lookup(n.Ref); ok {
			return v
		}
		// Unbound identifiers should have been caught by inference; we
		// still synthesize a unit value so lowering remains total
		// (spec.md §4.6, "Identifiers").
		b.Diags.Push(diag.New("lower", diag.UnknownIdent, diag.SeverityError, n.Span,
			"unbound identifier reached ARC lowering"))
		return b.emitLet(Instr{Op: OpUnit, Type: ty})

	case canon.KBinary:
		lhs := b.lowerExpr(n.A, sc)
		rhs := b.lowerExpr(n.B, sc)
		return b.emitLet(Instr{Op: OpPrimOp, Type: ty, Op2: n.Op, Args: []VarId{lhs, rhs}})
	case canon.KUnary:
		operand := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpPrimOp, Type: ty, Op2: n.Op, Args: []VarId{operand}})
	case canon.KCast:
		operand := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpPrimOp, Type: ty, Op2: "cast", Args: []VarId{operand}})

	case canon.KCall:
		fnVal := b.lowerExpr(n.A, sc)
		args := []VarId{fnVal}
		for _, argID := range b.Arena.Children(n.Children) {
			args = append(args, b.lowerExpr(argID, sc))
		}
		return b.emitLet(Instr{Op: OpCall, Type: ty, Args: args})
	case canon.KMethodCall:
		recv := b.lowerExpr(n.A, sc)
		args := []VarId{recv}
		for _, argID := range b.Arena.Children(n.Children) {
			args = append(args, b.lowerExpr(argID, sc))
		}
		return b.emitLet(Instr{Op: OpMethodCall, Type: ty, Name: n.Name, Args: args})

	case canon.KField:
		recv := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpFieldGet, Type: ty, Name: n.Name, Args: []VarId{recv}})
	case canon.KIndex:
		recv := b.lowerExpr(n.A, sc)
		idx := b.lowerExpr(n.B, sc)
		return b.emitLet(Instr{Op: OpIndexGet, Type: ty, Args: []VarId{recv, idx}})

	case canon.KIf:
		return b.lowerIf(n, ty, sc)
	case canon.KMatch:
		return b.lowerMatch(n, ty, sc)
	case canon.KFor:
		return b.lowerFor(n, ty, sc)
	case canon.KLoop:
		return b.lowerLoop(n, ty, sc)
	case canon.KBreak:
		return b.lowerBreak(n, sc)
	case canon.KContinue:
		return b.lowerContinue(sc)
	case canon.KTry:
		return b.lowerExpr(n.A, sc)
	case canon.KAwait:
		b.unsupported(n.Span, "await")
		return b.emitLet(Instr{Op: OpUnit, Type: ty})

	case canon.KBlock:
		return b.lowerBlock(n, sc)
	case canon.KLambda:
		return b.lowerLambda(n, ty, sc)

	case canon.KList:
		var elems []VarId
		for _, c := range b.Arena.Children(n.Children) {
			elems = append(elems, b.lowerExpr(c, sc))
		}
		return b.emitLet(Instr{Op: OpMakeList, Type: ty, Args: elems})
	case canon.KTuple:
		var elems []VarId
		for _, c := range b.Arena.Children(n.Children) {
			elems = append(elems, b.lowerExpr(c, sc))
		}
		return b.emitLet(Instr{Op: OpMakeTuple, Type: ty, Args: elems})
	case canon.KMap:
		var kvs []VarId
		for _, e := range n.MapEntries {
			kvs = append(kvs, b.lowerExpr(e.Key, sc), b.lowerExpr(e.Value, sc))
		}
		return b.emitLet(Instr{Op: OpMakeMap, Type: ty, Args: kvs})
	case canon.KStruct:
		var vals []VarId
		for _, f := range n.StructFields {
			vals = append(vals, b.lowerExpr(f.Value, sc))
		}
		return b.emitLet(Instr{Op: OpMakeStruct, Type: ty, Name: n.Name, Args: vals})
	case canon.KRange:
		var args []VarId
		if n.A != canon.NONE {
			args = append(args, b.lowerExpr(n.A, sc))
		}
		if n.B != canon.NONE {
			args = append(args, b.lowerExpr(n.B, sc))
		}
		if n.C != canon.NONE {
			args = append(args, b.lowerExpr(n.C, sc))
		}
		return b.emitLet(Instr{Op: OpPrimOp, Type: ty, Op2: "range", Args: args})

	case canon.KOk:
		inner := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpMakeVariant, Type: ty, Name: b.Names.Intern("Ok"), Args: []VarId{inner}})
	case canon.KErr:
		inner := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpMakeVariant, Type: ty, Name: b.Names.Intern("Err"), Args: []VarId{inner}})
	case canon.KSome:
		inner := b.lowerExpr(n.A, sc)
		return b.emitLet(Instr{Op: OpMakeVariant, Type: ty, Name: b.Names.Intern("Some"), Args: []VarId{inner}})
	case canon.KNone:
		return b.emitLet(Instr{Op: OpMakeVariant, Type: ty, Name: b.Names.Intern("None")})

	case canon.KWithCapability:
		b.unsupported(n.Span, "with-capability")
		return b.lowerExpr(n.B, sc)
	case canon.KFunctionExp:
		b.unsupported(n.Span, "first-class pattern special form")
		for _, p := range n.FuncExpProps {
			b.lowerExpr(p.Value, sc)
		}
		return b.emitLet(Instr{Op: OpUnit, Type: ty})
	case canon.KFormatWith:
		expr := b.lowerExpr(n.A, sc)
		spec := b.lowerExpr(n.B, sc)
		return b.emitLet(Instr{Op: OpPrimOp, Type: ty, Op2: "format_with", Args: []VarId{expr, spec}})

	case canon.KError:
		return b.emitLet(Instr{Op: OpUnit, Type: ty})
	default:
		return b.emitLet(Instr{Op: OpUnit, Type: ty})
	}
}

// unsupported records the "unsupported in this release" diagnostic
// spec.md §4.6 requires for Await/WithCapability/FunctionExp special
// forms, keeping lowering total rather than panicking or aborting.
func (b *Builder) unsupported(span token.Span, what string) {
	b.Diags.Push(diag.New("lower", diag.UnsupportedInThisRelease, diag.SeverityWarning, span,
		what+" is unsupported in this release's ARC lowerer"))
}
