package canon

import (
	"math"

	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/token"
)

// Builder lowers a parsed ptree.Module into a canonical Arena, desugaring
// surface-only constructs along the way (spec.md §4.3, "Lowering
// decisions"). One Builder lowers exactly one module.
type Builder struct {
	Arena *Arena
	Diags *diag.Queue
	phase string
}

// NewBuilder returns a Builder writing into a fresh Arena.
func NewBuilder(names *ident.Interner, diags *diag.Queue) *Builder {
	return &Builder{Arena: NewArena(names), Diags: diags, phase: "canon"}
}

// LowerModule canonicalizes every function declaration in m, recording each
// root Id in Arena.FnRoots.
func (b *Builder) LowerModule(m *ptree.Module) {
	for _, item := range m.Items {
		if fn, ok := item.(*ptree.FuncDecl); ok {
			root := b.LowerExpr(fn.Body)
			b.Arena.FnRoots[fn.Name] = root
		}
	}
}

// LowerExpr lowers one surface expression to a canonical Id. It never
// returns an invalid Id: unsupported or malformed input lowers to KError
// so downstream stages can proceed (spec.md §7 propagation policy).
func (b *Builder) LowerExpr(e ptree.Expr) Id {
	if e == nil {
		return b.Arena.Alloc(Node{Kind: KUnit, Span: token.Span{}})
	}
	switch n := e.(type) {
	case *ptree.IntLit:
		return b.litInt(n)
	case *ptree.FloatLit:
		return b.litFloat(n)
	case *ptree.BoolLit:
		return b.litBool(n)
	case *ptree.StrLit:
		return b.litStr(n)
	case *ptree.CharLit:
		return b.litChar(n)
	case *ptree.UnitLit:
		return b.Arena.Alloc(Node{Kind: KUnit, Span: n.Span})
	case *ptree.DurationLit:
		return b.litDuration(n)
	case *ptree.SizeLit:
		return b.litSize(n)
	case *ptree.Ident:
		return b.Arena.Alloc(Node{Kind: KIdent, Span: n.Span, Ref: n.Name})
	case *ptree.SelfRef:
		return b.Arena.Alloc(Node{Kind: KSelfRef, Span: n.Span})
	case *ptree.BinaryOp:
		return b.binary(n)
	case *ptree.UnaryOp:
		return b.unary(n)
	case *ptree.Cast:
		return b.Arena.Alloc(Node{Kind: KCast, Span: n.Span, A: b.LowerExpr(n.Expr), Fallible: n.Fallible})
	case *ptree.Call:
		return b.call(n)
	case *ptree.MethodCall:
		return b.methodCall(n)
	case *ptree.FieldAccess:
		return b.Arena.Alloc(Node{Kind: KField, Span: n.Span, A: b.LowerExpr(n.Receiver), Name: n.Field})
	case *ptree.IndexAccess:
		return b.Arena.Alloc(Node{Kind: KIndex, Span: n.Span, A: b.LowerExpr(n.Receiver), B: b.LowerExpr(n.Index)})
	case *ptree.If:
		return b.Arena.Alloc(Node{Kind: KIf, Span: n.Span, A: b.LowerExpr(n.Cond), B: b.LowerExpr(n.Then), C: b.LowerExpr(n.Else)})
	case *ptree.IfLet:
		return b.ifLet(n)
	case *ptree.Match:
		return b.match(n)
	case *ptree.ForIn:
		return b.forIn(n)
	case *ptree.LoopExpr:
		return b.Arena.Alloc(Node{Kind: KLoop, Span: n.Span, Name: n.Label, A: b.LowerExpr(n.Body)})
	case *ptree.BreakExpr:
		return b.Arena.Alloc(Node{Kind: KBreak, Span: n.Span, Name: n.Label, A: b.lowerOptional(n.Value)})
	case *ptree.ContinueExpr:
		return b.Arena.Alloc(Node{Kind: KContinue, Span: n.Span, Name: n.Label, A: b.lowerOptional(n.Value)})
	case *ptree.TryExpr:
		return b.Arena.Alloc(Node{Kind: KTry, Span: n.Span, A: b.LowerExpr(n.Expr)})
	case *ptree.AwaitExpr:
		return b.Arena.Alloc(Node{Kind: KAwait, Span: n.Span, A: b.LowerExpr(n.Expr)})
	case *ptree.Block:
		return b.block(n)
	case *ptree.Lambda:
		return b.lambda(n)
	case *ptree.ListLit:
		return b.Arena.Alloc(Node{Kind: KList, Span: n.Span, Children: b.lowerExprs(n.Elems)})
	case *ptree.TupleLit:
		return b.Arena.Alloc(Node{Kind: KTuple, Span: n.Span, Children: b.lowerExprs(n.Elems)})
	case *ptree.MapLit:
		return b.mapLit(n)
	case *ptree.StructLit:
		return b.structLit(n)
	case *ptree.RangeExpr:
		return b.rangeExpr(n)
	case *ptree.OkExpr:
		return b.Arena.Alloc(Node{Kind: KOk, Span: n.Span, A: b.LowerExpr(n.Value)})
	case *ptree.ErrExpr:
		return b.Arena.Alloc(Node{Kind: KErr, Span: n.Span, A: b.LowerExpr(n.Value)})
	case *ptree.SomeExpr:
		return b.Arena.Alloc(Node{Kind: KSome, Span: n.Span, A: b.LowerExpr(n.Value)})
	case *ptree.NoneExpr:
		return b.Arena.Alloc(Node{Kind: KNone, Span: n.Span})
	case *ptree.CoalesceExpr:
		return b.coalesce(n)
	case *ptree.WithCapability:
		return b.Arena.Alloc(Node{
			Kind: KWithCapability, Span: n.Span,
			Name: n.Capability, A: b.LowerExpr(n.Provider), B: b.LowerExpr(n.Body),
		})
	case *ptree.FunctionExp:
		return b.functionExp(n)
	case *ptree.FormatWith:
		return b.Arena.Alloc(Node{Kind: KFormatWith, Span: n.Span, A: b.LowerExpr(n.Expr), B: b.LowerExpr(n.Spec)})
	case *ptree.ErrorExpr:
		return b.Arena.Alloc(Node{Kind: KError, Span: n.Span})
	default:
		return b.Arena.Alloc(Node{Kind: KError, Span: e.Position()})
	}
}

func (b *Builder) lowerOptional(e ptree.Expr) Id {
	if e == nil {
		return NONE
	}
	return b.LowerExpr(e)
}

func (b *Builder) lowerExprs(es []ptree.Expr) ident.Range {
	ids := make([]Id, len(es))
	for i, e := range es {
		ids[i] = b.LowerExpr(e)
	}
	return b.Arena.AllocChildren(ids)
}

// --- literals: each literal is interned into the constant pool as written;
// arithmetic between literals is not folded here ---

func (b *Builder) litInt(n *ptree.IntLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitInt, IVal: n.Value})
	return b.Arena.Alloc(Node{Kind: KInt, Span: n.Span, IVal: n.Value, ConstRef: c})
}

func (b *Builder) litFloat(n *ptree.FloatLit) Id {
	bits := math.Float64bits(n.Value)
	c := b.Arena.InternConst(Const{Kind: LitFloat, IVal: bits})
	return b.Arena.Alloc(Node{Kind: KFloat, Span: n.Span, FVal: n.Value, ConstRef: c})
}

func (b *Builder) litBool(n *ptree.BoolLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitBool, BVal: n.Value})
	return b.Arena.Alloc(Node{Kind: KBool, Span: n.Span, BVal: n.Value, ConstRef: c})
}

func (b *Builder) litStr(n *ptree.StrLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitStr, SVal: n.Value})
	return b.Arena.Alloc(Node{Kind: KStr, Span: n.Span, SVal: n.Value, ConstRef: c})
}

func (b *Builder) litChar(n *ptree.CharLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitChar, RVal: n.Value})
	return b.Arena.Alloc(Node{Kind: KChar, Span: n.Span, RVal: n.Value, ConstRef: c})
}

func (b *Builder) litDuration(n *ptree.DurationLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitDuration, IVal: n.Value, UnitName: n.Unit})
	return b.Arena.Alloc(Node{Kind: KDuration, Span: n.Span, IVal: n.Value, Unit: n.Unit, ConstRef: c})
}

func (b *Builder) litSize(n *ptree.SizeLit) Id {
	c := b.Arena.InternConst(Const{Kind: LitSize, IVal: n.Value, UnitName: n.Unit})
	return b.Arena.Alloc(Node{Kind: KSize, Span: n.Span, IVal: n.Value, Unit: n.Unit, ConstRef: c})
}

func (b *Builder) binary(n *ptree.BinaryOp) Id {
	return b.Arena.Alloc(Node{Kind: KBinary, Span: n.Span, Op: n.Op, A: b.LowerExpr(n.Left), B: b.LowerExpr(n.Right)})
}

func (b *Builder) unary(n *ptree.UnaryOp) Id {
	return b.Arena.Alloc(Node{Kind: KUnary, Span: n.Span, Op: n.Op, A: b.LowerExpr(n.Operand)})
}

func (b *Builder) call(n *ptree.Call) Id {
	return b.Arena.Alloc(Node{Kind: KCall, Span: n.Span, A: b.LowerExpr(n.Func), Children: b.lowerExprs(n.Args)})
}

func (b *Builder) methodCall(n *ptree.MethodCall) Id {
	return b.Arena.Alloc(Node{Kind: KMethodCall, Span: n.Span, A: b.LowerExpr(n.Receiver), Name: n.Method, Children: b.lowerExprs(n.Args)})
}

func (b *Builder) lambda(n *ptree.Lambda) Id {
	names := make([]Id, 0, len(n.Params))
	for _, p := range n.Params {
		names = append(names, b.Arena.Alloc(Node{Kind: KIdent, Ref: p}))
	}
	return b.Arena.Alloc(Node{Kind: KLambda, Span: n.Span, Children: b.Arena.AllocChildren(names), A: b.LowerExpr(n.Body)})
}

func (b *Builder) mapLit(n *ptree.MapLit) Id {
	entries := make([]MapEntry, len(n.Entries))
	for i, e := range n.Entries {
		entries[i] = MapEntry{Key: b.LowerExpr(e.Key), Value: b.LowerExpr(e.Value)}
	}
	return b.Arena.Alloc(Node{Kind: KMap, Span: n.Span, MapEntries: entries})
}

func (b *Builder) structLit(n *ptree.StructLit) Id {
	fields := make([]StructFieldInit, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = StructFieldInit{Name: f.Name, Value: b.LowerExpr(f.Value)}
	}
	return b.Arena.Alloc(Node{Kind: KStruct, Span: n.Span, Name: n.Name, StructFields: fields})
}

func (b *Builder) rangeExpr(n *ptree.RangeExpr) Id {
	return b.Arena.Alloc(Node{
		Kind: KRange, Span: n.Span,
		A: b.lowerOptional(n.Start), B: b.lowerOptional(n.End), C: b.lowerOptional(n.Step),
		Inclusive: n.Inclusive,
	})
}

func (b *Builder) block(n *ptree.Block) Id {
	stmts := make([]Stmt, 0, len(n.Stmts))
	for _, s := range n.Stmts {
		switch st := s.(type) {
		case ptree.ExprStmt:
			stmts = append(stmts, Stmt{Kind: StmtExpr, Expr: b.LowerExpr(st.Expr)})
		case ptree.LetStmt:
			stmts = append(stmts, Stmt{Kind: StmtLet, Let: LetStmtPayload{
				Pattern: b.lowerPattern(st.Pattern),
				Init:    b.LowerExpr(st.Init),
				Mutable: st.Mutable,
			}})
		case ptree.AssignStmt:
			stmts = append(stmts, Stmt{Kind: StmtAssign, Target: b.LowerExpr(st.Target), Expr: b.LowerExpr(st.Value)})
		}
	}
	return b.Arena.Alloc(Node{Kind: KBlock, Span: n.Span, Children: b.Arena.AllocStmts(stmts), A: b.lowerOptional(n.Result)})
}

func (b *Builder) functionExp(n *ptree.FunctionExp) Id {
	props := make([]FunctionExpProp, len(n.Props))
	for i, p := range n.Props {
		props[i] = FunctionExpProp{Name: p.Name, Value: b.LowerExpr(p.Value)}
	}
	return b.Arena.Alloc(Node{Kind: KFunctionExp, Span: n.Span, Name: n.Kind, FuncExpProps: props})
}

// --- desugaring (spec.md §4.3 "Lowering decisions") ---

// ifLet desugars `if let pat = init { then } else { els }` into a Match
// with two arms: pat (the "then" case) and wildcard (the "else" case).
func (b *Builder) ifLet(n *ptree.IfLet) Id {
	scrutinee := b.LowerExpr(n.Init)
	arms := []MatchArm{
		{Pattern: b.lowerPattern(n.Pattern), Guard: NONE, Body: b.LowerExpr(n.Then)},
		{Pattern: BindingPattern{Kind: PatWildcard}, Guard: NONE, Body: b.lowerOptional(n.Else)},
	}
	return b.allocMatch(n.Span, scrutinee, arms)
}

// allocMatch allocates a KMatch node and eagerly compiles its arms into a
// decision tree (spec.md §4.3), shared by every desugaring that produces
// a match (if-let, ??, and a literal match expression alike).
func (b *Builder) allocMatch(span token.Span, scrutinee Id, arms []MatchArm) Id {
	id := b.Arena.Alloc(Node{Kind: KMatch, Span: span, A: scrutinee, MatchArms: arms})
	b.Arena.Get(id).MatchTree = BuildDecisionTree(b.Arena, arms)
	return id
}

// forIn lowers `for pat in iter [if guard] { body }` directly into the
// canonical For node; arms remain in source order, there is nothing to
// desugar further beyond lowering the guard and binding pattern.
func (b *Builder) forIn(n *ptree.ForIn) Id {
	return b.Arena.Alloc(Node{
		Kind: KFor, Span: n.Span, Name: n.Label,
		ForBinding: b.lowerPattern(n.Pattern),
		A:          b.LowerExpr(n.Iter),
		B:          b.lowerOptional(n.Guard),
		C:          b.LowerExpr(n.Body),
		IsYield:    n.IsYield,
	})
}

// coalesce desugars `a ?? b` into a match on Option: `match a { Some(x) =>
// x, None => b }` (spec.md §4.3).
func (b *Builder) coalesce(n *ptree.CoalesceExpr) Id {
	scrutinee := b.LowerExpr(n.Left)
	bindName := b.Arena.Names.Intern("$coalesce")
	someArm := MatchArm{
		Pattern: BindingPattern{Kind: PatVariant, Variant: b.Arena.Names.Intern("Some"), Sub: []BindingPattern{{Kind: PatName, Name: bindName}}},
		Guard:   NONE,
		Body:    b.Arena.Alloc(Node{Kind: KIdent, Span: n.Span, Ref: bindName}),
	}
	noneArm := MatchArm{
		Pattern: BindingPattern{Kind: PatVariant, Variant: b.Arena.Names.Intern("None")},
		Guard:   NONE,
		Body:    b.LowerExpr(n.Right),
	}
	return b.allocMatch(n.Span, scrutinee, []MatchArm{someArm, noneArm})
}

func (b *Builder) match(n *ptree.Match) Id {
	scrutinee := b.LowerExpr(n.Scrutinee)
	arms := make([]MatchArm, len(n.Arms))
	for i, arm := range n.Arms {
		arms[i] = MatchArm{
			Pattern: b.lowerPattern(arm.Pattern),
			Guard:   b.lowerOptional(arm.Guard),
			Body:    b.LowerExpr(arm.Body),
		}
	}
	return b.allocMatch(n.Span, scrutinee, arms)
}

func (b *Builder) lowerPattern(p ptree.Pattern) BindingPattern {
	switch pt := p.(type) {
	case ptree.NamePattern:
		return BindingPattern{Kind: PatName, Name: pt.Name, Mutable: pt.Mutable}
	case ptree.WildcardPattern:
		return BindingPattern{Kind: PatWildcard}
	case ptree.TuplePattern:
		sub := make([]BindingPattern, len(pt.Elems))
		for i, e := range pt.Elems {
			sub[i] = b.lowerPattern(e)
		}
		return BindingPattern{Kind: PatTuple, Sub: sub}
	case ptree.StructPattern:
		fields := make([]StructPatternField, len(pt.Fields))
		for i, f := range pt.Fields {
			fields[i] = StructPatternField{Name: f.Name, Pattern: b.lowerPattern(f.Pattern)}
		}
		return BindingPattern{Kind: PatStruct, Name: pt.TypeName, Fields: fields}
	case ptree.ListPattern:
		sub := make([]BindingPattern, len(pt.Elems))
		for i, e := range pt.Elems {
			sub[i] = b.lowerPattern(e)
		}
		return BindingPattern{Kind: PatList, Sub: sub, Rest: pt.Rest}
	case ptree.VariantPattern:
		sub := make([]BindingPattern, len(pt.Sub))
		for i, e := range pt.Sub {
			sub[i] = b.lowerPattern(e)
		}
		return BindingPattern{Kind: PatVariant, Variant: pt.VariantName, Sub: sub}
	case ptree.LiteralPattern:
		return BindingPattern{Kind: PatLiteral, Value: b.LowerExpr(pt.Value)}
	default:
		return BindingPattern{Kind: PatWildcard}
	}
}
