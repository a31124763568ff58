// Package canon implements the canonical IR described in spec.md §3–§4.3:
// a span-annotated, structurally-interned tree lowered from the external
// parse tree (internal/ptree), with constant-pool-deduplicated literals and
// pre-built match decision trees.
package canon

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/token"
)

// Id is a handle into a module's Arena.
type Id = ident.Id

// NONE is the invalid Id sentinel.
const NONE = ident.NONE

// Kind is the discriminant of a canonical expression node.
type Kind uint8

const (
	KInt Kind = iota
	KFloat
	KBool
	KStr
	KChar
	KUnit
	KDuration
	KSize
	KConstant

	KIdent
	KConst
	KTypeRef
	KSelfRef
	KFunctionRef

	KBinary
	KUnary
	KCast

	KCall
	KMethodCall

	KField
	KIndex

	KIf
	KMatch
	KFor
	KLoop
	KBreak
	KContinue
	KTry
	KAwait

	KBlock
	KLet
	KAssign

	KLambda

	KList
	KTuple
	KMap
	KStruct
	KRange

	KOk
	KErr
	KSome
	KNone

	KWithCapability
	KFunctionExp
	KFormatWith

	KError
)

// ConstId indexes into a module's constant pool.
type ConstId = ident.Id

// LitKind is the discriminant of a constant pool entry.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitStr
	LitChar
	LitUnit
	LitDuration
	LitSize
)

// Const is one interned compile-time value. Deduplication is structural:
// two Const values with the same Kind and payload fields share a ConstId.
type Const struct {
	Kind     LitKind
	IVal     uint64 // LitInt, LitFloat (bit pattern), LitDuration/LitSize magnitude
	SVal     ident.Name
	BVal     bool
	RVal     rune
	UnitName ident.Name // LitDuration/LitSize unit
}

// MapEntry is a (key, value) pair of a KMap node, stored in the side table.
type MapEntry struct{ Key, Value Id }

// StructFieldInit is one field initializer of a KStruct node.
type StructFieldInit struct {
	Name  ident.Name
	Value Id
}

// MatchArm is (pattern, optional guard, body); guard is NONE if unguarded.
type MatchArm struct {
	Pattern BindingPattern
	Guard   Id
	Body    Id
}

// BindingPattern is the canonical form of spec.md §3 "Binding pattern".
type BindingPattern struct {
	Kind    PatternKind
	Name    ident.Name // PatName
	Mutable bool       // PatName
	Sub     []BindingPattern
	Fields  []StructPatternField // PatStruct
	Rest    ident.Name           // PatList, EMPTY if no rest binding
	Variant ident.Name           // PatVariant, EMPTY otherwise
	Value   Id                   // PatLiteral: the canonicalized literal expression
}

type StructPatternField struct {
	Name    ident.Name
	Pattern BindingPattern
}

// PatternKind is the discriminant of a BindingPattern.
type PatternKind uint8

const (
	PatName PatternKind = iota
	PatTuple
	PatStruct
	PatList
	PatWildcard
	PatVariant
	PatLiteral
)

// Node is the dense, Kind-discriminated payload of one canonical
// expression, analogous to tpool's entry but for the canonical tree
// rather than the type pool.
type Node struct {
	Kind Kind
	Span token.Span

	// literal payloads
	IVal uint64
	FVal float64
	BVal bool
	SVal ident.Name
	RVal rune
	Unit ident.Name

	ConstRef ConstId

	// single/double children (Binary operands, If branches, Field
	// receiver, Index receiver/index, Cast expr, Try/Await expr, …)
	A, B, C Id

	// operator / method / field names, label names
	Op   string
	Name ident.Name

	// variable-length children: Call args, List/Tuple elems, Block stmts
	Children ident.Range

	// Function reference / ident / const target name
	Ref ident.Name

	// struct-like side tables
	MapEntries    []MapEntry
	StructFields  []StructFieldInit
	MatchArms     []MatchArm
	MatchTree     DecisionTree // KMatch only; built by BuildDecisionTree
	ForBinding    BindingPattern
	LetPattern    BindingPattern
	Inclusive     bool
	IsYield       bool
	Fallible      bool
	Mutable       bool
	FuncExpProps  []FunctionExpProp
}

// FunctionExpProp is one named property of a first-class pattern
// invocation, canonicalized from ptree.FunctionExpProp.
type FunctionExpProp struct {
	Name  ident.Name
	Value Id
}

// Stmt is one statement of a KBlock node.
type Stmt struct {
	Kind   StmtKind
	Expr   Id             // ExprStmt, or the RHS value for StmtAssign
	Target Id             // StmtAssign: the assignment's LHS expression
	Let    LetStmtPayload // StmtLet
}

type StmtKind uint8

const (
	StmtExpr StmtKind = iota
	StmtLet
	StmtAssign
)

type LetStmtPayload struct {
	Pattern BindingPattern
	Init    Id
	Mutable bool
}

// Arena owns every canonical expression node for one module, plus its
// constant pool. Arenas are per-module (spec.md §3, "Lifetimes").
type Arena struct {
	Names *ident.Interner

	nodes []Node

	// childIds is the shared side-table storage for variable-length Id
	// lists (Call args, List/Tuple/Map elements, …). Range handles issued
	// against it are stable for the arena's lifetime, since the arena
	// never relocates or shrinks this slice.
	childIds []Id

	// stmts is the shared side-table storage for KBlock statement lists.
	stmts []Stmt

	consts   []Const
	constKey map[string]ConstId

	// FnRoots maps a function name to the root Id of its canonicalized
	// body, per spec.md §4.3 ("CanonResult mapping function names to root
	// CanId").
	FnRoots map[ident.Name]Id
}

// NewArena returns an empty arena using names for identifier interning.
func NewArena(names *ident.Interner) *Arena {
	return &Arena{
		Names:    names,
		constKey: make(map[string]ConstId),
		FnRoots:  make(map[ident.Name]Id),
	}
}

// Alloc appends n and returns its stable Id.
func (a *Arena) Alloc(n Node) Id {
	id := Id(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Get returns the node at id.
func (a *Arena) Get(id Id) *Node { return &a.nodes[id] }

// AllocChildren stores ids in the shared child side-table and returns the
// Range handle that addresses them.
func (a *Arena) AllocChildren(ids []Id) ident.Range {
	start := uint32(len(a.childIds))
	a.childIds = append(a.childIds, ids...)
	return ident.Range{Start: start, Length: uint32(len(ids))}
}

// Children returns the Id slice a Range addresses.
func (a *Arena) Children(r ident.Range) []Id {
	if r.Length == 0 {
		return nil
	}
	return a.childIds[r.Start : r.Start+r.Length]
}

// AllocStmts stores a KBlock's statement list and returns its Range.
func (a *Arena) AllocStmts(stmts []Stmt) ident.Range {
	start := uint32(len(a.stmts))
	a.stmts = append(a.stmts, stmts...)
	return ident.Range{Start: start, Length: uint32(len(stmts))}
}

// Stmts returns the statement slice a Range addresses.
func (a *Arena) Stmts(r ident.Range) []Stmt {
	if r.Length == 0 {
		return nil
	}
	return a.stmts[r.Start : r.Start+r.Length]
}

// Len reports how many nodes the arena holds.
func (a *Arena) Len() int { return len(a.nodes) }
