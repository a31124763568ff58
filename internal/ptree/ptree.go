// Package ptree defines the parse tree contract handed from the external
// surface parser to canonicalization (spec.md §6, "Parse tree"). The
// recursive-descent grammar that produces these trees is out of scope for
// the core (spec.md §1); this package only fixes their shape.
package ptree

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/token"
)

// Module is the root of a parsed file: imports, items, and their spans.
type Module struct {
	Path    string
	Imports []Import
	Items   []Item
}

// Import is a single `import` declaration.
type Import struct {
	Path ident.Name
	Span token.Span
}

// Item is anything that can appear at module scope.
type Item interface{ itemNode() }

// FuncDecl is a `def`/`@test`/`@main` function declaration.
type FuncDecl struct {
	Name           ident.Name
	TypeParams     []GenericParam
	Params         []Param
	ReturnType     TypeExpr // nil means inferred
	Capabilities   []ident.Name
	WhereClauses   []WhereClause
	Body           Expr
	IsPublic       bool
	IsTest         bool
	IsMain         bool
	Span           token.Span
}

func (*FuncDecl) itemNode() {}

// GenericParam is a type parameter, including const generics ($N: T).
type GenericParam struct {
	Name      ident.Name
	IsConst   bool
	ConstType TypeExpr // for const generics
	Bounds    []ident.Name
	Default   Expr // const-generic default value expression, if any
}

// Param is a function parameter.
type Param struct {
	Name     ident.Name
	Type     TypeExpr
	Default  Expr // nil if required
	Mutable  bool
	Span     token.Span
}

// WhereClause constrains a type parameter or associated-type projection,
// e.g. `T: Eq` or `T.Item: Eq`.
type WhereClause struct {
	Subject    ident.Name
	Projection ident.Name // EMPTY unless this is `Subject.Projection: Bound`
	Bound      ident.Name
}

// TypeDecl is a `type` declaration: struct, enum, newtype, or alias.
type TypeDecl struct {
	Name       ident.Name
	TypeParams []GenericParam
	Kind       TypeDeclKind
	Fields     []FieldDecl   // Struct
	Variants   []VariantDecl // Enum
	Underlying TypeExpr      // Newtype, Alias
	IsPublic   bool
	Span       token.Span
}

func (*TypeDecl) itemNode() {}

// TypeDeclKind distinguishes the four declaration kinds.
type TypeDeclKind uint8

const (
	DeclStruct TypeDeclKind = iota
	DeclEnum
	DeclNewtype
	DeclAlias
)

// FieldDecl is one struct field.
type FieldDecl struct {
	Name ident.Name
	Type TypeExpr
}

// VariantDecl is one enum variant.
type VariantDecl struct {
	Name   ident.Name
	Kind   VariantKind
	Types  []TypeExpr  // Tuple
	Fields []FieldDecl // Record
}

// VariantKind distinguishes unit/tuple/record variants.
type VariantKind uint8

const (
	VariantUnit VariantKind = iota
	VariantTuple
	VariantRecord
)

// TraitDecl, ImplDecl, ExtensionDecl, DefaultImplDecl round out the item
// kinds spec.md §6 lists; their internal structure does not matter to
// canonicalization beyond producing a TypeRegistry entry and impl bindings.
type TraitDecl struct {
	Name     ident.Name
	Methods  []FuncDecl
	IsPublic bool
	Span     token.Span
}

func (*TraitDecl) itemNode() {}

type ImplDecl struct {
	Trait    ident.Name // EMPTY for an inherent impl
	Target   TypeExpr
	Methods  []FuncDecl
	Span     token.Span
}

func (*ImplDecl) itemNode() {}

type ExtensionDecl struct {
	Target  TypeExpr
	Methods []FuncDecl
	Span    token.Span
}

func (*ExtensionDecl) itemNode() {}

type DefaultImplDecl struct {
	Trait   ident.Name
	Methods []FuncDecl
	Span    token.Span
}

func (*DefaultImplDecl) itemNode() {}

// ConstDecl is a module-scope constant.
type ConstDecl struct {
	Name     ident.Name
	Type     TypeExpr
	Value    Expr
	IsPublic bool
	Span     token.Span
}

func (*ConstDecl) itemNode() {}

// TypeExpr is the surface syntax for a type annotation, resolved against
// the type registry and type pool during canonicalization.
type TypeExpr interface{ typeExprNode() }

type NamedTypeExpr struct {
	Name ident.Name
	Args []TypeExpr
	Span token.Span
}

func (*NamedTypeExpr) typeExprNode() {}

type FunctionTypeExpr struct {
	Params []TypeExpr
	Return TypeExpr
	Span   token.Span
}

func (*FunctionTypeExpr) typeExprNode() {}

type TupleTypeExpr struct {
	Elems []TypeExpr
	Span  token.Span
}

func (*TupleTypeExpr) typeExprNode() {}

type InferTypeExpr struct{ Span token.Span }

func (*InferTypeExpr) typeExprNode() {}

// Expr is the surface syntax for expressions. Only the shapes
// canonicalization must desugar or lower directly are modeled; most
// variants map one-to-one onto core.CanExpr variants (spec.md §4.3).
type Expr interface {
	exprNode()
	Position() token.Span
}

type base struct{ Span token.Span }

func (b base) Position() token.Span { return b.Span }

type IntLit struct {
	base
	Value uint64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	base
	Value float64
}

func (*FloatLit) exprNode() {}

type BoolLit struct {
	base
	Value bool
}

func (*BoolLit) exprNode() {}

type StrLit struct {
	base
	Value ident.Name
}

func (*StrLit) exprNode() {}

type CharLit struct {
	base
	Value rune
}

func (*CharLit) exprNode() {}

type UnitLit struct{ base }

func (*UnitLit) exprNode() {}

type DurationLit struct {
	base
	Value uint64
	Unit  ident.Name
}

func (*DurationLit) exprNode() {}

type SizeLit struct {
	base
	Value uint64
	Unit  ident.Name
}

func (*SizeLit) exprNode() {}

type Ident struct {
	base
	Name ident.Name
}

func (*Ident) exprNode() {}

type SelfRef struct{ base }

func (*SelfRef) exprNode() {}

type BinaryOp struct {
	base
	Op          string
	Left, Right Expr
}

func (*BinaryOp) exprNode() {}

type UnaryOp struct {
	base
	Op      string
	Operand Expr
}

func (*UnaryOp) exprNode() {}

type Cast struct {
	base
	Expr     Expr
	Target   TypeExpr
	Fallible bool
}

func (*Cast) exprNode() {}

type Call struct {
	base
	Func Expr
	Args []Expr
}

func (*Call) exprNode() {}

type MethodCall struct {
	base
	Receiver Expr
	Method   ident.Name
	Args     []Expr
}

func (*MethodCall) exprNode() {}

type FieldAccess struct {
	base
	Receiver Expr
	Field    ident.Name
}

func (*FieldAccess) exprNode() {}

type IndexAccess struct {
	base
	Receiver Expr
	Index    Expr
}

func (*IndexAccess) exprNode() {}

type If struct {
	base
	Cond, Then, Else Expr
}

func (*If) exprNode() {}

// IfLet desugars to a Match during canonicalization (spec.md §4.3).
type IfLet struct {
	base
	Pattern Pattern
	Init    Expr
	Then    Expr
	Else    Expr
}

func (*IfLet) exprNode() {}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

type Match struct {
	base
	Scrutinee Expr
	Arms      []MatchArm
}

func (*Match) exprNode() {}

// ForIn is surface syntax `for pat in iter { body }`; it desugars into
// core.For during canonicalization (spec.md §4.3).
type ForIn struct {
	base
	Label   ident.Name
	Pattern Pattern
	Iter    Expr
	Guard   Expr
	Body    Expr
	IsYield bool
}

func (*ForIn) exprNode() {}

type LoopExpr struct {
	base
	Label ident.Name
	Body  Expr
}

func (*LoopExpr) exprNode() {}

type BreakExpr struct {
	base
	Label ident.Name
	Value Expr
}

func (*BreakExpr) exprNode() {}

type ContinueExpr struct {
	base
	Label ident.Name
	Value Expr
}

func (*ContinueExpr) exprNode() {}

type TryExpr struct {
	base
	Expr Expr
}

func (*TryExpr) exprNode() {}

type AwaitExpr struct {
	base
	Expr Expr
}

func (*AwaitExpr) exprNode() {}

type BlockStmt interface{ stmtNode() }

type ExprStmt struct{ Expr Expr }

func (ExprStmt) stmtNode() {}

type LetStmt struct {
	Pattern Pattern
	Init    Expr
	Mutable bool
}

func (LetStmt) stmtNode() {}

type AssignStmt struct {
	Target Expr
	Value  Expr
}

func (AssignStmt) stmtNode() {}

type Block struct {
	base
	Stmts  []BlockStmt
	Result Expr // nil for a unit-valued block
}

func (*Block) exprNode() {}

type Lambda struct {
	base
	Params []ident.Name
	Body   Expr
}

func (*Lambda) exprNode() {}

type ListLit struct {
	base
	Elems []Expr
}

func (*ListLit) exprNode() {}

type TupleLit struct {
	base
	Elems []Expr
}

func (*TupleLit) exprNode() {}

type MapEntry struct{ Key, Value Expr }

type MapLit struct {
	base
	Entries []MapEntry
}

func (*MapLit) exprNode() {}

type StructFieldInit struct {
	Name  ident.Name
	Value Expr
}

type StructLit struct {
	base
	Name   ident.Name
	Fields []StructFieldInit
}

func (*StructLit) exprNode() {}

type RangeExpr struct {
	base
	Start, End, Step Expr
	Inclusive        bool
}

func (*RangeExpr) exprNode() {}

type OkExpr struct {
	base
	Value Expr
}

func (*OkExpr) exprNode() {}

type ErrExpr struct {
	base
	Value Expr
}

func (*ErrExpr) exprNode() {}

type SomeExpr struct {
	base
	Value Expr
}

func (*SomeExpr) exprNode() {}

type NoneExpr struct{ base }

func (*NoneExpr) exprNode() {}

// CoalesceExpr is `a ?? b`; desugars to a match on Some/None during
// canonicalization (spec.md §4.3).
type CoalesceExpr struct {
	base
	Left, Right Expr
}

func (*CoalesceExpr) exprNode() {}

type WithCapability struct {
	base
	Capability ident.Name
	Provider   Expr
	Body       Expr
}

func (*WithCapability) exprNode() {}

// FunctionExpProp is one named argument of a first-class pattern
// invocation, e.g. `.over: xs` in `map(.over: xs, .transform: f)`.
type FunctionExpProp struct {
	Name  ident.Name
	Value Expr
}

// FunctionExp is a first-class pattern invocation (map/filter/fold/…),
// handled by the pattern registry (spec.md §4.5).
type FunctionExp struct {
	base
	Kind  ident.Name
	Props []FunctionExpProp
}

func (*FunctionExp) exprNode() {}

type FormatWith struct {
	base
	Expr Expr
	Spec Expr
}

func (*FormatWith) exprNode() {}

// ErrorExpr marks a subtree the parser could not recover from; it always
// carries a surface diagnostic and lowers to core.Error so downstream
// stages stay total (spec.md §4.3, §7).
type ErrorExpr struct{ base }

func (*ErrorExpr) exprNode() {}

// Pattern is the surface syntax for a binding pattern (spec.md §3,
// "Binding pattern").
type Pattern interface{ patternNode() }

type NamePattern struct {
	Name    ident.Name
	Mutable bool
}

func (NamePattern) patternNode() {}

type WildcardPattern struct{}

func (WildcardPattern) patternNode() {}

type TuplePattern struct{ Elems []Pattern }

func (TuplePattern) patternNode() {}

type StructPatternField struct {
	Name    ident.Name
	Pattern Pattern
}

type StructPattern struct {
	TypeName ident.Name
	Fields   []StructPatternField
}

func (StructPattern) patternNode() {}

type ListPattern struct {
	Elems []Pattern
	Rest  ident.Name // EMPTY if no `...rest`
}

func (ListPattern) patternNode() {}

// VariantPattern matches an enum variant constructor, e.g. `Some(x)` or
// `A`.
type VariantPattern struct {
	VariantName ident.Name
	Sub         []Pattern
}

func (VariantPattern) patternNode() {}

// LiteralPattern matches a literal value directly, e.g. `0` or `"x"`.
type LiteralPattern struct{ Value Expr }

func (LiteralPattern) patternNode() {}
