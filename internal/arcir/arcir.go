// Package arcir implements the ARC (automatic reference counting) IR
// described in spec.md §4.6: an SSA-form intermediate representation with
// explicit basic blocks, built by a canonical-tree walk once borrow
// inference (internal/borrow) has run. OpRetain and OpRelease are defined
// here and lowered by internal/codegen, but the builder in this package
// does not emit them: its output carries no retain/release instructions.
package arcir

import (
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
)

// VarId is an SSA value handle, unique within one ArcFunction.
type VarId uint32

// NoVar is the invalid VarId sentinel.
const NoVar VarId = 0xFFFFFFFF

// BlockId is a basic block handle, unique within one ArcFunction.
type BlockId uint32

// NoBlock is the invalid BlockId sentinel.
const NoBlock BlockId = 0xFFFFFFFF

// Op is the discriminant of an ARC IR instruction.
type Op uint8

const (
	OpLiteral Op = iota
	OpPrimOp
	OpCall
	OpMethodCall
	OpFieldGet
	OpIndexGet
	OpMakeTuple
	OpMakeList
	OpMakeMap
	OpMakeStruct
	OpMakeVariant // Some/None/Ok/Err/user enum constructor
	OpPhi
	OpClosureMake // capture free vars into a closure descriptor (§4.9)
	OpRetain
	OpRelease
	OpUnit // synthesized placeholder (unbound ident, unsupported form)
)

// LiteralKind mirrors canon.LitKind for the ARC IR's own literal payload.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitStr
	LitChar
	LitUnit
	LitDuration
	LitSize
)

// Instr is one SSA instruction: a dense, Op-discriminated payload
// assigning a value to Result (spec.md §9, "tagged unions... dense tag and
// a payload laid out by tag").
type Instr struct {
	Op     Op
	Result VarId
	Type   tpool.Idx

	// literal payload
	LitK LiteralKind
	IVal uint64
	FVal float64
	BVal bool
	SVal ident.Name
	RVal rune

	// operator / method / field name
	Op2  string
	Name ident.Name

	// operands
	Args []VarId

	// OpPhi: one incoming value per predecessor block, same order as the
	// owning block's Preds.
	PhiArgs []VarId

	// OpRetain/OpRelease: the value being retained/released.
	Target VarId
}

// TermKind is the discriminant of a basic block's terminator.
type TermKind uint8

const (
	TermBranch TermKind = iota
	TermCondBranch
	TermReturn
	TermUnreachable
)

// Terminator ends a basic block; exactly one of its fields is meaningful
// per Kind.
type Terminator struct {
	Kind        TermKind
	Target      BlockId   // TermBranch
	Cond        VarId     // TermCondBranch
	IfTrue      BlockId   // TermCondBranch
	IfFalse     BlockId   // TermCondBranch
	ReturnValue VarId     // TermReturn
}

// Block is one SSA basic block: a straight-line instruction list ending in
// exactly one Terminator.
type Block struct {
	Id          BlockId
	Preds       []BlockId
	Instrs      []Instr
	Term        Terminator
	Terminated  bool
}

// Param is one formal parameter of an ArcFunction.
type Param struct {
	Name ident.Name
	Var  VarId
	Type tpool.Idx
}

// Function is one lowered top-level function or hoisted lambda (spec.md
// §4.9, "Lambdas... hoist to a fresh top-level ARC function").
type Function struct {
	Name    ident.Name
	Params  []Param
	RetType tpool.Idx
	Blocks  []*Block
	Entry   BlockId

	// Captures holds the free-variable descriptor for a hoisted lambda;
	// empty for a source-level top-level function.
	Captures []Param
	IsLambda bool
}

// Module collects every ARC function lowered from one canon.Arena,
// including lambdas hoisted during lowering.
type Module struct {
	Functions []*Function
}

func (f *Function) Block(id BlockId) *Block { return f.Blocks[id] }

func (f *Function) newBlock() *Block {
	b := &Block{Id: BlockId(len(f.Blocks))}
	f.Blocks = append(f.Blocks, b)
	return b
}
