// Package abi implements the ABI computer described in spec.md §4.8:
// deciding how each parameter and return value of a function crosses the
// call boundary, given its type and the ownership/ARC-class annotations
// internal/borrow already assigned it.
package abi

import (
	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/tpool"
)

// PointerWidth is the target's pointer size in bytes; oric targets
// LLVM-supported 64-bit triples exclusively (spec.md §5, "Non-goals").
const PointerWidth = 8

// PassingKind discriminates how one value crosses a call boundary.
type PassingKind uint8

const (
	// Void: the value carries no runtime bits (Unit, Never).
	Void PassingKind = iota
	// Reference: passed as a bare pointer, no retain at the call site
	// (Borrowed non-Scalar parameters only).
	Reference
	// Direct: passed by value in registers (size <= 16 bytes).
	Direct
	// Indirect: passed via a pointer to caller-allocated storage
	// (byval-style), annotated with the value's required alignment.
	Indirect
	// Sret: the callee writes its result through a caller-supplied
	// pointer passed as a hidden first argument.
	Sret
)

func (k PassingKind) String() string {
	switch k {
	case Void:
		return "Void"
	case Reference:
		return "Reference"
	case Direct:
		return "Direct"
	case Indirect:
		return "Indirect"
	case Sret:
		return "Sret"
	default:
		return "PassingKind(?)"
	}
}

// ParamPassing is one parameter's crossing-convention decision.
type ParamPassing struct {
	Kind      PassingKind
	Alignment int // meaningful only for Indirect
}

// ReturnPassing is the return value's crossing-convention decision.
type ReturnPassing struct {
	Kind      PassingKind
	Alignment int // meaningful only for Sret
}

// CallConv is the calling convention attached to a declared function.
type CallConv uint8

const (
	// ConvC is used for `main` and runtime-intrinsic-prefixed symbols, so
	// they remain linkable against non-oric callers (spec.md §4.8). Extern
	// declarations are not recognized and get ConvFast.
	ConvC CallConv = iota
	// ConvFast is used for every ordinary oric function.
	ConvFast
)

func (c CallConv) String() string {
	if c == ConvC {
		return "C"
	}
	return "Fast"
}

// FunctionAbi is the complete, final ABI decision for one function; once
// computed it is never revisited downstream (spec.md §4.8).
type FunctionAbi struct {
	Params   []ParamPassing
	Return   ReturnPassing
	Conv     CallConv
}

// alignOf returns the natural alignment for a scalar tag's size in bytes,
// capped at pointer width (no oric type currently needs more).
func alignOf(size int) int {
	switch {
	case size <= 1:
		return 1
	case size <= 2:
		return 2
	case size <= 4:
		return 4
	default:
		return PointerWidth
	}
}

// Size computes a type's abi_size in bytes, walking tuples/structs/enums
// recursively. Types that recur into themselves (detected via visiting,
// keyed by tpool.Idx) fall back to pointer size rather than diverging
// (spec.md §4.8, "Recursive types... fall back to pointer-size").
func Size(p *tpool.Pool, ty tpool.Idx) int {
	return sizeOf(p, ty, make(map[tpool.Idx]bool))
}

func sizeOf(p *tpool.Pool, ty tpool.Idx, visiting map[tpool.Idx]bool) int {
	if visiting[ty] {
		return PointerWidth
	}
	switch p.Tag(ty) {
	case tpool.TagUnit, tpool.TagNever:
		return 0
	case tpool.TagBool, tpool.TagByte, tpool.TagOrdering:
		return 1
	case tpool.TagChar:
		return 4
	case tpool.TagInt, tpool.TagFloat, tpool.TagDuration, tpool.TagSize:
		return 8
	case tpool.TagStr:
		return 2 * PointerWidth // {ptr, len} fat pointer
	case tpool.TagList, tpool.TagSet, tpool.TagChannel, tpool.TagMap,
		tpool.TagRange, tpool.TagIterator, tpool.TagDoubleEndedIterator,
		tpool.TagFunction, tpool.TagApplied, tpool.TagNamed, tpool.TagBorrowed:
		return PointerWidth
	case tpool.TagOption:
		visiting[ty] = true
		inner := sizeOf(p, p.Elem(ty), visiting)
		delete(visiting, ty)
		return roundUp(1+inner, alignOf(inner+1))
	case tpool.TagResult:
		visiting[ty] = true
		ok, errTy := p.ResultOkErr(ty)
		okSize := sizeOf(p, ok, visiting)
		errSize := sizeOf(p, errTy, visiting)
		delete(visiting, ty)
		payload := okSize
		if errSize > payload {
			payload = errSize
		}
		return roundUp(1+payload, alignOf(payload+1))
	case tpool.TagTuple:
		visiting[ty] = true
		total := 0
		for _, elem := range p.TupleElems(ty) {
			total = roundUp(total, alignOf(sizeOf(p, elem, visiting)))
			total += sizeOf(p, elem, visiting)
		}
		delete(visiting, ty)
		return roundUp(total, PointerWidth)
	case tpool.TagStruct:
		visiting[ty] = true
		_, fields := p.StructParts(ty)
		total := 0
		for _, f := range fields {
			total = roundUp(total, alignOf(sizeOf(p, f.Type, visiting)))
			total += sizeOf(p, f.Type, visiting)
		}
		delete(visiting, ty)
		return roundUp(total, PointerWidth)
	case tpool.TagEnum:
		visiting[ty] = true
		_, variants := p.EnumParts(ty)
		maxPayload := 0
		for _, v := range variants {
			vSize := 0
			for _, f := range v.Fields {
				vSize = roundUp(vSize, alignOf(sizeOf(p, f, visiting)))
				vSize += sizeOf(p, f, visiting)
			}
			if vSize > maxPayload {
				maxPayload = vSize
			}
		}
		delete(visiting, ty)
		return roundUp(8+maxPayload, PointerWidth) // 8-byte discriminant
	default:
		// Var/RigidVar/Scheme/Infer/SelfType/Error: unresolved by the time
		// the ABI computer runs in a well-formed compilation.
		return PointerWidth
	}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// Compute derives a FunctionAbi from a borrow.AnnotatedSig and the
// function's linkage name (spec.md §4.8's three decisions: ParamPassing,
// ReturnPassing, calling convention).
func Compute(p *tpool.Pool, sig *borrow.AnnotatedSig, linkName string) *FunctionAbi {
	abi := &FunctionAbi{Conv: convFor(linkName)}
	for _, param := range sig.Params {
		abi.Params = append(abi.Params, paramPassing(p, param))
	}
	abi.Return = returnPassing(p, sig.RetType)
	return abi
}

func paramPassing(p *tpool.Pool, param borrow.ParamAnnotation) ParamPassing {
	switch p.Tag(param.Type) {
	case tpool.TagUnit, tpool.TagNever:
		return ParamPassing{Kind: Void}
	}
	if param.Ownership == borrow.Borrowed && param.Class != borrow.ClassScalar {
		return ParamPassing{Kind: Reference}
	}
	size := Size(p, param.Type)
	if size <= 16 {
		return ParamPassing{Kind: Direct}
	}
	return ParamPassing{Kind: Indirect, Alignment: alignOf(size)}
}

func returnPassing(p *tpool.Pool, ty tpool.Idx) ReturnPassing {
	switch p.Tag(ty) {
	case tpool.TagUnit, tpool.TagNever:
		return ReturnPassing{Kind: Void}
	}
	size := Size(p, ty)
	if size <= 16 {
		return ReturnPassing{Kind: Direct}
	}
	return ReturnPassing{Kind: Sret, Alignment: alignOf(size)}
}

// convFor picks the calling convention by linkage name: `main` and
// runtime-intrinsic symbols (the `ori_`-prefixed names spec.md §9's runtime
// table uses) get the C convention so they interoperate with non-oric
// callers; everything else gets Fast. The name alone does not identify an
// extern declaration, so externs get Fast too.
func convFor(linkName string) CallConv {
	if linkName == "main" {
		return ConvC
	}
	if len(linkName) >= 4 && linkName[:4] == "ori_" {
		return ConvC
	}
	return ConvFast
}
