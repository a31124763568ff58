package codegen

import (
	"github.com/ori-lang/oric/internal/tpool"
	"tinygo.org/x/go-llvm"
)

// llvmType maps a resolved oric type to its LLVM representation, following
// the same width decisions internal/abi.Size uses so a value's in-register
// shape always matches its ABI-computed size.
func (e *Emitter) llvmType(ty tpool.Idx) llvm.Type {
	if t, ok := e.typeCache[ty]; ok {
		return t
	}
	t := e.buildLLVMType(ty)
	e.typeCache[ty] = t
	return t
}

func (e *Emitter) buildLLVMType(ty tpool.Idx) llvm.Type {
	ctx := e.ctx
	switch e.pool.Tag(ty) {
	case tpool.TagUnit, tpool.TagNever:
		return ctx.VoidType()
	case tpool.TagBool:
		return ctx.Int1Type()
	case tpool.TagByte:
		return ctx.Int8Type()
	case tpool.TagChar:
		return ctx.Int32Type()
	case tpool.TagOrdering:
		return ctx.Int8Type()
	case tpool.TagInt, tpool.TagDuration, tpool.TagSize:
		return ctx.Int64Type()
	case tpool.TagFloat:
		return ctx.DoubleType()
	case tpool.TagStr:
		// {ptr, len} fat pointer (spec.md §4.8).
		return ctx.StructType([]llvm.Type{llvm.PointerType(ctx.Int8Type(), 0), ctx.Int64Type()}, false)
	case tpool.TagOption:
		inner := e.llvmType(e.pool.Elem(ty))
		return ctx.StructType([]llvm.Type{ctx.Int8Type(), inner}, false)
	case tpool.TagResult:
		ok, errTy := e.pool.ResultOkErr(ty)
		payload := e.llvmType(ok)
		errPayload := e.llvmType(errTy)
		width := payload
		if e.typeBitWidth(errTy) > e.typeBitWidth(ok) {
			width = errPayload
		}
		return ctx.StructType([]llvm.Type{ctx.Int8Type(), width}, false)
	case tpool.TagTuple:
		var fields []llvm.Type
		for _, elem := range e.pool.TupleElems(ty) {
			fields = append(fields, e.llvmType(elem))
		}
		return ctx.StructType(fields, false)
	case tpool.TagStruct:
		_, structFields := e.pool.StructParts(ty)
		var fields []llvm.Type
		for _, f := range structFields {
			fields = append(fields, e.llvmType(f.Type))
		}
		return ctx.StructType(fields, false)
	case tpool.TagEnum:
		// Discriminant + widest-variant payload, matching abi.Size's layout.
		_, variants := e.pool.EnumParts(ty)
		var maxPayload llvm.Type = ctx.StructType(nil, false)
		maxBits := 0
		for _, v := range variants {
			var vFields []llvm.Type
			for _, f := range v.Fields {
				vFields = append(vFields, e.llvmType(f))
			}
			st := ctx.StructType(vFields, false)
			if bits := llvm.ABISizeOfType(e.targetData, st); bits > uint64(maxBits) {
				maxBits = int(bits)
				maxPayload = st
			}
		}
		return ctx.StructType([]llvm.Type{ctx.Int64Type(), maxPayload}, false)
	case tpool.TagList, tpool.TagSet, tpool.TagMap, tpool.TagChannel,
		tpool.TagRange, tpool.TagIterator, tpool.TagDoubleEndedIterator,
		tpool.TagFunction, tpool.TagBorrowed, tpool.TagApplied, tpool.TagNamed:
		return llvm.PointerType(ctx.Int8Type(), 0)
	default:
		return ctx.Int64Type()
	}
}

// typeBitWidth is a crude ordering helper for picking the wider of two
// Result payload arms; exactness does not matter since both arms share a
// struct slot sized for the wider one.
func (e *Emitter) typeBitWidth(ty tpool.Idx) int {
	switch e.pool.Tag(ty) {
	case tpool.TagUnit, tpool.TagNever:
		return 0
	case tpool.TagBool, tpool.TagByte, tpool.TagOrdering:
		return 8
	case tpool.TagChar:
		return 32
	default:
		return 64
	}
}
