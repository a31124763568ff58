package codegen

import (
	"github.com/ori-lang/oric/internal/arcir"
	"tinygo.org/x/go-llvm"
)

// genClosureMake lowers an OpClosureMake instruction (spec.md §4.9 step
// 5). A zero-capture lambda needs no heap descriptor at all — its
// function pointer alone is a valid first-class value, tagged with a
// clear low bit so the calling convention can distinguish it from a
// boxed closure. A lambda with captures is boxed into a heap descriptor
// of shape {u8 capture_count, i64 fn_ptr, i64 captures[capture_count]},
// allocated via the ori_closure_box runtime intrinsic, with the
// descriptor's address low-bit-tagged to mark it as boxed.
func (e *Emitter) genClosureMake(instr arcir.Instr) llvm.Value {
	fn, ok := e.funcs[instr.Name]
	if !ok {
		// The hoisted lambda function is declared in the same pass as every
		// other function (EmitModule declares before it defines), so this
		// should never miss; fall back to a null pointer rather than panic
		// if it somehow does.
		return llvm.ConstNull(e.ptrType())
	}
	fnPtr := e.irb.CreatePtrToInt(fn, e.ctx.Int64Type(), "")

	if len(instr.Args) == 0 {
		tagged := e.irb.CreateOr(fnPtr, llvm.ConstInt(e.ctx.Int64Type(), 0, false), "")
		return e.irb.CreateIntToPtr(tagged, e.ptrType(), "")
	}

	descType := e.closureDescType(len(instr.Args))
	size := llvm.ConstInt(e.ctx.Int64Type(), llvm.ABISizeOfType(e.targetData, descType), false)
	boxed := e.genCallRuntime("ori_closure_box", []llvm.Value{size}, e.ptrType())

	descPtr := e.irb.CreateBitCast(boxed, llvm.PointerType(descType, 0), "")
	count := e.irb.CreateStructGEP(descType, descPtr, 0, "")
	e.irb.CreateStore(llvm.ConstInt(e.ctx.Int8Type(), uint64(len(instr.Args)), false), count)

	fnSlot := e.irb.CreateStructGEP(descType, descPtr, 1, "")
	e.irb.CreateStore(fnPtr, fnSlot)

	for i, arg := range instr.Args {
		slot := e.irb.CreateStructGEP(descType, descPtr, 2+i, "")
		captured := e.vars[arg]
		asInt := e.coerceToInt64(captured)
		e.irb.CreateStore(asInt, slot)
	}

	addr := e.irb.CreatePtrToInt(boxed, e.ctx.Int64Type(), "")
	tagged := e.irb.CreateOr(addr, llvm.ConstInt(e.ctx.Int64Type(), 1, false), "")
	return e.irb.CreateIntToPtr(tagged, e.ptrType(), "")
}

func (e *Emitter) closureDescType(captureCount int) llvm.Type {
	fields := []llvm.Type{e.ctx.Int8Type(), e.ctx.Int64Type()}
	for i := 0; i < captureCount; i++ {
		fields = append(fields, e.ctx.Int64Type())
	}
	return e.ctx.StructType(fields, false)
}

// coerceToInt64 widens/bitcasts a captured value to the closure
// descriptor's uniform i64 capture slot width; pointer-sized
// reference-counted values are already compatible via ptrtoint.
func (e *Emitter) coerceToInt64(v llvm.Value) llvm.Value {
	switch v.Type().TypeKind() {
	case llvm.PointerTypeKind:
		return e.irb.CreatePtrToInt(v, e.ctx.Int64Type(), "")
	case llvm.IntegerTypeKind:
		if v.Type().IntTypeWidth() == 64 {
			return v
		}
		return e.irb.CreateZExt(v, e.ctx.Int64Type(), "")
	case llvm.DoubleTypeKind:
		return e.irb.CreateBitCast(v, e.ctx.Int64Type(), "")
	default:
		return llvm.ConstInt(e.ctx.Int64Type(), 0, false)
	}
}
