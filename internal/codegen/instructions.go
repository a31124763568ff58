package codegen

import (
	"fmt"

	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/tpool"
	"tinygo.org/x/go-llvm"
)

// pendingPhis records an OpPhi's LLVM phi node alongside its owning block
// and the arcir instruction that describes its incoming values, so
// wirePhis can add incoming edges once every block's values exist.
type pendingPhi struct {
	block llvm.BasicBlock
	phi   llvm.Value
	instr arcir.Instr
	owner arcir.BlockId
}

func (e *Emitter) emitInstr(instr arcir.Instr) error {
	var val llvm.Value
	var err error
	switch instr.Op {
	case arcir.OpLiteral:
		val = e.genLiteral(instr)
	case arcir.OpPrimOp:
		val, err = e.genPrimOp(instr)
	case arcir.OpCall:
		val = e.genCall(instr)
	case arcir.OpMethodCall:
		val = e.genMethodCall(instr)
	case arcir.OpFieldGet:
		val = e.genFieldGet(instr)
	case arcir.OpIndexGet:
		val = e.genIndexGet(instr)
	case arcir.OpMakeTuple:
		val = e.genMakeTuple(instr)
	case arcir.OpMakeList:
		val = e.genMakeCollection("ori_list_from_parts", instr)
	case arcir.OpMakeMap:
		val = e.genMakeCollection("ori_map_from_parts", instr)
	case arcir.OpMakeStruct:
		val = e.genMakeStruct(instr)
	case arcir.OpMakeVariant:
		val = e.genMakeVariant(instr)
	case arcir.OpPhi:
		val = e.genPhiPlaceholder(instr)
	case arcir.OpClosureMake:
		val = e.genClosureMake(instr)
	case arcir.OpRetain:
		e.genRetain(instr)
		return nil
	case arcir.OpRelease:
		e.genRelease(instr)
		return nil
	case arcir.OpUnit:
		val = llvm.ConstNull(e.ctx.Int64Type())
	default:
		return fmt.Errorf("codegen: unhandled op %v", instr.Op)
	}
	if err != nil {
		return err
	}
	if instr.Result != arcir.NoVar {
		e.vars[instr.Result] = val
	}
	return nil
}

func (e *Emitter) genLiteral(instr arcir.Instr) llvm.Value {
	switch instr.LitK {
	case arcir.LitInt, arcir.LitDuration, arcir.LitSize:
		return llvm.ConstInt(e.ctx.Int64Type(), instr.IVal, true)
	case arcir.LitFloat:
		return llvm.ConstFloat(e.ctx.DoubleType(), instr.FVal)
	case arcir.LitBool:
		v := uint64(0)
		if instr.BVal {
			v = 1
		}
		return llvm.ConstInt(e.ctx.Int1Type(), v, false)
	case arcir.LitChar:
		return llvm.ConstInt(e.ctx.Int32Type(), uint64(instr.RVal), false)
	case arcir.LitStr:
		return e.genStringConstant(e.names.Lookup(instr.SVal))
	case arcir.LitUnit:
		return llvm.ConstNull(e.ctx.VoidType())
	default:
		return llvm.ConstNull(e.ctx.Int64Type())
	}
}

// genStringConstant materializes a string literal as a private global and
// returns the {ptr, len} fat pointer value oric's Str representation uses.
func (e *Emitter) genStringConstant(s string) llvm.Value {
	data := e.ctx.ConstString(s, false)
	global := llvm.AddGlobal(e.mod, data.Type(), ".str")
	global.SetInitializer(data)
	global.SetGlobalConstant(true)
	global.SetLinkage(llvm.PrivateLinkage)

	zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	ptr := llvm.ConstGEP(data.Type(), global, []llvm.Value{zero, zero})
	str := llvm.ConstNull(e.formatResultType())
	str = llvm.ConstInsertValue(str, ptr, []uint32{0})
	str = llvm.ConstInsertValue(str, llvm.ConstInt(e.ctx.Int64Type(), uint64(len(s)), false), []uint32{1})
	return str
}

func (e *Emitter) genPrimOp(instr arcir.Instr) (llvm.Value, error) {
	a := e.vars[instr.Args[0]]
	var b llvm.Value
	if len(instr.Args) > 1 {
		b = e.vars[instr.Args[1]]
	}
	isFloat := a.Type() == e.ctx.DoubleType()

	switch instr.Op2 {
	case "+":
		if isFloat {
			return e.irb.CreateFAdd(a, b, ""), nil
		}
		return e.irb.CreateAdd(a, b, ""), nil
	case "-":
		if b.IsNil() {
			if isFloat {
				return e.irb.CreateFNeg(a, ""), nil
			}
			return e.irb.CreateNeg(a, ""), nil
		}
		if isFloat {
			return e.irb.CreateFSub(a, b, ""), nil
		}
		return e.irb.CreateSub(a, b, ""), nil
	case "*":
		if isFloat {
			return e.irb.CreateFMul(a, b, ""), nil
		}
		return e.irb.CreateMul(a, b, ""), nil
	case "/":
		if isFloat {
			return e.irb.CreateFDiv(a, b, ""), nil
		}
		return e.irb.CreateSDiv(a, b, ""), nil
	case "%":
		if isFloat {
			return e.irb.CreateFRem(a, b, ""), nil
		}
		return e.irb.CreateSRem(a, b, ""), nil
	case "==":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatOEQ, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntEQ, a, b, ""), nil
	case "!=":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatONE, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntNE, a, b, ""), nil
	case "<":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatOLT, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntSLT, a, b, ""), nil
	case "<=":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatOLE, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntSLE, a, b, ""), nil
	case ">":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatOGT, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntSGT, a, b, ""), nil
	case ">=":
		if isFloat {
			return e.irb.CreateFCmp(llvm.FloatOGE, a, b, ""), nil
		}
		return e.irb.CreateICmp(llvm.IntSGE, a, b, ""), nil
	case "&&":
		return e.irb.CreateAnd(a, b, ""), nil
	case "||":
		return e.irb.CreateOr(a, b, ""), nil
	case "!":
		return e.irb.CreateXor(a, llvm.ConstInt(a.Type(), 1, false), ""), nil
	case "&":
		return e.irb.CreateAnd(a, b, ""), nil
	case "|":
		return e.irb.CreateOr(a, b, ""), nil
	case "^":
		return e.irb.CreateXor(a, b, ""), nil
	case "is_variant":
		// a holds an enum value; its discriminant is field 0. instr.IVal
		// carries the variant index to compare against.
		disc := e.irb.CreateExtractValue(a, 0, "")
		return e.irb.CreateICmp(llvm.IntEQ, disc, llvm.ConstInt(disc.Type(), instr.IVal, false), ""), nil
	case "has_next":
		return e.genCallRuntime("ori_iterator_has_next", []llvm.Value{a}, e.ctx.Int1Type()), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unhandled primop %q", instr.Op2)
	}
}

func (e *Emitter) genCall(instr arcir.Instr) llvm.Value {
	callee, ok := e.funcs[instr.Name]
	if !ok {
		callee = e.intrinsics[e.names.Lookup(instr.Name)]
	}
	args := make([]llvm.Value, 0, len(instr.Args))
	for _, a := range instr.Args {
		args = append(args, e.vars[a])
	}
	return e.irb.CreateCall(callee.GlobalValueType(), callee, args, "")
}

// genMethodCall dispatches a method call to the corresponding runtime
// entry point; oric's collection and iterator methods (len, iter,
// compare, equals, hash, clone, debug — spec.md §4.9 step 6) are
// implemented by the companion runtime rather than inlined here, keeping
// codegen's own surface small.
func (e *Emitter) genMethodCall(instr arcir.Instr) llvm.Value {
	receiver := e.vars[instr.Args[0]]
	args := []llvm.Value{receiver}
	for _, a := range instr.Args[1:] {
		args = append(args, e.vars[a])
	}
	runtimeName := "ori_method_" + e.names.Lookup(instr.Name)
	return e.genCallRuntime(runtimeName, args, e.llvmType(instr.Type))
}

// genCallRuntime calls a runtime-provided symbol by name, declaring it
// lazily with the given return type and the argument types actually
// passed (all pointer-width or matching the supplied values), so a single
// codegen pass never has to know the whole runtime ABI up front.
func (e *Emitter) genCallRuntime(name string, args []llvm.Value, retType llvm.Type) llvm.Value {
	fn, ok := e.intrinsics[name]
	if !ok {
		var argTypes []llvm.Type
		for _, a := range args {
			argTypes = append(argTypes, a.Type())
		}
		fnType := llvm.FunctionType(retType, argTypes, false)
		fn = llvm.AddFunction(e.mod, name, fnType)
		fn.SetFunctionCallConv(llvm.CCallConv)
		e.intrinsics[name] = fn
	}
	return e.irb.CreateCall(fn.GlobalValueType(), fn, args, "")
}

func (e *Emitter) genFieldGet(instr arcir.Instr) llvm.Value {
	agg := e.vars[instr.Args[0]]
	return e.irb.CreateExtractValue(agg, uint32(instr.IVal), "")
}

func (e *Emitter) genIndexGet(instr arcir.Instr) llvm.Value {
	container := e.vars[instr.Args[0]]
	index := e.vars[instr.Args[1]]
	if container.Type().TypeKind() == llvm.StructTypeKind {
		// Tuple-style fixed index.
		return e.irb.CreateExtractValue(container, uint32(instr.IVal), "")
	}
	return e.genCallRuntime("ori_index_get", []llvm.Value{container, index}, e.llvmType(instr.Type))
}

func (e *Emitter) genMakeTuple(instr arcir.Instr) llvm.Value {
	ty := e.llvmType(instr.Type)
	agg := llvm.Undef(ty)
	for i, a := range instr.Args {
		agg = e.irb.CreateInsertValue(agg, e.vars[a], uint32(i), "")
	}
	return agg
}

func (e *Emitter) genMakeStruct(instr arcir.Instr) llvm.Value {
	ty := e.llvmType(instr.Type)
	agg := llvm.Undef(ty)
	for i, a := range instr.Args {
		agg = e.irb.CreateInsertValue(agg, e.vars[a], uint32(i), "")
	}
	return agg
}

// genMakeCollection boxes a fixed list of element values into a
// heap-allocated, reference-counted collection via the companion runtime.
func (e *Emitter) genMakeCollection(runtimeCtor string, instr arcir.Instr) llvm.Value {
	count := llvm.ConstInt(e.ctx.Int64Type(), uint64(len(instr.Args)), false)
	args := []llvm.Value{count}
	for _, a := range instr.Args {
		args = append(args, e.vars[a])
	}
	return e.genCallRuntime(runtimeCtor, args, e.ptrType())
}

func (e *Emitter) genMakeVariant(instr arcir.Instr) llvm.Value {
	ty := e.llvmType(instr.Type)
	agg := llvm.Undef(ty)
	disc := llvm.ConstInt(ty.StructElementTypes()[0], instr.IVal, false)
	agg = e.irb.CreateInsertValue(agg, disc, 0, "")
	if len(instr.Args) > 0 {
		payloadTy := ty.StructElementTypes()[1]
		payload := llvm.Undef(payloadTy)
		for i, a := range instr.Args {
			payload = e.irb.CreateInsertValue(payload, e.vars[a], uint32(i), "")
		}
		agg = e.irb.CreateInsertValue(agg, payload, 1, "")
	}
	return agg
}

// genPhiPlaceholder creates the LLVM phi node with no incoming edges;
// wirePhis fills them in once every predecessor's value exists.
func (e *Emitter) genPhiPlaceholder(instr arcir.Instr) llvm.Value {
	phi := e.irb.CreatePHI(e.llvmType(instr.Type), "")
	e.pendingPhis = append(e.pendingPhis, pendingPhi{
		block: e.irb.GetInsertBlock(),
		phi:   phi,
		instr: instr,
	})
	return phi
}

func (e *Emitter) wirePhis(fn *arcir.Function) {
	for _, pp := range e.pendingPhis {
		blockOf := e.blockContaining(fn, pp.block)
		if blockOf == nil {
			continue
		}
		var incoming []llvm.Value
		var from []llvm.BasicBlock
		for i, pred := range blockOf.Preds {
			if i >= len(pp.instr.PhiArgs) {
				break
			}
			incoming = append(incoming, e.vars[pp.instr.PhiArgs[i]])
			from = append(from, e.blocks[pred])
		}
		pp.phi.AddIncoming(incoming, from)
	}
	e.pendingPhis = nil
}

func (e *Emitter) blockContaining(fn *arcir.Function, bb llvm.BasicBlock) *arcir.Block {
	for id, b := range e.blocks {
		if b == bb {
			return fn.Block(id)
		}
	}
	return nil
}

// genRetain emits a call to ori_rc_retain for non-Scalar values; Scalar
// values carry no refcount header, so retaining them is a no-op the
// borrow-inference/ARC-insertion pass should not have emitted in the
// first place, but codegen stays defensive here rather than trusting it.
func (e *Emitter) genRetain(instr arcir.Instr) {
	if borrow.ClassifyArc(e.pool, instr.Type) == borrow.ClassScalar {
		return
	}
	target := e.vars[instr.Target]
	e.genCallRuntime("ori_rc_retain", []llvm.Value{target}, e.ctx.VoidType())
}

func (e *Emitter) genRelease(instr arcir.Instr) {
	if borrow.ClassifyArc(e.pool, instr.Type) == borrow.ClassScalar {
		return
	}
	target := e.vars[instr.Target]
	dtor := e.destructorFor(instr.Type)
	e.genCallRuntime("ori_rc_release", []llvm.Value{target, dtor}, e.ctx.VoidType())
}

// destructorFor returns a null destructor pointer for every type: no
// per-type destructor function is generated, so ori_rc_release always
// receives null. Scalar-free values that never reach genRelease never
// need one.
func (e *Emitter) destructorFor(ty tpool.Idx) llvm.Value {
	return llvm.ConstNull(e.ptrType())
}
