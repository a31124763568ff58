// Package codegen implements spec.md §4.9's code generator: it lowers an
// internal/arcir.Module into an LLVM module, following
// _examples/hhramberg-go-vslc's src/ir/llvm/transform.go idioms — a
// per-function symbol table mapping IR values to llvm.Value, one small
// gen* function per IR construct, and explicit llvm.Context/Builder/Module
// plumbing via tinygo.org/x/go-llvm.
package codegen

import (
	"fmt"
	"sync"

	"github.com/ori-lang/oric/internal/abi"
	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/debuginfo"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/tpool"
	"tinygo.org/x/go-llvm"
)

// initTargets runs LLVM's target-registration exactly once per process,
// matching the init sequence hhramberg-go-vslc's transform.go runs before
// its first CreateTargetMachine call.
var initTargets sync.Once

func ensureTargetsInitialized() {
	initTargets.Do(func() {
		llvm.InitializeAllTargetInfos()
		llvm.InitializeAllTargets()
		llvm.InitializeAllTargetMCs()
		llvm.InitializeAllAsmParsers()
		llvm.InitializeAllAsmPrinters()
	})
}

// runtimeIntrinsics is the table spec.md §6 mandates every emitted module
// declare (never define — the implementation lives in a companion
// runtime).
var runtimeIntrinsics = []struct {
	name   string
	build  func(e *Emitter) llvm.Type
}{
	{"ori_rc_retain", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.ptrType()}, false)
	}},
	{"ori_rc_release", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.ptrType(), e.ptrType()}, false)
	}},
	{"ori_closure_box", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.ptrType(), []llvm.Type{e.ctx.Int64Type()}, false)
	}},
	{"ori_panic", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.ptrType(), e.ctx.Int64Type()}, false)
	}},
	{"ori_format_int", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.formatResultType(), []llvm.Type{e.ctx.Int64Type(), e.ptrType()}, false)
	}},
	{"ori_format_float", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.formatResultType(), []llvm.Type{e.ctx.DoubleType(), e.ptrType()}, false)
	}},
	{"ori_format_str", func(e *Emitter) llvm.Type {
		return llvm.FunctionType(e.formatResultType(), []llvm.Type{e.ptrType(), e.ptrType()}, false)
	}},
}

// Emitter holds the state threaded through one module's code generation:
// the LLVM context/module/builder triple, the running symbol table
// (mirroring vslc's symTab), and per-function bookkeeping reset at the
// start of each function.
type Emitter struct {
	ctx        llvm.Context
	mod        llvm.Module
	irb        llvm.Builder
	targetData llvm.TargetData
	machine    llvm.TargetMachine
	pool       *tpool.Pool
	names      *ident.Interner
	debug      *debuginfo.Builder

	typeCache map[tpool.Idx]llvm.Type
	funcs     map[ident.Name]llvm.Value
	intrinsics map[string]llvm.Value

	// per-function state, reset by resetFunction
	vars        map[arcir.VarId]llvm.Value
	blocks      map[arcir.BlockId]llvm.BasicBlock
	fn          *arcir.Function
	fnVal       llvm.Value
	pendingPhis []pendingPhi
}

// New creates an Emitter for moduleName, targeting triple (an LLVM target
// triple string, e.g. "x86_64-unknown-linux-gnu").
func New(moduleName, triple string, pool *tpool.Pool, names *ident.Interner) (*Emitter, error) {
	ensureTargetsInitialized()

	ctx := llvm.NewContext()
	mod := ctx.NewModule(moduleName)
	mod.SetTarget(triple)

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return nil, fmt.Errorf("codegen: resolving target triple %q: %w", triple, err)
	}
	machine := target.CreateTargetMachine(triple, "generic", "", llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	data := machine.CreateTargetData()
	mod.SetDataLayout(data.String())

	e := &Emitter{
		ctx:        ctx,
		mod:        mod,
		irb:        ctx.NewBuilder(),
		targetData: data,
		machine:    machine,
		pool:       pool,
		names:      names,
		typeCache:  make(map[tpool.Idx]llvm.Type),
		funcs:      make(map[ident.Name]llvm.Value),
		intrinsics: make(map[string]llvm.Value),
	}
	e.declareIntrinsics()
	return e, nil
}

// WithDebugInfo attaches a debuginfo.Builder so SetLocation/dbg.declare/
// dbg.value calls are emitted alongside the generated instructions
// (spec.md §4.9 step 7).
func (e *Emitter) WithDebugInfo(d *debuginfo.Builder) { e.debug = d }

// Module and IRBuilder expose the underlying LLVM module/builder so a
// caller (internal/pipeline) can construct a debuginfo.Builder wired to
// this exact module before EmitModule runs.
func (e *Emitter) Module() llvm.Module   { return e.mod }
func (e *Emitter) IRBuilder() llvm.Builder { return e.irb }

func (e *Emitter) ptrType() llvm.Type { return llvm.PointerType(e.ctx.Int8Type(), 0) }

// formatResultType is the {ptr, len} pair ori_format_* returns.
func (e *Emitter) formatResultType() llvm.Type {
	return e.ctx.StructType([]llvm.Type{e.ptrType(), e.ctx.Int64Type()}, false)
}

func (e *Emitter) declareIntrinsics() {
	for _, spec := range runtimeIntrinsics {
		fnType := spec.build(e)
		fn := llvm.AddFunction(e.mod, spec.name, fnType)
		fn.SetFunctionCallConv(llvm.CCallConv)
		e.intrinsics[spec.name] = fn
	}
}

// DeclareFunction adds fn's declaration to the module, applying sret/byval
// parameter attributes from its computed FunctionAbi (spec.md §4.9 step
// 2). It must run for every function before any function body is
// generated, so forward calls resolve.
func (e *Emitter) DeclareFunction(fn *arcir.Function, fa *abi.FunctionAbi, linkName string) llvm.Value {
	var paramTypes []llvm.Type
	sretIdx := -1
	if fa.Return.Kind == abi.Sret {
		paramTypes = append(paramTypes, e.ptrType())
		sretIdx = 0
	}
	for i, p := range fa.Params {
		switch p.Kind {
		case abi.Void:
			continue
		case abi.Reference, abi.Indirect:
			paramTypes = append(paramTypes, e.ptrType())
		default:
			paramTypes = append(paramTypes, e.llvmType(fn.Params[i].Type))
		}
	}

	retType := e.ctx.VoidType()
	if fa.Return.Kind == abi.Direct {
		retType = e.llvmType(fn.RetType)
	}

	fnType := llvm.FunctionType(retType, paramTypes, false)
	val := llvm.AddFunction(e.mod, linkName, fnType)
	if fa.Conv == abi.ConvC {
		val.SetFunctionCallConv(llvm.CCallConv)
	} else {
		val.SetFunctionCallConv(llvm.FastCallConv)
	}
	if sretIdx == 0 {
		val.AddAttributeAtIndex(1, e.ctx.CreateEnumAttribute(llvm.AttributeKindID("sret"), 0))
	}
	for i, p := range fa.Params {
		if p.Kind == abi.Indirect {
			argPos := i + 1
			if sretIdx == 0 {
				argPos++
			}
			val.AddAttributeAtIndex(argPos, e.ctx.CreateEnumAttribute(llvm.AttributeKindID("byval"), 0))
		}
	}

	e.funcs[fn.Name] = val
	return val
}

// SignatureLookup is satisfied by whatever map type the pipeline threads
// per-function AnnotatedSigs through; codegen only needs lookup by name.
type SignatureLookup interface {
	Lookup(name ident.Name) (*borrow.AnnotatedSig, bool)
}

// EmitModule lowers every function in mod to LLVM IR. sigs resolves each
// function's borrow-annotated signature so parameter/return ABI decisions
// match what internal/abi already computed for it.
func (e *Emitter) EmitModule(mod *arcir.Module, sigs SignatureLookup) error {
	fas := make(map[ident.Name]*abi.FunctionAbi, len(mod.Functions))
	for _, fn := range mod.Functions {
		sig, ok := sigs.Lookup(fn.Name)
		if !ok {
			return fmt.Errorf("codegen: no borrow-annotated signature for %s", e.names.Lookup(fn.Name))
		}
		fa := abi.Compute(e.pool, sig, e.names.Lookup(fn.Name))
		fas[fn.Name] = fa
		e.DeclareFunction(fn, fa, e.names.Lookup(fn.Name))
	}

	for _, fn := range mod.Functions {
		if err := e.emitFunctionBody(fn, fas[fn.Name]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitFunctionBody(fn *arcir.Function, fa *abi.FunctionAbi) error {
	e.resetFunction(fn)
	e.fnVal = e.funcs[fn.Name]

	// Step 3 of spec.md §4.9: create every basic block up front so forward
	// branches (loop headers, match join points) resolve during the
	// instruction-emission pass below.
	for _, blk := range fn.Blocks {
		e.blocks[blk.Id] = llvm.AddBasicBlock(e.fnVal, fmt.Sprintf("bb%d", blk.Id))
	}

	e.bindParams(fn, fa)

	for _, blk := range fn.Blocks {
		e.irb.SetInsertPointAtEnd(e.blocks[blk.Id])
		for _, instr := range blk.Instrs {
			if err := e.emitInstr(instr); err != nil {
				return fmt.Errorf("codegen: function %s: %w", e.names.Lookup(fn.Name), err)
			}
		}
		e.emitTerminator(fn, blk)
	}

	// OpPhi nodes were created as LLVM phis with no incoming edges yet
	// (their source operands may not have existed at creation time); wire
	// them up now that every block's instructions have been emitted.
	e.wirePhis(fn)
	return nil
}

func (e *Emitter) resetFunction(fn *arcir.Function) {
	e.fn = fn
	e.vars = make(map[arcir.VarId]llvm.Value, 16)
	e.blocks = make(map[arcir.BlockId]llvm.BasicBlock, len(fn.Blocks))
}

func (e *Emitter) bindParams(fn *arcir.Function, fa *abi.FunctionAbi) {
	llvmParamIdx := 0
	if fa.Return.Kind == abi.Sret {
		llvmParamIdx = 1
	}
	for i, p := range fn.Params {
		if i < len(fa.Params) && fa.Params[i].Kind == abi.Void {
			continue
		}
		e.vars[p.Var] = e.fnVal.Param(llvmParamIdx)
		llvmParamIdx++
	}
	for i, c := range fn.Captures {
		_ = i
		// Captured values are not bound to LLVM values here; only
		// fn.Params are. Plain top-level functions have no captures.
		_ = c
	}
}
