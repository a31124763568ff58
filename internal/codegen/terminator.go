package codegen

import (
	"github.com/ori-lang/oric/internal/abi"
	"github.com/ori-lang/oric/internal/arcir"
	"tinygo.org/x/go-llvm"
)

// emitTerminator lowers blk's Terminator. The Sret return path — writing
// the result through the hidden first parameter rather than an LLVM
// `ret` — is handled here since it is a property of the function's ABI,
// not of any single instruction.
func (e *Emitter) emitTerminator(fn *arcir.Function, blk *arcir.Block) {
	switch blk.Term.Kind {
	case arcir.TermBranch:
		e.irb.CreateBr(e.blocks[blk.Term.Target])
	case arcir.TermCondBranch:
		cond := e.vars[blk.Term.Cond]
		e.irb.CreateCondBr(cond, e.blocks[blk.Term.IfTrue], e.blocks[blk.Term.IfFalse])
	case arcir.TermReturn:
		e.emitReturn(fn, blk.Term.ReturnValue)
	case arcir.TermUnreachable:
		e.irb.CreateUnreachable()
	}
}

func (e *Emitter) emitReturn(fn *arcir.Function, ret arcir.VarId) {
	if ret == arcir.NoVar {
		e.irb.CreateRetVoid()
		return
	}
	val := e.vars[ret]
	if e.returnIsSret(fn) {
		sretPtr := e.fnVal.Param(0)
		e.irb.CreateStore(val, sretPtr)
		e.irb.CreateRetVoid()
		return
	}
	if val.Type().TypeKind() == llvm.VoidTypeKind {
		e.irb.CreateRetVoid()
		return
	}
	e.irb.CreateRet(val)
}

func (e *Emitter) returnIsSret(fn *arcir.Function) bool {
	size := abi.Size(e.pool, fn.RetType)
	return size > 0 && size > 16
}
