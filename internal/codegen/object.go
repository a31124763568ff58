package codegen

import (
	"fmt"
	"os"

	"tinygo.org/x/go-llvm"
)

// EmitObject compiles the module to a native object file at path, mirroring
// hhramberg-go-vslc's transform.go: compile to an in-memory buffer via the
// target machine, then write that buffer to disk in one shot rather than
// streaming instructions out incrementally.
func (e *Emitter) EmitObject(path string) error {
	if err := llvm.VerifyModule(e.mod, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("codegen: module verification failed: %w", err)
	}

	buf, err := e.machine.EmitToMemoryBuffer(e.mod, llvm.ObjectFile)
	if err != nil {
		return fmt.Errorf("codegen: emitting object code: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("codegen: writing object file %s: %w", path, err)
	}
	return nil
}

// EmitIR writes the module's textual LLVM IR to path, used by the `--dump-ir`
// CLI flag and by tests that want a human-readable rendering without a full
// object-file round trip.
func (e *Emitter) EmitIR(path string) error {
	return os.WriteFile(path, []byte(e.mod.String()), 0o644)
}

// Dispose releases the LLVM resources owned by this Emitter. It must be
// called exactly once, after EmitObject/EmitIR, since llvm.Context values
// wrap a C++ object with no finalizer.
func (e *Emitter) Dispose() {
	e.irb.Dispose()
	e.machine.Dispose()
	e.targetData.Dispose()
	e.mod.Dispose()
	e.ctx.Dispose()
}
