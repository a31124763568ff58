package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitObjectWritesNonEmptyFile(t *testing.T) {
	mod, pool, names, sigs := buildIdentityModule(t)
	e, err := New("test_module_object", "x86_64-unknown-linux-gnu", pool, names)
	require.NoError(t, err)
	defer e.Dispose()
	require.NoError(t, e.EmitModule(mod, sigs))

	path := filepath.Join(t.TempDir(), "test_module.o")
	require.NoError(t, e.EmitObject(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size(), "expected a non-empty object file")
}

func TestEmitIRWritesModuleText(t *testing.T) {
	mod, pool, names, sigs := buildIdentityModule(t)
	e, err := New("test_module_ir", "x86_64-unknown-linux-gnu", pool, names)
	require.NoError(t, err)
	defer e.Dispose()
	require.NoError(t, e.EmitModule(mod, sigs))

	path := filepath.Join(t.TempDir(), "test_module.ll")
	require.NoError(t, e.EmitIR(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, contents, "expected non-empty LLVM IR text")
}
