package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
)

// identityModule builds `def id(x: Int) -> Int { x }` as a parsed module,
// the simplest input that exercises every pipeline phase end to end.
func identityModule(names *ident.Interner) Source {
	x := names.Intern("x")
	fn := &ptree.FuncDecl{
		Name: names.Intern("id"),
		Params: []ptree.Param{
			{Name: x, Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		},
		ReturnType: &ptree.NamedTypeExpr{Name: names.Intern("Int")},
		Body:       &ptree.Ident{Name: x},
	}
	return Source{Path: "identity.ori", Module: &ptree.Module{Items: []ptree.Item{fn}}}
}

func TestCompileModuleProducesObjectFile(t *testing.T) {
	names := ident.New()
	dir := t.TempDir()
	cfg := Config{ObjectDir: dir}

	result, err := CompileModule(cfg, names, identityModule(names))
	require.NoError(t, err)
	require.NotEmpty(t, result.Artifacts.ObjectPath)
	require.Len(t, result.Artifacts.IR.Functions, 1)
}

func TestCompileModuleCacheHitOnSecondRun(t *testing.T) {
	names := ident.New()
	objDir := t.TempDir()
	cacheDir := t.TempDir()
	cfg := Config{ObjectDir: objDir, CacheDir: cacheDir, OricVersion: "test"}
	src := identityModule(names)

	first, err := CompileModule(cfg, names, src)
	require.NoError(t, err)
	require.NotZero(t, first.CacheMisses, "expected the first build of an unseen function to miss the cache")

	second, err := CompileModule(cfg, names, src)
	require.NoError(t, err)
	require.NotZero(t, second.CacheHits, "expected an unchanged rebuild to hit the cache")
}

func TestCompileModuleReportsTypeErrors(t *testing.T) {
	names := ident.New()
	dir := t.TempDir()
	cfg := Config{ObjectDir: dir}

	x := names.Intern("x")
	fn := &ptree.FuncDecl{
		Name: names.Intern("mismatched"),
		Params: []ptree.Param{
			{Name: x, Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		},
		ReturnType: &ptree.NamedTypeExpr{Name: names.Intern("Str")},
		Body:       &ptree.Ident{Name: x},
	}
	src := Source{Path: "mismatched.ori", Module: &ptree.Module{Items: []ptree.Item{fn}}}

	result, err := CompileModule(cfg, names, src)
	require.Error(t, err, "expected a type error for returning Int where Str is declared")
	require.NotEmpty(t, result.Diagnostics, "expected diagnostics to be populated alongside the error")
}

func TestConfigTripleDefaultsWhenEmpty(t *testing.T) {
	cfg := Config{}
	require.Equal(t, defaultTriple, cfg.triple())
	cfg.Triple = "aarch64-unknown-linux-gnu"
	require.Equal(t, "aarch64-unknown-linux-gnu", cfg.triple())
}

func TestFuncDeclsSkipsNonFunctionItems(t *testing.T) {
	names := ident.New()
	m := &ptree.Module{Items: []ptree.Item{
		&ptree.TypeDecl{Name: names.Intern("Widget"), Kind: ptree.DeclStruct},
		&ptree.FuncDecl{Name: names.Intern("main")},
	}}
	decls := funcDecls(m)
	require.Len(t, decls, 1)
	require.Equal(t, names.Intern("main"), decls[0].Name)
}

func TestCompileModuleObjectPathRespectsObjectDir(t *testing.T) {
	names := ident.New()
	dir := t.TempDir()
	cfg := Config{ObjectDir: dir}

	result, err := CompileModule(cfg, names, identityModule(names))
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(result.Artifacts.ObjectPath))
}
