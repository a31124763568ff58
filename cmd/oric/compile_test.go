package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/pipeline"
	"github.com/ori-lang/oric/internal/ptree"
)

func identitySource(names *ident.Interner, path string) pipeline.Source {
	x := names.Intern("x")
	fn := &ptree.FuncDecl{
		Name: names.Intern("id"),
		Params: []ptree.Param{
			{Name: x, Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		},
		ReturnType: &ptree.NamedTypeExpr{Name: names.Intern("Int")},
		Body:       &ptree.Ident{Name: x},
	}
	return pipeline.Source{Path: path, Module: &ptree.Module{Items: []ptree.Item{fn}}}
}

func TestCompileModuleSucceedsAndReportsPaths(t *testing.T) {
	names := ident.New()
	dir := t.TempDir()
	cfg := pipeline.Config{ObjectDir: dir}
	src := identitySource(names, filepath.Join(dir, "identity.ori"))

	var stdout, stderr bytes.Buffer
	code := compileModule(cfg, names, src, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, "stderr: %s", stderr.String())
	require.NotZero(t, stdout.Len(), "expected a compiled-path summary on stdout")
	require.Zero(t, stderr.Len(), "expected no diagnostics")
}

func TestCompileModuleReportsDiagnosticsOnTypeError(t *testing.T) {
	names := ident.New()
	dir := t.TempDir()
	cfg := pipeline.Config{ObjectDir: dir}

	x := names.Intern("x")
	fn := &ptree.FuncDecl{
		Name: names.Intern("mismatched"),
		Params: []ptree.Param{
			{Name: x, Type: &ptree.NamedTypeExpr{Name: names.Intern("Int")}},
		},
		ReturnType: &ptree.NamedTypeExpr{Name: names.Intern("Str")},
		Body:       &ptree.Ident{Name: x},
	}
	src := pipeline.Source{Path: "mismatched.ori", Module: &ptree.Module{Items: []ptree.Item{fn}}}

	var stdout, stderr bytes.Buffer
	code := compileModule(cfg, names, src, &stdout, &stderr)
	require.Equal(t, exitCompileError, code)
	require.NotZero(t, stderr.Len(), "expected a rendered diagnostic on stderr")
}

func TestLoadModuleReportsMissingFile(t *testing.T) {
	names := ident.New()
	_, err := loadModule(filepath.Join(t.TempDir(), "missing.ori"), names)
	require.Error(t, err)
}

func TestHostTargetOSDefaultsToLinux(t *testing.T) {
	require.Equal(t, "linux", hostTargetOS(""))
	require.Equal(t, "darwin", hostTargetOS("aarch64-apple-darwin"))
	require.Equal(t, "windows", hostTargetOS("x86_64-pc-windows-msvc"))
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	require.Equal(t, exitUsageError, run([]string{"bogus"}))
}

func TestRunCompileRequiresFileArgument(t *testing.T) {
	require.Equal(t, exitUsageError, run([]string{"compile"}))
}
