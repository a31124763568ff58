package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ori-lang/oric/internal/arcir"
	"github.com/ori-lang/oric/internal/borrow"
	"github.com/ori-lang/oric/internal/cache"
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/codegen"
	"github.com/ori-lang/oric/internal/debuginfo"
	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/infer"
	"github.com/ori-lang/oric/internal/linker"
	"github.com/ori-lang/oric/internal/ptree"
	"github.com/ori-lang/oric/internal/tpool"
)

// defaultTriple is used when a Config leaves Triple empty; callers
// targeting a different platform set Triple explicitly.
const defaultTriple = "x86_64-unknown-linux-gnu"

// Config holds the knobs a single compile-unit run accepts. It mirrors the
// teacher pipeline's Config/PhaseTimings idiom, generalized from "check or
// evaluate one AILANG file" to "compile one oric module to a native object
// and optionally link it."
type Config struct {
	Triple        string
	EmitDebugInfo bool
	CacheDir      string // empty disables incremental caching
	ObjectDir     string // where per-module .o files and IR dumps land
	OricVersion   string

	Link         bool
	LinkerConfig linker.Config // ObjectFiles/OutputPath/Kind are filled in by CompileModule
}

func (c Config) triple() string {
	if c.Triple == "" {
		return defaultTriple
	}
	return c.Triple
}

// Source is one parsed module ready for compilation. Lexing/parsing into a
// ptree.Module is out of the core's scope (spec.md §1); CompileModule's
// caller owns producing one.
type Source struct {
	Path   string
	Module *ptree.Module
}

// Artifacts holds the intermediate representations produced along the way,
// kept around for `--dump-*` diagnostics the same way the teacher's
// Artifacts struct exposed AST/Core/Typed.
type Artifacts struct {
	Arena      *canon.Arena
	Types      map[canon.Id]tpool.Idx
	IR         *arcir.Module
	ObjectPath string
}

// Result is CompileModule's output.
type Result struct {
	Diagnostics  []*diag.Diagnostic
	Artifacts    Artifacts
	PhaseTimings map[string]int64 // milliseconds
	CacheHits    int
	CacheMisses  int
}

// funcDecls returns every top-level function declaration in m, in source
// order, skipping trait/impl/extension method bodies (not yet part of
// oric's compile-unit scope; spec.md's Non-goals exclude trait dispatch
// codegen from the core).
func funcDecls(m *ptree.Module) []*ptree.FuncDecl {
	var out []*ptree.FuncDecl
	for _, item := range m.Items {
		if fn, ok := item.(*ptree.FuncDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

// CompileModule runs the whole core pipeline over one parsed module:
// canonicalize, infer, borrow-annotate, lower to ARC IR, sanity-check,
// emit LLVM, optionally attach debug info, write an object file honoring
// the incremental cache, and optionally link.
func CompileModule(cfg Config, names *ident.Interner, src Source) (Result, error) {
	result := Result{PhaseTimings: make(map[string]int64)}
	diags := diag.NewQueue()

	start := time.Now()
	pool := tpool.New()
	cb := canon.NewBuilder(names, diags)
	cb.LowerModule(src.Module)
	arena := cb.Arena
	result.PhaseTimings["canon"] = time.Since(start).Milliseconds()

	start = time.Now()
	reg := infer.NewTypeRegistry()
	infer.RegisterTypeDecls(pool, reg, names, src.Module)
	engine := infer.NewEngine(pool, arena, names, diags)
	engine.Types = reg

	decls := funcDecls(src.Module)
	sigTypes := make(map[ident.Name][]tpool.Idx, len(decls))
	sigRets := make(map[ident.Name]tpool.Idx, len(decls))
	for _, fn := range decls {
		rigid := make(map[ident.Name]tpool.Idx, len(fn.TypeParams))
		for _, tp := range fn.TypeParams {
			rigid[tp.Name] = pool.RigidVar(tp.Name)
		}
		paramTypes := make([]tpool.Idx, len(fn.Params))
		env := infer.NewEnv()
		for i, p := range fn.Params {
			paramTypes[i] = infer.ResolveTypeExpr(pool, reg, names, rigid, p.Type)
			env = env.Extend(p.Name, paramTypes[i])
		}
		retType := infer.ResolveTypeExpr(pool, reg, names, rigid, fn.ReturnType)
		sigTypes[fn.Name] = paramTypes
		sigRets[fn.Name] = retType

		root, ok := arena.FnRoots[fn.Name]
		if !ok {
			continue
		}
		selfTy := pool.Function(paramTypes, retType)
		bodyTy := engine.InferFunction(root, env, selfTy)
		if uerr := pool.Unify(bodyTy, retType); uerr != nil {
			node := arena.Get(root)
			diags.Push(diag.New("infer", diag.TypeMismatch, diag.SeverityError, node.Span,
				fmt.Sprintf("function %s: expected return type %s, found %s",
					names.Lookup(fn.Name), pool.String(retType, names), pool.String(bodyTy, names))))
		}
	}
	result.PhaseTimings["infer"] = time.Since(start).Milliseconds()

	if diags.HasErrors() {
		result.Diagnostics = diags.Items()
		return result, fmt.Errorf("pipeline: type inference failed for %s", src.Path)
	}

	start = time.Now()
	mod := &arcir.Module{}
	sigs := make(map[ident.Name]*borrow.AnnotatedSig, len(decls))
	units := make([]cacheUnit, 0, len(decls))
	for _, fn := range decls {
		root, ok := arena.FnRoots[fn.Name]
		if !ok {
			continue
		}
		paramNames := make([]ident.Name, len(fn.Params))
		for i, p := range fn.Params {
			paramNames[i] = p.Name
		}
		paramTypes := sigTypes[fn.Name]
		retType := sigRets[fn.Name]

		sig := borrow.Infer(arena, pool, paramNames, paramTypes, root, retType)
		sigs[fn.Name] = sig

		b := arcir.NewBuilder(arena, engine.Resolved, names, pool, diags)
		irFn := b.LowerFunction(fn.Name, paramNames, paramTypes, retType, root)
		mod.Functions = append(mod.Functions, irFn)
		mod.Functions = append(mod.Functions, b.Module.Functions...) // hoisted lambdas

		units = append(units, cacheUnit{name: fn.Name, root: root, paramTypes: paramTypes, retType: retType})
	}
	result.PhaseTimings["lower"] = time.Since(start).Milliseconds()
	result.Artifacts = Artifacts{Arena: arena, Types: engine.Resolved, IR: mod}

	if err := CheckModule(names, mod); err != nil {
		return result, fmt.Errorf("pipeline: %w", err)
	}

	return compileToObject(cfg, names, pool, mod, sigLookup(sigs), units, src, result)
}

// cacheUnit is the per-function material updateManifest needs to rebuild
// spec.md §4.12's four sub-hashes, carried in source declaration order so
// ModuleHash (which folds them order-sensitively, like hash_combine
// itself) is deterministic across runs of an unchanged module.
type cacheUnit struct {
	name       ident.Name
	root       canon.Id
	paramTypes []tpool.Idx
	retType    tpool.Idx
}

// sigLookup adapts a plain map to codegen.SignatureLookup.
type sigLookup map[ident.Name]*borrow.AnnotatedSig

func (s sigLookup) Lookup(name ident.Name) (*borrow.AnnotatedSig, bool) {
	sig, ok := s[name]
	return sig, ok
}

// compileToObject drives codegen/debuginfo/cache/linker, the back half of
// CompileModule, split out so CompileModule itself stays readable as one
// front-to-back phase list.
func compileToObject(cfg Config, names *ident.Interner, pool *tpool.Pool, mod *arcir.Module, sigs sigLookup, units []cacheUnit, src Source, result Result) (Result, error) {
	manifestPath := ""
	var manifest *cache.Manifest
	if cfg.CacheDir != "" {
		manifestPath = filepath.Join(cfg.CacheDir, filepath.Base(src.Path)+".manifest.yaml")
		m, err := cache.Load(manifestPath, cfg.OricVersion)
		if err != nil {
			return result, fmt.Errorf("pipeline: loading cache manifest: %w", err)
		}
		manifest = m
	}

	start := time.Now()
	e, err := codegen.New(filepath.Base(src.Path), cfg.triple(), pool, names)
	if err != nil {
		return result, fmt.Errorf("pipeline: %w", err)
	}
	defer e.Dispose()

	var dbg *debuginfo.Builder
	if cfg.EmitDebugInfo {
		dbg = debuginfo.New(e.Module(), e.IRBuilder(), pool, src.Path, filepath.Dir(src.Path), "oric", false)
		e.WithDebugInfo(dbg)
	}

	if err := e.EmitModule(mod, sigs); err != nil {
		return result, fmt.Errorf("pipeline: %w", err)
	}
	if dbg != nil {
		dbg.Finalize()
	}
	result.PhaseTimings["codegen"] = time.Since(start).Milliseconds()

	objectPath := filepath.Join(cfg.ObjectDir, filepath.Base(src.Path)+".o")
	if cfg.ObjectDir == "" {
		objectPath = src.Path + ".o"
	}
	if err := e.EmitObject(objectPath); err != nil {
		return result, fmt.Errorf("pipeline: %w", err)
	}
	result.Artifacts.ObjectPath = objectPath

	if manifest != nil {
		updateManifest(manifest, names, result.Artifacts, units, objectPath, &result)
		if err := manifest.Save(manifestPath); err != nil {
			return result, fmt.Errorf("pipeline: saving cache manifest: %w", err)
		}
	}

	if cfg.Link {
		lcfg := cfg.LinkerConfig
		lcfg.ObjectFiles = append(append([]string{}, lcfg.ObjectFiles...), objectPath)
		if lcfg.OutputPath == "" {
			// Driver.Link appends Extension(cfg.Kind, format) itself, so the
			// stem here must be extension-free; trim objectPath's directory
			// and ".o" suffix to get it.
			stem := strings.TrimSuffix(filepath.Base(objectPath), filepath.Ext(objectPath))
			lcfg.OutputPath = filepath.Join(filepath.Dir(objectPath), stem)
		}
		d := linker.NewDriver()
		if err := d.Link(lcfg); err != nil {
			return result, fmt.Errorf("pipeline: %w", err)
		}
	}

	return result, nil
}

// updateManifest records every function's current hash in manifest and
// counts cache hits/misses for Result (spec.md §4.12's four-sub-hash
// scheme, computed from the arena/types this run just produced).
func updateManifest(manifest *cache.Manifest, names *ident.Interner, art Artifacts, units []cacheUnit, objectPath string, result *Result) {
	combined := make([]uint64, 0, len(units))
	for _, u := range units {
		callees, globals := cache.Collect(art.Arena, u.root)
		fh := cache.FunctionHash{
			Body:      cache.BodyHash(art.Arena, art.Types, u.root),
			Signature: cache.SignatureHash(u.paramTypes, u.retType),
			Callees:   cache.CalleesHash(callees),
			Globals:   cache.GlobalsHash(globals),
		}
		combined = append(combined, fh.Combined())

		name := names.Lookup(u.name)
		if manifest.Changed(name, fh) {
			result.CacheMisses++
		} else {
			result.CacheHits++
		}
		manifest.Upsert(cache.FunctionEntry{
			Name:          name,
			BodyHash:      fh.Body,
			SignatureHash: fh.Signature,
			CalleesHash:   fh.Callees,
			GlobalsHash:   fh.Globals,
			ObjectPath:    objectPath,
		})
	}
	manifest.ModuleHash = cache.ModuleHash(combined)
}
