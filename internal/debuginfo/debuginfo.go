// Package debuginfo implements the DWARF debug-info builder described in
// spec.md §4.10: a thin, stateful wrapper around LLVM's DIBuilder that
// tracks a compile-unit scope stack, a line-offset table, and a per-type
// DIType cache so internal/codegen never has to re-derive debug metadata
// for a type it has already described.
package debuginfo

import (
	"fmt"

	"github.com/ori-lang/oric/internal/tpool"
	"tinygo.org/x/go-llvm"
)

// Builder wraps llvm.DIBuilder with the scope stack and type cache oric's
// codegen needs at every IR instruction emission site.
type Builder struct {
	di      *llvm.DIBuilder
	irb     llvm.Builder
	file    llvm.Metadata
	cu      llvm.Metadata
	scopes  []llvm.Metadata
	types   map[tpool.Idx]llvm.Metadata
	pool    *tpool.Pool
	warned  map[tpool.Idx]bool
	onWarn  func(msg string)
}

// New creates a Builder over module, recording a compile unit for
// sourcePath (relative filename + absolute directory, per DWARF
// convention) and producer. irb is the IRBuilder codegen already uses for
// instruction emission; SetLocation calls route through it.
func New(module llvm.Module, irb llvm.Builder, pool *tpool.Pool, sourcePath, dir, producer string, optimized bool) *Builder {
	di := llvm.NewDIBuilder(module)
	file := di.CreateFile(sourcePath, dir)
	cu := di.CreateCompileUnit(llvm.DICompileUnit{
		Language:       0x001c, // DW_LANG_Rust, a placeholder: oric has no DWARF language code of its own
		File:           sourcePath,
		Dir:            dir,
		Producer:       producer,
		Optimized:      optimized,
		EmissionKind:   llvm.FullDebug,
		RuntimeVersion: 0,
	})
	return &Builder{
		di:     di,
		irb:    irb,
		file:   file,
		cu:     cu,
		scopes: []llvm.Metadata{cu},
		types:  make(map[tpool.Idx]llvm.Metadata),
		pool:   pool,
		warned: make(map[tpool.Idx]bool),
	}
}

// SetWarnSink installs a callback invoked whenever resolveDebugType falls
// back to the integer-type default, so the driver can surface a single
// warning diagnostic instead of silently emitting imprecise debug info.
func (b *Builder) SetWarnSink(fn func(msg string)) { b.onWarn = fn }

func (b *Builder) currentScope() llvm.Metadata {
	return b.scopes[len(b.scopes)-1]
}

// CreateSubroutineType builds the DIType describing a function's
// parameter and return types, for use as CreateFunction's subroutineType
// argument.
func (b *Builder) CreateSubroutineType(paramTypes []tpool.Idx, retType tpool.Idx) llvm.Metadata {
	params := make([]llvm.Metadata, 0, len(paramTypes)+1)
	params = append(params, b.resolveDebugType(retType))
	for _, p := range paramTypes {
		params = append(params, b.resolveDebugType(p))
	}
	return b.di.CreateSubroutineType(llvm.DISubroutineType{File: b.file, Parameters: params})
}

// CreateFunction registers a DISubprogram for name and pushes it as the
// current scope; callers must later PopScope once the function body is
// fully emitted.
func (b *Builder) CreateFunction(name, linkageName string, line int, subroutineType llvm.Metadata, isLocal, isDefinition bool) llvm.Metadata {
	sp := b.di.CreateFunction(b.file, llvm.DIFunction{
		Name:         name,
		LinkageName:  linkageName,
		File:         b.file,
		Line:         line,
		Type:         subroutineType,
		LocalToUnit:  isLocal,
		IsDefinition: isDefinition,
		ScopeLine:    line,
		Optimized:    false,
	})
	b.scopes = append(b.scopes, sp)
	return sp
}

// CreateLexicalBlock opens a nested scope at line/col (e.g. for an `if`
// or `match` arm's block) and pushes it as the current scope.
func (b *Builder) CreateLexicalBlock(line, col int) llvm.Metadata {
	block := b.di.CreateLexicalBlock(b.currentScope(), llvm.DILexicalBlock{
		File:   b.file,
		Line:   line,
		Column: col,
	})
	b.scopes = append(b.scopes, block)
	return block
}

// PopScope leaves the most recently pushed function or lexical block
// scope, returning to its enclosing scope.
func (b *Builder) PopScope() {
	if len(b.scopes) > 1 {
		b.scopes = b.scopes[:len(b.scopes)-1]
	}
}

// SetLocation attaches a debug location to every subsequent instruction
// emitted through irb, until the next SetLocation call. Called at every
// IR instruction emission site in internal/codegen (spec.md §4.10).
func (b *Builder) SetLocation(line, col int) {
	loc := b.irb.Context().ConstDebugLocation(line, col, b.currentScope(), llvm.Metadata{})
	b.irb.SetCurrentDebugLocation(loc)
}

// CreateAutoVariable registers debug info for a local variable declared
// with `let` (mutable or not), to be paired with EmitDbgDeclare on its
// alloca.
func (b *Builder) CreateAutoVariable(name string, line int, ty tpool.Idx) llvm.Metadata {
	return b.di.CreateAutoVariable(b.currentScope(), llvm.DIAutoVariable{
		Name: name,
		File: b.file,
		Line: line,
		Type: b.resolveDebugType(ty),
	})
}

// CreateParameterVariable registers debug info for a function parameter.
func (b *Builder) CreateParameterVariable(name string, argIndex, line int, ty tpool.Idx) llvm.Metadata {
	return b.di.CreateParameterVariable(b.currentScope(), llvm.DIParameterVariable{
		Name:          name,
		File:          b.file,
		Line:          line,
		Type:          b.resolveDebugType(ty),
		ArgNo:         argIndex,
		AlwaysPreserve: true,
	})
}

// EmitDbgDeclare attaches diVar to a stack slot (alloca) — the case for
// any local that is ever reassigned, since LLVM's SSA form requires
// mutable locals to live in memory (spec.md §4.10).
func (b *Builder) EmitDbgDeclare(storage llvm.Value, diVar llvm.Metadata, line, col int, block llvm.BasicBlock) {
	loc := b.irb.Context().ConstDebugLocation(line, col, b.currentScope(), llvm.Metadata{})
	b.di.InsertDeclareAtEnd(storage, diVar, b.di.CreateExpression(nil), loc, block)
}

// EmitDbgValue attaches diVar directly to an SSA value — the case for
// every immutable `let` binding, which never needs a stack slot.
func (b *Builder) EmitDbgValue(val llvm.Value, diVar llvm.Metadata, line, col int, block llvm.BasicBlock) {
	loc := b.irb.Context().ConstDebugLocation(line, col, b.currentScope(), llvm.Metadata{})
	b.di.InsertValueAtEnd(val, diVar, b.di.CreateExpression(nil), loc, block)
}

// resolveDebugType returns the cached DIType for ty, computing and caching
// one on first use. Unmapped type kinds fall back to a 64-bit integer type
// with a one-time warning (spec.md §4.10: "sound for debugging... if
// imprecise").
func (b *Builder) resolveDebugType(ty tpool.Idx) llvm.Metadata {
	if cached, ok := b.types[ty]; ok {
		return cached
	}
	dt := b.buildDebugType(ty)
	b.types[ty] = dt
	return dt
}

func (b *Builder) buildDebugType(ty tpool.Idx) llvm.Metadata {
	switch b.pool.Tag(ty) {
	case tpool.TagInt:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "int", SizeInBits: 64, Encoding: llvm.DW_ATE_signed})
	case tpool.TagFloat:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "float", SizeInBits: 64, Encoding: llvm.DW_ATE_float})
	case tpool.TagBool:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "bool", SizeInBits: 1, Encoding: llvm.DW_ATE_boolean})
	case tpool.TagChar:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "char", SizeInBits: 32, Encoding: llvm.DW_ATE_unsigned_char})
	case tpool.TagByte:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "byte", SizeInBits: 8, Encoding: llvm.DW_ATE_unsigned})
	case tpool.TagUnit, tpool.TagNever:
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "()", SizeInBits: 0, Encoding: llvm.DW_ATE_unsigned})
	case tpool.TagStr, tpool.TagList, tpool.TagSet, tpool.TagMap, tpool.TagChannel,
		tpool.TagFunction, tpool.TagBorrowed:
		return b.di.CreatePointerType(b.resolveDebugTypeOpaque(), llvm.DIPointerType{SizeInBits: 64})
	default:
		b.warnFallback(ty)
		return b.di.CreateBasicType(llvm.DIBasicType{Name: "i64", SizeInBits: 64, Encoding: llvm.DW_ATE_signed})
	}
}

// resolveDebugTypeOpaque returns (and caches) a nameless pointee type used
// as the target of heap-object pointer types, since oric's runtime headers
// are not themselves a user-visible oric type.
func (b *Builder) resolveDebugTypeOpaque() llvm.Metadata {
	const opaque = tpool.Idx(0xFFFFFFFE) // reserved key distinct from tpool.NONE
	if cached, ok := b.types[opaque]; ok {
		return cached
	}
	dt := b.di.CreateBasicType(llvm.DIBasicType{Name: "void", SizeInBits: 8, Encoding: llvm.DW_ATE_unsigned})
	b.types[opaque] = dt
	return dt
}

func (b *Builder) warnFallback(ty tpool.Idx) {
	if b.warned[ty] {
		return
	}
	b.warned[ty] = true
	if b.onWarn != nil {
		b.onWarn(fmt.Sprintf("debuginfo: no DWARF mapping for type tag %v, falling back to i64", b.pool.Tag(ty)))
	}
}

// Finalize resolves forward references in the accumulated debug info; it
// must be called exactly once, before object-file emission (spec.md
// §4.10).
func (b *Builder) Finalize() {
	b.di.Finalize()
}
