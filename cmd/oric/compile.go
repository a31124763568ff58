package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/width"

	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/linker"
	"github.com/ori-lang/oric/internal/pipeline"
	"github.com/ori-lang/oric/internal/ptree"
)

func cmdCompile(args []string, flags cliFlags) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
		fmt.Fprintln(os.Stderr, "Usage: oric compile <file>")
		return exitUsageError
	}
	if flags.out != "" && !flags.link {
		fmt.Fprintf(os.Stderr, "%s: -o requires -link\n", red("Error"))
		return exitUsageError
	}

	path := args[0]
	names := ident.New()
	mod, err := loadModule(path, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return exitCompileError
	}

	cfg := pipeline.Config{
		Triple:        flags.triple,
		EmitDebugInfo: flags.debugInfo,
		CacheDir:      flags.cacheDir,
		ObjectDir:     flags.objDir,
		OricVersion:   Version,
		Link:          flags.link,
	}
	if flags.link {
		cfg.LinkerConfig = linker.Config{
			TargetOS:   hostTargetOS(flags.triple),
			OutputPath: flags.out,
			Kind:       linker.Executable,
		}
	}

	return compileModule(cfg, names, pipeline.Source{Path: path, Module: mod}, os.Stdout, os.Stderr)
}

// loadModule reads path and hands it to the surface parser. The lexer and
// recursive-descent grammar that produce a ptree.Module are an external
// collaborator (spec.md §1); oric's core only consumes their output, so
// until that frontend is wired in, this reports the file-system error it
// can detect and otherwise refuses to guess at syntax.
func loadModule(path string, names *ident.Interner) (*ptree.Module, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return nil, fmt.Errorf("%s: no surface parser wired into this binary yet; oric's core expects a *ptree.Module from an external frontend", path)
}

// hostTargetOS maps a target triple's OS component to the linker's TargetOS
// field, defaulting to linux when triple is empty (matching Config.triple's
// default in internal/pipeline).
func hostTargetOS(triple string) string {
	if triple == "" {
		return "linux"
	}
	switch {
	case strings.Contains(triple, "darwin") || strings.Contains(triple, "macos"):
		return "darwin"
	case strings.Contains(triple, "windows") || strings.Contains(triple, "msvc") || strings.Contains(triple, "mingw"):
		return "windows"
	default:
		return "linux"
	}
}

// compileModule runs cfg/src through the pipeline and renders the result;
// split out from cmdCompile so it can be exercised directly with a
// hand-built Source in tests, bypassing the file-system/frontend boundary.
func compileModule(cfg pipeline.Config, names *ident.Interner, src pipeline.Source, stdout, stderr io.Writer) int {
	result, err := pipeline.CompileModule(cfg, names, src)
	renderDiagnostics(stderr, result.Diagnostics)
	if err != nil {
		if cfg.Link {
			return exitLinkError
		}
		return exitCompileError
	}

	fmt.Fprintf(stdout, "%s %s -> %s\n", green("compiled"), src.Path, result.Artifacts.ObjectPath)
	for phase, ms := range result.PhaseTimings {
		fmt.Fprintf(stdout, "  %-8s %dms\n", phase, ms)
	}
	if cfg.CacheDir != "" {
		fmt.Fprintf(stdout, "  cache: %d hit(s), %d miss(es)\n", result.CacheHits, result.CacheMisses)
	}
	return exitSuccess
}

// renderDiagnostics prints diags to w, right-padding each "severity[code]"
// prefix to the widest one in the batch so the messages that follow line
// up in a column, the way a terminal would actually lay them out.
func renderDiagnostics(w io.Writer, diags []*diag.Diagnostic) {
	prefixes := make([]string, len(diags))
	maxWidth := 0
	for i, d := range diags {
		prefixes[i] = fmt.Sprintf("%s[%s]:", d.Severity, d.Code)
		if cw := displayWidth(prefixes[i]); cw > maxWidth {
			maxWidth = cw
		}
	}
	for i, d := range diags {
		var colored string
		switch d.Severity {
		case diag.SeverityError, diag.SeverityFatal:
			colored = red(prefixes[i])
		case diag.SeverityWarning:
			colored = yellow(prefixes[i])
		default:
			colored = cyan(prefixes[i])
		}
		pad := strings.Repeat(" ", maxWidth-displayWidth(prefixes[i])+1)
		fmt.Fprintf(w, "%s%s%s\n", colored, pad, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s\n", bold("note:"), n)
		}
	}
}

// displayWidth sums the terminal column width of s, counting east-Asian
// wide/fullwidth runes as 2 columns the way a real terminal renders them,
// so a diagnostic code or identifier with wide runes doesn't throw off the
// column alignment above the way a byte- or rune-count would.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}
