package main

import (
	"fmt"
	"os"
)

// cmdCompileProject would read a project manifest and compile every module
// it names. File-system/manifest loading is an external collaborator
// (spec.md §1); nothing in the core resolves a manifest into a module
// list yet, so this stays a stub until that frontend exists.
func cmdCompileProject(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "%s: missing manifest argument\n", red("Error"))
		fmt.Fprintln(os.Stderr, "Usage: oric compile-project <manifest>")
		return exitUsageError
	}
	fmt.Fprintf(os.Stderr, "%s: project manifest loading is not wired into oric yet (external collaborator, spec.md §1)\n", yellow("Warning"))
	return exitCompileError
}

// cmdTest would run every @test-annotated function reachable from path.
// Running a compiled test requires linking against a test harness runtime
// and executing the result, neither of which the core specifies (the
// REPL/tree-walking evaluator is an external collaborator); this stub
// exists so the exit-code and usage contract spec.md §6 promises is in
// place ahead of that runner.
func cmdTest(args []string) int {
	path := "."
	if len(args) >= 1 {
		path = args[0]
	}
	fmt.Fprintf(os.Stderr, "%s: test execution is not wired into oric yet (external collaborator, spec.md §1); nothing to run under %s\n", yellow("Warning"), path)
	return exitCompileError
}

// cmdFormat would reformat a source file in place. The formatter and its
// golden tests are an explicit external collaborator (spec.md §1); oric's
// core has no pretty-printer.
func cmdFormat(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
		fmt.Fprintln(os.Stderr, "Usage: oric format <file>")
		return exitUsageError
	}
	fmt.Fprintf(os.Stderr, "%s: formatting is not wired into oric yet (external collaborator, spec.md §1)\n", yellow("Warning"))
	return exitCompileError
}
