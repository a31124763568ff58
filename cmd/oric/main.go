// Command oric is the thin CLI that drives the core pipeline. Lexing,
// parsing, project-manifest loading, the REPL, and the formatter remain
// external collaborators (spec.md §1, §6); this binary only wires flags to
// pipeline.CompileModule and renders what comes back.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Exit codes, spec.md §6.
const (
	exitSuccess      = 0
	exitCompileError = 1
	exitLinkError    = 2
	exitUsageError   = 64
)

func init() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("oric", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		versionFlag = fs.Bool("version", false, "Print version information")
		helpFlag    = fs.Bool("help", false, "Show help")
		triple      = fs.String("triple", "", "target triple (defaults to x86_64-unknown-linux-gnu)")
		debugInfo   = fs.Bool("g", false, "emit DWARF debug info")
		cacheDir    = fs.String("cache-dir", "", "incremental cache directory (disabled if empty)")
		objDir      = fs.String("obj-dir", "", "directory for .o files (defaults alongside the source)")
		link        = fs.Bool("link", false, "link the compiled object into an executable")
		out         = fs.String("o", "", "linked output path (requires -link)")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsageError
	}

	if *versionFlag {
		printVersion()
		return exitSuccess
	}
	if *helpFlag || fs.NArg() == 0 {
		printHelp()
		return exitSuccess
	}

	command := fs.Arg(0)
	rest := fs.Args()[1:]

	switch command {
	case "compile":
		return cmdCompile(rest, cliFlags{triple: *triple, debugInfo: *debugInfo, cacheDir: *cacheDir, objDir: *objDir, link: *link, out: *out})
	case "compile-project":
		return cmdCompileProject(rest)
	case "test":
		return cmdTest(rest)
	case "format":
		return cmdFormat(rest)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		return exitUsageError
	}
}

type cliFlags struct {
	triple    string
	debugInfo bool
	cacheDir  string
	objDir    string
	link      bool
	out       string
}

func printVersion() {
	fmt.Printf("oric %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("oric - the ori/sigil-lang AOT compiler core"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  oric <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>            Compile a single module to an object file\n", cyan("compile"))
	fmt.Printf("  %s <manifest>  Compile every module named by a project manifest\n", cyan("compile-project"))
	fmt.Printf("  %s [path]               Run @test functions reachable from path\n", cyan("test"))
	fmt.Printf("  %s <file>             Reformat a source file in place\n", cyan("format"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version        Print version information")
	fmt.Println("  --help           Show this help message")
	fmt.Println("  --triple <t>     Target triple (default x86_64-unknown-linux-gnu)")
	fmt.Println("  -g               Emit DWARF debug info")
	fmt.Println("  --cache-dir <d>  Enable incremental caching under d")
	fmt.Println("  --obj-dir <d>    Write .o files under d")
	fmt.Println("  -link            Link the compiled object into an executable")
	fmt.Println("  -o <path>        Linked output path (requires -link)")
	fmt.Println()
	fmt.Printf("Exit codes: %s success, %s compile error, %s link error, %s usage error\n",
		green("0"), red("1"), red("2"), yellow("64"))
}
