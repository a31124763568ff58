package linker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSelectFlavorPicksGccForLinuxAndDarwin(t *testing.T) {
	for _, os := range []string{"linux", "darwin"} {
		f, err := SelectFlavor(os, "", "")
		if err != nil {
			t.Fatalf("SelectFlavor(%s): %v", os, err)
		}
		if f != Gcc {
			t.Fatalf("expected Gcc for %s, got %v", os, f)
		}
	}
}

func TestSelectFlavorPicksMsvcForWindowsMsvc(t *testing.T) {
	f, err := SelectFlavor("windows", "msvc", "")
	if err != nil {
		t.Fatalf("SelectFlavor: %v", err)
	}
	if f != Msvc {
		t.Fatalf("expected Msvc, got %v", f)
	}
}

func TestSelectFlavorHonorsFuseLdOverride(t *testing.T) {
	f, err := SelectFlavor("linux", "", "lld")
	if err != nil {
		t.Fatalf("SelectFlavor: %v", err)
	}
	if f != Lld {
		t.Fatalf("expected Lld override to win, got %v", f)
	}
}

func TestExtensionTableMatchesSpec(t *testing.T) {
	cases := []struct {
		kind   OutputKind
		format ObjectFormat
		want   string
	}{
		{Executable, ELF, ""},
		{Executable, PE, ".exe"},
		{SharedLibrary, ELF, ".so"},
		{SharedLibrary, MachO, ".dylib"},
		{SharedLibrary, PE, ".dll"},
		{StaticLibrary, ELF, ".a"},
		{StaticLibrary, PE, ".lib"},
	}
	for _, c := range cases {
		if got := Extension(c.kind, c.format); got != c.want {
			t.Errorf("Extension(%v, %v) = %q, want %q", c.kind, c.format, got, c.want)
		}
	}
}

func TestLinkReturnsLinkerNotFoundWhenBinaryMissing(t *testing.T) {
	d := &Driver{
		lookPath: func(string) (string, error) { return "", errNotFound },
		run:      func(string, []string) (string, string, int, error) { t.Fatal("run should not be called"); return "", "", 0, nil },
	}
	cfg := Config{TargetOS: "linux", ObjectFiles: []string{"a.o"}, OutputPath: "out"}
	err := d.Link(cfg)
	if _, ok := err.(*LinkerNotFound); !ok {
		t.Fatalf("expected *LinkerNotFound, got %T: %v", err, err)
	}
}

func TestLinkReturnsLinkFailedOnNonZeroExit(t *testing.T) {
	d := &Driver{
		lookPath: func(string) (string, error) { return "/usr/bin/cc", nil },
		run: func(string, []string) (string, string, int, error) {
			return "", "undefined reference to `foo'", 1, nil
		},
	}
	cfg := Config{TargetOS: "linux", ObjectFiles: []string{"a.o"}, OutputPath: "out"}
	err := d.Link(cfg)
	lf, ok := err.(*LinkFailed)
	if !ok {
		t.Fatalf("expected *LinkFailed, got %T: %v", err, err)
	}
	if lf.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", lf.ExitCode)
	}
}

func TestLinkRetriesOnceOnRecognizedUnknownOption(t *testing.T) {
	calls := 0
	out := filepath.Join(t.TempDir(), "out")
	d := &Driver{
		lookPath: func(string) (string, error) { return "/usr/bin/cc", nil },
		run: func(_ string, args []string) (string, string, int, error) {
			calls++
			if calls == 1 {
				if !containsArg(args, "-no-pie") {
					t.Fatalf("expected first attempt to include -no-pie, got %v", args)
				}
				return "", "cc: error: unknown option '-no-pie'", 1, nil
			}
			if containsArg(args, "-no-pie") {
				t.Fatalf("expected retry to have stripped -no-pie, got %v", args)
			}
			// a successful link leaves the output file behind
			if err := os.WriteFile(out, nil, 0o644); err != nil {
				t.Fatalf("writing stub output: %v", err)
			}
			return "", "", 0, nil
		},
	}
	cfg := Config{TargetOS: "linux", ObjectFiles: []string{"a.o"}, OutputPath: out, ExtraArgs: []string{"-no-pie"}}
	if err := d.Link(cfg); err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 invocations, got %d", calls)
	}
}

func TestLinkDoesNotRetryUnrelatedFailures(t *testing.T) {
	calls := 0
	d := &Driver{
		lookPath: func(string) (string, error) { return "/usr/bin/cc", nil },
		run: func(string, []string) (string, string, int, error) {
			calls++
			return "", "undefined reference to `bar'", 1, nil
		},
	}
	cfg := Config{TargetOS: "linux", ObjectFiles: []string{"a.o"}, OutputPath: "out"}
	err := d.Link(cfg)
	if _, ok := err.(*LinkFailed); !ok {
		t.Fatalf("expected *LinkFailed, got %T", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry for an unrelated failure, got %d calls", calls)
	}
}

func TestLinkRejectsEmptyObjectFiles(t *testing.T) {
	d := NewDriver()
	err := d.Link(Config{TargetOS: "linux", OutputPath: "out"})
	if _, ok := err.(*InvalidConfig); !ok {
		t.Fatalf("expected *InvalidConfig, got %T: %v", err, err)
	}
}

func TestApplyResponseFileFallsBackOverLimit(t *testing.T) {
	d := NewDriver()
	longArgs := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		longArgs = append(longArgs, strings.Repeat("x", 50))
	}
	args, cleanup, err := d.applyResponseFile("cc", longArgs)
	if err != nil {
		t.Fatalf("applyResponseFile: %v", err)
	}
	defer cleanup()
	if len(args) != 1 || !strings.HasPrefix(args[0], "@") {
		t.Fatalf("expected a single @file argument, got %v", args)
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

var errNotFound = &LinkerNotFound{Name: "cc"}
