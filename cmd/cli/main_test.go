package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/oarkflow/rustscript"
)

func runApp(t *testing.T, args ...string) (string, int) {
	t.Helper()
	code := 0
	prev := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = prev })
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"rsc"}, args...))
	if err != nil {
		if code == 0 {
			code = 1
		}
		errOut.WriteString(err.Error())
	}
	return out.String() + errOut.String(), code
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunPrintsProgramOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "main.rs", "let greet = fn(n) => println(\"hi \" + n)\ngreet(\"bob\")\n")
	out, code := runApp(t, "run", script)
	if code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, out)
	}
	if !strings.Contains(out, "hi bob\n") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "calc.rs", "let x = 2\nx * 21\n")
	out, code := runApp(t, "run", "--json", script)
	if code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, out)
	}
	if !strings.Contains(out, `"values":["()","42"]`) {
		t.Fatalf("unexpected json %q", out)
	}
}

func TestRunReportsErrors(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "bad.rs", "let x = 1\nx + true\n")
	out, code := runApp(t, "run", "--json", script)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, `"code":"TYPE_ERROR"`) {
		t.Fatalf("expected TYPE_ERROR in %q", out)
	}
}

func TestRunIsolatesFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.rs", "let base = 40\nprintln(base + 2)\n")
	b := writeScript(t, dir, "b.rs", "println(base + 2)\n")
	out, code := runApp(t, "run", a, b)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d: %s", code, out)
	}
	if !strings.Contains(out, "42\n") {
		t.Fatalf("expected the first file to run, got %q", out)
	}
	if !strings.Contains(out, b+": UNDEFINED_VARIABLE") {
		t.Fatalf("bindings must not leak into the next file, got %q", out)
	}
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	good := writeScript(t, dir, "good.rs", "let f = fn(x) => x + 1\n")
	bad := writeScript(t, dir, "bad.rs", "let f = fn(x) => (x + 1\n")
	out, code := runApp(t, "lint", good, bad)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d: %s", code, out)
	}
	if !strings.Contains(out, "Syntax error in '"+bad+"'") || !strings.Contains(out, "1 of 2 file(s) passed.") {
		t.Fatalf("unexpected lint output %q", out)
	}
}

func TestMissingFile(t *testing.T) {
	out, code := runApp(t, "run", filepath.Join(t.TempDir(), "nope.rs"))
	if code != 1 || !strings.Contains(out, "does not exist") {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestVersion(t *testing.T) {
	out, code := runApp(t, "version")
	if code != 0 || strings.TrimSpace(out) != "rsc "+version {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestRunContinuesAfterFailingFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeScript(t, dir, "bad.rs", "println(\"first\")\nmissing + 1\n")
	good := writeScript(t, dir, "good.rs", "println(\"second\")\n")
	out, code := runApp(t, "run", bad, good)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d: %s", code, out)
	}
	if !strings.Contains(out, "first\n") || !strings.Contains(out, "second\n") {
		t.Fatalf("expected both files to run, got %q", out)
	}
	if !strings.Contains(out, bad+": UNDEFINED_VARIABLE at 2:1") {
		t.Fatalf("expected the failing file to be reported, got %q", out)
	}
}

func TestCompleteWord(t *testing.T) {
	in, err := rustscript.New(rustscript.WithStdout(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	if _, err := in.Evaluate("let printer = 1", in.Global()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	head, candidates, tail := completeWord(in, "x + prin(1)", 8)
	if head != "x + " || tail != "(1)" {
		t.Fatalf("unexpected split %q %q", head, tail)
	}
	want := []string{"print", "printer", "println"}
	if strings.Join(candidates, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, candidates)
	}
	if _, candidates, _ := completeWord(in, "1 + ", 4); len(candidates) != 0 {
		t.Fatalf("expected no candidates without a prefix, got %v", candidates)
	}
}
