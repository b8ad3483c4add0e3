package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// execute runs the command tree in-process and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fixture returns the absolute path of a runtime test file. Call it before
// chdir.
func fixture(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "pkg", "yane", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFixture(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yane.cli")
	defer teardown()

	src, want := fixture(t, "test.cpp"), fixture(t, "testout.cpp")
	dir := t.TempDir()
	chdir(t, dir)
	out, err := execute(t, "", "run", src)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if out != "..done\n" {
		t.Errorf("expected '..done', got %q", out)
	}
	got, err := os.ReadFile(filepath.Join(dir, "testout.cpp"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	expected, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, expected) {
		t.Error("testout.cpp differs from the expected output")
	}
}

func TestRunDryRun(t *testing.T) {
	src := fixture(t, "test.cpp")
	chdir(t, t.TempDir())
	out, err := execute(t, "", "--dry-run", "run", src)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasPrefix(out, "--- testout.cpp ---\ninline int x_A") {
		t.Errorf("unexpected dry-run output %q", out[:min(len(out), 80)])
	}
	if _, err := os.Stat("testout.cpp"); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}

func TestRunStdin(t *testing.T) {
	chdir(t, t.TempDir())
	out, err := execute(t, "//% (get 'from stdin')\n", "--dry-run", "run")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "from stdin\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunMissingFile(t *testing.T) {
	if _, err := execute(t, "", "run", filepath.Join(t.TempDir(), "nope.cpp")); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestRunEvaluationError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.cpp")
	if err := os.WriteFile(src, []byte("//% (write 'x')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "", "run", src)
	if err == nil || !strings.Contains(err.Error(), "outfile") {
		t.Errorf("expected unbound outfile error, got %v", err)
	}
}

func TestCompileSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gen.cpp")
	dst := filepath.Join(dir, "gen_out.cpp")
	journal := filepath.Join(dir, "journal.db")
	if err := os.WriteFile(src, []byte("//% (write 'generated')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "--journal", journal, "compile", src, dst); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "generated" {
		t.Errorf("expected 'generated', got %q", data)
	}

	out, err := execute(t, "", "--journal", journal, "compile", src, dst)
	if err != nil {
		t.Fatalf("second compile failed: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("expected skip message, got %q", out)
	}

	out, err = execute(t, "", "--journal", journal, "compile", "--force", src, dst)
	if err != nil {
		t.Fatalf("forced compile failed: %v", err)
	}
	if strings.Contains(out, "up to date") {
		t.Error("--force must not skip")
	}
}

func TestParse(t *testing.T) {
	out, err := execute(t, "", "parse", fixture(t, "test.cpp"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.Contains(out, "foreach") || !strings.Contains(out, "Directive") {
		t.Errorf("unexpected parse dump %q", out[:min(len(out), 200)])
	}
}

func TestREPL(t *testing.T) {
	chdir(t, t.TempDir())
	input := "(let l 'a' \\\n'b')\n(get l)\n(nope)\n"
	out, err := execute(t, input, "--dry-run", "repl")
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if !strings.Contains(out, "ab\n") {
		t.Errorf("expected 'ab' in output, got %q", out)
	}
	if !strings.Contains(out, "Error:") {
		t.Errorf("expected error report for unknown form, got %q", out)
	}
}

func TestBadLogLevel(t *testing.T) {
	if _, err := execute(t, "", "--log-level", "loud", "parse", fixture(t, "test.cpp")); err == nil {
		t.Error("expected error for unknown log level")
	}
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup, like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
