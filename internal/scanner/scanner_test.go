package scanner

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"nickandperla.net/yane/internal/token"
)

func scanString(t *testing.T, input string) []Segment {
	t.Helper()
	segs, err := NewFromString(input, "test.cpp", nil).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return segs
}

func TestLiteralOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yane.scanner")
	defer teardown()

	tests := []string{
		"int x;\nint y;\n",
		"no trailing newline",
		"a\n\nb\n",
	}
	for _, input := range tests {
		segs := scanString(t, input)
		if len(segs) != 1 {
			t.Fatalf("expected 1 segment for %q, got %d", input, len(segs))
		}
		if segs[0].Kind != Literal {
			t.Errorf("expected Literal, got %s", segs[0].Kind)
		}
		if segs[0].Text != input {
			t.Errorf("expected %q, got %q", input, segs[0].Text)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	segs := scanString(t, "")
	if len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
}

func TestCRLFNormalised(t *testing.T) {
	segs := scanString(t, "a\r\nb\r\n")
	if segs[0].Text != "a\nb\n" {
		t.Errorf("expected LF text, got %q", segs[0].Text)
	}
}

func TestSingleLineDirective(t *testing.T) {
	segs := scanString(t, "before\n//% (set outfile 'out.cpp')\nafter\n")
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[1].Kind != Directive {
		t.Fatalf("expected directive, got %s", segs[1].Kind)
	}
	if len(segs[1].Parts) != 1 || segs[1].Parts[0].Kind != Code {
		t.Fatalf("expected one code part, got %+v", segs[1].Parts)
	}
	if segs[1].Parts[0].Text != " (set outfile 'out.cpp')\n" {
		t.Errorf("unexpected code %q", segs[1].Parts[0].Text)
	}
	if segs[1].Line != 2 {
		t.Errorf("expected line 2, got %d", segs[1].Line)
	}
	if segs[1].Where != "test.cpp:2" {
		t.Errorf("expected location test.cpp:2, got %s", segs[1].Where)
	}
	if segs[2].Text != "after\n" {
		t.Errorf("unexpected trailing literal %q", segs[2].Text)
	}
}

func TestMultiLineDirectiveCapturesRaw(t *testing.T) {
	input := "//% (write\n" +
		"void f() { g(); }\n" +
		"\tint x;\n" +
		"//% )\n"
	segs := scanString(t, input)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	parts := segs[0].Parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[1].Kind != Raw {
		t.Fatalf("expected raw middle part")
	}
	if parts[1].Text != "void f() { g(); }\n\tint x;\n" {
		t.Errorf("raw block not verbatim: %q", parts[1].Text)
	}
	if parts[1].Line != 2 {
		t.Errorf("expected raw block at line 2, got %d", parts[1].Line)
	}
}

func TestBracketsInsideQuotesIgnored(t *testing.T) {
	segs := scanString(t, "//% (let x '(((')\nlit\n")
	if len(segs) != 2 {
		t.Fatalf("expected directive and literal, got %d segments", len(segs))
	}
	if segs[1].Kind != Literal {
		t.Errorf("expected literal after balanced directive")
	}
}

func TestAlternativeBrackets(t *testing.T) {
	segs := scanString(t, "//% {get 'a'\n//% }\n")
	if len(segs) != 1 || len(segs[0].Parts) != 2 {
		t.Fatalf("expected one directive with two parts, got %+v", segs)
	}
}

func TestMultipleFormsOneLine(t *testing.T) {
	segs := scanString(t, "//% (let x 'a')(let y 'b')\n")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
}

func TestUnterminatedDirective(t *testing.T) {
	_, err := NewFromString("x\n//% (write\nbody\n", "host.cpp", nil).Scan()
	var se *ScanError
	if !errors.As(err, &se) {
		t.Fatalf("expected ScanError, got %v", err)
	}
	if se.Line != 2 || se.Where != "host.cpp:2" {
		t.Errorf("expected error at host.cpp:2, got %s (line %d)", se.Where, se.Line)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := NewFromString("//% 'abc\n", "", nil).Scan()
	var se *ScanError
	if !errors.As(err, &se) {
		t.Fatalf("expected ScanError, got %v", err)
	}
}

func TestCustomMarker(t *testing.T) {
	syn := token.DefaultSyntax().WithMarker("#%")
	segs, err := NewFromString("//% not a directive\n#% (get 'x')\n", "", syn).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 || segs[0].Kind != Literal || segs[1].Kind != Directive {
		t.Fatalf("unexpected segments %+v", segs)
	}
}

func TestSource(t *testing.T) {
	segs := scanString(t, "//% (write\nabc\n//% )\n")
	if got := segs[0].Source(); got != " (write\nabc\n )\n" {
		t.Errorf("unexpected source %q", got)
	}
}
