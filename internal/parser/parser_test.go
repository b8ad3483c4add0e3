package parser

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"nickandperla.net/yane/internal/scanner"
	"nickandperla.net/yane/internal/value"
)

func parseOne(t *testing.T, code string) value.List {
	t.Helper()
	forms, err := ParseString(code, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected 1 form, got %d", len(forms))
	}
	l, ok := forms[0].(value.List)
	if !ok {
		t.Fatalf("expected list, got %T", forms[0])
	}
	return l
}

func TestParseAtoms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yane.parser")
	defer teardown()

	l := parseOne(t, "(let list 'x_A' \"x B\" 「日本語」 『も』 42 -5)")
	if l.Len() != 8 {
		t.Fatalf("expected 8 items, got %d", l.Len())
	}
	if s, ok := l.Items[0].(value.Symbol); !ok || s.Name != "let" {
		t.Errorf("expected symbol let, got %#v", l.Items[0])
	}
	if s, ok := l.Items[1].(value.Symbol); !ok || s.Name != "list" {
		t.Errorf("expected symbol list, got %#v", l.Items[1])
	}
	expected := []string{"x_A", "x B", "日本語", "も", "42", "-5"}
	for i, want := range expected {
		s, ok := l.Items[i+2].(value.String)
		if !ok {
			t.Errorf("item %d: expected string, got %T", i+2, l.Items[i+2])
			continue
		}
		if s.Value != want {
			t.Errorf("item %d: expected %q, got %q", i+2, want, s.Value)
		}
	}
}

func TestParseNested(t *testing.T) {
	l := parseOne(t, "(replace (replace block 'XXXX' E) 'YYYY' e)")
	inner, ok := l.Items[1].(value.List)
	if !ok {
		t.Fatalf("expected nested list, got %T", l.Items[1])
	}
	if inner.Len() != 4 {
		t.Errorf("expected 4 inner items, got %d", inner.Len())
	}
	if got := value.Print(l); got != "(replace (replace block 'XXXX' E) 'YYYY' e)" {
		t.Errorf("round trip mismatch: %s", got)
	}
}

func TestParseAlternativeBrackets(t *testing.T) {
	l := parseOne(t, "{print 'ABC' [get y] 《a》}")
	if l.Len() != 4 {
		t.Fatalf("expected 4 items, got %d", l.Len())
	}
}

func TestParseMultipleForms(t *testing.T) {
	forms, err := ParseString("(let x 'a') (let y 'b')", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 2 {
		t.Errorf("expected 2 forms, got %d", len(forms))
	}
}

func TestParseStringKeepsBrackets(t *testing.T) {
	l := parseOne(t, "(get '(not a list)')")
	if s := l.Items[1].(value.String); s.Value != "(not a list)" {
		t.Errorf("unexpected string %q", s.Value)
	}
}

func TestParseRawBlock(t *testing.T) {
	seg := scanner.Segment{
		Kind:  scanner.Directive,
		Line:  1,
		Where: "t.cpp:1",
		Parts: []scanner.Part{
			{Kind: scanner.Code, Text: " (write\n", Line: 1},
			{Kind: scanner.Raw, Text: "void f() { (x; }\n", Line: 2},
			{Kind: scanner.Code, Text: " )\n", Line: 3},
		},
	}
	forms, err := Parse(seg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := forms[0].(value.List)
	if l.Len() != 2 {
		t.Fatalf("expected (write RAW), got %s", value.Print(l))
	}
	raw, ok := l.Items[1].(value.String)
	if !ok || raw.Value != "void f() { (x; }\n" {
		t.Errorf("raw block not verbatim: %#v", l.Items[1])
	}
	if raw.Pos.Line != 2 {
		t.Errorf("expected raw position line 2, got %d", raw.Pos.Line)
	}
}

func TestParseStringAcrossLines(t *testing.T) {
	seg := scanner.Segment{
		Kind:  scanner.Directive,
		Line:  1,
		Where: "t.cpp:1",
		Parts: []scanner.Part{
			{Kind: scanner.Code, Text: " (get 'a\n", Line: 1},
			{Kind: scanner.Code, Text: "b')\n", Line: 2},
		},
	}
	forms, err := Parse(seg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := forms[0].(value.List).Items[1].(value.String); s.Value != "a\nb" {
		t.Errorf("unexpected string %q", s.Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"extra closer", "(get 'a'))"},
		{"mismatched closer", "(get 'a']"},
		{"unclosed list", "(get (get 'a')"},
		{"unterminated string", "(get 'abc)"},
		{"lone closer", ")"},
		{"stray closing quote", "(write 」)"},
		{"stray closing double quote", "(get 'a' 』 'b')"},
	}
	for _, tt := range tests {
		_, err := ParseString(tt.code, "bad.cpp", nil)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: expected ParseError, got %v", tt.name, err)
			continue
		}
		if pe.Where != "bad.cpp:1" {
			t.Errorf("%s: expected location bad.cpp:1, got %s", tt.name, pe.Where)
		}
	}
}

func TestFullWidthSpaceSeparatesAtoms(t *testing.T) {
	forms, err := ParseString("(let\u3000koma\u3000'PAWN')", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected one form, got %d", len(forms))
	}
	l, ok := forms[0].(value.List)
	if !ok || len(l.Items) != 3 {
		t.Fatalf("expected a list of three items, got %s", value.Print(forms[0]))
	}
	if sym, ok := l.Items[1].(value.Symbol); !ok || sym.Name != "koma" {
		t.Errorf("expected symbol koma, got %s", value.Print(l.Items[1]))
	}
}

func TestParseEmpty(t *testing.T) {
	forms, err := ParseString("   \n", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 0 {
		t.Errorf("expected no forms, got %d", len(forms))
	}
}
