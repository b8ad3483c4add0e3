// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner splits a host file into literal text and directive
// segments. Directive lines start with a marker; a directive stays open until
// its brackets balance, and host lines met while it is open are captured
// verbatim.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nickwells/location.mod/location"
	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/token"
)

// tracer traces with key 'yane.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("yane.scanner")
}

// Kind tags a segment.
type Kind int

const (
	Literal Kind = iota
	Directive
)

func (k Kind) String() string {
	if k == Directive {
		return "Directive"
	}
	return "Literal"
}

// PartKind tags a piece of a directive segment.
type PartKind int

const (
	Code PartKind = iota // directive-line text, marker stripped
	Raw                  // host lines captured while the directive is open
)

// Part is one piece of a directive segment.
type Part struct {
	Kind PartKind
	Text string
	Line int
}

// Segment is a run of literal text or one directive.
type Segment struct {
	Kind  Kind
	Text  string // literal text; empty for directives
	Parts []Part // directive pieces in source order
	Line  int    // first line, 1-based
	Where string // "name:line" of the first line
}

// Source reconstructs the directive text for diagnostics.
func (s Segment) Source() string {
	if s.Kind == Literal {
		return s.Text
	}
	var sb strings.Builder
	for _, p := range s.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// ScanError reports a directive whose brackets never balance.
type ScanError struct {
	Where string
	Line  int
	Msg   string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error at %s: %s", e.Where, e.Msg)
}

// Scanner segments host text line by line.
type Scanner struct {
	reader *bufio.Reader
	syntax *token.Syntax
	loc    *location.L
	line   int // current line number (1-based)

	depth int  // open brackets of the current directive
	quote rune // awaited closing quote, 0 outside strings
}

// New creates a Scanner reading from r. name is used in locations.
func New(r io.Reader, name string, syntax *token.Syntax) *Scanner {
	if syntax == nil {
		syntax = token.DefaultSyntax()
	}
	if name == "" {
		name = "<input>"
	}
	return &Scanner{
		reader: bufio.NewReader(r),
		syntax: syntax,
		loc:    location.New(name),
	}
}

// NewFromString creates a Scanner over a string.
func NewFromString(s, name string, syntax *token.Syntax) *Scanner {
	return New(strings.NewReader(s), name, syntax)
}

// Line returns the number of lines consumed so far.
func (s *Scanner) Line() int {
	return s.line
}

// readLine returns the next line without its terminator. terminated is false
// for a final line that had no newline.
func (s *Scanner) readLine() (line string, terminated bool, err error) {
	text, err := s.reader.ReadString('\n')
	if err == io.EOF {
		if text == "" {
			return "", false, io.EOF
		}
		err = nil
	} else if err != nil {
		return "", false, err
	} else {
		terminated = true
	}
	s.line++
	s.loc.Incr()
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, terminated, nil
}

// Scan reads the whole input and returns its segments in source order.
func (s *Scanner) Scan() ([]Segment, error) {
	var (
		segs    []Segment
		literal strings.Builder
		litLine int
		litLoc  string
		cur     *Segment
	)

	flushLiteral := func() {
		if litLine == 0 {
			return
		}
		segs = append(segs, Segment{Kind: Literal, Text: literal.String(), Line: litLine, Where: litLoc})
		tracer().Debugf("literal segment at %s (%d bytes)", litLoc, literal.Len())
		literal.Reset()
		litLine = 0
	}

	for {
		line, terminated, err := s.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if strings.HasPrefix(line, s.syntax.Marker) {
			code := line[len(s.syntax.Marker):]
			if cur == nil {
				flushLiteral()
				cur = &Segment{Kind: Directive, Line: s.line, Where: s.loc.String()}
				s.depth, s.quote = 0, 0
			}
			cur.Parts = append(cur.Parts, Part{Kind: Code, Text: code + "\n", Line: s.line})
			s.balance(code)
			if s.depth <= 0 && s.quote == 0 {
				tracer().Debugf("directive segment at %s (%d parts)", cur.Where, len(cur.Parts))
				segs = append(segs, *cur)
				cur = nil
			}
			continue
		}

		if cur != nil {
			// Host text inside an open directive: one raw part per block.
			n := len(cur.Parts)
			if n > 0 && cur.Parts[n-1].Kind == Raw {
				cur.Parts[n-1].Text += line + "\n"
			} else {
				cur.Parts = append(cur.Parts, Part{Kind: Raw, Text: line + "\n", Line: s.line})
			}
			continue
		}

		if litLine == 0 {
			litLine = s.line
			litLoc = s.loc.String()
		}
		literal.WriteString(line)
		if terminated {
			literal.WriteByte('\n')
		}
	}

	if cur != nil {
		msg := "directive is not closed before end of input"
		if s.quote != 0 {
			msg = "string is not closed before end of input"
		}
		return nil, &ScanError{Where: cur.Where, Line: cur.Line, Msg: msg}
	}
	flushLiteral()
	return segs, nil
}

// balance updates bracket depth and quote state with one line of code.
// Bracket kinds are not matched here; the parser reports mismatches.
func (s *Scanner) balance(code string) {
	for _, r := range code {
		if s.quote != 0 {
			if r == s.quote {
				s.quote = 0
			}
			continue
		}
		if c, ok := s.syntax.QuoteClose(r); ok {
			s.quote = c
			continue
		}
		switch {
		case s.syntax.IsOpen(r):
			s.depth++
		case s.syntax.IsClose(r):
			s.depth--
		}
	}
}
