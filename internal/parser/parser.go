// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser reads the S-expressions of a directive segment into values.
package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/stacks/linkedliststack"
	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/scanner"
	"nickandperla.net/yane/internal/token"
	"nickandperla.net/yane/internal/value"
)

// tracer traces with key 'yane.parser'.
func tracer() tracing.Trace {
	return tracing.Select("yane.parser")
}

// ParseError reports a malformed directive.
type ParseError struct {
	Where   string // location of the directive
	Line    int
	Column  int
	Msg     string
	Segment string // directive source
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s (line %d, column %d): %s", e.Where, e.Line, e.Column, e.Msg)
}

// item is a lexed token.
type item struct {
	tok  token.Token
	text string
	r    rune // bracket rune for LPAREN/RPAREN
	line int
	col  int
}

// lexer walks the parts of one directive segment.
type lexer struct {
	syntax *token.Syntax
	seg    scanner.Segment
	pi     int    // current part
	runes  []rune // runes of the current code part
	ri     int    // position in runes
}

func newLexer(seg scanner.Segment, syntax *token.Syntax) *lexer {
	l := &lexer{syntax: syntax, seg: seg}
	l.load()
	return l
}

// load prepares the runes of the current part.
func (l *lexer) load() {
	l.ri = 0
	l.runes = nil
	if l.pi < len(l.seg.Parts) && l.seg.Parts[l.pi].Kind == scanner.Code {
		l.runes = []rune(l.seg.Parts[l.pi].Text)
	}
}

func (l *lexer) advance() {
	l.pi++
	l.load()
}

func (l *lexer) errorf(line, col int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Where:   l.seg.Where,
		Line:    line,
		Column:  col,
		Msg:     fmt.Sprintf(format, args...),
		Segment: l.seg.Source(),
	}
}

// next returns the next token of the segment.
func (l *lexer) next() (item, error) {
	for {
		if l.pi >= len(l.seg.Parts) {
			return item{tok: token.EOF, line: l.seg.Line}, nil
		}
		part := l.seg.Parts[l.pi]
		if part.Kind == scanner.Raw {
			l.advance()
			return item{tok: token.RAW, text: part.Text, line: part.Line, col: 1}, nil
		}
		for l.ri < len(l.runes) && unicode.IsSpace(l.runes[l.ri]) {
			l.ri++
		}
		if l.ri >= len(l.runes) {
			l.advance()
			continue
		}

		r := l.runes[l.ri]
		line, col := part.Line, l.ri+1
		switch {
		case l.syntax.IsOpen(r):
			l.ri++
			return item{tok: token.LPAREN, r: r, line: line, col: col}, nil
		case l.syntax.IsClose(r):
			l.ri++
			return item{tok: token.RPAREN, r: r, line: line, col: col}, nil
		}
		if shut, ok := l.syntax.QuoteClose(r); ok {
			l.ri++
			text, err := l.quoted(shut)
			if err != nil {
				return item{}, l.errorf(line, col, "%s", err.Error())
			}
			return item{tok: token.STRING, text: text, line: line, col: col}, nil
		}

		start := l.ri
		for l.ri < len(l.runes) && !l.syntax.IsDelimiter(l.runes[l.ri]) {
			l.ri++
		}
		if l.ri == start {
			// a closing quote with no opener
			l.ri++
			return item{}, l.errorf(line, col, "unexpected %q", r)
		}
		atom := string(l.runes[start:l.ri])
		if token.IsLiteralAtom(atom) {
			return item{tok: token.STRING, text: atom, line: line, col: col}, nil
		}
		return item{tok: token.SYMBOL, text: atom, line: line, col: col}, nil
	}
}

// quoted collects text up to the closing quote. Strings may continue over
// further directive lines; a raw block met inside a string becomes part of it.
func (l *lexer) quoted(shut rune) (string, error) {
	var sb strings.Builder
	for {
		if l.pi >= len(l.seg.Parts) {
			return "", fmt.Errorf("string is not closed before end of directive")
		}
		if l.seg.Parts[l.pi].Kind == scanner.Raw {
			sb.WriteString(l.seg.Parts[l.pi].Text)
			l.advance()
			continue
		}
		for l.ri < len(l.runes) {
			r := l.runes[l.ri]
			l.ri++
			if r == shut {
				return sb.String(), nil
			}
			sb.WriteRune(r)
		}
		l.advance()
	}
}

// frame is an open list on the bracket stack.
type frame struct {
	open  rune
	items []value.Value
	pos   value.Pos
}

// Parse reads all top-level forms of a directive segment. A nil syntax uses
// the default delimiters.
func Parse(seg scanner.Segment, syntax *token.Syntax) ([]value.Value, error) {
	if syntax == nil {
		syntax = token.DefaultSyntax()
	}
	lex := newLexer(seg, syntax)
	stack := linkedliststack.New()
	var forms []value.Value

	add := func(v value.Value) {
		if top, ok := stack.Peek(); ok {
			f := top.(*frame)
			f.items = append(f.items, v)
			return
		}
		forms = append(forms, v)
	}

	for {
		it, err := lex.next()
		if err != nil {
			return nil, err
		}
		pos := value.Pos{Line: it.line, Offset: it.col, Where: seg.Where}

		switch it.tok {
		case token.EOF:
			if top, ok := stack.Peek(); ok {
				f := top.(*frame)
				return nil, lex.errorf(f.pos.Line, f.pos.Offset, "list opened with %q is not closed", f.open)
			}
			tracer().Debugf("parsed %d form(s) at %s", len(forms), seg.Where)
			return forms, nil

		case token.LPAREN:
			stack.Push(&frame{open: it.r, pos: pos})

		case token.RPAREN:
			top, ok := stack.Pop()
			if !ok {
				return nil, lex.errorf(it.line, it.col, "unexpected closing bracket %q", it.r)
			}
			f := top.(*frame)
			if syntax.Opener(it.r) != f.open {
				return nil, lex.errorf(it.line, it.col, "closing bracket %q does not match %q opened at line %d",
					it.r, f.open, f.pos.Line)
			}
			add(value.List{Items: f.items, Pos: f.pos})

		case token.SYMBOL:
			add(value.Symbol{Name: it.text, Pos: pos})

		case token.STRING, token.RAW:
			add(value.String{Value: it.text, Pos: pos})
		}
	}
}

// ParseString reads forms from directive code held in a string, as if it
// were a single directive line. name is used in locations.
func ParseString(code, name string, syntax *token.Syntax) ([]value.Value, error) {
	if name == "" {
		name = "<string>"
	}
	seg := scanner.Segment{
		Kind:  scanner.Directive,
		Parts: []scanner.Part{{Kind: scanner.Code, Text: code, Line: 1}},
		Line:  1,
		Where: name + ":1",
	}
	return Parse(seg, syntax)
}
