// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the lexical classes of yane directives and the
// delimiter set (marker, quotes, brackets) the scanner and parser share.
package token

import "unicode"

// Token represents a directive token type.
type Token int

const (
	EOF Token = iota
	LPAREN
	RPAREN
	SYMBOL
	STRING
	RAW // verbatim host text captured inside an open directive
)

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case SYMBOL:
		return "SYMBOL"
	case STRING:
		return "STRING"
	case RAW:
		return "RAW"
	}
	return "UNKNOWN"
}

// DefaultMarker starts a directive line in C-family host files.
const DefaultMarker = "//%"

// Syntax is the pluggable delimiter configuration. Quotes and Brackets map an
// opening rune to its closing rune.
type Syntax struct {
	Marker   string
	Quotes   map[rune]rune
	Brackets map[rune]rune

	closers map[rune]rune // closing bracket -> opening bracket
}

// DefaultSyntax returns the standard delimiter set:
// ASCII and CJK quotes, and round brackets plus their CJK and ASCII variants.
func DefaultSyntax() *Syntax {
	return NewSyntax(DefaultMarker,
		map[rune]rune{
			'\'': '\'',
			'"':  '"',
			'「':  '」',
			'『':  '』',
		},
		map[rune]rune{
			'(': ')',
			'[': ']',
			'{': '}',
			'《': '》',
			'【': '】',
			'〔': '〕',
			'〈': '〉',
			'［': '］',
		})
}

// NewSyntax builds a Syntax. A nil quotes or brackets map falls back to the
// default set for that class.
func NewSyntax(marker string, quotes, brackets map[rune]rune) *Syntax {
	if marker == "" {
		marker = DefaultMarker
	}
	if quotes == nil || brackets == nil {
		def := DefaultSyntax()
		if quotes == nil {
			quotes = def.Quotes
		}
		if brackets == nil {
			brackets = def.Brackets
		}
	}
	s := &Syntax{
		Marker:   marker,
		Quotes:   quotes,
		Brackets: brackets,
		closers:  make(map[rune]rune, len(brackets)),
	}
	for open, shut := range brackets {
		s.closers[shut] = open
	}
	return s
}

// WithMarker returns a copy of s using a different directive marker.
func (s *Syntax) WithMarker(marker string) *Syntax {
	return NewSyntax(marker, s.Quotes, s.Brackets)
}

// IsOpen reports whether r opens a list.
func (s *Syntax) IsOpen(r rune) bool {
	_, ok := s.Brackets[r]
	return ok
}

// IsClose reports whether r closes a list.
func (s *Syntax) IsClose(r rune) bool {
	_, ok := s.closers[r]
	return ok
}

// Opener returns the opening bracket matching the closer r.
func (s *Syntax) Opener(r rune) rune {
	return s.closers[r]
}

// QuoteClose returns the rune that terminates a string opened by r.
func (s *Syntax) QuoteClose(r rune) (rune, bool) {
	c, ok := s.Quotes[r]
	return c, ok
}

// IsDelimiter reports whether r ends an atom.
func (s *Syntax) IsDelimiter(r rune) bool {
	if unicode.IsSpace(r) || s.IsOpen(r) || s.IsClose(r) {
		return true
	}
	if _, ok := s.Quotes[r]; ok {
		return true
	}
	for _, c := range s.Quotes {
		if c == r {
			return true
		}
	}
	return false
}

// IsLiteralAtom reports whether an unquoted atom reads as a string rather
// than a symbol: numbers and atoms starting with an arithmetic sign.
func IsLiteralAtom(atom string) bool {
	if atom == "" {
		return true
	}
	c := atom[0]
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '+', '-', '*', '/':
		return true
	}
	return false
}
