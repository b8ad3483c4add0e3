// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value defines the values yane directives are made of and evaluate
// to: symbols, strings and lists.
package value

import (
	"fmt"
	"strings"
)

// Pos is a source position. Where is a printable "name:line" location.
type Pos struct {
	Line   int
	Offset int
	Where  string
}

func (p Pos) String() string {
	if p.Where == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	if p.Offset > 0 {
		return fmt.Sprintf("%s@%d", p.Where, p.Offset)
	}
	return p.Where
}

// Value is the interface all value kinds implement. The set of kinds is
// closed: Symbol, String and List.
type Value interface {
	// Text returns the flat string form of the value.
	Text() string
	// Position returns where the value was read, if known.
	Position() Pos
	value()
}

// Symbol names a variable or a form.
type Symbol struct {
	Name string
	Pos  Pos
}

func (s Symbol) Text() string   { return s.Name }
func (s Symbol) Position() Pos  { return s.Pos }
func (s Symbol) value()         {}
func (s Symbol) String() string { return s.Name }

// String is literal text. It is the only data type scripts manipulate.
type String struct {
	Value string
	Pos   Pos
}

func (s String) Text() string   { return s.Value }
func (s String) Position() Pos  { return s.Pos }
func (s String) value()         {}
func (s String) String() string { return s.Value }

// List is an ordered sequence of values.
type List struct {
	Items []Value
	Pos   Pos
}

// Text concatenates the text of all items without separators.
func (l List) Text() string {
	var sb strings.Builder
	for _, v := range l.Items {
		sb.WriteString(v.Text())
	}
	return sb.String()
}
func (l List) Position() Pos  { return l.Pos }
func (l List) value()         {}
func (l List) String() string { return Print(l) }

// Len returns the number of items.
func (l List) Len() int { return len(l.Items) }

// Head returns the first item, or nil for an empty list.
func (l List) Head() Value {
	if len(l.Items) == 0 {
		return nil
	}
	return l.Items[0]
}

// Tail returns the items after the head.
func (l List) Tail() []Value {
	if len(l.Items) < 2 {
		return nil
	}
	return l.Items[1:]
}

// Sym creates a Symbol without position.
func Sym(name string) Symbol { return Symbol{Name: name} }

// Str creates a String without position.
func Str(s string) String { return String{Value: s} }

// NewList creates a List from values.
func NewList(items ...Value) List { return List{Items: items} }

// Well-known string constants.
var (
	True  = Str("#true")
	False = Str("#false")
	Null  = Str("#null")
	Empty = Str("")
)

// Bool converts b to True or False.
func Bool(b bool) String {
	if b {
		return True
	}
	return False
}

// IsTrue reports whether v is the true constant.
func IsTrue(v Value) bool {
	return v != nil && v.Text() == True.Value
}

// Elements returns the items of a list, or v itself as the only element of
// any other value.
func Elements(v Value) []Value {
	if v == nil {
		return nil
	}
	if l, ok := v.(List); ok {
		return l.Items
	}
	return []Value{v}
}

// FromSlice packs values the way bindings store them: one value stays
// scalar, anything else becomes a list.
func FromSlice(vs []Value) Value {
	if len(vs) == 1 {
		return vs[0]
	}
	return List{Items: vs}
}

// Print serialises v so that it can be read back: strings are quoted,
// lists parenthesised and symbols bare.
func Print(v Value) string {
	var sb strings.Builder
	printTo(&sb, v)
	return sb.String()
}

// PrintItems serialises the items of a list separated by single spaces,
// without the enclosing parentheses.
func PrintItems(v Value) string {
	var sb strings.Builder
	for i, item := range Elements(v) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printTo(&sb, item)
	}
	return sb.String()
}

func printTo(sb *strings.Builder, v Value) {
	switch x := v.(type) {
	case String:
		sb.WriteString(quote(x.Value))
	case Symbol:
		sb.WriteString(x.Name)
	case List:
		sb.WriteByte('(')
		for i, item := range x.Items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			printTo(sb, item)
		}
		sb.WriteByte(')')
	}
}

// quote picks a quote pair that does not occur in s. There is no escape
// syntax, so a string holding every ASCII quote falls back to CJK brackets.
func quote(s string) string {
	switch {
	case !strings.ContainsRune(s, '\''):
		return "'" + s + "'"
	case !strings.ContainsRune(s, '"'):
		return `"` + s + `"`
	case !strings.ContainsRune(s, '」'):
		return "「" + s + "」"
	default:
		return "『" + s + "』"
	}
}
