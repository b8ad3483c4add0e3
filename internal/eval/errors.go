// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"fmt"

	"nickandperla.net/yane/internal/value"
)

// LookupError reports a name that is neither bound nor a known form, or a
// buffer that does not exist.
type LookupError struct {
	Name string
	Pos  value.Pos
	Form string // printed form being evaluated, if any
	Msg  string
}

func (e *LookupError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "unbound name"
	}
	if e.Form != "" {
		return fmt.Sprintf("lookup error at %s: %s %q in %s", e.Pos, msg, e.Name, e.Form)
	}
	return fmt.Sprintf("lookup error at %s: %s %q", e.Pos, msg, e.Name)
}

// TypeError reports a form applied to arguments of the wrong shape.
type TypeError struct {
	Pos  value.Pos
	Form string
	Msg  string
}

func (e *TypeError) Error() string {
	if e.Form != "" {
		return fmt.Sprintf("type error at %s: %s in %s", e.Pos, e.Msg, e.Form)
	}
	return fmt.Sprintf("type error at %s: %s", e.Pos, e.Msg)
}

// formText shortens a printed form for error messages.
func formText(v value.Value) string {
	s := value.Print(v)
	if r := []rune(s); len(r) > 80 {
		s = string(r[:77]) + "..."
	}
	return s
}

func typeErrorf(form value.Value, format string, args ...interface{}) *TypeError {
	return &TypeError{Pos: form.Position(), Form: formText(form), Msg: fmt.Sprintf(format, args...)}
}
