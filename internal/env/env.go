// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package env implements the variable scopes of a yane session.
package env

import (
	"errors"

	"github.com/emirpasic/gods/stacks/linkedliststack"
	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/value"
)

// tracer traces with key 'yane.env'.
func tracer() tracing.Trace {
	return tracing.Select("yane.env")
}

// ErrGlobalScope is returned when popping the outermost scope.
var ErrGlobalScope = errors.New("cannot pop the global scope")

// frame is one scope: a name to value mapping.
type frame struct {
	depth int
	vars  map[string]value.Value
}

// Env is a chain of scopes. The innermost scope is the top of the stack.
// An Env is not safe for concurrent use; each session owns one.
type Env struct {
	frames *linkedliststack.Stack
}

// New creates an environment holding just the global scope.
func New() *Env {
	e := &Env{frames: linkedliststack.New()}
	e.frames.Push(&frame{vars: make(map[string]value.Value)})
	return e
}

func (e *Env) top() *frame {
	f, _ := e.frames.Peek()
	return f.(*frame)
}

// Depth returns the number of scopes above the global one.
func (e *Env) Depth() int {
	return e.frames.Size() - 1
}

// Push opens a child scope.
func (e *Env) Push() {
	depth := e.Depth() + 1
	e.frames.Push(&frame{depth: depth, vars: make(map[string]value.Value)})
	tracer().Debugf("push scope %d", depth)
}

// Pop discards the innermost scope and all of its bindings.
func (e *Env) Pop() error {
	if e.frames.Size() <= 1 {
		return ErrGlobalScope
	}
	f, _ := e.frames.Pop()
	tracer().Debugf("pop scope %d", f.(*frame).depth)
	return nil
}

// Lookup finds the nearest binding of name, innermost scope first.
func (e *Env) Lookup(name string) (value.Value, bool) {
	if f := e.find(name); f != nil {
		return f.vars[name], true
	}
	return nil, false
}

// Has reports whether name is bound in any scope.
func (e *Env) Has(name string) bool {
	return e.find(name) != nil
}

// Define binds name in the innermost scope, shadowing outer bindings.
func (e *Env) Define(name string, v value.Value) {
	e.top().vars[name] = v
}

// Assign rebinds name in the nearest scope that holds it. An unbound name is
// defined in the innermost scope.
func (e *Env) Assign(name string, v value.Value) {
	if f := e.find(name); f != nil {
		f.vars[name] = v
		return
	}
	e.Define(name, v)
}

func (e *Env) find(name string) *frame {
	it := e.frames.Iterator()
	for it.Next() {
		f := it.Value().(*frame)
		if _, ok := f.vars[name]; ok {
			return f
		}
	}
	return nil
}
