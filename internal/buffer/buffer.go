// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package buffer keeps the named output buffers of a session.
package buffer

import (
	"errors"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'yane.buffer'.
func tracer() tracing.Trace {
	return tracing.Select("yane.buffer")
}

// ErrNotFound is returned when a buffer does not exist.
var ErrNotFound = errors.New("buffer not found")

type buf struct {
	text     strings.Builder
	target   string
	targeted bool // listed in Registry.order
}

// Target is a buffer scheduled to be written to a path.
type Target struct {
	Name string
	Path string
}

// Registry maps buffer names to accumulated text. It is owned by one session
// and not safe for concurrent use.
type Registry struct {
	bufs  map[string]*buf
	order []string // names in the order their targets were first set
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{bufs: make(map[string]*buf)}
}

func (r *Registry) get(name string) *buf {
	b, ok := r.bufs[name]
	if !ok {
		b = &buf{}
		r.bufs[name] = b
	}
	return b
}

// Append adds text to the end of a buffer, creating it if needed.
func (r *Registry) Append(name, text string) {
	r.get(name).text.WriteString(text)
	tracer().Debugf("append %d bytes to %q", len(text), name)
}

// Clear empties a buffer, creating it if needed. Its target is kept.
func (r *Registry) Clear(name string) {
	r.get(name).text.Reset()
	tracer().Debugf("clear %q", name)
}

// Has reports whether a buffer exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.bufs[name]
	return ok
}

// Read returns the text of a buffer.
func (r *Registry) Read(name string) (string, error) {
	b, ok := r.bufs[name]
	if !ok {
		return "", ErrNotFound
	}
	return b.text.String(), nil
}

// Take returns the text of a buffer and empties it.
func (r *Registry) Take(name string) (string, error) {
	b, ok := r.bufs[name]
	if !ok {
		return "", ErrNotFound
	}
	text := b.text.String()
	b.text.Reset()
	return text, nil
}

// SetTarget schedules a buffer to be written to path, creating the buffer if
// needed. Setting a new path keeps the buffer's place in the target order.
func (r *Registry) SetTarget(name, path string) {
	b := r.get(name)
	if !b.targeted {
		b.targeted = true
		r.order = append(r.order, name)
	}
	b.target = path
}

// Targets lists the buffers that have a target, in the order their targets
// were first set.
func (r *Registry) Targets() []Target {
	targets := make([]Target, 0, len(r.order))
	for _, name := range r.order {
		targets = append(targets, Target{Name: name, Path: r.bufs[name].target})
	}
	return targets
}

// Names returns the names of all buffers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.bufs))
	for name := range r.bufs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the text of all buffers.
func (r *Registry) Snapshot() map[string]string {
	m := make(map[string]string, len(r.bufs))
	for name, b := range r.bufs {
		m[name] = b.text.String()
	}
	return m
}

// Reset destroys all buffers.
func (r *Registry) Reset() {
	r.bufs = make(map[string]*buf)
	r.order = nil
}
