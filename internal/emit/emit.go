// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package emit writes session buffers to their target files.
package emit

import (
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/buffer"
)

// tracer traces with key 'yane.emit'.
func tracer() tracing.Trace {
	return tracing.Select("yane.emit")
}

// IOError reports a target that could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Emitter flushes buffers through a FileSystem.
type Emitter struct {
	fs FileSystem
}

// New creates an Emitter. A nil fs writes to the operating system.
func New(fs FileSystem) *Emitter {
	if fs == nil {
		fs = OSFS{}
	}
	return &Emitter{fs: fs}
}

// Flush writes every buffer that has a target, in target order. Each file is
// truncated and then written. The first failure stops the flush; files
// written before it stay written. Flush returns the paths written.
func (em *Emitter) Flush(reg *buffer.Registry) ([]string, error) {
	var flushed []string
	for _, t := range reg.Targets() {
		text, err := reg.Read(t.Name)
		if err != nil {
			return flushed, &IOError{Path: t.Path, Err: err}
		}
		if err := em.write(t.Path, text); err != nil {
			return flushed, err
		}
		tracer().Debugf("flushed %d bytes to %s", len(text), t.Path)
		flushed = append(flushed, t.Path)
	}
	return flushed, nil
}

// write truncates path and writes text. The file is closed on every path.
func (em *Emitter) write(path, text string) (err error) {
	w, err := em.fs.Create(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = &IOError{Path: path, Err: cerr}
		}
	}()
	if _, err := io.WriteString(w, text); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}
