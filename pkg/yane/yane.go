// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package yane

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/emit"
	"nickandperla.net/yane/internal/eval"
	"nickandperla.net/yane/internal/parser"
	"nickandperla.net/yane/internal/scanner"
	"nickandperla.net/yane/internal/store"
	"nickandperla.net/yane/internal/token"
	"nickandperla.net/yane/internal/value"
)

// tracer traces with key 'yane.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("yane.runtime")
}

type binding struct {
	name  string
	value string
}

// Runtime runs host files. Every run is a fresh session: variables and
// buffers do not carry over from one run to the next.
type Runtime struct {
	syntax       *token.Syntax
	fs           emit.FileSystem
	outputWriter func(text string) error
	outputVar    string
	vars         []binding
	passThrough  bool
	prelude      string
	noPrelude    bool
	journal      store.Store
	err          error // deferred option error
}

// Result describes a finished run.
type Result struct {
	Value   value.Value       // value of the last top-level form or literal
	Text    string            // flat text of Value
	Flushed []string          // paths written, in order
	Buffers map[string]string // buffer contents at the end of the run
	Skipped bool              // compile found the outputs up to date
}

// New creates a new yane runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		syntax:    token.DefaultSyntax(),
		outputVar: eval.DefaultOutputVar,
		outputWriter: func(text string) error {
			_, err := os.Stdout.WriteString(text)
			return err
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = emit.OSFS{}
	}
	return r
}

// FileSystem returns the file system outputs are written to.
func (r *Runtime) FileSystem() emit.FileSystem {
	return r.fs
}

// Journal returns the compile journal, or nil.
func (r *Runtime) Journal() store.Store {
	return r.journal
}

// session creates the evaluator for one run.
func (r *Runtime) session(extra ...binding) (*eval.Evaluator, error) {
	if r.err != nil {
		return nil, r.err
	}
	ev := eval.New(
		eval.WithSyntax(r.syntax),
		eval.WithOutputVar(r.outputVar),
		eval.WithPassThrough(r.passThrough),
		eval.WithOutputWriter(r.outputWriter),
	)
	if !r.noPrelude {
		prelude := r.prelude
		if prelude == "" {
			prelude = DefaultPrelude
		}
		if _, err := ev.EvalCode(prelude); err != nil {
			return nil, fmt.Errorf("prelude: %w", err)
		}
	}
	for _, b := range append(append([]binding(nil), r.vars...), extra...) {
		ev.Define(b.name, value.Str(b.value))
	}
	return ev, nil
}

// Run evaluates host text and flushes its buffers. name is used in
// diagnostics.
func (r *Runtime) Run(name, text string) (*Result, error) {
	return r.RunReader(name, strings.NewReader(text))
}

// RunReader evaluates host text from a reader and flushes its buffers.
func (r *Runtime) RunReader(name string, rd io.Reader) (*Result, error) {
	return r.run(name, rd)
}

// RunFile evaluates a host file and flushes its buffers.
func (r *Runtime) RunFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.run(path, f)
}

func (r *Runtime) run(name string, rd io.Reader, extra ...binding) (*Result, error) {
	ev, err := r.session(extra...)
	if err != nil {
		return nil, err
	}
	defer ev.Buffers().Reset()

	v, err := ev.EvalReader(rd, name)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Value:   v,
		Text:    v.Text(),
		Buffers: ev.Buffers().Snapshot(),
	}
	res.Flushed, err = emit.New(r.fs).Flush(ev.Buffers())
	if err != nil {
		return res, err
	}
	tracer().Infof("%s: %d file(s) written", name, len(res.Flushed))
	return res, nil
}

// Compile runs src with the output variable bound to dst. With a journal
// configured, the run is skipped when src and every output recorded for it
// are unchanged since the last compile and dst is one of those outputs,
// unless force is set.
func (r *Runtime) Compile(src, dst string, force bool) (*Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	text := string(data)
	digest := store.Digest(text)

	if r.journal != nil && !force {
		entry, err := r.journal.Get(src)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		read := func(path string) (string, error) { return emit.ReadFile(r.fs, path) }
		if entry.Produced(dst) && entry.UpToDate(digest, read) {
			tracer().Infof("%s: up to date", src)
			res := &Result{Skipped: true}
			for _, o := range entry.Outputs {
				res.Flushed = append(res.Flushed, o.Path)
			}
			return res, nil
		}
	}

	res, err := r.run(src, strings.NewReader(text), binding{name: r.outputVar, value: dst})
	if err != nil {
		return res, err
	}
	if r.journal != nil {
		entry := store.Entry{
			Source: src,
			Digest: digest,
			Ts:     time.Now().UTC().Format(time.RFC3339),
		}
		for _, path := range res.Flushed {
			entry.Outputs = append(entry.Outputs, store.Output{Path: path, Digest: store.Digest(res.Buffers[path])})
		}
		if err := r.journal.Put(entry); err != nil {
			return res, fmt.Errorf("journal: %w", err)
		}
	}
	return res, nil
}

// Session is a long-lived evaluation context for interactive use. Unlike
// Run, it keeps variables and buffers between calls.
type Session struct {
	rt *Runtime
	ev *eval.Evaluator
}

// NewSession starts a session with the runtime's prelude and variables.
func (r *Runtime) NewSession() (*Session, error) {
	ev, err := r.session()
	if err != nil {
		return nil, err
	}
	return &Session{rt: r, ev: ev}, nil
}

// Eval evaluates directive code, written without a marker.
func (s *Session) Eval(code string) (string, error) {
	v, err := s.ev.EvalCode(code)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}

// Buffers returns the current buffer contents.
func (s *Session) Buffers() map[string]string {
	return s.ev.Buffers().Snapshot()
}

// Flush writes the buffers that have a target and ends the session's
// buffers.
func (s *Session) Flush() ([]string, error) {
	defer s.ev.Buffers().Reset()
	return emit.New(s.rt.fs).Flush(s.ev.Buffers())
}

// Segment is a scanned segment with its parsed forms.
type Segment struct {
	Kind  string
	Where string
	Text  string
	Forms []value.Value
}

// Parse scans and parses host text without evaluating it.
func (r *Runtime) Parse(name string, rd io.Reader) ([]Segment, error) {
	if r.err != nil {
		return nil, r.err
	}
	segs, err := scanner.New(rd, name, r.syntax).Scan()
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		s := Segment{Kind: seg.Kind.String(), Where: seg.Where}
		if seg.Kind == scanner.Literal {
			s.Text = seg.Text
		} else if s.Forms, err = parser.Parse(seg, r.syntax); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.journal != nil {
		return r.journal.Close()
	}
	return nil
}
