// Package yane provides the public API for the yane template engine.
package yane

import (
	"io"

	"nickandperla.net/yane/internal/emit"
	"nickandperla.net/yane/internal/eval"
	"nickandperla.net/yane/internal/parser"
	"nickandperla.net/yane/internal/scanner"
	"nickandperla.net/yane/internal/store"
	"nickandperla.net/yane/internal/token"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSyntax sets the marker, quote and bracket set.
func WithSyntax(s *token.Syntax) Option {
	return func(r *Runtime) {
		if s != nil {
			r.syntax = s
		}
	}
}

// WithMarker changes the directive marker, keeping quotes and brackets.
func WithMarker(marker string) Option {
	return func(r *Runtime) {
		if marker != "" {
			r.syntax = r.syntax.WithMarker(marker)
		}
	}
}

// WithFileSystem sets where outputs are written.
func WithFileSystem(fs emit.FileSystem) Option {
	return func(r *Runtime) {
		r.fs = fs
	}
}

// WithOutputDir writes outputs relative to dir, creating missing
// directories when mkdir is set.
func WithOutputDir(dir string, mkdir bool) Option {
	return func(r *Runtime) {
		r.fs = emit.OSFS{Dir: dir, MkdirAll: mkdir}
	}
}

// WithDryRun keeps outputs in memory instead of writing them.
func WithDryRun() Option {
	return func(r *Runtime) {
		r.fs = emit.NewMemFS()
	}
}

// WithOutputWriter sets the console writer for the out form.
func WithOutputWriter(writer func(text string) error) Option {
	return func(r *Runtime) {
		r.outputWriter = writer
	}
}

// WithOutput sets the io.Writer for console output.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.outputWriter = func(text string) error {
			_, err := w.Write([]byte(text))
			return err
		}
	}
}

// WithOutputVar changes the variable that names the active buffer.
func WithOutputVar(name string) Option {
	return func(r *Runtime) {
		if name != "" {
			r.outputVar = name
		}
	}
}

// WithVar binds a variable before every run.
func WithVar(name, value string) Option {
	return func(r *Runtime) {
		r.vars = append(r.vars, binding{name: name, value: value})
	}
}

// WithPassThrough copies literal host text into the active buffer.
func WithPassThrough(on bool) Option {
	return func(r *Runtime) {
		r.passThrough = on
	}
}

// WithPrelude sets directive code evaluated at the start of every run.
// If not set, DefaultPrelude is used.
func WithPrelude(code string) Option {
	return func(r *Runtime) {
		r.prelude = code
	}
}

// WithNoPrelude disables the prelude.
func WithNoPrelude() Option {
	return func(r *Runtime) {
		r.noPrelude = true
	}
}

// WithSQLiteJournal keeps the compile journal in a SQLite database at path.
// An error opening it is reported by the first run.
func WithSQLiteJournal(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.journal = s
	}
}

// WithMemoryJournal keeps the compile journal in memory (for testing).
func WithMemoryJournal() Option {
	return func(r *Runtime) {
		r.journal = store.NewMemory()
	}
}

// WithJournal sets a custom compile journal.
func WithJournal(s Journal) Option {
	return func(r *Runtime) {
		r.journal = s
	}
}

// Journal interface for custom compile journals.
type Journal = store.Store

// FileSystem interface for custom output targets.
type FileSystem = emit.FileSystem

// Error types reported by runs.
type (
	ScanError   = scanner.ScanError
	ParseError  = parser.ParseError
	LookupError = eval.LookupError
	TypeError   = eval.TypeError
	IOError     = emit.IOError
)
