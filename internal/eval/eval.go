// Package eval implements the yane evaluator.
package eval

import (
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"nickandperla.net/yane/internal/buffer"
	"nickandperla.net/yane/internal/env"
	"nickandperla.net/yane/internal/parser"
	"nickandperla.net/yane/internal/scanner"
	"nickandperla.net/yane/internal/token"
	"nickandperla.net/yane/internal/value"
)

// tracer traces with key 'yane.eval'.
func tracer() tracing.Trace {
	return tracing.Select("yane.eval")
}

// DefaultOutputVar names the variable that selects the active buffer.
const DefaultOutputVar = "outfile"

// MaxDepth bounds nested expansion and re-evaluation.
const MaxDepth = 1024

// OutputWriter writes console output (for the out form).
type OutputWriter func(text string) error

// Evaluator interprets yane forms. One Evaluator holds the state of one
// session and is not safe for concurrent use.
type Evaluator struct {
	env          *env.Env
	buffers      *buffer.Registry
	syntax       *token.Syntax
	outputWriter OutputWriter
	outputVar    string
	passThrough  bool
	depth        int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutputWriter sets the console writer for the out form.
func WithOutputWriter(w OutputWriter) Option {
	return func(e *Evaluator) { e.outputWriter = w }
}

// WithOutputVar changes the variable that names the active buffer.
func WithOutputVar(name string) Option {
	return func(e *Evaluator) {
		if name != "" {
			e.outputVar = name
		}
	}
}

// WithPassThrough makes literal host text go to the active buffer as well.
func WithPassThrough(on bool) Option {
	return func(e *Evaluator) { e.passThrough = on }
}

// WithSyntax sets the marker, quote and bracket set.
func WithSyntax(s *token.Syntax) Option {
	return func(e *Evaluator) {
		if s != nil {
			e.syntax = s
		}
	}
}

// WithRegistry makes the evaluator write into an existing buffer registry.
func WithRegistry(r *buffer.Registry) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.buffers = r
		}
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		env:       env.New(),
		buffers:   buffer.New(),
		syntax:    token.DefaultSyntax(),
		outputVar: DefaultOutputVar,
		outputWriter: func(text string) error {
			fmt.Print(text)
			return nil
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Env returns the session environment.
func (e *Evaluator) Env() *env.Env {
	return e.env
}

// Buffers returns the session buffer registry.
func (e *Evaluator) Buffers() *buffer.Registry {
	return e.buffers
}

// Syntax returns the syntax in use.
func (e *Evaluator) Syntax() *token.Syntax {
	return e.syntax
}

// OutputVar returns the name of the variable selecting the active buffer.
func (e *Evaluator) OutputVar() string {
	return e.outputVar
}

// Define binds a variable in the global scope.
func (e *Evaluator) Define(name string, v value.Value) {
	e.env.Define(name, v)
}

// EvalReader scans, parses and evaluates a host text. name is used in
// diagnostics.
func (e *Evaluator) EvalReader(r io.Reader, name string) (value.Value, error) {
	segs, err := scanner.New(r, name, e.syntax).Scan()
	if err != nil {
		return nil, err
	}
	return e.Run(segs)
}

// Eval evaluates a host text held in a string.
func (e *Evaluator) Eval(input string) (value.Value, error) {
	return e.EvalReader(strings.NewReader(input), "")
}

// EvalCode evaluates directive code without a marker, as if it were a single
// directive line.
func (e *Evaluator) EvalCode(code string) (value.Value, error) {
	forms, err := parser.ParseString(code, "", e.syntax)
	if err != nil {
		return nil, err
	}
	result := value.Value(value.Empty)
	for _, form := range forms {
		if result, err = e.EvalForm(form); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Run evaluates segments in order and returns the value of the last one.
// Evaluation stops at the first error.
func (e *Evaluator) Run(segs []scanner.Segment) (value.Value, error) {
	result := value.Value(value.Empty)
	for _, seg := range segs {
		if seg.Kind == scanner.Literal {
			lit := value.String{Value: seg.Text, Pos: value.Pos{Line: seg.Line, Where: seg.Where}}
			if e.passThrough {
				if err := e.forward(lit.Value); err != nil {
					return nil, err
				}
			}
			result = lit
			continue
		}
		forms, err := parser.Parse(seg, e.syntax)
		if err != nil {
			return nil, err
		}
		for _, form := range forms {
			if result, err = e.EvalForm(form); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// forward appends literal host text to the active buffer, if there is one.
func (e *Evaluator) forward(text string) error {
	v, ok := e.env.Lookup(e.outputVar)
	if !ok {
		tracer().Debugf("pass-through: no active buffer, %d bytes dropped", len(text))
		return nil
	}
	name := v.Text()
	e.buffers.Append(name, text)
	e.buffers.SetTarget(name, name)
	return nil
}

// EvalForm evaluates a single value.
func (e *Evaluator) EvalForm(v value.Value) (value.Value, error) {
	switch x := v.(type) {
	case value.String:
		return x, nil
	case value.Symbol:
		return e.lookup(x)
	case value.List:
		if err := e.enter(x); err != nil {
			return nil, err
		}
		defer e.leave()
		return e.evalList(x)
	}
	return nil, fmt.Errorf("unknown value type %T", v)
}

// enter counts one level of nested evaluation or expansion. Forms and get
// expansions share the counter, so self-reference through either ends in a
// TypeError at MaxDepth.
func (e *Evaluator) enter(v value.Value) error {
	if e.depth >= MaxDepth {
		return typeErrorf(v, "expansion too deep")
	}
	e.depth++
	return nil
}

func (e *Evaluator) leave() {
	e.depth--
}

func (e *Evaluator) evalList(l value.List) (value.Value, error) {
	switch head := l.Head().(type) {
	case nil:
		return value.Empty, nil
	case value.String:
		return l, nil
	case value.List:
		// A list of forms is a sequence.
		result := value.Value(value.Empty)
		for _, item := range l.Items {
			var err error
			if result, err = e.EvalForm(item); err != nil {
				return nil, err
			}
		}
		return result, nil
	case value.Symbol:
		fn := getForm(head.Name)
		if fn == nil {
			return nil, &LookupError{Name: head.Name, Pos: head.Pos, Form: formText(l), Msg: "unknown form"}
		}
		return fn(e, l, l.Tail())
	}
	return nil, fmt.Errorf("unknown value type %T", l.Head())
}

// lookup resolves a symbol to its binding.
func (e *Evaluator) lookup(s value.Symbol) (value.Value, error) {
	if v, ok := e.env.Lookup(s.Name); ok {
		return v, nil
	}
	return nil, &LookupError{Name: s.Name, Pos: s.Pos}
}

// arg evaluates a form argument: symbols resolve to their binding, strings
// stand for themselves and lists are evaluated.
func (e *Evaluator) arg(v value.Value) (value.Value, error) {
	return e.EvalForm(v)
}

// argText is the flat text of an evaluated argument.
func (e *Evaluator) argText(v value.Value) (string, error) {
	a, err := e.arg(v)
	if err != nil {
		return "", err
	}
	return a.Text(), nil
}

// argsText concatenates the argument texts.
func (e *Evaluator) argsText(args []value.Value) (string, error) {
	var sb strings.Builder
	for _, a := range args {
		text, err := e.argText(a)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// nameText is like argText but an unbound symbol stands for its own name.
func (e *Evaluator) nameText(v value.Value) (string, error) {
	if s, ok := v.(value.Symbol); ok && !e.env.Has(s.Name) {
		return s.Name, nil
	}
	return e.argText(v)
}

// expand resolves a value to text the way get does: bound symbols expand
// their value, buffer names give the buffer text, anything unresolved
// echoes its name.
func (e *Evaluator) expand(v value.Value) (string, error) {
	if err := e.enter(v); err != nil {
		return "", err
	}
	defer e.leave()
	switch x := v.(type) {
	case value.String:
		return x.Value, nil
	case value.Symbol:
		if bound, ok := e.env.Lookup(x.Name); ok {
			return e.expand(bound)
		}
		if text, err := e.buffers.Read(x.Name); err == nil {
			return text, nil
		}
		return x.Name, nil
	case value.List:
		if head, ok := x.Head().(value.Symbol); ok && getForm(head.Name) != nil {
			r, err := e.EvalForm(x)
			if err != nil {
				return "", err
			}
			return r.Text(), nil
		}
		var sb strings.Builder
		for _, item := range x.Items {
			text, err := e.expand(item)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		}
		return sb.String(), nil
	}
	return "", nil
}

func (e *Evaluator) expandAll(args []value.Value) (string, error) {
	var sb strings.Builder
	for _, a := range args {
		text, err := e.expand(a)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
