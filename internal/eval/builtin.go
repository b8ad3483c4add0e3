package eval

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nickandperla.net/yane/internal/buffer"
	"nickandperla.net/yane/internal/value"
)

// FormFunc is the signature for builtin forms. form is the whole list,
// args its unevaluated tail.
type FormFunc func(e *Evaluator, form value.List, args []value.Value) (value.Value, error)

// getForm returns the form for the given name, or nil if not found.
func getForm(name string) FormFunc {
	switch name {
	case "let":
		return formLet
	case "set":
		return formSet
	case "addto":
		return formAddto
	case "foreach":
		return formForeach
	case "write":
		return formWrite
	case "out":
		return formOut
	case "replace":
		return formReplace
	case "regex":
		return formRegex
	case "tolower":
		return formToLower
	case "toupper":
		return formToUpper
	case "get":
		return formGet
	case "take":
		return formTake
	case "del":
		return formDel
	case "print":
		return formPrint
	case "eval":
		return formEval
	case "loop":
		return formLoop
	case "for":
		return formFor
	case "if":
		return formIf
	case "eq":
		return formEq
	case "neq":
		return formNeq
	case "and":
		return formAnd
	case "or":
		return formOr
	case "array":
		return formArray
	case "car":
		return formCar
	case "cdr":
		return formCdr
	case "length":
		return formLength
	}
	return nil
}

// IsForm reports whether name is a builtin form.
func IsForm(name string) bool {
	return getForm(name) != nil
}

// minArgs checks the argument count of a form.
func minArgs(form value.List, args []value.Value, n int) error {
	if len(args) < n {
		return typeErrorf(form, "%s needs at least %d argument(s), got %d", form.Head().Text(), n, len(args))
	}
	return nil
}

// varName reads the variable name a binding form targets. Symbols name
// themselves; strings and lists use their text.
func (e *Evaluator) varName(form value.List, v value.Value) (string, error) {
	var name string
	switch x := v.(type) {
	case value.Symbol:
		name = x.Name
	case value.String:
		name = x.Value
	default:
		text, err := e.argText(v)
		if err != nil {
			return "", err
		}
		name = text
	}
	if name == "" {
		return "", typeErrorf(form, "empty variable name")
	}
	return name, nil
}

// evalSpliced evaluates args, splicing list results.
func (e *Evaluator) evalSpliced(args []value.Value) ([]value.Value, error) {
	var vs []value.Value
	for _, a := range args {
		v, err := e.arg(a)
		if err != nil {
			return nil, err
		}
		vs = append(vs, value.Elements(v)...)
	}
	return vs, nil
}

func pack(vs []value.Value) value.Value {
	if len(vs) == 0 {
		return value.Empty
	}
	return value.FromSlice(vs)
}

func formLet(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// let NAME V... binds the values as written.
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	v := pack(args[1:])
	e.env.Define(name, v)
	return v, nil
}

func formSet(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	vs, err := e.evalSpliced(args[1:])
	if err != nil {
		return nil, err
	}
	v := pack(vs)
	e.env.Assign(name, v)
	if name == e.outputVar {
		tracer().Debugf("active buffer is now %q", v.Text())
	}
	return v, nil
}

func formAddto(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	var items []value.Value
	if cur, ok := e.env.Lookup(name); ok {
		items = append(items, value.Elements(cur)...)
	}
	vs, err := e.evalSpliced(args[1:])
	if err != nil {
		return nil, err
	}
	v := pack(append(items, vs...))
	e.env.Assign(name, v)
	return v, nil
}

func formForeach(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// foreach VAR COLL BODY...
	if err := minArgs(form, args, 2); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	coll, err := e.arg(args[1])
	if err != nil {
		return nil, err
	}
	body := args[2:]

	result := value.Value(value.Empty)
	for _, item := range value.Elements(coll) {
		e.env.Push()
		e.env.Define(name, item)
		for _, b := range body {
			if result, err = e.EvalForm(b); err != nil {
				_ = e.env.Pop()
				return nil, err
			}
		}
		if err := e.env.Pop(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func formWrite(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	text, err := e.argsText(args)
	if err != nil {
		return nil, err
	}
	out, ok := e.env.Lookup(e.outputVar)
	if !ok {
		return nil, &LookupError{Name: e.outputVar, Pos: form.Pos, Form: formText(form), Msg: "no active buffer, unbound"}
	}
	name := out.Text()
	e.buffers.Append(name, text)
	e.buffers.SetTarget(name, name)
	return value.Str(text), nil
}

func formOut(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	text, err := e.argsText(args)
	if err != nil {
		return nil, err
	}
	if e.outputWriter != nil {
		if err := e.outputWriter(text); err != nil {
			return nil, err
		}
	}
	return value.Str(text), nil
}

func formReplace(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// replace TEXT OLD NEW [OLD NEW]...
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return nil, typeErrorf(form, "replace needs a text and OLD NEW pairs, got %d argument(s)", len(args))
	}
	texts := make([]string, len(args))
	for i, a := range args {
		t, err := e.argText(a)
		if err != nil {
			return nil, err
		}
		texts[i] = t
	}
	result := texts[0]
	for i := 1; i < len(texts); i += 2 {
		if texts[i] == "" {
			return nil, typeErrorf(form, "replace pattern is empty")
		}
		result = strings.ReplaceAll(result, texts[i], texts[i+1])
	}
	return value.Str(result), nil
}

func formRegex(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// regex TEXT PATTERN REPL [PATTERN REPL]...
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return nil, typeErrorf(form, "regex needs a text and PATTERN REPLACEMENT pairs, got %d argument(s)", len(args))
	}
	result, err := e.argText(args[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i += 2 {
		pattern, err := e.argText(args[i])
		if err != nil {
			return nil, err
		}
		repl, err := e.argText(args[i+1])
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, typeErrorf(form, "invalid pattern: %v", err)
		}
		result = re.ReplaceAllString(result, repl)
	}
	return value.Str(result), nil
}

func formToLower(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	return e.mapCase(form, args, cases.Lower(language.Und))
}

func formToUpper(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	return e.mapCase(form, args, cases.Upper(language.Und))
}

// mapCase binds VAR to the case-mapped expansion of the remaining args.
func (e *Evaluator) mapCase(form value.List, args []value.Value, c cases.Caser) (value.Value, error) {
	if err := minArgs(form, args, 2); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	text, err := e.expandAll(args[1:])
	if err != nil {
		return nil, err
	}
	v := value.Str(c.String(text))
	e.env.Define(name, v)
	return v, nil
}

func formGet(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	text, err := e.expandAll(args)
	if err != nil {
		return nil, err
	}
	return value.Str(text), nil
}

func formTake(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	name, err := e.nameText(args[0])
	if err != nil {
		return nil, err
	}
	text, err := e.buffers.Take(name)
	if errors.Is(err, buffer.ErrNotFound) {
		return nil, &LookupError{Name: name, Pos: form.Pos, Form: formText(form), Msg: "no buffer"}
	}
	return value.Str(text), err
}

func formDel(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// del NAME empties the buffer and schedules the file to be truncated.
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	var name string
	for _, a := range args {
		var err error
		if name, err = e.nameText(a); err != nil {
			return nil, err
		}
		e.buffers.Clear(name)
		e.buffers.SetTarget(name, name)
	}
	return value.Str(name), nil
}

func formPrint(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		var v value.Value
		switch x := a.(type) {
		case value.Symbol:
			bound, ok := e.env.Lookup(x.Name)
			if !ok {
				parts = append(parts, value.Print(value.Str(x.Name)))
				continue
			}
			v = bound
		case value.String:
			v = x
		default:
			r, err := e.arg(a)
			if err != nil {
				return nil, err
			}
			v = r
		}
		if _, ok := v.(value.List); ok {
			parts = append(parts, value.PrintItems(v))
		} else {
			parts = append(parts, value.Print(v))
		}
	}
	return value.Str(strings.Join(parts, " ")), nil
}

func formEval(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	result := value.Value(value.Empty)
	for _, a := range args {
		v, err := e.arg(a)
		if err != nil {
			return nil, err
		}
		if result, err = e.EvalForm(v); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// intArg reads a base-10 integer argument.
func (e *Evaluator) intArg(form value.List, v value.Value) (int, error) {
	text, err := e.argText(v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, typeErrorf(form, "%q is not an integer", text)
	}
	return n, nil
}

func (e *Evaluator) evalBody(body []value.Value) (value.Value, error) {
	result := value.Value(value.Empty)
	for _, b := range body {
		var err error
		if result, err = e.EvalForm(b); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func formLoop(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// loop N BODY...
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	n, err := e.intArg(form, args[0])
	if err != nil {
		return nil, err
	}
	result := value.Value(value.Empty)
	for i := 0; i < n; i++ {
		if result, err = e.evalBody(args[1:]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func formFor(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// for VAR FROM TO BODY... counts upward, TO included.
	if err := minArgs(form, args, 3); err != nil {
		return nil, err
	}
	name, err := e.varName(form, args[0])
	if err != nil {
		return nil, err
	}
	from, err := e.intArg(form, args[1])
	if err != nil {
		return nil, err
	}
	to, err := e.intArg(form, args[2])
	if err != nil {
		return nil, err
	}
	result := value.Value(value.Empty)
	for i := from; i <= to; i++ {
		e.env.Push()
		e.env.Define(name, value.Str(strconv.Itoa(i)))
		result, err = e.evalBody(args[3:])
		_ = e.env.Pop()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func formIf(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// if COND THEN [ELSE]
	if err := minArgs(form, args, 2); err != nil {
		return nil, err
	}
	cond, err := e.arg(args[0])
	if err != nil {
		return nil, err
	}
	if value.IsTrue(cond) {
		return e.arg(args[1])
	}
	if len(args) >= 3 {
		return e.arg(args[2])
	}
	return value.False, nil
}

func (e *Evaluator) compare(form value.List, args []value.Value) (bool, error) {
	if len(args) != 2 {
		return false, typeErrorf(form, "%s needs 2 arguments, got %d", form.Head().Text(), len(args))
	}
	a, err := e.argText(args[0])
	if err != nil {
		return false, err
	}
	b, err := e.argText(args[1])
	if err != nil {
		return false, err
	}
	return a == b, nil
}

func formEq(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	same, err := e.compare(form, args)
	if err != nil {
		return nil, err
	}
	return value.Bool(same), nil
}

func formNeq(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	same, err := e.compare(form, args)
	if err != nil {
		return nil, err
	}
	return value.Bool(!same), nil
}

func formAnd(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	for _, a := range args {
		v, err := e.arg(a)
		if err != nil {
			return nil, err
		}
		if !value.IsTrue(v) {
			return value.False, nil
		}
	}
	return value.True, nil
}

func formOr(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	for _, a := range args {
		v, err := e.arg(a)
		if err != nil {
			return nil, err
		}
		if value.IsTrue(v) {
			return value.True, nil
		}
	}
	return value.False, nil
}

func (e *Evaluator) collection(form value.List, args []value.Value) ([]value.Value, error) {
	if err := minArgs(form, args, 1); err != nil {
		return nil, err
	}
	v, err := e.arg(args[0])
	if err != nil {
		return nil, err
	}
	return value.Elements(v), nil
}

func formArray(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	// array COLL N
	if err := minArgs(form, args, 2); err != nil {
		return nil, err
	}
	items, err := e.collection(form, args)
	if err != nil {
		return nil, err
	}
	n, err := e.intArg(form, args[1])
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= len(items) {
		return value.Null, nil
	}
	return items[n], nil
}

func formCar(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	items, err := e.collection(form, args)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return value.Null, nil
	}
	return items[0], nil
}

func formCdr(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	items, err := e.collection(form, args)
	if err != nil {
		return nil, err
	}
	if len(items) < 2 {
		return value.Null, nil
	}
	return value.NewList(items[1:]...), nil
}

func formLength(e *Evaluator, form value.List, args []value.Value) (value.Value, error) {
	items, err := e.collection(form, args)
	if err != nil {
		return nil, err
	}
	return value.Str(strconv.Itoa(len(items))), nil
}
