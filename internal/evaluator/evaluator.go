package evaluator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"schwift-lang/impl/internal/parser"
	"schwift-lang/impl/internal/value"
)

// Evaluator owns the symbol table of one program run and executes statements
// against it. It is not safe for concurrent use.
type Evaluator struct {
	out     io.Writer
	in      *bufio.Reader
	log     *slog.Logger
	symbols map[string]value.Value
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger traces every executed statement at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(ev *Evaluator) {
		if l != nil {
			ev.log = l
		}
	}
}

// New returns an Evaluator with an empty symbol table that prints to w and
// reads input lines from r. A nil r behaves as an empty input.
func New(w io.Writer, r io.Reader, opts ...Option) *Evaluator {
	if r == nil {
		r = strings.NewReader("")
	}
	ev := &Evaluator{
		out:     w,
		in:      bufio.NewReader(r),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		symbols: map[string]value.Value{},
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Lookup returns a copy of the value bound to name.
func (ev *Evaluator) Lookup(name string) (value.Value, bool) {
	v, ok := ev.symbols[name]
	if !ok {
		return nil, false
	}
	return value.Clone(v), true
}

// Names returns the bound variable names in sorted order.
func (ev *Evaluator) Names() []string {
	names := make([]string, 0, len(ev.symbols))
	for name := range ev.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes statements in order and stops at the first error, which is
// always an *Error.
func (ev *Evaluator) Run(stmts []parser.Statement) error {
	for _, st := range stmts {
		if err := ev.Execute(st); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a single statement. Failures are reported as *Error carrying
// the innermost statement that was executing.
func (ev *Evaluator) Execute(st parser.Statement) error {
	ev.log.Debug("execute", "statement", st.String())
	switch s := st.(type) {
	case parser.If:
		return ev.execIf(s)
	case parser.While:
		return ev.execWhile(s)
	case parser.Catch:
		return ev.execCatch(s)
	}
	if k := ev.exec(st); k != nil {
		return &Error{Kind: k, Statement: st}
	}
	return nil
}

// Evaluate computes the value of an expression. Failures are returned as a Kind.
func (ev *Evaluator) Evaluate(e parser.Expression) (value.Value, error) {
	v, k := ev.eval(e)
	if k != nil {
		return nil, k
	}
	return v, nil
}

func (ev *Evaluator) exec(st parser.Statement) Kind {
	switch s := st.(type) {
	case parser.Assignment:
		v, k := ev.eval(s.Value)
		if k != nil {
			return k
		}
		ev.symbols[s.Name] = v
		return nil
	case parser.Print:
		v, k := ev.eval(s.Expr)
		if k != nil {
			return k
		}
		if _, err := fmt.Fprintln(ev.out, value.Format(v)); err != nil {
			return &IOError{Err: err}
		}
		return nil
	case parser.Input:
		return ev.input(s.Name)
	case parser.Delete:
		if _, ok := ev.symbols[s.Name]; !ok {
			return &UnknownVariableError{Name: s.Name}
		}
		delete(ev.symbols, s.Name)
		return nil
	case parser.ListNew:
		ev.symbols[s.Name] = value.List{Items: []value.Value{}}
		return nil
	case parser.ListAppend:
		return ev.listAppend(s)
	case parser.ListAssign:
		return ev.listAssign(s)
	case parser.ListDelete:
		return ev.listDelete(s)
	default:
		panic(fmt.Sprintf("evaluator: unhandled statement %T", st))
	}
}

// input binds one trimmed line. End of input with nothing read binds "".
func (ev *Evaluator) input(name string) Kind {
	line, err := ev.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return &IOError{Err: err}
	}
	ev.symbols[name] = value.Str{V: strings.TrimSpace(line)}
	return nil
}

func (ev *Evaluator) listAppend(s parser.ListAppend) Kind {
	v, k := ev.eval(s.Value)
	if k != nil {
		return k
	}
	list, k := ev.list(s.Name)
	if k != nil {
		return k
	}
	list.Items = append(list.Items, v)
	ev.symbols[s.Name] = list
	return nil
}

func (ev *Evaluator) listAssign(s parser.ListAssign) Kind {
	idx, k := ev.evalInt(s.Index)
	if k != nil {
		return k
	}
	v, k := ev.eval(s.Value)
	if k != nil {
		return k
	}
	list, k := ev.list(s.Name)
	if k != nil {
		return k
	}
	if idx < 0 || idx >= int64(len(list.Items)) {
		return &IndexOutOfBoundsError{Container: value.Clone(list), Index: idx}
	}
	list.Items[idx] = v
	return nil
}

func (ev *Evaluator) listDelete(s parser.ListDelete) Kind {
	idx, k := ev.evalInt(s.Index)
	if k != nil {
		return k
	}
	list, k := ev.list(s.Name)
	if k != nil {
		return k
	}
	if idx < 0 || idx >= int64(len(list.Items)) {
		return &IndexOutOfBoundsError{Container: value.Clone(list), Index: idx}
	}
	list.Items = append(list.Items[:idx], list.Items[idx+1:]...)
	ev.symbols[s.Name] = list
	return nil
}

// list returns the list bound to name; the result shares storage with the
// symbol table.
func (ev *Evaluator) list(name string) (value.List, Kind) {
	v, ok := ev.symbols[name]
	if !ok {
		return value.List{}, &UnknownVariableError{Name: name}
	}
	l, ok := v.(value.List)
	if !ok {
		return value.List{}, &IndexUnindexableError{Actual: value.Clone(v)}
	}
	return l, nil
}

func (ev *Evaluator) execIf(s parser.If) error {
	cond, k := ev.evalBool(s.Cond)
	if k != nil {
		return &Error{Kind: k, Statement: s}
	}
	if cond {
		return ev.Run(s.Then)
	}
	if s.Else != nil {
		return ev.Run(s.Else)
	}
	return nil
}

func (ev *Evaluator) execWhile(s parser.While) error {
	for {
		cond, k := ev.evalBool(s.Cond)
		if k != nil {
			return &Error{Kind: k, Statement: s}
		}
		if !cond {
			return nil
		}
		if err := ev.Run(s.Body); err != nil {
			return err
		}
	}
}

// execCatch runs the recovery body when the try body fails. The failure itself
// is dropped; effects of the try body before the failure are kept.
func (ev *Evaluator) execCatch(s parser.Catch) error {
	if err := ev.Run(s.Try); err != nil {
		return ev.Run(s.Catch)
	}
	return nil
}

func (ev *Evaluator) eval(e parser.Expression) (value.Value, Kind) {
	switch ex := e.(type) {
	case parser.Literal:
		return value.Clone(ex.Value), nil
	case parser.Variable:
		v, ok := ev.symbols[ex.Name]
		if !ok {
			return nil, &UnknownVariableError{Name: ex.Name}
		}
		return value.Clone(v), nil
	case parser.ListIndex:
		return ev.listIndex(ex)
	case parser.ListLength:
		v, ok := ev.symbols[ex.Name]
		if !ok {
			return nil, &UnknownVariableError{Name: ex.Name}
		}
		n, ok := value.Len(v)
		if !ok {
			return nil, &IndexUnindexableError{Actual: value.Clone(v)}
		}
		return value.Int{V: int64(n)}, nil
	case parser.Not:
		b, k := ev.evalBool(ex.Expr)
		if k != nil {
			return nil, k
		}
		return value.Bool{V: !b}, nil
	case parser.BinaryOperator:
		return ev.binary(ex)
	default:
		panic(fmt.Sprintf("evaluator: unhandled expression %T", e))
	}
}

func (ev *Evaluator) listIndex(ex parser.ListIndex) (value.Value, Kind) {
	idx, k := ev.evalInt(ex.Index)
	if k != nil {
		return nil, k
	}
	v, ok := ev.symbols[ex.Name]
	if !ok {
		return nil, &UnknownVariableError{Name: ex.Name}
	}
	switch coll := v.(type) {
	case value.List:
		if idx < 0 || idx >= int64(len(coll.Items)) {
			return nil, &IndexOutOfBoundsError{Container: value.Clone(coll), Index: idx}
		}
		return value.Clone(coll.Items[idx]), nil
	case value.Str:
		chars := []rune(coll.V)
		if idx < 0 || idx >= int64(len(chars)) {
			return nil, &IndexOutOfBoundsError{Container: coll, Index: idx}
		}
		return value.Str{V: string(chars[idx])}, nil
	default:
		return nil, &IndexUnindexableError{Actual: value.Clone(v)}
	}
}

// binary evaluates both operands, left first, before applying the operator.
func (ev *Evaluator) binary(ex parser.BinaryOperator) (value.Value, Kind) {
	l, k := ev.eval(ex.Left)
	if k != nil {
		return nil, k
	}
	r, k := ev.eval(ex.Right)
	if k != nil {
		return nil, k
	}
	switch ex.Op {
	case parser.Add:
		x, k := asInt(l)
		if k != nil {
			return nil, k
		}
		y, k := asInt(r)
		if k != nil {
			return nil, k
		}
		return value.Int{V: x + y}, nil
	case parser.Equality:
		return value.Bool{V: value.Equal(l, r)}, nil
	case parser.And, parser.Or:
		x, k := asBool(l)
		if k != nil {
			return nil, k
		}
		y, k := asBool(r)
		if k != nil {
			return nil, k
		}
		if ex.Op == parser.And {
			return value.Bool{V: x && y}, nil
		}
		return value.Bool{V: x || y}, nil
	default:
		panic(fmt.Sprintf("evaluator: unhandled operator %v", ex.Op))
	}
}

func (ev *Evaluator) evalInt(e parser.Expression) (int64, Kind) {
	v, k := ev.eval(e)
	if k != nil {
		return 0, k
	}
	return asInt(v)
}

func (ev *Evaluator) evalBool(e parser.Expression) (bool, Kind) {
	v, k := ev.eval(e)
	if k != nil {
		return false, k
	}
	return asBool(v)
}

func asInt(v value.Value) (int64, Kind) {
	i, ok := v.(value.Int)
	if !ok {
		return 0, &UnexpectedTypeError{Expected: "int", Actual: v}
	}
	return i.V, nil
}

func asBool(v value.Value) (bool, Kind) {
	b, ok := v.(value.Bool)
	if !ok {
		return false, &UnexpectedTypeError{Expected: "bool", Actual: v}
	}
	return b.V, nil
}
