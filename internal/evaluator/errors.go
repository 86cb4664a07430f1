package evaluator

import (
	"fmt"

	"schwift-lang/impl/internal/parser"
	"schwift-lang/impl/internal/value"
)

// Kind is the reason a statement failed. The concrete kinds are
// *UnknownVariableError, *UnexpectedTypeError, *IndexOutOfBoundsError,
// *IndexUnindexableError and *IOError.
type Kind interface {
	error
	kind()
}

type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// UnexpectedTypeError reports a value of the wrong kind; Expected names the
// kind that was required ("int", "bool").
type UnexpectedTypeError struct {
	Expected string
	Actual   value.Value
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("expected %s, found %s %s", e.Expected, value.TypeName(e.Actual), value.Repr(e.Actual))
}

type IndexOutOfBoundsError struct {
	Container value.Value
	Index     int64
}

func (e *IndexOutOfBoundsError) Error() string {
	n, _ := value.Len(e.Container)
	return fmt.Sprintf("index %d out of bounds for %s of length %d", e.Index, value.TypeName(e.Container), n)
}

type IndexUnindexableError struct {
	Actual value.Value
}

func (e *IndexUnindexableError) Error() string {
	return fmt.Sprintf("cannot index into %s %s", value.TypeName(e.Actual), value.Repr(e.Actual))
}

type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "input: " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

func (*UnknownVariableError) kind()  {}
func (*UnexpectedTypeError) kind()   {}
func (*IndexOutOfBoundsError) kind() {}
func (*IndexUnindexableError) kind() {}
func (*IOError) kind()               {}

// Error attaches the statement that was executing when a Kind was raised.
type Error struct {
	Kind      Kind
	Statement parser.Statement
}

func (e *Error) Error() string {
	return fmt.Sprintf("statement `%s` failed: %v", e.Statement, e.Kind)
}

func (e *Error) Unwrap() error { return e.Kind }
