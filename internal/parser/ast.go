package parser

import (
	"fmt"

	"schwift-lang/impl/internal/value"
)

// Expression is a marker interface for expressions.
type Expression interface {
	isExpr()
	String() string
}

// Operator is a binary operator.
type Operator int

const (
	Add Operator = iota
	Equality
	And
	Or
)

func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Equality:
		return "=="
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

type Literal struct {
	Value value.Value
}

func (Literal) isExpr() {}

type Variable struct {
	Name string
}

func (Variable) isExpr() {}

// ListIndex reads one element of a list or one character of a string.
type ListIndex struct {
	Name  string
	Index Expression
}

func (ListIndex) isExpr() {}

type ListLength struct {
	Name string
}

func (ListLength) isExpr() {}

type Not struct {
	Expr Expression
}

func (Not) isExpr() {}

type BinaryOperator struct {
	Left  Expression
	Op    Operator
	Right Expression
}

func (BinaryOperator) isExpr() {}

func (e Literal) String() string    { return value.Repr(e.Value) }
func (e Variable) String() string   { return e.Name }
func (e ListIndex) String() string  { return fmt.Sprintf("%s[%s]", e.Name, e.Index) }
func (e ListLength) String() string { return e.Name + " squanch" }
func (e Not) String() string        { return "!" + e.Expr.String() }
func (e BinaryOperator) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// Statement is a marker interface for statements.
type Statement interface {
	isStatement()
	String() string
}

type Assignment struct {
	Name  string
	Value Expression
}

func (Assignment) isStatement() {}

type Print struct {
	Expr Expression
}

func (Print) isStatement() {}

type Input struct {
	Name string
}

func (Input) isStatement() {}

type Delete struct {
	Name string
}

func (Delete) isStatement() {}

type ListNew struct {
	Name string
}

func (ListNew) isStatement() {}

type ListAppend struct {
	Name  string
	Value Expression
}

func (ListAppend) isStatement() {}

type ListAssign struct {
	Name  string
	Index Expression
	Value Expression
}

func (ListAssign) isStatement() {}

type ListDelete struct {
	Name  string
	Index Expression
}

func (ListDelete) isStatement() {}

// If has a nil Else when no else block was written.
type If struct {
	Cond Expression
	Then []Statement
	Else []Statement
}

func (If) isStatement() {}

type While struct {
	Cond Expression
	Body []Statement
}

func (While) isStatement() {}

// Catch runs Catch only when Try fails.
type Catch struct {
	Try   []Statement
	Catch []Statement
}

func (Catch) isStatement() {}

// String renders statements in source syntax on one line; block bodies are elided.
func (s Assignment) String() string { return fmt.Sprintf("%s squanch %s", s.Name, s.Value) }
func (s Print) String() string      { return "show me what you got " + s.Expr.String() }
func (s Input) String() string      { return "portal gun " + s.Name }
func (s Delete) String() string     { return "rubbish " + s.Name }
func (s ListNew) String() string    { return s.Name + " on a cob" }
func (s ListAppend) String() string { return fmt.Sprintf("%s assimilate %s", s.Name, s.Value) }
func (s ListAssign) String() string {
	return fmt.Sprintf("%s[%s] squanch %s", s.Name, s.Index, s.Value)
}
func (s ListDelete) String() string { return fmt.Sprintf("squanch %s[%s]", s.Name, s.Index) }
func (s If) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if %s :< ... >: else :< ... >:", s.Cond)
	}
	return fmt.Sprintf("if %s :< ... >:", s.Cond)
}
func (s While) String() string { return fmt.Sprintf("while %s :< ... >:", s.Cond) }
func (s Catch) String() string { return "normal plan :< ... >: plan b :< ... >:" }

// Dump converts statements into a generic tree of maps and slices suitable for
// JSON or YAML encoding.
func Dump(stmts []Statement) []any {
	out := make([]any, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, dumpStatement(st))
	}
	return out
}

func dumpStatement(st Statement) map[string]any {
	switch s := st.(type) {
	case Assignment:
		return map[string]any{"type": "Assignment", "name": s.Name, "value": dumpExpr(s.Value)}
	case Print:
		return map[string]any{"type": "Print", "value": dumpExpr(s.Expr)}
	case Input:
		return map[string]any{"type": "Input", "name": s.Name}
	case Delete:
		return map[string]any{"type": "Delete", "name": s.Name}
	case ListNew:
		return map[string]any{"type": "ListNew", "name": s.Name}
	case ListAppend:
		return map[string]any{"type": "ListAppend", "name": s.Name, "value": dumpExpr(s.Value)}
	case ListAssign:
		return map[string]any{"type": "ListAssign", "name": s.Name, "index": dumpExpr(s.Index), "value": dumpExpr(s.Value)}
	case ListDelete:
		return map[string]any{"type": "ListDelete", "name": s.Name, "index": dumpExpr(s.Index)}
	case If:
		m := map[string]any{"type": "If", "condition": dumpExpr(s.Cond), "then": Dump(s.Then)}
		if s.Else != nil {
			m["else"] = Dump(s.Else)
		}
		return m
	case While:
		return map[string]any{"type": "While", "condition": dumpExpr(s.Cond), "body": Dump(s.Body)}
	case Catch:
		return map[string]any{"type": "Catch", "try": Dump(s.Try), "catch": Dump(s.Catch)}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", st)}
	}
}

func dumpExpr(e Expression) map[string]any {
	switch x := e.(type) {
	case Literal:
		return map[string]any{"type": "Literal", "kind": value.TypeName(x.Value), "value": dumpValue(x.Value)}
	case Variable:
		return map[string]any{"type": "Variable", "name": x.Name}
	case ListIndex:
		return map[string]any{"type": "ListIndex", "name": x.Name, "index": dumpExpr(x.Index)}
	case ListLength:
		return map[string]any{"type": "ListLength", "name": x.Name}
	case Not:
		return map[string]any{"type": "Not", "operand": dumpExpr(x.Expr)}
	case BinaryOperator:
		return map[string]any{"type": "BinaryOperator", "left": dumpExpr(x.Left), "operator": x.Op.String(), "right": dumpExpr(x.Right)}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", e)}
	}
}

func dumpValue(v value.Value) any {
	switch x := v.(type) {
	case value.Int:
		return x.V
	case value.Str:
		return x.V
	case value.Bool:
		return x.V
	case value.List:
		items := make([]any, 0, len(x.Items))
		for _, it := range x.Items {
			items = append(items, dumpValue(it))
		}
		return items
	default:
		return nil
	}
}
