package value

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is a runtime value. The concrete types are Int, Str, Bool and List.
type Value interface{ repr() string }

type (
	Int  struct{ V int64 }
	Str  struct{ V string }
	Bool struct{ V bool }
	List struct{ Items []Value }
)

// Boolean literal spellings, shared with the lexer.
const (
	TrueLit  = "rick"
	FalseLit = "morty"
)

func (v Int) repr() string { return strconv.FormatInt(v.V, 10) }
func (v Str) repr() string { return `"` + v.V + `"` }
func (v Bool) repr() string {
	if v.V {
		return TrueLit
	}
	return FalseLit
}
func (v List) repr() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range v.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.repr())
	}
	b.WriteByte(']')
	return b.String()
}

func (v Int) String() string  { return v.repr() }
func (v Str) String() string  { return v.repr() }
func (v Bool) String() string { return v.repr() }
func (v List) String() string { return v.repr() }

// Format produces the printed form of a value. Strings print verbatim at the
// top level and quoted when nested inside a list.
func Format(v Value) string {
	if s, ok := v.(Str); ok {
		return s.V
	}
	return v.repr()
}

// Repr produces the source-like form of a value (strings quoted).
func Repr(v Value) string { return v.repr() }

// Equal reports structural equality. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Int:
		y, ok := b.(Int)
		return ok && x.V == y.V
	case Str:
		y, ok := b.(Str)
		return ok && x.V == y.V
	case Bool:
		y, ok := b.(Bool)
		return ok && x.V == y.V
	case List:
		y, ok := b.(List)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy; lists never share backing storage with v.
func Clone(v Value) Value {
	l, ok := v.(List)
	if !ok {
		return v
	}
	items := make([]Value, len(l.Items))
	for i, it := range l.Items {
		items[i] = Clone(it)
	}
	return List{Items: items}
}

// Len returns the element count of a List or the character count of a Str.
func Len(v Value) (int, bool) {
	switch x := v.(type) {
	case List:
		return len(x.Items), true
	case Str:
		return utf8.RuneCountInString(x.V), true
	}
	return 0, false
}

// TypeName names the kind of a value for diagnostics.
func TypeName(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Str:
		return "string"
	case Bool:
		return "bool"
	case List:
		return "list"
	default:
		return "unknown"
	}
}
