package evaluator

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schwift-lang/impl/internal/parser"
	"schwift-lang/impl/internal/value"
)

// runProgram parses src and runs it with the given stdin.
func runProgram(t *testing.T, src, input string) (*Evaluator, string, error) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	var out bytes.Buffer
	ev := New(&out, strings.NewReader(input))
	err = ev.Run(prog)
	return ev, out.String(), err
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "print string",
			src:  `show me what you got "Hello"`,
			want: "Hello\n",
		},
		{
			name: "print values",
			src: `show me what you got 1 + 2
show me what you got rick
show me what you got 1 == "1"`,
			want: "3\nrick\nmorty\n",
		},
		{
			name: "print list",
			src: `x on a cob
x assimilate 1
x assimilate "a"
x assimilate rick
show me what you got x`,
			want: "[1, \"a\", rick]\n",
		},
		{
			name: "list length",
			src: `x on a cob
x assimilate 1
x assimilate 2
x assimilate 3
show me what you got x squanch`,
			want: "3\n",
		},
		{
			name: "string length counts characters",
			src: `s squanch "héllo"
show me what you got s squanch
show me what you got s[1]`,
			want: "5\né\n",
		},
		{
			name: "list assign and index",
			src: `x on a cob
x assimilate 1
x assimilate 2
x[1] squanch "two"
show me what you got x[1]
show me what you got x[0] + 10`,
			want: "two\n11\n",
		},
		{
			name: "list delete shifts later items",
			src: `x on a cob
x assimilate 1
x assimilate 2
x assimilate 3
squanch x[0]
show me what you got x
show me what you got x squanch`,
			want: "[2, 3]\n2\n",
		},
		{
			name: "nested lists",
			src: `inner on a cob
inner assimilate 1
outer on a cob
outer assimilate inner
outer assimilate inner
show me what you got outer
show me what you got outer == outer`,
			want: "[[1], [1]]\nrick\n",
		},
		{
			name: "assignment copies lists",
			src: `a on a cob
a assimilate 1
b squanch a
b assimilate 2
show me what you got a squanch
show me what you got b squanch`,
			want: "1\n2\n",
		},
		{
			name: "if else",
			src: `if 1 == 2 :<
show me what you got "then"
>: else :<
show me what you got "else"
>:
if rick :<
show me what you got "only"
>:`,
			want: "else\nonly\n",
		},
		{
			name: "while counts",
			src: `i squanch 0
while !i == 3 :<
show me what you got i
i squanch i + 1
>:
show me what you got i`,
			want: "0\n1\n2\n3\n",
		},
		{
			name: "while with false condition never runs",
			src: `while morty :<
show me what you got "never"
>:
show me what you got "done"`,
			want: "done\n",
		},
		{
			name: "boolean operators",
			src: `show me what you got rick and morty
show me what you got rick or morty
show me what you got !morty and rick
show me what you got !(rick or rick)`,
			want: "morty\nrick\nrick\nmorty\n",
		},
		{
			name: "equality never crosses kinds",
			src: `show me what you got 1 == 1
show me what you got "a" == "a"
show me what you got rick == 1
show me what you got "1" == 1`,
			want: "rick\nrick\nmorty\nmorty\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := runProgram(t, tt.src, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, k Kind)
	}{
		{
			name: "unknown variable",
			src:  "show me what you got y",
			check: func(t *testing.T, k Kind) {
				var e *UnknownVariableError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, "y", e.Name)
			},
		},
		{
			name: "deleted variable",
			src:  "x squanch 1\nrubbish x\nshow me what you got x",
			check: func(t *testing.T, k Kind) {
				var e *UnknownVariableError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, "x", e.Name)
			},
		},
		{
			name: "delete unknown",
			src:  "rubbish x",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &UnknownVariableError{}, k)
			},
		},
		{
			name: "add needs ints",
			src:  "x squanch 1 + rick",
			check: func(t *testing.T, k Kind) {
				var e *UnexpectedTypeError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, "int", e.Expected)
				assert.Equal(t, value.Bool{V: true}, e.Actual)
			},
		},
		{
			name: "strings do not add",
			src:  `x squanch "a" + "b"`,
			check: func(t *testing.T, k Kind) {
				var e *UnexpectedTypeError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, value.Str{V: "a"}, e.Actual)
			},
		},
		{
			name: "and needs bools",
			src:  "x squanch rick and 1",
			check: func(t *testing.T, k Kind) {
				var e *UnexpectedTypeError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, "bool", e.Expected)
				assert.Equal(t, value.Int{V: 1}, e.Actual)
			},
		},
		{
			name: "operands are evaluated strictly",
			src:  "x squanch morty and nope",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &UnknownVariableError{}, k)
			},
		},
		{
			name: "index must be int",
			src:  "x on a cob\nx assimilate 1\nshow me what you got x[rick]",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &UnexpectedTypeError{}, k)
			},
		},
		{
			name: "index equal to length",
			src:  "x on a cob\nx assimilate 1\nx assimilate 2\nshow me what you got x[2]",
			check: func(t *testing.T, k Kind) {
				var e *IndexOutOfBoundsError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, int64(2), e.Index)
				assert.Equal(t, value.List{Items: []value.Value{value.Int{V: 1}, value.Int{V: 2}}}, e.Container)
			},
		},
		{
			name: "string index past end",
			src:  "s squanch \"ab\"\nshow me what you got s[2]",
			check: func(t *testing.T, k Kind) {
				var e *IndexOutOfBoundsError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, value.Str{V: "ab"}, e.Container)
			},
		},
		{
			name: "assign past end",
			src:  "x on a cob\nx[0] squanch 1",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &IndexOutOfBoundsError{}, k)
			},
		},
		{
			name: "delete past end",
			src:  "x on a cob\nsquanch x[0]",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &IndexOutOfBoundsError{}, k)
			},
		},
		{
			name: "index into int",
			src:  "x squanch 1\nshow me what you got x[0]",
			check: func(t *testing.T, k Kind) {
				var e *IndexUnindexableError
				require.ErrorAs(t, k, &e)
				assert.Equal(t, value.Int{V: 1}, e.Actual)
			},
		},
		{
			name: "append to string",
			src:  "x squanch \"s\"\nx assimilate 1",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &IndexUnindexableError{}, k)
			},
		},
		{
			name: "length of bool",
			src:  "x squanch rick\nshow me what you got x squanch",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &IndexUnindexableError{}, k)
			},
		},
		{
			name: "if needs bool",
			src:  "if 1 :<\n>:",
			check: func(t *testing.T, k Kind) {
				assert.IsType(t, &UnexpectedTypeError{}, k)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runProgram(t, tt.src, "")
			require.Error(t, err)
			var e *Error
			require.ErrorAs(t, err, &e)
			tt.check(t, e.Kind)
		})
	}
}

func TestErrorCarriesInnermostStatement(t *testing.T) {
	src := `i squanch 0
while rick :<
if rick :<
show me what you got nope
>:
>:`
	_, _, err := runProgram(t, src, "")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, parser.Print{Expr: parser.Variable{Name: "nope"}}, e.Statement)
	assert.Equal(t, "statement `show me what you got nope` failed: unknown variable \"nope\"", err.Error())

	var unknown *UnknownVariableError
	assert.ErrorAs(t, err, &unknown)
}

func TestConditionErrorCarriesCompoundStatement(t *testing.T) {
	_, _, err := runProgram(t, "while 1 :<\n>:", "")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.IsType(t, parser.While{}, e.Statement)
}

func TestRunStopsAtFirstError(t *testing.T) {
	ev, out, err := runProgram(t, "show me what you got 1\nshow me what you got x\nshow me what you got 2", "")
	require.Error(t, err)
	assert.Equal(t, "1\n", out)
	assert.Empty(t, ev.Names())
}

func TestCatch(t *testing.T) {
	src := `normal plan :<
x squanch 1
show me what you got y
x squanch 2
>:
plan b :<
recovered squanch rick
>:
show me what you got x`
	ev, out, err := runProgram(t, src, "")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	v, ok := ev.Lookup("recovered")
	require.True(t, ok)
	assert.Equal(t, value.Bool{V: true}, v)
}

func TestCatchSkipsRecoveryOnSuccess(t *testing.T) {
	src := `normal plan :<
show me what you got "fine"
>: plan b :<
show me what you got "recovery"
>:`
	_, out, err := runProgram(t, src, "")
	require.NoError(t, err)
	assert.Equal(t, "fine\n", out)
}

func TestCatchRecoveryErrorPropagates(t *testing.T) {
	src := `normal plan :<
show me what you got a
>: plan b :<
show me what you got b
>:`
	_, _, err := runProgram(t, src, "")
	var unknown *UnknownVariableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "b", unknown.Name)
}

func TestInput(t *testing.T) {
	ev, _, err := runProgram(t, "portal gun a\nportal gun b\nportal gun c", "  hi there \r\nsecond")
	require.NoError(t, err)

	for name, want := range map[string]string{"a": "hi there", "b": "second", "c": ""} {
		v, ok := ev.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, value.Str{V: want}, v, name)
	}
}

func TestInputNilReader(t *testing.T) {
	prog, err := parser.ParseProgram("portal gun a")
	require.NoError(t, err)
	ev := New(&bytes.Buffer{}, nil)
	require.NoError(t, ev.Run(prog))
	v, _ := ev.Lookup("a")
	assert.Equal(t, value.Str{V: ""}, v)
}

func TestInputReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	prog, err := parser.ParseProgram("portal gun a")
	require.NoError(t, err)

	ev := New(&bytes.Buffer{}, iotest.ErrReader(boom))
	err = ev.Run(prog)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, boom)
	_, ok := ev.Lookup("a")
	assert.False(t, ok)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestPrintWriteFailure(t *testing.T) {
	prog, err := parser.ParseProgram(`show me what you got "x"`)
	require.NoError(t, err)
	err = New(failingWriter{}, nil).Run(prog)
	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestLookupReturnsCopy(t *testing.T) {
	ev, _, err := runProgram(t, "x on a cob\nx assimilate 1", "")
	require.NoError(t, err)

	v, ok := ev.Lookup("x")
	require.True(t, ok)
	l := v.(value.List)
	l.Items[0] = value.Int{V: 99}

	again, _ := ev.Lookup("x")
	assert.Equal(t, value.List{Items: []value.Value{value.Int{V: 1}}}, again)

	_, ok = ev.Lookup("missing")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	ev, _, err := runProgram(t, "zeta squanch 1\nalpha on a cob\nmid squanch rick", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ev.Names())
}

func TestEvaluate(t *testing.T) {
	ev, _, err := runProgram(t, "x on a cob\nx assimilate 4", "")
	require.NoError(t, err)

	expr, _, err := parser.ParseExpression("x[0] + x squanch")
	require.NoError(t, err)
	v, err := ev.Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, value.Int{V: 5}, v)

	expr, _, err = parser.ParseExpression("x + 1")
	require.NoError(t, err)
	_, err = ev.Evaluate(expr)
	assert.IsType(t, &UnexpectedTypeError{}, err)
}

func TestExecuteLogsStatements(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	prog, err := parser.ParseProgram("x squanch 1")
	require.NoError(t, err)
	require.NoError(t, New(&bytes.Buffer{}, nil, WithLogger(logger)).Run(prog))
	assert.Contains(t, logs.String(), `msg=execute statement="x squanch 1"`)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{&UnknownVariableError{Name: "x"}, `unknown variable "x"`},
		{&UnexpectedTypeError{Expected: "int", Actual: value.Str{V: "a"}}, `expected int, found string "a"`},
		{&IndexOutOfBoundsError{Container: value.List{Items: []value.Value{value.Int{V: 1}}}, Index: 3}, "index 3 out of bounds for list of length 1"},
		{&IndexUnindexableError{Actual: value.Bool{V: false}}, "cannot index into bool morty"},
		{&IOError{Err: errors.New("eof")}, "input: eof"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Error())
	}
}

func TestIndexBounds(t *testing.T) {
	ev, _, err := runProgram(t, "l on a cob\nl assimilate 10\nl assimilate 20\nl assimilate 30\ns squanch \"abc\"", "")
	require.NoError(t, err)

	for _, name := range []string{"l", "s"} {
		for i := int64(0); i < 6; i++ {
			expr := parser.ListIndex{Name: name, Index: parser.Literal{Value: value.Int{V: i}}}
			_, err := ev.Evaluate(expr)
			if i < 3 {
				assert.NoError(t, err, "%s[%d]", name, i)
				continue
			}
			var oob *IndexOutOfBoundsError
			assert.ErrorAs(t, err, &oob, "%s[%d]", name, i)
		}
	}
}

func TestDeletedVariableUntilReassigned(t *testing.T) {
	ev, _, err := runProgram(t, "x on a cob\nrubbish x", "")
	require.NoError(t, err)

	for _, src := range []string{
		"show me what you got x",
		"x assimilate 1",
		"x[0] squanch 1",
		"squanch x[0]",
		"show me what you got x squanch",
		"rubbish x",
	} {
		prog, err := parser.ParseProgram(src)
		require.NoError(t, err)
		var unknown *UnknownVariableError
		assert.ErrorAs(t, ev.Run(prog), &unknown, src)
	}

	prog, err := parser.ParseProgram("x squanch 5")
	require.NoError(t, err)
	require.NoError(t, ev.Run(prog))
	v, ok := ev.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, value.Int{V: 5}, v)
}
