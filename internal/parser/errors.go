package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is wrapped by every *ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports where parsing stopped. Offset is a byte offset into the
// parsed text; Line and Col are 1-based. Incomplete is set when the input
// ended before the construct being parsed was finished.
type ParseError struct {
	Offset     int
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// IsIncomplete reports whether err is a parse error caused by running out of input.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

// FormatError renders a parse error as a snippet of src with a caret under the
// failing column. Other errors are returned as their plain message.
func FormatError(err error, name, src string) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}

	lines := strings.Split(src, "\n")
	line := min(max(pe.Line, 1), len(lines))
	col := max(pe.Col, 1)

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "PARSE ERROR in %s at %d:%d: %s\n\n", name, line, col, pe.Msg)
	} else {
		fmt.Fprintf(&b, "PARSE ERROR at %d:%d: %s\n\n", line, col, pe.Msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
