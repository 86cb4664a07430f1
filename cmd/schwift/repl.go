package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"schwift-lang/impl/internal/evaluator"
	"schwift-lang/impl/internal/parser"
	"schwift-lang/impl/internal/value"
)

const replHelp = `REPL commands:
  :vars    list variables and their values
  :help    show this help
  :quit    exit the REPL
A bare expression prints its value.
`

// session is one REPL run; the symbol table survives between entries.
type session struct {
	ev     *evaluator.Evaluator
	stdout io.Writer
	stderr io.Writer
}

// newSession reads program input from in. In the REPL that is a promptReader
// over the line editor, which already owns stdin.
func newSession(e *env, in io.Reader) *session {
	return &session{
		ev:     evaluator.New(e.stdout, in, evaluator.WithLogger(e.log)),
		stdout: e.stdout,
		stderr: e.stderr,
	}
}

// eval handles one complete entry and reports whether the REPL should exit.
func (s *session) eval(code string) (exit bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q":
			return true
		case ":help":
			fmt.Fprint(s.stdout, replHelp)
		case ":vars":
			for _, name := range s.ev.Names() {
				v, _ := s.ev.Lookup(name)
				fmt.Fprintf(s.stdout, "%s = %s\n", name, value.Repr(v))
			}
		default:
			fmt.Fprintln(s.stdout, "unknown command. Type :help for help.")
		}
		return false
	}

	prog, err := parser.ParseProgram(code)
	if err != nil {
		// Not a program; it may still be a bare expression.
		if expr, rest, eerr := parser.ParseExpression(code); eerr == nil && strings.TrimSpace(rest) == "" {
			v, err := s.ev.Evaluate(expr)
			if err != nil {
				fmt.Fprintln(s.stderr, "[Error]", err)
				return false
			}
			fmt.Fprintln(s.stdout, value.Repr(v))
			return false
		}
		fmt.Fprint(s.stderr, parser.FormatError(err, "", code))
		return false
	}
	if err := s.ev.Run(prog); err != nil {
		fmt.Fprintln(s.stderr, "[Error]", err)
	}
	return false
}

func runREPL(ctx context.Context, e *env) int {
	fmt.Fprintln(e.stdout, "schwift REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for help.")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := e.cfg.HistoryPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		} else {
			e.log.Warn("cannot write history", "path", histPath, "err", err)
		}
	}()

	s := newSession(e, &promptReader{p: ln})
	for ctx.Err() == nil {
		code, ok := readEntry(ln, e.cfg.REPL.Prompt, e.cfg.REPL.Continuation)
		if !ok {
			fmt.Fprintln(e.stdout)
			break
		}
		if s.eval(code) {
			break
		}
		if strings.TrimSpace(code) != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
	}
	return exitOK
}

// readEntry reads lines until they form a complete entry: continuation lines
// are requested while a block is still open.
func readEntry(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.ParseProgram(src); !parser.IsIncomplete(err) {
			return src, true
		}
	}
}

type prompter interface {
	Prompt(prompt string) (string, error)
}

// promptReader serves `portal gun` input from the line editor, one line per
// prompt with its newline restored. An aborted prompt reads as an empty line.
type promptReader struct {
	p   prompter
	buf []byte
}

func (r *promptReader) Read(b []byte) (int, error) {
	if len(r.buf) == 0 {
		line, err := r.p.Prompt("")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			line = ""
		case err != nil:
			return 0, err
		}
		r.buf = append(r.buf[:0], line...)
		r.buf = append(r.buf, '\n')
	}
	n := copy(b, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
