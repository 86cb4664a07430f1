package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"schwift-lang/impl/internal/config"
	"schwift-lang/impl/internal/evaluator"
	"schwift-lang/impl/internal/lexer"
	"schwift-lang/impl/internal/parser"
)

// Exit codes.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

// env carries the process collaborators so commands can be driven from tests.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	log    *slog.Logger
}

type tokenOut struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

func printTokens(e *env, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitUsage
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetEscapeHTML(false)
	for _, t := range lexer.Lex(string(data)) {
		if err := enc.Encode(tokenOut{Type: t.Type, Value: t.Lit, Line: t.Line, Col: t.Col}); err != nil {
			fmt.Fprintln(e.stderr, "[Error]", err)
			return exitRuntime
		}
	}
	return exitOK
}

func printAST(e *env, args []string) int {
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: schwift ast [-format json|yaml] <file>")
		return exitUsage
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitUsage
	}
	src := string(data)
	prog, err := parser.ParseProgram(src)
	if err != nil {
		fmt.Fprint(e.stderr, parser.FormatError(err, path, src))
		return exitUsage
	}

	tree := parser.Dump(prog)
	switch *format {
	case "json":
		enc := json.NewEncoder(e.stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(tree)
	case "yaml":
		enc := yaml.NewEncoder(e.stdout)
		enc.SetIndent(2)
		if err = enc.Encode(tree); err == nil {
			err = enc.Close()
		}
	default:
		fmt.Fprintf(e.stderr, "unknown format %q\n", *format)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitRuntime
	}
	return exitOK
}

func runFile(e *env, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitUsage
	}
	return runSource(e, path, string(data))
}

// runSource parses and runs src with a fresh evaluator.
func runSource(e *env, name, src string) int {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		fmt.Fprint(e.stderr, parser.FormatError(err, name, src))
		return exitUsage
	}
	e.log.Debug("parsed program", "file", name, "statements", len(prog))
	ev := evaluator.New(e.stdout, e.stdin, evaluator.WithLogger(e.log))
	if err := ev.Run(prog); err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitRuntime
	}
	return exitOK
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func usage(w io.Writer, prog string) {
	fmt.Fprintf(w, `Usage: %s [-config file] [-log-level level] <command>

Commands:
  <file>                      run a program
  run <file>                  run a program
  tokens <file>               print the token stream as JSON lines
  ast [-format json|yaml] <file>
                              print the syntax tree
  repl                        start an interactive session
  watch <file>                run a program and rerun it whenever it changes
`, filepath.Base(prog))
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, args[0]) }
	cfgPath := fs.String("config", "", "path to a YAML config file")
	logLevel := fs.String("log-level", "", "override the configured log level")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, "[Error]", err)
		return exitUsage
	}
	if *logLevel != "" {
		if _, err := config.ParseLevel(*logLevel); err != nil {
			fmt.Fprintln(stderr, "[Error]", err)
			return exitUsage
		}
		cfg.Log.Level = *logLevel
	}
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, cfg: cfg, log: newLogger(cfg, stderr)}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, args[0])
		return exitUsage
	}
	needFile := func() (string, bool) {
		if len(rest) != 2 {
			usage(stderr, args[0])
			return "", false
		}
		return rest[1], true
	}

	switch rest[0] {
	case "tokens":
		path, ok := needFile()
		if !ok {
			return exitUsage
		}
		return printTokens(e, path)
	case "ast":
		return printAST(e, rest[1:])
	case "run":
		path, ok := needFile()
		if !ok {
			return exitUsage
		}
		return runFile(e, path)
	case "repl":
		return runREPL(ctx, e)
	case "watch":
		path, ok := needFile()
		if !ok {
			return exitUsage
		}
		return watchFile(ctx, e, path)
	default:
		if len(rest) != 1 {
			usage(stderr, args[0])
			return exitUsage
		}
		return runFile(e, rest[0])
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
