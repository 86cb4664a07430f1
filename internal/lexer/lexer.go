package lexer

import (
	"strings"
	"unicode/utf8"

	"schwift-lang/impl/internal/value"
)

// Token is one lexeme. Offset is the byte offset of Lit in the source; Line and
// Col are 1-based.
type Token struct {
	Type   string
	Lit    string
	Offset int
	Line   int
	Col    int
}

// Token types. Symbols use their own spelling as the type.
const (
	INT     = "INT"
	STR     = "STR"
	ID      = "ID"
	NEWLINE = "NEWLINE"
	CMT     = "CMT"
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	OPEN   = ":<"
	CLOSE  = ">:"
	LBRACK = "["
	RBRACK = "]"
	LPAREN = "("
	RPAREN = ")"
	PLUS   = "+"
	EQ     = "=="
	BANG   = "!"
)

var keywords = map[string]string{
	"squanch":      "SQUANCH",
	"assimilate":   "ASSIMILATE",
	"on":           "ON",
	"show":         "SHOW",
	"portal":       "PORTAL",
	"rubbish":      "RUBBISH",
	"while":        "WHILE",
	"if":           "IF",
	"else":         "ELSE",
	"normal":       "NORMAL",
	"plan":         "PLAN",
	"and":          "AND",
	"or":           "OR",
	value.TrueLit:  "TRUE",
	value.FalseLit: "FALSE",
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// Lex converts source into a flat token stream terminated by an EOF token.
// Lexing never fails: unknown characters and unterminated strings become
// ILLEGAL tokens and are reported by the parser if it reaches them. An
// unterminated string runs to the end of input.
func Lex(src string) []Token {
	var out []Token
	i := 0
	n := len(src)
	line, col := 1, 1

	// emit records src[i:end] and moves past it. Only newlines and string
	// literals contain line breaks.
	emit := func(typ string, end int) {
		lit := src[i:end]
		out = append(out, Token{Type: typ, Lit: lit, Offset: i, Line: line, Col: col})
		if nl := strings.LastIndexByte(lit, '\n'); nl >= 0 {
			line += strings.Count(lit, "\n")
			col = 1 + utf8.RuneCountInString(lit[nl+1:])
		} else {
			col += utf8.RuneCountInString(lit)
		}
		i = end
	}

	for i < n {
		ch := src[i]

		if ch == '\n' {
			emit(NEWLINE, i+1)
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			i++
			col++
			continue
		}

		// Line comment: // ... to end of line (without newline)
		if ch == '/' && i+1 < n && src[i+1] == '/' {
			j := i
			for j < n && src[j] != '\n' {
				j++
			}
			emit(CMT, j)
			continue
		}

		// Strings run to the closing quote, across lines if need be.
		if ch == '"' {
			j := i + 1
			for j < n && src[j] != '"' {
				j++
			}
			typ := ILLEGAL
			if j < n && src[j] == '"' {
				j++
				typ = STR
			}
			emit(typ, j)
			continue
		}

		if isDigit(ch) {
			j := i
			for j < n && isDigit(src[j]) {
				j++
			}
			emit(INT, j)
			continue
		}

		if isIdentStart(ch) {
			j := i + 1
			for j < n && isIdentPart(src[j]) {
				j++
			}
			typ := ID
			if kw, ok := keywords[src[i:j]]; ok {
				typ = kw
			}
			emit(typ, j)
			continue
		}

		two := ""
		if i+1 < n {
			two = src[i : i+2]
		}
		switch two {
		case OPEN, CLOSE, EQ:
			emit(two, i+2)
			continue
		}

		switch ch {
		case '[', ']', '(', ')', '+', '!':
			emit(string(ch), i+1)
			continue
		}

		// Unknown character: one ILLEGAL token per rune.
		_, size := utf8.DecodeRuneInString(src[i:])
		emit(ILLEGAL, i+size)
	}

	out = append(out, Token{Type: EOF, Offset: n, Line: line, Col: col})
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
