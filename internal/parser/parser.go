package parser

import (
	"fmt"
	"strconv"
	"strings"

	"schwift-lang/impl/internal/lexer"
	"schwift-lang/impl/internal/value"
)

// Parser is a recursive-descent parser over the lexer's token stream. Each
// grammar rule is a method that consumes tokens on success and returns a
// *ParseError on failure.
type Parser struct {
	src  string
	toks []lexer.Token
	i    int
	open int // blocks entered but not yet closed
}

// New lexes src and returns a parser positioned at its first token.
func New(src string) *Parser {
	all := lexer.Lex(src)
	toks := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.Type != lexer.CMT {
			toks = append(toks, t)
		}
	}
	return &Parser{src: src, toks: toks}
}

// ParseInt parses an integer literal.
func ParseInt(src string) (int64, string, error) {
	p := New(src)
	n, err := p.parseInt()
	if err != nil {
		return 0, src, err
	}
	return n, p.Rest(), nil
}

// ParseString parses a double-quoted string literal.
func ParseString(src string) (value.Str, string, error) {
	p := New(src)
	s, err := p.parseString()
	if err != nil {
		return value.Str{}, src, err
	}
	return s, p.Rest(), nil
}

// ParseLiteral parses an integer, string or boolean literal.
func ParseLiteral(src string) (value.Value, string, error) {
	p := New(src)
	v, err := p.parseLiteral()
	if err != nil {
		return nil, src, err
	}
	return v, p.Rest(), nil
}

// ParseExpression parses one expression.
func ParseExpression(src string) (Expression, string, error) {
	p := New(src)
	e, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, src, err
	}
	return e, p.Rest(), nil
}

// ParseStatement parses one statement.
func ParseStatement(src string) (Statement, string, error) {
	p := New(src)
	st, err := p.parseStatement()
	if err != nil {
		return nil, src, err
	}
	return st, p.Rest(), nil
}

// ParseBlock parses a `:< ... >:` block.
func ParseBlock(src string) ([]Statement, string, error) {
	p := New(src)
	b, err := p.parseBlock()
	if err != nil {
		return nil, src, err
	}
	return b, p.Rest(), nil
}

// ParseProgram parses newline-separated statements up to the end of src.
func ParseProgram(src string) ([]Statement, error) {
	return New(src).ParseProgram()
}

// Rest returns the source text not yet consumed, starting at the next token.
func (p *Parser) Rest() string { return p.src[p.cur().Offset:] }

func (p *Parser) ParseProgram() ([]Statement, error) {
	stmts := make([]Statement, 0)
	p.skipNewlines()
	for p.cur().Type != lexer.EOF {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
		if t := p.cur(); t.Type != lexer.NEWLINE && t.Type != lexer.EOF {
			return nil, p.errorf(t, "expected end of line, found %s", describe(t))
		}
		p.skipNewlines()
	}
	return stmts, nil
}

func (p *Parser) cur() lexer.Token { return p.toks[p.i] }

func (p *Parser) next() lexer.Token {
	t := p.cur()
	if t.Type != lexer.EOF {
		p.i++
	}
	return t
}

func (p *Parser) match(typ string) bool {
	if p.cur().Type == typ {
		p.i++
		return true
	}
	return false
}

func (p *Parser) expect(typ string) (lexer.Token, error) {
	t := p.cur()
	if t.Type != typ {
		return t, p.errorf(t, "expected %q, found %s", typ, describe(t))
	}
	p.i++
	return t, nil
}

// expectWord consumes a non-reserved word that is part of a keyword phrase.
func (p *Parser) expectWord(word string) error {
	t := p.cur()
	if t.Type != lexer.ID || t.Lit != word {
		return p.errorf(t, "expected %q, found %s", word, describe(t))
	}
	p.i++
	return nil
}

func (p *Parser) expectName() (string, error) {
	t := p.cur()
	if t.Type != lexer.ID {
		return "", p.errorf(t, "expected variable name, found %s", describe(t))
	}
	p.i++
	return t.Lit, nil
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.NEWLINE) {
	}
}

func (p *Parser) errorf(t lexer.Token, format string, args ...any) error {
	return &ParseError{
		Offset:     t.Offset,
		Line:       t.Line,
		Col:        t.Col,
		Msg:        fmt.Sprintf(format, args...),
		Incomplete: (t.Type == lexer.EOF && p.open > 0) || unterminated(t),
	}
}

// unterminated reports a string literal that ran into the end of input.
func unterminated(t lexer.Token) bool {
	return t.Type == lexer.ILLEGAL && strings.HasPrefix(t.Lit, `"`)
}

func describe(t lexer.Token) string {
	switch t.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.NEWLINE:
		return "end of line"
	case lexer.ILLEGAL:
		if unterminated(t) {
			return "unterminated string"
		}
		return fmt.Sprintf("unexpected character %q", t.Lit)
	default:
		return fmt.Sprintf("%q", t.Lit)
	}
}

func (p *Parser) parseStatement() (Statement, error) {
	t := p.cur()
	switch t.Type {
	case "SHOW":
		p.next()
		for _, w := range []string{"me", "what", "you", "got"} {
			if err := p.expectWord(w); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		return Print{Expr: e}, nil
	case "PORTAL":
		p.next()
		if err := p.expectWord("gun"); err != nil {
			return nil, err
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return Input{Name: name}, nil
	case "RUBBISH":
		p.next()
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return Delete{Name: name}, nil
	case "SQUANCH":
		p.next()
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		return ListDelete{Name: name, Index: idx}, nil
	case "WHILE":
		return p.parseWhile()
	case "IF":
		return p.parseIf()
	case "NORMAL":
		return p.parseCatch()
	case lexer.ID:
		return p.parseNamedStatement()
	default:
		return nil, p.errorf(t, "expected statement, found %s", describe(t))
	}
}

// parseNamedStatement handles statements that start with a variable name.
func (p *Parser) parseNamedStatement() (Statement, error) {
	name := p.next().Lit
	t := p.cur()
	switch t.Type {
	case "ON":
		p.next()
		if err := p.expectWord("a"); err != nil {
			return nil, err
		}
		if err := p.expectWord("cob"); err != nil {
			return nil, err
		}
		return ListNew{Name: name}, nil
	case "ASSIMILATE":
		p.next()
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		return ListAppend{Name: name, Value: e}, nil
	case lexer.LBRACK:
		idx, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("SQUANCH"); err != nil {
			return nil, err
		}
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		return ListAssign{Name: name, Index: idx, Value: e}, nil
	case "SQUANCH":
		p.next()
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		return Assignment{Name: name, Value: e}, nil
	default:
		return nil, p.errorf(t, "expected 'squanch', 'assimilate', 'on a cob' or '[' after %q, found %s", name, describe(t))
	}
}

// parseWhile and parseIf count as open from the keyword on, so input that
// stops inside the condition is incomplete rather than malformed.
func (p *Parser) parseWhile() (Statement, error) {
	p.next()
	p.open++
	defer func() { p.open-- }()
	cond, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseIf() (Statement, error) {
	p.next()
	p.open++
	defer func() { p.open-- }()
	cond, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	// else may sit on a later line; rewind if it does not follow.
	save := p.i
	p.skipNewlines()
	if !p.match("ELSE") {
		p.i = save
		return If{Cond: cond, Then: then}, nil
	}
	els, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseCatch() (Statement, error) {
	p.next()
	p.open++
	defer func() { p.open-- }()
	if _, err := p.expect("PLAN"); err != nil {
		return nil, err
	}
	try, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect("PLAN"); err != nil {
		return nil, err
	}
	if err := p.expectWord("b"); err != nil {
		return nil, err
	}
	catch, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return Catch{Try: try, Catch: catch}, nil
}

// parseBlock parses `:<` statements `>:`. Blank lines anywhere inside the
// block are skipped.
func (p *Parser) parseBlock() ([]Statement, error) {
	if _, err := p.expect(lexer.OPEN); err != nil {
		return nil, err
	}
	p.open++
	defer func() { p.open-- }()

	stmts := make([]Statement, 0)
	p.skipNewlines()
	for p.cur().Type != lexer.CLOSE {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
		t := p.cur()
		if t.Type != lexer.NEWLINE && t.Type != lexer.CLOSE {
			return nil, p.errorf(t, "expected end of line or '>:', found %s", describe(t))
		}
		p.skipNewlines()
	}
	p.next()
	return stmts, nil
}

// parseIndex parses `[` expression `]`.
func (p *Parser) parseIndex() (Expression, error) {
	if _, err := p.expect(lexer.LBRACK); err != nil {
		return nil, err
	}
	idx, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACK); err != nil {
		return nil, err
	}
	return idx, nil
}

// Precedence values (higher binds tighter)
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precAdd
)

func binaryOperator(t lexer.Token) (Operator, int, bool) {
	switch t.Type {
	case "OR":
		return Or, precOr, true
	case "AND":
		return And, precAnd, true
	case lexer.EQ:
		return Equality, precEquality, true
	case lexer.PLUS:
		return Add, precAdd, true
	default:
		return 0, 0, false
	}
}

func (p *Parser) parseExpression(minPrec int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec, ok := binaryOperator(p.cur())
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = BinaryOperator{Left: left, Op: op, Right: right}
	}
}

// parseUnary handles `!`. Its operand extends over a whole equality
// comparison, so `!x == y` negates the comparison while `!x and y` negates x.
func (p *Parser) parseUnary() (Expression, error) {
	if !p.match(lexer.BANG) {
		return p.parsePrimary()
	}
	operand, err := p.parseExpression(precEquality)
	if err != nil {
		return nil, err
	}
	return Not{Expr: operand}, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	t := p.cur()
	switch t.Type {
	case lexer.INT, lexer.STR, "TRUE", "FALSE":
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	case lexer.ID:
		p.next()
		switch p.cur().Type {
		case lexer.LBRACK:
			idx, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			return ListIndex{Name: t.Lit, Index: idx}, nil
		case "SQUANCH":
			p.next()
			return ListLength{Name: t.Lit}, nil
		}
		return Variable{Name: t.Lit}, nil
	case lexer.LPAREN:
		p.next()
		e, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf(t, "expected expression, found %s", describe(t))
	}
}

func (p *Parser) parseLiteral() (value.Value, error) {
	t := p.cur()
	switch t.Type {
	case lexer.INT:
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		return value.Int{V: n}, nil
	case lexer.STR, lexer.ILLEGAL:
		return p.parseString()
	case "TRUE":
		p.next()
		return value.Bool{V: true}, nil
	case "FALSE":
		p.next()
		return value.Bool{V: false}, nil
	default:
		return nil, p.errorf(t, "expected literal, found %s", describe(t))
	}
}

func (p *Parser) parseInt() (int64, error) {
	t := p.cur()
	if t.Type != lexer.INT {
		return 0, p.errorf(t, "expected integer, found %s", describe(t))
	}
	n, err := strconv.ParseInt(t.Lit, 10, 64)
	if err != nil {
		return 0, p.errorf(t, "integer literal %s out of range", t.Lit)
	}
	p.next()
	return n, nil
}

// parseString takes the characters between the quotes verbatim.
func (p *Parser) parseString() (value.Str, error) {
	t := p.cur()
	if t.Type != lexer.STR {
		return value.Str{}, p.errorf(t, "expected string, found %s", describe(t))
	}
	p.next()
	return value.Str{V: t.Lit[1 : len(t.Lit)-1]}, nil
}
