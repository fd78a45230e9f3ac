package goquad

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFormulaBytes bounds formula text accepted by Compile.
const MaxFormulaBytes = 1024

// ParseError reports a lexical or syntax error at a 1-based column.
type ParseError struct {
	Col int
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("column %d: %s", e.Col, e.Msg) }

// ============================================================
// Lexer
// ============================================================

type tokenType int

const (
	tokEOF tokenType = iota
	tokNum
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow // "**" or "^"
	tokLParen
	tokRParen
	tokEq
	tokNeq
	tokLess
	tokLessEq
	tokGreater
	tokGreaterEq
	tokIf
	tokElse
	tokAnd
	tokOr
	tokNot
)

type token struct {
	typ tokenType
	lex string
	num float64
	col int
}

var keywords = map[string]tokenType{
	"if":   tokIf,
	"else": tokElse,
	"and":  tokAnd,
	"or":   tokOr,
	"not":  tokNot,
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	col := func(byteOff int) int { return utf8.RuneCountInString(src[:byteOff]) + 1 }
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9' || r == '.':
			start := i
			n, err := scanNumber(src, i)
			if err != nil {
				return nil, &ParseError{Col: col(start), Msg: err.Error()}
			}
			v, err := strconv.ParseFloat(src[start:n], 64)
			if err != nil {
				return nil, &ParseError{Col: col(start), Msg: fmt.Sprintf("bad number %q", src[start:n])}
			}
			toks = append(toks, token{typ: tokNum, lex: src[start:n], num: v, col: col(start)})
			i = n
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r2, s2 := utf8.DecodeRuneInString(src[i:])
				if r2 != '_' && !unicode.IsLetter(r2) && !unicode.IsDigit(r2) {
					break
				}
				i += s2
			}
			word := src[start:i]
			typ := tokIdent
			if kw, ok := keywords[word]; ok {
				typ = kw
			}
			toks = append(toks, token{typ: typ, lex: word, col: col(start)})
		default:
			typ, width := punct(src[i:])
			if width == 0 {
				return nil, &ParseError{Col: col(i), Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{typ: typ, lex: src[i : i+width], col: col(i)})
			i += width
		}
	}
	toks = append(toks, token{typ: tokEOF, col: col(len(src))})
	return toks, nil
}

func scanNumber(src string, i int) (int, error) {
	digits := func() int {
		n := 0
		for i < len(src) && src[i] >= '0' && src[i] <= '9' {
			i++
			n++
		}
		return n
	}
	intDigits := digits()
	fracDigits := 0
	if i < len(src) && src[i] == '.' {
		i++
		fracDigits = digits()
	}
	if intDigits+fracDigits == 0 {
		return i, fmt.Errorf("malformed number")
	}
	// Exponent only when digits follow, so "2*e" and "2e" stay distinct.
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && src[j] >= '0' && src[j] <= '9' {
			i = j
			digits()
		}
	}
	return i, nil
}

func punct(s string) (tokenType, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "**":
			return tokPow, 2
		case "==":
			return tokEq, 2
		case "!=":
			return tokNeq, 2
		case "<=":
			return tokLessEq, 2
		case ">=":
			return tokGreaterEq, 2
		}
	}
	switch s[0] {
	case '+':
		return tokPlus, 1
	case '-':
		return tokMinus, 1
	case '*':
		return tokStar, 1
	case '/':
		return tokSlash, 1
	case '^':
		return tokPow, 1
	case '(':
		return tokLParen, 1
	case ')':
		return tokRParen, 1
	case '<':
		return tokLess, 1
	case '>':
		return tokGreater, 1
	}
	return tokEOF, 0
}

// ============================================================
// Parser (Pratt)
// ============================================================

// Binding powers. Power is right-associative and binds tighter than unary
// minus, so -x**2 is -(x**2).
const (
	bpCond    = 10
	bpOr      = 20
	bpAnd     = 30
	bpNot     = 40
	bpCompare = 50
	bpSum     = 60
	bpProduct = 70
	bpUnary   = 80
	bpPow     = 90
)

func lbp(t tokenType) int {
	switch t {
	case tokIf:
		return bpCond
	case tokOr:
		return bpOr
	case tokAnd:
		return bpAnd
	case tokEq, tokNeq, tokLess, tokLessEq, tokGreater, tokGreaterEq:
		return bpCompare
	case tokPlus, tokMinus:
		return bpSum
	case tokStar, tokSlash:
		return bpProduct
	case tokPow:
		return bpPow
	}
	return 0
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.typ != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(tt tokenType, what string) (token, error) {
	t := p.next()
	if t.typ != tt {
		return t, p.errorf(t, "expected %s, found %s", what, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.typ == tokEOF {
		return "end of formula"
	}
	return strconv.Quote(t.lex)
}

// Parse builds an expression tree from formula text. Only the whitelisted
// grammar is accepted: the variable x, the constants pi and e, the
// elementary functions, arithmetic, comparisons, and/or/not and the
// conditional "A if C else B".
func Parse(src string) (Expr, error) {
	if len(src) > MaxFormulaBytes {
		return nil, &ParseError{Col: 1, Msg: fmt.Sprintf("formula longer than %d bytes", MaxFormulaBytes)}
	}
	if strings.TrimSpace(src) == "" {
		return nil, &ParseError{Col: 1, Msg: "empty formula"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	return e, nil
}

func (p *parser) expr(minBP int) (Expr, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		bp := lbp(t.typ)
		if bp <= minBP {
			return left, nil
		}
		p.next()
		switch t.typ {
		case tokIf:
			cond, err := p.expr(bpCond)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokElse, `"else"`); err != nil {
				return nil, err
			}
			els, err := p.expr(bpCond - 1)
			if err != nil {
				return nil, err
			}
			left = &Cond{then: left, cond: cond, els: els}
		case tokOr, tokAnd:
			right, err := p.expr(bp)
			if err != nil {
				return nil, err
			}
			left = &Logic{op: t.lex, l: left, r: right}
		case tokEq, tokNeq, tokLess, tokLessEq, tokGreater, tokGreaterEq:
			left, err = p.comparison(left, t)
			if err != nil {
				return nil, err
			}
		case tokPow:
			right, err := p.expr(bp - 1)
			if err != nil {
				return nil, err
			}
			left = &Binary{op: opPow, l: left, r: right}
		default:
			right, err := p.expr(bp)
			if err != nil {
				return nil, err
			}
			left = &Binary{op: binaryOps[t.typ], l: left, r: right}
		}
	}
}

var binaryOps = map[tokenType]string{
	tokPlus:  opAdd,
	tokMinus: opSub,
	tokStar:  opMul,
	tokSlash: opDiv,
}

// comparison parses a chain such as 0 < x <= 1 after its first operator.
func (p *parser) comparison(first Expr, op token) (Expr, error) {
	c := &Compare{args: []Expr{first}}
	for {
		right, err := p.expr(bpCompare)
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, op.lex)
		c.args = append(c.args, right)
		if lbp(p.peek().typ) != bpCompare {
			return c, nil
		}
		op = p.next()
	}
}

func (p *parser) prefix() (Expr, error) {
	t := p.next()
	switch t.typ {
	case tokNum:
		return &Num{val: t.num, text: t.lex}, nil
	case tokMinus:
		arg, err := p.expr(bpUnary)
		if err != nil {
			return nil, err
		}
		return &Neg{arg: arg}, nil
	case tokPlus:
		return p.expr(bpUnary)
	case tokNot:
		arg, err := p.expr(bpNot)
		if err != nil {
			return nil, err
		}
		return &Not{arg: arg}, nil
	case tokLParen:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		return p.identifier(t)
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

func (p *parser) identifier(t token) (Expr, error) {
	if _, ok := elementary[t.lex]; ok {
		if p.peek().typ != tokLParen {
			return nil, p.errorf(t, "function %s must be called with one argument", t.lex)
		}
		p.next()
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &Func{name: t.lex, arg: arg}, nil
	}
	if p.peek().typ == tokLParen {
		return nil, p.errorf(t, "unknown function %q", t.lex)
	}
	if t.lex == VarName {
		return &Sym{name: t.lex}, nil
	}
	if v, ok := constants[t.lex]; ok {
		return &Const{name: t.lex, val: v}, nil
	}
	return nil, p.errorf(t, "unknown identifier %q", t.lex)
}
