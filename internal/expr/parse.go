package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '.'
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case strings.ContainsRune("+-*/%(),", r):
		l.pos += size
		return token{kind: tokOp, text: string(r), pos: start}, nil

	case r == '"' || r == '\'':
		return l.lexString(r)

	case unicode.IsDigit(r) || (r == '.' && l.pos+1 < len(l.src) && unicode.IsDigit(rune(l.src[l.pos+1]))):
		for l.pos < len(l.src) {
			c := rune(l.src[l.pos])
			if !unicode.IsDigit(c) && c != '.' {
				break
			}
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], pos: start}, nil

	case isIdentStart(r):
		for l.pos < len(l.src) {
			c, n := utf8.DecodeRuneInString(l.src[l.pos:])
			if !isIdentPart(c) {
				break
			}
			l.pos += n
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
	}

	return token{}, fmt.Errorf("%w at %d: unexpected character %q", ErrSyntax, start, r)
}

func (l *lexer) lexString(quote rune) (token, error) {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case rune(c) == quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case c == '\\' && l.pos+1 < len(l.src):
			l.pos++
			switch e := l.src[l.pos]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(e)
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("%w at %d: unterminated string", ErrSyntax, start)
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at %d: %s", ErrSyntax, p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *parser) isOp(op string) bool {
	return p.tok.kind == tokOp && p.tok.text == op
}

// expr := term (("+" | "-") term)*
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, l: left, r: right}
	}
	return left, nil
}

// term := unary (("*" | "/" | "%") unary)*
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, l: left, r: right}
	}
	return left, nil
}

// unary := "-" unary | primary
func (p *parser) parseUnary() (node, error) {
	if p.isOp("-") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return neg{x: x}, nil
	}
	return p.parsePrimary()
}

// primary := number | string | ident | ident "(" expr ")" | "(" expr ")"
func (p *parser) parsePrimary() (node, error) {
	tok := p.tok

	switch tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", tok.text)
		}
		return literal{v: Number(f)}, p.advance()

	case tokString:
		return literal{v: String(tok.text)}, p.advance()

	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.isOp("(") {
			return ident{name: tok.text}, nil
		}
		if !functions[tok.text] {
			return nil, fmt.Errorf("%w at %d: unknown function %s", ErrSyntax, tok.pos, tok.text)
		}
		arg, err := p.parseParen()
		if err != nil {
			return nil, err
		}
		return call{name: tok.text, arg: arg}, nil

	case tokOp:
		if tok.text == "(" {
			return p.parseParen()
		}
	}

	return nil, p.errorf("unexpected %s", tok)
}

func (p *parser) parseParen() (node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(")") {
		return nil, p.errorf("expected \")\", got %s", p.tok)
	}
	return x, p.advance()
}
