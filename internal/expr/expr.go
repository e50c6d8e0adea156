// Package expr evaluates the small expression language used to compute note
// replacements. Expressions combine string and number literals, the
// arithmetic operators + - * / %, parentheses, identifiers resolved from a
// Scope, and the helpers num(x) and str(x). Nothing else is reachable.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSyntax    = errors.New("syntax error")
	ErrUndefined = errors.New("undefined identifier")
	ErrType      = errors.New("type error")
)

// Value is a string or a number.
type Value struct {
	str   string
	num   float64
	isNum bool
}

// String returns a string value.
func String(s string) Value { return Value{str: s} }

// Number returns a number value.
func Number(f float64) Value { return Value{num: f, isNum: true} }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.isNum }

// String renders v. Integral numbers print without a fraction.
func (v Value) String() string {
	if !v.isNum {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// Float converts v to a number.
func (v Value) Float() (float64, error) {
	if v.isNum {
		return v.num, nil
	}
	s := strings.TrimSpace(v.str)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrType, v.str)
	}
	return f, nil
}

// Scope maps identifiers, including dotted paths such as "entry.media.id",
// to values.
type Scope map[string]Value

// Program is a compiled expression.
type Program struct {
	root node
	src  string
}

// Compile parses src.
func Compile(src string) (*Program, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s", p.tok)
	}
	return &Program{root: root, src: src}, nil
}

// Eval evaluates the program against scope.
func (p *Program) Eval(scope Scope) (Value, error) {
	return p.root.eval(scope)
}

func (p *Program) String() string { return p.src }

// Eval compiles and evaluates src in one step.
func Eval(src string, scope Scope) (Value, error) {
	p, err := Compile(src)
	if err != nil {
		return Value{}, err
	}
	return p.Eval(scope)
}

type node interface {
	eval(Scope) (Value, error)
}

type literal struct{ v Value }

func (n literal) eval(Scope) (Value, error) { return n.v, nil }

type ident struct{ name string }

func (n ident) eval(s Scope) (Value, error) {
	v, ok := s[n.name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUndefined, n.name)
	}
	return v, nil
}

type neg struct{ x node }

func (n neg) eval(s Scope) (Value, error) {
	v, err := n.x.eval(s)
	if err != nil {
		return Value{}, err
	}
	f, err := v.Float()
	if err != nil {
		return Value{}, err
	}
	return Number(-f), nil
}

type binary struct {
	op   byte
	l, r node
}

func (n binary) eval(s Scope) (Value, error) {
	l, err := n.l.eval(s)
	if err != nil {
		return Value{}, err
	}
	r, err := n.r.eval(s)
	if err != nil {
		return Value{}, err
	}

	if n.op == '+' && (!l.isNum || !r.isNum) {
		return String(l.String() + r.String()), nil
	}

	a, err := l.Float()
	if err != nil {
		return Value{}, err
	}
	b, err := r.Float()
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case '+':
		return Number(a + b), nil
	case '-':
		return Number(a - b), nil
	case '*':
		return Number(a * b), nil
	case '/':
		if b == 0 {
			return Value{}, fmt.Errorf("%w: division by zero", ErrType)
		}
		return Number(a / b), nil
	case '%':
		if b == 0 {
			return Value{}, fmt.Errorf("%w: modulo by zero", ErrType)
		}
		return Number(math.Mod(a, b)), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.op)
	}
}

type call struct {
	name string
	arg  node
}

func (n call) eval(s Scope) (Value, error) {
	v, err := n.arg.eval(s)
	if err != nil {
		return Value{}, err
	}
	switch n.name {
	case "num":
		f, err := v.Float()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	default:
		return String(v.String()), nil
	}
}

var functions = map[string]bool{"num": true, "str": true}
