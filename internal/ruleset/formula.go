package ruleset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// The formula engine evaluates the small arithmetic expressions carried by
// regeneration rules, e.g. "pinnedPieceValue + (isPinnedToKing ? 1 : 0)" or
// "min(forkedPiecesValues)". It is a fixed grammar over named variables,
// never an eval of arbitrary code.
//
// Grammar (descending precedence):
//
//	ternary    := or ("?" ternary ":" ternary)?
//	or         := and ("||" and)*
//	and        := cmp ("&&" cmp)*
//	cmp        := sum (("<"|"<="|">"|">="|"=="|"!=") sum)?
//	sum        := term (("+"|"-") term)*
//	term       := unary (("*"|"/") unary)*
//	unary      := "-" unary | "!" unary | primary
//	primary    := number | ident | ident "(" args ")" | "(" ternary ")"
//
// Booleans are 0/1. Functions min, max, and sum accept a list variable or
// any number of scalar arguments.

// Env supplies variable bindings for evaluation.
type Env struct {
	Scalars map[string]float64
	Lists   map[string][]float64
}

// Formula is a compiled expression.
type Formula struct {
	src  string
	root node
}

// Compile parses an expression. Unknown syntax fails here; unknown
// identifiers fail at evaluation time.
func Compile(src string) (*Formula, error) {
	p := &parser{src: src}
	p.next()
	root, err := p.parseTernary()
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("formula %q: unexpected %q", src, p.tok.text)
	}
	return &Formula{src: src, root: root}, nil
}

// Eval evaluates the formula against the environment.
func (f *Formula) Eval(env Env) (float64, error) {
	return f.root.eval(env)
}

// EvalInt evaluates the formula and rounds the result half-up to an
// integer, the rounding rule used for all BP amounts.
func (f *Formula) EvalInt(env Env) (int, error) {
	v, err := f.root.eval(env)
	if err != nil {
		return 0, err
	}
	return RoundHalfUp(v), nil
}

// String returns the source expression.
func (f *Formula) String() string {
	return f.src
}

// RoundHalfUp rounds to the nearest integer with .5 going up.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

type node interface {
	eval(env Env) (float64, error)
}

type numNode float64

func (n numNode) eval(Env) (float64, error) { return float64(n), nil }

type varNode string

func (n varNode) eval(env Env) (float64, error) {
	if v, ok := env.Scalars[string(n)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown variable %q", string(n))
}

type unaryNode struct {
	op   byte
	expr node
}

func (n unaryNode) eval(env Env) (float64, error) {
	v, err := n.expr.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '-':
		return -v, nil
	case '!':
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown unary operator %q", string(n.op))
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(env Env) (float64, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "<":
		return boolVal(l < r), nil
	case "<=":
		return boolVal(l <= r), nil
	case ">":
		return boolVal(l > r), nil
	case ">=":
		return boolVal(l >= r), nil
	case "==":
		return boolVal(l == r), nil
	case "!=":
		return boolVal(l != r), nil
	case "&&":
		return boolVal(l != 0 && r != 0), nil
	case "||":
		return boolVal(l != 0 || r != 0), nil
	}
	return 0, fmt.Errorf("unknown operator %q", n.op)
}

type ternaryNode struct {
	cond, then, els node
}

func (n ternaryNode) eval(env Env) (float64, error) {
	c, err := n.cond.eval(env)
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return n.then.eval(env)
	}
	return n.els.eval(env)
}

type callNode struct {
	fn   string
	args []node // scalar arguments; empty if listArg is set
	list string // list variable name
}

func (n callNode) eval(env Env) (float64, error) {
	var values []float64
	if n.list != "" {
		if vs, ok := env.Lists[n.list]; ok {
			values = vs
		} else if v, ok := env.Scalars[n.list]; ok {
			values = []float64{v}
		} else {
			return 0, fmt.Errorf("unknown list variable %q", n.list)
		}
	} else {
		for _, a := range n.args {
			v, err := a.eval(env)
			if err != nil {
				return 0, err
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, nil
	}
	switch n.fn {
	case "min":
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case "max":
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	case "sum":
		var s float64
		for _, v := range values {
			s += v
		}
		return s, nil
	}
	return 0, fmt.Errorf("unknown function %q", n.fn)
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Lexer / parser.

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
}

type parser struct {
	src string
	pos int
	tok token
}

var twoCharOps = []string{"<=", ">=", "==", "!=", "&&", "||"}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos]}
	case unicode.IsLetter(rune(c)) || c == '_':
		start := p.pos
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos]}
	default:
		for _, op := range twoCharOps {
			if strings.HasPrefix(p.src[p.pos:], op) {
				p.pos += 2
				p.tok = token{kind: tokOp, text: op}
				return
			}
		}
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}
	}
}

func (p *parser) accept(text string) bool {
	if p.tok.kind == tokOp && p.tok.text == text {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return fmt.Errorf("expected %q, got %q", text, p.tok.text)
	}
	return nil
}

func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		right, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseCmp() (node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"<=", ">=", "==", "!=", "<", ">"} {
		if p.accept(op) {
			right, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			return binaryNode{op: op, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("+"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "+", left: left, right: right}
		case p.accept("-"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "-", left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "*", left: left, right: right}
		case p.accept("/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "/", left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.accept("-") {
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: '-', expr: expr}, nil
	}
	if p.accept("!") {
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: '!', expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.tok.text)
		}
		p.next()
		return numNode(v), nil

	case tokIdent:
		name := p.tok.text
		p.next()
		if !p.accept("(") {
			return varNode(name), nil
		}
		call := callNode{fn: name}
		if p.accept(")") {
			return call, nil
		}
		// A single identifier argument may be a list variable.
		if p.tok.kind == tokIdent {
			argName := p.tok.text
			save := *p
			p.next()
			if p.accept(")") {
				call.list = argName
				return call, nil
			}
			*p = save
		}
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, arg)
			if p.accept(")") {
				return call, nil
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}

	default:
		if p.accept("(") {
			expr, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
		return nil, fmt.Errorf("unexpected %q", p.tok.text)
	}
}
