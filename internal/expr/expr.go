package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// -----------------------------------------------------------------------
// AST nodes
// -----------------------------------------------------------------------

// Expr is the common interface for all AST nodes.
type Expr interface {
	exprNode()
}

// LogicalExpr represents AND / OR.
type LogicalExpr struct {
	Op    string // "AND" | "OR"
	Left  Expr
	Right Expr
}

func (*LogicalExpr) exprNode() {}

// NotExpr represents NOT <expr>.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) exprNode() {}

// CompareExpr represents <expr> <operator> <expr>.
type CompareExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (*CompareExpr) exprNode() {}

// ArithExpr represents + - * / over two operands.
type ArithExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*ArithExpr) exprNode() {}

// NegExpr represents unary minus.
type NegExpr struct {
	Expr Expr
}

func (*NegExpr) exprNode() {}

// CallExpr represents a builtin function call like abs(x) or min(a, b).
type CallExpr struct {
	Fn   string
	Args []Expr
}

func (*CallExpr) exprNode() {}

// LiteralExpr holds a pre-parsed constant (float64, string or bool).
type LiteralExpr struct {
	Value interface{}
}

func (*LiteralExpr) exprNode() {}

// RefExpr references an input node by name.
type RefExpr struct {
	Name string
}

func (*RefExpr) exprNode() {}

// -----------------------------------------------------------------------
// Program
// -----------------------------------------------------------------------

// Program is a compiled expression. Compilation happens once at graph
// build time; evaluation resolves node references through an Env.
type Program struct {
	src  string
	root Expr
	refs []string
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q after expression", p.peek().val)
	}
	return &Program{src: src, root: root, refs: collectRefs(root)}, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.src }

// Refs returns the referenced node names in first-appearance order.
func (p *Program) Refs() []string {
	out := make([]string, len(p.refs))
	copy(out, p.refs)
	return out
}

func collectRefs(e Expr) []string {
	var refs []string
	seen := make(map[string]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *LogicalExpr:
			walk(n.Left)
			walk(n.Right)
		case *NotExpr:
			walk(n.Expr)
		case *CompareExpr:
			walk(n.Left)
			walk(n.Right)
		case *ArithExpr:
			walk(n.Left)
			walk(n.Right)
		case *NegExpr:
			walk(n.Expr)
		case *CallExpr:
			for _, a := range n.Args {
				walk(a)
			}
		case *RefExpr:
			if _, ok := seen[n.Name]; !ok {
				seen[n.Name] = struct{}{}
				refs = append(refs, n.Name)
			}
		}
	}
	walk(e)
	return refs
}

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier or keyword
	tokOp                      // ==, !=, >=, <=, >, <, +, -, *, /
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		ch := src[i]
		// Skip whitespace.
		if unicode.IsSpace(rune(ch)) {
			i++
			continue
		}
		// Parentheses and commas.
		if ch == '(' {
			tokens = append(tokens, token{tokLParen, "("})
			i++
			continue
		}
		if ch == ')' {
			tokens = append(tokens, token{tokRParen, ")"})
			i++
			continue
		}
		if ch == ',' {
			tokens = append(tokens, token{tokComma, ","})
			i++
			continue
		}
		// Comparison operators.
		if ch == '=' || ch == '!' || ch == '<' || ch == '>' {
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokOp, string(src[i : i+2])})
				i += 2
			} else {
				tokens = append(tokens, token{tokOp, string(ch)})
				i++
			}
			continue
		}
		// Arithmetic operators. '-' is only arithmetic when not
		// immediately followed by a digit (negative number literals are
		// handled below).
		if ch == '*' || ch == '/' || ch == '+' {
			tokens = append(tokens, token{tokOp, string(ch)})
			i++
			continue
		}
		if ch == '-' && (i+1 >= len(src) || !unicode.IsDigit(rune(src[i+1]))) {
			tokens = append(tokens, token{tokOp, string(ch)})
			i++
			continue
		}
		// String literals.
		if ch == '"' || ch == '\'' {
			quote := ch
			j := i + 1
			for j < len(src) && src[j] != quote {
				if src[j] == '\\' {
					j++ // skip escaped char
				}
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string starting at position %d", i)
			}
			inner := src[i+1 : j]
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			inner = strings.ReplaceAll(inner, `\\`, `\`)
			tokens = append(tokens, token{tokString, inner})
			i = j + 1
			continue
		}
		// Numbers.
		if unicode.IsDigit(rune(ch)) || (ch == '-' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))) {
			j := i
			if src[j] == '-' {
				j++
			}
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, src[i:j]})
			i = j
			continue
		}
		// Words (identifiers, keywords, AND/OR/NOT/contains/matches).
		if unicode.IsLetter(rune(ch)) || ch == '_' {
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_' || src[j] == '.') {
				j++
			}
			word := src[i:j]
			switch strings.ToLower(word) {
			case "true", "false":
				tokens = append(tokens, token{tokBool, strings.ToLower(word)})
			default:
				tokens = append(tokens, token{tokWord, word})
			}
			i = j
			continue
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
	}
	tokens = append(tokens, token{tokEOF, ""})
	return tokens, nil
}

// -----------------------------------------------------------------------
// Recursive-descent parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) expect(kind tokenKind, val string) error {
	t := p.peek()
	if t.kind != kind || (val != "" && t.val != val) {
		return fmt.Errorf("expected %q but got %q", val, t.val)
	}
	p.consume()
	return nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokWord && strings.ToUpper(p.peek().val) == "OR" {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// and_expr = not_expr ( "AND" not_expr )*
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokWord && strings.ToUpper(p.peek().val) == "AND" {
		p.consume()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

// not_expr = [ "NOT" ] comparison
func (p *parser) parseNot() (Expr, error) {
	if p.peek().kind == tokWord && strings.ToUpper(p.peek().val) == "NOT" {
		p.consume()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	return p.parseComparison()
}

// comparison = additive [ operator additive ]
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	var op Operator
	switch {
	case t.kind == tokOp && isComparisonOp(t.val):
		op = Operator(t.val)
		p.consume()
	case t.kind == tokWord && strings.ToLower(t.val) == "contains":
		op = OpContains
		p.consume()
	case t.kind == tokWord && strings.ToLower(t.val) == "matches":
		op = OpMatches
		p.consume()
	default:
		return left, nil
	}

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &CompareExpr{Left: left, Op: op, Right: right}, nil
}

func isComparisonOp(s string) bool {
	switch s {
	case "==", "!=", ">", ">=", "<", "<=":
		return true
	}
	return false
}

// additive = multiplicative ( ("+"|"-") multiplicative )*
func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().val == "+" || p.peek().val == "-") {
		op := p.consume().val
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ArithExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// multiplicative = unary ( ("*"|"/") unary )*
func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().val == "*" || p.peek().val == "/") {
		op := p.consume().val
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ArithExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// unary = [ "-" ] primary
func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokOp && p.peek().val == "-" {
		p.consume()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NegExpr{Expr: inner}, nil
	}
	return p.parsePrimary()
}

// primary = literal | ref | call | "(" or_expr ")"
func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokString:
		p.consume()
		return &LiteralExpr{Value: t.val}, nil
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.val)
		}
		return &LiteralExpr{Value: f}, nil
	case tokBool:
		p.consume()
		return &LiteralExpr{Value: t.val == "true"}, nil
	case tokWord:
		p.consume()
		// A word followed by '(' is a builtin call; anything else
		// references an input node by name.
		if p.peek().kind == tokLParen {
			return p.parseCall(t.val)
		}
		return &RefExpr{Name: t.val}, nil
	default:
		return nil, fmt.Errorf("expected operand, got %q", t.val)
	}
}

// call = fn "(" or_expr ( "," or_expr )* ")"
func (p *parser) parseCall(fn string) (Expr, error) {
	if !isBuiltin(fn) {
		return nil, fmt.Errorf("unknown function %q", fn)
	}
	p.consume() // '('
	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.consume()
		}
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &CallExpr{Fn: strings.ToLower(fn), Args: args}, nil
}
