/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package query parses and evaluates the SQL subset the emulator engines
// execute: SELECT * FROM <alias> with an optional WHERE clause of
// comparisons (=, !=, <>, <, <=, >, >=) over property paths and literals,
// combined with AND, OR, NOT, and parentheses.
//
// Evaluation is three-valued: a property reference that is absent, or a
// comparison across mismatched types, yields undefined rather than an
// error, and a document matches only when the whole clause evaluates to
// true. This mirrors how the store treats missing properties.
package query

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/suparena/docstore/internal/keypath"
)

// Query is a parsed query ready for evaluation.
type Query struct {
	alias  string
	filter expr
}

// Parse compiles query text. It returns an error when the text falls
// outside the supported subset.
func Parse(text string) (*Query, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	if err := p.keyword("SELECT"); err != nil {
		return nil, err
	}
	if p.peek().kind != tokStar {
		return nil, fmt.Errorf("only SELECT * projections are supported")
	}
	p.next()
	if err := p.keyword("FROM"); err != nil {
		return nil, err
	}
	alias := p.next()
	if alias.kind != tokIdent || isKeyword(alias.text) {
		return nil, fmt.Errorf("expected source alias after FROM, got %q", alias.text)
	}

	q := &Query{alias: alias.text}
	if tok := p.peek(); tok.kind == tokIdent && strings.EqualFold(tok.text, "WHERE") {
		p.next()
		filter, err := p.parseOr(q.alias)
		if err != nil {
			return nil, err
		}
		q.filter = filter
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after query", tok.text)
	}
	return q, nil
}

// Matches reports whether doc satisfies the query's WHERE clause. A query
// without one matches every document.
func (q *Query) Matches(doc map[string]any) bool {
	if q.filter == nil {
		return true
	}
	b, ok := q.filter.eval(doc).(bool)
	return ok && b
}

// Three-valued logic: eval returns a bool or undefined.

type undefinedType struct{}

var undefined = undefinedType{}

type expr interface {
	eval(doc map[string]any) any
}

type literal struct {
	val any
}

func (l literal) eval(map[string]any) any { return l.val }

type property struct {
	path string
}

func (p property) eval(doc map[string]any) any {
	v, ok := keypath.Get(doc, p.path)
	if !ok {
		return undefined
	}
	return v
}

type comparison struct {
	op   string
	l, r expr
}

func (c comparison) eval(doc map[string]any) any {
	return compare(c.op, c.l.eval(doc), c.r.eval(doc))
}

type logical struct {
	op   string // AND, OR
	l, r expr
}

func (g logical) eval(doc map[string]any) any {
	lv, lok := g.l.eval(doc).(bool)
	rv, rok := g.r.eval(doc).(bool)
	if g.op == "AND" {
		if (lok && !lv) || (rok && !rv) {
			return false
		}
		if lok && rok {
			return true
		}
		return undefined
	}
	if (lok && lv) || (rok && rv) {
		return true
	}
	if lok && rok {
		return false
	}
	return undefined
}

type negation struct {
	inner expr
}

func (n negation) eval(doc map[string]any) any {
	if b, ok := n.inner.eval(doc).(bool); ok {
		return !b
	}
	return undefined
}

func compare(op string, l, r any) any {
	if _, ok := l.(undefinedType); ok {
		return undefined
	}
	if _, ok := r.(undefinedType); ok {
		return undefined
	}
	if l == nil || r == nil {
		if l != nil || r != nil {
			return undefined
		}
		switch op {
		case "=":
			return true
		case "!=", "<>":
			return false
		}
		return undefined
	}
	switch lv := l.(type) {
	case float64:
		if rv, ok := r.(float64); ok {
			return ordered(op, lv, rv)
		}
	case string:
		if rv, ok := r.(string); ok {
			return ordered(op, lv, rv)
		}
	case bool:
		if rv, ok := r.(bool); ok {
			switch op {
			case "=":
				return lv == rv
			case "!=", "<>":
				return lv != rv
			}
		}
	}
	return undefined
}

func ordered[T cmp.Ordered](op string, l, r T) any {
	switch op {
	case "=":
		return l == r
	case "!=", "<>":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return undefined
}

// Parser

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) keyword(kw string) error {
	tok := p.next()
	if tok.kind != tokIdent || !strings.EqualFold(tok.text, kw) {
		return fmt.Errorf("expected %s, got %q", kw, tok.text)
	}
	return nil
}

func isKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "TRUE", "FALSE", "NULL":
		return true
	}
	return false
}

func (p *parser) parseOr(alias string) (expr, error) {
	left, err := p.parseAnd(alias)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokIdent || !strings.EqualFold(tok.text, "OR") {
			return left, nil
		}
		p.next()
		right, err := p.parseAnd(alias)
		if err != nil {
			return nil, err
		}
		left = logical{op: "OR", l: left, r: right}
	}
}

func (p *parser) parseAnd(alias string) (expr, error) {
	left, err := p.parseNot(alias)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokIdent || !strings.EqualFold(tok.text, "AND") {
			return left, nil
		}
		p.next()
		right, err := p.parseNot(alias)
		if err != nil {
			return nil, err
		}
		left = logical{op: "AND", l: left, r: right}
	}
}

func (p *parser) parseNot(alias string) (expr, error) {
	if tok := p.peek(); tok.kind == tokIdent && strings.EqualFold(tok.text, "NOT") {
		p.next()
		inner, err := p.parseNot(alias)
		if err != nil {
			return nil, err
		}
		return negation{inner: inner}, nil
	}
	return p.parsePrimary(alias)
}

func (p *parser) parsePrimary(alias string) (expr, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr(alias)
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokRParen {
			return nil, fmt.Errorf("expected closing parenthesis, got %q", tok.text)
		}
		return inner, nil
	}

	left, err := p.parseOperand(alias)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokOp {
		p.next()
		right, err := p.parseOperand(alias)
		if err != nil {
			return nil, err
		}
		return comparison{op: tok.text, l: left, r: right}, nil
	}
	return left, nil
}

func (p *parser) parseOperand(alias string) (expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return literal{val: tok.text}, nil
	case tokNumber:
		return literal{val: tok.num}, nil
	case tokIdent:
		switch strings.ToUpper(tok.text) {
		case "TRUE":
			return literal{val: true}, nil
		case "FALSE":
			return literal{val: false}, nil
		case "NULL":
			return literal{val: nil}, nil
		}
		if tok.text != alias {
			return nil, fmt.Errorf("unknown source %q, query is over %q", tok.text, alias)
		}
		var segs []string
		for p.peek().kind == tokDot {
			p.next()
			seg := p.next()
			if seg.kind != tokIdent {
				return nil, fmt.Errorf("expected property name after '.', got %q", seg.text)
			}
			segs = append(segs, seg.text)
		}
		if len(segs) == 0 {
			return nil, fmt.Errorf("bare source alias %q cannot be compared", alias)
		}
		return property{path: strings.Join(segs, ".")}, nil
	default:
		return nil, fmt.Errorf("unexpected %q in expression", tok.text)
	}
}

// Lexer

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokDot
	tokStar
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func lex(text string) ([]token, error) {
	var toks []token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, text: "*"})
			i++
		case c == '.':
			toks = append(toks, token{kind: tokDot, text: "."})
			i++
		case c == '=', c == '<', c == '>', c == '!':
			op := string(c)
			i++
			if i < len(runes) && (runes[i] == '=' || (c == '<' && runes[i] == '>')) {
				op += string(runes[i])
				i++
			}
			if op == "!" {
				return nil, fmt.Errorf("unexpected character %q", op)
			}
			toks = append(toks, token{kind: tokOp, text: op})
		case c == '\'' || c == '"':
			quote := c
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
		case unicode.IsDigit(c) || (c == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: num})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	return toks, nil
}
