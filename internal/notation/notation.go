// Package notation implements the canonical textual form of
// expressions and constraints: metavariables rendered with a trailing
// "__", the EFA head as "@", the binder head as "λ", index markers as
// "#(i,j)", and binders as "(head [v₁ … vₙ] body)". The writer is the
// String method on the expression nodes; this package adds the
// constraint form "(P, E)" and the reader used by tests and fixtures.
package notation

import (
	"strings"
	"unicode"

	"github.com/funvibe/funmatch/internal/config"
	"github.com/funvibe/funmatch/internal/expr"
)

// FormatConstraint renders the stable debug representation of a
// pattern/expression pair.
func FormatConstraint(pattern, expression expr.Expression) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(pattern.String())
	sb.WriteString(", ")
	sb.WriteString(expression.String())
	sb.WriteByte(')')
	return sb.String()
}

// ReadConstraint parses the "(P, E)" form back into its two sides.
func ReadConstraint(src string) (expr.Expression, expr.Expression, error) {
	r := &reader{tokens: tokenize(src)}
	if err := r.expect("("); err != nil {
		return nil, nil, err
	}
	p, err := r.expression()
	if err != nil {
		return nil, nil, err
	}
	e, err := r.expression()
	if err != nil {
		return nil, nil, err
	}
	if err := r.expect(")"); err != nil {
		return nil, nil, err
	}
	if r.pos != len(r.tokens) {
		return nil, nil, expr.NewMalformedExpressionError("trailing input after constraint")
	}
	return p, e, nil
}

// Read parses a single expression in canonical notation.
func Read(src string) (expr.Expression, error) {
	r := &reader{tokens: tokenize(src)}
	e, err := r.expression()
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.tokens) {
		return nil, expr.NewMalformedExpressionError("trailing input after expression: %q", r.tokens[r.pos])
	}
	return e, nil
}

func tokenize(src string) []string {
	var tokens []string
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c) || c == ',':
			i++
		case c == '(' || c == ')' || c == '[' || c == ']':
			tokens = append(tokens, string(c))
			i++
		case c == '#' && i+1 < len(runes) && runes[i+1] == '(':
			// Marker atoms carry their own parentheses.
			j := i
			for j < len(runes) && runes[j] != ')' {
				j++
			}
			if j < len(runes) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && !strings.ContainsRune("()[],", runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		}
	}
	return tokens
}

type reader struct {
	tokens []string
	pos    int
}

func (r *reader) peek() string {
	if r.pos >= len(r.tokens) {
		return ""
	}
	return r.tokens[r.pos]
}

func (r *reader) next() string {
	t := r.peek()
	if t != "" {
		r.pos++
	}
	return t
}

func (r *reader) expect(tok string) error {
	if got := r.next(); got != tok {
		return expr.NewMalformedExpressionError("expected %q, got %q", tok, got)
	}
	return nil
}

func (r *reader) expression() (expr.Expression, error) {
	tok := r.next()
	switch tok {
	case "":
		return nil, expr.NewMalformedExpressionError("unexpected end of input")
	case ")", "[", "]":
		return nil, expr.NewMalformedExpressionError("unexpected %q", tok)
	case "(":
		return r.compound()
	default:
		return atom(tok)
	}
}

func (r *reader) compound() (expr.Expression, error) {
	first, err := r.expression()
	if err != nil {
		return nil, err
	}
	if r.peek() == "[" {
		return r.binder(first)
	}
	children := []expr.Expression{first}
	for r.peek() != ")" {
		if r.peek() == "" {
			return nil, expr.NewMalformedExpressionError("unclosed application")
		}
		c, err := r.expression()
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	r.next()
	return expr.NewApplication(children...), nil
}

func (r *reader) binder(head expr.Expression) (expr.Expression, error) {
	headSym, ok := head.(*expr.Symbol)
	if !ok {
		return nil, expr.NewMalformedExpressionError("binder head must be a symbol")
	}
	r.next() // consume '['
	var bound []*expr.Symbol
	for r.peek() != "]" {
		if r.peek() == "" {
			return nil, expr.NewMalformedExpressionError("unclosed bound-variable list")
		}
		v, err := atom(r.next())
		if err != nil {
			return nil, err
		}
		sym, ok := v.(*expr.Symbol)
		if !ok {
			return nil, expr.NewMalformedExpressionError("bound variable must be a symbol")
		}
		bound = append(bound, sym)
	}
	r.next() // consume ']'
	body, err := r.expression()
	if err != nil {
		return nil, err
	}
	if err := r.expect(")"); err != nil {
		return nil, err
	}
	return expr.NewBinder(headSym, bound, body), nil
}

func atom(tok string) (expr.Expression, error) {
	if strings.HasPrefix(tok, "#(") {
		return marker(tok)
	}
	if strings.HasSuffix(tok, config.MetaSuffix) && len(tok) > len(config.MetaSuffix) {
		return expr.NewMetavariable(strings.TrimSuffix(tok, config.MetaSuffix)), nil
	}
	return expr.NewSymbol(tok), nil
}

func marker(tok string) (expr.Expression, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "#("), ")")
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return nil, expr.NewMalformedExpressionError("bad marker %q", tok)
	}
	level, ok1 := parseIndex(strings.TrimSpace(parts[0]))
	pos, ok2 := parseIndex(strings.TrimSpace(parts[1]))
	if !ok1 || !ok2 {
		return nil, expr.NewMalformedExpressionError("bad marker %q", tok)
	}
	return expr.NewMarker(level, pos, ""), nil
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
