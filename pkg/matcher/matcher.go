// Package matcher is the public surface of the higher-order pattern
// matcher: expression constructors, constraints, and the solution
// streams consumed by the propositional validators.
package matcher

import (
	"context"

	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
	"github.com/funvibe/funmatch/internal/matching"
	"github.com/funvibe/funmatch/internal/notation"
)

// Expression model, re-exported for callers outside the module.
type (
	Expression  = expr.Expression
	Symbol      = expr.Symbol
	Application = expr.Application
	Binder      = expr.Binder
)

// Matching model.
type (
	Constraint   = matching.Constraint
	Substitution = matching.Substitution
	Solution     = matching.Solution
	Stream       = matching.Stream
	Options      = matching.Options
)

// ErrBudget is surfaced by streams whose search exceeded the step
// budget configured in Options.
var ErrBudget = matching.ErrBudget

// NewSymbol creates a plain symbol.
func NewSymbol(name string) *Symbol { return expr.NewSymbol(name) }

// NewMetavariable creates a symbol flagged as a metavariable.
func NewMetavariable(name string) *Symbol { return expr.NewMetavariable(name) }

// NewApplication creates an ordered application.
func NewApplication(children ...Expression) *Application {
	return expr.NewApplication(children...)
}

// NewBinder creates a named binding form.
func NewBinder(head *Symbol, bound []*Symbol, body Expression) *Binder {
	return expr.NewBinder(head, bound, body)
}

// NewEFA creates an expression function application f(args...).
func NewEFA(f *Symbol, args ...Expression) *Application {
	return expr.NewEFA(f, args...)
}

// ContainsAMetavariable reports whether e mentions any metavariable.
func ContainsAMetavariable(e Expression) bool {
	return expr.ContainsAMetavariable(e)
}

// IsFreeToReplace reports whether value could replace every occurrence
// of meta inside pattern without capture.
func IsFreeToReplace(value Expression, meta *Symbol, pattern Expression) bool {
	return matching.IsFreeToReplace(value, meta, pattern)
}

// Encode maps a named expression to its de Bruijn form; Decode is its
// inverse. Exposed for callers that compare expressions modulo
// α-equivalence.
func Encode(e Expression) (Expression, error) { return debruijn.Encode(e) }

// Decode restores a named expression from its de Bruijn form.
func Decode(e Expression) (Expression, error) { return debruijn.Decode(e) }

// NewConstraint validates a pattern/expression pair.
func NewConstraint(pattern, expression Expression) (*Constraint, error) {
	return matching.NewConstraint(pattern, expression)
}

// NewSubstitution validates a metavariable/expression pair.
func NewSubstitution(m *Symbol, value Expression) (*Substitution, error) {
	return matching.NewSubstitution(m, value)
}

// Solutions starts a lazy search over the constraints and returns its
// stream. For fixed inputs and options the stream is deterministic.
func Solutions(constraints []*Constraint, opts Options) *Stream {
	return matching.NewProblem(constraints...).Solutions(opts)
}

// FirstSolution drives a fresh stream to its first yield. ok is false
// when no solution exists; that outcome is a value, not an error.
func FirstSolution(ctx context.Context, constraints []*Constraint, opts Options) (sol *Solution, ok bool, err error) {
	return matching.NewProblem(constraints...).FirstSolution(ctx, opts)
}

// ReadExpression parses the canonical textual notation. It exists for
// tests and debugging; surface syntax is the business of the callers.
func ReadExpression(src string) (Expression, error) {
	return notation.Read(src)
}

// FormatConstraint renders the stable "(P, E)" debug representation.
func FormatConstraint(c *Constraint) string {
	return notation.FormatConstraint(c.Pattern(), c.Expression())
}
