package matching

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/funmatch/internal/expr"
)

// Options tunes a single search.
type Options struct {
	// MaxSolutions truncates the stream after this many yields.
	// Zero means unbounded.
	MaxSolutions int

	// StepBudget aborts the search with ErrBudget after this many
	// dispatch steps. Zero means unbudgeted.
	StepBudget int

	// Direct restricts EFA enumeration to the projection and imitation
	// chains; the constant branch is only tried where the pruning data
	// forces it.
	Direct bool

	// Trace receives per-step triage and branching records. Nil
	// disables tracing entirely.
	Trace *logrus.Logger
}

// Problem is a mutable set of constraints searched for simultaneous
// solutions. A problem is built, searched, and discarded; the working
// state of a search lives in its streams, so several streams over one
// problem do not interfere.
type Problem struct {
	constraints []*Constraint
	domain      map[string]struct{}
}

// NewProblem creates a problem over the given constraints.
func NewProblem(constraints ...*Constraint) *Problem {
	p := &Problem{domain: map[string]struct{}{}}
	p.Add(constraints...)
	return p
}

// Add appends constraints, extending the metavariable domain that
// yielded solutions are restricted to.
func (p *Problem) Add(constraints ...*Constraint) {
	for _, c := range constraints {
		if c == nil {
			continue
		}
		p.constraints = append(p.constraints, c)
		for _, name := range expr.Metavariables(c.Pattern()) {
			p.domain[name] = struct{}{}
		}
	}
}

// Constraints returns the problem's constraint list.
func (p *Problem) Constraints() []*Constraint {
	return append([]*Constraint(nil), p.constraints...)
}

// Solutions starts a lazy search and returns its stream. The stream is
// deterministic for a fixed constraint list and options.
func (p *Problem) Solutions(opts Options) *Stream {
	domain := make(map[string]struct{}, len(p.domain))
	for name := range p.domain {
		domain[name] = struct{}{}
	}
	initial := &searchState{
		constraints: append([]*Constraint(nil), p.constraints...),
		solution:    NewSolution(),
	}
	return &Stream{
		stack:  []*searchState{initial},
		domain: domain,
		opts:   opts,
	}
}

// FirstSolution drives a fresh stream to its first yield. The second
// return is false when the stream is exhausted without a solution;
// that outcome is a value, not an error.
func (p *Problem) FirstSolution(ctx context.Context, opts Options) (*Solution, bool, error) {
	return p.Solutions(opts).Next(ctx)
}
