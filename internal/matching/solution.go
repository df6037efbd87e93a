package matching

import (
	"strings"

	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
)

// Solution is a set of substitutions with pairwise disjoint domains.
// The solver accumulates one per branch; yielded solutions are fresh
// values restricted to the metavariables of the original constraints.
type Solution struct {
	order []string
	subs  map[string]*Substitution
}

// NewSolution returns the empty solution.
func NewSolution() *Solution {
	return &Solution{subs: map[string]*Substitution{}}
}

// Copy returns a deep copy; the branches of the search never share
// mutable state.
func (s *Solution) Copy() *Solution {
	out := &Solution{
		order: append([]string(nil), s.order...),
		subs:  make(map[string]*Substitution, len(s.subs)),
	}
	for name, sub := range s.subs {
		out.subs[name] = sub.Copy()
	}
	return out
}

// Lookup returns the substitution for the named metavariable, or nil.
func (s *Solution) Lookup(name string) *Substitution {
	return s.subs[name]
}

// Len returns the number of substitutions.
func (s *Solution) Len() int { return len(s.order) }

// Substitutions returns the substitutions in insertion order.
func (s *Solution) Substitutions() []*Substitution {
	out := make([]*Substitution, len(s.order))
	for i, name := range s.order {
		out[i] = s.subs[name]
	}
	return out
}

// compose folds a new substitution into the solution: every stored
// value has it applied (β-reducing as it goes), then the substitution
// itself is recorded. The caller has already ruled out a conflicting
// assignment.
func (s *Solution) compose(sub *Substitution) {
	for _, name := range s.order {
		if s.subs[name].Mentions(sub.Name()) {
			s.subs[name].Substitute(sub)
		}
	}
	s.order = append(s.order, sub.Name())
	s.subs[sub.Name()] = sub.Copy()
}

// Restrict returns a fresh solution containing only the substitutions
// for the named domain, in the receiver's insertion order.
func (s *Solution) Restrict(domain map[string]struct{}) *Solution {
	out := NewSolution()
	for _, name := range s.order {
		if _, ok := domain[name]; ok {
			out.order = append(out.order, name)
			out.subs[name] = s.subs[name].Copy()
		}
	}
	return out
}

// Assignments returns the decoded replacement expression for each
// metavariable name.
func (s *Solution) Assignments() (map[string]expr.Expression, error) {
	out := make(map[string]expr.Expression, len(s.subs))
	for name, sub := range s.subs {
		decoded, err := debruijn.Decode(sub.Value())
		if err != nil {
			return nil, err
		}
		out[name] = decoded
	}
	return out, nil
}

// Apply rewrites a named pattern with every substitution of the
// solution simultaneously, β-reduces, and decodes the result.
func (s *Solution) Apply(pattern expr.Expression) (expr.Expression, error) {
	p, err := debruijn.Encode(pattern)
	if err != nil {
		return nil, err
	}
	return debruijn.Decode(debruijn.BetaReduce(s.replaceAll(p)))
}

func (s *Solution) replaceAll(e expr.Expression) expr.Expression {
	if sym, ok := e.(*expr.Symbol); ok && sym.IsMetavariable() {
		if sub := s.subs[sym.Name]; sub != nil {
			return sub.Value().Copy()
		}
		return e.Copy()
	}
	switch e := e.(type) {
	case *expr.Application:
		children := make([]expr.Expression, len(e.Children))
		for i, c := range e.Children {
			children[i] = s.replaceAll(c)
		}
		return expr.NewApplication(children...)
	case *expr.Binder:
		out := e.Copy().(*expr.Binder)
		out.Body = s.replaceAll(e.Body)
		return out
	default:
		return e.Copy()
	}
}

// Equal reports whether two solutions assign structurally equal values
// to the same metavariables.
func (s *Solution) Equal(o *Solution) bool {
	if o == nil || len(s.subs) != len(o.subs) {
		return false
	}
	for name, sub := range s.subs {
		other := o.subs[name]
		if other == nil || !sub.Equal(other) {
			return false
		}
	}
	return true
}

func (s *Solution) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.subs[name].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
