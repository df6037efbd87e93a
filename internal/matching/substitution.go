package matching

import (
	"fmt"

	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
)

// Substitution is a metavariable/expression pair that rewrites
// patterns. Only Substitute changes it, rewriting the value in place.
// The value is held in de Bruijn form; the set of metavariable names
// occurring in it is cached.
type Substitution struct {
	metavariable *expr.Symbol
	value        expr.Expression
	metaNames    map[string]struct{}

	// originDepth is the binder depth the value was read at. A value
	// with free markers may only replace occurrences at this depth.
	originDepth int
}

// NewSubstitution validates and encodes a substitution.
func NewSubstitution(m *expr.Symbol, value expr.Expression) (*Substitution, error) {
	if m == nil || !m.IsMetavariable() {
		return nil, NewInvalidSubstitutionError("%v is not a metavariable", m)
	}
	if value == nil {
		return nil, NewInvalidSubstitutionError("nil value")
	}
	v, err := debruijn.Encode(value)
	if err != nil {
		return nil, err
	}
	s := &Substitution{metavariable: m.Copy().(*expr.Symbol), value: v}
	s.refreshMetaNames()
	return s, nil
}

// newEncodedSubstitution builds a substitution over a value already in
// de Bruijn form, read at the given binder depth. No validation.
func newEncodedSubstitution(m *expr.Symbol, value expr.Expression, originDepth int) *Substitution {
	s := &Substitution{
		metavariable: m.Copy().(*expr.Symbol),
		value:        value,
		originDepth:  originDepth,
	}
	s.refreshMetaNames()
	return s
}

func (s *Substitution) refreshMetaNames() {
	s.metaNames = map[string]struct{}{}
	for _, n := range expr.Metavariables(s.value) {
		s.metaNames[n] = struct{}{}
	}
}

// Metavariable returns the symbol being replaced.
func (s *Substitution) Metavariable() *expr.Symbol { return s.metavariable }

// Name returns the replaced metavariable's name.
func (s *Substitution) Name() string { return s.metavariable.Name }

// Value returns the replacement expression in de Bruijn form.
func (s *Substitution) Value() expr.Expression { return s.value }

// OriginDepth returns the binder depth the value was read at.
func (s *Substitution) OriginDepth() int { return s.originDepth }

// Mentions reports whether the cached value mentions the named
// metavariable.
func (s *Substitution) Mentions(name string) bool {
	_, ok := s.metaNames[name]
	return ok
}

// AppliedTo returns a copy of target with every subexpression equal to
// the metavariable replaced by a fresh copy of the value. Replacement
// is simultaneous: metavariables inside inserted copies are not
// re-substituted. The result is eagerly β-reduced.
func (s *Substitution) AppliedTo(target expr.Expression) expr.Expression {
	return debruijn.BetaReduce(s.replace(target))
}

func (s *Substitution) replace(target expr.Expression) expr.Expression {
	if target.Equal(s.metavariable) {
		return s.value.Copy()
	}
	switch target := target.(type) {
	case *expr.Application:
		children := make([]expr.Expression, len(target.Children))
		for i, c := range target.Children {
			children[i] = s.replace(c)
		}
		return expr.NewApplication(children...)
	case *expr.Binder:
		out := target.Copy().(*expr.Binder)
		out.Body = s.replace(target.Body)
		return out
	default:
		return target.Copy()
	}
}

// Substitute rewrites the value in place by sequentially applying the
// given substitutions to it, refreshing the cached metavariable set.
func (s *Substitution) Substitute(others ...*Substitution) {
	v := s.value
	for _, o := range others {
		v = o.AppliedTo(v)
	}
	s.value = v
	s.refreshMetaNames()
}

// Compose returns a new substitution whose value has the others
// applied, leaving the receiver untouched.
func (s *Substitution) Compose(others ...*Substitution) *Substitution {
	out := s.Copy()
	out.Substitute(others...)
	return out
}

// Copy returns a deep copy.
func (s *Substitution) Copy() *Substitution {
	return newEncodedSubstitution(s.metavariable, s.value.Copy(), s.originDepth)
}

// Equal reports whether two substitutions replace the same
// metavariable with structurally equal values.
func (s *Substitution) Equal(o *Substitution) bool {
	if o == nil {
		return false
	}
	return s.metavariable.Equal(o.metavariable) && s.value.Equal(o.value)
}

func (s *Substitution) String() string {
	return fmt.Sprintf("(%s ↦ %s)", s.metavariable, s.value)
}
