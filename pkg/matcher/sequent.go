package matcher

import (
	"github.com/funvibe/funmatch/internal/matching"
)

// Sequent groups a premise list with a conclusion. The propositional
// validators own their sequent implementations; the matcher only needs
// this shape to turn an instantiation check into constraints.
type Sequent interface {
	Premises() []Expression
	Conclusion() Expression
}

// InstantiationConstraints zips a pattern sequent against a target
// sequent into the constraint list whose solutions instantiate the
// pattern to the target: premises pairwise, then the conclusions.
func InstantiationConstraints(pattern, target Sequent) ([]*Constraint, error) {
	pp, tp := pattern.Premises(), target.Premises()
	if len(pp) != len(tp) {
		return nil, matching.NewInvalidConstraintError(
			"premise count mismatch: %d vs %d", len(pp), len(tp))
	}
	out := make([]*Constraint, 0, len(pp)+1)
	for i := range pp {
		c, err := NewConstraint(pp[i], tp[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	c, err := NewConstraint(pattern.Conclusion(), target.Conclusion())
	if err != nil {
		return nil, err
	}
	return append(out, c), nil
}
