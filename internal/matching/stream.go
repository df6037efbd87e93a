package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funvibe/funmatch/internal/config"
	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
)

// searchState is one node of the depth-first search: a working copy of
// the constraint list plus the solution accumulated on the way here.
// States are immutable once pushed; branching copies.
type searchState struct {
	constraints []*Constraint
	solution    *Solution
}

// Stream is the lazy, pull-based solution stream of one search. The
// search holds an explicit state stack rather than host recursion, so
// suspension between yields, budgeting and cancellation are plain
// control flow and deep proofs cannot overflow the stack.
type Stream struct {
	stack  []*searchState
	domain map[string]struct{}
	opts   Options

	steps   int
	yielded int
	done    bool
}

// Next runs the search until the next solution. It returns the
// solution and true, or (nil, false, nil) on exhaustion, ErrBudget when
// the step budget runs out, or the context error on cancellation.
func (st *Stream) Next(ctx context.Context) (*Solution, bool, error) {
	if st.done {
		return nil, false, nil
	}
	for len(st.stack) > 0 {
		if err := ctx.Err(); err != nil {
			st.done = true
			return nil, false, err
		}
		if st.opts.StepBudget > 0 && st.steps >= st.opts.StepBudget {
			st.done = true
			return nil, false, ErrBudget
		}
		st.steps++

		state := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]

		sol, ok := st.advance(state)
		if !ok {
			continue
		}
		st.yielded++
		if st.opts.MaxSolutions > 0 && st.yielded >= st.opts.MaxSolutions {
			st.done = true
		}
		return sol, true, nil
	}
	st.done = true
	return nil, false, nil
}

// Take collects up to n solutions.
func (st *Stream) Take(ctx context.Context, n int) ([]*Solution, error) {
	var out []*Solution
	for n <= 0 || len(out) < n {
		sol, ok, err := st.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, sol)
	}
	return out, nil
}

// All drives the stream to exhaustion.
func (st *Stream) All(ctx context.Context) ([]*Solution, error) {
	return st.Take(ctx, 0)
}

// Steps reports the dispatch steps consumed so far.
func (st *Stream) Steps() int { return st.steps }

// advance performs one dispatch on the state. It either yields the
// state's solution (no constraints left), prunes the branch, or pushes
// successor states.
func (st *Stream) advance(state *searchState) (*Solution, bool) {
	if len(state.constraints) == 0 {
		st.tracef(nil, "solution", "%s", state.solution)
		return state.solution.Restrict(st.domain), true
	}

	// Triage: a failure prunes the whole branch; otherwise the
	// lowest-weight constraint is dispatched, earliest first on ties.
	minIdx := -1
	for i, c := range state.constraints {
		if c.Class() == ClassFailure {
			st.tracef(c, "prune", "head mismatch")
			return nil, false
		}
		if minIdx == -1 || c.Weight() < state.constraints[minIdx].Weight() {
			minIdx = i
		}
	}

	c := state.constraints[minIdx]
	switch c.Class() {
	case ClassSuccess:
		st.push(&searchState{constraints: without(state.constraints, minIdx), solution: state.solution})
	case ClassInstantiation:
		st.instantiate(state, minIdx)
	case ClassChildren:
		st.tracef(c, "children", "arity %d", len(c.Pattern().(*expr.Application).Children))
		rest := make([]*Constraint, 0, len(state.constraints)+2)
		rest = append(rest, state.constraints[:minIdx]...)
		rest = append(rest, c.Children()...)
		rest = append(rest, state.constraints[minIdx+1:]...)
		st.push(&searchState{constraints: rest, solution: state.solution})
	case ClassEFA:
		st.branchEFA(state, minIdx)
	}
	return nil, false
}

func (st *Stream) push(state *searchState) {
	st.stack = append(st.stack, state)
}

// instantiate commits the substitution a lone-metavariable constraint
// dictates, after the conflict and capture checks.
func (st *Stream) instantiate(state *searchState, idx int) {
	c := state.constraints[idx]
	m := c.Pattern().(*expr.Symbol)

	if existing := state.solution.Lookup(m.Name); existing != nil {
		if existing.Value().Equal(c.Expression()) {
			st.push(&searchState{constraints: without(state.constraints, idx), solution: state.solution})
		} else {
			st.tracef(c, "prune", "conflicting assignment for %s", m.Name)
		}
		return
	}

	sub := newEncodedSubstitution(m, c.Expression(), c.Depth())
	st.tracef(c, "instantiate", "%s", sub)
	st.commit(state, idx, sub)
}

// commit applies a candidate substitution to the whole state and
// pushes the successor, or prunes if the capture guard rejects it.
func (st *Stream) commit(state *searchState, idx int, sub *Substitution) {
	if !st.freeToReplace(sub, state.constraints, idx) {
		st.tracef(state.constraints[idx], "prune", "capture: %s not free to replace %s", sub.Value(), sub.Name())
		return
	}
	solution := state.solution.Copy()
	solution.compose(sub)
	rest := make([]*Constraint, 0, len(state.constraints)-1)
	for i, other := range state.constraints {
		if i == idx {
			continue
		}
		rest = append(rest, other.AfterSubstituting(sub))
	}
	st.push(&searchState{constraints: rest, solution: solution})
}

// commitEFA is commit for EFA branches: the dispatched constraint is
// kept, rewritten by the substitution, and reclassified on next triage.
func (st *Stream) commitEFA(state *searchState, idx int, sub *Substitution) {
	if !st.freeToReplace(sub, state.constraints, -1) {
		st.tracef(state.constraints[idx], "prune", "capture: %s not free to replace %s", sub.Value(), sub.Name())
		return
	}
	solution := state.solution.Copy()
	solution.compose(sub)
	rest := make([]*Constraint, len(state.constraints))
	for i, other := range state.constraints {
		rest[i] = other.AfterSubstituting(sub)
	}
	st.push(&searchState{constraints: rest, solution: solution})
}

// freeToReplace is the capture guard: a closed value replaces freely;
// a value with free markers only replaces occurrences at the binder
// depth it was read at. skip marks a constraint position exempt from
// the check (the instantiation constraint being consumed).
func (st *Stream) freeToReplace(sub *Substitution, constraints []*Constraint, skip int) bool {
	if debruijn.Closed(sub.Value()) {
		return true
	}
	for i, c := range constraints {
		if i == skip {
			continue
		}
		if !occurrencesAtDepth(c.Pattern(), sub.Metavariable(), c.Depth(), sub.OriginDepth()) {
			return false
		}
	}
	return true
}

// occurrencesAtDepth reports whether every occurrence of m below e sits
// exactly at the wanted absolute binder depth.
func occurrencesAtDepth(e expr.Expression, m *expr.Symbol, depth, want int) bool {
	switch e := e.(type) {
	case *expr.Symbol:
		return !e.Equal(m) || depth == want
	case *expr.Application:
		for i, c := range e.Children {
			if !occurrencesAtDepth(c, m, depth+debruijn.ScopeDelta(e, i), want) {
				return false
			}
		}
		return true
	case *expr.Binder:
		return occurrencesAtDepth(e.Head, m, depth, want) && occurrencesAtDepth(e.Body, m, depth, want)
	default:
		return true
	}
}

// branchEFA enumerates the candidate instantiations of the function
// metavariable: constant, the unpruned projections, and imitation of
// the expression's head. Candidates are pushed in reverse so the
// constant branch is explored first.
func (st *Stream) branchEFA(state *searchState, idx int) {
	c := state.constraints[idx]
	f := expr.EFAFunction(c.Pattern())
	args := expr.EFAArgs(c.Pattern())
	names := paramNames(len(args))

	if existing := state.solution.Lookup(f.Name); existing != nil {
		// A dispatched EFA has had the accumulated solution applied to
		// its pattern already; a live assignment here is a conflict.
		st.tracef(c, "prune", "conflicting assignment for %s", f.Name)
		return
	}

	var candidates []*Substitution

	if !st.opts.Direct || c.CanBeOnlyConstantEFA() {
		constant := debruijn.NewAbstraction(names, debruijn.Lift(c.Expression(), 1))
		candidates = append(candidates, newEncodedSubstitution(f, constant, c.Depth()))
	}

	if !c.CanBeOnlyConstantEFA() {
		for k := range args {
			if !c.CanBeAProjectionEFA(k) {
				continue
			}
			proj := debruijn.NewAbstraction(names, expr.NewMarker(0, k, names[k]))
			candidates = append(candidates, newEncodedSubstitution(f, proj, c.Depth()))
		}
		if imitation := st.imitation(c, names); imitation != nil {
			candidates = append(candidates, newEncodedSubstitution(f, imitation, c.Depth()))
		}
	}

	st.tracef(c, "efa", "%d branch(es) for %s", len(candidates), f.Name)
	for i := len(candidates) - 1; i >= 0; i-- {
		st.commitEFA(state, idx, candidates[i])
	}
}

// imitation builds F ↦ λx₁…xₙ. h(H₁(x⃗), …, Hₘ(x⃗)) for an application
// expression with head h, fresh EFA metavariables in every other child
// position. Child positions under the head's own binder level address
// the parameters one level further out.
func (st *Stream) imitation(c *Constraint, names []string) expr.Expression {
	e, ok := c.Expression().(*expr.Application)
	if !ok {
		return nil
	}
	children := make([]expr.Expression, len(e.Children))
	children[0] = e.Children[0].Copy()
	for i := 1; i < len(e.Children); i++ {
		delta := debruijn.ScopeDelta(e, i)
		params := make([]expr.Expression, len(names))
		for k, name := range names {
			params[k] = expr.NewMarker(delta, k, name)
		}
		children[i] = expr.NewEFA(freshMetavariable(), params...)
	}
	return debruijn.NewAbstraction(names, expr.NewApplication(children...))
}

// freshMetavariable invents a metavariable no input can collide with.
// Fresh names are internal: yielded solutions are restricted to the
// problem's original domain.
func freshMetavariable() *expr.Symbol {
	return expr.NewMetavariable(fmt.Sprintf("%s_%s", config.FreshMetaPrefix, uuid.NewString()[:8]))
}

func paramNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i+1)
	}
	return names
}

func without(constraints []*Constraint, idx int) []*Constraint {
	out := make([]*Constraint, 0, len(constraints)-1)
	out = append(out, constraints[:idx]...)
	return append(out, constraints[idx+1:]...)
}

func (st *Stream) tracef(c *Constraint, event, format string, args ...interface{}) {
	if st.opts.Trace == nil {
		return
	}
	fields := logrus.Fields{"event": event, "step": st.steps}
	if c != nil {
		fields["constraint"] = c.String()
	}
	st.opts.Trace.WithFields(fields).Debugf(format, args...)
}
