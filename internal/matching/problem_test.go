package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
)

func solveAll(t *testing.T, opts Options, pairs ...[2]string) []*Solution {
	t.Helper()
	var cs []*Constraint
	for _, p := range pairs {
		cs = append(cs, constraint(t, p[0], p[1]))
	}
	sols, err := NewProblem(cs...).Solutions(opts).All(context.Background())
	if err != nil {
		t.Fatalf("All(): %v", err)
	}
	return sols
}

func assignment(t *testing.T, sol *Solution, name string) string {
	t.Helper()
	asg, err := sol.Assignments()
	if err != nil {
		t.Fatalf("Assignments(): %v", err)
	}
	e, ok := asg[name]
	if !ok {
		t.Fatalf("no assignment for %s in %s", name, sol)
	}
	return e.String()
}

func TestTrivialSuccess(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(- 3 t)", "(- 3 t)"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	if sols[0].Len() != 0 {
		t.Errorf("trivial success should carry the empty substitution set, got %s", sols[0])
	}
}

func TestSimpleInstantiation(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(+ A__ B__)", "(+ (* 3 x) (^ y 2))"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	if got := assignment(t, sols[0], "A"); got != "(* 3 x)" {
		t.Errorf("A ↦ %s, want (* 3 x)", got)
	}
	if got := assignment(t, sols[0], "B"); got != "(^ y 2)" {
		t.Errorf("B ↦ %s, want (^ y 2)", got)
	}
}

func TestFailureByHeadMismatch(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"3", "(∀ [x] (P x))"})
	if len(sols) != 0 {
		t.Errorf("got %d solutions, want empty stream", len(sols))
	}
}

func TestChildrenBranch(t *testing.T) {
	if sols := solveAll(t, Options{}, [2]string{"(a b c)", "(w x y)"}); len(sols) != 0 {
		t.Errorf("ground mismatch yielded %d solutions", len(sols))
	}

	sols := solveAll(t, Options{}, [2]string{"(A__ B__ C__)", "(w x y)"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	for name, want := range map[string]string{"A": "w", "B": "x", "C": "y"} {
		if got := assignment(t, sols[0], name); got != want {
			t.Errorf("%s ↦ %s, want %s", name, got, want)
		}
	}
}

func TestEFAProjectionAndConstant(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(@ F__ y)", "y"})
	if len(sols) != 2 {
		t.Fatalf("got %d solutions, want 2", len(sols))
	}
	got := []string{assignment(t, sols[0], "F"), assignment(t, sols[1], "F")}
	// The constant branch is explored first, then the projection.
	if got[0] != "(λ [x1] y)" || got[1] != "(λ [x1] x1)" {
		t.Errorf("F assignments = %v", got)
	}
}

func TestEFAImitation(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(@ F__ y)", "(g y y)"})
	if len(sols) == 0 {
		t.Fatal("empty stream")
	}
	var values []string
	for _, sol := range sols {
		values = append(values, assignment(t, sol, "F"))
	}
	if values[0] != "(λ [x1] (g y y))" {
		t.Errorf("first solution should be the constant, got %s", values[0])
	}
	found := false
	for _, v := range values {
		if v == "(λ [x1] (g x1 x1))" {
			found = true
		}
	}
	if !found {
		t.Errorf("imitation solution g(x,x) missing from %v", values)
	}
	// Projection is pruned (the argument occurs twice), so every
	// solution comes from the constant or the imitation chain.
	if len(sols) != 5 {
		t.Errorf("got %d solutions, want 5", len(sols))
	}
}

func TestEFAAllConstantShortCircuit(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(@ F__ c)", "y"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want only the constant branch", len(sols))
	}
	if got := assignment(t, sols[0], "F"); got != "(λ [x1] y)" {
		t.Errorf("F ↦ %s, want (λ [x1] y)", got)
	}
}

func TestDirectRestrictsEnumeration(t *testing.T) {
	sols := solveAll(t, Options{Direct: true}, [2]string{"(@ F__ y)", "y"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	if got := assignment(t, sols[0], "F"); got != "(λ [x1] x1)" {
		t.Errorf("direct mode kept the constant branch: F ↦ %s", got)
	}

	// Where the pruning data forces the constant branch, direct mode
	// still takes it.
	sols = solveAll(t, Options{Direct: true}, [2]string{"(@ F__ c)", "y"})
	if len(sols) != 1 {
		t.Fatalf("forced constant under direct: got %d solutions", len(sols))
	}
}

func TestInstantiationUnderBinder(t *testing.T) {
	sols := solveAll(t, Options{}, [2]string{"(∀ [x] A__)", "(∀ [x] (P x))"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	if got := assignment(t, sols[0], "A"); got != "(P x)" {
		t.Errorf("A ↦ %s, want (P x)", got)
	}
}

func TestCaptureGuardRejectsMixedDepths(t *testing.T) {
	// A must become P(x) under the binder, but A also occurs outside
	// any binder; the open value cannot replace both occurrences.
	sols := solveAll(t, Options{},
		[2]string{"(∀ [x] A__)", "(∀ [x] (P x))"},
		[2]string{"(f A__)", "(f s)"})
	if len(sols) != 0 {
		t.Errorf("capture guard admitted %d solutions", len(sols))
	}
}

func TestClosedValueCrossesDepths(t *testing.T) {
	sols := solveAll(t, Options{},
		[2]string{"(∀ [x] A__)", "(∀ [x] (P c))"},
		[2]string{"(f A__)", "(f (P c))"})
	if len(sols) != 1 {
		t.Fatalf("got %d solutions, want 1", len(sols))
	}
	if got := assignment(t, sols[0], "A"); got != "(P c)" {
		t.Errorf("A ↦ %s, want (P c)", got)
	}
}

func TestConflictingInstantiations(t *testing.T) {
	sols := solveAll(t, Options{},
		[2]string{"A__", "x"},
		[2]string{"A__", "y"})
	if len(sols) != 0 {
		t.Errorf("conflicting assignments admitted: %d solutions", len(sols))
	}

	sols = solveAll(t, Options{},
		[2]string{"A__", "x"},
		[2]string{"A__", "x"})
	if len(sols) != 1 {
		t.Errorf("agreeing duplicate constraints: got %d solutions", len(sols))
	}
}

func TestConstraintPreservation(t *testing.T) {
	pairs := [][2]string{
		{"(+ A__ B__)", "(+ (* 3 x) (^ y 2))"},
		{"(@ F__ y)", "(g y y)"},
		{"(∀ [x] (P A__))", "(∀ [z] (P c))"},
	}
	for _, pair := range pairs {
		pattern := parse(t, pair[0])
		expression := parse(t, pair[1])
		c, err := NewConstraint(pattern, expression)
		if err != nil {
			t.Fatal(err)
		}
		sols, err := NewProblem(c).Solutions(Options{}).All(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		for _, sol := range sols {
			applied, err := sol.Apply(pattern)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			ea, err := debruijn.Encode(applied)
			if err != nil {
				t.Fatal(err)
			}
			ee, err := debruijn.Encode(expression)
			if err != nil {
				t.Fatal(err)
			}
			if !ea.Equal(ee) {
				t.Errorf("σ(%s) = %s, not α-equal to %s", pattern, applied, expression)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []*Solution {
		return solveAll(t, Options{}, [2]string{"(@ F__ y)", "(g y y)"})
	}
	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("stream lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("solution %d differs across runs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestStepBudget(t *testing.T) {
	c := constraint(t, "(@ F__ y)", "(g y y)")
	stream := NewProblem(c).Solutions(Options{StepBudget: 2})
	_, _, err := stream.Next(context.Background())
	if !errors.Is(err, ErrBudget) {
		t.Fatalf("Next() error = %v, want ErrBudget", err)
	}
	// A budget stop is terminal.
	if _, ok, err := stream.Next(context.Background()); ok || err != nil {
		t.Errorf("stream continued after budget stop")
	}
}

func TestMaxSolutions(t *testing.T) {
	c := constraint(t, "(@ F__ y)", "y")
	sols, err := NewProblem(c).Solutions(Options{MaxSolutions: 1}).All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sols) != 1 {
		t.Errorf("got %d solutions, want 1", len(sols))
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := constraint(t, "(@ F__ y)", "(g y y)")
	_, _, err := NewProblem(c).Solutions(Options{}).Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestFirstSolution(t *testing.T) {
	c := constraint(t, "(+ A__ B__)", "(+ x y)")
	sol, ok, err := NewProblem(c).FirstSolution(context.Background(), Options{})
	if err != nil || !ok {
		t.Fatalf("FirstSolution: ok=%v err=%v", ok, err)
	}
	if got := assignment(t, sol, "A"); got != "x" {
		t.Errorf("A ↦ %s, want x", got)
	}

	none, ok, err := NewProblem(constraint(t, "a", "b")).FirstSolution(context.Background(), Options{})
	if err != nil {
		t.Fatalf("exhaustion must be a value, not an error: %v", err)
	}
	if ok || none != nil {
		t.Errorf("FirstSolution on unsatisfiable input = %v, %v", none, ok)
	}
}

func TestSolutionsRestrictedToOriginalDomain(t *testing.T) {
	// Imitation invents fresh metavariables; they must never leak into
	// the yielded assignments.
	sols := solveAll(t, Options{}, [2]string{"(@ F__ y)", "(g y y)"})
	for _, sol := range sols {
		asg, err := sol.Assignments()
		if err != nil {
			t.Fatal(err)
		}
		if len(asg) != 1 {
			t.Fatalf("assignment domain = %v, want just F", asg)
		}
		if _, ok := asg["F"]; !ok {
			t.Errorf("F missing from %v", asg)
		}
		if expr.ContainsAMetavariable(sol.Substitutions()[0].Value()) {
			t.Errorf("unresolved fresh metavariable in %s", sol)
		}
	}
}

func TestFreeToReplaceQuery(t *testing.T) {
	meta := expr.NewMetavariable("A")
	pattern := parse(t, "(∀ [x] (P A__))")
	if !IsFreeToReplace(parse(t, "(Q c)"), meta, pattern) {
		t.Errorf("closed value rejected")
	}
	if IsFreeToReplace(expr.NewMarker(0, 0, "x"), meta, pattern) {
		t.Errorf("open value admitted under a binder")
	}
}
