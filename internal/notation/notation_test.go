package notation

import (
	"testing"

	"github.com/funvibe/funmatch/internal/expr"
)

func TestReadRoundTrip(t *testing.T) {
	srcs := []string{
		"f",
		"A__",
		"#(0,1)",
		"(f x y)",
		"(+ A__ B__)",
		"(@ F__ y)",
		"(∀ [x] (P x))",
		"(Σ [i j] (+ i j))",
		"(λ [x] x)",
		"(∀ [x] (∃ [y] (R x y)))",
		"(f (g a) (h b c))",
	}
	for _, src := range srcs {
		e, err := Read(src)
		if err != nil {
			t.Fatalf("Read(%q) error: %v", src, err)
		}
		if got := e.String(); got != src {
			t.Errorf("Read(%q).String() = %q", src, got)
		}
	}
}

func TestReadStructures(t *testing.T) {
	e, err := Read("(+ A__ B__)")
	if err != nil {
		t.Fatal(err)
	}
	appl, ok := e.(*expr.Application)
	if !ok || len(appl.Children) != 3 {
		t.Fatalf("Read returned %T %s", e, e)
	}
	meta, ok := appl.Children[1].(*expr.Symbol)
	if !ok || !meta.IsMetavariable() || meta.Name != "A" {
		t.Errorf("metavariable suffix not parsed: %s", appl.Children[1])
	}

	b, err := Read("(∀ [x] (P x))")
	if err != nil {
		t.Fatal(err)
	}
	binder, ok := b.(*expr.Binder)
	if !ok || binder.Head.Name != "∀" || len(binder.Bound) != 1 || binder.Bound[0].Name != "x" {
		t.Fatalf("binder not parsed: %s", b)
	}

	m, err := Read("#(2,1)")
	if err != nil {
		t.Fatal(err)
	}
	sym, ok := m.(*expr.Symbol)
	if !ok || sym.Attrs.Marker == nil || *sym.Attrs.Marker != (expr.Marker{Level: 2, Pos: 1}) {
		t.Fatalf("marker not parsed: %s", m)
	}
}

func TestReadErrors(t *testing.T) {
	bad := []string{
		"",
		"(f",
		"f)",
		"(f [x] )",
		"((f) [x] y)",
		"(∀ [x)",
		"#(a,b)",
		"f g",
	}
	for _, src := range bad {
		if _, err := Read(src); err == nil {
			t.Errorf("Read(%q) succeeded, want error", src)
		}
	}
}

func TestConstraintForm(t *testing.T) {
	p, err := Read("(+ A__ B__)")
	if err != nil {
		t.Fatal(err)
	}
	e, err := Read("(+ x y)")
	if err != nil {
		t.Fatal(err)
	}
	src := FormatConstraint(p, e)
	if src != "((+ A__ B__), (+ x y))" {
		t.Fatalf("FormatConstraint = %q", src)
	}
	p2, e2, err := ReadConstraint(src)
	if err != nil {
		t.Fatalf("ReadConstraint(%q) error: %v", src, err)
	}
	if !p2.Equal(p) || !e2.Equal(e) {
		t.Errorf("ReadConstraint round trip lost structure: %s / %s", p2, e2)
	}
}
