package expr

import (
	"fmt"
	"sort"

	"github.com/funvibe/funmatch/internal/config"
)

// MalformedExpressionError indicates an expression violating a
// structural invariant (empty application, binder without body, ...).
type MalformedExpressionError struct {
	Reason string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed expression: %s", e.Reason)
}

func NewMalformedExpressionError(format string, args ...interface{}) *MalformedExpressionError {
	return &MalformedExpressionError{Reason: fmt.Sprintf(format, args...)}
}

// Validate walks the expression and returns a MalformedExpressionError
// for the first structural violation found, or nil.
func Validate(e Expression) error {
	switch e := e.(type) {
	case *Symbol:
		if e == nil {
			return NewMalformedExpressionError("nil symbol")
		}
		if m := e.Attrs.Marker; m != nil && (m.Level < 0 || m.Pos < 0) {
			return NewMalformedExpressionError("negative de Bruijn index %s", m)
		}
		return nil
	case *Application:
		if len(e.Children) == 0 {
			return NewMalformedExpressionError("empty application")
		}
		for _, c := range e.Children {
			if c == nil {
				return NewMalformedExpressionError("nil child in application")
			}
			if err := Validate(c); err != nil {
				return err
			}
		}
		return nil
	case *Binder:
		if e.Head == nil {
			return NewMalformedExpressionError("binder without head")
		}
		if len(e.Bound) == 0 {
			return NewMalformedExpressionError("binder without bound variables")
		}
		if e.Body == nil {
			return NewMalformedExpressionError("binder without body")
		}
		for _, v := range e.Bound {
			if v == nil {
				return NewMalformedExpressionError("nil bound variable")
			}
			if v.IsMarker() {
				return NewMalformedExpressionError("bound variable %s is an index marker", v)
			}
		}
		if err := Validate(e.Head); err != nil {
			return err
		}
		return Validate(e.Body)
	default:
		return NewMalformedExpressionError("unknown expression kind %T", e)
	}
}

// ContainsAMetavariable reports whether any symbol in e carries the
// metavariable flag.
func ContainsAMetavariable(e Expression) bool {
	switch e := e.(type) {
	case *Symbol:
		return e.Attrs.Metavariable
	case *Application:
		for _, c := range e.Children {
			if ContainsAMetavariable(c) {
				return true
			}
		}
		return false
	case *Binder:
		if ContainsAMetavariable(e.Head) || ContainsAMetavariable(e.Body) {
			return true
		}
		for _, v := range e.Bound {
			if v.Attrs.Metavariable {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Metavariables returns the sorted set of metavariable names in e.
func Metavariables(e Expression) []string {
	set := map[string]struct{}{}
	collectMetavariables(e, set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectMetavariables(e Expression, set map[string]struct{}) {
	switch e := e.(type) {
	case *Symbol:
		if e.Attrs.Metavariable {
			set[e.Name] = struct{}{}
		}
	case *Application:
		for _, c := range e.Children {
			collectMetavariables(c, set)
		}
	case *Binder:
		collectMetavariables(e.Head, set)
		for _, v := range e.Bound {
			collectMetavariables(v, set)
		}
		collectMetavariables(e.Body, set)
	}
}

// ContainsBoundMetavariable reports whether some metavariable occurrence
// in e sits under a binder that binds its name, or some binder binds a
// metavariable directly. Patterns with such occurrences are rejected at
// constraint construction.
func ContainsBoundMetavariable(e Expression) bool {
	return containsBoundMeta(e, map[string]int{})
}

func containsBoundMeta(e Expression, bound map[string]int) bool {
	switch e := e.(type) {
	case *Symbol:
		return e.Attrs.Metavariable && bound[e.Name] > 0
	case *Application:
		for _, c := range e.Children {
			if containsBoundMeta(c, bound) {
				return true
			}
		}
		return false
	case *Binder:
		for _, v := range e.Bound {
			if v.Attrs.Metavariable {
				return true
			}
		}
		if containsBoundMeta(e.Head, bound) {
			return true
		}
		for _, v := range e.Bound {
			bound[v.Name]++
		}
		inner := containsBoundMeta(e.Body, bound)
		for _, v := range e.Bound {
			bound[v.Name]--
		}
		return inner
	default:
		return false
	}
}

// IsEFA reports whether e is an expression function application:
// an application whose first child is the reserved EFA head and whose
// second child is a metavariable.
func IsEFA(e Expression) bool {
	app, ok := e.(*Application)
	if !ok || len(app.Children) < 2 {
		return false
	}
	head, ok := app.Children[0].(*Symbol)
	if !ok || head.IsMetavariable() || head.IsMarker() || head.Name != config.EFAHead {
		return false
	}
	f, ok := app.Children[1].(*Symbol)
	return ok && f.IsMetavariable()
}

// EFAFunction returns the metavariable in the function slot of an EFA.
func EFAFunction(e Expression) *Symbol {
	return e.(*Application).Children[1].(*Symbol)
}

// EFAArgs returns the argument slice of an EFA. The slice aliases the
// application's children; callers must not mutate it.
func EFAArgs(e Expression) []Expression {
	return e.(*Application).Children[2:]
}
