// Package debruijn implements the index encoding that turns bound
// variables into positional markers, making α-equivalence a structural
// equality, plus the index arithmetic (lifting, β-reduction, occurrence
// counting) the solver relies on.
package debruijn

import (
	"github.com/funvibe/funmatch/internal/config"
	"github.com/funvibe/funmatch/internal/expr"
)

// Encode maps a named expression to its de Bruijn form: every binder
// becomes an application of the reserved lambda head, and every bound
// occurrence becomes a (level, position) marker. Metavariables and free
// symbols pass through unchanged.
func Encode(e expr.Expression) (expr.Expression, error) {
	if err := expr.Validate(e); err != nil {
		return nil, err
	}
	return encode(e, nil), nil
}

func encode(e expr.Expression, env [][]string) expr.Expression {
	switch e := e.(type) {
	case *expr.Symbol:
		if e.IsMetavariable() || e.IsMarker() {
			return e.Copy()
		}
		// Nearest enclosing binder wins; within a frame the rightmost
		// binding of a repeated name shadows the earlier ones.
		for level := 0; level < len(env); level++ {
			frame := env[len(env)-1-level]
			for pos := len(frame) - 1; pos >= 0; pos-- {
				if frame[pos] == e.Name {
					return expr.NewMarker(level, pos, e.Name)
				}
			}
		}
		return e.Copy()
	case *expr.Application:
		children := make([]expr.Expression, len(e.Children))
		for i, c := range e.Children {
			children[i] = encode(c, env)
		}
		return expr.NewApplication(children...)
	case *expr.Binder:
		names := make([]string, len(e.Bound))
		for i, v := range e.Bound {
			names[i] = v.Name
		}
		// The head is outside the binder's own scope.
		head := encode(e.Head, env)
		body := encode(e.Body, append(env, names))
		if e.Head.IsLambdaHead() {
			return expr.NewApplication(expr.NewLambdaHead(names), body)
		}
		return expr.NewApplication(expr.NewLambdaHead(names), head, body)
	default:
		return e.Copy()
	}
}

// Decode is the inverse of Encode: lambda-head applications become
// binders again and markers become named symbols. Bound-variable names
// are restored from the attributes Encode left behind.
func Decode(e expr.Expression) (expr.Expression, error) {
	return decode(e, nil)
}

func decode(e expr.Expression, env [][]string) (expr.Expression, error) {
	switch e := e.(type) {
	case *expr.Symbol:
		if m := e.Attrs.Marker; m != nil {
			idx := len(env) - 1 - m.Level
			if idx < 0 {
				// Free markers are legal in substitution values read
				// under a binder; the preserved name stands in for them.
				if e.Attrs.Display != "" {
					return expr.NewSymbol(e.Attrs.Display), nil
				}
				return nil, expr.NewMalformedExpressionError("unbound index marker %s", m)
			}
			frame := env[idx]
			if m.Pos >= len(frame) {
				return nil, expr.NewMalformedExpressionError("marker position out of range: %s", m)
			}
			return expr.NewSymbol(frame[m.Pos]), nil
		}
		return e.Copy(), nil
	case *expr.Application:
		if IsLambdaApp(e) {
			return decodeBinder(e, env)
		}
		children := make([]expr.Expression, len(e.Children))
		for i, c := range e.Children {
			d, err := decode(c, env)
			if err != nil {
				return nil, err
			}
			children[i] = d
		}
		return expr.NewApplication(children...), nil
	case *expr.Binder:
		// Already in named form; decode any encoded subtrees.
		body, err := decode(e.Body, env)
		if err != nil {
			return nil, err
		}
		out := e.Copy().(*expr.Binder)
		out.Body = body
		return out, nil
	default:
		return e.Copy(), nil
	}
}

func decodeBinder(e *expr.Application, env [][]string) (expr.Expression, error) {
	lam := e.Children[0].(*expr.Symbol)
	names := lam.Attrs.Bound
	if len(names) == 0 {
		return nil, expr.NewMalformedExpressionError("lambda head without bound names")
	}
	bound := make([]*expr.Symbol, len(names))
	for i, n := range names {
		bound[i] = expr.NewSymbol(n)
	}
	inner := append(env, names)
	switch len(e.Children) {
	case 2:
		body, err := decode(e.Children[1], inner)
		if err != nil {
			return nil, err
		}
		return expr.NewBinder(expr.NewSymbol(config.LambdaHead), bound, body), nil
	case 3:
		head, err := decode(e.Children[1], env)
		if err != nil {
			return nil, err
		}
		headSym, ok := head.(*expr.Symbol)
		if !ok {
			return nil, expr.NewMalformedExpressionError("binder head decodes to non-symbol")
		}
		body, err := decode(e.Children[2], inner)
		if err != nil {
			return nil, err
		}
		return expr.NewBinder(headSym, bound, body), nil
	default:
		return nil, expr.NewMalformedExpressionError("lambda application with %d children", len(e.Children))
	}
}

// IsLambdaApp reports whether e is an encoded binder or a solver
// abstraction: an application whose first child is the lambda head.
func IsLambdaApp(e expr.Expression) bool {
	app, ok := e.(*expr.Application)
	if !ok || len(app.Children) < 2 || len(app.Children) > 3 {
		return false
	}
	head, ok := app.Children[0].(*expr.Symbol)
	return ok && head.IsLambdaHead()
}

// IsAbstraction reports whether e is a headless lambda application, the
// shape the solver introduces for expression function instantiations.
func IsAbstraction(e expr.Expression) bool {
	app, ok := e.(*expr.Application)
	if !ok || len(app.Children) != 2 {
		return false
	}
	head, ok := app.Children[0].(*expr.Symbol)
	return ok && head.IsLambdaHead()
}

// NewAbstraction wraps body in a lambda application binding the given
// names. Markers of level zero in body refer to those names.
func NewAbstraction(names []string, body expr.Expression) *expr.Application {
	return expr.NewApplication(expr.NewLambdaHead(names), body)
}

// ScopeDelta returns how many binder levels child i of app sits below
// app itself: one for the body of a lambda application, zero otherwise.
func ScopeDelta(app *expr.Application, i int) int {
	if IsLambdaApp(app) && i == len(app.Children)-1 {
		return 1
	}
	return 0
}
