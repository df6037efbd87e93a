package debruijn

import (
	"github.com/funvibe/funmatch/internal/config"
	"github.com/funvibe/funmatch/internal/expr"
)

// BetaReduce contracts every redex of the form @((λ body), a₁…aₙ)
// bottom-up, substituting the arguments for the level-zero markers of
// the body with the usual index shifting. Only the headless
// abstractions introduced by substitution are contracted; encoded
// binders keep their structure.
func BetaReduce(e expr.Expression) expr.Expression {
	switch e := e.(type) {
	case *expr.Application:
		children := make([]expr.Expression, len(e.Children))
		for i, c := range e.Children {
			children[i] = BetaReduce(c)
		}
		reduced := expr.NewApplication(children...)
		if fn, args, ok := redex(reduced); ok {
			return BetaReduce(instantiate(fn.Children[1], args, 0))
		}
		return reduced
	case *expr.Binder:
		out := e.Copy().(*expr.Binder)
		out.Body = BetaReduce(e.Body)
		return out
	default:
		return e.Copy()
	}
}

func redex(app *expr.Application) (*expr.Application, []expr.Expression, bool) {
	if len(app.Children) < 2 {
		return nil, nil, false
	}
	head, ok := app.Children[0].(*expr.Symbol)
	if !ok || head.IsMetavariable() || head.IsMarker() || head.Name != config.EFAHead {
		return nil, nil, false
	}
	fn, ok := app.Children[1].(*expr.Application)
	if !ok || !IsAbstraction(fn) {
		return nil, nil, false
	}
	args := app.Children[2:]
	lam := fn.Children[0].(*expr.Symbol)
	if len(lam.Attrs.Bound) != len(args) {
		return nil, nil, false
	}
	return fn, args, true
}

// instantiate replaces markers addressing the contracted binder with
// the corresponding argument (lifted to the marker's depth) and shifts
// deeper free markers down one level.
func instantiate(body expr.Expression, args []expr.Expression, depth int) expr.Expression {
	switch body := body.(type) {
	case *expr.Symbol:
		m := body.Attrs.Marker
		if m == nil || m.Level < depth {
			return body.Copy()
		}
		if m.Level == depth {
			if m.Pos < len(args) {
				return Lift(args[m.Pos], depth)
			}
			return body.Copy()
		}
		return expr.NewMarker(m.Level-1, m.Pos, body.Attrs.Display)
	case *expr.Application:
		children := make([]expr.Expression, len(body.Children))
		for i, c := range body.Children {
			children[i] = instantiate(c, args, depth+ScopeDelta(body, i))
		}
		return expr.NewApplication(children...)
	case *expr.Binder:
		out := body.Copy().(*expr.Binder)
		out.Body = instantiate(body.Body, args, depth)
		return out
	default:
		return body.Copy()
	}
}
