package debruijn

import "github.com/funvibe/funmatch/internal/expr"

// Lift shifts every free marker of e up by the given number of binder
// levels. Markers bound inside e are untouched.
func Lift(e expr.Expression, by int) expr.Expression {
	if by == 0 {
		return e.Copy()
	}
	return lift(e, by, 0)
}

func lift(e expr.Expression, by, depth int) expr.Expression {
	switch e := e.(type) {
	case *expr.Symbol:
		if m := e.Attrs.Marker; m != nil && m.Level >= depth {
			return expr.NewMarker(m.Level+by, m.Pos, e.Attrs.Display)
		}
		return e.Copy()
	case *expr.Application:
		children := make([]expr.Expression, len(e.Children))
		for i, c := range e.Children {
			children[i] = lift(c, by, depth+ScopeDelta(e, i))
		}
		return expr.NewApplication(children...)
	case *expr.Binder:
		out := e.Copy().(*expr.Binder)
		out.Body = lift(e.Body, by, depth)
		return out
	default:
		return e.Copy()
	}
}

// FreeMarkers returns the markers of e that point above its root,
// re-based so a level of zero means "one binder above e".
func FreeMarkers(e expr.Expression) []expr.Marker {
	var out []expr.Marker
	freeMarkers(e, 0, &out)
	return out
}

func freeMarkers(e expr.Expression, depth int, out *[]expr.Marker) {
	switch e := e.(type) {
	case *expr.Symbol:
		if m := e.Attrs.Marker; m != nil && m.Level >= depth {
			*out = append(*out, expr.Marker{Level: m.Level - depth, Pos: m.Pos})
		}
	case *expr.Application:
		for i, c := range e.Children {
			freeMarkers(c, depth+ScopeDelta(e, i), out)
		}
	case *expr.Binder:
		freeMarkers(e.Body, depth, out)
	}
}

// Closed reports whether e has no free markers.
func Closed(e expr.Expression) bool {
	return closed(e, 0)
}

func closed(e expr.Expression, depth int) bool {
	switch e := e.(type) {
	case *expr.Symbol:
		m := e.Attrs.Marker
		return m == nil || m.Level < depth
	case *expr.Application:
		for i, c := range e.Children {
			if !closed(c, depth+ScopeDelta(e, i)) {
				return false
			}
		}
		return true
	case *expr.Binder:
		return closed(e.Body, depth)
	default:
		return true
	}
}

// Occurrences counts the subtrees of e that structurally match sub,
// lifting sub's free markers while descending so a subtree only counts
// when it denotes the same term at that binder depth.
func Occurrences(sub, e expr.Expression) int {
	return occurrences(sub, e, 0)
}

func occurrences(sub, e expr.Expression, depth int) int {
	target := sub
	if depth > 0 {
		target = Lift(sub, depth)
	}
	n := 0
	if target.Equal(e) {
		n++
	}
	switch e := e.(type) {
	case *expr.Application:
		for i, c := range e.Children {
			n += occurrences(sub, c, depth+ScopeDelta(e, i))
		}
	case *expr.Binder:
		n += occurrences(sub, e.Body, depth)
	}
	return n
}
