// Package expr defines the expression trees the matcher operates on:
// symbols, ordered applications, and binders. Expressions are treated as
// immutable values; every rewriting operation in the matcher produces
// fresh nodes via Copy.
package expr

import (
	"strings"

	"github.com/funvibe/funmatch/internal/config"
)

// Expression is the base interface for all expression nodes.
type Expression interface {
	expressionNode()

	// Equal reports structural equality. Attributes other than the
	// metavariable flag and de Bruijn indices are not consulted.
	Equal(other Expression) bool

	// Copy returns a deep copy of the expression.
	Copy() Expression

	// String renders the canonical textual form.
	String() string
}

// Symbol is an atomic expression: a name plus a small attribute record.
type Symbol struct {
	Name  string
	Attrs Attributes
}

func (s *Symbol) expressionNode() {}

// IsMetavariable reports whether the symbol carries the metavariable flag.
func (s *Symbol) IsMetavariable() bool {
	return s.Attrs.Metavariable
}

// IsMarker reports whether the symbol is a de Bruijn index marker.
func (s *Symbol) IsMarker() bool {
	return s.Attrs.Marker != nil
}

// IsLambdaHead reports whether the symbol is the reserved binder head
// used by the de Bruijn encoding.
func (s *Symbol) IsLambdaHead() bool {
	return s.Name == config.LambdaHead && !s.Attrs.Metavariable && s.Attrs.Marker == nil
}

func (s *Symbol) Equal(other Expression) bool {
	o, ok := other.(*Symbol)
	if !ok {
		return false
	}
	if s.Attrs.Marker != nil || o.Attrs.Marker != nil {
		if s.Attrs.Marker == nil || o.Attrs.Marker == nil {
			return false
		}
		return *s.Attrs.Marker == *o.Attrs.Marker
	}
	return s.Name == o.Name && s.Attrs.Metavariable == o.Attrs.Metavariable
}

func (s *Symbol) Copy() Expression {
	return &Symbol{Name: s.Name, Attrs: s.Attrs.copy()}
}

func (s *Symbol) String() string {
	if m := s.Attrs.Marker; m != nil {
		return m.String()
	}
	if s.Attrs.Metavariable {
		return s.Name + config.MetaSuffix
	}
	return s.Name
}

// Application is an ordered, non-empty sequence of child expressions.
type Application struct {
	Children []Expression
}

func (a *Application) expressionNode() {}

func (a *Application) Equal(other Expression) bool {
	o, ok := other.(*Application)
	if !ok || len(a.Children) != len(o.Children) {
		return false
	}
	for i, c := range a.Children {
		if !c.Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func (a *Application) Copy() Expression {
	children := make([]Expression, len(a.Children))
	for i, c := range a.Children {
		children[i] = c.Copy()
	}
	return &Application{Children: children}
}

func (a *Application) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, c := range a.Children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Binder is a named binding form: a head symbol, the bound variable
// symbols, and a body. The de Bruijn encoder re-expresses binders as
// applications of the reserved lambda head.
type Binder struct {
	Head  *Symbol
	Bound []*Symbol
	Body  Expression
}

func (b *Binder) expressionNode() {}

func (b *Binder) Equal(other Expression) bool {
	o, ok := other.(*Binder)
	if !ok || len(b.Bound) != len(o.Bound) {
		return false
	}
	if !b.Head.Equal(o.Head) || !b.Body.Equal(o.Body) {
		return false
	}
	for i, v := range b.Bound {
		if !v.Equal(o.Bound[i]) {
			return false
		}
	}
	return true
}

func (b *Binder) Copy() Expression {
	bound := make([]*Symbol, len(b.Bound))
	for i, v := range b.Bound {
		bound[i] = v.Copy().(*Symbol)
	}
	return &Binder{Head: b.Head.Copy().(*Symbol), Bound: bound, Body: b.Body.Copy()}
}

func (b *Binder) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(b.Head.String())
	sb.WriteString(" [")
	for i, v := range b.Bound {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(v.String())
	}
	sb.WriteString("] ")
	sb.WriteString(b.Body.String())
	sb.WriteByte(')')
	return sb.String()
}

// NewSymbol creates a plain symbol.
func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

// NewMetavariable creates a symbol carrying the metavariable flag.
func NewMetavariable(name string) *Symbol {
	return &Symbol{Name: name, Attrs: Attributes{Metavariable: true}}
}

// NewMarker creates a de Bruijn index marker for the pos-th variable of
// the binder level binders up. The display name is kept for decoding
// and pretty-printing only.
func NewMarker(level, pos int, display string) *Symbol {
	m := Marker{Level: level, Pos: pos}
	return &Symbol{Name: m.String(), Attrs: Attributes{Marker: &m, Display: display}}
}

// NewLambdaHead creates the reserved binder head symbol with the
// original bound-variable names attached.
func NewLambdaHead(bound []string) *Symbol {
	names := make([]string, len(bound))
	copy(names, bound)
	return &Symbol{Name: config.LambdaHead, Attrs: Attributes{Bound: names}}
}

// NewApplication creates an application over the given children.
func NewApplication(children ...Expression) *Application {
	return &Application{Children: children}
}

// NewBinder creates a named binding form.
func NewBinder(head *Symbol, bound []*Symbol, body Expression) *Binder {
	return &Binder{Head: head, Bound: bound, Body: body}
}

// NewEFA builds an expression function application f(args...): the
// reserved EFA head applied to the metavariable f and the arguments.
func NewEFA(f *Symbol, args ...Expression) *Application {
	children := make([]Expression, 0, len(args)+2)
	children = append(children, NewSymbol(config.EFAHead), f)
	children = append(children, args...)
	return &Application{Children: children}
}
