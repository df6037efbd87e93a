package matching

import (
	"github.com/funvibe/funmatch/internal/debruijn"
	"github.com/funvibe/funmatch/internal/expr"
)

// IsFreeToReplace reports whether value could replace every occurrence
// of meta inside pattern without a free variable of value being
// captured by a binder of pattern. Both arguments are named
// expressions; the check runs on their encodings.
func IsFreeToReplace(value expr.Expression, meta *expr.Symbol, pattern expr.Expression) bool {
	v, err := debruijn.Encode(value)
	if err != nil {
		return false
	}
	if debruijn.Closed(v) {
		return true
	}
	p, err := debruijn.Encode(pattern)
	if err != nil {
		return false
	}
	return occurrencesAtDepth(p, meta, 0, 0)
}
