// Package rangeref parses the two variable-token shapes an
// expression can reference: a scalar cell ("A1") or a range
// ("A1_B2"), per spec.md §4.2.
package rangeref

import (
	"fmt"
	"strings"

	"github.com/rlayton/cellflow/internal/cellid"
)

// Range is a well-formed rectangular cell range: Start.Col <=
// End.Col and Start.Row <= End.Row.
type Range struct {
	Start cellid.ID
	End   cellid.ID
}

// Shape classifies a Range by its dimensions.
type Shape uint8

const (
	// ShapeVector1x1 is a degenerate single-cell range (kept distinct
	// from ShapeVectorCol/Row so callers can special-case it if useful;
	// the Variable Resolver treats it as a 1-element vector).
	ShapeVector1x1 Shape = iota
	// ShapeVectorCol is an N x 1 range (same column, N >= 2 rows).
	ShapeVectorCol
	// ShapeVectorRow is a 1 x N range (same row, N >= 2 columns).
	ShapeVectorRow
	// ShapeMatrix is an M x N range with M,N >= 2.
	ShapeMatrix
)

// Shape reports which of the vector/matrix shapes this range has,
// per spec.md §4.3's N×1 / 1×N / M×N classification.
func (r Range) Shape() Shape {
	cols := r.End.Col - r.Start.Col + 1
	rows := r.End.Row - r.Start.Row + 1
	switch {
	case cols == 1 && rows == 1:
		return ShapeVector1x1
	case cols == 1:
		return ShapeVectorCol
	case rows == 1:
		return ShapeVectorRow
	default:
		return ShapeMatrix
	}
}

// Cells enumerates every cell id in the range, row-major (top to
// bottom, left to right within each row).
func (r Range) Cells() []cellid.ID {
	cells := make([]cellid.ID, 0, (r.End.Row-r.Start.Row+1)*(r.End.Col-r.Start.Col+1))
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			cells = append(cells, cellid.New(col, row))
		}
	}
	return cells
}

// Token is a parsed variable-name token: either a scalar cell
// reference or a range. Exactly one of Scalar/Range is meaningful,
// discriminated by IsRange.
type Token struct {
	IsRange bool
	Scalar  cellid.ID
	Range   Range
}

// Parse parses a single variable token extracted from an expression.
// If it contains an underscore, the token is split once on the first
// underscore and both halves are parsed as scalar cell ids, yielding
// a range. A range is well-formed only when Start.Col <= End.Col and
// Start.Row <= End.Row; anything else is treated as a parse failure
// per spec.md §4.2 ("undefined behavior otherwise; treat as parse
// failure and skip").
func Parse(token string) (Token, error) {
	if idx := strings.IndexByte(token, '_'); idx >= 0 {
		startTok, endTok := token[:idx], token[idx+1:]
		start, err := cellid.Parse(startTok)
		if err != nil {
			return Token{}, fmt.Errorf("rangeref: invalid range start in %q: %w", token, err)
		}
		end, err := cellid.Parse(endTok)
		if err != nil {
			return Token{}, fmt.Errorf("rangeref: invalid range end in %q: %w", token, err)
		}
		if start.Col > end.Col || start.Row > end.Row {
			return Token{}, fmt.Errorf("rangeref: malformed range %q: start must not exceed end", token)
		}
		return Token{IsRange: true, Range: Range{Start: start, End: end}}, nil
	}

	id, err := cellid.Parse(token)
	if err != nil {
		return Token{}, fmt.Errorf("rangeref: invalid scalar reference %q: %w", token, err)
	}
	return Token{IsRange: false, Scalar: id}, nil
}
