// Package engine implements the Variable Resolver (spec.md §4.3),
// the Propagation Worker (spec.md §4.5), and the public Get/Set
// operations (spec.md §4.6) that sit on top of internal/store and
// internal/formula.
package engine

import (
	"fmt"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/rangeref"
	"github.com/rlayton/cellflow/internal/store"
	"github.com/rlayton/cellflow/internal/value"
)

// resolveBindings builds the variable-name-to-binding map an
// expression needs for evaluation, per spec.md §4.3: scalar lookups,
// shaped vector/matrix range lookups, and the error short-circuit
// rule. A variable token that fails range parsing (spec.md §4.2's
// "treat as parse failure and skip") is bound to a local error
// scalar rather than left absent, so that using such a token as a
// cell's entire expression surfaces a local evaluation error instead
// of silently resolving to nothing (spec.md §8's scenario 6 requires
// a malformed range token to behave as an error value, not as an
// absent one, so it can taint a dependent sum()).
func resolveBindings(s *store.Store, tokens []string) map[string]value.Binding {
	bindings := make(map[string]value.Binding, len(tokens))
	for _, tok := range tokens {
		if _, ok := bindings[tok]; ok {
			continue
		}
		bindings[tok] = resolveToken(s, tok)
	}
	return bindings
}

func resolveToken(s *store.Store, tok string) value.Binding {
	parsed, err := rangeref.Parse(tok)
	if err != nil {
		return value.ScalarBinding(value.NewError(fmt.Sprintf("malformed reference %q", tok)))
	}
	if !parsed.IsRange {
		return value.ScalarBinding(s.GetValue(parsed.Scalar))
	}
	return resolveRange(s, parsed.Range)
}

func resolveRange(s *store.Store, r rangeref.Range) value.Binding {
	cells := r.Cells()
	values := s.Values(cells)

	for _, c := range cells {
		if values[c].IsError() {
			return value.ErrorBinding()
		}
	}

	switch r.Shape() {
	case rangeref.ShapeMatrix:
		rows := r.End.Row - r.Start.Row + 1
		cols := r.End.Col - r.Start.Col + 1
		matrix := make([][]value.Value, rows)
		for i := 0; i < rows; i++ {
			row := make([]value.Value, cols)
			for j := 0; j < cols; j++ {
				row[j] = values[cellid.New(r.Start.Col+j, r.Start.Row+i)]
			}
			matrix[i] = row
		}
		return value.MatrixBinding(matrix)
	default:
		// ShapeVector1x1, ShapeVectorCol, ShapeVectorRow all bind as
		// an ordered vector; Cells() already enumerates top-to-bottom,
		// left-to-right, which degenerates correctly for both a
		// single-column and a single-row range.
		vec := make([]value.Value, len(cells))
		for i, c := range cells {
			vec[i] = values[c]
		}
		return value.VectorBinding(vec)
	}
}

// dependencyCells expands a parsed expression's variable tokens into
// the full set of constituent cell ids, in expression order with
// duplicates preserved, per spec.md §4.4 step 1 ("expand ranges into
// their constituent cells"). A token that fails range/cell parsing
// contributes no cells — the missing-target skip spec.md §4.2
// prescribes.
func dependencyCells(tokens []string) []cellid.ID {
	var out []cellid.ID
	for _, tok := range tokens {
		parsed, err := rangeref.Parse(tok)
		if err != nil {
			continue
		}
		if parsed.IsRange {
			out = append(out, parsed.Range.Cells()...)
		} else {
			out = append(out, parsed.Scalar)
		}
	}
	return out
}
