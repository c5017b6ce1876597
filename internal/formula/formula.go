// Package formula is the Expression Adapter (spec.md §4.2's sibling,
// §6.1): a thin, self-contained expression language — lexer, parser,
// AST, evaluator, and builtins — standing in for the "externally
// provided expression evaluator" spec.md treats as a consumed
// dependency. It is adapted from vogtb-go-spreadsheet's
// lexer/parser/builtin files, trimmed from a multi-sheet,
// named-range-aware language down to the single-flat-grid grammar
// this spec needs.
package formula

import "github.com/rlayton/cellflow/internal/value"

// Evaluate runs expr against the given variable bindings and clock.
// It always returns a Value: local evaluation failures (type errors,
// division by zero, unknown function, wrong argument count) and the
// transitive-error signal are both represented as Value with Kind ==
// value.Err — per spec.md §7, only a syntactic Parse failure is a Go
// error, and Parse has already succeeded by the time Evaluate runs.
func Evaluate(expr Expr, bindings map[string]value.Binding, clock Clock) value.Value {
	if clock == nil {
		clock = WallClock{}
	}
	ctx := &EvalContext{Bindings: bindings, Clock: clock}
	return expr.Eval(ctx)
}
