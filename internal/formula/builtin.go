package formula

import (
	"time"

	"github.com/rlayton/cellflow/internal/value"
)

// builtinFunc implements one formula-language builtin, following
// the teacher's name-dispatch idiom (vogtb-go-spreadsheet/builtin.go's
// Call method), trimmed to the handful spec.md's scenarios exercise:
// sum/avg/min/max over a range, and sleep_then for the out-of-order
// overwrite scenario (spec.md §8.5).
type builtinFunc func(ctx *EvalContext, args []Expr) value.Value

var builtins = map[string]builtinFunc{
	"sum":        builtinSum,
	"avg":        builtinAvg,
	"min":        builtinMin,
	"max":        builtinMax,
	"sleep_then": builtinSleepThen,
}

func lookupBuiltin(name string) (builtinFunc, bool) {
	fn, ok := builtins[name]
	return fn, ok
}

// flattenArg resolves a single call argument into its flat list of
// Values. A bare VarRef argument is resolved through ctx.Bindings so
// its true shape (scalar/vector/matrix) is honored; any other
// expression is evaluated and treated as a one-element list.
func flattenArg(ctx *EvalContext, arg Expr) []value.Value {
	if ref, ok := arg.(VarRef); ok {
		if b, ok := ctx.Bindings[ref.Token]; ok {
			switch b.Shape {
			case value.ShapeScalar:
				return []value.Value{b.Scalar}
			case value.ShapeVector:
				return b.Vector
			case value.ShapeMatrix:
				flat := make([]value.Value, 0, len(b.Matrix)*len(b.Matrix[0]))
				for _, row := range b.Matrix {
					flat = append(flat, row...)
				}
				return flat
			}
		}
		return []value.Value{value.None}
	}
	return []value.Value{arg.Eval(ctx)}
}

// reduceNumeric flattens every argument, short-circuits on any
// error value per spec.md §4.3's error short-circuit rule, and folds
// the remaining integers with fold starting from seed. Absent cells
// are skipped (treated as contributing nothing), matching the common
// spreadsheet convention that blank cells don't participate in
// aggregate functions.
func reduceNumeric(ctx *EvalContext, args []Expr, seed int64, fold func(acc, v int64) int64) (int64, int, value.Value) {
	acc := seed
	count := 0
	for _, arg := range args {
		for _, v := range flattenArg(ctx, arg) {
			if v.IsError() {
				return 0, 0, value.DependsOnError()
			}
			if v.IsAbsent() {
				continue
			}
			if v.Kind != value.Int {
				return 0, 0, value.NewError("numeric function requires integer operands")
			}
			acc = fold(acc, v.Num)
			count++
		}
	}
	return acc, count, value.Value{}
}

func builtinSum(ctx *EvalContext, args []Expr) value.Value {
	total, _, errVal := reduceNumeric(ctx, args, 0, func(acc, v int64) int64 { return acc + v })
	if errVal.Kind == value.Err {
		return errVal
	}
	return value.NewInt(total)
}

func builtinAvg(ctx *EvalContext, args []Expr) value.Value {
	total, count, errVal := reduceNumeric(ctx, args, 0, func(acc, v int64) int64 { return acc + v })
	if errVal.Kind == value.Err {
		return errVal
	}
	if count == 0 {
		return value.NewError("avg: no numeric operands")
	}
	return value.NewInt(total / int64(count))
}

func builtinMin(ctx *EvalContext, args []Expr) value.Value {
	first := true
	result, _, errVal := reduceNumeric(ctx, args, 0, func(acc, v int64) int64 {
		if first || v < acc {
			first = false
			return v
		}
		return acc
	})
	if errVal.Kind == value.Err {
		return errVal
	}
	return value.NewInt(result)
}

func builtinMax(ctx *EvalContext, args []Expr) value.Value {
	first := true
	result, _, errVal := reduceNumeric(ctx, args, 0, func(acc, v int64) int64 {
		if first || v > acc {
			first = false
			return v
		}
		return acc
	})
	if errVal.Kind == value.Err {
		return errVal
	}
	return value.NewInt(result)
}

// builtinSleepThen sleeps for the given number of milliseconds, then
// returns its second argument. Grounded on original_source's Rust
// test suite, which exercises sleep_then to exhibit the
// out-of-order-overwrite scenario (spec.md §8.5); it has no
// equivalent in vogtb-go-spreadsheet's builtin set and is authored
// fresh here in the same name-dispatch style.
func builtinSleepThen(ctx *EvalContext, args []Expr) value.Value {
	if len(args) != 2 {
		return value.NewError("sleep_then requires exactly 2 arguments")
	}
	ms := args[0].Eval(ctx)
	if ms.IsError() {
		return value.DependsOnError()
	}
	if ms.Kind != value.Int {
		return value.NewError("sleep_then: first argument must be an integer millisecond count")
	}
	result := args[1].Eval(ctx)
	clk := ctx.Clock
	if clk == nil {
		clk = WallClock{}
	}
	clk.Sleep(time.Duration(ms.Num) * time.Millisecond)
	return result
}
