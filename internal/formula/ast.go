package formula

import (
	"strings"
	"time"

	"github.com/rlayton/cellflow/internal/value"
)

// Clock abstracts wall-clock sleeping so sleep_then is deterministic
// under test, mirroring the teacher's Clock/WallClock testability
// seam (vogtb-go-spreadsheet/builtin.go).
type Clock interface {
	Sleep(d time.Duration)
}

// WallClock sleeps for real, via time.Sleep.
type WallClock struct{}

// Sleep blocks the calling goroutine for d.
func (WallClock) Sleep(d time.Duration) { time.Sleep(d) }

// EvalContext carries everything Eval needs: the resolved variable
// bindings (one entry per distinct token returned by VariableNames)
// and the clock used by time-based builtins.
type EvalContext struct {
	Bindings map[string]value.Binding
	Clock    Clock
}

// Expr is a parsed formula AST node.
type Expr interface {
	// Eval evaluates the node against ctx. It never returns a Go
	// error: local evaluation failures and the transitive-error
	// signal are both represented as value.Value with Kind == Err,
	// per spec.md §7's error taxonomy (only a malformed *parse*
	// produces a Go error, and that happens before Eval ever runs).
	Eval(ctx *EvalContext) value.Value
	// collectVars appends, in left-to-right evaluation order, every
	// variable token this node (and its children) reference.
	collectVars(out *[]string)
}

// NumberLit is an integer literal.
type NumberLit struct{ Value int64 }

func (n NumberLit) Eval(*EvalContext) value.Value { return value.NewInt(n.Value) }
func (n NumberLit) collectVars(*[]string)          {}

// StringLit is a quoted string literal.
type StringLit struct{ Value string }

func (s StringLit) Eval(*EvalContext) value.Value { return value.NewText(s.Value) }
func (s StringLit) collectVars(*[]string)          {}

// VarRef is a scalar-or-range variable token, e.g. "A1" or "A1_B2".
// Range tokens are consumed with their full shape only as a Call
// argument (e.g. sum(A1_B1)). Evaluated on its own, a VarRef yields
// its binding's scalar value (which is also how the short-circuit
// error binding arrives), absent when the token has no binding, and
// a local error when the binding is a vector or matrix.
type VarRef struct{ Token string }

func (v VarRef) Eval(ctx *EvalContext) value.Value {
	b, ok := ctx.Bindings[v.Token]
	if !ok {
		return value.None
	}
	switch b.Shape {
	case value.ShapeScalar:
		return b.Scalar
	default:
		// A range token referenced outside of a shape-aware builtin
		// has no scalar value; treat it as a local error rather than
		// panicking on shape mismatch.
		return value.NewError("range reference used where a scalar value is required")
	}
}

func (v VarRef) collectVars(out *[]string) { *out = append(*out, v.Token) }

// BinOp is one of + - * / applied to two integer operands.
type BinOp struct {
	Op          byte // '+', '-', '*', '/'
	Left, Right Expr
}

func (b BinOp) Eval(ctx *EvalContext) value.Value {
	l := b.Left.Eval(ctx)
	r := b.Right.Eval(ctx)
	if l.IsError() || r.IsError() {
		return value.DependsOnError()
	}
	if l.Kind != value.Int || r.Kind != value.Int {
		return value.NewError("arithmetic operator requires integer operands")
	}
	switch b.Op {
	case '+':
		return value.NewInt(l.Num + r.Num)
	case '-':
		return value.NewInt(l.Num - r.Num)
	case '*':
		return value.NewInt(l.Num * r.Num)
	case '/':
		if r.Num == 0 {
			return value.NewError("division by zero")
		}
		return value.NewInt(l.Num / r.Num)
	default:
		return value.NewError("unknown operator")
	}
}

func (b BinOp) collectVars(out *[]string) {
	b.Left.collectVars(out)
	b.Right.collectVars(out)
}

// Call is a builtin function invocation, e.g. sum(A1_B1) or
// sleep_then(200, 10).
type Call struct {
	Name string
	Args []Expr
}

func (c Call) Eval(ctx *EvalContext) value.Value {
	fn, ok := lookupBuiltin(strings.ToLower(c.Name))
	if !ok {
		return value.NewError("unknown function: " + c.Name)
	}
	return fn(ctx, c.Args)
}

func (c Call) collectVars(out *[]string) {
	for _, a := range c.Args {
		a.collectVars(out)
	}
}

// VariableNames enumerates, in expression order and with duplicates
// preserved, every variable token expr references — scalar and
// range tokens alike — per spec.md §4.4 step 1 / §6.1.
func VariableNames(expr Expr) []string {
	var out []string
	expr.collectVars(&out)
	return out
}
