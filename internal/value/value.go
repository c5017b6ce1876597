// Package value defines the cell value union and the shaped
// bindings (scalar, vector, matrix) that the formula evaluator reads
// variables through.
package value

import "fmt"

// VariableDependsOnError is the reserved error message that marks a
// cell whose value is tainted by a failing dependency, as opposed to
// a local evaluation failure (spec.md §3 invariant 4, §7).
const VariableDependsOnError = "VariableDependsOnError"

// Kind enumerates the tag of a Value.
type Kind uint8

const (
	// Absent marks a cell that has never been assigned.
	Absent Kind = iota
	Int
	Text
	Err
)

// Value is the immutable, comparable cell value: one of
// {integer, string literal, error with message, absent}.
type Value struct {
	Kind Kind
	Num  int64
	Str  string
	Msg  string // set when Kind == Err
}

// None is the absent value.
var None = Value{Kind: Absent}

// NewInt builds an integer value.
func NewInt(n int64) Value { return Value{Kind: Int, Num: n} }

// NewText builds a string value.
func NewText(s string) Value { return Value{Kind: Text, Str: s} }

// NewError builds an error value carrying message.
func NewError(message string) Value { return Value{Kind: Err, Msg: message} }

// DependsOnError is the canonical transitive-error sentinel value.
func DependsOnError() Value { return NewError(VariableDependsOnError) }

// IsError reports whether v carries an error, of any message.
func (v Value) IsError() bool { return v.Kind == Err }

// IsTransitive reports whether v is specifically the
// VariableDependsOnError sentinel, as opposed to a local failure.
func (v Value) IsTransitive() bool { return v.Kind == Err && v.Msg == VariableDependsOnError }

// IsAbsent reports whether v is the never-assigned sentinel.
func (v Value) IsAbsent() bool { return v.Kind == Absent }

// String renders v for display and debug logging.
func (v Value) String() string {
	switch v.Kind {
	case Absent:
		return ""
	case Int:
		return fmt.Sprintf("%d", v.Num)
	case Text:
		return v.Str
	case Err:
		return fmt.Sprintf("#ERROR: %s", v.Msg)
	default:
		return ""
	}
}

// Shape tags the container a variable binding takes.
type Shape uint8

const (
	// ShapeScalar binds a single Value.
	ShapeScalar Shape = iota
	// ShapeVector binds an ordered 1-D list (row or column range).
	ShapeVector
	// ShapeMatrix binds a 2-D, row-major list of lists.
	ShapeMatrix
)

// Binding is what a variable name resolves to when handed to the
// evaluator: a scalar, a vector, or a row-major matrix — or, per the
// error short-circuit rule, a scalar Error value standing in for any
// of the three shapes.
type Binding struct {
	Shape  Shape
	Scalar Value
	Vector []Value
	Matrix [][]Value
}

// ScalarBinding wraps a single value as a scalar-shaped binding.
func ScalarBinding(v Value) Binding { return Binding{Shape: ShapeScalar, Scalar: v} }

// VectorBinding wraps an ordered list as a vector-shaped binding.
func VectorBinding(vs []Value) Binding { return Binding{Shape: ShapeVector, Vector: vs} }

// MatrixBinding wraps a row-major grid as a matrix-shaped binding.
func MatrixBinding(rows [][]Value) Binding { return Binding{Shape: ShapeMatrix, Matrix: rows} }

// ErrorBinding wraps the transitive-error sentinel as a
// scalar-shaped binding, used by the Variable Resolver's
// error-short-circuit rule regardless of the variable's true shape.
func ErrorBinding() Binding { return ScalarBinding(DependsOnError()) }
