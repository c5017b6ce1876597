package value

import "testing"

func TestDependsOnErrorSentinel(t *testing.T) {
	v := DependsOnError()
	if !v.IsError() {
		t.Fatal("expected DependsOnError() to be an error value")
	}
	if !v.IsTransitive() {
		t.Fatal("expected DependsOnError() to be the transitive sentinel")
	}

	local := NewError("divide by zero")
	if !local.IsError() {
		t.Fatal("expected local error to be an error value")
	}
	if local.IsTransitive() {
		t.Fatal("local error must not be classified as transitive")
	}
}

func TestAbsent(t *testing.T) {
	if !None.IsAbsent() {
		t.Fatal("expected None to be absent")
	}
	if NewInt(0).IsAbsent() {
		t.Fatal("zero integer must not be absent")
	}
}

func TestBindingShapes(t *testing.T) {
	sb := ScalarBinding(NewInt(5))
	if sb.Shape != ShapeScalar {
		t.Fatalf("expected ShapeScalar, got %v", sb.Shape)
	}

	vb := VectorBinding([]Value{NewInt(1), NewInt(2)})
	if vb.Shape != ShapeVector || len(vb.Vector) != 2 {
		t.Fatalf("unexpected vector binding: %+v", vb)
	}

	mb := MatrixBinding([][]Value{{NewInt(1), NewInt(2)}, {NewInt(3), NewInt(4)}})
	if mb.Shape != ShapeMatrix || len(mb.Matrix) != 2 {
		t.Fatalf("unexpected matrix binding: %+v", mb)
	}

	eb := ErrorBinding()
	if eb.Shape != ShapeScalar || !eb.Scalar.IsTransitive() {
		t.Fatalf("expected error binding to be a transitive scalar, got %+v", eb)
	}
}
