package rangeref

import (
	"testing"

	"github.com/rlayton/cellflow/internal/cellid"
)

func TestParseScalar(t *testing.T) {
	tok, err := Parse("A1")
	if err != nil {
		t.Fatalf("Parse(A1) error: %v", err)
	}
	if tok.IsRange {
		t.Fatal("expected scalar token")
	}
	if tok.Scalar != cellid.New(0, 0) {
		t.Fatalf("unexpected scalar: %+v", tok.Scalar)
	}
}

func TestParseRangeShapes(t *testing.T) {
	cases := []struct {
		token string
		shape Shape
		cells int
	}{
		{"A1_B1", ShapeVectorRow, 2},
		{"A1_A2", ShapeVectorCol, 2},
		{"A1_B2", ShapeMatrix, 4},
		{"A1_A1", ShapeVector1x1, 1},
	}
	for _, tc := range cases {
		tok, err := Parse(tc.token)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.token, err)
		}
		if !tok.IsRange {
			t.Fatalf("Parse(%q): expected a range", tc.token)
		}
		if got := tok.Range.Shape(); got != tc.shape {
			t.Errorf("Parse(%q).Shape() = %v, want %v", tc.token, got, tc.shape)
		}
		if got := len(tok.Range.Cells()); got != tc.cells {
			t.Errorf("Parse(%q).Cells() len = %d, want %d", tc.token, got, tc.cells)
		}
	}
}

func TestParseMalformedRangeIsFailure(t *testing.T) {
	for _, bad := range []string{"B1_A1", "A2_A1", "A1_", "_A1", "A1_ZZ"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q): expected error for malformed range", bad)
		}
	}
}
