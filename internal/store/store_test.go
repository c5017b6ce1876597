package store

import (
	"testing"
	"time"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/value"
)

var (
	a1 = cellid.New(0, 0)
	b1 = cellid.New(1, 0)
	c1 = cellid.New(2, 0)
)

func TestAssignCreatesRecordAndBackReferences(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewInt(5), "5", nil, t0)
	s.Assign(b1, value.NewInt(6), "A1 + 1", []cellid.ID{a1}, t0.Add(time.Millisecond))

	snap := s.Lookup(a1)
	if _, ok := snap.ReverseDeps[b1]; !ok {
		t.Fatalf("expected A1.ReverseDeps to contain B1, got %v", snap.ReverseDeps)
	}
}

func TestAssignReassignmentPreservesReverseDeps(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewInt(5), "5", nil, t0)
	s.Assign(b1, value.NewInt(6), "A1 + 1", []cellid.ID{a1}, t0.Add(time.Millisecond))

	// Reassign A1 to a different expression with no dependencies.
	// B1 must remain a reverse dependent of A1 until B1 itself is
	// reassigned to stop reading A1.
	s.Assign(a1, value.NewInt(10), "10", nil, t0.Add(2*time.Millisecond))
	snap := s.Lookup(a1)
	if _, ok := snap.ReverseDeps[b1]; !ok {
		t.Fatalf("expected A1.ReverseDeps to still contain B1 after reassignment, got %v", snap.ReverseDeps)
	}
}

func TestAssignRemovesStaleForwardDependencyBackReference(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewInt(1), "1", nil, t0)
	s.Assign(c1, value.NewInt(1), "1", nil, t0)
	s.Assign(b1, value.NewInt(2), "A1", []cellid.ID{a1}, t0.Add(time.Millisecond))

	// B1 now reads C1 instead of A1.
	s.Assign(b1, value.NewInt(1), "C1", []cellid.ID{c1}, t0.Add(2*time.Millisecond))

	if _, ok := s.Lookup(a1).ReverseDeps[b1]; ok {
		t.Fatal("expected B1 to be removed from A1's reverse-deps")
	}
	if _, ok := s.Lookup(c1).ReverseDeps[b1]; !ok {
		t.Fatal("expected B1 to be added to C1's reverse-deps")
	}
}

func TestGetValueProjectsTransitiveErrorFromForwardDeps(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewError("bad"), "invalid", nil, t0)
	s.Assign(b1, value.NewInt(99), "A1 + 1", []cellid.ID{a1}, t0.Add(time.Millisecond))

	got := s.GetValue(b1)
	if !got.IsTransitive() {
		t.Fatalf("got %+v, want transitive error projected from A1", got)
	}
	// B1's own stored value is untouched by the projection.
	snap := s.Lookup(b1)
	if snap.Value.Num != 99 {
		t.Fatalf("stored value should be untouched, got %+v", snap.Value)
	}
}

func TestAssignRejectsStaleWrite(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewInt(1), "1", nil, t0)
	s.Assign(a1, value.NewInt(2), "2", nil, t0.Add(10*time.Millisecond))

	_, applied := s.Assign(a1, value.NewInt(999), "999", nil, t0.Add(5*time.Millisecond))
	if applied {
		t.Fatal("expected a stale Assign (older timestamp) to be rejected")
	}
	if got := s.GetValue(a1); got.Num != 2 {
		t.Fatalf("got %+v, want the newer write (2) to survive", got)
	}

	_, applied = s.Assign(a1, value.NewInt(3), "3", nil, t0.Add(20*time.Millisecond))
	if !applied {
		t.Fatal("expected a newer Assign to be applied")
	}
	if got := s.GetValue(a1); got.Num != 3 {
		t.Fatalf("got %+v, want 3", got)
	}
}

func TestCommitHonorsStrictTimestampGuard(t *testing.T) {
	s := New()
	t0 := time.Now()
	s.Assign(a1, value.NewInt(1), "1", nil, t0)

	// A later-stamped direct write.
	s.Assign(a1, value.NewInt(2), "2", nil, t0.Add(10*time.Millisecond))

	// A recompute timestamped before the direct write must be discarded.
	ok := s.Commit(a1, value.NewInt(999), t0.Add(5*time.Millisecond))
	if ok {
		t.Fatal("expected stale commit to be rejected")
	}
	if got := s.GetValue(a1); got.Num != 2 {
		t.Fatalf("got %+v, want the newer direct write (2) to survive", got)
	}

	// A recompute stamped strictly after the current timestamp succeeds.
	ok = s.Commit(a1, value.NewInt(3), t0.Add(20*time.Millisecond))
	if !ok {
		t.Fatal("expected newer commit to succeed")
	}
	if got := s.GetValue(a1); got.Num != 3 {
		t.Fatalf("got %+v, want 3", got)
	}

	// Equal timestamp ties favor the existing value (strict > required).
	ok = s.Commit(a1, value.NewInt(4), t0.Add(20*time.Millisecond))
	if ok {
		t.Fatal("expected tie to be rejected (strict greater-than required)")
	}
}

func TestLookupMissingCell(t *testing.T) {
	s := New()
	snap := s.Lookup(a1)
	if snap.Exists {
		t.Fatal("expected missing cell to report Exists == false")
	}
	if got := s.GetValue(a1); !got.IsAbsent() {
		t.Fatalf("got %+v, want absent", got)
	}
}
