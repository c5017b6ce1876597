// Package store implements the Cell Store (spec.md §4.1) and the
// Dependency Tracker (spec.md §4.4): a single mutex-guarded mapping
// from cell id to cell record, with forward/reverse dependency-set
// bookkeeping on every write.
package store

import (
	"sync"
	"time"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/value"
)

// Record is one cell's stored state, per spec.md §3.
type Record struct {
	Value          value.Value
	Expression     string
	ForwardDeps    []cellid.ID            // ordered, duplicates allowed
	ReverseDeps    map[cellid.ID]struct{} // unordered set
	LastUpdateTime time.Time
}

func newRecord() *Record {
	return &Record{
		Value:       value.None,
		ReverseDeps: make(map[cellid.ID]struct{}),
	}
}

// cloneReverseDeps returns a shallow copy of a reverse-dep set, used
// so callers observing a snapshot never see concurrent mutation.
func cloneReverseDeps(deps map[cellid.ID]struct{}) map[cellid.ID]struct{} {
	out := make(map[cellid.ID]struct{}, len(deps))
	for id := range deps {
		out[id] = struct{}{}
	}
	return out
}

// Store is the thread-safe cell store. The zero value is not usable;
// construct with New. The lock is intentionally single and coarse
// per spec.md §4.1/§5 — every operation that touches cell state
// serializes on it, and callers are expected to hold it only for the
// minimum necessary scope (this package's own methods already do
// that; see Engine/Worker for the snapshot-release-compute-reacquire
// pattern spec.md §5 mandates across a whole recompute).
type Store struct {
	mu    sync.Mutex
	cells map[cellid.ID]*Record
}

// New constructs an empty Store.
func New() *Store {
	return &Store{cells: make(map[cellid.ID]*Record)}
}

// Snapshot is a read-only copy of a cell record, safe to use after
// the store's lock has been released.
type Snapshot struct {
	Exists         bool
	Value          value.Value
	Expression     string
	ForwardDeps    []cellid.ID
	ReverseDeps    map[cellid.ID]struct{}
	LastUpdateTime time.Time
}

// Lookup returns a snapshot of id's record, or Exists == false if
// the cell has never been assigned.
func (s *Store) Lookup(id cellid.ID) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cells[id]
	if !ok {
		return Snapshot{}
	}
	return snapshotOf(rec)
}

func snapshotOf(rec *Record) Snapshot {
	deps := make([]cellid.ID, len(rec.ForwardDeps))
	copy(deps, rec.ForwardDeps)
	return Snapshot{
		Exists:         true,
		Value:          rec.Value,
		Expression:     rec.Expression,
		ForwardDeps:    deps,
		ReverseDeps:    cloneReverseDeps(rec.ReverseDeps),
		LastUpdateTime: rec.LastUpdateTime,
	}
}

// GetValue returns id's currently stored value (value.None if the
// cell has never been assigned), applying the read-time error
// projection spec.md §4.6's get() requires: if any existing forward
// dependency currently holds an error value, the projected value is
// the transitive sentinel regardless of what is actually stored.
func (s *Store) GetValue(id cellid.ID) value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valueOfLocked(id)
}

// valueOfLocked is GetValue's body without its own locking, so
// multi-cell callers (Values) can take a single snapshot under one
// lock acquisition, per spec.md §4.3's "one snapshot under the Cell
// Store lock per call" requirement.
func (s *Store) valueOfLocked(id cellid.ID) value.Value {
	rec, ok := s.cells[id]
	if !ok {
		return value.None
	}
	for _, dep := range rec.ForwardDeps {
		if depRec, exists := s.cells[dep]; exists && depRec.Value.IsError() {
			return value.DependsOnError()
		}
	}
	return rec.Value
}

// Values returns the projected value (same read-time error
// projection as GetValue) of every id in ids, all read under a
// single lock acquisition.
func (s *Store) Values(ids []cellid.ID) map[cellid.ID]value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[cellid.ID]value.Value, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = s.valueOfLocked(id)
	}
	return out
}

// ReverseDepsOf returns a snapshot of id's reverse-dependency set
// (empty if the cell does not exist or has no dependents), used by
// the Propagation Worker's Stage 1 BFS.
func (s *Store) ReverseDepsOf(id cellid.ID) []cellid.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cells[id]
	if !ok {
		return nil
	}
	out := make([]cellid.ID, 0, len(rec.ReverseDeps))
	for dep := range rec.ReverseDeps {
		out = append(out, dep)
	}
	return out
}

// ExpressionOf returns the currently stored expression source for
// id, used by the worker to re-parse and re-evaluate a cell during
// recomputation (spec.md §4.5 Stage 3 step 1).
func (s *Store) ExpressionOf(id cellid.ID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cells[id]
	if !ok {
		return "", false
	}
	return rec.Expression, true
}

// Commit writes a freshly computed value for id if, and only if, at
// is strictly after the cell's current LastUpdateTime (or the cell
// doesn't exist yet) — spec.md §4.5 Stage 3 step 4's
// timestamp-guarded commit. It reports whether the write happened.
// Commit does not touch ForwardDeps/ReverseDeps/Expression: it is
// used exclusively by the worker's recompute path, which never
// changes a cell's dependency shape, only its value.
func (s *Store) Commit(id cellid.ID, v value.Value, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cells[id]
	if !ok {
		// The worker only recomputes cells reachable via reverse-deps
		// from an already-assigned cell, so the target must already
		// have a record (it was the source of some dependency edge).
		// Guard defensively rather than panic.
		rec = newRecord()
		s.cells[id] = rec
	}
	if !at.After(rec.LastUpdateTime) {
		return false
	}
	rec.Value = v
	rec.LastUpdateTime = at
	return true
}
