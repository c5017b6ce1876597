package store

import (
	"time"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/value"
)

// Assign performs the synchronous half of spec.md §4.6's set(): it
// writes id's new value/expression/forward-deps stamped at time at,
// and runs the Dependency Tracker (spec.md §4.4) under the same lock
// acquisition — diffing the old and new forward-dependency sets and
// updating the affected cells' reverse-dep sets accordingly, while
// preserving id's own previously accumulated reverse-deps across the
// reassignment (original_source/spreadsheet.rs's update_cell_info is
// the authoritative source for this preservation rule).
//
// Assign is guarded by the same strict-greater-than timestamp rule
// as the worker's Commit (spec.md §4.5 Stage 3 step 4): a stale
// Assign (an older-stamped direct set whose evaluation happens to
// finish after a newer-stamped one already committed) is rejected
// outright, including its dependency-tracker bookkeeping, so it
// can't clobber a newer set's value *or* corrupt the forward/reverse
// dependency sets the newer set already installed. This is a
// deliberate unification beyond what spec.md §4.6 states literally
// (which describes set()'s commit without mentioning a guard): it is
// required to satisfy spec.md §8's explicit "last-write-wins on same
// cell" property, since two concurrent Set calls race without ever
// holding the store lock across evaluation (spec.md §5) — see
// DESIGN.md.
//
// Assign reports whether the write was applied.
func (s *Store) Assign(id cellid.ID, v value.Value, expression string, forwardDeps []cellid.ID, at time.Time) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, existed := s.cells[id]
	if existed && !at.After(rec.LastUpdateTime) {
		return snapshotOf(rec), false
	}

	var oldForward []cellid.ID
	var reverseDeps map[cellid.ID]struct{}
	if existed {
		oldForward = rec.ForwardDeps
		reverseDeps = rec.ReverseDeps
	} else {
		reverseDeps = make(map[cellid.ID]struct{})
	}

	// Step 3: remove this cell from the reverse-deps of every
	// previously-read dependency that no longer appears in the new
	// forward set (or at all — duplicates collapse naturally since
	// reverse-dep sets are sets).
	oldSet := toSet(oldForward)
	newSet := toSet(forwardDeps)
	for dep := range oldSet {
		if _, stillDep := newSet[dep]; stillDep {
			continue
		}
		if target, ok := s.cells[dep]; ok {
			delete(target.ReverseDeps, id)
		}
	}

	// Step 4: add this cell to the reverse-deps of every newly-read
	// dependency that exists in the store. A dependency on a
	// never-assigned cell is permitted (spec.md §3 invariant 1) but
	// contributes no reverse-dep edge. Setting that cell later does not
	// add the edge, and neither does a reassignment of this cell that
	// still reads it, since dependencies already in the old forward set
	// are skipped here.
	for dep := range newSet {
		if _, wasDep := oldSet[dep]; wasDep {
			continue
		}
		if target, ok := s.cells[dep]; ok {
			target.ReverseDeps[id] = struct{}{}
		}
	}

	// Step 5: write the new record, preserving reverse-deps.
	rec = &Record{
		Value:          v,
		Expression:     expression,
		ForwardDeps:    forwardDeps,
		ReverseDeps:    reverseDeps,
		LastUpdateTime: at,
	}
	s.cells[id] = rec

	return snapshotOf(rec), true
}

func toSet(ids []cellid.ID) map[cellid.ID]struct{} {
	set := make(map[cellid.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
