package engine

import (
	"time"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/formula"
	"github.com/rlayton/cellflow/internal/store"
	"github.com/rlayton/cellflow/internal/value"
)

// Engine is the public surface spec.md §4.6 describes: Get and Set,
// backed by a Cell Store and a Propagation Worker running in its own
// goroutine for the lifetime of the Engine.
type Engine struct {
	store  *store.Store
	worker *Worker
	clock  formula.Clock
}

// New constructs an Engine and starts its Propagation Worker
// goroutine. Pass a nil clock to use the real wall clock; a non-nil
// clock is useful for deterministic tests of sleep_then-based
// scenarios.
func New(clock formula.Clock) *Engine {
	s := store.New()
	w := NewWorker(s, clock)
	e := &Engine{store: s, worker: w, clock: clock}
	go w.Run()
	return e
}

// Get implements spec.md §4.6's get(): absent for a never-assigned
// cell, the transitive sentinel if any forward dependency currently
// holds an error, otherwise the cell's stored value.
func (e *Engine) Get(id cellid.ID) value.Value {
	return e.store.GetValue(id)
}

// Set implements spec.md §4.6's set(): parse, compute forward deps,
// resolve variables, evaluate, commit (via the Dependency Tracker),
// and emit a change event to the Propagation Worker.
//
// On a parse failure, Set still commits a record — with Value set to
// a local Error(message) and no forward deps — so that cells already
// depending on id observe the transitive-error signal immediately,
// per SPEC_FULL.md's resolution of spec.md §7's first open question.
// The parse error is also returned to the caller so a session handler
// can reply with it synchronously.
func (e *Engine) Set(id cellid.ID, source string) error {
	at := time.Now()

	parsed, err := formula.Parse(source)
	if err != nil {
		if _, applied := e.store.Assign(id, value.NewError(err.Error()), source, nil, at); applied {
			e.worker.Enqueue(id)
		}
		return err
	}

	tokens := formula.VariableNames(parsed)
	deps := dependencyCells(tokens)
	bindings := resolveBindings(e.store, tokens)
	result := formula.Evaluate(parsed, bindings, e.clock)

	if _, applied := e.store.Assign(id, result, source, deps, at); applied {
		e.worker.Enqueue(id)
	}
	return nil
}

// Shutdown enqueues the worker's shutdown sentinel and blocks until
// it has drained every already-queued event and exited, per spec.md
// §4.5's lifecycle paragraph.
func (e *Engine) Shutdown() {
	e.worker.Shutdown()
	<-e.worker.Done()
}
