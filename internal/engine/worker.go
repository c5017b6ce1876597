package engine

import (
	"sync"
	"time"

	"github.com/katalvlaran/lvlath/core"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/formula"
	"github.com/rlayton/cellflow/internal/store"
)

// changeEvent is the Propagation Worker's unit of work: either a
// cell-update notification or the shutdown sentinel, both carried
// in-band on the same queue so that any updates already enqueued
// ahead of a shutdown are drained first — spec.md §4.5's "Lifecycle"
// paragraph and original_source/spreadsheet.rs's UpdateMessage enum
// (CellUpdate / Shutdown) are the grounding for this shape.
type changeEvent struct {
	id       cellid.ID
	shutdown bool
}

// eventQueue is a small unbounded FIFO backed by a mutex and
// condition variable — the standard Go idiom for an unbounded
// channel, used here because spec.md §5's "Channel discipline"
// requires an unbounded multi-producer, single-consumer queue, which
// a fixed-capacity Go channel cannot provide without an arbitrary
// backpressure limit.
type eventQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []changeEvent
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(e changeEvent) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an event is available.
func (q *eventQueue) pop() changeEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e
}

// Worker is the Propagation Worker of spec.md §4.5: a single
// goroutine consuming change events and re-evaluating every
// transitive consumer of the changed cell, honoring the
// timestamp-guarded commit.
type Worker struct {
	store *store.Store
	queue *eventQueue
	clock formula.Clock
	done  chan struct{}
}

// NewWorker constructs a Worker bound to s. clock is passed through
// to the formula evaluator for builtins like sleep_then; pass nil to
// use the real wall clock.
func NewWorker(s *store.Store, clock formula.Clock) *Worker {
	return &Worker{
		store: s,
		queue: newEventQueue(),
		clock: clock,
		done:  make(chan struct{}),
	}
}

// Enqueue submits a change event carrying id, per spec.md §4.6 step
// 7. Safe to call from any goroutine.
func (w *Worker) Enqueue(id cellid.ID) {
	w.queue.push(changeEvent{id: id})
}

// Shutdown enqueues the shutdown sentinel. It does not block for the
// worker to actually exit; use Done to wait on that.
func (w *Worker) Shutdown() {
	w.queue.push(changeEvent{shutdown: true})
}

// Done returns a channel closed once Run has observed the shutdown
// sentinel and returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run drains events until the shutdown sentinel is observed. New
// launches it once in its own goroutine.
func (w *Worker) Run() {
	defer close(w.done)
	for {
		e := w.queue.pop()
		if e.shutdown {
			return
		}
		w.processChange(e.id)
	}
}

// processChange implements spec.md §4.5's three stages for a single
// change event.
func (w *Worker) processChange(origin cellid.ID) {
	graph := core.NewGraph(core.WithDirected(true))

	// Stage 1: reverse-BFS over reverse_deps, building G with edges
	// u -> v meaning "v must be recomputed after u".
	_ = graph.AddVertex(origin.String())
	visited := map[cellid.ID]bool{origin: true}
	queue := []cellid.ID{origin}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range w.store.ReverseDepsOf(u) {
			_ = graph.AddVertex(v.String())
			_, _ = graph.AddEdge(u.String(), v.String(), 0)
			if !visited[v] {
				visited[v] = true
				queue = append(queue, v)
			}
		}
	}

	// Stage 2: cycle-tolerant topological order.
	order := topologicalOrder(graph)

	// Stage 3: recompute every transitive consumer in order. The
	// originating cell is excluded — its value was already committed
	// synchronously by the caller of Set.
	for _, key := range order {
		if key == origin.String() {
			continue
		}
		id, err := cellid.Parse(key)
		if err != nil {
			continue
		}
		w.recompute(id)
	}
}

// recompute re-evaluates id's currently stored expression against
// the current store state and commits the result if, and only if,
// the recompute's start time is strictly newer than id's current
// LastUpdateTime (spec.md §4.5 Stage 3).
func (w *Worker) recompute(id cellid.ID) {
	expr, ok := w.store.ExpressionOf(id)
	if !ok {
		return
	}
	start := time.Now()
	parsed, err := formula.Parse(expr)
	if err != nil {
		// The stored expression was accepted by set, so a fresh parse
		// failure cannot arise here (spec.md §4.5 Stage 3 note). Guard
		// defensively rather than panic: leave the cell untouched.
		return
	}
	tokens := formula.VariableNames(parsed)
	bindings := resolveBindings(w.store, tokens)
	result := formula.Evaluate(parsed, bindings, w.clock)
	w.store.Commit(id, result, start)
}

// visitState is the White/Gray/Black marking scheme used by the
// hand-written topological sort below, named after
// katalvlaran-lvlath/dfs/topological.go's visited-state convention.
type visitState uint8

const (
	white visitState = iota
	gray
	black
)

// topologicalOrder produces a linear order in which every vertex
// appears after all vertices it transitively depends on (i.e. every
// producer before its consumers along a u->v edge), via DFS
// post-order reversed. Unlike lvlath's own dfs.TopologicalSort
// (which returns ErrCycleDetected on a gray-vertex revisit), this
// walk silently skips the back-edge and continues — spec.md §4.5/§9
// requires the worker stay live even under a malformed, cyclic
// dependency graph, matching original_source/spreadsheet.rs's
// visit() function, which returns without marking on a
// temporary-mark revisit rather than erroring.
func topologicalOrder(g *core.Graph) []string {
	state := make(map[string]visitState)
	var postOrder []string

	var visit func(id string)
	visit = func(id string) {
		switch state[id] {
		case black:
			return
		case gray:
			// Back-edge into a node still being visited: a cycle.
			// Skip it rather than recursing or erroring.
			return
		}
		state[id] = gray
		neighbors, err := g.Neighbors(id)
		if err == nil {
			for _, e := range neighbors {
				visit(e.To)
			}
		}
		state[id] = black
		postOrder = append(postOrder, id)
	}

	for _, id := range g.Vertices() {
		visit(id)
	}

	order := make([]string, len(postOrder))
	for i, id := range postOrder {
		order[len(postOrder)-1-i] = id
	}
	return order
}
