package trace

import (
	"cmp"
	"sync"

	"go.uber.org/atomic"

	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/frontier"
)

// Handle is a single consumer's reference-counted view of a Trace (spec
// §4.3, §5): it tracks its own through frontier (the times it still needs
// to read), and the trace's since is the meet of every live handle's
// through. Handle plays the role friggdb/pool.Pool's refcounted workers
// play for concurrent access, adapted with go.uber.org/atomic (the same
// package friggdb.FindMetrics and friggdb/pool.Pool use for shared
// counters) instead of a worker queue.
type Handle[K cmp.Ordered, V cmp.Ordered] struct {
	trace *Trace[K, V]

	mu      sync.Mutex
	through *frontier.Antichain

	refs   *atomic.Int64
	closed atomic.Bool
}

// NewHandle registers a fresh handle on t, starting with an empty through
// frontier. An empty through adds no element to the meet that forms the
// trace's since, so until SetThrough is called this handle does not hold
// compaction back.
func NewHandle[K cmp.Ordered, V cmp.Ordered](t *Trace[K, V]) *Handle[K, V] {
	h := &Handle[K, V]{
		trace:   t,
		through: frontier.Empty(),
		refs:    atomic.NewInt64(1),
	}
	t.mu.Lock()
	t.register(h)
	t.recomputeSince()
	t.mu.Unlock()
	return h
}

// Clone returns a new, independently-progressing handle on the same trace,
// starting at this handle's current through frontier. Both handles' refs
// share the same counter, so RefCount reports the total of live clones.
func (h *Handle[K, V]) Clone() *Handle[K, V] {
	h.mu.Lock()
	start := h.through.Clone()
	h.mu.Unlock()

	h.refs.Inc()
	clone := &Handle[K, V]{
		trace:   h.trace,
		through: start,
		refs:    h.refs,
	}
	h.trace.mu.Lock()
	h.trace.register(clone)
	h.trace.mu.Unlock()
	return clone
}

// Through returns the handle's current read frontier.
func (h *Handle[K, V]) Through() *frontier.Antichain {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.through.Clone()
}

// SetThrough advances the handle's through frontier and recomputes the
// trace's since. next must dominate the current through; arrangedb does
// not check this (callers only ever advance through along with a frontier
// notification that has already been validated to move forward).
func (h *Handle[K, V]) SetThrough(next *frontier.Antichain) {
	h.mu.Lock()
	h.through = next.Clone()
	h.mu.Unlock()

	h.trace.mu.Lock()
	h.trace.recomputeSince()
	h.trace.mu.Unlock()
}

// Cursor returns a cursor over the trace's current batches.
func (h *Handle[K, V]) Cursor() *cursor.MergeCursor[K, V] {
	return h.trace.Cursor()
}

// Import inserts a newly sealed batch into the underlying trace, the path
// an arrange operator uses to publish its output (spec §4.3).
func (h *Handle[K, V]) Import(b *batch.Batch[K, V]) error {
	return h.trace.Insert(b)
}

// Close marks the handle inactive. Its through frontier stops contributing
// to the trace's since, letting the trace physically compact past it.
func (h *Handle[K, V]) Close() {
	if h.closed.Swap(true) {
		return
	}
	h.refs.Dec()

	h.trace.mu.Lock()
	h.trace.recomputeSince()
	h.trace.mu.Unlock()
}

// RefCount reports how many clones of this handle (including itself) are
// still open.
func (h *Handle[K, V]) RefCount() int64 {
	return h.refs.Load()
}
