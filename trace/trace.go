// Package trace implements the shared, LSM-structured collection of
// batches that backs an arrangement (spec §4.3): an append-only sequence
// of immutable batches, periodically merged into fewer, larger batches as
// they age, with a single compaction frontier (since) shared by every
// handle that still needs updates at or behind it.
//
// The shape follows friggdb.go's readerWriter: a mutex-guarded in-memory
// list (there, a polled blocklist; here, merge levels) plus a compactor
// that folds several inputs into one output by walking them in lockstep
// (friggdb/compactor.go). Unlike friggdb's background poll-and-compact
// goroutine, merges here run synchronously inside Insert — the same
// choice friggdb's own compactor.compact makes once invoked (it runs a
// blocking loop to completion rather than yielding progress per step).
package trace

import (
	"cmp"
	"strconv"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
)

var (
	metricBatchesInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arrangedb",
		Name:      "trace_batches_inserted_total",
		Help:      "Total number of batches inserted into a trace.",
	}, []string{"trace"})
	metricMergesPerformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arrangedb",
		Name:      "trace_merges_total",
		Help:      "Total number of level merges performed by a trace.",
	}, []string{"trace"})
	metricLevelLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "arrangedb",
		Name:      "trace_level_length",
		Help:      "Number of batches currently held at a trace level.",
	}, []string{"trace", "level"})
)

// ErrBoundaryMismatch is returned by Insert when the new batch's Lower
// frontier does not match the trace's current Upper frontier — batches
// must chain, spec §4.2's "every batch's Lower equals the previous batch's
// Upper" invariant.
var ErrBoundaryMismatch = errors.New("trace: batch lower does not match trace upper")

// Trace is the shared, mergeable history of a single arranged collection.
type Trace[K cmp.Ordered, V cmp.Ordered] struct {
	name string
	cfg  Config

	mu     sync.Mutex
	levels [][]*batch.Batch[K, V]
	upper  *frontier.Antichain
	since  *frontier.Antichain

	handles            []*Handle[K, V]
	physicalCompaction bool
	logicalCompaction  bool

	logger log.Logger
}

// New returns an empty trace named name (used only for logging/metrics
// labels), with an empty upper frontier: the first inserted batch is
// accepted whatever its lower frontier.
func New[K cmp.Ordered, V cmp.Ordered](name string, cfg Config, logger log.Logger) *Trace[K, V] {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Trace[K, V]{
		name:               name,
		cfg:                cfg,
		upper:              frontier.Empty(),
		since:              frontier.Empty(),
		physicalCompaction: true,
		logicalCompaction:  true,
		logger:             logger,
	}
}

// SetPhysicalCompaction toggles whether merged batches are allowed to
// advance their Since past the merge inputs' meet (i.e. actually discard
// history), independent of whether merging itself happens.
func (t *Trace[K, V]) SetPhysicalCompaction(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.physicalCompaction = enabled
}

// SetLogicalCompaction toggles whether newly computed since frontiers are
// applied to batches at all (via Compact) as opposed to only tracked.
func (t *Trace[K, V]) SetLogicalCompaction(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logicalCompaction = enabled
}

// Since returns the trace's current compaction frontier: the meet of every
// live handle's through frontier (spec §3).
func (t *Trace[K, V]) Since() *frontier.Antichain {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.since.Clone()
}

// Upper returns the frontier beyond the last batch inserted.
func (t *Trace[K, V]) Upper() *frontier.Antichain {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.upper.Clone()
}

// Insert appends b to the trace. b.Lower must equal the trace's current
// Upper (spec §4.2); the trace has no way to fill a gap. Insert may trigger
// one or more synchronous level merges.
func (t *Trace[K, V]) Insert(b *batch.Batch[K, V]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.levels) > 0 || !t.upper.IsEmpty() {
		if !frontiersEqual(t.upper, b.Lower) {
			return errors.Wrapf(ErrBoundaryMismatch, "trace %q", t.name)
		}
	}

	if len(t.levels) == 0 {
		t.levels = append(t.levels, nil)
	}
	t.levels[0] = append(t.levels[0], b)
	t.upper = b.Upper.Clone()
	metricBatchesInserted.WithLabelValues(t.name).Inc()

	t.mergeLevels()
	t.reportLevelLengths()
	return nil
}

// mergeLevels folds over-full levels into the next level, cascading as far
// as needed. Must be called with mu held.
func (t *Trace[K, V]) mergeLevels() {
	for i := 0; i < len(t.levels); i++ {
		if len(t.levels[i]) < t.cfg.MergeEffort {
			continue
		}

		merged := t.mergeBatches(t.levels[i])
		t.levels[i] = nil

		if i+1 == len(t.levels) {
			t.levels = append(t.levels, nil)
		}
		t.levels[i+1] = append(t.levels[i+1], merged)
		metricMergesPerformed.WithLabelValues(t.name).Inc()
		level.Debug(t.logger).Log("msg", "merged trace level", "trace", t.name, "level", i, "into", i+1)
	}
}

// mergeBatches merges a run of adjacent batches into one, via the same
// cursor-of-cursors walk join/reduce use to read a trace, sealing with
// since advanced to the trace's tracked since if physical compaction is
// enabled.
func (t *Trace[K, V]) mergeBatches(batches []*batch.Batch[K, V]) *batch.Batch[K, V] {
	cursors := make([]cursor.Cursor[K, V], len(batches))
	for i, b := range batches {
		cursors[i] = b.Cursor()
	}
	merged := cursor.Merge[K, V](cursors...)

	newSince := batches[0].Since.Clone()
	for _, b := range batches[1:] {
		newSince = frontier.Meet(newSince, b.Since)
	}
	if t.physicalCompaction && !t.since.IsEmpty() {
		if newSince.IsEmpty() {
			newSince = t.since.Clone()
		} else {
			newSince = frontier.Join(newSince, t.since)
		}
	}

	builder := batch.NewBuilder[K, V](t.cfg.BloomFP)
	for merged.KeyValid() {
		key := merged.Key()
		for merged.ValValid() {
			val := merged.Val()
			merged.MapTimes(func(tm timestamp.Timestamp, d int64) {
				builder.Add(key, val, newSince.Coarsen(tm), d)
			})
			merged.StepVal()
		}
		merged.StepKey()
	}

	lower := batches[0].Lower
	upper := batches[len(batches)-1].Upper
	return builder.Seal(lower, upper, newSince)
}

// Cursor returns a merge cursor over every batch currently held by the
// trace, oldest levels first.
func (t *Trace[K, V]) Cursor() *cursor.MergeCursor[K, V] {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cursors []cursor.Cursor[K, V]
	for i := len(t.levels) - 1; i >= 0; i-- {
		for _, b := range t.levels[i] {
			cursors = append(cursors, b.Cursor())
		}
	}
	return cursor.Merge[K, V](cursors...)
}

// register adds h to the set of handles whose through frontiers bound this
// trace's since. Must be called with mu held.
func (t *Trace[K, V]) register(h *Handle[K, V]) {
	t.handles = append(t.handles, h)
}

// recomputeSince reduces every registered handle's through frontier via
// meet, updates t.since, and — if logical compaction is enabled — applies
// the new since to every held batch. Must be called with mu held.
func (t *Trace[K, V]) recomputeSince() {
	next := frontier.Empty()
	first := true
	for _, h := range t.handles {
		if h.closed.Load() {
			continue
		}
		through := h.Through()
		if first {
			next = through
			first = false
			continue
		}
		next = frontier.Meet(next, through)
	}
	t.since = next

	if !t.logicalCompaction {
		return
	}
	for i, lvl := range t.levels {
		for j, b := range lvl {
			if frontiersEqual(b.Since, next) {
				continue
			}
			t.levels[i][j] = batch.Compact[K, V](b, next, t.cfg.BloomFP)
		}
	}
}

func (t *Trace[K, V]) reportLevelLengths() {
	for i, lvl := range t.levels {
		metricLevelLength.WithLabelValues(t.name, strconv.Itoa(i)).Set(float64(len(lvl)))
	}
}

func frontiersEqual(a, b *frontier.Antichain) bool {
	return a.Dominates(b) && b.Dominates(a)
}
