// Package arrange implements the arrangement operator (spec §4.4): buffer
// updates, and on every input-frontier advance, seal the buffered updates
// into a batch and publish it into a trace shared by every downstream
// consumer (join, reduce, further arrangements).
//
// The buffer-then-seal lifecycle follows friggdb/wal/head_block.go's
// headBlock: Insert is headBlock.Write (append freely, update bookkeeping),
// AdvanceTo is headBlock.Complete (stop accepting writes, sort, seal,
// publish).
package arrange

import (
	"cmp"

	"github.com/go-kit/log"

	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/trace"
	"github.com/arrangedb/arrangedb/update"
)

// Arrangement buffers updates for one key-value collection and exposes
// shared, trace-backed read access to every downstream operator that
// clones its Handle (spec §4.3's "one arrangement, many consumers").
type Arrangement[K cmp.Ordered, V cmp.Ordered] struct {
	name    string
	bloomFP float64
	trace   *trace.Trace[K, V]
	writer  *trace.Handle[K, V]
	pending *batch.Builder[K, V]
	lower   *frontier.Antichain
}

// NewByKey creates an empty keyed arrangement.
func NewByKey[K cmp.Ordered, V cmp.Ordered](name string, cfg trace.Config, logger log.Logger) *Arrangement[K, V] {
	tr := trace.New[K, V](name, cfg, logger)
	return &Arrangement[K, V]{
		name:    name,
		bloomFP: cfg.BloomFP,
		trace:   tr,
		writer:  trace.NewHandle[K, V](tr),
		pending: batch.NewBuilder[K, V](cfg.BloomFP),
		lower:   frontier.Empty(),
	}
}

// Insert buffers one (key, val, time, diff) update. It is not yet visible
// to any reader until the next AdvanceTo seals it into a batch.
func (a *Arrangement[K, V]) Insert(key K, val V, t timestamp.Timestamp, d update.Diff) {
	a.pending.Add(key, val, t, d)
}

// InsertUpdate is a convenience wrapper over Insert for callers already
// holding an update.Update.
func (a *Arrangement[K, V]) InsertUpdate(u update.Update[K, V]) {
	a.Insert(u.Key, u.Val, u.Time, u.Diff)
}

// AdvanceTo seals every update buffered since the last AdvanceTo into one
// batch covering [previous upper, upper), and publishes it into the shared
// trace. upper must dominate the arrangement's current lower; arrangedb
// does not itself enforce this (the caller is expected to derive upper
// from an already-validated frontier notification).
func (a *Arrangement[K, V]) AdvanceTo(upper *frontier.Antichain) error {
	sealed := a.pending.Seal(a.lower, upper, a.trace.Since())
	if err := a.writer.Import(sealed); err != nil {
		return err
	}
	a.lower = upper.Clone()
	a.pending = batch.NewBuilder[K, V](a.bloomFP)
	return nil
}

// Handle returns a fresh, independently-progressing handle on this
// arrangement's trace for a downstream operator to read from.
func (a *Arrangement[K, V]) Handle() *trace.Handle[K, V] {
	return a.writer.Clone()
}

// Trace exposes the underlying trace directly, e.g. for tests that want to
// inspect level structure.
func (a *Arrangement[K, V]) Trace() *trace.Trace[K, V] {
	return a.trace
}
