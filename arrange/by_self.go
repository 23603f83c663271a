package arrange

import (
	"cmp"

	"github.com/go-kit/log"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/trace"
	"github.com/arrangedb/arrangedb/update"
)

// unit is the value used by set arrangements: every update carries no
// payload beyond its key, the same "presence, not content" collection
// spec §4.4 calls arranging "by self". It is a string rather than an
// empty struct so it still satisfies cmp.Ordered, the constraint every
// batch/trace value type needs for sorting; every unit is the same empty
// string, so it sorts and compares as a true singleton would.
type unit string

const unitValue unit = ""

// BySelf is a keyed arrangement specialized to set semantics: it arranges
// K by itself, with every val fixed to unitValue.
type BySelf[K cmp.Ordered] struct {
	inner *Arrangement[K, unit]
}

// NewBySelf creates an empty set arrangement.
func NewBySelf[K cmp.Ordered](name string, cfg trace.Config, logger log.Logger) *BySelf[K] {
	return &BySelf[K]{inner: NewByKey[K, unit](name, cfg, logger)}
}

// Insert buffers one (key, time, diff) update.
func (a *BySelf[K]) Insert(key K, t timestamp.Timestamp, d update.Diff) {
	a.inner.Insert(key, unitValue, t, d)
}

// AdvanceTo seals buffered updates as Arrangement.AdvanceTo does.
func (a *BySelf[K]) AdvanceTo(upper *frontier.Antichain) error {
	return a.inner.AdvanceTo(upper)
}

// Handle returns a fresh handle on the underlying keyed-by-self trace.
func (a *BySelf[K]) Handle() *trace.Handle[K, unit] {
	return a.inner.Handle()
}

// Trace exposes the underlying trace.
func (a *BySelf[K]) Trace() *trace.Trace[K, unit] {
	return a.inner.Trace()
}
