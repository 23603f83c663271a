package iterate

import (
	"cmp"

	"github.com/go-kit/log"

	"github.com/arrangedb/arrangedb/arrange"
	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/trace"
	"github.com/arrangedb/arrangedb/update"
)

// Variable drives one feedback loop of a nested scope (spec §4.7) for a
// single fixed outer epoch: each Step recomputes the desired collection
// from the current one, inserts only what changed at the next inner
// timestamp, and reports whether anything changed at all (the fixpoint
// test). Scoping a Variable to one outer epoch at a time — rather than
// letting many outer epochs iterate concurrently, as a full nested-scope
// scheduler would — keeps the inner frontier one-dimensional and the
// termination check a simple emptiness check.
type Variable[K cmp.Ordered, V cmp.Ordered] struct {
	outer timestamp.Timestamp
	inner uint64
	arr   *arrange.Arrangement[K, V]
}

// NewVariable creates a Variable for the given outer-scope timestamp.
func NewVariable[K cmp.Ordered, V cmp.Ordered](name string, outer timestamp.Timestamp, cfg trace.Config, logger log.Logger) *Variable[K, V] {
	return &Variable[K, V]{
		outer: outer,
		arr:   arrange.NewByKey[K, V](name, cfg, logger),
	}
}

// Seed inserts the initial (already Entered) contents of the loop at inner
// time zero.
func (v *Variable[K, V]) Seed(entered []update.Update[K, V]) error {
	return v.insertAndAdvance(entered)
}

// Grow inserts additional (already Entered) updates at the loop's current
// inner time and advances past them, the same way Seed does — a query
// collection widening mid-computation (spec §4.7/§8 S2's query growing from
// {A} to {A,B}) is just another round of external input, not a special
// case.
func (v *Variable[K, V]) Grow(entered []update.Update[K, V]) error {
	restamped := make([]update.Update[K, V], len(entered))
	for i, u := range entered {
		u.Time = timestamp.Pair{Outer: u.Time.(timestamp.Pair).Outer, Inner: v.inner}
		restamped[i] = u
	}
	return v.insertAndAdvance(restamped)
}

func (v *Variable[K, V]) insertAndAdvance(entered []update.Update[K, V]) error {
	for _, u := range entered {
		v.arr.InsertUpdate(u)
	}
	v.inner++
	return v.arr.AdvanceTo(frontier.New(timestamp.Pair{Outer: v.outer, Inner: v.inner}))
}

// Current materializes the loop's current accumulated contents as a
// key -> val -> net-diff map, summing every time's diff (there is exactly
// one inner dimension progressing here, so "current" means "as of now").
func (v *Variable[K, V]) Current() map[K]map[V]update.Diff {
	cur := v.arr.Handle().Cursor()
	out := make(map[K]map[V]update.Diff)

	for cur.KeyValid() {
		key := cur.Key()
		for cur.ValValid() {
			val := cur.Val()
			var total update.Diff
			cur.MapTimes(func(_ timestamp.Timestamp, d update.Diff) { total += d })
			if total != 0 {
				if out[key] == nil {
					out[key] = make(map[V]update.Diff)
				}
				out[key][val] = total
			}
			cur.StepVal()
		}
		cur.StepKey()
	}
	return out
}

// Cursor exposes a read cursor over the loop's current contents, so a
// compute body can join or reduce over it using packages join/reduce —
// e.g. joining it against an externally Entered, trace-backed
// arrangement's own cursor the way spec §4.7/§8 S2 describes — instead of
// only ever seeing a fully materialized map.
func (v *Variable[K, V]) Cursor() cursor.Cursor[K, V] {
	return v.arr.Handle().Cursor()
}

// Step evaluates compute against a cursor over the loop's current contents
// and inserts the difference between compute's proposed collection (given
// as a list of updates, consolidated without regard to time — compute is
// expected to build it by composing over package join/reduce, not by
// hand-walking a map) and the current one, at the next inner timestamp. It
// reports whether anything changed — false means the loop has reached its
// fixed point.
func (v *Variable[K, V]) Step(compute func(current cursor.Cursor[K, V]) []update.Update[K, V]) (bool, error) {
	current := v.Current()
	proposed := toTotals[K, V](compute(v.Cursor()))

	t := timestamp.Pair{Outer: v.outer, Inner: v.inner}
	var diffs []update.Update[K, V]

	for key, vals := range proposed {
		for val, want := range vals {
			if d := want - current[key][val]; d != 0 {
				diffs = append(diffs, update.Update[K, V]{Key: key, Val: val, Diff: d, Time: t})
			}
		}
	}
	for key, vals := range current {
		for val, have := range vals {
			if _, ok := proposed[key][val]; !ok && have != 0 {
				diffs = append(diffs, update.Update[K, V]{Key: key, Val: val, Diff: -have, Time: t})
			}
		}
	}

	if len(diffs) == 0 {
		return false, nil
	}

	for _, u := range diffs {
		v.arr.InsertUpdate(u)
	}
	v.inner++
	if err := v.arr.AdvanceTo(frontier.New(timestamp.Pair{Outer: v.outer, Inner: v.inner})); err != nil {
		return true, err
	}
	return true, nil
}

// toTotals sums a list of updates into key -> val -> total diff, ignoring
// time: compute's output represents one proposed snapshot of the loop's
// contents, not a per-time history.
func toTotals[K cmp.Ordered, V cmp.Ordered](ups []update.Update[K, V]) map[K]map[V]update.Diff {
	out := make(map[K]map[V]update.Diff)
	for _, u := range ups {
		if out[u.Key] == nil {
			out[u.Key] = make(map[V]update.Diff)
		}
		out[u.Key][u.Val] += u.Diff
	}
	for key, vals := range out {
		for val, d := range vals {
			if d == 0 {
				delete(vals, val)
			}
		}
		if len(vals) == 0 {
			delete(out, key)
		}
	}
	return out
}

// Run calls Step repeatedly until it reports no change or maxRounds is
// reached, and returns the number of rounds actually run. maxRounds guards
// against a compute function that never settles.
func (v *Variable[K, V]) Run(compute func(current cursor.Cursor[K, V]) []update.Update[K, V], maxRounds int) (int, error) {
	rounds := 0
	for rounds < maxRounds {
		changed, err := v.Step(compute)
		if err != nil {
			return rounds, err
		}
		rounds++
		if !changed {
			break
		}
	}
	return rounds, nil
}

// Result returns the loop's current contents lifted back to the outer
// timestamp (spec §4.7's Leave), ready to flow into the enclosing scope.
func (v *Variable[K, V]) Result() []update.Update[K, V] {
	current := v.Current()
	var out []update.Update[K, V]
	for key, vals := range current {
		for val, d := range vals {
			out = append(out, update.Update[K, V]{Key: key, Val: val, Diff: d, Time: v.outer})
		}
	}
	return out
}
