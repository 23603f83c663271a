package iterate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrangedb/arrangedb/arrange"
	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/cursor"
	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/join"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/trace"
	"github.com/arrangedb/arrangedb/update"
)

// TestTransitiveClosureReachesFixedPoint computes reachability over a
// 4-node cycle (0->1->2->3->0) by joining the loop's current contents
// (reindexed by the node reached so far) against a static, externally
// Entered edges arrangement at every round — the one-hop extension spec
// §4.7/§8 describe, composed from package join rather than a hand-walked
// adjacency map.
func TestTransitiveClosureReachesFixedPoint(t *testing.T) {
	outer := timestamp.Natural(0)

	edgeArr := arrange.NewByKey[int, int]("edges", trace.DefaultConfig(), nil)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}} {
		for _, u := range Enter[int, int]([]update.Update[int, int]{{Key: e[0], Val: e[1], Diff: 1, Time: timestamp.Natural(0)}}) {
			edgeArr.InsertUpdate(u)
		}
	}
	require.NoError(t, edgeArr.AdvanceTo(frontier.New(timestamp.Pair{Outer: timestamp.Natural(1), Inner: 0})))
	edgeHandle := edgeArr.Handle()

	v := NewVariable[int, int]("reach", outer, trace.DefaultConfig(), nil)
	require.NoError(t, v.Seed(Enter[int, int]([]update.Update[int, int]{
		{Key: 0, Val: 0, Diff: 1, Time: timestamp.Natural(0)},
		{Key: 1, Val: 1, Diff: 1, Time: timestamp.Natural(0)},
		{Key: 2, Val: 2, Diff: 1, Time: timestamp.Natural(0)},
		{Key: 3, Val: 3, Diff: 1, Time: timestamp.Natural(0)},
	})))

	compute := func(current cursor.Cursor[int, int]) []update.Update[int, int] {
		var reflexive, reindexed []update.Update[int, int]
		for current.KeyValid() {
			key := current.Key()
			for current.ValValid() {
				val := current.Val()
				current.MapTimes(func(t timestamp.Timestamp, d update.Diff) {
					if d <= 0 {
						return
					}
					reflexive = append(reflexive, update.Update[int, int]{Key: key, Val: val, Diff: 1, Time: t})
					reindexed = append(reindexed, update.Update[int, int]{Key: val, Val: key, Diff: 1, Time: t})
				})
				current.StepVal()
			}
			current.StepKey()
		}

		reindexedBatch := batch.NewBuilder[int, int](0)
		for _, u := range reindexed {
			reindexedBatch.Add(u.Key, u.Val, u.Time, u.Diff)
		}
		reindexedCursor := reindexedBatch.Seal(frontier.Empty(), frontier.New(timestamp.Pair{Outer: outer, Inner: 1 << 16}), frontier.Empty()).Cursor()

		var extended []update.Update[int, int]
		join.JoinCore[int, int, int, update.Update[int, int]](
			reindexedCursor, edgeHandle.Cursor(),
			func(_ int, origin, next int) update.Update[int, int] {
				return update.Update[int, int]{Key: origin, Val: next}
			},
			func(r update.Update[int, int], t timestamp.Timestamp, d update.Diff) {
				if d > 0 {
					extended = append(extended, update.Update[int, int]{Key: r.Key, Val: r.Val, Diff: 1, Time: t})
				}
			},
		)

		seen := make(map[int]map[int]bool)
		var out []update.Update[int, int]
		for _, u := range append(reflexive, extended...) {
			if seen[u.Key] == nil {
				seen[u.Key] = make(map[int]bool)
			}
			if seen[u.Key][u.Val] {
				continue
			}
			seen[u.Key][u.Val] = true
			out = append(out, u)
		}
		return out
	}

	rounds, err := v.Run(compute, 10)
	require.NoError(t, err)
	assert.Less(t, rounds, 10, "transitive closure over a 4-cycle should settle well before the round cap")

	final := v.Current()
	for key := 0; key < 4; key++ {
		assert.Len(t, final[key], 4, "node %d should reach all 4 nodes on a 4-cycle", key)
	}

	changed, err := v.Step(compute)
	require.NoError(t, err)
	assert.False(t, changed, "fixed point should be stable")
}
