package join

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arrangedb/arrangedb/batch"
	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/update"
)

func seal[V cmp.Ordered](t *testing.T, adds ...func(*batch.Builder[string, V])) *batch.Batch[string, V] {
	t.Helper()
	b := batch.NewBuilder[string, V](0)
	for _, a := range adds {
		a(b)
	}
	return b.Seal(frontier.Empty(), frontier.New(timestamp.Natural(1)), frontier.Empty())
}

func TestJoinCoreCrossProductsMatchingKeys(t *testing.T) {
	left := seal[string](t, func(b *batch.Builder[string, string]) {
		b.Add("k", "x", timestamp.Natural(0), 1)
		b.Add("k", "y", timestamp.Natural(0), 1)
	})
	right := seal[string](t, func(b *batch.Builder[string, string]) {
		b.Add("k", "1", timestamp.Natural(0), 1)
	})

	type pair struct{ v1, v2 string }
	var results []pair
	JoinCore[string, string, string, pair](
		left.Cursor(), right.Cursor(),
		func(_ string, v1, v2 string) pair { return pair{v1, v2} },
		func(r pair, _ timestamp.Timestamp, d update.Diff) {
			assert.EqualValues(t, 1, d)
			results = append(results, r)
		},
	)

	assert.ElementsMatch(t, []pair{{"x", "1"}, {"y", "1"}}, results)
}

func TestJoinCoreSkipsNonMatchingKeys(t *testing.T) {
	left := seal[string](t, func(b *batch.Builder[string, string]) { b.Add("a", "x", timestamp.Natural(0), 1) })
	right := seal[string](t, func(b *batch.Builder[string, string]) { b.Add("b", "y", timestamp.Natural(0), 1) })

	called := false
	JoinCore[string, string, string, string](
		left.Cursor(), right.Cursor(),
		func(_ string, v1, v2 string) string { return v1 + v2 },
		func(string, timestamp.Timestamp, update.Diff) { called = true },
	)
	assert.False(t, called, "no keys overlap, nothing should be emitted")
}
