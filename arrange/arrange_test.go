package arrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrangedb/arrangedb/frontier"
	"github.com/arrangedb/arrangedb/timestamp"
	"github.com/arrangedb/arrangedb/trace"
)

func TestArrangeByKeySealsOnAdvance(t *testing.T) {
	a := NewByKey[string, string]("edges", trace.DefaultConfig(), nil)
	a.Insert("a", "b", timestamp.Natural(0), 1)
	a.Insert("a", "c", timestamp.Natural(0), 1)

	require.NoError(t, a.AdvanceTo(frontier.New(timestamp.Natural(1))))

	h := a.Handle()
	cur := h.Cursor()
	require.True(t, cur.KeyValid())
	assert.Equal(t, "a", cur.Key())

	var vals []string
	for cur.ValValid() {
		vals = append(vals, cur.Val())
		cur.StepVal()
	}
	assert.Equal(t, []string{"b", "c"}, vals)
}

func TestArrangeBySelfTracksPresence(t *testing.T) {
	a := NewBySelf[string]("nodes", trace.DefaultConfig(), nil)
	a.Insert("x", timestamp.Natural(0), 1)
	require.NoError(t, a.AdvanceTo(frontier.New(timestamp.Natural(1))))

	cur := a.Handle().Cursor()
	require.True(t, cur.KeyValid())
	assert.Equal(t, "x", cur.Key())
}
