package core_test

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wingnotes/pkg/core"
)

func ids(blocks []core.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newList returns a list over blocks with the given IDs and records every
// change notification.
func newList(blockIDs ...string) (*core.BlockList, *[][]core.Block) {
	blocks := make([]core.Block, len(blockIDs))
	for i, id := range blockIDs {
		blocks[i] = core.Block{ID: id, LeftWidth: core.DefaultWidth}
	}
	var changes [][]core.Block
	l := core.NewBlockList(blocks, func(b []core.Block) {
		changes = append(changes, b)
	}, core.WithBlockIDs(sequentialIDs("new")))
	return l, &changes
}

func TestBlockList_InsertAfter(t *testing.T) {
	t.Run("Middle", func(t *testing.T) {
		l, changes := newList("A", "B", "C")
		b := l.InsertAfter(1)

		assert.Equal(t, []string{"A", "B", "new1", "C"}, ids(l.Blocks()))
		assert.Equal(t, core.Block{ID: "new1", LeftWidth: 50}, b)
		require.Len(t, *changes, 1)
		assert.Equal(t, ids(l.Blocks()), ids((*changes)[0]))
	})

	t.Run("OutOfRangeAppends", func(t *testing.T) {
		for _, index := range []int{-1, 2, 3, 99} {
			l, _ := newList("A", "B", "C")
			l.InsertAfter(index)
			assert.Equal(t, []string{"A", "B", "C", "new1"}, ids(l.Blocks()), "index %d", index)
		}
	})

	t.Run("EmptyList", func(t *testing.T) {
		l, _ := newList()
		l.AppendBlock()
		l.InsertAfter(0)
		assert.Equal(t, []string{"new1", "new2"}, ids(l.Blocks()))
	})
}

func TestBlockList_MoveStep(t *testing.T) {
	t.Run("Boundaries", func(t *testing.T) {
		l, changes := newList("A", "B", "C")

		require.NoError(t, l.MoveStep("A", core.Up))
		require.NoError(t, l.MoveStep("C", core.Down))

		assert.Equal(t, []string{"A", "B", "C"}, ids(l.Blocks()))
		assert.Empty(t, *changes, "no-op moves must not notify")
	})

	t.Run("Swap", func(t *testing.T) {
		l, changes := newList("A", "B", "C")

		require.NoError(t, l.MoveStep("B", core.Up))
		assert.Equal(t, []string{"B", "A", "C"}, ids(l.Blocks()))

		require.NoError(t, l.MoveStep("B", core.Down))
		assert.Equal(t, []string{"A", "B", "C"}, ids(l.Blocks()))
		assert.Len(t, *changes, 2)
	})

	t.Run("Errors", func(t *testing.T) {
		l, changes := newList("A", "B")
		assert.ErrorIs(t, l.MoveStep("Z", core.Up), core.ErrBlockNotFound)
		assert.Error(t, l.MoveStep("A", core.Direction("sideways")))
		assert.Empty(t, *changes)
	})
}

func TestBlockList_Reorder(t *testing.T) {
	tests := []struct {
		name     string
		src, dst string
		want     []string
	}{
		{"Forward", "A", "C", []string{"B", "C", "A", "D"}},
		{"Backward", "D", "B", []string{"A", "D", "B", "C"}},
		{"ToFront", "C", "A", []string{"C", "A", "B", "D"}},
		{"ToEnd", "A", "D", []string{"B", "C", "D", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newList("A", "B", "C", "D")
			require.NoError(t, l.Reorder(tt.src, tt.dst))
			assert.Equal(t, tt.want, ids(l.Blocks()))
		})
	}

	t.Run("AdjacentRoundTrip", func(t *testing.T) {
		l, _ := newList("A", "B", "C")
		require.NoError(t, l.Reorder("B", "C"))
		assert.Equal(t, []string{"A", "C", "B"}, ids(l.Blocks()))
		require.NoError(t, l.Reorder("B", "C"))
		assert.Equal(t, []string{"A", "B", "C"}, ids(l.Blocks()))
	})

	t.Run("SameID", func(t *testing.T) {
		l, changes := newList("A", "B")
		require.NoError(t, l.Reorder("A", "A"))
		assert.Empty(t, *changes)
	})

	t.Run("Unknown", func(t *testing.T) {
		l, changes := newList("A", "B")
		assert.ErrorIs(t, l.Reorder("A", "Z"), core.ErrBlockNotFound)
		assert.ErrorIs(t, l.Reorder("Z", "A"), core.ErrBlockNotFound)
		assert.Equal(t, []string{"A", "B"}, ids(l.Blocks()))
		assert.Empty(t, *changes)
	})
}

func TestBlockList_SetWidth(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5, 10},
		{10, 10},
		{33.3, 33.3},
		{90, 90},
		{95, 90},
		{-20, 10},
		{math.Inf(1), 90},
		{math.NaN(), 50},
	}
	for _, tt := range tests {
		l, _ := newList("A")
		require.NoError(t, l.SetWidth("A", tt.in))
		assert.Equal(t, tt.want, l.Blocks()[0].LeftWidth, "width %v", tt.in)
	}
}

func TestBlockList_EditField(t *testing.T) {
	l, changes := newList("A", "B")

	require.NoError(t, l.EditField("A", core.FieldLeft, "What it does"))
	require.NoError(t, l.EditField("A", core.FieldRight, "fmt.Println()"))

	a := l.Blocks()[0]
	assert.Equal(t, "What it does", a.LeftContent)
	assert.Equal(t, "fmt.Println()", a.RightContent)
	assert.Len(t, *changes, 2)

	assert.ErrorIs(t, l.EditField("A", core.Field("middle"), "x"), core.ErrInvalidField)
	assert.ErrorIs(t, l.EditField("Z", core.FieldLeft, "x"), core.ErrBlockNotFound)
	assert.Len(t, *changes, 2)
}

func TestBlockList_Delete(t *testing.T) {
	l, changes := newList("A", "B")

	require.NoError(t, l.Delete("A"))
	require.NoError(t, l.Delete("B"))
	assert.Empty(t, l.Blocks())
	assert.Equal(t, 0, l.Len())
	require.Len(t, *changes, 2)
	assert.Empty(t, (*changes)[1])

	assert.ErrorIs(t, l.Delete("A"), core.ErrBlockNotFound)
}

func TestBlockList_Isolation(t *testing.T) {
	source := []core.Block{{ID: "A", LeftContent: "original", LeftWidth: 50}}
	l := core.NewBlockList(source, nil)

	source[0].LeftContent = "changed outside"
	snapshot := l.Blocks()
	snapshot[0].LeftContent = "changed copy"

	assert.Equal(t, "original", l.Blocks()[0].LeftContent)
	assert.True(t, l.IsFirst("A"))
	assert.True(t, l.IsLast("A"))
	assert.False(t, l.IsFirst("Z"))
}

// Moves never lose or duplicate a block.
func TestBlockList_MovesPreserveBlocks(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	start := []string{"A", "B", "C", "D", "E", "F"}
	l, _ := newList(start...)

	for range 500 {
		current := ids(l.Blocks())
		pick := func() string { return current[rng.IntN(len(current))] }
		switch rng.IntN(3) {
		case 0:
			require.NoError(t, l.MoveStep(pick(), core.Up))
		case 1:
			require.NoError(t, l.MoveStep(pick(), core.Down))
		default:
			require.NoError(t, l.Reorder(pick(), pick()))
		}
	}

	got := ids(l.Blocks())
	sort.Strings(got)
	assert.Equal(t, start, got)
}
