package ingest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhdata/vacancy-ingest/internal/hh"
)

func TestFlattenAreasDepthThree(t *testing.T) {
	t.Parallel()

	tree := []hh.AreaNode{
		{
			ID: "113", Name: "Россия",
			Areas: []hh.AreaNode{
				{
					ID: "1", Name: "Москва",
					Areas: []hh.AreaNode{
						{ID: "2019", Name: "Зеленоград"},
					},
				},
				{ID: "2", Name: "Санкт-Петербург"},
			},
		},
		{ID: "40", Name: "Казахстан"},
	}

	rows := FlattenAreas(tree)
	require.Len(t, rows, 5, "N nodes yield exactly N rows")

	byID := map[int64]AreaRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	require.Nil(t, byID[113].ParentID, "root has null parent")
	require.Nil(t, byID[40].ParentID, "root has null parent")
	require.Equal(t, int64(113), *byID[1].ParentID)
	require.Equal(t, int64(113), *byID[2].ParentID)
	require.Equal(t, int64(1), *byID[2019].ParentID, "parent comes from the traversal, not the record")
}

func TestFlattenAreasIgnoresRecordParentID(t *testing.T) {
	t.Parallel()

	// The record's own parent_id contradicts the nesting; the traversal wins.
	bogus := "999"
	tree := []hh.AreaNode{
		{
			ID: "113", Name: "Россия",
			Areas: []hh.AreaNode{
				{ID: "1", ParentID: &bogus, Name: "Москва"},
			},
		},
	}

	rows := FlattenAreas(tree)
	require.Len(t, rows, 2)
	require.Equal(t, int64(113), *rows[1].ParentID)
}

func TestFlattenAreasDeepChain(t *testing.T) {
	t.Parallel()

	// A pathological linked-list nesting must not exhaust the stack.
	const depth = 10000
	leaf := hh.AreaNode{ID: "1", Name: "leaf"}
	node := leaf
	for i := 2; i <= depth; i++ {
		node = hh.AreaNode{ID: strconv.Itoa(i), Name: "node", Areas: []hh.AreaNode{node}}
	}

	rows := FlattenAreas([]hh.AreaNode{node})
	require.Len(t, rows, depth)
}

func TestFlattenAreasSkipsUnusableIDs(t *testing.T) {
	t.Parallel()

	tree := []hh.AreaNode{
		{ID: "113", Name: "Россия", Areas: []hh.AreaNode{
			{ID: "oops", Name: "bad", Areas: []hh.AreaNode{{ID: "5", Name: "orphaned"}}},
			{ID: "2", Name: "Санкт-Петербург"},
		}},
	}

	rows := FlattenAreas(tree)
	// The malformed node and its subtree are dropped: a child may not be
	// inserted without its parent.
	require.Len(t, rows, 2)
}
