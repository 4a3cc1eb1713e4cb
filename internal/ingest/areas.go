package ingest

import "github.com/hhdata/vacancy-ingest/internal/hh"

// FlattenAreas walks the provider's nested region tree and produces one flat
// row per node. A child's parent id comes from its position in the traversal,
// not from the record's own parent_id field, which may be absent or
// inconsistent. The traversal uses an explicit work list, so arbitrarily deep
// hierarchies cannot exhaust the call stack.
func FlattenAreas(tree []hh.AreaNode) []AreaRow {
	type frame struct {
		node   hh.AreaNode
		parent *int64
	}

	// Roots are pushed in reverse so the output keeps provider order.
	stack := make([]frame, 0, len(tree))
	for i := len(tree) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: tree[i]})
	}

	var rows []AreaRow
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id, ok := parseID(&f.node.ID)
		if !ok {
			// A node without a usable id cannot anchor its subtree.
			continue
		}
		rows = append(rows, AreaRow{
			ID:       id,
			Name:     f.node.Name,
			ParentID: f.parent,
			TimeZone: f.node.TimeZone,
		})

		parent := id
		for i := len(f.node.Areas) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Areas[i], parent: &parent})
		}
	}
	return rows
}
