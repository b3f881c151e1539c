package core

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// reduceGroup builds the indexes of one child group, smallest filtered
// table first. Every later sibling is restricted to the keys all earlier
// siblings produced, and the returned bitmap is the keys every child
// holds: a parent row survives only if its group key is in it.
func (x *execution) reduceGroup(n *PlanNode, g *ChildGroup) *roaring64.Bitmap {
	order := append([]*PlanNode(nil), g.Children...)
	sort.SliceStable(order, func(i, j int) bool {
		return x.states[order[i].ID].selection.GetCardinality() < x.states[order[j].ID].selection.GetCardinality()
	})

	var shared *roaring64.Bitmap
	for _, child := range order {
		x.build(child, shared)
		keys := x.states[child.ID].index.Keys()
		if shared == nil {
			shared = keys.Clone()
		} else {
			shared.And(keys)
		}
		if shared.IsEmpty() {
			break
		}
	}

	if x.tracer.IsEnabled(TraceLevelDebug, TraceComponentReducer) {
		aliases := make([]string, len(order))
		for i, child := range order {
			aliases[i] = child.Alias
		}
		x.tracer.Debug(TraceComponentReducer, "Reduced child group", TraceContext(
			"parent", n.Alias,
			"field", g.Field,
			"order", aliases,
			"keys", shared.GetCardinality(),
		))
	}
	return shared
}

// admits applies the join requirements of n to one selected row: every
// join column is non-null, the link key is in restrict (when given) and
// each group key is held by all children of that group.
func (x *execution) admits(n *PlanNode, row int, restrict *roaring64.Bitmap) bool {
	for _, col := range n.notNull {
		if col.IsNull(row) {
			return false
		}
	}
	if restrict != nil && !restrict.Contains(encodeKey(n.linkCol.Int64s[row])) {
		return false
	}
	groupKeys := x.states[n.ID].groupKeys
	for gi, g := range n.Groups {
		if !groupKeys[gi].Contains(encodeKey(g.column.Int64s[row])) {
			return false
		}
	}
	return true
}

// scan calls fn for every selected row of n that admits.
func (x *execution) scan(n *PlanNode, restrict *roaring64.Bitmap, fn func(row int)) int {
	admitted := 0
	it := x.states[n.ID].selection.Iterator()
	for it.HasNext() {
		row := int(it.Next())
		if !x.admits(n, row, restrict) {
			continue
		}
		admitted++
		fn(row)
	}
	return admitted
}
