package vectorized

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Filter evaluates p over every row of t and returns the positions of
// the rows for which p is TRUE. A nil predicate selects every row.
func Filter(t *Table, p Predicate) (*roaring.Bitmap, error) {
	if p == nil {
		return FilterBound(t, nil)
	}
	bound, err := p.Bind(t)
	if err != nil {
		return nil, err
	}
	return FilterBound(t, bound)
}

// FilterBound is Filter for an already bound predicate.
func FilterBound(t *Table, p BoundPredicate) (*roaring.Bitmap, error) {
	if uint64(t.RowCount) > math.MaxUint32 {
		return nil, fmt.Errorf("table %s: %d rows exceed the selection limit", t.Name, t.RowCount)
	}
	selection := roaring.New()
	if p == nil {
		selection.AddRange(0, uint64(t.RowCount))
		return selection, nil
	}
	for row := 0; row < t.RowCount; row++ {
		if p.Eval(row) == True {
			selection.Add(uint32(row))
		}
	}
	return selection, nil
}

// Selectivity returns the selected fraction of t, 1 for an empty table.
func Selectivity(t *Table, selection *roaring.Bitmap) float64 {
	if t.RowCount == 0 {
		return 1
	}
	return float64(selection.GetCardinality()) / float64(t.RowCount)
}
