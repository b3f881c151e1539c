package vectorized

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSelection(t *testing.T) {
	people := buildPeople(t)

	sel, err := Filter(people, Gt("age", 20))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, sel.ToArray())

	all, err := Filter(people, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), all.GetCardinality())
	assert.Equal(t, 1.0, Selectivity(people, all))

	none, err := Filter(people, Eq("name", "nobody"))
	require.NoError(t, err)
	assert.True(t, none.IsEmpty())

	_, err = Filter(people, Eq("ghost", 1))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestFilterNullExclusion(t *testing.T) {
	people := buildPeople(t)
	// the NULL age row matches neither side of the split
	lo, err := Filter(people, Lt("age", 40))
	require.NoError(t, err)
	hi, err := Filter(people, Ge("age", 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), lo.GetCardinality()+hi.GetCardinality())
	assert.False(t, lo.Contains(2))
	assert.False(t, hi.Contains(2))

	nulls, err := Filter(people, IsNull("age"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, nulls.ToArray())
}
