package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbench/vectorized"
)

func TestParseColumnRef(t *testing.T) {
	ref, err := ParseColumnRef(" mc.movie_id ")
	require.NoError(t, err)
	assert.Equal(t, Col("mc", "movie_id"), ref)
	assert.Equal(t, "mc.movie_id", ref.String())

	for _, bad := range []string{"", "movie_id", ".id", "mc."} {
		_, err := ParseColumnRef(bad)
		assert.ErrorIs(t, err, ErrConfiguration, bad)
	}
}

func TestQueryBuilder(t *testing.T) {
	q, err := NewQuery("q1").
		From("t", "title").
		From("mc", "movie_companies").
		From("mk", "movie_keyword").
		Where("t", vectorized.Gt("production_year", 2000)).
		Where("t", vectorized.Lt("production_year", 2010)).
		Join("t.id", "mc.movie_id", "mk.movie_id").
		Min("", "t.title").
		Min("note", "mc.note").
		Drive("mc").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "q1", q.Name)
	assert.Len(t, q.Tables, 3)
	assert.Equal(t, []JoinEdge{
		{Left: Col("t", "id"), Right: Col("mc", "movie_id")},
		{Left: Col("mc", "movie_id"), Right: Col("mk", "movie_id")},
	}, q.Joins)
	assert.Equal(t, "t.title", q.Outputs[0].Name)
	assert.Equal(t, "note", q.Outputs[1].Name)
	assert.Equal(t, "mc", q.Driver)
	assert.Equal(t, "(production_year > 2000 AND production_year < 2010)", q.Tables[0].Filter.String())
	assert.Equal(t, 1, q.TableIndex("mc"))
	assert.Equal(t, -1, q.TableIndex("zz"))
}

func TestQueryBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *QueryBuilder
	}{
		{"no tables", NewQuery("q").Min("", "t.id")},
		{"duplicate alias", NewQuery("q").From("t", "title").From("t", "title").Min("", "t.id")},
		{"filter on unknown alias", NewQuery("q").From("t", "title").Where("x", vectorized.IsNull("id")).Min("", "t.id")},
		{"join on unknown alias", NewQuery("q").From("t", "title").Join("t.id", "x.id").Min("", "t.id")},
		{"single column join", NewQuery("q").From("t", "title").Join("t.id").Min("", "t.id")},
		{"bad column", NewQuery("q").From("t", "title").Min("", "title")},
		{"self edge", NewQuery("q").From("t", "title").Join("t.id", "t.kind_id").Min("", "t.id")},
		{"no outputs", NewQuery("q").From("t", "title")},
		{"unknown output alias", NewQuery("q").From("t", "title").Min("", "x.id")},
		{"unknown driver", NewQuery("q").From("t", "title").Min("", "t.id").Drive("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() { NewQuery("q").MustBuild() })
}
