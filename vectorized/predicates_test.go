package vectorized

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalAll(t *testing.T, table *Table, p Predicate) []Tri {
	t.Helper()
	bound, err := p.Bind(table)
	require.NoError(t, err)
	out := make([]Tri, table.RowCount)
	for row := range out {
		out[row] = bound.Eval(row)
	}
	return out
}

func TestThreeValuedLogic(t *testing.T) {
	assert.Equal(t, False, Unknown.And(False))
	assert.Equal(t, Unknown, Unknown.And(True))
	assert.Equal(t, True, Unknown.Or(True))
	assert.Equal(t, Unknown, Unknown.Or(False))
	assert.Equal(t, Unknown, Unknown.Not())
	assert.Equal(t, False, True.Not())
}

func TestComparisonPredicates(t *testing.T) {
	people := buildPeople(t)

	tests := []struct {
		name string
		pred Predicate
		want []Tri
	}{
		{"eq string", Eq("name", "Ann"), []Tri{True, Unknown, False, False}},
		{"ne int", Ne("age", 45), []Tri{True, False, Unknown, True}},
		{"gt int", Gt("age", 30), []Tri{True, True, Unknown, False}},
		{"le int", Le("age", 31), []Tri{True, False, Unknown, True}},
		{"lt string", Lt("name", "B"), []Tri{True, Unknown, False, False}},
		{"ge string", Ge("name", "Ann"), []Tri{True, Unknown, True, True}},
		{"between", Between("age", 19, 31), []Tri{True, False, Unknown, True}},
		{"in", In("id", 1, 3, 99), []Tri{True, False, True, False}},
		{"not in null", NotIn("name", "Ann"), []Tri{False, Unknown, True, True}},
		{"is null", IsNull("name"), []Tri{False, True, False, False}},
		{"is not null", IsNotNull("age"), []Tri{True, True, False, True}},
		{"like", Like("name", "%n%"), []Tri{True, Unknown, False, False}},
		{"not like", NotLike("name", "A%"), []Tri{False, Unknown, True, True}},
		{"contains", Contains("name", "mil"), []Tri{False, Unknown, False, True}},
		{"prefix", HasPrefix("name", "b"), []Tri{False, Unknown, True, False}},
		{"suffix", HasSuffix("name", "nn"), []Tri{True, Unknown, False, False}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalAll(t, people, tc.pred))
		})
	}
}

func TestBooleanCombinators(t *testing.T) {
	people := buildPeople(t)

	// NULL name: Unknown AND True = Unknown, so the row is not selected
	got := evalAll(t, people, And(Ne("name", "x"), Gt("age", 0)))
	assert.Equal(t, []Tri{True, Unknown, Unknown, True}, got)

	got = evalAll(t, people, Or(Eq("name", "Ann"), Gt("age", 40)))
	assert.Equal(t, []Tri{True, True, Unknown, False}, got)

	got = evalAll(t, people, Not(Eq("name", "Ann")))
	assert.Equal(t, []Tri{False, Unknown, True, True}, got)

	got = evalAll(t, people, And())
	assert.Equal(t, []Tri{True, True, True, True}, got)
	got = evalAll(t, people, Or())
	assert.Equal(t, []Tri{False, False, False, False}, got)
}

func TestBindErrors(t *testing.T) {
	people := buildPeople(t)
	cases := []Predicate{
		Eq("missing", 1),
		Eq("age", "thirty"),
		Like("age", "%1%"),
		In("id", 1, "two"),
		Eq("id", nil),
		Eq("id", 1.5),
		&ColumnFilter{Column: "age", Operator: BETWEEN, Values: []interface{}{1}},
		And(Eq("id", 1), Eq("ghost", 2)),
		Not(nil),
	}
	for _, p := range cases {
		_, err := p.Bind(people)
		require.Error(t, err, "%v", p)
		assert.True(t, errors.Is(err, ErrConfiguration), "%v: %v", p, err)
	}
}

func TestPredicateString(t *testing.T) {
	p := And(Eq("kind", "production companies"), Or(Like("note", "%(presents)%"), Gt("year", 2005)))
	assert.Equal(t, "(kind = 'production companies' AND (note LIKE '%(presents)%' OR year > 2005))", p.String())
	assert.Equal(t, "info IN ('Sweden', 'Denish')", In("info", "Sweden", "Denish").String())
}
