package vectorized

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPeople(t *testing.T) *Table {
	t.Helper()
	b := NewTableBuilder("people",
		&Field{Name: "id", DataType: INT64},
		&Field{Name: "name", DataType: STRING, Nullable: true},
		&Field{Name: "age", DataType: INT64, Nullable: true},
	)
	require.NoError(t, b.AddRow(1, "Ann", 31))
	require.NoError(t, b.AddRow(2, nil, 45))
	require.NoError(t, b.AddRow(3, "bob", nil))
	require.NoError(t, b.AddRow(int32(4), Str("Émile"), Int(19)))
	table, err := b.Build()
	require.NoError(t, err)
	return table
}

func TestTableBuilder(t *testing.T) {
	table := buildPeople(t)
	assert.Equal(t, 4, table.RowCount)

	name := table.GetColumnByName("name")
	require.NotNil(t, name)
	s, ok := name.GetString(0)
	assert.True(t, ok)
	assert.Equal(t, "Ann", s)
	_, ok = name.GetString(1)
	assert.False(t, ok)
	assert.True(t, name.IsNull(1))
	assert.True(t, name.Nulls.HasNulls())

	age := table.GetColumnByName("age")
	n, ok := age.GetInt64(3)
	assert.True(t, ok)
	assert.Equal(t, int64(19), n)
	assert.True(t, age.Value(2).Null)

	assert.Nil(t, table.GetColumnByName("missing"))
}

func TestTableBuilderRejectsBadRows(t *testing.T) {
	b := NewTableBuilder("t", &Field{Name: "id", DataType: INT64})
	assert.Error(t, b.AddRow(1, 2))
	assert.Error(t, b.AddRow("one"))
	assert.Error(t, b.AddRow(Str("one")))
}

func TestNewTableLengthMismatch(t *testing.T) {
	a := NewVector(INT64, 2)
	a.AppendInt64(1)
	a.AppendInt64(2)
	c := NewVector(STRING, 1)
	c.AppendString("x")
	_, err := NewTable("t", NewSchema(
		&Field{Name: "a", DataType: INT64},
		&Field{Name: "c", DataType: STRING},
	), []*Vector{a, c})
	assert.Error(t, err)
}

func TestNullMaskAcrossWords(t *testing.T) {
	v := NewVector(INT64, 0)
	for i := 0; i < 200; i++ {
		if i%3 == 0 {
			v.AppendNull()
		} else {
			v.AppendInt64(int64(i))
		}
	}
	assert.Equal(t, 200, v.Length)
	assert.Equal(t, 67, v.Nulls.NullCount)
	for i := 0; i < 200; i++ {
		assert.Equal(t, i%3 == 0, v.IsNull(i), "row %d", i)
	}
}

func TestWithKeys(t *testing.T) {
	table := buildPeople(t)
	keyed, err := table.WithKeys("id", map[string]string{"age": "ages"})
	require.NoError(t, err)
	assert.Equal(t, "id", keyed.PrimaryKey)
	assert.Equal(t, "ages", keyed.ForeignKeys["age"])
	assert.Empty(t, table.PrimaryKey, "original is left untouched")

	_, err = table.WithKeys("name", nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = table.WithKeys("nope", nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestValueOrdering(t *testing.T) {
	assert.True(t, Int(-5).Less(Int(3)))
	assert.True(t, Str("Zeta").Less(Str("alpha")), "uppercase sorts before lowercase")
	assert.True(t, Str("(co-production)").Less(Str("A")), "punctuation sorts before letters")
	assert.True(t, Str("abc").Less(Str("abcd")))
	assert.True(t, Str("z").Less(Null(STRING)))
	assert.False(t, Null(STRING).Less(Str("z")))
	assert.True(t, Null(INT64).Equal(Null(INT64)))
	assert.Equal(t, "NULL", Null(INT64).String())
	assert.Equal(t, "42", Int(42).String())
}
