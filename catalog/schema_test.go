package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbench/vectorized"
)

func TestIMDBSchema(t *testing.T) {
	s := IMDBSchema()
	names := s.TableNames()
	assert.Len(t, names, 21)
	assert.Equal(t, "aka_name", names[0])

	ci, ok := s.Lookup("cast_info")
	require.True(t, ok)
	assert.Equal(t, "id", ci.PrimaryKey)
	assert.Equal(t, "char_name", ci.ForeignKeys["person_role_id"])
	col, ok := ci.Column("note")
	require.True(t, ok)
	assert.Equal(t, vectorized.STRING, col.Type)

	for _, name := range names {
		tm, _ := s.Lookup(name)
		id, ok := tm.Column("id")
		require.True(t, ok, name)
		assert.False(t, id.Nullable, name)
	}
}

func TestNewSchemaValidation(t *testing.T) {
	a := &TableMetadata{Name: "a", PrimaryKey: "id", Columns: []ColumnMetadata{{Name: "id", Type: vectorized.INT64}}}

	_, err := NewSchema("dup", a, a)
	assert.Error(t, err)

	_, err = NewSchema("pk", &TableMetadata{Name: "b", PrimaryKey: "missing"})
	assert.ErrorIs(t, err, vectorized.ErrConfiguration)

	_, err = NewSchema("fk", a, &TableMetadata{
		Name:        "c",
		Columns:     []ColumnMetadata{{Name: "a_id", Type: vectorized.INT64}},
		ForeignKeys: map[string]string{"a_id": "zzz"},
	})
	assert.ErrorIs(t, err, vectorized.ErrConfiguration)
	assert.Contains(t, err.Error(), "zzz")
}

func TestApplyRejectsStringKeys(t *testing.T) {
	tm := &TableMetadata{Name: "k", PrimaryKey: "id", Columns: []ColumnMetadata{{Name: "id", Type: vectorized.STRING}}}
	b := vectorized.NewTableBuilder("k", tm.Fields()...)
	require.NoError(t, b.AddRow("x"))
	table, err := b.Build()
	require.NoError(t, err)

	_, err = tm.Apply(table)
	assert.ErrorIs(t, err, vectorized.ErrConfiguration)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("JOBBENCH_DATA", "")
	t.Setenv("JOBBENCH_TABLES", "")
	assert.Equal(t, Config{DataPath: DefaultDataPath}, ConfigFromEnv())

	t.Setenv("JOBBENCH_DATA", "/srv/imdb")
	t.Setenv("JOBBENCH_TABLES", "title, keyword,,movie_keyword")
	cfg := ConfigFromEnv()
	assert.Equal(t, "/srv/imdb", cfg.DataPath)
	assert.Equal(t, []string{"title", "keyword", "movie_keyword"}, cfg.Tables)
}
