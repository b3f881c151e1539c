package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbench/vectorized"
)

type movieRow struct {
	ID    int64  `parquet:"id"`
	Title string `parquet:"title"`
	Year  *int32 `parquet:"production_year"`
}

type keywordRow struct {
	ID      int64  `parquet:"id"`
	Keyword string `parquet:"keyword"`
}

func year(y int32) *int32 { return &y }

// writeParquet writes rows to path, flushing a row group every
// groupSize rows.
func writeParquet[T any](t *testing.T, path string, groupSize int, rows []T) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := parquet.NewGenericWriter[T](f)
	for start := 0; start < len(rows); start += groupSize {
		end := start + groupSize
		if end > len(rows) {
			end = len(rows)
		}
		_, err := w.Write(rows[start:end])
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Close())
}

func movies() []movieRow {
	return []movieRow{
		{ID: 1, Title: "Alpha", Year: year(1999)},
		{ID: 2, Title: "Beta", Year: nil},
		{ID: 3, Title: "Gamma", Year: year(2005)},
	}
}

var movieColumns = []ColumnMetadata{
	{Name: "id", Type: vectorized.INT64},
	{Name: "title", Type: vectorized.STRING, Nullable: true},
	{Name: "production_year", Type: vectorized.INT64, Nullable: true},
}

func TestParquetReaderReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "title.parquet")
	writeParquet(t, path, 2, movies())

	reader, err := NewParquetReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, 3, reader.GetRowCount())
	assert.ElementsMatch(t, []string{"id", "title", "production_year"}, reader.GetColumnNames())

	table, err := reader.ReadTable("title", movieColumns)
	require.NoError(t, err)
	require.Equal(t, 3, table.RowCount)

	years := table.GetColumnByName("production_year")
	require.NotNil(t, years)
	assert.Equal(t, vectorized.INT64, years.DataType)
	assert.Equal(t, vectorized.Int(1999), years.Value(0))
	assert.True(t, years.IsNull(1))
	assert.Equal(t, vectorized.Int(2005), years.Value(2))

	titles := table.GetColumnByName("title")
	assert.Equal(t, vectorized.Str("Beta"), titles.Value(1))
}

func TestParquetReaderInfersColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "title.parquet")
	writeParquet(t, path, 10, movies())

	reader, err := NewParquetReader(path)
	require.NoError(t, err)
	defer reader.Close()

	cols, err := reader.Columns()
	require.NoError(t, err)
	byName := map[string]ColumnMetadata{}
	for _, c := range cols {
		byName[c.Name] = c
	}
	assert.Equal(t, vectorized.INT64, byName["id"].Type)
	assert.False(t, byName["id"].Nullable)
	assert.Equal(t, vectorized.STRING, byName["title"].Type)
	assert.True(t, byName["production_year"].Nullable)

	table, err := reader.ReadTable("title", nil)
	require.NoError(t, err)
	assert.Len(t, table.Columns, 3)
}

func TestParquetReaderColumnErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "title.parquet")
	writeParquet(t, path, 10, movies())

	reader, err := NewParquetReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.ReadColumn(ColumnMetadata{Name: "missing", Type: vectorized.INT64})
	assert.ErrorIs(t, err, vectorized.ErrConfiguration)

	_, err = reader.ReadColumn(ColumnMetadata{Name: "title", Type: vectorized.INT64})
	assert.ErrorIs(t, err, vectorized.ErrConfiguration)
	assert.Contains(t, err.Error(), "declared INT64")
}

func TestNewParquetReaderMissingFile(t *testing.T) {
	_, err := NewParquetReader(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsHTTPURL(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"http://example.com/title.parquet", true},
		{"https://example.com/data", true},
		{"./data/imdb/title.parquet", false},
		{"/abs/title.parquet", false},
		{"s3://bucket/title.parquet", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHTTPURL(tt.path), tt.path)
	}
}

func TestMultiFileParquetReader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "title")
	all := movies()
	writeParquet(t, filepath.Join(dir, "part-1.parquet"), 10, all[2:])
	writeParquet(t, filepath.Join(dir, "part-0.parquet"), 10, all[:2])

	parts, err := GlobParts(dir)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "part-0.parquet", filepath.Base(parts[0]))

	reader, err := NewMultiFileParquetReader(parts)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, 3, reader.GetRowCount())

	table, err := reader.ReadTable("title", movieColumns)
	require.NoError(t, err)
	require.Equal(t, 3, table.RowCount)
	ids := table.GetColumnByName("id")
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, vectorized.Int(want), ids.Value(i))
	}
	assert.True(t, table.GetColumnByName("production_year").IsNull(1))
}

func TestMultiFileParquetReaderSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, filepath.Join(dir, "a.parquet"), 10, movies())
	writeParquet(t, filepath.Join(dir, "b.parquet"), 10, []keywordRow{{ID: 1, Keyword: "x"}})

	parts, err := GlobParts(dir)
	require.NoError(t, err)
	_, err = NewMultiFileParquetReader(parts)
	assert.ErrorIs(t, err, ErrSchemaIncompatible)

	_, err = NewMultiFileParquetReader(nil)
	assert.Error(t, err)
}
