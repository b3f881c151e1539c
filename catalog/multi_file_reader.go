package catalog

import (
	"fmt"
	"path/filepath"
	"sort"

	"jobbench/core"
	"jobbench/vectorized"
)

// MultiFileParquetReader reads a table stored as several Parquet parts
// that share one schema.
type MultiFileParquetReader struct {
	filePaths []string
	readers   []*ParquetReader
	schema    []ColumnMetadata
}

// NewMultiFileParquetReader opens every part. All parts must expose the
// same columns with the same types.
func NewMultiFileParquetReader(filePaths []string) (*MultiFileParquetReader, error) {
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no file paths provided")
	}

	mfr := &MultiFileParquetReader{filePaths: filePaths}
	for i, path := range filePaths {
		reader, err := NewParquetReader(path)
		if err != nil {
			mfr.Close()
			return nil, fmt.Errorf("failed to open file %s: %w", path, err)
		}
		mfr.readers = append(mfr.readers, reader)

		schema, err := reader.Columns()
		if err != nil {
			mfr.Close()
			return nil, err
		}
		if i == 0 {
			mfr.schema = schema
		} else if !schemasCompatible(mfr.schema, schema) {
			mfr.Close()
			return nil, fmt.Errorf("%w: %s differs from %s", ErrSchemaIncompatible, path, filePaths[0])
		}
	}
	return mfr, nil
}

// GlobParts lists the *.parquet files of dir in name order
func GlobParts(dir string) ([]string, error) {
	parts, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, err
	}
	sort.Strings(parts)
	return parts, nil
}

// schemasCompatible checks names and types; nullability may differ
// between parts.
func schemasCompatible(schema1, schema2 []ColumnMetadata) bool {
	if len(schema1) != len(schema2) {
		return false
	}
	for i, field1 := range schema1 {
		field2 := schema2[i]
		if field1.Name != field2.Name || field1.Type != field2.Type {
			return false
		}
	}
	return true
}

// GetRowCount sums the row counts of all parts
func (mfr *MultiFileParquetReader) GetRowCount() int {
	total := 0
	for _, r := range mfr.readers {
		total += r.GetRowCount()
	}
	return total
}

// ReadTable reads cols from every part, in part order, into one table.
func (mfr *MultiFileParquetReader) ReadTable(name string, cols []ColumnMetadata) (*vectorized.Table, error) {
	if len(cols) == 0 {
		cols = mfr.schema
	}
	merged := make([]*vectorized.Vector, len(cols))
	for i, col := range cols {
		merged[i] = vectorized.NewVector(col.Type, mfr.GetRowCount())
	}

	for _, reader := range mfr.readers {
		part, err := reader.ReadTable(name, cols)
		if err != nil {
			return nil, fmt.Errorf("failed to read from file: %w", err)
		}
		for i := range cols {
			if err := appendVector(merged[i], part.Columns[i]); err != nil {
				return nil, err
			}
		}
		core.GetTracer().Verbose(core.TraceComponentLoader, "Part read", core.TraceContext(
			"table", name, "file", reader.Path(), "rows", part.RowCount))
	}

	fields := make([]*vectorized.Field, len(cols))
	for i, col := range cols {
		fields[i] = &vectorized.Field{Name: col.Name, DataType: col.Type, Nullable: col.Nullable}
	}
	return vectorized.NewTable(name, vectorized.NewSchema(fields...), merged)
}

func appendVector(dst, src *vectorized.Vector) error {
	for i := 0; i < src.Length; i++ {
		if err := dst.Append(src.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every opened part
func (mfr *MultiFileParquetReader) Close() error {
	var firstErr error
	for _, r := range mfr.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
