package catalog

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"howett.net/ranger"

	"jobbench/core"
	"jobbench/vectorized"
)

// ParquetReader reads whole columns of one Parquet file into vectors.
type ParquetReader struct {
	filePath string
	reader   *parquet.File
	closer   io.Closer
}

// NewParquetReader opens a local file or, for http(s) URLs, a remote
// file through ranged requests.
func NewParquetReader(filePath string) (*ParquetReader, error) {
	if IsHTTPURL(filePath) {
		return newHTTPParquetReader(filePath)
	}
	return newLocalParquetReader(filePath)
}

// IsHTTPURL reports whether path is an http or https URL
func IsHTTPURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func newLocalParquetReader(filePath string) (*ParquetReader, error) {
	tracer := core.GetTracer()
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}

	reader, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open parquet file %s: %w", filePath, err)
	}

	tracer.Debug(core.TraceComponentLoader, "Parquet file opened", core.TraceContext(
		"file", filePath,
		"size_mb", float64(stat.Size())/(1024*1024),
		"row_groups", len(reader.RowGroups()),
		"rows", reader.NumRows(),
		"elapsed_ms", time.Since(startTime).Milliseconds(),
	))

	return &ParquetReader{
		filePath: filePath,
		reader:   reader,
		closer:   file,
	}, nil
}

func newHTTPParquetReader(urlStr string) (*ParquetReader, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	httpRanger := &ranger.HTTPRanger{URL: parsedURL}
	reader, err := ranger.NewReader(httpRanger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}

	parquetReader, err := parquet.OpenFile(reader, length)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote parquet file %s: %w", urlStr, err)
	}

	core.GetTracer().Debug(core.TraceComponentLoader, "Remote Parquet file opened", core.TraceContext(
		"url", urlStr,
		"bytes", length,
		"rows", parquetReader.NumRows(),
	))

	return &ParquetReader{
		filePath: urlStr,
		reader:   parquetReader,
	}, nil
}

// Close releases the underlying file
func (pr *ParquetReader) Close() error {
	if pr.closer != nil {
		return pr.closer.Close()
	}
	return nil
}

// Path returns the file path or URL
func (pr *ParquetReader) Path() string { return pr.filePath }

// GetRowCount returns the number of rows in the file
func (pr *ParquetReader) GetRowCount() int {
	return int(pr.reader.NumRows())
}

// GetColumnNames returns the top-level column names
func (pr *ParquetReader) GetColumnNames() []string {
	var names []string
	for _, field := range pr.reader.Schema().Fields() {
		names = append(names, field.Name())
	}
	return names
}

// Columns maps the file's top-level leaf columns to column metadata.
// Columns of unsupported physical types are reported as errors.
func (pr *ParquetReader) Columns() ([]ColumnMetadata, error) {
	var cols []ColumnMetadata
	for _, name := range pr.GetColumnNames() {
		leaf, ok := pr.reader.Schema().Lookup(name)
		if !ok {
			return nil, vectorized.NewConfigError(pr.filePath, name, "nested columns are not supported")
		}
		dt, err := pr.dataType(name, leaf)
		if err != nil {
			return nil, err
		}
		cols = append(cols, ColumnMetadata{Name: name, Type: dt, Nullable: leaf.Node.Optional()})
	}
	return cols, nil
}

func (pr *ParquetReader) dataType(name string, leaf parquet.LeafColumn) (vectorized.DataType, error) {
	if leaf.MaxRepetitionLevel > 0 {
		return 0, vectorized.NewConfigError(pr.filePath, name, "repeated columns are not supported")
	}
	switch kind := leaf.Node.Type().Kind(); kind {
	case parquet.Int32, parquet.Int64:
		return vectorized.INT64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return vectorized.STRING, nil
	default:
		return 0, vectorized.NewConfigError(pr.filePath, name, fmt.Sprintf("unsupported physical type %s", kind))
	}
}

// ReadColumn reads one column across all row groups. The declared type
// must match the file: INT32 and INT64 load as INT64, byte arrays as
// STRING.
func (pr *ParquetReader) ReadColumn(col ColumnMetadata) (*vectorized.Vector, error) {
	leaf, ok := pr.reader.Schema().Lookup(col.Name)
	if !ok {
		return nil, vectorized.NewConfigError(pr.filePath, col.Name, "column not found in file")
	}
	dt, err := pr.dataType(col.Name, leaf)
	if err != nil {
		return nil, err
	}
	if dt != col.Type {
		return nil, vectorized.NewConfigError(pr.filePath, col.Name,
			fmt.Sprintf("declared %s but file holds %s", col.Type, dt))
	}

	vector := vectorized.NewVector(dt, pr.GetRowCount())
	for rgIndex, rowGroup := range pr.reader.RowGroups() {
		chunk := rowGroup.ColumnChunks()[leaf.ColumnIndex]
		if err := readColumnChunk(chunk, vector); err != nil {
			return nil, fmt.Errorf("%s: column %s row group %d: %w", pr.filePath, col.Name, rgIndex, err)
		}
	}
	if vector.Length != pr.GetRowCount() {
		return nil, fmt.Errorf("%s: column %s has %d values for %d rows", pr.filePath, col.Name, vector.Length, pr.GetRowCount())
	}
	return vector, nil
}

// readColumnChunk appends every value of chunk to vector, page by page.
func readColumnChunk(chunk parquet.ColumnChunk, vector *vectorized.Vector) error {
	pages := chunk.Pages()
	defer pages.Close()

	const bufferSize = 1024
	buffer := make([]parquet.Value, bufferSize)
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		values := page.Values()
		for {
			n, err := values.ReadValues(buffer)
			for _, v := range buffer[:n] {
				switch {
				case v.IsNull():
					vector.AppendNull()
				case vector.DataType == vectorized.INT64 && v.Kind() == parquet.Int32:
					vector.AppendInt64(int64(v.Int32()))
				case vector.DataType == vectorized.INT64:
					vector.AppendInt64(v.Int64())
				default:
					vector.AppendString(string(v.ByteArray()))
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				parquet.Release(page)
				return err
			}
		}
		parquet.Release(page)
	}
}

// ReadTable reads the given columns, or every column when cols is empty,
// into a table called name.
func (pr *ParquetReader) ReadTable(name string, cols []ColumnMetadata) (*vectorized.Table, error) {
	if len(cols) == 0 {
		var err error
		if cols, err = pr.Columns(); err != nil {
			return nil, err
		}
	}
	fields := make([]*vectorized.Field, len(cols))
	vectors := make([]*vectorized.Vector, len(cols))
	for i, col := range cols {
		v, err := pr.ReadColumn(col)
		if err != nil {
			return nil, err
		}
		fields[i] = &vectorized.Field{Name: col.Name, DataType: col.Type, Nullable: col.Nullable}
		vectors[i] = v
	}
	return vectorized.NewTable(name, vectorized.NewSchema(fields...), vectors)
}
