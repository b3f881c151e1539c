package catalog

import (
	"errors"
	"fmt"
	"sort"

	"jobbench/vectorized"
)

// TableMetadata describes one table of a schema
type TableMetadata struct {
	Name       string           `json:"name"`
	Columns    []ColumnMetadata `json:"columns"`
	PrimaryKey string           `json:"primary_key,omitempty"`
	// ForeignKeys maps a column to the table its values reference.
	ForeignKeys map[string]string `json:"foreign_keys,omitempty"`
}

// ColumnMetadata represents a column in a table
type ColumnMetadata struct {
	Name     string              `json:"name"`
	Type     vectorized.DataType `json:"type"`
	Nullable bool                `json:"nullable"`
}

// Column returns the metadata of the named column
func (tm *TableMetadata) Column(name string) (ColumnMetadata, bool) {
	for _, col := range tm.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnMetadata{}, false
}

// Fields converts the column list to table fields
func (tm *TableMetadata) Fields() []*vectorized.Field {
	fields := make([]*vectorized.Field, len(tm.Columns))
	for i, col := range tm.Columns {
		fields[i] = &vectorized.Field{Name: col.Name, DataType: col.Type, Nullable: col.Nullable}
	}
	return fields
}

// Apply attaches the key metadata to a loaded table.
func (tm *TableMetadata) Apply(t *vectorized.Table) (*vectorized.Table, error) {
	return t.WithKeys(tm.PrimaryKey, tm.ForeignKeys)
}

// Schema is a named set of table descriptions.
type Schema struct {
	Name   string
	tables map[string]*TableMetadata
}

// NewSchema creates a schema from table descriptions. Foreign keys must
// reference tables of the same schema.
func NewSchema(name string, tables ...*TableMetadata) (*Schema, error) {
	s := &Schema{Name: name, tables: make(map[string]*TableMetadata, len(tables))}
	for _, tm := range tables {
		if _, dup := s.tables[tm.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate table %s", name, tm.Name)
		}
		s.tables[tm.Name] = tm
	}
	for _, tm := range tables {
		if tm.PrimaryKey != "" {
			if _, ok := tm.Column(tm.PrimaryKey); !ok {
				return nil, vectorized.NewConfigError(tm.Name, tm.PrimaryKey, "primary key is not a column")
			}
		}
		for col, ref := range tm.ForeignKeys {
			if _, ok := tm.Column(col); !ok {
				return nil, vectorized.NewConfigError(tm.Name, col, "foreign key is not a column")
			}
			if _, ok := s.tables[ref]; !ok {
				return nil, vectorized.NewConfigError(tm.Name, col, "foreign key references unknown table "+ref)
			}
		}
	}
	return s, nil
}

// Lookup returns the named table description
func (s *Schema) Lookup(name string) (*TableMetadata, bool) {
	tm, ok := s.tables[name]
	return tm, ok
}

// TableNames returns every table name in sorted order
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnStatistics contains statistics about a column
type ColumnStatistics struct {
	NullCount     int64       `json:"null_count"`
	DistinctCount int64       `json:"distinct_count"`
	MinValue      interface{} `json:"min_value,omitempty"`
	MaxValue      interface{} `json:"max_value,omitempty"`
	AvgSize       float64     `json:"avg_size,omitempty"` // average byte length of strings
}

// TableStatistics contains statistics about a table
type TableStatistics struct {
	Name        string                       `json:"name"`
	RowCount    int64                        `json:"row_count"`
	ColumnStats map[string]*ColumnStatistics `json:"column_stats,omitempty"`
}

// Errors
var (
	ErrTableNotFound      = errors.New("table not found")
	ErrSchemaIncompatible = errors.New("schema incompatible")
)
