package vectorized

import (
	"fmt"
)

// DataType represents the column types a Table can hold
type DataType int

const (
	INT64 DataType = iota
	STRING
)

// String returns the string representation of a data type
func (dt DataType) String() string {
	switch dt {
	case INT64:
		return "INT64"
	case STRING:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Schema defines the structure of a table
type Schema struct {
	Fields []*Field
}

// Field represents a column definition in the schema
type Field struct {
	Name     string
	DataType DataType
	Nullable bool
}

// NewSchema creates a schema from the given fields
func NewSchema(fields ...*Field) *Schema {
	return &Schema{Fields: fields}
}

// FieldIndex returns the position of the named field, or -1
func (s *Schema) FieldIndex(name string) int {
	for i, field := range s.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// NullMask tracks null values using a bitmap
type NullMask struct {
	Bits      []uint64
	Length    int
	NullCount int
}

// NewNullMask creates a new null mask with room for capacity entries
func NewNullMask(capacity int) *NullMask {
	return &NullMask{
		Bits: make([]uint64, 0, (capacity+63)/64),
	}
}

// IsNull checks if a bit is set (indicating null)
func (nm *NullMask) IsNull(index int) bool {
	if index >= nm.Length || nm.NullCount == 0 {
		return false
	}
	return nm.Bits[index/64]&(1<<(index%64)) != 0
}

// HasNulls returns true if there are any null values
func (nm *NullMask) HasNulls() bool {
	return nm.NullCount > 0
}

func (nm *NullMask) append(isNull bool) {
	if nm.Length%64 == 0 {
		nm.Bits = append(nm.Bits, 0)
	}
	if isNull {
		nm.Bits[nm.Length/64] |= 1 << (nm.Length % 64)
		nm.NullCount++
	}
	nm.Length++
}

// Vector is one column of a Table. Only the slice matching DataType is
// populated; null positions hold the zero value.
type Vector struct {
	DataType DataType
	Int64s   []int64
	Strings  []string
	Nulls    *NullMask
	Length   int
}

// NewVector creates an empty vector of the specified type and capacity
func NewVector(dataType DataType, capacity int) *Vector {
	vector := &Vector{
		DataType: dataType,
		Nulls:    NewNullMask(capacity),
	}
	switch dataType {
	case INT64:
		vector.Int64s = make([]int64, 0, capacity)
	case STRING:
		vector.Strings = make([]string, 0, capacity)
	}
	return vector
}

// GetInt64 retrieves an int64 value from the vector
func (v *Vector) GetInt64(index int) (int64, bool) {
	if v.DataType != INT64 || index >= v.Length || v.Nulls.IsNull(index) {
		return 0, false
	}
	return v.Int64s[index], true
}

// GetString retrieves a string value from the vector
func (v *Vector) GetString(index int) (string, bool) {
	if v.DataType != STRING || index >= v.Length || v.Nulls.IsNull(index) {
		return "", false
	}
	return v.Strings[index], true
}

// IsNull checks if a position is null
func (v *Vector) IsNull(index int) bool {
	return v.Nulls.IsNull(index)
}

// Value returns the value at index as a scalar, NULL included.
func (v *Vector) Value(index int) Value {
	if v.Nulls.IsNull(index) {
		return Value{Kind: v.DataType, Null: true}
	}
	if v.DataType == INT64 {
		return Int(v.Int64s[index])
	}
	return Str(v.Strings[index])
}

// AppendInt64 appends a non-null int64
func (v *Vector) AppendInt64(value int64) {
	v.Int64s = append(v.Int64s, value)
	v.Nulls.append(false)
	v.Length++
}

// AppendString appends a non-null string
func (v *Vector) AppendString(value string) {
	v.Strings = append(v.Strings, value)
	v.Nulls.append(false)
	v.Length++
}

// AppendNull appends a null entry
func (v *Vector) AppendNull() {
	switch v.DataType {
	case INT64:
		v.Int64s = append(v.Int64s, 0)
	case STRING:
		v.Strings = append(v.Strings, "")
	}
	v.Nulls.append(true)
	v.Length++
}

// Append converts value and appends it. Accepted inputs are nil, Value,
// the Go integer types and string.
func (v *Vector) Append(value interface{}) error {
	if value == nil {
		v.AppendNull()
		return nil
	}
	if val, ok := value.(Value); ok {
		if val.Null {
			v.AppendNull()
			return nil
		}
		if val.Kind != v.DataType {
			return fmt.Errorf("cannot append %s value to %s vector", val.Kind, v.DataType)
		}
		if val.Kind == INT64 {
			v.AppendInt64(val.Int)
		} else {
			v.AppendString(val.Str)
		}
		return nil
	}
	switch v.DataType {
	case INT64:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("cannot convert %T to int64", value)
		}
		v.AppendInt64(n)
	case STRING:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot convert %T to string", value)
		}
		v.AppendString(s)
	default:
		return fmt.Errorf("unsupported data type: %v", v.DataType)
	}
	return nil
}

func toInt64(value interface{}) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

// Table is an immutable, nullable columnar relation addressed by row
// position. PrimaryKey and ForeignKeys are optional metadata consumed by
// the join planner.
type Table struct {
	Name        string
	Schema      *Schema
	Columns     []*Vector
	RowCount    int
	PrimaryKey  string
	ForeignKeys map[string]string // field -> referenced table name

	columnMap map[string]int
}

// NewTable assembles a table from vectors that all share one length.
func NewTable(name string, schema *Schema, columns []*Vector) (*Table, error) {
	if len(schema.Fields) != len(columns) {
		return nil, fmt.Errorf("table %s: %d fields but %d columns", name, len(schema.Fields), len(columns))
	}
	rowCount := -1
	columnMap := make(map[string]int, len(columns))
	for i, field := range schema.Fields {
		col := columns[i]
		if col.DataType != field.DataType {
			return nil, fmt.Errorf("table %s: column %s declared %s but holds %s", name, field.Name, field.DataType, col.DataType)
		}
		if rowCount >= 0 && col.Length != rowCount {
			return nil, fmt.Errorf("table %s: column %s has %d rows, expected %d", name, field.Name, col.Length, rowCount)
		}
		rowCount = col.Length
		if _, dup := columnMap[field.Name]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %s", name, field.Name)
		}
		columnMap[field.Name] = i
	}
	if rowCount < 0 {
		rowCount = 0
	}
	return &Table{
		Name:      name,
		Schema:    schema,
		Columns:   columns,
		RowCount:  rowCount,
		columnMap: columnMap,
	}, nil
}

// GetColumnByName returns a column by name, or nil
func (t *Table) GetColumnByName(name string) *Vector {
	if i, ok := t.columnMap[name]; ok {
		return t.Columns[i]
	}
	return nil
}

// Field returns the schema entry of the named column.
func (t *Table) Field(name string) (*Field, bool) {
	if i, ok := t.columnMap[name]; ok {
		return t.Schema.Fields[i], true
	}
	return nil, false
}

// WithKeys returns a copy of t carrying key metadata. Key fields must
// exist and be INT64.
func (t *Table) WithKeys(primaryKey string, foreignKeys map[string]string) (*Table, error) {
	check := func(field string) error {
		f, ok := t.Field(field)
		if !ok {
			return NewConfigError(t.Name, field, "key field does not exist")
		}
		if f.DataType != INT64 {
			return NewConfigError(t.Name, field, fmt.Sprintf("key field must be INT64, is %s", f.DataType))
		}
		return nil
	}
	if primaryKey != "" {
		if err := check(primaryKey); err != nil {
			return nil, err
		}
	}
	fks := make(map[string]string, len(foreignKeys))
	for field, ref := range foreignKeys {
		if err := check(field); err != nil {
			return nil, err
		}
		fks[field] = ref
	}
	out := *t
	out.PrimaryKey = primaryKey
	out.ForeignKeys = fks
	return &out, nil
}

// TableBuilder accumulates rows for a new Table.
type TableBuilder struct {
	name    string
	schema  *Schema
	columns []*Vector
}

// NewTableBuilder creates a builder for a table with the given fields
func NewTableBuilder(name string, fields ...*Field) *TableBuilder {
	columns := make([]*Vector, len(fields))
	for i, field := range fields {
		columns[i] = NewVector(field.DataType, 16)
	}
	return &TableBuilder{
		name:    name,
		schema:  NewSchema(fields...),
		columns: columns,
	}
}

// AddRow adds a row to the table being built
func (b *TableBuilder) AddRow(values ...interface{}) error {
	if len(values) != len(b.columns) {
		return fmt.Errorf("value count mismatch: expected %d, got %d", len(b.columns), len(values))
	}
	for i, value := range values {
		if err := b.columns[i].Append(value); err != nil {
			return fmt.Errorf("column %s: %w", b.schema.Fields[i].Name, err)
		}
	}
	return nil
}

// Build returns the finished table. The builder must not be reused.
func (b *TableBuilder) Build() (*Table, error) {
	return NewTable(b.name, b.schema, b.columns)
}
