package core

import (
	"fmt"
	"strings"

	"jobbench/vectorized"
)

// ColumnRef names one field of one aliased table.
type ColumnRef struct {
	Alias string
	Field string
}

// Col returns the reference alias.field
func Col(alias, field string) ColumnRef {
	return ColumnRef{Alias: alias, Field: field}
}

// ParseColumnRef splits "alias.field".
func ParseColumnRef(s string) (ColumnRef, error) {
	alias, field, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || alias == "" || field == "" {
		return ColumnRef{}, configErrorf("", "", "column reference %q is not of the form alias.field", s)
	}
	return ColumnRef{Alias: alias, Field: field}, nil
}

func (c ColumnRef) String() string {
	return c.Alias + "." + c.Field
}

// TableRef is one aliased table of a query with its optional
// single-table filter.
type TableRef struct {
	Alias  string
	Table  string
	Filter vectorized.Predicate
}

// JoinEdge is an equality between two columns of different tables.
type JoinEdge struct {
	Left  ColumnRef
	Right ColumnRef
}

func (e JoinEdge) String() string {
	return e.Left.String() + " = " + e.Right.String()
}

// Output is one MIN aggregate of the result tuple.
type Output struct {
	Name   string
	Column ColumnRef
}

// Query declares a join of filtered tables and the columns whose
// independent minimums form the result. Driver optionally pins the
// table scanned last.
type Query struct {
	Name    string
	Tables  []TableRef
	Joins   []JoinEdge
	Outputs []Output
	Driver  string
}

// Tuple holds one value per query output, in output order.
type Tuple []vectorized.Value

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TableIndex returns the position of alias in q.Tables, or -1.
func (q *Query) TableIndex(alias string) int {
	for i, ref := range q.Tables {
		if ref.Alias == alias {
			return i
		}
	}
	return -1
}

// Validate checks the query shape without looking at any table data.
func (q *Query) Validate() error {
	if len(q.Tables) == 0 {
		return configErrorf("", "", "query %s has no tables", q.Name)
	}
	seen := make(map[string]bool, len(q.Tables))
	for _, ref := range q.Tables {
		if ref.Alias == "" || ref.Table == "" {
			return configErrorf(ref.Table, "", "query %s: table reference needs both alias and table", q.Name)
		}
		if seen[ref.Alias] {
			return configErrorf(ref.Table, "", "query %s: duplicate alias %s", q.Name, ref.Alias)
		}
		seen[ref.Alias] = true
	}
	for _, edge := range q.Joins {
		for _, c := range []ColumnRef{edge.Left, edge.Right} {
			if !seen[c.Alias] {
				return configErrorf("", c.Field, "query %s: join %s references unknown alias %s", q.Name, edge, c.Alias)
			}
		}
		if edge.Left.Alias == edge.Right.Alias {
			return configErrorf(edge.Left.Alias, edge.Left.Field, "query %s: self-join %s is not supported", q.Name, edge)
		}
	}
	if len(q.Outputs) == 0 {
		return configErrorf("", "", "query %s has no outputs", q.Name)
	}
	for _, out := range q.Outputs {
		if !seen[out.Column.Alias] {
			return configErrorf("", out.Column.Field, "query %s: output %s references unknown alias %s", q.Name, out.Name, out.Column.Alias)
		}
	}
	if q.Driver != "" && !seen[q.Driver] {
		return configErrorf("", "", "query %s: driver %s is not a table alias", q.Name, q.Driver)
	}
	return nil
}

// QueryBuilder assembles a Query. The first error is kept and reported
// by Build.
type QueryBuilder struct {
	q   Query
	err error
}

// NewQuery starts a query description.
func NewQuery(name string) *QueryBuilder {
	return &QueryBuilder{q: Query{Name: name}}
}

// From adds table under alias.
func (b *QueryBuilder) From(alias, table string) *QueryBuilder {
	b.q.Tables = append(b.q.Tables, TableRef{Alias: alias, Table: table})
	return b
}

// Where adds p to the filter of alias. Repeated calls are ANDed.
func (b *QueryBuilder) Where(alias string, p vectorized.Predicate) *QueryBuilder {
	i := b.q.TableIndex(alias)
	if i < 0 {
		b.fail(configErrorf("", "", "query %s: filter on unknown alias %s", b.q.Name, alias))
		return b
	}
	if prev := b.q.Tables[i].Filter; prev != nil {
		p = vectorized.And(prev, p)
	}
	b.q.Tables[i].Filter = p
	return b
}

// Join declares that all given columns are equal, as consecutive edges.
// Join("t.id", "mc.movie_id", "mk.movie_id") adds two edges.
func (b *QueryBuilder) Join(columns ...string) *QueryBuilder {
	if len(columns) < 2 {
		b.fail(configErrorf("", "", "query %s: join needs at least two columns", b.q.Name))
		return b
	}
	refs := make([]ColumnRef, len(columns))
	for i, s := range columns {
		ref, err := ParseColumnRef(s)
		if err != nil {
			b.fail(err)
			return b
		}
		refs[i] = ref
	}
	for i := 1; i < len(refs); i++ {
		b.q.Joins = append(b.q.Joins, JoinEdge{Left: refs[i-1], Right: refs[i]})
	}
	return b
}

// Min adds MIN(column) as output name. An empty name defaults to the
// column reference.
func (b *QueryBuilder) Min(name, column string) *QueryBuilder {
	ref, err := ParseColumnRef(column)
	if err != nil {
		b.fail(err)
		return b
	}
	if name == "" {
		name = ref.String()
	}
	b.q.Outputs = append(b.q.Outputs, Output{Name: name, Column: ref})
	return b
}

// Drive pins the driving table.
func (b *QueryBuilder) Drive(alias string) *QueryBuilder {
	b.q.Driver = alias
	return b
}

func (b *QueryBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates and returns the query.
func (b *QueryBuilder) Build() (*Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	q.Tables = append([]TableRef(nil), b.q.Tables...)
	q.Joins = append([]JoinEdge(nil), b.q.Joins...)
	q.Outputs = append([]Output(nil), b.q.Outputs...)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// MustBuild is Build for statically known queries; it panics on error.
func (b *QueryBuilder) MustBuild() *Query {
	q, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("query %s: %v", b.q.Name, err))
	}
	return q
}
