package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jobbench/vectorized"
)

func intCol(name string) *vectorized.Field {
	return &vectorized.Field{Name: name, DataType: vectorized.INT64, Nullable: true}
}

func strCol(name string) *vectorized.Field {
	return &vectorized.Field{Name: name, DataType: vectorized.STRING, Nullable: true}
}

func makeTable(t *testing.T, name string, fields []*vectorized.Field, rows ...[]interface{}) *vectorized.Table {
	t.Helper()
	b := vectorized.NewTableBuilder(name, fields...)
	for _, row := range rows {
		require.NoError(t, b.AddRow(row...))
	}
	table, err := b.Build()
	require.NoError(t, err)
	return table
}

func withKeys(t *testing.T, table *vectorized.Table, pk string, fks map[string]string) *vectorized.Table {
	t.Helper()
	keyed, err := table.WithKeys(pk, fks)
	require.NoError(t, err)
	return keyed
}

// quietTracer ignores the environment and prints nothing.
func quietTracer() *Tracer {
	return &Tracer{
		level:             TraceLevelOff,
		enabledComponents: make(map[TraceComponent]bool),
		maxEntries:        1000,
	}
}

func testEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithTracer(quietTracer())}, opts...)...)
}

// scenarioTables returns A = {id:[1,2], kind:[x,y]} and
// B = {a_id:[1,1,2], val:[b,a,c]}.
func scenarioTables(t *testing.T) MapSource {
	a := makeTable(t, "A", []*vectorized.Field{intCol("id"), strCol("kind")},
		[]interface{}{1, "x"},
		[]interface{}{2, "y"},
	)
	b := makeTable(t, "B", []*vectorized.Field{intCol("a_id"), strCol("val")},
		[]interface{}{1, "b"},
		[]interface{}{1, "a"},
		[]interface{}{2, "c"},
	)
	return MapSource{"A": a, "B": b}
}

func row(values ...interface{}) []interface{} { return values }
