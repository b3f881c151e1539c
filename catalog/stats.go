package catalog

import (
	"jobbench/vectorized"
)

// CollectStatistics computes per-column statistics of a loaded table.
func CollectStatistics(t *vectorized.Table) *TableStatistics {
	stats := &TableStatistics{
		Name:        t.Name,
		RowCount:    int64(t.RowCount),
		ColumnStats: make(map[string]*ColumnStatistics, len(t.Columns)),
	}
	for i, field := range t.Schema.Fields {
		stats.ColumnStats[field.Name] = collectColumnStats(t.Columns[i])
	}
	return stats
}

func collectColumnStats(v *vectorized.Vector) *ColumnStatistics {
	stats := &ColumnStatistics{}
	var minValue, maxValue vectorized.Value
	var totalLength int64
	seen := false

	switch v.DataType {
	case vectorized.INT64:
		distinct := make(map[int64]struct{})
		for i := 0; i < v.Length; i++ {
			n, ok := v.GetInt64(i)
			if !ok {
				stats.NullCount++
				continue
			}
			distinct[n] = struct{}{}
			val := vectorized.Int(n)
			if !seen || val.Less(minValue) {
				minValue = val
			}
			if !seen || maxValue.Less(val) {
				maxValue = val
			}
			seen = true
		}
		stats.DistinctCount = int64(len(distinct))
	case vectorized.STRING:
		distinct := make(map[string]struct{})
		for i := 0; i < v.Length; i++ {
			s, ok := v.GetString(i)
			if !ok {
				stats.NullCount++
				continue
			}
			distinct[s] = struct{}{}
			totalLength += int64(len(s))
			val := vectorized.Str(s)
			if !seen || val.Less(minValue) {
				minValue = val
			}
			if !seen || maxValue.Less(val) {
				maxValue = val
			}
			seen = true
		}
		stats.DistinctCount = int64(len(distinct))
		if nonNull := int64(v.Length) - stats.NullCount; nonNull > 0 {
			stats.AvgSize = float64(totalLength) / float64(nonNull)
		}
	}

	if seen {
		stats.MinValue = scalar(minValue)
		stats.MaxValue = scalar(maxValue)
	}
	return stats
}

func scalar(v vectorized.Value) interface{} {
	if v.Kind == vectorized.INT64 {
		return v.Int
	}
	return v.Str
}
