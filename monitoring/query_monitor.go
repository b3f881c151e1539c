package monitoring

import (
	"time"
)

// QueryMonitor records planning and evaluation metrics per benchmark
// query.
type QueryMonitor struct {
	registry *MetricsRegistry
}

func NewQueryMonitor(registry *MetricsRegistry) *QueryMonitor {
	if registry == nil {
		registry = NewMetricsRegistry()
	}
	return &QueryMonitor{registry: registry}
}

// Registry returns the registry the monitor writes to
func (qm *QueryMonitor) Registry() *MetricsRegistry { return qm.registry }

// QueryMetrics describes one evaluation of a query
type QueryMetrics struct {
	Query             string        `json:"query"`
	StartTime         time.Time     `json:"start_time"`
	TotalDuration     time.Duration `json:"total_duration"`
	PlanningDuration  time.Duration `json:"planning_duration"`
	ExecutionDuration time.Duration `json:"execution_duration"`
	TablesJoined      int           `json:"tables_joined"`
	TablesElided      int           `json:"tables_elided"`
	HasResult         bool          `json:"has_result"`
	ErrorOccurred     bool          `json:"error_occurred"`
	ErrorMessage      string        `json:"error_message,omitempty"`
}

// QueryExecution tracks a single evaluation
type QueryExecution struct {
	metrics *QueryMetrics
	monitor *QueryMonitor
	phase   time.Time
}

// StartQueryMonitoring begins monitoring an evaluation of query
func (qm *QueryMonitor) StartQueryMonitoring(query string) *QueryExecution {
	now := time.Now()
	return &QueryExecution{
		metrics: &QueryMetrics{Query: query, StartTime: now},
		monitor: qm,
		phase:   now,
	}
}

func (qe *QueryExecution) StartPlanning() {
	qe.phase = time.Now()
}

// EndPlanning records the plan shape
func (qe *QueryExecution) EndPlanning(joined, elided int) {
	qe.metrics.PlanningDuration = time.Since(qe.phase)
	qe.metrics.TablesJoined = joined
	qe.metrics.TablesElided = elided
}

func (qe *QueryExecution) StartExecution() {
	qe.phase = time.Now()
}

func (qe *QueryExecution) EndExecution(hasResult bool) {
	qe.metrics.ExecutionDuration = time.Since(qe.phase)
	qe.metrics.HasResult = hasResult
}

func (qe *QueryExecution) SetError(err error) {
	qe.metrics.ErrorOccurred = true
	if err != nil {
		qe.metrics.ErrorMessage = err.Error()
	}
}

// Finish closes the evaluation and updates the registry.
func (qe *QueryExecution) Finish() *QueryMetrics {
	qe.metrics.TotalDuration = time.Since(qe.metrics.StartTime)
	qe.updateMetrics()
	return qe.metrics
}

func (qe *QueryExecution) updateMetrics() {
	r := qe.monitor.registry
	m := qe.metrics

	r.Counter("queries_total").Inc()
	switch {
	case m.ErrorOccurred:
		r.Counter("queries_failed").Inc()
		return
	case m.HasResult:
		r.Counter("queries_with_result").Inc()
	default:
		r.Counter("queries_without_result").Inc()
	}
	r.Counter("tables_elided").Add(int64(m.TablesElided))

	r.Timer("query_planning_duration").Observe(m.PlanningDuration)
	r.Timer("query_execution_duration").Observe(m.ExecutionDuration)
	r.Timer("query_" + m.Query + "_duration").Observe(m.TotalDuration)
	r.Histogram("query_tables_joined", []float64{2, 4, 6, 8, 10, 14}).Observe(float64(m.TablesJoined))
}

// QueryStats summarizes all monitored evaluations
type QueryStats struct {
	TotalQueries         int64   `json:"total_queries"`
	FailedQueries        int64   `json:"failed_queries"`
	EmptyResults         int64   `json:"empty_results"`
	AverageExecutionTime float64 `json:"average_execution_time_us"`
	AveragePlanningTime  float64 `json:"average_planning_time_us"`
}

// GetQueryStats returns current query statistics
func (qm *QueryMonitor) GetQueryStats() QueryStats {
	return QueryStats{
		TotalQueries:         qm.registry.Counter("queries_total").Get(),
		FailedQueries:        qm.registry.Counter("queries_failed").Get(),
		EmptyResults:         qm.registry.Counter("queries_without_result").Get(),
		AverageExecutionTime: qm.registry.Timer("query_execution_duration").GetStats().Mean,
		AveragePlanningTime:  qm.registry.Timer("query_planning_duration").GetStats().Mean,
	}
}
