package monitoring

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MetricType represents different types of metrics
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeHistogram MetricType = "histogram"
	MetricTypeTimer     MetricType = "timer"
)

// Metric is a snapshot of one named metric
type Metric struct {
	Name  string      `json:"name"`
	Type  MetricType  `json:"type"`
	Value interface{} `json:"value"`
	Unit  string      `json:"unit"`
}

func (m Metric) String() string {
	return fmt.Sprintf("%s: %v %s", m.Name, m.Value, m.Unit)
}

// CounterMetric tracks incremental values
type CounterMetric struct {
	mu    sync.RWMutex
	value int64
}

func (c *CounterMetric) Inc() {
	c.Add(1)
}

func (c *CounterMetric) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
}

func (c *CounterMetric) Get() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// HistogramMetric counts observations into upper-bounded buckets.
type HistogramMetric struct {
	mu      sync.RWMutex
	buckets []float64
	counts  []int64
	sum     float64
	count   int64
	min     float64
	max     float64
}

func NewHistogramMetric(buckets []float64) *HistogramMetric {
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &HistogramMetric{
		buckets: sorted,
		counts:  make([]int64, len(sorted)+1), // last is +Inf
	}
}

func (h *HistogramMetric) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || value < h.min {
		h.min = value
	}
	if h.count == 0 || value > h.max {
		h.max = value
	}
	h.sum += value
	h.count++

	i := sort.SearchFloat64s(h.buckets, value)
	h.counts[i]++
}

// HistogramStats summarizes a histogram
type HistogramStats struct {
	Count   int64            `json:"count"`
	Sum     float64          `json:"sum"`
	Mean    float64          `json:"mean"`
	Min     float64          `json:"min"`
	Max     float64          `json:"max"`
	Buckets map[string]int64 `json:"buckets"`
}

func (h *HistogramMetric) GetStats() HistogramStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HistogramStats{
		Count:   h.count,
		Sum:     h.sum,
		Min:     h.min,
		Max:     h.max,
		Buckets: make(map[string]int64, len(h.counts)),
	}
	if h.count > 0 {
		stats.Mean = h.sum / float64(h.count)
	}
	for i, bucket := range h.buckets {
		stats.Buckets[fmt.Sprintf("%g", bucket)] = h.counts[i]
	}
	stats.Buckets["+Inf"] = h.counts[len(h.buckets)]
	return stats
}

// TimerMetric records durations in microseconds.
type TimerMetric struct {
	histogram *HistogramMetric
}

func NewTimerMetric() *TimerMetric {
	buckets := []float64{10, 100, 1000, 10000, 100000, 1000000, 10000000}
	return &TimerMetric{histogram: NewHistogramMetric(buckets)}
}

// Observe records d
func (t *TimerMetric) Observe(d time.Duration) {
	t.histogram.Observe(float64(d.Microseconds()))
}

func (t *TimerMetric) GetStats() HistogramStats {
	return t.histogram.GetStats()
}

// MetricsRegistry holds named metrics, creating them on first use.
type MetricsRegistry struct {
	mu         sync.RWMutex
	counters   map[string]*CounterMetric
	histograms map[string]*HistogramMetric
	timers     map[string]*TimerMetric
}

func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters:   make(map[string]*CounterMetric),
		histograms: make(map[string]*HistogramMetric),
		timers:     make(map[string]*TimerMetric),
	}
}

func (r *MetricsRegistry) Counter(name string) *CounterMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if counter, exists := r.counters[name]; exists {
		return counter
	}
	counter := &CounterMetric{}
	r.counters[name] = counter
	return counter
}

// Histogram returns the named histogram. buckets only apply on creation.
func (r *MetricsRegistry) Histogram(name string, buckets []float64) *HistogramMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if histogram, exists := r.histograms[name]; exists {
		return histogram
	}
	histogram := NewHistogramMetric(buckets)
	r.histograms[name] = histogram
	return histogram
}

func (r *MetricsRegistry) Timer(name string) *TimerMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, exists := r.timers[name]; exists {
		return timer
	}
	timer := NewTimerMetric()
	r.timers[name] = timer
	return timer
}

// GetAllMetrics snapshots every metric, sorted by name.
func (r *MetricsRegistry) GetAllMetrics() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metrics []Metric
	for name, counter := range r.counters {
		metrics = append(metrics, Metric{Name: name, Type: MetricTypeCounter, Value: counter.Get(), Unit: "count"})
	}
	for name, histogram := range r.histograms {
		metrics = append(metrics, Metric{Name: name, Type: MetricTypeHistogram, Value: histogram.GetStats(), Unit: "distribution"})
	}
	for name, timer := range r.timers {
		metrics = append(metrics, Metric{Name: name, Type: MetricTypeTimer, Value: timer.GetStats(), Unit: "microseconds"})
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics
}
