package core

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TraceLevel represents different levels of tracing
type TraceLevel int

const (
	TraceLevelOff TraceLevel = iota
	TraceLevelError
	TraceLevelWarn
	TraceLevelInfo
	TraceLevelDebug
	TraceLevelVerbose
)

// String returns the string representation of TraceLevel
func (tl TraceLevel) String() string {
	switch tl {
	case TraceLevelOff:
		return "OFF"
	case TraceLevelError:
		return "ERROR"
	case TraceLevelWarn:
		return "WARN"
	case TraceLevelInfo:
		return "INFO"
	case TraceLevelDebug:
		return "DEBUG"
	case TraceLevelVerbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// ParseTraceLevel parses a level name, case-insensitively.
func ParseTraceLevel(s string) (TraceLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return TraceLevelOff, true
	case "ERROR":
		return TraceLevelError, true
	case "WARN":
		return TraceLevelWarn, true
	case "INFO":
		return TraceLevelInfo, true
	case "DEBUG":
		return TraceLevelDebug, true
	case "VERBOSE":
		return TraceLevelVerbose, true
	}
	return TraceLevelOff, false
}

var levelColors = map[TraceLevel]*color.Color{
	TraceLevelError:   color.New(color.FgRed, color.Bold),
	TraceLevelWarn:    color.New(color.FgYellow),
	TraceLevelInfo:    color.New(color.FgGreen),
	TraceLevelDebug:   color.New(color.FgCyan),
	TraceLevelVerbose: color.New(color.FgMagenta),
}

// TraceComponent represents different components that can be traced
type TraceComponent string

const (
	TraceComponentQuery     TraceComponent = "QUERY"
	TraceComponentPlanner   TraceComponent = "PLANNER"
	TraceComponentFilter    TraceComponent = "FILTER"
	TraceComponentIndex     TraceComponent = "INDEX"
	TraceComponentReducer   TraceComponent = "REDUCER"
	TraceComponentAggregate TraceComponent = "AGGREGATE"
	TraceComponentLoader    TraceComponent = "LOADER"
	TraceComponentCatalog   TraceComponent = "CATALOG"
)

// AllTraceComponents lists every component, in display order.
var AllTraceComponents = []TraceComponent{
	TraceComponentQuery, TraceComponentPlanner, TraceComponentFilter,
	TraceComponentIndex, TraceComponentReducer, TraceComponentAggregate,
	TraceComponentLoader, TraceComponentCatalog,
}

// TraceEntry represents a single trace entry
type TraceEntry struct {
	Timestamp time.Time
	Level     TraceLevel
	Component TraceComponent
	Message   string
	Context   map[string]interface{}
}

// Tracer records component-scoped log entries. Entries at or below the
// configured level for enabled components are kept in a bounded buffer
// and printed to the output writer.
type Tracer struct {
	level             TraceLevel
	enabledComponents map[TraceComponent]bool
	mutex             sync.RWMutex
	entries           []TraceEntry
	maxEntries        int
	out               io.Writer
}

var globalTracer *Tracer
var tracerOnce sync.Once

// GetTracer returns the global tracer instance
func GetTracer() *Tracer {
	tracerOnce.Do(func() {
		globalTracer = NewTracer()
	})
	return globalTracer
}

// NewTracer creates a new tracer with configuration from environment variables
func NewTracer() *Tracer {
	tracer := &Tracer{
		level:             TraceLevelOff,
		enabledComponents: make(map[TraceComponent]bool),
		entries:           make([]TraceEntry, 0),
		maxEntries:        1000,
		out:               os.Stderr,
	}

	tracer.configureFromEnv()
	return tracer
}

// configureFromEnv reads JOBBENCH_TRACE_LEVEL and JOBBENCH_TRACE_COMPONENTS
func (t *Tracer) configureFromEnv() {
	if level, ok := ParseTraceLevel(os.Getenv("JOBBENCH_TRACE_LEVEL")); ok {
		t.level = level
	}
	if componentsStr := os.Getenv("JOBBENCH_TRACE_COMPONENTS"); componentsStr != "" {
		t.enableList(componentsStr)
	}
}

func (t *Tracer) enableList(componentsStr string) {
	if strings.ToUpper(strings.TrimSpace(componentsStr)) == "ALL" {
		for _, comp := range AllTraceComponents {
			t.enabledComponents[comp] = true
		}
		return
	}
	for _, comp := range strings.Split(componentsStr, ",") {
		if comp = strings.TrimSpace(comp); comp != "" {
			t.enabledComponents[TraceComponent(strings.ToUpper(comp))] = true
		}
	}
}

// SetLevel sets the trace level
func (t *Tracer) SetLevel(level TraceLevel) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.level = level
}

// SetOutput redirects printed entries. A nil writer silences printing
// while still recording entries.
func (t *Tracer) SetOutput(w io.Writer) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.out = w
}

// EnableComponent enables tracing for a specific component
func (t *Tracer) EnableComponent(component TraceComponent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = true
}

// EnableComponents enables a comma-separated list, or "ALL".
func (t *Tracer) EnableComponents(list string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enableList(list)
}

// DisableComponent disables tracing for a specific component
func (t *Tracer) DisableComponent(component TraceComponent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = false
}

// IsEnabled checks if tracing is enabled for a given level and component
func (t *Tracer) IsEnabled(level TraceLevel, component TraceComponent) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.level >= level && t.enabledComponents[component]
}

func (t *Tracer) trace(level TraceLevel, component TraceComponent, message string, context map[string]interface{}) {
	if !t.IsEnabled(level, component) {
		return
	}

	entry := TraceEntry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Context:   context,
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.entries = append(t.entries, entry)
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}

	if t.out != nil {
		t.printEntry(entry)
	}
}

func (t *Tracer) printEntry(entry TraceEntry) {
	var b strings.Builder
	tag := entry.Level.String()
	if c, ok := levelColors[entry.Level]; ok {
		tag = c.Sprint(tag)
	}
	fmt.Fprintf(&b, "[%s] %s/%s: %s", entry.Timestamp.Format("15:04:05.000"), tag, entry.Component, entry.Message)

	if len(entry.Context) > 0 {
		keys := make([]string, 0, len(entry.Context))
		for k := range entry.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Context[k])
		}
	}
	b.WriteByte('\n')
	io.WriteString(t.out, b.String())
}

func firstContext(context []map[string]interface{}) map[string]interface{} {
	if len(context) > 0 {
		return context[0]
	}
	return map[string]interface{}{}
}

// Error logs an error-level trace
func (t *Tracer) Error(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelError, component, message, firstContext(context))
}

// Warn logs a warning-level trace
func (t *Tracer) Warn(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelWarn, component, message, firstContext(context))
}

// Info logs an info-level trace
func (t *Tracer) Info(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelInfo, component, message, firstContext(context))
}

// Debug logs a debug-level trace
func (t *Tracer) Debug(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelDebug, component, message, firstContext(context))
}

// Verbose logs a verbose-level trace
func (t *Tracer) Verbose(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelVerbose, component, message, firstContext(context))
}

// GetEntries returns a copy of all recorded entries
func (t *Tracer) GetEntries() []TraceEntry {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	entries := make([]TraceEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Clear clears all trace entries
func (t *Tracer) Clear() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries = make([]TraceEntry, 0)
}

// TraceContext creates a context map for tracing from key/value pairs
func TraceContext(pairs ...interface{}) map[string]interface{} {
	context := make(map[string]interface{})
	for i := 0; i < len(pairs)-1; i += 2 {
		if key, ok := pairs[i].(string); ok {
			context[key] = pairs[i+1]
		}
	}
	return context
}
