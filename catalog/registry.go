package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobbench/core"
	"jobbench/vectorized"
)

// Registry loads the tables of a schema from Parquet on first use and
// keeps them in memory. It is safe for concurrent use and satisfies
// core.TableSource.
type Registry struct {
	cfg    Config
	schema *Schema
	tracer *core.Tracer

	mu     sync.RWMutex
	tables map[string]*vectorized.Table
	stats  map[string]*TableStatistics
}

// NewRegistry creates a registry reading cfg.DataPath
func NewRegistry(cfg Config, schema *Schema) *Registry {
	return &Registry{
		cfg:    cfg,
		schema: schema,
		tracer: core.GetTracer(),
		tables: make(map[string]*vectorized.Table),
		stats:  make(map[string]*TableStatistics),
	}
}

// Schema returns the schema the registry resolves names against
func (r *Registry) Schema() *Schema { return r.schema }

// Register adds an already loaded table, applying the schema's keys
// when the schema describes it.
func (r *Registry) Register(t *vectorized.Table) error {
	if tm, ok := r.schema.Lookup(t.Name); ok {
		keyed, err := tm.Apply(t)
		if err != nil {
			return err
		}
		t = keyed
	}
	r.mu.Lock()
	r.tables[t.Name] = t
	r.mu.Unlock()
	return nil
}

// Table returns the named table, loading it on first request.
func (r *Registry) Table(name string) (*vectorized.Table, error) {
	r.mu.RLock()
	t, ok := r.tables[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	tm, ok := r.schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrTableNotFound,
			vectorized.NewConfigError(name, "", "not part of schema "+r.schema.Name))
	}

	start := time.Now()
	t, err := r.load(tm)
	if err != nil {
		r.tracer.Error(core.TraceComponentLoader, "Table load failed", core.TraceContext("table", name, "error", err.Error()))
		return nil, err
	}
	r.tracer.Info(core.TraceComponentLoader, "Table loaded", core.TraceContext(
		"table", name, "rows", t.RowCount, "elapsed_ms", time.Since(start).Milliseconds()))

	r.mu.Lock()
	defer r.mu.Unlock()
	// another caller may have loaded it meanwhile
	if existing, ok := r.tables[name]; ok {
		return existing, nil
	}
	r.tables[name] = t
	return t, nil
}

func (r *Registry) load(tm *TableMetadata) (*vectorized.Table, error) {
	paths, err := r.resolve(tm.Name)
	if err != nil {
		return nil, err
	}

	var t *vectorized.Table
	if len(paths) == 1 {
		reader, err := NewParquetReader(paths[0])
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		t, err = reader.ReadTable(tm.Name, tm.Columns)
		if err != nil {
			return nil, err
		}
	} else {
		reader, err := NewMultiFileParquetReader(paths)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		t, err = reader.ReadTable(tm.Name, tm.Columns)
		if err != nil {
			return nil, err
		}
	}
	return tm.Apply(t)
}

// resolve finds the files of a table: <DataPath>/<name>.parquet, or for
// local data every part under <DataPath>/<name>/.
func (r *Registry) resolve(name string) ([]string, error) {
	if IsHTTPURL(r.cfg.DataPath) {
		return []string{strings.TrimRight(r.cfg.DataPath, "/") + "/" + name + ".parquet"}, nil
	}

	single := filepath.Join(r.cfg.DataPath, name+".parquet")
	if _, err := os.Stat(single); err == nil {
		return []string{single}, nil
	}
	parts, err := GlobParts(filepath.Join(r.cfg.DataPath, name))
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTableNotFound,
			vectorized.NewConfigError(name, "", "no parquet data under "+r.cfg.DataPath))
	}
	return parts, nil
}

// Preload loads the named tables, or cfg.Tables when names is empty,
// using up to parallel concurrent loads.
func (r *Registry) Preload(ctx context.Context, parallel int, names ...string) error {
	if len(names) == 0 {
		names = r.cfg.Tables
	}
	if parallel < 1 {
		parallel = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.Table(name)
			return err
		})
	}
	return g.Wait()
}

// Loaded returns the names of the tables held in memory
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statistics returns cached statistics of a table, loading it if needed.
func (r *Registry) Statistics(name string) (*TableStatistics, error) {
	r.mu.RLock()
	s, ok := r.stats[name]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	t, err := r.Table(name)
	if err != nil {
		return nil, err
	}
	s = CollectStatistics(t)
	r.mu.Lock()
	r.stats[name] = s
	r.mu.Unlock()
	return s, nil
}
