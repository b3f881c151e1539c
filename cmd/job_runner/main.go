package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"jobbench/catalog"
	"jobbench/core"
	"jobbench/job"
	"jobbench/monitoring"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type result struct {
	query   string
	tuple   core.Tuple
	ok      bool
	plan    string
	timings []time.Duration
	err     error
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := catalog.ConfigFromEnv()

	fs := flag.NewFlagSet("job_runner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dataPath   = fs.String("data", cfg.DataPath, "Directory or http(s) base URL holding <table>.parquet")
		queryList  = fs.String("query", "all", "Comma-separated query names, or all")
		repeat     = fs.Int("repeat", 1, "Evaluate each query this many times")
		explain    = fs.Bool("explain", false, "Print the plan instead of evaluating")
		noFold     = fs.Bool("no-fold", false, "Keep every row in indexes and enumerate combinations")
		noElision  = fs.Bool("no-elision", false, "Keep tables that only confirm a foreign key")
		parallel   = fs.Int("parallel", 1, "Queries evaluated concurrently")
		traceLevel = fs.String("trace-level", "", "Override trace level (OFF, ERROR, WARN, INFO, DEBUG, VERBOSE)")
		traceComps = fs.String("trace-components", "", "Override trace components (comma list or ALL)")
		stats      = fs.Bool("stats", false, "Print column statistics of the loaded tables as JSON")
		metrics    = fs.Bool("metrics", false, "Print evaluation metrics as JSON after the results")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg.DataPath = *dataPath

	tracer := core.GetTracer()
	if *traceLevel != "" {
		level, ok := core.ParseTraceLevel(*traceLevel)
		if !ok {
			fmt.Fprintf(stderr, "unknown trace level %q\n", *traceLevel)
			return 2
		}
		tracer.SetLevel(level)
	}
	if *traceComps != "" {
		tracer.EnableComponents(*traceComps)
	}

	queries, err := selectQueries(*queryList)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if *repeat < 1 {
		*repeat = 1
	}

	registry := catalog.NewRegistry(cfg, catalog.IMDBSchema())
	start := time.Now()
	if err := registry.Preload(context.Background(), *parallel, tablesOf(queries)...); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("load failed:"), err)
		return 1
	}
	fmt.Fprintf(stdout, "loaded %d tables from %s in %v\n", len(registry.Loaded()), cfg.DataPath, time.Since(start).Round(time.Millisecond))

	if *stats {
		if err := printStats(stdout, registry); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	engine := core.NewEngine(
		core.WithFoldMinimum(!*noFold),
		core.WithElision(!*noElision),
	)
	monitor := monitoring.NewQueryMonitor(nil)
	results := evaluateAll(engine, registry, monitor, queries, *repeat, *explain, *parallel)

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
		printResult(stdout, r)
	}
	if *metrics {
		if err := printMetrics(stdout, monitor); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if failed > 0 {
		fmt.Fprintf(stdout, "%s %d of %d queries\n", color.RedString("failed:"), failed, len(results))
		return 1
	}
	return 0
}

// selectQueries resolves a comma list of query names; "all" selects
// every known query.
func selectQueries(list string) ([]*core.Query, error) {
	if strings.TrimSpace(list) == "all" || strings.TrimSpace(list) == "" {
		return job.All(), nil
	}
	var queries []*core.Query
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		q, ok := job.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown query %q (known: %s)", name, strings.Join(job.Names(), ", "))
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// tablesOf returns the distinct table names the queries read.
func tablesOf(queries []*core.Query) []string {
	seen := map[string]bool{}
	var names []string
	for _, q := range queries {
		for _, ref := range q.Tables {
			if !seen[ref.Table] {
				seen[ref.Table] = true
				names = append(names, ref.Table)
			}
		}
	}
	sort.Strings(names)
	return names
}

func evaluateAll(engine *core.Engine, src core.TableSource, monitor *monitoring.QueryMonitor, queries []*core.Query, repeat int, explain bool, parallel int) []result {
	results := make([]result, len(queries))
	var g errgroup.Group
	if parallel < 1 {
		parallel = 1
	}
	g.SetLimit(parallel)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results[i] = evaluate(engine, src, monitor, q, repeat, explain)
			return nil
		})
	}
	// failures are reported per query in results
	_ = g.Wait()
	return results
}

// evaluate plans and runs q repeat times, timing each round separately.
func evaluate(engine *core.Engine, src core.TableSource, monitor *monitoring.QueryMonitor, q *core.Query, repeat int, explain bool) result {
	r := result{query: q.Name}
	if explain {
		r.plan, r.err = engine.Explain(q, src)
		return r
	}
	for i := 0; i < repeat; i++ {
		qe := monitor.StartQueryMonitoring(q.Name)
		start := time.Now()

		qe.StartPlanning()
		plan, err := engine.Plan(q, src)
		if err != nil {
			qe.SetError(err)
			qe.Finish()
			r.err = err
			return r
		}
		qe.EndPlanning(len(plan.Nodes), len(plan.Elided))

		qe.StartExecution()
		tuple, ok, err := engine.Run(plan)
		if err != nil {
			qe.SetError(err)
			qe.Finish()
			r.err = err
			return r
		}
		qe.EndExecution(ok)
		qe.Finish()

		r.timings = append(r.timings, time.Since(start))
		r.tuple, r.ok = tuple, ok
	}
	return r
}

func printResult(w io.Writer, r result) {
	header := color.New(color.Bold).Sprintf("[%s]", r.query)
	switch {
	case r.err != nil:
		fmt.Fprintf(w, "%s %s %v\n", header, color.RedString("error:"), r.err)
	case r.plan != "":
		fmt.Fprintf(w, "%s\n%s", header, r.plan)
	case !r.ok:
		fmt.Fprintf(w, "%s %s %s\n", header, color.YellowString("<no result>"), formatTimings(r.timings))
	default:
		fmt.Fprintf(w, "%s %s %s\n", header, color.GreenString(r.tuple.String()), formatTimings(r.timings))
	}
}

func formatTimings(timings []time.Duration) string {
	if len(timings) == 0 {
		return ""
	}
	best, total := timings[0], time.Duration(0)
	for _, d := range timings {
		total += d
		if d < best {
			best = d
		}
	}
	if len(timings) == 1 {
		return fmt.Sprintf("(%v)", best.Round(time.Microsecond))
	}
	avg := total / time.Duration(len(timings))
	return fmt.Sprintf("(best %v, avg %v over %d runs)", best.Round(time.Microsecond), avg.Round(time.Microsecond), len(timings))
}

func printStats(w io.Writer, registry *catalog.Registry) error {
	var all []*catalog.TableStatistics
	for _, name := range registry.Loaded() {
		s, err := registry.Statistics(name)
		if err != nil {
			return err
		}
		all = append(all, s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(all)
}

func printMetrics(w io.Writer, monitor *monitoring.QueryMonitor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summary monitoring.QueryStats `json:"summary"`
		Metrics []monitoring.Metric   `json:"metrics"`
	}{monitor.GetQueryStats(), monitor.Registry().GetAllMetrics()})
}
