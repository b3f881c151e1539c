package core

import (
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"jobbench/vectorized"
)

// TableSource resolves table names to loaded tables.
type TableSource interface {
	Table(name string) (*vectorized.Table, error)
}

// MapSource is an in-memory TableSource keyed by table name.
type MapSource map[string]*vectorized.Table

// Table returns the named table
func (m MapSource) Table(name string) (*vectorized.Table, error) {
	if t, ok := m[name]; ok {
		return t, nil
	}
	return nil, configErrorf(name, "", "table not found")
}

// Options configures an Engine.
type Options struct {
	// FoldMinimum folds each key's values to per-column minimums while
	// indexing. When false, indexes keep every row and the tracker
	// enumerates all combinations.
	FoldMinimum bool
	// Elision removes tables that only confirm a foreign key.
	Elision bool
	Tracer  *Tracer
}

// Option mutates Options
type Option func(*Options)

// WithFoldMinimum toggles min-folding indexes
func WithFoldMinimum(fold bool) Option {
	return func(o *Options) { o.FoldMinimum = fold }
}

// WithElision toggles foreign-key table elision
func WithElision(elide bool) Option {
	return func(o *Options) { o.Elision = elide }
}

// WithTracer sets the tracer used for evaluation logs
func WithTracer(t *Tracer) Option {
	return func(o *Options) { o.Tracer = t }
}

// Engine evaluates queries. It holds no per-query state and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine; folding and elision are on by default.
func NewEngine(opts ...Option) *Engine {
	o := Options{FoldMinimum: true, Elision: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Tracer == nil {
		o.Tracer = GetTracer()
	}
	return &Engine{opts: o}
}

// Plan validates q against the tables of src and returns its join tree.
// All configuration errors surface here, before any row is read.
func (e *Engine) Plan(q *Query, src TableSource) (*Plan, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tables := make([]*vectorized.Table, len(q.Tables))
	for i, ref := range q.Tables {
		t, err := src.Table(ref.Table)
		if err != nil {
			return nil, fmt.Errorf("query %s: table %s: %w", q.Name, ref.Table, err)
		}
		tables[i] = t
	}
	plan, err := newPlanner(q, e.opts, tables).build()
	if err != nil {
		e.opts.Tracer.Error(TraceComponentPlanner, "Planning failed", TraceContext("query", q.Name, "error", err))
		return nil, err
	}
	e.opts.Tracer.Info(TraceComponentPlanner, "Planned query", TraceContext(
		"query", q.Name,
		"driver", plan.Root.Alias,
		"tables", len(plan.Nodes),
		"elided", plan.Elided,
	))
	e.opts.Tracer.Verbose(TraceComponentPlanner, "Plan\n"+plan.String())
	return plan, nil
}

// Explain renders the plan of q without evaluating it.
func (e *Engine) Explain(q *Query, src TableSource) (string, error) {
	plan, err := e.Plan(q, src)
	if err != nil {
		return "", err
	}
	return plan.String(), nil
}

// Evaluate returns the independent minimum of every output over all join
// combinations that satisfy q, or false when there are none.
func (e *Engine) Evaluate(q *Query, src TableSource) (Tuple, bool, error) {
	plan, err := e.Plan(q, src)
	if err != nil {
		return nil, false, err
	}
	return e.Run(plan)
}

// Run evaluates an already built plan.
func (e *Engine) Run(plan *Plan) (Tuple, bool, error) {
	start := time.Now()
	x := &execution{
		plan:   plan,
		opts:   e.opts,
		tracer: e.opts.Tracer,
		states: make([]nodeState, len(plan.Nodes)),
	}
	tuple, ok, err := x.run()
	if err != nil {
		return nil, false, err
	}
	x.tracer.Info(TraceComponentQuery, "Evaluated query", TraceContext(
		"query", plan.Query.Name,
		"matched", ok,
		"result", tuple,
		"elapsed", time.Since(start),
	))
	return tuple, ok, nil
}

type nodeState struct {
	selection *roaring.Bitmap
	index     Index
	groupKeys []*roaring64.Bitmap
}

// execution is the state of one evaluation; indexes die with it.
type execution struct {
	plan   *Plan
	opts   Options
	tracer *Tracer
	states []nodeState
}

func (x *execution) run() (Tuple, bool, error) {
	for _, n := range x.plan.Nodes {
		sel, err := vectorized.FilterBound(n.Table, n.filter)
		if err != nil {
			return nil, false, err
		}
		x.states[n.ID].selection = sel
		x.tracer.Debug(TraceComponentFilter, "Filtered table", TraceContext(
			"alias", n.Alias,
			"rows", n.Table.RowCount,
			"selected", sel.GetCardinality(),
			"selectivity", fmt.Sprintf("%.4f", vectorized.Selectivity(n.Table, sel)),
		))
		if sel.IsEmpty() {
			x.tracer.Info(TraceComponentQuery, "Empty selection, no result", TraceContext("alias", n.Alias))
			return nil, false, nil
		}
	}

	root := x.plan.Root
	x.build(root, nil)

	tracker := NewTracker(x.plan.Kinds...)
	cand := make([]vectorized.Value, len(x.plan.Kinds))
	var scanned int
	if x.opts.FoldMinimum {
		buf := make([]vectorized.Value, len(root.Layout))
		scanned = x.scan(root, nil, func(row int) {
			x.fill(root, row, buf)
			for i, oi := range root.Layout {
				cand[oi] = buf[i]
			}
			tracker.Update(cand)
		})
	} else {
		scanned = x.scan(root, nil, func(row int) {
			x.setOwn(root, row, cand)
			x.enumerate(x.frames(root, func(gi int) int64 { return root.Groups[gi].column.Int64s[row] }, nil), cand, tracker)
		})
	}
	x.tracer.Debug(TraceComponentAggregate, "Driving scan finished", TraceContext(
		"driver", root.Alias,
		"admitted", scanned,
		"matched", tracker.Matched(),
		"combinations", tracker.Updates(),
	))
	tuple, ok := tracker.Result()
	return tuple, ok, nil
}

// build indexes n and, first, its whole subtree. restrict limits the
// link keys n may hold; nil means unrestricted.
func (x *execution) build(n *PlanNode, restrict *roaring64.Bitmap) {
	st := &x.states[n.ID]
	st.groupKeys = make([]*roaring64.Bitmap, len(n.Groups))
	for gi, g := range n.Groups {
		st.groupKeys[gi] = x.reduceGroup(n, g)
	}
	if n.Parent == nil {
		return
	}

	var admitted int
	switch n.Kind {
	case IndexSet:
		s := NewKeySet()
		admitted = x.scan(n, restrict, func(row int) {
			s.Add(n.linkCol.Int64s[row])
		})
		st.index = s
	case IndexMin:
		m := NewMinIndex(len(n.Layout))
		buf := make([]vectorized.Value, len(n.Layout))
		admitted = x.scan(n, restrict, func(row int) {
			x.fill(n, row, buf)
			m.Add(n.linkCol.Int64s[row], buf)
		})
		st.index = m
	case IndexList:
		l := NewListIndex()
		admitted = x.scan(n, restrict, func(row int) {
			entry := ListEntry{
				Values: make([]vectorized.Value, len(n.outCols)),
				Probes: make([]int64, len(n.Groups)),
			}
			for i, col := range n.outCols {
				entry.Values[i] = col.Value(row)
			}
			for gi, g := range n.Groups {
				entry.Probes[gi] = g.column.Int64s[row]
			}
			l.Add(n.linkCol.Int64s[row], entry)
		})
		st.index = l
	}
	ctx := TraceContext(
		"alias", n.Alias,
		"kind", n.Kind.String(),
		"key", n.LinkField,
		"admitted", admitted,
		"keys", st.index.Len(),
		"restricted", restrict != nil,
	)
	switch idx := st.index.(type) {
	case *MinIndex:
		ctx["width"] = idx.Width()
	case *ListIndex:
		ctx["entries"] = idx.Entries()
	}
	x.tracer.Debug(TraceComponentIndex, "Built index", ctx)
}

// fill writes the subtree minimum vector of an admitted row of n into
// buf, following n.Layout.
func (x *execution) fill(n *PlanNode, row int, buf []vectorized.Value) {
	pos := 0
	for _, col := range n.outCols {
		buf[pos] = col.Value(row)
		pos++
	}
	for _, g := range n.Groups {
		key := g.column.Int64s[row]
		for _, child := range g.Children {
			if len(child.Layout) == 0 {
				continue
			}
			vec, _ := x.states[child.ID].index.(*MinIndex).Get(key)
			pos += copy(buf[pos:], vec)
		}
	}
}

// setOwn writes the own output values of row into the candidate.
func (x *execution) setOwn(n *PlanNode, row int, cand []vectorized.Value) {
	for i, col := range n.outCols {
		cand[n.Outputs[i]] = col.Value(row)
	}
}

// frame is a pending probe of a list index during enumeration.
type frame struct {
	node *PlanNode
	key  int64
}

// frames appends a probe for every output-carrying child of n.
func (x *execution) frames(n *PlanNode, key func(gi int) int64, dst []frame) []frame {
	for gi, g := range n.Groups {
		for _, child := range g.Children {
			if child.Kind == IndexList {
				dst = append(dst, frame{node: child, key: key(gi)})
			}
		}
	}
	return dst
}

// enumerate expands the Cartesian product of all pending probes and
// offers each complete combination to the tracker.
func (x *execution) enumerate(pending []frame, cand []vectorized.Value, tracker *Tracker) {
	if len(pending) == 0 {
		tracker.Update(cand)
		return
	}
	f := pending[len(pending)-1]
	rest := pending[:len(pending)-1:len(pending)-1]
	entries := x.states[f.node.ID].index.(*ListIndex).Get(f.key)
	for _, entry := range entries {
		for i, v := range entry.Values {
			cand[f.node.Outputs[i]] = v
		}
		next := x.frames(f.node, func(gi int) int64 { return entry.Probes[gi] }, rest)
		x.enumerate(next, cand, tracker)
	}
}
