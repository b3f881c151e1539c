package core

import (
	"fmt"
	"sort"
	"strings"

	"jobbench/vectorized"
)

// IndexKind is the structure built for a table of the join tree.
type IndexKind int

const (
	// IndexNone marks the driving table, which is scanned, not indexed.
	IndexNone IndexKind = iota
	IndexSet
	IndexMin
	IndexList
)

func (k IndexKind) String() string {
	switch k {
	case IndexNone:
		return "scan"
	case IndexSet:
		return "set"
	case IndexMin:
		return "min"
	case IndexList:
		return "list"
	default:
		return "unknown"
	}
}

// PlanNode is one table of the join tree. Every node except the root is
// indexed on LinkField, the column it shares with its parent.
type PlanNode struct {
	ID          int
	Alias       string
	TableName   string
	Table       *vectorized.Table
	FilterText  string
	Parent      *PlanNode
	LinkField   string
	ParentField string
	Groups      []*ChildGroup
	Kind        IndexKind
	// Outputs are the query output positions read from this table.
	Outputs []int
	// Layout maps each position of the subtree value vector to a query
	// output position: own outputs first, then each child's layout.
	Layout []int

	filter  vectorized.BoundPredicate
	linkCol *vectorized.Vector
	outCols []*vectorized.Vector
	notNull []*vectorized.Vector
}

// ChildGroup is the set of children probed with the same parent column.
type ChildGroup struct {
	Field    string
	Children []*PlanNode

	column *vectorized.Vector
}

// Children returns all children of n in probe order.
func (n *PlanNode) Children() []*PlanNode {
	var out []*PlanNode
	for _, g := range n.Groups {
		out = append(out, g.Children...)
	}
	return out
}

// Plan is a validated join tree for one query. It holds no evaluation
// state and may be evaluated repeatedly.
type Plan struct {
	Query *Query
	Root  *PlanNode
	// Nodes lists every node children-first; the root is last.
	Nodes []*PlanNode
	// Elided lists aliases removed by the foreign-key rule.
	Elided []string
	Kinds  []vectorized.DataType
}

// planner turns a query and its tables into a Plan.
type planner struct {
	q      *Query
	opts   Options
	tables []*vectorized.Table

	columns []ColumnRef
	colIDs  map[ColumnRef]int
	uf      []int
	// joinCols holds, per table, the ids of its columns used in joins.
	joinCols [][]int
	outputs  [][]int
	elided   []bool
}

func newPlanner(q *Query, opts Options, tables []*vectorized.Table) *planner {
	return &planner{
		q:        q,
		opts:     opts,
		tables:   tables,
		colIDs:   make(map[ColumnRef]int),
		joinCols: make([][]int, len(q.Tables)),
		outputs:  make([][]int, len(q.Tables)),
		elided:   make([]bool, len(q.Tables)),
	}
}

func (p *planner) column(ref ColumnRef) int {
	if id, ok := p.colIDs[ref]; ok {
		return id
	}
	id := len(p.columns)
	p.columns = append(p.columns, ref)
	p.colIDs[ref] = id
	p.uf = append(p.uf, id)
	ti := p.q.TableIndex(ref.Alias)
	p.joinCols[ti] = append(p.joinCols[ti], id)
	return id
}

func (p *planner) find(x int) int {
	for p.uf[x] != x {
		p.uf[x] = p.uf[p.uf[x]]
		x = p.uf[x]
	}
	return x
}

func (p *planner) union(a, b int) {
	ra, rb := p.find(a), p.find(b)
	switch {
	case ra < rb:
		p.uf[rb] = ra
	case rb < ra:
		p.uf[ra] = rb
	}
}

func (p *planner) field(ref ColumnRef) (*vectorized.Field, error) {
	ti := p.q.TableIndex(ref.Alias)
	f, ok := p.tables[ti].Field(ref.Field)
	if !ok {
		return nil, configErrorf(p.q.Tables[ti].Table, ref.Field, "no such field (alias %s)", ref.Alias)
	}
	return f, nil
}

func (p *planner) build() (*Plan, error) {
	q := p.q
	filters := make([]vectorized.BoundPredicate, len(q.Tables))
	for i, ref := range q.Tables {
		if ref.Filter == nil {
			continue
		}
		bound, err := ref.Filter.Bind(p.tables[i])
		if err != nil {
			return nil, fmt.Errorf("query %s: filter on %s: %w", q.Name, ref.Alias, err)
		}
		filters[i] = bound
	}

	kinds := make([]vectorized.DataType, len(q.Outputs))
	for oi, out := range q.Outputs {
		f, err := p.field(out.Column)
		if err != nil {
			return nil, fmt.Errorf("query %s: output %s: %w", q.Name, out.Name, err)
		}
		kinds[oi] = f.DataType
		ti := q.TableIndex(out.Column.Alias)
		p.outputs[ti] = append(p.outputs[ti], oi)
	}

	for _, edge := range q.Joins {
		for _, c := range []ColumnRef{edge.Left, edge.Right} {
			f, err := p.field(c)
			if err != nil {
				return nil, fmt.Errorf("query %s: join %s: %w", q.Name, edge, err)
			}
			if f.DataType != vectorized.INT64 {
				return nil, configErrorf(q.Tables[q.TableIndex(c.Alias)].Table, c.Field,
					"join column must be INT64, is %s", f.DataType)
			}
		}
		p.union(p.column(edge.Left), p.column(edge.Right))
	}

	classes := p.classes()
	for _, members := range classes {
		seen := make(map[string]ColumnRef, len(members))
		for _, id := range members {
			c := p.columns[id]
			if prev, dup := seen[c.Alias]; dup {
				return nil, configErrorf(q.Tables[q.TableIndex(c.Alias)].Table, c.Field,
					"self-join: %s and %s are equated", prev, c)
			}
			seen[c.Alias] = c
		}
	}

	if p.opts.Elision {
		p.elide(classes)
	}

	// live[t] maps each class root that still links t to another table
	// onto t's field in that class.
	live := make([]map[int]string, len(q.Tables))
	for i := range live {
		live[i] = make(map[int]string)
	}
	for cls, members := range classes {
		var alive []int
		for _, id := range members {
			if !p.elided[q.TableIndex(p.columns[id].Alias)] {
				alive = append(alive, id)
			}
		}
		if len(alive) < 2 {
			continue
		}
		for _, id := range alive {
			c := p.columns[id]
			live[q.TableIndex(c.Alias)][cls] = c.Field
		}
	}

	driver, err := p.chooseDriver(live)
	if err != nil {
		return nil, err
	}

	nodes := make([]*PlanNode, len(q.Tables))
	newNode := func(ti int) *PlanNode {
		ref := q.Tables[ti]
		t := p.tables[ti]
		n := &PlanNode{
			Alias:     ref.Alias,
			TableName: ref.Table,
			Table:     t,
			Outputs:   p.outputs[ti],
			filter:    filters[ti],
		}
		if ref.Filter != nil {
			n.FilterText = ref.Filter.String()
		}
		for _, oi := range n.Outputs {
			n.outCols = append(n.outCols, t.GetColumnByName(q.Outputs[oi].Column.Field))
		}
		for _, id := range p.joinCols[ti] {
			n.notNull = append(n.notNull, t.GetColumnByName(p.columns[id].Field))
		}
		nodes[ti] = n
		return n
	}

	root := newNode(driver)
	expanded := make(map[int]bool)
	queue := []int{driver}
	for len(queue) > 0 {
		ti := queue[0]
		queue = queue[1:]
		n := nodes[ti]
		for _, cls := range sortedClassRoots(live[ti]) {
			if expanded[cls] {
				continue
			}
			expanded[cls] = true
			g := &ChildGroup{Field: live[ti][cls], column: n.Table.GetColumnByName(live[ti][cls])}
			for _, id := range classes[cls] {
				cti := q.TableIndex(p.columns[id].Alias)
				if cti == ti || p.elided[cti] {
					continue
				}
				if nodes[cti] != nil && (nodes[cti].Parent == n || n.Parent == nodes[cti]) {
					return nil, configErrorf(q.Tables[cti].Table, p.columns[id].Field,
						"composite join between %s and %s is not supported: join them on a single key",
						n.Alias, q.Tables[cti].Alias)
				}
				if nodes[cti] != nil {
					return nil, configErrorf(q.Tables[cti].Table, p.columns[id].Field,
						"join graph is cyclic: %s is reached from %s and again through %s.%s",
						q.Tables[cti].Alias, nodes[cti].parentAlias(), n.Alias, g.Field)
				}
				child := newNode(cti)
				child.Parent = n
				child.LinkField = p.columns[id].Field
				child.ParentField = g.Field
				child.linkCol = child.Table.GetColumnByName(child.LinkField)
				g.Children = append(g.Children, child)
				queue = append(queue, cti)
			}
			n.Groups = append(n.Groups, g)
		}
	}

	plan := &Plan{Query: q, Root: root, Kinds: kinds}
	for ti, ref := range q.Tables {
		switch {
		case p.elided[ti]:
			plan.Elided = append(plan.Elided, ref.Alias)
		case nodes[ti] == nil:
			return nil, configErrorf(ref.Table, "", "table %s is not connected to driver %s", ref.Alias, root.Alias)
		}
	}
	p.finish(plan, root)
	for i, n := range plan.Nodes {
		n.ID = i
	}
	return plan, nil
}

func (n *PlanNode) parentAlias() string {
	if n.Parent == nil {
		return "the driver"
	}
	return n.Parent.Alias
}

// classes groups join column ids by union-find root; members ascend.
func (p *planner) classes() map[int][]int {
	classes := make(map[int][]int)
	for id := range p.columns {
		root := p.find(id)
		classes[root] = append(classes[root], id)
	}
	return classes
}

func sortedClassRoots(m map[int]string) []int {
	roots := make([]int, 0, len(m))
	for r := range m {
		roots = append(roots, r)
	}
	sort.Ints(roots)
	return roots
}

// elide removes tables that only confirm a foreign key: no filter, no
// output, joined solely through their primary key to a class holding a
// column declared as a foreign key to them. The referencing columns keep
// their NOT NULL requirement through joinCols.
func (p *planner) elide(classes map[int][]int) {
	q := p.q
	for ti, ref := range q.Tables {
		t := p.tables[ti]
		if ref.Filter != nil || len(p.outputs[ti]) > 0 || ref.Alias == q.Driver {
			continue
		}
		if len(p.joinCols[ti]) != 1 || t.PrimaryKey == "" {
			continue
		}
		pk := p.joinCols[ti][0]
		if p.columns[pk].Field != t.PrimaryKey {
			continue
		}
		for _, id := range classes[p.find(pk)] {
			c := p.columns[id]
			oi := q.TableIndex(c.Alias)
			if oi == ti || p.elided[oi] {
				continue
			}
			if p.tables[oi].ForeignKeys[c.Field] == ref.Table {
				p.elided[ti] = true
				break
			}
		}
	}
}

// chooseDriver returns the pinned driver, or else the table linked
// through the most classes, then the larger table, then the first
// declared.
func (p *planner) chooseDriver(live []map[int]string) (int, error) {
	if p.q.Driver != "" {
		return p.q.TableIndex(p.q.Driver), nil
	}
	best := -1
	for ti := range p.q.Tables {
		if p.elided[ti] {
			continue
		}
		if best < 0 {
			best = ti
			continue
		}
		switch {
		case len(live[ti]) > len(live[best]):
			best = ti
		case len(live[ti]) == len(live[best]) && p.tables[ti].RowCount > p.tables[best].RowCount:
			best = ti
		}
	}
	if best < 0 {
		return 0, configErrorf("", "", "query %s has no table left to drive", p.q.Name)
	}
	return best, nil
}

// finish fills Layout, Kind and the children-first node order.
func (p *planner) finish(plan *Plan, n *PlanNode) {
	n.Layout = append([]int(nil), n.Outputs...)
	for _, child := range n.Children() {
		p.finish(plan, child)
		n.Layout = append(n.Layout, child.Layout...)
	}
	switch {
	case n.Parent == nil:
		n.Kind = IndexNone
	case len(n.Layout) == 0:
		n.Kind = IndexSet
	case p.opts.FoldMinimum:
		n.Kind = IndexMin
	default:
		n.Kind = IndexList
	}
	plan.Nodes = append(plan.Nodes, n)
}

// String renders the join tree, one table per line.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query %s\n", p.Query.Name)
	p.writeNode(&b, p.Root, 0)
	if len(p.Elided) > 0 {
		fmt.Fprintf(&b, "elided: %s\n", strings.Join(p.Elided, ", "))
	}
	return b.String()
}

func (p *Plan) writeNode(b *strings.Builder, n *PlanNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.Parent == nil {
		fmt.Fprintf(b, "drive %s (%s) rows=%d", n.Alias, n.TableName, n.Table.RowCount)
	} else {
		fmt.Fprintf(b, "%s (%s) on %s.%s = %s.%s [%s] rows=%d",
			n.Alias, n.TableName, n.Alias, n.LinkField, n.Parent.Alias, n.ParentField, n.Kind, n.Table.RowCount)
	}
	if n.FilterText != "" {
		fmt.Fprintf(b, " where %s", n.FilterText)
	}
	if len(n.Outputs) > 0 {
		names := make([]string, len(n.Outputs))
		for i, oi := range n.Outputs {
			names[i] = "min(" + p.Query.Outputs[oi].Column.String() + ")"
		}
		fmt.Fprintf(b, " -> %s", strings.Join(names, ", "))
	}
	b.WriteByte('\n')
	for _, child := range n.Children() {
		p.writeNode(b, child, depth+1)
	}
}
