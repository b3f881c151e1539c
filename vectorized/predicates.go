package vectorized

import (
	"cmp"
	"fmt"
	"strings"
)

// Tri is the result of evaluating a predicate under SQL three-valued
// logic. A row is selected only when its predicate is True.
type Tri uint8

const (
	False Tri = iota
	True
	Unknown
)

func triOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

// And combines two truth values; False dominates Unknown.
func (a Tri) And(b Tri) Tri {
	switch {
	case a == False || b == False:
		return False
	case a == Unknown || b == Unknown:
		return Unknown
	default:
		return True
	}
}

// Or combines two truth values; True dominates Unknown.
func (a Tri) Or(b Tri) Tri {
	switch {
	case a == True || b == True:
		return True
	case a == Unknown || b == Unknown:
		return Unknown
	default:
		return False
	}
}

// Not negates a truth value. NOT Unknown stays Unknown.
func (a Tri) Not() Tri {
	switch a {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func (a Tri) String() string {
	switch a {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// Predicate is a boolean condition over the rows of a single table.
type Predicate interface {
	// Bind resolves field names against t and type-checks literals.
	Bind(t *Table) (BoundPredicate, error)
	String() string
}

// BoundPredicate is a predicate resolved against one table.
type BoundPredicate interface {
	Eval(row int) Tri
}

// FilterOperator defines the types of filter operations
type FilterOperator int

const (
	EQ          FilterOperator = iota // Equal
	NE                                // Not Equal
	LT                                // Less Than
	LE                                // Less Than or Equal
	GT                                // Greater Than
	GE                                // Greater Than or Equal
	BETWEEN                           // Closed range
	IN                                // In list
	NOT_IN                            // Not in list
	LIKE                              // String pattern matching
	NOT_LIKE                          // Negated pattern matching
	CONTAINS                          // Substring
	PREFIX                            // Starts with
	SUFFIX                            // Ends with
	IS_NULL                           // Is null check
	IS_NOT_NULL                       // Is not null check
)

var operatorNames = map[FilterOperator]string{
	EQ: "=", NE: "<>", LT: "<", LE: "<=", GT: ">", GE: ">=",
	BETWEEN: "BETWEEN", IN: "IN", NOT_IN: "NOT IN",
	LIKE: "LIKE", NOT_LIKE: "NOT LIKE",
	CONTAINS: "CONTAINS", PREFIX: "STARTS WITH", SUFFIX: "ENDS WITH",
	IS_NULL: "IS NULL", IS_NOT_NULL: "IS NOT NULL",
}

func (op FilterOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("FilterOperator(%d)", int(op))
}

func (op FilterOperator) holds(c int) bool {
	switch op {
	case EQ:
		return c == 0
	case NE:
		return c != 0
	case LT:
		return c < 0
	case LE:
		return c <= 0
	case GT:
		return c > 0
	case GE:
		return c >= 0
	}
	return false
}

// ColumnFilter is a condition on a single column
type ColumnFilter struct {
	Column   string
	Operator FilterOperator
	Value    interface{}   // comparison literal or pattern
	Values   []interface{} // IN lists, BETWEEN bounds
}

// Eq matches rows where column = value
func Eq(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: EQ, Value: value}
}

// Ne matches rows where column <> value
func Ne(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: NE, Value: value}
}

// Lt matches rows where column < value
func Lt(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: LT, Value: value}
}

// Le matches rows where column <= value
func Le(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: LE, Value: value}
}

// Gt matches rows where column > value
func Gt(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: GT, Value: value}
}

// Ge matches rows where column >= value
func Ge(column string, value interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: GE, Value: value}
}

// Between matches rows where lo <= column <= hi
func Between(column string, lo, hi interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: BETWEEN, Values: []interface{}{lo, hi}}
}

// In matches rows whose column value is one of values
func In(column string, values ...interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: IN, Values: values}
}

// NotIn matches rows whose non-null column value is none of values
func NotIn(column string, values ...interface{}) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: NOT_IN, Values: values}
}

// Like matches a SQL LIKE pattern (% and _ wildcards, no escapes)
func Like(column, pattern string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: LIKE, Value: pattern}
}

// NotLike is the negation of Like. NULL stays excluded.
func NotLike(column, pattern string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: NOT_LIKE, Value: pattern}
}

// Contains matches rows whose column contains s
func Contains(column, s string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: CONTAINS, Value: s}
}

// HasPrefix matches rows whose column starts with s
func HasPrefix(column, s string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: PREFIX, Value: s}
}

// HasSuffix matches rows whose column ends with s
func HasSuffix(column, s string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: SUFFIX, Value: s}
}

// IsNull matches rows where column is NULL
func IsNull(column string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: IS_NULL}
}

// IsNotNull matches rows where column is not NULL
func IsNotNull(column string) *ColumnFilter {
	return &ColumnFilter{Column: column, Operator: IS_NOT_NULL}
}

func (f *ColumnFilter) String() string {
	switch f.Operator {
	case IS_NULL, IS_NOT_NULL:
		return fmt.Sprintf("%s %s", f.Column, f.Operator)
	case BETWEEN:
		if len(f.Values) != 2 {
			return fmt.Sprintf("%s BETWEEN %v", f.Column, f.Values)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", f.Column, quote(f.Values[0]), quote(f.Values[1]))
	case IN, NOT_IN:
		parts := make([]string, len(f.Values))
		for i, v := range f.Values {
			parts[i] = quote(v)
		}
		return fmt.Sprintf("%s %s (%s)", f.Column, f.Operator, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %s", f.Column, f.Operator, quote(f.Value))
	}
}

func quote(literal interface{}) string {
	if v, ok := ValueOf(literal); ok && v.Kind == STRING && !v.Null {
		return "'" + v.Str + "'"
	}
	return fmt.Sprint(literal)
}

// Bind resolves the column and checks every literal against its type.
func (f *ColumnFilter) Bind(t *Table) (BoundPredicate, error) {
	col := t.GetColumnByName(f.Column)
	if col == nil {
		return nil, NewConfigError(t.Name, f.Column, "field does not exist")
	}

	switch f.Operator {
	case IS_NULL, IS_NOT_NULL:
		return &boundNullCheck{col: col, isNull: f.Operator == IS_NULL}, nil

	case LIKE, NOT_LIKE, CONTAINS, PREFIX, SUFFIX:
		if col.DataType != STRING {
			return nil, NewConfigError(t.Name, f.Column, fmt.Sprintf("%s requires a STRING field, got %s", f.Operator, col.DataType))
		}
		pattern, ok := f.Value.(string)
		if !ok {
			return nil, NewConfigError(t.Name, f.Column, fmt.Sprintf("%s pattern must be a string, got %T", f.Operator, f.Value))
		}
		var match func(string) bool
		switch f.Operator {
		case CONTAINS:
			match = func(s string) bool { return strings.Contains(s, pattern) }
		case PREFIX:
			match = func(s string) bool { return strings.HasPrefix(s, pattern) }
		case SUFFIX:
			match = func(s string) bool { return strings.HasSuffix(s, pattern) }
		default:
			match = compileLike(pattern)
		}
		return &boundMatch{col: col, match: match, negate: f.Operator == NOT_LIKE}, nil

	case IN, NOT_IN:
		set := &boundIn{col: col, negate: f.Operator == NOT_IN}
		if col.DataType == INT64 {
			set.ints = make(map[int64]struct{}, len(f.Values))
		} else {
			set.strs = make(map[string]struct{}, len(f.Values))
		}
		for _, literal := range f.Values {
			v, err := f.literal(t, col, literal)
			if err != nil {
				return nil, err
			}
			if col.DataType == INT64 {
				set.ints[v.Int] = struct{}{}
			} else {
				set.strs[v.Str] = struct{}{}
			}
		}
		return set, nil

	case BETWEEN:
		if len(f.Values) != 2 {
			return nil, NewConfigError(t.Name, f.Column, "BETWEEN needs exactly two bounds")
		}
		lo, err := f.literal(t, col, f.Values[0])
		if err != nil {
			return nil, err
		}
		hi, err := f.literal(t, col, f.Values[1])
		if err != nil {
			return nil, err
		}
		return &boundBetween{col: col, lo: lo, hi: hi}, nil

	case EQ, NE, LT, LE, GT, GE:
		v, err := f.literal(t, col, f.Value)
		if err != nil {
			return nil, err
		}
		return &boundCompare{col: col, op: f.Operator, value: v}, nil
	}
	return nil, NewConfigError(t.Name, f.Column, fmt.Sprintf("unsupported operator %s", f.Operator))
}

func (f *ColumnFilter) literal(t *Table, col *Vector, literal interface{}) (Value, error) {
	v, ok := ValueOf(literal)
	if !ok {
		return Value{}, NewConfigError(t.Name, f.Column, fmt.Sprintf("unsupported literal %T", literal))
	}
	if v.Null {
		return Value{}, NewConfigError(t.Name, f.Column, "NULL literal in comparison; use IsNull/IsNotNull")
	}
	if v.Kind != col.DataType {
		return Value{}, NewConfigError(t.Name, f.Column, fmt.Sprintf("literal %s is %s, field is %s", quote(literal), v.Kind, col.DataType))
	}
	return v, nil
}

type boundCompare struct {
	col   *Vector
	op    FilterOperator
	value Value
}

func (p *boundCompare) Eval(row int) Tri {
	if p.col.IsNull(row) {
		return Unknown
	}
	var c int
	if p.col.DataType == INT64 {
		c = cmp.Compare(p.col.Int64s[row], p.value.Int)
	} else {
		c = strings.Compare(p.col.Strings[row], p.value.Str)
	}
	return triOf(p.op.holds(c))
}

type boundBetween struct {
	col    *Vector
	lo, hi Value
}

func (p *boundBetween) Eval(row int) Tri {
	if p.col.IsNull(row) {
		return Unknown
	}
	v := p.col.Value(row)
	return triOf(v.Compare(p.lo) >= 0 && v.Compare(p.hi) <= 0)
}

type boundIn struct {
	col    *Vector
	ints   map[int64]struct{}
	strs   map[string]struct{}
	negate bool
}

func (p *boundIn) Eval(row int) Tri {
	if p.col.IsNull(row) {
		return Unknown
	}
	var found bool
	if p.ints != nil {
		_, found = p.ints[p.col.Int64s[row]]
	} else {
		_, found = p.strs[p.col.Strings[row]]
	}
	return triOf(found != p.negate)
}

type boundMatch struct {
	col    *Vector
	match  func(string) bool
	negate bool
}

func (p *boundMatch) Eval(row int) Tri {
	if p.col.IsNull(row) {
		return Unknown
	}
	return triOf(p.match(p.col.Strings[row]) != p.negate)
}

type boundNullCheck struct {
	col    *Vector
	isNull bool
}

func (p *boundNullCheck) Eval(row int) Tri {
	return triOf(p.col.IsNull(row) == p.isNull)
}

// AndPredicate is the conjunction of its children. An empty conjunction
// is TRUE.
type AndPredicate struct {
	Children []Predicate
}

// OrPredicate is the disjunction of its children. An empty disjunction
// is FALSE.
type OrPredicate struct {
	Children []Predicate
}

// NotPredicate negates its child.
type NotPredicate struct {
	Child Predicate
}

// And returns the conjunction of ps, skipping nil entries.
func And(ps ...Predicate) Predicate {
	return &AndPredicate{Children: compact(ps)}
}

// Or returns the disjunction of ps, skipping nil entries.
func Or(ps ...Predicate) Predicate {
	return &OrPredicate{Children: compact(ps)}
}

// Not negates p
func Not(p Predicate) Predicate {
	return &NotPredicate{Child: p}
}

func compact(ps []Predicate) []Predicate {
	out := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func bindAll(t *Table, ps []Predicate) ([]BoundPredicate, error) {
	bound := make([]BoundPredicate, len(ps))
	for i, p := range ps {
		b, err := p.Bind(t)
		if err != nil {
			return nil, err
		}
		bound[i] = b
	}
	return bound, nil
}

func joinPredicates(ps []Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (p *AndPredicate) Bind(t *Table) (BoundPredicate, error) {
	children, err := bindAll(t, p.Children)
	if err != nil {
		return nil, err
	}
	return boundAnd(children), nil
}

func (p *AndPredicate) String() string { return joinPredicates(p.Children, " AND ") }

func (p *OrPredicate) Bind(t *Table) (BoundPredicate, error) {
	children, err := bindAll(t, p.Children)
	if err != nil {
		return nil, err
	}
	return boundOr(children), nil
}

func (p *OrPredicate) String() string { return joinPredicates(p.Children, " OR ") }

func (p *NotPredicate) Bind(t *Table) (BoundPredicate, error) {
	if p.Child == nil {
		return nil, NewConfigError(t.Name, "", "NOT without operand")
	}
	child, err := p.Child.Bind(t)
	if err != nil {
		return nil, err
	}
	return boundNot{child}, nil
}

func (p *NotPredicate) String() string {
	if p.Child == nil {
		return "NOT <nil>"
	}
	return "NOT " + p.Child.String()
}

type boundAnd []BoundPredicate

func (ps boundAnd) Eval(row int) Tri {
	result := True
	for _, p := range ps {
		result = result.And(p.Eval(row))
		if result == False {
			return False
		}
	}
	return result
}

type boundOr []BoundPredicate

func (ps boundOr) Eval(row int) Tri {
	result := False
	for _, p := range ps {
		result = result.Or(p.Eval(row))
		if result == True {
			return True
		}
	}
	return result
}

type boundNot struct {
	child BoundPredicate
}

func (p boundNot) Eval(row int) Tri {
	return p.child.Eval(row).Not()
}
