package vectorized

import (
	"cmp"
	"strconv"
	"strings"
)

// Value is a nullable scalar taken from, or compared against, a column.
type Value struct {
	Kind DataType
	Null bool
	Int  int64
	Str  string
}

// Int returns a non-null INT64 value
func Int(v int64) Value {
	return Value{Kind: INT64, Int: v}
}

// Str returns a non-null STRING value
func Str(s string) Value {
	return Value{Kind: STRING, Str: s}
}

// Null returns a NULL of the given kind
func Null(kind DataType) Value {
	return Value{Kind: kind, Null: true}
}

// Compare orders two non-null values of the same kind: integers
// numerically, strings byte-wise.
func (v Value) Compare(o Value) int {
	if v.Kind == INT64 {
		return cmp.Compare(v.Int, o.Int)
	}
	return strings.Compare(v.Str, o.Str)
}

// Less reports whether v sorts before o. A NULL never sorts before
// anything and every non-null sorts before a NULL.
func (v Value) Less(o Value) bool {
	switch {
	case v.Null:
		return false
	case o.Null:
		return true
	default:
		return v.Compare(o) < 0
	}
}

// Equal reports whether both values are identical, NULLs included.
func (v Value) Equal(o Value) bool {
	if v.Null || o.Null {
		return v.Null == o.Null && v.Kind == o.Kind
	}
	return v.Kind == o.Kind && v.Compare(o) == 0
}

func (v Value) String() string {
	switch {
	case v.Null:
		return "NULL"
	case v.Kind == INT64:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

// ValueOf converts a Go literal to a Value. It accepts Value, string and
// the Go integer types.
func ValueOf(literal interface{}) (Value, bool) {
	switch x := literal.(type) {
	case Value:
		return x, true
	case string:
		return Str(x), true
	}
	if n, ok := toInt64(literal); ok {
		return Int(n), true
	}
	return Value{}, false
}
