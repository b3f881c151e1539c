package core

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"jobbench/vectorized"
)

// encodeKey maps int64 onto uint64 preserving order, so negative keys
// sort before positive ones inside roaring64 bitmaps.
func encodeKey(k int64) uint64 {
	return uint64(k) ^ (1 << 63)
}

func decodeKey(u uint64) int64 {
	return int64(u ^ (1 << 63))
}

// Index is a hash structure over one join column of a filtered table.
type Index interface {
	// Keys returns the distinct join keys present; callers must not modify it.
	Keys() *roaring64.Bitmap
	Contains(key int64) bool
	// Len is the number of distinct keys.
	Len() int
}

// KeySet records which join keys exist. It is built for tables whose
// subtree contributes no output column.
type KeySet struct {
	keys *roaring64.Bitmap
}

// NewKeySet creates an empty key set
func NewKeySet() *KeySet {
	return &KeySet{keys: roaring64.New()}
}

// Add inserts key
func (s *KeySet) Add(key int64) {
	s.keys.Add(encodeKey(key))
}

func (s *KeySet) Contains(key int64) bool { return s.keys.Contains(encodeKey(key)) }
func (s *KeySet) Keys() *roaring64.Bitmap { return s.keys }
func (s *KeySet) Len() int                { return int(s.keys.GetCardinality()) }

// MinIndex maps a join key to one minimum per output column, folding
// rows with the same key as they are added. Positions that only ever
// saw NULL stay NULL.
type MinIndex struct {
	keys  *roaring64.Bitmap
	width int
	mins  map[int64][]vectorized.Value
}

// NewMinIndex creates an index whose entries hold width values
func NewMinIndex(width int) *MinIndex {
	return &MinIndex{
		keys:  roaring64.New(),
		width: width,
		mins:  make(map[int64][]vectorized.Value),
	}
}

// Add folds values into the entry for key. values is copied.
func (m *MinIndex) Add(key int64, values []vectorized.Value) {
	cur, ok := m.mins[key]
	if !ok {
		m.mins[key] = append(make([]vectorized.Value, 0, m.width), values...)
		m.keys.Add(encodeKey(key))
		return
	}
	foldMin(cur, values)
}

// Get returns the minimum vector for key. The slice is owned by the index.
func (m *MinIndex) Get(key int64) ([]vectorized.Value, bool) {
	v, ok := m.mins[key]
	return v, ok
}

// Width is the number of values per entry
func (m *MinIndex) Width() int { return m.width }

func (m *MinIndex) Contains(key int64) bool { _, ok := m.mins[key]; return ok }
func (m *MinIndex) Keys() *roaring64.Bitmap { return m.keys }
func (m *MinIndex) Len() int                { return len(m.mins) }

// foldMin lowers every position of dst that src beats.
func foldMin(dst, src []vectorized.Value) {
	for i := range dst {
		if src[i].Less(dst[i]) {
			dst[i] = src[i]
		}
	}
}

// ListEntry is one admitted row of a ListIndex: the row's own output
// values and the key it probes each child group with.
type ListEntry struct {
	Values []vectorized.Value
	Probes []int64
}

// ListIndex maps a join key to every admitted row carrying it, for
// one-to-many fan-out.
type ListIndex struct {
	keys    *roaring64.Bitmap
	entries map[int64][]ListEntry
	count   int
}

// NewListIndex creates an empty list index
func NewListIndex() *ListIndex {
	return &ListIndex{
		keys:    roaring64.New(),
		entries: make(map[int64][]ListEntry),
	}
}

// Add appends entry under key
func (l *ListIndex) Add(key int64, entry ListEntry) {
	list, ok := l.entries[key]
	if !ok {
		l.keys.Add(encodeKey(key))
	}
	l.entries[key] = append(list, entry)
	l.count++
}

// Get returns the entries stored under key
func (l *ListIndex) Get(key int64) []ListEntry {
	return l.entries[key]
}

// Entries is the total number of stored entries
func (l *ListIndex) Entries() int { return l.count }

func (l *ListIndex) Contains(key int64) bool { _, ok := l.entries[key]; return ok }
func (l *ListIndex) Keys() *roaring64.Bitmap { return l.keys }
func (l *ListIndex) Len() int                { return len(l.entries) }
