package core

import (
	"jobbench/vectorized"
)

// MinAccumulator holds the running minimum of one output column. It
// starts empty, takes the first non-null value offered and afterwards
// only moves to strictly smaller values. NULLs are ignored as SQL MIN
// ignores them.
type MinAccumulator struct {
	value vectorized.Value
	set   bool
}

// Offer considers v and reports whether it became the new minimum.
func (a *MinAccumulator) Offer(v vectorized.Value) bool {
	if v.Null {
		return false
	}
	if !a.set || v.Less(a.value) {
		a.value = v
		a.set = true
		return true
	}
	return false
}

// Value returns the minimum so far, if any.
func (a *MinAccumulator) Value() (vectorized.Value, bool) {
	return a.value, a.set
}

// Tracker aggregates independent minimums across every join combination
// offered to it. Coordinates of one candidate need not come from the
// same row.
type Tracker struct {
	accs    []MinAccumulator
	matched bool
	updates int64
}

// NewTracker creates a tracker for outputs of the given kinds
func NewTracker(kinds ...vectorized.DataType) *Tracker {
	return &Tracker{accs: make([]MinAccumulator, len(kinds))}
}

// Update offers one candidate vector, one value per output.
func (t *Tracker) Update(candidate []vectorized.Value) {
	t.matched = true
	t.updates++
	for i := range t.accs {
		t.accs[i].Offer(candidate[i])
	}
}

// Matched reports whether any combination was offered.
func (t *Tracker) Matched() bool { return t.matched }

// Updates is the number of candidate vectors offered.
func (t *Tracker) Updates() int64 { return t.updates }

// Result returns the minimum tuple. It reports false when nothing
// matched or when some output saw only NULLs; a result is never partial.
func (t *Tracker) Result() (Tuple, bool) {
	if !t.matched {
		return nil, false
	}
	out := make(Tuple, len(t.accs))
	for i := range t.accs {
		v, ok := t.accs[i].Value()
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
