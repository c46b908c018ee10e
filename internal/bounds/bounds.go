// Package bounds tracks the time envelope spanned by a set of trace events.
package bounds

import (
	"github.com/mrzor/trace-model/internal/traceevent"
)

// Bounds accumulates the minimum start and maximum end seen so far.
// The zero value is empty and ready to use. Bounds only ever widen.
type Bounds struct {
	min, max float64
	nonEmpty bool
}

// IsEmpty reports whether nothing has been added yet.
func (b *Bounds) IsEmpty() bool {
	return !b.nonEmpty
}

// Min returns the smallest value seen. Zero while empty.
func (b *Bounds) Min() float64 {
	return b.min
}

// Max returns the largest value seen. Zero while empty.
func (b *Bounds) Max() float64 {
	return b.max
}

// Range returns Max - Min, or zero while empty.
func (b *Bounds) Range() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.max - b.min
}

// AddValue widens the bounds to include v.
func (b *Bounds) AddValue(v float64) {
	if b.IsEmpty() {
		b.min, b.max = v, v
		b.nonEmpty = true
		return
	}
	if v < b.min {
		b.min = v
	}
	if v > b.max {
		b.max = v
	}
}

// AddRange widens the bounds to include [lo, hi].
func (b *Bounds) AddRange(lo, hi float64) {
	b.AddValue(lo)
	b.AddValue(hi)
}

// AddBounds widens b to include other. Empty bounds are ignored.
func (b *Bounds) AddBounds(other *Bounds) {
	if other == nil || other.IsEmpty() {
		return
	}
	b.AddRange(other.min, other.max)
}

// AddEvent widens the bounds to cover the event's [ts, ts+dur] interval.
func (b *Bounds) AddEvent(ev *traceevent.Event) {
	b.AddRange(ev.Ts, ev.End())
}

// Contains reports whether v lies within the bounds.
func (b *Bounds) Contains(v float64) bool {
	return !b.IsEmpty() && v >= b.min && v <= b.max
}
