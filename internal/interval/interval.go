// Package interval provides half-open time interval arithmetic.
//
// All intervals are [Start, End): the start instant is included, the end
// instant is not. Every higher layer of the availability engine (shift
// expansion, exclusion merging, slot generation) is built on these three
// operations, which are pure functions over value types.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the interval is the zero value.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// IsValid reports whether the interval has positive length.
func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Intersects reports whether two half-open intervals overlap.
// Adjacent intervals (a.End == b.Start) do not intersect.
func Intersects(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Clip returns the portion of iv inside bound, or a zero interval when the
// two do not overlap.
func Clip(iv, bound Interval) Interval {
	start := iv.Start
	if start.Before(bound.Start) {
		start = bound.Start
	}
	end := iv.End
	if end.After(bound.End) {
		end = bound.End
	}
	if !end.After(start) {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}

// Merge sorts the given intervals by start and coalesces overlapping or
// adjacent ones, returning a minimal ordered disjoint set. Zero-length and
// inverted intervals are discarded. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsValid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		// Adjacent intervals coalesce too: [a,b) + [b,c) = [a,c).
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract returns the ordered sub-intervals of base not covered by any
// interval in excluded. The result is disjoint, ordered, and each element is
// fully contained in base.
func Subtract(base Interval, excluded []Interval) []Interval {
	if !base.IsValid() {
		return nil
	}

	var free []Interval
	cursor := base.Start
	for _, ex := range Merge(excluded) {
		if !ex.End.After(base.Start) {
			continue
		}
		if !ex.Start.Before(base.End) {
			break
		}
		if ex.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: ex.Start})
		}
		if ex.End.After(cursor) {
			cursor = ex.End
		}
	}
	if cursor.Before(base.End) {
		free = append(free, Interval{Start: cursor, End: base.End})
	}
	return free
}
