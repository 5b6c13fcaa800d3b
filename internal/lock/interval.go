package lock

import "sort"

// Interval is a half-open byte range [Start, Start+Length).
type Interval struct {
	Start  int64
	Length int64
}

// End returns the exclusive end of the interval.
func (iv Interval) End() int64 { return iv.Start + iv.Length }

// Overlaps reports whether iv and other share any byte.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End() && other.Start < iv.End()
}

// SortIntervals returns a copy of ivs sorted ascending by start offset,
// the acquisition order §4.3 requires to avoid deadlock between
// transactions that touch overlapping ranges.
func SortIntervals(ivs []Interval) []Interval {
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted
}

// MergeOverlapping coalesces overlapping or touching intervals into
// their span. A single transaction's own operations commonly touch
// the same bytes more than once (a read followed by a write at the
// same offset, per spec scenario S6) — without merging, locking both
// would deadlock against itself in Table.
func MergeOverlapping(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := SortIntervals(ivs)
	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End() {
			if iv.End() > last.End() {
				last.Length = iv.End() - last.Start
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
