package caption

import "sort"

// Assemble merges per-window segment lists (already absolute-timed)
// into one transcript ordered by start time. The stable sort restores
// deterministic global ordering regardless of which window finished
// first. Adjacent segments are trusted but not guaranteed disjoint;
// formatters tolerate marginal overlap.
func Assemble(lists ...[]Segment) Transcript {
	var all Transcript
	for _, list := range lists {
		all = append(all, list...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	return all
}
