package store

import "sort"

// SortNewestFirst returns a copy of snap ordered by CreatedAt descending.
// Entries without a store timestamp go last. Ties keep no meaningful order.
func SortNewestFirst(snap Snapshot) Snapshot {
	sorted := make(Snapshot, len(snap))
	copy(sorted, snap)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].CreatedAt, sorted[j].CreatedAt
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
	return sorted
}
