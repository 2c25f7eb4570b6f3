package downgrade

import "sort"

// sortByDecreasingDemand returns child indices [0, n) ordered by
// decreasing demand, breaking ties by decreasing index (so the ordering
// is stable and deterministic regardless of input order).
func sortByDecreasingDemand(n int, demandOf func(int) int64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		lhs, rhs := idx[a], idx[b]
		dl, dr := demandOf(lhs), demandOf(rhs)
		if dl == dr {
			return lhs > rhs
		}
		return dl > dr
	})
	return idx
}
