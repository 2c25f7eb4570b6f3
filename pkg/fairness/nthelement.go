package fairness

// NthElement partially sorts s in place so that s[k] holds the value that
// would occupy position k in a fully sorted copy of s, every element
// before k compares less-than-or-equal to s[k], and every element after
// it compares greater-than-or-equal. It does this without fully sorting
// s, using a quickselect derived from Hoare's partitioning scheme.
//
// The upstream allocator calls this because it only ever needs one
// partition boundary, not a total order, and partial sorting is
// noticeably cheaper than a full sort for large demand sets.
func NthElement(s []int64, k int) {
	nthElement(s, 0, len(s)-1, k, func(a, b int64) bool { return a < b })
}

func nthElement(s []int64, lo, hi, k int, less func(a, b int64) bool) {
	for lo < hi {
		p := partition(s, lo, hi, less)
		if k <= p {
			hi = p
		} else {
			lo = p + 1
		}
	}
}

// partition is a Hoare partition using the middle element as pivot,
// returning an index p such that every element in [lo, p] compares
// less-than-or-equal to every element in [p+1, hi].
func partition(s []int64, lo, hi int, less func(a, b int64) bool) int {
	pivot := s[lo+(hi-lo)/2]
	i, j := lo-1, hi+1
	for {
		for {
			i++
			if !less(s[i], pivot) {
				break
			}
		}
		for {
			j--
			if !less(pivot, s[j]) {
				break
			}
		}
		if i >= j {
			return j
		}
		s[i], s[j] = s[j], s[i]
	}
}

// ValCount pairs a demand value with the (possibly fractional) number of
// flows expected to ask for it, used by the distributional waterlevel
// allocator.
type ValCount struct {
	Val           float64
	ExpectedCount float64
}

// NthElementValCount is NthElement's analogue for ValCount slices,
// ordered by Val.
func NthElementValCount(s []ValCount, k int) {
	nthElementVC(s, 0, len(s)-1, k)
}

func nthElementVC(s []ValCount, lo, hi, k int) {
	for lo < hi {
		p := partitionVC(s, lo, hi)
		if k <= p {
			hi = p
		} else {
			lo = p + 1
		}
	}
}

func partitionVC(s []ValCount, lo, hi int) int {
	pivot := s[lo+(hi-lo)/2].Val
	i, j := lo-1, hi+1
	for {
		for {
			i++
			if s[i].Val >= pivot {
				break
			}
		}
		for {
			j--
			if s[j].Val <= pivot {
				break
			}
		}
		if i >= j {
			return j
		}
		s[i], s[j] = s[j], s[i]
	}
}
