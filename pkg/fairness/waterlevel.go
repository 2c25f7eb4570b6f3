// Package fairness computes max-min fair waterlevels: the highest
// per-flow allocation such that no flow gets more than it asked for and
// the shared capacity is fully (or as close as possible) handed out.
package fairness

// SolveMethod selects how Problem.ComputeWaterlevel searches for the
// waterlevel once demands have been filtered for the tiny-flow fast path.
type SolveMethod int

const (
	// SolveFullSort sorts every remaining demand before sweeping the
	// waterlevel up. Simpler, used mainly for testing/comparison.
	SolveFullSort SolveMethod = iota
	// SolvePartialSort finds the waterlevel via repeated binary
	// partitioning (NthElement) instead of a full sort.
	SolvePartialSort
)

// Options configures a Problem.
type Options struct {
	SolveMethod SolveMethod
	// EnableTinyFlowOpt lets ComputeWaterlevel short-circuit demands no
	// larger than capacity/len(demands): such a demand is always fully
	// satisfiable, so it's pulled out of the sort/partition entirely.
	EnableTinyFlowOpt bool
}

// Problem computes a max-min fair allocation of one shared capacity
// across a set of demands: the rate each flow would be limited to such
// that flows asking for less than that rate get their full demand, and
// the rest are capped equally.
type Problem struct {
	opts Options
}

// NewProblem returns a Problem configured by opts.
func NewProblem(opts Options) *Problem {
	return &Problem{opts: opts}
}

// ComputeWaterlevel returns the max-min fair waterlevel for capacity
// split across demands. capacity must be non-negative.
func (p *Problem) ComputeWaterlevel(capacity int64, demands []int64) int64 {
	numDemands := int64(len(demands))

	tinyDemandThresh := capacity / max64(numDemands, 1)
	if !p.opts.EnableTinyFlowOpt {
		tinyDemandThresh = -1
	}

	sorted := make([]int64, len(demands))
	numUnfiltered := 0
	var waterlevel int64
	for _, d := range demands {
		if d <= tinyDemandThresh {
			capacity -= d
			if d > waterlevel {
				waterlevel = d
			}
		} else {
			sorted[numUnfiltered] = d
			numUnfiltered++
		}
	}
	sorted = sorted[:numUnfiltered]
	capacityWithoutTiny := capacity
	capacity -= waterlevel * int64(numUnfiltered)

	switch p.opts.SolveMethod {
	case SolvePartialSort:
		return solvePartialSort(capacityWithoutTiny, capacity, waterlevel, sorted)
	default:
		return solveFullSort(capacity, waterlevel, sorted)
	}
}

// SetAllocations returns, for each demand, min(waterlevel, demand) — the
// amount actually allocated to it.
func SetAllocations(waterlevel int64, demands []int64) []int64 {
	allocations := make([]int64, len(demands))
	for i, d := range demands {
		if waterlevel < d {
			allocations[i] = waterlevel
		} else {
			allocations[i] = d
		}
	}
	return allocations
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// solveFullSort fully sorts the unfiltered demands then sweeps the
// waterlevel up one demand at a time, dividing whatever capacity is left
// evenly across the unsatisfied remainder once it runs out.
func solveFullSort(capacity, waterlevel int64, sortedDemands []int64) int64 {
	sortInt64s(sortedDemands)

	next := 0
	for next < len(sortedDemands) {
		nextDemand := sortedDemands[next]

		delta := nextDemand - waterlevel
		numUnsatisfied := int64(len(sortedDemands) - next)

		ask := delta * numUnsatisfied
		if ask <= capacity {
			waterlevel += delta
			capacity -= ask
			next++
		} else {
			waterlevel += capacity / numUnsatisfied
			break
		}
	}

	return waterlevel
}

func sortInt64s(s []int64) {
	// insertion sort is fine here: solveFullSort already only runs over the
	// (typically small) slice left after the tiny-flow filter in the
	// kFullSort path, which exists for testing/comparison against
	// solvePartialSort rather than for the hot path.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// solvePartialSort finds the same waterlevel as solveFullSort without a
// full sort: it repeatedly partitions the area of interest [lower,
// upper] around its midpoint via NthElement, and uses the partition's
// sum-of-demands to decide whether the whole lower half is satisfiable
// (in which case the waterlevel moves past it and the search continues
// in the upper half) or not (in which case the search continues in the
// lower half only, since the upper half's demands are all at least as
// large and therefore no easier to satisfy).
func solvePartialSort(originalCapacity, capacity, waterlevel int64, sortedDemands []int64) int64 {
	if len(sortedDemands) == 0 {
		return waterlevel
	}

	residualCapacity := capacity
	lower, upper := 0, len(sortedDemands)-1

	for upper >= lower {
		partitionIdx := lower + (upper-lower)/2
		NthElement(sortedDemands[lower:upper+1], partitionIdx-lower)
		// NthElement operates on the sub-slice; translate back isn't
		// needed since the slice aliases the backing array in place.

		var maxDemandA, ask int64
		for i := lower; i <= partitionIdx; i++ {
			d := sortedDemands[i]
			ask += d - waterlevel
			maxDemandA = d // sortedDemands[partitionIdx] has the greatest demand in A
		}
		ask += (maxDemandA - waterlevel) * int64(len(sortedDemands)-partitionIdx-1)

		if ask <= residualCapacity {
			waterlevel = maxDemandA
			residualCapacity -= ask
			lower = partitionIdx + 1
		} else if lower == upper {
			upper = lower - 1
		} else {
			upper = partitionIdx
		}
	}

	nextUnsatisfied := lower
	if upper > nextUnsatisfied {
		nextUnsatisfied = upper
	}
	if nextUnsatisfied < len(sortedDemands) {
		waterlevel += residualCapacity / int64(len(sortedDemands)-nextUnsatisfied)
	}

	return waterlevel
}
