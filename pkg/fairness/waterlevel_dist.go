package fairness

// DistProblem is Problem's distributional counterpart: demands are
// (value, expected-count) pairs rather than single integers, letting a
// caller express a fractional expected number of flows at each demand
// level instead of enumerating every flow individually.
type DistProblem struct {
	opts Options
}

// NewDistProblem returns a DistProblem configured by opts.
func NewDistProblem(opts Options) *DistProblem {
	return &DistProblem{opts: opts}
}

// ComputeWaterlevel returns the max-min fair waterlevel for capacity
// split across demands.
func (p *DistProblem) ComputeWaterlevel(capacity float64, demands []ValCount) float64 {
	numDemands := float64(len(demands))

	tinyDemandThresh := capacity / maxF64(numDemands, 1)
	if !p.opts.EnableTinyFlowOpt {
		tinyDemandThresh = -1
	}

	sorted := make([]ValCount, len(demands))
	numUnfiltered := 0
	var waterlevel float64
	for _, d := range demands {
		if d.Val <= tinyDemandThresh {
			capacity -= d.Val * d.ExpectedCount
			if d.Val > waterlevel {
				waterlevel = d.Val
			}
		} else {
			sorted[numUnfiltered] = d
			numUnfiltered++
		}
	}
	sorted = sorted[:numUnfiltered]
	capacityWithoutTiny := capacity
	capacity -= waterlevel * sumCounts(sorted)

	switch p.opts.SolveMethod {
	case SolvePartialSort:
		return solvePartialSortDist(capacityWithoutTiny, capacity, waterlevel, sorted)
	default:
		return solveFullSortDist(capacity, waterlevel, sorted)
	}
}

func maxF64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func sumCounts(s []ValCount) float64 {
	var sum float64
	for _, x := range s {
		sum += x.ExpectedCount
	}
	return sum
}

func solveFullSortDist(capacity, waterlevel float64, sortedDemands []ValCount) float64 {
	sortValCounts(sortedDemands)

	expectedGECount := make([]float64, len(sortedDemands))
	var cumCount float64
	for i := len(sortedDemands) - 1; i >= 0; i-- {
		cumCount += sortedDemands[i].ExpectedCount
		expectedGECount[i] = cumCount
	}

	next := 0
	for next < len(sortedDemands) {
		nextDemand := sortedDemands[next]

		delta := nextDemand.Val - waterlevel
		numUnsatisfied := expectedGECount[next]

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

func sortValCounts(s []ValCount) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j].Val > v.Val {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// solvePartialSortDist mirrors solvePartialSort, but every "count" is now
// an expected (possibly fractional) flow count rather than 1 per entry,
// so the amount above/below the current partition is tracked as a sum of
// ExpectedCount instead of a plain element count.
func solvePartialSortDist(originalCapacity, capacity, waterlevel float64, sortedDemands []ValCount) float64 {
	if len(sortedDemands) == 0 {
		return waterlevel
	}

	residualCapacity := capacity
	lower, upper := 0, len(sortedDemands)-1
	var countAboveUpperLimit float64

	for upper >= lower {
		partitionIdx := lower + (upper-lower)/2
		NthElementValCount(sortedDemands[lower:upper+1], partitionIdx-lower)

		var maxDemandA, ask float64
		for i := lower; i <= partitionIdx; i++ {
			vc := sortedDemands[i]
			ask += (vc.Val - waterlevel) * vc.ExpectedCount
			maxDemandA = vc.Val
		}
		expectedCountB := sumCounts(sortedDemands[partitionIdx+1 : upper+1])
		ask += (maxDemandA - waterlevel) * (expectedCountB + countAboveUpperLimit)

		if ask <= residualCapacity {
			waterlevel = maxDemandA
			residualCapacity -= ask
			lower = partitionIdx + 1
		} else if lower == upper {
			countAboveUpperLimit += sumCounts(sortedDemands[lower : upper+1])
			upper = lower - 1
		} else {
			countAboveUpperLimit += expectedCountB
			upper = partitionIdx
		}
	}

	nextUnsatisfied := lower
	if upper > nextUnsatisfied {
		nextUnsatisfied = upper
	}
	if nextUnsatisfied < len(sortedDemands) {
		waterlevel += residualCapacity / sumCounts(sortedDemands[nextUnsatisfied:])
	}

	return waterlevel
}
