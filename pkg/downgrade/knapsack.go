package downgrade

import (
	"sort"
	"time"

	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

// KnapsackSelector picks the subset of children whose combined demand is
// as close as possible to, without exceeding, wantFrac*totalDemand —
// an exact 0/1 knapsack with weight == value == demand. Unlike the
// greedy selectors it has no notion of churn: every call re-solves from
// scratch.
//
// There's no bundled ortools binding to reach for here, so both the
// small and large cases run through the same branch-and-bound search;
// a time limit bounds worst-case latency on large inputs and the
// result is logged as non-optimal if the limit was hit before the
// search exhausted its bound.
type KnapsackSelector struct {
	volume    func(flow.Info) int64
	timeLimit time.Duration
	logger    *reporting.Logger
}

// NewKnapsackSelector returns a selector reading flow volume via volume.
// timeLimit bounds the branch-and-bound search; zero means no limit.
// logger may be nil.
func NewKnapsackSelector(volume func(flow.Info) int64, timeLimit time.Duration, logger *reporting.Logger) *KnapsackSelector {
	return &KnapsackSelector{volume: volume, timeLimit: timeLimit, logger: logger}
}

func (s *KnapsackSelector) PickLOPRIChildren(view flow.AggInfoView, wantFracLOPRI float64) []bool {
	children := view.Children()
	lopri := make([]bool, len(children))

	var totalDemand int64
	demands := make([]int64, len(children))
	for i, c := range children {
		d := s.volume(c)
		demands[i] = d
		totalDemand += d
	}

	if totalDemand == 0 {
		if s.logger != nil {
			s.logger.Debug("no demand")
		}
		return lopri
	}

	capacity := int64(wantFracLOPRI * float64(totalDemand))

	chosen, optimal := solveKnapsack(demands, capacity, s.timeLimit)
	for _, i := range chosen {
		lopri[i] = true
	}

	if !optimal && s.logger != nil {
		s.logger.Debug("knapsack solver did not prove optimality before time limit",
			"num_children", len(children), "capacity", capacity)
	}

	if s.logger != nil && DebugSelectionEnabled() {
		s.logger.Debug("picked LOPRI assignment", "bitmap", bitmapString(lopri))
	}

	return lopri
}

// solveKnapsack returns the indices of a subset of weights maximizing
// sum(weights[i]) subject to sum <= capacity, along with whether the
// search proved optimality (as opposed to bailing out on the time
// limit). Weight == value, so the best subset is also the one
// minimizing the gap to capacity from below.
func solveKnapsack(weights []int64, capacity int64, timeLimit time.Duration) ([]int, bool) {
	n := len(weights)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })

	suffixSum := make([]int64, n+1)
	for i := n - 1; i >= 0; i-- {
		suffixSum[i] = suffixSum[i+1] + weights[order[i]]
	}

	var deadline time.Time
	hasDeadline := timeLimit > 0
	if hasDeadline {
		deadline = time.Now().Add(timeLimit)
	}

	var bestSum int64
	var bestChoice []bool
	choice := make([]bool, n)
	optimal := true

	var recurse func(i int, cur int64)
	recurse = func(i int, cur int64) {
		if !optimal {
			return
		}
		if hasDeadline && time.Now().After(deadline) {
			optimal = false
			return
		}
		if cur > bestSum {
			bestSum = cur
			bestChoice = append(bestChoice[:0], choice[:i]...)
			bestChoice = append(bestChoice, make([]bool, n-i)...)
		}
		if i == n {
			return
		}
		// Upper bound: best case takes every remaining item fully.
		if cur+suffixSum[i] <= bestSum {
			return
		}

		w := weights[order[i]]
		if cur+w <= capacity {
			choice[i] = true
			recurse(i+1, cur+w)
			choice[i] = false
		}
		recurse(i+1, cur)
	}
	recurse(0, 0)

	if bestChoice == nil {
		bestChoice = make([]bool, n)
	}

	var chosen []int
	for i, picked := range bestChoice {
		if picked {
			chosen = append(chosen, order[i])
		}
	}
	return chosen, optimal
}
