package fairness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeWaterlevelBasic(t *testing.T) {
	tests := []struct {
		name     string
		capacity int64
		demands  []int64
		want     int64
	}{
		{"exact_fit", 30, []int64{10, 20, 30}, 10},
		{"plenty_of_capacity", 1000, []int64{10, 20, 30}, 30},
		{"no_capacity", 0, []int64{10, 20, 30}, 0},
		{"single_demand", 7, []int64{100}, 7},
		{"no_demands", 100, nil, 0},
		{"equal_demands", 90, []int64{30, 30, 30}, 30},
	}
	for _, method := range []SolveMethod{SolveFullSort, SolvePartialSort} {
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				p := NewProblem(Options{SolveMethod: method})
				got := p.ComputeWaterlevel(tc.capacity, tc.demands)
				require.Equal(t, tc.want, got)
			})
		}
	}
}

func TestComputeWaterlevelAllocationsRespectCapacity(t *testing.T) {
	demands := []int64{5, 5, 40, 100, 250, 3, 17, 82}
	capacity := int64(200)

	for _, method := range []SolveMethod{SolveFullSort, SolvePartialSort} {
		for _, tiny := range []bool{false, true} {
			p := NewProblem(Options{SolveMethod: method, EnableTinyFlowOpt: tiny})
			w := p.ComputeWaterlevel(capacity, demands)
			allocs := SetAllocations(w, demands)

			var total int64
			for i, a := range allocs {
				require.LessOrEqual(t, a, demands[i])
				total += a
			}
			require.LessOrEqual(t, total, capacity)
		}
	}
}

func TestComputeWaterlevelFullSortMatchesPartialSort(t *testing.T) {
	cases := [][]int64{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{100, 1, 50, 3, 7, 99, 2, 64, 64, 64, 0, 0, 17},
		{1000000, 1},
		{5, 5, 5, 5, 5, 5, 5},
	}
	for _, demands := range cases {
		for _, capacity := range []int64{0, 1, 10, 100, 10000} {
			full := NewProblem(Options{SolveMethod: SolveFullSort})
			partial := NewProblem(Options{SolveMethod: SolvePartialSort})

			wantFull := full.ComputeWaterlevel(capacity, append([]int64(nil), demands...))
			gotPartial := partial.ComputeWaterlevel(capacity, append([]int64(nil), demands...))
			require.Equal(t, wantFull, gotPartial)
		}
	}
}

func TestNthElementPartitionsAroundK(t *testing.T) {
	s := []int64{9, 3, 7, 1, 8, 2, 6, 5, 4, 0}
	k := 4
	NthElement(s, k)

	for i := 0; i < k; i++ {
		require.LessOrEqual(t, s[i], s[k])
	}
	for i := k + 1; i < len(s); i++ {
		require.GreaterOrEqual(t, s[i], s[k])
	}
	require.Equal(t, int64(4), s[k])
}

func TestDistComputeWaterlevelMatchesIntegerWhenCountsAreOne(t *testing.T) {
	demands := []int64{10, 20, 30, 5, 1}
	capacity := int64(27)

	intProblem := NewProblem(Options{SolveMethod: SolveFullSort})
	wantInt := intProblem.ComputeWaterlevel(capacity, demands)

	var distDemands []ValCount
	for _, d := range demands {
		distDemands = append(distDemands, ValCount{Val: float64(d), ExpectedCount: 1})
	}
	distProblem := NewDistProblem(Options{SolveMethod: SolveFullSort})
	gotDist := distProblem.ComputeWaterlevel(float64(capacity), distDemands)

	require.InDelta(t, float64(wantInt), gotDist, 1e-6)
}

func TestDistComputeWaterlevelFullSortMatchesPartialSort(t *testing.T) {
	demands := []ValCount{
		{Val: 10, ExpectedCount: 2.5},
		{Val: 40, ExpectedCount: 1},
		{Val: 5, ExpectedCount: 4},
		{Val: 100, ExpectedCount: 0.5},
	}
	for _, capacity := range []float64{0, 10, 50, 500} {
		full := NewDistProblem(Options{SolveMethod: SolveFullSort})
		partial := NewDistProblem(Options{SolveMethod: SolvePartialSort})

		wantFull := full.ComputeWaterlevel(capacity, append([]ValCount(nil), demands...))
		gotPartial := partial.ComputeWaterlevel(capacity, append([]ValCount(nil), demands...))
		require.InDelta(t, wantFull, gotPartial, 1e-6)
	}
}
