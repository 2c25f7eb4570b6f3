package downgrade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
)

func demandChildren(demands ...int64) []flow.Info {
	children := make([]flow.Info, len(demands))
	for i, d := range demands {
		children[i] = flow.Info{
			Key:                flow.Key{HostID: uint64(i + 1)},
			PredictedDemandBps: d,
		}
	}
	return children
}

func byPredictedDemand(info flow.Info) int64 { return info.PredictedDemandBps }

func TestGreedyAssignToMinimizeGapPunishOnlyLargest(t *testing.T) {
	children := demandChildren(10, 20, 30, 40)
	lopri := make([]bool, len(children))
	sorted := sortByDecreasingDemand(len(children), func(i int) int64 { return children[i].PredictedDemandBps })

	greedyAssignToMinimizeGap(greedyAssignArgs{
		curDemand:              0,
		wantDemand:             35,
		childrenSortedByDemand: sorted,
		children:               children,
		volume:                 byPredictedDemand,
	}, lopri, true, true)

	// Largest (40) is closer to 35 than nothing, and punishOnlyLargest
	// stops at the first child that overshoots.
	require.Equal(t, []bool{false, false, false, true}, lopri)
}

func TestGreedyAssignToMinimizeGapContinuesPastOvershoot(t *testing.T) {
	children := demandChildren(10, 20, 30, 40)
	lopri := make([]bool, len(children))
	sorted := sortByDecreasingDemand(len(children), func(i int) int64 { return children[i].PredictedDemandBps })

	greedyAssignToMinimizeGap(greedyAssignArgs{
		curDemand:              0,
		wantDemand:             35,
		childrenSortedByDemand: sorted,
		children:               children,
		volume:                 byPredictedDemand,
	}, lopri, true, false)

	// 40 overshoots and isn't the last candidate, so it's skipped in
	// favor of smaller flows that fit: 30 fits (<=35), then 20 would
	// overshoot to 50, more than the remaining gap of 5, so it's skipped;
	// 10 is the last candidate and overshoots to 40, exactly the gap, so
	// it's taken.
	require.True(t, lopri[2]) // 30 is the first child that fits
}

func TestLargestFirstSelectorAllHIPRIWhenNoDemand(t *testing.T) {
	s := NewLargestFirstSelector(byPredictedDemand, nil)
	view := flow.TransparentView{Info: flow.AggInfo{Children: demandChildren(0, 0, 0)}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	require.Equal(t, []bool{false, false, false}, lopri)
}

func TestLargestFirstSelectorPicksBiggestFirst(t *testing.T) {
	s := NewLargestFirstSelector(byPredictedDemand, nil)
	view := flow.TransparentView{Info: flow.AggInfo{Children: demandChildren(10, 90)}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	require.Equal(t, []bool{false, true}, lopri)
}

func TestLargestFirstSelectorIgnoresCurrentState(t *testing.T) {
	s := NewLargestFirstSelector(byPredictedDemand, nil)
	children := demandChildren(10, 90)
	children[0].CurrentlyLOPRI = true // already LOPRI, but the baseline is always empty
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	require.Equal(t, []bool{false, true}, lopri)
}

func TestSigcomm20SelectorNoDemand(t *testing.T) {
	s := NewSigcomm20Selector(byPredictedDemand, nil)
	view := flow.TransparentView{Info: flow.AggInfo{Children: demandChildren(0, 0)}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	require.Equal(t, []bool{false, false}, lopri)
}

func TestSigcomm20SelectorGrowsLOPRIWhenBelowTarget(t *testing.T) {
	s := NewSigcomm20Selector(byPredictedDemand, nil)
	children := demandChildren(10, 90)
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	// The assigner never backtracks: it tries the largest flow (90)
	// first, skips it because flipping it alone overshoots the 50
	// target and a smaller candidate remains, then takes the smaller
	// flow (10) since it fits without overshoot. The big flow is never
	// revisited once skipped.
	require.Equal(t, []bool{true, false}, lopri)
}

func TestSigcomm20SelectorShrinksLOPRIWhenAboveTarget(t *testing.T) {
	s := NewSigcomm20Selector(byPredictedDemand, nil)
	children := demandChildren(10, 90)
	children[0].CurrentlyLOPRI = true
	children[1].CurrentlyLOPRI = true // both LOPRI: way above a 0.1 target
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	lopri := s.PickLOPRIChildren(view, 0.1)
	// Both start LOPRI; target is 10% of demand at LOPRI, so 90% needs
	// moving to HIPRI. The largest flow (90) exactly fits the HIPRI
	// target and is tried first, so it's the one that flips.
	require.False(t, lopri[1])
}

func TestSigcomm20SelectorPrefersStickingWithCurrentAssignment(t *testing.T) {
	s := NewSigcomm20Selector(byPredictedDemand, nil)
	children := demandChildren(50, 50)
	children[0].CurrentlyLOPRI = true
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	// Already exactly at target: nothing should move.
	require.Equal(t, []bool{true, false}, lopri)
}

func TestKnapsackSelectorNoDemand(t *testing.T) {
	s := NewKnapsackSelector(byPredictedDemand, 0, nil)
	view := flow.TransparentView{Info: flow.AggInfo{Children: demandChildren(0, 0)}}
	lopri := s.PickLOPRIChildren(view, 0.5)
	require.Equal(t, []bool{false, false}, lopri)
}

func TestKnapsackSelectorFindsExactFit(t *testing.T) {
	s := NewKnapsackSelector(byPredictedDemand, 0, nil)
	children := demandChildren(10, 20, 30, 40)
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	// total = 100, want 30% = 30: the single 30-demand child fits exactly.
	lopri := s.PickLOPRIChildren(view, 0.3)
	var got int64
	for i, picked := range lopri {
		if picked {
			got += children[i].PredictedDemandBps
		}
	}
	require.Equal(t, int64(30), got)
}

func TestKnapsackSelectorNeverExceedsCapacity(t *testing.T) {
	s := NewKnapsackSelector(byPredictedDemand, 0, nil)
	children := demandChildren(7, 11, 13, 17, 19, 23)
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}
	lopri := s.PickLOPRIChildren(view, 0.42)

	var total, got int64
	for _, c := range children {
		total += c.PredictedDemandBps
	}
	for i, picked := range lopri {
		if picked {
			got += children[i].PredictedDemandBps
		}
	}
	capacity := int64(0.42 * float64(total))
	require.LessOrEqual(t, got, capacity)
}

func TestDiffSelectorWithHashingStickAcrossCalls(t *testing.T) {
	picker := NewHashingSelector()
	selector := NewDiffSelector(picker, nil)

	children := make([]flow.Info, 200)
	for i := range children {
		children[i] = flow.Info{Key: flow.Key{HostID: uint64(i)*0x9e3779b97f4a7c15 + 1}}
	}
	view := flow.TransparentView{Info: flow.AggInfo{Children: children}}

	first := selector.PickLOPRIChildren(view, 0.25)
	second := selector.PickLOPRIChildren(view, 0.25)
	require.Equal(t, first, second, "re-running with the same target should be a no-op")

	grown := selector.PickLOPRIChildren(view, 0.5)
	lopriCountFirst, lopriCountGrown := 0, 0
	for i := range children {
		if first[i] {
			lopriCountFirst++
		}
		if grown[i] {
			lopriCountGrown++
		}
	}
	require.Greater(t, lopriCountGrown, lopriCountFirst)

	for i := range children {
		if first[i] {
			require.True(t, grown[i], "growing the LOPRI fraction must not upgrade anyone already downgraded")
		}
	}
}

func TestDispatcherUnknownTypeIsFatal(t *testing.T) {
	require.Panics(t, func() {
		NewDispatcher(Config{Type: SelectorType(99)}, nil)
	})
}

func TestDispatcherJobLevelProjectsDecisionToEveryHostInJob(t *testing.T) {
	children := []flow.Info{
		{Key: flow.Key{SrcDC: "a", DstDC: "b", Job: "jobA", HostID: 1}, PredictedDemandBps: 10},
		{Key: flow.Key{SrcDC: "a", DstDC: "b", Job: "jobA", HostID: 2}, PredictedDemandBps: 10},
		{Key: flow.Key{SrcDC: "a", DstDC: "b", Job: "jobB", HostID: 3}, PredictedDemandBps: 90},
	}
	d := NewDispatcher(Config{
		Type:          SelectorLargestFirst,
		VolumeSource:  flow.SourcePredictedDemand,
		DowngradeJobs: true,
	}, nil)

	lopri := d.PickLOPRIChildren(flow.AggInfo{Children: children}, 0.5)

	require.Equal(t, lopri[0], lopri[1], "both hosts in jobA must share jobA's decision")
	require.True(t, lopri[2], "jobB has the larger demand and should be the one downgraded")
}

func TestFracAdmittedAtLOPRIBelowHIPRILimitIsZero(t *testing.T) {
	// Demand doesn't even exceed the HIPRI limit, so nothing is ever
	// routed to LOPRI: by definition there's nothing "admitted at LOPRI".
	parent := flow.Info{PredictedDemandBps: 50}
	require.Equal(t, 0.0, FracAdmittedAtLOPRI(parent, 100, 10))
}

func TestFracAdmittedAtLOPRIZeroLOPRILimitIsZero(t *testing.T) {
	parent := flow.Info{PredictedDemandBps: 150}
	require.Equal(t, 0.0, FracAdmittedAtLOPRI(parent, 100, 0))
}

func TestFracAdmittedAtLOPRIPartialOverflow(t *testing.T) {
	parent := flow.Info{PredictedDemandBps: 150}
	// total admitted demand = min(150, 100+60) = 150; 1 - 100/150 = 1/3.
	require.InDelta(t, 1.0/3.0, FracAdmittedAtLOPRI(parent, 100, 60), 1e-9)
}

func TestFracAdmittedAtLOPRIOverflowExceedsLOPRILimit(t *testing.T) {
	parent := flow.Info{PredictedDemandBps: 200}
	// total admitted demand = min(200, 100+60) = 160; 1 - 100/160 = 0.375.
	require.InDelta(t, 0.375, FracAdmittedAtLOPRI(parent, 100, 60), 1e-9)
}

func TestFracAdmittedAtLOPRIToProbeBelowHIPRILimitReturnsInputUnchanged(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 50}, Children: demandChildren(10, 20)}
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.3, nil)
	require.Equal(t, 0.3, frac)
}

func TestFracAdmittedAtLOPRIToProbeAboveMultiplierReturnsInputUnchanged(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 250}, Children: demandChildren(10, 20)}
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.3, nil)
	require.Equal(t, 0.3, frac)
}

func TestFracAdmittedAtLOPRIToProbeNoChildrenReturnsInputUnchanged(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 150}}
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.3, nil)
	require.Equal(t, 0.3, frac)
}

func TestFracAdmittedAtLOPRIToProbeSmallestChildExceedsLOPRILimitReturnsInputUnchanged(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 150}, Children: demandChildren(60, 80)}
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.3, nil)
	require.Equal(t, 0.3, frac)
}

func TestFracAdmittedAtLOPRIToProbeRevisesUpwardForSmallestChild(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 150}, Children: demandChildren(30, 80)}
	// smallest child demand = 30 <= lopri limit 50, parent demand 150 is in
	// (100, 2.0*100]; revised = 1.00001 * 30/150 = 0.200002, which beats
	// the proposed 0.1.
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.1, nil)
	require.InDelta(t, 0.200002, frac, 1e-6)
}

func TestFracAdmittedAtLOPRIToProbeKeepsLargerInputFrac(t *testing.T) {
	agg := flow.AggInfo{Parent: flow.Info{PredictedDemandBps: 150}, Children: demandChildren(30, 80)}
	// revised frac (0.200002) is smaller than the proposed 0.5, so the
	// proposed fraction is already enough and is returned unchanged.
	frac := FracAdmittedAtLOPRIToProbe(agg, 100, 50, 2.0, 0.5, nil)
	require.Equal(t, 0.5, frac)
}
