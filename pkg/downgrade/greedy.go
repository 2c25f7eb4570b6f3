package downgrade

import "github.com/uluyol/heyp-qos-downgrade/pkg/flow"

// greedyAssignArgs bundles the inputs greedyAssignToMinimizeGap needs:
// the bin's current demand, its target demand, the children in
// decreasing-demand order, and a way to read each child's volume.
type greedyAssignArgs struct {
	curDemand              int64
	wantDemand             int64
	childrenSortedByDemand []int
	children               []flow.Info
	volume                 func(flow.Info) int64
}

// greedyAssignToMinimizeGap partitions children into two bins (LOPRI and
// HIPRI) by flipping them one at a time, in decreasing-demand order,
// trying to land the flipped bin's total as close to wantDemand as
// possible without excessive overshoot.
//
// stateToIncrease selects which bin gains members: true moves children
// into LOPRI, false into HIPRI (lopriChildren[i] is inverted to read as
// "is currently in the bin being grown" for the false case). Children
// that fit without exceeding wantDemand are always flipped. When
// punishOnlyLargest is set, the scan stops at the first child that would
// overshoot: that child is flipped only if it overshoots by no more than
// the remaining shortfall. Otherwise, the scan continues past children
// that would overshoot, looking for smaller ones that fit, and flips the
// last (smallest) candidate if it overshoots by no more than the
// shortfall.
func greedyAssignToMinimizeGap(args greedyAssignArgs, lopriChildren []bool, stateToIncrease, punishOnlyLargest bool) {
	for i, childI := range args.childrenSortedByDemand {
		if lopriChildren[childI] == stateToIncrease {
			continue // child already belongs to our bin, don't flip
		}

		nextDemand := args.curDemand + args.volume(args.children[childI])

		if nextDemand > args.wantDemand {
			exceedsTwiceGap := nextDemand > 2*args.wantDemand-args.curDemand

			if punishOnlyLargest {
				if !exceedsTwiceGap {
					lopriChildren[childI] = stateToIncrease
					args.curDemand = nextDemand
				}
				return
			}

			haveChildrenWithLessDemand := i < len(args.childrenSortedByDemand)-1
			if haveChildrenWithLessDemand || exceedsTwiceGap {
				continue // flipping childI overshoots the goal
			}
		}

		lopriChildren[childI] = stateToIncrease
		args.curDemand = nextDemand
	}
}
