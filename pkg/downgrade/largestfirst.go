package downgrade

import (
	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

// LargestFirstSelector greedily moves the biggest-demand children into
// LOPRI until their total reaches wantFrac*totalDemand, always starting
// from an all-HIPRI baseline. Unlike SIGCOMM-20, it ignores which
// children were already LOPRI last round, so it has no notion of churn
// minimization beyond "only ever touch the largest flows".
type LargestFirstSelector struct {
	volume func(flow.Info) int64
	logger *reporting.Logger
}

// NewLargestFirstSelector returns a selector reading flow volume via
// volume (constant for the selector's lifetime). logger may be nil.
func NewLargestFirstSelector(volume func(flow.Info) int64, logger *reporting.Logger) *LargestFirstSelector {
	return &LargestFirstSelector{volume: volume, logger: logger}
}

func (s *LargestFirstSelector) PickLOPRIChildren(view flow.AggInfoView, wantFracLOPRI float64) []bool {
	children := view.Children()
	lopri := make([]bool, len(children))

	var totalDemand int64
	for _, c := range children {
		totalDemand += s.volume(c)
	}

	if totalDemand == 0 {
		if s.logger != nil {
			s.logger.Debug("no demand")
		}
		return lopri
	}

	sortedByDemand := sortByDecreasingDemand(len(children), func(i int) int64 { return s.volume(children[i]) })

	wantDemand := int64(wantFracLOPRI * float64(totalDemand))
	greedyAssignToMinimizeGap(greedyAssignArgs{
		curDemand:              0,
		wantDemand:             wantDemand,
		childrenSortedByDemand: sortedByDemand,
		children:               children,
		volume:                 s.volume,
	}, lopri, true, true)

	if s.logger != nil && DebugSelectionEnabled() {
		s.logger.Debug("picked LOPRI assignment", "bitmap", bitmapString(lopri))
	}

	return lopri
}
