package downgrade

import (
	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

// Sigcomm20Selector seeds LOPRI membership from each child's current
// state and then greedily moves the minimum number of (largest-first)
// children across the HIPRI/LOPRI boundary to reach wantFrac*
// totalDemand, in whichever direction the current split is off target.
// Seeding from the current state (rather than LargestFirstSelector's
// always-empty start) minimizes churn between successive calls.
type Sigcomm20Selector struct {
	volume func(flow.Info) int64
	logger *reporting.Logger
}

// NewSigcomm20Selector returns a selector reading flow volume via volume
// (constant for the selector's lifetime). logger may be nil.
func NewSigcomm20Selector(volume func(flow.Info) int64, logger *reporting.Logger) *Sigcomm20Selector {
	return &Sigcomm20Selector{volume: volume, logger: logger}
}

func (s *Sigcomm20Selector) PickLOPRIChildren(view flow.AggInfoView, wantFracLOPRI float64) []bool {
	children := view.Children()
	lopri := make([]bool, len(children))

	var totalDemand, lopriDemand int64
	for i, c := range children {
		d := s.volume(c)
		totalDemand += d
		if c.CurrentlyLOPRI {
			lopri[i] = true
			lopriDemand += d
		}
	}

	if totalDemand == 0 {
		if s.logger != nil {
			s.logger.Debug("no demand")
		}
		return make([]bool, len(children))
	}

	sortedByDemand := sortByDecreasingDemand(len(children), func(i int) int64 { return s.volume(children[i]) })

	if float64(lopriDemand)/float64(totalDemand) > wantFracLOPRI {
		if s.logger != nil {
			s.logger.Debug("move from LOPRI to HIPRI")
		}
		hipriDemand := totalDemand - lopriDemand
		wantDemand := int64((1 - wantFracLOPRI) * float64(totalDemand))
		greedyAssignToMinimizeGap(greedyAssignArgs{
			curDemand:              hipriDemand,
			wantDemand:             wantDemand,
			childrenSortedByDemand: sortedByDemand,
			children:               children,
			volume:                 s.volume,
		}, lopri, false, false)
	} else {
		if s.logger != nil {
			s.logger.Debug("move from HIPRI to LOPRI")
		}
		wantDemand := int64(wantFracLOPRI * float64(totalDemand))
		greedyAssignToMinimizeGap(greedyAssignArgs{
			curDemand:              lopriDemand,
			wantDemand:             wantDemand,
			childrenSortedByDemand: sortedByDemand,
			children:               children,
			volume:                 s.volume,
		}, lopri, true, false)
	}

	if s.logger != nil && DebugSelectionEnabled() {
		s.logger.Debug("picked LOPRI assignment", "bitmap", bitmapString(lopri))
	}

	return lopri
}
