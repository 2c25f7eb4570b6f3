// Package downgrade implements the QoS downgrade decision core: given an
// aggregate flow view and a target LOPRI fraction, it picks which
// children should run at LOPRI this round.
package downgrade

import (
	"fmt"
	"strings"

	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
	"github.com/uluyol/heyp-qos-downgrade/pkg/ring"
)

// Selector picks which children of an aggregate should run at LOPRI.
// Implementations may carry state across calls (e.g. a hash ring); calls
// into one Selector must be serialized by the caller.
type Selector interface {
	// PickLOPRIChildren returns a bitmap the same length and order as
	// view.Children(), where true marks a child as LOPRI.
	PickLOPRIChildren(view flow.AggInfoView, wantFracLOPRI float64) []bool
}

// DowngradeDiff is the set of ids gaining LOPRI status (ToDowngrade) and
// the set losing it (ToUpgrade) across one selection.
type DowngradeDiff struct {
	ToDowngrade ring.UnorderedIds
	ToUpgrade   ring.UnorderedIds
}

func (d DowngradeDiff) String() string {
	return fmt.Sprintf("{\n  to_downgrade = %s,\n  to_upgrade = %s,\n}", d.ToDowngrade, d.ToUpgrade)
}

// ChildPicker is the diff-producing half of a diff selector: instead of
// emitting a full bitmap, it names only what changed this round.
type ChildPicker interface {
	PickChildren(view flow.AggInfoView, wantFracLOPRI float64) DowngradeDiff
}

// DiffSelector adapts a ChildPicker into a Selector by applying each
// round's diff against a persisted child-id -> last-decision map, so
// that a QoS choice sticks across calls, including for children that
// are absent from some snapshots and reappear later. The map has no
// eviction: each call overwrites the entries of the children it sees,
// and no entry is ever removed.
type DiffSelector struct {
	picker      ChildPicker
	logger      *reporting.Logger
	lastIsLOPRI map[uint64]bool
}

// NewDiffSelector wraps picker as a Selector. logger may be nil.
func NewDiffSelector(picker ChildPicker, logger *reporting.Logger) *DiffSelector {
	return &DiffSelector{
		picker:      picker,
		logger:      logger,
		lastIsLOPRI: make(map[uint64]bool),
	}
}

func (s *DiffSelector) PickLOPRIChildren(view flow.AggInfoView, wantFracLOPRI float64) []bool {
	diff := s.picker.PickChildren(view, wantFracLOPRI)

	children := view.Children()
	lopri := make([]bool, len(children))

	for i, c := range children {
		lopri[i] = c.CurrentlyLOPRI
		if last, ok := s.lastIsLOPRI[c.Key.HostID]; ok {
			lopri[i] = last
		}
	}

	applyRanges(children, lopri, diff.ToDowngrade.Ranges, true)
	if len(diff.ToDowngrade.Points) > 0 {
		applyPoints(children, lopri, diff.ToDowngrade.Points, true)
	}

	applyRanges(children, lopri, diff.ToUpgrade.Ranges, false)
	if len(diff.ToUpgrade.Points) > 0 {
		applyPoints(children, lopri, diff.ToUpgrade.Points, false)
	}

	for i, c := range children {
		s.lastIsLOPRI[c.Key.HostID] = lopri[i]
	}

	if s.logger != nil && DebugSelectionEnabled() {
		s.logger.Debug("picked LOPRI assignment", "bitmap", bitmapString(lopri))
	}

	return lopri
}

// applyRanges is an O(n) linear scan over children for each range,
// correct since a diff typically names only a handful of ranges (a
// hashing diff names at most two).
func applyRanges(children []flow.Info, lopri []bool, ranges []ring.IdRange, value bool) {
	for _, r := range ranges {
		for i, c := range children {
			if r.Contains(c.Key.HostID) {
				lopri[i] = value
			}
		}
	}
}

func applyPoints(children []flow.Info, lopri []bool, points []uint64, value bool) {
	id2index := make(map[uint64]int, len(children))
	for i, c := range children {
		id2index[c.Key.HostID] = i
	}
	for _, p := range points {
		if i, ok := id2index[p]; ok {
			lopri[i] = value
		}
	}
}

func bitmapString(lopri []bool) string {
	var sb strings.Builder
	sb.Grow(len(lopri))
	for _, b := range lopri {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
