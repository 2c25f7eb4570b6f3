package downgrade

import (
	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/ring"
)

// HashingSelector picks LOPRI children via a consistent-hash ring: a
// child is LOPRI iff its host id falls in the ring's currently matched
// arc(s). Because the ring only ever grows or shrinks from one end, the
// same host keeps the same fraction of neighbors on each side across
// calls, so only the children whose membership actually changed need to
// flip — exactly what PickChildren reports as a diff.
type HashingSelector struct {
	ring ring.HashRing
}

// NewHashingSelector returns a selector with an empty ring.
func NewHashingSelector() *HashingSelector {
	return &HashingSelector{}
}

// IsLOPRI reports whether hostID currently falls in the ring's matched
// arc(s), without advancing the ring.
func (s *HashingSelector) IsLOPRI(hostID uint64) bool {
	return s.ring.MatchingRanges().Contains(hostID)
}

// PickChildren advances the ring to wantFracLOPRI and reports what
// changed.
func (s *HashingSelector) PickChildren(view flow.AggInfoView, wantFracLOPRI float64) DowngradeDiff {
	diff := s.ring.UpdateFrac(wantFracLOPRI)

	ids := ring.UnorderedIds{Ranges: rangesOf(diff.Diff)}
	if diff.Type == ring.RangeDiffDel {
		return DowngradeDiff{ToUpgrade: ids}
	}
	return DowngradeDiff{ToDowngrade: ids}
}

func rangesOf(rr ring.RingRanges) []ring.IdRange {
	var out []ring.IdRange
	if !rr.A.Empty() {
		out = append(out, rr.A)
	}
	if !rr.B.Empty() {
		out = append(out, rr.B)
	}
	return out
}
