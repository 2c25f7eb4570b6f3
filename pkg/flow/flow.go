// Package flow holds the data model that downgrade selectors read:
// flow identities, per-flow snapshots, and the parent/children aggregate
// they're grouped under.
package flow

import "fmt"

// Key structurally identifies a traffic aggregate. HostID is expected to
// hash approximately uniformly over the 64-bit space, since it is the
// lookup key the hashing selector's consistent-hash ring keys off of.
type Key struct {
	SrcDC  string
	DstDC  string
	Job    string
	HostID uint64
}

func (k Key) String() string {
	return fmt.Sprintf("{src_dc: %q dst_dc: %q job: %q host_id: %d}", k.SrcDC, k.DstDC, k.Job, k.HostID)
}

// Info is a snapshot of one flow's state. All numeric fields are
// non-negative and denominated in bits-per-second (demand/usage) or bytes
// (cumulative counters).
type Info struct {
	Key Key

	PredictedDemandBps int64
	EWMAUsageBps       int64

	CumUsageBytes      int64
	CumHIPRIUsageBytes int64
	CumLOPRIUsageBytes int64

	CurrentlyLOPRI bool
}

// Source selects which numeric field Volume reads as "the" flow volume.
type Source int

const (
	// SourcePredictedDemand reads PredictedDemandBps.
	SourcePredictedDemand Source = iota
	// SourceUsage reads EWMAUsageBps.
	SourceUsage
)

// Volume returns the flow volume info carries under source.
func Volume(info Info, source Source) int64 {
	if source == SourcePredictedDemand {
		return info.PredictedDemandBps
	}
	return info.EWMAUsageBps
}

// AggInfo is a parent flow plus an ordered sequence of child flows. Order
// is externally assigned and must be preserved across selection, since
// output bitmaps are indexed by it.
type AggInfo struct {
	Parent   Info
	Children []Info
}
