package flow

import "github.com/cespare/xxhash/v2"

// AggInfoView presents an AggInfo's parent and children under a common
// read interface, so downgrade selectors don't need to know whether
// they're operating on raw hosts or a job-level rollup of them.
type AggInfoView interface {
	Parent() Info
	Children() []Info
}

// TransparentView returns the underlying AggInfo verbatim.
type TransparentView struct {
	Info AggInfo
}

func (v TransparentView) Parent() Info     { return v.Info.Parent }
func (v TransparentView) Children() []Info { return v.Info.Children }

// JobLevelView groups children by (SrcDC, DstDC, Job), summing the
// numeric fields and OR-ing CurrentlyLOPRI. Each synthetic job child's
// HostID is xxhash64(job name), so it still hashes uniformly for a
// hashing selector run against the rollup. JobIndexOfHost maps each
// original child index to its synthetic job index, letting a dispatcher
// project a job-level decision back onto every host in that job.
type JobLevelView struct {
	parent         Info
	jobChildren    []Info
	jobIndexOfHost []int
}

// NewJobLevelView builds the per-job rollup of info's children.
func NewJobLevelView(info AggInfo) *JobLevelView {
	v := &JobLevelView{
		parent:         info.Parent,
		jobIndexOfHost: make([]int, len(info.Children)),
	}

	type jobKey struct {
		srcDC, dstDC, job string
	}
	indexOfJob := make(map[jobKey]int)

	for i, child := range info.Children {
		jk := jobKey{child.Key.SrcDC, child.Key.DstDC, child.Key.Job}
		j, ok := indexOfJob[jk]
		if !ok {
			j = len(v.jobChildren)
			indexOfJob[jk] = j
			v.jobChildren = append(v.jobChildren, Info{
				Key: Key{
					SrcDC:  child.Key.SrcDC,
					DstDC:  child.Key.DstDC,
					Job:    child.Key.Job,
					HostID: xxhash.Sum64String(child.Key.Job),
				},
			})
		}
		v.jobIndexOfHost[i] = j

		jc := &v.jobChildren[j]
		jc.PredictedDemandBps += child.PredictedDemandBps
		jc.EWMAUsageBps += child.EWMAUsageBps
		jc.CumUsageBytes += child.CumUsageBytes
		jc.CumHIPRIUsageBytes += child.CumHIPRIUsageBytes
		jc.CumLOPRIUsageBytes += child.CumLOPRIUsageBytes
		jc.CurrentlyLOPRI = jc.CurrentlyLOPRI || child.CurrentlyLOPRI
	}

	return v
}

func (v *JobLevelView) Parent() Info     { return v.parent }
func (v *JobLevelView) Children() []Info { return v.jobChildren }

// JobIndexOfHost maps each original child index to its synthetic job
// index in Children().
func (v *JobLevelView) JobIndexOfHost() []int { return v.jobIndexOfHost }
