package downgrade

import (
	"time"

	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

// SelectorType names one of the supported downgrade strategies.
type SelectorType int

const (
	SelectorHashing SelectorType = iota
	SelectorLargestFirst
	SelectorSigcomm20
	SelectorKnapsack
)

func (t SelectorType) String() string {
	switch t {
	case SelectorHashing:
		return "hashing"
	case SelectorLargestFirst:
		return "largest-first"
	case SelectorSigcomm20:
		return "heyp-sigcomm-20"
	case SelectorKnapsack:
		return "knapsack"
	default:
		return "unknown"
	}
}

// Config controls how a Dispatcher builds its Selector and reads flow
// volume.
type Config struct {
	Type SelectorType

	// VolumeSource selects which of a flow.Info's numeric fields counts
	// as its demand for selectors that need one (all but hashing).
	VolumeSource flow.Source

	// DowngradeJobs, when set, rolls children up by (SrcDC, DstDC, Job)
	// before selection and projects the per-job decision back onto every
	// host in that job, rather than deciding host by host.
	DowngradeJobs bool

	// KnapsackTimeLimit bounds the knapsack selector's branch-and-bound
	// search. Ignored for other selector types.
	KnapsackTimeLimit time.Duration
}

// Dispatcher is the top-level entry point: it builds the configured
// Selector once, then on each call wraps the input in the configured
// aggregation view and projects the view-level decision back onto the
// caller's original child ordering.
type Dispatcher struct {
	cfg      Config
	selector Selector
	logger   *reporting.Logger
}

// NewDispatcher builds a Dispatcher per cfg. logger may be nil, except
// that an unknown SelectorType is always fatal and requires a non-nil
// logger to report through before exiting, matching how the rest of
// this package treats unrecoverable configuration errors.
func NewDispatcher(cfg Config, logger *reporting.Logger) *Dispatcher {
	volume := func(info flow.Info) int64 { return flow.Volume(info, cfg.VolumeSource) }

	var selector Selector
	switch cfg.Type {
	case SelectorHashing:
		selector = NewDiffSelector(NewHashingSelector(), logger)
	case SelectorLargestFirst:
		selector = NewLargestFirstSelector(volume, logger)
	case SelectorSigcomm20:
		selector = NewSigcomm20Selector(volume, logger)
	case SelectorKnapsack:
		selector = NewKnapsackSelector(volume, cfg.KnapsackTimeLimit, logger)
	default:
		if logger != nil {
			logger.Fatal("unknown downgrade selector type", "type", int(cfg.Type))
		}
		panic("unreachable: logger.Fatal must exit the process")
	}

	return &Dispatcher{cfg: cfg, selector: selector, logger: logger}
}

// PickLOPRIChildren picks which of info's children should run at LOPRI,
// returning a bitmap in the same order as info.Children. When the
// dispatcher is configured to downgrade by job, the decision is made
// once per job and fanned back out to every host in that job.
func (d *Dispatcher) PickLOPRIChildren(info flow.AggInfo, wantFracLOPRI float64) []bool {
	if !d.cfg.DowngradeJobs {
		return d.selector.PickLOPRIChildren(flow.TransparentView{Info: info}, wantFracLOPRI)
	}

	view := flow.NewJobLevelView(info)
	jobLOPRI := d.selector.PickLOPRIChildren(view, wantFracLOPRI)

	hostLOPRI := make([]bool, len(info.Children))
	jobIndexOfHost := view.JobIndexOfHost()
	for i := range hostLOPRI {
		hostLOPRI[i] = jobLOPRI[jobIndexOfHost[i]]
	}
	return hostLOPRI
}
