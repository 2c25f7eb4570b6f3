package downgrade

import (
	"github.com/uluyol/heyp-qos-downgrade/pkg/flow"
	"github.com/uluyol/heyp-qos-downgrade/pkg/reporting"
)

// FracAdmittedAtLOPRI returns the fraction of parent's admitted traffic
// that runs at LOPRI if HIPRI traffic were capped at hipriLimitBps and
// the overflow routed to LOPRI capped at lopriLimitBps:
// 1 - hipriLimitBps / min(demand, hipriLimitBps+lopriLimitBps).
//
// The result is only meaningful when there's actually something to
// downgrade: lopriLimitBps > 0, parent demand > 0, and parent demand
// exceeds hipriLimitBps. Outside that, nothing would be admitted at
// LOPRI by construction, so the answer is 0.
func FracAdmittedAtLOPRI(parent flow.Info, hipriLimitBps, lopriLimitBps int64) float64 {
	demand := parent.PredictedDemandBps
	mayAdmit := lopriLimitBps > 0 && demand > 0 && demand > hipriLimitBps
	if !mayAdmit {
		return 0
	}
	totalLimitBps := float64(hipriLimitBps + lopriLimitBps)
	totalAdmittedDemandBps := float64(demand)
	if totalLimitBps < totalAdmittedDemandBps {
		totalAdmittedDemandBps = totalLimitBps
	}
	return 1 - float64(hipriLimitBps)/totalAdmittedDemandBps
}

// fracAdmittedRoundingSlack compensates for floating-point error when
// computing the revised LOPRI fraction below: the smallest child's
// demand divided by parent demand can land a hair under the threshold
// needed to actually admit that child, so it's inflated slightly before
// the comparison against lopriFrac.
const fracAdmittedRoundingSlack = 1.00001

// FracAdmittedAtLOPRIToProbe revises lopriFrac upward when needed to
// guarantee the smallest child gets admitted at LOPRI, so a probe sent
// at this fraction actually measures something. It returns lopriFrac
// unchanged unless all of: lopriLimitBps > 0 (implicit in the formula
// below only applying when it helps); parent demand is between
// hipriLimitBps and demandMultiplier*hipriLimitBps; aggInfo has
// children; and the smallest child's demand doesn't exceed
// lopriLimitBps.
func FracAdmittedAtLOPRIToProbe(aggInfo flow.AggInfo, hipriLimitBps, lopriLimitBps int64, demandMultiplier, lopriFrac float64, logger *reporting.Logger) float64 {
	debug := logger != nil && DebugSelectionEnabled()

	parentDemand := aggInfo.Parent.PredictedDemandBps

	if parentDemand < hipriLimitBps {
		if debug {
			logger.Debug("predicted demand < hipri rate limit", "demand", parentDemand, "hipri_limit", hipriLimitBps)
		}
		return lopriFrac
	}
	if float64(parentDemand) > demandMultiplier*float64(hipriLimitBps) {
		if debug {
			logger.Debug("predicted demand > demand multiplier * hipri rate limit", "demand", parentDemand, "limit", demandMultiplier*float64(hipriLimitBps))
		}
		return lopriFrac
	}
	if len(aggInfo.Children) == 0 {
		if debug {
			logger.Debug("no children")
		}
		return lopriFrac
	}

	smallestChildDemandBps := aggInfo.Children[0].PredictedDemandBps
	for _, c := range aggInfo.Children[1:] {
		if c.PredictedDemandBps < smallestChildDemandBps {
			smallestChildDemandBps = c.PredictedDemandBps
		}
	}

	if smallestChildDemandBps > lopriLimitBps {
		if debug {
			logger.Debug("smallest child demand > lopri rate limit", "smallest_child_demand", smallestChildDemandBps, "lopri_limit", lopriLimitBps)
		}
		return lopriFrac
	}

	revisedFrac := fracAdmittedRoundingSlack * float64(smallestChildDemandBps) / float64(parentDemand)
	if revisedFrac > lopriFrac {
		if debug {
			logger.Debug("revised lopri frac", "from", lopriFrac, "to", revisedFrac)
		}
		return revisedFrac
	}
	if debug {
		logger.Debug("existing lopri frac is larger than needed for probing", "lopri_frac", lopriFrac, "revised_frac", revisedFrac)
	}
	return lopriFrac
}
