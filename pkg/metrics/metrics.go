// Package metrics registers the Prometheus instrumentation recorded for
// downgrade selections: the fraction of children put at LOPRI, how much
// churn each selection causes, and how many selections have been made.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics that RecordSelection updates once per
// selection.
type Recorder struct {
	lopriFrac      *prometheus.GaugeVec
	churn          *prometheus.CounterVec
	selectionCount *prometheus.CounterVec
}

// NewRecorder registers Recorder's metrics against registerer. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry.
func NewRecorder(registerer prometheus.Registerer) *Recorder {
	return &Recorder{
		lopriFrac: promauto.With(registerer).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qosdecide",
			Name:      "lopri_fraction",
			Help:      "Fraction of an aggregate's children assigned to LOPRI by the last selection.",
		}, []string{"selector"}),
		churn: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: "qosdecide",
			Name:      "selection_churn_total",
			Help:      "Number of children whose LOPRI/HIPRI status flipped across a selection.",
		}, []string{"selector"}),
		selectionCount: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: "qosdecide",
			Name:      "selections_total",
			Help:      "Number of selections made, by selector type.",
		}, []string{"selector"}),
	}
}

// RecordSelection updates all three metrics for one selection: prev and
// cur are the bitmaps from the previous and current calls, in the same
// order, used to derive both the LOPRI fraction and the churn count. prev
// may be nil (e.g. for the first call), in which case churn is counted
// against an all-HIPRI baseline.
func (r *Recorder) RecordSelection(selector string, prev, cur []bool) {
	var lopriCount, churnCount int
	for i, isLOPRI := range cur {
		if isLOPRI {
			lopriCount++
		}
		was := false
		if prev != nil && i < len(prev) {
			was = prev[i]
		}
		if was != isLOPRI {
			churnCount++
		}
	}

	r.selectionCount.WithLabelValues(selector).Inc()
	r.churn.WithLabelValues(selector).Add(float64(churnCount))
	if len(cur) > 0 {
		r.lopriFrac.WithLabelValues(selector).Set(float64(lopriCount) / float64(len(cur)))
	} else {
		r.lopriFrac.WithLabelValues(selector).Set(0)
	}
}
