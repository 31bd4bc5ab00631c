package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewCounter registers the single counter vec every component reports to;
// the "result" label names the event, e.g. files_uploaded_total.
func NewCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "general_counters",
			Help:      "Counts of vault events by result.",
		},
		[]string{"result"})
}
