package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and hydration collectors.
var (
	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Documents passed to the indexer, by result",
		},
		[]string{"result"}, // "ok" / "failed"
	)

	RecordsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_submitted_total",
			Help:      "Search records submitted, by kind",
		},
		[]string{"kind"}, // "toplevel" / "page"
	)

	HydrationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_total",
			Help:      "Result positions resolved, by outcome",
		},
		[]string{"outcome"}, // "hydrated" / "miss" / "error" / "raw"
	)
)

func init() {
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(RecordsSubmittedTotal)
	prometheus.MustRegister(HydrationTotal)
}
