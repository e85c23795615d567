package vectorstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// documentsTotal tracks the number of documents in the store.
	documentsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lastro",
			Subsystem: "vectorstore",
			Name:      "documents_total",
			Help:      "Number of documents currently held by the vector store",
		},
	)

	// addDuration tracks how long batch insertions take, embedding
	// included.
	addDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lastro",
			Subsystem: "vectorstore",
			Name:      "add_duration_seconds",
			Help:      "Duration of AddDocuments calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// searchDuration tracks recall-stage latency.
	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lastro",
			Subsystem: "vectorstore",
			Name:      "search_duration_seconds",
			Help:      "Duration of Search calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
