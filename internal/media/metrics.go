package media

import "github.com/prometheus/client_golang/prometheus"

const (
	resultStored   = "stored"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

var (
	// uploadsTotal counts uploads by outcome: stored, rejected before
	// reaching disk (type or size), or failed while writing/compressing.
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of image uploads by result.",
		},
		[]string{"result"},
	)

	compressSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_compress_duration_seconds",
			Help:    "Time spent decoding, resizing and re-encoding an upload.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	removalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_removals_total",
			Help: "Total number of stored images deleted.",
		},
	)
)

func init() {
	prometheus.MustRegister(uploadsTotal, compressSeconds, removalsTotal)
}
