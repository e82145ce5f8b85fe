package api

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// downloadMetrics holds Prometheus metrics for the download streamer.
type downloadMetrics struct {
	downloadsTotal *prometheus.CounterVec
	bytesStreamed  prometheus.Counter
}

var (
	dlMetrics     *downloadMetrics
	dlMetricsOnce sync.Once
)

func getDownloadMetrics() *downloadMetrics {
	dlMetricsOnce.Do(func() {
		dlMetrics = &downloadMetrics{
			downloadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "storegw",
					Subsystem: "download",
					Name:      "total",
					Help:      "Total number of download requests by outcome",
				},
				[]string{"outcome"},
			),
			bytesStreamed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "storegw",
					Subsystem: "download",
					Name:      "bytes_streamed_total",
					Help:      "Total artifact bytes streamed to clients",
				},
			),
		}
	})
	return dlMetrics
}
