package export

import "github.com/zeromicro/go-zero/core/metric"

var (
	exportDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "plat_proposal",
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Export duration in seconds",
		Labels:    []string{"format"},
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
	})

	exportWarnings = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "plat_proposal",
		Subsystem: "export",
		Name:      "warnings_total",
		Help:      "Images that degraded during export",
		Labels:    []string{"format"},
	})

	exportFailed = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "plat_proposal",
		Subsystem: "export",
		Name:      "failed_total",
		Help:      "Exports that returned an error",
		Labels:    []string{"format"},
	})
)
