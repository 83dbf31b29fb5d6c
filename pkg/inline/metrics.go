package inline

import "github.com/zeromicro/go-zero/core/metric"

var (
	inlineResolved = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "plat_proposal",
		Subsystem: "inline",
		Name:      "resolved_total",
		Help:      "Images inlined, by the step that succeeded",
		Labels:    []string{"strategy"},
	})

	inlineFailed = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "plat_proposal",
		Subsystem: "inline",
		Name:      "failed_total",
		Help:      "Images that could not be inlined",
		Labels:    []string{"kind"},
	})
)
