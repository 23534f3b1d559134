package ordered

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics are registered in the default VictoriaMetrics set and exposed by the rpc
// http server on /metrics.

var (
	errorsTotal  = metrics.NewCounter("okv_ordered_errors_total")
	fillDuration = metrics.NewHistogram("okv_iterator_fill_duration_seconds")
)

// countOp counts a call of the operation op
func countOp(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`okv_ordered_ops_total{op=%q}`, op)).Inc()
}

// countErr counts err if it is not nil or a plain miss and returns it unchanged
func countErr(err error) error {
	if err != nil {
		if e, ok := err.(*Error); !ok || e.Code != CodeNotFound {
			errorsTotal.Inc()
		}
	}
	return err
}

// observeFill records the duration of one iterator prefetch
func observeFill(start time.Time) {
	fillDuration.UpdateDuration(start)
}
