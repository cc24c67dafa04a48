package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SinkMetrics holds the Prometheus metrics for log record delivery.
type SinkMetrics struct {
	RecordsTotal     *prometheus.CounterVec
	SinkErrorsTotal  *prometheus.CounterVec
	EmailsSuppressed prometheus.Counter
}

// NewSinkMetrics creates the metrics and registers them with reg. A nil
// registerer leaves them unregistered.
func NewSinkMetrics(reg prometheus.Registerer) *SinkMetrics {
	factory := promauto.With(reg)
	return &SinkMetrics{
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grabbag",
			Subsystem: "logging",
			Name:      "records_total",
			Help:      "Total number of records delivered, by sink and level.",
		}, []string{"sink", "level"}),
		SinkErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grabbag",
			Subsystem: "logging",
			Name:      "sink_errors_total",
			Help:      "Total number of failed record deliveries, by sink.",
		}, []string{"sink"}),
		EmailsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "grabbag",
			Subsystem: "logging",
			Name:      "emails_suppressed_total",
			Help:      "Total number of critical emails dropped by the rate limit.",
		}),
	}
}
