package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registerOnce sync.Once

	invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipbridge",
			Subsystem: "bridge",
			Name:      "invocations_total",
			Help:      "Total host bridge command invocations.",
		},
		[]string{"transport", "command", "outcome"},
	)
	invocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipbridge",
			Subsystem: "bridge",
			Name:      "invocation_duration_seconds",
			Help:      "Host bridge command duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport", "command", "outcome"},
	)
	activeConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipbridge",
			Subsystem: "bridge",
			Name:      "active_connections",
			Help:      "Open socket transport connections.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipbridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(invocations, invocationDuration, activeConns, httpRequests, httpDuration)
	})
}

// RecordInvocation counts one dispatched command. Unregistered command names should be passed as "unknown" to bound label cardinality.
func RecordInvocation(transport, command string, duration time.Duration, err error) {
	RegisterMetrics()
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	invocations.WithLabelValues(transport, command, outcome).Inc()
	invocationDuration.WithLabelValues(transport, command, outcome).Observe(duration.Seconds())
}

func ConnOpened() {
	RegisterMetrics()
	activeConns.Inc()
}

func ConnClosed() {
	RegisterMetrics()
	activeConns.Dec()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
