package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	groupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepys",
			Name:      "groups_total",
			Help:      "Message groups processed, by stop reason.",
		},
		[]string{"result"},
	)
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepys",
			Name:      "messages_total",
			Help:      "Messages decoded from groups, by code and outcome.",
		},
		[]string{"code", "outcome"},
	)
	groupBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pepys",
			Name:      "group_bytes",
			Help:      "Size of message groups on the wire.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"direction"},
	)
	groupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pepys",
			Name:      "group_duration_seconds",
			Help:      "Time spent dispatching one message group.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pepys",
			Name:      "connections_active",
			Help:      "Connections currently being served.",
		},
	)
	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepys",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	adminDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pepys",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			groupsTotal,
			messagesTotal,
			groupBytes,
			groupDuration,
			connectionsActive,
			adminRequests,
			adminDuration,
		)
	})
}

// RecordGroup counts one processed group and its sizes in both directions.
func RecordGroup(result string, inBytes, outBytes int, duration time.Duration) {
	RegisterMetrics()
	groupsTotal.WithLabelValues(result).Inc()
	groupBytes.WithLabelValues("in").Observe(float64(inBytes))
	groupBytes.WithLabelValues("out").Observe(float64(outBytes))
	groupDuration.Observe(duration.Seconds())
}

func RecordMessage(code, outcome string) {
	RegisterMetrics()
	messagesTotal.WithLabelValues(code, outcome).Inc()
}

func ConnectionOpened() {
	RegisterMetrics()
	connectionsActive.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	connectionsActive.Dec()
}

func RecordAdminRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	adminRequests.WithLabelValues(method, path, statusLabel).Inc()
	adminDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
