package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	transferBytes  *prometheus.CounterVec
	connectedState prometheus.Gauge
	sessionsTotal  prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			actionsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "actions_total",
					Help: "Total actions processed by command and response status.",
				},
				[]string{"command", "status"},
			),
			actionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "action_duration_seconds",
					Help:    "Action handling duration in seconds by command.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"command"},
			),
			transferBytes: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "transfer_bytes_total",
					Help: "Total file transfer bytes by direction.",
				},
				[]string{"direction"},
			),
			connectedState: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "connected",
					Help: "Control connection state (1 connected, 0 disconnected).",
				},
			),
			sessionsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_total",
					Help: "Total control sessions established.",
				},
			),
		}

		prometheus.MustRegister(
			m.actionsTotal,
			m.actionDuration,
			m.transferBytes,
			m.connectedState,
			m.sessionsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// Transfer directions for RecordTransfer.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

func RecordAction(command, status string, duration time.Duration) {
	m := getMetrics()
	m.actionsTotal.WithLabelValues(command, status).Inc()
	m.actionDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordTransfer(direction string, bytes int) {
	m := getMetrics()
	m.transferBytes.WithLabelValues(direction).Add(float64(bytes))
}

func SetConnected(connected bool) {
	m := getMetrics()
	value := 0.0
	if connected {
		value = 1.0
	}
	m.connectedState.Set(value)
}

func RecordSessionStart() {
	m := getMetrics()
	m.sessionsTotal.Inc()
}
