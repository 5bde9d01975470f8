package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/docqueue/constants"
)

// Metrics are the Prometheus collectors for the queue worker. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	claims      prometheus.Counter
	outcomes    *prometheus.CounterVec
	duration    prometheus.Histogram
	storeErrors *prometheus.CounterVec
	alive       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		claims: f.NewCounter(prometheus.CounterOpts{
			Namespace: "docqueue",
			Name:      "documents_claimed_total",
			Help:      "Documents claimed from the queue.",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqueue",
			Name:      "documents_finished_total",
			Help:      "Documents that reached a terminal state, by status and extraction method.",
		}, []string{"status", "method"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqueue",
			Name:      "document_processing_seconds",
			Help:      "Wall time spent processing one claimed document.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600},
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqueue",
			Name:      "store_errors_total",
			Help:      "Store operations that failed, by operation.",
		}, []string{"op"}),
		alive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "docqueue",
			Name:      "worker_alive",
			Help:      "1 while the embedded poller is running.",
		}),
	}
}

func (m *Metrics) claimed() {
	if m != nil {
		m.claims.Inc()
	}
}

func (m *Metrics) finished(status constants.ProcessingStatus, method constants.ExtractMethod, d time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = constants.MethodNone
	}
	m.outcomes.WithLabelValues(string(status), string(method)).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) storeError(op string) {
	if m != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) setAlive(alive bool) {
	if m == nil {
		return
	}
	if alive {
		m.alive.Set(1)
	} else {
		m.alive.Set(0)
	}
}
