package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records counters for stock movements, transfer transitions, and
// idempotent replays.
type StockMetrics struct {
	movements   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	replays     prometheus.Counter
	fifoLatency *prometheus.HistogramVec
}

// NewStockMetrics registers the platform metrics on the provided registerer.
// A nil registerer yields a no-op collector, which tests rely on.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Ledger entries written, labeled by entry kind.",
	}, []string{"kind"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_transitions_total",
		Help: "Transfer state machine transitions, labeled by target status.",
	}, []string{"status"})
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idempotent_replays_total",
		Help: "Requests served from a stored idempotency record.",
	})
	fifoLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fifo_allocation_duration_seconds",
		Help:    "Duration of FIFO lot allocation passes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(movements, transitions, replays, fifoLatency)
	return &StockMetrics{
		movements:   movements,
		transitions: transitions,
		replays:     replays,
		fifoLatency: fifoLatency,
	}
}

// IncMovement counts a ledger entry of the given kind.
func (m *StockMetrics) IncMovement(kind string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTransition counts a transfer moving into the given status.
func (m *StockMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReplay counts a request answered from the idempotency store.
func (m *StockMetrics) IncReplay() {
	if m == nil || m.replays == nil {
		return
	}
	m.replays.Inc()
}

// ObserveAllocation records how long a FIFO walk took for the named operation.
func (m *StockMetrics) ObserveAllocation(operation string, d time.Duration) {
	if m == nil || m.fifoLatency == nil {
		return
	}
	m.fifoLatency.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
