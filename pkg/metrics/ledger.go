package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts stock ledger writes and the alerts raised from them.
type LedgerMetrics struct {
	movements  *prometheus.CounterVec
	units      *prometheus.CounterVec
	backorders *prometheus.CounterVec
	alerts     *prometheus.CounterVec
	conflicts  prometheus.Counter
}

// NewLedgerMetrics registers the ledger counters on reg. A nil registerer yields
// a no-op collector.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movements_total",
			Help:      "Stock movements appended, by movement type.",
		}, []string{"type"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_total",
			Help:      "Units moved, by movement type.",
		}, []string{"type"}),
		backorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "backorders_total",
			Help:      "Backorder rows written, by outcome (created, updated, fulfilled, cancelled).",
		}, []string{"outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "raised_total",
			Help:      "Stock alert notifications created, by alert type.",
		}, []string{"type"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "version_conflicts_total",
			Help:      "Conditional ledger updates rejected because the row version moved.",
		}),
	}
	reg.MustRegister(m.movements, m.units, m.backorders, m.alerts, m.conflicts)
	return m
}

// ObserveMovement counts one movement of qty units.
func (m *LedgerMetrics) ObserveMovement(movementType string, qty int) {
	if m == nil || m.movements == nil {
		return
	}
	label := normalizeLabel(movementType)
	m.movements.WithLabelValues(label).Inc()
	if qty < 0 {
		qty = -qty
	}
	m.units.WithLabelValues(label).Add(float64(qty))
}

func (m *LedgerMetrics) IncBackorder(outcome string) {
	m.AddBackorders(outcome, 1)
}

// AddBackorders counts n backorder rows written with the same outcome.
func (m *LedgerMetrics) AddBackorders(outcome string, n int64) {
	if m == nil || m.backorders == nil || n <= 0 {
		return
	}
	m.backorders.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

func (m *LedgerMetrics) IncAlert(alertType string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

func (m *LedgerMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}
