// Package observability exposes the engine's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agp"

// Metrics bundles the engine collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	pointsAwarded        *prometheus.CounterVec
	transactions         *prometheus.CounterVec
	achievementsUnlocked *prometheus.CounterVec
	levelUps             *prometheus.CounterVec
	operationErrors      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: type (ledger transaction type)
		pointsAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "awarded_total",
			Help:      "Sum of points posted to the ledger",
		}, []string{"type"}),
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "transactions_total",
			Help:      "Ledger entries committed",
		}, []string{"type"}),
		// Labels: achievement (catalog id)
		achievementsUnlocked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "achievements",
			Name:      "unlocked_total",
			Help:      "Achievements unlocked",
		}, []string{"achievement"}),
		// Labels: class (agent class after the level-up)
		levelUps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agents",
			Name:      "level_ups_total",
			Help:      "Agent level increases",
		}, []string{"class"}),
		// Labels: operation, kind (not_found, validation, persistence)
		operationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Failed engine operations by kind",
		}, []string{"operation", "kind"}),
	}
}

// ObserveTransaction records one committed ledger entry.
func (m *Metrics) ObserveTransaction(txType string, amount int64) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(txType).Inc()
	if amount > 0 {
		m.pointsAwarded.WithLabelValues(txType).Add(float64(amount))
	}
}

func (m *Metrics) ObserveAchievementUnlocked(id string) {
	if m == nil {
		return
	}
	m.achievementsUnlocked.WithLabelValues(id).Inc()
}

func (m *Metrics) ObserveLevelUp(class string) {
	if m == nil {
		return
	}
	m.levelUps.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveError(operation, kind string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, kind).Inc()
}
