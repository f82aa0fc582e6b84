package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveTransaction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveTransaction("agent_creation", 50)
	m.ObserveTransaction("agent_creation", 50)
	m.ObserveTransaction("conversation", -5)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transactions.WithLabelValues("agent_creation")))
	assert.Equal(t, float64(100), testutil.ToFloat64(m.pointsAwarded.WithLabelValues("agent_creation")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transactions.WithLabelValues("conversation")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.pointsAwarded.WithLabelValues("conversation")))
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAchievementUnlocked("first-agent")
	m.ObserveLevelUp("Scout")
	m.ObserveError("add_points", "validation")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.achievementsUnlocked.WithLabelValues("first-agent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.levelUps.WithLabelValues("Scout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operationErrors.WithLabelValues("add_points", "validation")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransaction("feed_post", 1)
		m.ObserveAchievementUnlocked("x")
		m.ObserveLevelUp("Sage")
		m.ObserveError("op", "kind")
	})
}
