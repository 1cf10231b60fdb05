package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveAward("awarded", 10*time.Millisecond)
	m.ObserveAward("conflict", time.Millisecond)
	m.ObserveAward("conflict", time.Millisecond)
	m.RateLimitDecision("login", "denied")
	m.NotificationDelivery("failed")
	m.NotificationDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.awardAttempts.WithLabelValues("awarded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.awardAttempts.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitDecisions.WithLabelValues("login", "denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDropped))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveAward("awarded", time.Second)
		m.RateLimitDecision("award", "allowed")
		m.NotificationDelivery("delivered")
		m.NotificationDropped()
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAward("awarded", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bidaward_award_attempts_total{outcome="awarded"} 1`))
}
