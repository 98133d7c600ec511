package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.ObserveModelLoad(nil)
		m.ObserveGeneration(time.Second)
		m.ObserveChatTurn(errors.New("x"))
		m.ObserveQuery("total_orders", nil)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveQuery("total_orders", nil)
	m.ObserveQuery("total_orders", errors.New("down"))
	m.ObserveQuery("total_orders", nil)
	m.ObserveChatTurn(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyticsQueries.WithLabelValues("total_orders", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyticsQueries.WithLabelValues("total_orders", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatTurns.WithLabelValues("ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/health", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `market_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
