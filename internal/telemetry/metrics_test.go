// ABOUTME: Tests for Prometheus instrumentation.
// ABOUTME: Verifies counters move and a nil Metrics is a no-op.
package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.Submitted(ModeOnline)
	m.Submitted(ModeQueued)
	m.Submitted(ModeQueued)
	m.SyncPass(2, 1)
	m.SetPending(3)
	m.SetOnline(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submitted.WithLabelValues(ModeOnline)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitted.WithLabelValues(ModeQueued)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncEntries.WithLabelValues(OutcomeSynced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncEntries.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.online))

	m.SetOnline(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.online))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.SetPending(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "caretrack_pending_sessions 4"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Submitted(ModeOnline)
	m.SyncPass(1, 1)
	m.SetPending(1)
	m.SetOnline(true)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
