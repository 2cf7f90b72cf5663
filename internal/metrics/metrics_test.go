package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/industries", http.MethodGet, "200", 15*time.Millisecond)
	m.Computation("money_flow", OutcomeOK)
	m.Computation("money_flow", OutcomeOK)
	m.Window(true, false)
	m.Window(true, true)
	m.SnapshotRows("money_flow", 120)
	m.CacheLookup("hit")

	out := scrape(t, m)
	assert.Contains(t, out, `hegemony_computations_total{operation="money_flow",outcome="ok"} 2`)
	assert.Contains(t, out, `hegemony_window_resolutions_total{kind="fallback"} 1`)
	assert.Contains(t, out, `hegemony_window_resolutions_total{kind="degenerate"} 1`)
	assert.Contains(t, out, `hegemony_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, out, `hegemony_http_request_duration_seconds_count{code="200",method="GET",route="/api/industries"} 1`)
	assert.Contains(t, out, `hegemony_snapshot_rows_count{operation="money_flow"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.Computation("rank", OutcomeError)

	assert.Contains(t, scrape(t, a), `outcome="error"`)
	assert.NotContains(t, scrape(t, b), `outcome="error"`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Computation("rank", OutcomeOK)
		m.Window(false, false)
		m.ObserveRequest("/", http.MethodGet, "200", time.Second)
		m.SnapshotRows("rank", 1)
		m.CacheLookup("miss")
	})
}
