package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cicdguard/backend/pkg/render"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ render.Observer = (*Metrics)(nil)

func TestObserverUpdatesCollectors(t *testing.T) {
	m := New()

	m.ReloadStarted()
	m.ReloadStarted()
	m.ReloadRendered(0.05, 12, 7)
	m.ReloadDiscarded()
	m.ReloadFailed("transport")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReloadsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReloadsRendered))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReloadsDiscarded))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.GraphNodes))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.GraphEdges))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReloadErrors.WithLabelValues("transport")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ReloadStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cicdguard_render_reloads_started_total 1")
}
