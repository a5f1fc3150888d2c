package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderRequest(t *testing.T) {
	assert := assert.New(t)

	_, m := NewRegistry()

	m.RecordProviderRequest("user", 200, 10*time.Millisecond)
	m.RecordProviderRequest("user", 200, 10*time.Millisecond)
	m.RecordProviderRequest("org_member", 404, time.Millisecond)
	m.RecordProviderRequest("team_membership", 0, time.Millisecond)

	assert.Equal(2.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("user", "200")))
	assert.Equal(1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("org_member", "404")))
	assert.Equal(1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("team_membership", "error")))
}

func TestRecordOutcome(t *testing.T) {
	assert := assert.New(t)

	_, m := NewRegistry()

	m.RecordOutcome("invited")
	m.RecordOutcome("member")
	m.RecordOutcome("member")

	assert.Equal(1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("invited")))
	assert.Equal(2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("member")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordProviderRequest("user", 200, time.Millisecond)
		m.RecordOutcome("member")
	})
}

func TestHandlerFor(t *testing.T) {
	assert := assert.New(t)

	reg, m := NewRegistry()
	m.RecordOutcome("forbidden")

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), `jazzhands_membership_outcomes_total{outcome="forbidden"} 1`)
}
