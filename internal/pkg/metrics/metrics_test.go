package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordEnrollment("course-1")
	m.RecordEnrollment("course-1")
	m.RecordModuleCompletion(true)
	m.RecordModuleCompletion(false)
	m.RecordCacheLookup(true)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EnrollmentsCreated.WithLabelValues("course-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModuleCompletions.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModuleCompletions.WithLabelValues("uncompleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/courses", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEnrollment("c")
		m.RecordModuleCompletion(true)
		m.RecordCacheLookup(false)
		m.RecordHTTPRequest("GET", "/", 200, 0)
	})
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := New()
	m.RecordEnrollment("course-1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "coursepath_enrollments_created_total"))
}
