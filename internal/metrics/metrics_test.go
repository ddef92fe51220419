package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "GET /users", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "GET /users", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "GET /users", http.StatusUnauthorized, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /users", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /users", "401")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordLogin(LoginSuccess)
	m.RecordLogin(LoginInvalid)
	m.RecordLogin(LoginInvalid)
	m.RecordRegistration()
	m.TokenRejected()
	m.RecordMessageSent()
	m.RecordMessageSent()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensRejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesSent))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordLogin(LoginError)
		m.RecordRegistration()
		m.TokenRejected()
		m.RecordMessageSent()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordRegistration()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "messagely_registrations_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
