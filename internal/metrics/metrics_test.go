package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuth(t *testing.T) {
	m := New()

	m.RecordAuth("login", OutcomeSuccess)
	m.RecordAuth("login", OutcomeRejected)
	m.RecordAuth("login", OutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("register", OutcomeError)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAuth("register", OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `phone_auth_attempts_total{operation="register",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
