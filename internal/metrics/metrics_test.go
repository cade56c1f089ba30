package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAttemptRecorded(t *testing.T) {
	m := New()
	m.AttemptRecorded(domain.Attempt{Percentage: 75})
	m.AttemptRecorded(domain.Attempt{Percentage: 100})

	if got := testutil.ToFloat64(m.attempts); got != 2 {
		t.Fatalf("expected 2 attempts, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/attempts", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `http_requests_total{endpoint="/api/attempts",method="GET",status="200"} 1`) {
		t.Fatalf("expected request counter in output, got:\n%s", body)
	}
}
