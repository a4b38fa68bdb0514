package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(JobRuns.WithLabelValues("auto_renewals", "ok"))
	JobRuns.WithLabelValues("auto_renewals", "ok").Inc()
	after := testutil.ToFloat64(JobRuns.WithLabelValues("auto_renewals", "ok"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestHandler(t *testing.T) {
	NotificationsSent.WithLabelValues("database", "sent").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lifeos_notifications_total") {
		t.Error("expected lifeos_notifications_total in exposition")
	}
}
