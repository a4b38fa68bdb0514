package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/metrics"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app_error", apperrors.ErrSubscriptionNotFound, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND"},
		{"wrapped_app_error", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db gone")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestErrorHandler_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) { _ = c.Error(apperrors.ErrBudgetNotFound) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(rec, req)

	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	if errObj["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", errObj["request_id"])
	}
}

func TestErrorHandler_KeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "INVALID_STATUS_CHANGE"}})
		_ = c.Error(errors.New("already handled"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_STATUS_CHANGE" {
		t.Errorf("code = %q, want INVALID_STATUS_CHANGE", code)
	}
}

func TestErrorHandler_CountsByCode(t *testing.T) {
	counter := metrics.APIErrors.WithLabelValues("UTILITY_BILL_NOT_FOUND")
	before := promtest.ToFloat64(counter)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) { _ = c.Error(apperrors.ErrUtilityBillNotFound) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if got := promtest.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected counter to increase by 1, got %v", got)
	}
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "fixed-id")
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("expected incoming request ID to be echoed, got %q", got)
	}
}
