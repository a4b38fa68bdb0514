package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSecretRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doRequest(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
	if value != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestJobAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{name: "valid_api_key", configuredKey: "job-key", requestKey: "job-key", wantStatus: http.StatusOK},
		{name: "invalid_api_key", configuredKey: "job-key", requestKey: "wrong", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "missing_api_key", configuredKey: "job-key", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "not_configured", requestKey: "any", wantStatus: http.StatusServiceUnavailable, wantErrorCode: "JOB_API_NOT_CONFIGURED"},
		{name: "partial_match_rejected", configuredKey: "job-key", requestKey: "job", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupSecretRouter(JobAuthMiddleware(tt.configuredKey)), JobKeyHeader, tt.requestKey)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErrorCode != "" {
				if code := errorCode(t, rec); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
			}
			if tt.wantStatus == http.StatusOK {
				if status, _ := parseBody(t, rec)["status"].(string); status != "ok" {
					t.Errorf("expected handler to be reached, got status = %q", status)
				}
			}
		})
	}
}

func TestTelegramWebhookAuth(t *testing.T) {
	t.Run("valid_secret", func(t *testing.T) {
		rec := doRequest(setupSecretRouter(TelegramWebhookAuth("s3cret")), TelegramSecretHeader, "s3cret")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("api_key_header_is_not_accepted", func(t *testing.T) {
		rec := doRequest(setupSecretRouter(TelegramWebhookAuth("s3cret")), JobKeyHeader, "s3cret")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("not_configured", func(t *testing.T) {
		rec := doRequest(setupSecretRouter(TelegramWebhookAuth("")), TelegramSecretHeader, "x")
		if code := errorCode(t, rec); code != "TELEGRAM_NOT_CONFIGURED" {
			t.Errorf("error code = %q", code)
		}
	})
}
