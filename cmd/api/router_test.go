package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lifeos/internal/bootstrap"
	"lifeos/internal/config"
	"lifeos/internal/database"
	"lifeos/internal/logger"
	"lifeos/internal/middleware"
	"lifeos/internal/renewal"
	"lifeos/internal/testutil"
	"lifeos/internal/validator"
)

const (
	testJobKey        = "test-job-key"
	testWebhookSecret = "test-webhook-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// testApp holds the full application stack on an in-memory database.
type testApp struct {
	router *gin.Engine
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := &config.Config{
		DefaultTZ:             "UTC",
		JobAPIKey:             testJobKey,
		TelegramWebhookSecret: testWebhookSecret,
		MetricsEnable:         true,
	}
	app := bootstrap.Wire(cfg, database.NewManagerFromDB(db), nil)
	return &testApp{router: newRouter(app)}
}

func (a *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) runJob(t *testing.T, job, date string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/jobs/"+job+"?date="+date, nil)
	req.Header.Set(middleware.JobKeyHeader, testJobKey)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("job %s failed: %d %s", job, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["report"].(map[string]interface{})
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a user and returns the access token.
func (a *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := a.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// create posts body and returns the id of the object under key.
func (a *testApp) create(t *testing.T, path, body, token, key string) string {
	t.Helper()
	rec := a.request("POST", path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)[key].(map[string]interface{})["id"].(string)
}

func (a *testApp) totalItems(t *testing.T, path, token string) float64 {
	t.Helper()
	rec := a.request("GET", path, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["total_items"].(float64)
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "auth@test.com")

	rec := app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAutoRenewalFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "renew@test.com")

	categoryID := app.create(t, "/api/v1/categories", `{"name":"Streaming","type":"expense"}`, token, "category")
	subID := app.create(t, "/api/v1/subscriptions", fmt.Sprintf(
		`{"service_name":"Netflix","category_id":%q,"cost":"15.49","billing_cycle":"monthly","start_date":"2025-01-31","auto_renewal":true}`,
		categoryID), token, "subscription")
	app.create(t, "/api/v1/budgets", fmt.Sprintf(
		`{"category_id":%q,"name":"Streaming","amount":"20","start_date":"2025-01-01","end_date":"2025-01-31"}`,
		categoryID), token, "budget")

	report := app.runJob(t, "auto-renewals", "2025-01-31")
	if report["processed"] != float64(1) {
		t.Fatalf("expected 1 expense generated, got %v", report)
	}

	// Same day again: nothing new.
	report = app.runJob(t, "auto-renewals", "2025-01-31")
	if report["processed"] != float64(0) {
		t.Errorf("expected rerun to generate nothing, got %v", report)
	}

	tagPath := "/api/v1/expenses?tag=" + renewal.SubscriptionTag(subID)
	if n := app.totalItems(t, tagPath, token); n != 1 {
		t.Errorf("expected 1 generated expense, got %.0f", n)
	}

	rec := app.request("GET", "/api/v1/subscriptions/"+subID, "", token)
	sub := parseJSON(t, rec)["subscription"].(map[string]interface{})
	if next := sub["next_billing_date"].(string); !strings.HasPrefix(next, "2025-02-28") {
		t.Errorf("expected next billing 2025-02-28, got %s", next)
	}

	rec = app.request("GET", "/api/v1/budgets/overview?as_of=2025-01-31", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	budgets := parseJSON(t, rec)["budgets"].([]interface{})
	if len(budgets) != 1 {
		t.Fatalf("expected one budget in overview, got %d", len(budgets))
	}
	status := budgets[0].(map[string]interface{})
	spent := decimal.RequireFromString(status["spent"].(string))
	if !spent.Equal(decimal.RequireFromString("15.49")) {
		t.Errorf("expected 15.49 spent, got %s", spent)
	}
	if status["status"] != "on_track" {
		t.Errorf("expected on_track at 77%%, got %v", status["status"])
	}
}

func TestRenewalReminderFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "remind@test.com")

	app.create(t, "/api/v1/subscriptions",
		`{"service_name":"Gym","cost":"40","billing_cycle":"monthly","start_date":"2025-03-04"}`, token, "subscription")

	// Three days out matches the default offsets.
	report := app.runJob(t, "renewal-reminders", "2025-03-01")
	if report["processed"] != float64(1) {
		t.Fatalf("expected 1 reminder sent, got %v", report)
	}
	report = app.runJob(t, "renewal-reminders", "2025-03-01")
	if report["processed"] != float64(0) {
		t.Errorf("expected no duplicate reminder, got %v", report)
	}

	// Two days out is not an offset.
	report = app.runJob(t, "renewal-reminders", "2025-03-02")
	if report["processed"] != float64(0) {
		t.Errorf("expected no reminder two days out, got %v", report)
	}

	if n := app.totalItems(t, "/api/v1/notifications?unread=true", token); n != 1 {
		t.Errorf("expected 1 unread notification, got %.0f", n)
	}

	rec := app.request("POST", "/api/v1/notifications/read-all", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := app.totalItems(t, "/api/v1/notifications?unread=true", token); n != 0 {
		t.Errorf("expected no unread notifications, got %.0f", n)
	}
}

func TestUtilityBillPaidFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "bills@test.com")

	billID := app.create(t, "/api/v1/utility-bills",
		`{"utility_type":"electricity","provider":"PowerCo","amount":"88.20","billing_period_start":"2025-01-01",`+
			`"billing_period_end":"2025-01-31","due_date":"2025-02-15"}`, token, "utility_bill")

	tagPath := "/api/v1/expenses?tag=" + renewal.UtilityBillTag(billID)
	if n := app.totalItems(t, tagPath, token); n != 0 {
		t.Fatalf("expected no expense for a pending bill, got %.0f", n)
	}

	for i := 0; i < 2; i++ {
		rec := app.request("POST", "/api/v1/utility-bills/"+billID+"/pay", `{"payment_date":"2025-02-10"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("pay %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	if n := app.totalItems(t, tagPath, token); n != 1 {
		t.Errorf("expected exactly one expense for the paid bill, got %.0f", n)
	}
}

func TestProtectedTriggers(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/jobs/daily", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for job without key, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/telegram/webhook", `{"update_id":1}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for webhook without secret, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected healthy, got %d", rec.Code)
	}
}
