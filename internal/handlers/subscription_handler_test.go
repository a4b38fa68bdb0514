package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

const testSubscriptionID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a63"

// --- mock subscription service ---

type mockSubscriptionService struct {
	createFn   func(userID string, in services.SubscriptionInput) (*models.Subscription, error)
	listFn     func(userID string, page pagination.PageRequest, status *models.SubscriptionStatus) (*pagination.PageResponse[models.Subscription], error)
	getFn      func(userID, id string) (*models.Subscription, error)
	updateFn   func(userID, id string, upd services.SubscriptionUpdate) (*models.Subscription, error)
	pauseFn    func(userID, id string) (*models.Subscription, error)
	resumeFn   func(userID, id string, today time.Time) (*models.Subscription, error)
	cancelFn   func(userID, id string) (*models.Subscription, error)
	deleteFn   func(userID, id string) error
	upcomingFn func(userID string, today time.Time, days int) ([]models.Subscription, error)
	costFn     func(userID string) ([]services.CurrencyCost, error)
}

func (m *mockSubscriptionService) CreateSubscription(userID string, in services.SubscriptionInput) (*models.Subscription, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.Subscription{}, nil
}

func (m *mockSubscriptionService) GetUserSubscriptions(userID string, page pagination.PageRequest, status *models.SubscriptionStatus) (*pagination.PageResponse[models.Subscription], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, status)
	}
	resp := pagination.NewPageResponse([]models.Subscription{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockSubscriptionService) GetSubscriptionByID(userID, id string) (*models.Subscription, error) {
	if m.getFn != nil {
		return m.getFn(userID, id)
	}
	return &models.Subscription{}, nil
}

func (m *mockSubscriptionService) UpdateSubscription(userID, id string, upd services.SubscriptionUpdate) (*models.Subscription, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, upd)
	}
	return &models.Subscription{}, nil
}

func (m *mockSubscriptionService) PauseSubscription(userID, id string) (*models.Subscription, error) {
	if m.pauseFn != nil {
		return m.pauseFn(userID, id)
	}
	return &models.Subscription{Status: models.SubscriptionStatusPaused}, nil
}

func (m *mockSubscriptionService) ResumeSubscription(userID, id string, today time.Time) (*models.Subscription, error) {
	if m.resumeFn != nil {
		return m.resumeFn(userID, id, today)
	}
	return &models.Subscription{Status: models.SubscriptionStatusActive}, nil
}

func (m *mockSubscriptionService) CancelSubscription(userID, id string) (*models.Subscription, error) {
	if m.cancelFn != nil {
		return m.cancelFn(userID, id)
	}
	return &models.Subscription{Status: models.SubscriptionStatusCancelled}, nil
}

func (m *mockSubscriptionService) DeleteSubscription(userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockSubscriptionService) GetUpcomingRenewals(userID string, today time.Time, days int) ([]models.Subscription, error) {
	if m.upcomingFn != nil {
		return m.upcomingFn(userID, today, days)
	}
	return []models.Subscription{}, nil
}

func (m *mockSubscriptionService) GetMonthlyCost(userID string) ([]services.CurrencyCost, error) {
	if m.costFn != nil {
		return m.costFn(userID)
	}
	return []services.CurrencyCost{}, nil
}

var _ services.SubscriptionServicer = (*mockSubscriptionService)(nil)

func setupSubscriptionRouter(handler *SubscriptionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/subscriptions", handler.CreateSubscription)
	auth.GET("/subscriptions", handler.GetSubscriptions)
	auth.GET("/subscriptions/upcoming", handler.GetUpcomingRenewals)
	auth.GET("/subscriptions/monthly-cost", handler.GetMonthlyCost)
	auth.GET("/subscriptions/:id", handler.GetSubscription)
	auth.PUT("/subscriptions/:id", handler.UpdateSubscription)
	auth.DELETE("/subscriptions/:id", handler.DeleteSubscription)
	auth.POST("/subscriptions/:id/pause", handler.PauseSubscription)
	auth.POST("/subscriptions/:id/resume", handler.ResumeSubscription)
	auth.POST("/subscriptions/:id/cancel", handler.CancelSubscription)
	return r
}

func TestSubscriptionHandler_CreateSubscription(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.SubscriptionInput
		svc := &mockSubscriptionService{
			createFn: func(userID string, in services.SubscriptionInput) (*models.Subscription, error) {
				got = in
				return &models.Subscription{Base: models.Base{ID: testSubscriptionID}, UserID: userID, ServiceName: in.ServiceName, Cost: in.Cost}, nil
			},
		}
		r := setupSubscriptionRouter(NewSubscriptionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions",
			`{"service_name":"Netflix","cost":15.49,"billing_cycle":"monthly","start_date":"2025-01-31","auto_renewal":true}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Cost.Equal(decimal.RequireFromString("15.49")) {
			t.Errorf("expected cost 15.49, got %s", got.Cost)
		}
		if !got.AutoRenewal || got.NextBillingDate != nil {
			t.Errorf("unexpected input %+v", got)
		}
	})

	t.Run("returns 400 on unknown billing cycle", func(t *testing.T) {
		r := setupSubscriptionRouter(NewSubscriptionHandler(&mockSubscriptionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions",
			`{"service_name":"Netflix","cost":"15.49","billing_cycle":"fortnightly","start_date":"2025-01-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing start date", func(t *testing.T) {
		r := setupSubscriptionRouter(NewSubscriptionHandler(&mockSubscriptionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions", `{"service_name":"Netflix","cost":"15.49"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSubscriptionHandler_StatusChanges(t *testing.T) {
	t.Run("pause returns paused subscription", func(t *testing.T) {
		r := setupSubscriptionRouter(NewSubscriptionHandler(&mockSubscriptionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions/"+testSubscriptionID+"/pause", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		sub := parseJSON(t, rec)["subscription"].(map[string]interface{})
		if sub["status"] != "paused" {
			t.Errorf("expected paused, got %v", sub["status"])
		}
	})

	t.Run("resume passes the reference day", func(t *testing.T) {
		var gotDay time.Time
		svc := &mockSubscriptionService{
			resumeFn: func(_, _ string, today time.Time) (*models.Subscription, error) {
				gotDay = today
				return &models.Subscription{Status: models.SubscriptionStatusActive}, nil
			},
		}
		r := setupSubscriptionRouter(NewSubscriptionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions/"+testSubscriptionID+"/resume?as_of=2025-06-10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotDay.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2025-06-10, got %v", gotDay)
		}
	})

	t.Run("cancel twice returns 409", func(t *testing.T) {
		svc := &mockSubscriptionService{
			cancelFn: func(_, _ string) (*models.Subscription, error) {
				return nil, apperrors.ErrInvalidStatusChange
			},
		}
		r := setupSubscriptionRouter(NewSubscriptionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions/"+testSubscriptionID+"/cancel", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_STATUS_CHANGE")
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupSubscriptionRouter(NewSubscriptionHandler(&mockSubscriptionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/subscriptions/abc/pause", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSubscriptionHandler_GetUpcomingRenewals(t *testing.T) {
	t.Run("defaults to seven days", func(t *testing.T) {
		var gotDays int
		svc := &mockSubscriptionService{
			upcomingFn: func(_ string, _ time.Time, days int) ([]models.Subscription, error) {
				gotDays = days
				return []models.Subscription{}, nil
			},
		}
		r := setupSubscriptionRouter(NewSubscriptionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/subscriptions/upcoming", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotDays != 7 {
			t.Errorf("expected 7 days, got %d", gotDays)
		}
	})

	t.Run("returns 400 on negative days", func(t *testing.T) {
		r := setupSubscriptionRouter(NewSubscriptionHandler(&mockSubscriptionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/subscriptions/upcoming?days=-1", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSubscriptionHandler_GetMonthlyCost(t *testing.T) {
	t.Run("returns totals per currency", func(t *testing.T) {
		svc := &mockSubscriptionService{
			costFn: func(_ string) ([]services.CurrencyCost, error) {
				return []services.CurrencyCost{{Currency: "USD", Monthly: decimal.RequireFromString("25.48"), Count: 2}}, nil
			},
		}
		r := setupSubscriptionRouter(NewSubscriptionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/subscriptions/monthly-cost", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		totals := parseJSON(t, rec)["totals"].([]interface{})
		first := totals[0].(map[string]interface{})
		if first["monthly"] != "25.48" {
			t.Errorf("expected monthly \"25.48\", got %v", first["monthly"])
		}
	})
}
