package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

const testBillID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a64"

// --- mock utility bill service ---

type mockUtilityBillService struct {
	createFn   func(userID string, in services.UtilityBillInput) (*models.UtilityBill, error)
	listFn     func(userID string, page pagination.PageRequest, status *models.PaymentStatus) (*pagination.PageResponse[models.UtilityBill], error)
	getFn      func(userID, billID string) (*models.UtilityBill, error)
	updateFn   func(userID, billID string, upd services.UtilityBillUpdate) (*models.UtilityBill, error)
	markPaidFn func(userID, billID string, paymentDate time.Time) (*models.UtilityBill, error)
	deleteFn   func(userID, billID string) error
}

func (m *mockUtilityBillService) CreateUtilityBill(userID string, in services.UtilityBillInput) (*models.UtilityBill, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.UtilityBill{}, nil
}

func (m *mockUtilityBillService) GetUserUtilityBills(userID string, page pagination.PageRequest, status *models.PaymentStatus) (*pagination.PageResponse[models.UtilityBill], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, status)
	}
	resp := pagination.NewPageResponse([]models.UtilityBill{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockUtilityBillService) GetUtilityBillByID(userID, billID string) (*models.UtilityBill, error) {
	if m.getFn != nil {
		return m.getFn(userID, billID)
	}
	return &models.UtilityBill{}, nil
}

func (m *mockUtilityBillService) UpdateUtilityBill(userID, billID string, upd services.UtilityBillUpdate) (*models.UtilityBill, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, billID, upd)
	}
	return &models.UtilityBill{}, nil
}

func (m *mockUtilityBillService) MarkPaid(userID, billID string, paymentDate time.Time) (*models.UtilityBill, error) {
	if m.markPaidFn != nil {
		return m.markPaidFn(userID, billID, paymentDate)
	}
	return &models.UtilityBill{PaymentStatus: models.PaymentStatusPaid, PaymentDate: &paymentDate}, nil
}

func (m *mockUtilityBillService) DeleteUtilityBill(userID, billID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, billID)
	}
	return nil
}

var _ services.UtilityBillServicer = (*mockUtilityBillService)(nil)

func setupUtilityBillRouter(handler *UtilityBillHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/utility-bills", handler.CreateUtilityBill)
	auth.GET("/utility-bills", handler.GetUtilityBills)
	auth.GET("/utility-bills/:id", handler.GetUtilityBill)
	auth.PUT("/utility-bills/:id", handler.UpdateUtilityBill)
	auth.POST("/utility-bills/:id/pay", handler.MarkPaid)
	auth.DELETE("/utility-bills/:id", handler.DeleteUtilityBill)
	return r
}

func TestUtilityBillHandler_CreateUtilityBill(t *testing.T) {
	t.Run("returns 201 with parsed dates", func(t *testing.T) {
		var got services.UtilityBillInput
		svc := &mockUtilityBillService{
			createFn: func(_ string, in services.UtilityBillInput) (*models.UtilityBill, error) {
				got = in
				return &models.UtilityBill{Base: models.Base{ID: testBillID}, Provider: in.Provider, Amount: in.Amount}, nil
			},
		}
		r := setupUtilityBillRouter(NewUtilityBillHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills",
			`{"utility_type":"water","provider":"City Water","amount":"42.10","billing_period_start":"2025-01-01",`+
				`"billing_period_end":"2025-01-31","due_date":"2025-02-15","payment_status":"paid","payment_date":"2025-02-03"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.PaymentDate == nil || got.PaymentDate.Day() != 3 {
			t.Errorf("expected payment date 2025-02-03, got %v", got.PaymentDate)
		}
		if got.DueDate.Month() != time.February || got.DueDate.Day() != 15 {
			t.Errorf("expected due 2025-02-15, got %v", got.DueDate)
		}
	})

	t.Run("returns 400 on unknown utility type", func(t *testing.T) {
		r := setupUtilityBillRouter(NewUtilityBillHandler(&mockUtilityBillService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills",
			`{"utility_type":"heating-oil","provider":"X","amount":"1","billing_period_start":"2025-01-01",`+
				`"billing_period_end":"2025-01-31","due_date":"2025-02-15"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed due date", func(t *testing.T) {
		r := setupUtilityBillRouter(NewUtilityBillHandler(&mockUtilityBillService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills",
			`{"provider":"X","amount":"1","billing_period_start":"2025-01-01","billing_period_end":"2025-01-31","due_date":"soon"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestUtilityBillHandler_MarkPaid(t *testing.T) {
	t.Run("uses given payment date", func(t *testing.T) {
		var got time.Time
		svc := &mockUtilityBillService{
			markPaidFn: func(_, _ string, paymentDate time.Time) (*models.UtilityBill, error) {
				got = paymentDate
				return &models.UtilityBill{PaymentStatus: models.PaymentStatusPaid}, nil
			},
		}
		r := setupUtilityBillRouter(NewUtilityBillHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills/"+testBillID+"/pay", `{"payment_date":"2025-02-10"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Equal(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2025-02-10, got %v", got)
		}
	})

	t.Run("defaults to today without a body", func(t *testing.T) {
		var got time.Time
		svc := &mockUtilityBillService{
			markPaidFn: func(_, _ string, paymentDate time.Time) (*models.UtilityBill, error) {
				got = paymentDate
				return &models.UtilityBill{PaymentStatus: models.PaymentStatusPaid}, nil
			},
		}
		r := setupUtilityBillRouter(NewUtilityBillHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills/"+testBillID+"/pay", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.IsZero() {
			t.Error("expected a payment date to be filled in")
		}
	})

	t.Run("returns 404 for unknown bill", func(t *testing.T) {
		svc := &mockUtilityBillService{
			markPaidFn: func(_, _ string, _ time.Time) (*models.UtilityBill, error) {
				return nil, apperrors.ErrUtilityBillNotFound
			},
		}
		r := setupUtilityBillRouter(NewUtilityBillHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/utility-bills/"+testBillID+"/pay", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UTILITY_BILL_NOT_FOUND")
	})
}

func TestUtilityBillHandler_UpdateUtilityBill(t *testing.T) {
	t.Run("passes notes-only change", func(t *testing.T) {
		var got services.UtilityBillUpdate
		svc := &mockUtilityBillService{
			updateFn: func(_, _ string, upd services.UtilityBillUpdate) (*models.UtilityBill, error) {
				got = upd
				return &models.UtilityBill{}, nil
			},
		}
		r := setupUtilityBillRouter(NewUtilityBillHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/utility-bills/"+testBillID, `{"notes":"paid by card"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Notes == nil || *got.Notes != "paid by card" {
			t.Errorf("expected notes change, got %+v", got)
		}
		if got.PaymentStatus != nil || got.PaymentDate != nil {
			t.Errorf("expected untouched payment fields, got %+v", got)
		}
	})
}

func TestUtilityBillHandler_GetUtilityBills(t *testing.T) {
	t.Run("returns 400 on invalid status", func(t *testing.T) {
		r := setupUtilityBillRouter(NewUtilityBillHandler(&mockUtilityBillService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/utility-bills?payment_status=late", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
