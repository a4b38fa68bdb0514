package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

// UtilityBillHandler handles utility bill requests.
type UtilityBillHandler struct {
	billService  services.UtilityBillServicer
	auditService services.AuditServicer
}

// NewUtilityBillHandler creates a new UtilityBillHandler.
func NewUtilityBillHandler(billService services.UtilityBillServicer, auditService services.AuditServicer) *UtilityBillHandler {
	return &UtilityBillHandler{billService: billService, auditService: auditService}
}

// CreateUtilityBillRequest represents the request payload for recording a bill.
type CreateUtilityBillRequest struct {
	CategoryID         *string              `json:"category_id" binding:"omitempty,uuid"`
	UtilityType        models.UtilityType   `json:"utility_type" binding:"omitempty,utility_type"`
	Provider           string               `json:"provider" binding:"required,min=1,max=100"`
	AccountNumber      string               `json:"account_number" binding:"max=64"`
	Amount             decimal.Decimal      `json:"amount" swaggertype:"string" example:"120.50"`
	Currency           string               `json:"currency" binding:"omitempty,iso4217"`
	BillingPeriodStart string               `json:"billing_period_start" binding:"required" example:"2025-01-01"`
	BillingPeriodEnd   string               `json:"billing_period_end" binding:"required" example:"2025-01-31"`
	DueDate            string               `json:"due_date" binding:"required" example:"2025-02-15"`
	PaymentStatus      models.PaymentStatus `json:"payment_status" binding:"omitempty,payment_status"`
	PaymentDate        *string              `json:"payment_date"`
	Notes              string               `json:"notes" binding:"max=1000"`
}

// UpdateUtilityBillRequest represents the request payload for updating a bill.
type UpdateUtilityBillRequest struct {
	CategoryID    *string               `json:"category_id"`
	Provider      *string               `json:"provider" binding:"omitempty,min=1,max=100"`
	Amount        *decimal.Decimal      `json:"amount" swaggertype:"string"`
	DueDate       *string               `json:"due_date"`
	PaymentStatus *models.PaymentStatus `json:"payment_status" binding:"omitempty,payment_status"`
	PaymentDate   *string               `json:"payment_date"`
	Notes         *string               `json:"notes" binding:"omitempty,max=1000"`
}

// MarkPaidRequest optionally sets the payment day. Today is used when omitted.
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date" example:"2025-02-10"`
}

// CreateUtilityBill records a bill.
// @Summary     Create a utility bill
// @Description Record a utility bill. A bill created as paid gets its expense immediately.
// @Tags        utility-bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUtilityBillRequest true "Bill details"
// @Success     201 {object} models.UtilityBill "Bill created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills [post]
func (h *UtilityBillHandler) CreateUtilityBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUtilityBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.UtilityBillInput{
		CategoryID:    req.CategoryID,
		UtilityType:   req.UtilityType,
		Provider:      req.Provider,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
	}
	if in.BillingPeriodStart, err = parseDate("billing_period_start", req.BillingPeriodStart); err != nil {
		respondWithError(c, err)
		return
	}
	if in.BillingPeriodEnd, err = parseDate("billing_period_end", req.BillingPeriodEnd); err != nil {
		respondWithError(c, err)
		return
	}
	if in.DueDate, err = parseDate("due_date", req.DueDate); err != nil {
		respondWithError(c, err)
		return
	}
	if in.PaymentDate, err = parseOptionalDate("payment_date", req.PaymentDate); err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.CreateUtilityBill(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_UTILITY_BILL", "utility_bill", bill.ID, c.ClientIP(),
		map[string]any{"provider": bill.Provider, "amount": bill.Amount.String(), "payment_status": bill.PaymentStatus})

	c.JSON(http.StatusCreated, gin.H{"utility_bill": bill})
}

// GetUtilityBills lists bills.
// @Summary     Get utility bills
// @Description Get a paginated list of bills, latest due date first
// @Tags        utility-bills
// @Produce     json
// @Security    BearerAuth
// @Param       payment_status query string false "Filter by status (pending/paid/overdue)"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.UtilityBill] "Paginated bills"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills [get]
func (h *UtilityBillHandler) GetUtilityBills(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.PaymentStatus
	if v := c.Query("payment_status"); v != "" {
		s := models.PaymentStatus(v)
		switch s {
		case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusOverdue:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment_status must be 'pending', 'paid' or 'overdue'"))
			return
		}
	}

	result, err := h.billService.GetUserUtilityBills(userID, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUtilityBill returns one bill.
// @Summary     Get utility bill by ID
// @Description Get a specific utility bill
// @Tags        utility-bills
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Bill ID"
// @Success     200 {object} models.UtilityBill "Bill details"
// @Failure     400 {object} ErrorResponse "Invalid bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills/{id} [get]
func (h *UtilityBillHandler) GetUtilityBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetUtilityBillByID(userID, billID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"utility_bill": bill})
}

// UpdateUtilityBill updates a bill.
// @Summary     Update utility bill
// @Description Update a bill. Saving a paid bill records its expense once, however often it is saved.
// @Tags        utility-bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Bill ID"
// @Param       request body UpdateUtilityBillRequest true "Fields to change"
// @Success     200 {object} models.UtilityBill "Updated bill"
// @Failure     400 {object} ErrorResponse "Invalid input or bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills/{id} [put]
func (h *UtilityBillHandler) UpdateUtilityBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUtilityBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	upd := services.UtilityBillUpdate{
		CategoryID:    req.CategoryID,
		Provider:      req.Provider,
		Amount:        req.Amount,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
	}
	if upd.DueDate, err = parseOptionalDate("due_date", req.DueDate); err != nil {
		respondWithError(c, err)
		return
	}
	if upd.PaymentDate, err = parseOptionalDate("payment_date", req.PaymentDate); err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.UpdateUtilityBill(userID, billID, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_UTILITY_BILL", "utility_bill", billID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"utility_bill": bill})
}

// MarkPaid marks a bill as paid.
// @Summary     Mark bill paid
// @Description Mark a bill paid on the given day (default today) and record its expense
// @Tags        utility-bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true  "Bill ID"
// @Param       request body MarkPaidRequest false "Payment day"
// @Success     200 {object} models.UtilityBill "Paid bill"
// @Failure     400 {object} ErrorResponse "Invalid input or bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills/{id}/pay [post]
func (h *UtilityBillHandler) MarkPaid(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	paidOn, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if paidOn.IsZero() {
		if paidOn, err = today(c); err != nil {
			respondWithError(c, err)
			return
		}
	}

	bill, err := h.billService.MarkPaid(userID, billID, paidOn)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "PAY_UTILITY_BILL", "utility_bill", billID, c.ClientIP(),
		map[string]any{"payment_date": calendar.Format(paidOn)})

	c.JSON(http.StatusOK, gin.H{"utility_bill": bill})
}

// DeleteUtilityBill deletes a bill.
// @Summary     Delete utility bill
// @Description Soft-delete a bill. Its recorded expense is kept.
// @Tags        utility-bills
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Bill ID"
// @Success     200 {object} MessageResponse "Bill deleted"
// @Failure     400 {object} ErrorResponse "Invalid bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /utility-bills/{id} [delete]
func (h *UtilityBillHandler) DeleteUtilityBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.billService.DeleteUtilityBill(userID, billID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_UTILITY_BILL", "utility_bill", billID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Utility bill deleted successfully"})
}
