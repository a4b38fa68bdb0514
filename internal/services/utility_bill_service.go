package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/logger"
	"lifeos/internal/metrics"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/renewal"
)

// utilityBillService handles utility bills. Writes that move a bill to paid
// run syncPaidExpense afterwards.
type utilityBillService struct {
	db       *gorm.DB
	expenses ExpenseServicer
}

// NewUtilityBillService creates a new UtilityBillServicer.
func NewUtilityBillService(db *gorm.DB, expenses ExpenseServicer) UtilityBillServicer {
	return &utilityBillService{db: db, expenses: expenses}
}

// CreateUtilityBill stores a new bill. A bill created as paid gets its
// expense immediately.
func (s *utilityBillService) CreateUtilityBill(userID string, in UtilityBillInput) (*models.UtilityBill, error) {
	if strings.TrimSpace(in.Provider) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "provider is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.DueDate.IsZero() || in.BillingPeriodStart.IsZero() || in.BillingPeriodEnd.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "billing period and due date are required")
	}
	if calendar.Day(in.BillingPeriodEnd).Before(calendar.Day(in.BillingPeriodStart)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "billing period end must not be before its start")
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if err := ensureCategoryOwned(s.db, userID, in.CategoryID); err != nil {
		return nil, err
	}

	status := in.PaymentStatus
	if status == "" {
		status = models.PaymentStatusPending
	}
	if in.UtilityType == "" {
		in.UtilityType = models.UtilityTypeOther
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	bill := &models.UtilityBill{
		UserID:             userID,
		CategoryID:         in.CategoryID,
		UtilityType:        in.UtilityType,
		Provider:           strings.TrimSpace(in.Provider),
		AccountNumber:      in.AccountNumber,
		Amount:             in.Amount,
		Currency:           currency,
		BillingPeriodStart: calendar.Day(in.BillingPeriodStart),
		BillingPeriodEnd:   calendar.Day(in.BillingPeriodEnd),
		DueDate:            calendar.Day(in.DueDate),
		PaymentStatus:      status,
		PaymentDate:        dayPtr(in.PaymentDate),
		Notes:              in.Notes,
	}
	if bill.PaymentStatus == models.PaymentStatusPaid && bill.PaymentDate == nil {
		today := calendar.Today(time.UTC)
		bill.PaymentDate = &today
	}

	if err := s.db.Create(bill).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.syncPaidExpense(bill, true)
	return bill, nil
}

// GetUserUtilityBills lists the user's bills by due date, optionally filtered by status.
func (s *utilityBillService) GetUserUtilityBills(userID string, page pagination.PageRequest, status *models.PaymentStatus) (*pagination.PageResponse[models.UtilityBill], error) {
	page.Defaults()

	base := s.db.Model(&models.UtilityBill{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("payment_status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var bills []models.UtilityBill
	if err := base.Order("due_date DESC").Scopes(pagination.Paginate(page)).Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(bills, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetUtilityBillByID returns a bill if it belongs to the user.
func (s *utilityBillService) GetUtilityBillByID(userID, billID string) (*models.UtilityBill, error) {
	var bill models.UtilityBill
	if err := s.db.Where("id = ? AND user_id = ?", billID, userID).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUtilityBillNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &bill, nil
}

// UpdateUtilityBill applies the non-nil fields of upd. The paid-bill expense
// is recorded only when the bill moves to paid; later edits of a paid bill
// re-date that expense and never create another.
func (s *utilityBillService) UpdateUtilityBill(userID, billID string, upd UtilityBillUpdate) (*models.UtilityBill, error) {
	bill, err := s.GetUtilityBillByID(userID, billID)
	if err != nil {
		return nil, err
	}
	wasPaid := bill.PaymentStatus == models.PaymentStatusPaid

	updates := make(map[string]any)
	if upd.CategoryID != nil {
		if *upd.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			if err := ensureCategoryOwned(s.db, userID, upd.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *upd.CategoryID
		}
	}
	if upd.Provider != nil {
		if strings.TrimSpace(*upd.Provider) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "provider is required")
		}
		updates["provider"] = strings.TrimSpace(*upd.Provider)
	}
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *upd.Amount
	}
	if upd.DueDate != nil {
		updates["due_date"] = calendar.Day(*upd.DueDate)
	}
	if upd.PaymentDate != nil {
		updates["payment_date"] = calendar.Day(*upd.PaymentDate)
	}
	if upd.PaymentStatus != nil {
		updates["payment_status"] = *upd.PaymentStatus
		paidWithoutDate := *upd.PaymentStatus == models.PaymentStatusPaid && bill.PaymentDate == nil && upd.PaymentDate == nil
		if paidWithoutDate {
			updates["payment_date"] = calendar.Today(time.UTC)
		}
	}
	if upd.Notes != nil {
		updates["notes"] = *upd.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(bill).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if bill, err = s.GetUtilityBillByID(userID, billID); err != nil {
			return nil, err
		}
	}

	s.syncPaidExpense(bill, !wasPaid)
	return bill, nil
}

// MarkPaid sets the bill paid on the given day. On a bill that is already
// paid it only changes the payment date.
func (s *utilityBillService) MarkPaid(userID, billID string, paymentDate time.Time) (*models.UtilityBill, error) {
	if paymentDate.IsZero() {
		paymentDate = calendar.Today(time.UTC)
	}
	status := models.PaymentStatusPaid
	return s.UpdateUtilityBill(userID, billID, UtilityBillUpdate{PaymentStatus: &status, PaymentDate: &paymentDate})
}

// DeleteUtilityBill soft-deletes a bill. Its generated expense is kept.
func (s *utilityBillService) DeleteUtilityBill(userID, billID string) error {
	bill, err := s.GetUtilityBillByID(userID, billID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(bill).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// syncPaidExpense is the post-write hook. An existing bill expense follows
// the payment date; a new one is created only when becamePaid is set.
// Failures are logged and never undo the bill write.
func (s *utilityBillService) syncPaidExpense(bill *models.UtilityBill, becamePaid bool) {
	if bill.PaymentStatus != models.PaymentStatusPaid || bill.PaymentDate == nil {
		return
	}
	log := logger.Named("utility_bills")

	existing, err := s.expenses.MoveTaggedExpense(bill.UserID, renewal.UtilityBillTag(bill.ID), *bill.PaymentDate)
	if err != nil {
		log.Errorw("failed to re-date paid bill expense", "bill_id", bill.ID, "error", err)
		return
	}
	if existing != nil || !becamePaid {
		return
	}

	tags, err := s.expenses.TagsOnDate(bill.UserID, *bill.PaymentDate)
	if err != nil {
		log.Errorw("failed to load expense tags", "bill_id", bill.ID, "error", err)
		return
	}
	if !renewal.ShouldGenerateForBill(bill, tags) {
		return
	}

	expense, created, err := s.expenses.CreateTaggedExpenseOnce(renewal.BuildBillExpenseRequest(bill))
	if err != nil {
		log.Errorw("failed to record paid bill expense", "bill_id", bill.ID, "error", err)
		return
	}
	if created {
		metrics.ExpensesGenerated.WithLabelValues("utility_bill").Inc()
		log.Infow("recorded paid bill expense", "bill_id", bill.ID, "expense_id", expense.ID)
	}
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := calendar.Day(*t)
	return &d
}
