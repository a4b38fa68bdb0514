package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"lifeos/internal/budget"
	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget. A nil category makes it an overall budget.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*models.Budget, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if err := ensureCategoryOwned(s.db, userID, in.CategoryID); err != nil {
		return nil, err
	}

	threshold := in.AlertThreshold
	if threshold == 0 {
		threshold = budget.DefaultAlertThreshold
	}
	start, end := calendar.Day(in.StartDate), calendar.Day(in.EndDate)
	if err := validateBudget(in.Amount.IsPositive(), start, end, threshold); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	b := &models.Budget{
		UserID:         userID,
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Amount:         in.Amount,
		Currency:       currency,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: threshold,
		IsActive:       true,
		RolloverUnused: in.RolloverUnused,
		Notes:          in.Notes,
	}

	if err := s.db.Create(b).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return b, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	isActive *bool,
	categoryID *string,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if categoryID != nil {
		base = base.Where("category_id = ?", *categoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("start_date DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var b models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &b, nil
}

// UpdateBudget updates an existing budget's fields. The merged result must
// still satisfy the creation invariants.
func (s *budgetService) UpdateBudget(userID, budgetID string, upd BudgetUpdate) (*models.Budget, error) {
	b, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	amount, start, end, threshold := b.Amount, b.StartDate, b.EndDate, b.AlertThreshold
	updates := make(map[string]any)
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
		}
		updates["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Amount != nil {
		amount = *upd.Amount
		updates["amount"] = amount
	}
	if upd.StartDate != nil {
		start = calendar.Day(*upd.StartDate)
		updates["start_date"] = start
	}
	if upd.EndDate != nil {
		end = calendar.Day(*upd.EndDate)
		updates["end_date"] = end
	}
	if upd.AlertThreshold != nil {
		threshold = *upd.AlertThreshold
		updates["alert_threshold"] = threshold
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if upd.RolloverUnused != nil {
		updates["rollover_unused"] = *upd.RolloverUnused
	}
	if upd.Notes != nil {
		updates["notes"] = *upd.Notes
	}

	if err := validateBudget(amount.IsPositive(), calendar.Day(start), calendar.Day(end), threshold); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(b).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return b, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	b, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(b).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetStatus evaluates one budget as of the given day.
func (s *budgetService) GetBudgetStatus(userID, budgetID string, asOf time.Time) (*BudgetStatus, error) {
	b, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	entries, err := s.loadEntries(userID, b.StartDate, b.EndDate, b.CategoryID)
	if err != nil {
		return nil, err
	}

	return &BudgetStatus{Budget: *b, Result: budget.Evaluate(definitionOf(b), entries, asOf)}, nil
}

// GetBudgetsOverview evaluates every active budget of the user. Expenses are
// loaded once for the union of all budget periods.
func (s *budgetService) GetBudgetsOverview(userID string, asOf time.Time) ([]BudgetStatus, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(budgets) == 0 {
		return []BudgetStatus{}, nil
	}

	from, to := budgets[0].StartDate, budgets[0].EndDate
	for _, b := range budgets[1:] {
		if b.StartDate.Before(from) {
			from = b.StartDate
		}
		if b.EndDate.After(to) {
			to = b.EndDate
		}
	}

	entries, err := s.loadEntries(userID, from, to, nil)
	if err != nil {
		return nil, err
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for i := range budgets {
		out = append(out, BudgetStatus{
			Budget: budgets[i],
			Result: budget.Evaluate(definitionOf(&budgets[i]), entries, asOf),
		})
	}
	return out, nil
}

// GetBudgetAlerts returns the active budgets currently in warning or exceeded.
func (s *budgetService) GetBudgetAlerts(userID string, asOf time.Time) ([]BudgetStatus, error) {
	overview, err := s.GetBudgetsOverview(userID, asOf)
	if err != nil {
		return nil, err
	}

	alerts := make([]BudgetStatus, 0)
	for _, st := range overview {
		if st.Status != budget.StatusOnTrack {
			alerts = append(alerts, st)
		}
	}
	return alerts, nil
}

// loadEntries fetches the user's expenses dated within [from, to], restricted
// to one category when categoryID is set.
func (s *budgetService) loadEntries(userID string, from, to time.Time, categoryID *string) ([]budget.Entry, error) {
	q := s.db.Model(&models.Expense{}).
		Select("amount", "date", "category_id").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, calendar.Day(from), calendar.Day(to))
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var expenses []models.Expense
	if err := q.Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := make([]budget.Entry, 0, len(expenses))
	for _, e := range expenses {
		entries = append(entries, budget.Entry{Amount: e.Amount, Date: e.Date, CategoryID: e.CategoryID})
	}
	return entries, nil
}

func definitionOf(b *models.Budget) budget.Definition {
	return budget.Definition{
		Amount:         b.Amount,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		AlertThreshold: b.AlertThreshold,
		CategoryID:     b.CategoryID,
	}
}

func validateBudget(amountPositive bool, start, end time.Time, threshold float64) error {
	if !amountPositive {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if start.IsZero() || end.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end dates are required")
	}
	if end.Before(start) {
		return apperrors.ErrInvalidBudgetPeriod
	}
	if threshold <= 0 || threshold > 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
	}
	return nil
}
