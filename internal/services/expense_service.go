package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/renewal"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records a manual expense.
func (s *expenseService) CreateExpense(userID string, in ExpenseInput) (*models.Expense, error) {
	expense, err := s.buildExpense(s.db, userID, in)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetUserExpenses returns a paginated, filtered list of the user's expenses,
// newest first.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.filtered(userID, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Preload("Tags").Preload("Category").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID returns an expense if it belongs to the user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Tags").Preload("Category").
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies the non-nil fields of upd. Provenance tags survive a
// tag replacement so generated expenses stay recognisable.
func (s *expenseService) UpdateExpense(userID, expenseID string, upd ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

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
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Currency != nil {
		updates["currency"] = strings.ToUpper(*upd.Currency)
	}
	newDate := calendar.Day(expense.Date)
	if upd.Date != nil {
		newDate = calendar.Day(*upd.Date)
		updates["date"] = newDate
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}

	var newTags []string
	if upd.Tags != nil {
		if newTags, err = normalizeTags(*upd.Tags); err != nil {
			return nil, err
		}
		for _, t := range expense.TagNames() {
			if renewal.IsProvenanceTag(t) {
				newTags = append(newTags, t)
			}
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(expense).Updates(updates).Error; err != nil {
				return err
			}
		}
		switch {
		case upd.Tags != nil:
			if err := tx.Unscoped().Where("expense_id = ?", expense.ID).Delete(&models.ExpenseTag{}).Error; err != nil {
				return err
			}
			for _, t := range newTags {
				tag := models.ExpenseTag{ExpenseID: expense.ID, UserID: userID, Tag: t, Date: newDate}
				if err := tx.Create(&tag).Error; err != nil {
					return err
				}
			}
		case upd.Date != nil:
			if err := tx.Model(&models.ExpenseTag{}).Where("expense_id = ?", expense.ID).Update("date", newDate).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetExpenseByID(userID, expenseID)
}

// DeleteExpense soft-deletes an expense together with its tags.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(expense).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TagsOnDate returns every tag on the user's expenses dated on the given day.
func (s *expenseService) TagsOnDate(userID string, date time.Time) ([]string, error) {
	var tags []string
	if err := s.db.Model(&models.ExpenseTag{}).
		Where("user_id = ? AND date = ?", userID, calendar.Day(date)).
		Pluck("tag", &tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tags, nil
}

// CreateTaggedExpenseOnce inserts a generated expense unless one carrying the
// same provenance tag already exists on the same day. The check and the
// insert share a transaction, and the partial unique index on
// expense_tags(tag, date) turns a lost race into "already exists". The
// boolean reports whether a new expense was created.
func (s *expenseService) CreateTaggedExpenseOnce(req renewal.ExpenseRequest) (*models.Expense, bool, error) {
	tag := req.ProvenanceTag()
	if tag == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "generated expenses need a provenance tag")
	}
	if !req.Amount.IsPositive() {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	date := calendar.Day(req.Date)

	var result *models.Expense
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findTaggedExpense(tx, req.UserID, tag, date)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		expense := req.Expense()
		if err := tx.Create(expense).Error; err != nil {
			return err
		}
		result = expense
		created = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := findTaggedExpense(s.db, req.UserID, tag, date)
		if findErr == nil && existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, created, nil
}

// MoveTaggedExpense re-dates the live expense carrying tag, together with
// its tag rows. It returns nil when no such expense exists.
func (s *expenseService) MoveTaggedExpense(userID, tag string, date time.Time) (*models.Expense, error) {
	day := calendar.Day(date)

	var moved *models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ExpenseTag
		err := tx.Where("user_id = ? AND tag = ?", userID, tag).Order("date DESC").First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if !calendar.SameDay(existing.Date, day) {
			if err := tx.Model(&models.Expense{}).Where("id = ?", existing.ExpenseID).
				Update("date", day).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ExpenseTag{}).Where("expense_id = ?", existing.ExpenseID).
				Update("date", day).Error; err != nil {
				return err
			}
		}

		var expense models.Expense
		if err := tx.Preload("Tags").Where("id = ?", existing.ExpenseID).First(&expense).Error; err != nil {
			return err
		}
		moved = &expense
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return moved, nil
}

func findTaggedExpense(db *gorm.DB, userID, tag string, date time.Time) (*models.Expense, error) {
	var existing models.ExpenseTag
	err := db.Where("user_id = ? AND tag = ? AND date = ?", userID, tag, date).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := db.Preload("Tags").Where("id = ?", existing.ExpenseID).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// filtered builds the base query for listing and exporting.
func (s *expenseService) filtered(userID string, filter ExpenseFilter) *gorm.DB {
	q := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		q = q.Where("date >= ?", calendar.Day(*filter.FromDate))
	}
	if filter.ToDate != nil {
		q = q.Where("date <= ?", calendar.Day(*filter.ToDate))
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Tag != nil {
		sub := s.db.Model(&models.ExpenseTag{}).Select("expense_id").Where("tag = ?", *filter.Tag)
		q = q.Where("id IN (?)", sub)
	}
	return q
}

// buildExpense validates in and returns an unsaved expense with its tags.
func (s *expenseService) buildExpense(db *gorm.DB, userID string, in ExpenseInput) (*models.Expense, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if err := ensureCategoryOwned(db, userID, in.CategoryID); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.ExpenseStatusConfirmed
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}
	date := calendar.Day(in.Date)

	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Currency:    currency,
		Date:        date,
		Description: in.Description,
		Status:      status,
	}
	for _, t := range tags {
		expense.Tags = append(expense.Tags, models.ExpenseTag{UserID: userID, Tag: t, Date: date})
	}
	return expense, nil
}

// normalizeTags trims, de-duplicates and drops empty tags. Provenance tags
// are reserved for generated expenses.
func normalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if renewal.IsProvenanceTag(t) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag "+t+" is reserved")
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
