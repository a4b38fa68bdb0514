package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/renewal"
)

// subscriptionService handles subscription-related business logic.
type subscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB) SubscriptionServicer {
	return &subscriptionService{db: db}
}

// CreateSubscription creates an active subscription. The first billing date
// defaults to the start date.
func (s *subscriptionService) CreateSubscription(userID string, in SubscriptionInput) (*models.Subscription, error) {
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "service name is required")
	}
	if !in.Cost.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost must be greater than zero")
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if in.BillingCycle == "" {
		in.BillingCycle = models.BillingCycleMonthly
	}
	if err := validateCycle(in.BillingCycle, in.CustomDays); err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if err := ensureCategoryOwned(s.db, userID, in.CategoryID); err != nil {
		return nil, err
	}

	start := calendar.Day(in.StartDate)
	next := start
	if in.NextBillingDate != nil {
		next = calendar.Day(*in.NextBillingDate)
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	sub := &models.Subscription{
		UserID:          userID,
		ServiceName:     strings.TrimSpace(in.ServiceName),
		CategoryID:      in.CategoryID,
		Cost:            in.Cost,
		Currency:        currency,
		BillingCycle:    in.BillingCycle,
		CustomDays:      in.CustomDays,
		StartDate:       start,
		NextBillingDate: next,
		Status:          models.SubscriptionStatusActive,
		AutoRenewal:     in.AutoRenewal,
		Notes:           in.Notes,
	}

	if err := s.db.Create(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// GetUserSubscriptions returns the user's subscriptions ordered by next
// billing date, optionally filtered by status.
func (s *subscriptionService) GetUserSubscriptions(userID string, page pagination.PageRequest, status *models.SubscriptionStatus) (*pagination.PageResponse[models.Subscription], error) {
	page.Defaults()

	base := s.db.Model(&models.Subscription{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var subs []models.Subscription
	if err := base.Preload("Category").Order("next_billing_date ASC").Scopes(pagination.Paginate(page)).Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(subs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSubscriptionByID returns a subscription if it belongs to the user.
func (s *subscriptionService) GetSubscriptionByID(userID, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", subscriptionID, userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sub, nil
}

// UpdateSubscription applies the non-nil fields of upd.
func (s *subscriptionService) UpdateSubscription(userID, subscriptionID string, upd SubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	cycle, customDays := sub.BillingCycle, sub.CustomDays
	updates := make(map[string]any)
	if upd.ServiceName != nil {
		if strings.TrimSpace(*upd.ServiceName) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "service name is required")
		}
		updates["service_name"] = strings.TrimSpace(*upd.ServiceName)
	}
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
	if upd.Cost != nil {
		if !upd.Cost.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost must be greater than zero")
		}
		updates["cost"] = *upd.Cost
	}
	if upd.Currency != nil {
		updates["currency"] = strings.ToUpper(*upd.Currency)
	}
	if upd.BillingCycle != nil {
		cycle = *upd.BillingCycle
		updates["billing_cycle"] = cycle
	}
	if upd.CustomDays != nil {
		customDays = *upd.CustomDays
		updates["custom_days"] = customDays
	}
	if err := validateCycle(cycle, customDays); err != nil {
		return nil, err
	}
	if upd.NextBillingDate != nil {
		updates["next_billing_date"] = calendar.Day(*upd.NextBillingDate)
	}
	if upd.AutoRenewal != nil {
		updates["auto_renewal"] = *upd.AutoRenewal
	}
	if upd.Notes != nil {
		updates["notes"] = *upd.Notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(sub).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return sub, nil
}

// PauseSubscription stops reminders and auto-renewals for an active subscription.
func (s *subscriptionService) PauseSubscription(userID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStatusChange, "only active subscriptions can be paused")
	}

	if err := s.db.Model(sub).Update("status", models.SubscriptionStatusPaused).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// ResumeSubscription reactivates a paused subscription. A billing date that
// passed while paused moves forward to the first cycle date on or after today.
func (s *subscriptionService) ResumeSubscription(userID, subscriptionID string, today time.Time) (*models.Subscription, error) {
	sub, err := s.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusPaused {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStatusChange, "only paused subscriptions can be resumed")
	}

	updates := map[string]any{"status": models.SubscriptionStatusActive}
	day := calendar.Day(today)
	if calendar.Day(sub.NextBillingDate).Before(day) {
		next, _ := renewal.AdvancePast(sub, day.AddDate(0, 0, -1))
		updates["next_billing_date"] = next
	}

	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// CancelSubscription permanently stops a subscription. Cancelled
// subscriptions cannot be resumed.
func (s *subscriptionService) CancelSubscription(userID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStatusChange, "subscription is already cancelled")
	}

	now := time.Now().UTC()
	if err := s.db.Model(sub).Updates(map[string]any{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": now,
		"auto_renewal": false,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// DeleteSubscription soft-deletes a subscription.
func (s *subscriptionService) DeleteSubscription(userID, subscriptionID string) error {
	sub, err := s.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(sub).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUpcomingRenewals lists active subscriptions billing within the next
// days days, including any that are already overdue.
func (s *subscriptionService) GetUpcomingRenewals(userID string, today time.Time, days int) ([]models.Subscription, error) {
	if days < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must not be negative")
	}
	until := calendar.Day(today).AddDate(0, 0, days)

	var subs []models.Subscription
	if err := s.db.Preload("Category").
		Where("user_id = ? AND status = ? AND next_billing_date <= ?", userID, models.SubscriptionStatusActive, until).
		Order("next_billing_date ASC").
		Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subs, nil
}

// GetMonthlyCost totals the normalised monthly cost of active subscriptions,
// one entry per currency.
func (s *subscriptionService) GetMonthlyCost(userID string) ([]CurrencyCost, error) {
	var subs []models.Subscription
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byCurrency := make(map[string]*CurrencyCost)
	for i := range subs {
		c, ok := byCurrency[subs[i].Currency]
		if !ok {
			c = &CurrencyCost{Currency: subs[i].Currency, Monthly: decimal.Zero}
			byCurrency[subs[i].Currency] = c
		}
		c.Monthly = c.Monthly.Add(renewal.MonthlyCost(&subs[i]))
		c.Count++
	}

	out := make([]CurrencyCost, 0, len(byCurrency))
	for _, c := range byCurrency {
		c.Yearly = c.Monthly.Mul(decimal.NewFromInt(12)).Round(2)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func validateCycle(cycle models.BillingCycle, customDays int) error {
	switch cycle {
	case models.BillingCycleWeekly, models.BillingCycleMonthly, models.BillingCycleQuarterly, models.BillingCycleYearly:
		return nil
	case models.BillingCycleCustom:
		if customDays < 1 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "custom billing cycles need custom_days of at least 1")
		}
		return nil
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown billing cycle")
	}
}
