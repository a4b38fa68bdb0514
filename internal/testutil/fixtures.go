package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"lifeos/internal/calendar"
	"lifeos/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Day parses a YYYY-MM-DD date or fails the test.
func Day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// Money parses a decimal amount or fails the test.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad amount %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Timezone: "UTC",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates a confirmed expense on date with optional tags.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount string, date time.Time, tags ...string) *models.Expense {
	t.Helper()

	day := calendar.Day(date)
	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      Money(t, amount),
		Currency:    "USD",
		Date:        day,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Status:      models.ExpenseStatusConfirmed,
	}
	for _, tag := range tags {
		expense.Tags = append(expense.Tags, models.ExpenseTag{UserID: userID, Tag: tag, Date: day})
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates an active budget over [start, end]. A nil
// categoryID makes it an overall budget.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount string, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Name:           fmt.Sprintf("Test Budget %d", nextID()),
		Amount:         Money(t, amount),
		Currency:       "USD",
		StartDate:      calendar.Day(start),
		EndDate:        calendar.Day(end),
		AlertThreshold: 80,
		IsActive:       true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestSubscription creates an active monthly subscription billing on next.
func CreateTestSubscription(t *testing.T, db *gorm.DB, userID string, next time.Time, autoRenewal bool) *models.Subscription {
	t.Helper()

	day := calendar.Day(next)
	sub := &models.Subscription{
		UserID:          userID,
		ServiceName:     fmt.Sprintf("Test Service %d", nextID()),
		Cost:            decimal.RequireFromString("9.99"),
		Currency:        "USD",
		BillingCycle:    models.BillingCycleMonthly,
		StartDate:       day,
		NextBillingDate: day,
		Status:          models.SubscriptionStatusActive,
		AutoRenewal:     autoRenewal,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateTestUtilityBill creates a pending electricity bill due on due.
func CreateTestUtilityBill(t *testing.T, db *gorm.DB, userID string, due time.Time) *models.UtilityBill {
	t.Helper()

	day := calendar.Day(due)
	bill := &models.UtilityBill{
		UserID:             userID,
		UtilityType:        models.UtilityTypeElectricity,
		Provider:           fmt.Sprintf("Test Power %d", nextID()),
		Amount:             decimal.RequireFromString("120.50"),
		Currency:           "USD",
		BillingPeriodStart: day.AddDate(0, -1, 0),
		BillingPeriodEnd:   day.AddDate(0, 0, -1),
		DueDate:            day,
		PaymentStatus:      models.PaymentStatusPending,
	}
	if err := db.Create(bill).Error; err != nil {
		t.Fatalf("failed to create test utility bill: %v", err)
	}
	return bill
}

// CreateTestPreference stores a renewal preference with the given offsets
// and only the database channel enabled.
func CreateTestPreference(t *testing.T, db *gorm.DB, userID string, days ...int) *models.NotificationPreference {
	t.Helper()

	pref := &models.NotificationPreference{
		UserID:           userID,
		NotificationType: models.NotificationTypeSubscriptionRenewal,
		Enabled:          true,
		DatabaseEnabled:  true,
		Days:             models.DayOffsets(days).Normalize(),
	}
	if err := db.Create(pref).Error; err != nil {
		t.Fatalf("failed to create test preference: %v", err)
	}
	return pref
}
