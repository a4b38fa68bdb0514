package testutil_test

import (
	"testing"

	"lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{
		"users", "categories", "expenses", "expense_tags", "budgets", "subscriptions",
		"utility_bills", "notification_preferences", "notification_dispatches",
		"notifications", "telegram_links", "audit_logs",
	} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	t.Run("first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateTestUser(t, db)
	})
	t.Run("second", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		var count int64
		db.Model(&models.User{}).Count(&count)
		if count != 0 {
			t.Errorf("expected empty database, found %d users", count)
		}
	})
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	day := testutil.Day(t, "2026-03-15")

	exp := testutil.CreateTestExpense(t, db, user.ID, &cat.ID, "12.34", day, "groceries")
	if len(exp.Tags) != 1 || exp.Tags[0].Tag != "groceries" {
		t.Errorf("expected one tag, got %+v", exp.Tags)
	}

	sub := testutil.CreateTestSubscription(t, db, user.ID, day, true)
	if sub.Status != models.SubscriptionStatusActive || !sub.AutoRenewal {
		t.Errorf("unexpected subscription %+v", sub)
	}

	bill := testutil.CreateTestUtilityBill(t, db, user.ID, day)
	if bill.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("expected pending bill, got %s", bill.PaymentStatus)
	}

	pref := testutil.CreateTestPreference(t, db, user.ID, 1, 7, 1)
	if len(pref.Days) != 2 || pref.Days[0] != 7 {
		t.Errorf("expected normalised days [7 1], got %v", pref.Days)
	}
}

func TestProvenanceIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	day := testutil.Day(t, "2026-03-15")

	testutil.CreateTestExpense(t, db, user.ID, nil, "5", day, "coffee")
	testutil.CreateTestExpense(t, db, user.ID, nil, "5", day, "coffee")

	testutil.CreateTestExpense(t, db, user.ID, nil, "9.99", day, "subscription:abc")
	dup := &models.ExpenseTag{ExpenseID: "x", UserID: user.ID, Tag: "subscription:abc", Date: day}
	if err := db.Create(dup).Error; err == nil {
		t.Error("duplicate provenance tag on the same day should be rejected")
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrNotFound, "NOT_FOUND")
	testutil.AssertNoError(t, nil)
}
