package services

import (
	"testing"

	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/renewal"
	"lifeos/internal/testutil"
)

func TestGetPreference(t *testing.T) {
	t.Run("falls_back_to_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		pref, err := svc.GetPreference(user.ID, models.NotificationTypeSubscriptionRenewal)
		testutil.AssertNoError(t, err)

		if pref.ID != "" {
			t.Error("default preference should not be persisted")
		}
		if !pref.Enabled || !pref.EmailEnabled || !pref.DatabaseEnabled || pref.PushEnabled {
			t.Errorf("unexpected default channels %+v", pref)
		}
		if len(pref.Days) != 4 || pref.Days[0] != 7 || pref.Days[3] != 0 {
			t.Errorf("expected default days [7 3 1 0], got %v", pref.Days)
		}
	})

	t.Run("stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)
		stored := testutil.CreateTestPreference(t, db, user.ID, 2)

		pref, err := svc.GetPreference(user.ID, models.NotificationTypeSubscriptionRenewal)
		testutil.AssertNoError(t, err)
		if pref.ID != stored.ID || len(pref.Days) != 1 || pref.Days[0] != 2 {
			t.Errorf("expected stored preference, got %+v", pref)
		}
	})
}

func TestUpsertPreference(t *testing.T) {
	t.Run("creates_then_updates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		days := []int{1, 14, 1, 3}
		push := true
		pref, err := svc.UpsertPreference(user.ID, models.NotificationTypeSubscriptionRenewal, PreferenceUpdate{Days: &days, PushEnabled: &push})
		testutil.AssertNoError(t, err)

		if pref.ID == "" {
			t.Fatal("expected preference to be saved")
		}
		want := []int{14, 3, 1}
		if len(pref.Days) != len(want) || pref.Days[0] != 14 || pref.Days[2] != 1 {
			t.Errorf("expected normalised days %v, got %v", want, pref.Days)
		}

		off := false
		again, err := svc.UpsertPreference(user.ID, models.NotificationTypeSubscriptionRenewal, PreferenceUpdate{EmailEnabled: &off})
		testutil.AssertNoError(t, err)
		if again.ID != pref.ID {
			t.Error("second upsert should update the same row")
		}
		if again.EmailEnabled || !again.PushEnabled {
			t.Errorf("unexpected channels after update %+v", again)
		}

		var count int64
		db.Model(&models.NotificationPreference{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single stored preference, got %d", count)
		}
	})

	t.Run("negative_days", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		user := testutil.CreateTestUser(t, db)

		days := []int{3, -1}
		_, err := svc.UpsertPreference(user.ID, models.NotificationTypeSubscriptionRenewal, PreferenceUpdate{Days: &days})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestNotificationFeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	first, err := svc.CreateNotification(user.ID, models.NotificationTypeSubscriptionRenewal, "Netflix renews today", "")
	testutil.AssertNoError(t, err)
	_, err = svc.CreateNotification(user.ID, models.NotificationTypeBudgetAlert, "Food budget at 85%", "")
	testutil.AssertNoError(t, err)

	t.Run("empty_title", func(t *testing.T) {
		_, err := svc.CreateNotification(user.ID, models.NotificationTypeBudgetAlert, " ", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("mark_read_is_idempotent", func(t *testing.T) {
		n, err := svc.MarkRead(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if n.ReadAt == nil {
			t.Fatal("expected read_at to be set")
		}
		readAt := *n.ReadAt

		n, err = svc.MarkRead(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if !n.ReadAt.Equal(readAt) {
			t.Error("marking read twice should keep the first read time")
		}
	})

	t.Run("other_user_cannot_mark", func(t *testing.T) {
		_, err := svc.MarkRead(other.ID, first.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")
	})

	t.Run("unread_only", func(t *testing.T) {
		res, err := svc.ListNotifications(user.ID, pagination.PageRequest{}, true)
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 {
			t.Errorf("expected 1 unread notification, got %d", res.TotalItems)
		}
	})

	t.Run("mark_all_read", func(t *testing.T) {
		changed, err := svc.MarkAllRead(user.ID)
		testutil.AssertNoError(t, err)
		if changed != 1 {
			t.Errorf("expected 1 notification marked, got %d", changed)
		}
		res, err := svc.ListNotifications(user.ID, pagination.PageRequest{}, false)
		testutil.AssertNoError(t, err)
		if res.TotalItems != 2 {
			t.Errorf("expected 2 notifications in feed, got %d", res.TotalItems)
		}
	})
}

func TestClaimDispatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db)
	user := testutil.CreateTestUser(t, db)
	sub := testutil.CreateTestSubscription(t, db, user.ID, testutil.Day(t, "2026-01-10"), false)
	today := testutil.Day(t, "2026-01-07")

	newDispatch := func() *models.NotificationDispatch {
		return &models.NotificationDispatch{
			UserID:           user.ID,
			NotificationType: models.NotificationTypeSubscriptionRenewal,
			ResourceID:       sub.ID,
			DispatchDate:     today,
			DedupeKey:        renewal.DispatchKey(sub.ID, today),
		}
	}

	claimed, err := svc.ClaimDispatch(newDispatch())
	testutil.AssertNoError(t, err)
	if !claimed {
		t.Fatal("first claim should succeed")
	}

	claimed, err = svc.ClaimDispatch(newDispatch())
	testutil.AssertNoError(t, err)
	if claimed {
		t.Error("second claim for the same key should be refused")
	}

	testutil.AssertNoError(t, svc.ReleaseDispatch(renewal.DispatchKey(sub.ID, today)))

	claimed, err = svc.ClaimDispatch(newDispatch())
	testutil.AssertNoError(t, err)
	if !claimed {
		t.Error("claim should succeed again after release")
	}

	_, err = svc.ClaimDispatch(&models.NotificationDispatch{UserID: user.ID})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
