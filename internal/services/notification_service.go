package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
)

// notificationService handles preferences, the in-app feed and dispatch records.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// GetPreference returns the user's stored preference for a notification
// type. Users without one get the unsaved default.
func (s *notificationService) GetPreference(userID string, notificationType models.NotificationType) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := s.db.Where("user_id = ? AND notification_type = ?", userID, notificationType).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultPreference(userID, notificationType), nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pref, nil
}

// UpsertPreference applies upd on top of the current (or default) preference
// and saves it. Day offsets are de-duplicated and sorted descending.
func (s *notificationService) UpsertPreference(userID string, notificationType models.NotificationType, upd PreferenceUpdate) (*models.NotificationPreference, error) {
	pref, err := s.GetPreference(userID, notificationType)
	if err != nil {
		return nil, err
	}

	if upd.Enabled != nil {
		pref.Enabled = *upd.Enabled
	}
	if upd.EmailEnabled != nil {
		pref.EmailEnabled = *upd.EmailEnabled
	}
	if upd.DatabaseEnabled != nil {
		pref.DatabaseEnabled = *upd.DatabaseEnabled
	}
	if upd.PushEnabled != nil {
		pref.PushEnabled = *upd.PushEnabled
	}
	if upd.Days != nil {
		for _, d := range *upd.Days {
			if d < 0 {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reminder days must not be negative")
			}
		}
		pref.Days = models.DayOffsets(*upd.Days)
	}
	pref.Days = pref.Days.Normalize()

	if err := s.db.Save(pref).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pref, nil
}

// CreateNotification adds an entry to the user's in-app feed.
func (s *notificationService) CreateNotification(userID string, notificationType models.NotificationType, title, body string) (*models.Notification, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "notification title is required")
	}
	n := &models.Notification{UserID: userID, Type: notificationType, Title: title, Body: body}
	if err := s.db.Create(n).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

// ListNotifications returns the user's feed, newest first.
func (s *notificationService) ListNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read_at IS NULL")
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Notification
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkRead marks one notification as read. Marking it again keeps the
// original read time.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n.ReadAt != nil {
		return &n, nil
	}

	now := time.Now().UTC()
	if err := s.db.Model(&n).Update("read_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	n.ReadAt = &now
	return &n, nil
}

// MarkAllRead marks every unread notification as read and returns how many changed.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// ClaimDispatch records a dispatch before delivery. It returns false when a
// dispatch with the same dedupe key already exists, which means another run
// already handled it.
func (s *notificationService) ClaimDispatch(dispatch *models.NotificationDispatch) (bool, error) {
	if dispatch.DedupeKey == "" {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "dispatch needs a dedupe key")
	}
	dispatch.DispatchDate = calendar.Day(dispatch.DispatchDate)

	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedupe_key"}},
		DoNothing: true,
	}).Create(dispatch)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseDispatch removes a claim so a later run can retry the delivery.
func (s *notificationService) ReleaseDispatch(dedupeKey string) error {
	if err := s.db.Unscoped().Where("dedupe_key = ?", dedupeKey).Delete(&models.NotificationDispatch{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func defaultPreference(userID string, notificationType models.NotificationType) *models.NotificationPreference {
	if notificationType == models.NotificationTypeSubscriptionRenewal {
		return defaultRenewalPreference(userID)
	}
	return &models.NotificationPreference{
		UserID:           userID,
		NotificationType: notificationType,
		Enabled:          true,
		DatabaseEnabled:  true,
		Days:             models.DayOffsets{},
	}
}
