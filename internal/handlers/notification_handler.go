package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

// NotificationHandler handles notification preferences and the in-app feed.
type NotificationHandler struct {
	notificationService services.NotificationServicer
	auditService        services.AuditServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer, auditService services.AuditServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, auditService: auditService}
}

// UpdatePreferenceRequest represents a partial preference change.
type UpdatePreferenceRequest struct {
	Enabled         *bool  `json:"enabled"`
	EmailEnabled    *bool  `json:"email_enabled"`
	DatabaseEnabled *bool  `json:"database_enabled"`
	PushEnabled     *bool  `json:"push_enabled"`
	Days            *[]int `json:"days" binding:"omitempty,day_offsets" example:"7,3,1,0"`
}

func notificationTypeParam(c *gin.Context) (models.NotificationType, error) {
	t := models.NotificationType(c.Param("type"))
	switch t {
	case models.NotificationTypeSubscriptionRenewal, models.NotificationTypeBudgetAlert, models.NotificationTypeAutoRenewal:
		return t, nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown notification type")
	}
}

// GetPreference returns the preference for one notification type.
// @Summary     Get notification preference
// @Description Channels and reminder days for a notification type. Users without a saved preference get the default.
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       type path string true "Notification type (subscription_renewal/budget_alert/auto_renewal)"
// @Success     200 {object} models.NotificationPreference "Preference"
// @Failure     400 {object} ErrorResponse "Unknown notification type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/preferences/{type} [get]
func (h *NotificationHandler) GetPreference(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationType, err := notificationTypeParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pref, err := h.notificationService.GetPreference(userID, notificationType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preference": pref})
}

// UpdatePreference changes the preference for one notification type.
// @Summary     Update notification preference
// @Description Switch channels on or off and set the reminder day offsets
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type    path string                  true "Notification type"
// @Param       request body UpdatePreferenceRequest true "Fields to change"
// @Success     200 {object} models.NotificationPreference "Saved preference"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/preferences/{type} [put]
func (h *NotificationHandler) UpdatePreference(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationType, err := notificationTypeParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pref, err := h.notificationService.UpsertPreference(userID, notificationType, services.PreferenceUpdate{
		Enabled:         req.Enabled,
		EmailEnabled:    req.EmailEnabled,
		DatabaseEnabled: req.DatabaseEnabled,
		PushEnabled:     req.PushEnabled,
		Days:            req.Days,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_NOTIFICATION_PREFERENCE", "notification_preference", pref.ID, c.ClientIP(),
		map[string]any{"type": notificationType, "days": pref.Days})

	c.JSON(http.StatusOK, gin.H{"preference": pref})
}

// GetNotifications lists the in-app feed.
// @Summary     Get notifications
// @Description Paginated in-app notifications, newest first
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread    query bool false "Only unread notifications"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Paginated notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
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

	unread, err := queryBool(c, "unread")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.notificationService.ListNotifications(userID, page, unread != nil && *unread)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkRead marks one notification as read.
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification "Notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	n, err := h.notificationService.MarkRead(userID, notificationID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": n})
}

// MarkAllRead marks the whole feed as read.
// @Summary     Mark all notifications read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} object "Number of notifications updated"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
