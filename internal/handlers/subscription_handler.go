package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 365
)

// SubscriptionHandler handles subscription-related requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// CreateSubscriptionRequest represents the request payload for creating a subscription.
type CreateSubscriptionRequest struct {
	ServiceName     string              `json:"service_name" binding:"required,min=1,max=100"`
	CategoryID      *string             `json:"category_id" binding:"omitempty,uuid"`
	Cost            decimal.Decimal     `json:"cost" swaggertype:"string" example:"9.99"`
	Currency        string              `json:"currency" binding:"omitempty,iso4217"`
	BillingCycle    models.BillingCycle `json:"billing_cycle" binding:"omitempty,billing_cycle"`
	CustomDays      int                 `json:"custom_days" binding:"omitempty,min=1,max=3650"`
	StartDate       string              `json:"start_date" binding:"required" example:"2025-01-15"`
	NextBillingDate *string             `json:"next_billing_date"`
	AutoRenewal     bool                `json:"auto_renewal"`
	Notes           string              `json:"notes" binding:"max=1000"`
}

// UpdateSubscriptionRequest represents the request payload for updating a subscription.
type UpdateSubscriptionRequest struct {
	ServiceName     *string              `json:"service_name" binding:"omitempty,min=1,max=100"`
	CategoryID      *string              `json:"category_id"`
	Cost            *decimal.Decimal     `json:"cost" swaggertype:"string"`
	Currency        *string              `json:"currency" binding:"omitempty,iso4217"`
	BillingCycle    *models.BillingCycle `json:"billing_cycle" binding:"omitempty,billing_cycle"`
	CustomDays      *int                 `json:"custom_days" binding:"omitempty,min=1,max=3650"`
	NextBillingDate *string              `json:"next_billing_date"`
	AutoRenewal     *bool                `json:"auto_renewal"`
	Notes           *string              `json:"notes" binding:"omitempty,max=1000"`
}

// CreateSubscription creates a subscription.
// @Summary     Create a subscription
// @Description Track a recurring subscription. The first billing date defaults to the start date.
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSubscriptionRequest true "Subscription details"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	next, err := parseOptionalDate("next_billing_date", req.NextBillingDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(userID, services.SubscriptionInput{
		ServiceName:     req.ServiceName,
		CategoryID:      req.CategoryID,
		Cost:            req.Cost,
		Currency:        req.Currency,
		BillingCycle:    req.BillingCycle,
		CustomDays:      req.CustomDays,
		StartDate:       start,
		NextBillingDate: next,
		AutoRenewal:     req.AutoRenewal,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SUBSCRIPTION", "subscription", sub.ID, c.ClientIP(),
		map[string]any{"service_name": sub.ServiceName, "cost": sub.Cost.String(), "billing_cycle": sub.BillingCycle})

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// GetSubscriptions lists subscriptions.
// @Summary     Get subscriptions
// @Description Get a paginated list of subscriptions ordered by next billing date
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (active/paused/cancelled)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Subscription] "Paginated subscriptions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [get]
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
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

	var status *models.SubscriptionStatus
	if v := c.Query("status"); v != "" {
		s := models.SubscriptionStatus(v)
		switch s {
		case models.SubscriptionStatusActive, models.SubscriptionStatusPaused, models.SubscriptionStatusCancelled:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be 'active', 'paused' or 'cancelled'"))
			return
		}
	}

	result, err := h.subscriptionService.GetUserSubscriptions(userID, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubscription returns one subscription.
// @Summary     Get subscription by ID
// @Description Get a specific subscription
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Subscription details"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// UpdateSubscription updates a subscription.
// @Summary     Update subscription
// @Description Update subscription fields. Status changes go through pause, resume and cancel.
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Subscription ID"
// @Param       request body UpdateSubscriptionRequest true "Fields to change"
// @Success     200 {object} models.Subscription "Updated subscription"
// @Failure     400 {object} ErrorResponse "Invalid input or subscription ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	next, err := parseOptionalDate("next_billing_date", req.NextBillingDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.UpdateSubscription(userID, subscriptionID, services.SubscriptionUpdate{
		ServiceName:     req.ServiceName,
		CategoryID:      req.CategoryID,
		Cost:            req.Cost,
		Currency:        req.Currency,
		BillingCycle:    req.BillingCycle,
		CustomDays:      req.CustomDays,
		NextBillingDate: next,
		AutoRenewal:     req.AutoRenewal,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SUBSCRIPTION", "subscription", subscriptionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// PauseSubscription pauses an active subscription.
// @Summary     Pause subscription
// @Description Stop reminders and auto-renewals until resumed
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Paused subscription"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     409 {object} ErrorResponse "Subscription is not active"
// @Router      /subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) PauseSubscription(c *gin.Context) {
	h.changeStatus(c, "PAUSE_SUBSCRIPTION", func(userID, id string) (*models.Subscription, error) {
		return h.subscriptionService.PauseSubscription(userID, id)
	})
}

// ResumeSubscription resumes a paused subscription.
// @Summary     Resume subscription
// @Description Reactivate a paused subscription. A billing date missed while paused moves forward.
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Resumed subscription"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     409 {object} ErrorResponse "Subscription is not paused"
// @Router      /subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) ResumeSubscription(c *gin.Context) {
	h.changeStatus(c, "RESUME_SUBSCRIPTION", func(userID, id string) (*models.Subscription, error) {
		day, err := today(c)
		if err != nil {
			return nil, err
		}
		return h.subscriptionService.ResumeSubscription(userID, id, day)
	})
}

// CancelSubscription cancels a subscription for good.
// @Summary     Cancel subscription
// @Description Cancel a subscription. Cancelled subscriptions cannot be resumed.
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Cancelled subscription"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     409 {object} ErrorResponse "Already cancelled"
// @Router      /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	h.changeStatus(c, "CANCEL_SUBSCRIPTION", func(userID, id string) (*models.Subscription, error) {
		return h.subscriptionService.CancelSubscription(userID, id)
	})
}

func (h *SubscriptionHandler) changeStatus(c *gin.Context, action string, apply func(userID, id string) (*models.Subscription, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := apply(userID, subscriptionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "subscription", subscriptionID, c.ClientIP(),
		map[string]any{"status": sub.Status})

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// DeleteSubscription deletes a subscription.
// @Summary     Delete subscription
// @Description Soft-delete a subscription. Expenses it generated are kept.
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} MessageResponse "Subscription deleted"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.subscriptionService.DeleteSubscription(userID, subscriptionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SUBSCRIPTION", "subscription", subscriptionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted successfully"})
}

// GetUpcomingRenewals lists subscriptions billing soon.
// @Summary     Upcoming renewals
// @Description Active subscriptions billing within the next N days, overdue ones included
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       days  query int    false "Look-ahead window in days (default 7)"
// @Param       as_of query string false "Reference day (YYYY-MM-DD, default today)"
// @Success     200 {array}  models.Subscription "Upcoming renewals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions/upcoming [get]
func (h *SubscriptionHandler) GetUpcomingRenewals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days := defaultUpcomingDays
	if v := c.Query("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 0 || days > maxUpcomingDays {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be between 0 and 365"))
			return
		}
	}

	day, err := today(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subs, err := h.subscriptionService.GetUpcomingRenewals(userID, day, days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "days": days})
}

// GetMonthlyCost totals active subscription cost.
// @Summary     Monthly subscription cost
// @Description Normalised monthly and yearly cost of active subscriptions per currency
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.CurrencyCost "Totals per currency"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions/monthly-cost [get]
func (h *SubscriptionHandler) GetMonthlyCost(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.subscriptionService.GetMonthlyCost(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}
