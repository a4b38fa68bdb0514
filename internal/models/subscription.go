package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle represents how often a subscription is charged
type BillingCycle string

const (
	BillingCycleWeekly    BillingCycle = "weekly"
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
	BillingCycleCustom    BillingCycle = "custom"
)

// SubscriptionStatus represents the state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a recurring charge such as a streaming service or gym.
type Subscription struct {
	Base
	UserID          string             `gorm:"type:uuid;not null;index" json:"user_id"`
	ServiceName     string             `gorm:"not null" json:"service_name"`
	CategoryID      *string            `gorm:"type:uuid" json:"category_id"`
	Cost            decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"cost"`
	Currency        string             `gorm:"size:3;not null;default:'USD'" json:"currency"`
	BillingCycle    BillingCycle       `gorm:"not null" json:"billing_cycle"`
	CustomDays      int                `json:"custom_days,omitempty"`
	StartDate       time.Time          `gorm:"type:date;not null" json:"start_date"`
	NextBillingDate time.Time          `gorm:"type:date;not null;index" json:"next_billing_date"`
	Status          SubscriptionStatus `gorm:"not null;default:'active';index" json:"status"`
	AutoRenewal     bool               `gorm:"default:false" json:"auto_renewal"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	Notes           string             `json:"notes,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
