package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UtilityType represents the kind of utility a bill is for
type UtilityType string

const (
	UtilityTypeElectricity UtilityType = "electricity"
	UtilityTypeGas         UtilityType = "gas"
	UtilityTypeWater       UtilityType = "water"
	UtilityTypeInternet    UtilityType = "internet"
	UtilityTypePhone       UtilityType = "phone"
	UtilityTypeOther       UtilityType = "other"
)

// PaymentStatus represents whether a bill has been paid
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// UtilityBill is a single bill from a utility provider.
type UtilityBill struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID         *string         `gorm:"type:uuid" json:"category_id"`
	UtilityType        UtilityType     `gorm:"not null" json:"utility_type"`
	Provider           string          `gorm:"not null" json:"provider"`
	AccountNumber      string          `json:"account_number,omitempty"`
	Amount             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency           string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	BillingPeriodStart time.Time       `gorm:"type:date;not null" json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `gorm:"type:date;not null" json:"billing_period_end"`
	DueDate            time.Time       `gorm:"type:date;not null" json:"due_date"`
	PaymentStatus      PaymentStatus   `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentDate        *time.Time      `gorm:"type:date" json:"payment_date,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}
