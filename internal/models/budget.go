package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending over a date range, either for one category or,
// when CategoryID is nil, across all of them.
type Budget struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     *string         `gorm:"type:uuid" json:"category_id"`
	Name           string          `gorm:"not null" json:"name"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	StartDate      time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate        time.Time       `gorm:"type:date;not null" json:"end_date"`
	AlertThreshold float64         `gorm:"not null;default:80" json:"alert_threshold"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	RolloverUnused bool            `gorm:"default:false" json:"rollover_unused"`
	Notes          string          `json:"notes,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsOverall reports whether the budget spans every category.
func (b *Budget) IsOverall() bool {
	return b.CategoryID == nil
}
