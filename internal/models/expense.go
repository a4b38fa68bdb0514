package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus represents the lifecycle state of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending   ExpenseStatus = "pending"
	ExpenseStatusConfirmed ExpenseStatus = "confirmed"
)

// Expense is money spent by a user. Generated expenses carry a provenance
// tag such as "subscription:<id>" instead of a foreign key.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Description string          `json:"description"`
	Status      ExpenseStatus   `gorm:"not null;default:'confirmed'" json:"status"`

	Tags     []ExpenseTag `gorm:"foreignKey:ExpenseID" json:"tags"`
	Category *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TagNames returns the expense's tags as plain strings.
func (e *Expense) TagNames() []string {
	names := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// ExpenseTag is a free-text label on an expense. Date and UserID are copied
// from the expense so provenance lookups don't need a join.
type ExpenseTag struct {
	Base
	ExpenseID string    `gorm:"type:uuid;not null;index" json:"-"`
	UserID    string    `gorm:"type:uuid;not null" json:"-"`
	Tag       string    `gorm:"not null;index:idx_expense_tags_tag_date" json:"tag"`
	Date      time.Time `gorm:"type:date;not null;index:idx_expense_tags_tag_date" json:"-"`
}
