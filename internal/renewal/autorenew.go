package renewal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lifeos/internal/calendar"
	"lifeos/internal/models"
)

// Provenance tag prefixes for generated expenses.
const (
	SubscriptionTagPrefix = "subscription:"
	UtilityBillTagPrefix  = "utility-bill:"
)

// SubscriptionTag is the tag carried by expenses generated for a subscription.
func SubscriptionTag(subscriptionID string) string {
	return SubscriptionTagPrefix + subscriptionID
}

// UtilityBillTag is the tag carried by the expense generated for a paid bill.
func UtilityBillTag(billID string) string {
	return UtilityBillTagPrefix + billID
}

// IsProvenanceTag reports whether tag marks a generated expense.
func IsProvenanceTag(tag string) bool {
	return strings.HasPrefix(tag, SubscriptionTagPrefix) || strings.HasPrefix(tag, UtilityBillTagPrefix)
}

// ExpenseRequest is an expense to be inserted by the caller.
type ExpenseRequest struct {
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	CategoryID  *string
	Date        time.Time
	Description string
	Status      models.ExpenseStatus
	Tags        []string
}

// ProvenanceTag returns the first generated-expense tag on the request.
func (r ExpenseRequest) ProvenanceTag() string {
	for _, t := range r.Tags {
		if IsProvenanceTag(t) {
			return t
		}
	}
	return ""
}

// Expense converts the request into a model ready to insert.
func (r ExpenseRequest) Expense() *models.Expense {
	date := calendar.Day(r.Date)
	e := &models.Expense{
		UserID:      r.UserID,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Date:        date,
		Description: r.Description,
		Status:      r.Status,
	}
	for _, t := range r.Tags {
		e.Tags = append(e.Tags, models.ExpenseTag{UserID: r.UserID, Tag: t, Date: date})
	}
	return e
}

// ShouldGenerate reports whether an auto-renewal expense should be created
// today. existingTags are the tags of the owner's expenses dated today; the
// subscription tag being among them means today's expense already exists.
func ShouldGenerate(sub *models.Subscription, today time.Time, existingTags []string) bool {
	if sub == nil {
		return false
	}
	if sub.Status != models.SubscriptionStatusActive || !sub.AutoRenewal {
		return false
	}
	if calendar.Day(sub.NextBillingDate).After(calendar.Day(today)) {
		return false
	}
	return !containsTag(existingTags, SubscriptionTag(sub.ID))
}

// BuildExpenseRequest produces the auto-renewal expense for today.
func BuildExpenseRequest(sub *models.Subscription, today time.Time) ExpenseRequest {
	return ExpenseRequest{
		UserID:      sub.UserID,
		Amount:      sub.Cost,
		Currency:    sub.Currency,
		CategoryID:  sub.CategoryID,
		Date:        calendar.Day(today),
		Description: fmt.Sprintf("%s renewal", sub.ServiceName),
		Status:      models.ExpenseStatusConfirmed,
		Tags:        []string{SubscriptionTag(sub.ID)},
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
