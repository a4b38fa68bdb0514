package renewal

import (
	"time"

	"github.com/shopspring/decimal"

	"lifeos/internal/calendar"
	"lifeos/internal/models"
)

// NextBillingDate returns the billing date one cycle after the current one.
// Month-based cycles keep the start date's day of month, clamped to the
// length of the target month.
func NextBillingDate(sub *models.Subscription) time.Time {
	current := calendar.Day(sub.NextBillingDate)
	anchor := calendar.Day(sub.StartDate).Day()
	if sub.StartDate.IsZero() {
		anchor = current.Day()
	}

	switch sub.BillingCycle {
	case models.BillingCycleWeekly:
		return current.AddDate(0, 0, 7)
	case models.BillingCycleQuarterly:
		return calendar.AddMonths(current, 3, anchor)
	case models.BillingCycleYearly:
		return calendar.AddMonths(current, 12, anchor)
	case models.BillingCycleCustom:
		days := sub.CustomDays
		if days < 1 {
			days = 1
		}
		return current.AddDate(0, 0, days)
	default:
		return calendar.AddMonths(current, 1, anchor)
	}
}

// AdvancePast moves the billing date forward cycle by cycle until it falls
// after today. It returns the new date and how many cycles were skipped.
func AdvancePast(sub *models.Subscription, today time.Time) (time.Time, int) {
	day := calendar.Day(today)
	next := calendar.Day(sub.NextBillingDate)
	cycles := 0
	cursor := *sub
	for !next.After(day) {
		cursor.NextBillingDate = next
		next = NextBillingDate(&cursor)
		cycles++
	}
	return next, cycles
}

var (
	weeksPerMonth = decimal.RequireFromString("4.345")
	daysPerMonth  = decimal.RequireFromString("30.4375")
)

// MonthlyCost normalises a subscription's cost to a per-month figure.
func MonthlyCost(sub *models.Subscription) decimal.Decimal {
	switch sub.BillingCycle {
	case models.BillingCycleWeekly:
		return sub.Cost.Mul(weeksPerMonth).Round(2)
	case models.BillingCycleQuarterly:
		return sub.Cost.Div(decimal.NewFromInt(3)).Round(2)
	case models.BillingCycleYearly:
		return sub.Cost.Div(decimal.NewFromInt(12)).Round(2)
	case models.BillingCycleCustom:
		if sub.CustomDays < 1 {
			return sub.Cost
		}
		return sub.Cost.Mul(daysPerMonth).Div(decimal.NewFromInt(int64(sub.CustomDays))).Round(2)
	default:
		return sub.Cost
	}
}
