// Package budget evaluates a budget's live status from its definition and the
// expenses attributable to it. Everything here is pure: callers load the data,
// the evaluator only does arithmetic over it.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"lifeos/internal/calendar"
)

// Status is the health of a budget for its period.
type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// DefaultAlertThreshold is used when a budget has no threshold configured.
const DefaultAlertThreshold = 80

var hundred = decimal.NewFromInt(100)

// Definition is the part of a budget the evaluator needs.
// A nil CategoryID means an overall budget spanning every category.
type Definition struct {
	Amount         decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	AlertThreshold float64
	CategoryID     *string
}

// Entry is a single expense already filtered to the budget owner.
type Entry struct {
	Amount     decimal.Decimal
	Date       time.Time
	CategoryID *string
}

// Result bundles every computed figure for one budget.
type Result struct {
	Spent                 decimal.Decimal `json:"spent"`
	Remaining             decimal.Decimal `json:"remaining"`
	UtilizationPercentage float64         `json:"utilization_percentage"`
	Status                Status          `json:"status"`
	ProjectedSpending     decimal.Decimal `json:"projected_spending"`
}

// Evaluate computes all figures for def as of the given day.
func Evaluate(def Definition, entries []Entry, asOf time.Time) Result {
	spent := CurrentSpending(def, entries)
	return Result{
		Spent:                 spent,
		Remaining:             def.Amount.Sub(spent),
		UtilizationPercentage: utilization(def.Amount, spent),
		Status:                statusFor(def, spent),
		ProjectedSpending:     project(def, spent, asOf),
	}
}

// CurrentSpending sums the entries dated within the budget period whose
// category matches the budget's category.
func CurrentSpending(def Definition, entries []Entry) decimal.Decimal {
	start, end := calendar.Day(def.StartDate), calendar.Day(def.EndDate)
	total := decimal.Zero
	for _, e := range entries {
		d := calendar.Day(e.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		if !def.matchesCategory(e.CategoryID) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// RemainingAmount is the budget amount minus current spending. It goes
// negative once the budget is overspent.
func RemainingAmount(def Definition, entries []Entry) decimal.Decimal {
	return def.Amount.Sub(CurrentSpending(def, entries))
}

// UtilizationPercentage returns spending as a percentage of the amount,
// rounded to one decimal place. It is not capped at 100.
func UtilizationPercentage(def Definition, entries []Entry) float64 {
	return utilization(def.Amount, CurrentSpending(def, entries))
}

// StatusOf classifies the budget. The alert threshold is inclusive. The
// comparison uses the unrounded ratio so 99.99% stays a warning even though it
// displays as 100.0.
func StatusOf(def Definition, entries []Entry) Status {
	return statusFor(def, CurrentSpending(def, entries))
}

// ProjectedSpending linearly extrapolates current spending over the whole
// period. Once the period has ended the projection equals actual spending.
func ProjectedSpending(def Definition, entries []Entry, asOf time.Time) decimal.Decimal {
	return project(def, CurrentSpending(def, entries), asOf)
}

func utilization(amount, spent decimal.Decimal) float64 {
	pct, _ := ratio(amount, spent).Round(1).Float64()
	return pct
}

func ratio(amount, spent decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(hundred).Div(amount)
}

func statusFor(def Definition, spent decimal.Decimal) Status {
	pct := ratio(def.Amount, spent)
	switch {
	case pct.GreaterThanOrEqual(hundred):
		return StatusExceeded
	case pct.GreaterThanOrEqual(decimal.NewFromFloat(def.threshold())):
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

func project(def Definition, spent decimal.Decimal, asOf time.Time) decimal.Decimal {
	start, end, day := calendar.Day(def.StartDate), calendar.Day(def.EndDate), calendar.Day(asOf)
	totalDays := calendar.DaysBetween(start, end) + 1
	if totalDays < 1 || day.After(end) {
		return spent
	}
	elapsed := calendar.DaysBetween(start, day)
	if elapsed < 1 {
		elapsed = 1
	}

	return spent.Mul(decimal.NewFromInt(int64(totalDays))).Div(decimal.NewFromInt(int64(elapsed))).Round(2)
}

func (d Definition) threshold() float64 {
	if d.AlertThreshold <= 0 {
		return DefaultAlertThreshold
	}
	return d.AlertThreshold
}

func (d Definition) matchesCategory(categoryID *string) bool {
	if d.CategoryID == nil {
		return true
	}
	return categoryID != nil && *categoryID == *d.CategoryID
}
