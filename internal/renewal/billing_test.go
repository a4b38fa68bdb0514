package renewal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lifeos/internal/calendar"
	"lifeos/internal/models"
)

func mustDay(s string) time.Time {
	d, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name   string
		cycle  models.BillingCycle
		custom int
		start  string
		next   string
		want   string
	}{
		{"weekly", models.BillingCycleWeekly, 0, "2024-01-01", "2024-01-29", "2024-02-05"},
		{"monthly", models.BillingCycleMonthly, 0, "2024-01-15", "2024-03-15", "2024-04-15"},
		{"monthly_clamps", models.BillingCycleMonthly, 0, "2024-01-31", "2024-01-31", "2024-02-29"},
		{"monthly_restores_anchor", models.BillingCycleMonthly, 0, "2024-01-31", "2024-02-29", "2024-03-31"},
		{"quarterly", models.BillingCycleQuarterly, 0, "2024-01-10", "2024-01-10", "2024-04-10"},
		{"yearly_leap", models.BillingCycleYearly, 0, "2024-02-29", "2024-02-29", "2025-02-28"},
		{"custom", models.BillingCycleCustom, 10, "2024-01-01", "2024-01-01", "2024-01-11"},
		{"custom_without_days", models.BillingCycleCustom, 0, "2024-01-01", "2024-01-01", "2024-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &models.Subscription{
				BillingCycle:    tt.cycle,
				CustomDays:      tt.custom,
				StartDate:       mustDay(tt.start),
				NextBillingDate: mustDay(tt.next),
			}
			if got := calendar.Format(NextBillingDate(sub)); got != tt.want {
				t.Errorf("NextBillingDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAdvancePast(t *testing.T) {
	sub := &models.Subscription{
		BillingCycle:    models.BillingCycleMonthly,
		StartDate:       mustDay("2024-01-31"),
		NextBillingDate: mustDay("2024-01-31"),
	}

	next, cycles := AdvancePast(sub, mustDay("2024-04-02"))
	if calendar.Format(next) != "2024-04-30" || cycles != 3 {
		t.Errorf("AdvancePast() = %s (%d cycles), want 2024-04-30 (3 cycles)", calendar.Format(next), cycles)
	}

	future := &models.Subscription{
		BillingCycle:    models.BillingCycleWeekly,
		NextBillingDate: mustDay("2024-05-01"),
	}
	next, cycles = AdvancePast(future, mustDay("2024-04-02"))
	if calendar.Format(next) != "2024-05-01" || cycles != 0 {
		t.Errorf("future date should not move, got %s (%d cycles)", calendar.Format(next), cycles)
	}
}

func TestMonthlyCost(t *testing.T) {
	tests := []struct {
		cycle  models.BillingCycle
		custom int
		cost   string
		want   string
	}{
		{models.BillingCycleMonthly, 0, "9.99", "9.99"},
		{models.BillingCycleYearly, 0, "120", "10"},
		{models.BillingCycleQuarterly, 0, "30", "10"},
		{models.BillingCycleWeekly, 0, "10", "43.45"},
		{models.BillingCycleCustom, 14, "14", "30.44"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			sub := &models.Subscription{BillingCycle: tt.cycle, CustomDays: tt.custom, Cost: decimal.RequireFromString(tt.cost)}
			if got := MonthlyCost(sub); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MonthlyCost() = %s, want %s", got, tt.want)
			}
		})
	}
}
