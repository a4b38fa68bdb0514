// Package renewal decides when subscriptions need attention: whether a
// renewal reminder is due today and whether an auto-renewal or paid utility
// bill should produce an expense. All functions are pure; callers supply
// "today" and perform the writes, guarded by the keys and tags derived here.
package renewal

import (
	"fmt"
	"time"

	"lifeos/internal/calendar"
	"lifeos/internal/models"
)

// DaysUntilDue returns the whole days from today until the next billing
// date. Negative values mean the subscription is overdue.
func DaysUntilDue(nextBillingDate, today time.Time) int {
	return calendar.DaysBetween(today, nextBillingDate)
}

// IsNotificationDue reports whether a renewal reminder should go out today.
//
// A reminder is due when the days until billing is one of the configured
// offsets. Offset 0 additionally covers every overdue day, so an overdue
// subscription stays due until its billing date is advanced. Offsets other
// than 0 are exact matches only: a missed day is not caught up later.
func IsNotificationDue(sub *models.Subscription, pref *models.NotificationPreference, today time.Time) bool {
	if sub == nil || pref == nil {
		return false
	}
	if sub.Status != models.SubscriptionStatusActive {
		return false
	}
	if !pref.Enabled || len(pref.EnabledChannels()) == 0 {
		return false
	}

	d := DaysUntilDue(sub.NextBillingDate, today)
	if pref.Days.Contains(d) {
		return true
	}
	return d < 0 && pref.Days.Contains(0)
}

// DispatchKey identifies one reminder for one subscription on one calendar
// day. Recording it before delivery keeps repeated runs from re-sending.
func DispatchKey(subscriptionID string, today time.Time) string {
	return fmt.Sprintf("%s:%s:%s", models.NotificationTypeSubscriptionRenewal, subscriptionID, calendar.Format(today))
}

// Reminder describes a due renewal reminder.
type Reminder struct {
	SubscriptionID string
	UserID         string
	ServiceName    string
	DaysUntilDue   int
	DedupeKey      string
}

// Overdue reports whether the billing date has already passed.
func (r Reminder) Overdue() bool {
	return r.DaysUntilDue < 0
}

// Title is the one-line summary used by every channel.
func (r Reminder) Title() string {
	switch {
	case r.DaysUntilDue < 0:
		return fmt.Sprintf("%s renewal is overdue", r.ServiceName)
	case r.DaysUntilDue == 0:
		return fmt.Sprintf("%s renews today", r.ServiceName)
	case r.DaysUntilDue == 1:
		return fmt.Sprintf("%s renews tomorrow", r.ServiceName)
	default:
		return fmt.Sprintf("%s renews in %d days", r.ServiceName, r.DaysUntilDue)
	}
}

// CheckReminder returns the reminder to send today, if any.
func CheckReminder(sub *models.Subscription, pref *models.NotificationPreference, today time.Time) (Reminder, bool) {
	if !IsNotificationDue(sub, pref, today) {
		return Reminder{}, false
	}
	return Reminder{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		ServiceName:    sub.ServiceName,
		DaysUntilDue:   DaysUntilDue(sub.NextBillingDate, today),
		DedupeKey:      DispatchKey(sub.ID, today),
	}, true
}
