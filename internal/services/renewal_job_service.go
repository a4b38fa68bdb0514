package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/logger"
	"lifeos/internal/metrics"
	"lifeos/internal/models"
	"lifeos/internal/notify"
	"lifeos/internal/renewal"
)

const (
	JobRenewalReminders = "renewal_reminders"
	JobAutoRenewals     = "auto_renewals"
)

// renewalJobService runs the daily subscription jobs: renewal reminders and
// auto-renewal expense generation.
type renewalJobService struct {
	db            *gorm.DB
	expenses      ExpenseServicer
	notifications NotificationServicer
	dispatcher    *notify.Dispatcher
}

// NewRenewalJobService creates a new RenewalJobServicer.
func NewRenewalJobService(
	db *gorm.DB,
	expenses ExpenseServicer,
	notifications NotificationServicer,
	dispatcher *notify.Dispatcher,
) RenewalJobServicer {
	return &renewalJobService{db: db, expenses: expenses, notifications: notifications, dispatcher: dispatcher}
}

// recipient caches what the jobs need to know about a subscription owner.
type recipient struct {
	user *models.User
	pref *models.NotificationPreference
}

// RunRenewalReminders sends at most one reminder per subscription per day.
// Each reminder is claimed before delivery; if no channel delivers it the
// claim is released so a later run can retry.
func (s *renewalJobService) RunRenewalReminders(ctx context.Context, today time.Time) (*JobReport, error) {
	day := calendar.Day(today)
	report := &JobReport{Job: JobRenewalReminders, Date: calendar.Format(day)}
	log := logger.Named("jobs.renewal")
	start := time.Now()
	defer observeJob(report, start)

	var subs []models.Subscription
	if err := s.db.Where("status = ?", models.SubscriptionStatusActive).
		Order("next_billing_date ASC").
		Find(&subs).Error; err != nil {
		metrics.JobRuns.WithLabelValues(report.Job, "error").Inc()
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	owners := make(map[string]*recipient)
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sub := &subs[i]
		report.Considered++

		owner, err := s.recipientFor(owners, sub.UserID, models.NotificationTypeSubscriptionRenewal)
		if err != nil {
			report.fail(sub.ID, err)
			continue
		}

		reminder, due := renewal.CheckReminder(sub, owner.pref, day)
		if !due {
			report.Skipped++
			continue
		}

		channels := owner.pref.EnabledChannels()
		claimed, err := s.notifications.ClaimDispatch(&models.NotificationDispatch{
			UserID:           sub.UserID,
			NotificationType: models.NotificationTypeSubscriptionRenewal,
			ResourceID:       sub.ID,
			DispatchDate:     day,
			DedupeKey:        reminder.DedupeKey,
			Channels:         joinChannels(channels),
		})
		if err != nil {
			report.fail(sub.ID, err)
			continue
		}
		if !claimed {
			report.Skipped++
			continue
		}

		res := s.dispatcher.Deliver(ctx, notify.Message{
			UserID: sub.UserID,
			Email:  owner.user.Email,
			Type:   models.NotificationTypeSubscriptionRenewal,
			Title:  reminder.Title(),
			Body:   reminderBody(sub, reminder),
		}, channels)

		if !res.Any() {
			if err := s.notifications.ReleaseDispatch(reminder.DedupeKey); err != nil {
				log.Errorw("failed to release dispatch claim", "dedupe_key", reminder.DedupeKey, "error", err)
			}
			if len(res.Failed) > 0 {
				report.fail(sub.ID, res.Err())
			} else {
				report.Skipped++
			}
			continue
		}
		if len(res.Failed) > 0 {
			log.Warnw("reminder partially delivered", "subscription_id", sub.ID, "error", res.Err())
		}
		report.Processed++
	}

	log.Infow("renewal reminders finished",
		"date", report.Date, "considered", report.Considered,
		"sent", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
	metrics.JobRuns.WithLabelValues(report.Job, "ok").Inc()
	return report, nil
}

// RunAutoRenewals records today's expense for every due auto-renewing
// subscription and moves its billing date past today. Running it again on
// the same day creates nothing new.
func (s *renewalJobService) RunAutoRenewals(ctx context.Context, today time.Time) (*JobReport, error) {
	day := calendar.Day(today)
	report := &JobReport{Job: JobAutoRenewals, Date: calendar.Format(day)}
	log := logger.Named("jobs.renewal")
	start := time.Now()
	defer observeJob(report, start)

	var subs []models.Subscription
	if err := s.db.Where("status = ? AND auto_renewal = ? AND next_billing_date <= ?",
		models.SubscriptionStatusActive, true, day).
		Order("next_billing_date ASC").
		Find(&subs).Error; err != nil {
		metrics.JobRuns.WithLabelValues(report.Job, "error").Inc()
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	owners := make(map[string]*recipient)
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sub := &subs[i]
		report.Considered++

		tags, err := s.expenses.TagsOnDate(sub.UserID, day)
		if err != nil {
			report.fail(sub.ID, err)
			continue
		}

		created := false
		var expense *models.Expense
		if renewal.ShouldGenerate(sub, day, tags) {
			expense, created, err = s.expenses.CreateTaggedExpenseOnce(renewal.BuildExpenseRequest(sub, day))
			if err != nil {
				report.fail(sub.ID, err)
				continue
			}
		}

		next, cycles := renewal.AdvancePast(sub, day)
		if err := s.db.Model(sub).Update("next_billing_date", next).Error; err != nil {
			report.fail(sub.ID, err)
			continue
		}

		if !created {
			report.Skipped++
			continue
		}
		report.Processed++
		metrics.ExpensesGenerated.WithLabelValues("subscription").Inc()
		log.Infow("auto-renewal expense created",
			"subscription_id", sub.ID, "expense_id", expense.ID,
			"next_billing_date", calendar.Format(next), "cycles", cycles)

		s.notifyRenewed(ctx, owners, sub, next)
	}

	log.Infow("auto-renewals finished",
		"date", report.Date, "considered", report.Considered,
		"created", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
	metrics.JobRuns.WithLabelValues(report.Job, "ok").Inc()
	return report, nil
}

// notifyRenewed tells the owner an expense was recorded. Delivery problems
// are logged only; the expense is already in place.
func (s *renewalJobService) notifyRenewed(ctx context.Context, owners map[string]*recipient, sub *models.Subscription, next time.Time) {
	owner, err := s.recipientFor(owners, sub.UserID, models.NotificationTypeAutoRenewal)
	if err != nil || !owner.pref.Enabled {
		return
	}
	res := s.dispatcher.Deliver(ctx, notify.Message{
		UserID: sub.UserID,
		Email:  owner.user.Email,
		Type:   models.NotificationTypeAutoRenewal,
		Title:  fmt.Sprintf("%s renewed", sub.ServiceName),
		Body: fmt.Sprintf("Recorded an expense of %s %s. Next billing date: %s.",
			sub.Cost.StringFixed(2), sub.Currency, calendar.Format(next)),
	}, owner.pref.EnabledChannels())
	if err := res.Err(); err != nil {
		logger.Named("jobs.renewal").Warnw("auto-renewal notice not delivered", "subscription_id", sub.ID, "error", err)
	}
}

// recipientFor loads the owner and their preference for notificationType,
// caching per user and type for the rest of the run.
func (s *renewalJobService) recipientFor(cache map[string]*recipient, userID string, notificationType models.NotificationType) (*recipient, error) {
	key := userID + "|" + string(notificationType)
	if r, ok := cache[key]; ok {
		return r, nil
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	pref, err := s.notifications.GetPreference(userID, notificationType)
	if err != nil {
		return nil, err
	}

	r := &recipient{user: &user, pref: pref}
	cache[key] = r
	return r, nil
}

// RunDaily runs the reminders and then the auto-renewals for today. The
// reminders go first so a subscription due today still gets its day-of
// reminder before auto-renewal moves the billing date on.
func RunDaily(ctx context.Context, jobs RenewalJobServicer, today time.Time) ([]*JobReport, error) {
	reminders, err := jobs.RunRenewalReminders(ctx, today)
	if err != nil {
		return nil, err
	}
	renewals, err := jobs.RunAutoRenewals(ctx, today)
	if err != nil {
		return []*JobReport{reminders}, err
	}
	return []*JobReport{reminders, renewals}, nil
}

func (r *JobReport) fail(subscriptionID string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("subscription %s: %v", subscriptionID, err))
	logger.Named("jobs.renewal").Errorw("job item failed", "job", r.Job, "subscription_id", subscriptionID, "error", err)
}

func observeJob(r *JobReport, start time.Time) {
	metrics.JobDuration.WithLabelValues(r.Job).Observe(time.Since(start).Seconds())
	metrics.JobItems.WithLabelValues(r.Job, "processed").Add(float64(r.Processed))
	metrics.JobItems.WithLabelValues(r.Job, "skipped").Add(float64(r.Skipped))
	metrics.JobItems.WithLabelValues(r.Job, "failed").Add(float64(r.Failed))
}

func reminderBody(sub *models.Subscription, r renewal.Reminder) string {
	amount := sub.Cost.StringFixed(2) + " " + sub.Currency
	if r.Overdue() {
		return fmt.Sprintf("The %s payment of %s was due on %s.", sub.ServiceName, amount, calendar.Format(sub.NextBillingDate))
	}
	return fmt.Sprintf("Your %s subscription (%s, %s) renews on %s.",
		sub.ServiceName, amount, sub.BillingCycle, calendar.Format(sub.NextBillingDate))
}

func joinChannels(chs []models.Channel) string {
	names := make([]string, len(chs))
	for i, c := range chs {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}
