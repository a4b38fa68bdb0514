package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lifeos/internal/calendar"
	"lifeos/internal/logger"
	"lifeos/internal/services"
)

const defaultInterval = time.Hour

var flagInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the daily jobs once per calendar day until stopped",
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&flagInterval, "interval", 0, "How often to check whether today's run is due (default: JOB_INTERVAL)")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	interval := flagInterval
	if interval <= 0 {
		interval = app.Config.JobInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := app.Config.Location()
	s := &scheduler{
		today: func() time.Time { return calendar.Today(loc) },
		run:   dailyRun(app.Jobs, os.Stdout),
	}
	s.loop(ctx, interval)
	return nil
}

// dailyRun runs both jobs and writes their reports to out. A failed write is
// logged and does not fail the run.
func dailyRun(jobs services.RenewalJobServicer, out io.Writer) func(ctx context.Context, day time.Time) error {
	return func(ctx context.Context, day time.Time) error {
		reports, err := services.RunDaily(ctx, jobs, day)
		if werr := writeReports(out, reports...); werr != nil {
			logger.Named("jobs.daemon").Errorw("Failed to write job reports", "date", calendar.Format(day), "error", werr)
		}
		return err
	}
}

// scheduler runs the daily jobs at most once per calendar day. A failed run
// is retried on the next tick.
type scheduler struct {
	today   func() time.Time
	run     func(ctx context.Context, day time.Time) error
	lastDay time.Time
}

// tick runs the jobs if today has not been handled yet and reports whether
// it did.
func (s *scheduler) tick(ctx context.Context) bool {
	day := s.today()
	if !s.lastDay.IsZero() && calendar.SameDay(s.lastDay, day) {
		return false
	}

	log := logger.Named("jobs.daemon")
	log.Infow("Running daily jobs", "date", calendar.Format(day))
	if err := s.run(ctx, day); err != nil {
		log.Errorw("Daily jobs failed", "date", calendar.Format(day), "error", err)
		return true
	}
	s.lastDay = day
	return true
}

func (s *scheduler) loop(ctx context.Context, interval time.Duration) {
	log := logger.Named("jobs.daemon")
	if interval <= 0 {
		log.Warnw("Non-positive job interval, using default", "interval", interval.String(), "default", defaultInterval.String())
		interval = defaultInterval
	}
	log.Infow("Job daemon started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Job daemon stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}
