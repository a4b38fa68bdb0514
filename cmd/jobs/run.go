package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lifeos/internal/services"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Send the renewal reminders due today",
	RunE: runOnce(func(ctx context.Context, jobs services.RenewalJobServicer, day time.Time) ([]*services.JobReport, error) {
		r, err := jobs.RunRenewalReminders(ctx, day)
		return []*services.JobReport{r}, err
	}),
}

var autoRenewCmd = &cobra.Command{
	Use:   "auto-renew",
	Short: "Record expenses for due auto-renewing subscriptions",
	RunE: runOnce(func(ctx context.Context, jobs services.RenewalJobServicer, day time.Time) ([]*services.JobReport, error) {
		r, err := jobs.RunAutoRenewals(ctx, day)
		return []*services.JobReport{r}, err
	}),
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run reminders and then auto-renewals",
	RunE:  runOnce(services.RunDaily),
}

func init() {
	rootCmd.AddCommand(remindersCmd, autoRenewCmd, dailyCmd)
}

type jobFunc func(ctx context.Context, jobs services.RenewalJobServicer, day time.Time) ([]*services.JobReport, error)

func runOnce(job jobFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		day, err := referenceDay(app.Config.Location())
		if err != nil {
			return err
		}

		reports, err := job(cmd.Context(), app.Jobs, day)
		if perr := printReports(reports...); perr != nil {
			return perr
		}
		if err != nil {
			return fmt.Errorf("%s failed: %w", cmd.Name(), err)
		}
		return nil
	}
}
