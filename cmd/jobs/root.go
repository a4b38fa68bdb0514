package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lifeos/internal/bootstrap"
	"lifeos/internal/calendar"
	"lifeos/internal/config"
	"lifeos/internal/services"
)

var (
	flagDate    string
	flagMigrate bool
)

var rootCmd = &cobra.Command{
	Use:          "lifeos-jobs",
	Short:        "Run the LifeOS scheduled jobs",
	Long:         "Send subscription renewal reminders and record auto-renewal expenses.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "Reference day as YYYY-MM-DD (default: today in DEFAULT_TIMEZONE)")
	rootCmd.PersistentFlags().BoolVar(&flagMigrate, "migrate", false, "Apply pending migrations before running")
}

// openApp loads configuration and builds the services for one command.
func openApp() (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return bootstrap.New(cfg, flagMigrate)
}

// referenceDay resolves --date, falling back to today in loc.
func referenceDay(loc *time.Location) (time.Time, error) {
	if flagDate == "" {
		return calendar.Today(loc), nil
	}
	d, err := calendar.Parse(flagDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func printReports(reports ...*services.JobReport) error {
	return writeReports(os.Stdout, reports...)
}

func writeReports(w io.Writer, reports ...*services.JobReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if r == nil {
			continue
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
