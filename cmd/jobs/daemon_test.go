package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lifeos/internal/calendar"
	"lifeos/internal/logger"
	"lifeos/internal/services"
)

type stubJobs struct{}

func (stubJobs) RunRenewalReminders(_ context.Context, today time.Time) (*services.JobReport, error) {
	return &services.JobReport{Job: services.JobRenewalReminders, Date: calendar.Format(today)}, nil
}

func (stubJobs) RunAutoRenewals(_ context.Context, today time.Time) (*services.JobReport, error) {
	return &services.JobReport{Job: services.JobAutoRenewals, Date: calendar.Format(today)}, nil
}

var _ services.RenewalJobServicer = stubJobs{}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestScheduler_Tick(t *testing.T) {
	day1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	t.Run("runs once per day", func(t *testing.T) {
		current := day1
		var runs []time.Time
		s := &scheduler{
			today: func() time.Time { return current },
			run: func(_ context.Context, day time.Time) error {
				runs = append(runs, day)
				return nil
			},
		}

		if !s.tick(context.Background()) {
			t.Fatal("expected first tick to run")
		}
		if s.tick(context.Background()) {
			t.Error("expected second tick on the same day to skip")
		}
		current = day2
		if !s.tick(context.Background()) {
			t.Error("expected a run on the next day")
		}
		if len(runs) != 2 || !runs[1].Equal(day2) {
			t.Errorf("unexpected runs %v", runs)
		}
	})

	t.Run("retries after a failed run", func(t *testing.T) {
		calls := 0
		s := &scheduler{
			today: func() time.Time { return day1 },
			run: func(_ context.Context, _ time.Time) error {
				calls++
				if calls == 1 {
					return errors.New("db down")
				}
				return nil
			},
		}

		s.tick(context.Background())
		s.tick(context.Background())
		s.tick(context.Background())

		if calls != 2 {
			t.Errorf("expected 2 attempts, got %d", calls)
		}
	})
}

func TestScheduler_LoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	s := &scheduler{
		today: func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
		run: func(_ context.Context, _ time.Time) error {
			runs++
			cancel()
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		s.loop(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	if runs != 1 {
		t.Errorf("expected one run, got %d", runs)
	}
}

func TestScheduler_LoopNonPositiveInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scheduler{
		today: func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
		run: func(_ context.Context, _ time.Time) error {
			cancel()
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		s.loop(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestDailyRun_LogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	run := dailyRun(stubJobs{}, failingWriter{})
	if err := run(context.Background(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("a failed report write should not fail the run: %v", err)
	}

	entries := logs.FilterMessage("Failed to write job reports").All()
	if len(entries) != 1 {
		t.Fatalf("expected one logged write failure, got %d", len(entries))
	}
	if entries[0].ContextMap()["date"] != "2025-03-01" {
		t.Errorf("unexpected log context %v", entries[0].ContextMap())
	}
}

func TestReferenceDay(t *testing.T) {
	t.Cleanup(func() { flagDate = "" })

	flagDate = "2025-02-28"
	d, err := referenceDay(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", d)
	}

	flagDate = "28/02/2025"
	if _, err := referenceDay(time.UTC); err == nil {
		t.Error("expected an error for a malformed date")
	}
}
