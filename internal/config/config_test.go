package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("JOB_INTERVAL", "")
	t.Setenv("SMTP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("JWTExpirationDur = %s, want 24h", cfg.JWTExpirationDur)
	}
	if cfg.JobInterval != time.Hour {
		t.Errorf("JobInterval = %s, want 1h", cfg.JobInterval)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JOB_API_KEY", "cron-key")
	t.Setenv("JOB_INTERVAL", "15m")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	cfg, _ := Load()
	if cfg.JobAPIKey != "cron-key" {
		t.Errorf("JobAPIKey = %q", cfg.JobAPIKey)
	}
	if cfg.JobInterval != 15*time.Minute {
		t.Errorf("JobInterval = %s, want 15m", cfg.JobInterval)
	}
	if cfg.MetricsEnable {
		t.Error("expected metrics to be disabled")
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("invalid duration should fall back to 24h, got %s", cfg.JWTExpirationDur)
	}
}

func TestLoad_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, raw := range []string{"0s", "-5m"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("JOB_INTERVAL", raw)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.JobInterval != time.Hour {
				t.Errorf("JobInterval = %s, want 1h", cfg.JobInterval)
			}
		})
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{DefaultTZ: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC fallback for unknown zone")
	}
	cfg.DefaultTZ = "Europe/Berlin"
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}
