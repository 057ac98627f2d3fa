package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"` // empty = in-memory store (dev only)
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY"` // empty = console mailer
	AdminEmail     string `envconfig:"ADMIN_EMAIL" required:"true"`
	FromEmail      string `envconfig:"FROM_EMAIL"` // falls back to ADMIN_EMAIL
	FromName       string `envconfig:"FROM_NAME" default:"Lesson Booking"`

	// OperatingTZ is the tutor's reference zone; bookable hours are evaluated in it.
	OperatingTZ string `envconfig:"OPERATING_TZ" default:"America/Sao_Paulo"`

	// ReminderWindowMin is W: a student reminder is eligible when the lesson
	// starts within [now, now+W].
	ReminderWindowMin int `envconfig:"REMINDER_WINDOW_MIN" default:"60"`

	// LowBalanceCooldownHours bounds low-balance reminders to at most one per window.
	LowBalanceCooldownHours int `envconfig:"LOW_BALANCE_COOLDOWN_HOURS" default:"72"`

	// TriggerKey protects the sweep trigger and admin endpoints. Empty disables
	// the check (local dev).
	TriggerKey string `envconfig:"TRIGGER_KEY"`

	// NotifyOnBooking fires an admin sweep right after a booking is created,
	// in addition to the periodic one.
	NotifyOnBooking bool `envconfig:"NOTIFY_ON_BOOKING" default:"true"`

	AdminSweepInterval      time.Duration `envconfig:"ADMIN_SWEEP_INTERVAL" default:"5m"`
	StudentSweepInterval    time.Duration `envconfig:"STUDENT_SWEEP_INTERVAL" default:"5m"`
	LowBalanceSweepInterval time.Duration `envconfig:"LOW_BALANCE_SWEEP_INTERVAL" default:"24h"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.AdminEmail
	}
	return cfg, nil
}

// ReminderWindow returns W as a duration.
func (c Config) ReminderWindow() time.Duration {
	return time.Duration(c.ReminderWindowMin) * time.Minute
}

// LowBalanceCooldown returns the reminder cool-down as a duration.
func (c Config) LowBalanceCooldown() time.Duration {
	return time.Duration(c.LowBalanceCooldownHours) * time.Hour
}
