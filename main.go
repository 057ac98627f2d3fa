package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook/config"
	"lessonbook/handlers"
	"lessonbook/logger"
	"lessonbook/mailer"
	"lessonbook/notify"
	"lessonbook/store"
	"lessonbook/store/memory"
	"lessonbook/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer zlog.Sync()

	zone, err := time.LoadLocation(cfg.OperatingTZ)
	if err != nil {
		zlog.Fatal("unknown operating timezone", zap.String("tz", cfg.OperatingTZ), zap.Error(err))
	}

	st := openStore(cfg, zlog)
	gw := openMailer(cfg, zlog)

	notifier := notify.New(st, gw, zlog, notify.Config{
		AdminEmail:         cfg.AdminEmail,
		FromEmail:          cfg.FromEmail,
		FromName:           cfg.FromName,
		ReminderWindow:     cfg.ReminderWindow(),
		LowBalanceCooldown: cfg.LowBalanceCooldown(),
		OperatingZone:      zone,
	})

	h := handlers.New(st, notifier, zlog, handlers.Options{
		OperatingZone:   zone,
		TriggerKey:      cfg.TriggerKey,
		NotifyOnBooking: cfg.NotifyOnBooking,
	})

	startSweepTickers(h, cfg, zlog)

	r := gin.Default()
	h.Register(r)

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func openStore(cfg config.Config, zlog *zap.Logger) store.Store {
	if cfg.DatabaseURL == "" {
		zlog.Warn("DATABASE_URL not set, using in-memory store; data will not survive restarts")
		return memory.New()
	}

	pg, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	schema, err := os.ReadFile("schema.sql")
	if err != nil {
		zlog.Fatal("failed to read schema.sql", zap.Error(err))
	}
	if err := pg.ApplySchema(string(schema)); err != nil {
		zlog.Fatal("failed to apply schema", zap.Error(err))
	}
	zlog.Info("database schema verified")
	return pg
}

func openMailer(cfg config.Config, zlog *zap.Logger) mailer.Mailer {
	if cfg.SendgridAPIKey == "" {
		zlog.Warn("SENDGRID_API_KEY not set, emails go to the log only")
		return mailer.NewConsole(zlog)
	}
	return mailer.NewSendGrid(cfg.SendgridAPIKey)
}

// startSweepTickers drives the three sweeps on their cadences. The HTTP
// trigger endpoints stay available for on-demand runs; the shared guards in
// handlers keep the two paths from overlapping.
func startSweepTickers(h *handlers.Handler, cfg config.Config, zlog *zap.Logger) {
	run := func(interval time.Duration, kind string, trigger func(context.Context) (notify.SweepResult, bool, error)) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if _, ran, err := trigger(context.Background()); err != nil {
				zlog.Error("scheduled sweep failed", zap.String("kind", kind), zap.Error(err))
			} else if !ran {
				zlog.Warn("scheduled sweep skipped, previous run still in flight", zap.String("kind", kind))
			}
		}
	}

	go run(cfg.AdminSweepInterval, "admin", h.TriggerAdminSweep)
	go run(cfg.StudentSweepInterval, "student", h.TriggerStudentReminderSweep)
	go run(cfg.LowBalanceSweepInterval, "low-balance", h.TriggerLowBalanceSweep)
}
