package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lessonbook/mailer"
	"lessonbook/models"
	"lessonbook/store"
)

type Config struct {
	AdminEmail string
	FromEmail  string
	FromName   string

	// ReminderWindow is W: student reminders cover lessons starting within
	// [now, now+W]. Defaults to one hour.
	ReminderWindow time.Duration

	// LowBalanceCooldown is the minimum gap between two low-balance
	// reminders to the same user. Defaults to three days.
	LowBalanceCooldown time.Duration

	// OperatingZone is the tutor's reference zone, used to localize starts
	// in admin mail. Defaults to UTC.
	OperatingZone *time.Location
}

// Notifier owns the notification state machine: it finds lessons and users
// that need a message, dispatches through the mail gateway and advances the
// idempotency state (notified flags, reminder timestamps).
type Notifier struct {
	store  store.Store
	mailer mailer.Mailer
	log    *zap.Logger
	cfg    Config

	now func() time.Time // swapped in tests
}

func New(st store.Store, m mailer.Mailer, log *zap.Logger, cfg Config) *Notifier {
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = time.Hour
	}
	if cfg.LowBalanceCooldown <= 0 {
		cfg.LowBalanceCooldown = 72 * time.Hour
	}
	if cfg.OperatingZone == nil {
		cfg.OperatingZone = time.UTC
	}
	return &Notifier{
		store:  st,
		mailer: m,
		log:    log,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SweepResult is what a sweep invocation reports back to its trigger.
// Processed counts the candidates: items that matched the sweep's
// notification condition this invocation. Notified counts successful
// dispatches among them; Failed counts dispatch failures plus items whose
// candidacy could not be evaluated (e.g. a per-user balance query error), so
// Failed may exceed Processed-Notified.
type SweepResult struct {
	Processed int `json:"processed"`
	Notified  int `json:"notified"`
	Failed    int `json:"failed"`
}

// sendAndMark dispatches one lesson-scoped message and advances its flag.
// Returns true when the message went out, whatever happened to the flag
// update afterwards. All failure modes are logged here and never propagated;
// a false return leaves the lesson eligible for the next sweep.
func (n *Notifier) sendAndMark(ctx context.Context, lesson models.Lesson, kind string, msg mailer.Message, mark func(context.Context, string) error) bool {
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.Error("dispatch failed, will retry next sweep",
			zap.String("kind", kind),
			zap.String("lesson_id", lesson.ID),
			zap.String("owner", lesson.OwnerEmail),
			zap.Error(err))
		return false
	}
	if err := mark(ctx, lesson.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			n.log.Warn("lesson gone before flag update, skipping",
				zap.String("kind", kind),
				zap.String("lesson_id", lesson.ID))
			return true
		}
		// The message is out but the flag is still false: the next sweep
		// may send a duplicate. Surface it loudly.
		n.log.Error("flag update failed after successful dispatch, duplicate send possible",
			zap.String("kind", kind),
			zap.String("lesson_id", lesson.ID),
			zap.String("idempotency_key", msg.IdempotencyKey),
			zap.Error(err))
		return true
	}
	return true
}
