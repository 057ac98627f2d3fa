package store

import (
	"context"
	"time"

	"lessonbook/models"
)

// LessonFilter selects lessons for a query. The zero value matches everything.
// Predicates compose with AND.
type LessonFilter struct {
	OwnerEmail      string
	AdminNotified   *bool
	StudentNotified *bool
	StartFrom       *time.Time // start_at >= StartFrom
	StartUntil      *time.Time // start_at <= StartUntil
	OrderByStart    bool
}

// Store is the booking ledger: lessons and users, with the independent
// single-record updates the sweeps rely on. No multi-record transactions.
type Store interface {
	// CreateLesson persists a new lesson and returns it with ID and
	// CreatedAt filled in. A lesson already occupying the same start
	// instant yields ErrSlotTaken.
	CreateLesson(ctx context.Context, lesson models.Lesson) (models.Lesson, error)
	LessonByID(ctx context.Context, id string) (models.Lesson, error)
	ListLessons(ctx context.Context, f LessonFilter) ([]models.Lesson, error)
	SetPaid(ctx context.Context, id string, paid bool) error

	// MarkAdminNotified and MarkStudentNotified advance a notified flag.
	// Flags only move false -> true here; ResetNotified is the one
	// administrative way back.
	MarkAdminNotified(ctx context.Context, id string) error
	MarkStudentNotified(ctx context.Context, id string) error
	ResetNotified(ctx context.Context, id string) error

	DeleteLesson(ctx context.Context, id string) error

	// EnsureUser creates the user record on first booking; it is a no-op
	// when the user already exists.
	EnsureUser(ctx context.Context, email string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	SetLowBalanceReminded(ctx context.Context, email string, at time.Time) error
}

// Bool and Time build filter pointers inline.
func Bool(b bool) *bool { return &b }

func Time(t time.Time) *time.Time { return &t }
