package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lessonbook/models"
	"lessonbook/store"
)

var base = time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

func mustCreate(t *testing.T, s *Store, l models.Lesson) models.Lesson {
	t.Helper()
	created, err := s.CreateLesson(context.Background(), l)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

func TestCreateLessonRejectsTakenSlot(t *testing.T) {
	s := New()
	mustCreate(t, s, models.Lesson{OwnerEmail: "a@example.com", Start: base})

	_, err := s.CreateLesson(context.Background(), models.Lesson{OwnerEmail: "b@example.com", Start: base})
	if !errors.Is(err, store.ErrSlotTaken) {
		t.Fatalf("want ErrSlotTaken, got %v", err)
	}

	// A different instant is fine.
	if _, err := s.CreateLesson(context.Background(), models.Lesson{OwnerEmail: "b@example.com", Start: base.Add(time.Hour)}); err != nil {
		t.Fatalf("distinct slot rejected: %v", err)
	}
}

func TestListLessonsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	l1 := mustCreate(t, s, models.Lesson{OwnerEmail: "a@example.com", Start: base})
	l2 := mustCreate(t, s, models.Lesson{OwnerEmail: "a@example.com", Start: base.Add(2 * time.Hour)})
	mustCreate(t, s, models.Lesson{OwnerEmail: "b@example.com", Start: base.Add(time.Hour)})
	if err := s.MarkAdminNotified(ctx, l1.ID); err != nil {
		t.Fatalf("mark: %v", err)
	}

	got, err := s.ListLessons(ctx, store.LessonFilter{OwnerEmail: "a@example.com", OrderByStart: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != l1.ID || got[1].ID != l2.ID {
		t.Fatalf("owner filter/order wrong: %+v", got)
	}

	got, _ = s.ListLessons(ctx, store.LessonFilter{AdminNotified: store.Bool(false)})
	if len(got) != 2 {
		t.Fatalf("flag filter returned %d lessons, want 2", len(got))
	}

	// Range bounds are inclusive on both ends.
	got, _ = s.ListLessons(ctx, store.LessonFilter{
		StartFrom:  store.Time(base.Add(time.Hour)),
		StartUntil: store.Time(base.Add(2 * time.Hour)),
	})
	if len(got) != 2 {
		t.Fatalf("range filter returned %d lessons, want 2", len(got))
	}
}

func TestNotifiedFlagsAdvanceIndependently(t *testing.T) {
	s := New()
	ctx := context.Background()
	l := mustCreate(t, s, models.Lesson{OwnerEmail: "a@example.com", Start: base})

	if err := s.MarkAdminNotified(ctx, l.ID); err != nil {
		t.Fatalf("mark admin: %v", err)
	}
	got, _ := s.LessonByID(ctx, l.ID)
	if !got.AdminNotified || got.StudentNotified {
		t.Fatalf("flags = (%v, %v), want (true, false)", got.AdminNotified, got.StudentNotified)
	}

	// Marking again is a no-op, never a reversal.
	if err := s.MarkAdminNotified(ctx, l.ID); err != nil {
		t.Fatalf("re-mark admin: %v", err)
	}
	got, _ = s.LessonByID(ctx, l.ID)
	if !got.AdminNotified {
		t.Fatal("admin flag reverted")
	}

	if err := s.MarkStudentNotified(ctx, l.ID); err != nil {
		t.Fatalf("mark student: %v", err)
	}
	if err := s.ResetNotified(ctx, l.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ = s.LessonByID(ctx, l.ID)
	if got.AdminNotified || got.StudentNotified {
		t.Fatal("reset did not clear both flags")
	}
}

func TestUpdatesOnMissingLesson(t *testing.T) {
	s := New()
	ctx := context.Background()

	for name, err := range map[string]error{
		"mark admin":   s.MarkAdminNotified(ctx, "nope"),
		"mark student": s.MarkStudentNotified(ctx, "nope"),
		"set paid":     s.SetPaid(ctx, "nope", true),
		"delete":       s.DeleteLesson(ctx, "nope"),
	} {
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("%s: want ErrNotFound, got %v", name, err)
		}
	}
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.EnsureUser(ctx, "a@example.com"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Idempotent on repeat bookings.
	if err := s.EnsureUser(ctx, "a@example.com"); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("users = %v, err = %v", users, err)
	}
	if users[0].LastLowBalanceReminder != nil {
		t.Fatal("fresh user already has a reminder timestamp")
	}

	at := base.Add(time.Hour)
	if err := s.SetLowBalanceReminded(ctx, "a@example.com", at); err != nil {
		t.Fatalf("set reminded: %v", err)
	}
	users, _ = s.ListUsers(ctx)
	if users[0].LastLowBalanceReminder == nil || !users[0].LastLowBalanceReminder.Equal(at) {
		t.Fatalf("reminder timestamp = %v, want %v", users[0].LastLowBalanceReminder, at)
	}

	if err := s.SetLowBalanceReminded(ctx, "ghost@example.com", at); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown user, got %v", err)
	}
}
