package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lessonbook/models"
	"lessonbook/store"
)

// AdminSweep notifies the admin about every booking they have not heard of
// yet. Lessons are processed concurrently; the call returns only after every
// (dispatch, flag update) pair has resolved. Only a failed candidate query
// aborts the sweep.
func (n *Notifier) AdminSweep(ctx context.Context) (SweepResult, error) {
	lessons, err := n.store.ListLessons(ctx, store.LessonFilter{
		AdminNotified: store.Bool(false),
	})
	if err != nil {
		return SweepResult{}, fmt.Errorf("admin sweep: list candidates: %w", err)
	}

	res := SweepResult{Processed: len(lessons)}
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, lesson := range lessons {
		wg.Add(1)
		go func(lesson models.Lesson) {
			defer wg.Done()
			ok := n.sendAndMark(ctx, lesson, "admin", n.adminMessage(lesson), n.store.MarkAdminNotified)
			mu.Lock()
			if ok {
				res.Notified++
			} else {
				res.Failed++
			}
			mu.Unlock()
		}(lesson)
	}
	wg.Wait()

	n.logResult("admin", res)
	return res, nil
}

// StudentReminderSweep reminds students whose lesson starts within the
// configured window W. The reminder localizes the start to the lesson's zone
// and carries an inline low-balance notice when it is the student's last
// upcoming lesson.
func (n *Notifier) StudentReminderSweep(ctx context.Context) (SweepResult, error) {
	now := n.now()
	until := now.Add(n.cfg.ReminderWindow)

	lessons, err := n.store.ListLessons(ctx, store.LessonFilter{
		StudentNotified: store.Bool(false),
		StartFrom:       store.Time(now),
		StartUntil:      store.Time(until),
	})
	if err != nil {
		return SweepResult{}, fmt.Errorf("student sweep: list candidates: %w", err)
	}

	res := SweepResult{Processed: len(lessons)}
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, lesson := range lessons {
		wg.Add(1)
		go func(lesson models.Lesson) {
			defer wg.Done()
			ok := n.remindStudent(ctx, lesson, now)
			mu.Lock()
			if ok {
				res.Notified++
			} else {
				res.Failed++
			}
			mu.Unlock()
		}(lesson)
	}
	wg.Wait()

	n.logResult("student", res)
	return res, nil
}

func (n *Notifier) remindStudent(ctx context.Context, lesson models.Lesson, now time.Time) bool {
	lastLesson, err := n.isLastLesson(ctx, lesson.OwnerEmail, now)
	if err != nil {
		n.log.Error("last-lesson check failed, will retry next sweep",
			zap.String("lesson_id", lesson.ID),
			zap.String("owner", lesson.OwnerEmail),
			zap.Error(err))
		return false
	}
	msg := n.studentMessage(lesson, lastLesson)
	return n.sendAndMark(ctx, lesson, "student", msg, n.store.MarkStudentNotified)
}

// isLastLesson reports whether the owner has exactly one lesson starting
// after now (the one being reminded about included).
func (n *Notifier) isLastLesson(ctx context.Context, owner string, now time.Time) (bool, error) {
	lessons, err := n.store.ListLessons(ctx, store.LessonFilter{
		OwnerEmail: owner,
		StartFrom:  store.Time(now),
	})
	if err != nil {
		return false, err
	}
	future := 0
	for _, l := range lessons {
		if l.Start.After(now) {
			future++
		}
	}
	return future == 1, nil
}

// LowBalanceSweep mails every user whose paid future balance has dropped to
// one lesson or fewer, at most once per cool-down window. Idempotency here is
// the reminder timestamp, not a one-shot flag: a user who stays low is
// reminded again after the cool-down expires.
func (n *Notifier) LowBalanceSweep(ctx context.Context) (SweepResult, error) {
	now := n.now()

	users, err := n.store.ListUsers(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("low-balance sweep: list users: %w", err)
	}

	type candidate struct {
		user    models.User
		balance int
	}
	var candidates []candidate
	var res SweepResult
	for _, u := range users {
		if u.LastLowBalanceReminder != nil && now.Sub(*u.LastLowBalanceReminder) < n.cfg.LowBalanceCooldown {
			continue
		}
		lessons, err := n.store.ListLessons(ctx, store.LessonFilter{OwnerEmail: u.Email})
		if err != nil {
			// Candidacy unknown, so the user is not Processed; the
			// failure still shows up in the counts.
			n.log.Error("balance query failed, will retry next sweep",
				zap.String("user", u.Email), zap.Error(err))
			res.Failed++
			continue
		}
		balance := PaidCount(lessons, u.Email, now)
		if balance > 1 {
			continue
		}
		candidates = append(candidates, candidate{user: u, balance: balance})
	}
	res.Processed += len(candidates)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, cand := range candidates {
		wg.Add(1)
		go func(cand candidate) {
			defer wg.Done()
			ok := n.remindLowBalance(ctx, cand.user, cand.balance, now)
			mu.Lock()
			if ok {
				res.Notified++
			} else {
				res.Failed++
			}
			mu.Unlock()
		}(cand)
	}
	wg.Wait()

	n.logResult("low-balance", res)
	return res, nil
}

func (n *Notifier) remindLowBalance(ctx context.Context, user models.User, balance int, now time.Time) bool {
	msg := n.lowBalanceMessage(user, balance, now)
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.Error("dispatch failed, will retry next sweep",
			zap.String("kind", "low-balance"),
			zap.String("user", user.Email),
			zap.Error(err))
		return false
	}
	if err := n.store.SetLowBalanceReminded(ctx, user.Email, now); err != nil {
		// Sent but not recorded: the next sweep may remind again before the
		// cool-down, which the timestamp was supposed to prevent.
		n.log.Error("reminder timestamp update failed after successful dispatch, duplicate send possible",
			zap.String("user", user.Email),
			zap.Error(err))
	}
	return true
}

func (n *Notifier) logResult(kind string, res SweepResult) {
	n.log.Info("sweep finished",
		zap.String("kind", kind),
		zap.Int("processed", res.Processed),
		zap.Int("notified", res.Notified),
		zap.Int("failed", res.Failed))
}
