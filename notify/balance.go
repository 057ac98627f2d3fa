package notify

import (
	"sort"
	"time"

	"lessonbook/models"
)

// Balance derivations are pure functions of a ledger snapshot and an
// evaluation instant: same inputs, same answer.

// PaidCount counts the owner's paid lessons that have not started yet. This is
// the student's remaining balance, and the number the low-balance sweep
// consumes.
func PaidCount(lessons []models.Lesson, owner string, now time.Time) int {
	count := 0
	for _, l := range lessons {
		if l.OwnerEmail == owner && l.Paid && !l.Start.Before(now) {
			count++
		}
	}
	return count
}

// PendingCount counts the owner's unpaid lessons, past or future.
func PendingCount(lessons []models.Lesson, owner string) int {
	count := 0
	for _, l := range lessons {
		if l.OwnerEmail == owner && !l.Paid {
			count++
		}
	}
	return count
}

// Upcoming returns the owner's lessons that have not started yet, ascending by
// start.
func Upcoming(lessons []models.Lesson, owner string, now time.Time) []models.Lesson {
	var out []models.Lesson
	for _, l := range lessons {
		if l.OwnerEmail == owner && !l.Start.Before(now) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
