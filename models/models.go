package models

import "time"

// Lesson durations offered by the booking calendar, in minutes.
var LessonDurations = []int{45, 60, 90}

func ValidDuration(minutes int) bool {
	for _, d := range LessonDurations {
		if minutes == d {
			return true
		}
	}
	return false
}

type Lesson struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	OwnerEmail      string    `json:"owner_email"`
	OwnerName       string    `json:"owner_name"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"` // always Start + DurationMinutes
	DurationMinutes int       `json:"duration_minutes"`
	Paid            bool      `json:"paid"`
	AdminNotified   bool      `json:"admin_notified"`
	StudentNotified bool      `json:"student_notified"`
	Timezone        string    `json:"timezone,omitempty"` // IANA zone for display; empty means UTC
	CreatedAt       time.Time `json:"created_at"`
}

type User struct {
	Email                  string     `json:"email"`
	LastLowBalanceReminder *time.Time `json:"last_low_balance_reminder,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}
