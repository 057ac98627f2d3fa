package notify

import (
	"errors"
	"time"
)

// Tutor operating hours, evaluated in the configured reference zone.
// A slot is bookable when its local hour falls in [OpenHour, CloseHour).
const (
	OpenHour  = 7
	CloseHour = 22
)

// ErrOutOfWindow rejects a booking whose start falls outside operating hours.
// Callers must check before any ledger write.
var ErrOutOfWindow = errors.New("start time outside tutor operating hours")

// IsBookable reports whether the instant is inside operating hours in zone.
func IsBookable(t time.Time, zone *time.Location) bool {
	h := t.In(zone).Hour()
	return h >= OpenHour && h < CloseHour
}

// CheckBookable is IsBookable as an error for handler use.
func CheckBookable(t time.Time, zone *time.Location) error {
	if !IsBookable(t, zone) {
		return ErrOutOfWindow
	}
	return nil
}

// ComputeEnd derives the lesson end from its start and duration. The only
// validation is that the duration is not negative.
func ComputeEnd(start time.Time, durationMinutes int) (time.Time, error) {
	if durationMinutes < 0 {
		return time.Time{}, errors.New("negative duration")
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute), nil
}
