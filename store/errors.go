package store

import "errors"

var (
	// ErrNotFound is returned when the referenced lesson or user does not
	// exist, e.g. it was deleted mid-sweep.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned when a booking targets a start instant that
	// already has a lesson.
	ErrSlotTaken = errors.New("slot already booked")
)
