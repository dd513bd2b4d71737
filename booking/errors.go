package booking

import (
	"errors"
	"fmt"
)

// ConflictError reports a violated booking uniqueness invariant. The two
// reasons are distinct user-facing conditions and callers are expected to
// surface exactly one of them.
type ConflictError struct {
	Reason string
}

const (
	ReasonSlotTaken      = "slot-taken"
	ReasonUserHasBooking = "user-has-active-booking"
)

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonSlotTaken:
		return "time slot already booked"
	case ReasonUserHasBooking:
		return "you already have an active booking on this property"
	}
	return "booking conflict"
}

var (
	ErrSlotTaken      = &ConflictError{Reason: ReasonSlotTaken}
	ErrUserHasBooking = &ConflictError{Reason: ReasonUserHasBooking}
)

// IsConflict reports whether err is any ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ParseError means a time-slot label could not be decoded. Labels come from
// the fixed catalog, so this is a configuration bug, not user input error.
type ParseError struct {
	Label string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad time slot label %q: %s", e.Label, e.Msg)
}

// StoreError wraps a failed store call. The outcome of the underlying
// operation is unknown; callers must re-query before retrying, never retry
// the write blindly.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("booking store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Sentinels returned by Store implementations.
var (
	ErrDuplicateKey = errors.New("duplicate booking key")
	ErrNotFound     = errors.New("booking not found")
)
