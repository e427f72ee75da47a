package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrRecorderNotFound means the marking identifier did not resolve
	// to a teacher.
	ErrRecorderNotFound = errors.New("teacher not found")
	// ErrNoValidTargets means none of the supplied identifiers resolved
	// to a student.
	ErrNoValidTargets = errors.New("no valid student ids provided")
	// ErrStudentNotFound means an analytics target did not resolve to a
	// student.
	ErrStudentNotFound = errors.New("student not found")
	// ErrPersonNotFound means a role lookup did not resolve at all.
	ErrPersonNotFound = errors.New("user not found")
	// ErrInvalidIdentifier means the identifier is malformed (empty,
	// too long, or containing characters a scanner never produces).
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// HolidayError rejects marking on a holiday and carries its reason.
type HolidayError struct {
	Reason string
}

func (e *HolidayError) Error() string {
	return fmt.Sprintf("cannot mark attendance: today is %s", e.Reason)
}
