package attendance

import (
	"strings"
	"time"
)

// Role classifies a person in the roster.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	// RoleReset is reserved for the physical reset card; no code path
	// treats it specially yet.
	RoleReset Role = "reset"
)

// Person is a roster entry resolved from a scanned identifier.
type Person struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

// Holiday is a non-attendance calendar day with a reason.
type Holiday struct {
	Day    time.Time `json:"day"`
	Reason string    `json:"reason"`
}

// Fact is one (student, day) presence record stamped with the teacher
// who recorded it. Facts are never updated.
type Fact struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"person_id"`
	Day       time.Time `json:"day"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the analytics output for one student.
type Report struct {
	Name            string   `json:"name"`
	Streak          int      `json:"streak"`
	StudentPercent  float64  `json:"student_percent"`
	ClassAvgPercent float64  `json:"class_avg_percent"`
	Performance     string   `json:"performance"`
	AttendanceDates []string `json:"attendance_dates"`
	HolidayDates    []string `json:"holiday_dates"`
}

// NormalizeID canonicalizes a scanned identifier: trimmed, uppercased,
// restricted to A-Z 0-9 '-' '_'. Identifiers compare case-insensitively
// everywhere, so the uppercase form is the only one stored or queried.
func NormalizeID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" || len(id) > 64 {
		return "", ErrInvalidIdentifier
	}
	for _, r := range id {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return "", ErrInvalidIdentifier
		}
	}
	return id, nil
}
