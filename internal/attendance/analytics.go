package attendance

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
)

// Analytics computes the month-to-date report for one student as of the
// given instant (now when zero): attendance percentage against elapsed
// school days, comparison to the class average, and the holiday-aware
// consecutive-presence streak.
func (s *Service) Analytics(ctx context.Context, studentID string, asOf time.Time) (*Report, error) {
	normalized, err := NormalizeID(studentID)
	if err != nil {
		return nil, err
	}

	student, err := s.store.FindPersonWithRole(ctx, normalized, RoleStudent)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	if asOf.IsZero() {
		asOf = s.now()
	}
	asOfDay := calendar.Normalize(asOf)
	startOfMonth := calendar.StartOfMonth(asOf)

	// The four reads are independent and read-only; fan them out.
	var (
		facts         []Fact
		holidays      []Holiday
		totalStudents int
		allFacts      int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		facts, err = s.store.FactsForStudent(gctx, student.ID, startOfMonth, asOfDay)
		return err
	})
	g.Go(func() (err error) {
		holidays, err = s.store.HolidaysInRange(gctx, startOfMonth, asOfDay)
		return err
	})
	g.Go(func() (err error) {
		totalStudents, err = s.store.CountStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		allFacts, err = s.store.CountFactsInRange(gctx, startOfMonth, asOfDay)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Elapsed school days: calendar days so far this month minus
	// holidays, floored at 1 so a holiday-heavy month start cannot
	// divide by zero. Weekends count as school days.
	schoolDaysSoFar := calendar.DaysElapsedInMonth(asOfDay) - len(holidays)
	if schoolDaysSoFar < 1 {
		schoolDaysSoFar = 1
	}

	studentPercent := round1(float64(len(facts)) / float64(schoolDaysSoFar) * 100)
	classAvgPercent := 0.0
	if totalStudents > 0 {
		classAvgPercent = round1(float64(allFacts) / float64(totalStudents*schoolDaysSoFar) * 100)
	}

	performance := "below"
	if studentPercent >= classAvgPercent {
		performance = "above"
	}

	report := &Report{
		Name:            student.Name,
		Streak:          streak(facts, holidays, asOfDay),
		StudentPercent:  studentPercent,
		ClassAvgPercent: classAvgPercent,
		Performance:     performance,
		AttendanceDates: make([]string, 0, len(facts)),
		HolidayDates:    make([]string, 0, len(holidays)),
	}
	for _, f := range facts {
		report.AttendanceDates = append(report.AttendanceDates, calendar.FormatDay(f.Day))
	}
	for _, h := range holidays {
		report.HolidayDates = append(report.HolidayDates, calendar.FormatDay(h.Day))
	}
	return report, nil
}

// streak walks the facts newest-first with a cursor starting at asOfDay.
// Holidays are transparent: the cursor steps over them without breaking
// or extending the run. A fact matching the cursor extends the streak
// and moves the cursor one day back; a fact strictly earlier is a gap
// (an unexplained absence) and ends the run. Facts require descending
// order; a fact later than the cursor cannot occur then, so the walk
// stops on one instead of reinterpreting it.
func streak(facts []Fact, holidays []Holiday, asOfDay time.Time) int {
	holidaySet := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Day] = struct{}{}
	}

	count := 0
	cursor := asOfDay
	for _, f := range facts {
		for {
			if _, ok := holidaySet[cursor]; !ok {
				break
			}
			cursor = calendar.PreviousDay(cursor)
		}
		if !f.Day.Equal(cursor) {
			break
		}
		count++
		cursor = calendar.PreviousDay(cursor)
	}
	return count
}

// round1 rounds to one decimal place, halves away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
