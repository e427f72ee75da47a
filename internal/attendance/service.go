package attendance

import (
	"context"
	"time"

	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
)

// Store is the record-store contract the service runs against. The
// Postgres Repository satisfies it; tests use an in-memory fake.
type Store interface {
	FindPerson(ctx context.Context, personID string) (*Person, error)
	FindPersonWithRole(ctx context.Context, personID string, role Role) (*Person, error)
	FindStudents(ctx context.Context, personIDs []string) ([]Person, error)
	CountStudents(ctx context.Context) (int, error)
	HolidayOn(ctx context.Context, day time.Time) (*Holiday, error)
	HolidaysInRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
	InsertFacts(ctx context.Context, facts []Fact) error
	FactsForStudent(ctx context.Context, studentRowID string, from, to time.Time) ([]Fact, error)
	CountFactsInRange(ctx context.Context, from, to time.Time) (int, error)
	DeleteFactsOn(ctx context.Context, day time.Time) (int64, error)
}

// Service implements the marking transaction, role lookup, analytics,
// and the administrative day reset.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// MarkResult reports the outcome of one marking transaction.
type MarkResult struct {
	Day         time.Time
	MarkedCount int
	// StudentIDs are the scanned identifiers that resolved to students,
	// for downstream cache warming.
	StudentIDs []string
}

// Mark records today's presence for the resolved students, stamped with
// the recording teacher. Re-invoking on the same day is idempotent with
// respect to ledger state: a student already marked today conflicts on
// the (person, day) index and the conflict is absorbed per record.
// MarkedCount is always the size of the resolved-target set, since
// duplicates are indistinguishable from fresh inserts at the batch level.
func (s *Service) Mark(ctx context.Context, recorderID string, studentIDs []string) (MarkResult, error) {
	today := calendar.Normalize(s.now())

	// Holidays block marking outright, before any identifier is looked
	// at, so the rejection is the same for every caller.
	holiday, err := s.store.HolidayOn(ctx, today)
	if err != nil {
		return MarkResult{}, err
	}
	if holiday != nil {
		return MarkResult{}, &HolidayError{Reason: holiday.Reason}
	}

	recorder, err := NormalizeID(recorderID)
	if err != nil {
		return MarkResult{}, err
	}

	teacher, err := s.store.FindPersonWithRole(ctx, recorder, RoleTeacher)
	if err != nil {
		return MarkResult{}, err
	}
	if teacher == nil {
		return MarkResult{}, ErrRecorderNotFound
	}

	// Malformed identifiers are dropped the same way unknown ones are:
	// a garbled scan is not worth failing the whole batch over.
	normalized := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		n, err := NormalizeID(id)
		if err != nil {
			continue
		}
		normalized = append(normalized, n)
	}

	students, err := s.store.FindStudents(ctx, normalized)
	if err != nil {
		return MarkResult{}, err
	}
	if len(students) == 0 {
		return MarkResult{}, ErrNoValidTargets
	}

	facts := make([]Fact, 0, len(students))
	ids := make([]string, 0, len(students))
	for _, st := range students {
		facts = append(facts, Fact{PersonID: st.ID, Day: today, MarkedBy: teacher.ID})
		ids = append(ids, st.PersonID)
	}
	if err := s.store.InsertFacts(ctx, facts); err != nil {
		return MarkResult{}, err
	}

	return MarkResult{Day: today, MarkedCount: len(students), StudentIDs: ids}, nil
}

// Role resolves any identifier to its roster entry.
func (s *Service) Role(ctx context.Context, id string) (*Person, error) {
	normalized, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindPerson(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPersonNotFound
	}
	return p, nil
}

// ResetDay deletes every fact for the given day (today when zero) and
// returns the removed count. Caller identity is not validated here; the
// trust boundary is external.
func (s *Service) ResetDay(ctx context.Context, day time.Time) (int64, error) {
	if day.IsZero() {
		day = s.now()
	}
	return s.store.DeleteFactsOn(ctx, calendar.Normalize(day))
}
