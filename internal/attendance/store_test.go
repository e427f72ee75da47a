package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
)

// fakeStore is an in-memory Store with the same conflict semantics as
// the Postgres repository: at most one fact per (person, day), sibling
// inserts unaffected by conflicts.
type fakeStore struct {
	persons  []Person
	holidays []Holiday
	facts    []Fact

	// insertErr simulates a storage outage during the fact batch.
	insertErr error
}

func (f *fakeStore) FindPerson(_ context.Context, personID string) (*Person, error) {
	for i := range f.persons {
		if f.persons[i].PersonID == personID {
			p := f.persons[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindPersonWithRole(ctx context.Context, personID string, role Role) (*Person, error) {
	p, err := f.FindPerson(ctx, personID)
	if err != nil || p == nil || p.Role != role {
		return nil, err
	}
	return p, nil
}

func (f *fakeStore) FindStudents(_ context.Context, personIDs []string) ([]Person, error) {
	var res []Person
	for _, p := range f.persons {
		if p.Role != RoleStudent {
			continue
		}
		for _, id := range personIDs {
			if p.PersonID == id {
				res = append(res, p)
				break
			}
		}
	}
	return res, nil
}

func (f *fakeStore) CountStudents(_ context.Context) (int, error) {
	n := 0
	for _, p := range f.persons {
		if p.Role == RoleStudent {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) HolidayOn(_ context.Context, day time.Time) (*Holiday, error) {
	for i := range f.holidays {
		if f.holidays[i].Day.Equal(day) {
			h := f.holidays[i]
			return &h, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) HolidaysInRange(_ context.Context, from, to time.Time) ([]Holiday, error) {
	var res []Holiday
	for _, h := range f.holidays {
		if !h.Day.Before(from) && !h.Day.After(to) {
			res = append(res, h)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day.Before(res[j].Day) })
	return res, nil
}

func (f *fakeStore) InsertFacts(_ context.Context, facts []Fact) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, fact := range facts {
		if f.hasFact(fact.PersonID, fact.Day) {
			continue // conflict absorbed
		}
		f.facts = append(f.facts, fact)
	}
	return nil
}

func (f *fakeStore) hasFact(personRowID string, day time.Time) bool {
	for _, existing := range f.facts {
		if existing.PersonID == personRowID && existing.Day.Equal(day) {
			return true
		}
	}
	return false
}

func (f *fakeStore) FactsForStudent(_ context.Context, studentRowID string, from, to time.Time) ([]Fact, error) {
	var res []Fact
	for _, fact := range f.facts {
		if fact.PersonID == studentRowID && !fact.Day.Before(from) && !fact.Day.After(to) {
			res = append(res, fact)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day.After(res[j].Day) })
	return res, nil
}

func (f *fakeStore) CountFactsInRange(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	for _, fact := range f.facts {
		if !fact.Day.Before(from) && !fact.Day.After(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteFactsOn(_ context.Context, day time.Time) (int64, error) {
	var kept []Fact
	var removed int64
	for _, fact := range f.facts {
		if fact.Day.Equal(day) {
			removed++
			continue
		}
		kept = append(kept, fact)
	}
	f.facts = kept
	return removed, nil
}

// test fixture helpers

func person(id, name string, role Role) Person {
	return Person{ID: "row-" + id, PersonID: id, Name: name, Role: role}
}

func day(s string) time.Time {
	d, err := calendar.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedNow(s string) func() time.Time {
	// Mid-morning, so normalization to midnight is actually exercised.
	return func() time.Time { return day(s).Add(9 * time.Hour) }
}
