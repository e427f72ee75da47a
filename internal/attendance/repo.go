package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
)

// Repository persists roster, holiday, and ledger data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the tables and the (person, day) uniqueness index
// the marking contract depends on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id UUID PRIMARY KEY,
			person_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'student'
		)`,
		`CREATE TABLE IF NOT EXISTS holidays (
			day DATE PRIMARY KEY,
			reason TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_facts (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL REFERENCES persons(id),
			day DATE NOT NULL,
			marked_by UUID NOT NULL REFERENCES persons(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (person_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS attendance_facts_day_idx ON attendance_facts (day)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// FindPerson returns the person with the given scanned identifier, or
// (nil, nil) when absent.
func (r *Repository) FindPerson(ctx context.Context, personID string) (*Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, person_id, name, role FROM persons WHERE person_id = $1
	`, personID)
	return scanPerson(row)
}

// FindPersonWithRole returns the person only when they carry the role.
func (r *Repository) FindPersonWithRole(ctx context.Context, personID string, role Role) (*Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, person_id, name, role FROM persons WHERE person_id = $1 AND role = $2
	`, personID, string(role))
	return scanPerson(row)
}

func scanPerson(row *sql.Row) (*Person, error) {
	var p Person
	if err := row.Scan(&p.ID, &p.PersonID, &p.Name, &p.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindStudents resolves identifiers to student persons. Identifiers that
// do not resolve are simply absent from the result.
func (r *Repository) FindStudents(ctx context.Context, personIDs []string) ([]Person, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, person_id, name, role FROM persons WHERE role = 'student' AND person_id IN (`
	args := make([]any, 0, len(personIDs))
	for i, id := range personIDs {
		if i > 0 {
			query += ","
		}
		query += "$" + itoa(i+1)
		args = append(args, id)
	}
	query += ")"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.PersonID, &p.Name, &p.Role); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// CountStudents counts roster entries with the student role.
func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons WHERE role = 'student'`).Scan(&n)
	return n, err
}

// HolidayOn returns the holiday on the given day, or (nil, nil).
func (r *Repository) HolidayOn(ctx context.Context, day time.Time) (*Holiday, error) {
	row := r.db.QueryRowContext(ctx, `SELECT day, reason FROM holidays WHERE day = $1`, day)
	var h Holiday
	if err := row.Scan(&h.Day, &h.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	h.Day = calendar.Normalize(h.Day)
	return &h, nil
}

// HolidaysInRange returns holidays with from <= day <= to, ascending.
func (r *Repository) HolidaysInRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, reason FROM holidays WHERE day >= $1 AND day <= $2 ORDER BY day
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.Day, &h.Reason); err != nil {
			return nil, err
		}
		h.Day = calendar.Normalize(h.Day)
		res = append(res, h)
	}
	return res, rows.Err()
}

// InsertFacts writes the batch one record at a time with ON CONFLICT DO
// NOTHING, so a (person, day) that is already marked is absorbed without
// touching sibling inserts. Any other failure aborts the loop.
func (r *Repository) InsertFacts(ctx context.Context, facts []Fact) error {
	for _, f := range facts {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO attendance_facts (id, person_id, day, marked_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (person_id, day) DO NOTHING
		`, f.ID, f.PersonID, f.Day, f.MarkedBy)
		if err != nil {
			return err
		}
	}
	return nil
}

// FactsForStudent returns the student's facts with from <= day <= to,
// newest first. The streak walk depends on the descending order.
func (r *Repository) FactsForStudent(ctx context.Context, studentRowID string, from, to time.Time) ([]Fact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_id, day, marked_by, created_at
		FROM attendance_facts
		WHERE person_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC
	`, studentRowID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.PersonID, &f.Day, &f.MarkedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Day = calendar.Normalize(f.Day)
		res = append(res, f)
	}
	return res, rows.Err()
}

// CountFactsInRange counts facts for all students in the day range.
func (r *Repository) CountFactsInRange(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_facts WHERE day >= $1 AND day <= $2
	`, from, to).Scan(&n)
	return n, err
}

// DeleteFactsOn removes every fact for the given day and reports how
// many were removed.
func (r *Repository) DeleteFactsOn(ctx context.Context, day time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_facts WHERE day = $1`, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertPerson provisions a roster entry; used by the seeder only.
func (r *Repository) InsertPerson(ctx context.Context, p Person) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO persons (id, person_id, name, role) VALUES ($1, $2, $3, $4)
	`, p.ID, p.PersonID, p.Name, string(p.Role))
	return p.ID, err
}

// InsertHoliday provisions a holiday entry; used by the seeder only.
func (r *Repository) InsertHoliday(ctx context.Context, h Holiday) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holidays (day, reason) VALUES ($1, $2)
	`, h.Day, h.Reason)
	return err
}

// WipeAll clears every table; used by the seeder before a reload.
func (r *Repository) WipeAll(ctx context.Context) error {
	for _, table := range []string{"attendance_facts", "holidays", "persons"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
