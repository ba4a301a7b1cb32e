package attendance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance sessions and records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindSession returns the submission already holding a cohort-slot, joined
// with the submitting staff member's name, or nil when the slot is free.
func (r *Repository) FindSession(ctx context.Context, branch string, semester int, date string, period int) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.branch, s.semester, to_char(s.date, 'YYYY-MM-DD'), s.period, s.subject, s.staff_id, st.name, s.created_at
		FROM attendance_sessions s
		JOIN staff st ON st.id = s.staff_id
		WHERE s.branch = $1 AND s.semester = $2 AND s.date = $3::date AND s.period = $4
	`, branch, semester, date, period)
	var s Session
	if err := row.Scan(&s.ID, &s.Branch, &s.Semester, &s.Date, &s.Period, &s.Subject, &s.StaffID, &s.StaffName, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateSubmission writes the session row and its records in one
// transaction: either the whole cohort submission persists or none of it
// does. A unique-constraint hit on the slot returns ErrSlotConflict.
func (r *Repository) CreateSubmission(ctx context.Context, session Session, records []Record) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendance_sessions (id, branch, semester, date, period, subject, staff_id)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7)
	`, session.ID, session.Branch, session.Semester, session.Date, session.Period, session.Subject, session.StaffID)
	if isUniqueViolation(err) {
		return ErrSlotConflict
	}
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance_records (id, session_id, staff_id, student_id, date, period, subject, status)
			VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		`, rec.ID, session.ID, rec.StaffID, rec.StudentID, rec.Date, rec.Period, rec.Subject, rec.Status)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// StudentHistory returns every record for a student, newest first.
func (r *Repository) StudentHistory(ctx context.Context, studentID int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, staff_id, student_id, to_char(date, 'YYYY-MM-DD'), period, subject, status, created_at
		FROM attendance_records
		WHERE student_id = $1
		ORDER BY date DESC, period DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StaffID, &rec.StudentID, &rec.Date, &rec.Period, &rec.Subject, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// StudentSummary returns total and present record counts for a student.
func (r *Repository) StudentSummary(ctx context.Context, studentID int) (total, present int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Present')
		FROM attendance_records
		WHERE student_id = $1
	`, studentID).Scan(&total, &present)
	return total, present, err
}

// HistoryByDate returns every record for a date with student identity,
// ordered by period then roll number.
func (r *Repository) HistoryByDate(ctx context.Context, date string) ([]RecordDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.session_id, r.staff_id, r.student_id, to_char(r.date, 'YYYY-MM-DD'), r.period, r.subject, r.status, r.created_at,
		       st.name, st.roll_no
		FROM attendance_records r
		JOIN students st ON st.id = r.student_id
		WHERE r.date = $1::date
		ORDER BY r.period, st.roll_no
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RecordDetail
	for rows.Next() {
		var d RecordDetail
		if err := rows.Scan(&d.ID, &d.SessionID, &d.StaffID, &d.StudentID, &d.Date, &d.Period, &d.Subject, &d.Status, &d.CreatedAt, &d.StudentName, &d.RollNo); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// StaffSessions returns a staff member's teaching history, one row per
// session with the number of students marked.
func (r *Repository) StaffSessions(ctx context.Context, staffID int) ([]SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(r.date, 'YYYY-MM-DD'), r.period, r.subject, COUNT(*)
		FROM attendance_records r
		WHERE r.staff_id = $1
		GROUP BY r.date, r.period, r.subject
		ORDER BY r.date DESC, r.period DESC
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.Date, &s.Period, &s.Subject, &s.StudentCount); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
