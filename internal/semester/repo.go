package semester

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists term descriptors and runs cohort transitions.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// CreateTerm inserts a new term descriptor.
func (r *Repository) CreateTerm(ctx context.Context, t Term) (Term, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO semesters (branch, semester_num, start_date, end_date, is_active)
		VALUES ($1, $2, NULLIF($3, '')::date, NULLIF($4, '')::date, TRUE)
		RETURNING id
	`, t.Branch, t.SemesterNum, t.StartDate, t.EndDate).Scan(&t.ID)
	if isUniqueViolation(err) {
		return Term{}, ErrDuplicateTerm
	}
	t.IsActive = true
	return t, err
}

// Term returns a term by id, or nil when not found.
func (r *Repository) Term(ctx context.Context, id int) (*Term, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, branch, semester_num,
		       COALESCE(to_char(start_date, 'YYYY-MM-DD'), ''),
		       COALESCE(to_char(end_date, 'YYYY-MM-DD'), ''),
		       is_active
		FROM semesters WHERE id = $1
	`, id)
	var t Term
	if err := row.Scan(&t.ID, &t.Branch, &t.SemesterNum, &t.StartDate, &t.EndDate, &t.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListTerms returns all terms, active cohorts first.
func (r *Repository) ListTerms(ctx context.Context) ([]Term, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, branch, semester_num,
		       COALESCE(to_char(start_date, 'YYYY-MM-DD'), ''),
		       COALESCE(to_char(end_date, 'YYYY-MM-DD'), ''),
		       is_active
		FROM semesters
		ORDER BY is_active DESC, branch, semester_num
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Term
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.ID, &t.Branch, &t.SemesterNum, &t.StartDate, &t.EndDate, &t.IsActive); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// CloseTerm deactivates the term and transitions its cohort in a single
// transaction so a failure can never leave the cohort half-promoted.
func (r *Repository) CloseTerm(ctx context.Context, t Term, graduate bool) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE semesters SET is_active = FALSE WHERE id = $1`, t.ID); err != nil {
		return 0, err
	}

	var res sql.Result
	if graduate {
		res, err = tx.ExecContext(ctx, `
			UPDATE students SET semester = NULL WHERE branch = $1 AND semester = $2
		`, t.Branch, t.SemesterNum)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE students SET semester = semester + 1 WHERE branch = $1 AND semester = $2
		`, t.Branch, t.SemesterNum)
	}
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(moved), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
