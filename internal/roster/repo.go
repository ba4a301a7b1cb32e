package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateRoll means the roll number is already registered.
	ErrDuplicateRoll = errors.New("roll number already registered")
	// ErrDuplicateUsername means the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrUnknownRole means the role is not admin, staff or hod.
	ErrUnknownRole = errors.New("unknown role")
)

// Repository persists students, staff, HODs and admin accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ---------- Students ----------

// CreateStudent inserts a new student. Roll numbers are unique and immutable
// once issued.
func (r *Repository) CreateStudent(ctx context.Context, s Student) (Student, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, roll_no, branch, semester, parent_contact)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.Name, s.RollNo, s.Branch, s.Semester, s.ParentContact).Scan(&s.ID)
	if isUniqueViolation(err) {
		return Student{}, ErrDuplicateRoll
	}
	return s, err
}

// UpdateStudent updates mutable fields. The roll number is deliberately not
// updatable.
func (r *Repository) UpdateStudent(ctx context.Context, s Student) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET name = $2, branch = $3, semester = $4, parent_contact = $5
		WHERE id = $1
	`, s.ID, s.Name, s.Branch, s.Semester, s.ParentContact)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteStudent removes a student; their attendance records go with them via
// the ON DELETE CASCADE on attendance_records.
func (r *Repository) DeleteStudent(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetStudent returns a student by id, or nil when not found.
func (r *Repository) GetStudent(ctx context.Context, id int) (*Student, error) {
	return r.scanStudent(r.db.QueryRowContext(ctx, `
		SELECT id, name, roll_no, branch, semester, parent_contact
		FROM students WHERE id = $1
	`, id))
}

// StudentByRoll returns a student by roll number, or nil when not found.
func (r *Repository) StudentByRoll(ctx context.Context, rollNo string) (*Student, error) {
	return r.scanStudent(r.db.QueryRowContext(ctx, `
		SELECT id, name, roll_no, branch, semester, parent_contact
		FROM students WHERE roll_no = $1
	`, rollNo))
}

// StudentByParentContact returns the student registered under a parent phone
// number, or nil when not found.
func (r *Repository) StudentByParentContact(ctx context.Context, phone string) (*Student, error) {
	return r.scanStudent(r.db.QueryRowContext(ctx, `
		SELECT id, name, roll_no, branch, semester, parent_contact
		FROM students WHERE parent_contact = $1
		LIMIT 1
	`, phone))
}

func (r *Repository) scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.RollNo, &s.Branch, &s.Semester, &s.ParentContact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListStudents returns students matching the filter, ordered by roll number.
// Without an explicit semester filter only active (non-graduated) students
// are returned; Alumni flips that to graduated-only.
func (r *Repository) ListStudents(ctx context.Context, f StudentFilter) ([]Student, error) {
	query := `SELECT id, name, roll_no, branch, semester, parent_contact FROM students`
	args := []any{}
	clauses := []string{}
	if f.Query != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR roll_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+f.Query+"%")
	}
	if f.Branch != "" {
		clauses = append(clauses, fmt.Sprintf("branch = $%d", len(args)+1))
		args = append(args, f.Branch)
	}
	switch {
	case f.Alumni:
		clauses = append(clauses, "semester IS NULL")
	case f.Semester != nil:
		clauses = append(clauses, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *f.Semester)
	default:
		clauses = append(clauses, "semester IS NOT NULL")
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY roll_no"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStudents(rows)
}

// ListCohort returns the active roster of (branch, semester) ordered by roll
// number.
func (r *Repository) ListCohort(ctx context.Context, branch string, semester int) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll_no, branch, semester, parent_contact
		FROM students
		WHERE branch = $1 AND semester = $2
		ORDER BY roll_no
	`, branch, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStudents(rows)
}

func collectStudents(rows *sql.Rows) ([]Student, error) {
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNo, &s.Branch, &s.Semester, &s.ParentContact); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// DistinctBranches returns every branch with at least one active student.
func (r *Repository) DistinctBranches(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT branch FROM students WHERE semester IS NOT NULL AND branch <> '' ORDER BY branch`)
}

// DistinctSemesters returns every semester with at least one active student.
func (r *Repository) DistinctSemesters(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT semester FROM students WHERE semester IS NOT NULL ORDER BY semester
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r *Repository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SemesterCounts returns the number of active students per semester. An empty
// branch aggregates across all branches; maxSemester > 0 caps the range (the
// "General" department sees semesters 1-4 only).
func (r *Repository) SemesterCounts(ctx context.Context, branch string, maxSemester int) ([]SemesterCount, error) {
	query := `SELECT semester, COUNT(*) FROM students WHERE semester IS NOT NULL`
	args := []any{}
	if branch != "" {
		args = append(args, branch)
		query += fmt.Sprintf(" AND branch = $%d", len(args))
	}
	if maxSemester > 0 {
		args = append(args, maxSemester)
		query += fmt.Sprintf(" AND semester <= $%d", len(args))
	}
	query += " GROUP BY semester ORDER BY semester"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SemesterCount
	for rows.Next() {
		var c SemesterCount
		if err := rows.Scan(&c.Semester, &c.Count); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// ---------- Staff ----------

// CreateStaff inserts a new staff member with a pre-hashed password.
func (r *Repository) CreateStaff(ctx context.Context, s Staff, passwordHash string) (Staff, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO staff (name, username, password_hash, branch, contact_no)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.Name, s.Username, passwordHash, s.Branch, s.ContactNo).Scan(&s.ID)
	if isUniqueViolation(err) {
		return Staff{}, ErrDuplicateUsername
	}
	return s, err
}

// UpdateStaff updates staff details; passwordHash is only applied when
// non-empty.
func (r *Repository) UpdateStaff(ctx context.Context, s Staff, passwordHash string) error {
	var res sql.Result
	var err error
	if passwordHash != "" {
		res, err = r.db.ExecContext(ctx, `
			UPDATE staff SET name = $2, username = $3, branch = $4, contact_no = $5, password_hash = $6
			WHERE id = $1
		`, s.ID, s.Name, s.Username, s.Branch, s.ContactNo, passwordHash)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE staff SET name = $2, username = $3, branch = $4, contact_no = $5
			WHERE id = $1
		`, s.ID, s.Name, s.Username, s.Branch, s.ContactNo)
	}
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteStaff removes a staff member together with the sessions and records
// they marked, mirroring the admin "delete staff and their logs" action.
func (r *Repository) DeleteStaff(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE staff_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE staff_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStaff returns a staff member by id, or nil when not found.
func (r *Repository) GetStaff(ctx context.Context, id int) (*Staff, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, username, branch, contact_no, timetable_file
		FROM staff WHERE id = $1
	`, id)
	var s Staff
	if err := row.Scan(&s.ID, &s.Name, &s.Username, &s.Branch, &s.ContactNo, &s.TimetableFile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListStaff returns staff, optionally restricted to one branch.
func (r *Repository) ListStaff(ctx context.Context, branch string) ([]Staff, error) {
	query := `SELECT id, name, username, branch, contact_no, timetable_file FROM staff`
	args := []any{}
	if branch != "" {
		query += ` WHERE branch = $1`
		args = append(args, branch)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.Branch, &s.ContactNo, &s.TimetableFile); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// CountStaff returns the number of staff in a branch.
func (r *Repository) CountStaff(ctx context.Context, branch string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff WHERE branch = $1`, branch).Scan(&n)
	return n, err
}

// SetTimetable stores (or clears, with nil) the staff timetable file name.
func (r *Repository) SetTimetable(ctx context.Context, staffID int, filename *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE staff SET timetable_file = $2 WHERE id = $1`, staffID, filename)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---------- HODs ----------

// CreateHOD inserts a department head with a pre-hashed password.
func (r *Repository) CreateHOD(ctx context.Context, h HOD, passwordHash string) (HOD, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO hods (name, username, password_hash, department, contact_no)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, h.Name, h.Username, passwordHash, h.Department, h.ContactNo).Scan(&h.ID)
	if isUniqueViolation(err) {
		return HOD{}, ErrDuplicateUsername
	}
	return h, err
}

// UpdateHOD updates HOD details; passwordHash is only applied when non-empty.
func (r *Repository) UpdateHOD(ctx context.Context, h HOD, passwordHash string) error {
	var res sql.Result
	var err error
	if passwordHash != "" {
		res, err = r.db.ExecContext(ctx, `
			UPDATE hods SET name = $2, username = $3, department = $4, contact_no = $5, password_hash = $6
			WHERE id = $1
		`, h.ID, h.Name, h.Username, h.Department, h.ContactNo, passwordHash)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE hods SET name = $2, username = $3, department = $4, contact_no = $5
			WHERE id = $1
		`, h.ID, h.Name, h.Username, h.Department, h.ContactNo)
	}
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteHOD removes a department head account.
func (r *Repository) DeleteHOD(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetHOD returns a HOD by id, or nil when not found.
func (r *Repository) GetHOD(ctx context.Context, id int) (*HOD, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, username, department, contact_no FROM hods WHERE id = $1
	`, id)
	var h HOD
	if err := row.Scan(&h.ID, &h.Name, &h.Username, &h.Department, &h.ContactNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

// HODByUsername returns a HOD by username, or nil when not found.
func (r *Repository) HODByUsername(ctx context.Context, username string) (*HOD, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, username, department, contact_no FROM hods WHERE username = $1
	`, username)
	var h HOD
	if err := row.Scan(&h.ID, &h.Name, &h.Username, &h.Department, &h.ContactNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

// ListHODs returns all department heads.
func (r *Repository) ListHODs(ctx context.Context) ([]HOD, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, username, department, contact_no FROM hods ORDER BY department
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []HOD
	for rows.Next() {
		var h HOD
		if err := rows.Scan(&h.ID, &h.Name, &h.Username, &h.Department, &h.ContactNo); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// ---------- Accounts ----------

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleHOD   = "hod"
)

// CreateAdmin registers an administrator. Only allowed while no admin exists;
// the caller enforces that via CountAdmins.
func (r *Repository) CreateAdmin(ctx context.Context, username, passwordHash string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO admins (username, password_hash) VALUES ($1, $2) RETURNING id
	`, username, passwordHash).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateUsername
	}
	return id, err
}

// CountAdmins returns the number of admin accounts.
func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

// AccountByUsername returns the credential view of an admin, staff or HOD
// account, or nil when not found.
func (r *Repository) AccountByUsername(ctx context.Context, role, username string) (*Account, error) {
	var row *sql.Row
	switch role {
	case RoleAdmin:
		row = r.db.QueryRowContext(ctx, `
			SELECT id, username, username, COALESCE(contact_no, ''), password_hash, otp_hash, otp_expiry
			FROM admins WHERE username = $1
		`, username)
	case RoleStaff:
		row = r.db.QueryRowContext(ctx, `
			SELECT id, username, name, COALESCE(contact_no, ''), password_hash, otp_hash, otp_expiry
			FROM staff WHERE username = $1
		`, username)
	case RoleHOD:
		row = r.db.QueryRowContext(ctx, `
			SELECT id, username, name, COALESCE(contact_no, ''), password_hash, NULL, NULL
			FROM hods WHERE username = $1
		`, username)
	default:
		return nil, ErrUnknownRole
	}

	acc := Account{Role: role}
	if err := row.Scan(&acc.ID, &acc.Username, &acc.Name, &acc.ContactNo, &acc.PasswordHash, &acc.OTPHash, &acc.OTPExpiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// SetAccountOTP stores a hashed OTP with its expiry. HOD accounts do not
// support OTP recovery.
func (r *Repository) SetAccountOTP(ctx context.Context, role string, id int, otpHash string, expiry time.Time) error {
	table, err := otpTable(role)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET otp_hash = $2, otp_expiry = $3 WHERE id = $1`,
		id, otpHash, expiry)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ClearAccountOTP wipes any pending OTP.
func (r *Repository) ClearAccountOTP(ctx context.Context, role string, id int) error {
	table, err := otpTable(role)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE `+table+` SET otp_hash = NULL, otp_expiry = NULL WHERE id = $1`, id)
	return err
}

// SetAccountPassword replaces the password hash for an admin or staff account.
func (r *Repository) SetAccountPassword(ctx context.Context, role string, id int, passwordHash string) error {
	table, err := otpTable(role)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// otpTable whitelists the tables OTP recovery may touch.
func otpTable(role string) (string, error) {
	switch role {
	case RoleAdmin:
		return "admins", nil
	case RoleStaff:
		return "staff", nil
	default:
		return "", ErrUnknownRole
	}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
