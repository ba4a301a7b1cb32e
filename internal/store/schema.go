package store

import (
	"database/sql"
	"fmt"
)

// Schema bootstraps all tables. The UNIQUE constraint on attendance_sessions
// is what makes cohort-slot exclusivity hold under concurrent submissions:
// the conflict-check read is advisory, the constraint is the guarantee.
const Schema = `
CREATE TABLE IF NOT EXISTS admins (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    email VARCHAR(100) UNIQUE,
    contact_no VARCHAR(15),
    otp_hash VARCHAR(255),
    otp_expiry TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS staff (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    username VARCHAR(50) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    branch VARCHAR(50),
    contact_no VARCHAR(15),
    timetable_file VARCHAR(255),
    otp_hash VARCHAR(255),
    otp_expiry TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS hods (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    username VARCHAR(50) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    department VARCHAR(50) NOT NULL,
    contact_no VARCHAR(15)
);

CREATE TABLE IF NOT EXISTS students (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    roll_no VARCHAR(20) UNIQUE NOT NULL,
    branch VARCHAR(50),
    semester INTEGER,
    parent_contact VARCHAR(15)
);

CREATE TABLE IF NOT EXISTS semesters (
    id SERIAL PRIMARY KEY,
    branch VARCHAR(100) NOT NULL,
    semester_num INTEGER NOT NULL,
    start_date DATE,
    end_date DATE,
    is_active BOOLEAN DEFAULT TRUE,
    UNIQUE (branch, semester_num)
);

CREATE TABLE IF NOT EXISTS attendance_sessions (
    id UUID PRIMARY KEY,
    branch VARCHAR(50) NOT NULL,
    semester INTEGER NOT NULL,
    date DATE NOT NULL,
    period INTEGER NOT NULL,
    subject VARCHAR(100) NOT NULL,
    staff_id INTEGER NOT NULL REFERENCES staff(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (branch, semester, date, period)
);

CREATE TABLE IF NOT EXISTS attendance_records (
    id UUID PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
    staff_id INTEGER NOT NULL REFERENCES staff(id),
    student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    period INTEGER NOT NULL,
    subject VARCHAR(100) NOT NULL,
    status VARCHAR(10) NOT NULL CHECK (status IN ('Present', 'Absent')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_student ON attendance_records(student_id, date);

CREATE TABLE IF NOT EXISTS settings (
    id SERIAL PRIMARY KEY,
    setting_key VARCHAR(50) UNIQUE NOT NULL,
    setting_value VARCHAR(255)
);
`

// EnsureSchema creates all tables if they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
