package roster

import (
	"database/sql"
	"time"
)

// Student is a member of a cohort. Semester is nil once the student has
// graduated; graduated students are excluded from active-roster queries but
// keep their attendance history.
type Student struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	RollNo        string `json:"roll_no"`
	Branch        string `json:"branch"`
	Semester      *int   `json:"semester"`
	ParentContact string `json:"parent_contact,omitempty"`
}

// Graduated reports whether the student has been archived.
func (s Student) Graduated() bool { return s.Semester == nil }

// Staff is a teaching staff member who marks attendance.
type Staff struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	Branch        string  `json:"branch"`
	ContactNo     string  `json:"contact_no,omitempty"`
	TimetableFile *string `json:"timetable_file,omitempty"`
}

// HOD is a department head with read access to department statistics.
type HOD struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	Department string `json:"department"`
	ContactNo  string `json:"contact_no,omitempty"`
}

// Account is the credential view of an admin, staff or HOD row, used by
// login and OTP password recovery.
type Account struct {
	ID           int
	Role         string
	Username     string
	Name         string
	ContactNo    string
	PasswordHash string
	OTPHash      sql.NullString
	OTPExpiry    sql.NullTime
}

// StudentFilter narrows admin student listings.
type StudentFilter struct {
	Query    string
	Branch   string
	Semester *int
	Alumni   bool
}

// SemesterCount is one bar of the per-semester distribution graph.
type SemesterCount struct {
	Semester int `json:"semester"`
	Count    int `json:"count"`
}

// OTPValid reports whether the account has a live OTP at the given time.
func (a Account) OTPValid(now time.Time) bool {
	return a.OTPHash.Valid && a.OTPExpiry.Valid && a.OTPExpiry.Time.After(now)
}
