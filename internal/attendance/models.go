package attendance

import "time"

// Status of a single attendance record.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Valid reports whether the status is one of the two known values.
func (s Status) Valid() bool { return s == StatusPresent || s == StatusAbsent }

// DateLayout is how calendar dates travel through the API and the database.
const DateLayout = "2006-01-02"

// Session is one cohort-slot submission: a (branch, semester, date, period)
// tuple owned by exactly one staff member. The database enforces the
// exclusivity with a unique constraint.
type Session struct {
	ID        string    `json:"id"`
	Branch    string    `json:"branch"`
	Semester  int       `json:"semester"`
	Date      string    `json:"date"`
	Period    int       `json:"period"`
	Subject   string    `json:"subject"`
	StaffID   int       `json:"staff_id"`
	StaffName string    `json:"staff_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record marks one student present or absent for one period.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	StaffID   int       `json:"staff_id"`
	StudentID int       `json:"student_id"`
	Date      string    `json:"date"`
	Period    int       `json:"period"`
	Subject   string    `json:"subject"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordDetail is a record joined with student identity, used by history and
// reporting views.
type RecordDetail struct {
	Record
	StudentName string `json:"student_name"`
	RollNo      string `json:"roll_no"`
}

// SessionSummary is one row of a staff member's teaching history.
type SessionSummary struct {
	Date         string `json:"date"`
	Period       int    `json:"period"`
	Subject      string `json:"subject"`
	StudentCount int    `json:"student_count"`
}
