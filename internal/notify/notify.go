package notify

import (
	"context"
	"fmt"
)

// AbsenceAlert carries everything a parent needs to understand the message:
// who, when, which period and subject, and the local submission time.
type AbsenceAlert struct {
	Phone       string `json:"phone"`
	StudentName string `json:"student_name"`
	Date        string `json:"date"`
	Period      int    `json:"period"`
	Subject     string `json:"subject"`
	LocalTime   string `json:"local_time"`
}

// Message renders the parent-facing SMS body.
func (a AbsenceAlert) Message() string {
	return fmt.Sprintf(
		"Dear Parent, your ward, %s, was marked ABSENT for period %d (%s) on %s at %s.",
		a.StudentName, a.Period, a.Subject, a.Date, a.LocalTime,
	)
}

// Notifier is the outbound SMS port. Implementations must be safe to call
// from a request handler and must never fail past this boundary: delivery
// problems are reported as false, never as a panic or error that could
// disturb an attendance commit.
type Notifier interface {
	SendOTP(ctx context.Context, phone, code string) bool
	SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) bool
}
