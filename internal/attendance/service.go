package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"campustrack/internal/geo"
	"campustrack/internal/notify"
	"campustrack/internal/roster"
	"campustrack/internal/settings"
)

// Ledger is the slice of the attendance repository the workflow needs.
type Ledger interface {
	FindSession(ctx context.Context, branch string, semester int, date string, period int) (*Session, error)
	CreateSubmission(ctx context.Context, session Session, records []Record) error
}

// CohortRoster loads the active students of one cohort.
type CohortRoster interface {
	ListCohort(ctx context.Context, branch string, semester int) ([]roster.Student, error)
}

// SettingsSource reads the flat settings map.
type SettingsSource interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

// Actor is the authenticated staff member submitting attendance. It is
// passed in explicitly; the workflow never reaches into ambient session
// state.
type Actor struct {
	ID   int
	Name string
}

// Mark is one (student, status) pair from the submitted sheet. Marks with an
// empty status are skipped, matching a sheet row the staff left untouched.
type Mark struct {
	StudentID int    `json:"student_id"`
	Status    Status `json:"status"`
}

// Submission is a full cohort attendance sheet.
type Submission struct {
	Branch    string
	Semester  int
	Period    int
	Subject   string
	Date      string // YYYY-MM-DD in institution time; empty means today
	Marks     []Mark
	Latitude  *float64
	Longitude *float64
}

// Result reports a successful submission.
type Result struct {
	Created       int     `json:"created"`
	Notifications int     `json:"notifications"`
	Distance      float64 `json:"distance_meters,omitempty"`
	Verified      bool    `json:"location_verified"`
	Message       string  `json:"message"`
}

// Service orchestrates the submission workflow: conflict check, geofence
// admission control, batch insert, absence notification dispatch.
type Service struct {
	ledger   Ledger
	roster   CohortRoster
	settings SettingsSource
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewService creates the workflow service. loc is the institution's local
// time zone; "today" is resolved against it.
func NewService(ledger Ledger, cohorts CohortRoster, settingsSrc SettingsSource, notifier notify.Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		ledger:   ledger,
		roster:   cohorts,
		settings: settingsSrc,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
	}
}

// Today returns the current calendar date in the institution's time zone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// CheckSlot reports whether a cohort-slot is still free, returning the prior
// session when it is not. Used by the roster-preview step; the authoritative
// check happens again inside Submit.
func (s *Service) CheckSlot(ctx context.Context, branch string, semester, period int, date string) (*Session, error) {
	if date == "" {
		date = s.Today()
	}
	return s.ledger.FindSession(ctx, branch, semester, date, period)
}

// Submit runs the full workflow. On any rejection no records are written;
// after the batch commits, notification problems are logged but never fail
// the call.
func (s *Service) Submit(ctx context.Context, actor Actor, sub Submission) (Result, error) {
	if err := s.validate(sub); err != nil {
		return Result{}, err
	}

	date := sub.Date
	if date == "" {
		date = s.Today()
	}

	// Step 1: conflict check. Advisory; the unique constraint backs it up.
	if existing, err := s.ledger.FindSession(ctx, sub.Branch, sub.Semester, date, sub.Period); err != nil {
		return Result{}, err
	} else if existing != nil {
		return Result{}, slotTakenError(existing, sub)
	}

	// Step 2: roster fetch.
	students, err := s.roster.ListCohort(ctx, sub.Branch, sub.Semester)
	if err != nil {
		return Result{}, err
	}
	if len(students) == 0 {
		return Result{}, &SubmitError{
			Kind:   KindEmptyRoster,
			Detail: fmt.Sprintf("no students found for %s semester %d", sub.Branch, sub.Semester),
		}
	}
	byID := make(map[int]roster.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	// Step 3: geofence admission control.
	distance, verified, err := s.admitLocation(ctx, sub)
	if err != nil {
		return Result{}, err
	}

	// Step 4: batch insert, all-or-nothing.
	session := Session{
		ID:       uuid.NewString(),
		Branch:   sub.Branch,
		Semester: sub.Semester,
		Date:     date,
		Period:   sub.Period,
		Subject:  sub.Subject,
		StaffID:  actor.ID,
	}
	var records []Record
	var absentees []roster.Student
	for _, mark := range sub.Marks {
		if mark.Status == "" {
			continue
		}
		student, ok := byID[mark.StudentID]
		if !ok {
			return Result{}, &SubmitError{
				Kind:   KindInvalidInput,
				Detail: fmt.Sprintf("student %d is not in %s semester %d", mark.StudentID, sub.Branch, sub.Semester),
			}
		}
		records = append(records, Record{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			StaffID:   actor.ID,
			StudentID: mark.StudentID,
			Date:      date,
			Period:    sub.Period,
			Subject:   sub.Subject,
			Status:    mark.Status,
		})
		if mark.Status == StatusAbsent {
			absentees = append(absentees, student)
		}
	}
	if len(records) == 0 {
		return Result{}, &SubmitError{Kind: KindInvalidInput, Detail: "no statuses submitted"}
	}

	if err := s.ledger.CreateSubmission(ctx, session, records); err != nil {
		if err == ErrSlotConflict {
			// Raced another staff member; name the winner.
			if winner, ferr := s.ledger.FindSession(ctx, sub.Branch, sub.Semester, date, sub.Period); ferr == nil && winner != nil {
				return Result{}, slotTakenError(winner, sub)
			}
			return Result{}, &SubmitError{
				Kind:   KindSlotTaken,
				Detail: fmt.Sprintf("attendance for %s semester %d period %d has already been taken", sub.Branch, sub.Semester, sub.Period),
			}
		}
		return Result{}, err
	}

	// Step 5: absence notifications. Best effort, never rolls anything back.
	localTime := s.now().In(s.loc).Format("15:04")
	notified := 0
	for _, student := range absentees {
		if student.ParentContact == "" {
			continue
		}
		notified++
		if ok := s.notifier.SendAbsenceAlert(ctx, notify.AbsenceAlert{
			Phone:       student.ParentContact,
			StudentName: student.Name,
			Date:        date,
			Period:      sub.Period,
			Subject:     sub.Subject,
			LocalTime:   localTime,
		}); !ok {
			log.Printf("absence alert for student %d not delivered", student.ID)
		}
	}

	msg := fmt.Sprintf("Attendance for period %d submitted successfully.", sub.Period)
	if verified {
		msg = fmt.Sprintf("Location Verified (%dm from campus). %s", int(distance), msg)
	}
	return Result{
		Created:       len(records),
		Notifications: notified,
		Distance:      distance,
		Verified:      verified,
		Message:       msg,
	}, nil
}

// admitLocation applies geofence admission control. It returns the measured
// distance and whether the location was actually verified; when geofencing
// is disabled the submission proceeds unconditionally.
func (s *Service) admitLocation(ctx context.Context, sub Submission) (distance float64, verified bool, err error) {
	values, err := s.settings.GetAll(ctx)
	if err != nil {
		return 0, false, err
	}
	fence, err := settings.GeofenceFrom(values)
	if err != nil {
		return 0, false, &SubmitError{
			Kind:   KindGeofenceMisconfigured,
			Detail: "geolocation settings are not fully configured by the admin yet",
		}
	}
	if !fence.Enabled {
		return 0, false, nil
	}
	if sub.Latitude == nil || sub.Longitude == nil {
		return 0, false, &SubmitError{
			Kind:   KindLocationRequired,
			Detail: "location data was not provided; enable location services and resubmit",
		}
	}

	distance = geo.Distance(fence.Latitude, fence.Longitude, *sub.Latitude, *sub.Longitude)
	if distance > fence.RadiusMeters {
		return 0, false, &SubmitError{
			Kind:     KindOutOfRange,
			Detail:   fmt.Sprintf("outside allowed radius: %dm > %dm", int(distance), int(fence.RadiusMeters)),
			Distance: distance,
			Radius:   fence.RadiusMeters,
		}
	}
	return distance, true, nil
}

func (s *Service) validate(sub Submission) error {
	switch {
	case sub.Branch == "":
		return &SubmitError{Kind: KindInvalidInput, Detail: "branch is required"}
	case sub.Semester < 1:
		return &SubmitError{Kind: KindInvalidInput, Detail: "semester must be a positive number"}
	case sub.Period < 1:
		return &SubmitError{Kind: KindInvalidInput, Detail: "period must be a positive number"}
	case sub.Subject == "":
		return &SubmitError{Kind: KindInvalidInput, Detail: "subject is required"}
	case len(sub.Marks) == 0:
		return &SubmitError{Kind: KindInvalidInput, Detail: "no students submitted"}
	}
	if sub.Date != "" {
		if _, err := time.ParseInLocation(DateLayout, sub.Date, s.loc); err != nil {
			return &SubmitError{Kind: KindInvalidInput, Detail: "invalid date, use YYYY-MM-DD"}
		}
	}
	for _, mark := range sub.Marks {
		if mark.Status != "" && !mark.Status.Valid() {
			return &SubmitError{Kind: KindInvalidInput, Detail: fmt.Sprintf("invalid status %q", mark.Status)}
		}
	}
	return nil
}

func slotTakenError(existing *Session, sub Submission) *SubmitError {
	return &SubmitError{
		Kind: KindSlotTaken,
		Detail: fmt.Sprintf("attendance for %s (Sem %d) for period %d has already been taken by %s",
			sub.Branch, sub.Semester, sub.Period, existing.StaffName),
		TakenBy: existing.StaffName,
	}
}
