package attendance

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"campustrack/internal/geo"
	"campustrack/internal/notify"
	"campustrack/internal/roster"
	"campustrack/internal/settings"
)

type fakeLedger struct {
	existing   *Session
	conflict   bool
	session    *Session
	records    []Record
	findCalls  int
	afterError *Session // returned by FindSession after a conflict
}

func (f *fakeLedger) FindSession(ctx context.Context, branch string, semester int, date string, period int) (*Session, error) {
	f.findCalls++
	if f.existing != nil {
		return f.existing, nil
	}
	if f.conflict && f.findCalls > 1 {
		return f.afterError, nil
	}
	return nil, nil
}

func (f *fakeLedger) CreateSubmission(ctx context.Context, session Session, records []Record) error {
	if f.conflict {
		return ErrSlotConflict
	}
	f.session = &session
	f.records = records
	return nil
}

type fakeRoster struct {
	students []roster.Student
}

func (f *fakeRoster) ListCohort(ctx context.Context, branch string, semester int) ([]roster.Student, error) {
	return f.students, nil
}

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) GetAll(ctx context.Context) (map[string]string, error) {
	if f.values == nil {
		return map[string]string{}, nil
	}
	return f.values, nil
}

type fakeNotifier struct {
	alerts []notify.AbsenceAlert
	fail   bool
}

func (f *fakeNotifier) SendOTP(ctx context.Context, phone, code string) bool { return !f.fail }

func (f *fakeNotifier) SendAbsenceAlert(ctx context.Context, alert notify.AbsenceAlert) bool {
	f.alerts = append(f.alerts, alert)
	return !f.fail
}

func sem(n int) *int { return &n }

func fptr(f float64) *float64 { return &f }

func cohort() []roster.Student {
	return []roster.Student{
		{ID: 1, Name: "Anil Kumar", RollNo: "CS101", Branch: "CSE", Semester: sem(3), ParentContact: "9876543210"},
		{ID: 2, Name: "Beena Thomas", RollNo: "CS102", Branch: "CSE", Semester: sem(3), ParentContact: "9876543211"},
		{ID: 3, Name: "Cyril George", RollNo: "CS103", Branch: "CSE", Semester: sem(3)},
	}
}

func geofenceOn() map[string]string {
	return map[string]string{
		settings.KeyEnabled:   "true",
		settings.KeyLatitude:  "9.5916",
		settings.KeyLongitude: "76.5222",
		settings.KeyRadius:    "200",
	}
}

func newTestService(ledger *fakeLedger, students []roster.Student, values map[string]string, n *fakeNotifier) *Service {
	svc := NewService(ledger, &fakeRoster{students: students}, &fakeSettings{values: values}, n, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC) }
	return svc
}

func baseSubmission() Submission {
	return Submission{
		Branch:   "CSE",
		Semester: 3,
		Period:   2,
		Subject:  "Data Structures",
		Marks: []Mark{
			{StudentID: 1, Status: StatusPresent},
			{StudentID: 2, Status: StatusAbsent},
			{StudentID: 3, Status: StatusAbsent},
		},
		// On-campus coordinates, a few meters from the configured center.
		Latitude:  fptr(9.5917),
		Longitude: fptr(76.5223),
	}
}

func TestSubmitHappyPath(t *testing.T) {
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, cohort(), geofenceOn(), notifier)

	res, err := svc.Submit(context.Background(), Actor{ID: 7, Name: "Prof. Iyer"}, baseSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.Created != 3 {
		t.Errorf("created = %d, want 3", res.Created)
	}
	if !res.Verified {
		t.Error("expected location verified")
	}
	if ledger.session == nil {
		t.Fatal("no session written")
	}
	if ledger.session.Date != "2026-03-02" {
		t.Errorf("session date = %q, want today in institution time", ledger.session.Date)
	}
	if ledger.session.StaffID != 7 {
		t.Errorf("session staff = %d, want 7", ledger.session.StaffID)
	}
	for _, rec := range ledger.records {
		if rec.SessionID != ledger.session.ID {
			t.Errorf("record %s not linked to session", rec.ID)
		}
	}

	// Two absentees, but only one has a parent contact on file.
	if res.Notifications != 1 {
		t.Errorf("notifications = %d, want 1", res.Notifications)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(notifier.alerts))
	}
	alert := notifier.alerts[0]
	if alert.Phone != "9876543211" || alert.StudentName != "Beena Thomas" {
		t.Errorf("alert went to %s/%s", alert.Phone, alert.StudentName)
	}
	if !strings.Contains(alert.Message(), "marked ABSENT for period 2") {
		t.Errorf("unexpected alert message %q", alert.Message())
	}
}

func TestSubmitSlotAlreadyTaken(t *testing.T) {
	ledger := &fakeLedger{existing: &Session{StaffName: "Prof. Nair"}}
	svc := newTestService(ledger, cohort(), geofenceOn(), &fakeNotifier{})

	_, err := svc.Submit(context.Background(), Actor{ID: 7}, baseSubmission())
	se, ok := AsSubmitError(err)
	if !ok || se.Kind != KindSlotTaken {
		t.Fatalf("err = %v, want slot_taken", err)
	}
	if se.TakenBy != "Prof. Nair" {
		t.Errorf("taken_by = %q, want the prior staff member", se.TakenBy)
	}
	if ledger.session != nil {
		t.Error("records written despite conflict")
	}
}

func TestSubmitConflictRace(t *testing.T) {
	// Pre-check passes, then the unique constraint fires on insert. The
	// rejection must name whoever won the race.
	ledger := &fakeLedger{conflict: true, afterError: &Session{StaffName: "Prof. Menon"}}
	svc := newTestService(ledger, cohort(), geofenceOn(), &fakeNotifier{})

	_, err := svc.Submit(context.Background(), Actor{ID: 7}, baseSubmission())
	se, ok := AsSubmitError(err)
	if !ok || se.Kind != KindSlotTaken {
		t.Fatalf("err = %v, want slot_taken", err)
	}
	if !strings.Contains(se.Detail, "Prof. Menon") {
		t.Errorf("detail %q does not name the winner", se.Detail)
	}
}

func TestSubmitEmptyRoster(t *testing.T) {
	svc := newTestService(&fakeLedger{}, nil, geofenceOn(), &fakeNotifier{})

	_, err := svc.Submit(context.Background(), Actor{ID: 7}, baseSubmission())
	se, ok := AsSubmitError(err)
	if !ok || se.Kind != KindEmptyRoster {
		t.Fatalf("err = %v, want empty_roster", err)
	}
}

func TestSubmitGeofence(t *testing.T) {
	// ~1.1km north of the configured center.
	farLat, farLon := 9.6016, 76.5222

	tests := []struct {
		name     string
		values   map[string]string
		lat, lon *float64
		wantKind string
		verified bool
	}{
		{
			name:     "missing coordinates rejected",
			values:   geofenceOn(),
			wantKind: KindLocationRequired,
		},
		{
			name:     "out of range rejected",
			values:   geofenceOn(),
			lat:      fptr(farLat),
			lon:      fptr(farLon),
			wantKind: KindOutOfRange,
		},
		{
			name: "incomplete settings rejected",
			values: map[string]string{
				settings.KeyEnabled:  "true",
				settings.KeyLatitude: "9.5916",
			},
			lat:      fptr(9.5916),
			lon:      fptr(76.5222),
			wantKind: KindGeofenceMisconfigured,
		},
		{
			name:   "disabled geofence admits without coordinates",
			values: map[string]string{settings.KeyEnabled: "false"},
		},
		{
			name:   "absent settings admit without coordinates",
			values: map[string]string{},
		},
		{
			name:     "inside radius verified",
			values:   geofenceOn(),
			lat:      fptr(9.5917),
			lon:      fptr(76.5223),
			verified: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			svc := newTestService(ledger, cohort(), tt.values, &fakeNotifier{})

			sub := baseSubmission()
			sub.Latitude, sub.Longitude = tt.lat, tt.lon

			res, err := svc.Submit(context.Background(), Actor{ID: 7}, sub)
			if tt.wantKind != "" {
				se, ok := AsSubmitError(err)
				if !ok || se.Kind != tt.wantKind {
					t.Fatalf("err = %v, want kind %s", err, tt.wantKind)
				}
				if ledger.session != nil {
					t.Error("records written despite rejection")
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if res.Verified != tt.verified {
				t.Errorf("verified = %v, want %v", res.Verified, tt.verified)
			}
		})
	}
}

func TestSubmitBoundaryDistanceAdmitted(t *testing.T) {
	// Radius set to exactly the measured distance; the boundary is inclusive,
	// only strictly greater is rejected.
	d := geo.Distance(9.5916, 76.5222, 9.5917, 76.5223)
	values := geofenceOn()
	values[settings.KeyRadius] = strconv.FormatFloat(d, 'f', -1, 64)

	ledger := &fakeLedger{}
	svc := newTestService(ledger, cohort(), values, &fakeNotifier{})

	res, err := svc.Submit(context.Background(), Actor{ID: 7}, baseSubmission())
	if err != nil {
		t.Fatalf("Submit at boundary: %v", err)
	}
	if !res.Verified {
		t.Error("boundary submission not verified")
	}
	if res.Distance != d {
		t.Errorf("distance = %v, want %v", res.Distance, d)
	}
}

func TestSubmitSkipsBlankMarks(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, cohort(), map[string]string{}, &fakeNotifier{})

	sub := baseSubmission()
	sub.Marks = []Mark{
		{StudentID: 1, Status: StatusPresent},
		{StudentID: 2, Status: ""},
		{StudentID: 3, Status: StatusAbsent},
	}

	res, err := svc.Submit(context.Background(), Actor{ID: 7}, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Created != 2 {
		t.Errorf("created = %d, want 2 (blank mark skipped)", res.Created)
	}
}

func TestSubmitRejectsUnknownStudent(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, cohort(), map[string]string{}, &fakeNotifier{})

	sub := baseSubmission()
	sub.Marks = append(sub.Marks, Mark{StudentID: 99, Status: StatusPresent})

	_, err := svc.Submit(context.Background(), Actor{ID: 7}, sub)
	se, ok := AsSubmitError(err)
	if !ok || se.Kind != KindInvalidInput {
		t.Fatalf("err = %v, want invalid_input", err)
	}
	if ledger.session != nil {
		t.Error("partial write for invalid sheet")
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"missing branch", func(s *Submission) { s.Branch = "" }},
		{"zero semester", func(s *Submission) { s.Semester = 0 }},
		{"zero period", func(s *Submission) { s.Period = 0 }},
		{"missing subject", func(s *Submission) { s.Subject = "" }},
		{"no marks", func(s *Submission) { s.Marks = nil }},
		{"bad date", func(s *Submission) { s.Date = "02-03-2026" }},
		{"bad status", func(s *Submission) { s.Marks[0].Status = "Late" }},
		{"all marks blank", func(s *Submission) {
			for i := range s.Marks {
				s.Marks[i].Status = ""
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeLedger{}, cohort(), map[string]string{}, &fakeNotifier{})
			sub := baseSubmission()
			tt.mutate(&sub)

			_, err := svc.Submit(context.Background(), Actor{ID: 7}, sub)
			se, ok := AsSubmitError(err)
			if !ok || se.Kind != KindInvalidInput {
				t.Fatalf("err = %v, want invalid_input", err)
			}
		})
	}
}

func TestSubmitNotificationFailureDoesNotFail(t *testing.T) {
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{fail: true}
	svc := newTestService(ledger, cohort(), map[string]string{}, notifier)

	res, err := svc.Submit(context.Background(), Actor{ID: 7}, baseSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Created != 3 {
		t.Errorf("created = %d, want 3", res.Created)
	}
	if res.Notifications != 1 {
		t.Errorf("notifications = %d, want 1 attempted", res.Notifications)
	}
}

func TestCheckSlotDefaultsToToday(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil, nil, &fakeNotifier{})

	if _, err := svc.CheckSlot(context.Background(), "CSE", 3, 2, ""); err != nil {
		t.Fatalf("CheckSlot: %v", err)
	}
	if ledger.findCalls != 1 {
		t.Errorf("findCalls = %d, want 1", ledger.findCalls)
	}
	if svc.Today() != "2026-03-02" {
		t.Errorf("Today() = %q", svc.Today())
	}
}
