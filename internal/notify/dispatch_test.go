package notify

import (
	"context"
	"testing"

	"campustrack/internal/queue"
)

type recordingNotifier struct {
	otpPhone string
	otpCode  string
	alert    *AbsenceAlert
}

func (r *recordingNotifier) SendOTP(ctx context.Context, phone, code string) bool {
	r.otpPhone, r.otpCode = phone, code
	return true
}

func (r *recordingNotifier) SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) bool {
	r.alert = &alert
	return true
}

func TestDispatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInMemory(4)
	d := NewDispatcher(q)

	alert := AbsenceAlert{
		Phone:       "9876543210",
		StudentName: "Anil Kumar",
		Date:        "2026-03-02",
		Period:      2,
		Subject:     "Data Structures",
		LocalTime:   "10:15",
	}
	if !d.SendAbsenceAlert(ctx, alert) {
		t.Fatal("publish failed")
	}
	if !d.SendOTP(ctx, "9876500001", "123456") {
		t.Fatal("otp publish failed")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	sink := &recordingNotifier{}
	for i := 0; i < 2; i++ {
		msg := <-messages
		if !Deliver(ctx, sink, msg) {
			t.Fatalf("Deliver failed for %s", msg.Type)
		}
	}

	if sink.alert == nil {
		t.Fatal("absence alert not delivered")
	}
	if *sink.alert != alert {
		t.Errorf("delivered alert = %+v, want %+v", *sink.alert, alert)
	}
	if sink.otpPhone != "9876500001" || sink.otpCode != "123456" {
		t.Errorf("delivered otp = %s/%s", sink.otpPhone, sink.otpCode)
	}
}

func TestDeliverUnknownType(t *testing.T) {
	if Deliver(context.Background(), &recordingNotifier{}, queue.Message{Type: "mystery"}) {
		t.Error("unknown message type reported as delivered")
	}
}

func TestAbsenceAlertMessage(t *testing.T) {
	alert := AbsenceAlert{
		StudentName: "Anil Kumar",
		Date:        "2026-03-02",
		Period:      3,
		Subject:     "Operating Systems",
		LocalTime:   "11:30",
	}
	want := "Dear Parent, your ward, Anil Kumar, was marked ABSENT for period 3 (Operating Systems) on 2026-03-02 at 11:30."
	if got := alert.Message(); got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestConsoleAlwaysSucceeds(t *testing.T) {
	c := NewConsole()
	ctx := context.Background()
	if !c.SendOTP(ctx, "9876543210", "123456") {
		t.Error("console OTP reported failure")
	}
	if !c.SendAbsenceAlert(ctx, AbsenceAlert{Phone: "9876543210", StudentName: "Anil Kumar"}) {
		t.Error("console alert reported failure")
	}
}
