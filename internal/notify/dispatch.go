package notify

import (
	"context"
	"encoding/json"
	"log"

	"campustrack/internal/queue"
)

// Queue message types understood by the notification worker.
const (
	TypeAbsenceAlert = "absence_alert"
	TypeOTP          = "otp"
)

type otpPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Dispatcher is a Notifier that hands messages to the queue instead of
// delivering them inline; the worker picks them up and sends through the
// real channel. A publish failure only costs the notification, never the
// attendance commit.
type Dispatcher struct {
	q queue.Queue
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher wraps a queue as a Notifier.
func NewDispatcher(q queue.Queue) *Dispatcher {
	return &Dispatcher{q: q}
}

// SendOTP enqueues an OTP delivery.
func (d *Dispatcher) SendOTP(ctx context.Context, phone, code string) bool {
	body, _ := json.Marshal(otpPayload{Phone: phone, Code: code})
	if err := d.q.Publish(ctx, queue.Message{Type: TypeOTP, Body: body}); err != nil {
		log.Printf("otp publish failed: %v", err)
		return false
	}
	return true
}

// SendAbsenceAlert enqueues an absence notification.
func (d *Dispatcher) SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) bool {
	body, _ := json.Marshal(alert)
	if err := d.q.Publish(ctx, queue.Message{Type: TypeAbsenceAlert, Body: body}); err != nil {
		log.Printf("absence alert publish failed: %v", err)
		return false
	}
	return true
}

// Deliver decodes a queued message and sends it through the concrete
// notifier. Used by the worker loop.
func Deliver(ctx context.Context, n Notifier, msg queue.Message) bool {
	switch msg.Type {
	case TypeOTP:
		var p otpPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			log.Printf("bad otp payload: %v", err)
			return false
		}
		return n.SendOTP(ctx, p.Phone, p.Code)
	case TypeAbsenceAlert:
		var alert AbsenceAlert
		if err := json.Unmarshal(msg.Body, &alert); err != nil {
			log.Printf("bad absence payload: %v", err)
			return false
		}
		return n.SendAbsenceAlert(ctx, alert)
	default:
		log.Printf("unknown message type %q", msg.Type)
		return false
	}
}
