package notify

import (
	"context"
	"log"
	"strings"
)

// Console is the simulated SMS channel: it prints messages to the process
// log and always reports success. Intended for development and demos.
type Console struct{}

// NewConsole creates the simulator.
func NewConsole() *Console {
	return &Console{}
}

// SendOTP prints the OTP instead of delivering it.
func (c *Console) SendOTP(_ context.Context, phone, code string) bool {
	frame := strings.Repeat("=", 50)
	log.Printf("\n%s\n=== SMS SIMULATOR (OTP) ===\n      To: %s\n     OTP: %s\n%s", frame, phone, code, frame)
	return true
}

// SendAbsenceAlert prints the absence notification instead of delivering it.
func (c *Console) SendAbsenceAlert(_ context.Context, alert AbsenceAlert) bool {
	frame := strings.Repeat("=", 50)
	log.Printf("\n%s\n=== SMS SIMULATOR (Absent Notification) ===\n      To: %s\n Message: %s\n%s", frame, alert.Phone, alert.Message(), frame)
	return true
}
