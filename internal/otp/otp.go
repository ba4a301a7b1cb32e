package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"campustrack/internal/auth"
	"campustrack/internal/notify"
	"campustrack/internal/roster"
)

var (
	// ErrAccountNotFound means no account matches the role/username pair.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNoContact means the account has no phone number to deliver an OTP to.
	ErrNoContact = errors.New("no phone number registered")
	// ErrInvalidOTP covers wrong codes and expired codes alike; callers get
	// one message so the response does not leak which case occurred.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
)

// Accounts is the slice of the roster the OTP flow needs.
type Accounts interface {
	AccountByUsername(ctx context.Context, role, username string) (*roster.Account, error)
	SetAccountOTP(ctx context.Context, role string, id int, otpHash string, expiry time.Time) error
	ClearAccountOTP(ctx context.Context, role string, id int) error
	SetAccountPassword(ctx context.Context, role string, id int, passwordHash string) error
}

// Service runs OTP-based password recovery for admin and staff accounts.
type Service struct {
	accounts Accounts
	notifier notify.Notifier
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates the recovery service.
func NewService(accounts Accounts, notifier notify.Notifier, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{accounts: accounts, notifier: notifier, ttl: ttl, now: time.Now}
}

// Begin generates a 6-digit code, stores its hash with an expiry, and hands
// it to the notifier. The code itself is never persisted.
func (s *Service) Begin(ctx context.Context, role, username string) error {
	acc, err := s.accounts.AccountByUsername(ctx, role, username)
	if err != nil {
		return err
	}
	if acc == nil {
		return ErrAccountNotFound
	}
	if acc.ContactNo == "" {
		return ErrNoContact
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(code)
	if err != nil {
		return err
	}
	if err := s.accounts.SetAccountOTP(ctx, role, acc.ID, hash, s.now().Add(s.ttl)); err != nil {
		return err
	}

	s.notifier.SendOTP(ctx, acc.ContactNo, code)
	return nil
}

// Verify checks a submitted code and returns the account when it matches a
// live OTP.
func (s *Service) Verify(ctx context.Context, role, username, code string) (*roster.Account, error) {
	acc, err := s.accounts.AccountByUsername(ctx, role, username)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	if !acc.OTPValid(s.now()) || !auth.CheckPassword(acc.OTPHash.String, code) {
		return nil, ErrInvalidOTP
	}
	return acc, nil
}

// Reset sets a new password and wipes the pending OTP.
func (s *Service) Reset(ctx context.Context, role string, id int, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.SetAccountPassword(ctx, role, id, hash); err != nil {
		return err
	}
	return s.accounts.ClearAccountOTP(ctx, role, id)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
