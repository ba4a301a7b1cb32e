package otp

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"campustrack/internal/auth"
	"campustrack/internal/notify"
	"campustrack/internal/roster"
)

type fakeAccounts struct {
	account  *roster.Account
	otpHash  string
	expiry   time.Time
	password string
	cleared  bool
}

func (f *fakeAccounts) AccountByUsername(ctx context.Context, role, username string) (*roster.Account, error) {
	if f.account != nil && f.account.Username == username && f.account.Role == role {
		acc := *f.account
		if f.otpHash != "" {
			acc.OTPHash = sql.NullString{String: f.otpHash, Valid: true}
			acc.OTPExpiry = sql.NullTime{Time: f.expiry, Valid: true}
		}
		return &acc, nil
	}
	return nil, nil
}

func (f *fakeAccounts) SetAccountOTP(ctx context.Context, role string, id int, otpHash string, expiry time.Time) error {
	f.otpHash = otpHash
	f.expiry = expiry
	return nil
}

func (f *fakeAccounts) ClearAccountOTP(ctx context.Context, role string, id int) error {
	f.cleared = true
	f.otpHash = ""
	return nil
}

func (f *fakeAccounts) SetAccountPassword(ctx context.Context, role string, id int, passwordHash string) error {
	f.password = passwordHash
	return nil
}

type captureNotifier struct {
	phone string
	code  string
}

func (c *captureNotifier) SendOTP(ctx context.Context, phone, code string) bool {
	c.phone, c.code = phone, code
	return true
}

func (c *captureNotifier) SendAbsenceAlert(ctx context.Context, alert notify.AbsenceAlert) bool {
	return true
}

func staffAccount() *roster.Account {
	return &roster.Account{ID: 5, Role: roster.RoleStaff, Username: "priya.nair", Name: "Priya Nair", ContactNo: "9876500001"}
}

func TestBeginDeliversCode(t *testing.T) {
	accounts := &fakeAccounts{account: staffAccount()}
	n := &captureNotifier{}
	svc := NewService(accounts, n, 10*time.Minute)

	if err := svc.Begin(context.Background(), roster.RoleStaff, "priya.nair"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if n.phone != "9876500001" {
		t.Errorf("OTP sent to %q", n.phone)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(n.code) {
		t.Errorf("code %q is not 6 digits", n.code)
	}
	if accounts.otpHash == "" {
		t.Fatal("no hash stored")
	}
	if accounts.otpHash == n.code {
		t.Error("code stored in plaintext")
	}
	if !auth.CheckPassword(accounts.otpHash, n.code) {
		t.Error("stored hash does not match the delivered code")
	}
}

func TestBeginUnknownAccount(t *testing.T) {
	svc := NewService(&fakeAccounts{}, &captureNotifier{}, time.Minute)

	err := svc.Begin(context.Background(), roster.RoleStaff, "ghost")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestBeginNoContact(t *testing.T) {
	acc := staffAccount()
	acc.ContactNo = ""
	svc := NewService(&fakeAccounts{account: acc}, &captureNotifier{}, time.Minute)

	err := svc.Begin(context.Background(), roster.RoleStaff, "priya.nair")
	if !errors.Is(err, ErrNoContact) {
		t.Fatalf("err = %v, want ErrNoContact", err)
	}
}

func TestVerifyAndReset(t *testing.T) {
	accounts := &fakeAccounts{account: staffAccount()}
	n := &captureNotifier{}
	svc := NewService(accounts, n, 10*time.Minute)
	ctx := context.Background()

	if err := svc.Begin(ctx, roster.RoleStaff, "priya.nair"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := svc.Verify(ctx, roster.RoleStaff, "priya.nair", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong code: err = %v, want ErrInvalidOTP", err)
	}

	acc, err := svc.Verify(ctx, roster.RoleStaff, "priya.nair", n.code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if acc.ID != 5 {
		t.Errorf("verified account id = %d", acc.ID)
	}

	if err := svc.Reset(ctx, roster.RoleStaff, acc.ID, "NewSecret1!"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !auth.CheckPassword(accounts.password, "NewSecret1!") {
		t.Error("new password hash does not verify")
	}
	if !accounts.cleared {
		t.Error("OTP not cleared after reset")
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	accounts := &fakeAccounts{account: staffAccount()}
	n := &captureNotifier{}
	svc := NewService(accounts, n, 10*time.Minute)
	ctx := context.Background()

	if err := svc.Begin(ctx, roster.RoleStaff, "priya.nair"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Jump past the expiry.
	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := svc.Verify(ctx, roster.RoleStaff, "priya.nair", n.code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expired code: err = %v, want ErrInvalidOTP", err)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 || code[0] == '0' {
			t.Fatalf("code %q outside 100000-999999", code)
		}
	}
}
