// Package validate holds field validators shared by the account-management
// handlers.
package validate

import (
	"errors"
	"regexp"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)
	nameRe     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phoneRe    = regexp.MustCompile(`^[6-9]\d{9}$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
	specialRe  = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Username checks account-name rules: 4-30 chars, letters/digits/underscore/
// period, must start with a letter or underscore.
func Username(username string) error {
	if len(username) < 4 || len(username) > 30 {
		return errors.New("username must be between 4 and 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username can only contain letters, numbers, underscores and periods, and must start with a letter or underscore")
	}
	return nil
}

// Password checks password strength.
func Password(password string) error {
	switch {
	case len(password) < 8:
		return errors.New("password must be at least 8 characters long")
	case !upperRe.MatchString(password):
		return errors.New("password must contain at least one uppercase letter")
	case !lowerRe.MatchString(password):
		return errors.New("password must contain at least one lowercase letter")
	case !digitRe.MatchString(password):
		return errors.New("password must contain at least one number")
	case !specialRe.MatchString(password):
		return errors.New("password must contain at least one special character")
	}
	return nil
}

// PersonName allows letters and spaces only.
func PersonName(name string) error {
	if !nameRe.MatchString(name) {
		return errors.New("name can only contain letters and spaces")
	}
	return nil
}

// Phone checks for a 10-digit Indian mobile number.
func Phone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return errors.New("enter a valid 10-digit mobile number")
	}
	return nil
}
