package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Access tokens drive normal API calls; reset tokens are
// short-lived and only good for the password-reset endpoint.
const (
	PurposeAccess = "access"
	PurposeReset  = "reset"
)

// Claims represents JWT payload for an authenticated principal.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	UserID  int    `json:"uid"`
	jwt.RegisteredClaims
}

// Issue signs a token for a principal. The role is one of admin, staff, hod.
func Issue(userID int, username, role, name, purpose, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Subject: username,
		Role:    role,
		Name:    name,
		Purpose: purpose,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
