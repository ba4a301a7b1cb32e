package auth

import (
	"testing"
	"time"
)

const testKey = "test-signing-key"

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue(7, "priya.nair", "staff", "Priya Nair", PurposeAccess, "campustrack", testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Error("expiry not in the future")
	}

	claims, err := Parse(token, testKey, "campustrack")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "priya.nair" || claims.Role != "staff" || claims.UserID != 7 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Purpose != PurposeAccess {
		t.Errorf("purpose = %q, want access", claims.Purpose)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue(7, "priya.nair", "staff", "Priya Nair", PurposeAccess, "campustrack", testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "other-key", "campustrack"); err == nil {
		t.Error("token signed with a different key accepted")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := Issue(7, "priya.nair", "staff", "Priya Nair", PurposeAccess, "someone-else", testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, testKey, "campustrack"); err == nil {
		t.Error("token from a different issuer accepted")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue(7, "priya.nair", "staff", "Priya Nair", PurposeAccess, "campustrack", testKey, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, testKey, "campustrack"); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Secret1!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret1!" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "Secret1!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "Secret1?") {
		t.Error("wrong password accepted")
	}
}
