package auth

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := "test-secret"

	signed, err := IssueSessionToken(secret, "session-abc", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	session, err := ValidateSessionToken(secret, signed)
	if err != nil {
		t.Fatalf("ValidateSessionToken failed: %v", err)
	}
	if session != "session-abc" {
		t.Errorf("Session claim = %q, want %q", session, "session-abc")
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	signed, err := IssueSessionToken("right-secret", "session-abc", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	if _, err := ValidateSessionToken("wrong-secret", signed); err == nil {
		t.Error("Token signed with a different secret should not validate")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	signed, err := IssueSessionToken("secret", "session-abc", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	if _, err := ValidateSessionToken("secret", signed); err == nil {
		t.Error("Expired token should not validate")
	}
}

func TestSessionTokenGarbage(t *testing.T) {
	if _, err := ValidateSessionToken("secret", "not.a.jwt"); err == nil {
		t.Error("Garbage token should not validate")
	}
}

func TestAdminKeyHashAndVerify(t *testing.T) {
	hashed, err := HashAdminKey("super-secret-key")
	if err != nil {
		t.Fatalf("HashAdminKey failed: %v", err)
	}

	if !VerifyAdminKey(hashed, "super-secret-key") {
		t.Error("Correct key should verify")
	}
	if VerifyAdminKey(hashed, "wrong-key") {
		t.Error("Wrong key should not verify")
	}
}
