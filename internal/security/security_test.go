package security

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, errNew := NewTokenIssuer("test-secret", time.Hour)
	if errNew != nil {
		t.Fatalf("new issuer: %v", errNew)
	}

	raw, errIssue := issuer.Issue(42, "empresa")
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	claims, errParse := issuer.Parse(raw)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.Role != "empresa" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret-a", time.Hour)
	other, _ := NewTokenIssuer("secret-b", time.Hour)

	raw, errIssue := issuer.Issue(1, "asesor")
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	if _, errParse := other.Parse(raw); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
	if _, errParse := issuer.Parse("not-a-token"); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", errParse)
	}
}

func TestNewTokenIssuerValidation(t *testing.T) {
	if _, errNew := NewTokenIssuer("", time.Hour); errNew == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, errNew := NewTokenIssuer("secret", 0); errNew == nil {
		t.Fatalf("expected error for zero expiry")
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, errHash := HashPassword("hunter2!")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if hashed == "hunter2!" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hashed, "hunter2!") {
		t.Fatalf("correct password must verify")
	}
	if CheckPassword(hashed, "wrong") {
		t.Fatalf("wrong password must not verify")
	}
	if _, errEmpty := HashPassword(""); errEmpty == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestTOTP(t *testing.T) {
	secret, url, errGenerate := GenerateTOTPSecret("admin@example.com")
	if errGenerate != nil {
		t.Fatalf("generate: %v", errGenerate)
	}
	if secret == "" || url == "" {
		t.Fatalf("expected secret and provisioning url")
	}
	if VerifyTOTP(secret, "000000") && VerifyTOTP(secret, "111111") {
		t.Fatalf("two fixed codes must not both verify")
	}
	if VerifyTOTP("", "123456") || VerifyTOTP(secret, "") {
		t.Fatalf("empty inputs must not verify")
	}
}
