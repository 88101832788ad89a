package services

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService(nil, "test-secret", time.Hour)

	token, err := auth.TokenFor(42)
	if err != nil {
		t.Fatalf("TokenFor failed: %v", err)
	}

	userID, err := auth.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected userID 42, got %d", userID)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, "secret-a", time.Hour)
	verifier := NewAuthService(nil, "secret-b", time.Hour)

	token, err := issuer.TokenFor(42)
	if err != nil {
		t.Fatalf("TokenFor failed: %v", err)
	}

	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	auth := NewAuthService(nil, "test-secret", -time.Hour)

	token, err := auth.TokenFor(42)
	if err != nil {
		t.Fatalf("TokenFor failed: %v", err)
	}

	if _, err := auth.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthService(nil, "test-secret", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := auth.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}
