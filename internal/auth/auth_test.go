package auth

import (
	"errors"
	"testing"
	"time"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

const secret = "test-secret"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("longenough123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "longenough123" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "longenough123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("wrong password accepted")
	}
}

func TestWeakPasswordRejected(t *testing.T) {
	_, err := HashPassword("short")
	if !errors.Is(err, apperr.ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleProfessional, secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	id, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("uid: got %s", id.UserID)
	}
	if id.Role != model.RoleProfessional {
		t.Errorf("role: got %s", id.Role)
	}
}

func TestExpiredToken(t *testing.T) {
	tok, err := MakeToken("user-1", model.RolePatient, secret, -time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	_, err = ParseToken(tok, secret)
	if !errors.Is(err, apperr.ErrExpiredToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestInvalidToken(t *testing.T) {
	tok, _ := MakeToken("user-1", model.RolePatient, secret, time.Minute)

	tests := []struct {
		name string
		raw  string
	}{
		{"wrong secret parsed elsewhere", tok},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.raw, "other-secret")
			if !errors.Is(err, apperr.ErrInvalidToken) {
				t.Fatalf("expected invalid token error, got %v", err)
			}
		})
	}
}

func TestTokenWithBogusRole(t *testing.T) {
	tok, err := MakeToken("user-1", model.Role("superuser"), secret, time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if _, err := ParseToken(tok, secret); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
