package utils

import (
	"context"
	"testing"
	"time"
)

func TestGetUserIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDCtxKey, int64(42))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		t.Fatal("expected user id to be found")
	}
	if userID != 42 {
		t.Errorf("expected 42, got %d", userID)
	}

	if _, ok = GetUserIDFromContext(context.Background()); ok {
		t.Error("expected miss on empty context")
	}
}

func TestGenerateAndValidateJWTToken(t *testing.T) {
	token, err := GenerateJWTToken("study-sync", 7, time.Hour, "sign-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.SignedString == "" {
		t.Fatal("expected non-empty signed string")
	}

	parsed, err := ValidateAndParseJWTToken(token.SignedString, "sign-key", "study-sync")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.UserID != 7 {
		t.Errorf("expected user id 7, got %d", parsed.UserID)
	}
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	token, err := GenerateJWTToken("other-issuer", 7, time.Hour, "sign-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err = ValidateAndParseJWTToken(token.SignedString, "sign-key", "study-sync"); err == nil {
		t.Fatal("expected issuer validation to fail")
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err = CheckPassword(hash, "s3cret"); err != nil {
		t.Errorf("expected password to match: %v", err)
	}
	if err = CheckPassword(hash, "wrong"); err == nil {
		t.Error("expected mismatch error")
	}
}

func TestParseBearerToken(t *testing.T) {
	token, err := ParseBearerToken("Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Errorf("unexpected token %q", token)
	}

	if _, err = ParseBearerToken("Bearer"); err == nil {
		t.Error("expected error for missing token part")
	}
}
