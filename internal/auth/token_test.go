package auth

import (
	"testing"
	"time"

	"github.com/webatelier/platform/internal/errors"
)

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-secret"), "webatelier", time.Hour)

	token, err := issuer.Issue("u-1", "alice@example.fr", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Fatalf("unexpected user id %q", claims.UserID)
	}
	if claims.Role != "member" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-a"), "webatelier", time.Hour)
	other := NewTokenIssuer([]byte("secret-b"), "webatelier", time.Hour)

	token, err := issuer.Issue("u-1", "", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Validate(token); !errors.Is(err, errors.CodeInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := &TokenIssuer{secret: []byte("secret"), issuer: "webatelier", lifetime: -time.Minute}

	token, err := issuer.Issue("u-1", "", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Validate(token); !errors.Is(err, errors.CodeInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), "webatelier", time.Hour)
	if _, err := issuer.Validate("not-a-jwt"); !errors.Is(err, errors.CodeInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("expected mismatch to fail")
	}
}

func TestPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
