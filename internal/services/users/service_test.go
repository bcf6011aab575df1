package users

import (
	"context"
	"testing"
	"time"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/storage"
)

func newService() *Service {
	issuer := auth.NewTokenIssuer([]byte("test-secret"), "platform-test", time.Hour)
	return New(storage.NewMemory(), issuer, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice@Example.com", "correct-horse", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("expected lowered email, got %q", u.Email)
	}
	if u.Role != user.RoleMember {
		t.Fatalf("expected member role, got %q", u.Role)
	}

	logged, token, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if logged.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, logged.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password1", "A"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "a@example.com", "password2", "B")
	if !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "password1", "A"); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for bad email, got %v", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "short", "A"); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for short password, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "password1", "A"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(ctx, "a@example.com", "password2")
	if !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@example.com", "password1", "A")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.SetActive(ctx, u.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}

	_, _, err = svc.Login(ctx, "a@example.com", "password1")
	if !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSetRole(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@example.com", "password1", "A")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.SetRole(ctx, u.ID, user.RoleAdmin)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if updated.Role != user.RoleAdmin {
		t.Fatalf("expected admin, got %q", updated.Role)
	}

	if _, err := svc.SetRole(ctx, u.ID, user.Role("owner")); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for unknown role, got %v", err)
	}
}
