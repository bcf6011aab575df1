// Package users manages platform accounts: registration, login and admin
// role changes.
package users

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/mail"
	"strings"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/storage"
)

// Service manages account lifecycle and credentials.
type Service struct {
	store  storage.UserStore
	issuer *auth.TokenIssuer
	log    *logging.Logger
}

// New constructs a user service.
func New(store storage.UserStore, issuer *auth.TokenIssuer, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("users")
	}
	return &Service{store: store, issuer: issuer, log: log}
}

// Register creates a member account with a hashed password.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return user.User{}, errors.InvalidInput("a valid email is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return user.User{}, errors.InvalidInput(err.Error())
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, errors.Conflict("an account with this email already exists")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return user.User{}, errors.Internal("", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         user.RoleMember,
		Active:       true,
	})
	if err != nil {
		return user.User{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("user_id", created.ID).Info("account registered")
	return created, nil
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if stderrors.Is(err, sql.ErrNoRows) {
		return user.User{}, "", errors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return user.User{}, "", errors.Internal("", err)
	}
	if !u.Active {
		s.log.LogSecurityEvent(ctx, "login_disabled_account", map[string]interface{}{"user_id": u.ID})
		return user.User{}, "", errors.Unauthorized("account is disabled")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.log.LogSecurityEvent(ctx, "login_bad_password", map[string]interface{}{"user_id": u.ID})
		return user.User{}, "", errors.Unauthorized("invalid email or password")
	}

	token, err := s.issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return user.User{}, "", errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("user_id", u.ID).Info("login succeeded")
	return u, token, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return user.User{}, errors.NotFound("user")
	}
	if err != nil {
		return user.User{}, errors.Internal("", err)
	}
	return u, nil
}

// UpdateDisplayName changes the account's display name.
func (s *Service) UpdateDisplayName(ctx context.Context, id, displayName string) (user.User, error) {
	if strings.TrimSpace(displayName) == "" {
		return user.User{}, errors.InvalidInput("display name is required")
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.DisplayName = displayName

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, errors.Internal("", err)
	}
	return updated, nil
}

// List returns all accounts, for admin screens.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return users, nil
}

// SetRole changes an account's role. Admin only, enforced by the caller.
func (s *Service) SetRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	if !role.Valid() {
		return user.User{}, errors.InvalidInput("unknown role").WithDetails("role", string(role))
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.Role = role

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("user_id", id).
		WithField("role", string(role)).
		Info("role changed")
	return updated, nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.Active = active

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("user_id", id).
		WithField("active", active).
		Info("account state changed")
	return updated, nil
}
