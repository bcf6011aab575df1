// Package profiles manages dating profiles and coach records on the crush
// site, including the moderation workflow.
package profiles

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/webatelier/platform/internal/domain/profile"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/storage"
)

const (
	minAge = 18
	maxAge = 120
)

// Service manages profiles and coaches.
type Service struct {
	store storage.ProfileStore
	users storage.UserStore
	log   *logging.Logger
}

// New constructs a profile service.
func New(store storage.ProfileStore, users storage.UserStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("profiles")
	}
	return &Service{store: store, users: users, log: log}
}

// CreateProfile creates a pending dating profile for a user. Coaches cannot
// hold dating profiles, and a user can hold at most one.
func (s *Service) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if err := validateProfile(p); err != nil {
		return profile.Profile{}, err
	}

	u, err := s.users.GetUser(ctx, p.UserID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, errors.NotFound("user")
	}
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}
	if u.Role == user.RoleCoach {
		return profile.Profile{}, errors.Forbidden("coaches cannot create dating profiles")
	}

	if _, err := s.store.GetProfileByUser(ctx, p.UserID); err == nil {
		return profile.Profile{}, errors.Conflict("user already has a profile")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, errors.Internal("", err)
	}

	p.State = profile.StatePending
	created, err := s.store.CreateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("profile_id", created.ID).Info("profile submitted")
	return created, nil
}

// UpdateProfile edits a profile's content. Edits put an approved profile
// back into the moderation queue.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p profile.Profile) (profile.Profile, error) {
	existing, err := s.GetProfileByUser(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := validateProfile(p); err != nil {
		return profile.Profile{}, err
	}

	existing.Headline = p.Headline
	existing.Bio = p.Bio
	existing.Age = p.Age
	existing.City = p.City
	existing.Interests = p.Interests
	if p.PhotoKey != "" {
		existing.PhotoKey = p.PhotoKey
	}
	existing.State = profile.StatePending

	updated, err := s.store.UpdateProfile(ctx, existing)
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}
	return updated, nil
}

// GetProfileByUser returns the profile owned by a user.
func (s *Service) GetProfileByUser(ctx context.Context, userID string) (profile.Profile, error) {
	p, err := s.store.GetProfileByUser(ctx, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, errors.NotFound("profile")
	}
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}
	return p, nil
}

// Browse lists approved profiles for members to browse.
func (s *Service) Browse(ctx context.Context) ([]profile.Profile, error) {
	list, err := s.store.ListProfiles(ctx, profile.StateApproved)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// PendingProfiles lists profiles awaiting moderation.
func (s *Service) PendingProfiles(ctx context.Context) ([]profile.Profile, error) {
	list, err := s.store.ListProfiles(ctx, profile.StatePending)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// ModerateProfile approves or rejects a pending profile.
func (s *Service) ModerateProfile(ctx context.Context, id string, approve bool) (profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, errors.NotFound("profile")
	}
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}

	if approve {
		p.State = profile.StateApproved
	} else {
		p.State = profile.StateRejected
	}

	updated, err := s.store.UpdateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("profile_id", id).
		WithField("state", string(updated.State)).
		Info("profile moderated")
	return updated, nil
}

// ApplyAsCoach submits a coach application for a user.
func (s *Service) ApplyAsCoach(ctx context.Context, c profile.Coach) (profile.Coach, error) {
	if strings.TrimSpace(c.Bio) == "" {
		return profile.Coach{}, errors.InvalidInput("bio is required")
	}
	if c.HourlyRateCents < 0 {
		return profile.Coach{}, errors.InvalidInput("hourly rate cannot be negative")
	}

	if _, err := s.users.GetUser(ctx, c.UserID); stderrors.Is(err, sql.ErrNoRows) {
		return profile.Coach{}, errors.NotFound("user")
	} else if err != nil {
		return profile.Coach{}, errors.Internal("", err)
	}

	if _, err := s.store.GetCoachByUser(ctx, c.UserID); err == nil {
		return profile.Coach{}, errors.Conflict("user already has a coach application")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return profile.Coach{}, errors.Internal("", err)
	}

	c.State = profile.StatePending
	created, err := s.store.CreateCoach(ctx, c)
	if err != nil {
		return profile.Coach{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("coach_id", created.ID).Info("coach application submitted")
	return created, nil
}

// ListCoaches lists approved coaches.
func (s *Service) ListCoaches(ctx context.Context) ([]profile.Coach, error) {
	list, err := s.store.ListCoaches(ctx, profile.StateApproved)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// PendingCoaches lists coach applications awaiting moderation.
func (s *Service) PendingCoaches(ctx context.Context) ([]profile.Coach, error) {
	list, err := s.store.ListCoaches(ctx, profile.StatePending)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// ModerateCoach approves or rejects a coach application. Approval promotes
// the account to the coach role.
func (s *Service) ModerateCoach(ctx context.Context, id string, approve bool) (profile.Coach, error) {
	c, err := s.store.GetCoach(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return profile.Coach{}, errors.NotFound("coach")
	}
	if err != nil {
		return profile.Coach{}, errors.Internal("", err)
	}

	if approve {
		c.State = profile.StateApproved
	} else {
		c.State = profile.StateRejected
	}

	updated, err := s.store.UpdateCoach(ctx, c)
	if err != nil {
		return profile.Coach{}, errors.Internal("", err)
	}

	if approve {
		u, err := s.users.GetUser(ctx, c.UserID)
		if err == nil && u.Role == user.RoleMember {
			u.Role = user.RoleCoach
			if _, err := s.users.UpdateUser(ctx, u); err != nil {
				s.log.WithContext(ctx).WithError(err).Error("coach role promotion failed")
			}
		}
	}

	s.log.WithContext(ctx).
		WithField("coach_id", id).
		WithField("state", string(updated.State)).
		Info("coach application moderated")
	return updated, nil
}

func validateProfile(p profile.Profile) error {
	if strings.TrimSpace(p.Headline) == "" {
		return errors.InvalidInput("headline is required")
	}
	if p.Age < minAge || p.Age > maxAge {
		return errors.InvalidInput("age must be between 18 and 120").WithDetails("age", p.Age)
	}
	return nil
}
