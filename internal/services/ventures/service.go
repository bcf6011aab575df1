// Package ventures manages founder profiles and match requests on the
// entrepreneur-matching site.
package ventures

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/webatelier/platform/internal/domain/venture"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/storage"
)

// Service manages founders and match requests.
type Service struct {
	store storage.VentureStore
	log   *logging.Logger
}

// New constructs a venture service.
func New(store storage.VentureStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("ventures")
	}
	return &Service{store: store, log: log}
}

// CreateFounder creates a founder profile for a user.
func (s *Service) CreateFounder(ctx context.Context, f venture.Founder) (venture.Founder, error) {
	if strings.TrimSpace(f.Company) == "" {
		return venture.Founder{}, errors.InvalidInput("company is required")
	}

	if _, err := s.store.GetFounderByUser(ctx, f.UserID); err == nil {
		return venture.Founder{}, errors.Conflict("user already has a founder profile")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return venture.Founder{}, errors.Internal("", err)
	}

	created, err := s.store.CreateFounder(ctx, f)
	if err != nil {
		return venture.Founder{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("founder_id", created.ID).Info("founder profile created")
	return created, nil
}

// UpdateFounder edits a founder profile.
func (s *Service) UpdateFounder(ctx context.Context, userID string, f venture.Founder) (venture.Founder, error) {
	existing, err := s.GetFounderByUser(ctx, userID)
	if err != nil {
		return venture.Founder{}, err
	}
	if strings.TrimSpace(f.Company) == "" {
		return venture.Founder{}, errors.InvalidInput("company is required")
	}

	existing.Company = f.Company
	existing.Pitch = f.Pitch
	existing.SkillsHave = f.SkillsHave
	existing.SkillsWanted = f.SkillsWanted

	updated, err := s.store.UpdateFounder(ctx, existing)
	if err != nil {
		return venture.Founder{}, errors.Internal("", err)
	}
	return updated, nil
}

// GetFounderByUser returns the founder profile owned by a user.
func (s *Service) GetFounderByUser(ctx context.Context, userID string) (venture.Founder, error) {
	f, err := s.store.GetFounderByUser(ctx, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return venture.Founder{}, errors.NotFound("founder profile")
	}
	if err != nil {
		return venture.Founder{}, errors.Internal("", err)
	}
	return f, nil
}

// ListFounders lists founder profiles for browsing.
func (s *Service) ListFounders(ctx context.Context) ([]venture.Founder, error) {
	list, err := s.store.ListFounders(ctx)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// RequestMatch sends a match request from the caller's founder profile to
// another founder. At most one pending request per direction per pair.
func (s *Service) RequestMatch(ctx context.Context, userID, toFounderID, message string) (venture.MatchRequest, error) {
	from, err := s.GetFounderByUser(ctx, userID)
	if err != nil {
		return venture.MatchRequest{}, err
	}
	if from.ID == toFounderID {
		return venture.MatchRequest{}, errors.InvalidInput("cannot request a match with yourself")
	}

	if _, err := s.store.GetFounder(ctx, toFounderID); stderrors.Is(err, sql.ErrNoRows) {
		return venture.MatchRequest{}, errors.NotFound("founder")
	} else if err != nil {
		return venture.MatchRequest{}, errors.Internal("", err)
	}

	if _, err := s.store.GetPendingRequest(ctx, from.ID, toFounderID); err == nil {
		return venture.MatchRequest{}, errors.Conflict("a pending request to this founder already exists")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return venture.MatchRequest{}, errors.Internal("", err)
	}

	created, err := s.store.CreateMatchRequest(ctx, venture.MatchRequest{
		FromFounder: from.ID,
		ToFounder:   toFounderID,
		Message:     strings.TrimSpace(message),
		Status:      venture.MatchPending,
	})
	if err != nil {
		return venture.MatchRequest{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("request_id", created.ID).
		WithField("to_founder", toFounderID).
		Info("match requested")
	return created, nil
}

// RespondToMatch accepts or declines a pending request addressed to the
// caller's founder profile.
func (s *Service) RespondToMatch(ctx context.Context, userID, requestID string, accept bool) (venture.MatchRequest, error) {
	me, err := s.GetFounderByUser(ctx, userID)
	if err != nil {
		return venture.MatchRequest{}, err
	}

	req, err := s.store.GetMatchRequest(ctx, requestID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return venture.MatchRequest{}, errors.NotFound("match request")
	}
	if err != nil {
		return venture.MatchRequest{}, errors.Internal("", err)
	}
	if req.ToFounder != me.ID {
		return venture.MatchRequest{}, errors.Forbidden("request is addressed to another founder")
	}
	if req.Status != venture.MatchPending {
		return venture.MatchRequest{}, errors.Conflict("request has already been answered")
	}

	if accept {
		req.Status = venture.MatchAccepted
	} else {
		req.Status = venture.MatchDeclined
	}

	updated, err := s.store.UpdateMatchRequest(ctx, req)
	if err != nil {
		return venture.MatchRequest{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("request_id", requestID).
		WithField("status", string(updated.Status)).
		Info("match request answered")
	return updated, nil
}

// Matches lists all requests involving the caller's founder profile.
func (s *Service) Matches(ctx context.Context, userID string) ([]venture.MatchRequest, error) {
	me, err := s.GetFounderByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListMatchesForFounder(ctx, me.ID)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}
