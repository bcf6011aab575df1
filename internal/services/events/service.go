// Package events manages meetup events with a hard seat capacity. Overflow
// registrations join a FIFO waitlist and are promoted when seats free up.
package events

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/webatelier/platform/internal/cache"
	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	"github.com/webatelier/platform/internal/storage"
)

// Service manages events, registrations and the waitlist.
type Service struct {
	store storage.EventStore
	cache *cache.Cache
	log   *logging.Logger
}

// New constructs an event service. cache may be nil.
func New(store storage.EventStore, c *cache.Cache, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("events")
	}
	return &Service{store: store, cache: c, log: log}
}

// Create creates an unpublished event.
func (s *Service) Create(ctx context.Context, e event.Event) (event.Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return event.Event{}, errors.InvalidInput("title is required")
	}
	if e.Capacity <= 0 {
		return event.Event{}, errors.InvalidInput("capacity must be positive").WithDetails("capacity", e.Capacity)
	}
	if e.StartsAt.Before(time.Now()) {
		return event.Event{}, errors.InvalidInput("event must start in the future")
	}

	e.Published = false
	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return event.Event{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("event_id", created.ID).Info("event created")
	return created, nil
}

// Update edits an event. Capacity can grow but never shrink below the
// confirmed count.
func (s *Service) Update(ctx context.Context, e event.Event) (event.Event, error) {
	existing, err := s.Get(ctx, e.ID)
	if err != nil {
		return event.Event{}, err
	}

	if e.Capacity < existing.Capacity {
		confirmed, err := s.store.CountRegistrations(ctx, e.ID, event.StatusConfirmed)
		if err != nil {
			return event.Event{}, errors.Internal("", err)
		}
		if e.Capacity < confirmed {
			return event.Event{}, errors.Conflict("capacity cannot drop below confirmed registrations").
				WithDetails("confirmed", confirmed)
		}
	}

	updated, err := s.store.UpdateEvent(ctx, e)
	if err != nil {
		return event.Event{}, errors.Internal("", err)
	}

	// Growing capacity can free seats for the waitlist.
	if updated.Capacity > existing.Capacity {
		s.PromoteWaitlist(ctx, updated.ID)
	}
	s.cache.InvalidateAvailability(ctx, updated.ID)
	return updated, nil
}

// Publish makes an event visible to members.
func (s *Service) Publish(ctx context.Context, id string) (event.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return event.Event{}, err
	}
	e.Published = true

	updated, err := s.store.UpdateEvent(ctx, e)
	if err != nil {
		return event.Event{}, errors.Internal("", err)
	}
	s.log.WithContext(ctx).WithField("event_id", id).Info("event published")
	return updated, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (event.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return event.Event{}, errors.NotFound("event")
	}
	if err != nil {
		return event.Event{}, errors.Internal("", err)
	}
	return e, nil
}

// List returns events. Members see published events only.
func (s *Service) List(ctx context.Context, publishedOnly bool) ([]event.Event, error) {
	list, err := s.store.ListEvents(ctx, publishedOnly)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// Register signs a user up for a published event. When the event is full
// the registration is waitlisted instead of rejected.
func (s *Service) Register(ctx context.Context, eventID, userID string) (event.Registration, error) {
	e, err := s.Get(ctx, eventID)
	if err != nil {
		return event.Registration{}, err
	}
	if !e.Published {
		return event.Registration{}, errors.NotFound("event")
	}
	if e.StartsAt.Before(time.Now()) {
		return event.Registration{}, errors.Conflict("event has already started")
	}

	if _, err := s.store.GetRegistrationByEventUser(ctx, eventID, userID); err == nil {
		return event.Registration{}, errors.Conflict("already registered for this event")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return event.Registration{}, errors.Internal("", err)
	}

	confirmed, err := s.store.CountRegistrations(ctx, eventID, event.StatusConfirmed)
	if err != nil {
		return event.Registration{}, errors.Internal("", err)
	}

	status := event.StatusConfirmed
	if confirmed >= e.Capacity {
		status = event.StatusWaitlisted
	}

	reg, err := s.store.CreateRegistration(ctx, event.Registration{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
	})
	if err != nil {
		return event.Registration{}, errors.Internal("", err)
	}

	metrics.RecordRegistration(string(status))
	s.cache.InvalidateAvailability(ctx, eventID)
	s.log.WithContext(ctx).
		WithField("event_id", eventID).
		WithField("registration_id", reg.ID).
		WithField("status", string(status)).
		Info("registration created")
	return reg, nil
}

// Cancel cancels a user's registration. A freed confirmed seat promotes the
// oldest waitlisted registration.
func (s *Service) Cancel(ctx context.Context, eventID, userID string) error {
	reg, err := s.store.GetRegistrationByEventUser(ctx, eventID, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("registration")
	}
	if err != nil {
		return errors.Internal("", err)
	}

	wasConfirmed := reg.Status == event.StatusConfirmed
	reg.Status = event.StatusCancelled
	if _, err := s.store.UpdateRegistration(ctx, reg); err != nil {
		return errors.Internal("", err)
	}

	if wasConfirmed {
		s.PromoteWaitlist(ctx, eventID)
	}
	s.cache.InvalidateAvailability(ctx, eventID)
	s.log.WithContext(ctx).
		WithField("event_id", eventID).
		WithField("registration_id", reg.ID).
		Info("registration cancelled")
	return nil
}

// PromoteWaitlist promotes waitlisted registrations in FIFO order while
// seats remain. Also invoked by the periodic sweep.
func (s *Service) PromoteWaitlist(ctx context.Context, eventID string) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return
	}

	for {
		confirmed, err := s.store.CountRegistrations(ctx, eventID, event.StatusConfirmed)
		if err != nil || confirmed >= e.Capacity {
			return
		}

		next, err := s.store.OldestWaitlisted(ctx, eventID)
		if stderrors.Is(err, sql.ErrNoRows) {
			return
		}
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Error("waitlist lookup failed")
			return
		}

		next.Status = event.StatusConfirmed
		if _, err := s.store.UpdateRegistration(ctx, next); err != nil {
			s.log.WithContext(ctx).WithError(err).Error("waitlist promotion failed")
			return
		}

		metrics.RecordWaitlistPromotion()
		s.cache.InvalidateAvailability(ctx, eventID)
		s.log.WithContext(ctx).
			WithField("event_id", eventID).
			WithField("registration_id", next.ID).
			Info("waitlisted registration promoted")
	}
}

// SweepWaitlists promotes waitlisted registrations across all upcoming
// events. Covers seats freed by paths that bypass Cancel.
func (s *Service) SweepWaitlists(ctx context.Context) error {
	list, err := s.store.ListEvents(ctx, true)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, e := range list {
		if e.StartsAt.Before(now) {
			continue
		}
		s.PromoteWaitlist(ctx, e.ID)
	}
	return nil
}

// Availability returns the derived seat state of an event, served from
// cache when fresh.
func (s *Service) Availability(ctx context.Context, eventID string) (event.Availability, error) {
	if a, err := s.cache.GetAvailability(ctx, eventID); err == nil {
		return a, nil
	}

	e, err := s.Get(ctx, eventID)
	if err != nil {
		return event.Availability{}, err
	}

	confirmed, err := s.store.CountRegistrations(ctx, eventID, event.StatusConfirmed)
	if err != nil {
		return event.Availability{}, errors.Internal("", err)
	}
	waitlisted, err := s.store.CountRegistrations(ctx, eventID, event.StatusWaitlisted)
	if err != nil {
		return event.Availability{}, errors.Internal("", err)
	}

	a := event.Availability{
		EventID:    eventID,
		Capacity:   e.Capacity,
		Confirmed:  confirmed,
		Waitlisted: waitlisted,
	}
	s.cache.SetAvailability(ctx, a)
	return a, nil
}

// Registrations lists an event's registrations for organizers.
func (s *Service) Registrations(ctx context.Context, eventID string) ([]event.Registration, error) {
	list, err := s.store.ListRegistrations(ctx, eventID)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}
