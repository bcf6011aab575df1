// Package catalog manages the cellar site's wine catalog: producers,
// coffrets and vineyard plot adoption plans.
package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/webatelier/platform/internal/domain/catalog"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	"github.com/webatelier/platform/internal/storage"
)

const (
	minTermYears = 1
	maxTermYears = 10
)

// Service manages the catalog and adoption plans.
type Service struct {
	store storage.CatalogStore
	log   *logging.Logger
}

// New constructs a catalog service.
func New(store storage.CatalogStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("catalog")
	}
	return &Service{store: store, log: log}
}

// CreateProducer adds a winemaker to the catalog.
func (s *Service) CreateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error) {
	if strings.TrimSpace(p.Name) == "" {
		return catalog.Producer{}, errors.InvalidInput("name is required")
	}
	created, err := s.store.CreateProducer(ctx, p)
	if err != nil {
		return catalog.Producer{}, errors.Internal("", err)
	}
	s.log.WithContext(ctx).WithField("producer_id", created.ID).Info("producer created")
	return created, nil
}

// UpdateProducer edits a producer.
func (s *Service) UpdateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error) {
	if strings.TrimSpace(p.Name) == "" {
		return catalog.Producer{}, errors.InvalidInput("name is required")
	}
	updated, err := s.store.UpdateProducer(ctx, p)
	if stderrors.Is(err, sql.ErrNoRows) {
		return catalog.Producer{}, errors.NotFound("producer")
	}
	if err != nil {
		return catalog.Producer{}, errors.Internal("", err)
	}
	return updated, nil
}

// GetProducer returns one producer.
func (s *Service) GetProducer(ctx context.Context, id string) (catalog.Producer, error) {
	p, err := s.store.GetProducer(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return catalog.Producer{}, errors.NotFound("producer")
	}
	if err != nil {
		return catalog.Producer{}, errors.Internal("", err)
	}
	return p, nil
}

// ListProducers lists the catalog's producers.
func (s *Service) ListProducers(ctx context.Context) ([]catalog.Producer, error) {
	list, err := s.store.ListProducers(ctx)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// CreateCoffret adds a coffret under a producer.
func (s *Service) CreateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	if strings.TrimSpace(c.Name) == "" {
		return catalog.Coffret{}, errors.InvalidInput("name is required")
	}
	if c.PriceCents <= 0 {
		return catalog.Coffret{}, errors.InvalidInput("price must be positive")
	}
	if c.Stock < 0 {
		return catalog.Coffret{}, errors.InvalidInput("stock cannot be negative")
	}
	if _, err := s.GetProducer(ctx, c.ProducerID); err != nil {
		return catalog.Coffret{}, err
	}

	created, err := s.store.CreateCoffret(ctx, c)
	if err != nil {
		return catalog.Coffret{}, errors.Internal("", err)
	}
	return created, nil
}

// UpdateCoffret edits a coffret.
func (s *Service) UpdateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	if c.PriceCents <= 0 {
		return catalog.Coffret{}, errors.InvalidInput("price must be positive")
	}
	if c.Stock < 0 {
		return catalog.Coffret{}, errors.InvalidInput("stock cannot be negative")
	}
	updated, err := s.store.UpdateCoffret(ctx, c)
	if stderrors.Is(err, sql.ErrNoRows) {
		return catalog.Coffret{}, errors.NotFound("coffret")
	}
	if err != nil {
		return catalog.Coffret{}, errors.Internal("", err)
	}
	return updated, nil
}

// GetCoffret returns one coffret.
func (s *Service) GetCoffret(ctx context.Context, id string) (catalog.Coffret, error) {
	c, err := s.store.GetCoffret(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return catalog.Coffret{}, errors.NotFound("coffret")
	}
	if err != nil {
		return catalog.Coffret{}, errors.Internal("", err)
	}
	return c, nil
}

// ListCoffrets lists coffrets. Shoppers see in-stock coffrets only.
func (s *Service) ListCoffrets(ctx context.Context, inStockOnly bool) ([]catalog.Coffret, error) {
	list, err := s.store.ListCoffrets(ctx, inStockOnly)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// AdoptPlot starts an adoption plan for a named plot. A member holds at
// most one active plan per plot.
func (s *Service) AdoptPlot(ctx context.Context, userID, producerID, plotName string, termYears int) (catalog.AdoptionPlan, error) {
	plotName = strings.TrimSpace(plotName)
	if plotName == "" {
		return catalog.AdoptionPlan{}, errors.InvalidInput("plot name is required")
	}
	if termYears < minTermYears || termYears > maxTermYears {
		return catalog.AdoptionPlan{}, errors.InvalidInput("term must be between 1 and 10 years").
			WithDetails("term_years", termYears)
	}
	if _, err := s.GetProducer(ctx, producerID); err != nil {
		return catalog.AdoptionPlan{}, err
	}

	if _, err := s.store.GetActivePlan(ctx, userID, producerID, plotName); err == nil {
		return catalog.AdoptionPlan{}, errors.Conflict("plot already adopted")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return catalog.AdoptionPlan{}, errors.Internal("", err)
	}

	now := time.Now().UTC()
	created, err := s.store.CreatePlan(ctx, catalog.AdoptionPlan{
		ProducerID: producerID,
		UserID:     userID,
		PlotName:   plotName,
		TermYears:  termYears,
		State:      catalog.PlanActive,
		StartedAt:  now,
		ExpiresAt:  now.AddDate(termYears, 0, 0),
	})
	if err != nil {
		return catalog.AdoptionPlan{}, errors.Internal("", err)
	}

	metrics.RecordPlanAdopted()
	s.log.WithContext(ctx).
		WithField("plan_id", created.ID).
		WithField("producer_id", producerID).
		WithField("plot", plotName).
		Info("plot adopted")
	return created, nil
}

// RenewPlan extends an active plan by its original term.
func (s *Service) RenewPlan(ctx context.Context, userID, planID string) (catalog.AdoptionPlan, error) {
	p, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return catalog.AdoptionPlan{}, err
	}
	if p.State != catalog.PlanActive {
		return catalog.AdoptionPlan{}, errors.Conflict("only active plans can be renewed")
	}

	p.ExpiresAt = p.ExpiresAt.AddDate(p.TermYears, 0, 0)
	updated, err := s.store.UpdatePlan(ctx, p)
	if err != nil {
		return catalog.AdoptionPlan{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("plan_id", planID).
		WithField("expires_at", updated.ExpiresAt).
		Info("plan renewed")
	return updated, nil
}

// CancelPlan cancels an active plan.
func (s *Service) CancelPlan(ctx context.Context, userID, planID string) (catalog.AdoptionPlan, error) {
	p, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return catalog.AdoptionPlan{}, err
	}
	if p.State != catalog.PlanActive {
		return catalog.AdoptionPlan{}, errors.Conflict("plan is not active")
	}

	p.State = catalog.PlanCancelled
	updated, err := s.store.UpdatePlan(ctx, p)
	if err != nil {
		return catalog.AdoptionPlan{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).WithField("plan_id", planID).Info("plan cancelled")
	return updated, nil
}

// ListPlans lists a member's adoption plans.
func (s *Service) ListPlans(ctx context.Context, userID string) ([]catalog.AdoptionPlan, error) {
	list, err := s.store.ListPlansByUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// ExpireLapsedPlans marks active plans past their expiry as expired.
// Invoked by the scheduler.
func (s *Service) ExpireLapsedPlans(ctx context.Context, now time.Time) (int, error) {
	lapsed, err := s.store.ListPlansExpiringBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range lapsed {
		p.State = catalog.PlanExpired
		if _, err := s.store.UpdatePlan(ctx, p); err != nil {
			s.log.WithContext(ctx).WithError(err).Error("plan expiry failed")
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *Service) getOwnedPlan(ctx context.Context, userID, planID string) (catalog.AdoptionPlan, error) {
	p, err := s.store.GetPlan(ctx, planID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return catalog.AdoptionPlan{}, errors.NotFound("plan")
	}
	if err != nil {
		return catalog.AdoptionPlan{}, errors.Internal("", err)
	}
	if p.UserID != userID {
		return catalog.AdoptionPlan{}, errors.Forbidden("plan belongs to another member")
	}
	return p, nil
}
