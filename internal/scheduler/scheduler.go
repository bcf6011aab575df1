// Package scheduler runs the platform's periodic jobs: waitlist sweeps,
// journey deadline expiry, adoption plan expiry and cost rollups.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	catalogsvc "github.com/webatelier/platform/internal/services/catalog"
	costssvc "github.com/webatelier/platform/internal/services/costs"
	eventssvc "github.com/webatelier/platform/internal/services/events"
	journeyssvc "github.com/webatelier/platform/internal/services/journeys"
)

const (
	waitlistSchedule = "*/5 * * * *"
	expirySchedule   = "30 2 * * *"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger

	events    *eventssvc.Service
	journeys  *journeyssvc.Service
	catalog   *catalogsvc.Service
	costs     *costssvc.Service
	rollupSch string
}

// New constructs the scheduler. rollupSchedule is a cron expression for the
// monthly cost rollup.
func New(events *eventssvc.Service, journeys *journeyssvc.Service, catalog *catalogsvc.Service, costs *costssvc.Service, rollupSchedule string, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewDefault("scheduler")
	}
	return &Scheduler{
		cron:      cron.New(),
		log:       log,
		events:    events,
		journeys:  journeys,
		catalog:   catalog,
		costs:     costs,
		rollupSch: rollupSchedule,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(waitlistSchedule, s.runWaitlistSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(expirySchedule, s.runJourneyExpiry); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(expirySchedule, s.runPlanExpiry); err != nil {
		return err
	}
	if s.rollupSch != "" && s.costs != nil {
		if _, err := s.cron.AddFunc(s.rollupSch, s.runCostRollup); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started")
	return nil
}

// Stop stops the runner and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// previousMonth formats the month before now as YYYY-MM. Anchoring on the
// first of the current month avoids AddDate day normalization (Mar 31 minus
// one month would otherwise land in March again).
func previousMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format("2006-01")
}

func (s *Scheduler) runWaitlistSweep() {
	ctx, cancel := s.jobContext()
	defer cancel()

	err := s.events.SweepWaitlists(ctx)
	metrics.RecordSchedulerRun("waitlist_sweep", err == nil)
	if err != nil {
		s.log.WithError(err).Error("waitlist sweep failed")
	}
}

func (s *Scheduler) runJourneyExpiry() {
	ctx, cancel := s.jobContext()
	defer cancel()

	expired, err := s.journeys.ExpireOverdueEnrollments(ctx, time.Now().UTC())
	metrics.RecordSchedulerRun("journey_expiry", err == nil)
	if err != nil {
		s.log.WithError(err).Error("journey expiry failed")
		return
	}
	if expired > 0 {
		s.log.WithField("expired", expired).Info("overdue enrollments expired")
	}
}

func (s *Scheduler) runPlanExpiry() {
	ctx, cancel := s.jobContext()
	defer cancel()

	expired, err := s.catalog.ExpireLapsedPlans(ctx, time.Now().UTC())
	metrics.RecordSchedulerRun("plan_expiry", err == nil)
	if err != nil {
		s.log.WithError(err).Error("plan expiry failed")
		return
	}
	if expired > 0 {
		s.log.WithField("expired", expired).Info("lapsed plans expired")
	}
}

func (s *Scheduler) runCostRollup() {
	ctx, cancel := s.jobContext()
	defer cancel()

	_, err := s.costs.Rollup(ctx, previousMonth(time.Now().UTC()))
	metrics.RecordSchedulerRun("cost_rollup", err == nil)
	if err != nil {
		s.log.WithError(err).Error("cost rollup failed")
	}
}
