// Package storage defines the persistence interfaces used by the service
// layer, plus an in-memory implementation for tests and local runs.
package storage

import (
	"context"
	"time"

	"github.com/webatelier/platform/internal/domain/catalog"
	"github.com/webatelier/platform/internal/domain/costs"
	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/domain/journey"
	"github.com/webatelier/platform/internal/domain/profile"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/domain/venture"
)

// UserStore persists platform accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// ProfileStore persists dating profiles and coach records.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	GetProfileByUser(ctx context.Context, userID string) (profile.Profile, error)
	ListProfiles(ctx context.Context, state profile.ApprovalState) ([]profile.Profile, error)

	CreateCoach(ctx context.Context, c profile.Coach) (profile.Coach, error)
	UpdateCoach(ctx context.Context, c profile.Coach) (profile.Coach, error)
	GetCoach(ctx context.Context, id string) (profile.Coach, error)
	GetCoachByUser(ctx context.Context, userID string) (profile.Coach, error)
	ListCoaches(ctx context.Context, state profile.ApprovalState) ([]profile.Coach, error)
}

// EventStore persists events and registrations.
type EventStore interface {
	CreateEvent(ctx context.Context, e event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, e event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	ListEvents(ctx context.Context, publishedOnly bool) ([]event.Event, error)

	CreateRegistration(ctx context.Context, reg event.Registration) (event.Registration, error)
	UpdateRegistration(ctx context.Context, reg event.Registration) (event.Registration, error)
	GetRegistration(ctx context.Context, id string) (event.Registration, error)
	GetRegistrationByEventUser(ctx context.Context, eventID, userID string) (event.Registration, error)
	ListRegistrations(ctx context.Context, eventID string) ([]event.Registration, error)
	CountRegistrations(ctx context.Context, eventID string, status event.RegistrationStatus) (int, error)
	// OldestWaitlisted returns the earliest waitlisted registration for the
	// event, or sql.ErrNoRows when the waitlist is empty.
	OldestWaitlisted(ctx context.Context, eventID string) (event.Registration, error)
}

// JourneyStore persists journey configuration and per-user progress.
type JourneyStore interface {
	CreateJourney(ctx context.Context, j journey.Journey) (journey.Journey, error)
	UpdateJourney(ctx context.Context, j journey.Journey) (journey.Journey, error)
	GetJourney(ctx context.Context, id string) (journey.Journey, error)
	ListJourneys(ctx context.Context, activeOnly bool) ([]journey.Journey, error)

	CreateChapter(ctx context.Context, c journey.Chapter) (journey.Chapter, error)
	GetChapter(ctx context.Context, id string) (journey.Chapter, error)
	// ListChapters returns chapters of a journey ordered by position.
	ListChapters(ctx context.Context, journeyID string) ([]journey.Chapter, error)

	CreateChallenge(ctx context.Context, c journey.Challenge) (journey.Challenge, error)
	GetChallenge(ctx context.Context, id string) (journey.Challenge, error)
	ListChallenges(ctx context.Context, chapterID string) ([]journey.Challenge, error)

	CreateReward(ctx context.Context, rw journey.Reward) (journey.Reward, error)
	ListRewards(ctx context.Context, chapterID string) ([]journey.Reward, error)

	CreateEnrollment(ctx context.Context, e journey.Enrollment) (journey.Enrollment, error)
	GetEnrollment(ctx context.Context, journeyID, userID string) (journey.Enrollment, error)
	ListEnrollments(ctx context.Context, journeyID string) ([]journey.Enrollment, error)
	ExpireEnrollment(ctx context.Context, id string, at time.Time) error

	CreateCompletion(ctx context.Context, c journey.Completion) (journey.Completion, error)
	HasCompletion(ctx context.Context, userID, challengeID string) (bool, error)
	ListCompletions(ctx context.Context, userID string) ([]journey.Completion, error)

	CreateGrantedReward(ctx context.Context, g journey.GrantedReward) (journey.GrantedReward, error)
	HasGrantedReward(ctx context.Context, userID, rewardID string) (bool, error)
	ListGrantedRewards(ctx context.Context, userID string) ([]journey.GrantedReward, error)
}

// CatalogStore persists producers, coffrets and adoption plans.
type CatalogStore interface {
	CreateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error)
	UpdateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error)
	GetProducer(ctx context.Context, id string) (catalog.Producer, error)
	ListProducers(ctx context.Context) ([]catalog.Producer, error)

	CreateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error)
	UpdateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error)
	GetCoffret(ctx context.Context, id string) (catalog.Coffret, error)
	ListCoffrets(ctx context.Context, inStockOnly bool) ([]catalog.Coffret, error)

	CreatePlan(ctx context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error)
	UpdatePlan(ctx context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error)
	GetPlan(ctx context.Context, id string) (catalog.AdoptionPlan, error)
	ListPlansByUser(ctx context.Context, userID string) ([]catalog.AdoptionPlan, error)
	// GetActivePlan returns the active plan for (user, producer, plot), or
	// sql.ErrNoRows.
	GetActivePlan(ctx context.Context, userID, producerID, plotName string) (catalog.AdoptionPlan, error)
	ListPlansExpiringBefore(ctx context.Context, t time.Time) ([]catalog.AdoptionPlan, error)
}

// VentureStore persists founder profiles and match requests.
type VentureStore interface {
	CreateFounder(ctx context.Context, f venture.Founder) (venture.Founder, error)
	UpdateFounder(ctx context.Context, f venture.Founder) (venture.Founder, error)
	GetFounder(ctx context.Context, id string) (venture.Founder, error)
	GetFounderByUser(ctx context.Context, userID string) (venture.Founder, error)
	ListFounders(ctx context.Context) ([]venture.Founder, error)

	CreateMatchRequest(ctx context.Context, m venture.MatchRequest) (venture.MatchRequest, error)
	UpdateMatchRequest(ctx context.Context, m venture.MatchRequest) (venture.MatchRequest, error)
	GetMatchRequest(ctx context.Context, id string) (venture.MatchRequest, error)
	// GetPendingRequest returns the pending request from one founder to
	// another, or sql.ErrNoRows.
	GetPendingRequest(ctx context.Context, fromFounder, toFounder string) (venture.MatchRequest, error)
	ListMatchesForFounder(ctx context.Context, founderID string) ([]venture.MatchRequest, error)
}

// CostsStore persists cost entries and monthly rollups.
type CostsStore interface {
	InsertEntries(ctx context.Context, entries []costs.Entry) (int, error)
	ListEntries(ctx context.Context, project, month string) ([]costs.Entry, error)
	// ComputeRollups aggregates entries for the given month (YYYY-MM). An
	// empty month aggregates everything.
	ComputeRollups(ctx context.Context, month string) ([]costs.Rollup, error)
	SaveRollups(ctx context.Context, rollups []costs.Rollup) error
	ListRollups(ctx context.Context, project string) ([]costs.Rollup, error)
}
