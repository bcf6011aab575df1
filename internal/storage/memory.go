package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/domain/catalog"
	"github.com/webatelier/platform/internal/domain/costs"
	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/domain/journey"
	"github.com/webatelier/platform/internal/domain/profile"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/domain/venture"
)

// Memory is a thread-safe in-memory persistence layer implementing every
// store interface in this package. It is intended for tests and local runs
// and deliberately keeps the implementation simple. Missing rows are
// reported as sql.ErrNoRows to match the postgres store.
type Memory struct {
	mu sync.RWMutex

	users          map[string]user.User
	profiles       map[string]profile.Profile
	coaches        map[string]profile.Coach
	events         map[string]event.Event
	registrations  map[string]event.Registration
	journeys       map[string]journey.Journey
	chapters       map[string]journey.Chapter
	challenges     map[string]journey.Challenge
	rewards        map[string]journey.Reward
	enrollments    map[string]journey.Enrollment
	completions    map[string]journey.Completion
	grantedRewards map[string]journey.GrantedReward
	producers      map[string]catalog.Producer
	coffrets       map[string]catalog.Coffret
	plans          map[string]catalog.AdoptionPlan
	founders       map[string]venture.Founder
	matches        map[string]venture.MatchRequest
	costEntries    map[string]costs.Entry
	rollups        map[string]costs.Rollup
}

var (
	_ UserStore    = (*Memory)(nil)
	_ ProfileStore = (*Memory)(nil)
	_ EventStore   = (*Memory)(nil)
	_ JourneyStore = (*Memory)(nil)
	_ CatalogStore = (*Memory)(nil)
	_ VentureStore = (*Memory)(nil)
	_ CostsStore   = (*Memory)(nil)
)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:          make(map[string]user.User),
		profiles:       make(map[string]profile.Profile),
		coaches:        make(map[string]profile.Coach),
		events:         make(map[string]event.Event),
		registrations:  make(map[string]event.Registration),
		journeys:       make(map[string]journey.Journey),
		chapters:       make(map[string]journey.Chapter),
		challenges:     make(map[string]journey.Challenge),
		rewards:        make(map[string]journey.Reward),
		enrollments:    make(map[string]journey.Enrollment),
		completions:    make(map[string]journey.Completion),
		grantedRewards: make(map[string]journey.GrantedReward),
		producers:      make(map[string]catalog.Producer),
		coffrets:       make(map[string]catalog.Coffret),
		plans:          make(map[string]catalog.AdoptionPlan),
		founders:       make(map[string]venture.Founder),
		matches:        make(map[string]venture.MatchRequest),
		costEntries:    make(map[string]costs.Entry),
		rollups:        make(map[string]costs.Rollup),
	}
}

// --- UserStore --------------------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, sql.ErrNoRows
}

func (m *Memory) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	sortByCreated(result, func(u user.User) time.Time { return u.CreatedAt })
	return result, nil
}

// --- ProfileStore -----------------------------------------------------------

func (m *Memory) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.profiles {
		if existing.UserID == p.UserID {
			return profile.Profile{}, fmt.Errorf("profile for user %s already exists", p.UserID)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.profiles[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.profiles[p.ID]
	if !ok {
		return profile.Profile{}, sql.ErrNoRows
	}
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.profiles[p.ID] = p
	return p, nil
}

func (m *Memory) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (m *Memory) GetProfileByUser(_ context.Context, userID string) (profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return profile.Profile{}, sql.ErrNoRows
}

func (m *Memory) ListProfiles(_ context.Context, state profile.ApprovalState) ([]profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []profile.Profile
	for _, p := range m.profiles {
		if state == "" || p.State == state {
			result = append(result, p)
		}
	}
	sortByCreated(result, func(p profile.Profile) time.Time { return p.CreatedAt })
	return result, nil
}

func (m *Memory) CreateCoach(_ context.Context, c profile.Coach) (profile.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.coaches {
		if existing.UserID == c.UserID {
			return profile.Coach{}, fmt.Errorf("coach record for user %s already exists", c.UserID)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.coaches[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateCoach(_ context.Context, c profile.Coach) (profile.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.coaches[c.ID]
	if !ok {
		return profile.Coach{}, sql.ErrNoRows
	}
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	m.coaches[c.ID] = c
	return c, nil
}

func (m *Memory) GetCoach(_ context.Context, id string) (profile.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.coaches[id]
	if !ok {
		return profile.Coach{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *Memory) GetCoachByUser(_ context.Context, userID string) (profile.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.coaches {
		if c.UserID == userID {
			return c, nil
		}
	}
	return profile.Coach{}, sql.ErrNoRows
}

func (m *Memory) ListCoaches(_ context.Context, state profile.ApprovalState) ([]profile.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []profile.Coach
	for _, c := range m.coaches {
		if state == "" || c.State == state {
			result = append(result, c)
		}
	}
	sortByCreated(result, func(c profile.Coach) time.Time { return c.CreatedAt })
	return result, nil
}

// --- EventStore -------------------------------------------------------------

func (m *Memory) CreateEvent(_ context.Context, e event.Event) (event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.events[e.ID] = e
	return e, nil
}

func (m *Memory) UpdateEvent(_ context.Context, e event.Event) (event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.events[e.ID]
	if !ok {
		return event.Event{}, sql.ErrNoRows
	}
	e.CreatedBy = existing.CreatedBy
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	m.events[e.ID] = e
	return e, nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[id]
	if !ok {
		return event.Event{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *Memory) ListEvents(_ context.Context, publishedOnly bool) ([]event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []event.Event
	for _, e := range m.events {
		if !publishedOnly || e.Published {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (m *Memory) CreateRegistration(_ context.Context, reg event.Registration) (event.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.registrations {
		if existing.EventID == reg.EventID && existing.UserID == reg.UserID && existing.Status != event.StatusCancelled {
			return event.Registration{}, fmt.Errorf("user %s already registered for event %s", reg.UserID, reg.EventID)
		}
	}
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	m.registrations[reg.ID] = reg
	return reg, nil
}

func (m *Memory) UpdateRegistration(_ context.Context, reg event.Registration) (event.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.registrations[reg.ID]
	if !ok {
		return event.Registration{}, sql.ErrNoRows
	}
	reg.EventID = existing.EventID
	reg.UserID = existing.UserID
	reg.CreatedAt = existing.CreatedAt
	reg.UpdatedAt = time.Now().UTC()
	m.registrations[reg.ID] = reg
	return reg, nil
}

func (m *Memory) GetRegistration(_ context.Context, id string) (event.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.registrations[id]
	if !ok {
		return event.Registration{}, sql.ErrNoRows
	}
	return reg, nil
}

func (m *Memory) GetRegistrationByEventUser(_ context.Context, eventID, userID string) (event.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.UserID == userID && reg.Status != event.StatusCancelled {
			return reg, nil
		}
	}
	return event.Registration{}, sql.ErrNoRows
}

func (m *Memory) ListRegistrations(_ context.Context, eventID string) ([]event.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []event.Registration
	for _, reg := range m.registrations {
		if reg.EventID == eventID {
			result = append(result, reg)
		}
	}
	sortByCreated(result, func(r event.Registration) time.Time { return r.CreatedAt })
	return result, nil
}

func (m *Memory) CountRegistrations(_ context.Context, eventID string, status event.RegistrationStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *Memory) OldestWaitlisted(_ context.Context, eventID string) (event.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		oldest event.Registration
		found  bool
	)
	for _, reg := range m.registrations {
		if reg.EventID != eventID || reg.Status != event.StatusWaitlisted {
			continue
		}
		if !found || reg.CreatedAt.Before(oldest.CreatedAt) {
			oldest = reg
			found = true
		}
	}
	if !found {
		return event.Registration{}, sql.ErrNoRows
	}
	return oldest, nil
}

// --- JourneyStore -----------------------------------------------------------

func (m *Memory) CreateJourney(_ context.Context, j journey.Journey) (journey.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	m.journeys[j.ID] = j
	return j, nil
}

func (m *Memory) UpdateJourney(_ context.Context, j journey.Journey) (journey.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.journeys[j.ID]
	if !ok {
		return journey.Journey{}, sql.ErrNoRows
	}
	j.CreatedAt = existing.CreatedAt
	j.UpdatedAt = time.Now().UTC()
	m.journeys[j.ID] = j
	return j, nil
}

func (m *Memory) GetJourney(_ context.Context, id string) (journey.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.journeys[id]
	if !ok {
		return journey.Journey{}, sql.ErrNoRows
	}
	return j, nil
}

func (m *Memory) ListJourneys(_ context.Context, activeOnly bool) ([]journey.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Journey
	for _, j := range m.journeys {
		if !activeOnly || j.Active {
			result = append(result, j)
		}
	}
	sortByCreated(result, func(j journey.Journey) time.Time { return j.CreatedAt })
	return result, nil
}

func (m *Memory) CreateChapter(_ context.Context, c journey.Chapter) (journey.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.chapters {
		if existing.JourneyID == c.JourneyID && existing.Position == c.Position {
			return journey.Chapter{}, fmt.Errorf("journey %s already has a chapter at position %d", c.JourneyID, c.Position)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Challenges = nil
	c.Rewards = nil
	m.chapters[c.ID] = c
	return c, nil
}

func (m *Memory) GetChapter(_ context.Context, id string) (journey.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chapters[id]
	if !ok {
		return journey.Chapter{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *Memory) ListChapters(_ context.Context, journeyID string) ([]journey.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Chapter
	for _, c := range m.chapters {
		if c.JourneyID == journeyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *Memory) CreateChallenge(_ context.Context, c journey.Challenge) (journey.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.challenges[c.ID] = c
	return c, nil
}

func (m *Memory) GetChallenge(_ context.Context, id string) (journey.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.challenges[id]
	if !ok {
		return journey.Challenge{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *Memory) ListChallenges(_ context.Context, chapterID string) ([]journey.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Challenge
	for _, c := range m.challenges {
		if c.ChapterID == chapterID {
			result = append(result, c)
		}
	}
	sortByCreated(result, func(c journey.Challenge) time.Time { return c.CreatedAt })
	return result, nil
}

func (m *Memory) CreateReward(_ context.Context, rw journey.Reward) (journey.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rw.ID == "" {
		rw.ID = uuid.NewString()
	}
	rw.CreatedAt = time.Now().UTC()
	m.rewards[rw.ID] = rw
	return rw, nil
}

func (m *Memory) ListRewards(_ context.Context, chapterID string) ([]journey.Reward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Reward
	for _, rw := range m.rewards {
		if rw.ChapterID == chapterID {
			result = append(result, rw)
		}
	}
	sortByCreated(result, func(r journey.Reward) time.Time { return r.CreatedAt })
	return result, nil
}

func (m *Memory) CreateEnrollment(_ context.Context, e journey.Enrollment) (journey.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.enrollments {
		if existing.JourneyID == e.JourneyID && existing.UserID == e.UserID {
			return journey.Enrollment{}, fmt.Errorf("user %s already enrolled in journey %s", e.UserID, e.JourneyID)
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	m.enrollments[e.ID] = e
	return e, nil
}

func (m *Memory) GetEnrollment(_ context.Context, journeyID, userID string) (journey.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.enrollments {
		if e.JourneyID == journeyID && e.UserID == userID {
			return e, nil
		}
	}
	return journey.Enrollment{}, sql.ErrNoRows
}

func (m *Memory) ListEnrollments(_ context.Context, journeyID string) ([]journey.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Enrollment
	for _, e := range m.enrollments {
		if e.JourneyID == journeyID {
			result = append(result, e)
		}
	}
	sortByCreated(result, func(e journey.Enrollment) time.Time { return e.EnrolledAt })
	return result, nil
}

func (m *Memory) ExpireEnrollment(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	at = at.UTC()
	e.ExpiredAt = &at
	m.enrollments[id] = e
	return nil
}

func (m *Memory) CreateCompletion(_ context.Context, c journey.Completion) (journey.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.completions {
		if existing.UserID == c.UserID && existing.ChallengeID == c.ChallengeID {
			return existing, nil
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now().UTC()
	}
	m.completions[c.ID] = c
	return c, nil
}

func (m *Memory) HasCompletion(_ context.Context, userID, challengeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.completions {
		if c.UserID == userID && c.ChallengeID == challengeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListCompletions(_ context.Context, userID string) ([]journey.Completion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.Completion
	for _, c := range m.completions {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	sortByCreated(result, func(c journey.Completion) time.Time { return c.CompletedAt })
	return result, nil
}

func (m *Memory) CreateGrantedReward(_ context.Context, g journey.GrantedReward) (journey.GrantedReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.grantedRewards {
		if existing.UserID == g.UserID && existing.RewardID == g.RewardID {
			return existing, nil
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now().UTC()
	}
	m.grantedRewards[g.ID] = g
	return g, nil
}

func (m *Memory) HasGrantedReward(_ context.Context, userID, rewardID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.grantedRewards {
		if g.UserID == userID && g.RewardID == rewardID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListGrantedRewards(_ context.Context, userID string) ([]journey.GrantedReward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.GrantedReward
	for _, g := range m.grantedRewards {
		if g.UserID == userID {
			result = append(result, g)
		}
	}
	sortByCreated(result, func(g journey.GrantedReward) time.Time { return g.GrantedAt })
	return result, nil
}

// --- CatalogStore -----------------------------------------------------------

func (m *Memory) CreateProducer(_ context.Context, p catalog.Producer) (catalog.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.producers[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProducer(_ context.Context, p catalog.Producer) (catalog.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.producers[p.ID]
	if !ok {
		return catalog.Producer{}, sql.ErrNoRows
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.producers[p.ID] = p
	return p, nil
}

func (m *Memory) GetProducer(_ context.Context, id string) (catalog.Producer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.producers[id]
	if !ok {
		return catalog.Producer{}, sql.ErrNoRows
	}
	return p, nil
}

func (m *Memory) ListProducers(_ context.Context) ([]catalog.Producer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.Producer, 0, len(m.producers))
	for _, p := range m.producers {
		result = append(result, p)
	}
	sortByCreated(result, func(p catalog.Producer) time.Time { return p.CreatedAt })
	return result, nil
}

func (m *Memory) CreateCoffret(_ context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.coffrets[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateCoffret(_ context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.coffrets[c.ID]
	if !ok {
		return catalog.Coffret{}, sql.ErrNoRows
	}
	c.ProducerID = existing.ProducerID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	m.coffrets[c.ID] = c
	return c, nil
}

func (m *Memory) GetCoffret(_ context.Context, id string) (catalog.Coffret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.coffrets[id]
	if !ok {
		return catalog.Coffret{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *Memory) ListCoffrets(_ context.Context, inStockOnly bool) ([]catalog.Coffret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []catalog.Coffret
	for _, c := range m.coffrets {
		if !inStockOnly || c.Stock > 0 {
			result = append(result, c)
		}
	}
	sortByCreated(result, func(c catalog.Coffret) time.Time { return c.CreatedAt })
	return result, nil
}

func (m *Memory) CreatePlan(_ context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.plans {
		if existing.UserID == p.UserID && existing.ProducerID == p.ProducerID &&
			existing.PlotName == p.PlotName && existing.State == catalog.PlanActive {
			return catalog.AdoptionPlan{}, fmt.Errorf("user %s already has an active plan for plot %s", p.UserID, p.PlotName)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.plans[p.ID] = p
	return p, nil
}

func (m *Memory) UpdatePlan(_ context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.plans[p.ID]
	if !ok {
		return catalog.AdoptionPlan{}, sql.ErrNoRows
	}
	p.UserID = existing.UserID
	p.ProducerID = existing.ProducerID
	p.PlotName = existing.PlotName
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.plans[p.ID] = p
	return p, nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (catalog.AdoptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return catalog.AdoptionPlan{}, sql.ErrNoRows
	}
	return p, nil
}

func (m *Memory) ListPlansByUser(_ context.Context, userID string) ([]catalog.AdoptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []catalog.AdoptionPlan
	for _, p := range m.plans {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	sortByCreated(result, func(p catalog.AdoptionPlan) time.Time { return p.CreatedAt })
	return result, nil
}

func (m *Memory) GetActivePlan(_ context.Context, userID, producerID, plotName string) (catalog.AdoptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.UserID == userID && p.ProducerID == producerID && p.PlotName == plotName && p.State == catalog.PlanActive {
			return p, nil
		}
	}
	return catalog.AdoptionPlan{}, sql.ErrNoRows
}

func (m *Memory) ListPlansExpiringBefore(_ context.Context, t time.Time) ([]catalog.AdoptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []catalog.AdoptionPlan
	for _, p := range m.plans {
		if p.State == catalog.PlanActive && p.ExpiresAt.Before(t) {
			result = append(result, p)
		}
	}
	sortByCreated(result, func(p catalog.AdoptionPlan) time.Time { return p.CreatedAt })
	return result, nil
}

// --- VentureStore -----------------------------------------------------------

func (m *Memory) CreateFounder(_ context.Context, f venture.Founder) (venture.Founder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.founders {
		if existing.UserID == f.UserID {
			return venture.Founder{}, fmt.Errorf("founder profile for user %s already exists", f.UserID)
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	m.founders[f.ID] = f
	return f, nil
}

func (m *Memory) UpdateFounder(_ context.Context, f venture.Founder) (venture.Founder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.founders[f.ID]
	if !ok {
		return venture.Founder{}, sql.ErrNoRows
	}
	f.UserID = existing.UserID
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = time.Now().UTC()
	m.founders[f.ID] = f
	return f, nil
}

func (m *Memory) GetFounder(_ context.Context, id string) (venture.Founder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.founders[id]
	if !ok {
		return venture.Founder{}, sql.ErrNoRows
	}
	return f, nil
}

func (m *Memory) GetFounderByUser(_ context.Context, userID string) (venture.Founder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.founders {
		if f.UserID == userID {
			return f, nil
		}
	}
	return venture.Founder{}, sql.ErrNoRows
}

func (m *Memory) ListFounders(_ context.Context) ([]venture.Founder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]venture.Founder, 0, len(m.founders))
	for _, f := range m.founders {
		result = append(result, f)
	}
	sortByCreated(result, func(f venture.Founder) time.Time { return f.CreatedAt })
	return result, nil
}

func (m *Memory) CreateMatchRequest(_ context.Context, mr venture.MatchRequest) (venture.MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.matches {
		if existing.FromFounder == mr.FromFounder && existing.ToFounder == mr.ToFounder && existing.Status == venture.MatchPending {
			return venture.MatchRequest{}, fmt.Errorf("pending request from %s to %s already exists", mr.FromFounder, mr.ToFounder)
		}
	}
	if mr.ID == "" {
		mr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	mr.CreatedAt = now
	mr.UpdatedAt = now
	m.matches[mr.ID] = mr
	return mr, nil
}

func (m *Memory) UpdateMatchRequest(_ context.Context, mr venture.MatchRequest) (venture.MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.matches[mr.ID]
	if !ok {
		return venture.MatchRequest{}, sql.ErrNoRows
	}
	mr.FromFounder = existing.FromFounder
	mr.ToFounder = existing.ToFounder
	mr.CreatedAt = existing.CreatedAt
	mr.UpdatedAt = time.Now().UTC()
	m.matches[mr.ID] = mr
	return mr, nil
}

func (m *Memory) GetMatchRequest(_ context.Context, id string) (venture.MatchRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mr, ok := m.matches[id]
	if !ok {
		return venture.MatchRequest{}, sql.ErrNoRows
	}
	return mr, nil
}

func (m *Memory) GetPendingRequest(_ context.Context, fromFounder, toFounder string) (venture.MatchRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mr := range m.matches {
		if mr.FromFounder == fromFounder && mr.ToFounder == toFounder && mr.Status == venture.MatchPending {
			return mr, nil
		}
	}
	return venture.MatchRequest{}, sql.ErrNoRows
}

func (m *Memory) ListMatchesForFounder(_ context.Context, founderID string) ([]venture.MatchRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []venture.MatchRequest
	for _, mr := range m.matches {
		if mr.FromFounder == founderID || mr.ToFounder == founderID {
			result = append(result, mr)
		}
	}
	sortByCreated(result, func(mr venture.MatchRequest) time.Time { return mr.CreatedAt })
	return result, nil
}

// --- CostsStore -------------------------------------------------------------

func (m *Memory) InsertEntries(_ context.Context, entries []costs.Entry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	now := time.Now().UTC()
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.ImportedAt.IsZero() {
			e.ImportedAt = now
		}
		m.costEntries[e.ID] = e
		inserted++
	}
	return inserted, nil
}

func (m *Memory) ListEntries(_ context.Context, project, month string) ([]costs.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []costs.Entry
	for _, e := range m.costEntries {
		if project != "" && e.Project != project {
			continue
		}
		if month != "" && e.UsageDate.Format("2006-01") != month {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UsageDate.Before(result[j].UsageDate) })
	return result, nil
}

func (m *Memory) ComputeRollups(_ context.Context, month string) ([]costs.Rollup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct{ project, month string }
	agg := make(map[key]*costs.Rollup)
	for _, e := range m.costEntries {
		em := e.UsageDate.Format("2006-01")
		if month != "" && em != month {
			continue
		}
		k := key{e.Project, em}
		r, ok := agg[k]
		if !ok {
			r = &costs.Rollup{Project: e.Project, Month: em}
			agg[k] = r
		}
		r.AmountCents += e.AmountCents
		r.EntryCount++
	}

	now := time.Now().UTC()
	result := make([]costs.Rollup, 0, len(agg))
	for _, r := range agg {
		r.ComputedAt = now
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Project != result[j].Project {
			return result[i].Project < result[j].Project
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (m *Memory) SaveRollups(_ context.Context, rollups []costs.Rollup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rollups {
		m.rollups[r.Project+"|"+r.Month] = r
	}
	return nil
}

func (m *Memory) ListRollups(_ context.Context, project string) ([]costs.Rollup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []costs.Rollup
	for _, r := range m.rollups {
		if project == "" || r.Project == project {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Project != result[j].Project {
			return result[i].Project < result[j].Project
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func sortByCreated[T any](items []T, createdAt func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool { return createdAt(items[i]).Before(createdAt(items[j])) })
}
