// Package journeys manages the gamified progression system: journey
// configuration, enrollment, challenge completion and reward grants.
//
// Chapters unlock strictly in order. The first chapter of a journey is
// unlocked on enrollment; each later chapter unlocks when every challenge
// of the previous chapter is complete. Completing a chapter grants its
// rewards, each at most once per user.
package journeys

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/webatelier/platform/internal/domain/journey"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	"github.com/webatelier/platform/internal/storage"
)

// Service manages journeys and per-user progress.
type Service struct {
	store storage.JourneyStore
	log   *logging.Logger
}

// New constructs a journey service.
func New(store storage.JourneyStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("journeys")
	}
	return &Service{store: store, log: log}
}

// CreateJourney creates a journey.
func (s *Service) CreateJourney(ctx context.Context, j journey.Journey) (journey.Journey, error) {
	if strings.TrimSpace(j.Title) == "" {
		return journey.Journey{}, errors.InvalidInput("title is required")
	}
	created, err := s.store.CreateJourney(ctx, j)
	if err != nil {
		return journey.Journey{}, errors.Internal("", err)
	}
	s.log.WithContext(ctx).WithField("journey_id", created.ID).Info("journey created")
	return created, nil
}

// AddChapter appends a chapter to a journey at the next position.
func (s *Service) AddChapter(ctx context.Context, c journey.Chapter) (journey.Chapter, error) {
	if strings.TrimSpace(c.Title) == "" {
		return journey.Chapter{}, errors.InvalidInput("title is required")
	}
	if c.DeadlineDays < 0 {
		return journey.Chapter{}, errors.InvalidInput("deadline_days cannot be negative")
	}
	if _, err := s.store.GetJourney(ctx, c.JourneyID); stderrors.Is(err, sql.ErrNoRows) {
		return journey.Chapter{}, errors.NotFound("journey")
	} else if err != nil {
		return journey.Chapter{}, errors.Internal("", err)
	}

	chapters, err := s.store.ListChapters(ctx, c.JourneyID)
	if err != nil {
		return journey.Chapter{}, errors.Internal("", err)
	}
	c.Position = len(chapters) + 1

	created, err := s.store.CreateChapter(ctx, c)
	if err != nil {
		return journey.Chapter{}, errors.Internal("", err)
	}
	return created, nil
}

// AddChallenge adds a challenge to a chapter.
func (s *Service) AddChallenge(ctx context.Context, c journey.Challenge) (journey.Challenge, error) {
	if strings.TrimSpace(c.Title) == "" {
		return journey.Challenge{}, errors.InvalidInput("title is required")
	}
	if c.Points < 0 {
		return journey.Challenge{}, errors.InvalidInput("points cannot be negative")
	}
	if _, err := s.store.GetChapter(ctx, c.ChapterID); stderrors.Is(err, sql.ErrNoRows) {
		return journey.Challenge{}, errors.NotFound("chapter")
	} else if err != nil {
		return journey.Challenge{}, errors.Internal("", err)
	}

	created, err := s.store.CreateChallenge(ctx, c)
	if err != nil {
		return journey.Challenge{}, errors.Internal("", err)
	}
	return created, nil
}

// AddReward attaches a reward to a chapter.
func (s *Service) AddReward(ctx context.Context, rw journey.Reward) (journey.Reward, error) {
	if strings.TrimSpace(rw.Name) == "" {
		return journey.Reward{}, errors.InvalidInput("name is required")
	}
	if _, err := s.store.GetChapter(ctx, rw.ChapterID); stderrors.Is(err, sql.ErrNoRows) {
		return journey.Reward{}, errors.NotFound("chapter")
	} else if err != nil {
		return journey.Reward{}, errors.Internal("", err)
	}

	created, err := s.store.CreateReward(ctx, rw)
	if err != nil {
		return journey.Reward{}, errors.Internal("", err)
	}
	return created, nil
}

// GetJourney returns a journey with its chapters, challenges and rewards.
func (s *Service) GetJourney(ctx context.Context, id string) (journey.Journey, []journey.Chapter, error) {
	j, err := s.store.GetJourney(ctx, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return journey.Journey{}, nil, errors.NotFound("journey")
	}
	if err != nil {
		return journey.Journey{}, nil, errors.Internal("", err)
	}

	chapters, err := s.loadChapters(ctx, id)
	if err != nil {
		return journey.Journey{}, nil, err
	}
	return j, chapters, nil
}

// ListJourneys lists journeys. Members see active journeys only.
func (s *Service) ListJourneys(ctx context.Context, activeOnly bool) ([]journey.Journey, error) {
	list, err := s.store.ListJourneys(ctx, activeOnly)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	return list, nil
}

// Enroll enrolls a user in an active journey.
func (s *Service) Enroll(ctx context.Context, journeyID, userID string) (journey.Enrollment, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return journey.Enrollment{}, errors.NotFound("journey")
	}
	if err != nil {
		return journey.Enrollment{}, errors.Internal("", err)
	}
	if !j.Active {
		return journey.Enrollment{}, errors.Conflict("journey is not accepting enrollments")
	}

	if existing, err := s.store.GetEnrollment(ctx, journeyID, userID); err == nil {
		if existing.ExpiredAt == nil {
			return journey.Enrollment{}, errors.Conflict("already enrolled in this journey")
		}
		return journey.Enrollment{}, errors.Conflict("enrollment in this journey has expired")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return journey.Enrollment{}, errors.Internal("", err)
	}

	created, err := s.store.CreateEnrollment(ctx, journey.Enrollment{
		JourneyID: journeyID,
		UserID:    userID,
	})
	if err != nil {
		return journey.Enrollment{}, errors.Internal("", err)
	}

	s.log.WithContext(ctx).
		WithField("journey_id", journeyID).
		WithField("enrollment_id", created.ID).
		Info("enrolled in journey")
	return created, nil
}

// CompleteChallenge records a challenge completion. Completing the same
// challenge twice is a no-op. When the completion finishes a chapter, the
// chapter's rewards are granted, each at most once.
func (s *Service) CompleteChallenge(ctx context.Context, userID, challengeID string) (journey.Completion, []journey.Reward, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return journey.Completion{}, nil, errors.NotFound("challenge")
	}
	if err != nil {
		return journey.Completion{}, nil, errors.Internal("", err)
	}

	chapter, err := s.store.GetChapter(ctx, ch.ChapterID)
	if err != nil {
		return journey.Completion{}, nil, errors.Internal("", err)
	}

	enrollment, err := s.store.GetEnrollment(ctx, chapter.JourneyID, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return journey.Completion{}, nil, errors.Forbidden("not enrolled in this journey")
	}
	if err != nil {
		return journey.Completion{}, nil, errors.Internal("", err)
	}
	if enrollment.ExpiredAt != nil {
		return journey.Completion{}, nil, errors.Conflict("enrollment has expired")
	}

	unlocked, err := s.chapterUnlocked(ctx, chapter, userID)
	if err != nil {
		return journey.Completion{}, nil, err
	}
	if !unlocked {
		return journey.Completion{}, nil, errors.Conflict("chapter is locked").
			WithDetails("chapter_id", chapter.ID)
	}

	done, err := s.store.HasCompletion(ctx, userID, challengeID)
	if err != nil {
		return journey.Completion{}, nil, errors.Internal("", err)
	}
	if done {
		completion := journey.Completion{UserID: userID, ChallengeID: challengeID}
		return completion, nil, nil
	}

	completion, err := s.store.CreateCompletion(ctx, journey.Completion{
		UserID:      userID,
		ChallengeID: challengeID,
	})
	if err != nil {
		return journey.Completion{}, nil, errors.Internal("", err)
	}
	metrics.RecordChallengeCompleted()

	granted, err := s.grantChapterRewards(ctx, chapter.ID, userID)
	if err != nil {
		return journey.Completion{}, nil, err
	}

	s.log.WithContext(ctx).
		WithField("challenge_id", challengeID).
		WithField("chapter_id", chapter.ID).
		WithField("rewards_granted", len(granted)).
		Info("challenge completed")
	return completion, granted, nil
}

// Progress returns a user's derived position in a journey.
func (s *Service) Progress(ctx context.Context, journeyID, userID string) (journey.Progress, error) {
	if _, err := s.store.GetEnrollment(ctx, journeyID, userID); stderrors.Is(err, sql.ErrNoRows) {
		return journey.Progress{}, errors.NotFound("enrollment")
	} else if err != nil {
		return journey.Progress{}, errors.Internal("", err)
	}

	chapters, err := s.loadChapters(ctx, journeyID)
	if err != nil {
		return journey.Progress{}, err
	}

	completed, err := s.completedSet(ctx, userID)
	if err != nil {
		return journey.Progress{}, err
	}

	grants, err := s.store.ListGrantedRewards(ctx, userID)
	if err != nil {
		return journey.Progress{}, errors.Internal("", err)
	}

	p := journey.Progress{JourneyID: journeyID, UserID: userID}
	for _, g := range grants {
		p.GrantedRewards = append(p.GrantedRewards, g.RewardID)
	}

	previousComplete := true
	for _, ch := range chapters {
		if previousComplete {
			p.UnlockedChapters = append(p.UnlockedChapters, ch.ID)
		}

		chapterComplete := len(ch.Challenges) > 0
		for _, c := range ch.Challenges {
			if completed[c.ID] {
				p.CompletedChallenges = append(p.CompletedChallenges, c.ID)
				p.Points += c.Points
			} else {
				chapterComplete = false
			}
		}
		if previousComplete && chapterComplete {
			p.CompletedChapters = append(p.CompletedChapters, ch.ID)
		}
		previousComplete = previousComplete && chapterComplete
	}
	return p, nil
}

// ExpireOverdueEnrollments expires enrollments whose current chapter
// deadline has passed. Deadlines accumulate from the enrollment time over
// chapter deadline_days in order; chapters without a deadline never expire
// an enrollment. Invoked by the scheduler.
func (s *Service) ExpireOverdueEnrollments(ctx context.Context, now time.Time) (int, error) {
	list, err := s.store.ListJourneys(ctx, false)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, j := range list {
		chapters, err := s.loadChapters(ctx, j.ID)
		if err != nil {
			return expired, err
		}

		enrollments, err := s.store.ListEnrollments(ctx, j.ID)
		if err != nil {
			return expired, err
		}

		for _, e := range enrollments {
			if e.ExpiredAt != nil {
				continue
			}
			overdue, err := s.enrollmentOverdue(ctx, e, chapters, now)
			if err != nil {
				return expired, err
			}
			if !overdue {
				continue
			}
			if err := s.store.ExpireEnrollment(ctx, e.ID, now); err != nil {
				s.log.WithContext(ctx).WithError(err).Error("enrollment expiry failed")
				continue
			}
			expired++
			s.log.WithContext(ctx).
				WithField("enrollment_id", e.ID).
				WithField("journey_id", j.ID).
				Info("enrollment expired")
		}
	}
	return expired, nil
}

func (s *Service) enrollmentOverdue(ctx context.Context, e journey.Enrollment, chapters []journey.Chapter, now time.Time) (bool, error) {
	completed, err := s.completedSet(ctx, e.UserID)
	if err != nil {
		return false, err
	}

	deadline := e.EnrolledAt
	for _, ch := range chapters {
		if ch.DeadlineDays > 0 {
			deadline = deadline.Add(time.Duration(ch.DeadlineDays) * 24 * time.Hour)
		}

		chapterComplete := len(ch.Challenges) > 0
		for _, c := range ch.Challenges {
			if !completed[c.ID] {
				chapterComplete = false
				break
			}
		}
		if chapterComplete {
			continue
		}
		// First incomplete chapter decides.
		return ch.DeadlineDays > 0 && now.After(deadline), nil
	}
	return false, nil
}

// chapterUnlocked reports whether every challenge of every earlier chapter
// is complete for the user.
func (s *Service) chapterUnlocked(ctx context.Context, target journey.Chapter, userID string) (bool, error) {
	if target.Position <= 1 {
		return true, nil
	}

	chapters, err := s.loadChapters(ctx, target.JourneyID)
	if err != nil {
		return false, err
	}
	completed, err := s.completedSet(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, ch := range chapters {
		if ch.Position >= target.Position {
			break
		}
		if len(ch.Challenges) == 0 {
			return false, nil
		}
		for _, c := range ch.Challenges {
			if !completed[c.ID] {
				return false, nil
			}
		}
	}
	return true, nil
}

// grantChapterRewards grants the chapter's rewards when all its challenges
// are complete. The store ignores duplicate grants.
func (s *Service) grantChapterRewards(ctx context.Context, chapterID, userID string) ([]journey.Reward, error) {
	challenges, err := s.store.ListChallenges(ctx, chapterID)
	if err != nil {
		return nil, errors.Internal("", err)
	}

	for _, c := range challenges {
		done, err := s.store.HasCompletion(ctx, userID, c.ID)
		if err != nil {
			return nil, errors.Internal("", err)
		}
		if !done {
			return nil, nil
		}
	}

	rewards, err := s.store.ListRewards(ctx, chapterID)
	if err != nil {
		return nil, errors.Internal("", err)
	}

	var granted []journey.Reward
	for _, rw := range rewards {
		has, err := s.store.HasGrantedReward(ctx, userID, rw.ID)
		if err != nil {
			return nil, errors.Internal("", err)
		}
		if has {
			continue
		}
		if _, err := s.store.CreateGrantedReward(ctx, journey.GrantedReward{
			UserID:   userID,
			RewardID: rw.ID,
		}); err != nil {
			return nil, errors.Internal("", err)
		}
		granted = append(granted, rw)
	}
	return granted, nil
}

func (s *Service) loadChapters(ctx context.Context, journeyID string) ([]journey.Chapter, error) {
	chapters, err := s.store.ListChapters(ctx, journeyID)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	for i := range chapters {
		challenges, err := s.store.ListChallenges(ctx, chapters[i].ID)
		if err != nil {
			return nil, errors.Internal("", err)
		}
		rewards, err := s.store.ListRewards(ctx, chapters[i].ID)
		if err != nil {
			return nil, errors.Internal("", err)
		}
		chapters[i].Challenges = challenges
		chapters[i].Rewards = rewards
	}
	return chapters, nil
}

func (s *Service) completedSet(ctx context.Context, userID string) (map[string]bool, error) {
	completions, err := s.store.ListCompletions(ctx, userID)
	if err != nil {
		return nil, errors.Internal("", err)
	}
	set := make(map[string]bool, len(completions))
	for _, c := range completions {
		set[c.ChallengeID] = true
	}
	return set, nil
}
