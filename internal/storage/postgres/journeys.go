package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/domain/journey"
)

func (s *Store) CreateJourney(ctx context.Context, j journey.Journey) (journey.Journey, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journeys (id, title, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, j.ID, j.Title, j.Description, j.Active, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return journey.Journey{}, err
	}
	return j, nil
}

func (s *Store) UpdateJourney(ctx context.Context, j journey.Journey) (journey.Journey, error) {
	existing, err := s.GetJourney(ctx, j.ID)
	if err != nil {
		return journey.Journey{}, err
	}
	j.CreatedAt = existing.CreatedAt
	j.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE journeys
		SET title = $2, description = $3, active = $4, updated_at = $5
		WHERE id = $1
	`, j.ID, j.Title, j.Description, j.Active, j.UpdatedAt)
	if err != nil {
		return journey.Journey{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return journey.Journey{}, sql.ErrNoRows
	}
	return j, nil
}

func (s *Store) GetJourney(ctx context.Context, id string) (journey.Journey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, active, created_at, updated_at
		FROM journeys
		WHERE id = $1
	`, id)

	var j journey.Journey
	if err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Active, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return journey.Journey{}, err
	}
	return j, nil
}

func (s *Store) ListJourneys(ctx context.Context, activeOnly bool) ([]journey.Journey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, active, created_at, updated_at
		FROM journeys
		WHERE $1 = false OR active = true
		ORDER BY created_at
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Journey
	for rows.Next() {
		var j journey.Journey
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.Active, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

func (s *Store) CreateChapter(ctx context.Context, c journey.Chapter) (journey.Chapter, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Challenges = nil
	c.Rewards = nil

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_chapters (id, journey_id, position, title, description, deadline_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.JourneyID, c.Position, c.Title, c.Description, c.DeadlineDays, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return journey.Chapter{}, err
	}
	return c, nil
}

func (s *Store) GetChapter(ctx context.Context, id string) (journey.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, journey_id, position, title, description, deadline_days, created_at, updated_at
		FROM journey_chapters
		WHERE id = $1
	`, id)

	var c journey.Chapter
	if err := row.Scan(&c.ID, &c.JourneyID, &c.Position, &c.Title, &c.Description, &c.DeadlineDays, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return journey.Chapter{}, err
	}
	return c, nil
}

func (s *Store) ListChapters(ctx context.Context, journeyID string) ([]journey.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, journey_id, position, title, description, deadline_days, created_at, updated_at
		FROM journey_chapters
		WHERE journey_id = $1
		ORDER BY position
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Chapter
	for rows.Next() {
		var c journey.Chapter
		if err := rows.Scan(&c.ID, &c.JourneyID, &c.Position, &c.Title, &c.Description, &c.DeadlineDays, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateChallenge(ctx context.Context, c journey.Challenge) (journey.Challenge, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_challenges (id, chapter_id, title, description, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.ChapterID, c.Title, c.Description, c.Points, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return journey.Challenge{}, err
	}
	return c, nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (journey.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chapter_id, title, description, points, created_at, updated_at
		FROM journey_challenges
		WHERE id = $1
	`, id)

	var c journey.Challenge
	if err := row.Scan(&c.ID, &c.ChapterID, &c.Title, &c.Description, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return journey.Challenge{}, err
	}
	return c, nil
}

func (s *Store) ListChallenges(ctx context.Context, chapterID string) ([]journey.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter_id, title, description, points, created_at, updated_at
		FROM journey_challenges
		WHERE chapter_id = $1
		ORDER BY created_at
	`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Challenge
	for rows.Next() {
		var c journey.Challenge
		if err := rows.Scan(&c.ID, &c.ChapterID, &c.Title, &c.Description, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateReward(ctx context.Context, rw journey.Reward) (journey.Reward, error) {
	if rw.ID == "" {
		rw.ID = uuid.NewString()
	}
	rw.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_rewards (id, chapter_id, name, kind, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rw.ID, rw.ChapterID, rw.Name, rw.Kind, rw.Value, rw.CreatedAt)
	if err != nil {
		return journey.Reward{}, err
	}
	return rw, nil
}

func (s *Store) ListRewards(ctx context.Context, chapterID string) ([]journey.Reward, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter_id, name, kind, value, created_at
		FROM journey_rewards
		WHERE chapter_id = $1
		ORDER BY created_at
	`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Reward
	for rows.Next() {
		var rw journey.Reward
		if err := rows.Scan(&rw.ID, &rw.ChapterID, &rw.Name, &rw.Kind, &rw.Value, &rw.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rw)
	}
	return result, rows.Err()
}

func (s *Store) CreateEnrollment(ctx context.Context, e journey.Enrollment) (journey.Enrollment, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_enrollments (id, journey_id, user_id, enrolled_at, expired_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.JourneyID, e.UserID, e.EnrolledAt, nullTimePtr(e.ExpiredAt))
	if err != nil {
		return journey.Enrollment{}, err
	}
	return e, nil
}

func (s *Store) GetEnrollment(ctx context.Context, journeyID, userID string) (journey.Enrollment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, journey_id, user_id, enrolled_at, expired_at
		FROM journey_enrollments
		WHERE journey_id = $1 AND user_id = $2
	`, journeyID, userID)
	return scanEnrollment(row)
}

func (s *Store) ListEnrollments(ctx context.Context, journeyID string) ([]journey.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, journey_id, user_id, enrolled_at, expired_at
		FROM journey_enrollments
		WHERE journey_id = $1
		ORDER BY enrolled_at
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) ExpireEnrollment(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE journey_enrollments
		SET expired_at = $2
		WHERE id = $1 AND expired_at IS NULL
	`, id, at.UTC())
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanEnrollment(row rowScanner) (journey.Enrollment, error) {
	var (
		e         journey.Enrollment
		expiredAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.JourneyID, &e.UserID, &e.EnrolledAt, &expiredAt); err != nil {
		return journey.Enrollment{}, err
	}
	e.ExpiredAt = fromNullTime(expiredAt)
	return e, nil
}

func (s *Store) CreateCompletion(ctx context.Context, c journey.Completion) (journey.Completion, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now().UTC()
	}

	// ON CONFLICT keeps completion idempotent per (user, challenge).
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_completions (id, user_id, challenge_id, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, challenge_id) DO NOTHING
	`, c.ID, c.UserID, c.ChallengeID, c.CompletedAt)
	if err != nil {
		return journey.Completion{}, err
	}
	return c, nil
}

func (s *Store) HasCompletion(ctx context.Context, userID, challengeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM journey_completions WHERE user_id = $1 AND challenge_id = $2
		)
	`, userID, challengeID).Scan(&exists)
	return exists, err
}

func (s *Store) ListCompletions(ctx context.Context, userID string) ([]journey.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, challenge_id, completed_at
		FROM journey_completions
		WHERE user_id = $1
		ORDER BY completed_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.Completion
	for rows.Next() {
		var c journey.Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.ChallengeID, &c.CompletedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateGrantedReward(ctx context.Context, g journey.GrantedReward) (journey.GrantedReward, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_granted_rewards (id, user_id, reward_id, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, reward_id) DO NOTHING
	`, g.ID, g.UserID, g.RewardID, g.GrantedAt)
	if err != nil {
		return journey.GrantedReward{}, err
	}
	return g, nil
}

func (s *Store) HasGrantedReward(ctx context.Context, userID, rewardID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM journey_granted_rewards WHERE user_id = $1 AND reward_id = $2
		)
	`, userID, rewardID).Scan(&exists)
	return exists, err
}

func (s *Store) ListGrantedRewards(ctx context.Context, userID string) ([]journey.GrantedReward, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, reward_id, granted_at
		FROM journey_granted_rewards
		WHERE user_id = $1
		ORDER BY granted_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journey.GrantedReward
	for rows.Next() {
		var g journey.GrantedReward
		if err := rows.Scan(&g.ID, &g.UserID, &g.RewardID, &g.GrantedAt); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
