package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/webatelier/platform/internal/domain/profile"
)

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crush_profiles (id, user_id, headline, bio, age, city, photo_key, interests, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.UserID, p.Headline, p.Bio, p.Age, p.City, p.PhotoKey, pq.Array(p.Interests), p.State, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	existing, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		return profile.Profile{}, err
	}
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE crush_profiles
		SET headline = $2, bio = $3, age = $4, city = $5, photo_key = $6, interests = $7, state = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Headline, p.Bio, p.Age, p.City, p.PhotoKey, pq.Array(p.Interests), p.State, p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, headline, bio, age, city, photo_key, interests, state, created_at, updated_at
		FROM crush_profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

func (s *Store) GetProfileByUser(ctx context.Context, userID string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, headline, bio, age, city, photo_key, interests, state, created_at, updated_at
		FROM crush_profiles
		WHERE user_id = $1
	`, userID)
	return scanProfile(row)
}

func (s *Store) ListProfiles(ctx context.Context, state profile.ApprovalState) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, headline, bio, age, city, photo_key, interests, state, created_at, updated_at
		FROM crush_profiles
		WHERE $1 = '' OR state = $1
		ORDER BY created_at
	`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProfile(row rowScanner) (profile.Profile, error) {
	var p profile.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.Headline, &p.Bio, &p.Age, &p.City, &p.PhotoKey, pq.Array(&p.Interests), &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) CreateCoach(ctx context.Context, c profile.Coach) (profile.Coach, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crush_coaches (id, user_id, bio, specialties, hourly_rate_cents, photo_key, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.UserID, c.Bio, pq.Array(c.Specialties), c.HourlyRateCents, c.PhotoKey, c.State, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return profile.Coach{}, err
	}
	return c, nil
}

func (s *Store) UpdateCoach(ctx context.Context, c profile.Coach) (profile.Coach, error) {
	existing, err := s.GetCoach(ctx, c.ID)
	if err != nil {
		return profile.Coach{}, err
	}
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE crush_coaches
		SET bio = $2, specialties = $3, hourly_rate_cents = $4, photo_key = $5, state = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.Bio, pq.Array(c.Specialties), c.HourlyRateCents, c.PhotoKey, c.State, c.UpdatedAt)
	if err != nil {
		return profile.Coach{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return profile.Coach{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetCoach(ctx context.Context, id string) (profile.Coach, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, bio, specialties, hourly_rate_cents, photo_key, state, created_at, updated_at
		FROM crush_coaches
		WHERE id = $1
	`, id)
	return scanCoach(row)
}

func (s *Store) GetCoachByUser(ctx context.Context, userID string) (profile.Coach, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, bio, specialties, hourly_rate_cents, photo_key, state, created_at, updated_at
		FROM crush_coaches
		WHERE user_id = $1
	`, userID)
	return scanCoach(row)
}

func (s *Store) ListCoaches(ctx context.Context, state profile.ApprovalState) ([]profile.Coach, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, bio, specialties, hourly_rate_cents, photo_key, state, created_at, updated_at
		FROM crush_coaches
		WHERE $1 = '' OR state = $1
		ORDER BY created_at
	`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []profile.Coach
	for rows.Next() {
		c, err := scanCoach(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCoach(row rowScanner) (profile.Coach, error) {
	var c profile.Coach
	if err := row.Scan(&c.ID, &c.UserID, &c.Bio, pq.Array(&c.Specialties), &c.HourlyRateCents, &c.PhotoKey, &c.State, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return profile.Coach{}, err
	}
	return c, nil
}
