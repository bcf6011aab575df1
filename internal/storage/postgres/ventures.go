package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/webatelier/platform/internal/domain/venture"
)

func (s *Store) CreateFounder(ctx context.Context, f venture.Founder) (venture.Founder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO venture_founders (id, user_id, company, pitch, skills_have, skills_wanted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.UserID, f.Company, f.Pitch, pq.Array(f.SkillsHave), pq.Array(f.SkillsWanted), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return venture.Founder{}, err
	}
	return f, nil
}

func (s *Store) UpdateFounder(ctx context.Context, f venture.Founder) (venture.Founder, error) {
	existing, err := s.GetFounder(ctx, f.ID)
	if err != nil {
		return venture.Founder{}, err
	}
	f.UserID = existing.UserID
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE venture_founders
		SET company = $2, pitch = $3, skills_have = $4, skills_wanted = $5, updated_at = $6
		WHERE id = $1
	`, f.ID, f.Company, f.Pitch, pq.Array(f.SkillsHave), pq.Array(f.SkillsWanted), f.UpdatedAt)
	if err != nil {
		return venture.Founder{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return venture.Founder{}, sql.ErrNoRows
	}
	return f, nil
}

func (s *Store) GetFounder(ctx context.Context, id string) (venture.Founder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, company, pitch, skills_have, skills_wanted, created_at, updated_at
		FROM venture_founders
		WHERE id = $1
	`, id)
	return scanFounder(row)
}

func (s *Store) GetFounderByUser(ctx context.Context, userID string) (venture.Founder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, company, pitch, skills_have, skills_wanted, created_at, updated_at
		FROM venture_founders
		WHERE user_id = $1
	`, userID)
	return scanFounder(row)
}

func (s *Store) ListFounders(ctx context.Context) ([]venture.Founder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, company, pitch, skills_have, skills_wanted, created_at, updated_at
		FROM venture_founders
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []venture.Founder
	for rows.Next() {
		f, err := scanFounder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func scanFounder(row rowScanner) (venture.Founder, error) {
	var f venture.Founder
	if err := row.Scan(&f.ID, &f.UserID, &f.Company, &f.Pitch, pq.Array(&f.SkillsHave), pq.Array(&f.SkillsWanted), &f.CreatedAt, &f.UpdatedAt); err != nil {
		return venture.Founder{}, err
	}
	return f, nil
}

func (s *Store) CreateMatchRequest(ctx context.Context, m venture.MatchRequest) (venture.MatchRequest, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO venture_match_requests (id, from_founder, to_founder, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.FromFounder, m.ToFounder, m.Message, m.Status, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return venture.MatchRequest{}, err
	}
	return m, nil
}

func (s *Store) UpdateMatchRequest(ctx context.Context, m venture.MatchRequest) (venture.MatchRequest, error) {
	existing, err := s.GetMatchRequest(ctx, m.ID)
	if err != nil {
		return venture.MatchRequest{}, err
	}
	m.FromFounder = existing.FromFounder
	m.ToFounder = existing.ToFounder
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE venture_match_requests
		SET message = $2, status = $3, updated_at = $4
		WHERE id = $1
	`, m.ID, m.Message, m.Status, m.UpdatedAt)
	if err != nil {
		return venture.MatchRequest{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return venture.MatchRequest{}, sql.ErrNoRows
	}
	return m, nil
}

func (s *Store) GetMatchRequest(ctx context.Context, id string) (venture.MatchRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, from_founder, to_founder, message, status, created_at, updated_at
		FROM venture_match_requests
		WHERE id = $1
	`, id)
	return scanMatchRequest(row)
}

func (s *Store) GetPendingRequest(ctx context.Context, fromFounder, toFounder string) (venture.MatchRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, from_founder, to_founder, message, status, created_at, updated_at
		FROM venture_match_requests
		WHERE from_founder = $1 AND to_founder = $2 AND status = 'pending'
	`, fromFounder, toFounder)
	return scanMatchRequest(row)
}

func (s *Store) ListMatchesForFounder(ctx context.Context, founderID string) ([]venture.MatchRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_founder, to_founder, message, status, created_at, updated_at
		FROM venture_match_requests
		WHERE from_founder = $1 OR to_founder = $1
		ORDER BY created_at
	`, founderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []venture.MatchRequest
	for rows.Next() {
		m, err := scanMatchRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMatchRequest(row rowScanner) (venture.MatchRequest, error) {
	var m venture.MatchRequest
	if err := row.Scan(&m.ID, &m.FromFounder, &m.ToFounder, &m.Message, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return venture.MatchRequest{}, err
	}
	return m, nil
}
