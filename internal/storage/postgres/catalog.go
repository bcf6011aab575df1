package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/domain/catalog"
)

func (s *Store) CreateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cellar_producers (id, name, region, story, photo_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Region, p.Story, p.PhotoKey, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.Producer{}, err
	}
	return p, nil
}

func (s *Store) UpdateProducer(ctx context.Context, p catalog.Producer) (catalog.Producer, error) {
	existing, err := s.GetProducer(ctx, p.ID)
	if err != nil {
		return catalog.Producer{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE cellar_producers
		SET name = $2, region = $3, story = $4, photo_key = $5, updated_at = $6
		WHERE id = $1
	`, p.ID, p.Name, p.Region, p.Story, p.PhotoKey, p.UpdatedAt)
	if err != nil {
		return catalog.Producer{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Producer{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetProducer(ctx context.Context, id string) (catalog.Producer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, region, story, photo_key, created_at, updated_at
		FROM cellar_producers
		WHERE id = $1
	`, id)

	var p catalog.Producer
	if err := row.Scan(&p.ID, &p.Name, &p.Region, &p.Story, &p.PhotoKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Producer{}, err
	}
	return p, nil
}

func (s *Store) ListProducers(ctx context.Context) ([]catalog.Producer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, region, story, photo_key, created_at, updated_at
		FROM cellar_producers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Producer
	for rows.Next() {
		var p catalog.Producer
		if err := rows.Scan(&p.ID, &p.Name, &p.Region, &p.Story, &p.PhotoKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) CreateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cellar_coffrets (id, producer_id, name, description, price_cents, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.ProducerID, c.Name, c.Description, c.PriceCents, c.Stock, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return catalog.Coffret{}, err
	}
	return c, nil
}

func (s *Store) UpdateCoffret(ctx context.Context, c catalog.Coffret) (catalog.Coffret, error) {
	existing, err := s.GetCoffret(ctx, c.ID)
	if err != nil {
		return catalog.Coffret{}, err
	}
	c.ProducerID = existing.ProducerID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE cellar_coffrets
		SET name = $2, description = $3, price_cents = $4, stock = $5, updated_at = $6
		WHERE id = $1
	`, c.ID, c.Name, c.Description, c.PriceCents, c.Stock, c.UpdatedAt)
	if err != nil {
		return catalog.Coffret{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Coffret{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetCoffret(ctx context.Context, id string) (catalog.Coffret, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, producer_id, name, description, price_cents, stock, created_at, updated_at
		FROM cellar_coffrets
		WHERE id = $1
	`, id)

	var c catalog.Coffret
	if err := row.Scan(&c.ID, &c.ProducerID, &c.Name, &c.Description, &c.PriceCents, &c.Stock, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return catalog.Coffret{}, err
	}
	return c, nil
}

func (s *Store) ListCoffrets(ctx context.Context, inStockOnly bool) ([]catalog.Coffret, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, producer_id, name, description, price_cents, stock, created_at, updated_at
		FROM cellar_coffrets
		WHERE $1 = false OR stock > 0
		ORDER BY created_at
	`, inStockOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Coffret
	for rows.Next() {
		var c catalog.Coffret
		if err := rows.Scan(&c.ID, &c.ProducerID, &c.Name, &c.Description, &c.PriceCents, &c.Stock, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreatePlan(ctx context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adoption_plans (id, producer_id, user_id, plot_name, term_years, state, started_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.ProducerID, p.UserID, p.PlotName, p.TermYears, p.State, p.StartedAt, p.ExpiresAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.AdoptionPlan{}, err
	}
	return p, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p catalog.AdoptionPlan) (catalog.AdoptionPlan, error) {
	existing, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		return catalog.AdoptionPlan{}, err
	}
	p.ProducerID = existing.ProducerID
	p.UserID = existing.UserID
	p.PlotName = existing.PlotName
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE adoption_plans
		SET term_years = $2, state = $3, started_at = $4, expires_at = $5, updated_at = $6
		WHERE id = $1
	`, p.ID, p.TermYears, p.State, p.StartedAt, p.ExpiresAt, p.UpdatedAt)
	if err != nil {
		return catalog.AdoptionPlan{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.AdoptionPlan{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (catalog.AdoptionPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, producer_id, user_id, plot_name, term_years, state, started_at, expires_at, created_at, updated_at
		FROM adoption_plans
		WHERE id = $1
	`, id)
	return scanPlan(row)
}

func (s *Store) ListPlansByUser(ctx context.Context, userID string) ([]catalog.AdoptionPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, producer_id, user_id, plot_name, term_years, state, started_at, expires_at, created_at, updated_at
		FROM adoption_plans
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.AdoptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) GetActivePlan(ctx context.Context, userID, producerID, plotName string) (catalog.AdoptionPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, producer_id, user_id, plot_name, term_years, state, started_at, expires_at, created_at, updated_at
		FROM adoption_plans
		WHERE user_id = $1 AND producer_id = $2 AND plot_name = $3 AND state = 'active'
	`, userID, producerID, plotName)
	return scanPlan(row)
}

func (s *Store) ListPlansExpiringBefore(ctx context.Context, t time.Time) ([]catalog.AdoptionPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, producer_id, user_id, plot_name, term_years, state, started_at, expires_at, created_at, updated_at
		FROM adoption_plans
		WHERE state = 'active' AND expires_at < $1
		ORDER BY expires_at
	`, t.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.AdoptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanPlan(row rowScanner) (catalog.AdoptionPlan, error) {
	var p catalog.AdoptionPlan
	if err := row.Scan(&p.ID, &p.ProducerID, &p.UserID, &p.PlotName, &p.TermYears, &p.State, &p.StartedAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.AdoptionPlan{}, err
	}
	return p, nil
}
