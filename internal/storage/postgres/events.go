package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/domain/event"
)

func (s *Store) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetup_events (id, title, description, location, starts_at, capacity, created_by, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.Capacity, e.CreatedBy, e.Published, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	existing, err := s.GetEvent(ctx, e.ID)
	if err != nil {
		return event.Event{}, err
	}
	e.CreatedBy = existing.CreatedBy
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE meetup_events
		SET title = $2, description = $3, location = $4, starts_at = $5, capacity = $6, published = $7, updated_at = $8
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.Capacity, e.Published, e.UpdatedAt)
	if err != nil {
		return event.Event{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return event.Event{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (event.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, location, starts_at, capacity, created_by, published, created_at, updated_at
		FROM meetup_events
		WHERE id = $1
	`, id)
	return scanEvent(row)
}

func (s *Store) ListEvents(ctx context.Context, publishedOnly bool) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, location, starts_at, capacity, created_by, published, created_at, updated_at
		FROM meetup_events
		WHERE $1 = false OR published = true
		ORDER BY starts_at
	`, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanEvent(row rowScanner) (event.Event, error) {
	var e event.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.Capacity, &e.CreatedBy, &e.Published, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (s *Store) CreateRegistration(ctx context.Context, reg event.Registration) (event.Registration, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_registrations (id, event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reg.ID, reg.EventID, reg.UserID, reg.Status, reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return event.Registration{}, err
	}
	return reg, nil
}

func (s *Store) UpdateRegistration(ctx context.Context, reg event.Registration) (event.Registration, error) {
	existing, err := s.GetRegistration(ctx, reg.ID)
	if err != nil {
		return event.Registration{}, err
	}
	reg.EventID = existing.EventID
	reg.UserID = existing.UserID
	reg.CreatedAt = existing.CreatedAt
	reg.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE event_registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, reg.ID, reg.Status, reg.UpdatedAt)
	if err != nil {
		return event.Registration{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return event.Registration{}, sql.ErrNoRows
	}
	return reg, nil
}

func (s *Store) GetRegistration(ctx context.Context, id string) (event.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM event_registrations
		WHERE id = $1
	`, id)
	return scanRegistration(row)
}

func (s *Store) GetRegistrationByEventUser(ctx context.Context, eventID, userID string) (event.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM event_registrations
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
	`, eventID, userID)
	return scanRegistration(row)
}

func (s *Store) ListRegistrations(ctx context.Context, eventID string) ([]event.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM event_registrations
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []event.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}

func (s *Store) CountRegistrations(ctx context.Context, eventID string, status event.RegistrationStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM event_registrations
		WHERE event_id = $1 AND status = $2
	`, eventID, status).Scan(&count)
	return count, err
}

func (s *Store) OldestWaitlisted(ctx context.Context, eventID string) (event.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM event_registrations
		WHERE event_id = $1 AND status = 'waitlisted'
		ORDER BY created_at
		LIMIT 1
	`, eventID)
	return scanRegistration(row)
}

func scanRegistration(row rowScanner) (event.Registration, error) {
	var reg event.Registration
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return event.Registration{}, err
	}
	return reg, nil
}
