package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/domain/costs"
)

func (s *Store) InsertEntries(ctx context.Context, entries []costs.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cost_entries (id, project, service, amount_cents, currency, usage_date, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.ImportedAt.IsZero() {
			e.ImportedAt = now
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Project, e.Service, e.AmountCents, e.Currency, e.UsageDate, e.ImportedAt); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) ListEntries(ctx context.Context, project, month string) ([]costs.Entry, error) {
	var entries []costs.Entry
	err := s.dbx.SelectContext(ctx, &entries, `
		SELECT id, project, service, amount_cents, currency, usage_date, imported_at
		FROM cost_entries
		WHERE ($1 = '' OR project = $1)
		  AND ($2 = '' OR to_char(usage_date, 'YYYY-MM') = $2)
		ORDER BY usage_date, project, service
	`, project, month)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) ComputeRollups(ctx context.Context, month string) ([]costs.Rollup, error) {
	var rollups []costs.Rollup
	err := s.dbx.SelectContext(ctx, &rollups, `
		SELECT project,
		       to_char(usage_date, 'YYYY-MM') AS month,
		       sum(amount_cents) AS amount_cents,
		       count(*) AS entry_count,
		       now() AS computed_at
		FROM cost_entries
		WHERE $1 = '' OR to_char(usage_date, 'YYYY-MM') = $1
		GROUP BY project, to_char(usage_date, 'YYYY-MM')
		ORDER BY month, project
	`, month)
	if err != nil {
		return nil, err
	}
	return rollups, nil
}

func (s *Store) SaveRollups(ctx context.Context, rollups []costs.Rollup) error {
	if len(rollups) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cost_rollups (project, month, amount_cents, entry_count, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project, month) DO UPDATE
		SET amount_cents = EXCLUDED.amount_cents,
		    entry_count = EXCLUDED.entry_count,
		    computed_at = EXCLUDED.computed_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range rollups {
		if r.ComputedAt.IsZero() {
			r.ComputedAt = now
		}
		if _, err := stmt.ExecContext(ctx, r.Project, r.Month, r.AmountCents, r.EntryCount, r.ComputedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListRollups(ctx context.Context, project string) ([]costs.Rollup, error) {
	var rollups []costs.Rollup
	err := s.dbx.SelectContext(ctx, &rollups, `
		SELECT project, month, amount_cents, entry_count, computed_at
		FROM cost_rollups
		WHERE $1 = '' OR project = $1
		ORDER BY month, project
	`, project)
	if err != nil {
		return nil, err
	}
	return rollups, nil
}
