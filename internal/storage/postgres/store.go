// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/webatelier/platform/internal/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db  *sql.DB
	dbx *sqlx.DB
}

var (
	_ storage.UserStore    = (*Store)(nil)
	_ storage.ProfileStore = (*Store)(nil)
	_ storage.EventStore   = (*Store)(nil)
	_ storage.JourneyStore = (*Store)(nil)
	_ storage.CatalogStore = (*Store)(nil)
	_ storage.VentureStore = (*Store)(nil)
	_ storage.CostsStore   = (*Store)(nil)
)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, dbx: sqlx.NewDb(db, "postgres")}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
