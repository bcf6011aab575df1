package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/domain/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateUserAssignsIDAndTimestamps(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateUser(context.Background(), user.User{
		Email:        "a@example.com",
		PasswordHash: "hash",
		DisplayName:  "A",
		Role:         user.RoleMember,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM users").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateUserPreservesImmutableFields(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "display_name", "role", "active", "created_at", "updated_at"}).
		AddRow("u1", "a@example.com", "hash", "A", "member", true, created, created)

	mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(rows)
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := store.UpdateUser(context.Background(), user.User{
		ID:          "u1",
		Email:       "changed@example.com",
		DisplayName: "B",
		Role:        user.RoleMember,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Email != "a@example.com" {
		t.Fatalf("email must not change on update, got %q", updated.Email)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("created_at must not change, got %v", updated.CreatedAt)
	}
}

func TestUpdateEventMissingRowReturnsNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "location", "starts_at", "capacity", "created_by", "published", "created_at", "updated_at"}).
		AddRow("e1", "Wine tasting", "", "Paris", created, 20, "u1", true, created, created)

	mock.ExpectQuery("SELECT .+ FROM meetup_events").WillReturnRows(rows)
	mock.ExpectExec("UPDATE meetup_events").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateEvent(context.Background(), event.Event{ID: "e1", Title: "Changed", Capacity: 20})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCountRegistrations(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT count").
		WithArgs("e1", event.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountRegistrations(context.Background(), "e1", event.StatusConfirmed)
	if err != nil {
		t.Fatalf("count registrations: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
}

func TestOldestWaitlistedEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM event_registrations").
		WillReturnError(sql.ErrNoRows)

	_, err := store.OldestWaitlisted(context.Background(), "e1")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatal("expected unique violation to be detected")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Fatal("plain errors are not unique violations")
	}
}
