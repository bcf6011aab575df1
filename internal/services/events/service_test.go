package events

import (
	"context"
	"testing"
	"time"

	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/storage"
)

func newService() (*Service, *storage.Memory) {
	store := storage.NewMemory()
	return New(store, nil, nil), store
}

func createPublished(t *testing.T, svc *Service, capacity int) event.Event {
	t.Helper()
	e, err := svc.Create(context.Background(), event.Event{
		Title:     "Apéro rencontre",
		Location:  "Lyon",
		StartsAt:  time.Now().Add(48 * time.Hour),
		Capacity:  capacity,
		CreatedBy: "organizer",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	published, err := svc.Publish(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("publish event: %v", err)
	}
	return published
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, event.Event{Title: "", Capacity: 10, StartsAt: time.Now().Add(time.Hour)}); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for empty title, got %v", err)
	}
	if _, err := svc.Create(ctx, event.Event{Title: "x", Capacity: 0, StartsAt: time.Now().Add(time.Hour)}); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for zero capacity, got %v", err)
	}
	if _, err := svc.Create(ctx, event.Event{Title: "x", Capacity: 5, StartsAt: time.Now().Add(-time.Hour)}); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for past start, got %v", err)
	}
}

func TestRegisterFillsThenWaitlists(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 2)

	r1, err := svc.Register(ctx, e.ID, "u1")
	if err != nil {
		t.Fatalf("register u1: %v", err)
	}
	r2, err := svc.Register(ctx, e.ID, "u2")
	if err != nil {
		t.Fatalf("register u2: %v", err)
	}
	r3, err := svc.Register(ctx, e.ID, "u3")
	if err != nil {
		t.Fatalf("register u3: %v", err)
	}

	if r1.Status != event.StatusConfirmed || r2.Status != event.StatusConfirmed {
		t.Fatalf("expected first two confirmed, got %s/%s", r1.Status, r2.Status)
	}
	if r3.Status != event.StatusWaitlisted {
		t.Fatalf("expected third waitlisted, got %s", r3.Status)
	}

	a, err := svc.Availability(ctx, e.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if a.Confirmed != 2 || a.Waitlisted != 1 || a.SeatsLeft() != 0 {
		t.Fatalf("unexpected availability %+v", a)
	}
}

func TestRegisterTwiceConflicts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 5)

	if _, err := svc.Register(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, e.ID, "u1"); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelPromotesOldestWaitlisted(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 1)

	if _, err := svc.Register(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("register u1: %v", err)
	}
	if _, err := svc.Register(ctx, e.ID, "u2"); err != nil {
		t.Fatalf("register u2: %v", err)
	}
	if _, err := svc.Register(ctx, e.ID, "u3"); err != nil {
		t.Fatalf("register u3: %v", err)
	}

	if err := svc.Cancel(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	regs, err := svc.Registrations(ctx, e.ID)
	if err != nil {
		t.Fatalf("registrations: %v", err)
	}
	statuses := map[string]event.RegistrationStatus{}
	for _, r := range regs {
		statuses[r.UserID] = r.Status
	}
	if statuses["u1"] != event.StatusCancelled {
		t.Fatalf("u1 should be cancelled, got %s", statuses["u1"])
	}
	if statuses["u2"] != event.StatusConfirmed {
		t.Fatalf("u2 should be promoted first, got %s", statuses["u2"])
	}
	if statuses["u3"] != event.StatusWaitlisted {
		t.Fatalf("u3 should stay waitlisted, got %s", statuses["u3"])
	}
}

func TestCancelledUserCanRegisterAgain(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 2)

	if _, err := svc.Register(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Cancel(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	reg, err := svc.Register(ctx, e.ID, "u1")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if reg.Status != event.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", reg.Status)
	}
}

func TestCapacityGrowthPromotesWaitlist(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 1)

	if _, err := svc.Register(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("register u1: %v", err)
	}
	if _, err := svc.Register(ctx, e.ID, "u2"); err != nil {
		t.Fatalf("register u2: %v", err)
	}

	e.Capacity = 2
	if _, err := svc.Update(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}

	a, err := svc.Availability(ctx, e.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if a.Confirmed != 2 || a.Waitlisted != 0 {
		t.Fatalf("expected promotion after capacity growth, got %+v", a)
	}
}

func TestCapacityCannotDropBelowConfirmed(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	e := createPublished(t, svc, 2)

	if _, err := svc.Register(ctx, e.ID, "u1"); err != nil {
		t.Fatalf("register u1: %v", err)
	}
	if _, err := svc.Register(ctx, e.ID, "u2"); err != nil {
		t.Fatalf("register u2: %v", err)
	}

	e.Capacity = 1
	if _, err := svc.Update(ctx, e); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterUnpublishedEventNotFound(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	e, err := svc.Create(ctx, event.Event{
		Title:    "Draft",
		StartsAt: time.Now().Add(time.Hour),
		Capacity: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Register(ctx, e.ID, "u1"); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
