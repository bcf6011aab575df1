package profiles

import (
	"context"
	"testing"

	"github.com/webatelier/platform/internal/domain/profile"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/storage"
)

func newService(t *testing.T) (*Service, *storage.Memory, user.User) {
	t.Helper()
	store := storage.NewMemory()
	svc := New(store, store, nil)

	u, err := store.CreateUser(context.Background(), user.User{
		Email:  "a@example.com",
		Role:   user.RoleMember,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return svc, store, u
}

func validProfile(userID string) profile.Profile {
	return profile.Profile{
		UserID:   userID,
		Headline: "Bonjour",
		Bio:      "J'aime le vin",
		Age:      32,
		City:     "Lyon",
	}
}

func TestCreateProfileStartsPending(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProfile(ctx, validProfile(u.ID))
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if p.State != profile.StatePending {
		t.Fatalf("expected pending, got %s", p.State)
	}

	// Pending profiles are invisible to browsing.
	browsable, err := svc.Browse(ctx)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(browsable) != 0 {
		t.Fatalf("pending profile should not be browsable")
	}
}

func TestOneProfilePerUser(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateProfile(ctx, validProfile(u.ID)); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := svc.CreateProfile(ctx, validProfile(u.ID)); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCoachCannotCreateProfile(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	coach, err := store.CreateUser(ctx, user.User{Email: "c@example.com", Role: user.RoleCoach, Active: true})
	if err != nil {
		t.Fatalf("create coach user: %v", err)
	}

	if _, err := svc.CreateProfile(ctx, validProfile(coach.ID)); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAgeValidation(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	p := validProfile(u.ID)
	p.Age = 17
	if _, err := svc.CreateProfile(ctx, p); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestModerationApprovalMakesProfileBrowsable(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProfile(ctx, validProfile(u.ID))
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	pending, err := svc.PendingProfiles(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending profile, got %d", len(pending))
	}

	approved, err := svc.ModerateProfile(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if approved.State != profile.StateApproved {
		t.Fatalf("expected approved, got %s", approved.State)
	}

	browsable, err := svc.Browse(ctx)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(browsable) != 1 {
		t.Fatalf("expected 1 browsable profile, got %d", len(browsable))
	}
}

func TestEditRequeuesModeration(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProfile(ctx, validProfile(u.ID))
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := svc.ModerateProfile(ctx, p.ID, true); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	edit := validProfile(u.ID)
	edit.Headline = "Salut"
	updated, err := svc.UpdateProfile(ctx, u.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.State != profile.StatePending {
		t.Fatalf("edit should re-queue moderation, got %s", updated.State)
	}
}

func TestCoachApprovalPromotesRole(t *testing.T) {
	svc, store, u := newService(t)
	ctx := context.Background()

	c, err := svc.ApplyAsCoach(ctx, profile.Coach{
		UserID:          u.ID,
		Bio:             "Dix ans d'expérience",
		HourlyRateCents: 8000,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.State != profile.StatePending {
		t.Fatalf("expected pending, got %s", c.State)
	}

	if _, err := svc.ModerateCoach(ctx, c.ID, true); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	promoted, err := store.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if promoted.Role != user.RoleCoach {
		t.Fatalf("expected coach role after approval, got %s", promoted.Role)
	}

	coaches, err := svc.ListCoaches(ctx)
	if err != nil {
		t.Fatalf("list coaches: %v", err)
	}
	if len(coaches) != 1 {
		t.Fatalf("expected 1 approved coach, got %d", len(coaches))
	}
}

func TestCoachRejectionKeepsMemberRole(t *testing.T) {
	svc, store, u := newService(t)
	ctx := context.Background()

	c, err := svc.ApplyAsCoach(ctx, profile.Coach{UserID: u.ID, Bio: "Expérience"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.ModerateCoach(ctx, c.ID, false); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	after, err := store.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if after.Role != user.RoleMember {
		t.Fatalf("rejected applicant must stay member, got %s", after.Role)
	}
}
