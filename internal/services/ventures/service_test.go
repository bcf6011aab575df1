package ventures

import (
	"context"
	"testing"

	"github.com/webatelier/platform/internal/domain/venture"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/storage"
)

func newService(t *testing.T) (*Service, venture.Founder, venture.Founder) {
	t.Helper()
	ctx := context.Background()
	svc := New(storage.NewMemory(), nil)

	alice, err := svc.CreateFounder(ctx, venture.Founder{
		UserID:       "u-alice",
		Company:      "Vigne & Code",
		Pitch:        "SaaS pour vignerons",
		SkillsHave:   []string{"product"},
		SkillsWanted: []string{"go"},
	})
	if err != nil {
		t.Fatalf("create founder alice: %v", err)
	}
	bob, err := svc.CreateFounder(ctx, venture.Founder{
		UserID:  "u-bob",
		Company: "Atelier Bob",
	})
	if err != nil {
		t.Fatalf("create founder bob: %v", err)
	}
	return svc, alice, bob
}

func TestOneFounderProfilePerUser(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateFounder(ctx, venture.Founder{UserID: "u-alice", Company: "Autre"})
	if !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRequestMatch(t *testing.T) {
	svc, _, bob := newService(t)
	ctx := context.Background()

	req, err := svc.RequestMatch(ctx, "u-alice", bob.ID, "On discute ?")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != venture.MatchPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}

	// A second pending request to the same founder is rejected.
	if _, err := svc.RequestMatch(ctx, "u-alice", bob.ID, "relance"); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRequestMatchWithSelf(t *testing.T) {
	svc, alice, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.RequestMatch(ctx, "u-alice", alice.ID, ""); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRespondToMatch(t *testing.T) {
	svc, _, bob := newService(t)
	ctx := context.Background()

	req, err := svc.RequestMatch(ctx, "u-alice", bob.ID, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Only the addressee may answer.
	if _, err := svc.RespondToMatch(ctx, "u-alice", req.ID, true); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	answered, err := svc.RespondToMatch(ctx, "u-bob", req.ID, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if answered.Status != venture.MatchAccepted {
		t.Fatalf("expected accepted, got %s", answered.Status)
	}

	// Answering twice conflicts.
	if _, err := svc.RespondToMatch(ctx, "u-bob", req.ID, false); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeclinedAllowsNewRequest(t *testing.T) {
	svc, _, bob := newService(t)
	ctx := context.Background()

	req, err := svc.RequestMatch(ctx, "u-alice", bob.ID, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RespondToMatch(ctx, "u-bob", req.ID, false); err != nil {
		t.Fatalf("respond: %v", err)
	}

	if _, err := svc.RequestMatch(ctx, "u-alice", bob.ID, "deuxième essai"); err != nil {
		t.Fatalf("new request after decline: %v", err)
	}
}

func TestMatchesListsBothDirections(t *testing.T) {
	svc, alice, bob := newService(t)
	ctx := context.Background()

	if _, err := svc.RequestMatch(ctx, "u-alice", bob.ID, ""); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RequestMatch(ctx, "u-bob", alice.ID, ""); err != nil {
		t.Fatalf("request: %v", err)
	}

	mine, err := svc.Matches(ctx, "u-alice")
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(mine))
	}
}
