package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webatelier/platform/internal/auth"
)

func newTestAuth(t *testing.T) (*AuthMiddleware, *auth.TokenIssuer) {
	t.Helper()
	issuer := auth.NewTokenIssuer([]byte("mw-test-secret"), "test", time.Hour)
	mw := NewAuthMiddleware(issuer, nil, nil, []string{"/api/auth/login"}, []string{"/health"})
	return mw, issuer
}

func TestAuthRejectsMissingToken(t *testing.T) {
	mw, _ := newTestAuth(t)
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	mw, _ := newTestAuth(t)
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthSkipsConfiguredPaths(t *testing.T) {
	mw, _ := newTestAuth(t)
	var called bool
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if !called {
		t.Fatal("skip path should bypass auth")
	}

	called = false
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if !called {
		t.Fatal("skip prefix should bypass auth")
	}
}

func TestAuthStoresClaimsInContext(t *testing.T) {
	mw, issuer := newTestAuth(t)
	token, err := issuer.Issue("u-42", "x@example.fr", "coach")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var userID, role string
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = GetUserID(r.Context())
		role = GetUserRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if userID != "u-42" {
		t.Fatalf("expected user id in context, got %q", userID)
	}
	if role != "coach" {
		t.Fatalf("expected role in context, got %q", role)
	}
}

type stubRevoker struct {
	revoked map[string]bool
}

func (s *stubRevoker) IsTokenRevoked(_ context.Context, tokenID string) bool {
	return s.revoked[tokenID]
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("mw-test-secret"), "test", time.Hour)
	revoker := &stubRevoker{revoked: map[string]bool{}}
	mw := NewAuthMiddleware(issuer, revoker, nil, nil, nil)

	token, err := issuer.Issue("u-42", "x@example.fr", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	var calls int
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || calls != 1 {
		t.Fatalf("expected token to pass before revocation, got %d", rec.Code)
	}

	revoker.revoked[claims.ID] = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.Clone(req.Context()))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revocation, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatal("handler should not run with a revoked token")
	}
}

func TestRequireRole(t *testing.T) {
	mw, issuer := newTestAuth(t)
	memberToken, _ := issuer.Issue("u-1", "", "member")
	adminToken, _ := issuer.Issue("u-2", "", "admin")

	protected := mw.Handler(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin, got %d", rec.Code)
	}
}
