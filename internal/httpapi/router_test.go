package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/config"
	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/services/assets"
	catalogsvc "github.com/webatelier/platform/internal/services/catalog"
	costssvc "github.com/webatelier/platform/internal/services/costs"
	eventssvc "github.com/webatelier/platform/internal/services/events"
	healthsvc "github.com/webatelier/platform/internal/services/health"
	journeyssvc "github.com/webatelier/platform/internal/services/journeys"
	profilessvc "github.com/webatelier/platform/internal/services/profiles"
	userssvc "github.com/webatelier/platform/internal/services/users"
	venturessvc "github.com/webatelier/platform/internal/services/ventures"
	"github.com/webatelier/platform/internal/media"
	"github.com/webatelier/platform/internal/storage"
)

type nullFetcher struct{}

func (nullFetcher) Fetch(context.Context, string) ([]byte, error) {
	return []byte(`{"rows":[]}`), nil
}

type testEnv struct {
	router *Router
	users  *userssvc.Service
	events *eventssvc.Service
	issuer *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Sites = map[string]config.SiteConfig{
		SiteCrush:     {Hosts: []string{"crush.test"}},
		SiteCellar:    {Hosts: []string{"cellar.test"}},
		SiteVenture:   {Hosts: []string{"venture.test"}},
		SiteCosts:     {Hosts: []string{"costs.test"}},
		SiteMarketing: {Hosts: []string{"webatelier.test"}},
	}

	store := storage.NewMemory()
	issuer := auth.NewTokenIssuer([]byte("test-secret"), "test", time.Hour)

	usersSvc := userssvc.New(store, issuer, nil)
	eventsSvc := eventssvc.New(store, nil, nil)

	router, err := New(Config{
		Issuer:   issuer,
		Resolver: cfg,
		Users:    usersSvc,
		Profiles: profilessvc.New(store, store, nil),
		Events:   eventsSvc,
		Journeys: journeyssvc.New(store, nil),
		Catalog:  catalogsvc.New(store, nil),
		Ventures: venturessvc.New(store, nil),
		Costs:    costssvc.New(store, nullFetcher{}, "https://costs.test/export", nil),
		Assets:   assets.New(media.NewMemory(), nil),
		Health:   healthsvc.New(nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return &testEnv{router: router, users: usersSvc, events: eventsSvc, issuer: issuer}
}

// signUp registers a user, optionally promotes it, and returns a token.
func (e *testEnv) signUp(t *testing.T, email string, role user.Role) (user.User, string) {
	t.Helper()
	ctx := context.Background()

	u, err := e.users.Register(ctx, email, "s3cret-pass", "Test User")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if role != user.RoleMember {
		if u, err = e.users.SetRole(ctx, u.ID, role); err != nil {
			t.Fatalf("set role: %v", err)
		}
	}
	token, err := e.issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u, token
}

func (e *testEnv) do(t *testing.T, method, host, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Host = host
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %s: %v", rec.Body.String(), err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "crush.test", "/api/auth/register", "", map[string]string{
		"email":        "alice@example.fr",
		"password":     "s3cret-pass",
		"display_name": "Alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "crush.test", "/api/auth/login", "", map[string]string{
		"email":    "alice@example.fr",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decodeInto(t, rec, &login)
	if login.Token == "" {
		t.Fatal("expected a token")
	}

	rec = env.do(t, http.MethodGet, "crush.test", "/api/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "crush.test", "/api/profiles", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUnknownHostFallsBackToMarketing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "random.example.org", "/pages/about", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected marketing page, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "webatelier.test", "/pages/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown page, got %d", rec.Code)
	}
}

func TestSitesAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "bob@example.fr", user.RoleMember)

	// The wine catalog does not exist on the dating site.
	rec := env.do(t, http.MethodGet, "crush.test", "/api/producers", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on crush, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "cellar.test", "/api/producers", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on cellar, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthBypassesHostAndAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "10.0.0.1:8080", "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "10.0.0.1:8080", "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesEnforceRole(t *testing.T) {
	env := newTestEnv(t)
	_, memberToken := env.signUp(t, "member@example.fr", user.RoleMember)
	_, adminToken := env.signUp(t, "admin@example.fr", user.RoleAdmin)

	rec := env.do(t, http.MethodGet, "crush.test", "/api/admin/users", memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "crush.test", "/api/admin/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEventRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.signUp(t, "orga@example.fr", user.RoleAdmin)
	_, memberToken := env.signUp(t, "membre@example.fr", user.RoleMember)

	rec := env.do(t, http.MethodPost, "crush.test", "/api/events", adminToken, map[string]interface{}{
		"title":     "Soirée dégustation",
		"location":  "Paris 11e",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"capacity":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &created)

	// Unpublished events are invisible to members.
	rec = env.do(t, http.MethodPost, "crush.test", fmt.Sprintf("/api/events/%s/register", created.ID), memberToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before publish, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "crush.test", fmt.Sprintf("/api/events/%s/publish", created.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "crush.test", fmt.Sprintf("/api/events/%s/register", created.ID), memberToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		Status string `json:"status"`
	}
	decodeInto(t, rec, &reg)
	if reg.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %q", reg.Status)
	}

	// Capacity 1 is now exhausted; the next registration waits.
	_, otherToken := env.signUp(t, "autre@example.fr", user.RoleMember)
	rec = env.do(t, http.MethodPost, "crush.test", fmt.Sprintf("/api/events/%s/register", created.ID), otherToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second register: %d %s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &reg)
	if reg.Status != "waitlisted" {
		t.Fatalf("expected waitlisted, got %q", reg.Status)
	}

	rec = env.do(t, http.MethodGet, "crush.test", fmt.Sprintf("/api/events/%s/availability", created.ID), memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}
	var avail struct {
		Confirmed  int `json:"confirmed"`
		Waitlisted int `json:"waitlisted"`
	}
	decodeInto(t, rec, &avail)
	if avail.Confirmed != 1 || avail.Waitlisted != 1 {
		t.Fatalf("unexpected availability %+v", avail)
	}
}

func TestEventCreationRequiresOrganizerRole(t *testing.T) {
	env := newTestEnv(t)
	_, memberToken := env.signUp(t, "simple@example.fr", user.RoleMember)

	rec := env.do(t, http.MethodPost, "crush.test", "/api/events", memberToken, map[string]interface{}{
		"title":     "Apéro sauvage",
		"starts_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		"capacity":  10,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCostsRoutesAreAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, memberToken := env.signUp(t, "curieux@example.fr", user.RoleMember)
	_, adminToken := env.signUp(t, "ops@example.fr", user.RoleAdmin)

	rec := env.do(t, http.MethodGet, "costs.test", "/api/costs/entries", memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "costs.test", "/api/costs/entries", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMutatingRequestsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.signUp(t, "audit@example.fr", user.RoleAdmin)

	env.do(t, http.MethodPost, "venture.test", "/api/founders", adminToken, map[string]string{
		"company": "Atelier Nord",
	})

	rec := env.do(t, http.MethodGet, "venture.test", "/api/admin/audit", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: %d %s", rec.Code, rec.Body.String())
	}
	var entries []auditEntry
	decodeInto(t, rec, &entries)
	if len(entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
	found := false
	for _, e := range entries {
		if e.Path == "/api/founders" && e.Site == SiteVenture {
			found = true
		}
	}
	if !found {
		t.Fatalf("founder creation not audited: %+v", entries)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "sortie@example.fr", user.RoleMember)

	rec := env.do(t, http.MethodPost, "crush.test", "/api/auth/logout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Without a revocation store the call is a no-op but still succeeds.
	rec = env.do(t, http.MethodPost, "crush.test", "/api/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAssetUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "photo@example.fr", user.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/assets?section=profiles", bytes.NewReader([]byte("fake-png")))
	req.Host = "crush.test"
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var up struct {
		Key string `json:"key"`
	}
	decodeInto(t, rec, &up)

	// Serving is public.
	rec = env.do(t, http.MethodGet, "crush.test", "/assets/"+up.Key, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "fake-png" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAssetDeletionIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, memberToken := env.signUp(t, "membre2@example.fr", user.RoleMember)
	_, adminToken := env.signUp(t, "moderateur@example.fr", user.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/assets?section=profiles", bytes.NewReader([]byte("fake-jpg")))
	req.Host = "crush.test"
	req.Header.Set("Authorization", "Bearer "+memberToken)
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var up struct {
		Key string `json:"key"`
	}
	decodeInto(t, rec, &up)

	rec = env.do(t, http.MethodDelete, "crush.test", "/api/assets/"+up.Key, memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "crush.test", "/api/assets/"+up.Key, adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "crush.test", "/assets/"+up.Key, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "crush.test", "/api/assets/"+up.Key, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing asset, got %d", rec.Code)
	}
}
