// Package httpapi exposes the platform's REST API. A single listener serves
// every brand; the request host selects which site's routes apply.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/cache"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
	"github.com/webatelier/platform/internal/middleware"
	"github.com/webatelier/platform/internal/services/assets"
	catalogsvc "github.com/webatelier/platform/internal/services/catalog"
	costssvc "github.com/webatelier/platform/internal/services/costs"
	eventssvc "github.com/webatelier/platform/internal/services/events"
	healthsvc "github.com/webatelier/platform/internal/services/health"
	journeyssvc "github.com/webatelier/platform/internal/services/journeys"
	profilessvc "github.com/webatelier/platform/internal/services/profiles"
	userssvc "github.com/webatelier/platform/internal/services/users"
	venturessvc "github.com/webatelier/platform/internal/services/ventures"
)

// Site keys, matched against the sites section of the configuration.
const (
	SiteCrush     = "crush"
	SiteCellar    = "cellar"
	SiteVenture   = "venture"
	SiteCosts     = "costs"
	SiteMarketing = "marketing"
)

// Config bundles the dependencies of the HTTP layer.
type Config struct {
	Logger   *logging.Logger
	Issuer   *auth.TokenIssuer
	Resolver middleware.SiteResolver
	Cache    *cache.Cache

	Users    *userssvc.Service
	Profiles *profilessvc.Service
	Events   *eventssvc.Service
	Journeys *journeyssvc.Service
	Catalog  *catalogsvc.Service
	Ventures *venturessvc.Service
	Costs    *costssvc.Service
	Assets   *assets.Service
	Health   *healthsvc.Service

	OriginsBySite map[string][]string
	RatePerSecond int
	RateBurst     int

	AuditMaxEntries int
	AuditFilePath   string
}

// Router dispatches requests to the site selected by the request host.
type Router struct {
	handler http.Handler
	sites   map[string]*mux.Router
	audit   *auditLog
}

// passPaths bypass host resolution and authentication so platform probes
// work with arbitrary host headers.
var passPaths = []string{"/healthz", "/readyz", "/metrics"}

// authSkipPaths are reachable without a token on every site.
var authSkipPaths = []string{"/", "/api/auth/register", "/api/auth/login"}

// authSkipPrefixes are public subtrees: health probes, metrics, served
// assets and marketing pages.
var authSkipPrefixes = []string{"/healthz", "/readyz", "/metrics", "/assets/", "/pages"}

// New builds the router and its middleware chain.
func New(cfg Config) (*Router, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefault("httpapi")
	}

	sink, err := newFileAuditSink(cfg.AuditFilePath)
	if err != nil {
		return nil, err
	}
	audit := newAuditLog(cfg.AuditMaxEntries, sink)

	r := &Router{
		sites: make(map[string]*mux.Router),
		audit: audit,
	}

	h := &handler{cfg: cfg, audit: audit}
	r.sites[SiteCrush] = h.crushRoutes()
	r.sites[SiteCellar] = h.cellarRoutes()
	r.sites[SiteVenture] = h.ventureRoutes()
	r.sites[SiteCosts] = h.costsRoutes()
	r.sites[SiteMarketing] = h.marketingRoutes()

	dispatch := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		site := logging.GetSite(req.Context())
		siteRouter, ok := r.sites[site]
		if !ok {
			siteRouter = r.sites[SiteMarketing]
		}
		siteRouter.ServeHTTP(w, req)
	})

	// Innermost to outermost: audit -> rate limit -> auth -> CORS -> host
	// -> tracing. Auth runs before the limiter so authenticated clients
	// are budgeted per user rather than per address. Probes and metrics
	// are handled before host resolution.
	var chain http.Handler = dispatch
	chain = audit.middleware(chain)

	if cfg.RatePerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst, cfg.Logger)
		limiter.StartCleanup(0)
		chain = limiter.Handler(chain)
	}

	authMW := middleware.NewAuthMiddleware(cfg.Issuer, cfg.Cache, cfg.Logger, authSkipPaths, authSkipPrefixes)
	chain = authMW.Handler(chain)

	chain = middleware.NewCORSMiddleware(cfg.OriginsBySite).Handler(chain)
	chain = middleware.NewHostMiddleware(cfg.Resolver, passPaths).Handler(chain)

	root := http.NewServeMux()
	root.HandleFunc("/healthz", h.liveness)
	root.HandleFunc("/readyz", h.readiness)
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/", chain)

	r.handler = middleware.NewTracingMiddleware(cfg.Logger).Handler(root)
	return r, nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// handler implements the per-site endpoints.
type handler struct {
	cfg   Config
	audit *auditLog
}

func (h *handler) newSiteRouter(site string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteErrorResponse(w, req, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	// Account endpoints exist on every site.
	r.HandleFunc("/api/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/api/me", h.me).Methods(http.MethodGet)
	r.HandleFunc("/api/me", h.updateMe).Methods(http.MethodPut)

	r.HandleFunc("/api/assets", h.uploadAsset).Methods(http.MethodPost)
	r.PathPrefix("/api/assets/").Handler(adminOnly(h.deleteAsset)).Methods(http.MethodDelete)
	r.PathPrefix("/assets/").HandlerFunc(h.serveAsset).Methods(http.MethodGet)
	return r
}

func (h *handler) crushRoutes() *mux.Router {
	r := h.newSiteRouter(SiteCrush)

	r.HandleFunc("/api/profiles", h.browseProfiles).Methods(http.MethodGet)
	r.HandleFunc("/api/profiles", h.createProfile).Methods(http.MethodPost)
	r.HandleFunc("/api/profiles/me", h.myProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/profiles/me", h.updateMyProfile).Methods(http.MethodPut)

	r.HandleFunc("/api/coaches", h.listCoaches).Methods(http.MethodGet)
	r.HandleFunc("/api/coaches/apply", h.applyAsCoach).Methods(http.MethodPost)

	r.HandleFunc("/api/events", h.listEvents).Methods(http.MethodGet)
	r.Handle("/api/events", organizerOnly(h.createEvent)).Methods(http.MethodPost)
	r.HandleFunc("/api/events/{id}", h.getEvent).Methods(http.MethodGet)
	r.Handle("/api/events/{id}", organizerOnly(h.updateEvent)).Methods(http.MethodPut)
	r.Handle("/api/events/{id}/publish", organizerOnly(h.publishEvent)).Methods(http.MethodPost)
	r.HandleFunc("/api/events/{id}/register", h.registerForEvent).Methods(http.MethodPost)
	r.HandleFunc("/api/events/{id}/register", h.cancelRegistration).Methods(http.MethodDelete)
	r.HandleFunc("/api/events/{id}/availability", h.eventAvailability).Methods(http.MethodGet)
	r.HandleFunc("/api/events/{id}/availability/ws", h.availabilityFeed).Methods(http.MethodGet)
	r.Handle("/api/events/{id}/registrations", organizerOnly(h.eventRegistrations)).Methods(http.MethodGet)

	r.HandleFunc("/api/journeys", h.listJourneys).Methods(http.MethodGet)
	r.Handle("/api/journeys", adminOnly(h.createJourney)).Methods(http.MethodPost)
	r.HandleFunc("/api/journeys/{id}", h.getJourney).Methods(http.MethodGet)
	r.Handle("/api/journeys/{id}/chapters", adminOnly(h.addChapter)).Methods(http.MethodPost)
	r.Handle("/api/chapters/{id}/challenges", adminOnly(h.addChallenge)).Methods(http.MethodPost)
	r.Handle("/api/chapters/{id}/rewards", adminOnly(h.addReward)).Methods(http.MethodPost)
	r.HandleFunc("/api/journeys/{id}/enroll", h.enroll).Methods(http.MethodPost)
	r.HandleFunc("/api/journeys/{id}/progress", h.journeyProgress).Methods(http.MethodGet)
	r.HandleFunc("/api/challenges/{id}/complete", h.completeChallenge).Methods(http.MethodPost)

	h.adminRoutes(r)
	r.Handle("/api/admin/profiles/pending", adminOnly(h.pendingProfiles)).Methods(http.MethodGet)
	r.Handle("/api/admin/profiles/{id}/moderate", adminOnly(h.moderateProfile)).Methods(http.MethodPost)
	r.Handle("/api/admin/coaches/pending", adminOnly(h.pendingCoaches)).Methods(http.MethodGet)
	r.Handle("/api/admin/coaches/{id}/moderate", adminOnly(h.moderateCoach)).Methods(http.MethodPost)
	return r
}

func (h *handler) cellarRoutes() *mux.Router {
	r := h.newSiteRouter(SiteCellar)

	r.HandleFunc("/api/producers", h.listProducers).Methods(http.MethodGet)
	r.Handle("/api/producers", adminOnly(h.createProducer)).Methods(http.MethodPost)
	r.HandleFunc("/api/producers/{id}", h.getProducer).Methods(http.MethodGet)
	r.Handle("/api/producers/{id}", adminOnly(h.updateProducer)).Methods(http.MethodPut)

	r.HandleFunc("/api/coffrets", h.listCoffrets).Methods(http.MethodGet)
	r.Handle("/api/coffrets", adminOnly(h.createCoffret)).Methods(http.MethodPost)
	r.HandleFunc("/api/coffrets/{id}", h.getCoffret).Methods(http.MethodGet)
	r.Handle("/api/coffrets/{id}", adminOnly(h.updateCoffret)).Methods(http.MethodPut)

	r.HandleFunc("/api/plans", h.listPlans).Methods(http.MethodGet)
	r.HandleFunc("/api/plans", h.adoptPlot).Methods(http.MethodPost)
	r.HandleFunc("/api/plans/{id}/renew", h.renewPlan).Methods(http.MethodPost)
	r.HandleFunc("/api/plans/{id}/cancel", h.cancelPlan).Methods(http.MethodPost)

	h.adminRoutes(r)
	return r
}

func (h *handler) ventureRoutes() *mux.Router {
	r := h.newSiteRouter(SiteVenture)

	r.HandleFunc("/api/founders", h.listFounders).Methods(http.MethodGet)
	r.HandleFunc("/api/founders", h.createFounder).Methods(http.MethodPost)
	r.HandleFunc("/api/founders/me", h.myFounder).Methods(http.MethodGet)
	r.HandleFunc("/api/founders/me", h.updateMyFounder).Methods(http.MethodPut)

	r.HandleFunc("/api/matches", h.listMatches).Methods(http.MethodGet)
	r.HandleFunc("/api/matches", h.requestMatch).Methods(http.MethodPost)
	r.HandleFunc("/api/matches/{id}/respond", h.respondToMatch).Methods(http.MethodPost)

	h.adminRoutes(r)
	return r
}

func (h *handler) costsRoutes() *mux.Router {
	r := h.newSiteRouter(SiteCosts)

	r.Handle("/api/costs/import", adminOnly(h.importCosts)).Methods(http.MethodPost)
	r.Handle("/api/costs/entries", adminOnly(h.listCostEntries)).Methods(http.MethodGet)
	r.Handle("/api/costs/rollups", adminOnly(h.listRollups)).Methods(http.MethodGet)
	r.Handle("/api/costs/rollups/{month}", adminOnly(h.recomputeRollups)).Methods(http.MethodPost)
	r.Handle("/api/system", adminOnly(h.systemInfo)).Methods(http.MethodGet)
	r.Handle("/health/system", adminOnly(h.systemInfo)).Methods(http.MethodGet)

	h.adminRoutes(r)
	return r
}

func (h *handler) marketingRoutes() *mux.Router {
	r := h.newSiteRouter(SiteMarketing)
	r.HandleFunc("/", h.marketingHome).Methods(http.MethodGet)
	r.HandleFunc("/pages/{slug}", h.marketingPage).Methods(http.MethodGet)
	return r
}

// adminRoutes registers account administration on a site router.
func (h *handler) adminRoutes(r *mux.Router) {
	r.Handle("/api/admin/users", adminOnly(h.listUsers)).Methods(http.MethodGet)
	r.Handle("/api/admin/users/{id}/role", adminOnly(h.setUserRole)).Methods(http.MethodPost)
	r.Handle("/api/admin/users/{id}/active", adminOnly(h.setUserActive)).Methods(http.MethodPost)
	r.Handle("/api/admin/audit", adminOnly(h.auditEntries)).Methods(http.MethodGet)
}

func adminOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireRole("admin")(fn)
}

func organizerOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireRole("coach", "admin")(fn)
}
