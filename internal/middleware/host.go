package middleware

import (
	"net/http"

	"github.com/webatelier/platform/internal/logging"
)

// SiteResolver maps a request host to a site key.
type SiteResolver interface {
	SiteForHost(host string) string
}

// HostMiddleware resolves the request host to a site and stores it in the
// request context. Health and metrics paths skip resolution so platform
// probes work with arbitrary host headers.
type HostMiddleware struct {
	resolver  SiteResolver
	passPaths map[string]bool
}

// NewHostMiddleware creates the host resolution middleware.
func NewHostMiddleware(resolver SiteResolver, passPaths []string) *HostMiddleware {
	pass := make(map[string]bool)
	for _, p := range passPaths {
		pass[p] = true
	}
	return &HostMiddleware{resolver: resolver, passPaths: pass}
}

// Handler returns the middleware handler.
func (m *HostMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.passPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		site := m.resolver.SiteForHost(r.Host)
		ctx := logging.WithSite(r.Context(), site)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSite extracts the resolved site from context.
func GetSite(r *http.Request) string {
	return logging.GetSite(r.Context())
}
