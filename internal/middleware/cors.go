package middleware

import (
	"net/http"
	"strings"

	"github.com/webatelier/platform/internal/logging"
)

// CORSMiddleware handles cross-origin requests. Allowed origins are resolved
// per site so each brand only trusts its own frontends.
type CORSMiddleware struct {
	bySite   map[string][]string
	allowAll map[string]bool
}

// NewCORSMiddleware creates a CORS middleware from a site → allowed origins
// mapping.
func NewCORSMiddleware(originsBySite map[string][]string) *CORSMiddleware {
	allowAll := make(map[string]bool)
	for site, origins := range originsBySite {
		for _, origin := range origins {
			if origin == "*" {
				allowAll[site] = true
				break
			}
		}
	}
	return &CORSMiddleware{bySite: originsBySite, allowAll: allowAll}
}

// Handler returns the CORS middleware handler.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		site := logging.GetSite(r.Context())

		if origin != "" && (m.allowAll[site] || m.isOriginAllowed(site, origin)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Trace-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) isOriginAllowed(site, origin string) bool {
	for _, allowed := range m.bySite[site] {
		if allowed == origin || strings.HasSuffix(origin, allowed) {
			return true
		}
	}
	return false
}
