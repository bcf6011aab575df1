package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/metrics"
)

// MetricsMiddleware records HTTP metrics for each request. The mux route
// template is used as the path label to keep cardinality bounded.
func MetricsMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.IncInFlight()
			defer metrics.DecInFlight()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			metrics.RecordHTTPRequest(
				logging.GetSite(r.Context()),
				r.Method,
				path,
				strconv.Itoa(wrapped.statusCode),
				time.Since(start),
			)
		})
	}
}
