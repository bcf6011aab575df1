package httpapi

import (
	"net/http"

	"github.com/webatelier/platform/internal/httputil"
)

// liveness answers as long as the process runs. It bypasses host
// resolution and authentication.
func (h *handler) liveness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness pings the configured dependencies.
func (h *handler) readiness(w http.ResponseWriter, r *http.Request) {
	status := h.cfg.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}
