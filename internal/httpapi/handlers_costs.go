package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/httputil"
)

type importResponse struct {
	Imported int `json:"imported"`
}

func (h *handler) importCosts(w http.ResponseWriter, r *http.Request) {
	n, err := h.cfg.Costs.Import(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, importResponse{Imported: n})
}

func (h *handler) listCostEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.cfg.Costs.Entries(r.Context(), q.Get("project"), q.Get("month"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *handler) listRollups(w http.ResponseWriter, r *http.Request) {
	rollups, err := h.cfg.Costs.Rollups(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rollups)
}

func (h *handler) recomputeRollups(w http.ResponseWriter, r *http.Request) {
	rollups, err := h.cfg.Costs.Rollup(r.Context(), mux.Vars(r)["month"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rollups)
}

func (h *handler) systemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.cfg.Health.System(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}
