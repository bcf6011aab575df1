package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/domain/user"
	"github.com/webatelier/platform/internal/httputil"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.cfg.Users.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

type rolePayload struct {
	Role string `json:"role"`
}

func (h *handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	var p rolePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := h.cfg.Users.SetRole(r.Context(), mux.Vars(r)["id"], user.Role(p.Role))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type activePayload struct {
	Active bool `json:"active"`
}

func (h *handler) setUserActive(w http.ResponseWriter, r *http.Request) {
	var p activePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := h.cfg.Users.SetActive(r.Context(), mux.Vars(r)["id"], p.Active)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) auditEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	httputil.WriteJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

// --- moderation ---

type moderatePayload struct {
	Approve bool `json:"approve"`
}

func (h *handler) pendingProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.cfg.Profiles.PendingProfiles(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

func (h *handler) moderateProfile(w http.ResponseWriter, r *http.Request) {
	var p moderatePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Profiles.ModerateProfile(r.Context(), mux.Vars(r)["id"], p.Approve)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) pendingCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.cfg.Profiles.PendingCoaches(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, coaches)
}

func (h *handler) moderateCoach(w http.ResponseWriter, r *http.Request) {
	var p moderatePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Profiles.ModerateCoach(r.Context(), mux.Vars(r)["id"], p.Approve)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
