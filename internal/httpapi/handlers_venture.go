package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/domain/venture"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/middleware"
)

type founderPayload struct {
	Company      string   `json:"company"`
	Pitch        string   `json:"pitch"`
	SkillsHave   []string `json:"skills_have"`
	SkillsWanted []string `json:"skills_wanted"`
}

func (p founderPayload) toDomain(userID string) venture.Founder {
	return venture.Founder{
		UserID:       userID,
		Company:      p.Company,
		Pitch:        p.Pitch,
		SkillsHave:   p.SkillsHave,
		SkillsWanted: p.SkillsWanted,
	}
}

func (h *handler) listFounders(w http.ResponseWriter, r *http.Request) {
	founders, err := h.cfg.Ventures.ListFounders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, founders)
}

func (h *handler) createFounder(w http.ResponseWriter, r *http.Request) {
	var p founderPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	f, err := h.cfg.Ventures.CreateFounder(r.Context(), p.toDomain(middleware.GetUserID(r.Context())))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, f)
}

func (h *handler) myFounder(w http.ResponseWriter, r *http.Request) {
	f, err := h.cfg.Ventures.GetFounderByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

func (h *handler) updateMyFounder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var p founderPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	f, err := h.cfg.Ventures.UpdateFounder(r.Context(), userID, p.toDomain(userID))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

type matchRequestPayload struct {
	ToFounder string `json:"to_founder"`
	Message   string `json:"message"`
}

func (h *handler) requestMatch(w http.ResponseWriter, r *http.Request) {
	var p matchRequestPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	req, err := h.cfg.Ventures.RequestMatch(r.Context(), middleware.GetUserID(r.Context()), p.ToFounder, p.Message)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *handler) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.cfg.Ventures.Matches(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

type matchResponsePayload struct {
	Accept bool `json:"accept"`
}

func (h *handler) respondToMatch(w http.ResponseWriter, r *http.Request) {
	var p matchResponsePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	req, err := h.cfg.Ventures.RespondToMatch(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"], p.Accept)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}
