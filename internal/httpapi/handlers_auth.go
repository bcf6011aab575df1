package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/middleware"
)

type registerPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := h.cfg.Users.Register(r.Context(), p.Email, p.Password, p.DisplayName)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, token, err := h.cfg.Users.Login(r.Context(), p.Email, p.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// logout revokes the presented token. Revocation lives in the cache; when no
// cache is configured the token simply runs out its lifetime.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		httputil.Unauthorized(w, "")
		return
	}
	tokenID := logging.GetTokenID(r.Context())
	if tokenID != "" {
		if err := h.cfg.Cache.RevokeToken(r.Context(), tokenID); err != nil {
			httputil.WriteError(w, r, errors.Dependency("cache", err))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		httputil.Unauthorized(w, "")
		return
	}
	u, err := h.cfg.Users.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type updateMePayload struct {
	DisplayName string `json:"display_name"`
}

func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		httputil.Unauthorized(w, "")
		return
	}
	var p updateMePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := h.cfg.Users.UpdateDisplayName(r.Context(), userID, p.DisplayName)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		httputil.Unauthorized(w, "")
		return
	}
	section := r.URL.Query().Get("section")
	if section == "" {
		section = "misc"
	}
	key, err := h.cfg.Assets.Upload(r.Context(), section, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *handler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	if key == "" {
		httputil.WriteError(w, r, errors.NotFound("asset"))
		return
	}
	if err := h.cfg.Assets.Delete(r.Context(), key); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) serveAsset(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/assets/")
	if key == "" {
		httputil.WriteError(w, r, errors.NotFound("asset"))
		return
	}
	obj, err := h.cfg.Assets.Get(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, obj.Body)
}
