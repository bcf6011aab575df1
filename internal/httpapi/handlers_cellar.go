package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/domain/catalog"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/middleware"
)

// --- producers ---

type producerPayload struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Story    string `json:"story"`
	PhotoKey string `json:"photo_key"`
}

func (h *handler) listProducers(w http.ResponseWriter, r *http.Request) {
	producers, err := h.cfg.Catalog.ListProducers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, producers)
}

func (h *handler) getProducer(w http.ResponseWriter, r *http.Request) {
	p, err := h.cfg.Catalog.GetProducer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) createProducer(w http.ResponseWriter, r *http.Request) {
	var p producerPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	created, err := h.cfg.Catalog.CreateProducer(r.Context(), catalog.Producer{
		Name:     p.Name,
		Region:   p.Region,
		Story:    p.Story,
		PhotoKey: p.PhotoKey,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) updateProducer(w http.ResponseWriter, r *http.Request) {
	var p producerPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Catalog.UpdateProducer(r.Context(), catalog.Producer{
		ID:       mux.Vars(r)["id"],
		Name:     p.Name,
		Region:   p.Region,
		Story:    p.Story,
		PhotoKey: p.PhotoKey,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// --- coffrets ---

type coffretPayload struct {
	ProducerID  string `json:"producer_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
}

func (h *handler) listCoffrets(w http.ResponseWriter, r *http.Request) {
	inStockOnly := r.URL.Query().Get("in_stock") == "true"
	coffrets, err := h.cfg.Catalog.ListCoffrets(r.Context(), inStockOnly)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, coffrets)
}

func (h *handler) getCoffret(w http.ResponseWriter, r *http.Request) {
	c, err := h.cfg.Catalog.GetCoffret(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) createCoffret(w http.ResponseWriter, r *http.Request) {
	var p coffretPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	created, err := h.cfg.Catalog.CreateCoffret(r.Context(), catalog.Coffret{
		ProducerID:  p.ProducerID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) updateCoffret(w http.ResponseWriter, r *http.Request) {
	var p coffretPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Catalog.UpdateCoffret(r.Context(), catalog.Coffret{
		ID:          mux.Vars(r)["id"],
		ProducerID:  p.ProducerID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// --- adoption plans ---

type adoptPayload struct {
	ProducerID string `json:"producer_id"`
	PlotName   string `json:"plot_name"`
	TermYears  int    `json:"term_years"`
}

func (h *handler) adoptPlot(w http.ResponseWriter, r *http.Request) {
	var p adoptPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	plan, err := h.cfg.Catalog.AdoptPlot(r.Context(), middleware.GetUserID(r.Context()), p.ProducerID, p.PlotName, p.TermYears)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.cfg.Catalog.ListPlans(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plans)
}

func (h *handler) renewPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.cfg.Catalog.RenewPlan(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *handler) cancelPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.cfg.Catalog.CancelPlan(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}
