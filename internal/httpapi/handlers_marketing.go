package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/httputil"
)

// marketingPages are the static pages served on the fallback site. Unknown
// hosts land here too, so content stays brand neutral.
var marketingPages = map[string]map[string]string{
	"about": {
		"title": "L'atelier",
		"body":  "Un petit studio, plusieurs sites, une seule plateforme.",
	},
	"contact": {
		"title": "Contact",
		"body":  "Écrivez-nous : bonjour@webatelier.example",
	},
	"legal": {
		"title": "Mentions légales",
		"body":  "Hébergé en Union européenne.",
	},
}

func (h *handler) marketingHome(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"name":  "webatelier",
		"pages": []string{"about", "contact", "legal"},
	})
}

func (h *handler) marketingPage(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	page, ok := marketingPages[slug]
	if !ok {
		httputil.WriteErrorResponse(w, r, http.StatusNotFound, "not_found", "Page not found", nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
