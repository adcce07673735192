package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// renderPage writes the collection page with status. A failed load is
// reported as a 500 without a half-written page.
func renderPage(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, page collection.Page) {
	if page.Items == nil {
		items, err := d.Store.Load(r.Context())
		if err != nil {
			d.Logger.Error("failed to load collection", logger.Error(err))
			http.Error(w, "failed to load collection", http.StatusInternalServerError)
			return
		}
		page.Items = items
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := collection.RenderPage(w, page); err != nil {
		d.Logger.Error("failed to render page", logger.Error(err))
	}
}
