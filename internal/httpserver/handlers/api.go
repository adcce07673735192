package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
)

const maxItemBody = 64 << 10

type createItemRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Notes string `json:"notes"`
}

type suggestionResponse struct {
	Title    string `json:"title"`
	Hostname string `json:"hostname"`
}

// ListItems returns the collection, newest first.
func ListItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.Load(r.Context())
		if err != nil {
			d.Logger.Error("failed to load collection", logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load collection")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// CreateItem saves a link posted as JSON and returns the stored item.
func CreateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxItemBody)).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		item, err := domain.NewItem(req.URL, req.Title, req.Notes, d.Classifier, d.Now())
		if err != nil {
			msg := msgInvalidURL
			if errors.Is(err, domain.ErrURLRequired) {
				msg = msgURLRequired
			}
			writeJSONError(w, http.StatusBadRequest, msg)
			return
		}

		if err := d.Store.Add(r.Context(), *item); err != nil {
			d.Logger.Error("failed to save item", logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to save item")
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// DeleteItemAPI removes an item. Unknown ids succeed as well.
// Clients path-escape the id, so "a/b" arrives as "a%2Fb". chi matches on
// the raw path in that case and the param must be unescaped here.
func DeleteItemAPI(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if r.URL.RawPath != "" {
			var err error
			if id, err = url.PathUnescape(id); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid item id")
				return
			}
		}
		if err := d.Store.Delete(r.Context(), id); err != nil {
			d.Logger.Error("failed to delete item", logger.String("id", id), logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to delete item")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SuggestTitle returns the title and hostname a URL would be saved with.
func SuggestTitle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		writeJSON(w, http.StatusOK, suggestionResponse{
			Title:    d.Classifier.DeriveTitle(raw),
			Hostname: domain.DeriveHostname(raw),
		})
	}
}
