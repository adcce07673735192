package handlers

import (
	"errors"
	"net/http"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
)

const (
	msgURLRequired = "Please enter a URL"
	msgInvalidURL  = "Please enter a valid URL"
)

// AddItem handles the add form. Invalid input re-renders the page with the
// form values kept; success redirects back to the collection.
func AddItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := collection.FormValues{
			URL:   r.PostFormValue("url"),
			Title: r.PostFormValue("title"),
			Notes: r.PostFormValue("notes"),
		}

		item, err := domain.NewItem(form.URL, form.Title, form.Notes, d.Classifier, d.Now())
		if err != nil {
			msg := msgInvalidURL
			if errors.Is(err, domain.ErrURLRequired) {
				msg = msgURLRequired
			}
			renderPage(w, r, d, http.StatusBadRequest, collection.Page{Form: form, Error: msg})
			return
		}

		if err := d.Store.Add(r.Context(), *item); err != nil {
			d.Logger.Error("failed to save item", logger.Error(err))
			http.Error(w, "failed to save item", http.StatusInternalServerError)
			return
		}

		d.Logger.Info("link saved",
			logger.String("id", item.ID),
			logger.String("hostname", item.Hostname))
		http.Redirect(w, r, "/?notice=saved", http.StatusSeeOther)
	}
}

// DeleteItem handles the delete button. The id travels as a form field
// because ids are opaque and may contain any character.
func DeleteItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PostFormValue("id")
		if err := d.Store.Delete(r.Context(), id); err != nil {
			d.Logger.Error("failed to delete item", logger.String("id", id), logger.Error(err))
			http.Error(w, "failed to delete item", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/?notice=deleted", http.StatusSeeOther)
	}
}
