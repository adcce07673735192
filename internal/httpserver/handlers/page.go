package handlers

import (
	"net/http"
	"strings"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
)

// Flash messages selected by the notice query parameter.
var notices = map[string]string{
	"saved":    "✅ Link saved to collection!",
	"deleted":  "🗑️ Item deleted",
	"imported": "📥 Data imported successfully!",
}

// Page renders the collection. A shared link (?url= or ?text=) pre-fills
// the add form together with a suggested title.
func Page(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page := collection.Page{Notice: notices[q.Get("notice")]}

		shared := strings.TrimSpace(q.Get("url"))
		if shared == "" {
			shared = strings.TrimSpace(q.Get("text"))
		}
		if shared != "" {
			page.Form = collection.FormValues{
				URL:   shared,
				Title: d.Classifier.DeriveTitle(shared),
			}
		}

		renderPage(w, r, d, http.StatusOK, page)
	}
}
