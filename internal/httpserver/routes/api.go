package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/httpserver/handlers"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", handlers.ListItems(d))
		r.Get("/suggest-title", handlers.SuggestTitle(d))
		r.With(mutating(d)).Post("/items", handlers.CreateItem(d))
		r.With(mutating(d)).Delete("/items/{id}", handlers.DeleteItemAPI(d))
	})
}
