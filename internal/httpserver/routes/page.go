package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/httpserver/handlers"
)

func init() { Register(registerPage) }

func registerPage(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Page(d))
	r.Get("/export", handlers.Export(d))

	mut := r.With(mutating(d))
	mut.Post("/items", handlers.AddItem(d))
	mut.Post("/items/delete", handlers.DeleteItem(d))
	mut.Post("/import", handlers.Import(d))
}
