package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/httpserver/handlers"
)

func init() { Register(registerWorker) }

func registerWorker(r chi.Router, d deps.Deps) {
	// App shell, answered cache-first.
	for _, p := range d.ShellPaths {
		if p == "/" {
			continue
		}
		r.Get(p, d.Worker.ServeHTTP)
	}

	r.Route("/sw", func(r chi.Router) {
		r.Get("/status", handlers.CacheStatus(d))
		r.With(mutating(d)).Post("/push", handlers.Push(d))
		r.With(mutating(d)).Post("/notificationclick", handlers.NotificationClick(d))
		r.With(mutating(d)).Post("/message", handlers.Message(d))
	})
}
