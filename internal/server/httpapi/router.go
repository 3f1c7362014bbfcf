// Package httpapi exposes the remote authority over JSON/HTTP with chi.
//
// Routes:
//
//	GET    /ping                 liveness probe
//	GET    /metrics              Prometheus metrics
//	POST   /users/               register
//	POST   /users/login          login
//	GET    /users/{id}           fetch one account
//	PUT    /users/{id}           update a profile
//	GET    /users/               list accounts (staff)
//	PATCH  /users/{id}/status    approve or reject (staff)
//	DELETE /users/{id}           delete an account (staff)
//
// Errors are written as {"detail": "..."}.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(h.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.RequestIDHeaderName},
		ExposedHeaders:   []string{common.RequestIDHeaderName},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/ping", h.Ping)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Post("/login", h.Login)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}", h.UpdateUser)

		r.Group(func(r chi.Router) {
			r.Use(h.staffOnly)
			r.Get("/", h.ListUsers)
			r.Patch("/{id}/status", h.SetStatus)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}
