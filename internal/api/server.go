// Package api exposes the HTTP surface: pack CRUD, the schema catalog,
// value contribution, comments, source priorities, and the resolved
// detail/compare views.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/cellgrid/packdb/internal/config"
	"github.com/cellgrid/packdb/internal/projection"
	"github.com/cellgrid/packdb/internal/store"
)

type Server struct {
	store store.Store
	proj  *projection.Service
	auth  Authenticator
	cfg   config.ServerConfig
}

func NewServer(st store.Store, auth Authenticator, cfg config.ServerConfig) *Server {
	return &Server{
		store: st,
		proj:  projection.NewService(st),
		auth:  auth,
		cfg:   cfg,
	}
}

// Router assembles the middleware chain and route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(requestID)
	r.Use(logRequests)
	if s.cfg.RateLimitPerSec > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSec), s.cfg.RateLimitBurst)))
	}
	r.Use(s.authenticate)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/sources", s.handleListSources)
		r.Get("/compare", s.handleComparePacks)
		r.With(requireUser).Get("/auth/me", s.handleMe)

		r.Route("/packs", func(r chi.Router) {
			r.Get("/", s.handleListPacks)
			r.With(requireUser).Post("/", s.handleCreatePack)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPack)
				r.With(requireUser).Put("/", s.handleUpdatePack)
				r.With(requireUser).Delete("/", s.handleDeletePack)
				r.Get("/values", s.handleListPackValues)
				r.With(requireUser).Post("/values", s.handleCreateValue)
			})
		})

		r.Route("/domains", func(r chi.Router) {
			r.Get("/", s.handleListDomains)
			r.With(requireUser).Post("/", s.handleCreateDomain)
			r.Get("/{id}/fields", s.handleListFields)
			r.With(requireUser).Post("/{id}/fields", s.handleCreateField)
		})

		r.Route("/fields", func(r chi.Router) {
			r.With(requireUser).Put("/{id}", s.handleUpdateField)
			r.With(requireUser).Delete("/{id}", s.handleDeleteField)
		})

		r.Route("/values", func(r chi.Router) {
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetValue)
				r.With(requireUser).Put("/", s.handleUpdateValue)
				r.With(requireUser).Delete("/", s.handleDeleteValue)
				r.Get("/comments", s.handleListComments)
				r.With(requireUser).Post("/comments", s.handleCreateComment)
			})
		})

		r.Route("/preferences/sources", func(r chi.Router) {
			r.Get("/", s.handleGetPriority)
			r.With(requireUser).Put("/", s.handleSetPriority)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
