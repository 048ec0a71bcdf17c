package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tomato_backend/internal/handler"
	"tomato_backend/internal/httputil"
	authmw "tomato_backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	PostHandler *handler.PostHandler
	Tokens      authmw.TokenVerifier
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	requireAuth := authmw.RequireAuth(cfg.Tokens)
	optionalAuth := authmw.OptionalAuth(cfg.Tokens)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/user/auth", cfg.AuthHandler.SignIn)
	r.Get("/posts", cfg.PostHandler.GetPublic)

	// Public endpoints with optional authentication
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/user/{id}", cfg.UserHandler.GetUser)
		r.Get("/posts/{id}", cfg.PostHandler.GetByID)
		r.Get("/posts-at-location", cfg.PostHandler.GetAtLocation)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/me", cfg.UserHandler.Me)

		r.Post("/posts", cfg.PostHandler.Create)
		r.Put("/posts/{id}", cfg.PostHandler.Update)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Get("/posts-authenticated", cfg.PostHandler.GetAuthenticated)
	})

	return r
}
