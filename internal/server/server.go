// Package server wires all application routes and middleware onto a single
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/gosuda/reviewd/internal/api/stream"
	"github.com/gosuda/reviewd/internal/config"
	"github.com/gosuda/reviewd/internal/server/middleware"
)

// Server is the HTTP server for the review service.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// Deps are the collaborators the route handlers need. Everything is injected
// by the composition root; the server holds no business state of its own.
type Deps struct {
	Store    DataStore
	Sessions SessionManager
	Runner   ReviewRunner
	Stream   *stream.Handler
}

// New creates a Server with all routes wired.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     router,
			ReadTimeout: cfg.Server.ReadTimeout,
			// No write timeout: the SSE channel and the synchronous review
			// run both outlive any fixed deadline.
		},
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Streaming endpoints stay plain chi handlers; everything
		// request/response goes through huma.
		r.Get("/review/stream", deps.Stream.ServeSSE)
		r.Post("/review/sessions", deps.Stream.OpenSession)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, 10, 20))

			apiConfig := huma.DefaultConfig("Reviewd API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, deps)
		})
	})

	// WebSocket variant of the session stream.
	router.Route("/ws", func(r chi.Router) {
		r.Get("/review/{sessionID}", deps.Stream.ServeWS)
	})

	// Health check.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
