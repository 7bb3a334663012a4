// Package server provides the HTTP server and routing for the coin flip service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantumflip/internal/config"
	"github.com/aristath/quantumflip/internal/di"
	privacyhandlers "github.com/aristath/quantumflip/internal/modules/privacy/handlers"
	"github.com/aristath/quantumflip/internal/modules/quantum"
	quantumhandlers "github.com/aristath/quantumflip/internal/modules/quantum/handlers"
	trialshandlers "github.com/aristath/quantumflip/internal/modules/trials/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Jobs      *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	jobs := cfg.Jobs
	if jobs == nil {
		jobs = &di.JobInstances{}
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container.Source,
			cfg.Container.Scheduler,
			jobs.SourceHealth,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode, cfg.Config.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, allowedOrigins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	quantumHandler := quantumhandlers.NewHandler(
		s.container.Orchestrator,
		quantumhandlers.BackendInfo{
			Backend:             s.container.Source.Name(),
			Quantum:             s.container.Source.Quantum(),
			MaxShots:            quantum.MaxShots,
			BatchSize:           s.container.Orchestrator.MaxBatchSize(),
			BatchDelay:          s.container.Orchestrator.BatchDelay(),
			MaxTrialsPerRequest: s.cfg.MaxTrialsPerRequest,
			SaltConfigured:      s.cfg.PrivacySaltConfigured(),
		},
		s.log,
	)
	trialsHandler := trialshandlers.NewHandler(s.container.Orchestrator, s.cfg.MaxTrialsPerRequest, s.log)
	privacyHandler := privacyhandlers.NewHandler(
		s.container.Aggregator,
		s.cfg.DefaultEpsilon,
		s.container.Source.Quantum(),
		s.log,
	)

	s.router.Get("/health", s.handleHealth)

	// Legacy paths served before the /api prefix existed
	s.router.Post("/quantum-flip", quantumHandler.HandleFlip)
	s.router.Post("/quantum-trials", trialsHandler.HandleRunTrials)
	s.router.Post("/quantum-stats", privacyHandler.HandleStats)

	s.router.Route("/api", func(r chi.Router) {
		quantumHandler.RegisterRoutes(r)
		trialsHandler.RegisterRoutes(r)
		privacyHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Post("/self-test", s.systemHandlers.HandleTriggerSelfTest)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
