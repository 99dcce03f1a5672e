// Package server exposes classification, scoring, assessment storage and
// report export over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/render"
	"github.com/sells-group/readiness-cli/internal/scorer"
)

// Server wires HTTP handlers to the assessment service.
type Server struct {
	cfg      *config.Config
	svc      *assessment.Service
	engine   *scorer.Engine
	pdf      render.PDFRenderer
	validate *validator.Validate
	limiter  *clientLimiter
}

// New creates a Server. pdf may be nil, in which case PDF export returns 503.
func New(cfg *config.Config, svc *assessment.Service, pdf render.PDFRenderer) *Server {
	return &Server{
		cfg:      cfg,
		svc:      svc,
		engine:   scorer.NewEngine(cfg.Scoring),
		pdf:      pdf,
		validate: validator.New(),
		limiter:  newClientLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst),
	}
}

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.limiter.middleware)
	if s.cfg.Server.MaxBodyBytes > 0 {
		r.Use(maxBody(s.cfg.Server.MaxBodyBytes))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/catalog", s.handleCatalog)
		r.Post("/classify", s.handleClassify)
		r.Post("/score", s.handleScore)
		r.Post("/export/pdf", s.handleExportPDF)

		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", s.handleCreateAssessment)
			r.Get("/", s.handleListAssessments)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAssessment)
				r.Delete("/", s.handleDeleteAssessment)
				r.Put("/profile", s.handlePutProfile)
				r.Put("/answers/{questionID}", s.handlePutAnswer)
				r.Delete("/answers/{questionID}", s.handleDeleteAnswer)
				r.Get("/score", s.handleAssessmentScore)
				r.Get("/history", s.handleHistory)
				r.Get("/export", s.handleExportGaps)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
