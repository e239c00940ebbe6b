// Package httpserver provides the HTTP REST API of the scholar gateway.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/analysis"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/llm"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/service"
)

// ScholarService is the facade the handlers call. *service.Service
// implements it.
type ScholarService interface {
	GetPaperInfo(ctx context.Context, paperID string) (*domain.Paper, error)
	GetPapers(ctx context.Context, ids []string) ([]papersources.PaperResult, error)
	SearchPapers(ctx context.Context, req service.SearchRequest) (*service.SearchResult, error)
	SearchSources(ctx context.Context, req service.MultiSearchRequest) (*service.MultiSearchResult, error)
	BatchSearch(ctx context.Context, req service.BatchSearchRequest) ([]service.KeywordOutcome, error)
	GetAuthorInfo(ctx context.Context, authorID string) (*domain.Author, error)
	GetAuthorPapers(ctx context.Context, req service.AuthorPapersRequest) ([]*domain.Paper, error)
	GetCitationRelations(ctx context.Context, paperID string, depth int) (*domain.CitationRelations, error)
	GetJournalInfo(ctx context.Context, journalID string) (*domain.Journal, error)
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*llm.AnalysisResult, error)
	Statistics(ctx context.Context, req service.StatsRequest) (*analysis.Report, error)
	CurrentAdapter() domain.SourceType
	SupportedAdapters() []domain.SourceType
	SwitchAdapter(name string) error
	ClearCache(ctx context.Context) error
	CacheStats() service.CacheStats
	AnalysisEnabled() bool
}

// Ensure the service satisfies the handler contract.
var _ ScholarService = (*service.Service)(nil)

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	svc        ScholarService
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     zerolog.Logger
	cfg        Config
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string

	// CORSEnabled allows cross-origin requests from any origin.
	CORSEnabled bool
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, svc ScholarService, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		svc:      svc,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger.With().Str("component", "http-server").Logger(),
		cfg:      cfg,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	if s.cfg.CORSEnabled {
		r.Use(corsMiddleware())
	}
	r.Use(s.metricsMiddleware)

	if s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/healthz", s.healthHandler)

		r.Route("/api", func(r chi.Router) {
			r.Post("/paper/info", s.getPaperInfo)
			r.Post("/paper/citations", s.getCitationRelations)
			r.Post("/papers/search", s.searchPapers)
			r.Post("/papers/search/sources", s.searchSources)
			r.Post("/papers/search/batch", s.batchSearch)
			r.Post("/papers/search/export", s.exportSearch)
			r.Post("/papers/batch", s.batchGetPapers)
			r.Post("/author/info", s.getAuthorInfo)
			r.Post("/author/papers", s.getAuthorPapers)
			r.Post("/journal/info", s.getJournalInfo)

			r.Post("/analysis/llm", s.analyzePapers)
			r.Post("/analysis/stats", s.statistics)

			r.Get("/adapters", s.listAdapters)
			r.Post("/adapters/switch", s.switchAdapter)

			r.Get("/cache/stats", s.cacheStats)
			r.Post("/cache/clear", s.clearCache)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns liveness status and the active source.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"adapter": string(s.svc.CurrentAdapter()),
	})
}
