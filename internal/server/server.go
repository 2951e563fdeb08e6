package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
)

// Analyzer runs a risk analysis.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*model.Report, error)
}

// Prices serves normalized price series and source health.
type Prices interface {
	FetchOutcome(ctx context.Context, symbol string, horizonDays int) (collector.FetchOutcome, error)
	Ping(ctx context.Context) []collector.SourceStatus
}

// Config holds server configuration.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	// Defaults fills parameters a request leaves out.
	Defaults  analysis.Request
	AccessLog *zerolog.Logger
	SkipPaths []string
}

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	cfg      Config
	analyzer Analyzer
	prices   Prices
	http     *http.Server
}

func New(cfg Config, analyzer Analyzer, prices Prices) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.SkipPaths == nil {
		cfg.SkipPaths = []string{"/healthz", "/metrics"}
	}
	s := &Server{cfg: cfg, analyzer: analyzer, prices: prices}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.cfg.AccessLog, s.cfg.SkipPaths))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/prices/{symbol}", s.handlePrices)
	})
	return r
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
