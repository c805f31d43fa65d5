// Package api provides the HTTP REST API server for callreport.
//
// It exposes endpoints for call-report financial data retrieval, derived
// ratios, data-quality assessment, the analysis-type catalog, and cache
// administration.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/finquarry/callreport/internal/config"
	"github.com/finquarry/callreport/internal/fdic"
	"github.com/finquarry/callreport/internal/report"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	engine *fdic.Engine
	log    zerolog.Logger
}

// response is the JSON envelope every endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, engine *fdic.Engine, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Financial data
		r.Get("/financials", s.handleFinancials)
		r.Get("/ratios/{cert}", s.handleRatios)
		r.Get("/quality/{cert}", s.handleQuality)
		r.Get("/summary/{cert}", s.handleSummary)

		// Catalog
		r.Get("/analysis-types", s.handleAnalysisTypes)

		// Cache administration
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCacheClear)

		// Configuration
		r.Get("/config/keys", s.handleConfigKeys)
	})

	return r
}

// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	providerOK := s.engine.HealthCheck(ctx)
	status := http.StatusOK
	if !providerOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response{
		Success: true,
		Data: map[string]any{
			"status":      "ok",
			"provider_ok": providerOK,
			"cache":       s.engine.CacheStats(),
		},
	})
}

// handleFinancials serves GET /api/v1/financials.
// Query parameters: cert, analysis_type, quarters, report_date, filters.
func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	req, ok := s.requestFromQuery(w, r)
	if !ok {
		return
	}

	resp := s.engine.GetFinancialData(r.Context(), req)
	if !resp.Success {
		writeError(w, http.StatusBadGateway, resp.ErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: resp})
}

// handleRatios serves GET /api/v1/ratios/{cert}: the latest quarter's
// provider-reported and derived ratios for one institution.
func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	cert := chi.URLParam(r, "cert")

	resp := s.engine.GetFinancialData(r.Context(), fdic.Request{
		CertID:       cert,
		AnalysisType: "key_ratios",
		Quarters:     quartersParam(r),
	})
	if !resp.Success {
		writeError(w, http.StatusBadGateway, resp.ErrorMessage)
		return
	}
	if len(resp.Records) == 0 {
		writeError(w, http.StatusNotFound, "no financial records for cert "+cert)
		return
	}

	quarters := make([]map[string]any, 0, len(resp.Records))
	for i := range resp.Records {
		rec := &resp.Records[i]
		quarters = append(quarters, map[string]any{
			"report_date": rec.ReportDate.Format("2006-01-02"),
			"reported":    rec,
			"derived":     fdic.DeriveRatios(rec),
		})
	}
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: map[string]any{
			"cert":     cert,
			"cached":   resp.Cached,
			"quarters": quarters,
		},
	})
}

// handleQuality serves GET /api/v1/quality/{cert}: a completeness
// assessment of the latest available record.
func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	cert := chi.URLParam(r, "cert")

	resp := s.engine.GetFinancialData(r.Context(), fdic.Request{
		CertID:   cert,
		Quarters: 1,
	})
	if !resp.Success {
		writeError(w, http.StatusBadGateway, resp.ErrorMessage)
		return
	}
	if len(resp.Records) == 0 {
		writeError(w, http.StatusNotFound, "no financial records for cert "+cert)
		return
	}

	rec := &resp.Records[0]
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: map[string]any{
			"cert":        cert,
			"report_date": rec.ReportDate.Format("2006-01-02"),
			"cached":      resp.Cached,
			"quality":     fdic.AssessQuality(rec),
		},
	})
}

// handleSummary serves GET /api/v1/summary/{cert}: a rendered HTML
// summary of the latest quarter's financials.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	cert := chi.URLParam(r, "cert")

	resp := s.engine.GetFinancialData(r.Context(), fdic.Request{
		CertID:   cert,
		Quarters: quartersParam(r),
	})
	if !resp.Success {
		writeError(w, http.StatusBadGateway, resp.ErrorMessage)
		return
	}
	if len(resp.Records) == 0 {
		writeError(w, http.StatusNotFound, "no financial records for cert "+cert)
		return
	}

	html, err := report.RenderHTML(report.Build(cert, resp.Records))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary rendering failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (s *Server) handleAnalysisTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: map[string]any{
			"default": fdic.DefaultAnalysisType,
			"types":   fdic.AnalysisTypes(),
		},
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: s.engine.CacheStats()})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearCache()
	s.log.Info().Msg("response cache cleared via API")
	writeJSON(w, http.StatusOK, response{Success: true, Data: s.engine.CacheStats()})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: config.CheckAPIKeys(s.cfg)})
}

// ============================================================

// requestFromQuery maps the financials query string onto an engine
// request, rejecting malformed numeric parameters up front.
func (s *Server) requestFromQuery(w http.ResponseWriter, r *http.Request) (fdic.Request, bool) {
	q := r.URL.Query()
	req := fdic.Request{
		CertID:       q.Get("cert"),
		AnalysisType: q.Get("analysis_type"),
		ReportDate:   q.Get("report_date"),
		Filters:      q.Get("filters"),
	}
	if raw := q.Get("quarters"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "quarters must be a positive integer")
			return fdic.Request{}, false
		}
		req.Quarters = n
	}
	return req, true
}

// quartersParam reads an optional ?quarters= value, defaulting to 1.
func quartersParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("quarters"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{
		Success: false,
		Error:   msg,
	})
}
