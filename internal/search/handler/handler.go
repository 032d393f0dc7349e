// Package handler wires the public search API endpoints to the pipeline.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nexus/internal/cache"
	"nexus/internal/search/service"
	"nexus/internal/search/store/history"
	dErrors "nexus/pkg/domain-errors"
	"nexus/pkg/platform/httputil"
)

// Service defines the search operations the handler exposes.
type Service interface {
	Search(ctx context.Context, query string, forceRefresh bool) (*service.Result, error)
	History(ctx context.Context, limit int, country string) ([]history.Record, error)
	HistoryStats(ctx context.Context) (history.Stats, error)
	CacheStats(ctx context.Context) cache.Stats
}

// LimiterStats exposes rate-limiter counters for the stats endpoint.
type LimiterStats interface {
	Stats(ctx context.Context) (map[string]any, error)
}

// Handler wires search endpoints to the pipeline service.
type Handler struct {
	service  Service
	limiter  LimiterStats
	logger   *slog.Logger
	demoMode bool
}

// New constructs a search handler with its dependencies.
func New(svc Service, limiter LimiterStats, logger *slog.Logger, demoMode bool) *Handler {
	return &Handler{
		service:  svc,
		limiter:  limiter,
		logger:   logger,
		demoMode: demoMode,
	}
}

// Register mounts the public API endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/search", h.HandleSearch)
	r.Get("/api/search/history", h.HandleHistory)
	r.Get("/api/cache/stats", h.HandleCacheStats)
	r.Get("/api/database/stats", h.HandleDatabaseStats)
	r.Get("/api/rate-limiter/stats", h.HandleLimiterStats)
	r.Get("/api/health", h.HandleHealth)
}

// HandleSearch handles GET /api/search?q=...&force_refresh=true.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query := r.URL.Query().Get("q")
	forceRefresh, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Search(ctx, query, forceRefresh)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			h.logger.ErrorContext(ctx, "search failed", "query", query, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "search completed",
		"query", result.Query,
		"country", result.Country,
		"nodes", len(result.Nodes),
		"cache_hit", result.Meta.CacheHit,
		"degraded", result.Meta.Degraded,
		"max_risk_score", result.Summary.MaxRiskScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /api/search/history?limit=100&country=sk.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	country := r.URL.Query().Get("country")

	records, err := h.service.History(ctx, limit, country)
	if err != nil {
		h.logger.ErrorContext(ctx, "history listing failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list history"))
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"results": records,
	})
}

// HandleCacheStats handles GET /api/cache/stats.
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.CacheStats(r.Context()))
}

// HandleDatabaseStats handles GET /api/database/stats.
func (h *Handler) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.HistoryStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "database stats failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "database stats"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleLimiterStats handles GET /api/rate-limiter/stats.
func (h *Handler) HandleLimiterStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.limiter.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "limiter stats failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "limiter stats"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.service.CacheStats(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"demo_mode": h.demoMode,
		"cache": map[string]any{
			"shared_enabled": stats.SharedEnabled,
			"shared_healthy": stats.SharedHealthy,
		},
	})
}
