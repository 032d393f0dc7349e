// Package handler exposes the circuit breaker admin surface: a read-only
// listing and a force-reset. Mounted behind the admin JWT guard.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nexus/internal/circuit"
	dErrors "nexus/pkg/domain-errors"
	"nexus/pkg/platform/httputil"
)

// Registry is the breaker admin contract.
type Registry interface {
	List() []circuit.Snapshot
	Reset(upstream string) bool
}

type Handler struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/breakers", h.HandleList)
	r.Post("/admin/breakers/{name}/reset", h.HandleReset)
}

// HandleList handles GET /admin/breakers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	snapshots := h.registry.List()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(snapshots),
		"breakers": snapshots,
	})
}

// HandleReset handles POST /admin/breakers/{name}/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if !h.registry.Reset(name) {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "no breaker named %q", name))
		return
	}

	h.logger.InfoContext(r.Context(), "breaker reset via admin api", "upstream", name, "log_type", "audit")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"upstream": name,
		"state":    circuit.StateClosed,
	})
}
