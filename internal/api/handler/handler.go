// Package handler provides HTTP handlers for all API endpoints.
// Standings and seeding are recomputed on request from archived games
// through the season engine; nothing is served from scraped pages
// directly.
package handler

import (
	"net/http"

	"github.com/cbuckley/courtcast/internal/api/respond"
	"github.com/cbuckley/courtcast/internal/archive"
	"github.com/cbuckley/courtcast/internal/config"
	"github.com/cbuckley/courtcast/internal/team"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	registry *team.Registry
	pool     *archive.Pool // nil when no database is configured
	cfg      *config.Config
}

// New creates a Handler with shared dependencies. pool may be nil;
// endpoints needing the archive then answer 503.
func New(registry *team.Registry, pool *archive.Pool, cfg *config.Config) *Handler {
	return &Handler{registry: registry, pool: pool, cfg: cfg}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Courtcast API",
		"version":     "1.0.0",
		"status":      "ok",
		"environment": h.cfg.Environment,
		"docs":        "/docs/",
	})
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckDB reports archive reachability.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "NO_DATABASE", "no database configured")
		return
	}
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusServiceUnavailable, "DB_UNREACHABLE", "database unreachable", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireArchive writes a 503 and returns false when no pool is wired.
func (h *Handler) requireArchive(w http.ResponseWriter) bool {
	if h.pool == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "NO_DATABASE", "no database configured")
		return false
	}
	return true
}
