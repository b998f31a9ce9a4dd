package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cbuckley/courtcast/internal/api/respond"
)

const defaultRunLimit = 20

// Runs lists archived simulation runs, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if !h.requireArchive(w) {
		return
	}
	limit := defaultRunLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 200 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_LIMIT", "limit must be 1-200")
			return
		}
		limit = n
	}
	runs, err := h.pool.ListRuns(r.Context(), limit)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "ARCHIVE_READ", "list runs", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// RunByID serves one run with its per-team results.
func (h *Handler) RunByID(w http.ResponseWriter, r *http.Request) {
	if !h.requireArchive(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_RUN_ID", "run id must be a UUID")
		return
	}
	run, found, err := h.pool.RunByID(r.Context(), id)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "ARCHIVE_READ", "load run", err.Error())
		return
	}
	if !found {
		respond.WriteError(w, http.StatusNotFound, "RUN_NOT_FOUND", "no run with that id")
		return
	}
	results, err := h.pool.RunTeamResults(r.Context(), id)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "ARCHIVE_READ", "load run results", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":   run,
		"teams": results,
	})
}
