package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/topic-channel/internal/api/middleware"
	"github.com/notifyhub/topic-channel/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RunHandler serves the recorded run history.
type RunHandler struct {
	repo   repository.RunRepository
	logger *zap.Logger
}

func NewRunHandler(repo repository.RunRepository, logger *zap.Logger) *RunHandler {
	return &RunHandler{repo: repo, logger: logger}
}

// GetByID handles GET /api/v1/runs/{id}
//
// @Summary  Get a run by ID
// @Tags     runs
// @Produce  json
// @Param    id   path      string  true  "Run UUID"
// @Success  200  {object}  domain.Run
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/runs/{id} [get]
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// List handles GET /api/v1/runs?limit=20
//
// @Summary  List recent runs, newest first
// @Tags     runs
// @Produce  json
// @Param    limit  query     int  false  "Max results (1-100)"
// @Success  200    {object}  map[string]any
// @Router   /api/v1/runs [get]
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}
