package handler

import (
	"net/http"

	"github.com/notifyhub/topic-channel/internal/orchestrator"
)

// Snapshotter exposes the live state of the current run.
type Snapshotter interface {
	Snapshot() (orchestrator.Snapshot, bool)
}

// QueueHandler serves a human-readable JSON snapshot of the current run.
// Raw Prometheus metrics (counters, gauges) are available at /metrics
// via promhttp and are separate from this endpoint.
type QueueHandler struct {
	runs Snapshotter
}

func NewQueueHandler(runs Snapshotter) *QueueHandler {
	return &QueueHandler{runs: runs}
}

// GetQueue handles GET /api/v1/queue
//
// @Summary  Live queue and phase snapshot of the current run
// @Tags     runs
// @Produce  json
// @Success  200  {object}  orchestrator.Snapshot
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/queue [get]
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.runs.Snapshot()
	if !ok {
		respondError(w, http.StatusNotFound, "no run has started yet")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
