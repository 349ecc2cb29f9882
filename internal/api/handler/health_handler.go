package handler

import "net/http"

// HealthHandler serves the liveness probe. The body also names the phase of
// the latest run so an operator can tell an idle runner from a busy one.
type HealthHandler struct {
	runs Snapshotter
}

func NewHealthHandler(runs Snapshotter) *HealthHandler { return &HealthHandler{runs: runs} }

type healthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Phase  string `json:"phase"`
}

// Health handles GET /health
//
// @Summary  Liveness probe with the latest run phase
// @Tags     system
// @Produce  json
// @Success  200  {object}  healthResponse
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Phase: "idle"}
	if snap, ok := h.runs.Snapshot(); ok {
		resp.RunID = snap.RunID
		resp.Phase = string(snap.Phase)
	}
	respondJSON(w, http.StatusOK, resp)
}
